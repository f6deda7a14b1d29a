package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timelens/internal/config"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "timelens.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	return path
}

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, ""))
	require.NoError(t, err)

	assert.Equal(t, config.DefaultOutput, cfg.Output)
	assert.Equal(t, filepath.Join("dist", "assets"), cfg.AssetsDir)
	assert.Equal(t, config.DefaultWorkers, cfg.Workers)
	assert.Equal(t, config.DefaultProjectTimeout, cfg.ProjectTimeout)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Empty(t, cfg.Projects)
}

func TestLoadConfigProjects(t *testing.T) {
	cfg, err := config.LoadConfig(writeConfig(t, `
output: out/data.json
workers: 2
project_timeout: 30s
projects:
  - name: demo
    repo: ./projects/demo
  - name: ext
    repo: ./external-projects/ext
    click_file: docs/click.md
    branch: main
    auth: true
`))
	require.NoError(t, err)

	assert.Equal(t, "out/data.json", cfg.Output)
	assert.Equal(t, filepath.Join("out", "assets"), cfg.AssetsDir)
	assert.Equal(t, 2, cfg.Workers)
	assert.Equal(t, 30*time.Second, cfg.ProjectTimeout)
	require.Len(t, cfg.Projects, 2)

	// click_file defaults per project.
	assert.Equal(t, config.DefaultClickFile, cfg.Projects[0].ClickFile)
	assert.Equal(t, "docs/click.md", cfg.Projects[1].ClickFile)
	assert.Equal(t, "main", cfg.Projects[1].Branch)
	assert.True(t, cfg.Projects[1].Auth)
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := config.LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, config.DefaultOutput, cfg.Output)
}

func TestLoadConfigValidation(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr error
	}{
		{
			name:    "empty_project_name",
			yaml:    "projects:\n  - repo: ./x\n",
			wantErr: config.ErrProjectName,
		},
		{
			name:    "empty_repo",
			yaml:    "projects:\n  - name: x\n",
			wantErr: config.ErrProjectRepo,
		},
		{
			name:    "duplicate_name",
			yaml:    "projects:\n  - name: x\n    repo: ./a\n  - name: x\n    repo: ./b\n",
			wantErr: config.ErrDuplicateProject,
		},
		{
			name:    "bad_workers",
			yaml:    "workers: 0\n",
			wantErr: config.ErrBadWorkers,
		},
		{
			name:    "empty_output",
			yaml:    "output: \"\"\n",
			wantErr: config.ErrNoOutput,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := config.LoadConfig(writeConfig(t, tt.yaml))
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}
