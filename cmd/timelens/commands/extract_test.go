package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
	"github.com/Sumatoshi-tech/timelens/pkg/model"
)

func writeConfigFile(t *testing.T, outDir, repoPath string) string {
	t.Helper()

	cfgPath := filepath.Join(t.TempDir(), "timelens.yaml")
	cfg := fmt.Sprintf(`output: %s
assets_dir: %s
projects:
  - name: demo
    repo: %s
`, filepath.Join(outDir, "temporal-data.json"), filepath.Join(outDir, "assets"), repoPath)

	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	return cfgPath
}

func TestExtractCommandEndToEnd(t *testing.T) {
	repo := gitlib.NewTestRepo(t)
	repo.WriteFile("images/logo.png", "not-actually-a-png")
	repo.WriteFile("click.md", "# Demo\n\n![logo](images/logo.png)\n")
	repo.Commit("add tracked file and logo")
	repo.WriteFile("click.md", "# Demo\n\nUpdated.\n\n![logo](images/logo.png)\n")
	repo.Commit("update tracked file")

	outDir := t.TempDir()
	cfgPath := writeConfigFile(t, outDir, repo.Path)

	cmd := NewExtractCommand()

	var out, errOut bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs([]string{"--config", cfgPath})

	require.NoError(t, cmd.Execute())

	data, err := os.ReadFile(filepath.Join(outDir, "temporal-data.json"))
	require.NoError(t, err)
	require.NoError(t, model.ValidateBytes(data))

	var doc model.Document

	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Projects, 1)

	project := doc.Projects[0]
	assert.Equal(t, "demo", project.Name)
	assert.Len(t, project.Commits, 2)
	assert.NotEmpty(t, project.ClickFile.BlameHistory)
	require.Len(t, project.ClickFile.Images, 1)
	assert.Equal(t, "demo_images_logo.png", project.ClickFile.Images[0].Destination)

	copied, err := os.ReadFile(filepath.Join(outDir, "assets", "demo_images_logo.png"))
	require.NoError(t, err)
	assert.Equal(t, "not-actually-a-png", string(copied))

	// Summary table goes to stdout.
	assert.Contains(t, out.String(), "demo")
}

func TestExtractCommandOutputOverride(t *testing.T) {
	repo := gitlib.NewTestRepo(t)
	repo.WriteFile("click.md", "hello\n")
	repo.Commit("add tracked file")

	outDir := t.TempDir()
	cfgPath := writeConfigFile(t, outDir, repo.Path)
	override := filepath.Join(t.TempDir(), "override.json")

	cmd := NewExtractCommand()

	var buf bytes.Buffer

	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--config", cfgPath, "--output", override, "--workers", "1"})

	require.NoError(t, cmd.Execute())

	_, err := os.Stat(override)
	require.NoError(t, err)

	_, err = os.Stat(filepath.Join(outDir, "temporal-data.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestExtractCommandUnavailableRepo(t *testing.T) {
	outDir := t.TempDir()
	cfgPath := writeConfigFile(t, outDir, filepath.Join(t.TempDir(), "no-such-repo"))

	cmd := NewExtractCommand()

	var buf bytes.Buffer

	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--config", cfgPath})

	// The only configured project fails, so the run fails.
	require.Error(t, cmd.Execute())
}

func TestExtractCommandDiscoversProjects(t *testing.T) {
	repo := gitlib.NewTestRepo(t)
	repo.WriteFile("projects/alpha/click.md", "alpha\n")
	repo.Commit("seed project")

	outDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "timelens.yaml")
	cfg := fmt.Sprintf("output: %s\n", filepath.Join(outDir, "temporal-data.json"))
	require.NoError(t, os.WriteFile(cfgPath, []byte(cfg), 0o644))

	cmd := NewExtractCommand()

	var buf bytes.Buffer

	cmd.SetOut(&buf)
	cmd.SetErr(&buf)
	cmd.SetArgs([]string{"--config", cfgPath, repo.Path})

	require.NoError(t, cmd.Execute())

	var doc model.Document

	data, err := os.ReadFile(filepath.Join(outDir, "temporal-data.json"))
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	require.Len(t, doc.Projects, 1)
	assert.Equal(t, "alpha", doc.Projects[0].Name)
	assert.Equal(t, "projects/alpha/click.md", doc.Projects[0].ClickFile.Path)
}

func TestExtractCommandTimeoutFlagParses(t *testing.T) {
	cmd := NewExtractCommand()
	require.NoError(t, cmd.Flags().Set("timeout", "30s"))

	value, err := cmd.Flags().GetDuration("timeout")
	require.NoError(t, err)
	assert.Equal(t, 30*time.Second, value)
}
