package extract

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timelens/internal/config"
	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
	"github.com/Sumatoshi-tech/timelens/pkg/observability"
)

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()

	providers, err := observability.Init(observability.Config{
		ServiceName: "timelens-test",
		LogOut:      io.Discard,
	})
	require.NoError(t, err)

	t.Cleanup(func() { _ = providers.Shutdown(context.Background()) })

	metrics, err := observability.NewExtractionMetrics(providers.Meter)
	require.NoError(t, err)

	return &Extractor{
		Logger:  providers.Logger,
		Tracer:  providers.Tracer,
		Metrics: metrics,
	}
}

func TestExtractProject(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("images/logo.png", "logo")
	tr.WriteFile("click.md", "# Demo\n\n![logo](images/logo.png)\n")
	tr.Commit("initial")
	tr.WriteFile("click.md", "# Demo\n\nMore text.\n\n![logo](images/logo.png)\n")
	tr.Commit("extend")

	extractor := newTestExtractor(t)

	result, err := extractor.ExtractProject(context.Background(), config.ProjectConfig{
		Name:      "demo",
		Repo:      tr.Path,
		ClickFile: "click.md",
	})
	require.NoError(t, err)

	project := result.Project
	assert.Equal(t, "demo", project.Name)
	assert.Equal(t, tr.Path, project.Path)
	assert.Len(t, project.Commits, 2)

	assert.Equal(t, "click.md", project.ClickFile.Path)
	assert.Len(t, project.ClickFile.Commits, 2)
	assert.NotEmpty(t, project.ClickFile.BlameHistory)
	assert.Contains(t, project.ClickFile.CurrentContent, "More text.")

	require.Len(t, project.ClickFile.Images, 1)
	require.Len(t, result.Assets, 1)
	assert.Equal(t, "demo_images_logo.png", result.Assets[0].Destination)
	assert.Empty(t, result.Warnings)
}

func TestExtractProjectMissingTrackedFile(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("readme.txt", "no tracked file yet\n")
	tr.Commit("initial")

	extractor := newTestExtractor(t)

	result, err := extractor.ExtractProject(context.Background(), config.ProjectConfig{
		Name:      "demo",
		Repo:      tr.Path,
		ClickFile: "click.md",
	})
	require.NoError(t, err)

	// The project still contributes its repo history; only the tracked
	// file record is empty.
	assert.Len(t, result.Project.Commits, 1)
	assert.Empty(t, result.Project.ClickFile.Commits)
	assert.Empty(t, result.Project.ClickFile.BlameHistory)
	assert.Empty(t, result.Project.ClickFile.Images)
	assert.Empty(t, result.Project.ClickFile.CurrentContent)

	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "click.md")
}

func TestExtractProjectUnavailableRepo(t *testing.T) {
	extractor := newTestExtractor(t)

	_, err := extractor.ExtractProject(context.Background(), config.ProjectConfig{
		Name:      "demo",
		Repo:      t.TempDir(),
		ClickFile: "click.md",
	})
	require.ErrorIs(t, err, ErrRepositoryUnavailable)
}

func TestExtractProjectBranchRevision(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("click.md", "one\n")
	first := tr.Commit("first")
	tr.WriteFile("click.md", "one\ntwo\n")
	tr.Commit("second")

	extractor := newTestExtractor(t)

	result, err := extractor.ExtractProject(context.Background(), config.ProjectConfig{
		Name:      "demo",
		Repo:      tr.Path,
		ClickFile: "click.md",
		Branch:    first.String(),
	})
	require.NoError(t, err)

	// Pinned to the first commit: the later edit is invisible.
	require.Len(t, result.Project.Commits, 1)
	assert.Equal(t, first.String(), result.Project.Commits[0].SHA)
	assert.Equal(t, "one\n", result.Project.ClickFile.CurrentContent)
}

func TestExtractProjectBadRevision(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("click.md", "one\n")
	tr.Commit("first")

	extractor := newTestExtractor(t)

	_, err := extractor.ExtractProject(context.Background(), config.ProjectConfig{
		Name:      "demo",
		Repo:      tr.Path,
		ClickFile: "click.md",
		Branch:    "no-such-branch",
	})
	require.ErrorIs(t, err, ErrRepositoryUnavailable)
}
