package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
)

func TestExtractImageRefs(t *testing.T) {
	content := `# Doc

![logo](images/logo.png)
<img src="diagrams/arch.svg" alt="arch">
![again](images/logo.png)
![remote](https://example.com/x.png)
![cdn](//cdn.example.com/y.png)
<img src='photos/team.jpg'>
`

	refs := ExtractImageRefs(content)

	assert.Equal(t, []string{"diagrams/arch.svg", "images/logo.png", "photos/team.jpg"}, refs)
}

func TestExtractImageRefsEmpty(t *testing.T) {
	assert.Empty(t, ExtractImageRefs("no images here\n"))
}

func TestResolveRef(t *testing.T) {
	tests := []struct {
		name      string
		clickFile string
		ref       string
		want      string
		wantErr   bool
	}{
		{name: "root sibling", clickFile: "click.md", ref: "images/logo.png", want: "images/logo.png"},
		{name: "nested click file", clickFile: "docs/click.md", ref: "images/logo.png", want: "docs/images/logo.png"},
		{name: "parent reference", clickFile: "docs/click.md", ref: "../images/logo.png", want: "images/logo.png"},
		{name: "dot prefix", clickFile: "click.md", ref: "./logo.png", want: "logo.png"},
		{name: "escapes root", clickFile: "click.md", ref: "../outside.png", wantErr: true},
		{name: "deep escape", clickFile: "docs/click.md", ref: "../../../outside.png", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ResolveRef(tt.clickFile, tt.ref)

			if tt.wantErr {
				require.ErrorIs(t, err, ErrAssetUnresolved)

				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFlattenDestination(t *testing.T) {
	assert.Equal(t, "demo_images_logo.png", FlattenDestination("demo", "images/logo.png"))
	assert.Equal(t, "demo_logo.png", FlattenDestination("demo", "logo.png"))
}

func TestBuildImageAssets(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("images/logo.png", "v1")
	tr.WriteFile("docs/click.md", "![logo](../images/logo.png)\n")
	tr.Commit("add logo")
	tr.WriteFile("images/logo.png", "v2 bigger")
	tr.Commit("replace logo")

	repo := tr.Open()

	tip, err := repo.Head()
	require.NoError(t, err)

	builder := NewHistoryBuilder(repo, tip)

	assets, blobs, warnings, err := BuildImageAssets(
		context.Background(), repo, builder, "demo", "docs/click.md",
		"![logo](../images/logo.png)\n")
	require.NoError(t, err)
	assert.Empty(t, warnings)

	require.Len(t, assets, 1)
	asset := assets[0]
	assert.Equal(t, "../images/logo.png", asset.Source)
	assert.Equal(t, "images/logo.png", asset.FullPath)
	assert.Equal(t, "demo_images_logo.png", asset.Destination)
	assert.Equal(t, int64(len("v2 bigger")), asset.CurrentSize)
	assert.Equal(t, 2, asset.VersionCount)

	// Versions are newest first and carry the blob size at each commit.
	require.Len(t, asset.Versions, 2)
	assert.Equal(t, "replace logo", asset.Versions[0].Message)
	assert.Equal(t, int64(len("v2 bigger")), asset.Versions[0].Size)
	assert.Equal(t, "add logo", asset.Versions[1].Message)
	assert.Equal(t, int64(len("v1")), asset.Versions[1].Size)

	require.Len(t, blobs, 1)
	assert.Equal(t, "demo_images_logo.png", blobs[0].Destination)
	assert.Equal(t, "v2 bigger", string(blobs[0].Content))
}

func TestBuildImageAssetsMissingBlob(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("click.md", "![gone](images/gone.png)\n")
	tr.Commit("reference without asset")

	repo := tr.Open()

	tip, err := repo.Head()
	require.NoError(t, err)

	builder := NewHistoryBuilder(repo, tip)

	assets, blobs, warnings, err := BuildImageAssets(
		context.Background(), repo, builder, "demo", "click.md",
		"![gone](images/gone.png)\n")
	require.NoError(t, err)
	assert.Empty(t, assets)
	assert.Empty(t, blobs)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "images/gone.png")
}

func TestBuildImageAssetsEscapingRef(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("click.md", "![out](../secret.png)\n")
	tr.Commit("escaping reference")

	repo := tr.Open()

	tip, err := repo.Head()
	require.NoError(t, err)

	builder := NewHistoryBuilder(repo, tip)

	assets, _, warnings, err := BuildImageAssets(
		context.Background(), repo, builder, "demo", "click.md",
		"![out](../secret.png)\n")
	require.NoError(t, err)
	assert.Empty(t, assets)
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "escapes the repository root")
}

func TestBuildImageAssetsRenamedAssetTrail(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("old-logo.png", "logo bytes here")
	tr.Commit("add logo under old name")
	tr.RenameFile("old-logo.png", "logo.png")
	tr.Commit("rename logo")
	tr.WriteFile("click.md", "![logo](logo.png)\n")
	tr.Commit("reference logo")

	repo := tr.Open()

	tip, err := repo.Head()
	require.NoError(t, err)

	builder := NewHistoryBuilder(repo, tip)

	assets, _, warnings, err := BuildImageAssets(
		context.Background(), repo, builder, "demo", "click.md",
		"![logo](logo.png)\n")
	require.NoError(t, err)
	assert.Empty(t, warnings)
	require.Len(t, assets, 1)

	// The trail crosses the rename: both commits appear, and the
	// pre-rename commit resolves the blob under its old name.
	require.Equal(t, 2, assets[0].VersionCount)
	assert.Equal(t, "rename logo", assets[0].Versions[0].Message)
	assert.Equal(t, "add logo under old name", assets[0].Versions[1].Message)
	assert.Equal(t, int64(len("logo bytes here")), assets[0].Versions[1].Size)
}
