package extract

import (
	"context"
	"fmt"
	"path"
	"regexp"
	"sort"
	"strings"

	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
	"github.com/Sumatoshi-tech/timelens/pkg/model"
)

// Image reference syntax accepted in the tracked file. Both forms come
// from the authoring convention: standard markdown images plus raw HTML
// img tags.
var (
	markdownImagePattern = regexp.MustCompile(`!\[[^\]]*\]\(([^)]+)\)`)
	htmlImagePattern     = regexp.MustCompile(`<img[^>]+src=["']([^"']+)["']`)
)

// AssetBlob is the byte content of a resolved image, ready to be copied
// into the shared asset directory under its Destination name.
type AssetBlob struct {
	Destination string
	Content     []byte
}

// ExtractImageRefs scans markup for image references and returns the
// unique local ones, sorted for deterministic output. External URLs
// (http, https, protocol-relative) are not assets and are skipped.
func ExtractImageRefs(content string) []string {
	seen := make(map[string]struct{})

	for _, match := range markdownImagePattern.FindAllStringSubmatch(content, -1) {
		seen[strings.TrimSpace(match[1])] = struct{}{}
	}

	for _, match := range htmlImagePattern.FindAllStringSubmatch(content, -1) {
		seen[strings.TrimSpace(match[1])] = struct{}{}
	}

	refs := make([]string, 0, len(seen))

	for ref := range seen {
		if ref == "" || isExternalRef(ref) {
			continue
		}

		refs = append(refs, ref)
	}

	sort.Strings(refs)

	return refs
}

func isExternalRef(ref string) bool {
	return strings.HasPrefix(ref, "http://") ||
		strings.HasPrefix(ref, "https://") ||
		strings.HasPrefix(ref, "//")
}

// ResolveRef resolves a reference written relative to the tracked file
// into a repository-relative path. References escaping the repository
// root are unresolvable.
func ResolveRef(clickFilePath, ref string) (string, error) {
	resolved := path.Clean(path.Join(path.Dir(clickFilePath), ref))

	if resolved == ".." || strings.HasPrefix(resolved, "../") {
		return "", fmt.Errorf("%w: %s escapes the repository root", ErrAssetUnresolved, ref)
	}

	return resolved, nil
}

// FlattenDestination derives the collision-safe name an asset gets in
// the shared output directory. Distinct resolved paths always map to
// distinct names because the path separator is the only character
// rewritten.
func FlattenDestination(projectName, resolvedPath string) string {
	return projectName + "_" + strings.ReplaceAll(resolvedPath, "/", "_")
}

// BuildImageAssets resolves every image reference in the tracked file's
// current content and assembles its version trail. Unresolvable
// references produce warnings, not errors: a stale link in the markup
// must not sink the project.
func BuildImageAssets(
	ctx context.Context,
	repo *gitlib.Repository,
	builder *HistoryBuilder,
	projectName string,
	clickFilePath string,
	content string,
) ([]model.ImageAsset, []AssetBlob, []string, error) {
	refs := ExtractImageRefs(content)

	assets := make([]model.ImageAsset, 0, len(refs))
	blobs := make([]AssetBlob, 0, len(refs))

	var warnings []string

	tipCommit, err := repo.LookupCommit(builder.tip)
	if err != nil {
		return nil, nil, nil, err
	}
	defer tipCommit.Free()

	for _, ref := range refs {
		resolved, resolveErr := ResolveRef(clickFilePath, ref)
		if resolveErr != nil {
			warnings = append(warnings, resolveErr.Error())

			continue
		}

		blob, blobErr := tipCommit.Blob(resolved)
		if blobErr != nil {
			warnings = append(warnings, fmt.Sprintf("%v: %s not found at current revision", ErrAssetUnresolved, ref))

			continue
		}

		currentSize := blob.Size()
		destination := FlattenDestination(projectName, resolved)

		blobs = append(blobs, AssetBlob{
			Destination: destination,
			Content:     append([]byte(nil), blob.Contents()...),
		})
		blob.Free()

		versions, versionsErr := buildVersionTrail(ctx, repo, builder, resolved)
		if versionsErr != nil {
			return nil, nil, nil, versionsErr
		}

		assets = append(assets, model.ImageAsset{
			Source:       ref,
			Destination:  destination,
			FullPath:     resolved,
			CurrentSize:  currentSize,
			VersionCount: len(versions),
			Versions:     versions,
		})
	}

	return assets, blobs, warnings, nil
}

// buildVersionTrail lists the commits that touched the asset, newest
// first, with the blob size the asset had at each one. Commits where the
// blob does not resolve (the touch was a deletion in a side branch)
// report size zero rather than dropping the history entry.
func buildVersionTrail(
	ctx context.Context,
	repo *gitlib.Repository,
	builder *HistoryBuilder,
	resolvedPath string,
) ([]model.ImageVersion, error) {
	trail, err := builder.ListPathCommits(ctx, resolvedPath)
	if err != nil {
		return nil, err
	}

	versions := make([]model.ImageVersion, 0, len(trail))

	for _, entry := range trail {
		versions = append(versions, model.ImageVersion{
			SHA:     entry.Commit.SHA,
			Author:  entry.Commit.Author,
			Email:   entry.Commit.Email,
			Date:    entry.Commit.Date,
			Message: entry.Commit.Message,
			Size:    blobSizeAt(repo, entry.Commit.SHA, entry.Path),
		})
	}

	return versions, nil
}

func blobSizeAt(repo *gitlib.Repository, sha, pathAtCommit string) int64 {
	commit, err := repo.LookupCommit(gitlib.NewHash(sha))
	if err != nil {
		return 0
	}
	defer commit.Free()

	blob, err := commit.Blob(pathAtCommit)
	if err != nil {
		return 0
	}
	defer blob.Free()

	return blob.Size()
}
