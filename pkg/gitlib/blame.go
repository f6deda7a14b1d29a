package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// BlameHunk is a contiguous run of lines in the blamed revision that was
// introduced by a single commit. FinalStartLine is the run's first line
// in the blamed revision; OrigStartLine is the line the same content
// occupied in the introducing commit's own tree, which drifts apart from
// FinalStartLine as later commits insert or delete lines above the run.
type BlameHunk struct {
	OrigCommit     Hash
	OrigPath       string
	OrigStartLine  int
	FinalStartLine int
	Lines          int
	Boundary       bool
}

// BlameFile blames path at the given revision and returns the hunks in
// file order. Line numbers are 1-indexed, as libgit2 reports them.
func (r *Repository) BlameFile(path string, newest Hash) ([]BlameHunk, error) {
	opts, err := git2go.DefaultBlameOptions()
	if err != nil {
		return nil, fmt.Errorf("get blame options: %w", err)
	}

	opts.NewestCommit = newest.ToOid()

	blame, err := r.repo.BlameFile(path, &opts)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", path, err)
	}

	defer func() {
		_ = blame.Free()
	}()

	count := blame.HunkCount()
	hunks := make([]BlameHunk, 0, count)

	for i := range count {
		hunk, hunkErr := blame.HunkByIndex(i)
		if hunkErr != nil {
			return nil, fmt.Errorf("blame hunk %d of %s: %w", i, path, hunkErr)
		}

		hunks = append(hunks, BlameHunk{
			OrigCommit:     HashFromOid(hunk.OrigCommitId),
			OrigPath:       hunk.OrigPath,
			OrigStartLine:  int(hunk.OrigStartLineNumber),
			FinalStartLine: int(hunk.FinalStartLineNumber),
			Lines:          int(hunk.LinesInHunk),
			Boundary:       hunk.Boundary,
		})
	}

	return hunks, nil
}
