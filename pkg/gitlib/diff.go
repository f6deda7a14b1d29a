package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Diff wraps a libgit2 diff.
type Diff struct {
	diff *git2go.Diff
}

// DiffFile describes one side of a delta.
type DiffFile struct {
	Path string
	Hash Hash
	Size int64
}

// DiffDelta describes one changed file in a diff.
type DiffDelta struct {
	Status  git2go.Delta
	OldFile DiffFile
	NewFile DiffFile
}

// NumDeltas returns the number of deltas in the diff.
func (d *Diff) NumDeltas() (int, error) {
	numDeltas, err := d.diff.NumDeltas()
	if err != nil {
		return 0, fmt.Errorf("get num deltas: %w", err)
	}

	return numDeltas, nil
}

// Delta returns the delta at the given index.
func (d *Diff) Delta(index int) (DiffDelta, error) {
	delta, err := d.diff.Delta(index)
	if err != nil {
		return DiffDelta{}, fmt.Errorf("get delta: %w", err)
	}

	return DiffDelta{
		Status:  delta.Status,
		OldFile: DiffFile{Path: delta.OldFile.Path, Hash: HashFromOid(delta.OldFile.Oid), Size: int64(delta.OldFile.Size)},
		NewFile: DiffFile{Path: delta.NewFile.Path, Hash: HashFromOid(delta.NewFile.Oid), Size: int64(delta.NewFile.Size)},
	}, nil
}

// FindSimilar runs libgit2 rename detection over the diff in place,
// using the default similarity threshold.
func (d *Diff) FindSimilar() error {
	opts, err := git2go.DefaultDiffFindOptions()
	if err != nil {
		return fmt.Errorf("get diff find options: %w", err)
	}

	opts.Flags = git2go.DiffFindRenames

	err = d.diff.FindSimilar(&opts)
	if err != nil {
		return fmt.Errorf("find similar: %w", err)
	}

	return nil
}

// Free releases the diff resources.
func (d *Diff) Free() {
	if d.diff != nil {
		_ = d.diff.Free()
		d.diff = nil
	}
}
