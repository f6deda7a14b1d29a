package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ChangeAction represents the type of change in a diff.
type ChangeAction int

const (
	// Insert indicates a new file was added.
	Insert ChangeAction = iota
	// Delete indicates a file was removed.
	Delete
	// Modify indicates a file was modified in place.
	Modify
	// Rename indicates a file was moved, possibly with edits.
	Rename
)

// Change represents a single file change between two trees.
type Change struct {
	Action ChangeAction
	From   ChangeEntry
	To     ChangeEntry
}

// ChangeEntry represents one side of a change (old or new file).
type ChangeEntry struct {
	Name string
	Hash Hash
	Size int64
}

// Path returns the post-change path, falling back to the pre-change path
// for deletions.
func (c *Change) Path() string {
	if c.Action == Delete {
		return c.From.Name
	}

	return c.To.Name
}

// Changes is a collection of Change objects.
type Changes []*Change

func changeEntry(file DiffFile) ChangeEntry {
	return ChangeEntry{
		Name: file.Path,
		Hash: file.Hash,
		Size: file.Size,
	}
}

// TreeDiff computes the changes between two trees. With followRenames,
// libgit2 rename detection pairs deletions with similar additions so a
// moved file surfaces as a single Rename change. Skips the diff entirely
// when both tree OIDs are equal (metadata-only commits).
func TreeDiff(repo *Repository, oldTree, newTree *Tree, followRenames bool) (Changes, error) {
	if oldTree != nil && newTree != nil && oldTree.Hash() == newTree.Hash() {
		return make(Changes, 0), nil
	}

	diff, err := repo.DiffTreeToTree(oldTree, newTree)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}
	defer diff.Free()

	if followRenames {
		err = diff.FindSimilar()
		if err != nil {
			return nil, err
		}
	}

	numDeltas, numErr := diff.NumDeltas()
	if numErr != nil {
		return nil, numErr
	}

	changes := make(Changes, 0, numDeltas)

	for i := range numDeltas {
		delta, deltaErr := diff.Delta(i)
		if deltaErr != nil {
			continue
		}

		change := &Change{}

		switch delta.Status {
		case git2go.DeltaAdded:
			change.Action = Insert
			change.To = changeEntry(delta.NewFile)
		case git2go.DeltaDeleted:
			change.Action = Delete
			change.From = changeEntry(delta.OldFile)
		case git2go.DeltaRenamed:
			change.Action = Rename
			change.From = changeEntry(delta.OldFile)
			change.To = changeEntry(delta.NewFile)
		case git2go.DeltaModified, git2go.DeltaCopied:
			change.Action = Modify
			change.From = changeEntry(delta.OldFile)
			change.To = changeEntry(delta.NewFile)
		case git2go.DeltaUnmodified, git2go.DeltaIgnored, git2go.DeltaUntracked,
			git2go.DeltaTypeChange, git2go.DeltaUnreadable, git2go.DeltaConflicted:
			// Not meaningful for history reconstruction.
			continue
		}

		changes = append(changes, change)
	}

	return changes, nil
}

// CommitChanges computes the changes a commit introduced relative to its
// first parent. Root commits diff against the empty tree, so every file
// in the initial tree reports as an Insert.
func CommitChanges(repo *Repository, commit *Commit, followRenames bool) (Changes, error) {
	newTree, err := commit.Tree()
	if err != nil {
		return nil, err
	}
	defer newTree.Free()

	var oldTree *Tree

	if commit.NumParents() > 0 {
		parent, parentErr := commit.Parent(0)
		if parentErr != nil {
			return nil, parentErr
		}
		defer parent.Free()

		oldTree, err = parent.Tree()
		if err != nil {
			return nil, err
		}
		defer oldTree.Free()
	}

	return TreeDiff(repo, oldTree, newTree, followRenames)
}
