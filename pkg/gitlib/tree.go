package gitlib

import (
	"errors"
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// ErrPathNotFound is returned when a tree has no entry at the requested path.
var ErrPathNotFound = errors.New("path not found in tree")

// Tree wraps a libgit2 tree.
type Tree struct {
	tree *git2go.Tree
	repo *Repository
}

// Hash returns the tree hash.
func (t *Tree) Hash() Hash {
	return HashFromOid(t.tree.Id())
}

// EntryByPath returns the tree entry at the given path.
// Returns ErrPathNotFound when no entry exists.
func (t *Tree) EntryByPath(path string) (*TreeEntry, error) {
	entry, err := t.tree.EntryByPath(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrPathNotFound, path)
	}

	return &TreeEntry{entry: entry}, nil
}

// Free releases the tree resources.
func (t *Tree) Free() {
	if t.tree != nil {
		t.tree.Free()
		t.tree = nil
	}
}

// Native returns the underlying libgit2 tree.
func (t *Tree) Native() *git2go.Tree {
	return t.tree
}

// TreeEntry wraps a libgit2 tree entry.
type TreeEntry struct {
	entry *git2go.TreeEntry
}

// Name returns the entry name.
func (te *TreeEntry) Name() string {
	return te.entry.Name
}

// Hash returns the entry object hash.
func (te *TreeEntry) Hash() Hash {
	return HashFromOid(te.entry.Id)
}

// IsBlob returns true when the entry points at a blob.
func (te *TreeEntry) IsBlob() bool {
	return te.entry.Type == git2go.ObjectBlob
}
