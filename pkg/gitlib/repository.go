package gitlib

import (
	"fmt"

	git2go "github.com/libgit2/git2go/v34"
)

// Repository wraps a libgit2 repository. All exposed operations are
// read-only; the engine never mutates the repositories it inspects.
type Repository struct {
	repo *git2go.Repository
	path string
}

// OpenRepository opens a git repository at the given path.
func OpenRepository(path string) (*Repository, error) {
	repo, err := git2go.OpenRepository(path)
	if err != nil {
		return nil, fmt.Errorf("open repository: %w", err)
	}

	return &Repository{repo: repo, path: path}, nil
}

// Path returns the repository path.
func (r *Repository) Path() string {
	return r.path
}

// Free releases the repository resources.
func (r *Repository) Free() {
	if r.repo != nil {
		r.repo.Free()
		r.repo = nil
	}
}

// Head returns the HEAD reference target.
func (r *Repository) Head() (Hash, error) {
	ref, err := r.repo.Head()
	if err != nil {
		return Hash{}, fmt.Errorf("get HEAD: %w", err)
	}
	defer ref.Free()

	return HashFromOid(ref.Target()), nil
}

// ResolveRevision resolves a revision spec (branch name, tag, sha prefix)
// to the commit it points to.
func (r *Repository) ResolveRevision(rev string) (Hash, error) {
	obj, err := r.repo.RevparseSingle(rev)
	if err != nil {
		return Hash{}, fmt.Errorf("resolve revision %q: %w", rev, err)
	}
	defer obj.Free()

	peeled, err := obj.Peel(git2go.ObjectCommit)
	if err != nil {
		return Hash{}, fmt.Errorf("peel revision %q to commit: %w", rev, err)
	}
	defer peeled.Free()

	return HashFromOid(peeled.Id()), nil
}

// LookupCommit returns the commit with the given hash.
func (r *Repository) LookupCommit(hash Hash) (*Commit, error) {
	commit, err := r.repo.LookupCommit(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup commit: %w", err)
	}

	return &Commit{commit: commit, repo: r}, nil
}

// LookupBlob returns the blob with the given hash.
func (r *Repository) LookupBlob(hash Hash) (*Blob, error) {
	blob, err := r.repo.LookupBlob(hash.ToOid())
	if err != nil {
		return nil, fmt.Errorf("lookup blob: %w", err)
	}

	return &Blob{blob: blob}, nil
}

// Log returns a commit iterator starting from the given commit,
// newest first. Topological order keeps parents after their children
// even when commit timestamps are skewed across branches.
func (r *Repository) Log(from Hash) (*CommitIter, error) {
	walk, err := r.repo.Walk()
	if err != nil {
		return nil, fmt.Errorf("create revwalk: %w", err)
	}

	err = walk.Push(from.ToOid())
	if err != nil {
		walk.Free()

		return nil, fmt.Errorf("push %s to revwalk: %w", from, err)
	}

	walk.Sorting(git2go.SortTime | git2go.SortTopological)

	return &CommitIter{walk: walk, repo: r}, nil
}

// DiffTreeToTree computes the diff between two trees. Either side may be
// nil to diff against an empty tree (root commits, deletions).
func (r *Repository) DiffTreeToTree(oldTree, newTree *Tree) (*Diff, error) {
	opts, err := git2go.DefaultDiffOptions()
	if err != nil {
		return nil, fmt.Errorf("get diff options: %w", err)
	}

	var oldT, newT *git2go.Tree
	if oldTree != nil {
		oldT = oldTree.tree
	}

	if newTree != nil {
		newT = newTree.tree
	}

	diff, err := r.repo.DiffTreeToTree(oldT, newT, &opts)
	if err != nil {
		return nil, fmt.Errorf("diff trees: %w", err)
	}

	return &Diff{diff: diff}, nil
}

// Native returns the underlying libgit2 repository for advanced operations.
func (r *Repository) Native() *git2go.Repository {
	return r.repo
}
