package gitlib

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	git2go "github.com/libgit2/git2go/v34"
	"github.com/stretchr/testify/require"
)

// TestRepo is a scratch git repository for tests. It lives in a temp
// directory cleaned up with the test and commits with a fixed author so
// extraction output is reproducible across runs.
type TestRepo struct {
	T      *testing.T
	Path   string
	native *git2go.Repository
	clock  time.Time
}

// TestAuthorName is the author of every TestRepo commit.
const TestAuthorName = "Test User"

// TestAuthorEmail is the author email of every TestRepo commit.
const TestAuthorEmail = "test@example.com"

// NewTestRepo initializes an empty repository in a temp directory.
func NewTestRepo(t *testing.T) *TestRepo {
	t.Helper()

	dir := t.TempDir()

	repo, err := git2go.InitRepository(dir, false)
	require.NoError(t, err)

	t.Cleanup(repo.Free)

	return &TestRepo{
		T:      t,
		Path:   dir,
		native: repo,
		clock:  time.Date(2024, time.January, 1, 12, 0, 0, 0, time.UTC),
	}
}

// WriteFile creates or overwrites a file in the working directory.
func (tr *TestRepo) WriteFile(name, content string) {
	tr.T.Helper()

	path := filepath.Join(tr.Path, name)
	dir := filepath.Dir(path)

	if dir != tr.Path {
		err := os.MkdirAll(dir, 0o755)
		require.NoError(tr.T, err)
	}

	err := os.WriteFile(path, []byte(content), 0o644)
	require.NoError(tr.T, err)
}

// RemoveFile deletes a file from the working directory.
func (tr *TestRepo) RemoveFile(name string) {
	tr.T.Helper()

	err := os.Remove(filepath.Join(tr.Path, name))
	require.NoError(tr.T, err)
}

// RenameFile moves a file within the working directory.
func (tr *TestRepo) RenameFile(oldName, newName string) {
	tr.T.Helper()

	err := os.Rename(filepath.Join(tr.Path, oldName), filepath.Join(tr.Path, newName))
	require.NoError(tr.T, err)
}

// Commit stages the whole working directory and commits it. Each commit
// advances the fixture clock by one minute so ordering is deterministic.
func (tr *TestRepo) Commit(message string) Hash {
	tr.T.Helper()

	tr.clock = tr.clock.Add(time.Minute)

	return tr.CommitAt(message, tr.clock)
}

// CommitAt is Commit with an explicit author/committer timestamp.
func (tr *TestRepo) CommitAt(message string, when time.Time) Hash {
	tr.T.Helper()

	index, err := tr.native.Index()
	require.NoError(tr.T, err)

	defer index.Free()

	err = index.AddAll([]string{"*"}, git2go.IndexAddDefault, nil)
	require.NoError(tr.T, err)

	// AddAll does not record deletions; UpdateAll does.
	err = index.UpdateAll([]string{"*"}, nil)
	require.NoError(tr.T, err)

	err = index.Write()
	require.NoError(tr.T, err)

	treeID, err := index.WriteTree()
	require.NoError(tr.T, err)

	tree, err := tr.native.LookupTree(treeID)
	require.NoError(tr.T, err)

	defer tree.Free()

	sig := &git2go.Signature{
		Name:  TestAuthorName,
		Email: TestAuthorEmail,
		When:  when,
	}

	var parents []*git2go.Commit

	head, err := tr.native.Head()
	if err == nil {
		headCommit, lookupErr := tr.native.LookupCommit(head.Target())
		require.NoError(tr.T, lookupErr)

		parents = append(parents, headCommit)

		head.Free()
	}

	oid, err := tr.native.CreateCommit("HEAD", sig, sig, message, tree, parents...)
	require.NoError(tr.T, err)

	for _, parent := range parents {
		parent.Free()
	}

	return HashFromOid(oid)
}

// Open returns a Repository handle for the fixture. The caller owns the
// handle and must Free it.
func (tr *TestRepo) Open() *Repository {
	tr.T.Helper()

	repo, err := OpenRepository(tr.Path)
	require.NoError(tr.T, err)

	tr.T.Cleanup(repo.Free)

	return repo
}
