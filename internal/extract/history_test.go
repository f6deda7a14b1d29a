package extract

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
)

func newBuilder(t *testing.T, tr *gitlib.TestRepo) *HistoryBuilder {
	t.Helper()

	repo := tr.Open()

	tip, err := repo.Head()
	require.NoError(t, err)

	return NewHistoryBuilder(repo, tip)
}

func TestListCommitsNewestFirst(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.txt", "one\n")
	tr.Commit("first")
	tr.WriteFile("a.txt", "one\ntwo\n")
	tr.Commit("second")
	tr.WriteFile("b.txt", "other\n")
	tr.Commit("third")

	builder := newBuilder(t, tr)

	commits, err := builder.ListCommits(context.Background())
	require.NoError(t, err)
	require.Len(t, commits, 3)

	assert.Equal(t, "third", commits[0].Message)
	assert.Equal(t, "second", commits[1].Message)
	assert.Equal(t, "first", commits[2].Message)

	assert.Equal(t, []string{"b.txt"}, commits[0].Files)
	assert.Equal(t, []string{"a.txt"}, commits[1].Files)
	assert.Equal(t, gitlib.TestAuthorName, commits[0].Author)
	assert.Equal(t, gitlib.TestAuthorEmail, commits[0].Email)

	// Fixture commits are one minute apart, newest first.
	assert.True(t, commits[0].Date.After(commits[2].Date))
}

func TestListCommitsMultiFileCommit(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.txt", "a\n")
	tr.WriteFile("b.txt", "b\n")
	tr.Commit("both")

	builder := newBuilder(t, tr)

	commits, err := builder.ListCommits(context.Background())
	require.NoError(t, err)
	require.Len(t, commits, 1)
	assert.ElementsMatch(t, []string{"a.txt", "b.txt"}, commits[0].Files)
}

func TestListPathCommitsOnlyTouches(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("click.md", "hello\n")
	tr.Commit("add tracked")
	tr.WriteFile("other.txt", "noise\n")
	tr.Commit("unrelated")
	tr.WriteFile("click.md", "hello\nworld\n")
	tr.Commit("extend tracked")

	builder := newBuilder(t, tr)

	trail, err := builder.ListPathCommits(context.Background(), "click.md")
	require.NoError(t, err)
	require.Len(t, trail, 2)

	assert.Equal(t, "extend tracked", trail[0].Commit.Message)
	assert.Equal(t, "add tracked", trail[1].Commit.Message)
}

func TestListPathCommitsFollowsRename(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("notes.md", "line one\nline two\nline three\n")
	tr.Commit("create notes")
	tr.RenameFile("notes.md", "click.md")
	tr.Commit("rename to click")
	tr.WriteFile("click.md", "line one\nline two\nline three\nline four\n")
	tr.Commit("extend after rename")

	builder := newBuilder(t, tr)

	trail, err := builder.ListPathCommits(context.Background(), "click.md")
	require.NoError(t, err)
	require.Len(t, trail, 3)

	assert.Equal(t, "click.md", trail[0].Path)
	assert.Equal(t, "click.md", trail[1].Path)
	assert.Equal(t, "notes.md", trail[2].Path)
	assert.Equal(t, "create notes", trail[2].Commit.Message)
}

func TestListPathCommitsMissingPath(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.txt", "a\n")
	tr.Commit("initial")

	builder := newBuilder(t, tr)

	trail, err := builder.ListPathCommits(context.Background(), "absent.md")
	require.NoError(t, err)
	assert.Empty(t, trail)
}

func TestListCommitsCancelled(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.txt", "a\n")
	tr.Commit("initial")

	builder := newBuilder(t, tr)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := builder.ListCommits(ctx)
	require.ErrorIs(t, err, context.Canceled)
}

func TestCommitIndex(t *testing.T) {
	tr := gitlib.NewTestRepo(t)

	tr.WriteFile("a.txt", "a\n")
	first := tr.Commit("first")
	tr.WriteFile("a.txt", "a\nb\n")
	tr.Commit("second")

	builder := newBuilder(t, tr)

	commits, err := builder.ListCommits(context.Background())
	require.NoError(t, err)

	index := CommitIndex(commits)
	require.Len(t, index, 2)
	assert.Equal(t, "first", index[first.String()].Message)
}
