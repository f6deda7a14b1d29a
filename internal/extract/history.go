// Package extract implements the temporal-data extraction engine: commit
// history reconstruction, line-level blame history, and image asset
// version trails for one tracked file per repository.
package extract

import (
	"context"
	"fmt"

	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
	"github.com/Sumatoshi-tech/timelens/pkg/model"
)

// HistoryBuilder turns revision walks into ordered commit records. All
// walks start at a fixed tip, so two builders over the same repository
// state produce identical output.
type HistoryBuilder struct {
	repo *gitlib.Repository
	tip  gitlib.Hash
}

// NewHistoryBuilder creates a builder walking history from tip.
func NewHistoryBuilder(repo *gitlib.Repository, tip gitlib.Hash) *HistoryBuilder {
	return &HistoryBuilder{repo: repo, tip: tip}
}

// PathCommit is one commit that touched a tracked path, together with
// the name the path had at that commit. The name differs from the
// queried path for commits that predate a rename.
type PathCommit struct {
	Commit model.Commit
	Path   string
}

// ListCommits returns every commit reachable from the tip, newest first,
// each with the list of files its first-parent diff touched.
func (hb *HistoryBuilder) ListCommits(ctx context.Context) ([]model.Commit, error) {
	iter, err := hb.repo.Log(hb.tip)
	if err != nil {
		return nil, err
	}

	var commits []model.Commit

	err = iter.ForEach(func(commit *gitlib.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("list commits: %w", ctxErr)
		}

		changes, changesErr := gitlib.CommitChanges(hb.repo, commit, false)
		if changesErr != nil {
			return changesErr
		}

		files := make([]string, 0, len(changes))
		for _, change := range changes {
			files = append(files, change.Path())
		}

		commits = append(commits, commitRecord(commit, files))

		return nil
	})
	if err != nil {
		return nil, err
	}

	return commits, nil
}

// ListPathCommits returns the commits that touched path, newest first,
// following the file identity backwards through renames: when a commit
// renamed the file, older commits are matched against the pre-rename
// name, so a file renamed any number of times still yields one
// continuous trail. A path that never existed yields an empty slice.
func (hb *HistoryBuilder) ListPathCommits(ctx context.Context, path string) ([]PathCommit, error) {
	iter, err := hb.repo.Log(hb.tip)
	if err != nil {
		return nil, err
	}

	var trail []PathCommit

	current := path

	err = iter.ForEach(func(commit *gitlib.Commit) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("list path commits: %w", ctxErr)
		}

		changes, changesErr := gitlib.CommitChanges(hb.repo, commit, true)
		if changesErr != nil {
			return changesErr
		}

		var touched *gitlib.Change

		for _, change := range changes {
			if change.Path() == current {
				touched = change

				break
			}
		}

		if touched == nil {
			return nil
		}

		files := make([]string, 0, len(changes))
		for _, change := range changes {
			files = append(files, change.Path())
		}

		trail = append(trail, PathCommit{
			Commit: commitRecord(commit, files),
			Path:   current,
		})

		if touched.Action == gitlib.Rename {
			current = touched.From.Name
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return trail, nil
}

// CommitIndex builds a sha-keyed lookup over commit records. It is the
// single source of commit metadata for the blame reconstructor.
func CommitIndex(commits []model.Commit) map[string]model.Commit {
	index := make(map[string]model.Commit, len(commits))
	for _, commit := range commits {
		index[commit.SHA] = commit
	}

	return index
}

func commitRecord(commit *gitlib.Commit, files []string) model.Commit {
	author := commit.Author()

	return model.Commit{
		SHA:     commit.Hash().String(),
		Author:  author.Name,
		Email:   author.Email,
		Date:    author.When,
		Message: commit.Summary(),
		Files:   files,
	}
}

// Commits strips the per-commit path names from a trail.
func Commits(trail []PathCommit) []model.Commit {
	commits := make([]model.Commit, 0, len(trail))
	for _, entry := range trail {
		commits = append(commits, entry.Commit)
	}

	return commits
}
