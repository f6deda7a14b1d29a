package extract

import (
	"fmt"
	"strings"

	"github.com/Sumatoshi-tech/timelens/pkg/gitlib"
	"github.com/Sumatoshi-tech/timelens/pkg/model"
)

// lineAttribution is the blame of a single current line: the commit that
// introduced it and the line number the content had in that commit's own
// tree.
type lineAttribution struct {
	commit    gitlib.Hash
	finalLine int
	origLine  int
}

// ReconstructBlame derives the blame history of path's content at tip.
// The result is a sequence of runs that partitions the current lines:
// consecutive lines are folded into one run exactly when they share an
// introducing commit and their original line numbers are themselves
// consecutive. Folding by commit alone would silently merge unrelated
// hunks that happen to come from the same commit.
//
// Commit metadata is resolved through index (the history builder's
// records) so the document carries one canonical representation of every
// commit; blame output itself is only trusted for line numbers.
func ReconstructBlame(
	repo *gitlib.Repository,
	tip gitlib.Hash,
	path string,
	content string,
	index map[string]model.Commit,
) ([]model.BlameLine, error) {
	lines := splitLines(content)
	if len(lines) == 0 {
		return []model.BlameLine{}, nil
	}

	hunks, err := repo.BlameFile(path, tip)
	if err != nil {
		return nil, fmt.Errorf("blame %s: %w", path, err)
	}

	attributions := expandHunks(hunks)

	runs := coalesce(attributions)

	history := make([]model.BlameLine, 0, len(runs))

	for _, run := range runs {
		record, recordErr := resolveCommit(repo, run.commit, index)
		if recordErr != nil {
			return nil, recordErr
		}

		if run.lineEnd > len(lines) {
			return nil, fmt.Errorf("%w: %s: run %d-%d exceeds %d content lines",
				ErrBlameInvariant, path, run.lineStart, run.lineEnd, len(lines))
		}

		history = append(history, model.BlameLine{
			RunID:             fmt.Sprintf("%s:%d", record.SHA, run.origLine),
			LineStart:         run.lineStart,
			LineEnd:           run.lineEnd,
			Commit:            record.SHA,
			Author:            record.Author,
			Email:             record.Email,
			Date:              record.Date,
			Content:           strings.Join(lines[run.lineStart-1:run.lineEnd], "\n"),
			OriginalLineStart: run.origLine,
		})
	}

	err = validateCoverage(history, len(lines), path)
	if err != nil {
		return nil, err
	}

	return history, nil
}

// expandHunks flattens blame hunks to per-line attributions, in current
// line order.
func expandHunks(hunks []gitlib.BlameHunk) []lineAttribution {
	var attributions []lineAttribution

	for _, hunk := range hunks {
		for i := range hunk.Lines {
			attributions = append(attributions, lineAttribution{
				commit:    hunk.OrigCommit,
				finalLine: hunk.FinalStartLine + i,
				origLine:  hunk.OrigStartLine + i,
			})
		}
	}

	return attributions
}

// blameRun is a coalesced run of attributions. Line numbers are
// 1-indexed and inclusive on both ends.
type blameRun struct {
	commit    gitlib.Hash
	lineStart int
	lineEnd   int
	origLine  int
}

func coalesce(attributions []lineAttribution) []blameRun {
	var runs []blameRun

	for _, attr := range attributions {
		if len(runs) > 0 {
			last := &runs[len(runs)-1]

			sameCommit := last.commit == attr.commit
			consecutiveFinal := attr.finalLine == last.lineEnd+1
			consecutiveOrig := attr.origLine == last.origLine+(last.lineEnd-last.lineStart)+1

			if sameCommit && consecutiveFinal && consecutiveOrig {
				last.lineEnd = attr.finalLine

				continue
			}
		}

		runs = append(runs, blameRun{
			commit:    attr.commit,
			lineStart: attr.finalLine,
			lineEnd:   attr.finalLine,
			origLine:  attr.origLine,
		})
	}

	return runs
}

// resolveCommit finds the canonical commit record for a blame hash. The
// history walk normally has every commit blame can name; the direct
// lookup fallback covers shallow edge cases without inventing metadata.
func resolveCommit(
	repo *gitlib.Repository,
	hash gitlib.Hash,
	index map[string]model.Commit,
) (model.Commit, error) {
	if record, ok := index[hash.String()]; ok {
		return record, nil
	}

	commit, err := repo.LookupCommit(hash)
	if err != nil {
		return model.Commit{}, fmt.Errorf("resolve blame commit %s: %w", hash, err)
	}
	defer commit.Free()

	return commitRecord(commit, nil), nil
}

// validateCoverage enforces the partition invariant: runs ordered by
// lineStart must cover lines 1..lineCount with no gap and no overlap.
// A violation means hunk parsing or coalescing is buggy; surfacing it
// beats publishing a corrupt document.
func validateCoverage(history []model.BlameLine, lineCount int, path string) error {
	next := 1

	for _, run := range history {
		if run.LineStart != next {
			return fmt.Errorf("%w: %s: expected run starting at line %d, got %d",
				ErrBlameInvariant, path, next, run.LineStart)
		}

		if run.LineEnd < run.LineStart {
			return fmt.Errorf("%w: %s: run %d-%d is inverted",
				ErrBlameInvariant, path, run.LineStart, run.LineEnd)
		}

		next = run.LineEnd + 1
	}

	if next != lineCount+1 {
		return fmt.Errorf("%w: %s: runs cover %d lines, content has %d",
			ErrBlameInvariant, path, next-1, lineCount)
	}

	return nil
}

// splitLines splits file content into lines without a phantom empty
// trailing line, matching how blame counts lines.
func splitLines(content string) []string {
	if content == "" {
		return nil
	}

	lines := strings.Split(content, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}

	return lines
}
