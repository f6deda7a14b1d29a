package extract

import "errors"

// Error taxonomy for one extraction run. Repository and asset problems
// stay scoped to a single project and are downgraded to warnings at the
// assembler boundary; a blame invariant violation means the engine
// itself produced inconsistent data and must abort the whole run.
var (
	// ErrRepositoryUnavailable indicates the project location is not an
	// openable git repository or the requested revision does not exist.
	ErrRepositoryUnavailable = errors.New("repository unavailable")

	// ErrBlameInvariant indicates the reconstructed blame history does
	// not cover the current content exactly. This is an internal bug,
	// never a property of the repository, and is fatal for the run.
	ErrBlameInvariant = errors.New("blame invariant violation")

	// ErrAssetUnresolved indicates an image reference that does not
	// resolve to a blob at the inspected revision.
	ErrAssetUnresolved = errors.New("asset unresolved")
)
