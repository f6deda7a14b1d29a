// Package version carries build-time version metadata for the timelens binary.
package version

// These are overridden at build time via -ldflags.
var (
	// Version is the semantic version of the binary.
	Version = "dev"

	// Commit is the git commit the binary was built from.
	Commit = "<unknown>"

	// Date is the build timestamp.
	Date = "<unknown>"
)
