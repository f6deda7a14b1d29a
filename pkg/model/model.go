// Package model defines the temporal document produced by the extraction
// engine. The JSON tags are the wire contract consumed by the browser
// viewer; field names here must not change without a schema version bump.
package model

import "time"

// SchemaVersion is the document schema tag written to metadata.version.
const SchemaVersion = "1.0.0"

// Document is the top-level artifact of one extraction run. It owns all
// contained entities outright; nothing inside it is shared or mutated
// after assembly.
type Document struct {
	Projects []Project `json:"projects"`
	Metadata Metadata  `json:"metadata"`
}

// Metadata describes the run that produced the document.
type Metadata struct {
	GeneratedAt time.Time `json:"generatedAt"`
	Version     string    `json:"version"`
	Warnings    []string  `json:"warnings,omitempty"`
}

// Project is the temporal view of one repository.
type Project struct {
	Name      string    `json:"name"`
	Path      string    `json:"path"`
	Commits   []Commit  `json:"commits"`
	ClickFile ClickFile `json:"clickFile"`
}

// Commit is one commit record. Within a repository the SHA is unique and
// full length. Files lists the paths the commit touched.
type Commit struct {
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
	Files   []string  `json:"files"`
}

// ClickFile is the tracked file's full temporal state: its own commit
// trail, the blame history of its current content, and every image asset
// it references.
type ClickFile struct {
	Path           string       `json:"path"`
	Commits        []Commit     `json:"commits"`
	BlameHistory   []BlameLine  `json:"blameHistory"`
	Images         []ImageAsset `json:"images"`
	CurrentContent string       `json:"currentContent"`
}

// BlameLine is a maximal contiguous run of current lines introduced by a
// single commit. Line numbers are 1-indexed and inclusive on both ends.
// OriginalLineStart is the position the run's first line occupied in the
// introducing commit's own tree. RunID is a stable identifier for the
// run (introducing sha + original line) so viewers never have to
// re-derive line identity by content matching.
type BlameLine struct {
	RunID             string    `json:"runId"`
	LineStart         int       `json:"lineStart"`
	LineEnd           int       `json:"lineEnd"`
	Commit            string    `json:"commit"`
	Author            string    `json:"author"`
	Email             string    `json:"email"`
	Date              time.Time `json:"date"`
	Content           string    `json:"content"`
	OriginalLineStart int       `json:"originalLineStart"`
}

// ImageAsset is one image referenced by the tracked file. Source is the
// reference exactly as written in the markup; Destination is the
// collision-safe flattened name inside the shared asset directory.
type ImageAsset struct {
	Source       string         `json:"source"`
	Destination  string         `json:"destination"`
	FullPath     string         `json:"fullPath"`
	CurrentSize  int64          `json:"currentSize"`
	VersionCount int            `json:"versionCount"`
	Versions     []ImageVersion `json:"versions"`
}

// ImageVersion is one commit that changed the asset's content, newest
// first. The oldest entry is the asset's introduction point, and the
// newest entry's size equals the asset's CurrentSize.
type ImageVersion struct {
	SHA     string    `json:"sha"`
	Author  string    `json:"author"`
	Email   string    `json:"email"`
	Date    time.Time `json:"date"`
	Message string    `json:"message"`
	Size    int64     `json:"size"`
}
