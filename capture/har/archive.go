// Package har converts captured exchanges into HTTP Archive entries and collects
// them into an archive document that other HAR tooling can open.
package har

import (
	"github.com/pb33f/harhar"
)

// ArchiveVersion is the HAR format version written to every archive
const ArchiveVersion = "1.2"

// Archive represents the root of an HTTP Archive document.
//
// W3C Spec: https://w3c.github.io/web-performance/specs/HAR/Overview.html
type Archive struct {
	Log Log `json:"log"`
}

// Log represents a set of captured exchanges
type Log struct {
	// Version of the HAR format
	Version string `json:"version"`

	// Creator of this set of entries
	Creator harhar.Creator `json:"creator"`

	// Browser is always empty for captured client traffic
	Browser *harhar.Creator `json:"browser,omitempty"`

	// Pages are not used by the capture layer, kept for compatibility with other tooling
	Pages []harhar.Page `json:"pages,omitempty"`

	// Entries in the order they were finalized
	Entries []harhar.Entry `json:"entries"`

	// Comment describes the capture session
	Comment string `json:"comment,omitempty"`
}

// NewArchive creates an empty archive attributed to the named creator
func NewArchive(creatorName, creatorVersion string) *Archive {
	return &Archive{
		Log: Log{
			Version: ArchiveVersion,
			Creator: harhar.Creator{
				Name:    creatorName,
				Version: creatorVersion,
			},
			Entries: make([]harhar.Entry, 0),
		},
	}
}
