// Package archive opens HAR files written by the capture sink and serves their entries
// by index, reading each one from its byte offset instead of loading the whole file.
package archive

import (
	"context"

	"github.com/pb33f/harhar"
)

// Streamer gives random access to the entries of an indexed HAR file
type Streamer interface {
	// GetEntry decodes a single entry by index
	GetEntry(ctx context.Context, index int) (*harhar.Entry, error)

	// GetMetadata returns the indexed metadata of an entry without reading it
	GetMetadata(index int) (*EntryMetadata, error)

	// GetIndex returns the complete index
	GetIndex() *Index

	// Close releases the file handle
	Close() error
}
