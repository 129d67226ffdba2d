package har

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/pb33f/harhar"
	"github.com/pb33f/mataki/capture"
)

// ArchiveSink collects exchanges into an in-memory archive and writes it out on demand
type ArchiveSink struct {
	mu      sync.Mutex
	archive *Archive
	path    string
}

// NewArchiveSink creates a sink whose archive is written to path by WriteFile and Close.
// an empty path keeps the archive in memory only.
func NewArchiveSink(path, creatorName, creatorVersion string) *ArchiveSink {
	return &ArchiveSink{
		archive: NewArchive(creatorName, creatorVersion),
		path:    path,
	}
}

func (s *ArchiveSink) Record(_ context.Context, exchange *capture.Exchange) error {
	entry := FromExchange(exchange)

	s.mu.Lock()
	s.archive.Log.Entries = append(s.archive.Log.Entries, entry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of archived entries
func (s *ArchiveSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.archive.Log.Entries)
}

// Archive returns a copy of the archive collected so far
func (s *ArchiveSink) Archive() *Archive {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := *s.archive
	snapshot.Log.Entries = make([]harhar.Entry, len(s.archive.Log.Entries))
	copy(snapshot.Log.Entries, s.archive.Log.Entries)
	return &snapshot
}

// Save encodes the archive as indented JSON
func (s *ArchiveSink) Save(w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(s.Archive()); err != nil {
		return fmt.Errorf("failed to write har: %w", err)
	}
	return nil
}

// WriteFile writes the archive to the sink path, replacing any previous file in one rename
func (s *ArchiveSink) WriteFile() error {
	if s.path == "" {
		return nil
	}

	tmpFile, err := os.CreateTemp(filepath.Dir(s.path), ".mataki-*.har")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmpFile.Name())

	if err := s.Save(tmpFile); err != nil {
		tmpFile.Close()
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmpFile.Name(), s.path); err != nil {
		return fmt.Errorf("failed to move har into place: %w", err)
	}
	return nil
}

// Close flushes the archive to disk
func (s *ArchiveSink) Close() error {
	return s.WriteFile()
}
