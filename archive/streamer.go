package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/pb33f/harhar"
)

// MaxEntrySize is the largest single entry that will be read.
// guards against corrupted offsets asking for the whole disk.
const MaxEntrySize = 100 * 1024 * 1024 // 100MB

// FileStreamer serves the entries of one indexed HAR file through a single handle.
// os.File.ReadAt does not move the file offset, so concurrent reads are safe.
type FileStreamer struct {
	index *Index

	mu   sync.RWMutex
	file *os.File
}

var _ Streamer = (*FileStreamer)(nil)

// Open indexes filePath and keeps it open for entry reads
func Open(ctx context.Context, filePath string) (*FileStreamer, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	index, err := BuildIndex(ctx, filePath, file)
	if err != nil {
		_ = file.Close()
		return nil, err
	}
	return &FileStreamer{index: index, file: file}, nil
}

func (s *FileStreamer) GetEntry(ctx context.Context, index int) (*harhar.Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	meta, err := s.GetMetadata(index)
	if err != nil {
		return nil, err
	}
	if meta.Length > MaxEntrySize {
		return nil, fmt.Errorf("entry size %d exceeds maximum allowed size %d", meta.Length, MaxEntrySize)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.file == nil {
		return nil, fmt.Errorf("archive is closed")
	}

	raw := make([]byte, meta.Length)
	n, err := s.file.ReadAt(raw, meta.FileOffset)
	if n < len(raw) || (err != nil && err != io.EOF) {
		return nil, fmt.Errorf("failed to read entry %d: %w", index, err)
	}

	// the recorded span starts right after the previous value, separator included
	var entry harhar.Entry
	if err := json.Unmarshal(bytes.TrimLeft(raw, ", \t\r\n"), &entry); err != nil {
		return nil, fmt.Errorf("failed to decode entry %d: %w", index, err)
	}
	return &entry, nil
}

func (s *FileStreamer) GetMetadata(index int) (*EntryMetadata, error) {
	if index < 0 || index >= len(s.index.Entries) {
		return nil, fmt.Errorf("index %d out of range [0, %d)", index, len(s.index.Entries))
	}
	return s.index.Entries[index], nil
}

func (s *FileStreamer) GetIndex() *Index {
	return s.index
}

func (s *FileStreamer) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.file == nil {
		return nil
	}
	err := s.file.Close()
	s.file = nil
	return err
}
