package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"
)

var (
	// ErrEmptyLogPath is returned when a file writer is configured without a path
	ErrEmptyLogPath = errors.New("log file path cannot be empty")

	// ErrNilWriter is returned when a line callback is nil
	ErrNilWriter = errors.New("log callback cannot be nil")

	// ErrNilSink is returned when a recorder is built without a sink
	ErrNilSink = errors.New("exchange sink cannot be nil")
)

// FileTimestampLayout prefixes every line appended by a FileWriter
const FileTimestampLayout = "2006-01-02 15:04:05"

// ConsoleWriter writes transcript lines to an io.Writer, os.Stdout by default
type ConsoleWriter struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsoleWriter creates a console writer over w, os.Stdout when w is nil
func NewConsoleWriter(w io.Writer) *ConsoleWriter {
	if w == nil {
		w = os.Stdout
	}
	return &ConsoleWriter{w: w}
}

func (c *ConsoleWriter) WriteLine(line string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	fmt.Fprintln(c.w, line)
}

// FileWriter appends transcript lines to a file, each prefixed with a timestamp
type FileWriter struct {
	mu   sync.Mutex
	path string
	file *os.File
	now  func() time.Time
}

// NewFileWriter opens path for appending. a blank path is a configuration error.
func NewFileWriter(path string) (*FileWriter, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrEmptyLogPath
	}

	file, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	return &FileWriter{path: path, file: file, now: time.Now}, nil
}

func (f *FileWriter) WriteLine(line string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return
	}
	fmt.Fprintf(f.file, "%s - %s\n", f.now().Format(FileTimestampLayout), line)
}

// Path returns the file being appended to
func (f *FileWriter) Path() string {
	return f.path
}

// Close releases the underlying file
func (f *FileWriter) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.file == nil {
		return nil
	}
	err := f.file.Close()
	f.file = nil
	return err
}

// FuncWriter forwards each line to a callback
type FuncWriter struct {
	fn func(string)
}

// NewFuncWriter wraps fn. a nil callback is a configuration error.
func NewFuncWriter(fn func(line string)) (*FuncWriter, error) {
	if fn == nil {
		return nil, ErrNilWriter
	}
	return &FuncWriter{fn: fn}, nil
}

func (f *FuncWriter) WriteLine(line string) {
	f.fn(line)
}

// MemoryStore keeps exchanges in memory behind a mutex. reads return copies.
type MemoryStore struct {
	mu        sync.Mutex
	exchanges []*Exchange
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Record(_ context.Context, exchange *Exchange) error {
	m.mu.Lock()
	m.exchanges = append(m.exchanges, exchange)
	m.mu.Unlock()
	return nil
}

// Snapshot returns a copy of the recorded exchanges, later appends do not affect it
func (m *MemoryStore) Snapshot() []*Exchange {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := make([]*Exchange, len(m.exchanges))
	copy(snapshot, m.exchanges)
	return snapshot
}

// Len returns the number of recorded exchanges
func (m *MemoryStore) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.exchanges)
}

// Clear drops all recorded exchanges
func (m *MemoryStore) Clear() {
	m.mu.Lock()
	m.exchanges = nil
	m.mu.Unlock()
}

// Tee fans an exchange out to several sinks. every sink is called, failures are joined.
func Tee(sinks ...ExchangeSink) ExchangeSink {
	return SinkFunc(func(ctx context.Context, exchange *Exchange) error {
		var errs []error
		for _, sink := range sinks {
			if sink == nil {
				continue
			}
			if err := sink.Record(ctx, exchange); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}
