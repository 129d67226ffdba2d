package archive

import (
	"time"

	"github.com/pb33f/harhar"
	"github.com/pb33f/mataki/capture/har"
)

// EntryMetadata is what the index keeps per entry, enough to list and filter
// captured exchanges without decoding their bodies.
type EntryMetadata struct {
	FileOffset   int64
	Length       int64
	Method       string
	URL          string
	Host         string
	StatusCode   int
	StatusText   string
	MimeType     string
	Timestamp    time.Time
	Duration     float64
	RequestSize  int64
	ResponseSize int64
	Notes        har.Notes
	Faulted      bool
}

// FaultMessage returns the transport error recorded for a faulted entry
func (m *EntryMetadata) FaultMessage() string {
	if !m.Faulted {
		return ""
	}
	return m.Notes.Fault
}

// BodyFailed reports whether either body of the exchange could not be extracted
func (m *EntryMetadata) BodyFailed() bool {
	return len(m.Notes.Failures()) > 0
}

// Index describes a capture archive and locates each of its entries
type Index struct {
	FilePath           string
	FileSize           int64
	FileHash           string
	Version            string
	Creator            *harhar.Creator
	Entries            []*EntryMetadata
	TotalEntries       int
	TotalFaults        int
	TotalBodyFailures  int
	TotalRequestBytes  int64
	TotalResponseBytes int64
	TimeRange          TimeRange
	UniqueURLs         int
	BuildTime          time.Duration
}

type TimeRange struct {
	Start time.Time
	End   time.Time
}

// add folds one entry into the running totals
func (idx *Index) add(meta *EntryMetadata) {
	idx.Entries = append(idx.Entries, meta)
	idx.TotalRequestBytes += meta.RequestSize
	idx.TotalResponseBytes += meta.ResponseSize
	if meta.Faulted {
		idx.TotalFaults++
	}
	if meta.BodyFailed() {
		idx.TotalBodyFailures++
	}

	if meta.Timestamp.IsZero() {
		return
	}
	if idx.TimeRange.Start.IsZero() || meta.Timestamp.Before(idx.TimeRange.Start) {
		idx.TimeRange.Start = meta.Timestamp
	}
	if meta.Timestamp.After(idx.TimeRange.End) {
		idx.TimeRange.End = meta.Timestamp
	}
}
