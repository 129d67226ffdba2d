package archive

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/url"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pb33f/harhar"
	"github.com/pb33f/mataki/capture/har"
)

// BuildIndex scans a HAR document once, recording where every entry starts and ends
// along with the fields the viewer and summary need. offsets are relative to the
// start of r. the file hash is the xxhash of every byte read.
func BuildIndex(ctx context.Context, filePath string, r io.Reader) (*Index, error) {
	started := time.Now()
	idx := &Index{FilePath: filePath, Entries: make([]*EntryMetadata, 0)}

	counting := &hashingReader{reader: r, hash: xxhash.New()}
	decoder := json.NewDecoder(counting)

	err := walkObject(decoder, func(key string) error {
		if key != "log" {
			return skipValue(decoder)
		}
		return walkObject(decoder, func(key string) error {
			switch key {
			case "version":
				return decoder.Decode(&idx.Version)
			case "creator":
				idx.Creator = &harhar.Creator{}
				return decoder.Decode(idx.Creator)
			case "entries":
				return indexEntries(ctx, decoder, idx)
			default:
				return skipValue(decoder)
			}
		})
	})
	if err != nil {
		return nil, fmt.Errorf("failed to index har file: %w", err)
	}
	if _, err := io.Copy(io.Discard, counting); err != nil {
		return nil, fmt.Errorf("failed to read har file: %w", err)
	}

	urls := make(map[string]struct{}, len(idx.Entries))
	for _, meta := range idx.Entries {
		urls[meta.URL] = struct{}{}
	}
	idx.UniqueURLs = len(urls)
	idx.TotalEntries = len(idx.Entries)
	idx.FileSize = counting.count
	idx.FileHash = fmt.Sprintf("%x", counting.hash.Sum64())
	idx.BuildTime = time.Since(started)
	return idx, nil
}

func indexEntries(ctx context.Context, decoder *json.Decoder, idx *Index) error {
	if err := expectDelim(decoder, '['); err != nil {
		return err
	}

	for decoder.More() {
		if err := ctx.Err(); err != nil {
			return err
		}

		start := decoder.InputOffset()
		var entry harhar.Entry
		if err := decoder.Decode(&entry); err != nil {
			return fmt.Errorf("failed to decode entry %d: %w", len(idx.Entries), err)
		}

		meta := newEntryMetadata(&entry)
		meta.FileOffset = start
		meta.Length = decoder.InputOffset() - start
		idx.add(meta)
	}

	return expectDelim(decoder, ']')
}

// newEntryMetadata keeps what a listing needs. a faulted exchange is written with
// status 0 and a fault note, anything else with status 0 is just an unanswered entry.
func newEntryMetadata(entry *harhar.Entry) *EntryMetadata {
	notes := har.ParseNotes(entry.Comment)
	meta := &EntryMetadata{
		Method:       entry.Request.Method,
		URL:          entry.Request.URL,
		StatusCode:   entry.Response.StatusCode,
		StatusText:   entry.Response.StatusText,
		MimeType:     entry.Response.Body.MIMEType,
		Duration:     entry.Time,
		RequestSize:  max(int64(entry.Request.BodySize), 0),
		ResponseSize: max(int64(entry.Response.BodySize), 0),
		Notes:        notes,
		Faulted:      entry.Response.StatusCode == 0 && notes.Fault != "",
	}
	if u, err := url.Parse(entry.Request.URL); err == nil {
		meta.Host = u.Host
	}
	if ts, err := time.Parse(time.RFC3339Nano, entry.Start); err == nil {
		meta.Timestamp = ts
	}
	return meta
}

// walkObject consumes one JSON object, calling visit with each key.
// visit must consume the value that follows the key.
func walkObject(decoder *json.Decoder, visit func(key string) error) error {
	if err := expectDelim(decoder, '{'); err != nil {
		return err
	}
	for decoder.More() {
		token, err := decoder.Token()
		if err != nil {
			return err
		}
		key, ok := token.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", token)
		}
		if err := visit(key); err != nil {
			return err
		}
	}
	return expectDelim(decoder, '}')
}

func expectDelim(decoder *json.Decoder, want json.Delim) error {
	token, err := decoder.Token()
	if err != nil {
		return err
	}
	if token != want {
		return fmt.Errorf("expected %v, got %v", want, token)
	}
	return nil
}

func skipValue(decoder *json.Decoder) error {
	var raw json.RawMessage
	return decoder.Decode(&raw)
}

type hashingReader struct {
	reader io.Reader
	hash   *xxhash.Digest
	count  int64
}

func (r *hashingReader) Read(p []byte) (int, error) {
	n, err := r.reader.Read(p)
	if n > 0 {
		r.count += int64(n)
		_, _ = r.hash.Write(p[:n])
	}
	return n, err
}
