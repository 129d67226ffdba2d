package archive

import (
	"sort"
	"strings"
)

// Summary aggregates an index into the counts shown by the summary command
type Summary struct {
	TotalEntries    int
	Faults          int
	BodyFailures    int
	ByStatusClass   map[string]int
	ByMethod        map[string]int
	ByHost          map[string]int
	ByMimeType      map[string]int
	AverageDuration float64
	Slowest         []*EntryMetadata
}

// StatusClass buckets a status code as 1xx..5xx, "fault" for entries without a response
func StatusClass(meta *EntryMetadata) string {
	if meta.Faulted || meta.StatusCode == 0 {
		return "fault"
	}
	if meta.StatusCode < 100 || meta.StatusCode > 599 {
		return "other"
	}
	return string(rune('0'+meta.StatusCode/100)) + "xx"
}

// Summarize builds a summary of idx keeping the n slowest entries
func Summarize(idx *Index, n int) *Summary {
	summary := &Summary{
		TotalEntries:  len(idx.Entries),
		ByStatusClass: make(map[string]int),
		ByMethod:      make(map[string]int),
		ByHost:        make(map[string]int),
		ByMimeType:    make(map[string]int),
	}

	var total float64
	for _, meta := range idx.Entries {
		summary.ByStatusClass[StatusClass(meta)]++
		summary.ByMethod[meta.Method]++
		if meta.Host != "" {
			summary.ByHost[meta.Host]++
		}
		if meta.Faulted {
			summary.Faults++
		}
		if meta.BodyFailed() {
			summary.BodyFailures++
		}
		if meta.MimeType != "" {
			mt, _, _ := strings.Cut(meta.MimeType, ";")
			summary.ByMimeType[strings.TrimSpace(mt)]++
		}
		total += meta.Duration
	}
	if len(idx.Entries) > 0 {
		summary.AverageDuration = total / float64(len(idx.Entries))
	}

	sorted := make([]*EntryMetadata, len(idx.Entries))
	copy(sorted, idx.Entries)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Duration > sorted[j].Duration
	})
	if n > len(sorted) {
		n = len(sorted)
	}
	if n > 0 {
		summary.Slowest = sorted[:n]
	}

	return summary
}

// SortedKeys returns map keys in ascending order for stable output
func SortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
