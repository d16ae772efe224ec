package logview

import (
	"sort"
	"strconv"
	"strings"
	"time"
)

// UnorderedIndex marks entries whose position in the store could not be
// determined. They still display, sorted below every indexed entry, but they
// never take part in dedup-by-index comparisons.
const UnorderedIndex int64 = -1

// Entry is one log row as the view holds it. Index is the store's append
// index and the sole merge and dedup key; the client never changes it.
type Entry struct {
	Index     int64          `json:"index"`
	Cursor    string         `json:"cursor,omitempty"`
	Timestamp time.Time      `json:"ts"`
	Level     string         `json:"level"`
	Logger    string         `json:"logger,omitempty"`
	Source    string         `json:"source,omitempty"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	ExcInfo   string         `json:"exc_info,omitempty"`
	Stack     string         `json:"stack,omitempty"`
}

// Filters is the selection applied to every load. An empty Sources slice
// means all sources; an empty Level disables the threshold.
type Filters struct {
	Level   string   `json:"level,omitempty"`
	Sources []string `json:"sources,omitempty"`
	Search  string   `json:"search,omitempty"`
}

func (f Filters) clone() Filters {
	return Filters{
		Level:   f.Level,
		Sources: append([]string(nil), f.Sources...),
		Search:  f.Search,
	}
}

// normalizeIndex derives the merge key for a served entry: the index field
// when it holds a non-negative integer, else the numeric cursor, else
// UnorderedIndex.
func normalizeIndex(index *int64, cursor string) int64 {
	if index != nil && *index >= 0 {
		return *index
	}
	if parsed, err := strconv.ParseInt(strings.TrimSpace(cursor), 10, 64); err == nil && parsed >= 0 {
		return parsed
	}
	return UnorderedIndex
}

// sortEntries orders the view newest first. The sort is stable, so entries
// sharing an index (only possible at UnorderedIndex) keep their merge order.
func sortEntries(entries []Entry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Index > entries[j].Index
	})
}

// compactEntries drops repeated indices from a sorted entry list, keeping
// the first occurrence. Unordered entries are never collapsed; there is no
// key to tell them apart by.
func compactEntries(entries []Entry) []Entry {
	out := entries[:0]
	for _, entry := range entries {
		if len(out) > 0 && entry.Index != UnorderedIndex && entry.Index == out[len(out)-1].Index {
			continue
		}
		out = append(out, entry)
	}
	return out
}
