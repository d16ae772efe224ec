package logstore

import (
	"encoding/json"
	"strings"
)

// DefaultPageLimit is the number of entries served when a request does not
// name one. MaxPageLimit caps what a single request may ask for.
const (
	DefaultPageLimit = 200
	MaxPageLimit     = 1000
)

// PageParams selects one window of the log.
type PageParams struct {
	// Limit bounds the number of entries returned. Values below one are
	// treated as one.
	Limit int
	// Cursor is the line index to page from. Nil pages from the newest end,
	// or from the oldest when Newer is set.
	Cursor *int64
	// Level is the minimum level name to include. Empty disables the
	// threshold.
	Level string
	// Sources restricts entries to the given source tags. Empty disables the
	// filter.
	Sources []string
	// Search is a case-insensitive substring matched against the message,
	// logger name and stringified context.
	Search string
	// Newer scans forward from Cursor instead of backward.
	Newer bool
}

// Page is one window of entries plus the state needed to continue paging.
// Entries are ordered the way they were scanned: newest first for backward
// pages, oldest first for forward ones. NextCursor is the cursor of the last
// scanned entry, nil when the page is empty.
type Page struct {
	Entries    []Entry
	NextCursor *string
	HasMore    bool
}

// pageFilter is the compiled form of the PageParams filters.
type pageFilter struct {
	threshold    int
	hasThreshold bool
	sources      map[string]struct{}
	search       string
}

func newPageFilter(params PageParams) pageFilter {
	filter := pageFilter{}
	if params.Level != "" {
		filter.threshold = Level(params.Level).Value()
		filter.hasThreshold = true
	}
	if len(params.Sources) > 0 {
		filter.sources = make(map[string]struct{}, len(params.Sources))
		for _, source := range params.Sources {
			filter.sources[strings.ToLower(source)] = struct{}{}
		}
	}
	if params.Search != "" {
		filter.search = strings.ToLower(params.Search)
	}
	return filter
}

func (f pageFilter) matches(entry Entry) bool {
	if f.sources != nil {
		if _, ok := f.sources[strings.ToLower(entry.Source)]; !ok {
			return false
		}
	}
	if f.hasThreshold && entry.Level.Value() < f.threshold {
		return false
	}
	if f.search != "" && !strings.Contains(searchText(entry), f.search) {
		return false
	}
	return true
}

// searchText flattens the searchable fields of an entry into one lowercase
// string.
func searchText(entry Entry) string {
	parts := make([]string, 0, 3)
	if entry.Message != "" {
		parts = append(parts, entry.Message)
	}
	if entry.Logger != "" {
		parts = append(parts, entry.Logger)
	}
	if len(entry.Context) > 0 {
		if blob, err := json.Marshal(entry.Context); err == nil {
			parts = append(parts, string(blob))
		}
	}
	return strings.ToLower(strings.Join(parts, " "))
}
