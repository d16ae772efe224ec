package logstore

import "time"

// Record is the on-disk shape of one log line: a single JSON object per line
// of the active board log. Index and cursor are not stored; the store assigns
// them from line position at read time.
type Record struct {
	Timestamp time.Time      `json:"ts"`
	Level     Level          `json:"level"`
	Logger    string         `json:"logger,omitempty"`
	Source    string         `json:"source,omitempty"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	ExcInfo   string         `json:"exc_info,omitempty"`
	Stack     string         `json:"stack,omitempty"`
}

// Entry is a Record served with its position in the active log. Index is the
// zero-based line number, unique per log generation and strictly increasing
// in append order; Cursor is its string form echoed back for paging.
type Entry struct {
	Record
	Index  int64  `json:"index"`
	Cursor string `json:"cursor"`
}
