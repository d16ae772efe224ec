package logstore

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"sync"

	"go.uber.org/multierr"
	"go.uber.org/zap"
)

// Store serves paged reads over the active log file and owns its lifecycle.
// Line indices double as cursors; they are unique within one generation of
// the file. Purging or an observed truncation starts a new generation so
// cached parses from the old file are never served again.
//
// Reads hold the store lock end to end. Pages are coalesced by the clients,
// so read concurrency is not worth racing the generation bookkeeping for.
type Store struct {
	mu        sync.Mutex
	appender  *Appender
	cache     *EntryCache
	logger    *zap.Logger
	gen       uint64
	lastSize  int64
	lastTotal int
}

func NewStore(appender *Appender, cache *EntryCache, logger *zap.Logger) *Store {
	return &Store{
		appender: appender,
		cache:    cache,
		logger:   logger,
	}
}

// ReadPage scans the log for one page of entries matching params. A missing
// log file is an empty page, not an error.
func (s *Store) ReadPage(ctx context.Context, params PageParams) (Page, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.appender.Path())
	if err != nil {
		if os.IsNotExist(err) {
			s.observe(0, 0)
			return Page{}, nil
		}
		return Page{}, fmt.Errorf("failed to read log file: %w", err)
	}

	lines := splitLines(data)
	total := int64(len(lines))
	s.observe(int64(len(data)), len(lines))
	if total == 0 {
		return Page{}, nil
	}

	limit := params.Limit
	if limit < 1 {
		limit = 1
	}
	cursorIdx := total
	if params.Newer {
		cursorIdx = -1
	}
	if params.Cursor != nil {
		cursorIdx = *params.Cursor
	}
	if cursorIdx > total {
		cursorIdx = total
	}

	filter := newPageFilter(params)
	var page Page
	if params.Newer {
		page, err = s.scanForward(ctx, lines, cursorIdx, limit, filter)
	} else {
		page, err = s.scanBackward(ctx, lines, cursorIdx, limit, filter)
	}
	if err != nil {
		return Page{}, err
	}
	if len(page.Entries) > 0 {
		cursor := page.Entries[len(page.Entries)-1].Cursor
		page.NextCursor = &cursor
	}
	return page, nil
}

// scanBackward walks from just below the cursor toward the start of the
// file, collecting newest-first.
func (s *Store) scanBackward(ctx context.Context, lines [][]byte, cursorIdx int64, limit int, filter pageFilter) (Page, error) {
	page := Page{}
	for idx := cursorIdx - 1; idx >= 0; idx-- {
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		entry, ok := s.entryAt(lines, idx)
		if !ok || !filter.matches(entry) {
			continue
		}
		if len(page.Entries) < limit {
			page.Entries = append(page.Entries, entry)
			continue
		}
		page.HasMore = true
		break
	}
	return page, nil
}

// scanForward walks from just above the cursor toward the end of the file.
// Once the page is full it keeps looking for one more matching line so
// HasMore reflects matches, not raw lines.
func (s *Store) scanForward(ctx context.Context, lines [][]byte, cursorIdx int64, limit int, filter pageFilter) (Page, error) {
	page := Page{}
	start := cursorIdx
	if start < -1 {
		start = -1
	}
	total := int64(len(lines))
	for idx := start + 1; idx < total; idx++ {
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}
		entry, ok := s.entryAt(lines, idx)
		if !ok || !filter.matches(entry) {
			continue
		}
		page.Entries = append(page.Entries, entry)
		if len(page.Entries) < limit {
			continue
		}
		for rest := idx + 1; rest < total; rest++ {
			candidate, ok := s.entryAt(lines, rest)
			if ok && filter.matches(candidate) {
				page.HasMore = true
				break
			}
		}
		break
	}
	return page, nil
}

// entryAt returns the parsed entry at idx, consulting the cache first. Blank
// and unparseable lines report ok false and are never cached.
func (s *Store) entryAt(lines [][]byte, idx int64) (Entry, bool) {
	if cached, err := s.cache.Get(s.gen, idx); err == nil {
		return cached, true
	}
	entry, ok := parseLine(lines[idx], idx)
	if !ok {
		return Entry{}, false
	}
	_ = s.cache.Put(s.gen, idx, entry)
	return entry, true
}

// observe updates the generation bookkeeping after a read. A shrinking file
// means the log was rotated or truncated behind us, so previously cached
// indices no longer describe the same lines.
func (s *Store) observe(size int64, total int) {
	if size < s.lastSize || total < s.lastTotal {
		s.gen++
	}
	s.lastSize = size
	s.lastTotal = total
}

// Purge truncates the active log and removes rotated backups. The generation
// advances even when cleanup partially fails, since the file contents are
// gone either way.
func (s *Store) Purge() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := s.appender.Truncate()
	err = multierr.Append(err, s.appender.RemoveBackups())
	s.gen++
	s.lastSize = 0
	s.lastTotal = 0
	if err != nil {
		return fmt.Errorf("failed to purge logs: %w", err)
	}
	s.logger.Info("Purged log history", zap.String("path", s.appender.Path()))
	return nil
}

// Generation reports the current log generation.
func (s *Store) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.gen
}

// splitLines splits file contents on newlines the way a line reader would: a
// trailing newline does not produce a final empty line, but interior blank
// lines keep their index.
func splitLines(data []byte) [][]byte {
	lines := bytes.Split(data, []byte{'\n'})
	if n := len(lines); n > 0 && len(lines[n-1]) == 0 {
		lines = lines[:n-1]
	}
	return lines
}
