package logview

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/willcgage/wirelessboard/internal/logstore"
	"github.com/willcgage/wirelessboard/pkg/event_bus"
	"go.uber.org/zap"
)

// Direction selects which end of the log a load reads.
type Direction int

const (
	// DirectionOlder pages backward from the pagination cursor.
	DirectionOlder Direction = iota
	// DirectionNewer reads forward past the newest held entry.
	DirectionNewer
)

// View is a point-in-time copy of the client state for rendering. Renderers
// take one on every update event instead of reaching into the client.
type View struct {
	Entries     []Entry
	Filters     Filters
	NextCursor  *string
	HasMore     bool
	LatestIndex int64
	LiveTail    bool
	Levels      []string
	Sources     []string
	Settings    logstore.Settings
}

// Client holds the log view's entry list and drives every exchange with the
// store. All exported methods are safe for concurrent use. Loads overlapping
// in time fold into one another through the coalescing gate, so at most one
// page request is ever outstanding and responses cannot land out of order.
type Client struct {
	store   StoreTransport
	status  event_bus.BoardEventBus[StatusEvent]
	updates event_bus.BoardEventBus[UpdateEvent]
	logger  *zap.Logger

	gate loadGate

	mu          sync.Mutex
	entries     []Entry
	filters     Filters
	nextCursor  *string
	hasMore     bool
	latestIndex int64
	liveTail    bool
	epoch       uint64
	pageLimit   int
	levels      []string
	sources     []string
	settings    logstore.Settings
}

func NewClient(
	store StoreTransport,
	status event_bus.BoardEventBus[StatusEvent],
	updates event_bus.BoardEventBus[UpdateEvent],
	logger *zap.Logger,
) *Client {
	return &Client{
		store:       store,
		status:      status,
		updates:     updates,
		logger:      logger,
		latestIndex: UnorderedIndex,
		pageLimit:   logstore.DefaultPageLimit,
		settings:    logstore.DefaultSettings(),
	}
}

// LoadPage fetches one page in the given direction and merges it into the
// view. When another load is already in flight the call does not fetch:
// its intent folds into the in-flight call's replay and LoadPage returns
// (0, nil) immediately. The call holding the gate carries out every replay
// queued behind it and reports the combined fresh-entry count.
func (c *Client) LoadPage(ctx context.Context, direction Direction, reset bool) (int, error) {
	intent := loadIntent{Reset: reset, Newer: direction == DirectionNewer}
	if !c.gate.enter(intent) {
		return 0, nil
	}
	var total int
	var firstErr error
	for {
		fresh, err := c.executeLoad(ctx, intent)
		total += fresh
		if err != nil && firstErr == nil {
			firstErr = err
		}
		next, replay := c.gate.leave()
		if !replay {
			return total, firstErr
		}
		intent = next
	}
}

// Refresh discards the held entries and reloads the newest page under the
// current filters.
func (c *Client) Refresh(ctx context.Context) (int, error) {
	return c.LoadPage(ctx, DirectionOlder, true)
}

// LoadOlder extends the view backward by one page from the pagination
// cursor.
func (c *Client) LoadOlder(ctx context.Context) (int, error) {
	return c.LoadPage(ctx, DirectionOlder, false)
}

func (c *Client) executeLoad(ctx context.Context, intent loadIntent) (int, error) {
	query, epoch := c.buildQuery(intent)
	page, err := c.store.FetchPage(ctx, query)
	if err != nil {
		c.publishStatus(StatusEvent{
			Kind:    StatusError,
			Message: fmt.Sprintf("Failed to load log entries: %s", userMessage(err)),
		})
		return 0, err
	}
	fresh, total, reason, stale := c.mergePage(intent, epoch, page)
	if stale {
		c.logger.Debug("Discarding log page fetched before the view was purged")
		return 0, nil
	}
	c.publishUpdate(UpdateEvent{Reason: reason, Fresh: fresh, Total: total})
	c.publishStatus(mergeStatus(reason, fresh))
	return fresh, nil
}

// buildQuery snapshots the request parameters under the lock. Filters are
// read here, at execution time, so a replayed intent queries with whatever
// filters the caller set while the previous load was in flight.
func (c *Client) buildQuery(intent loadIntent) (PageQuery, uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	query := PageQuery{
		Limit:   c.pageLimit,
		Level:   c.filters.Level,
		Sources: append([]string(nil), c.filters.Sources...),
		Search:  c.filters.Search,
	}
	switch {
	case intent.Reset:
		// Newest page, no cursor. A reset folded together with a newer
		// intent still resets; the tail poll after it starts over from the
		// fresh latest index.
	case intent.Newer:
		query.Newer = true
		if c.latestIndex > UnorderedIndex {
			cursor := strconv.FormatInt(c.latestIndex, 10)
			query.Cursor = &cursor
		}
	default:
		if c.nextCursor != nil {
			cursor := *c.nextCursor
			query.Cursor = &cursor
		}
	}
	return query, c.epoch
}

// mergePage folds a fetched page into the held entries. Pages fetched under
// an earlier epoch are discarded whole; the purge that bumped the epoch
// already emptied the view and nothing from before it may resurface.
func (c *Client) mergePage(
	intent loadIntent,
	epoch uint64,
	page PageResult,
) (fresh int, total int, reason UpdateReason, stale bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if epoch != c.epoch {
		return 0, len(c.entries), "", true
	}

	before := len(c.entries)
	switch {
	case intent.Reset:
		c.entries = append([]Entry(nil), page.Entries...)
		c.nextCursor = page.Cursor
		c.hasMore = page.HasMore
		reason = UpdateReset
	case intent.Newer:
		// Only entries past the newest held index survive; everything at or
		// below it was either already merged or predates the view.
		for _, entry := range page.Entries {
			if entry.Index > c.latestIndex {
				c.entries = append(c.entries, entry)
			}
		}
		reason = UpdateNewer
	default:
		c.entries = append(c.entries, page.Entries...)
		if len(page.Entries) > 0 {
			c.nextCursor = page.Cursor
		}
		c.hasMore = page.HasMore
		reason = UpdateOlder
	}

	sortEntries(c.entries)
	c.entries = compactEntries(c.entries)
	if len(c.entries) > 0 && c.entries[0].Index > c.latestIndex {
		c.latestIndex = c.entries[0].Index
	}
	if intent.Reset {
		fresh = len(c.entries)
	} else if fresh = len(c.entries) - before; fresh < 0 {
		fresh = 0
	}
	c.absorbMetadataLocked(page.Levels, page.Sources, page.Settings)
	return fresh, len(c.entries), reason, false
}

// SetFilters replaces the filter selection. The view is not reloaded; call
// Refresh afterwards to requery under the new filters.
func (c *Client) SetFilters(filters Filters) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.filters = filters.clone()
	c.pruneFiltersLocked()
}

// Filters returns the current filter selection.
func (c *Client) Filters() Filters {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.filters.clone()
}

// SetPageLimit bounds how many entries each load requests. Values outside
// the store's accepted range fall back to its limits.
func (c *Client) SetPageLimit(limit int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch {
	case limit <= 0:
		c.pageLimit = logstore.DefaultPageLimit
	case limit > logstore.MaxPageLimit:
		c.pageLimit = logstore.MaxPageLimit
	default:
		c.pageLimit = limit
	}
}

// SyncSettings pulls the store's filter vocabulary and logging settings so
// the settings pane can render without loading a page first.
func (c *Client) SyncSettings(ctx context.Context) error {
	metadata, err := c.store.FetchMetadata(ctx)
	if err != nil {
		c.publishStatus(StatusEvent{
			Kind:    StatusError,
			Message: fmt.Sprintf("Failed to load logging settings: %s", userMessage(err)),
		})
		return err
	}
	c.mu.Lock()
	settings := metadata.Settings
	c.absorbMetadataLocked(metadata.Levels, metadata.Sources, &settings)
	c.mu.Unlock()
	return nil
}

// UpdateSettings sends a settings patch to the store. The cached settings
// change only on success; a rejected patch leaves them untouched and the
// store's error message reaches the status topic verbatim.
func (c *Client) UpdateSettings(ctx context.Context, patch logstore.SettingsPatch) error {
	settings, err := c.store.UpdateSettings(ctx, patch)
	if err != nil {
		c.publishStatus(StatusEvent{Kind: StatusError, Message: userMessage(err)})
		return err
	}
	c.mu.Lock()
	c.settings = settings
	c.mu.Unlock()
	c.publishStatus(StatusEvent{Kind: StatusOK, Message: "Logging settings updated"})
	return nil
}

// Purge asks the store to drop its history, then empties the view. The
// epoch bump makes any in-flight page stale, so entries fetched before the
// purge can never reappear after it.
func (c *Client) Purge(ctx context.Context) error {
	if err := c.store.Purge(ctx); err != nil {
		c.publishStatus(StatusEvent{
			Kind:    StatusError,
			Message: fmt.Sprintf("Failed to clear log history: %s", userMessage(err)),
		})
		return err
	}
	c.mu.Lock()
	c.entries = nil
	c.nextCursor = nil
	c.hasMore = false
	c.latestIndex = UnorderedIndex
	c.liveTail = false
	c.epoch++
	c.mu.Unlock()
	c.publishUpdate(UpdateEvent{Reason: UpdatePurge, Fresh: 0, Total: 0})
	c.publishStatus(StatusEvent{Kind: StatusOK, Message: "Log history cleared"})
	return nil
}

// Snapshot copies the current view state for rendering.
func (c *Client) Snapshot() View {
	c.mu.Lock()
	defer c.mu.Unlock()
	view := View{
		Entries:     append([]Entry(nil), c.entries...),
		Filters:     c.filters.clone(),
		HasMore:     c.hasMore,
		LatestIndex: c.latestIndex,
		LiveTail:    c.liveTail,
		Levels:      append([]string(nil), c.levels...),
		Sources:     append([]string(nil), c.sources...),
		Settings:    c.settings.Clone(),
	}
	if c.nextCursor != nil {
		cursor := *c.nextCursor
		view.NextCursor = &cursor
	}
	return view
}

// LiveTail reports whether a tailer currently follows this client.
func (c *Client) LiveTail() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.liveTail
}

func (c *Client) setLiveTail(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.liveTail = on
}

// absorbMetadataLocked keeps the filter vocabulary and cached settings in
// step with whatever the store last reported. Callers hold c.mu.
func (c *Client) absorbMetadataLocked(levels []string, sources []string, settings *logstore.Settings) {
	if len(levels) > 0 {
		c.levels = append([]string(nil), levels...)
	}
	if len(sources) > 0 {
		c.sources = append([]string(nil), sources...)
	}
	if settings != nil {
		c.settings = settings.Clone()
	}
	c.pruneFiltersLocked()
}

// pruneFiltersLocked drops filter values the store no longer advertises, so
// a stale selection cannot pin the view to an empty result set with no way
// to tell from the controls. Callers hold c.mu.
func (c *Client) pruneFiltersLocked() {
	if len(c.levels) > 0 && c.filters.Level != "" && !containsFold(c.levels, c.filters.Level) {
		c.filters.Level = ""
	}
	if len(c.sources) > 0 && len(c.filters.Sources) > 0 {
		kept := c.filters.Sources[:0]
		for _, source := range c.filters.Sources {
			if containsFold(c.sources, source) {
				kept = append(kept, source)
			}
		}
		c.filters.Sources = kept
	}
}

func (c *Client) publishStatus(event StatusEvent) {
	if err := c.status.Publish(StatusTopic, event); err != nil {
		c.logger.Error("Failed to publish log view status", zap.Error(err))
	}
}

func (c *Client) publishUpdate(event UpdateEvent) {
	if err := c.updates.Publish(UpdateTopic, event); err != nil {
		c.logger.Error("Failed to publish log view update", zap.Error(err))
	}
}

func mergeStatus(reason UpdateReason, fresh int) StatusEvent {
	switch reason {
	case UpdateReset:
		if fresh == 0 {
			return StatusEvent{Kind: StatusInfo, Message: "No log entries"}
		}
		return StatusEvent{Kind: StatusOK, Message: fmt.Sprintf("Loaded %d entries", fresh)}
	case UpdateOlder:
		if fresh == 0 {
			return StatusEvent{Kind: StatusInfo, Message: "No older entries"}
		}
		return StatusEvent{Kind: StatusOK, Message: fmt.Sprintf("Loaded %d older entries", fresh)}
	default:
		if fresh == 0 {
			return StatusEvent{Kind: StatusInfo, Message: "No new entries"}
		}
		return StatusEvent{Kind: StatusOK, Message: fmt.Sprintf("%d new entries", fresh)}
	}
}

// userMessage extracts the text worth showing a user: the store's own error
// field when the failure carried one, the Go error text otherwise.
func userMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Message
	}
	return err.Error()
}

func containsFold(values []string, want string) bool {
	for _, value := range values {
		if strings.EqualFold(value, want) {
			return true
		}
	}
	return false
}
