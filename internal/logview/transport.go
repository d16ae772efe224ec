package logview

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
)

// requestTimeout bounds every store call. A request that hangs would wedge
// all further loads behind the coalescing gate, so a stalled board fails the
// load instead.
const requestTimeout = 10 * time.Second

// PageQuery selects one page of the store's log.
type PageQuery struct {
	Limit   int
	Cursor  *string
	Level   string
	Sources []string
	Search  string
	Newer   bool
}

// PageResult is a decoded page plus whatever metadata the store piggybacked
// on the response.
type PageResult struct {
	Entries  []Entry
	Cursor   *string
	HasMore  bool
	Levels   []string
	Sources  []string
	Settings *logstore.Settings
}

// Metadata is the store's filter vocabulary and its current logging
// settings.
type Metadata struct {
	Levels   []string
	Sources  []string
	Settings logstore.Settings
}

// APIError is a failure the store itself reported, either as a non-2xx
// response or an ok=false body. Message is shown to the user verbatim.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return e.Message
}

// StoreTransport is the wire client for the board's log endpoints.
type StoreTransport interface {
	FetchPage(ctx context.Context, query PageQuery) (PageResult, error)
	FetchMetadata(ctx context.Context) (Metadata, error)
	UpdateSettings(ctx context.Context, patch logstore.SettingsPatch) (logstore.Settings, error)
	Purge(ctx context.Context) error
}

// HTTPStoreTransport reaches the store over HTTP. The base URL is read from
// the injected board state on every call, so a board that rebinds moves the
// transport with it.
type HTTPStoreTransport struct {
	board  BoardState
	client *http.Client
	logger *zap.Logger
}

func NewHTTPStoreTransport(board BoardState, client *http.Client, logger *zap.Logger) *HTTPStoreTransport {
	if client == nil {
		client = &http.Client{}
	}
	return &HTTPStoreTransport{
		board:  board,
		client: client,
		logger: logger,
	}
}

func (t *HTTPStoreTransport) FetchPage(ctx context.Context, query PageQuery) (PageResult, error) {
	params := url.Values{}
	if query.Limit > 0 {
		params.Set("limit", strconv.Itoa(query.Limit))
	}
	if query.Cursor != nil {
		params.Set("cursor", *query.Cursor)
	}
	if query.Level != "" {
		params.Set("level", query.Level)
	}
	for _, source := range query.Sources {
		params.Add("source", source)
	}
	if query.Search != "" {
		params.Set("search", query.Search)
	}
	if query.Newer {
		params.Set("direction", "asc")
		params.Set("newer", "true")
	} else {
		params.Set("direction", "desc")
	}

	var body logsResponseBody
	if err := t.send(ctx, http.MethodGet, "/logs", params, nil, &body); err != nil {
		return PageResult{}, fmt.Errorf("failed to fetch log page: %w", err)
	}
	if !body.OK {
		return PageResult{}, storeFailure(body.Error)
	}

	result := PageResult{
		Cursor:  body.Cursor,
		HasMore: body.HasMore,
		Levels:  body.Levels,
		Sources: body.Sources,
	}
	if body.Logging != nil {
		settings := logstore.NormalizeSettings(*body.Logging)
		result.Settings = &settings
	}
	result.Entries = make([]Entry, len(body.Entries))
	for i, wire := range body.Entries {
		result.Entries[i] = wire.toEntry()
	}
	return result, nil
}

func (t *HTTPStoreTransport) FetchMetadata(ctx context.Context) (Metadata, error) {
	var body settingsResponseBody
	if err := t.send(ctx, http.MethodGet, "/logs/settings", nil, nil, &body); err != nil {
		return Metadata{}, fmt.Errorf("failed to fetch log settings: %w", err)
	}
	if !body.OK {
		return Metadata{}, storeFailure(body.Error)
	}
	return Metadata{
		Levels:   body.Levels,
		Sources:  body.Sources,
		Settings: normalizeWireSettings(body.Logging),
	}, nil
}

func (t *HTTPStoreTransport) UpdateSettings(
	ctx context.Context,
	patch logstore.SettingsPatch,
) (logstore.Settings, error) {
	var body settingsResponseBody
	if err := t.send(ctx, http.MethodPost, "/logs/settings", nil, patch, &body); err != nil {
		return logstore.Settings{}, fmt.Errorf("failed to update log settings: %w", err)
	}
	if !body.OK {
		return logstore.Settings{}, storeFailure(body.Error)
	}
	return normalizeWireSettings(body.Logging), nil
}

func (t *HTTPStoreTransport) Purge(ctx context.Context) error {
	var body purgeResponseBody
	if err := t.send(ctx, http.MethodPost, "/logs/purge", nil, struct{}{}, &body); err != nil {
		return fmt.Errorf("failed to purge logs: %w", err)
	}
	if !body.OK {
		return storeFailure(body.Error)
	}
	return nil
}

// send issues one request with the transport timeout and decodes the JSON
// body into out. Non-2xx statuses come back as *APIError carrying the
// store's error field when the body held one.
func (t *HTTPStoreTransport) send(
	ctx context.Context,
	method string,
	path string,
	params url.Values,
	payload any,
	out any,
) error {
	reqCtx, cancel := context.WithTimeout(ctx, requestTimeout)
	defer cancel()

	endpoint := t.board.BaseURL() + path
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}
	var body io.Reader
	if payload != nil {
		blob, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("failed to marshal request payload: %w", err)
		}
		body = bytes.NewReader(blob)
	}

	req, err := http.NewRequestWithContext(reqCtx, method, endpoint, body)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := t.client.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach log store: %w", err)
	}
	defer func() {
		if err := res.Body.Close(); err != nil {
			t.logger.Error("Error encountered when closing response body", zap.Error(err))
		}
	}()

	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if res.StatusCode < http.StatusOK || res.StatusCode >= http.StatusMultipleChoices {
		return &APIError{StatusCode: res.StatusCode, Message: errorMessage(raw, res.Status)}
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("failed to decode store response: %w", err)
	}
	return nil
}

// wireEntry mirrors one element of the store's entries array loosely enough
// to survive missing or malformed fields from older boards.
type wireEntry struct {
	Index   *int64         `json:"index"`
	Cursor  string         `json:"cursor"`
	Ts      string         `json:"ts"`
	Level   string         `json:"level"`
	Logger  string         `json:"logger"`
	Source  string         `json:"source"`
	Message string         `json:"message"`
	Context map[string]any `json:"context"`
	ExcInfo string         `json:"exc_info"`
	Stack   string         `json:"stack"`
}

func (w wireEntry) toEntry() Entry {
	return Entry{
		Index:     normalizeIndex(w.Index, w.Cursor),
		Cursor:    w.Cursor,
		Timestamp: parseWireTime(w.Ts),
		Level:     w.Level,
		Logger:    w.Logger,
		Source:    w.Source,
		Message:   w.Message,
		Context:   w.Context,
		ExcInfo:   w.ExcInfo,
		Stack:     w.Stack,
	}
}

// parseWireTime reads the store's RFC3339 timestamps. Unparseable stamps
// become the zero time; the entry still displays.
func parseWireTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	ts, err := time.Parse(time.RFC3339Nano, raw)
	if err != nil {
		return time.Time{}
	}
	return ts
}

type logsResponseBody struct {
	OK      bool               `json:"ok"`
	Error   string             `json:"error"`
	Entries []wireEntry        `json:"entries"`
	Cursor  *string            `json:"cursor"`
	HasMore bool               `json:"has_more"`
	Levels  []string           `json:"levels"`
	Sources []string           `json:"sources"`
	Logging *logstore.Settings `json:"logging"`
}

type settingsResponseBody struct {
	OK      bool               `json:"ok"`
	Error   string             `json:"error"`
	Levels  []string           `json:"levels"`
	Sources []string           `json:"sources"`
	Logging *logstore.Settings `json:"logging"`
}

type purgeResponseBody struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func normalizeWireSettings(settings *logstore.Settings) logstore.Settings {
	if settings == nil {
		return logstore.DefaultSettings()
	}
	return logstore.NormalizeSettings(*settings)
}

func storeFailure(message string) error {
	if message == "" {
		message = "log store reported a failure"
	}
	return &APIError{StatusCode: http.StatusOK, Message: message}
}

// errorMessage pulls the store's error field out of a failure body, falling
// back to the HTTP status line.
func errorMessage(raw []byte, fallback string) string {
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(raw, &body); err == nil && body.Error != "" {
		return body.Error
	}
	return fallback
}
