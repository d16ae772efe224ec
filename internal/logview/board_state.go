package logview

import (
	"strings"
	"sync"
)

// BoardState is the slice of board state the log view depends on. It is
// injected rather than read from ambient globals, so tests and embedders can
// supply their own.
type BoardState interface {
	// BaseURL is the root of the board's REST API, without a trailing slash.
	BaseURL() string
	// ViewVisible reports whether the log view is on screen. Live tail stops
	// itself when it goes false.
	ViewVisible() bool
}

// BoardStateHandle is a settable BoardState for binaries and tests.
type BoardStateHandle struct {
	mu      sync.Mutex
	baseURL string
	visible bool
}

func NewBoardStateHandle(baseURL string) *BoardStateHandle {
	return &BoardStateHandle{
		baseURL: strings.TrimRight(baseURL, "/"),
		visible: true,
	}
}

func (h *BoardStateHandle) BaseURL() string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.baseURL
}

func (h *BoardStateHandle) SetBaseURL(baseURL string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.baseURL = strings.TrimRight(baseURL, "/")
}

func (h *BoardStateHandle) ViewVisible() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.visible
}

func (h *BoardStateHandle) SetViewVisible(visible bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.visible = visible
}
