package logview

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/willcgage/wirelessboard/pkg/event_bus"
	"go.uber.org/zap"
)

// DefaultTailInterval is how often live tail polls the store for entries
// past the newest held index.
const DefaultTailInterval = 5 * time.Second

// Tailer follows the store's tail by polling its client forward on a fixed
// interval. Stopping never aborts an in-flight poll: the poll finishes and
// merges normally, the ticker simply stops firing.
type Tailer struct {
	client   *Client
	board    BoardState
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	running bool
	stop    chan struct{}
}

// NewTailer wires a tailer to its client. It subscribes to the update topic
// so a purge, whichever surface requested it, shuts the tail down.
func NewTailer(
	client *Client,
	board BoardState,
	updates event_bus.BoardEventBus[UpdateEvent],
	interval time.Duration,
	logger *zap.Logger,
) (*Tailer, error) {
	if interval <= 0 {
		interval = DefaultTailInterval
	}
	tailer := &Tailer{
		client:   client,
		board:    board,
		interval: interval,
		logger:   logger,
	}
	err := updates.Subscribe(UpdateTopic, func(event UpdateEvent) error {
		if event.Reason == UpdatePurge {
			tailer.Stop()
		}
		return nil
	}, false)
	if err != nil {
		return nil, fmt.Errorf("failed to subscribe tailer to update topic: %w", err)
	}
	return tailer, nil
}

// Start begins polling. The first poll fires immediately, so toggling the
// tail on gives feedback without waiting out an interval. Starting a
// running tailer does nothing.
func (t *Tailer) Start(ctx context.Context) {
	t.mu.Lock()
	if t.running {
		t.mu.Unlock()
		return
	}
	t.running = true
	stop := make(chan struct{})
	t.stop = stop
	t.mu.Unlock()

	t.client.setLiveTail(true)
	go t.run(ctx, stop)
}

// Stop ends polling. Safe to call whether or not the tailer runs.
func (t *Tailer) Stop() {
	t.mu.Lock()
	if !t.running {
		t.mu.Unlock()
		return
	}
	t.running = false
	close(t.stop)
	t.stop = nil
	t.mu.Unlock()

	t.client.setLiveTail(false)
}

// Running reports whether the poll loop is active.
func (t *Tailer) Running() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.running
}

func (t *Tailer) run(ctx context.Context, stop chan struct{}) {
	t.poll(ctx)
	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			t.quit(stop)
			return
		case <-stop:
			return
		case <-ticker.C:
			if !t.board.ViewVisible() {
				// The view left the screen. Stop without a status message
				// instead of polling for entries nobody is watching.
				t.quit(stop)
				return
			}
			t.poll(ctx)
		}
	}
}

func (t *Tailer) poll(ctx context.Context) {
	if _, err := t.client.LoadPage(ctx, DirectionNewer, false); err != nil {
		t.logger.Debug("Live tail poll failed", zap.Error(err))
	}
}

// quit stops from inside the poll loop. The channel identity check keeps a
// finished loop from tearing down a tailer that was stopped and restarted
// while the loop sat between selects.
func (t *Tailer) quit(stop chan struct{}) {
	t.mu.Lock()
	if !t.running || t.stop != stop {
		t.mu.Unlock()
		return
	}
	t.running = false
	t.stop = nil
	t.mu.Unlock()

	t.client.setLiveTail(false)
}
