package logview

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newTestTailer(
	t *testing.T,
	store StoreTransport,
	interval time.Duration,
) (*Tailer, *Client, *BoardStateHandle) {
	status := &captureBus[StatusEvent]{}
	updates := &captureBus[UpdateEvent]{}
	client := NewClient(store, status, updates, zap.NewNop())
	board := NewBoardStateHandle("http://localhost:8058")
	tailer, err := NewTailer(client, board, updates, interval, zap.NewNop())
	if err != nil {
		t.Fatalf("Failed to build tailer: %v", err)
	}
	return tailer, client, board
}

func TestTailer(t *testing.T) {
	t.Run("should poll immediately on start", func(t *testing.T) {
		store := newMemoryStore(5)
		tailer, client, _ := newTestTailer(t, store, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tailer.Start(ctx)
		defer tailer.Stop()

		assert.Eventually(t, func() bool {
			return len(client.Snapshot().Entries) == 5
		}, time.Second, 5*time.Millisecond)
		assert.True(t, client.LiveTail())
		assert.True(t, tailer.Running())
	})

	t.Run("should keep picking up new entries", func(t *testing.T) {
		store := newMemoryStore(3)
		tailer, client, _ := newTestTailer(t, store, 10*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tailer.Start(ctx)
		defer tailer.Stop()

		assert.Eventually(t, func() bool {
			return len(client.Snapshot().Entries) == 3
		}, time.Second, 5*time.Millisecond)

		store.appendEntries(2)
		assert.Eventually(t, func() bool {
			return len(client.Snapshot().Entries) == 5
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("should stop silently when the view leaves the screen", func(t *testing.T) {
		store := newMemoryStore(2)
		tailer, client, board := newTestTailer(t, store, 10*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tailer.Start(ctx)
		board.SetViewVisible(false)

		assert.Eventually(t, func() bool {
			return !tailer.Running()
		}, time.Second, 5*time.Millisecond)
		assert.False(t, client.LiveTail())
	})

	t.Run("should stop when the view is purged", func(t *testing.T) {
		store := newMemoryStore(10)
		tailer, client, _ := newTestTailer(t, store, 10*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tailer.Start(ctx)
		assert.Eventually(t, func() bool {
			return len(client.Snapshot().Entries) == 10
		}, time.Second, 5*time.Millisecond)

		assert.NoError(t, client.Purge(ctx))
		assert.False(t, tailer.Running(), "the purge update must stop the tail")
		assert.False(t, client.LiveTail())
	})

	t.Run("should stop when its context is cancelled", func(t *testing.T) {
		store := newMemoryStore(2)
		tailer, _, _ := newTestTailer(t, store, 10*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())

		tailer.Start(ctx)
		cancel()

		assert.Eventually(t, func() bool {
			return !tailer.Running()
		}, time.Second, 5*time.Millisecond)
	})

	t.Run("should ignore a second start and a stop while idle", func(t *testing.T) {
		store := newMemoryStore(1)
		tailer, _, _ := newTestTailer(t, store, time.Hour)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tailer.Stop()
		tailer.Start(ctx)
		tailer.Start(ctx)
		assert.True(t, tailer.Running())
		tailer.Stop()
		assert.False(t, tailer.Running())
	})

	t.Run("should restart cleanly after a stop", func(t *testing.T) {
		store := newMemoryStore(4)
		tailer, client, _ := newTestTailer(t, store, 10*time.Millisecond)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		tailer.Start(ctx)
		assert.Eventually(t, func() bool {
			return len(client.Snapshot().Entries) == 4
		}, time.Second, 5*time.Millisecond)
		tailer.Stop()

		store.appendEntries(2)
		tailer.Start(ctx)
		defer tailer.Stop()
		assert.Eventually(t, func() bool {
			return len(client.Snapshot().Entries) == 6
		}, time.Second, 5*time.Millisecond)
		assert.True(t, client.LiveTail())
	})
}
