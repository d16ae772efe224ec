package logpipe

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"testing"

	"github.com/dgraph-io/ristretto"
	"github.com/stretchr/testify/assert"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
)

func TestPipelineRoundTrip(t *testing.T) {
	pipeline, store := newTestPipeline(t, logstore.DefaultSettings(), io.Discard)

	t.Run("should write entries the store reads back", func(t *testing.T) {
		pipeline.Source("device").Warn("battery low", zap.Int("slot", 3))

		page, err := store.ReadPage(context.Background(), logstore.PageParams{Limit: 10})
		if err != nil {
			t.Errorf("Failed to read page: %v", err)
		}
		if !assert.Equal(t, 1, len(page.Entries)) {
			return
		}
		entry := page.Entries[0]
		assert.Equal(t, logstore.WarningLevel, entry.Level)
		assert.Equal(t, "wirelessboard.device", entry.Logger)
		assert.Equal(t, "device", entry.Source)
		assert.Equal(t, "battery low", entry.Message)
		assert.Equal(t, int64(3), entry.Context["slot"])
		assert.False(t, entry.Timestamp.IsZero())
	})

	t.Run("should carry accumulated fields into the context", func(t *testing.T) {
		slotLogger := pipeline.Source("slot").With(zap.String("slot", "H4"))
		slotLogger.Info("channel assigned", zap.Int("channel", 12))

		page, err := store.ReadPage(context.Background(), logstore.PageParams{Limit: 1})
		if err != nil {
			t.Errorf("Failed to read page: %v", err)
		}
		if !assert.Equal(t, 1, len(page.Entries)) {
			return
		}
		entry := page.Entries[0]
		assert.Equal(t, "H4", entry.Context["slot"])
		assert.Equal(t, int64(12), entry.Context["channel"])
	})

	t.Run("should promote exc_info and stamp stacks on errors", func(t *testing.T) {
		pipeline.Source("pco").Error("sync failed", zap.String("exc_info", "Traceback: connection refused"))

		page, err := store.ReadPage(context.Background(), logstore.PageParams{Limit: 1})
		if err != nil {
			t.Errorf("Failed to read page: %v", err)
		}
		if !assert.Equal(t, 1, len(page.Entries)) {
			return
		}
		entry := page.Entries[0]
		assert.Equal(t, logstore.ErrorLevel, entry.Level)
		assert.Equal(t, "Traceback: connection refused", entry.ExcInfo)
		assert.NotContains(t, entry.Context, "exc_info")
		assert.NotEmpty(t, entry.Stack)
	})

	t.Run("should record dpanic entries as critical", func(t *testing.T) {
		pipeline.Source("core").DPanic("lost receiver link")

		page, err := store.ReadPage(context.Background(), logstore.PageParams{Limit: 1})
		if err != nil {
			t.Errorf("Failed to read page: %v", err)
		}
		if !assert.Equal(t, 1, len(page.Entries)) {
			return
		}
		assert.Equal(t, logstore.CriticalLevel, page.Entries[0].Level)
	})
}

func TestPipelineLevels(t *testing.T) {
	t.Run("should gate file output by the per-source override", func(t *testing.T) {
		settings := logstore.DefaultSettings()
		settings.Levels = map[string]logstore.Level{"device": logstore.ErrorLevel}
		pipeline, store := newTestPipeline(t, settings, io.Discard)

		pipeline.Source("device").Warn("dropped")
		pipeline.Source("core").Info("kept")

		page, err := store.ReadPage(context.Background(), logstore.PageParams{Limit: 10})
		if err != nil {
			t.Errorf("Failed to read page: %v", err)
		}
		if !assert.Equal(t, 1, len(page.Entries)) {
			return
		}
		assert.Equal(t, "kept", page.Entries[0].Message)
	})

	t.Run("should re-level at runtime through Apply", func(t *testing.T) {
		pipeline, store := newTestPipeline(t, logstore.DefaultSettings(), io.Discard)

		pipeline.Source("telemetry").Debug("before")
		settings := logstore.DefaultSettings()
		settings.Level = logstore.DebugLevel
		pipeline.Apply(settings)
		pipeline.Source("telemetry").Debug("after")

		page, err := store.ReadPage(context.Background(), logstore.PageParams{Limit: 10})
		if err != nil {
			t.Errorf("Failed to read page: %v", err)
		}
		if !assert.Equal(t, 1, len(page.Entries)) {
			return
		}
		assert.Equal(t, "after", page.Entries[0].Message)
	})

	t.Run("should keep the console gate independent of the file gate", func(t *testing.T) {
		console := &bytes.Buffer{}
		settings := logstore.DefaultSettings()
		settings.Level = logstore.DebugLevel
		settings.ConsoleLevel = logstore.ErrorLevel
		pipeline, store := newTestPipeline(t, settings, console)

		pipeline.Source("web").Warn("file only")
		assert.Equal(t, 0, console.Len())

		pipeline.Source("web").Error("both outputs")
		assert.Contains(t, console.String(), "both outputs")

		page, err := store.ReadPage(context.Background(), logstore.PageParams{Limit: 10})
		if err != nil {
			t.Errorf("Failed to read page: %v", err)
		}
		assert.Equal(t, 2, len(page.Entries))
	})
}

func newTestPipeline(t *testing.T, settings logstore.Settings, console io.Writer) (*Pipeline, *logstore.Store) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "application.log")
	appender := logstore.NewAppender(path, settings)
	t.Cleanup(func() { _ = appender.Close() })
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1 << 12,
		MaxCost:     1 << 10,
		BufferItems: 64,
	})
	if err != nil {
		t.Fatalf("Failed to create cache: %v", err)
	}
	store := logstore.NewStore(appender, logstore.NewEntryCache(cache), zap.NewNop())
	return NewPipeline(appender, settings, console), store
}
