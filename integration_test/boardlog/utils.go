package boardlog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http/httptest"
	"os"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/dgraph-io/ristretto"
	"github.com/willcgage/wirelessboard/internal/boardcfg"
	"github.com/willcgage/wirelessboard/internal/log_server/router"
	logService "github.com/willcgage/wirelessboard/internal/log_server/service/boardlog"
	"github.com/willcgage/wirelessboard/internal/logpipe"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"github.com/willcgage/wirelessboard/internal/logview"
	"github.com/willcgage/wirelessboard/pkg/event_bus"
	"go.uber.org/zap"
)

// boardEnv is one live board: a real log file on disk served by the real
// router over a test HTTP server.
type boardEnv struct {
	dir      string
	config   *boardcfg.Config
	appender *logstore.Appender
	pipeline *logpipe.Pipeline
	store    *logstore.Store
	settings *boardcfg.SettingsManager
	server   *httptest.Server
}

func startBoardEnv(logger *zap.Logger) (*boardEnv, error) {
	dir, err := os.MkdirTemp("", "wirelessboard-boardlog-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp dir: %w", err)
	}
	config, err := boardcfg.Load(dir, logger)
	if err != nil {
		return nil, err
	}
	logFile, err := config.LogFile()
	if err != nil {
		return nil, err
	}
	settings := config.LoggingSettings()
	appender := logstore.NewAppender(logFile, settings)
	pipeline := logpipe.NewPipeline(appender, settings, io.Discard)
	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e4,
		MaxCost:     1 << 20,
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create entry cache: %w", err)
	}
	store := logstore.NewStore(appender, logstore.NewEntryCache(cache), logger)
	manager := boardcfg.NewSettingsManager(config, pipeline, logger)
	service := logService.NewBoardLogService(store, manager, logger)
	server := httptest.NewServer(router.CreateRouter(context.Background(), service, logger))
	return &boardEnv{
		dir:      dir,
		config:   config,
		appender: appender,
		pipeline: pipeline,
		store:    store,
		settings: manager,
		server:   server,
	}, nil
}

func (env *boardEnv) close() {
	env.server.Close()
	_ = env.appender.Close()
	_ = os.RemoveAll(env.dir)
}

// resetBoard clears the log history and restores default logging settings so
// tests never see each other's state.
func resetBoard(env *boardEnv) error {
	if err := env.store.Purge(); err != nil {
		return err
	}
	level := string(logstore.DefaultFileLevel)
	consoleLevel := string(logstore.DefaultConsoleLevel)
	maxBytes := int64(logstore.DefaultMaxBytes)
	backups := logstore.DefaultBackups
	_, err := env.settings.Update(logstore.SettingsPatch{
		Level:        &level,
		ConsoleLevel: &consoleLevel,
		Levels:       json.RawMessage("null"),
		MaxBytes:     &maxBytes,
		Backups:      &backups,
	})
	return err
}

var testBase = time.Date(2026, time.August, 24, 10, 0, 0, 0, time.UTC)

// appendRecords writes count records to the board's log file, numbered from
// start so messages and timestamps line up with their line indices.
func appendRecords(env *boardEnv, start int, count int) error {
	for i := 0; i < count; i++ {
		seq := start + i
		record := logstore.Record{
			Timestamp: testBase.Add(time.Duration(seq) * time.Second),
			Level:     logstore.InfoLevel,
			Logger:    "wirelessboard.core",
			Source:    "core",
			Message:   fmt.Sprintf("slot scan %d", seq),
		}
		if err := env.appender.Append(record); err != nil {
			return err
		}
	}
	return nil
}

// boardClient bundles a log view client wired to the board over real HTTP
// with recorders on both of its topics.
type boardClient struct {
	client  *logview.Client
	board   *logview.BoardStateHandle
	bus     EventBus.Bus
	updates event_bus.BoardEventBus[logview.UpdateEvent]
	status  *eventRecorder[logview.StatusEvent]
	updated *eventRecorder[logview.UpdateEvent]
}

func newBoardClient(env *boardEnv, logger *zap.Logger) (*boardClient, error) {
	bus := EventBus.New()
	statusBus := event_bus.NewBoardEventBus[logview.StatusEvent](bus, logger)
	updateBus := event_bus.NewBoardEventBus[logview.UpdateEvent](bus, logger)
	board := logview.NewBoardStateHandle(env.server.URL)
	transport := logview.NewHTTPStoreTransport(board, env.server.Client(), logger)
	client := logview.NewClient(transport, statusBus, updateBus, logger)

	status := &eventRecorder[logview.StatusEvent]{}
	if err := statusBus.Subscribe(logview.StatusTopic, status.record, false); err != nil {
		return nil, err
	}
	updated := &eventRecorder[logview.UpdateEvent]{}
	if err := updateBus.Subscribe(logview.UpdateTopic, updated.record, false); err != nil {
		return nil, err
	}
	return &boardClient{
		client:  client,
		board:   board,
		bus:     bus,
		updates: updateBus,
		status:  status,
		updated: updated,
	}, nil
}

// sync waits for every event published so far to reach the recorders.
func (bc *boardClient) sync() {
	bc.bus.WaitAsync()
}

type eventRecorder[EventType any] struct {
	mu     sync.Mutex
	events []EventType
}

func (r *eventRecorder[EventType]) record(event EventType) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
	return nil
}

func (r *eventRecorder[EventType]) all() []EventType {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]EventType(nil), r.events...)
}

func (r *eventRecorder[EventType]) last() (EventType, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var zero EventType
	if len(r.events) == 0 {
		return zero, false
	}
	return r.events[len(r.events)-1], true
}
