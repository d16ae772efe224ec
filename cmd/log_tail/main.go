package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"

	"github.com/asaskevich/EventBus"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"github.com/willcgage/wirelessboard/internal/logview"
	"github.com/willcgage/wirelessboard/pkg/event_bus"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// log_tail follows a wirelessboard's log from the terminal the way the
// dashboard's log view does: newest page first, older pages on demand, then
// a live tail appending entries as the board writes them.

func main() {
	boardURL := flag.String("url", "http://localhost:8058", "base URL of the board's REST API")
	limit := flag.Int("limit", logstore.DefaultPageLimit, "entries per page")
	level := flag.String("level", "", "minimum level name to show")
	sources := flag.String("source", "", "comma-separated source tags to show")
	search := flag.String("search", "", "case-insensitive substring filter")
	pages := flag.Int("pages", 1, "pages of history to load before tailing")
	follow := flag.Bool("follow", false, "keep polling for new entries")
	interval := flag.Duration("interval", logview.DefaultTailInterval, "poll interval when following")
	flag.Parse()

	zapConfig := zap.NewDevelopmentConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zapcore.ErrorLevel)
	logger, err := zapConfig.Build()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	bus := EventBus.New()
	statusBus := event_bus.NewBoardEventBus[logview.StatusEvent](bus, logger)
	updateBus := event_bus.NewBoardEventBus[logview.UpdateEvent](bus, logger)

	board := logview.NewBoardStateHandle(*boardURL)
	transport := logview.NewHTTPStoreTransport(board, &http.Client{}, logger)
	client := logview.NewClient(transport, statusBus, updateBus, logger)

	renderer, err := newConsoleRenderer(client, statusBus, updateBus, os.Stdout, os.Stderr)
	if err != nil {
		logger.Fatal("Failed to subscribe renderer", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client.SetPageLimit(*limit)
	client.SetFilters(logview.Filters{
		Level:   *level,
		Sources: splitSources(*sources),
		Search:  *search,
	})

	if err := client.SyncSettings(ctx); err != nil {
		logger.Debug("Could not load logging settings", zap.Error(err))
	}
	if _, err := client.Refresh(ctx); err != nil {
		bus.WaitAsync()
		os.Exit(1)
	}
	for page := 1; page < *pages; page++ {
		fresh, err := client.LoadOlder(ctx)
		if err != nil || fresh == 0 {
			break
		}
	}
	renderer.renderAll()

	if *follow {
		tailer, err := logview.NewTailer(client, board, updateBus, *interval, logger)
		if err != nil {
			logger.Fatal("Failed to build tailer", zap.Error(err))
		}
		tailer.Start(ctx)
		<-ctx.Done()
		tailer.Stop()
	}
	bus.WaitAsync()
}

func splitSources(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// consoleRenderer turns the log view's events into terminal output: fresh
// tail entries and purge notices on stdout, failures on stderr.
type consoleRenderer struct {
	client *logview.Client
	out    io.Writer
	errOut io.Writer
	mu     sync.Mutex
}

func newConsoleRenderer(
	client *logview.Client,
	status event_bus.BoardEventBus[logview.StatusEvent],
	updates event_bus.BoardEventBus[logview.UpdateEvent],
	out io.Writer,
	errOut io.Writer,
) (*consoleRenderer, error) {
	renderer := &consoleRenderer{client: client, out: out, errOut: errOut}
	if err := status.Subscribe(logview.StatusTopic, renderer.onStatus, false); err != nil {
		return nil, err
	}
	if err := updates.Subscribe(logview.UpdateTopic, renderer.onUpdate, false); err != nil {
		return nil, err
	}
	return renderer, nil
}

func (cr *consoleRenderer) onStatus(event logview.StatusEvent) error {
	if event.Kind != logview.StatusError {
		return nil
	}
	cr.mu.Lock()
	defer cr.mu.Unlock()
	fmt.Fprintln(cr.errOut, event.Message)
	return nil
}

func (cr *consoleRenderer) onUpdate(event logview.UpdateEvent) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	switch {
	case event.Reason == logview.UpdatePurge:
		fmt.Fprintln(cr.out, "-- log history cleared --")
	case event.Reason == logview.UpdateNewer && event.Fresh > 0:
		view := cr.client.Snapshot()
		fresh := event.Fresh
		if fresh > len(view.Entries) {
			fresh = len(view.Entries)
		}
		// Fresh entries sort to the top of the view; print them oldest first.
		for i := fresh - 1; i >= 0; i-- {
			fmt.Fprintln(cr.out, formatEntry(view.Entries[i]))
		}
	}
	return nil
}

// renderAll prints the whole held view oldest first, the order a terminal
// reader expects.
func (cr *consoleRenderer) renderAll() {
	cr.mu.Lock()
	defer cr.mu.Unlock()
	view := cr.client.Snapshot()
	for i := len(view.Entries) - 1; i >= 0; i-- {
		fmt.Fprintln(cr.out, formatEntry(view.Entries[i]))
	}
	if view.HasMore {
		fmt.Fprintf(cr.out, "-- %d entries shown, older history available --\n", len(view.Entries))
	}
}

func formatEntry(entry logview.Entry) string {
	ts := strings.Repeat("-", 19)
	if !entry.Timestamp.IsZero() {
		ts = entry.Timestamp.Local().Format("2006-01-02 15:04:05")
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%s %-8s %-10s %s", ts, entry.Level, entry.Source, entry.Message)
	if len(entry.Context) > 0 {
		if blob, err := json.Marshal(entry.Context); err == nil {
			fmt.Fprintf(&b, " %s", blob)
		}
	}
	if entry.ExcInfo != "" {
		b.WriteString("\n")
		b.WriteString(entry.ExcInfo)
	}
	if entry.Stack != "" {
		b.WriteString("\n")
		b.WriteString(entry.Stack)
	}
	return b.String()
}
