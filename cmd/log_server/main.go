package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dgraph-io/ristretto"
	"github.com/willcgage/wirelessboard/internal/boardcfg"
	"github.com/willcgage/wirelessboard/internal/log_server/router"
	"github.com/willcgage/wirelessboard/internal/log_server/service/boardlog"
	"github.com/willcgage/wirelessboard/internal/logpipe"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"github.com/willcgage/wirelessboard/internal/otlp_ingest"
	protoLogs "go.opentelemetry.io/proto/otlp/collector/logs/v1"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	_ "google.golang.org/grpc/encoding/gzip"
)

// @title Wirelessboard Log API
// @version 1.0
// @description Serves the board's log history, logging settings and live
// @description tail to the wirelessboard dashboard.

func main() {
	bootLogger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer bootLogger.Sync()

	configDir := flag.String("config-dir", "", "directory holding the board configuration")
	flag.Parse()

	dir, err := boardcfg.ResolveDir(*configDir, bootLogger)
	if err != nil {
		bootLogger.Fatal("Failed to resolve configuration directory", zap.Error(err))
	}
	config, err := boardcfg.Load(dir, bootLogger)
	if err != nil {
		bootLogger.Fatal("Failed to load board configuration", zap.Error(err))
	}
	logFile, err := config.LogFile()
	if err != nil {
		bootLogger.Fatal("Failed to resolve log file path", zap.Error(err))
	}

	settings := config.LoggingSettings()
	appender := logstore.NewAppender(logFile, settings)
	defer appender.Close()

	pipeline := logpipe.NewPipeline(appender, settings, os.Stderr)
	defer pipeline.Sync()
	coreLogger := pipeline.Source("core")
	webLogger := pipeline.Source("web")

	cache, err := ristretto.NewCache(&ristretto.Config{
		NumCounters: 1e7,     // number of keys to track frequency of (10M).
		MaxCost:     1 << 20, // maximum number of cached log lines.
		BufferItems: 64,      // number of keys per Get buffer.
	})
	if err != nil {
		bootLogger.Fatal("Failed to create entry cache", zap.Error(err))
	}

	store := logstore.NewStore(appender, logstore.NewEntryCache(cache), coreLogger)
	settingsManager := boardcfg.NewSettingsManager(config, pipeline, coreLogger)
	boardLogService := boardlog.NewBoardLogService(store, settingsManager, webLogger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := &http.Server{
		Addr:    fmt.Sprintf(":%d", config.Port()),
		Handler: router.CreateRouter(ctx, boardLogService, webLogger),
	}

	listener, err := net.Listen("tcp", fmt.Sprintf(":%d", config.OTLPPort()))
	if err != nil {
		bootLogger.Fatal("Failed to listen for OTLP exports", zap.Error(err))
	}
	recordBuffer := otlp_ingest.NewRecordBufferImpl(appender, coreLogger)
	grpcServer := grpc.NewServer()
	protoLogs.RegisterLogsServiceServer(grpcServer, otlp_ingest.NewLogServiceServerImpl(coreLogger, recordBuffer))

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		coreLogger.Info("Log query server started",
			zap.String("board_id", config.BoardID()),
			zap.Int("port", config.Port()),
		)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("failed to serve http: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		coreLogger.Info("OTLP ingest listening for log exports", zap.Int("port", config.OTLPPort()))
		if err := grpcServer.Serve(listener); err != nil {
			return fmt.Errorf("failed to serve grpc: %w", err)
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		coreLogger.Info("Log query server shutting down")
		grpcServer.GracefulStop()
		if err := recordBuffer.Flush(); err != nil {
			coreLogger.Error("Failed to flush buffered records during shutdown", zap.Error(err))
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		bootLogger.Fatal("Log server exited", zap.Error(err))
	}
}
