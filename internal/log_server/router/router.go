package router

import (
	"context"
	"net/http"

	"github.com/klauspost/compress/gzhttp"
	"github.com/willcgage/wirelessboard/internal/log_server/handler"
	"github.com/willcgage/wirelessboard/internal/log_server/service/boardlog"
	"go.uber.org/zap"
)
import "github.com/gorilla/mux"

func CreateRouter(
	ctx context.Context,
	boardLogQueryService boardlog.BoardLogQueryService,
	logger *zap.Logger,
) http.Handler {
	r := mux.NewRouter()

	r.Handle(
		"/logs", handler.LogsHandler(
			ctx,
			boardLogQueryService,
			logger,
		),
	).Methods("GET")

	r.Handle(
		"/logs/purge", handler.PurgeLogsHandler(
			ctx,
			boardLogQueryService,
			logger,
		),
	).Methods("POST")

	r.Handle(
		"/logs/settings", handler.LogSettingsHandler(
			ctx,
			boardLogQueryService,
			logger,
		),
	).Methods("GET")

	r.Handle(
		"/logs/settings", handler.UpdateLogSettingsHandler(
			ctx,
			boardLogQueryService,
			logger,
		),
	).Methods("POST")

	return gzhttp.GzipHandler(r)
}
