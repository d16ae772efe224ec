package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/willcgage/wirelessboard/internal/log_server/service/boardlog"
	"go.uber.org/zap"
)

// LogsHandler creates a handler serving one page of the board's log history.
// @Summary Get a page of log entries.
// @Tags logs
// @Produce json
// @Param limit query int false "Maximum entries to return, capped at 1000"
// @Param cursor query string false "Line index to page from"
// @Param level query string false "Minimum level name to include"
// @Param source query []string false "Source tags to include"
// @Param search query string false "Case-insensitive substring filter"
// @Param direction query string false "asc to scan forward from the cursor, desc to page backward"
// @Success 200 {object} LogsResponseDTO "One page of entries plus paging state"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /logs [get]
func LogsHandler(
	ctx context.Context,
	bls boardlog.BoardLogQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params := parsePageParams(r)
		page, err := bls.GetPage(ctx, params)
		if err != nil {
			logger.Error("Error encountered when reading log page", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}

		response := toLogsResponseDTO(page, bls.Metadata())
		err = json.NewEncoder(w).Encode(response)
		if err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
	}
}
