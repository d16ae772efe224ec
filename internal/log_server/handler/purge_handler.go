package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/willcgage/wirelessboard/internal/log_server/service/boardlog"
	"go.uber.org/zap"
)

// PurgeLogsHandler creates a handler clearing the board's log history,
// rotated backups included.
// @Summary Purge the log history.
// @Tags logs
// @Produce json
// @Success 200 {object} PurgeResponseDTO "The history was cleared"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /logs/purge [post]
func PurgeLogsHandler(
	ctx context.Context,
	bls boardlog.BoardLogQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		err := bls.Purge()
		if err != nil {
			logger.Error("Error encountered when purging log history", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}

		err = json.NewEncoder(w).Encode(PurgeResponseDTO{OK: true})
		if err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
	}
}
