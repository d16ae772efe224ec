package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/willcgage/wirelessboard/internal/log_server/service/boardlog"
	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
)

// LogSettingsHandler creates a handler serving the filter vocabulary and the
// board's current logging settings.
// @Summary Get logging settings and the filter vocabulary.
// @Tags logs
// @Produce json
// @Success 200 {object} SettingsResponseDTO "Level names, source tags and current settings"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /logs/settings [get]
func LogSettingsHandler(
	ctx context.Context,
	bls boardlog.BoardLogQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		response := toSettingsResponseDTO(bls.Metadata())
		err := json.NewEncoder(w).Encode(response)
		if err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
	}
}

// UpdateLogSettingsHandler creates a handler applying a partial update to the
// board's logging settings.
// @Summary Update logging settings.
// @Tags logs
// @Accept json
// @Produce json
// @Param settings body logstore.SettingsPatch true "The fields to change; absent fields keep their value"
// @Success 200 {object} SettingsResponseDTO "The settings now in effect"
// @Failure 400 {object} ErrorMessage "Malformed payload"
// @Failure 500 {object} ErrorMessage "Internal server error"
// @Router /logs/settings [post]
func UpdateLogSettingsHandler(
	ctx context.Context,
	bls boardlog.BoardLogQueryService,
	logger *zap.Logger,
) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch logstore.SettingsPatch
		err := json.NewDecoder(r.Body).Decode(&patch)
		if err != nil {
			logger.Error("Error encountered when decoding request body", zap.Error(err))
			HttpError(w, "Invalid request payload", http.StatusBadRequest, logger)
			return
		}

		defer func(Body io.ReadCloser) {
			err := Body.Close()
			if err != nil {
				logger.Error("Error encountered when closing request body", zap.Error(err))
			}
		}(r.Body)

		settings, err := bls.UpdateSettings(patch)
		if err != nil {
			if errors.Is(err, logstore.ErrLevelsNotObject) {
				HttpError(w, err.Error(), http.StatusBadRequest, logger)
				return
			}
			logger.Error("Error encountered when updating logging settings", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}

		metadata := bls.Metadata()
		metadata.Settings = settings
		err = json.NewEncoder(w).Encode(toSettingsResponseDTO(metadata))
		if err != nil {
			logger.Error("Error encountered when encoding response", zap.Error(err))
			HttpError(w, "Internal server error", http.StatusInternalServerError, logger)
			return
		}
	}
}
