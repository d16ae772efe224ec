package handler

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// ErrorMessage is the body of every failed request. Error carries text fit
// for a status line; clients show it verbatim.
type ErrorMessage struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}

func HttpError(w http.ResponseWriter, message string, statusCode int, logger *zap.Logger) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	err := json.NewEncoder(w).Encode(ErrorMessage{OK: false, Error: message})
	if err != nil {
		logger.Error("Failed to encode error message", zap.Error(err))
	}
}
