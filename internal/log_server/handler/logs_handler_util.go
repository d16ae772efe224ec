package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/willcgage/wirelessboard/internal/log_server/service/boardlog"
	"github.com/willcgage/wirelessboard/internal/logstore"
)

// parsePageParams reads the paging query parameters. Malformed values fall
// back to their defaults rather than failing the request; the log view must
// stay usable even when a hand-typed URL gets a parameter wrong.
func parsePageParams(r *http.Request) logstore.PageParams {
	query := r.URL.Query()
	params := logstore.PageParams{
		Limit:   logstore.DefaultPageLimit,
		Level:   query.Get("level"),
		Sources: query["source"],
		Search:  query.Get("search"),
	}
	if raw := query.Get("limit"); raw != "" {
		if limit, err := strconv.Atoi(raw); err == nil && limit > 0 {
			params.Limit = limit
		}
	}
	if params.Limit > logstore.MaxPageLimit {
		params.Limit = logstore.MaxPageLimit
	}
	if raw := query.Get("cursor"); raw != "" {
		if cursor, err := strconv.ParseInt(raw, 10, 64); err == nil && cursor >= 0 {
			params.Cursor = &cursor
		}
	}
	params.Newer = query.Get("newer") == "true" || query.Get("direction") == "asc"
	return params
}

func toLogsResponseDTO(page logstore.Page, metadata boardlog.Metadata) LogsResponseDTO {
	entries := make([]LogEntryDTO, len(page.Entries))
	for i, entry := range page.Entries {
		entries[i] = toLogEntryDTO(entry)
	}
	return LogsResponseDTO{
		OK:      true,
		Entries: entries,
		Cursor:  page.NextCursor,
		HasMore: page.HasMore,
		Levels:  metadata.Levels,
		Sources: metadata.Sources,
		Logging: toSettingsDTO(metadata.Settings),
	}
}

func toLogEntryDTO(entry logstore.Entry) LogEntryDTO {
	context := entry.Context
	if context == nil {
		context = map[string]any{}
	}
	ts := ""
	if !entry.Timestamp.IsZero() {
		ts = entry.Timestamp.UTC().Format(time.RFC3339Nano)
	}
	return LogEntryDTO{
		Index:   entry.Index,
		Cursor:  entry.Cursor,
		Ts:      ts,
		Level:   string(entry.Level),
		Logger:  entry.Logger,
		Source:  entry.Source,
		Message: entry.Message,
		Context: context,
		ExcInfo: entry.ExcInfo,
		Stack:   entry.Stack,
	}
}

func toSettingsDTO(settings logstore.Settings) SettingsDTO {
	levels := make(map[string]string, len(settings.Levels))
	for name, level := range settings.Levels {
		levels[name] = string(level)
	}
	return SettingsDTO{
		Level:        string(settings.Level),
		ConsoleLevel: string(settings.ConsoleLevel),
		Levels:       levels,
		MaxBytes:     settings.MaxBytes,
		Backups:      settings.Backups,
	}
}

func toSettingsResponseDTO(metadata boardlog.Metadata) SettingsResponseDTO {
	return SettingsResponseDTO{
		OK:      true,
		Levels:  metadata.Levels,
		Sources: metadata.Sources,
		Logging: toSettingsDTO(metadata.Settings),
	}
}
