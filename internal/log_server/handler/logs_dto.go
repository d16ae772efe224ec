package handler

// LogEntryDTO represents one served log line
// @swagger:model LogEntryDTO
type LogEntryDTO struct {
	// The append index of the line within the store
	Index int64 `json:"index"`
	// The pagination cursor of the line, equal to its index
	Cursor string `json:"cursor"`
	// The timestamp in RFC3339 form
	Ts      string `json:"ts"`
	Level   string `json:"level"`
	Logger  string `json:"logger"`
	Source  string `json:"source"`
	Message string `json:"message"`
	// Structured fields attached to the record, never null
	Context map[string]any `json:"context"`
	ExcInfo string         `json:"exc_info,omitempty"`
	Stack   string         `json:"stack,omitempty"`
}

// LogsResponseDTO represents the response to a page request
// @swagger:model LogsResponseDTO
type LogsResponseDTO struct {
	OK bool `json:"ok"`
	// The served page, never null
	Entries []LogEntryDTO `json:"entries"`
	// The cursor to continue paging from, null when the page was empty
	Cursor  *string `json:"cursor"`
	HasMore bool    `json:"has_more"`
	// The level names the store filters on, in ascending severity order
	Levels []string `json:"levels"`
	// The source tags the store filters on
	Sources []string    `json:"sources"`
	Logging SettingsDTO `json:"logging"`
}

// SettingsDTO represents the board's logging settings
// @swagger:model SettingsDTO
type SettingsDTO struct {
	Level        string            `json:"level"`
	ConsoleLevel string            `json:"console_level"`
	Levels       map[string]string `json:"levels"`
	MaxBytes     int64             `json:"max_bytes"`
	Backups      int               `json:"backups"`
}

// SettingsResponseDTO represents the response of the settings endpoint
// @swagger:model SettingsResponseDTO
type SettingsResponseDTO struct {
	OK      bool        `json:"ok"`
	Levels  []string    `json:"levels"`
	Sources []string    `json:"sources"`
	Logging SettingsDTO `json:"logging"`
}

// PurgeResponseDTO acknowledges a purge
// @swagger:model PurgeResponseDTO
type PurgeResponseDTO struct {
	OK bool `json:"ok"`
}
