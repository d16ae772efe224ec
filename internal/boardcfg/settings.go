package boardcfg

import (
	"fmt"
	"sync"

	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
)

// SettingsApplier receives normalized logging settings when they change.
type SettingsApplier interface {
	Apply(settings logstore.Settings)
}

// SettingsManager is the single writer for logging settings: it merges
// patches over the current value, persists the result, and pushes it into
// the live pipeline.
type SettingsManager struct {
	mu      sync.Mutex
	config  *Config
	applier SettingsApplier
	logger  *zap.Logger
	current logstore.Settings
}

func NewSettingsManager(config *Config, applier SettingsApplier, logger *zap.Logger) *SettingsManager {
	return &SettingsManager{
		config:  config,
		applier: applier,
		logger:  logger,
		current: config.LoggingSettings(),
	}
}

// Current returns a copy of the active settings.
func (m *SettingsManager) Current() logstore.Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current.Clone()
}

// Update merges patch over the current settings, persists and applies the
// result. Validation failures leave everything untouched.
func (m *SettingsManager) Update(patch logstore.SettingsPatch) (logstore.Settings, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	merged, err := logstore.MergeSettings(m.current, patch)
	if err != nil {
		return logstore.Settings{}, err
	}
	if err := m.config.SaveLoggingSettings(merged); err != nil {
		return logstore.Settings{}, fmt.Errorf("failed to persist logging settings: %w", err)
	}
	m.current = merged
	m.applier.Apply(merged)
	m.logger.Info("Logging configuration updated",
		zap.String("level", string(merged.Level)),
		zap.String("console_level", string(merged.ConsoleLevel)),
	)
	return merged.Clone(), nil
}
