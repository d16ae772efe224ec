package logstore

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeSettings(t *testing.T) {
	t.Run("should uppercase and trim level names", func(t *testing.T) {
		normalized := NormalizeSettings(Settings{Level: " debug ", ConsoleLevel: "error"})
		assert.Equal(t, DebugLevel, normalized.Level)
		assert.Equal(t, ErrorLevel, normalized.ConsoleLevel)
	})

	t.Run("should fall back to the default levels when empty", func(t *testing.T) {
		normalized := NormalizeSettings(Settings{})
		assert.Equal(t, DefaultFileLevel, normalized.Level)
		assert.Equal(t, DefaultConsoleLevel, normalized.ConsoleLevel)
		assert.Equal(t, int64(DefaultMaxBytes), normalized.MaxBytes)
	})

	t.Run("should keep unrecognized level names uppercased", func(t *testing.T) {
		normalized := NormalizeSettings(Settings{Level: "verbose"})
		assert.Equal(t, Level("VERBOSE"), normalized.Level)
	})

	t.Run("should normalize override values with the base level as fallback", func(t *testing.T) {
		normalized := NormalizeSettings(Settings{
			Level: "error",
			Levels: map[string]Level{
				"pco":                   "",
				"wirelessboard.device": "debug",
			},
		})
		assert.Equal(t, ErrorLevel, normalized.Levels["pco"])
		assert.Equal(t, DebugLevel, normalized.Levels["wirelessboard.device"])
	})

	t.Run("should replace out-of-range rotation bounds", func(t *testing.T) {
		normalized := NormalizeSettings(Settings{MaxBytes: -1, Backups: -2})
		assert.Equal(t, int64(DefaultMaxBytes), normalized.MaxBytes)
		assert.Equal(t, DefaultBackups, normalized.Backups)
	})
}

func TestMergeSettings(t *testing.T) {
	current := Settings{
		Level:        InfoLevel,
		ConsoleLevel: WarningLevel,
		Levels:       map[string]Level{"pco": DebugLevel},
		MaxBytes:     1024 * 1024,
		Backups:      3,
	}

	t.Run("should keep current values for an empty patch", func(t *testing.T) {
		merged, err := MergeSettings(current, SettingsPatch{})
		assert.Nil(t, err)
		assert.Equal(t, current, merged)
	})

	t.Run("should apply scalar fields and normalize them", func(t *testing.T) {
		level := "debug"
		maxBytes := int64(5 * 1024 * 1024)
		merged, err := MergeSettings(current, SettingsPatch{Level: &level, MaxBytes: &maxBytes})
		assert.Nil(t, err)
		assert.Equal(t, DebugLevel, merged.Level)
		assert.Equal(t, WarningLevel, merged.ConsoleLevel)
		assert.Equal(t, maxBytes, merged.MaxBytes)
		assert.Equal(t, 3, merged.Backups)
	})

	t.Run("should replace overrides wholesale when levels is an object", func(t *testing.T) {
		merged, err := MergeSettings(current, SettingsPatch{Levels: json.RawMessage(`{"device":"error"}`)})
		assert.Nil(t, err)
		assert.Equal(t, map[string]Level{"device": ErrorLevel}, merged.Levels)
	})

	t.Run("should clear overrides when levels is null", func(t *testing.T) {
		merged, err := MergeSettings(current, SettingsPatch{Levels: json.RawMessage(`null`)})
		assert.Nil(t, err)
		assert.Empty(t, merged.Levels)
	})

	t.Run("should reject a levels value that is not an object", func(t *testing.T) {
		_, err := MergeSettings(current, SettingsPatch{Levels: json.RawMessage(`["core"]`)})
		assert.ErrorIs(t, err, ErrLevelsNotObject)
	})

	t.Run("should stringify non-string override values", func(t *testing.T) {
		merged, err := MergeSettings(current, SettingsPatch{Levels: json.RawMessage(`{"core": 10, "web": null}`)})
		assert.Nil(t, err)
		assert.Equal(t, Level("10"), merged.Levels["core"])
		assert.Equal(t, InfoLevel, merged.Levels["web"])
	})

	t.Run("should not mutate the current settings", func(t *testing.T) {
		level := "critical"
		_, err := MergeSettings(current, SettingsPatch{
			Level:  &level,
			Levels: json.RawMessage(`{"slot":"debug"}`),
		})
		assert.Nil(t, err)
		assert.Equal(t, InfoLevel, current.Level)
		assert.Equal(t, map[string]Level{"pco": DebugLevel}, current.Levels)
	})
}

func TestEffectiveLevel(t *testing.T) {
	settings := Settings{
		Level: InfoLevel,
		Levels: map[string]Level{
			"wirelessboard.device": DebugLevel,
			"device":               ErrorLevel,
			"pco":                  WarningLevel,
		},
	}

	t.Run("should prefer an override by full logger name", func(t *testing.T) {
		assert.Equal(t, DebugLevel, settings.EffectiveLevel("wirelessboard.device"))
	})

	t.Run("should fall back to an override by source tag", func(t *testing.T) {
		assert.Equal(t, WarningLevel, settings.EffectiveLevel("wirelessboard.pco"))
	})

	t.Run("should use the base level without an override", func(t *testing.T) {
		assert.Equal(t, InfoLevel, settings.EffectiveLevel("wirelessboard.core"))
	})
}
