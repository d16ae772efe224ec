package logpipe

import (
	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// sourceLevels holds one atomic level per registered namespace logger plus a
// base level for everything else. Lookups never mutate the map, so it is
// safe to share across cores.
type sourceLevels struct {
	base      zap.AtomicLevel
	overrides map[string]zap.AtomicLevel
}

func newSourceLevels(settings logstore.Settings) *sourceLevels {
	levels := &sourceLevels{
		base:      zap.NewAtomicLevelAt(zapLevel(settings.Level)),
		overrides: make(map[string]zap.AtomicLevel),
	}
	for _, name := range logstore.LoggerNames() {
		levels.overrides[name] = zap.NewAtomicLevelAt(zapLevel(settings.EffectiveLevel(name)))
	}
	return levels
}

func (s *sourceLevels) enabled(loggerName string, lvl zapcore.Level) bool {
	if atomic, ok := s.overrides[loggerName]; ok {
		return atomic.Enabled(lvl)
	}
	return s.base.Enabled(lvl)
}

func (s *sourceLevels) apply(settings logstore.Settings) {
	s.base.SetLevel(zapLevel(settings.Level))
	for name, atomic := range s.overrides {
		atomic.SetLevel(zapLevel(settings.EffectiveLevel(name)))
	}
}

// zapLevel maps a store level name onto the zap scale. CRITICAL rides on
// DPanic so it ranks above ERROR without aborting the process.
func zapLevel(level logstore.Level) zapcore.Level {
	switch logstore.NormalizeLevel(string(level), logstore.DebugLevel) {
	case logstore.InfoLevel:
		return zapcore.InfoLevel
	case logstore.WarningLevel:
		return zapcore.WarnLevel
	case logstore.ErrorLevel:
		return zapcore.ErrorLevel
	case logstore.CriticalLevel:
		return zapcore.DPanicLevel
	default:
		return zapcore.DebugLevel
	}
}

func levelName(lvl zapcore.Level) logstore.Level {
	switch {
	case lvl >= zapcore.DPanicLevel:
		return logstore.CriticalLevel
	case lvl == zapcore.ErrorLevel:
		return logstore.ErrorLevel
	case lvl == zapcore.WarnLevel:
		return logstore.WarningLevel
	case lvl == zapcore.InfoLevel:
		return logstore.InfoLevel
	default:
		return logstore.DebugLevel
	}
}
