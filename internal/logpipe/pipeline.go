package logpipe

import (
	"io"

	"github.com/willcgage/wirelessboard/internal/logstore"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Pipeline owns the process loggers: a console core gated by the console
// level and a file core writing store records through the shared appender.
// Both sit behind the per-logger level gate, so a settings change re-levels
// every output at once.
type Pipeline struct {
	appender *logstore.Appender
	levels   *sourceLevels
	console  zap.AtomicLevel
	root     *zap.Logger
}

func NewPipeline(appender *logstore.Appender, settings logstore.Settings, console io.Writer) *Pipeline {
	settings = logstore.NormalizeSettings(settings)
	levels := newSourceLevels(settings)
	consoleLevel := zap.NewAtomicLevelAt(zapLevel(settings.ConsoleLevel))

	consoleCore := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(console),
		consoleLevel,
	)
	core := zapcore.NewTee(
		&gatedCore{Core: consoleCore, levels: levels},
		&gatedCore{Core: &fileCore{appender: appender}, levels: levels},
	)

	return &Pipeline{
		appender: appender,
		levels:   levels,
		console:  consoleLevel,
		root:     zap.New(core, zap.AddStacktrace(zapcore.ErrorLevel)),
	}
}

// Source returns the logger for one namespace source tag, e.g. Source("pco")
// logs as wirelessboard.pco with source pco.
func (p *Pipeline) Source(tag string) *zap.Logger {
	return p.root.Named(logstore.Namespace + "." + tag)
}

// Root returns the unnamed logger. Entries carry no source and are gated by
// the base level.
func (p *Pipeline) Root() *zap.Logger {
	return p.root
}

// Apply re-levels every output and adjusts the rotation bounds. Settings are
// normalized first, so it accepts whatever a merge produced.
func (p *Pipeline) Apply(settings logstore.Settings) {
	settings = logstore.NormalizeSettings(settings)
	p.levels.apply(settings)
	p.console.SetLevel(zapLevel(settings.ConsoleLevel))
	p.appender.Configure(settings)
}

func (p *Pipeline) Sync() error {
	return p.root.Sync()
}
