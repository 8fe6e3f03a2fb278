package logger

import (
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

var (
	once sync.Once
	base zerolog.Logger
)

// Init configures the global zerolog logger exactly once.
// level is a zerolog level name ("debug", "info", ...); invalid values fall back to info.
func Init(level string) {
	once.Do(func() {
		lvl := zerolog.InfoLevel
		if parsed, err := zerolog.ParseLevel(level); err == nil && level != "" {
			lvl = parsed
		}
		zerolog.SetGlobalLevel(lvl)
		zerolog.TimeFieldFormat = time.RFC3339

		base = zerolog.New(os.Stdout).With().
			Timestamp().
			Str("service", "creatorbot").
			Logger()
	})
}

func emit(ev *zerolog.Event, msg string, extra map[string]interface{}) {
	for k, v := range extra {
		ev = ev.Interface(k, v)
	}
	ev.Msg(msg)
}

// Info logs at info level with optional structured extras.
func Info(msg string, extra map[string]interface{}) {
	emit(base.Info(), msg, extra)
}

// Warn logs at warn level with optional structured extras.
func Warn(msg string, extra map[string]interface{}) {
	emit(base.Warn(), msg, extra)
}

// Error logs at error level with optional structured extras.
func Error(msg string, extra map[string]interface{}) {
	emit(base.Error(), msg, extra)
}

// Debug logs at debug level with optional structured extras.
func Debug(msg string, extra map[string]interface{}) {
	emit(base.Debug(), msg, extra)
}
