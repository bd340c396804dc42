package infra

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// NewLogger constructs a zerolog.Logger with sane defaults for the service.
func NewLogger(appEnv string) zerolog.Logger {
	level := zerolog.InfoLevel
	if appEnv == "development" {
		level = zerolog.DebugLevel
	}

	logger := zerolog.New(os.Stdout).
		Level(level).
		With().
		Timestamp().
		Logger()

	if appEnv == "development" {
		logger = logger.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})
	}

	return logger
}

// Logger aliases the zerolog.Logger so callers outside the infra package can
// depend on the logging contract without importing the third-party module
// directly.
type Logger = zerolog.Logger

// BadgerLogger adapts a zerolog.Logger to badger's logger interface. Badger
// is chatty at info level, so its info output is demoted to debug.
type BadgerLogger struct {
	L zerolog.Logger
}

func (b BadgerLogger) Errorf(format string, args ...any) {
	b.L.Error().Msg(badgerMsg(format, args...))
}

func (b BadgerLogger) Warningf(format string, args ...any) {
	b.L.Warn().Msg(badgerMsg(format, args...))
}

func (b BadgerLogger) Infof(format string, args ...any) {
	b.L.Debug().Msg(badgerMsg(format, args...))
}

func (b BadgerLogger) Debugf(format string, args ...any) {
	b.L.Trace().Msg(badgerMsg(format, args...))
}

func badgerMsg(format string, args ...any) string {
	return "badger: " + strings.TrimSpace(fmt.Sprintf(format, args...))
}
