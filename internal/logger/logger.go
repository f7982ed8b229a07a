package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Environment variable name for log level configuration.
const envLogLevel = "AMF_LOG_LEVEL"

var (
	global   zerolog.Logger
	level    atomic.Int32 // holds a zerolog.Level
	initOnce sync.Once
)

// Init initializes the global logger. It is safe to call multiple times;
// the first call wins except SetLevel / UseWriter which mutate state
// intentionally.
func Init() {
	initOnce.Do(func() {
		lvl := detectLevel()
		level.Store(int32(lvl))
		zerolog.SetGlobalLevel(lvl)
		global = zerolog.New(os.Stdout).With().Timestamp().Logger()
	})
}

// detectLevel resolves the initial log level from the AMF_LOG_LEVEL
// environment variable, defaulting to info.
func detectLevel() zerolog.Level {
	if env := strings.TrimSpace(os.Getenv(envLogLevel)); env != "" {
		if lvl, ok := parseLevel(env); ok {
			return lvl
		}
	}
	return zerolog.InfoLevel
}

func parseLevel(s string) (zerolog.Level, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return zerolog.DebugLevel, true
	case "info", "":
		return zerolog.InfoLevel, true
	case "warn", "warning":
		return zerolog.WarnLevel, true
	case "error", "err":
		return zerolog.ErrorLevel, true
	}
	return 0, false
}

// SetLevel changes the runtime log level.
func SetLevel(levelName string) error {
	Init()
	lvl, ok := parseLevel(levelName)
	if !ok {
		return errInvalidLevel(levelName)
	}
	level.Store(int32(lvl))
	zerolog.SetGlobalLevel(lvl)
	return nil
}

type errInvalidLevel string

func (e errInvalidLevel) Error() string { return "invalid log level: " + string(e) }

// Level returns the current runtime level as a string.
func Level() string {
	Init()
	return zerolog.Level(level.Load()).String()
}

// UseWriter swaps the output writer (intended for tests). Retains the
// current level.
func UseWriter(w io.Writer) {
	Init()
	global = zerolog.New(w).With().Timestamp().Logger()
}

// Logger returns the global logger (ensures Init was called).
func Logger() *zerolog.Logger { Init(); return &global }

// WithSession attaches an Encoder/Parser session identity to the logger, so
// log lines from one top-level encode or parse can be correlated without
// the session ID ever touching the wire format.
func WithSession(l *zerolog.Logger, sessionID, direction string) zerolog.Logger {
	return l.With().Str("session_id", sessionID).Str("direction", direction).Logger()
}

// WithAlias attaches a class alias being resolved or registered.
func WithAlias(l *zerolog.Logger, alias string) zerolog.Logger {
	return l.With().Str("class_alias", alias).Logger()
}
