// Package logger holds the process-wide zerolog logger of the identity
// service. Init configures it once at startup; components then derive their
// own child logger with Component so every line carries "service" and
// "component" fields.
package logger

import (
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Options controls how Init builds the root logger.
type Options struct {
	// Service is stamped on every line as the "service" field.
	Service string
	// Level is the minimum level: trace, debug, info, warn, error.
	// Empty or unknown values mean info.
	Level string
	// Pretty switches to console output for local runs.
	Pretty bool
	// Output defaults to os.Stdout.
	Output io.Writer
}

var (
	mu   sync.RWMutex
	root *zerolog.Logger
)

// Init builds the root logger. Only the first call takes effect until Reset.
func Init(opts Options) zerolog.Logger {
	mu.Lock()
	defer mu.Unlock()
	if root != nil {
		return *root
	}

	zerolog.TimeFieldFormat = time.RFC3339Nano

	out := opts.Output
	if out == nil {
		out = os.Stdout
	}
	if opts.Pretty {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}

	lvl := parseLevel(opts.Level)
	zerolog.SetGlobalLevel(lvl)

	ctx := zerolog.New(out).Level(lvl).With().Timestamp()
	if opts.Service != "" {
		ctx = ctx.Str("service", opts.Service)
	}
	l := ctx.Logger()
	root = &l
	return l
}

// Get returns the root logger. It panics before Init.
func Get() zerolog.Logger {
	mu.RLock()
	defer mu.RUnlock()
	if root == nil {
		panic("logger: Get called before Init")
	}
	return *root
}

// Component returns a child of the root logger tagged with name.
func Component(name string) zerolog.Logger {
	return Get().With().Str("component", name).Logger()
}

// Reset drops the root logger so the next Init rebuilds it. Tests only.
func Reset() {
	mu.Lock()
	root = nil
	mu.Unlock()
}

func parseLevel(s string) zerolog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "trace":
		return zerolog.TraceLevel
	case "debug":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}
