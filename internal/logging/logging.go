// Package logging builds the service logger and its HTTP request logger.
package logging

import (
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rollbar/rollbar-go"
	"github.com/rs/zerolog"
)

type Options struct {
	Level  string // zerolog level name; defaults to info
	Format string // json|console
	Out    io.Writer

	RollbarToken string
	RollbarEnv   string
	CodeVersion  string
}

// New returns a zerolog logger. When a Rollbar token is set, error-level
// events are also reported to Rollbar.
func New(o Options) zerolog.Logger {
	out := o.Out
	if out == nil {
		out = os.Stderr
	}
	if strings.EqualFold(o.Format, "console") {
		out = zerolog.ConsoleWriter{Out: out, TimeFormat: time.RFC3339}
	}
	level, err := zerolog.ParseLevel(strings.ToLower(o.Level))
	if err != nil || o.Level == "" {
		level = zerolog.InfoLevel
	}

	l := zerolog.New(out).Level(level).With().Timestamp().Logger()
	if o.RollbarToken != "" {
		rollbar.SetToken(o.RollbarToken)
		rollbar.SetEnvironment(o.RollbarEnv)
		if host, err := os.Hostname(); err == nil {
			rollbar.SetServerHost(host)
		}
		if o.CodeVersion != "" {
			rollbar.SetCodeVersion(o.CodeVersion)
		}
		l = l.Hook(RollbarHook{})
	}
	return l
}

// Flush waits for queued Rollbar items.
func Flush() { rollbar.Wait() }

// RollbarHook forwards error and fatal events to Rollbar.
type RollbarHook struct{}

func (RollbarHook) Run(_ *zerolog.Event, level zerolog.Level, msg string) {
	switch level {
	case zerolog.ErrorLevel:
		rollbar.Error(msg)
	case zerolog.FatalLevel, zerolog.PanicLevel:
		rollbar.Critical(msg)
	}
}

// RequestLogger is chi's request logging middleware writing through l.
func RequestLogger(l zerolog.Logger) func(http.Handler) http.Handler {
	return middleware.RequestLogger(&formatter{l: l})
}

type formatter struct {
	l zerolog.Logger
}

func (f *formatter) NewLogEntry(r *http.Request) middleware.LogEntry {
	l := f.l.With().
		Str("request_id", middleware.GetReqID(r.Context())).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Str("remote", r.RemoteAddr).
		Logger()
	return &entry{l: l}
}

type entry struct {
	l zerolog.Logger
}

func (e *entry) Write(status, bytes int, _ http.Header, elapsed time.Duration, _ interface{}) {
	ev := e.l.Info()
	switch {
	case status >= 500:
		ev = e.l.Error()
	case status >= 400:
		ev = e.l.Warn()
	}
	ev.Int("status", status).
		Int("bytes", bytes).
		Dur("elapsed", elapsed).
		Msg("request")
}

func (e *entry) Panic(v interface{}, stack []byte) {
	e.l.Error().
		Interface("panic", v).
		Bytes("stack", stack).
		Msg("request panicked")
}
