package httpapi

import (
	"bytes"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"
)

// zlog is the structured logger used by the HTTP layer. Silent until SetLogger.
var zlog = zerolog.Nop()

// SetLogger installs a structured logger used by the HTTP layer.
func SetLogger(l zerolog.Logger) { zlog = l.With().Str("component", "http").Logger() }

// loggingLineWriter logs complete NDJSON lines at debug level.
type loggingLineWriter struct {
	buf []byte
}

func (lw *loggingLineWriter) Write(p []byte) (int, error) {
	lw.buf = append(lw.buf, p...)
	for {
		idx := bytes.IndexByte(lw.buf, '\n')
		if idx < 0 {
			break
		}
		if idx > 0 {
			zlog.Debug().RawJSON("event", lw.buf[:idx]).Msg("stream>")
		}
		lw.buf = lw.buf[idx+1:]
	}
	return len(p), nil
}

// LogLevel controls per-request logging behavior.
type LogLevel int

const (
	LevelOff LogLevel = iota
	LevelError
	LevelInfo
	LevelDebug
)

func parseLevel(s string) LogLevel {
	switch s {
	case "off", "":
		return LevelOff
	case "error":
		return LevelError
	case "info":
		return LevelInfo
	case "debug":
		return LevelDebug
	default:
		return LevelInfo
	}
}

// global default, read once
var defaultLogLevel = parseLevel(os.Getenv("LLAMABRIDGE_HTTP_LOG"))

// SetDefaultRequestLogLevel overrides the level used when a request carries none.
func SetDefaultRequestLogLevel(s string) { defaultLogLevel = parseLevel(s) }

func requestLogLevel(r *http.Request) LogLevel {
	// Per-request overrides
	if v := r.URL.Query().Get("log"); v != "" {
		if v == "1" {
			return LevelDebug
		}
		return parseLevel(v)
	}
	if v := r.Header.Get("X-Log-Level"); v != "" {
		return parseLevel(v)
	}
	return defaultLogLevel
}

// logStart emits the opening line of an operation when lvl allows it.
func logStart(r *http.Request, lvl LogLevel, op string) {
	if lvl < LevelInfo {
		return
	}
	ev := zlog.Info().Str("path", r.URL.Path)
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg(op + " start")
}

// logEnd emits the closing line of an operation. Failures log at LevelError
// and above, successes at LevelInfo and above.
func logEnd(r *http.Request, lvl LogLevel, op string, status int, start time.Time, err error) {
	var ev *zerolog.Event
	switch {
	case err != nil && lvl >= LevelError:
		ev = zlog.Error().Err(err)
	case err == nil && lvl >= LevelInfo:
		ev = zlog.Info()
	default:
		return
	}
	ev = ev.Int("status", status).Dur("dur", time.Since(start))
	if rid := middleware.GetReqID(r.Context()); rid != "" {
		ev = ev.Str("request_id", rid)
	}
	ev.Msg(op + " end")
}
