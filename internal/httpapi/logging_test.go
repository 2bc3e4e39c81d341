package httpapi

import (
	"bytes"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]LogLevel{
		"":      LevelOff,
		"off":   LevelOff,
		"error": LevelError,
		"info":  LevelInfo,
		"debug": LevelDebug,
		"weird": LevelInfo, // default
	}
	for in, want := range cases {
		if got := parseLevel(in); got != want {
			t.Fatalf("parseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestRequestLogLevel_Overrides(t *testing.T) {
	r := httptest.NewRequest("GET", "/x?log=debug", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x?log=1", nil)
	if got := requestLogLevel(r); got != LevelDebug {
		t.Fatalf("shorthand query override failed: %v", got)
	}
	r = httptest.NewRequest("GET", "/x", nil)
	r.Header.Set("X-Log-Level", "error")
	if got := requestLogLevel(r); got != LevelError {
		t.Fatalf("header override failed: %v", got)
	}
	// query wins over header
	r = httptest.NewRequest("GET", "/x?log=off", nil)
	r.Header.Set("X-Log-Level", "debug")
	if got := requestLogLevel(r); got != LevelOff {
		t.Fatalf("query should win: %v", got)
	}
}

func TestRequestLogLevel_Default(t *testing.T) {
	prev := defaultLogLevel
	defer func() { defaultLogLevel = prev }()
	SetDefaultRequestLogLevel("error")
	if got := requestLogLevel(httptest.NewRequest("GET", "/x", nil)); got != LevelError {
		t.Fatalf("default not applied: %v", got)
	}
}

func captureLogs(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := zlog
	SetLogger(zerolog.New(&buf).Level(zerolog.DebugLevel))
	t.Cleanup(func() { zlog = prev })
	return &buf
}

func TestLoggingLineWriter_SplitsLines(t *testing.T) {
	buf := captureLogs(t)

	lw := &loggingLineWriter{}
	_, _ = lw.Write([]byte("{\"token\":\"a\"}\n{\"tok"))
	_, _ = lw.Write([]byte("en\":\"b\"}\n{\"done\":true}\n"))

	out := buf.String()
	if n := strings.Count(out, `"message":"stream>"`); n != 3 {
		t.Fatalf("want 3 lines logged, got %d: %q", n, out)
	}
	if !strings.Contains(out, `"event":{"token":"b"}`) {
		t.Fatalf("missing joined line: %q", out)
	}
	if !strings.Contains(out, `"event":{"done":true}`) {
		t.Fatalf("missing last line: %q", out)
	}
}

func TestLogEnd_RespectsLevel(t *testing.T) {
	buf := captureLogs(t)
	r := httptest.NewRequest("POST", "/load", nil)

	logEnd(r, LevelOff, "load", 500, timeZero, errTest)
	if buf.Len() != 0 {
		t.Fatalf("LevelOff logged: %q", buf.String())
	}
	logEnd(r, LevelError, "load", 200, timeZero, nil)
	if buf.Len() != 0 {
		t.Fatalf("success logged at LevelError: %q", buf.String())
	}
	logEnd(r, LevelError, "load", 500, timeZero, errTest)
	if !strings.Contains(buf.String(), `"status":500`) || !strings.Contains(buf.String(), "load end") {
		t.Fatalf("failure not logged: %q", buf.String())
	}
}

var (
	timeZero = time.Now()
	errTest  = errors.New("boom")
)
