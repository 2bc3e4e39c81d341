package e2e

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"llamabridge/internal/bridge"
	"llamabridge/internal/httpapi"
	"llamabridge/internal/registry"
	"llamabridge/pkg/types"
)

// scriptEngine is an in-memory engine. When gate is set every streamed token
// and every blocking generation waits for a receive (or Stop).
type scriptEngine struct {
	tokens []string
	pos    int

	mu   sync.Mutex
	gate chan struct{}
	stop chan struct{}
}

func newScriptEngine(tokens ...string) *scriptEngine {
	return &scriptEngine{tokens: tokens, stop: make(chan struct{})}
}

func (e *scriptEngine) Init(string, bridge.LoadConfig) error { return nil }

func (e *scriptEngine) wait() bool {
	e.mu.Lock()
	gate, stop := e.gate, e.stop
	e.mu.Unlock()
	if gate == nil {
		return true
	}
	select {
	case <-gate:
		return true
	case <-stop:
		return false
	}
}

func (e *scriptEngine) Generate(prompt string, _ bridge.GenerationConfig) (bridge.Completion, error) {
	e.reset()
	if !e.wait() {
		return bridge.Completion{}, nil
	}
	return bridge.Completion{Text: strings.Join(e.tokens, ""), Tokens: len(e.tokens)}, nil
}

func (e *scriptEngine) StreamInit(string, bridge.GenerationConfig) error {
	e.reset()
	e.pos = 0
	return nil
}

func (e *scriptEngine) StreamNext() (string, bool, error) {
	if e.pos >= len(e.tokens) || !e.wait() {
		return "", false, nil
	}
	e.pos++
	return e.tokens[e.pos-1], true, nil
}

func (e *scriptEngine) StreamEnd() {}

func (e *scriptEngine) Info() (bridge.NativeInfo, bool) {
	return bridge.NativeInfo{ParamCount: 1100048384, LayerCount: 22, ContextSize: 2048}, true
}

func (e *scriptEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
	default:
		close(e.stop)
	}
}

func (e *scriptEngine) Free() {}

func (e *scriptEngine) reset() {
	e.mu.Lock()
	defer e.mu.Unlock()
	select {
	case <-e.stop:
		e.stop = make(chan struct{})
	default:
	}
}

// createTempModelsDir creates a temporary directory populated with empty .gguf files
// and returns the directory path and the list of model IDs (filenames).
func createTempModelsDir(t *testing.T, names ...string) (string, []string) {
	t.Helper()
	dir := t.TempDir()
	for _, n := range names {
		p := filepath.Join(dir, n)
		if err := os.WriteFile(p, []byte(""), 0o644); err != nil {
			t.Fatalf("write temp model %s: %v", p, err)
		}
	}
	return dir, names
}

func newServerForDir(t *testing.T, modelsDir string, eng bridge.Engine) (*httptest.Server, *bridge.Session) {
	t.Helper()
	reg, err := registry.NewGGUFScanner().Scan(modelsDir)
	if err != nil {
		t.Fatalf("scan models: %v", err)
	}
	sess := bridge.New(bridge.Config{Engine: eng, Registry: reg})
	srv := httptest.NewServer(httpapi.NewMux(httpapi.FromSession(sess)))
	t.Cleanup(func() {
		srv.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = sess.Close(ctx)
	})
	return srv, sess
}

func httpGet(t *testing.T, url string) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodGet, url, nil)
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func httpPostJSON(t *testing.T, url string, payload []byte) (*http.Response, []byte) {
	t.Helper()
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		t.Fatalf("new req: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do req: %v", err)
	}
	body, _ := io.ReadAll(resp.Body)
	_ = resp.Body.Close()
	return resp, body
}

func getStatus(t *testing.T, base string) types.StatusResponse {
	t.Helper()
	_, body := httpGet(t, base+"/status")
	var st types.StatusResponse
	if err := json.Unmarshal(body, &st); err != nil {
		t.Fatalf("status json: %v (%s)", err, body)
	}
	return st
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, what string, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for %s", what)
		}
		time.Sleep(5 * time.Millisecond)
	}
}
