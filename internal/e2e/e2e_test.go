package e2e

import (
	"bufio"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"llamabridge/pkg/types"
)

func errorKind(t *testing.T, body []byte) string {
	t.Helper()
	var er types.ErrorResponse
	if err := json.Unmarshal(body, &er); err != nil {
		t.Fatalf("error json: %v (%s)", err, body)
	}
	return er.Kind
}

// TestE2E_LoadGenerateStreamUnload walks a model through its whole lifecycle
// over HTTP.
func TestE2E_LoadGenerateStreamUnload(t *testing.T) {
	dir, models := createTempModelsDir(t, "alpha.Q4_K_M.gguf")
	srv, _ := newServerForDir(t, dir, newScriptEngine("a", "b", "c"))

	resp, body := httpGet(t, srv.URL+"/models")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), models[0]) {
		t.Fatalf("models: %d %s", resp.StatusCode, body)
	}
	if st := getStatus(t, srv.URL); st.State != "unloaded" {
		t.Fatalf("initial state=%q", st.State)
	}

	resp, body = httpPostJSON(t, srv.URL+"/generate", []byte(`{"prompt":"hi"}`))
	if resp.StatusCode != http.StatusConflict || errorKind(t, body) != "MODEL_NOT_LOADED" {
		t.Fatalf("generate before load: %d %s", resp.StatusCode, body)
	}

	resp, body = httpPostJSON(t, srv.URL+"/load", []byte(`{"model":"`+models[0]+`","contextSize":1024}`))
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("load: %d %s", resp.StatusCode, body)
	}
	resp, _ = httpGet(t, srv.URL+"/readyz")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("readyz=%d", resp.StatusCode)
	}

	resp, body = httpGet(t, srv.URL+"/info")
	var info types.ModelInfoResponse
	if resp.StatusCode != http.StatusOK || json.Unmarshal(body, &info) != nil {
		t.Fatalf("info: %d %s", resp.StatusCode, body)
	}
	if info.ContextSize != 1024 || info.LayerCount != 22 || !strings.HasSuffix(info.ModelPath, models[0]) {
		t.Fatalf("info=%+v", info)
	}

	resp, body = httpPostJSON(t, srv.URL+"/generate", []byte(`{"prompt":"hi","maxTokens":3}`))
	var gen types.GenerateResponse
	if resp.StatusCode != http.StatusOK || json.Unmarshal(body, &gen) != nil || gen.Text != "abc" {
		t.Fatalf("generate: %d %s", resp.StatusCode, body)
	}

	// attach an NDJSON subscriber, then stream into it
	streamResp, err := http.Get(srv.URL + "/stream")
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	defer streamResp.Body.Close()
	waitFor(t, "subscriber", func() bool { return getStatus(t, srv.URL).Subscribed })

	resp, body = httpPostJSON(t, srv.URL+"/generate/stream", []byte(`{"prompt":"hi"}`))
	var sr types.StreamResponse
	if resp.StatusCode != http.StatusOK || json.Unmarshal(body, &sr) != nil {
		t.Fatalf("generate/stream: %d %s", resp.StatusCode, body)
	}
	if !sr.Success || sr.TokensGenerated != 3 || sr.Stopped {
		t.Fatalf("stream result=%+v", sr)
	}

	var tokens []string
	var done bool
	sc := bufio.NewScanner(streamResp.Body)
	for sc.Scan() {
		var ev types.StreamEvent
		if err := json.Unmarshal(sc.Bytes(), &ev); err != nil {
			t.Fatalf("ndjson line %q: %v", sc.Text(), err)
		}
		if ev.Token != "" {
			tokens = append(tokens, ev.Token)
		}
		done = done || ev.Done
	}
	if strings.Join(tokens, ",") != "a,b,c" || !done {
		t.Fatalf("tokens=%v done=%v", tokens, done)
	}

	if st := getStatus(t, srv.URL); st.State != "ready" || st.TokensTotal != 6 || st.LoadsTotal != 1 {
		t.Fatalf("status after stream=%+v", st)
	}

	resp, _ = httpPostJSON(t, srv.URL+"/unload", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("unload=%d", resp.StatusCode)
	}
	resp, _ = httpGet(t, srv.URL+"/info")
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("info after unload=%d", resp.StatusCode)
	}
}

func TestE2E_StreamWithoutSubscriber(t *testing.T) {
	dir, models := createTempModelsDir(t, "alpha.gguf")
	srv, _ := newServerForDir(t, dir, newScriptEngine("a"))
	httpPostJSON(t, srv.URL+"/load", []byte(`{"model":"`+models[0]+`"}`))

	resp, body := httpPostJSON(t, srv.URL+"/generate/stream", []byte(`{"prompt":"hi"}`))
	if resp.StatusCode != http.StatusConflict || errorKind(t, body) != "NO_EVENT_SINK" {
		t.Fatalf("got %d %s", resp.StatusCode, body)
	}
}

func TestE2E_MissingModel(t *testing.T) {
	dir, _ := createTempModelsDir(t)
	srv, _ := newServerForDir(t, dir, newScriptEngine())

	resp, body := httpPostJSON(t, srv.URL+"/load", []byte(`{"modelPath":"`+dir+`/nope.gguf"}`))
	if resp.StatusCode != http.StatusNotFound || errorKind(t, body) != "MODEL_NOT_FOUND" {
		t.Fatalf("got %d %s", resp.StatusCode, body)
	}
	resp, body = httpPostJSON(t, srv.URL+"/load", []byte(`{}`))
	if resp.StatusCode != http.StatusBadRequest || errorKind(t, body) != "INVALID_ARGS" {
		t.Fatalf("got %d %s", resp.StatusCode, body)
	}
	if st := getStatus(t, srv.URL); st.State != "unloaded" || st.LastError == "" {
		t.Fatalf("status=%+v", st)
	}
}

// TestE2E_BusyRejectsSecondGeneration holds one generation in the engine and
// checks that a second one is refused instead of queued.
func TestE2E_BusyRejectsSecondGeneration(t *testing.T) {
	dir, models := createTempModelsDir(t, "alpha.gguf")
	eng := newScriptEngine("x")
	eng.gate = make(chan struct{})
	srv, _ := newServerForDir(t, dir, eng)
	httpPostJSON(t, srv.URL+"/load", []byte(`{"model":"`+models[0]+`"}`))

	first := make(chan int, 1)
	go func() {
		resp, _ := httpPostJSON(t, srv.URL+"/generate", []byte(`{"prompt":"one"}`))
		first <- resp.StatusCode
	}()
	waitFor(t, "busy", func() bool { return getStatus(t, srv.URL).State == "busy" })

	resp, body := httpPostJSON(t, srv.URL+"/generate", []byte(`{"prompt":"two"}`))
	if resp.StatusCode != http.StatusConflict || errorKind(t, body) != "BUSY" {
		t.Fatalf("second generate: %d %s", resp.StatusCode, body)
	}

	eng.gate <- struct{}{}
	if code := <-first; code != http.StatusOK {
		t.Fatalf("first generate=%d", code)
	}
}

// TestE2E_StopOverWebSocket stops a stream from the subscriber side.
func TestE2E_StopOverWebSocket(t *testing.T) {
	dir, models := createTempModelsDir(t, "alpha.gguf")
	eng := newScriptEngine("a", "b", "c", "d", "e")
	eng.gate = make(chan struct{}, 1)
	srv, _ := newServerForDir(t, dir, eng)
	httpPostJSON(t, srv.URL+"/load", []byte(`{"model":"`+models[0]+`"}`))

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/stream/ws", nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	waitFor(t, "subscriber", func() bool { return getStatus(t, srv.URL).Subscribed })

	result := make(chan types.StreamResponse, 1)
	go func() {
		_, body := httpPostJSON(t, srv.URL+"/generate/stream", []byte(`{"prompt":"hi"}`))
		var sr types.StreamResponse
		_ = json.Unmarshal(body, &sr)
		result <- sr
	}()

	eng.gate <- struct{}{}
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	var ev types.StreamEvent
	if err := conn.ReadJSON(&ev); err != nil || ev.Token != "a" {
		t.Fatalf("first event=%+v err=%v", ev, err)
	}
	if err := conn.WriteMessage(websocket.TextMessage, []byte("stop")); err != nil {
		t.Fatalf("write stop: %v", err)
	}

	var last types.StreamEvent
	for {
		var ev types.StreamEvent
		if err := conn.ReadJSON(&ev); err != nil {
			break
		}
		last = ev
	}
	if !last.Done {
		t.Fatalf("last event=%+v", last)
	}
	sr := <-result
	if !sr.Success || !sr.Stopped || sr.TokensGenerated >= 5 {
		t.Fatalf("stream result=%+v", sr)
	}
}
