package httpapi

import (
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin:     checkOrigin,
}

// checkOrigin admits same-host origins, plus the CORS allow-list when CORS is on.
func checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	if corsEnabled {
		for _, o := range corsAllowedOrigins {
			if o == "*" || strings.EqualFold(o, origin) {
				return true
			}
		}
	}
	u, err := url.Parse(origin)
	if err != nil {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

// streamWS is /stream over a WebSocket. Each event is one JSON text message.
// A text message "stop" from the client stops the running generation.
//
// @Summary  Subscribe to stream events (WebSocket)
// @Tags     generation
// @Success  101
// @Failure  409  {object}  types.ErrorResponse
// @Router   /stream/ws [get]
func (h *handlers) streamWS(w http.ResponseWriter, r *http.Request) {
	lvl := requestLogLevel(r)
	start := time.Now()
	// subscribe first so a busy session still answers with a JSON error
	sub, err := h.svc.Subscribe()
	if err != nil {
		logEnd(r, lvl, "stream_ws", writeError(w, err), start, err)
		return
	}
	defer sub.Close()
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already replied
		logEnd(r, lvl, "stream_ws", http.StatusBadRequest, start, err)
		return
	}
	defer conn.Close()
	streamSubscribers.Inc()
	defer streamSubscribers.Dec()
	logStart(r, lvl, "stream_ws")

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			_, msg, err := conn.ReadMessage()
			if err != nil {
				return
			}
			if strings.TrimSpace(string(msg)) == "stop" {
				h.svc.Stop()
			}
		}
	}()

	ping := time.NewTicker(wsPingInterval)
	defer ping.Stop()
	for {
		select {
		case ev, ok := <-sub.Events():
			if !ok {
				msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "stream finished")
				_ = conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(wsWriteTimeout))
				logEnd(r, lvl, "stream_ws", http.StatusSwitchingProtocols, start, nil)
				return
			}
			_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ping.C:
			if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(wsWriteTimeout)); err != nil {
				return
			}
		case <-gone:
			return
		case <-serverBaseCtx.Done():
			return
		}
	}
}
