package httpapi

import "time"

// maxBodyBytes controls the maximum allowed request body size for JSON endpoints.
var maxBodyBytes int64 = 1 << 20

// SetMaxBodyBytes allows configuring the maximum request body size.
func SetMaxBodyBytes(n int64) {
	if n <= 0 {
		maxBodyBytes = 1 << 20
		return
	}
	maxBodyBytes = n
}

// WebSocket subscription tuning.
var (
	wsPingInterval = 30 * time.Second
	wsWriteTimeout = 10 * time.Second
)

// SetWebSocketPingInterval sets how often idle /stream/ws connections are pinged (<=0 restores 30s).
func SetWebSocketPingInterval(d time.Duration) {
	if d <= 0 {
		d = 30 * time.Second
	}
	wsPingInterval = d
}

// CORS configuration (opt-in). If disabled, no CORS middleware is added and
// WebSocket upgrades are limited to same-origin requests.
var (
	corsEnabled        bool
	corsAllowedOrigins []string
	corsAllowedMethods []string
	corsAllowedHeaders []string
)

// SetCORSOptions configures CORS behavior for the HTTP server.
func SetCORSOptions(enabled bool, origins, methods, headers []string) {
	corsEnabled = enabled
	corsAllowedOrigins = append([]string(nil), origins...)
	corsAllowedMethods = append([]string(nil), methods...)
	corsAllowedHeaders = append([]string(nil), headers...)
}
