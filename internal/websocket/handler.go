package websocket

import (
	"log/slog"
	"net/http"
	"net/url"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/eventory/internal/auth"
)

// HandleWebSocket returns an HTTP handler that upgrades connections to
// WebSocket and runs them as Hub clients. Only browsers on one of origins
// may connect.
func HandleWebSocket(hub *Hub, origins []string, logger *slog.Logger) http.HandlerFunc {
	patterns := originPatterns(origins)
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: patterns})
		if err != nil {
			logger.Warn("websocket accept", "error", err, "remote", r.RemoteAddr)
			return
		}
		defer conn.CloseNow()

		client := NewClient(hub, conn, auth.AdminID(r.Context()))
		client.Run(r.Context())
	}
}

// originPatterns reduces configured origins to the host patterns the
// websocket library matches the Origin header against.
func originPatterns(origins []string) []string {
	patterns := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			patterns = append(patterns, "*")
			continue
		}
		u, err := url.Parse(o)
		if err != nil || u.Host == "" {
			continue
		}
		patterns = append(patterns, u.Host)
	}
	return patterns
}
