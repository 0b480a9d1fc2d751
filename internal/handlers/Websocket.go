package handlers

import (
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/kindlyrobotics/huddle/internal/signaling"
)

// ServeWs upgrades the HTTP connection to a websocket and hands it to the
// hub. Browsers do not apply CORS to websocket upgrades, so the allowlist is
// enforced here on the Origin header; requests without one (non-browser
// clients) are allowed. The connection joins a room only once it sends a
// join-room frame.
func ServeWs(hub *signaling.Hub, allowedOrigins []string) http.HandlerFunc {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}

	upgrader := websocket.Upgrader{
		ReadBufferSize:  64 * 1024,
		WriteBufferSize: 64 * 1024,
		CheckOrigin: func(r *http.Request) bool {
			origin := r.Header.Get("Origin")
			return origin == "" || allowed[origin]
		},
	}

	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logrus.WithError(err).Warn("Websocket upgrade failed")
			return
		}
		hub.HandleConnection(conn)
	}
}
