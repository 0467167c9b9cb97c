package ws

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// API key auth runs before the upgrade and provides access control.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handler upgrades the request and registers the client. An optional
// ?types=surface.rendered,brightness.changed query limits what is pushed.
func Handler(hub *Hub, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		types := ParseTypes(r.URL.Query().Get("types"))

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logger.Error("ws: upgrade failed", "error", err, "remote_addr", r.RemoteAddr)
			return
		}

		client := hub.NewClient(conn, types...)
		hub.greet(r.Context(), client)
		hub.Register(client)

		go client.WritePump()
		go client.ReadPump()
	}
}
