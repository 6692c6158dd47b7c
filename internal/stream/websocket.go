package stream

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/mcoot/moonfall/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origin checks are left to the CORS middleware
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWS upgrades the request and streams events as one JSON text message
// per event. Clients only read; anything they send is discarded.
func ServeWS(w http.ResponseWriter, r *http.Request, hub *Hub, playerID model.PlayerID, backlog []model.Event, logger *slog.Logger) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response
		logger.Debug("websocket upgrade failed", slog.String("error", err.Error()))
		return
	}
	defer conn.Close()

	client := NewClient(hub, playerID, "websocket")
	hub.Register(client)
	defer hub.Unregister(client)

	closed := make(chan struct{})
	go readPump(conn, closed)

	lastSeq := int64(0)
	for _, e := range backlog {
		if err := writeJSON(conn, e); err != nil {
			return
		}
		lastSeq = e.Seq
	}

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case events, ok := <-client.send:
			if !ok {
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "game closed"))
				return
			}
			for _, e := range events {
				if e.Seq <= lastSeq {
					continue
				}
				if err := writeJSON(conn, e); err != nil {
					return
				}
				lastSeq = e.Seq
			}

		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}

		case <-closed:
			return

		case <-r.Context().Done():
			return
		}
	}
}

func writeJSON(conn *websocket.Conn, e model.Event) error {
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(e)
}

// readPump drains the connection so control frames are processed and
// signals when the peer goes away
func readPump(conn *websocket.Conn, closed chan<- struct{}) {
	defer close(closed)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}
