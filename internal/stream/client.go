package stream

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mcoot/moonfall/internal/model"
)

const (
	// Time allowed to write a message to the peer
	writeWait = 10 * time.Second

	// Time between keepalive pings
	pingPeriod = 30 * time.Second

	// Time allowed to read the next pong from a WebSocket peer
	pongWait = 60 * time.Second

	// Buffer size for outgoing messages
	sendBufferSize = 64
)

// Client is one connected stream subscriber
type Client struct {
	hub         *Hub
	playerID    model.PlayerID
	transport   string
	send        chan []model.Event
	connectedAt time.Time
}

// NewClient creates a new stream client. An empty playerID is an anonymous
// viewer who only sees public events.
func NewClient(hub *Hub, playerID model.PlayerID, transport string) *Client {
	return &Client{
		hub:         hub,
		playerID:    playerID,
		transport:   transport,
		send:        make(chan []model.Event, sendBufferSize),
		connectedAt: time.Now(),
	}
}

// ServeSSE streams a game's events to the client as server-sent events.
// Backlog holds events missed since the client's Last-Event-ID and is
// written before live events.
func ServeSSE(w http.ResponseWriter, r *http.Request, hub *Hub, playerID model.PlayerID, backlog []model.Event) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := NewClient(hub, playerID, "sse")
	hub.Register(client)
	defer hub.Unregister(client)

	_, _ = w.Write(formatSSEMessage("connected", "", `{"status":"connected"}`))
	lastSeq := int64(0)
	for _, e := range backlog {
		if err := writeSSEEvent(w, e); err != nil {
			return
		}
		lastSeq = e.Seq
	}
	flusher.Flush()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case events, ok := <-client.send:
			if !ok {
				return
			}
			for _, e := range events {
				// Live events may overlap the backlog
				if e.Seq <= lastSeq {
					continue
				}
				if err := writeSSEEvent(w, e); err != nil {
					return
				}
				lastSeq = e.Seq
			}
			flusher.Flush()

		case <-ticker.C:
			if _, err := w.Write([]byte(": keepalive\n\n")); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}

func writeSSEEvent(w http.ResponseWriter, e model.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	_, err = w.Write(formatSSEMessage(string(e.Type), strconv.FormatInt(e.Seq, 10), string(data)))
	return err
}

// LastEventID reads the resume point of a reconnecting client from the
// Last-Event-ID header or the after query parameter
func LastEventID(r *http.Request) int64 {
	raw := r.Header.Get("Last-Event-ID")
	if raw == "" {
		raw = r.URL.Query().Get("after")
	}
	seq, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || seq < 0 {
		return 0
	}
	return seq
}

// formatSSEMessage formats an SSE message with event name, optional id and data.
// Multi-line data is properly formatted with "data: " prefix on each line
func formatSSEMessage(eventName, id, data string) []byte {
	var b strings.Builder
	b.WriteString("event: " + eventName + "\n")
	if id != "" {
		b.WriteString("id: " + id + "\n")
	}
	for _, line := range splitLines(data) {
		b.WriteString("data: " + line + "\n")
	}
	b.WriteString("\n")
	return []byte(b.String())
}

// splitLines splits a string into lines, handling various line endings
func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r", "")
	s = strings.TrimSuffix(s, "\n")
	return strings.Split(s, "\n")
}
