package testutil

import (
	"net/http"
	"net/http/httptest"
	"strings"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"
)

// StreamServer is a fake real-time data stream. It accepts one
// websocket client at a time, acknowledges the subscribe request and
// plays the configured frames, then holds the connection open until
// the server is closed.
type StreamServer struct {
	*httptest.Server
	frames [][]byte
}

// NewStreamServer creates a started stream server that will send the
// given payloads after the subscribe handshake. Payloads are typically
// trade events built with BuyTrade or SellTrade; each one is wrapped in
// the activity topic envelope the real-time stream uses.
func NewStreamServer(t interface{ Fatalf(string, ...any) }, payloads ...any) *StreamServer {
	frames := make([][]byte, 0, len(payloads))
	for _, p := range payloads {
		data, err := json.Marshal(map[string]any{
			"topic":   "activity",
			"type":    "trades",
			"payload": p,
		})
		if err != nil {
			t.Fatalf("marshal stream frame: %v", err)
		}
		frames = append(frames, data)
	}

	srv := &StreamServer{frames: frames}
	upgrader := websocket.Upgrader{}

	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		// Consume the subscribe request and acknowledge it.
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
		if err := conn.WriteMessage(websocket.TextMessage, []byte(`{"action":"subscribed"}`)); err != nil {
			return
		}

		for _, frame := range srv.frames {
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return
			}
		}

		// Hold the connection open; the client closes on shutdown.
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}))

	return srv
}

// WSURL returns the ws:// address of the server.
func (s *StreamServer) WSURL() string {
	return "ws" + strings.TrimPrefix(s.URL, "http")
}
