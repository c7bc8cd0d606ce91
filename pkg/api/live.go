// Package api pkg/api/live.go
package api

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

const writeTimeout = 5 * time.Second

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Dashboards connect cross-origin; the API is already CORS-open.
	CheckOrigin: func(*http.Request) bool { return true },
}

// liveFrame is one websocket push: the status snapshot plus the alert
// table, so a dashboard needs no follow-up requests.
type liveFrame struct {
	Status any `json:"status"`
	Alerts any `json:"alerts"`
}

// serveLive upgrades to a websocket and streams snapshots until the
// client goes away.
func (s *Server) serveLive(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("Websocket upgrade failed: %v", err)
		return
	}

	defer func() {
		if err := conn.Close(); err != nil {
			log.Printf("Error closing websocket: %v", err)
		}
	}()

	// Discard client frames, but notice the close handshake.
	done := make(chan struct{})

	go func() {
		defer close(done)

		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(s.pushInterval)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case <-ticker.C:
			frame := liveFrame{
				Status: s.provider.Status(),
				Alerts: s.provider.ActiveAlerts(),
			}

			if err := conn.SetWriteDeadline(time.Now().Add(writeTimeout)); err != nil {
				return
			}

			if err := conn.WriteJSON(frame); err != nil {
				return
			}
		}
	}
}
