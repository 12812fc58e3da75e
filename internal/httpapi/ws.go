package httpapi

import (
	"log"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/fabiogreco/duet/internal/realtime"
)

const (
	wsReadLimit    = 1 << 20
	wsPongWait     = 120 * time.Second
	wsPingInterval = 30 * time.Second
)

// handleWS upgrades an authenticated client to its persistent event channel
// and installs it in the registry. The channel is push-only: inbound frames
// other than control messages are ignored.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	userID, err := s.tokens.UserFromRequest(r)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "unauthorized", "missing or invalid session")
		return
	}

	sock, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}

	conn := realtime.NewWSConn(sock)
	s.registry.Register(userID, conn)
	s.metrics.ConnectionEvents.WithLabelValues("connected").Inc()

	pingDone := make(chan struct{})
	go func() {
		ticker := time.NewTicker(wsPingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-pingDone:
				return
			case <-ticker.C:
				// WriteControl is safe alongside the registry's JSON writes.
				if err := sock.WriteControl(websocket.PingMessage, nil, time.Now().Add(10*time.Second)); err != nil {
					return
				}
			}
		}
	}()

	sock.SetReadLimit(wsReadLimit)
	_ = sock.SetReadDeadline(time.Now().Add(wsPongWait))
	sock.SetPongHandler(func(string) error {
		_ = sock.SetReadDeadline(time.Now().Add(wsPongWait))
		return nil
	})

	for {
		if _, _, err := sock.ReadMessage(); err != nil {
			break
		}
	}

	close(pingDone)
	s.registry.Unregister(userID, conn)
	_ = conn.Close()
	s.metrics.ConnectionEvents.WithLabelValues("disconnected").Inc()
	log.Printf("httpapi: websocket closed for user %s", userID)
}
