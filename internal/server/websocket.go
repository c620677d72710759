package server

import (
	"log"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	"github.com/NationIndexProtocol/nation-index-sdk/pkg/swipe"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
	maxFrame   = 4096
)

// errorFrame is sent when a client frame cannot be applied.
type errorFrame struct {
	Type  string `json:"type"`
	Error string `json:"error"`
}

// snapshotFrame carries the engine state after an applied event.
type snapshotFrame struct {
	Type     string         `json:"type"`
	Snapshot swipe.Snapshot `json:"snapshot"`
}

// handleWebsocket streams snapshots to the client and applies the event frames
// it sends. Events from HTTP handlers are pushed on the same stream.
func (s *Server) handleWebsocket(c *gin.Context) {
	sess := currentSession(c)
	conn, err := s.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Printf("⚠️  websocket upgrade failed: %v", err)
		return
	}

	updates := sess.subscribe()
	errs := make(chan errorFrame, 1)
	done := make(chan struct{})

	go s.readFrames(conn, sess, errs, done)
	writeFrames(conn, sess.deck.Snapshot(), updates, errs, done)

	sess.unsubscribe(updates)
	conn.Close()
}

func (s *Server) readFrames(conn *websocket.Conn, sess *session, errs chan<- errorFrame, done chan<- struct{}) {
	defer close(done)

	conn.SetReadLimit(maxFrame)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var ev swipe.Event
		if err := conn.ReadJSON(&ev); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("⚠️  websocket read for session %s: %v", sess.deck.ID, err)
			}
			return
		}
		// Applied events reach this connection through the subscription.
		if _, _, err := sess.apply(ev); err != nil {
			select {
			case errs <- errorFrame{Type: "error", Error: err.Error()}:
			default:
			}
		}
	}
}

func writeFrames(conn *websocket.Conn, initial swipe.Snapshot, updates <-chan swipe.Snapshot, errs <-chan errorFrame, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	write := func(v interface{}) bool {
		conn.SetWriteDeadline(time.Now().Add(writeWait))
		return conn.WriteJSON(v) == nil
	}

	if !write(snapshotFrame{Type: "snapshot", Snapshot: initial}) {
		return
	}
	for {
		select {
		case snap, ok := <-updates:
			if !ok {
				conn.SetWriteDeadline(time.Now().Add(writeWait))
				conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "session closed"))
				return
			}
			if !write(snapshotFrame{Type: "snapshot", Snapshot: snap}) {
				return
			}
		case f := <-errs:
			if !write(f) {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
