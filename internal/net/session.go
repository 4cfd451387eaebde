package net

import (
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

// sessionConn is the slice of *websocket.Conn the hub depends on; tests
// substitute a recording implementation.
type sessionConn interface {
	WriteMessage(messageType int, data []byte) error
	SetWriteDeadline(t time.Time) error
	Close() error
}

// Session serializes writes to one connection. gorilla/websocket allows a
// single concurrent writer, and both the room broadcast and the read loop's
// acks write here.
type Session struct {
	id   string
	conn sessionConn

	writeMu sync.Mutex

	mu            sync.Mutex
	lastHeartbeat time.Time
	lastRTT       time.Duration
}

func newSession(id string, conn sessionConn) *Session {
	return &Session{id: id, conn: conn, lastHeartbeat: time.Now()}
}

// ID returns the connection identifier assigned at upgrade time.
func (s *Session) ID() string { return s.id }

// Write sends one text frame under the write deadline.
func (s *Session) Write(data []byte) error {
	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// Close tears down the underlying connection.
func (s *Session) Close() {
	s.conn.Close()
}

// Touch records a heartbeat arrival and derives the round-trip time from the
// client-reported send timestamp, when plausible.
func (s *Session) Touch(receivedAt time.Time, clientSent int64) time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastHeartbeat = receivedAt
	if clientSent > 0 {
		clientTime := time.UnixMilli(clientSent)
		if clientTime.Before(receivedAt.Add(5 * time.Second)) {
			rtt := receivedAt.Sub(clientTime)
			if rtt < 0 {
				rtt = 0
			}
			s.lastRTT = rtt
		}
	}
	return s.lastRTT
}

// LastHeartbeat reports when the connection last proved liveness.
func (s *Session) LastHeartbeat() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastHeartbeat
}

// LastRTT reports the most recent round-trip measurement.
func (s *Session) LastRTT() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRTT
}
