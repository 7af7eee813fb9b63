package gateway

import (
	"sync"
	"time"

	"github.com/talkincode/botgate/internal/domain"
	"github.com/talkincode/botgate/internal/transport"
	"github.com/talkincode/botgate/pkg/common"
)

// Session is one independently authenticated messaging account: its
// connection state, its exclusively owned transport handle, and its
// append-only in-process message log.
type Session struct {
	ID string

	mu     sync.Mutex
	status domain.SessionStatus
	qrCode string
	conn   transport.Conn
	log    []domain.LogEntry
}

func newSession(id string, conn transport.Conn) *Session {
	return &Session{
		ID:     id,
		status: domain.StatusDisconnected,
		conn:   conn,
	}
}

func (s *Session) Status() domain.SessionStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// QRCode returns the pending pairing code, or "" when none is outstanding.
func (s *Session) QRCode() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.qrCode
}

func (s *Session) setStatus(status domain.SessionStatus, qrCode string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = status
	s.qrCode = qrCode
}

// Conn returns the current transport handle.
func (s *Session) Conn() transport.Conn {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn
}

// swapConn replaces the transport handle on restart, resetting status.
func (s *Session) swapConn(conn transport.Conn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn = conn
	s.status = domain.StatusDisconnected
	s.qrCode = ""
}

// appendLog records one message on the session. Entry ids are allocated
// from a process-wide monotonic source, so insertion order equals causal
// order of events within a session.
func (s *Session) appendLog(direction, counterparty, body string) domain.LogEntry {
	entry := domain.LogEntry{
		ID:           common.NextID(),
		SessionID:    s.ID,
		Direction:    direction,
		Counterparty: counterparty,
		Body:         body,
		Timestamp:    time.Now(),
	}
	s.mu.Lock()
	s.log = append(s.log, entry)
	s.mu.Unlock()
	return entry
}

// Log returns a copy of the message log in insertion order.
func (s *Session) Log() []domain.LogEntry {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]domain.LogEntry, len(s.log))
	copy(out, s.log)
	return out
}

func (s *Session) logLen() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.log)
}
