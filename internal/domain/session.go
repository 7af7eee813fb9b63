package domain

import "time"

// SessionStatus is the connection state of one messaging account session.
type SessionStatus string

const (
	StatusDisconnected SessionStatus = "disconnected"
	StatusAwaitingScan SessionStatus = "awaiting_scan"
	StatusConnected    SessionStatus = "connected"
)

// Message directions.
const (
	DirectionReceived = "received"
	DirectionSent     = "sent"
)

// LogEntry is one inbound or outbound message recorded on a session.
// ID is monotonically increasing within the process and is the ordering
// authority; Timestamp is display-only.
type LogEntry struct {
	ID           int64     `json:"id,string"`
	SessionID    string    `json:"session_id"`
	Direction    string    `json:"direction"`
	Counterparty string    `json:"counterparty"`
	Body         string    `json:"body"`
	Timestamp    time.Time `json:"timestamp"`
}

// SessionInfo is the read-only listing view of a session.
type SessionInfo struct {
	ID           string        `json:"id"`
	Status       SessionStatus `json:"status"`
	MessageCount int           `json:"message_count"`
}

// StatusEvent is broadcast to observers whenever a session's status
// changes. QRCode is set only while the session awaits a scan.
type StatusEvent struct {
	SessionID string        `json:"id"`
	Status    SessionStatus `json:"status"`
	QRCode    string        `json:"qr_code,omitempty"`
}

// OperLog is a structured operator-facing log event pushed to observers.
type OperLog struct {
	Level   string `json:"level"` // info, success, warning, error
	Message string `json:"message"`
}
