// Package transport defines the opaque account-connection capability used
// by the gateway core. A Conn knows how to connect, send a text message,
// and tear itself down; everything that happens on the wire is reported
// back as Events on a channel the event router consumes.
package transport

import (
	"context"
	"time"

	"github.com/talkincode/botgate/internal/domain"
)

// EventKind discriminates transport events.
type EventKind int

const (
	EventStatus EventKind = iota
	EventMessage
)

// Event is one transport-level occurrence: either a status change
// (possibly carrying a pairing QR code) or an inbound message.
type Event struct {
	Kind      EventKind
	Status    domain.SessionStatus
	QRCode    string
	From      string
	Body      string
	FromSelf  bool
	Timestamp time.Time
}

// Conn is the capability handle for a single account connection. It is
// exclusively owned by one Session; the gateway never shares a Conn.
type Conn interface {
	// Connect initiates the login sequence. It returns once the attempt is
	// under way; progress is reported via Events, not the return value.
	Connect(ctx context.Context) error
	// Send delivers one text message to the given address.
	Send(ctx context.Context, to string, body string) error
	// Destroy disconnects and releases all transport resources.
	Destroy() error
	// SelfID returns the account's own address once known, else "".
	SelfID() string
	// Events returns the event stream. The channel is closed by Destroy.
	Events() <-chan Event
}

// Dialer creates a Conn for a session id. Injected into the registry so
// tests can substitute an in-memory transport.
type Dialer func(sessionID string) (Conn, error)
