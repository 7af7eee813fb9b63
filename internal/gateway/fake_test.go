package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/talkincode/botgate/internal/domain"
	"github.com/talkincode/botgate/internal/transport"
)

type sentMessage struct {
	To   string
	Body string
}

// fakeConn is an in-memory transport.Conn. Connect reports connected
// right away unless manual is set; inbound traffic is injected with
// pushMessage.
type fakeConn struct {
	id     string
	manual bool

	mu        sync.Mutex
	self      string
	sent      []sentMessage
	failTo    map[string]bool
	destroyed bool
	events    chan transport.Event
}

func newFakeConn(id string, manual bool) *fakeConn {
	return &fakeConn{
		id:     id,
		manual: manual,
		failTo: make(map[string]bool),
		events: make(chan transport.Event, 32),
	}
}

func (c *fakeConn) Connect(ctx context.Context) error {
	if !c.manual {
		c.pushStatus(domain.StatusConnected, "")
	}
	return nil
}

func (c *fakeConn) Send(ctx context.Context, to, body string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return fmt.Errorf("conn destroyed")
	}
	if c.failTo[to] {
		return fmt.Errorf("send to %s refused", to)
	}
	c.sent = append(c.sent, sentMessage{To: to, Body: body})
	return nil
}

func (c *fakeConn) Destroy() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.destroyed {
		return nil
	}
	c.destroyed = true
	close(c.events)
	return nil
}

func (c *fakeConn) SelfID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.self
}

func (c *fakeConn) Events() <-chan transport.Event { return c.events }

func (c *fakeConn) setSelf(self string) {
	c.mu.Lock()
	c.self = self
	c.mu.Unlock()
}

func (c *fakeConn) refuse(to string) {
	c.mu.Lock()
	c.failTo[to] = true
	c.mu.Unlock()
}

func (c *fakeConn) isDestroyed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.destroyed
}

func (c *fakeConn) pushStatus(status domain.SessionStatus, qr string) {
	c.events <- transport.Event{Kind: transport.EventStatus, Status: status, QRCode: qr}
}

func (c *fakeConn) pushMessage(from, body string) {
	c.events <- transport.Event{
		Kind:      transport.EventMessage,
		From:      from,
		Body:      body,
		Timestamp: time.Now(),
	}
}

func (c *fakeConn) pushSelfMessage(from, body string) {
	c.events <- transport.Event{
		Kind:      transport.EventMessage,
		From:      from,
		Body:      body,
		FromSelf:  true,
		Timestamp: time.Now(),
	}
}

func (c *fakeConn) sentMessages() []sentMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentMessage, len(c.sent))
	copy(out, c.sent)
	return out
}

// fakeDialer hands out fakeConns and remembers every conn it created per
// session id, so tests can reach the live conn behind a session.
type fakeDialer struct {
	mu     sync.Mutex
	manual bool
	fail   bool
	conns  map[string][]*fakeConn
}

func newFakeDialer() *fakeDialer {
	return &fakeDialer{conns: make(map[string][]*fakeConn)}
}

func (d *fakeDialer) dial(id string) (transport.Conn, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.fail {
		return nil, fmt.Errorf("dial refused")
	}
	c := newFakeConn(id, d.manual)
	d.conns[id] = append(d.conns[id], c)
	return c, nil
}

func (d *fakeDialer) latest(id string) *fakeConn {
	d.mu.Lock()
	defer d.mu.Unlock()
	list := d.conns[id]
	if len(list) == 0 {
		return nil
	}
	return list[len(list)-1]
}

func (d *fakeDialer) dialCount(id string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.conns[id])
}
