package transport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mdp/qrterminal/v3"
	"github.com/pkg/errors"
	"go.mau.fi/whatsmeow"
	waProto "go.mau.fi/whatsmeow/binary/proto"
	"go.mau.fi/whatsmeow/store/sqlstore"
	waTypes "go.mau.fi/whatsmeow/types"
	"go.mau.fi/whatsmeow/types/events"
	"go.uber.org/zap"
	"google.golang.org/protobuf/proto"

	"github.com/talkincode/botgate/config"
	"github.com/talkincode/botgate/internal/domain"
)

// whatsmeowConn adapts a whatsmeow client to the Conn capability. Each
// session owns its own sqlite-backed device store under the sessions
// root, so pairing state survives restarts per session id.
type whatsmeowConn struct {
	sessionID string
	client    *whatsmeow.Client
	events    chan Event
	printQR   bool

	mu     sync.Mutex
	closed bool
}

// NewWhatsmeowDialer returns a Dialer that provisions one whatsmeow
// client per session id, with its device store under
// <sessions_dir>/<session_id>/session.db.
func NewWhatsmeowDialer(cfg config.GatewayConfig) Dialer {
	return func(sessionID string) (Conn, error) {
		dir := filepath.Join(cfg.SessionsDir, sessionID)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.Wrap(err, "create session dir")
		}
		dbPath := filepath.Join(dir, "session.db")
		container, err := sqlstore.New(context.Background(), "sqlite3", fmt.Sprintf("file:%s?_foreign_keys=on", dbPath), nil)
		if err != nil {
			return nil, errors.Wrap(err, "open session store")
		}
		device, err := container.GetFirstDevice(context.Background())
		if err != nil {
			return nil, errors.Wrap(err, "get device store")
		}

		conn := &whatsmeowConn{
			sessionID: sessionID,
			client:    whatsmeow.NewClient(device, nil),
			events:    make(chan Event, 64),
			printQR:   cfg.PrintQR,
		}
		conn.client.AddEventHandler(conn.handleEvent)
		return conn, nil
	}
}

func (c *whatsmeowConn) emit(evt Event) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	evt.Timestamp = time.Now()
	select {
	case c.events <- evt:
	default:
		zap.L().Warn("transport: event buffer full, dropping event",
			zap.String("session", c.sessionID))
	}
}

func (c *whatsmeowConn) handleEvent(evt interface{}) {
	switch e := evt.(type) {
	case *events.Connected:
		c.emit(Event{Kind: EventStatus, Status: domain.StatusConnected})
	case *events.Disconnected:
		c.emit(Event{Kind: EventStatus, Status: domain.StatusDisconnected})
	case *events.LoggedOut:
		zap.L().Warn("transport: logged out", zap.String("session", c.sessionID))
		c.emit(Event{Kind: EventStatus, Status: domain.StatusDisconnected})
	case *events.Message:
		body := extractText(e.Message)
		if body == "" {
			return
		}
		c.emit(Event{
			Kind:     EventMessage,
			From:     e.Info.Sender.String(),
			Body:     body,
			FromSelf: e.Info.IsFromMe,
		})
	}
}

// Connect starts the login sequence. When the device has never paired,
// QR codes are forwarded as awaiting-scan status events until the scan
// is accepted; a previously authorized device reconnects directly.
func (c *whatsmeowConn) Connect(ctx context.Context) error {
	if c.client.Store.ID == nil {
		qrChan, err := c.client.GetQRChannel(ctx)
		if err != nil {
			return errors.Wrap(err, "qr channel")
		}
		go func() {
			for item := range qrChan {
				if item.Event != "code" {
					continue
				}
				if c.printQR {
					qrterminal.GenerateHalfBlock(item.Code, qrterminal.L, os.Stdout)
				}
				c.emit(Event{Kind: EventStatus, Status: domain.StatusAwaitingScan, QRCode: item.Code})
			}
		}()
	}
	return c.client.Connect()
}

func (c *whatsmeowConn) Send(ctx context.Context, to string, body string) error {
	jid, err := waTypes.ParseJID(toWireAddress(to))
	if err != nil {
		return errors.Wrapf(err, "parse jid %q", to)
	}
	_, err = c.client.SendMessage(ctx, jid, &waProto.Message{Conversation: proto.String(body)})
	return err
}

func (c *whatsmeowConn) Destroy() error {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return nil
	}
	c.closed = true
	close(c.events)
	c.mu.Unlock()

	c.client.Disconnect()
	return nil
}

func (c *whatsmeowConn) SelfID() string {
	if c.client.Store.ID == nil {
		return ""
	}
	return c.client.Store.ID.String()
}

func (c *whatsmeowConn) Events() <-chan Event {
	return c.events
}

// toWireAddress maps the gateway's canonical direct-address form onto the
// server JID form whatsmeow expects.
func toWireAddress(addr string) string {
	if strings.HasSuffix(addr, "@c.us") {
		return strings.TrimSuffix(addr, "@c.us") + "@s.whatsapp.net"
	}
	return addr
}

func extractText(msg *waProto.Message) string {
	if msg == nil {
		return ""
	}
	if conv := msg.GetConversation(); conv != "" {
		return conv
	}
	if ext := msg.GetExtendedTextMessage(); ext != nil {
		return ext.GetText()
	}
	return ""
}
