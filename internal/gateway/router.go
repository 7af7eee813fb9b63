package gateway

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/talkincode/botgate/internal/domain"
	"github.com/talkincode/botgate/internal/transport"
)

// runSession is the per-session event loop bridging transport callbacks
// to log mutation and observer broadcast. Each event runs its full
// reaction before the next is consumed, so inbound processing and
// command-triggered sends for one session never interleave. The loop
// ends when the conn is destroyed and its event channel closes.
func (r *Registry) runSession(s *Session, conn transport.Conn) {
	for evt := range conn.Events() {
		switch evt.Kind {
		case transport.EventStatus:
			r.handleStatus(s, evt)
		case transport.EventMessage:
			r.handleMessage(s, evt)
		}
	}
}

func (r *Registry) handleStatus(s *Session, evt transport.Event) {
	s.setStatus(evt.Status, evt.QRCode)
	r.persistAccount(s)
	r.bus.Publish(TopicStatus, domain.StatusEvent{
		SessionID: s.ID,
		Status:    evt.Status,
		QRCode:    evt.QRCode,
	})

	switch evt.Status {
	case domain.StatusAwaitingScan:
		r.OperLog("info", fmt.Sprintf("Session %s: QR code generated. Please scan with the messaging app.", s.ID))
	case domain.StatusConnected:
		r.OperLog("success", fmt.Sprintf("Session %s is ready and connected!", s.ID))
	case domain.StatusDisconnected:
		r.OperLog("warning", fmt.Sprintf("Session %s disconnected. Please reconnect.", s.ID))
	}
	zap.L().Info("gateway: status changed",
		zap.String("session", s.ID), zap.String("status", string(evt.Status)))
}

func (r *Registry) handleMessage(s *Session, evt transport.Event) {
	// Never react to the account's own outbound messages; the sent side
	// is recorded once, by RecordOutbound.
	if evt.FromSelf {
		return
	}
	if self := s.Conn().SelfID(); self != "" && evt.From == self {
		return
	}

	entry := s.appendLog(domain.DirectionReceived, evt.From, evt.Body)
	r.bus.Publish(TopicLogEntry, entry)
	zap.L().Debug("gateway: message received",
		zap.String("session", s.ID), zap.String("from", evt.From))

	if r.handler != nil {
		r.handler(context.Background(), s, entry)
	}
}
