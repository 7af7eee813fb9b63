package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/asaskevich/EventBus"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/talkincode/botgate/internal/domain"
	"github.com/talkincode/botgate/internal/transport"
)

// EventBus topics published by the registry and its event router.
const (
	TopicStatus   = "gateway.status"   // domain.StatusEvent
	TopicLogEntry = "gateway.logentry" // domain.LogEntry
	TopicOperLog  = "gateway.log"      // domain.OperLog
)

// MessageHandler reacts to one inbound message. The event router invokes
// it synchronously, so one inbound reaction completes before the
// session's next event is processed.
type MessageHandler func(ctx context.Context, s *Session, entry domain.LogEntry)

// Registry is the sole owner of the id -> Session table. All lookups and
// mutations go through it; existence checks and the corresponding
// mutation happen under a single lock hold so concurrent create/delete
// calls cannot race.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	dial    transport.Dialer
	bus     EventBus.Bus
	gormDB  *gorm.DB // optional; nil disables account persistence
	suffix  string
	handler MessageHandler
}

func NewRegistry(dial transport.Dialer, bus EventBus.Bus, gdb *gorm.DB, suffix string) *Registry {
	if suffix == "" {
		suffix = DefaultCanonicalSuffix
	}
	return &Registry{
		sessions: make(map[string]*Session),
		dial:     dial,
		bus:      bus,
		gormDB:   gdb,
		suffix:   suffix,
	}
}

// SetHandler installs the inbound-message handler (the command
// dispatcher). Must be called before any session is created.
func (r *Registry) SetHandler(h MessageHandler) {
	r.handler = h
}

// Create allocates a new disconnected session and begins its connect
// sequence asynchronously; progress arrives later as status events.
func (r *Registry) Create(id string) error {
	r.mu.Lock()
	if _, ok := r.sessions[id]; ok {
		r.mu.Unlock()
		return domain.ErrDuplicateSession
	}
	conn, err := r.dial(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	s := newSession(id, conn)
	r.sessions[id] = s
	r.mu.Unlock()

	r.persistAccount(s)
	r.startSession(s, conn)
	zap.L().Info("gateway: session created", zap.String("session", id))
	return nil
}

// startSession launches the event loop and the async connect attempt for
// the given conn. Called for fresh sessions and again on restart.
func (r *Registry) startSession(s *Session, conn transport.Conn) {
	go r.runSession(s, conn)
	go func() {
		if err := conn.Connect(context.Background()); err != nil {
			zap.L().Warn("gateway: connect failed", zap.String("session", s.ID), zap.Error(err))
			r.OperLog("error", fmt.Sprintf("Session %s failed to connect: %v", s.ID, err))
		}
	}()
}

func (r *Registry) Get(id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrUnknownSession
	}
	return s, nil
}

// List returns every session with its status and message count. No
// ordering is promised to callers.
func (r *Registry) List() []domain.SessionInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.SessionInfo, 0, len(r.sessions))
	for _, s := range r.sessions {
		out = append(out, domain.SessionInfo{
			ID:           s.ID,
			Status:       s.Status(),
			MessageCount: s.logLen(),
		})
	}
	return out
}

// Delete tears down the session's transport (best-effort) and removes the
// session and its log. Removal is atomic with respect to Get/List.
func (r *Registry) Delete(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrUnknownSession
	}
	delete(r.sessions, id)
	r.mu.Unlock()

	if err := s.Conn().Destroy(); err != nil {
		zap.L().Warn("gateway: teardown failed", zap.String("session", id), zap.Error(err))
	}
	if r.gormDB != nil {
		if err := r.gormDB.Delete(&domain.ChatAccount{}, "id = ?", id).Error; err != nil {
			zap.L().Warn("gateway: delete account record failed", zap.String("session", id), zap.Error(err))
		}
	}
	zap.L().Info("gateway: session deleted", zap.String("session", id))
	return nil
}

// Restart tears down the session's transport and re-initiates the
// connect sequence under the same identity. The message log survives;
// status resets to disconnected and then progresses normally.
func (r *Registry) Restart(id string) error {
	r.mu.Lock()
	s, ok := r.sessions[id]
	if !ok {
		r.mu.Unlock()
		return domain.ErrUnknownSession
	}
	old := s.Conn()
	conn, err := r.dial(id)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	s.swapConn(conn)
	r.mu.Unlock()

	if err := old.Destroy(); err != nil {
		zap.L().Warn("gateway: teardown failed on restart", zap.String("session", id), zap.Error(err))
	}
	r.persistAccount(s)
	r.startSession(s, conn)
	r.OperLog("info", fmt.Sprintf("Session %s restarting...", id))
	return nil
}

// SendMessage validates and delivers one outbound message through the
// session's transport, recording it via RecordOutbound on success.
func (r *Registry) SendMessage(ctx context.Context, id, to, body string) error {
	s, err := r.Get(id)
	if err != nil {
		return err
	}
	if s.Status() != domain.StatusConnected {
		return domain.ErrSessionNotConnected
	}
	addr, err := NormalizeRecipient(to, r.suffix)
	if err != nil {
		return err
	}
	if err := s.Conn().Send(ctx, addr, body); err != nil {
		return err
	}
	r.RecordOutbound(s, addr, body)
	return nil
}

// RecordOutbound is the single point of truth for "what was sent": every
// send path (manual, command-triggered, bulk) funnels through here so the
// log entry and the observer broadcast are always paired.
func (r *Registry) RecordOutbound(s *Session, to, body string) domain.LogEntry {
	entry := s.appendLog(domain.DirectionSent, to, body)
	r.bus.Publish(TopicLogEntry, entry)
	return entry
}

// OperLog pushes a structured operator log event to all observers.
func (r *Registry) OperLog(level, message string) {
	r.bus.Publish(TopicOperLog, domain.OperLog{Level: level, Message: message})
}

func (r *Registry) persistAccount(s *Session) {
	if r.gormDB == nil {
		return
	}
	acct := domain.ChatAccount{
		ID:         s.ID,
		Status:     string(s.Status()),
		LastOnline: time.Now(),
	}
	if conn := s.Conn(); conn != nil {
		acct.Jid = conn.SelfID()
	}
	if err := r.gormDB.Save(&acct).Error; err != nil {
		zap.L().Warn("gateway: persist account failed", zap.String("session", s.ID), zap.Error(err))
	}
}

// RestoreAccounts re-creates sessions for every persisted account record,
// typically at boot. Failures are logged per account and skipped.
func (r *Registry) RestoreAccounts() {
	if r.gormDB == nil {
		return
	}
	var accts []domain.ChatAccount
	if err := r.gormDB.Find(&accts).Error; err != nil {
		zap.L().Warn("gateway: query account records failed", zap.Error(err))
		return
	}
	for _, acct := range accts {
		if err := r.Create(acct.ID); err != nil {
			zap.L().Warn("gateway: restore session failed",
				zap.String("session", acct.ID), zap.Error(err))
		}
	}
	if len(accts) > 0 {
		zap.L().Info("gateway: restored persisted sessions", zap.Int("count", len(accts)))
	}
}
