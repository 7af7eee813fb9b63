package webserver

import (
	"fmt"
	"net/http"
	"sync"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/talkincode/botgate/internal/domain"
	"github.com/talkincode/botgate/internal/gateway"
)

// Observer event names on the SSE stream.
const (
	eventStatusChanged = "statusChanged"
	eventLogEntry      = "logEntry"
	eventLog           = "log"
	eventBulkComplete  = "bulkComplete"
)

type pushEvent struct {
	Name string
	Data interface{}
}

type subscriber struct {
	ch chan pushEvent
}

// Hub fans gateway events out to connected observers. Publishing is
// fire-and-forget: a slow or stalled observer gets its event dropped
// (at-most-once) and never blocks the producing session or its peers.
type Hub struct {
	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

func NewHub(bus EventBus.Bus) *Hub {
	h := &Hub{subs: make(map[*subscriber]struct{})}
	if err := bus.Subscribe(gateway.TopicStatus, func(evt domain.StatusEvent) {
		h.Broadcast(eventStatusChanged, evt)
	}); err != nil {
		zap.L().Error("hub: subscribe status topic failed", zap.Error(err))
	}
	if err := bus.Subscribe(gateway.TopicLogEntry, func(entry domain.LogEntry) {
		h.Broadcast(eventLogEntry, entry)
	}); err != nil {
		zap.L().Error("hub: subscribe logentry topic failed", zap.Error(err))
	}
	if err := bus.Subscribe(gateway.TopicOperLog, func(l domain.OperLog) {
		h.Broadcast(eventLog, l)
	}); err != nil {
		zap.L().Error("hub: subscribe log topic failed", zap.Error(err))
	}
	return h
}

func (h *Hub) register() *subscriber {
	sub := &subscriber{ch: make(chan pushEvent, 64)}
	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()
	return sub
}

func (h *Hub) unregister(sub *subscriber) {
	h.mu.Lock()
	delete(h.subs, sub)
	h.mu.Unlock()
}

// Broadcast delivers one event to every observer without blocking.
func (h *Hub) Broadcast(name string, data interface{}) {
	h.mu.Lock()
	subs := make([]*subscriber, 0, len(h.subs))
	for s := range h.subs {
		subs = append(subs, s)
	}
	h.mu.Unlock()

	for _, s := range subs {
		select {
		case s.ch <- pushEvent{Name: name, Data: data}:
		default:
		}
	}
}

// ObserverCount returns the number of connected observers.
func (h *Hub) ObserverCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs)
}

func (s *WebServer) registerEventRoutes() {
	s.root.GET("/api/events", s.streamEvents)
}

// streamEvents is the push channel of the control plane: an SSE stream
// carrying statusChanged, logEntry and log events until the observer
// disconnects.
func (s *WebServer) streamEvents(c echo.Context) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set(echo.HeaderConnection, "keep-alive")
	resp.WriteHeader(http.StatusOK)
	resp.Flush()

	sub := s.hub.register()
	defer s.hub.unregister(sub)
	zap.L().Info("observer connected", zap.Int("observers", s.hub.ObserverCount()))

	ctx := c.Request().Context()
	for {
		select {
		case <-ctx.Done():
			zap.L().Info("observer disconnected", zap.Int("observers", s.hub.ObserverCount()-1))
			return nil
		case evt := <-sub.ch:
			payload, err := json.Marshal(evt.Data)
			if err != nil {
				zap.L().Warn("hub: marshal event failed", zap.String("event", evt.Name), zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(resp, "event: %s\ndata: %s\n\n", evt.Name, payload); err != nil {
				return nil
			}
			resp.Flush()
		}
	}
}
