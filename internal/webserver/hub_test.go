package webserver

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/asaskevich/EventBus"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/botgate/internal/domain"
	"github.com/talkincode/botgate/internal/gateway"
)

func TestHubRelaysBusTopics(t *testing.T) {
	bus := EventBus.New()
	hub := NewHub(bus)
	sub := hub.register()
	defer hub.unregister(sub)

	bus.Publish(gateway.TopicStatus, domain.StatusEvent{SessionID: "bot-1", Status: domain.StatusConnected})
	bus.Publish(gateway.TopicLogEntry, domain.LogEntry{SessionID: "bot-1", Body: "hi"})
	bus.Publish(gateway.TopicOperLog, domain.OperLog{Level: "info", Message: "ready"})

	want := []string{eventStatusChanged, eventLogEntry, eventLog}
	for _, name := range want {
		select {
		case evt := <-sub.ch:
			assert.Equal(t, name, evt.Name)
		case <-time.After(time.Second):
			t.Fatalf("no %s event received", name)
		}
	}
}

func TestHubBroadcastNeverBlocks(t *testing.T) {
	hub := NewHub(EventBus.New())
	sub := hub.register()
	defer hub.unregister(sub)
	require.Equal(t, 1, hub.ObserverCount())

	// A stalled observer overflows its buffer; extra events are dropped
	// and the publisher returns promptly every time.
	done := make(chan struct{})
	go func() {
		for i := 0; i < cap(sub.ch)*3; i++ {
			hub.Broadcast(eventLog, domain.OperLog{Level: "info", Message: "flood"})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("broadcast blocked on a stalled observer")
	}
	assert.Len(t, sub.ch, cap(sub.ch))

	hub.unregister(sub)
	assert.Equal(t, 0, hub.ObserverCount())
}

func TestResponseEnvelope(t *testing.T) {
	e := echo.New()
	e.JSONSerializer = jsonSerializer{}

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	require.NoError(t, ok(e.NewContext(req, rec), map[string]interface{}{"x": 1}))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"code":0,"data":{"x":1}}`, rec.Body.String())

	rec = httptest.NewRecorder()
	require.NoError(t, fail(e.NewContext(req, rec), http.StatusConflict, "DUPLICATE_SESSION", "Session already exists", nil))
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.JSONEq(t, `{"code":1,"error":"DUPLICATE_SESSION","msg":"Session already exists","detail":null}`, rec.Body.String())
}
