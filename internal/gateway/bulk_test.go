package gateway

import (
	"context"
	"testing"

	"github.com/asaskevich/EventBus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/botgate/internal/domain"
)

func TestBulkSendTally(t *testing.T) {
	reg, d := newTestRegistry(t)
	bulk := NewBulkSender(reg, 0)

	require.NoError(t, reg.Create("bot-1"))
	s := waitStatus(t, reg, "bot-1", domain.StatusConnected)

	result, err := bulk.Send(context.Background(), "bot-1",
		[]string{"628111", "not-a-number", "628222"}, "promo")
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Success: 2, Failed: 1}, result)

	// The invalid recipient is skipped, not a stopping point.
	sent := d.latest("bot-1").sentMessages()
	require.Len(t, sent, 2)
	assert.Equal(t, "628111@c.us", sent[0].To)
	assert.Equal(t, "628222@c.us", sent[1].To)
	assert.Len(t, s.Log(), 2)
}

func TestBulkSendTransportFailure(t *testing.T) {
	reg, d := newTestRegistry(t)
	bulk := NewBulkSender(reg, 0)

	require.NoError(t, reg.Create("bot-1"))
	s := waitStatus(t, reg, "bot-1", domain.StatusConnected)
	d.latest("bot-1").refuse("628222@c.us")

	result, err := bulk.Send(context.Background(), "bot-1",
		[]string{"628111", "628222", "628333"}, "promo")
	require.NoError(t, err)
	assert.Equal(t, BulkResult{Success: 2, Failed: 1}, result)

	// Only delivered messages are logged.
	require.Len(t, s.Log(), 2)
	assert.Equal(t, "628111@c.us", s.Log()[0].Counterparty)
	assert.Equal(t, "628333@c.us", s.Log()[1].Counterparty)
}

func TestBulkSendGuards(t *testing.T) {
	d := newFakeDialer()
	d.manual = true
	reg := NewRegistry(d.dial, EventBus.New(), nil, "")
	bulk := NewBulkSender(reg, 0)

	_, err := bulk.Send(context.Background(), "ghost", []string{"628111"}, "promo")
	assert.ErrorIs(t, err, domain.ErrUnknownSession)

	require.NoError(t, reg.Create("bot-1"))
	_, err = bulk.Send(context.Background(), "bot-1", []string{"628111"}, "promo")
	assert.ErrorIs(t, err, domain.ErrSessionNotConnected)
}
