package gateway

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talkincode/botgate/internal/domain"
)

func setupDispatcher(t *testing.T) (*Registry, *fakeConn, *Session) {
	t.Helper()
	reg, d := newTestRegistry(t)
	bulk := NewBulkSender(reg, 0)
	disp := NewDispatcher(reg, bulk)
	reg.SetHandler(disp.Handle)

	require.NoError(t, reg.Create("bot-1"))
	s := waitStatus(t, reg, "bot-1", domain.StatusConnected)
	return reg, d.latest("bot-1"), s
}

func waitSent(t *testing.T, conn *fakeConn, n int) []sentMessage {
	t.Helper()
	require.Eventually(t, func() bool { return len(conn.sentMessages()) >= n },
		2*time.Second, 5*time.Millisecond, "expected %d outbound messages", n)
	return conn.sentMessages()
}

func TestDispatcherCommands(t *testing.T) {
	tests := []struct {
		name string
		body string
		want string
	}{
		{"ping", "!ping", "pong"},
		{"hello command", "!hello", "Hello! How can I help you?"},
		{"help lists commands", "!help", "!bulk"},
		{"time", "!time", "Current time:"},
		{"info", "!info", "Is Group: false"},
		{"client names session", "!client", "bot-1"},
		{"emoji", "!emoji", "😊"},
		{"greeting keyword", "Hi there", "👋 Hello! Nice to meet you!"},
		{"greeting case-insensitive", "HELLO???", "👋 Hello! Nice to meet you!"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, conn, s := setupDispatcher(t)
			conn.pushMessage("628111@c.us", tt.body)

			sent := waitSent(t, conn, 1)
			assert.Equal(t, "628111@c.us", sent[0].To)
			assert.Contains(t, sent[0].Body, tt.want)

			// Every reply is paired with its log entry.
			log := s.Log()
			require.Len(t, log, 2)
			assert.Equal(t, domain.DirectionReceived, log[0].Direction)
			assert.Equal(t, domain.DirectionSent, log[1].Direction)
		})
	}
}

func TestDispatcherIgnoresUnmatched(t *testing.T) {
	_, conn, s := setupDispatcher(t)
	conn.pushMessage("628111@c.us", "what is the weather")
	conn.pushMessage("628111@c.us", "!ping")

	// Events run in order, so one reply total means the first produced none.
	sent := waitSent(t, conn, 1)
	require.Len(t, sent, 1)
	assert.Equal(t, "pong", sent[0].Body)
	assert.Len(t, s.Log(), 3)
}

func TestDispatcherBulkCommand(t *testing.T) {
	_, conn, _ := setupDispatcher(t)
	conn.pushMessage("628111@c.us", "!bulk\n555111\n555222\n---\nBig sale today")

	sent := waitSent(t, conn, 4)
	require.Len(t, sent, 4)
	assert.Equal(t, "Sending to 2 recipients...", sent[0].Body)
	assert.Equal(t, sentMessage{To: "555111@c.us", Body: "Big sale today"}, sent[1])
	assert.Equal(t, sentMessage{To: "555222@c.us", Body: "Big sale today"}, sent[2])
	assert.Equal(t, "Bulk send complete: 2 sent, 0 failed", sent[3].Body)
}

func TestDispatcherBulkBeatsGreeting(t *testing.T) {
	_, conn, _ := setupDispatcher(t)
	// A "hi" inside a malformed !bulk payload is a format error, never a
	// greeting match.
	conn.pushMessage("628111@c.us", "!bulk\nhi")

	sent := waitSent(t, conn, 1)
	require.Len(t, sent, 1)
	assert.Contains(t, sent[0].Body, "Bulk format error")
	assert.NotContains(t, sent[0].Body, "Nice to meet you")
}

func TestParseBulkCommand(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		recipients []string
		message    string
		wantErr    string
	}{
		{
			name:       "two recipients",
			body:       "!bulk\n555111\n555222\n---\nhello there",
			recipients: []string{"555111", "555222"},
			message:    "hello there",
		},
		{
			name:       "blank recipient lines skipped",
			body:       "!bulk\n555111\n\n 555222 \n---\nhello",
			recipients: []string{"555111", "555222"},
			message:    "hello",
		},
		{
			name:       "multiline message preserved",
			body:       "!bulk\n555111\n---\nline one\nline two",
			recipients: []string{"555111"},
			message:    "line one\nline two",
		},
		{
			name:    "missing separator",
			body:    "!bulk\nhi",
			wantErr: "separator",
		},
		{
			name:    "separator too early",
			body:    "!bulk\n---\nhello",
			wantErr: "recipients",
		},
		{
			name:    "only blank recipients",
			body:    "!bulk\n \n\n---\nhello",
			wantErr: "no recipients",
		},
		{
			name:    "empty message",
			body:    "!bulk\n555111\n---\n  ",
			wantErr: "empty",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			recipients, message, err := ParseBulkCommand(tt.body)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.ErrorIs(t, err, domain.ErrInvalidBulkFormat)
				assert.True(t, strings.Contains(err.Error(), tt.wantErr),
					"error %q should mention %q", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.recipients, recipients)
			assert.Equal(t, tt.message, message)
		})
	}
}
