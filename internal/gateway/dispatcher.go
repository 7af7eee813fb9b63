package gateway

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/talkincode/botgate/internal/domain"
)

const helpText = `Available commands:
• !ping - Test if bot is working
• !hello - Get a greeting
• !help - Show this help message
• !time - Get current time
• !info - Get message info
• !client - Show the session handling this chat
• !emoji - Get some emojis
• !bulk - Send a message to many recipients`

const greetingReply = "👋 Hello! Nice to meet you!"

// Dispatcher inspects inbound message text and produces replies or side
// effects for the owning session. Commands are evaluated in priority
// order and only the first match acts; unmatched non-keyword text
// produces no reply.
type Dispatcher struct {
	reg  *Registry
	bulk *BulkSender
}

func NewDispatcher(reg *Registry, bulk *BulkSender) *Dispatcher {
	return &Dispatcher{reg: reg, bulk: bulk}
}

// Handle reacts to one inbound log entry. Exact commands win over the
// keyword greeting; !bulk is structured (prefix match) and is checked
// before the keyword so a "hi" inside its payload cannot shadow it.
func (d *Dispatcher) Handle(ctx context.Context, s *Session, entry domain.LogEntry) {
	body := entry.Body
	from := entry.Counterparty

	switch body {
	case "!ping":
		d.reply(ctx, s, from, "pong")
		return
	case "!hello":
		d.reply(ctx, s, from, "Hello! How can I help you?")
		return
	case "!help":
		d.reply(ctx, s, from, helpText)
		return
	case "!time":
		d.reply(ctx, s, from, fmt.Sprintf("Current time: %s", time.Now().Format("1/2/2006, 3:04:05 PM")))
		return
	case "!info":
		info := fmt.Sprintf("Message Info:\n• From: %s\n• Type: chat\n• Timestamp: %d\n• Is Group: %t\n• Session: %s",
			from, entry.Timestamp.Unix(), IsGroupAddress(from), s.ID)
		d.reply(ctx, s, from, info)
		return
	case "!client":
		d.reply(ctx, s, from, fmt.Sprintf("This chat is handled by session %q", s.ID))
		return
	case "!emoji":
		d.reply(ctx, s, from, "😊 🎉 🚀 Here are some emojis for you!")
		return
	}

	if strings.HasPrefix(body, "!bulk") {
		d.handleBulk(ctx, s, from, body)
		return
	}

	lower := strings.ToLower(body)
	if strings.Contains(lower, "hello") || strings.Contains(lower, "hi") {
		d.reply(ctx, s, from, greetingReply)
	}
}

// handleBulk runs the bulk pipeline inline: a count confirmation first,
// the final tally after the list is exhausted. Format problems are
// reported back by name and cause no sends at all.
func (d *Dispatcher) handleBulk(ctx context.Context, s *Session, from, body string) {
	recipients, message, err := ParseBulkCommand(body)
	if err != nil {
		d.reply(ctx, s, from, fmt.Sprintf("Bulk format error: %v\nUsage: !bulk\n<recipient>\n...\n---\n<message>", err))
		return
	}

	d.reply(ctx, s, from, fmt.Sprintf("Sending to %d recipients...", len(recipients)))
	result, err := d.bulk.Send(ctx, s.ID, recipients, message)
	if err != nil {
		d.reply(ctx, s, from, fmt.Sprintf("Bulk send failed: %v", err))
		return
	}
	d.reply(ctx, s, from, fmt.Sprintf("Bulk send complete: %d sent, %d failed", result.Success, result.Failed))
}

// reply sends a text through the session's transport and records it via
// the single outbound logging path. The two are always paired.
func (d *Dispatcher) reply(ctx context.Context, s *Session, to, text string) {
	if err := s.Conn().Send(ctx, to, text); err != nil {
		zap.L().Warn("gateway: reply failed",
			zap.String("session", s.ID), zap.String("to", to), zap.Error(err))
		return
	}
	d.reg.RecordOutbound(s, to, text)
}

const bulkSeparator = "---"

// ParseBulkCommand splits a !bulk message body into its recipient list
// and trailing message. Recipients are every non-blank line between the
// command line and the separator; the message is everything after the
// separator with newlines preserved and surrounding whitespace trimmed.
func ParseBulkCommand(body string) (recipients []string, message string, err error) {
	lines := strings.Split(body, "\n")
	sep := -1
	for i, line := range lines {
		if strings.TrimSpace(line) == bulkSeparator {
			sep = i
			break
		}
	}
	if sep < 0 {
		return nil, "", fmt.Errorf("%w: missing %q separator line", domain.ErrInvalidBulkFormat, bulkSeparator)
	}
	if sep < 2 {
		return nil, "", fmt.Errorf("%w: no room for recipients before the separator", domain.ErrInvalidBulkFormat)
	}
	for _, line := range lines[1:sep] {
		if v := strings.TrimSpace(line); v != "" {
			recipients = append(recipients, v)
		}
	}
	if len(recipients) == 0 {
		return nil, "", fmt.Errorf("%w: no recipients listed", domain.ErrInvalidBulkFormat)
	}
	message = strings.TrimSpace(strings.Join(lines[sep+1:], "\n"))
	if message == "" {
		return nil, "", fmt.Errorf("%w: message body is empty", domain.ErrInvalidBulkFormat)
	}
	return recipients, message, nil
}
