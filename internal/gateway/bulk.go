package gateway

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/talkincode/botgate/internal/domain"
)

// BulkResult is the aggregate tally of one bulk send invocation.
type BulkResult struct {
	Success int `json:"success"`
	Failed  int `json:"failed"`
}

// BulkSender delivers one message body to a list of recipients, strictly
// sequentially with a fixed pacing delay between attempts. Sequential
// delivery is deliberate: concurrent sends through a single account
// session are the primary failure-amplification risk here, and the delay
// keeps the transport below anti-abuse thresholds.
type BulkSender struct {
	reg      *Registry
	interval time.Duration
}

func NewBulkSender(reg *Registry, interval time.Duration) *BulkSender {
	return &BulkSender{reg: reg, interval: interval}
}

// Send processes recipients in input order. A malformed address or a
// failed send counts against the tally and iteration continues; nothing
// aborts the remaining list. Once started there is no cancellation: the
// run is bounded by len(recipients) times the pacing delay. Deleting the
// session mid-run leaves later sends failing through the destroyed
// transport, which is likewise counted and skipped past.
func (b *BulkSender) Send(ctx context.Context, sessionID string, recipients []string, body string) (BulkResult, error) {
	s, err := b.reg.Get(sessionID)
	if err != nil {
		return BulkResult{}, err
	}
	if s.Status() != domain.StatusConnected {
		return BulkResult{}, domain.ErrSessionNotConnected
	}

	var result BulkResult
	for i, raw := range recipients {
		addr, err := NormalizeRecipient(raw, b.reg.suffix)
		if err != nil {
			result.Failed++
			b.reg.OperLog("warning", fmt.Sprintf("Bulk send %d/%d skipped %q: invalid recipient", i+1, len(recipients), raw))
			b.pace()
			continue
		}
		if err := s.Conn().Send(ctx, addr, body); err != nil {
			result.Failed++
			zap.L().Warn("gateway: bulk send failed",
				zap.String("session", sessionID), zap.String("to", addr), zap.Error(err))
			b.pace()
			continue
		}
		result.Success++
		b.reg.RecordOutbound(s, addr, body)
		b.pace()
	}

	b.reg.OperLog("info", fmt.Sprintf("Bulk send complete: %d sent, %d failed", result.Success, result.Failed))
	return result, nil
}

func (b *BulkSender) pace() {
	if b.interval > 0 {
		time.Sleep(b.interval)
	}
}
