package orders

import (
	"context"
	"fmt"

	"orderledger/internal/core/id"
)

// Sequencer hands out gapless per-key sequence values.
type Sequencer interface {
	NextValue(ctx context.Context, key string) (int64, error)
}

// CodeAssigner gives orders and payments their human-facing codes. Codes are
// assigned once; an entity that already carries one is left alone.
type CodeAssigner struct {
	seq   Sequencer
	token func() string
}

// NewCodeAssigner creates an assigner drawing order numbers from seq.
func NewCodeAssigner(seq Sequencer) *CodeAssigner {
	return &CodeAssigner{seq: seq, token: id.ShortToken}
}

// AssignOrderCode sets SeqNo and OrderCode = SeqNo + kind offset.
func (a *CodeAssigner) AssignOrderCode(ctx context.Context, o *Order) error {
	if o.OrderCode != 0 {
		return nil
	}
	n, err := a.seq.NextValue(ctx, o.Kind.SequenceKey())
	if err != nil {
		return fmt.Errorf("next %s number: %w", o.Kind, err)
	}
	o.SeqNo = n
	o.OrderCode = n + o.Kind.CodeOffset()
	return nil
}

// AssignPaymentCode sets PaymentCode to the order code followed by a random token.
func (a *CodeAssigner) AssignPaymentCode(o *Order, p *Payment) {
	if p.PaymentCode != "" {
		return
	}
	p.PaymentCode = PaymentCode(o.OrderCode, a.token())
}

// PaymentCode formats a payment code.
func PaymentCode(orderCode int64, token string) string {
	return fmt.Sprintf("%d%s", orderCode, token)
}
