// Package notify delivers lifecycle and trade-outcome notifications to
// external channels. Delivery is best-effort by contract: a failed or
// missing channel is logged and never fails a trading cycle.
package notify

import (
	"context"
	"fmt"
	"strings"

	"llm-futures-trader/internal/logger"
)

// Embed colors matching the channel conventions.
const (
	ColorBuy     = 4521728  // green
	ColorSell    = 16711680 // red
	ColorNeutral = 3786171  // teal, used for closes and lifecycle events
)

// Embed is one rich block in a notification message.
type Embed struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Color       int    `json:"color,omitempty"`
	Timestamp   string `json:"timestamp,omitempty"`
}

// Message is a notification: plain content, embeds, or both.
type Message struct {
	Content string
	Embeds  []Embed
}

// Sender is one notification channel.
type Sender interface {
	Send(ctx context.Context, msg *Message) error
	Name() string
}

// Notifier fans a message out to all registered senders. A sender failure
// is recorded and does not block the remaining senders.
type Notifier struct {
	senders []Sender
}

func NewNotifier(senders ...Sender) *Notifier {
	return &Notifier{senders: senders}
}

// Send dispatches msg to every sender and reports combined failures.
func (n *Notifier) Send(ctx context.Context, msg *Message) error {
	if len(n.senders) == 0 {
		return nil
	}

	var errs []string
	for _, s := range n.senders {
		if err := s.Send(ctx, msg); err != nil {
			logger.Warn(ctx, "Notification sender failed", "sender", s.Name(), "error", err)
			errs = append(errs, fmt.Sprintf("%s: %v", s.Name(), err))
			continue
		}
		logger.Debug(ctx, "Notification sent", "sender", s.Name(), "embeds", len(msg.Embeds))
	}
	if len(errs) > 0 {
		return fmt.Errorf("notify: %d sender(s) failed: %s", len(errs), strings.Join(errs, "; "))
	}
	return nil
}
