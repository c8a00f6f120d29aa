// Package feedback tracks the usefulness vote on shop messages.
package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/momocall/shopchat/internal/bus"
	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/conversation"
)

var (
	// ErrNotApplicable reports a vote on an ineligible message (customer
	// messages, banners, unknown ids). No remote write is issued.
	ErrNotApplicable = errors.New("feedback: not applicable")

	// ErrInvalidValue rejects values outside {Useful, NotUseful}.
	ErrInvalidValue = errors.New("feedback: invalid value")
)

// Tracker applies feedback votes: remote field update first, then an
// optimistic patch of the local transcript copy.
type Tracker struct {
	store  *conversation.Store
	bus    *bus.Bus
	logger *zap.Logger
}

// NewTracker creates a tracker over an open conversation store. bus and
// logger may be nil.
func NewTracker(store *conversation.Store, b *bus.Bus, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, bus: b, logger: logger}
}

// SetFeedback votes Useful or NotUseful on one message. Re-invoking with the
// currently-set value still issues the remote write; there is no local
// short-circuit.
func (t *Tracker) SetFeedback(ctx context.Context, messageID string, value chat.Feedback) error {
	if value != chat.FeedbackUseful && value != chat.FeedbackNotUseful {
		return fmt.Errorf("%w: %q", ErrInvalidValue, value)
	}

	msg, ok := t.store.Get(messageID)
	if !ok {
		return fmt.Errorf("%w: unknown message %s", ErrNotApplicable, messageID)
	}
	if msg.Sender != chat.SenderShop || chat.IsBanner(msg) {
		return fmt.Errorf("%w: message %s", ErrNotApplicable, messageID)
	}

	if err := t.store.Channel().UpdateFeedback(ctx, messageID, value); err != nil {
		t.logger.Error("feedback update failed", zap.String("message_id", messageID), zap.Error(err))
		return fmt.Errorf("update feedback: %w", err)
	}

	t.store.PatchFeedback(messageID, value)

	if t.bus != nil {
		t.bus.Publish(bus.Event{
			Kind:      bus.KindFeedbackUpdated,
			Timestamp: time.Now(),
			Payload:   map[string]string{"message_id": messageID, "value": string(value)},
		})
	}
	return nil
}

// Visibility describes which vote affordances render for a message.
type Visibility struct {
	ShowUseful    bool
	ShowNotUseful bool
	ShowSeparator bool
}

// ControlVisibility computes the render state of the vote controls. The two
// votes are mutually exclusive: setting one hides the other's control. The
// separator only renders while both controls do.
func ControlVisibility(m chat.Message) Visibility {
	if m.Sender != chat.SenderShop || chat.IsBanner(m) {
		return Visibility{}
	}
	v := Visibility{
		ShowUseful:    m.Feedback != chat.FeedbackNotUseful,
		ShowNotUseful: m.Feedback != chat.FeedbackUseful,
	}
	v.ShowSeparator = v.ShowUseful && v.ShowNotUseful
	return v
}
