// Package autoresponder decides and appends canned replies to newly
// composed user messages.
package autoresponder

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/momocall/shopchat/internal/bus"
	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/feed"
)

var (
	// ErrEmptyMessage rejects empty or whitespace-only user input before
	// any write.
	ErrEmptyMessage = errors.New("autoresponder: empty message")

	// ErrUnknownQuickReply is returned when a label is not in the
	// quick-reply table; no writes are performed.
	ErrUnknownQuickReply = errors.New("autoresponder: unknown quick reply")
)

// Responder appends a user message and its canned shop reply as two
// independent remote writes.
type Responder struct {
	channel *feed.Channel
	rules   *Rules
	bus     *bus.Bus
	logger  *zap.Logger
}

// NewResponder creates a responder for one conversation. bus and logger may
// be nil.
func NewResponder(channel *feed.Channel, rules *Rules, b *bus.Bus, logger *zap.Logger) *Responder {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Responder{channel: channel, rules: rules, bus: b, logger: logger}
}

// ComposeUserMessage appends the customer's free-text message, then the
// first matching rule's response (or the fallback). The returned saga
// reports how far the two-write sequence got.
func (r *Responder) ComposeUserMessage(ctx context.Context, text string) (*ReplySaga, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrEmptyMessage
	}
	return r.run(ctx, text, r.rules.Match(text))
}

// SelectQuickReply appends the chosen menu label as a customer message,
// then the label's mapped response. An unknown label performs no writes.
func (r *Responder) SelectQuickReply(ctx context.Context, label string) (*ReplySaga, error) {
	response, ok := r.rules.QuickReply(label)
	if !ok {
		r.logger.Warn("quick reply not found", zap.String("label", label))
		return nil, fmt.Errorf("%w: %q", ErrUnknownQuickReply, label)
	}
	return r.run(ctx, label, response)
}

func (r *Responder) run(ctx context.Context, userText, reply string) (*ReplySaga, error) {
	saga := NewReplySaga()

	userID, err := r.channel.Append(ctx, chat.Record{
		Content: userText,
		From:    string(chat.SenderCustomer),
	})
	if err != nil {
		saga.fail(err)
		r.logger.Error("user message append failed", zap.Error(err))
		r.publish(bus.KindReplyFailed, saga)
		return saga, fmt.Errorf("append user message: %w", err)
	}
	saga.UserMessageID = userID
	if err := saga.advance(SagaAwaitingReplyAck); err != nil {
		return saga, err
	}
	r.publish(bus.KindMessageComposed, saga)

	replyID, err := r.channel.Append(ctx, chat.Record{
		Content: reply,
		From:    string(chat.SenderShop),
	})
	if err != nil {
		// The user message stays visible with no reply; no compensation.
		saga.fail(err)
		r.logger.Error("reply append failed", zap.String("user_message_id", userID), zap.Error(err))
		r.publish(bus.KindReplyFailed, saga)
		return saga, fmt.Errorf("append reply: %w", err)
	}
	saga.ReplyMessageID = replyID
	if err := saga.advance(SagaDone); err != nil {
		return saga, err
	}
	r.publish(bus.KindReplySent, saga)
	return saga, nil
}

func (r *Responder) publish(kind string, saga *ReplySaga) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(bus.Event{
		Kind:      kind,
		Timestamp: time.Now(),
		Payload: map[string]string{
			"user_message_id":  saga.UserMessageID,
			"reply_message_id": saga.ReplyMessageID,
			"state":            string(saga.State()),
		},
	})
}
