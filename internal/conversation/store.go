// Package conversation owns the local ordered view of one conversation's
// remote message feed.
package conversation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/momocall/shopchat/internal/bus"
	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/feed"
)

var (
	// ErrSyncFailed reports a failed subscribe; the transcript stays empty
	// and no retry is attempted.
	ErrSyncFailed = errors.New("conversation: sync failed")

	// ErrAlreadyOpen is returned by Open on a store that is already bound
	// to a conversation.
	ErrAlreadyOpen = errors.New("conversation: store already open")

	// ErrClosed is returned once Close has been called.
	ErrClosed = errors.New("conversation: store closed")
)

// Store holds the authoritative in-memory transcript for one open
// conversation. Each remote notification replaces the whole transcript;
// there is no diffing.
type Store struct {
	docs   feed.DocStore
	bus    *bus.Bus
	logger *zap.Logger

	mu         sync.Mutex
	shopID     string
	open       bool
	closed     bool
	transcript []chat.Message
	notify     func()
	cancel     func()
	channel    *feed.Channel
}

// New creates an unopened store. bus and logger may be nil.
func New(docs feed.DocStore, b *bus.Bus, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{docs: docs, bus: b, logger: logger}
}

// Open subscribes to the conversation's ordered message feed. notify is
// invoked after every applied snapshot. A store serves exactly one
// conversation: a second Open returns ErrAlreadyOpen.
func (s *Store) Open(shopID string, notify func()) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.open {
		s.mu.Unlock()
		return ErrAlreadyOpen
	}
	s.open = true
	s.shopID = shopID
	s.notify = notify
	s.channel = feed.NewChannel(s.docs, shopID)
	s.mu.Unlock()

	cancel, err := s.channel.Subscribe(s.apply)
	if err != nil {
		s.mu.Lock()
		s.open = false
		s.notify = nil
		s.mu.Unlock()
		s.logger.Error("subscribe failed", zap.String("shop_id", shopID), zap.Error(err))
		return fmt.Errorf("%w: %v", ErrSyncFailed, err)
	}

	s.mu.Lock()
	if s.closed {
		// Closed while the subscribe was in flight; drop the subscription.
		s.mu.Unlock()
		cancel()
		return ErrClosed
	}
	s.cancel = cancel
	s.mu.Unlock()
	return nil
}

// Close releases the subscription. No notify callback fires after Close
// returns, even if a subscribe was still in flight. Safe to call twice.
func (s *Store) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.open = false
	s.notify = nil
	cancel := s.cancel
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
}

// apply replaces the transcript with a freshly sorted copy of the snapshot.
func (s *Store) apply(records []chat.Record) {
	msgs := make([]chat.Message, 0, len(records))
	for _, r := range records {
		msgs = append(msgs, r.ToMessage())
	}
	chat.SortTranscript(msgs)

	s.mu.Lock()
	if s.closed || !s.open {
		s.mu.Unlock()
		return
	}
	s.transcript = msgs
	notify := s.notify
	shopID := s.shopID
	s.mu.Unlock()

	if s.bus != nil {
		s.bus.Publish(bus.Event{
			Kind:      bus.KindFeedSnapshot,
			Timestamp: time.Now(),
			Payload:   map[string]any{"shop_id": shopID, "messages": len(msgs)},
		})
	}
	if notify != nil {
		notify()
	}
}

// Messages returns a copy of the current ordered transcript.
func (s *Store) Messages() []chat.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]chat.Message, len(s.transcript))
	copy(out, s.transcript)
	return out
}

// Get looks up one message by id.
func (s *Store) Get(messageID string) (chat.Message, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.transcript {
		if m.ID == messageID {
			return m, true
		}
	}
	return chat.Message{}, false
}

// Len returns the current transcript length.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.transcript)
}

// Channel returns the conversation's feed channel for writers. Nil until
// Open succeeds.
func (s *Store) Channel() *feed.Channel {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.channel
}

// PatchFeedback optimistically sets the feedback value on the local copy of
// a message so the UI need not wait for the next snapshot. Returns false if
// the message is unknown.
func (s *Store) PatchFeedback(messageID string, value chat.Feedback) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.transcript {
		if s.transcript[i].ID == messageID {
			s.transcript[i].Feedback = value
			return true
		}
	}
	return false
}
