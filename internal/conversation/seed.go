package conversation

import (
	"context"
	"fmt"
	"strings"

	"github.com/momocall/shopchat/internal/chat"
)

// menuHint introduces the quick-reply menu message.
const menuHint = "你可以點選以下選項快速詢問："

// SeedWelcome appends the shop's welcome banner followed by the quick-reply
// menu message. Seeding is idempotent: a non-empty transcript is left alone.
// Two independent appends, same as any other write sequence.
func (s *Store) SeedWelcome(ctx context.Context, shopName string, quickReplyLabels []string) error {
	s.mu.Lock()
	if s.closed || !s.open {
		s.mu.Unlock()
		return ErrClosed
	}
	seeded := len(s.transcript) > 0
	channel := s.channel
	s.mu.Unlock()

	if seeded {
		return nil
	}

	if _, err := channel.Append(ctx, chat.Record{
		Content: chat.WelcomeBanner(shopName),
		From:    string(chat.SenderShop),
	}); err != nil {
		return fmt.Errorf("seed banner: %w", err)
	}

	if _, err := channel.Append(ctx, chat.Record{
		Content: menuHint + strings.Join(quickReplyLabels, "／"),
		From:    string(chat.SenderShop),
		IsQA:    true,
	}); err != nil {
		return fmt.Errorf("seed menu: %w", err)
	}
	return nil
}
