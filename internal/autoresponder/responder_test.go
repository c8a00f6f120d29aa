package autoresponder

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/momocall/shopchat/internal/chat"
	"github.com/momocall/shopchat/internal/feed"
)

// scriptedDocStore records appends and can fail from a given call onward.
type scriptedDocStore struct {
	appended  []chat.Record
	failAfter int // fail appends once len(appended) reaches this; -1 = never
}

func newScriptedDocStore() *scriptedDocStore {
	return &scriptedDocStore{failAfter: -1}
}

func (s *scriptedDocStore) SubscribeOrdered(_, _ string, _ feed.SnapshotFunc) (func(), error) {
	return func() {}, nil
}

func (s *scriptedDocStore) Append(_ context.Context, _ string, rec chat.Record) (string, error) {
	if s.failAfter >= 0 && len(s.appended) >= s.failAfter {
		return "", errors.New("append rejected")
	}
	s.appended = append(s.appended, rec)
	return fmt.Sprintf("m%d", len(s.appended)), nil
}

func (s *scriptedDocStore) UpdateField(context.Context, string, string, string, any) error {
	return nil
}

func newTestResponder(docs *scriptedDocStore) *Responder {
	return NewResponder(feed.NewChannel(docs, "shop1"), Default(), nil, nil)
}

func TestComposeUserMessageMatchesRule(t *testing.T) {
	docs := newScriptedDocStore()
	r := newTestResponder(docs)

	saga, err := r.ComposeUserMessage(context.Background(), "訂單編號12345")
	if err != nil {
		t.Fatal(err)
	}
	if saga.State() != SagaDone {
		t.Errorf("saga state = %s, want DONE", saga.State())
	}
	if len(docs.appended) != 2 {
		t.Fatalf("got %d appends, want 2", len(docs.appended))
	}
	if docs.appended[0].From != "user1" || docs.appended[0].Content != "訂單編號12345" {
		t.Errorf("user message = %+v", docs.appended[0])
	}
	if docs.appended[1].From != "shop" || docs.appended[1].Content != "訂單編號是20240823153700" {
		t.Errorf("shop reply = %+v", docs.appended[1])
	}
}

func TestComposeUserMessageFallback(t *testing.T) {
	docs := newScriptedDocStore()
	r := newTestResponder(docs)

	if _, err := r.ComposeUserMessage(context.Background(), "xyz-no-match"); err != nil {
		t.Fatal(err)
	}
	if len(docs.appended) != 2 {
		t.Fatalf("got %d appends, want 2", len(docs.appended))
	}
	if docs.appended[1].Content != FallbackResponse {
		t.Errorf("reply = %q, want fallback", docs.appended[1].Content)
	}
}

func TestComposeUserMessageRejectsBlank(t *testing.T) {
	docs := newScriptedDocStore()
	r := newTestResponder(docs)

	for _, text := range []string{"", "   ", "\n\t"} {
		if _, err := r.ComposeUserMessage(context.Background(), text); !errors.Is(err, ErrEmptyMessage) {
			t.Errorf("ComposeUserMessage(%q) error = %v, want ErrEmptyMessage", text, err)
		}
	}
	if len(docs.appended) != 0 {
		t.Errorf("blank input performed %d writes", len(docs.appended))
	}
}

func TestComposeUserMessagePartialFailure(t *testing.T) {
	docs := newScriptedDocStore()
	docs.failAfter = 1 // user message lands, reply append fails
	r := newTestResponder(docs)

	saga, err := r.ComposeUserMessage(context.Background(), "營業時間是？")
	if err == nil {
		t.Fatal("expected error from failed reply append")
	}
	if saga.State() != SagaFailed {
		t.Errorf("saga state = %s, want FAILED", saga.State())
	}
	if saga.UserMessageID == "" {
		t.Error("user message id missing; first append did succeed")
	}
	if saga.ReplyMessageID != "" {
		t.Error("reply message id set despite failure")
	}
	// The user message stays; there is no compensating delete.
	if len(docs.appended) != 1 {
		t.Errorf("got %d appends, want 1", len(docs.appended))
	}
}

func TestComposeUserMessageFirstAppendFailure(t *testing.T) {
	docs := newScriptedDocStore()
	docs.failAfter = 0
	r := newTestResponder(docs)

	saga, err := r.ComposeUserMessage(context.Background(), "hello")
	if err == nil {
		t.Fatal("expected error from failed user append")
	}
	if saga.State() != SagaFailed || saga.UserMessageID != "" {
		t.Errorf("saga = %+v, want FAILED with no ids", saga)
	}
	if len(docs.appended) != 0 {
		t.Errorf("got %d appends, want 0", len(docs.appended))
	}
}

func TestSelectQuickReply(t *testing.T) {
	docs := newScriptedDocStore()
	r := newTestResponder(docs)

	saga, err := r.SelectQuickReply(context.Background(), "運送時間")
	if err != nil {
		t.Fatal(err)
	}
	if saga.State() != SagaDone {
		t.Errorf("saga state = %s, want DONE", saga.State())
	}
	if len(docs.appended) != 2 {
		t.Fatalf("got %d appends, want 2", len(docs.appended))
	}
	if docs.appended[0].Content != "運送時間" || docs.appended[0].From != "user1" {
		t.Errorf("user message = %+v", docs.appended[0])
	}
	if docs.appended[1].From != "shop" || docs.appended[1].Content == "" {
		t.Errorf("shop reply = %+v", docs.appended[1])
	}
}

func TestSelectQuickReplyUnknownLabel(t *testing.T) {
	docs := newScriptedDocStore()
	r := newTestResponder(docs)

	if _, err := r.SelectQuickReply(context.Background(), "退貨流程"); !errors.Is(err, ErrUnknownQuickReply) {
		t.Errorf("error = %v, want ErrUnknownQuickReply", err)
	}
	if len(docs.appended) != 0 {
		t.Errorf("unknown label performed %d writes", len(docs.appended))
	}
}
