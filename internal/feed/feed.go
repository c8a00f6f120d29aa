// Package feed defines the contracts the engine requires from its remote
// collaborators (document store, blob store) and the per-conversation
// channel that binds a conversation's collection path to them.
package feed

import (
	"context"
	"fmt"

	"github.com/momocall/shopchat/internal/chat"
)

// SnapshotFunc receives the full ordered record set of a collection after
// every change. The slice must not be retained past the call.
type SnapshotFunc func(records []chat.Record)

// DocStore is the remote document-store contract: ordered subscriptions,
// appends with store-assigned identity, and single-field updates.
type DocStore interface {
	// SubscribeOrdered delivers the current ordered record set immediately
	// and again after every mutation of the collection. The returned cancel
	// function stops further deliveries.
	SubscribeOrdered(collectionPath, orderKey string, fn SnapshotFunc) (cancel func(), err error)

	// Append adds a record to the collection. The store assigns the id,
	// creation timestamp, and insertion sequence.
	Append(ctx context.Context, collectionPath string, rec chat.Record) (id string, err error)

	// UpdateField sets a single field on one record.
	UpdateField(ctx context.Context, collectionPath, id, field string, value any) error
}

// BlobStore is the blob-store contract: upload bytes, get back a
// retrievable URL.
type BlobStore interface {
	Upload(ctx context.Context, name string, data []byte) (url string, err error)
}

// OrderKey is the field the transcript is ordered by.
const OrderKey = "created_time"

// CollectionPath returns the message collection path for a shop's
// conversation.
func CollectionPath(shopID string) string {
	return fmt.Sprintf("chatroom/%s/messages", shopID)
}

// Channel binds one conversation's message collection to the document store.
type Channel struct {
	docs DocStore
	path string
}

// NewChannel creates a channel for the given shop's conversation.
func NewChannel(docs DocStore, shopID string) *Channel {
	return &Channel{docs: docs, path: CollectionPath(shopID)}
}

// Subscribe starts an ordered subscription on the conversation's messages.
func (c *Channel) Subscribe(fn SnapshotFunc) (func(), error) {
	return c.docs.SubscribeOrdered(c.path, OrderKey, fn)
}

// Append writes one message record to the conversation.
func (c *Channel) Append(ctx context.Context, rec chat.Record) (string, error) {
	return c.docs.Append(ctx, c.path, rec)
}

// UpdateFeedback sets the isUseful field on one message.
func (c *Channel) UpdateFeedback(ctx context.Context, id string, value chat.Feedback) error {
	return c.docs.UpdateField(ctx, c.path, id, "isUseful", string(value))
}
