package bus

import "time"

// Event kinds published by the engine. Subscribers filter by namespace
// prefix, e.g. "feed." receives every feed event.
const (
	KindFeedSnapshot     = "feed.snapshot"
	KindMessageComposed  = "message.composed"
	KindReplySent        = "reply.sent"
	KindReplyFailed      = "reply.failed"
	KindFeedbackUpdated  = "feedback.updated"
	KindAttachmentStored = "attachment.stored"
	KindAttachmentFailed = "attachment.failed"
)

// Event is a domain event published on the bus.
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
