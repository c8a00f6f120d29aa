package chat

import "sort"

// Sender identifies which party authored a message.
type Sender string

const (
	SenderCustomer Sender = "user1"
	SenderShop     Sender = "shop"
)

// Feedback is the tri-state usefulness vote on a shop message.
type Feedback string

const (
	FeedbackUnset     Feedback = ""
	FeedbackUseful    Feedback = "Yes"
	FeedbackNotUseful Feedback = "No"
)

// Message is one entry in a conversation transcript.
type Message struct {
	ID               string
	Content          string
	CreatedAt        int64 // unix ms, 0 until the store assigns it
	Seq              int64 // store-assigned insertion order, tie-break for CreatedAt
	Sender           Sender
	IsQuickReplyMenu bool
	Feedback         Feedback
}

// Record is the wire shape of a message in the remote document store.
type Record struct {
	ID          string `json:"id"`
	Content     string `json:"content"`
	CreatedTime int64  `json:"created_time"`
	Seq         int64  `json:"seq"`
	From        string `json:"from"`
	IsQA        bool   `json:"isQA,omitempty"`
	IsUseful    string `json:"isUseful,omitempty"`
}

// ToMessage converts a wire record into a domain message.
func (r Record) ToMessage() Message {
	return Message{
		ID:               r.ID,
		Content:          r.Content,
		CreatedAt:        r.CreatedTime,
		Seq:              r.Seq,
		Sender:           Sender(r.From),
		IsQuickReplyMenu: r.IsQA,
		Feedback:         Feedback(r.IsUseful),
	}
}

// ToRecord converts a domain message into its wire shape. The id, timestamp
// and sequence are left for the store to assign on append.
func (m Message) ToRecord() Record {
	return Record{
		Content:  m.Content,
		From:     string(m.Sender),
		IsQA:     m.IsQuickReplyMenu,
		IsUseful: string(m.Feedback),
	}
}

// SortTranscript orders messages ascending by creation time, breaking ties
// with the store-assigned sequence. Client arrival order never matters.
func SortTranscript(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt != msgs[j].CreatedAt {
			return msgs[i].CreatedAt < msgs[j].CreatedAt
		}
		return msgs[i].Seq < msgs[j].Seq
	})
}
