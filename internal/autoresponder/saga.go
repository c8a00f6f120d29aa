package autoresponder

import (
	"fmt"
	"slices"
)

// SagaState tracks the two independent appends of an auto-reply sequence.
// There is no enclosing transaction: a saga that fails after the first
// append leaves a visible user message with no reply.
type SagaState string

const (
	SagaAwaitingUserAck  SagaState = "AWAITING_USER_ACK"
	SagaAwaitingReplyAck SagaState = "AWAITING_REPLY_ACK"
	SagaDone             SagaState = "DONE"
	SagaFailed           SagaState = "FAILED"
)

var validSagaTransitions = map[SagaState][]SagaState{
	SagaAwaitingUserAck:  {SagaAwaitingReplyAck, SagaFailed},
	SagaAwaitingReplyAck: {SagaDone, SagaFailed},
}

// ReplySaga records the progress of one compose-and-reply sequence.
type ReplySaga struct {
	state          SagaState
	UserMessageID  string
	ReplyMessageID string
	Err            error
}

// NewReplySaga starts a saga awaiting the user-message append.
func NewReplySaga() *ReplySaga {
	return &ReplySaga{state: SagaAwaitingUserAck}
}

// State returns the saga's current state.
func (s *ReplySaga) State() SagaState {
	return s.state
}

func (s *ReplySaga) advance(to SagaState) error {
	if !slices.Contains(validSagaTransitions[s.state], to) {
		return fmt.Errorf("invalid saga transition from %s to %s", s.state, to)
	}
	s.state = to
	return nil
}

func (s *ReplySaga) fail(err error) {
	s.Err = err
	_ = s.advance(SagaFailed)
}
