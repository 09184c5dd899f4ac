// ABOUTME: Submission states and the transition table of the send pipeline
// ABOUTME: Idle -> UploadingAttachments -> SendingText -> Reloading -> Idle, or -> Failed -> Idle

package submission

import (
	"errors"
	"fmt"
	"slices"
)

// ErrIllegalTransition is returned when the pipeline attempts a transition
// that is not in the table.
var ErrIllegalTransition = errors.New("illegal submission state transition")

// State is a stage of a submission attempt.
type State int

// State constants
const (
	Idle State = iota
	UploadingAttachments
	SendingText
	Reloading
	Failed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case UploadingAttachments:
		return "uploading_attachments"
	case SendingText:
		return "sending_text"
	case Reloading:
		return "reloading"
	case Failed:
		return "failed"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Busy reports whether s is one of the in-flight stages.
func (s State) Busy() bool {
	return s == UploadingAttachments || s == SendingText || s == Reloading
}

// transitions lists the legal next states of every state.
var transitions = map[State][]State{
	Idle:                 {UploadingAttachments, SendingText},
	UploadingAttachments: {SendingText, Reloading, Failed},
	SendingText:          {Reloading, Failed},
	Reloading:            {Idle},
	Failed:               {Idle},
}

// CanTransition reports whether from -> to is allowed.
func CanTransition(from, to State) bool {
	return slices.Contains(transitions[from], to)
}
