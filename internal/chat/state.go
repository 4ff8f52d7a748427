package chat

import "fmt"

// State is the reconciliation state of one send.
type State int

const (
	StateIdle State = iota
	StateStreaming
	StateAwaitingTool
	StateFollowUp
	StateDone
	StateFailed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "IDLE"
	case StateStreaming:
		return "STREAMING"
	case StateAwaitingTool:
		return "AWAITING_TOOL"
	case StateFollowUp:
		return "FOLLOW_UP"
	case StateDone:
		return "DONE"
	case StateFailed:
		return "FAILED"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Terminal reports whether s ends a send.
func (s State) Terminal() bool {
	return s == StateDone || s == StateFailed
}
