package chat

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrBlankInput rejects a send whose text is empty or whitespace.
	ErrBlankInput = errors.New("chat: blank input")
	// ErrTurnInFlight rejects a send while another one is running.
	ErrTurnInFlight = errors.New("chat: a turn is already in flight")
	// ErrNotReady rejects a send before the provider is connected.
	ErrNotReady = errors.New("chat: provider not connected")
	// ErrOverBudget is reported when the newest message alone exceeds the token budget.
	ErrOverBudget = errors.New("chat: message exceeds the token budget")
)

// StreamError is a provider stream failure, keeping how much content had
// already been written to the turn.
type StreamError struct {
	// Round is 0 for the primary stream and n for the n-th follow-up.
	Round   int
	Partial int
	Err     error
}

func (e *StreamError) Error() string {
	if e.Partial > 0 {
		return fmt.Sprintf("stream error (round %d, partial content received: %d chars): %v", e.Round, e.Partial, e.Err)
	}
	return fmt.Sprintf("stream error (round %d): %v", e.Round, e.Err)
}

func (e *StreamError) Unwrap() error { return e.Err }

// describe renders err for the user-visible "Error:" line.
func describe(err error) string {
	var se *StreamError
	if errors.As(err, &se) {
		err = se.Err
	}
	switch {
	case errors.Is(err, context.Canceled):
		return "request canceled"
	case errors.Is(err, context.DeadlineExceeded):
		return "request timed out"
	case err == nil:
		return "unknown error"
	}
	return err.Error()
}
