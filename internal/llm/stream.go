package llm

// EventKind tags a StreamEvent.
type EventKind int

const (
	EventTextDelta EventKind = iota
	EventToolCall
)

func (k EventKind) String() string {
	switch k {
	case EventTextDelta:
		return "text_delta"
	case EventToolCall:
		return "tool_call"
	default:
		return "unknown"
	}
}

// StreamEvent is one incremental unit of provider output.
type StreamEvent struct {
	Kind     EventKind
	Text     string
	ToolCall ToolCall
}

func TextDelta(text string) StreamEvent {
	return StreamEvent{Kind: EventTextDelta, Text: text}
}

func ToolCallEvent(call ToolCall) StreamEvent {
	return StreamEvent{Kind: EventToolCall, ToolCall: call}
}

// Stream is a lazy, finite sequence of events, iterated like the SDK streams:
//
//	for s.Next() {
//		ev := s.Current()
//	}
//	if err := s.Err(); err != nil { ... }
type Stream interface {
	Next() bool
	Current() StreamEvent
	Err() error
	Close() error
}
