package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/petasbytes/streamchat/internal/llm"
	"github.com/petasbytes/streamchat/internal/telemetry"
	"github.com/petasbytes/streamchat/internal/transcript"
	"github.com/petasbytes/streamchat/tools"
)

// DefaultMaxFollowUps bounds how many follow-up requests one send may open.
const DefaultMaxFollowUps = 1

// WindowFunc trims a request history before it is sent.
type WindowFunc func(ctx context.Context, msgs []llm.Message) ([]llm.Message, error)

// Reconciler folds provider streams into the open assistant turn.
type Reconciler struct {
	provider     llm.Provider
	executor     *tools.Executor
	maxFollowUps int
	window       WindowFunc
	logger       *slog.Logger

	// OnState, when set, observes every state transition.
	OnState func(State)
}

func NewReconciler(p llm.Provider, ex *tools.Executor, maxFollowUps int, logger *slog.Logger) *Reconciler {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if maxFollowUps < 0 {
		maxFollowUps = 0
	}
	return &Reconciler{provider: p, executor: ex, maxFollowUps: maxFollowUps, logger: logger}
}

// turn is the per-send view of the open tail turn. The reconciler is its
// only writer, so content mirrors the store.
type turn struct {
	store   *transcript.Store
	handle  transcript.Handle
	content strings.Builder
	// breakNext starts the next text delta on a new paragraph.
	breakNext bool
}

func (t *turn) write(s string) error {
	if s == "" {
		return nil
	}
	if err := t.store.AppendContent(t.handle, s); err != nil {
		return err
	}
	t.content.WriteString(s)
	return nil
}

func (t *turn) appendText(s string) error {
	if s == "" {
		return nil
	}
	if t.breakNext {
		s = "\n\n" + s
		t.breakNext = false
	}
	return t.write(s)
}

// appendBlock writes s as its own paragraph.
func (t *turn) appendBlock(s string) error {
	cur := t.content.String()
	switch {
	case cur == "", strings.HasSuffix(cur, "\n\n"):
	case strings.HasSuffix(cur, "\n"):
		s = "\n" + s
	default:
		s = "\n\n" + s
	}
	t.breakNext = false
	if err := t.write(s); err != nil {
		return err
	}
	t.breakNext = true
	return nil
}

// fail records err in the turn: replacing empty content, otherwise appended
// after what already arrived.
func (t *turn) fail(err error) error {
	msg := "Error: " + describe(err)
	if t.content.Len() == 0 {
		if uerr := t.store.UpdateContent(t.handle, msg); uerr != nil {
			return uerr
		}
		t.content.WriteString(msg)
		return nil
	}
	return t.appendBlock(msg)
}

// round is what one stream produced.
type round struct {
	text    strings.Builder
	calls   []llm.ToolCall
	results []llm.ToolResult
}

// Run streams req into the turn referenced by h until DONE or FAILED. It
// never closes h and never returns an error: failures are written into the
// turn content.
func (r *Reconciler) Run(ctx context.Context, store *transcript.Store, h transcript.Handle, req llm.Request, cfg tools.Config) State {
	t := &turn{store: store, handle: h}
	if cur, ok := store.Turn(h); ok {
		t.content.WriteString(cur.Content)
	}
	turnID, _ := telemetry.TurnIDFromContext(ctx)

	messages := append([]llm.Message(nil), req.Messages...)
	for n := 0; ; n++ {
		if r.window != nil {
			windowed, err := r.window(ctx, messages)
			if err != nil {
				return r.failed(t, err, turnID)
			}
			req.Messages = windowed
		} else {
			req.Messages = messages
		}

		rd, err := r.stream(ctx, t, req, cfg, n)
		if err != nil {
			return r.failed(t, err, turnID)
		}
		if len(rd.calls) == 0 {
			r.transition(StateDone)
			return StateDone
		}
		if n >= r.maxFollowUps {
			r.logger.Info("follow-up limit reached; not sending tool results back",
				"turn_id", turnID, "max_follow_ups", r.maxFollowUps, "calls", len(rd.calls))
			r.transition(StateDone)
			return StateDone
		}

		r.transition(StateFollowUp)
		messages = append(messages,
			llm.Message{Role: llm.RoleAssistant, Text: rd.text.String(), ToolCalls: rd.calls},
			llm.Message{Role: llm.RoleUser, ToolResults: rd.results},
		)
	}
}

// stream consumes one provider stream. Tool calls are executed in arrival
// order while the stream is held open.
func (r *Reconciler) stream(ctx context.Context, t *turn, req llm.Request, cfg tools.Config, n int) (*round, error) {
	r.transition(StateStreaming)
	rd := &round{}

	s, err := r.provider.StreamChat(ctx, req)
	if err != nil {
		return rd, &StreamError{Round: n, Partial: t.content.Len(), Err: err}
	}
	defer s.Close()

	for s.Next() {
		ev := s.Current()
		switch ev.Kind {
		case llm.EventTextDelta:
			if err := t.appendText(ev.Text); err != nil {
				return rd, err
			}
			rd.text.WriteString(ev.Text)
		case llm.EventToolCall:
			call := ev.ToolCall
			if call.ID == "" {
				call.ID = fmt.Sprintf("call_%d_%d", n, len(rd.calls))
			}
			r.transition(StateAwaitingTool)
			res := r.executor.Execute(ctx, call.Name, call.Arguments, cfg)
			if err := t.appendBlock(res.Text); err != nil {
				return rd, err
			}
			rd.calls = append(rd.calls, call)
			rd.results = append(rd.results, llm.ToolResult{CallID: call.ID, Content: res.Text, IsError: res.Failed})
			r.transition(StateStreaming)
		}
	}
	if err := s.Err(); err != nil {
		return rd, &StreamError{Round: n, Partial: t.content.Len(), Err: err}
	}
	return rd, nil
}

func (r *Reconciler) failed(t *turn, err error, turnID string) State {
	r.logger.Warn("turn failed", "turn_id", turnID, "error", err)
	if ferr := t.fail(err); ferr != nil {
		r.logger.Error("could not record failure in transcript", "turn_id", turnID, "error", ferr)
	}
	r.transition(StateFailed)
	return StateFailed
}

func (r *Reconciler) transition(s State) {
	r.logger.Debug("reconciler state", "state", s)
	if r.OnState != nil {
		r.OnState(s)
	}
}
