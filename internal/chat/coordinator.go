package chat

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/petasbytes/streamchat/internal/llm"
	"github.com/petasbytes/streamchat/internal/telemetry"
	"github.com/petasbytes/streamchat/internal/transcript"
	"github.com/petasbytes/streamchat/internal/windowing"
	"github.com/petasbytes/streamchat/tools"
)

// Persister receives the transcript after each assistant turn closes.
type Persister interface {
	Save(ctx context.Context, turns []transcript.Turn) error
}

// Coordinator owns the per-send lifecycle. At most one send is in flight.
type Coordinator struct {
	provider   llm.Provider
	store      *transcript.Store
	executor   *tools.Executor
	reconciler *Reconciler
	persister  Persister
	logger     *slog.Logger

	tokenBudget  int
	maxTokens    int
	maxFollowUps int
	counter      windowing.TokenCounter

	inFlight  atomic.Bool
	ready     chan struct{}
	readyOnce sync.Once
}

type Option func(*Coordinator)

func WithLogger(l *slog.Logger) Option { return func(c *Coordinator) { c.logger = l } }

// WithPersister hands closed-turn snapshots to p. Save failures are logged only.
func WithPersister(p Persister) Option { return func(c *Coordinator) { c.persister = p } }

func WithMaxFollowUps(n int) Option { return func(c *Coordinator) { c.maxFollowUps = n } }

// WithTokenBudget windows request history to n estimated tokens; n <= 0 sends everything.
func WithTokenBudget(n int) Option { return func(c *Coordinator) { c.tokenBudget = n } }

func WithMaxTokens(n int) Option { return func(c *Coordinator) { c.maxTokens = n } }

// NewCoordinator wires the core around an injected provider.
func NewCoordinator(p llm.Provider, store *transcript.Store, ex *tools.Executor, opts ...Option) *Coordinator {
	c := &Coordinator{
		provider:     p,
		store:        store,
		executor:     ex,
		maxFollowUps: DefaultMaxFollowUps,
		counter:      windowing.HeuristicCounter{},
		ready:        make(chan struct{}),
	}
	for _, o := range opts {
		o(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}
	c.reconciler = NewReconciler(p, ex, c.maxFollowUps, c.logger)
	c.reconciler.window = c.windowMessages
	return c
}

// Reconciler exposes the reconciler, e.g. to observe state transitions.
func (c *Coordinator) Reconciler() *Reconciler { return c.reconciler }

// Store returns the transcript; callers should only read it.
func (c *Coordinator) Store() *transcript.Store { return c.store }

// Connect establishes the provider once. Ready is closed on success.
func (c *Coordinator) Connect(ctx context.Context) error {
	select {
	case <-c.ready:
		return nil
	default:
	}
	if err := c.provider.Connect(ctx); err != nil {
		return fmt.Errorf("%w: %s: %v", llm.ErrProviderUnavailable, c.provider.Name(), err)
	}
	c.readyOnce.Do(func() { close(c.ready) })
	c.logger.Info("provider connected", "provider", c.provider.Name())
	return nil
}

// Ready is closed once Connect has succeeded.
func (c *Coordinator) Ready() <-chan struct{} { return c.ready }

// Busy reports whether a send is in flight.
func (c *Coordinator) Busy() bool { return c.inFlight.Load() }

// Send runs one user turn to completion. Rejections (ErrBlankInput,
// ErrNotReady, ErrTurnInFlight) leave the transcript unchanged. Otherwise
// exactly one user and one assistant turn are appended, and stream or tool
// failures are reported through the returned state and the turn content,
// never as an error.
func (c *Coordinator) Send(ctx context.Context, userText, modelID string, cfg tools.Config) (state State, err error) {
	if strings.TrimSpace(userText) == "" {
		return StateIdle, ErrBlankInput
	}
	select {
	case <-c.ready:
	default:
		return StateIdle, ErrNotReady
	}
	if !c.inFlight.CompareAndSwap(false, true) {
		return StateIdle, ErrTurnInFlight
	}
	defer c.inFlight.Store(false)

	turnID := telemetry.NewTurnID()
	ctx = telemetry.WithTurnID(ctx, turnID)
	start := time.Now()

	if _, err := c.store.Append(transcript.Turn{Role: transcript.RoleUser, Content: userText}); err != nil {
		return StateIdle, fmt.Errorf("chat: append user turn: %w", err)
	}
	h, err := c.store.Append(transcript.Turn{Role: transcript.RoleAssistant, ModelID: modelID})
	if err != nil {
		return StateIdle, fmt.Errorf("chat: append assistant turn: %w", err)
	}

	telemetry.Emit("turn_started", map[string]any{
		"turn_id":  turnID,
		"provider": c.provider.Name(),
		"model":    modelID,
		"tools":    cfg.Enabled(),
		"user":     telemetry.Features(userText),
	})
	c.logger.Info("turn started", "turn_id", turnID, "model", modelID)

	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("turn panicked", "turn_id", turnID, "panic", r)
			state = StateFailed
			t := &turn{store: c.store, handle: h}
			if cur, ok := c.store.Turn(h); ok {
				t.content.WriteString(cur.Content)
			}
			_ = t.fail(fmt.Errorf("internal error: %v", r))
		}
		c.finish(ctx, h, turnID, state, start)
	}()

	req := llm.Request{
		Model:     modelID,
		Messages:  c.history(),
		MaxTokens: c.maxTokens,
	}
	if cfg.Enabled() {
		req.Tools = tools.Specs(c.executor.Definitions())
	}
	return c.reconciler.Run(ctx, c.store, h, req, cfg), nil
}

// finish closes the assistant turn and hands the transcript to persistence.
func (c *Coordinator) finish(ctx context.Context, h transcript.Handle, turnID string, state State, start time.Time) {
	if err := c.store.Close(h); err != nil {
		c.logger.Error("close assistant turn", "turn_id", turnID, "error", err)
	}
	final, _ := c.store.Turn(h)

	telemetry.Emit("turn_finished", map[string]any{
		"turn_id":     turnID,
		"state":       state.String(),
		"duration_ms": time.Since(start).Milliseconds(),
		"assistant":   telemetry.Features(final.Content),
	})
	c.logger.Info("turn finished", "turn_id", turnID, "state", state, "duration", time.Since(start))

	if c.persister == nil {
		return
	}
	// Persistence is best-effort and must outlive a canceled send.
	if err := c.persister.Save(context.WithoutCancel(ctx), c.store.Snapshot()); err != nil {
		c.logger.Warn("failed to save transcript", "turn_id", turnID, "error", err)
	}
}

// history converts the closed transcript into request messages. The open
// assistant placeholder and empty turns are skipped.
func (c *Coordinator) history() []llm.Message {
	snap := c.store.Snapshot()
	msgs := make([]llm.Message, 0, len(snap))
	for _, t := range snap {
		if strings.TrimSpace(t.Content) == "" {
			continue
		}
		role := llm.RoleUser
		if t.Role == transcript.RoleAssistant {
			role = llm.RoleAssistant
		}
		msgs = append(msgs, llm.Message{Role: role, Text: t.Content})
	}
	return msgs
}

func (c *Coordinator) windowMessages(ctx context.Context, msgs []llm.Message) ([]llm.Message, error) {
	if c.tokenBudget <= 0 {
		return msgs, nil
	}
	window, stats := windowing.PrepareSendWindow(msgs, c.tokenBudget, c.counter)
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	telemetry.Emit("window_prepared", map[string]any{
		"turn_id":            turnID,
		"budget":             stats.Budget,
		"total_estimated":    stats.Total,
		"included_groups":    stats.IncludedGroups,
		"skipped_groups":     stats.SkippedGroups,
		"over_budget_newest": stats.OverBudgetNewest,
	})
	c.logger.Debug("window prepared",
		"turn_id", turnID,
		"budget", stats.Budget,
		"total_estimated", stats.Total,
		"included_groups", stats.IncludedGroups,
		"skipped_groups", stats.SkippedGroups,
	)
	if stats.OverBudgetNewest {
		return nil, fmt.Errorf("%w (budget %d)", ErrOverBudget, stats.Budget)
	}
	return window, nil
}
