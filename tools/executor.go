package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/petasbytes/streamchat/internal/telemetry"
)

// Failure is a tool error whose Message is shown verbatim to the model and
// the user.
type Failure struct {
	Message string
	Err     error
}

func (f *Failure) Error() string { return f.Message }

func (f *Failure) Unwrap() error { return f.Err }

// Result is the textual outcome of one tool call. Failed marks a failure
// description; Text is always set.
type Result struct {
	Text   string
	Failed bool
}

// Executor dispatches tool calls to registered definitions.
type Executor struct {
	defs   []ToolDefinition
	logger *slog.Logger
}

func NewExecutor(defs []ToolDefinition, logger *slog.Logger) *Executor {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Executor{defs: defs, logger: logger}
}

// Definitions returns the registered tools.
func (e *Executor) Definitions() []ToolDefinition { return e.defs }

// Execute runs exactly one tool call. It never returns an error and never
// panics: every failure is converted into a Failed result.
func (e *Executor) Execute(ctx context.Context, name string, input json.RawMessage, cfg Config) (res Result) {
	turnID, _ := telemetry.TurnIDFromContext(ctx)
	start := time.Now()

	// Emit a generic error string to avoid leaking raw payloads in telemetry.
	emit := func(outSize int, errStr string) {
		fields := map[string]any{
			"tool_name":   name,
			"duration_ms": time.Since(start).Milliseconds(),
			"input_size":  len(input),
			"output_size": outSize,
			"turn_id":     turnID,
			"error":       nil,
		}
		if errStr != "" {
			fields["error"] = errStr
		}
		telemetry.Emit("tool_exec", fields)
	}

	def := e.lookup(name)
	if def == nil {
		e.logger.Warn("tool not found", "tool", name, "turn_id", turnID)
		emit(0, "tool not found")
		return Result{Text: fmt.Sprintf("Tool %q is not available.", name), Failed: true}
	}

	defer func() {
		if r := recover(); r != nil {
			e.logger.Error("tool panicked", "tool", name, "panic", r)
			emit(0, "tool panic")
			res = Result{Text: fmt.Sprintf("Tool %s failed unexpectedly.", name), Failed: true}
		}
	}()

	if cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.Timeout)
		defer cancel()
	}

	e.logger.Info("executing tool", "tool", name, "turn_id", turnID)
	out, err := def.Function(ctx, cfg, input)
	if err != nil {
		e.logger.Warn("tool execution failed", "tool", name, "error", err)
		emit(0, "tool error")
		var f *Failure
		if errors.As(err, &f) {
			return Result{Text: f.Message, Failed: true}
		}
		return Result{Text: fmt.Sprintf("Tool %s failed: %v", name, err), Failed: true}
	}
	e.logger.Info("tool executed", "tool", name, "result_len", len(out))
	emit(len(out), "")
	return Result{Text: out}
}

func (e *Executor) lookup(name string) *ToolDefinition {
	for i := range e.defs {
		if e.defs[i].Name == name {
			return &e.defs[i]
		}
	}
	return nil
}
