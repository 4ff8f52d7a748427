package provider

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/anthropics/anthropic-sdk-go/packages/ssestream"

	"github.com/petasbytes/streamchat/internal/llm"
)

const DefaultModel = anthropic.ModelClaude3_7SonnetLatest
const APIVersion = "2023-06-01"

// DefaultMaxTokens is used when a request does not set MaxTokens.
const DefaultMaxTokens = 1024

// Anthropic streams chats through the Messages API.
type Anthropic struct {
	client anthropic.Client
}

// NewAnthropic returns an adapter. Without options the client reads
// ANTHROPIC_API_KEY from the env.
func NewAnthropic(opts ...option.RequestOption) *Anthropic {
	return &Anthropic{client: anthropic.NewClient(opts...)}
}

func (a *Anthropic) Name() string { return ProviderAnthropic }

func (a *Anthropic) Connect(ctx context.Context) error {
	_, err := a.client.Models.List(ctx, anthropic.ModelListParams{Limit: anthropic.Int(1)})
	return err
}

func (a *Anthropic) StreamChat(ctx context.Context, req llm.Request) (llm.Stream, error) {
	maxTokens := int64(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = DefaultMaxTokens
	}
	model := anthropic.Model(req.Model)
	if req.Model == "" {
		model = DefaultModel
	}
	params := anthropic.MessageNewParams{
		Model:     model,
		MaxTokens: maxTokens,
		Messages:  anthropicMessages(req.Messages),
		Tools:     anthropicTools(req.Tools),
	}
	raw := a.client.Messages.NewStreaming(ctx, params)
	if err := raw.Err(); err != nil {
		_ = raw.Close()
		return nil, err
	}
	return &anthropicStream{raw: raw, pending: make(map[int64]*pendingCall)}, nil
}

func anthropicTools(specs []llm.ToolSpec) []anthropic.ToolUnionParam {
	if len(specs) == 0 {
		return nil
	}
	out := make([]anthropic.ToolUnionParam, 0, len(specs))
	for _, t := range specs {
		schema := anthropic.ToolInputSchemaParam{}
		if t.Parameters != nil {
			schema.Properties = t.Parameters.Properties
			schema.Required = t.Parameters.Required
		}
		out = append(out, anthropic.ToolUnionParam{OfTool: &anthropic.ToolParam{
			Name:        t.Name,
			Description: anthropic.String(t.Description),
			InputSchema: schema,
		}})
	}
	return out
}

func anthropicMessages(msgs []llm.Message) []anthropic.MessageParam {
	out := make([]anthropic.MessageParam, 0, len(msgs))
	for _, m := range msgs {
		var blocks []anthropic.ContentBlockParamUnion
		if m.Text != "" {
			blocks = append(blocks, anthropic.NewTextBlock(m.Text))
		}
		for _, c := range m.ToolCalls {
			blocks = append(blocks, anthropic.NewToolUseBlock(c.ID, arguments(c.Arguments), c.Name))
		}
		for _, r := range m.ToolResults {
			blocks = append(blocks, anthropic.NewToolResultBlock(r.CallID, r.Content, r.IsError))
		}
		if len(blocks) == 0 {
			continue
		}
		if m.Role == llm.RoleAssistant {
			out = append(out, anthropic.NewAssistantMessage(blocks...))
		} else {
			out = append(out, anthropic.NewUserMessage(blocks...))
		}
	}
	return out
}

// arguments normalizes empty tool input to an empty JSON object.
func arguments(raw json.RawMessage) json.RawMessage {
	if strings.TrimSpace(string(raw)) == "" {
		return json.RawMessage("{}")
	}
	return raw
}

type pendingCall struct {
	id   string
	name string
	args strings.Builder
}

func (p *pendingCall) call() llm.ToolCall {
	return llm.ToolCall{ID: p.id, Name: p.name, Arguments: arguments(json.RawMessage(p.args.String()))}
}

// anthropicStream turns SSE events into text deltas and whole tool calls.
// Tool input arrives as partial JSON and is emitted at content_block_stop.
type anthropicStream struct {
	raw     *ssestream.Stream[anthropic.MessageStreamEventUnion]
	pending map[int64]*pendingCall
	cur     llm.StreamEvent
}

func (s *anthropicStream) Next() bool {
	for s.raw.Next() {
		switch ev := s.raw.Current().AsAny().(type) {
		case anthropic.ContentBlockStartEvent:
			if ev.ContentBlock.Type == "tool_use" {
				s.pending[ev.Index] = &pendingCall{id: ev.ContentBlock.ID, name: ev.ContentBlock.Name}
			}
		case anthropic.ContentBlockDeltaEvent:
			switch ev.Delta.Type {
			case "text_delta":
				if ev.Delta.Text != "" {
					s.cur = llm.TextDelta(ev.Delta.Text)
					return true
				}
			case "input_json_delta":
				if p, ok := s.pending[ev.Index]; ok {
					p.args.WriteString(ev.Delta.PartialJSON)
				}
			}
		case anthropic.ContentBlockStopEvent:
			if p, ok := s.pending[ev.Index]; ok {
				delete(s.pending, ev.Index)
				s.cur = llm.ToolCallEvent(p.call())
				return true
			}
		}
	}
	return false
}

func (s *anthropicStream) Current() llm.StreamEvent { return s.cur }

func (s *anthropicStream) Err() error { return s.raw.Err() }

func (s *anthropicStream) Close() error { return s.raw.Close() }
