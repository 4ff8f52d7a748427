package provider

import (
	"context"
	"errors"
	"io"
	"maps"
	"slices"

	openai "github.com/sashabaranov/go-openai"

	"github.com/petasbytes/streamchat/internal/llm"
)

const (
	OpenRouterBaseURL      = "https://openrouter.ai/api/v1"
	DefaultOpenAIModel     = openai.GPT4oMini
	DefaultOpenRouterModel = "openai/gpt-4o-mini"
)

// OpenAI streams chats from any OpenAI-compatible endpoint.
type OpenAI struct {
	c     *openai.Client
	name  string
	model string
}

// NewOpenAI returns an adapter. baseURL may be left empty for the default
// OpenAI URL.
func NewOpenAI(name, apiKey, baseURL, defaultModel string) *OpenAI {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}
	return &OpenAI{c: openai.NewClientWithConfig(cfg), name: name, model: defaultModel}
}

func (o *OpenAI) Name() string { return o.name }

func (o *OpenAI) Connect(ctx context.Context) error {
	_, err := o.c.ListModels(ctx)
	return err
}

func (o *OpenAI) StreamChat(ctx context.Context, req llm.Request) (llm.Stream, error) {
	model := req.Model
	if model == "" {
		model = o.model
	}
	creq := openai.ChatCompletionRequest{
		Model:     model,
		Stream:    true,
		MaxTokens: req.MaxTokens,
		Messages:  openaiMessages(req.Messages),
		Tools:     openaiTools(req.Tools),
	}
	raw, err := o.c.CreateChatCompletionStream(ctx, creq)
	if err != nil {
		return nil, err
	}
	return &openaiStream{raw: raw, pending: make(map[int]*pendingCall)}, nil
}

func openaiTools(specs []llm.ToolSpec) []openai.Tool {
	if len(specs) == 0 {
		return nil
	}
	out := make([]openai.Tool, 0, len(specs))
	for _, t := range specs {
		out = append(out, openai.Tool{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        t.Name,
				Description: t.Description,
				Parameters:  t.Parameters,
			},
		})
	}
	return out
}

func openaiMessages(msgs []llm.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, 0, len(msgs))
	for _, m := range msgs {
		if m.Role == llm.RoleAssistant {
			am := openai.ChatCompletionMessage{Role: openai.ChatMessageRoleAssistant, Content: m.Text}
			for _, c := range m.ToolCalls {
				am.ToolCalls = append(am.ToolCalls, openai.ToolCall{
					ID:   c.ID,
					Type: openai.ToolTypeFunction,
					Function: openai.FunctionCall{
						Name:      c.Name,
						Arguments: string(arguments(c.Arguments)),
					},
				})
			}
			out = append(out, am)
			continue
		}
		// Tool results travel as tool-role messages, one per call.
		for _, r := range m.ToolResults {
			out = append(out, openai.ChatCompletionMessage{
				Role:       openai.ChatMessageRoleTool,
				Content:    r.Content,
				ToolCallID: r.CallID,
			})
		}
		if m.Text != "" {
			out = append(out, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: m.Text})
		}
	}
	return out
}

// openaiStream accumulates tool-call fragments by index and emits them when
// the choice finishes with tool_calls or the stream ends.
type openaiStream struct {
	raw     *openai.ChatCompletionStream
	pending map[int]*pendingCall
	queue   []llm.StreamEvent
	cur     llm.StreamEvent
	err     error
	done    bool
}

func (s *openaiStream) Next() bool {
	for {
		if len(s.queue) > 0 {
			s.cur = s.queue[0]
			s.queue = s.queue[1:]
			return true
		}
		if s.done {
			return false
		}
		resp, err := s.raw.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.flush()
			continue
		}
		if err != nil {
			s.err = err
			s.done = true
			return false
		}
		if len(resp.Choices) == 0 {
			continue
		}
		choice := resp.Choices[0]
		if choice.Delta.Content != "" {
			s.queue = append(s.queue, llm.TextDelta(choice.Delta.Content))
		}
		for _, tc := range choice.Delta.ToolCalls {
			idx := 0
			if tc.Index != nil {
				idx = *tc.Index
			}
			p, ok := s.pending[idx]
			if !ok {
				p = &pendingCall{}
				s.pending[idx] = p
			}
			if tc.ID != "" {
				p.id = tc.ID
			}
			if tc.Function.Name != "" {
				p.name = tc.Function.Name
			}
			p.args.WriteString(tc.Function.Arguments)
		}
		if choice.FinishReason == openai.FinishReasonToolCalls {
			s.flush()
		}
	}
}

func (s *openaiStream) flush() {
	for _, idx := range slices.Sorted(maps.Keys(s.pending)) {
		s.queue = append(s.queue, llm.ToolCallEvent(s.pending[idx].call()))
	}
	clear(s.pending)
}

func (s *openaiStream) Current() llm.StreamEvent { return s.cur }

func (s *openaiStream) Err() error { return s.err }

func (s *openaiStream) Close() error {
	return s.raw.Close()
}
