package chat_test

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/petasbytes/streamchat/internal/chat"
	"github.com/petasbytes/streamchat/internal/llm"
	"github.com/petasbytes/streamchat/internal/llm/llmtest"
	"github.com/petasbytes/streamchat/internal/search"
	"github.com/petasbytes/streamchat/internal/transcript"
	"github.com/petasbytes/streamchat/tools"
)

var withKey = tools.Config{APIKey: "tvly-test"}

type fakeSearcher struct {
	mu      sync.Mutex
	results map[string][]search.Result
	err     error
	queries []string
}

func (f *fakeSearcher) Search(ctx context.Context, query, apiKey string) ([]search.Result, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, query)
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeSearcher) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.queries...)
}

type fakePersister struct {
	mu    sync.Mutex
	err   error
	saves [][]transcript.Turn
	ctxs  []context.Context
}

func (p *fakePersister) Save(ctx context.Context, turns []transcript.Turn) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.saves = append(p.saves, turns)
	p.ctxs = append(p.ctxs, ctx)
	return p.err
}

func searchCall(id, query string) llm.StreamEvent {
	b, _ := json.Marshal(map[string]string{"query": query})
	return llm.ToolCallEvent(llm.ToolCall{ID: id, Name: tools.WebSearchName, Arguments: b})
}

func text(parts ...string) []llm.StreamEvent {
	evs := make([]llm.StreamEvent, 0, len(parts))
	for _, p := range parts {
		evs = append(evs, llm.TextDelta(p))
	}
	return evs
}

// newCoordinator returns a connected coordinator over an empty transcript.
func newCoordinator(t *testing.T, p llm.Provider, s tools.Searcher, opts ...chat.Option) *chat.Coordinator {
	t.Helper()
	if s == nil {
		s = &fakeSearcher{}
	}
	ex := tools.NewExecutor(tools.Registry(s), nil)
	c := chat.NewCoordinator(p, transcript.New(nil), ex, opts...)
	require.NoError(t, c.Connect(context.Background()))
	return c
}

func lastContent(t *testing.T, c *chat.Coordinator) string {
	t.Helper()
	snap := c.Store().Snapshot()
	require.NotEmpty(t, snap)
	return snap[len(snap)-1].Content
}

var _ llm.Provider = (*llmtest.Provider)(nil)

var errBoom = errors.New("boom")
