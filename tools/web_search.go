package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/petasbytes/streamchat/internal/search"
)

const WebSearchName = "web_search"

// UnavailableMessage is returned when no search credential is configured.
// It is a normal result, not a failure.
const UnavailableMessage = "Web search unavailable (add TAVILY_API_KEY)."

// Searcher is the search-provider capability used by web_search.
type Searcher interface {
	Search(ctx context.Context, query, apiKey string) ([]search.Result, error)
}

type WebSearchInput struct {
	Query string `json:"query" jsonschema_description:"Search query."`
}

var WebSearchInputSchema = GenerateSchema[WebSearchInput]()

// NewWebSearchDefinition wires web_search to s.
func NewWebSearchDefinition(s Searcher) ToolDefinition {
	return ToolDefinition{
		Name:        WebSearchName,
		Description: "Search the web for up-to-date info when needed.",
		InputSchema: WebSearchInputSchema,
		Function: func(ctx context.Context, cfg Config, input json.RawMessage) (string, error) {
			return webSearch(ctx, s, cfg, input)
		},
	}
}

func webSearch(ctx context.Context, s Searcher, cfg Config, input json.RawMessage) (string, error) {
	if cfg.APIKey == "" {
		return UnavailableMessage, nil
	}
	var in WebSearchInput
	if err := json.Unmarshal(input, &in); err != nil {
		return "", &Failure{Message: fmt.Sprintf("Search failed: invalid arguments: %v", err), Err: err}
	}
	if strings.TrimSpace(in.Query) == "" {
		return "", &Failure{Message: "Search failed: empty query.", Err: search.ErrEmptyQuery}
	}
	results, err := s.Search(ctx, in.Query, cfg.APIKey)
	if err != nil {
		msg := "Search failed: " + err.Error()
		if errors.Is(err, context.DeadlineExceeded) {
			msg = "Search failed: timed out."
		}
		return "", &Failure{Message: msg, Err: err}
	}
	return search.Flatten(results), nil
}
