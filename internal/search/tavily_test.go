package search_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petasbytes/streamchat/internal/search"
)

func TestSearch_PostsQueryAndDecodesResults(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"results":[
			{"title":"Weather","url":"https://a.example","content":"Sunny, 20C"},
			{"title":"Other","url":"https://b.example","content":"Cloudy later"}
		]}`))
	}))
	defer srv.Close()

	c := search.New(search.WithEndpoint(srv.URL), search.WithMaxResults(3), search.WithRateLimit(0, 0))
	results, err := c.Search(context.Background(), "  weather  ", "k-123")
	require.NoError(t, err)
	require.Len(t, results, 2)
	require.Equal(t, "https://a.example", results[0].URL)

	require.Equal(t, "weather", got["query"])
	require.Equal(t, "k-123", got["api_key"])
	require.Equal(t, float64(3), got["max_results"])
}

func TestSearch_Non2xxReturnsAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := search.New(search.WithEndpoint(srv.URL), search.WithRateLimit(0, 0))
	_, err := c.Search(context.Background(), "q", "k")

	var apiErr *search.APIError
	require.True(t, errors.As(err, &apiErr), "want *APIError, got %v", err)
	require.Equal(t, http.StatusUnauthorized, apiErr.Status)
	require.Contains(t, apiErr.Error(), "bad key")
}

func TestSearch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{oops`))
	}))
	defer srv.Close()

	c := search.New(search.WithEndpoint(srv.URL), search.WithRateLimit(0, 0))
	_, err := c.Search(context.Background(), "q", "k")
	require.ErrorContains(t, err, "decode response")
}

func TestSearch_ValidatesInputsWithoutHTTP(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
	}))
	defer srv.Close()

	c := search.New(search.WithEndpoint(srv.URL))
	_, err := c.Search(context.Background(), "   ", "k")
	require.ErrorIs(t, err, search.ErrEmptyQuery)
	_, err = c.Search(context.Background(), "q", "")
	require.ErrorIs(t, err, search.ErrMissingKey)
	require.Zero(t, calls.Load())
}

func TestSearch_ExactlyOneRequestOnFailure(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := search.New(search.WithEndpoint(srv.URL), search.WithRateLimit(0, 0))
	_, err := c.Search(context.Background(), "q", "k")
	require.Error(t, err)
	require.Equal(t, int32(1), calls.Load())
}

func TestSearch_ContextTimeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()

	c := search.New(search.WithEndpoint(srv.URL), search.WithRateLimit(0, 0))
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := c.Search(ctx, "q", "k")
	require.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestFlatten(t *testing.T) {
	require.Equal(t, "No results found.", search.Flatten(nil))

	got := search.Flatten([]search.Result{
		{Title: "A", URL: "https://a", Content: "Sunny, 20C"},
		{Title: "Only title", URL: "https://b"},
	})
	require.Equal(t, "Sunny, 20C [Source: https://a]\nOnly title [Source: https://b]", got)
}
