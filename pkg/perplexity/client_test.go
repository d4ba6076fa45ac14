package perplexity

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "sonar-pro", req["model"])
		msgs := req["messages"].([]any)
		require.Len(t, msgs, 2)

		w.Write([]byte(`{
			"id": "resp-1",
			"citations": ["https://county.example.gov/records/123", "https://news.example.com/profile"],
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "Jane Calloway owns two properties in Travis County."}}],
			"usage": {"prompt_tokens": 120, "completion_tokens": 45}
		}`))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	res, err := c.Search(context.Background(), SearchRequest{
		Query:        "What real estate does Jane Calloway of Austin, TX own?",
		SystemPrompt: "Answer only from public records.",
	})
	require.NoError(t, err)
	assert.Contains(t, res.Answer, "Travis County")
	assert.Len(t, res.Citations, 2)
	assert.Equal(t, 45, res.Usage.CompletionTokens)
}

func TestSearch_EmptyQuery(t *testing.T) {
	c := NewClient("test-key")
	_, err := c.Search(context.Background(), SearchRequest{})
	require.Error(t, err)
}

func TestSearch_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte("overloaded"))
	}))
	defer srv.Close()

	c := NewClient("test-key", WithBaseURL(srv.URL))
	_, err := c.Search(context.Background(), SearchRequest{Query: "anything"})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusServiceUnavailable, apiErr.HTTPStatus())
}
