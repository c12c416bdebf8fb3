// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClaudeBackend_Complete(t *testing.T) {
	var gotBody claudeRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "test-key", r.Header.Get("x-api-key"))
		require.Equal(t, "2023-06-01", r.Header.Get("anthropic-version"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(claudeResponse{
			Content: []claudeContent{
				{Type: "thinking", Text: "ignored"},
				{Type: "text", Text: "  translated text  "},
			},
		})
	}))
	defer srv.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "test-key", Model: "test-model", Client: srv.Client()}
	got, err := backend.Complete(context.Background(), "translate this", 1000)
	require.NoError(t, err)
	assert.Equal(t, "translated text", got)
	assert.Equal(t, "test-model", gotBody.Model)
	assert.Equal(t, 1000, gotBody.MaxTokens)
	require.Len(t, gotBody.Messages, 1)
	assert.Equal(t, "translate this", gotBody.Messages[0].Content)
}

func TestClaudeBackend_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"overloaded"}`, http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "k", Model: "m", Client: srv.Client()}
	_, err := backend.Complete(context.Background(), "p", 100)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
}

func TestClaudeBackend_NoTextContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(claudeResponse{})
	}))
	defer srv.Close()

	oldURL := claudeAPIURL
	claudeAPIURL = srv.URL
	defer func() { claudeAPIURL = oldURL }()

	backend := &ClaudeBackend{APIKey: "k", Model: "m", Client: srv.Client()}
	_, err := backend.Complete(context.Background(), "p", 100)
	require.Error(t, err)
}

func TestOpenAIBackend_Complete(t *testing.T) {
	var gotBody openaiRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))

		json.NewEncoder(w).Encode(openaiResponse{
			Choices: []openaiChoice{
				{Message: openaiMessage{Role: "assistant", Content: "summary text\n"}},
			},
		})
	}))
	defer srv.Close()

	oldURL := openaiAPIURL
	openaiAPIURL = srv.URL
	defer func() { openaiAPIURL = oldURL }()

	backend := &OpenAIBackend{APIKey: "test-key", Model: "test-model", Client: srv.Client()}
	got, err := backend.Complete(context.Background(), "summarize this", 500)
	require.NoError(t, err)
	assert.Equal(t, "summary text", got)
	assert.Equal(t, "test-model", gotBody.Model)
	assert.Equal(t, 500, gotBody.MaxTokens)
}

func TestOpenAIBackend_NoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(openaiResponse{})
	}))
	defer srv.Close()

	oldURL := openaiAPIURL
	openaiAPIURL = srv.URL
	defer func() { openaiAPIURL = oldURL }()

	backend := &OpenAIBackend{APIKey: "k", Model: "m", Client: srv.Client()}
	_, err := backend.Complete(context.Background(), "p", 100)
	require.Error(t, err)
}
