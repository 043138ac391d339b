package llm

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dbrag/dbrag-server/internal/apperrors"
	"github.com/dbrag/dbrag-server/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompleteReturnsModelContent(t *testing.T) {
	var (
		gotPath string
		gotAuth string
		gotBody string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")

		body, _ := io.ReadAll(r.Body)
		gotBody = string(body)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"llama2:latest","choices":[{"index":0,"message":{"role":"assistant","content":"SELECT first_name FROM actor LIMIT 5;"},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	generator := NewSQLGenerator(&config.OllamaConfig{
		Host:           server.URL,
		RequestTimeout: 5,
		ContextWindow:  1024,
	})

	sql, err := generator.Complete(context.Background(), "llama2:latest", "Question: list some actors\nSQLQuery: ")
	require.NoError(t, err)
	assert.Equal(t, "SELECT first_name FROM actor LIMIT 5;", sql)

	assert.Equal(t, "/v1/chat/completions", gotPath)
	assert.Equal(t, "Bearer ollama", gotAuth)
	assert.Contains(t, gotBody, `"model":"llama2:latest"`)
	assert.Contains(t, gotBody, `"temperature":0`)
	assert.Contains(t, gotBody, `"num_ctx":1024`)
	assert.Contains(t, gotBody, "list some actors")
}

func TestCompleteUnreachableHost(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	host := server.URL
	server.Close()

	generator := NewSQLGenerator(&config.OllamaConfig{Host: host, RequestTimeout: 1})

	_, err := generator.Complete(context.Background(), "llama2:latest", "prompt")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeModelUnavailable))
}

func TestCompleteEmptyCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"id":"chatcmpl-1","object":"chat.completion","created":1,"model":"llama2:latest","choices":[{"index":0,"message":{"role":"assistant","content":""},"finish_reason":"stop"}]}`))
	}))
	defer server.Close()

	generator := NewSQLGenerator(&config.OllamaConfig{Host: server.URL, RequestTimeout: 5})

	_, err := generator.Complete(context.Background(), "llama2:latest", "prompt")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.CodeGeneration))
}
