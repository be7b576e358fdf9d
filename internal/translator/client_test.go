package translator

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newChatServer(t *testing.T, reply string, got *chatRequest) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(got))

		response := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": reply}},
			},
		}
		_ = json.NewEncoder(w).Encode(response)
	}))
	t.Cleanup(server.Close)
	return server
}

func TestTranslate(t *testing.T) {
	var got chatRequest
	server := newChatServer(t, "Перевод: привет\nПримеры:\n1. Hello! - Привет!", &got)

	client := NewOpenAIClient(server.URL, "sk-test", "gpt-4o")
	result, err := client.Translate(context.Background(), "hello")
	require.NoError(t, err)
	assert.Equal(t, "Перевод: привет\nПримеры:\n1. Hello! - Привет!", result)

	assert.Equal(t, "gpt-4o", got.Model)
	assert.Zero(t, got.Temperature)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "system", got.Messages[0].Role)
	assert.Equal(t, "user", got.Messages[1].Role)
	// The source text is substituted into the prompt
	assert.Contains(t, got.Messages[1].Content, "hello")
	assert.NotContains(t, got.Messages[1].Content, "{text}")
}

func TestExtractKeyword(t *testing.T) {
	var got chatRequest
	server := newChatServer(t, "  cat \n", &got)

	client := NewOpenAIClient(server.URL, "sk-test", "")
	keyword, err := client.ExtractKeyword(context.Background(), "a big cat")
	require.NoError(t, err)
	assert.Equal(t, "cat", keyword)
	assert.Equal(t, DefaultModel, got.Model)
}

func TestCompleteErrors(t *testing.T) {
	t.Run("non-200 status", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error": {"message": "rate limited"}}`))
		}))
		defer server.Close()

		client := NewOpenAIClient(server.URL, "sk-test", "")
		_, err := client.Translate(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "429")
	})

	t.Run("empty choices", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			_, _ = w.Write([]byte(`{"choices": []}`))
		}))
		defer server.Close()

		client := NewOpenAIClient(server.URL, "sk-test", "")
		_, err := client.Translate(context.Background(), "hello")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no choices")
	})
}
