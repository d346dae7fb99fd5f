package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kyuwon/tradewind/internal/llm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Complete(t *testing.T) {
	var received ollamaRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/chat", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&received))
		json.NewEncoder(w).Encode(ollamaResponse{
			Message:         ollamaMessage{Role: "assistant", Content: "allocate 10%"},
			Done:            true,
			DoneReason:      "stop",
			PromptEvalCount: 42,
			EvalCount:       7,
		})
	}))
	defer srv.Close()

	c, err := New(srv.URL, "test-model")
	require.NoError(t, err)
	assert.Equal(t, "ollama", c.Name())

	resp, err := c.Complete(context.Background(), llm.Request{
		System:    "be brief",
		Prompt:    "how much?",
		MaxTokens: 64,
	})
	require.NoError(t, err)

	assert.Equal(t, "allocate 10%", resp.Content)
	assert.Equal(t, "stop", resp.FinishReason)
	assert.Equal(t, 42, resp.InputTokens)
	assert.Equal(t, 7, resp.OutputTokens)

	require.Len(t, received.Messages, 2)
	assert.Equal(t, "system", received.Messages[0].Role)
	assert.Equal(t, "user", received.Messages[1].Role)
	assert.Equal(t, "test-model", received.Model)
	assert.False(t, received.Stream)
}

func TestClient_Complete_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c, err := New(srv.URL, "")
	require.NoError(t, err)

	_, err = c.Complete(context.Background(), llm.Request{Prompt: "hi"})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	c, err := New("", "")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:11434", c.endpoint)
	assert.Equal(t, "qwen2.5:32b", c.model)
}
