package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/juyozufu/internal/config"
)

func TestOpenRouter_VisionRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		assert.Equal(t, "https://github.com/0raclide/oshi3-nihonto", r.Header.Get("HTTP-Referer"))
		assert.Equal(t, "Oshi3 Nihonto OCR Correction", r.Header.Get("X-Title"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"修正済み"}}],"usage":{"prompt_tokens":10,"completion_tokens":4}}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.Client(), "key", srv.URL, "https://github.com/0raclide/oshi3-nihonto")
	resp, err := c.Do(context.Background(), Request{
		Model:       "anthropic/claude-3.5-sonnet",
		Prompt:      "fix it",
		ImageURL:    "https://cdn.example/vol1/item_001_setsumei.jpg",
		MaxTokens:   4000,
		Temperature: 0.1,
		Title:       "Oshi3 Nihonto OCR Correction",
	})
	require.NoError(t, err)
	assert.Equal(t, "修正済み", resp.Text)
	assert.Equal(t, 10, resp.TokensIn)

	assert.Equal(t, "anthropic/claude-3.5-sonnet", got["model"])
	assert.Equal(t, 4000.0, got["max_tokens"])
	assert.Equal(t, 0.1, got["temperature"])
	msgs := got["messages"].([]any)
	require.Len(t, msgs, 1)
	content := msgs[0].(map[string]any)["content"].([]any)
	require.Len(t, content, 2)
	assert.Equal(t, "image_url", content[0].(map[string]any)["type"])
	assert.Equal(t, "https://cdn.example/vol1/item_001_setsumei.jpg",
		content[0].(map[string]any)["image_url"].(map[string]any)["url"])
	assert.Equal(t, "fix it", content[1].(map[string]any)["text"])
}

func TestOpenRouter_TextRequest(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"# Katana"}}]}`))
	}))
	defer srv.Close()

	c := NewOpenRouterClient(srv.Client(), "key", srv.URL, "")
	resp, err := c.Do(context.Background(), Request{Model: "m", Prompt: "translate", Temperature: 0.3, MaxTokens: 8000})
	require.NoError(t, err)
	assert.Equal(t, "# Katana", resp.Text)
	msgs := got["messages"].([]any)
	assert.Equal(t, "translate", msgs[0].(map[string]any)["content"])
}

func TestOpenRouter_Errors(t *testing.T) {
	status := http.StatusTooManyRequests
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(status)
		_, _ = w.Write([]byte(`{"error":{"message":"insufficient credits"}}`))
	}))
	defer srv.Close()
	c := NewOpenRouterClient(srv.Client(), "key", srv.URL, "")

	_, err := c.Do(context.Background(), Request{Model: "m", Prompt: "p"})
	assert.True(t, IsRateLimited(err))

	status = http.StatusPaymentRequired
	_, err = c.Do(context.Background(), Request{Model: "m", Prompt: "p"})
	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusPaymentRequired, httpErr.StatusCode)
	assert.Contains(t, httpErr.Body, "insufficient credits")

	_, err = NewOpenRouterClient(nil, "", "", "").Do(context.Background(), Request{})
	assert.Error(t, err)
}

func TestOpenRouter_EmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"choices":[]}`))
	}))
	defer srv.Close()

	_, err := NewOpenRouterClient(srv.Client(), "key", srv.URL, "").Do(context.Background(), Request{Model: "m", Prompt: "p"})
	assert.ErrorIs(t, err, ErrEmptyResponse)
}

func TestAnthropic_ImageURL(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key", r.Header.Get("x-api-key"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"content":[{"type":"text","text":"ok"}],"usage":{"input_tokens":3,"output_tokens":1}}`))
	}))
	defer srv.Close()

	c := NewAnthropicClient(srv.Client(), "key")
	c.url = srv.URL
	resp, err := c.Do(context.Background(), Request{Model: "anthropic/claude-3.5-sonnet", Prompt: "p", ImageURL: "https://x/y.jpg", MaxTokens: 4000})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Text)
	assert.Equal(t, "claude-3-5-sonnet-latest", got["model"])

	msgs := got["messages"].([]any)
	content := msgs[0].(map[string]any)["content"].([]any)
	source := content[0].(map[string]any)["source"].(map[string]any)
	assert.Equal(t, "url", source["type"])
	assert.Equal(t, "https://x/y.jpg", source["url"])
}

func TestAnthropicModel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"anthropic/claude-3.5-sonnet", "claude-3-5-sonnet-latest"},
		{"anthropic/claude-3.5-sonnet:beta", "claude-3-5-sonnet-latest"},
		{"anthropic/claude-3-haiku", "claude-3-haiku-20240307"},
		{"anthropic/claude-sonnet-4", "claude-sonnet-4-0"},
		{"claude-3-5-sonnet-20241022", "claude-3-5-sonnet-20241022"},
		{"anthropic/claude-4.1-opus", "claude-4-1-opus"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, anthropicModel(tt.in), tt.in)
	}
}

func TestNew_SelectsProvider(t *testing.T) {
	c, err := New(config.CompletionConfig{Provider: "openrouter", OpenRouterKey: "k"})
	require.NoError(t, err)
	assert.Equal(t, "openrouter", c.Name())

	c, err = New(config.CompletionConfig{Provider: "anthropic"})
	require.NoError(t, err)
	assert.Equal(t, "anthropic", c.Name())

	c, err = New(config.CompletionConfig{Provider: "gemini"})
	require.NoError(t, err)
	assert.Equal(t, "gemini", c.Name())

	_, err = New(config.CompletionConfig{Provider: "ollama"})
	assert.Error(t, err)
}

func TestGemini_RequiresInlineImage(t *testing.T) {
	_, err := NewGeminiClient("k").Do(context.Background(), Request{Model: "gemini-1.5-pro", ImageURL: "https://x/y.jpg"})
	assert.Error(t, err)
	assert.Equal(t, "gemini-1.5-pro", geminiModel("google/gemini-1.5-pro"))
}
