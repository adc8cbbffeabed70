package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

const defaultAnthropicURL = "https://api.anthropic.com/v1/messages"

type AnthropicClient struct {
	http   *http.Client
	apiKey string
	url    string
}

func NewAnthropicClient(httpClient *http.Client, apiKey string) *AnthropicClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &AnthropicClient{http: httpClient, apiKey: apiKey, url: defaultAnthropicURL}
}

func (c *AnthropicClient) Name() string { return "anthropic" }

type anthropicMsgReq struct {
	Model       string             `json:"model"`
	MaxTokens   int                `json:"max_tokens"`
	Temperature float64            `json:"temperature"`
	System      string             `json:"system,omitempty"`
	Messages    []anthropicMessage `json:"messages"`
}

type anthropicMessage struct {
	Role    string           `json:"role"`
	Content []map[string]any `json:"content"`
}

type anthropicMsgResp struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	Usage struct {
		InputTokens  int `json:"input_tokens"`
		OutputTokens int `json:"output_tokens"`
	} `json:"usage"`
}

// anthropicModels maps OpenRouter model ids to Messages API ids.
var anthropicModels = map[string]string{
	"claude-3-haiku":    "claude-3-haiku-20240307",
	"claude-3-opus":     "claude-3-opus-latest",
	"claude-3.5-haiku":  "claude-3-5-haiku-latest",
	"claude-3.5-sonnet": "claude-3-5-sonnet-latest",
	"claude-3.7-sonnet": "claude-3-7-sonnet-latest",
	"claude-sonnet-4":   "claude-sonnet-4-0",
	"claude-opus-4":     "claude-opus-4-0",
}

// anthropicModel converts an OpenRouter id such as anthropic/claude-3.5-sonnet
// to its native form. Unknown ids lose the vendor prefix and variant suffix,
// and dotted versions become dashed.
func anthropicModel(m string) string {
	m = strings.TrimPrefix(m, "anthropic/")
	if i := strings.IndexByte(m, ':'); i >= 0 {
		m = m[:i]
	}
	if native, ok := anthropicModels[m]; ok {
		return native
	}
	return strings.ReplaceAll(m, ".", "-")
}

func (c *AnthropicClient) Do(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, errors.New("missing ANTHROPIC_API_KEY")
	}

	var content []map[string]any
	switch {
	case req.ImageURL != "":
		content = append(content, map[string]any{"type": "image", "source": map[string]string{"type": "url", "url": req.ImageURL}})
	case len(req.ImageData) > 0:
		content = append(content, map[string]any{"type": "image", "source": map[string]string{
			"type": "base64", "media_type": mimeOrJPEG(req.ImageMIME), "data": base64.StdEncoding.EncodeToString(req.ImageData),
		}})
	}
	content = append(content, map[string]any{"type": "text", "text": req.Prompt})

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = 1024
	}
	payload := anthropicMsgReq{
		Model:       anthropicModel(req.Model),
		MaxTokens:   maxTokens,
		Temperature: req.Temperature,
		System:      req.SystemPrompt,
		Messages:    []anthropicMessage{{Role: "user", Content: content}},
	}
	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("x-api-key", c.apiKey)
	httpReq.Header.Set("anthropic-version", "2023-06-01")
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return Response{}, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusTooManyRequests {
		return Response{}, ErrRateLimited
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return Response{}, &HTTPError{Provider: c.Name(), StatusCode: resp.StatusCode, Body: readSnippet(resp.Body)}
	}

	var r anthropicMsgResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Response{}, fmt.Errorf("decode anthropic response: %w", err)
	}
	var sb strings.Builder
	for _, part := range r.Content {
		if part.Type == "" || part.Type == "text" {
			sb.WriteString(part.Text)
		}
	}
	if sb.Len() == 0 {
		return Response{}, ErrEmptyResponse
	}
	return Response{Text: sb.String(), TokensIn: r.Usage.InputTokens, TokensOut: r.Usage.OutputTokens}, nil
}
