package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
)

const defaultOpenRouterURL = "https://openrouter.ai/api/v1/chat/completions"

// OpenRouterClient speaks the OpenAI-compatible chat completions API.
type OpenRouterClient struct {
	http    *http.Client
	apiKey  string
	url     string
	referer string
}

func NewOpenRouterClient(httpClient *http.Client, apiKey, url, referer string) *OpenRouterClient {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	if url == "" {
		url = defaultOpenRouterURL
	}
	return &OpenRouterClient{http: httpClient, apiKey: apiKey, url: url, referer: referer}
}

func (c *OpenRouterClient) Name() string { return "openrouter" }

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or []map[string]any for multimodal
}

type chatReq struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatResp struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
	} `json:"usage"`
}

func (c *OpenRouterClient) Do(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, errors.New("missing OPENROUTER_API_KEY")
	}

	var messages []chatMessage
	if req.SystemPrompt != "" {
		messages = append(messages, chatMessage{Role: "system", Content: req.SystemPrompt})
	}

	// Vision requests put the image before the text; text-only requests send a plain string.
	if req.HasImage() {
		imageURL := req.ImageURL
		if imageURL == "" {
			imageURL = fmt.Sprintf("data:%s;base64,%s", mimeOrJPEG(req.ImageMIME), base64.StdEncoding.EncodeToString(req.ImageData))
		}
		messages = append(messages, chatMessage{Role: "user", Content: []map[string]any{
			{"type": "image_url", "image_url": map[string]string{"url": imageURL}},
			{"type": "text", "text": req.Prompt},
		}})
	} else {
		messages = append(messages, chatMessage{Role: "user", Content: req.Prompt})
	}

	payload := chatReq{
		Model:       req.Model,
		Messages:    messages,
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
	}

	body, _ := json.Marshal(payload)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return Response{}, err
	}
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)
	httpReq.Header.Set("Content-Type", "application/json")
	if c.referer != "" {
		httpReq.Header.Set("HTTP-Referer", c.referer)
	}
	if req.Title != "" {
		httpReq.Header.Set("X-Title", req.Title)
	}

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

	var r chatResp
	if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
		return Response{}, fmt.Errorf("decode openrouter response: %w", err)
	}
	if len(r.Choices) == 0 || r.Choices[0].Message.Content == "" {
		return Response{}, ErrEmptyResponse
	}

	return Response{
		Text:      r.Choices[0].Message.Content,
		TokensIn:  r.Usage.PromptTokens,
		TokensOut: r.Usage.CompletionTokens,
	}, nil
}

func mimeOrJPEG(m string) string {
	if m == "" {
		return "image/jpeg"
	}
	return m
}

// readSnippet returns at most 2KB of an error body.
func readSnippet(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 2048))
	return string(bytes.TrimSpace(b))
}
