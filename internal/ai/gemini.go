package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient calls Google Gemini through the generative-ai SDK. It needs
// inline image bytes; image URLs are not fetched by the SDK.
type GeminiClient struct {
	apiKey string
	opts   []option.ClientOption
}

func NewGeminiClient(apiKey string, opts ...option.ClientOption) *GeminiClient {
	return &GeminiClient{apiKey: apiKey, opts: opts}
}

func (c *GeminiClient) Name() string { return "gemini" }

func geminiModel(m string) string {
	if i := strings.LastIndex(m, "/"); i >= 0 {
		return m[i+1:]
	}
	return m
}

func (c *GeminiClient) Do(ctx context.Context, req Request) (Response, error) {
	if c.apiKey == "" {
		return Response{}, errors.New("missing GEMINI_API_KEY")
	}
	if req.ImageURL != "" && len(req.ImageData) == 0 {
		return Response{}, errors.New("gemini requires inline image data")
	}

	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(c.apiKey)}, c.opts...)...)
	if err != nil {
		return Response{}, fmt.Errorf("failed to create new gemini client: %w", err)
	}
	defer client.Close()

	model := client.GenerativeModel(geminiModel(req.Model))
	model.SetTemperature(float32(req.Temperature))
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
	if req.SystemPrompt != "" {
		model.SystemInstruction = genai.NewUserContent(genai.Text(req.SystemPrompt))
	}

	var parts []genai.Part
	if len(req.ImageData) > 0 {
		format := strings.TrimPrefix(mimeOrJPEG(req.ImageMIME), "image/")
		parts = append(parts, genai.ImageData(format, req.ImageData))
	}
	parts = append(parts, genai.Text(req.Prompt))

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return Response{}, fmt.Errorf("failed to generate content: %w", err)
	}
	if len(resp.Candidates) == 0 {
		return Response{}, ErrEmptyResponse
	}
	candidate := resp.Candidates[0]
	if candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return Response{}, ErrEmptyResponse
	}

	var sb strings.Builder
	for _, p := range candidate.Content.Parts {
		if txt, ok := p.(genai.Text); ok {
			sb.WriteString(string(txt))
		}
	}
	if sb.Len() == 0 {
		return Response{}, fmt.Errorf("unexpected response format from Gemini")
	}

	out := Response{Text: sb.String()}
	if resp.UsageMetadata != nil {
		out.TokensIn = int(resp.UsageMetadata.PromptTokenCount)
		out.TokensOut = int(resp.UsageMetadata.CandidatesTokenCount)
	}
	return out, nil
}
