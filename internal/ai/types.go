package ai

import (
	"context"
	"errors"
	"fmt"
)

// Request is one chat completion call. ImageURL and ImageData are alternative
// ways to attach the page image; providers use whichever they support.
type Request struct {
	Model        string
	SystemPrompt string
	Prompt       string
	ImageURL     string
	ImageData    []byte
	ImageMIME    string // image/jpeg
	MaxTokens    int
	Temperature  float64
	Title        string // attribution title, sent by providers that accept one
}

// HasImage reports whether the request carries an image part.
func (r Request) HasImage() bool { return r.ImageURL != "" || len(r.ImageData) > 0 }

type Response struct {
	Text      string
	TokensIn  int
	TokensOut int
}

// Client interface for completion providers like OpenRouter, Anthropic, Gemini.
type Client interface {
	Name() string
	Do(ctx context.Context, req Request) (Response, error)
}

var (
	ErrRateLimited   = errors.New("rate_limited")
	ErrEmptyResponse = errors.New("empty_response")
)

// HTTPError is a non-2xx provider response.
type HTTPError struct {
	Provider   string
	StatusCode int
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("%s status %d: %s", e.Provider, e.StatusCode, e.Body)
}

func IsRateLimited(err error) bool { return errors.Is(err, ErrRateLimited) }
