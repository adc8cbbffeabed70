package ai

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/local/juyozufu/internal/config"
	"github.com/local/juyozufu/internal/metrics"
)

// New returns the configured provider wrapped with request metrics.
func New(cfg config.CompletionConfig) (Client, error) {
	httpClient := &http.Client{Timeout: cfg.Timeout}
	var c Client
	switch cfg.Provider {
	case "", "openrouter":
		c = NewOpenRouterClient(httpClient, cfg.OpenRouterKey, cfg.OpenRouterURL, cfg.Referer)
	case "anthropic":
		c = NewAnthropicClient(httpClient, cfg.AnthropicKey)
	case "gemini":
		c = NewGeminiClient(cfg.GeminiKey)
	default:
		return nil, fmt.Errorf("unsupported completion provider %q", cfg.Provider)
	}
	return Instrument(c), nil
}

type instrumented struct{ Client }

// Instrument records latency and outcome of every call on the provider metrics.
func Instrument(c Client) Client { return instrumented{c} }

func (i instrumented) Do(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	resp, err := i.Client.Do(ctx, req)
	dur := time.Since(start)

	result := metrics.Result(err)
	if IsRateLimited(err) {
		result = "rate_limited"
	}
	metrics.ObserveProvider(i.Name(), req.Model, result, dur)

	ev := log.Debug()
	if err != nil {
		ev = log.Warn().Err(err)
	}
	ev.Str("provider", i.Name()).Str("model", req.Model).Dur("duration", dur).
		Int("tokens_in", resp.TokensIn).Int("tokens_out", resp.TokensOut).Msg("completion request")
	return resp, err
}
