// Package llm generates free text from a prompt with a hosted model.
package llm

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/internal/config"
	"github.com/visamate/visamate/pkg/anthropic"
)

// Generator completes a single prompt.
type Generator interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// New builds the configured generator, throttled to
// cfg.LLM.RequestsPerMinute, bounded by cfg.LLM.TimeoutSecs and guarded by
// retries and a circuit breaker.
func New(ctx context.Context, cfg *config.Config) (Generator, error) {
	var (
		gen Generator
		err error
	)
	switch cfg.LLM.Provider {
	case "anthropic", "":
		if cfg.Anthropic.Key == "" {
			return nil, eris.New("llm: anthropic provider requires anthropic.key")
		}
		gen = NewAnthropic(anthropic.NewClient(cfg.Anthropic.Key), cfg.Anthropic.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
	case "gemini":
		gen, err = NewGemini(ctx, cfg.Gemini.Key, cfg.Gemini.Model, cfg.LLM.MaxTokens, cfg.LLM.Temperature)
		if err != nil {
			return nil, err
		}
	default:
		return nil, eris.Errorf("llm: unknown provider %q", cfg.LLM.Provider)
	}
	timeout := time.Duration(cfg.LLM.TimeoutSecs) * time.Second
	return NewLimited(gen, cfg.LLM.Provider, cfg.LLM.RequestsPerMinute).WithTimeout(timeout), nil
}
