package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/visamate/visamate/pkg/anthropic"
)

const systemPrompt = "You are an expert Canadian immigration consultant who writes clear, honest and specific statements of purpose for study permit applications."

// Anthropic generates text with Claude.
type Anthropic struct {
	client      anthropic.Client
	model       string
	maxTokens   int64
	temperature float64
}

// NewAnthropic wraps client. Zero maxTokens defaults to 4096.
func NewAnthropic(client anthropic.Client, model string, maxTokens int, temperature float64) *Anthropic {
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Anthropic{client: client, model: model, maxTokens: int64(maxTokens), temperature: temperature}
}

func (a *Anthropic) Complete(ctx context.Context, prompt string) (string, error) {
	temp := a.temperature
	resp, err := a.client.CreateMessage(ctx, anthropic.MessageRequest{
		Model:       a.model,
		MaxTokens:   a.maxTokens,
		System:      []anthropic.SystemBlock{{Text: systemPrompt, CacheControl: &anthropic.CacheControl{}}},
		Messages:    []anthropic.Message{{Role: "user", Content: prompt}},
		Temperature: &temp,
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: anthropic complete")
	}
	resp.Usage.LogCost(a.model, "sop")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.Errorf("llm: anthropic returned no text (stop reason %s)", resp.StopReason)
	}
	return text, nil
}
