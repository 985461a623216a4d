package llm

import (
	"context"
	"strings"

	"github.com/rotisserie/eris"
	"google.golang.org/genai"
)

// geminiModels is the part of *genai.Models used here.
type geminiModels interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini generates text with Google Gemini.
type Gemini struct {
	models      geminiModels
	model       string
	maxTokens   int32
	temperature float32
}

// NewGemini creates a Gemini API client.
func NewGemini(ctx context.Context, apiKey, model string, maxTokens int, temperature float64) (*Gemini, error) {
	if apiKey == "" {
		return nil, eris.New("llm: gemini provider requires gemini.key")
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, eris.Wrap(err, "llm: create gemini client")
	}
	return newGemini(client.Models, model, maxTokens, temperature), nil
}

func newGemini(models geminiModels, model string, maxTokens int, temperature float64) *Gemini {
	if model == "" {
		model = "gemini-2.5-flash"
	}
	if maxTokens <= 0 {
		maxTokens = 4096
	}
	return &Gemini{models: models, model: model, maxTokens: int32(maxTokens), temperature: float32(temperature)}
}

func (g *Gemini) Complete(ctx context.Context, prompt string) (string, error) {
	temp := g.temperature
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(prompt), &genai.GenerateContentConfig{
		Temperature:       &temp,
		MaxOutputTokens:   g.maxTokens,
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
	})
	if err != nil {
		return "", eris.Wrap(err, "llm: gemini generate content")
	}
	if resp == nil {
		return "", eris.New("llm: gemini returned no response")
	}
	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("llm: gemini returned no text")
	}
	return text, nil
}
