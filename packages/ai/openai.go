package ai

import (
	"context"
	"fmt"

	"docsync-agent/packages/config"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// openAIBackend talks to any OpenAI-compatible endpoint through langchaingo.
type openAIBackend struct {
	llm  llms.Model
	opts []llms.CallOption
}

func newOpenAIBackend(cfg config.AIConfig) (*openAIBackend, error) {
	llm, err := openai.New(openai.WithToken(cfg.APIKey), openai.WithModel(cfg.Model))
	if err != nil {
		return nil, fmt.Errorf("failed to create OpenAI client: %w", err)
	}

	opts := []llms.CallOption{llms.WithTemperature(float64(cfg.Temperature))}
	if cfg.MaxOutputTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(int(cfg.MaxOutputTokens)))
	}
	return &openAIBackend{llm: llm, opts: opts}, nil
}

func (o *openAIBackend) complete(ctx context.Context, prompt string) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, o.llm, prompt, o.opts...)
}

func (o *openAIBackend) Close() error { return nil }
