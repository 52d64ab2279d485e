// Package llm turns prompts into answers through an Ollama chat model.
package llm

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
)

type Completer struct {
	llm *ollama.LLM
}

type Config struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewOllamaCompleter(cfg Config) (*Completer, error) {
	log.Debug().
		Str("base_url", cfg.BaseURL).
		Str("chat_model", cfg.Model).
		Msg("initializing completion LLM")

	llm, err := ollama.New(
		ollama.WithServerURL(cfg.BaseURL),
		ollama.WithModel(cfg.Model),
		ollama.WithHTTPClient(&http.Client{Timeout: cfg.Timeout}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize chat LLM: %w", err)
	}
	return &Completer{llm: llm}, nil
}

// Complete returns the model's full answer for the prompt.
func (c *Completer) Complete(ctx context.Context, prompt string) (string, error) {
	answer, err := llms.GenerateFromSinglePrompt(ctx, c.llm, prompt)
	if err != nil {
		return "", fmt.Errorf("failed to get LLM response: %w", err)
	}
	return answer, nil
}
