// Package llm implements the model-backed trading strategy: it renders a
// prompt from the snapshot and portfolio, calls an OpenAI-compatible chat
// endpoint, and parses the structured answer into a trade decision. Any
// backend or parse failure is contained as a PASS decision so one market can
// never poison its siblings.
package llm

import (
	"context"
	"fmt"
	"time"

	"polytrader/internal/config"
	"polytrader/internal/gateway/provider"
	"polytrader/internal/logger"
	"polytrader/internal/model"
)

// chatBackend is the minimal surface the strategy needs from the provider.
type chatBackend interface {
	Call(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Strategy asks a language model for one decision per market per cycle.
type Strategy struct {
	backend chatBackend
	prompts *promptRegistry
	model   string
}

func New(cfg config.LLMConfig) (*Strategy, error) {
	prompts, err := newPromptRegistry(cfg.PromptTemplate)
	if err != nil {
		return nil, err
	}
	client := &provider.ChatClient{
		BaseURL:     cfg.APIURL,
		APIKey:      cfg.APIKey,
		Model:       cfg.Model,
		Temperature: cfg.Temperature,
		MaxTokens:   cfg.MaxTokens,
		Timeout:     time.Duration(cfg.TimeoutSeconds) * time.Second,
	}
	return &Strategy{backend: client, prompts: prompts, model: cfg.Model}, nil
}

// NewWithBackend wires a custom backend; used by tests and replay harnesses.
func NewWithBackend(backend chatBackend, modelName string) *Strategy {
	return &Strategy{backend: backend, prompts: &promptRegistry{system: defaultSystemPrompt}, model: modelName}
}

func (s *Strategy) Name() string {
	return fmt.Sprintf("llm (%s)", s.model)
}

func (s *Strategy) Analyze(ctx context.Context, snap model.MarketSnapshot, portfolio model.PortfolioSummary, existing *model.Position) (model.Decision, error) {
	system := s.prompts.System()
	user := buildUserPrompt(snap, portfolio, existing)
	logger.LogLLMRequest(snap.Slug, system, user, "")

	raw, err := s.backend.Call(ctx, system, user)
	if err != nil {
		return model.Decision{}, fmt.Errorf("model call failed: %w", err)
	}
	logger.LogLLMResponse(snap.Slug, raw)

	decision, err := parseDecision(raw, snap)
	if err != nil {
		return model.Decision{}, err
	}
	return decision, nil
}

// Close stops the prompt template watcher.
func (s *Strategy) Close() error {
	if s.prompts == nil {
		return nil
	}
	return s.prompts.Close()
}
