package ai

import (
	"context"
	"fmt"

	"plume/internal/config"
)

// OutputKind describes the JSON document a tool expects back.
type OutputKind int

// Output shapes: OutputText is {"<field>": "..."}, OutputList is
// {"<field>": [...]}, OutputFeedback is {"feedback", "suggestions"} and
// OutputQuiz is {"quiz": [{"question", "options", "answer"}]}.
const (
	OutputText OutputKind = iota
	OutputList
	OutputFeedback
	OutputQuiz
)

// Expectation is a hint for generators that fabricate output offline.
type Expectation struct {
	Kind  OutputKind
	Field string
	Count int
}

// Request is a single completion request.
type Request struct {
	System    string
	Prompt    string
	MaxTokens int64
	Expect    Expectation
}

// Generator produces one completion. Implementations do not retry.
type Generator interface {
	Name() string
	Generate(ctx context.Context, req *Request) (string, error)
}

// NewGenerator returns the generator selected by cfg.AIProvider.
//
// Supported providers:
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem" - offline generator for development (no API key required)
//
// The lorem generator fabricates well-formed tool JSON itself; the library
// lorem provider only emits plain text, which the tools cannot parse.
func NewGenerator(cfg *config.Config) (Generator, error) {
	switch cfg.AIProvider {
	case "anthropic":
		provider, err := NewProviderFactory(cfg).GetProvider(cfg.AIProvider)
		if err != nil {
			return nil, err
		}
		return NewProviderGenerator(provider, cfg.AIModel)
	case "lorem":
		return NewLoremGenerator(), nil
	default:
		return nil, fmt.Errorf("unsupported AI provider: %s", cfg.AIProvider)
	}
}
