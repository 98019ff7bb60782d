package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	llmprovider "github.com/haowjy/meridian-llm-go"
	anthropicprovider "github.com/haowjy/meridian-llm-go/providers/anthropic"
	"github.com/haowjy/meridian-llm-go/providers/lorem"

	"plume/internal/config"
)

const defaultMaxTokens = 1024

// ProviderFactory creates LLM provider instances from configuration.
type ProviderFactory struct {
	config *config.Config
}

// NewProviderFactory creates a new provider factory
func NewProviderFactory(cfg *config.Config) *ProviderFactory {
	return &ProviderFactory{config: cfg}
}

// GetProvider returns a provider instance for the given provider name
//
// Supported providers:
//   - "anthropic" - Claude models via Anthropic API
//   - "lorem" - mock provider emitting plain lorem ipsum (no API key required)
func (f *ProviderFactory) GetProvider(providerName string) (llmprovider.Provider, error) {
	switch providerName {
	case "anthropic":
		if f.config.AnthropicAPIKey == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY environment variable not set")
		}
		provider, err := anthropicprovider.NewProvider(f.config.AnthropicAPIKey)
		if err != nil {
			return nil, fmt.Errorf("failed to create Anthropic provider: %w", err)
		}
		return provider, nil

	case "lorem":
		return lorem.NewProvider(), nil

	default:
		return nil, fmt.Errorf("unsupported provider: %s", providerName)
	}
}

// ProviderGenerator adapts an llmprovider.Provider to a single-shot Generator.
type ProviderGenerator struct {
	provider llmprovider.Provider
	model    string
}

// NewProviderGenerator wraps provider for model.
func NewProviderGenerator(provider llmprovider.Provider, model string) (*ProviderGenerator, error) {
	if !provider.SupportsModel(model) {
		return nil, fmt.Errorf("model '%s' is not supported by %s provider", model, provider.Name().String())
	}
	return &ProviderGenerator{provider: provider, model: model}, nil
}

func (g *ProviderGenerator) Name() string {
	return g.provider.Name().String()
}

func (g *ProviderGenerator) Generate(ctx context.Context, req *Request) (string, error) {
	resp, err := g.provider.GenerateResponse(ctx, buildRequest(g.model, req))
	if err != nil {
		if status := upstreamStatus(err); status != 0 {
			return "", fmt.Errorf("%s API call failed (status %d): %w", g.Name(), status, err)
		}
		return "", fmt.Errorf("%s API call failed: %w", g.Name(), err)
	}
	return responseText(resp)
}

// buildRequest turns a completion request into a one-message conversation.
func buildRequest(model string, req *Request) *llmprovider.GenerateRequest {
	prompt := req.Prompt
	maxTokens := int(req.MaxTokens)
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	params := &llmprovider.RequestParams{MaxTokens: &maxTokens}
	if req.System != "" {
		system := req.System
		params.System = &system
	}

	return &llmprovider.GenerateRequest{
		Messages: []llmprovider.Message{
			{
				Role: "user",
				Blocks: []*llmprovider.Block{
					{BlockType: "text", TextContent: &prompt},
				},
			},
		},
		Model:  model,
		Params: params,
	}
}

// responseText joins the text blocks of resp in order.
func responseText(resp *llmprovider.GenerateResponse) (string, error) {
	var sb strings.Builder
	for _, block := range resp.Blocks {
		if block == nil || block.BlockType != "text" || block.TextContent == nil {
			continue
		}
		sb.WriteString(*block.TextContent)
	}
	if sb.Len() == 0 {
		return "", fmt.Errorf("response had no text (stop_reason=%s)", resp.StopReason)
	}
	return sb.String(), nil
}

// upstreamStatus reports the HTTP status of an Anthropic API error, or 0.
func upstreamStatus(err error) int {
	var apiErr *anthropic.Error
	if errors.As(err, &apiErr) {
		return apiErr.StatusCode
	}
	return 0
}
