// Package provider adapts model APIs to the router's Inference contract.
package provider

import (
	"context"
	"fmt"
	"net/http"
	"os"

	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"
	"github.com/sashabaranov/go-openai"

	"github.com/petasbytes/toolgraph/internal/config"
	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

// Model is an inference backend with a name for events and errors.
type Model interface {
	Name() string
	Generate(ctx context.Context, msgs []memory.Message, defs []tools.ToolDefinition) (memory.Message, error)
}

// New builds the backend selected by cfg.Provider. API keys come from the
// environment: ANTHROPIC_API_KEY, GOOGLE_API_KEY (or GEMINI_API_KEY), OPENAI_API_KEY.
// client may be nil and is not used for Gemini.
func New(ctx context.Context, cfg config.Config, client *http.Client) (Model, error) {
	switch cfg.Provider {
	case "anthropic", "":
		key := os.Getenv("ANTHROPIC_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("ANTHROPIC_API_KEY not set; export it then try again")
		}
		opts := []anthropicopt.RequestOption{anthropicopt.WithAPIKey(key)}
		if client != nil {
			opts = append(opts, anthropicopt.WithHTTPClient(client))
		}
		return NewAnthropic(cfg.Model, cfg.MaxTokens, opts...), nil

	case "gemini":
		key := firstEnv("GOOGLE_API_KEY", "GEMINI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("GOOGLE_API_KEY not set; export it then try again")
		}
		// A custom HTTP client would bypass the API key, so the SDK transport is kept.
		g, err := NewGemini(ctx, key, cfg.Model, cfg.MaxTokens)
		if err != nil {
			return nil, err
		}
		return g, nil

	case "openai":
		key := os.Getenv("OPENAI_API_KEY")
		if key == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set; export it then try again")
		}
		oc := openai.DefaultConfig(key)
		if base := os.Getenv("OPENAI_BASE_URL"); base != "" {
			oc.BaseURL = base
		}
		if client != nil {
			oc.HTTPClient = client
		}
		return NewOpenAI(oc, cfg.Model, cfg.MaxTokens), nil

	default:
		return nil, fmt.Errorf("unknown provider %q", cfg.Provider)
	}
}

func firstEnv(keys ...string) string {
	for _, k := range keys {
		if v := os.Getenv(k); v != "" {
			return v
		}
	}
	return ""
}
