// Package llm provides the completion-service client used by the query
// pipeline. The provider is a prompt-in/text-out black box; this package
// wraps it with provider selection, proactive rate limiting, and the
// pattern-extraction helpers that defend against free-form model output.
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/firebase/genkit/go/ai"
	"github.com/firebase/genkit/go/genkit"
	"github.com/firebase/genkit/go/plugins/googlegenai"
	"github.com/firebase/genkit/go/plugins/ollama"
	"golang.org/x/time/rate"

	"github.com/querychat/querychat/internal/log"
)

// Provider identifiers.
const (
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
)

// Sentinel errors.
var (
	// ErrProviderInit indicates the completion provider failed to initialize.
	ErrProviderInit = errors.New("provider initialization failed")

	// ErrEmptyResponse indicates the model returned no text.
	ErrEmptyResponse = errors.New("empty model response")
)

// Completer is the completion-service contract the orchestrator consumes:
// one stateless text-in/text-out call that may fail with a provider error.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config contains all required parameters for the Client.
type Config struct {
	Genkit *genkit.Genkit
	Logger log.Logger

	// ModelName is the provider-qualified model, e.g.
	// "googleai/gemini-2.5-flash" or "ollama/llama3.3".
	ModelName string

	// RateLimiter proactively throttles completion calls (nil = disabled).
	RateLimiter *rate.Limiter
}

func (cfg Config) validate() error {
	if cfg.Genkit == nil {
		return errors.New("genkit instance is required")
	}
	if cfg.Logger == nil {
		return errors.New("logger is required")
	}
	if cfg.ModelName == "" {
		return errors.New("model name is required")
	}
	return nil
}

// Client is the genkit-backed Completer. Safe for concurrent use.
type Client struct {
	g       *genkit.Genkit
	model   string
	limiter *rate.Limiter
	logger  log.Logger
}

var _ Completer = (*Client)(nil)

// NewClient creates a completion client.
func NewClient(cfg Config) (*Client, error) {
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &Client{
		g:       cfg.Genkit,
		model:   cfg.ModelName,
		limiter: cfg.RateLimiter,
		logger:  cfg.Logger,
	}, nil
}

// Complete sends prompt to the model and returns its raw text response.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return "", fmt.Errorf("rate limit wait: %w", err)
		}
	}

	resp, err := genkit.Generate(ctx, c.g,
		ai.WithModelName(c.model),
		ai.WithPrompt(prompt),
	)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", ErrEmptyResponse
	}

	c.logger.Debug("completion", "prompt_len", len(prompt), "response_len", len(text))
	return text, nil
}

// InitGenkit initializes genkit with the configured provider plugin.
// Gemini relies on genkit's model auto-discovery; ollama requires an
// explicit model registration.
func InitGenkit(ctx context.Context, provider, modelName, ollamaHost string) (*genkit.Genkit, error) {
	switch provider {
	case ProviderOllama:
		plugin := &ollama.Ollama{ServerAddress: ollamaHost}
		g := genkit.Init(ctx, genkit.WithPlugins(plugin))
		if g == nil {
			return nil, fmt.Errorf("%w: ollama", ErrProviderInit)
		}
		plugin.DefineModel(g, ollama.ModelDefinition{
			Name: strings.TrimPrefix(modelName, "ollama/"),
			Type: "chat",
		}, nil)
		return g, nil

	case ProviderGemini, "":
		g := genkit.Init(ctx, genkit.WithPlugins(&googlegenai.GoogleAI{}))
		if g == nil {
			return nil, fmt.Errorf("%w: gemini", ErrProviderInit)
		}
		return g, nil

	default:
		return nil, fmt.Errorf("%w: unknown provider %q", ErrProviderInit, provider)
	}
}
