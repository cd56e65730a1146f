package ai

import (
	"context"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"google.golang.org/api/googleapi/transport"
	"google.golang.org/api/option"
)

// RuntimeFactory builds a Runtime from the generic config below.
type RuntimeFactory func(ctx context.Context, cfg RuntimeConfig) (Runtime, error)

// RuntimeConfig carries common knobs used by runtimes.
type RuntimeConfig struct {
	HTTPTimeout time.Duration
	// Gemini, OpenRouter
	APIKey string
	// Ollama
	Host string
	// BaseURL overrides the OpenRouter endpoint.
	BaseURL string
}

var registry = map[string]RuntimeFactory{}

// RegisterRuntime registers a provider name with its factory.
func RegisterRuntime(name string, f RuntimeFactory) { registry[strings.ToLower(name)] = f }

// GetRuntime creates a Runtime for the given provider.
func GetRuntime(ctx context.Context, name string, cfg RuntimeConfig) (Runtime, error) {
	f, ok := registry[strings.ToLower(name)]
	if !ok {
		return nil, fmt.Errorf("%w %q (known: %s)", ErrUnknownProvider, name, strings.Join(Providers(), ", "))
	}
	return f(ctx, cfg)
}

// Providers lists the registered provider names.
func Providers() []string {
	out := make([]string, 0, len(registry))
	for k := range registry {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func init() {
	RegisterRuntime(ProviderGemini, func(ctx context.Context, c RuntimeConfig) (Runtime, error) {
		var opts []option.ClientOption
		if hc := geminiHTTPClient(c.APIKey, c.HTTPTimeout); hc != nil {
			opts = append(opts, option.WithHTTPClient(hc))
		}
		return NewGeminiClient(ctx, c.APIKey, opts...)
	})
	RegisterRuntime(ProviderOpenRouter, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		if c.APIKey == "" {
			return nil, fmt.Errorf("openrouter: %w", ErrMissingAPIKey)
		}
		return NewClientWithBaseURL(c.APIKey, c.HTTPTimeout, c.BaseURL), nil
	})
	RegisterRuntime(ProviderOllama, func(_ context.Context, c RuntimeConfig) (Runtime, error) {
		return NewOllamaClient(c.Host, c.HTTPTimeout), nil
	})
}

// geminiHTTPClient bounds Gemini calls by timeout. A custom client bypasses
// option.WithAPIKey, so the key rides on the transport instead.
func geminiHTTPClient(apiKey string, timeout time.Duration) *http.Client {
	if timeout <= 0 || apiKey == "" {
		return nil
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &transport.APIKey{Key: apiKey},
	}
}
