package ai

import "strings"

// ModelInfo is the small amount of metadata used to size prompts.
type ModelInfo struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"`
	ContextTokens int    `json:"context_tokens"` // approximate context window
}

var models = map[string]ModelInfo{
	"gemini-pro":                {Name: "gemini-pro", Provider: ProviderGemini, ContextTokens: 30720},
	"gemini-1.5-flash":          {Name: "gemini-1.5-flash", Provider: ProviderGemini, ContextTokens: 1000000},
	"gemini-1.5-pro":            {Name: "gemini-1.5-pro", Provider: ProviderGemini, ContextTokens: 2000000},
	"google/gemini-1.5-flash":   {Name: "google/gemini-1.5-flash", Provider: ProviderOpenRouter, ContextTokens: 1000000},
	"openai/gpt-4o-mini":        {Name: "openai/gpt-4o-mini", Provider: ProviderOpenRouter, ContextTokens: 128000},
	"deepseek/deepseek-r1:free": {Name: "deepseek/deepseek-r1:free", Provider: ProviderOpenRouter, ContextTokens: 128000},
	"llama3:latest":             {Name: "llama3:latest", Provider: ProviderOllama, ContextTokens: 8192},
	"mistral:7b-instruct":       {Name: "mistral:7b-instruct", Provider: ProviderOllama, ContextTokens: 8192},
	"phi3:mini-4k-instruct":     {Name: "phi3:mini-4k-instruct", Provider: ProviderOllama, ContextTokens: 4096},
}

var defaultModels = map[string]string{
	ProviderGemini:     DefaultGeminiModel,
	ProviderOpenRouter: "google/gemini-1.5-flash",
	ProviderOllama:     "llama3:latest",
}

// LookupModel returns ModelInfo and ok flag.
func LookupModel(name string) (ModelInfo, bool) {
	mi, ok := models[name]
	return mi, ok
}

// DefaultModel returns the model used for a provider when none is configured.
func DefaultModel(provider string) string {
	return defaultModels[strings.ToLower(provider)]
}

// Catalog returns a copy of the known models, optionally limited to one
// provider.
func Catalog(provider string) map[string]ModelInfo {
	provider = strings.ToLower(provider)
	out := make(map[string]ModelInfo, len(models))
	for k, v := range models {
		if provider == "" || v.Provider == provider {
			out[k] = v
		}
	}
	return out
}
