package ai

import (
	"context"
	"fmt"
)

// Runtime is implemented by text-generation backends such as Gemini,
// OpenRouter and a local Ollama.
type Runtime interface {
	Generate(ctx context.Context, req GenerateRequest) (Completion, error)
}

// Provider identifiers used for runtime selection.
const (
	ProviderGemini     = "gemini"
	ProviderOpenRouter = "openrouter"
	ProviderOllama     = "ollama"
)

// Completion is the result of a generation call. It is either RawText or
// StructuredResponse; Text extracts the content of both.
type Completion interface {
	isCompletion()
}

// RawText is a completion delivered as bare text.
type RawText string

// StructuredResponse is a completion delivered inside a provider envelope.
type StructuredResponse struct {
	Content   string
	Model     string
	RequestID string
	Usage     Usage
}

func (RawText) isCompletion() {}
func (StructuredResponse) isCompletion() {}

// Text extracts the generated text from c.
func Text(c Completion) (string, error) {
	switch v := c.(type) {
	case RawText:
		return string(v), nil
	case StructuredResponse:
		return v.Content, nil
	case *StructuredResponse:
		if v == nil {
			return "", ErrEmptyCompletion
		}
		return v.Content, nil
	case nil:
		return "", ErrEmptyCompletion
	default:
		return "", fmt.Errorf("unknown completion type %T", c)
	}
}
