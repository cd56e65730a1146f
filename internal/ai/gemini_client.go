package ai

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// DefaultGeminiModel is used when no model is configured.
const DefaultGeminiModel = "gemini-pro"

// GeminiClient generates text through the Google Generative AI SDK.
type GeminiClient struct {
	client *genai.Client
}

// NewGeminiClient opens an SDK client authenticated with apiKey. Extra
// client options (endpoint, HTTP client) are appended after the key.
func NewGeminiClient(ctx context.Context, apiKey string, opts ...option.ClientOption) (*GeminiClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini: %w", ErrMissingAPIKey)
	}
	client, err := genai.NewClient(ctx, append([]option.ClientOption{option.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("gemini: new client: %w", err)
	}
	return &GeminiClient{client: client}, nil
}

// Close releases the underlying connections.
func (c *GeminiClient) Close() error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Close()
}

// Generate sends one generateContent call. System messages become the
// model's system instruction; the rest are sent as text parts in order.
func (c *GeminiClient) Generate(ctx context.Context, req GenerateRequest) (Completion, error) {
	if c == nil || c.client == nil {
		return nil, errors.New("gemini: client is not initialized")
	}
	if len(req.Messages) == 0 {
		return nil, errors.New("messages cannot be empty")
	}
	name := req.Model
	if name == "" {
		name = DefaultGeminiModel
	}
	model := c.client.GenerativeModel(name)
	configureModel(model, req)

	var system []genai.Part
	var parts []genai.Part
	for _, m := range req.Messages {
		if m.Role == "system" {
			system = append(system, genai.Text(m.Content))
			continue
		}
		parts = append(parts, genai.Text(m.Content))
	}
	if len(system) > 0 {
		model.SystemInstruction = &genai.Content{Parts: system}
	}
	if len(parts) == 0 {
		return nil, errors.New("messages cannot be empty")
	}

	resp, err := model.GenerateContent(ctx, parts...)
	if err != nil {
		return nil, fmt.Errorf("gemini: generate: %w", err)
	}
	return completionFromResponse(resp)
}

func configureModel(model *genai.GenerativeModel, req GenerateRequest) {
	if req.Temperature > 0 {
		model.SetTemperature(float32(req.Temperature))
	}
	if req.TopP > 0 {
		model.SetTopP(float32(req.TopP))
	}
	if req.TopK > 0 {
		model.SetTopK(int32(req.TopK))
	}
	if req.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(req.MaxTokens))
	}
}

// completionFromResponse joins the text parts of every candidate.
func completionFromResponse(resp *genai.GenerateContentResponse) (Completion, error) {
	if resp == nil {
		return nil, fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}
	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, p := range cand.Content.Parts {
			if t, ok := p.(genai.Text); ok {
				b.WriteString(string(t))
			}
		}
	}
	if b.Len() == 0 {
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != genai.BlockReasonUnspecified {
			return nil, fmt.Errorf("gemini: prompt blocked (%s): %w", resp.PromptFeedback.BlockReason, ErrEmptyCompletion)
		}
		return nil, fmt.Errorf("gemini: %w", ErrEmptyCompletion)
	}
	return RawText(b.String()), nil
}
