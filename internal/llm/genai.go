package llm

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/JakeFAU/company-enricher/internal/enricher"
)

// GenAIConfig configures GenAIClient.
type GenAIConfig struct {
	Model  string
	APIKey string
	// Endpoint overrides the SDK's default host; empty keeps the default.
	Endpoint string
}

// GenAIClient implements Generator with the generative-ai-go SDK.
type GenAIClient struct {
	client *genai.Client
	model  string
}

var _ Generator = (*GenAIClient)(nil)

// NewGenAIClient creates an SDK-backed client.
func NewGenAIClient(ctx context.Context, cfg GenAIConfig) (*GenAIClient, error) {
	if cfg.APIKey == "" {
		return nil, errors.New("api key is required")
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	opts := []option.ClientOption{option.WithAPIKey(cfg.APIKey)}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	client, err := genai.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GenAIClient{client: client, model: cfg.Model}, nil
}

// Generate sends prompt and returns the first text part of the first candidate.
func (c *GenAIClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", toExtractionError(err)
	}
	return firstText(resp)
}

// Close releases resources held by the client.
func (c *GenAIClient) Close() error {
	if c.client != nil {
		return c.client.Close()
	}
	return nil
}

func toExtractionError(err error) error {
	extractErr := &enricher.ExtractionError{Message: "genai generate", Cause: err}
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		extractErr.StatusCode = apiErr.Code
	}
	return extractErr
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if resp == nil || len(resp.Candidates) == 0 {
		return "", &enricher.ExtractionError{Message: "no candidates in response"}
	}
	candidate := resp.Candidates[0]
	if candidate == nil || candidate.Content == nil || len(candidate.Content.Parts) == 0 {
		return "", &enricher.ExtractionError{Message: "no content in response"}
	}
	text, ok := candidate.Content.Parts[0].(genai.Text)
	if !ok {
		return "", &enricher.ExtractionError{
			Message: fmt.Sprintf("first part is %T, not text", candidate.Content.Parts[0]),
		}
	}
	return string(text), nil
}
