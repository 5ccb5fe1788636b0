package llm

import (
	"context"
	"errors"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

type GeminiClient struct {
	client *genai.Client
	model  string
	opts   GenerationOptions
}

func NewGeminiClient(ctx context.Context, apiKey string, model string, opts GenerationOptions) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GeminiClient{
		client: client,
		model:  model,
		opts:   opts.withDefaults(),
	}, nil
}

func (c *GeminiClient) Generate(ctx context.Context, prompt string) (string, error) {
	model := c.client.GenerativeModel(c.model)
	model.SetTemperature(c.opts.Temperature)
	model.SetMaxOutputTokens(int32(c.opts.MaxTokens))

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) {
			return "", &UpstreamError{Provider: "gemini", Status: apiErr.Code, Body: apiErr.Message, Err: err}
		}
		return "", upstream("gemini", err)
	}

	if len(resp.Candidates) > 0 && resp.Candidates[0].Content != nil && len(resp.Candidates[0].Content.Parts) > 0 {
		part := resp.Candidates[0].Content.Parts[0]
		if txt, ok := part.(genai.Text); ok && txt != "" {
			return string(txt), nil
		}
	}

	return "", &UpstreamError{Provider: "gemini", Err: ErrNoContent}
}

func (c *GeminiClient) Close() error {
	return c.client.Close()
}
