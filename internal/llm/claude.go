package llm

import (
	"context"
	"errors"
	"net/http"

	"github.com/liushuangls/go-anthropic/v2"
)

type ClaudeClient struct {
	client *anthropic.Client
	model  string
	opts   GenerationOptions
}

func NewClaudeClient(apiKey string, model string, baseURL string, opts GenerationOptions) *ClaudeClient {
	var clientOpts []anthropic.ClientOption
	if baseURL != "" {
		clientOpts = append(clientOpts, anthropic.WithBaseURL(baseURL))
	}

	return &ClaudeClient{
		client: anthropic.NewClient(apiKey, clientOpts...),
		model:  model,
		opts:   opts.withDefaults(),
	}
}

func (c *ClaudeClient) Generate(ctx context.Context, prompt string) (string, error) {
	temperature := c.opts.Temperature
	resp, err := c.client.CreateMessages(ctx, anthropic.MessagesRequest{
		Model: anthropic.Model(c.model),
		Messages: []anthropic.Message{
			{
				Role: anthropic.RoleUser,
				Content: []anthropic.MessageContent{
					anthropic.NewTextMessageContent(prompt),
				},
			},
		},
		MaxTokens:   c.opts.MaxTokens,
		Temperature: &temperature,
	})
	if err != nil {
		return "", c.wrapError(err)
	}

	if len(resp.Content) > 0 && resp.Content[0].Text != nil && *resp.Content[0].Text != "" {
		return *resp.Content[0].Text, nil
	}
	return "", &UpstreamError{Provider: "claude", Err: ErrNoContent}
}

func (c *ClaudeClient) wrapError(err error) error {
	var apiErr *anthropic.APIError
	if errors.As(err, &apiErr) {
		return &UpstreamError{Provider: "claude", Status: claudeStatus(string(apiErr.Type)), Body: apiErr.Message, Err: err}
	}
	var reqErr *anthropic.RequestError
	if errors.As(err, &reqErr) {
		return &UpstreamError{Provider: "claude", Status: reqErr.StatusCode, Body: reqErr.Error(), Err: err}
	}
	return upstream("claude", err)
}

// claudeStatus maps Anthropic's documented error types to their HTTP statuses.
// The decoded API error carries only the type.
func claudeStatus(errType string) int {
	switch errType {
	case "invalid_request_error":
		return http.StatusBadRequest
	case "authentication_error":
		return http.StatusUnauthorized
	case "permission_error":
		return http.StatusForbidden
	case "not_found_error":
		return http.StatusNotFound
	case "request_too_large":
		return http.StatusRequestEntityTooLarge
	case "rate_limit_error":
		return http.StatusTooManyRequests
	case "api_error":
		return http.StatusInternalServerError
	case "overloaded_error":
		return 529
	default:
		return 0
	}
}
