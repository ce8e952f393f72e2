// ABOUTME: OpenAI-backed completion service with retry and backoff
// ABOUTME: Uses gpt-4o-mini for extraction and gpt-4o for merges (configurable)
package llm

import (
	"context"
	"fmt"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"github.com/docweave/docweave/internal/config"
	"github.com/docweave/docweave/internal/util"
)

// DefaultChatModel is the default model for extraction completions.
const DefaultChatModel = "gpt-4o-mini"

// OpenAIClient wraps the OpenAI API client with retry logic. It satisfies
// CompletionService; the rest of the pipeline never touches the SDK.
type OpenAIClient struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	retryDelay time.Duration
}

// NewOpenAIClient creates a client from pipeline configuration. The model
// argument overrides cfg.ChatModel so the merger can run a stronger model.
func NewOpenAIClient(cfg *config.Config, model string) (*OpenAIClient, error) {
	if cfg.OpenAIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required")
	}
	if model == "" {
		model = cfg.ChatModel
	}
	if model == "" {
		model = DefaultChatModel
	}

	return &OpenAIClient{
		client:     openai.NewClient(cfg.OpenAIKey),
		model:      model,
		timeout:    cfg.Timeout,
		maxRetries: cfg.MaxRetries,
		retryDelay: cfg.RetryDelay,
	}, nil
}

// Complete implements CompletionService. Each attempt gets its own timeout;
// retries use exponential backoff and stop when ctx is cancelled.
func (c *OpenAIClient) Complete(ctx context.Context, req Request) (string, error) {
	var messages []openai.ChatCompletionMessage
	if req.System != "" {
		messages = append(messages, openai.ChatCompletionMessage{
			Role:    openai.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	messages = append(messages, openai.ChatCompletionMessage{
		Role:    openai.ChatMessageRoleUser,
		Content: req.Prompt,
	})

	chatReq := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: req.Temperature,
	}
	if req.JSONResponse {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	var content string
	err := util.Do(ctx, c.maxRetries, c.retryDelay, func(ctx context.Context) error {
		attemptCtx, cancel := context.WithTimeout(ctx, c.timeout)
		defer cancel()

		resp, err := c.client.CreateChatCompletion(attemptCtx, chatReq)
		if err != nil {
			return err
		}
		if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
			return ErrEmptyResponse
		}
		content = resp.Choices[0].Message.Content
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("completion failed: %w", err)
	}

	return content, nil
}
