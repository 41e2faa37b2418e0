package ai

import (
	"context"
	"fmt"
	"strings"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

const providerOllama = "ollama"

// Compile-time check to ensure ollamaTextClient implements TextClient
var _ TextClient = (*ollamaTextClient)(nil)

// ollamaTextClient talks to a local Ollama server through its native API.
type ollamaTextClient struct {
	client  *ollamaapi.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

func (c *ollamaTextClient) GenerateText(ctx context.Context, userID string, req models.TextGenerationRequest) (*TextResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty: %w", models.ErrInvalidInput)
	}
	req.ApplyDefaults()

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := false
	var lastResp ollamaapi.ChatResponse
	startTime := time.Now()
	err := c.client.Chat(requestCtx, &ollamaapi.ChatRequest{
		Model: c.model,
		Messages: []ollamaapi.Message{
			{Role: "user", Content: req.Prompt},
		},
		Stream:  &stream,
		Options: c.chatOptions(req),
	}, func(resp ollamaapi.ChatResponse) error {
		lastResp = resp
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(providerOllama, c.model, "error").Inc()
		c.logger.Warn("Text generation request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	if lastResp.Message.Content == "" {
		aiRequestsTotal.WithLabelValues(providerOllama, c.model, "empty_response").Inc()
		return nil, fmt.Errorf("%w: provider returned an empty response", models.ErrGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(providerOllama, c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(providerOllama, c.model).Observe(duration.Seconds())

	result := &TextResult{
		Text:         lastResp.Message.Content,
		Model:        c.model,
		FinishReason: lastResp.DoneReason,
		Usage: Usage{
			PromptTokens:     lastResp.PromptEvalCount,
			CompletionTokens: lastResp.EvalCount,
			TotalTokens:      lastResp.PromptEvalCount + lastResp.EvalCount,
		},
	}
	observeUsage(c.model, result.Usage)

	c.logger.Debug("Text generated",
		zap.Duration("duration", duration),
		zap.Int("chars", len(result.Text)),
		zap.String("userID", userID))
	return result, nil
}

func (c *ollamaTextClient) GenerateTextStream(ctx context.Context, userID string, req models.TextGenerationRequest, chunkHandler func(chunk string) error) (*TextResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty: %w", models.ErrInvalidInput)
	}
	req.ApplyDefaults()

	requestCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	stream := true
	var textBuilder strings.Builder
	var promptTokens, completionTokens int
	var finishReason string

	startTime := time.Now()
	err := c.client.Chat(requestCtx, &ollamaapi.ChatRequest{
		Model: c.model,
		Messages: []ollamaapi.Message{
			{Role: "user", Content: req.Prompt},
		},
		Stream:  &stream,
		Options: c.chatOptions(req),
	}, func(resp ollamaapi.ChatResponse) error {
		if resp.Message.Content != "" {
			textBuilder.WriteString(resp.Message.Content)
			if chunkHandler != nil {
				if err := chunkHandler(resp.Message.Content); err != nil {
					return fmt.Errorf("chunk handler failed: %w", err)
				}
			}
		}
		if resp.Done {
			promptTokens = resp.PromptEvalCount
			completionTokens = resp.EvalCount
			finishReason = resp.DoneReason
		}
		return nil
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(providerOllama, c.model, "error_stream").Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}

	aiRequestsTotal.WithLabelValues(providerOllama, c.model, "success_stream").Inc()
	aiRequestDuration.WithLabelValues(providerOllama, c.model).Observe(duration.Seconds())

	result := &TextResult{
		Text:         textBuilder.String(),
		Model:        c.model,
		FinishReason: finishReason,
		Usage: Usage{
			PromptTokens:     promptTokens,
			CompletionTokens: completionTokens,
			TotalTokens:      promptTokens + completionTokens,
		},
	}
	observeUsage(c.model, result.Usage)

	c.logger.Debug("Text stream finished",
		zap.Duration("duration", duration),
		zap.Int("chars", len(result.Text)),
		zap.String("userID", userID))
	return result, nil
}

func (c *ollamaTextClient) chatOptions(req models.TextGenerationRequest) map[string]any {
	options := map[string]any{
		"temperature": float64(req.Temperature),
		"top_p":       float64(req.TopP),
		"num_predict": req.MaxTokens,
	}
	if len(req.StopSequences) > 0 {
		options["stop"] = req.StopSequences
	}
	return options
}
