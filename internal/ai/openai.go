package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/pkoukk/tiktoken-go"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

const providerOpenAI = "openai"

// Compile-time check to ensure openAITextClient implements TextClient
var _ TextClient = (*openAITextClient)(nil)

// openAITextClient talks to OpenAI or any OpenAI-compatible endpoint such
// as vLLM.
type openAITextClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAITextClient) GenerateText(ctx context.Context, userID string, req models.TextGenerationRequest) (*TextResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty: %w", models.ErrInvalidInput)
	}
	req.ApplyDefaults()

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stop:        req.StopSequences,
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "error").Inc()
		c.logger.Warn("Text generation request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "empty_response").Inc()
		return nil, fmt.Errorf("%w: provider returned an empty response", models.ErrGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(providerOpenAI, c.model).Observe(duration.Seconds())

	result := &TextResult{
		Text:         resp.Choices[0].Message.Content,
		Model:        c.model,
		FinishReason: string(resp.Choices[0].FinishReason),
		Usage: Usage{
			PromptTokens:     resp.Usage.PromptTokens,
			CompletionTokens: resp.Usage.CompletionTokens,
			TotalTokens:      resp.Usage.TotalTokens,
		},
	}
	if result.Usage.TotalTokens == 0 {
		// Some compatible servers omit usage; estimate with tiktoken.
		result.Usage = estimateUsage(c.model, req.Prompt, result.Text)
	}
	observeUsage(c.model, result.Usage)

	c.logger.Debug("Text generated",
		zap.Duration("duration", duration),
		zap.Int("chars", len(result.Text)),
		zap.Int("totalTokens", result.Usage.TotalTokens),
		zap.String("userID", userID))
	return result, nil
}

func (c *openAITextClient) GenerateTextStream(ctx context.Context, userID string, req models.TextGenerationRequest, chunkHandler func(chunk string) error) (*TextResult, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty: %w", models.ErrInvalidInput)
	}
	req.ApplyDefaults()

	stream, err := c.client.CreateChatCompletionStream(ctx, openaigo.ChatCompletionRequest{
		Model: c.model,
		Messages: []openaigo.ChatCompletionMessage{
			{Role: openaigo.ChatMessageRoleUser, Content: req.Prompt},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		TopP:        req.TopP,
		Stop:        req.StopSequences,
		Stream:      true,
	})
	if err != nil {
		aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "error_stream_init").Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer stream.Close()

	startTime := time.Now()
	var textBuilder strings.Builder
	var finishReason string
	var finalUsage openaigo.Usage

	for {
		response, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "error_stream_read").Inc()
			return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
		}

		// The usage block, when the server sends one, rides on the last
		// chunk.
		if response.Usage != nil && response.Usage.TotalTokens > 0 {
			finalUsage = *response.Usage
		}
		if len(response.Choices) == 0 {
			continue
		}
		if response.Choices[0].FinishReason != "" {
			finishReason = string(response.Choices[0].FinishReason)
		}
		chunk := response.Choices[0].Delta.Content
		if chunk == "" {
			continue
		}
		textBuilder.WriteString(chunk)
		if chunkHandler != nil {
			if err := chunkHandler(chunk); err != nil {
				aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "error_chunk_handler").Inc()
				return nil, fmt.Errorf("chunk handler failed: %w", err)
			}
		}
	}
	duration := time.Since(startTime)

	result := &TextResult{
		Text:         textBuilder.String(),
		Model:        c.model,
		FinishReason: finishReason,
		Usage: Usage{
			PromptTokens:     finalUsage.PromptTokens,
			CompletionTokens: finalUsage.CompletionTokens,
			TotalTokens:      finalUsage.TotalTokens,
		},
	}
	if result.Usage.TotalTokens == 0 {
		result.Usage = estimateUsage(c.model, req.Prompt, result.Text)
	}

	aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "success_stream").Inc()
	aiRequestDuration.WithLabelValues(providerOpenAI, c.model).Observe(duration.Seconds())
	observeUsage(c.model, result.Usage)

	c.logger.Debug("Text stream finished",
		zap.Duration("duration", duration),
		zap.Int("chars", len(result.Text)),
		zap.String("userID", userID))
	return result, nil
}

// Compile-time check to ensure openAIImageClient implements ImageClient
var _ ImageClient = (*openAIImageClient)(nil)

// openAIImageClient generates images through the OpenAI images endpoint.
type openAIImageClient struct {
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

func (c *openAIImageClient) GenerateImage(ctx context.Context, req models.ImageGenerationRequest) (*models.ImageGenerationResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty: %w", models.ErrInvalidInput)
	}
	req.ApplyDefaults()
	if err := validateImageSize(req.Width, req.Height); err != nil {
		return nil, err
	}
	size, width, height := dallESizeFor(req.Width, req.Height)

	startTime := time.Now()
	resp, err := c.client.CreateImage(ctx, openaigo.ImageRequest{
		Prompt:         req.Prompt,
		Model:          c.model,
		N:              1,
		Size:           size,
		ResponseFormat: openaigo.CreateImageResponseFormatURL,
	})
	duration := time.Since(startTime)

	if err != nil {
		aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "error").Inc()
		c.logger.Warn("Image generation request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	if len(resp.Data) == 0 || resp.Data[0].URL == "" {
		aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "empty_response").Inc()
		return nil, fmt.Errorf("%w: provider returned no image", models.ErrGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(providerOpenAI, c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(providerOpenAI, c.model).Observe(duration.Seconds())

	result := &models.ImageGenerationResponse{
		ImageURL: resp.Data[0].URL,
		Model:    c.model,
		Width:    width,
		Height:   height,
	}
	if req.Seed != nil {
		result.Seed = *req.Seed
	}
	c.logger.Debug("Image generated", zap.Duration("duration", duration), zap.String("size", size))
	return result, nil
}

// dallESizeFor maps the requested dimensions onto the nearest size the
// OpenAI images endpoint accepts, keeping the orientation.
func dallESizeFor(width, height int) (string, int, int) {
	switch {
	case width > height:
		return "1792x1024", 1792, 1024
	case height > width:
		return "1024x1792", 1024, 1792
	default:
		return "1024x1024", 1024, 1024
	}
}

// estimateUsage approximates token counts with tiktoken for providers that
// do not report usage.
func estimateUsage(model, prompt, completion string) Usage {
	encoder, err := tiktoken.EncodingForModel(model)
	if err != nil {
		encoder, err = tiktoken.GetEncoding("cl100k_base")
		if err != nil {
			return Usage{}
		}
	}
	usage := Usage{
		PromptTokens:     len(encoder.Encode(prompt, nil, nil)),
		CompletionTokens: len(encoder.Encode(completion, nil, nil)),
	}
	usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	return usage
}
