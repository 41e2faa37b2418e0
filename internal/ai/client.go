// Package ai wraps the text and image generation providers behind small
// client interfaces. The server uses them for synchronous generation, the
// worker for queued tasks.
package ai

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	ollamaapi "github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

// Config selects and tunes the text generation provider.
type Config struct {
	ClientType     string // openai or ollama
	BaseURL        string
	Model          string
	APIKey         string
	RequestTimeout time.Duration
}

// ImageConfig selects and tunes the image generation provider.
type ImageConfig struct {
	ClientType     string // openai or diffusion
	BaseURL        string // OpenAI-compatible endpoint override
	ServerURL      string // diffusion server address
	Model          string
	APIKey         string
	RequestTimeout time.Duration
}

// Usage reports token consumption for one text generation call. Counts are
// provider-reported when available, tiktoken estimates otherwise.
type Usage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

// TextResult is the outcome of one text generation call.
type TextResult struct {
	Text         string
	Model        string
	FinishReason string
	Usage        Usage
}

// TextClient generates prose from a prompt.
//
//go:generate mockery --name TextClient --output ../mocks --outpkg mocks --case=underscore
type TextClient interface {
	// GenerateText runs one completion and returns the full text.
	GenerateText(ctx context.Context, userID string, req models.TextGenerationRequest) (*TextResult, error)

	// GenerateTextStream runs one completion, feeding chunks to chunkHandler
	// as they arrive. The returned result carries the assembled text.
	GenerateTextStream(ctx context.Context, userID string, req models.TextGenerationRequest, chunkHandler func(chunk string) error) (*TextResult, error)
}

// ImageClient generates a single image from a prompt. The returned URL is
// either hosted by the provider or a data URI carrying the image bytes.
//
//go:generate mockery --name ImageClient --output ../mocks --outpkg mocks --case=underscore
type ImageClient interface {
	GenerateImage(ctx context.Context, req models.ImageGenerationRequest) (*models.ImageGenerationResponse, error)
}

// NewTextClient builds the text client selected by cfg.ClientType.
func NewTextClient(cfg Config, logger *zap.Logger) (TextClient, error) {
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		clientConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
		logger.Info("Using OpenAI-compatible text client",
			zap.String("baseURL", clientConfig.BaseURL),
			zap.String("model", cfg.Model))
		return &openAITextClient{
			client: openaigo.NewClientWithConfig(clientConfig),
			model:  cfg.Model,
			logger: logger.Named("OpenAIText"),
		}, nil
	case "ollama":
		baseURL := strings.TrimSuffix(cfg.BaseURL, "/v1")
		baseURL = strings.TrimSuffix(baseURL, "/")
		parsedURL, err := url.Parse(baseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to parse ollama base URL %q: %w", baseURL, err)
		}
		logger.Info("Using Ollama text client",
			zap.String("baseURL", baseURL),
			zap.String("model", cfg.Model))
		return &ollamaTextClient{
			client:  ollamaapi.NewClient(parsedURL, &http.Client{Timeout: cfg.RequestTimeout}),
			model:   cfg.Model,
			timeout: cfg.RequestTimeout,
			logger:  logger.Named("OllamaText"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown AI client type: %q", cfg.ClientType)
	}
}

// NewImageClient builds the image client selected by cfg.ClientType.
func NewImageClient(cfg ImageConfig, logger *zap.Logger) (ImageClient, error) {
	switch strings.ToLower(cfg.ClientType) {
	case "openai":
		clientConfig := openaigo.DefaultConfig(cfg.APIKey)
		if cfg.BaseURL != "" {
			clientConfig.BaseURL = cfg.BaseURL
		}
		clientConfig.HTTPClient = &http.Client{Timeout: cfg.RequestTimeout}
		logger.Info("Using OpenAI image client", zap.String("model", cfg.Model))
		return &openAIImageClient{
			client: openaigo.NewClientWithConfig(clientConfig),
			model:  cfg.Model,
			logger: logger.Named("OpenAIImage"),
		}, nil
	case "diffusion":
		if cfg.ServerURL == "" {
			return nil, fmt.Errorf("image server URL (IMAGE_SERVER_URL) is not configured")
		}
		logger.Info("Using diffusion server image client",
			zap.String("baseURL", cfg.ServerURL),
			zap.String("model", cfg.Model))
		return &diffusionImageClient{
			baseURL:    strings.TrimSuffix(cfg.ServerURL, "/"),
			model:      cfg.Model,
			httpClient: &http.Client{Timeout: cfg.RequestTimeout},
			logger:     logger.Named("DiffusionImage"),
		}, nil
	default:
		return nil, fmt.Errorf("unknown image client type: %q", cfg.ClientType)
	}
}

// validateImageSize rejects dimensions outside the supported square bounds.
func validateImageSize(width, height int) error {
	if width < models.ImageSizeMin || width > models.ImageSizeMax ||
		height < models.ImageSizeMin || height > models.ImageSizeMax {
		return fmt.Errorf("image size %dx%d is outside %d-%d: %w",
			width, height, models.ImageSizeMin, models.ImageSizeMax, models.ErrInvalidInput)
	}
	return nil
}
