package ai

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"fictures-server/internal/models"
)

const providerDiffusion = "diffusion"

// Compile-time check to ensure diffusionImageClient implements ImageClient
var _ ImageClient = (*diffusionImageClient)(nil)

// diffusionImageClient posts prompts to a self-hosted diffusion server and
// wraps the returned image bytes in a data URI.
type diffusionImageClient struct {
	baseURL    string
	model      string
	httpClient *http.Client
	logger     *zap.Logger
}

// diffusionRequest is the JSON body of the diffusion server's /generate
// endpoint.
type diffusionRequest struct {
	Prompt            string  `json:"prompt"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Width             int     `json:"width"`
	Height            int     `json:"height"`
	NumInferenceSteps int     `json:"num_inference_steps"`
	GuidanceScale     float32 `json:"guidance_scale"`
	Seed              *int64  `json:"seed,omitempty"`
}

func (c *diffusionImageClient) GenerateImage(ctx context.Context, req models.ImageGenerationRequest) (*models.ImageGenerationResponse, error) {
	if strings.TrimSpace(req.Prompt) == "" {
		return nil, fmt.Errorf("prompt is empty: %w", models.ErrInvalidInput)
	}
	req.ApplyDefaults()
	if err := validateImageSize(req.Width, req.Height); err != nil {
		return nil, err
	}

	body, err := json.Marshal(diffusionRequest{
		Prompt:            req.Prompt,
		NegativePrompt:    req.NegativePrompt,
		Width:             req.Width,
		Height:            req.Height,
		NumInferenceSteps: req.NumInferenceSteps,
		GuidanceScale:     req.GuidanceScale,
		Seed:              req.Seed,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal image request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create image request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept", "image/*")

	startTime := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	duration := time.Since(startTime)
	if err != nil {
		aiRequestsTotal.WithLabelValues(providerDiffusion, c.model, "error").Inc()
		c.logger.Warn("Diffusion server request failed", zap.Error(err), zap.Duration("duration", duration))
		return nil, fmt.Errorf("%w: %v", models.ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	imageData, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		aiRequestsTotal.WithLabelValues(providerDiffusion, c.model, "error").Inc()
		c.logger.Warn("Diffusion server returned non-OK status",
			zap.Int("statusCode", resp.StatusCode),
			zap.ByteString("responseBody", truncateBody(imageData)))
		return nil, fmt.Errorf("%w: server returned status %d", models.ErrProviderUnavailable, resp.StatusCode)
	}
	if readErr != nil {
		aiRequestsTotal.WithLabelValues(providerDiffusion, c.model, "error").Inc()
		return nil, fmt.Errorf("%w: failed to read response body: %v", models.ErrProviderUnavailable, readErr)
	}
	if len(imageData) == 0 {
		aiRequestsTotal.WithLabelValues(providerDiffusion, c.model, "empty_response").Inc()
		return nil, fmt.Errorf("%w: server returned empty image data", models.ErrGenerationFailed)
	}

	aiRequestsTotal.WithLabelValues(providerDiffusion, c.model, "success").Inc()
	aiRequestDuration.WithLabelValues(providerDiffusion, c.model).Observe(duration.Seconds())

	contentType := resp.Header.Get("Content-Type")
	if !strings.HasPrefix(contentType, "image/") {
		contentType = "image/png"
	}
	result := &models.ImageGenerationResponse{
		ImageURL: fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(imageData)),
		Model:    c.model,
		Width:    req.Width,
		Height:   req.Height,
	}
	if req.Seed != nil {
		result.Seed = *req.Seed
	}
	c.logger.Debug("Image generated",
		zap.Duration("duration", duration),
		zap.Int("sizeBytes", len(imageData)))
	return result, nil
}

// truncateBody keeps error log lines readable when the server sends a long
// HTML page instead of JSON.
func truncateBody(body []byte) []byte {
	const maxLogged = 512
	if len(body) <= maxLogged {
		return body
	}
	return body[:maxLogged]
}
