package models

// Bounds and defaults for generation requests.
const (
	TextMaxTokensLimit     = 8192
	TextMaxTokensDefault   = 2048
	TextTemperatureLimit   = 2.0
	TextTemperatureDefault = 0.7
	TextTopPDefault        = 0.9

	ImageSizeMin         = 256
	ImageSizeMax         = 2048
	ImageWidthDefault    = 1664
	ImageHeightDefault   = 928
	ImageStepsDefault    = 4
	ImageGuidanceDefault = 1.0
)

// TextGenerationRequest is the synchronous text generation request body.
type TextGenerationRequest struct {
	Prompt        string   `json:"prompt" binding:"required,min=1"`
	MaxTokens     int      `json:"max_tokens,omitempty" binding:"omitempty,gte=1,lte=8192"`
	Temperature   float32  `json:"temperature,omitempty" binding:"omitempty,gte=0,lte=2"`
	TopP          float32  `json:"top_p,omitempty" binding:"omitempty,gte=0,lte=1"`
	StopSequences []string `json:"stop_sequences,omitempty"`
}

// ApplyDefaults fills unset sampling parameters.
func (r *TextGenerationRequest) ApplyDefaults() {
	if r.MaxTokens == 0 {
		r.MaxTokens = TextMaxTokensDefault
	}
	if r.Temperature == 0 {
		r.Temperature = TextTemperatureDefault
	}
	if r.TopP == 0 {
		r.TopP = TextTopPDefault
	}
}

// TextGenerationResponse is the synchronous text generation response body.
type TextGenerationResponse struct {
	Text         string `json:"text"`
	Model        string `json:"model"`
	TokensUsed   int    `json:"tokens_used"`
	FinishReason string `json:"finish_reason"`
}

// ImageGenerationRequest is the synchronous image generation request body.
type ImageGenerationRequest struct {
	Prompt            string  `json:"prompt" binding:"required,min=1"`
	NegativePrompt    string  `json:"negative_prompt,omitempty"`
	Width             int     `json:"width,omitempty" binding:"omitempty,gte=256,lte=2048"`
	Height            int     `json:"height,omitempty" binding:"omitempty,gte=256,lte=2048"`
	NumInferenceSteps int     `json:"num_inference_steps,omitempty" binding:"omitempty,gte=1,lte=100"`
	GuidanceScale     float32 `json:"guidance_scale,omitempty" binding:"omitempty,gte=1,lte=20"`
	Seed              *int64  `json:"seed,omitempty"`
}

// ApplyDefaults fills unset size and sampler parameters.
func (r *ImageGenerationRequest) ApplyDefaults() {
	if r.Width == 0 {
		r.Width = ImageWidthDefault
	}
	if r.Height == 0 {
		r.Height = ImageHeightDefault
	}
	if r.NumInferenceSteps == 0 {
		r.NumInferenceSteps = ImageStepsDefault
	}
	if r.GuidanceScale == 0 {
		r.GuidanceScale = ImageGuidanceDefault
	}
}

// ImageGenerationResponse is the synchronous image generation response body.
// ImageURL is either a hosted URL or a data URI.
type ImageGenerationResponse struct {
	ImageURL string `json:"image_url"`
	Model    string `json:"model"`
	Width    int    `json:"width"`
	Height   int    `json:"height"`
	Seed     int64  `json:"seed"`
}

// ModelInfo describes one generation model exposed by /api/ai/models.
type ModelInfo struct {
	ID       string `json:"id"`
	Kind     string `json:"kind"` // text or image
	Provider string `json:"provider"`
	Default  bool   `json:"default"`
}
