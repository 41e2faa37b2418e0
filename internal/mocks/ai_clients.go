package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"fictures-server/internal/ai"
	"fictures-server/internal/models"
)

// Mock TextClient
type TextClient struct {
	mock.Mock
}

var _ ai.TextClient = (*TextClient)(nil)

func (m *TextClient) GenerateText(ctx context.Context, userID string, req models.TextGenerationRequest) (*ai.TextResult, error) {
	args := m.Called(ctx, userID, req)
	var result *ai.TextResult
	if v := args.Get(0); v != nil {
		result = v.(*ai.TextResult)
	}
	return result, args.Error(1)
}

func (m *TextClient) GenerateTextStream(ctx context.Context, userID string, req models.TextGenerationRequest, chunkHandler func(chunk string) error) (*ai.TextResult, error) {
	args := m.Called(ctx, userID, req, chunkHandler)
	var result *ai.TextResult
	if v := args.Get(0); v != nil {
		result = v.(*ai.TextResult)
	}
	return result, args.Error(1)
}

// Mock ImageClient
type ImageClient struct {
	mock.Mock
}

var _ ai.ImageClient = (*ImageClient)(nil)

func (m *ImageClient) GenerateImage(ctx context.Context, req models.ImageGenerationRequest) (*models.ImageGenerationResponse, error) {
	args := m.Called(ctx, req)
	var resp *models.ImageGenerationResponse
	if v := args.Get(0); v != nil {
		resp = v.(*models.ImageGenerationResponse)
	}
	return resp, args.Error(1)
}
