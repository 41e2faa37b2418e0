package ai

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"fictures-server/internal/models"
)

func TestNewTextClient(t *testing.T) {
	t.Run("OpenAI", func(t *testing.T) {
		client, err := NewTextClient(Config{ClientType: "openai", APIKey: "sk-test", Model: "gpt-4o-mini"}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &openAITextClient{}, client)
	})

	t.Run("Ollama strips the /v1 suffix", func(t *testing.T) {
		client, err := NewTextClient(Config{ClientType: "ollama", BaseURL: "http://localhost:11434/v1", Model: "llama3"}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &ollamaTextClient{}, client)
	})

	t.Run("Unknown type", func(t *testing.T) {
		_, err := NewTextClient(Config{ClientType: "carrier-pigeon"}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestNewImageClient(t *testing.T) {
	t.Run("OpenAI", func(t *testing.T) {
		client, err := NewImageClient(ImageConfig{ClientType: "openai", APIKey: "sk-test", Model: "dall-e-3"}, zap.NewNop())
		require.NoError(t, err)
		assert.IsType(t, &openAIImageClient{}, client)
	})

	t.Run("Diffusion trims the trailing slash", func(t *testing.T) {
		client, err := NewImageClient(ImageConfig{ClientType: "diffusion", ServerURL: "http://img:9000/", Model: "flux"}, zap.NewNop())
		require.NoError(t, err)
		diffusion, ok := client.(*diffusionImageClient)
		require.True(t, ok)
		assert.Equal(t, "http://img:9000", diffusion.baseURL)
	})

	t.Run("Diffusion without a server URL", func(t *testing.T) {
		_, err := NewImageClient(ImageConfig{ClientType: "diffusion"}, zap.NewNop())
		assert.Error(t, err)
	})

	t.Run("Unknown type", func(t *testing.T) {
		_, err := NewImageClient(ImageConfig{ClientType: "easel"}, zap.NewNop())
		assert.Error(t, err)
	})
}

func TestValidateImageSize(t *testing.T) {
	assert.NoError(t, validateImageSize(models.ImageSizeMin, models.ImageSizeMax))
	assert.True(t, errors.Is(validateImageSize(100, 512), models.ErrInvalidInput))
	assert.True(t, errors.Is(validateImageSize(512, 4096), models.ErrInvalidInput))
}

func TestDallESizeFor(t *testing.T) {
	cases := []struct {
		width, height int
		wantSize      string
	}{
		{1664, 928, "1792x1024"},
		{928, 1664, "1024x1792"},
		{512, 512, "1024x1024"},
	}
	for _, tc := range cases {
		size, w, h := dallESizeFor(tc.width, tc.height)
		assert.Equal(t, tc.wantSize, size)
		if tc.width > tc.height {
			assert.Greater(t, w, h)
		} else if tc.height > tc.width {
			assert.Greater(t, h, w)
		}
	}
}

func newDiffusionClient(t *testing.T, srvURL string) ImageClient {
	t.Helper()
	client, err := NewImageClient(ImageConfig{
		ClientType:     "diffusion",
		ServerURL:      srvURL,
		Model:          "flux-schnell",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestDiffusionGenerateImage(t *testing.T) {
	ctx := context.Background()

	t.Run("Wraps the returned bytes in a data URI", func(t *testing.T) {
		var gotReq diffusionRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/generate", r.URL.Path)
			assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
			require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
			w.Header().Set("Content-Type", "image/jpeg")
			_, _ = w.Write([]byte("not-really-a-jpeg"))
		}))
		defer srv.Close()

		seed := int64(42)
		resp, err := newDiffusionClient(t, srv.URL).GenerateImage(ctx, models.ImageGenerationRequest{
			Prompt: "a brass owl on a clocktower",
			Seed:   &seed,
		})
		require.NoError(t, err)

		wantURI := "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("not-really-a-jpeg"))
		assert.Equal(t, wantURI, resp.ImageURL)
		assert.Equal(t, models.ImageWidthDefault, resp.Width)
		assert.Equal(t, models.ImageHeightDefault, resp.Height)
		assert.Equal(t, int64(42), resp.Seed)

		assert.Equal(t, models.ImageWidthDefault, gotReq.Width, "defaults must be applied before sending")
		assert.Equal(t, models.ImageStepsDefault, gotReq.NumInferenceSteps)
		require.NotNil(t, gotReq.Seed)
		assert.Equal(t, int64(42), *gotReq.Seed)
	})

	t.Run("Non-OK status", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, "model loading", http.StatusServiceUnavailable)
		}))
		defer srv.Close()

		_, err := newDiffusionClient(t, srv.URL).GenerateImage(ctx, models.ImageGenerationRequest{Prompt: "an owl"})
		assert.True(t, errors.Is(err, models.ErrProviderUnavailable))
	})

	t.Run("Empty image data", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		_, err := newDiffusionClient(t, srv.URL).GenerateImage(ctx, models.ImageGenerationRequest{Prompt: "an owl"})
		assert.True(t, errors.Is(err, models.ErrGenerationFailed))
	})

	t.Run("Blank prompt never reaches the server", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("server should not be called")
		}))
		defer srv.Close()

		_, err := newDiffusionClient(t, srv.URL).GenerateImage(ctx, models.ImageGenerationRequest{Prompt: "   "})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})

	t.Run("Out-of-range size", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("server should not be called")
		}))
		defer srv.Close()

		_, err := newDiffusionClient(t, srv.URL).GenerateImage(ctx, models.ImageGenerationRequest{Prompt: "an owl", Width: 64, Height: 64})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}

func newOpenAITextClientForTest(t *testing.T, srvURL string) TextClient {
	t.Helper()
	client, err := NewTextClient(Config{
		ClientType:     "openai",
		BaseURL:        srvURL + "/v1",
		APIKey:         "sk-test",
		Model:          "test-model",
		RequestTimeout: 5 * time.Second,
	}, zap.NewNop())
	require.NoError(t, err)
	return client
}

func TestOpenAIGenerateText(t *testing.T) {
	ctx := context.Background()

	t.Run("Success with reported usage", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			var body map[string]any
			require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
			assert.Equal(t, "test-model", body["model"])

			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{
				"id": "chatcmpl-1",
				"object": "chat.completion",
				"model": "test-model",
				"choices": [{"index": 0, "message": {"role": "assistant", "content": "Brass and steam."}, "finish_reason": "stop"}],
				"usage": {"prompt_tokens": 7, "completion_tokens": 4, "total_tokens": 11}
			}`)
		}))
		defer srv.Close()

		result, err := newOpenAITextClientForTest(t, srv.URL).GenerateText(ctx, "user-1", models.TextGenerationRequest{Prompt: "Describe the workshop."})
		require.NoError(t, err)
		assert.Equal(t, "Brass and steam.", result.Text)
		assert.Equal(t, "stop", result.FinishReason)
		assert.Equal(t, 11, result.Usage.TotalTokens)
		assert.Equal(t, "test-model", result.Model)
	})

	t.Run("Provider error", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = io.WriteString(w, `{"error": {"message": "boom", "type": "server_error"}}`)
		}))
		defer srv.Close()

		_, err := newOpenAITextClientForTest(t, srv.URL).GenerateText(ctx, "user-1", models.TextGenerationRequest{Prompt: "Hello"})
		assert.True(t, errors.Is(err, models.ErrProviderUnavailable))
	})

	t.Run("Empty choices", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			_, _ = io.WriteString(w, `{"id": "chatcmpl-2", "object": "chat.completion", "choices": []}`)
		}))
		defer srv.Close()

		_, err := newOpenAITextClientForTest(t, srv.URL).GenerateText(ctx, "user-1", models.TextGenerationRequest{Prompt: "Hello"})
		assert.True(t, errors.Is(err, models.ErrGenerationFailed))
	})

	t.Run("Blank prompt", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, _ *http.Request) {
			t.Error("server should not be called")
		}))
		defer srv.Close()

		_, err := newOpenAITextClientForTest(t, srv.URL).GenerateText(ctx, "user-1", models.TextGenerationRequest{Prompt: " "})
		assert.True(t, errors.Is(err, models.ErrInvalidInput))
	})
}

func TestOpenAIGenerateTextStream(t *testing.T) {
	ctx := context.Background()

	newStreamServer := func(t *testing.T) *httptest.Server {
		t.Helper()
		return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/v1/chat/completions", r.URL.Path)
			w.Header().Set("Content-Type", "text/event-stream")
			_, _ = io.WriteString(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"Brass \"}}]}\n\n")
			_, _ = io.WriteString(w, "data: {\"id\":\"1\",\"object\":\"chat.completion.chunk\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"owl.\"},\"finish_reason\":\"stop\"}]}\n\n")
			_, _ = io.WriteString(w, "data: [DONE]\n\n")
		}))
	}

	t.Run("Chunks are forwarded and assembled", func(t *testing.T) {
		srv := newStreamServer(t)
		defer srv.Close()

		var chunks []string
		result, err := newOpenAITextClientForTest(t, srv.URL).GenerateTextStream(ctx, "user-1",
			models.TextGenerationRequest{Prompt: "Describe the owl."},
			func(chunk string) error {
				chunks = append(chunks, chunk)
				return nil
			})
		require.NoError(t, err)
		assert.Equal(t, []string{"Brass ", "owl."}, chunks)
		assert.Equal(t, "Brass owl.", result.Text)
		assert.Equal(t, "stop", result.FinishReason)
	})

	t.Run("Chunk handler errors abort the stream", func(t *testing.T) {
		srv := newStreamServer(t)
		defer srv.Close()

		_, err := newOpenAITextClientForTest(t, srv.URL).GenerateTextStream(ctx, "user-1",
			models.TextGenerationRequest{Prompt: "Describe the owl."},
			func(string) error { return errors.New("client went away") })
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunk handler failed")
	})
}

func TestOllamaGenerateText(t *testing.T) {
	ctx := context.Background()

	newOllamaClient := func(t *testing.T, srvURL string) TextClient {
		t.Helper()
		client, err := NewTextClient(Config{
			ClientType:     "ollama",
			BaseURL:        srvURL,
			Model:          "llama3",
			RequestTimeout: 5 * time.Second,
		}, zap.NewNop())
		require.NoError(t, err)
		return client
	}

	t.Run("Success", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/api/chat", r.URL.Path)
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":"Cogs turn."},"done":true,"done_reason":"stop","prompt_eval_count":6,"eval_count":3}`+"\n")
		}))
		defer srv.Close()

		result, err := newOllamaClient(t, srv.URL).GenerateText(ctx, "user-1", models.TextGenerationRequest{Prompt: "Describe the gears."})
		require.NoError(t, err)
		assert.Equal(t, "Cogs turn.", result.Text)
		assert.Equal(t, "stop", result.FinishReason)
		assert.Equal(t, 9, result.Usage.TotalTokens)
	})

	t.Run("Empty completion", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.Header().Set("Content-Type", "application/x-ndjson")
			_, _ = io.WriteString(w, `{"model":"llama3","message":{"role":"assistant","content":""},"done":true}`+"\n")
		}))
		defer srv.Close()

		_, err := newOllamaClient(t, srv.URL).GenerateText(ctx, "user-1", models.TextGenerationRequest{Prompt: "Hello"})
		assert.True(t, errors.Is(err, models.ErrGenerationFailed))
	})
}
