package embedding

import (
	"context"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/fadilmartias/resume-matcher/internal/config"
	"go.uber.org/zap"
	"google.golang.org/genai"
)

// GeminiClient generates embeddings through the Gemini API. Unlike Ollama
// there is no local pull step; readiness is a one-time remote probe.
type GeminiClient struct {
	client         *genai.Client
	model          string
	maxChars       int
	maxRetries     int
	baseDelay      time.Duration
	maxDelay       time.Duration
	requestTimeout time.Duration
	logger         *zap.Logger

	ready *bool
}

func NewGeminiClient(ctx context.Context, cfg *config.GeminiConfig, model string, maxChars int, logger *zap.Logger) (*GeminiClient, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &GeminiClient{
		client:         client,
		model:          model,
		maxChars:       maxChars,
		maxRetries:     cfg.MaxRetries,
		baseDelay:      time.Second,
		maxDelay:       90 * time.Second,
		requestTimeout: time.Duration(cfg.Timeout) * time.Second,
		logger:         logger.With(zap.String("provider", "gemini"), zap.String("model", model)),
	}, nil
}

func (c *GeminiClient) ModelName() string {
	return c.model
}

// EnsureModelReady probes the model once with a short embed request and
// caches the outcome for the client's lifetime.
func (c *GeminiClient) EnsureModelReady(ctx context.Context) bool {
	if c.ready != nil {
		return *c.ready
	}

	_, err := c.embed(ctx, "ping")
	ok := err == nil
	if !ok {
		c.logger.Warn("model readiness probe failed", zap.Error(err))
	}
	c.ready = &ok
	return ok
}

func (c *GeminiClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !c.EnsureModelReady(ctx) {
		return nil, fmt.Errorf("model %s is not ready", c.model)
	}

	cleaned := CleanText(text, c.maxChars)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("empty text provided for embedding")
	}

	return c.embed(ctx, cleaned)
}

func (c *GeminiClient) GenerateEmbeddingsBatch(ctx context.Context, texts []string) [][]float32 {
	if !c.EnsureModelReady(ctx) {
		return make([][]float32, len(texts))
	}
	return generateBatch(ctx, c, texts)
}

func (c *GeminiClient) embed(ctx context.Context, text string) ([]float32, error) {
	timeoutCtx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	content := []*genai.Content{genai.NewContentFromText(text, genai.RoleUser)}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			delay := c.backoff(attempt)
			c.logger.Debug("retrying embedding request",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)

			select {
			case <-time.After(delay):
			case <-timeoutCtx.Done():
				return nil, fmt.Errorf("context done during retry: %w", timeoutCtx.Err())
			}
		}

		result, err := c.client.Models.EmbedContent(timeoutCtx, c.model, content, nil)
		if err == nil {
			return validateEmbeddingResponse(result)
		}

		lastErr = err
		if !isRetryable(err) {
			return nil, fmt.Errorf("generate embedding failed: %w", err)
		}
		c.logger.Debug("retryable embedding error", zap.Error(err))
	}

	return nil, fmt.Errorf("max retries (%d) exceeded: %w", c.maxRetries, lastErr)
}

func (c *GeminiClient) backoff(attempt int) time.Duration {
	delay := c.baseDelay * time.Duration(math.Pow(2, float64(attempt-1)))
	if delay > c.maxDelay {
		delay = c.maxDelay
	}

	jitter := time.Duration(float64(delay) * 0.25)
	return delay - jitter/2 + time.Duration(float64(jitter)*0.5)
}

func isRetryable(err error) bool {
	if err == nil {
		return false
	}

	msg := err.Error()
	if strings.Contains(msg, "context canceled") ||
		strings.Contains(msg, "context deadline exceeded") {
		return false
	}

	if apiErr, ok := err.(*genai.APIError); ok {
		switch apiErr.Code {
		case 429, 500, 502, 503, 504:
			return true
		case 400, 401, 403, 404:
			return false
		}
	}

	return strings.Contains(msg, "connection refused") ||
		strings.Contains(msg, "connection reset") ||
		strings.Contains(msg, "timeout") ||
		strings.Contains(msg, "EOF")
}

func validateEmbeddingResponse(resp *genai.EmbedContentResponse) ([]float32, error) {
	if resp == nil || len(resp.Embeddings) == 0 {
		return nil, fmt.Errorf("no embeddings returned")
	}

	values := resp.Embeddings[0].Values
	if len(values) == 0 {
		return nil, fmt.Errorf("embedding vector is empty")
	}

	for i, val := range values {
		if math.IsNaN(float64(val)) || math.IsInf(float64(val), 0) {
			return nil, fmt.Errorf("invalid embedding value at index %d: %v", i, val)
		}
	}

	return values, nil
}
