package embedding

import (
	"context"
	"fmt"
	"strings"

	"github.com/fadilmartias/resume-matcher/internal/config"
	"github.com/go-resty/resty/v2"
	"github.com/tidwall/gjson"
	"go.uber.org/zap"
)

// OllamaClient generates embeddings through a local Ollama server.
type OllamaClient struct {
	http     *resty.Client
	model    string
	maxChars int
	logger   *zap.Logger

	ready *bool // memoized first readiness outcome
}

func NewOllamaClient(cfg *config.OllamaConfig, model string, maxChars int, logger *zap.Logger) *OllamaClient {
	client := resty.New().
		SetBaseURL(cfg.BaseURL()).
		SetTimeout(cfg.RequestTimeout()).
		SetHeader("Content-Type", "application/json")

	return &OllamaClient{
		http:     client,
		model:    model,
		maxChars: maxChars,
		logger:   logger.With(zap.String("provider", "ollama"), zap.String("model", model)),
	}
}

func (c *OllamaClient) ModelName() string {
	return c.model
}

// ListModels returns the model names the server reports.
func (c *OllamaClient) ListModels(ctx context.Context) ([]string, error) {
	resp, err := c.http.R().SetContext(ctx).Get("/api/tags")
	if err != nil {
		return nil, fmt.Errorf("listing models: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("listing models: status %s", resp.Status())
	}

	var names []string
	for _, m := range gjson.GetBytes(resp.Body(), "models").Array() {
		name := m.Get("name").String()
		if name == "" {
			name = m.Get("model").String()
		}
		if name != "" {
			names = append(names, name)
		}
	}
	return names, nil
}

// PullModel asks the server to download a model.
func (c *OllamaClient) PullModel(ctx context.Context, name string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"name": name, "stream": false}).
		Post("/api/pull")
	if err != nil {
		return fmt.Errorf("pulling model %s: %w", name, err)
	}
	if resp.IsError() {
		return fmt.Errorf("pulling model %s: status %s", name, resp.Status())
	}
	return nil
}

// EnsureModelReady checks that the configured model is available, pulling it
// if missing. The first outcome is cached for the client's lifetime.
func (c *OllamaClient) EnsureModelReady(ctx context.Context) bool {
	if c.ready != nil {
		return *c.ready
	}

	ok := c.checkOrPull(ctx)
	c.ready = &ok
	return ok
}

func (c *OllamaClient) checkOrPull(ctx context.Context) bool {
	names, err := c.ListModels(ctx)
	if err != nil {
		c.logger.Warn("checking model availability failed", zap.Error(err))
		return false
	}

	for _, name := range names {
		if name == c.model || name == c.model+":latest" {
			return true
		}
	}

	c.logger.Info("model not present, pulling")
	if err := c.PullModel(ctx, c.model); err != nil {
		c.logger.Warn("pulling model failed", zap.Error(err))
		return false
	}
	return true
}

// GenerateEmbedding embeds one text. The text is cleaned and truncated first;
// an empty result after cleaning is an error, not a remote call.
func (c *OllamaClient) GenerateEmbedding(ctx context.Context, text string) ([]float32, error) {
	if !c.EnsureModelReady(ctx) {
		return nil, fmt.Errorf("model %s is not ready", c.model)
	}

	cleaned := CleanText(text, c.maxChars)
	if strings.TrimSpace(cleaned) == "" {
		return nil, fmt.Errorf("empty text provided for embedding")
	}
	if len(cleaned) != len(text) {
		c.logger.Debug("text truncated for embedding", zap.Int("chars", c.maxChars))
	}

	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(map[string]any{"model": c.model, "prompt": cleaned}).
		Post("/api/embeddings")
	if err != nil {
		return nil, fmt.Errorf("generating embedding: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("generating embedding: status %s", resp.Status())
	}

	values := gjson.GetBytes(resp.Body(), "embedding").Array()
	if len(values) == 0 {
		return nil, fmt.Errorf("no embedding returned")
	}

	vec := make([]float32, len(values))
	for i, v := range values {
		vec[i] = float32(v.Float())
	}
	return vec, nil
}

// GenerateEmbeddingsBatch embeds texts one at a time, preserving order. A
// failure leaves a nil slot and the batch continues.
func (c *OllamaClient) GenerateEmbeddingsBatch(ctx context.Context, texts []string) [][]float32 {
	if !c.EnsureModelReady(ctx) {
		return make([][]float32, len(texts))
	}
	return generateBatch(ctx, c, texts)
}
