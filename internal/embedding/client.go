package embedding

import (
	"context"
	"strings"
)

// Generator turns text into a dense vector using a named model served by an
// external process.
//
// GenerateEmbedding returns an error for per-item failures (model not ready,
// empty text after cleaning, remote error); callers running batches absorb
// those and continue. EnsureModelReady memoizes its first outcome for the
// lifetime of the client: readiness is assumed stable per process, and a
// caller needing a fresh probe constructs a new client.
type Generator interface {
	ModelName() string
	EnsureModelReady(ctx context.Context) bool
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
	GenerateEmbeddingsBatch(ctx context.Context, texts []string) [][]float32
}

// CleanText collapses whitespace runs to single spaces and truncates to
// maxChars, appending a truncation marker. Deterministic: the same input
// always yields the same output.
func CleanText(text string, maxChars int) string {
	cleaned := strings.Join(strings.Fields(text), " ")
	if maxChars > 0 && len(cleaned) > maxChars {
		cleaned = cleaned[:maxChars] + "..."
	}
	return cleaned
}

type singleGenerator interface {
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)
}

// generateBatch applies g sequentially, preserving input order and length.
// A failed item leaves a nil slot and does not abort the batch.
func generateBatch(ctx context.Context, g singleGenerator, texts []string) [][]float32 {
	out := make([][]float32, len(texts))
	for i, text := range texts {
		vec, err := g.GenerateEmbedding(ctx, text)
		if err != nil {
			continue
		}
		out[i] = vec
	}
	return out
}
