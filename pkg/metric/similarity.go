package metric

import (
	"context"
	"fmt"
	"math"

	"github.com/lyricbench/lyricbench/pkg/model"
)

// Compile-time assertion that EmbeddingSimilarity implements Metric.
var _ Metric = (*EmbeddingSimilarity)(nil)

// EmbeddingSimilarity scores the cosine similarity between the embedding
// vectors of reference and hypothesis. The embedding model is a constructor
// argument, so one benchmark run can carry several instances of this metric
// backed by different embedders, each cached under its own descriptor.
type EmbeddingSimilarity struct {
	embedder model.Embedder
}

// NewEmbeddingSimilarity resolves the named embedder through the model
// registry and wraps it as a metric. Resolution may trigger the embedder's
// one-time snapshot download.
func NewEmbeddingSimilarity(ctx context.Context, models *model.Registry, embedderName string) (*EmbeddingSimilarity, error) {
	if embedderName == "" {
		return nil, fmt.Errorf("metric: EmbeddingSimilarity requires an embedder name argument")
	}
	embedder, err := models.ResolveEmbedder(ctx, model.Descriptor{Name: embedderName})
	if err != nil {
		return nil, err
	}
	return &EmbeddingSimilarity{embedder: embedder}, nil
}

// Direction implements Metric.
func (*EmbeddingSimilarity) Direction() Direction { return HigherIsBetter }

// Compute implements Metric.
func (m *EmbeddingSimilarity) Compute(ctx context.Context, reference, hypothesis string) (float64, error) {
	refVec, err := m.embedder.Embed(ctx, reference)
	if err != nil {
		return 0, fmt.Errorf("metric: embed reference: %w", err)
	}
	hypVec, err := m.embedder.Embed(ctx, hypothesis)
	if err != nil {
		return 0, fmt.Errorf("metric: embed hypothesis: %w", err)
	}
	return cosine(refVec, hypVec)
}

// cosine returns the cosine similarity of two equal-length vectors.
func cosine(a, b []float32) (float64, error) {
	if len(a) != len(b) {
		return 0, fmt.Errorf("metric: vector length mismatch: %d vs %d", len(a), len(b))
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0, fmt.Errorf("metric: cannot compare zero vector")
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB)), nil
}
