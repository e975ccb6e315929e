// Package embed provides the text embedding model variants. They all speak
// the OpenAI embeddings protocol to a local serving endpoint; what varies per
// variant is the upstream snapshot and the fixed vector width.
package embed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"

	"github.com/lyricbench/lyricbench/pkg/model"
)

// Compile-time assertion that Embedder implements model.Embedder.
var _ model.Embedder = (*Embedder)(nil)

// Embedder is an embedding variant backed by an OpenAI-compatible
// /v1/embeddings endpoint.
type Embedder struct {
	modelID    string
	dimensions int
	client     oai.Client
}

// New constructs an embedding variant with a fixed vector width. The snapshot
// is downloaded into the shared models directory if absent.
func New(ctx context.Context, env *model.Env, modelID string, dimensions int) (*Embedder, error) {
	if env.EmbedServerURL == "" {
		return nil, errors.New("embed: inference.embeddings_server_url is not configured")
	}
	if dimensions <= 0 {
		return nil, fmt.Errorf("embed: invalid dimensions %d for %q", dimensions, modelID)
	}
	if _, err := env.Hub.EnsureModel(ctx, modelID); err != nil {
		return nil, err
	}

	apiKey := env.APIKey
	if apiKey == "" {
		apiKey = "none"
	}
	client := oai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(env.EmbedServerURL, "/")+"/v1"),
	)

	return &Embedder{modelID: modelID, dimensions: dimensions, client: client}, nil
}

// ModelID implements model.Embedder.
func (e *Embedder) ModelID() string { return e.modelID }

// Dimensions implements model.Embedder.
func (e *Embedder) Dimensions() int { return e.dimensions }

// Embed implements model.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.Embeddings.New(ctx, oai.EmbeddingNewParams{
		Model: e.modelID,
		Input: oai.EmbeddingNewParamsInputUnion{
			OfString: param.NewOpt(text),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("embed: %q: %w", e.modelID, err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embed: %q returned no data", e.modelID)
	}
	vec := float64ToFloat32(resp.Data[0].Embedding)
	if len(vec) != e.dimensions {
		return nil, fmt.Errorf("embed: %q returned %d dimensions; want %d", e.modelID, len(vec), e.dimensions)
	}
	return vec, nil
}

func float64ToFloat32(in []float64) []float32 {
	out := make([]float32, len(in))
	for i, v := range in {
		out[i] = float32(v)
	}
	return out
}
