// Package model defines the capability interfaces for benchmark models and
// the registry that resolves configured model names to singleton instances.
//
// A model is identified by a [Descriptor]: a registry name plus optional
// constructor arguments. Concrete variants (Whisper pipelines, the native
// custom-decoding model, the CTC model, instruction-following transcription,
// embedding models) live in sub-packages and are wired into a [Registry] at
// startup; there is no reflection-based lookup.
//
// Resolution is memoised: the first resolve of an identifier constructs the
// variant (triggering its one-time snapshot download via [hub.Client]) and
// every later resolve of the same identifier returns the identical instance.
package model

import (
	"context"
	"log/slog"

	"github.com/lyricbench/lyricbench/pkg/hub"
)

// Transcriber is the capability of automatic speech recognition models:
// turning an audio file into plain text.
type Transcriber interface {
	// Transcribe converts the audio file at audioPath to text. language is an
	// optional hint ("" means the variant's default, typically English).
	Transcribe(ctx context.Context, audioPath, language string) (string, error)

	// ModelID returns the upstream snapshot identifier
	// (e.g. "openai/whisper-large-v3").
	ModelID() string
}

// Embedder is the capability of text embedding models: mapping text to a
// fixed-size dense vector of mean-pooled token features.
type Embedder interface {
	// Embed computes the embedding vector for text. The returned slice has
	// length Dimensions().
	Embed(ctx context.Context, text string) ([]float32, error)

	// Dimensions returns the fixed embedding vector length.
	Dimensions() int

	// ModelID returns the upstream snapshot identifier.
	ModelID() string
}

// Env carries the shared dependencies handed to every model factory: the
// snapshot cache, the local inference endpoints, and a logger. One Env is
// built from configuration at startup and shared by the whole run.
type Env struct {
	// Hub downloads and caches model snapshots.
	Hub *hub.Client

	// ASRServerURL is the whisper.cpp-compatible inference server used by the
	// pipeline-backed ASR variants.
	ASRServerURL string

	// CTCServerURL is the CTC decode server used by the wav2vec2-style variant.
	CTCServerURL string

	// InstructServerURL is the OpenAI-compatible chat endpoint serving the
	// instruction-following multimodal model.
	InstructServerURL string

	// EmbedServerURL is the OpenAI-compatible embeddings endpoint.
	EmbedServerURL string

	// APIKey is an optional bearer token for the local inference servers.
	APIKey string

	// Logger receives one-time setup decisions (attention path, downloads).
	Logger *slog.Logger
}

// LoggerOrDefault returns the configured logger or slog.Default().
func (e *Env) LoggerOrDefault() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.Default()
}
