// This file contains the Native variant backed by the whisper.cpp CGO
// bindings. The whisper.cpp static library (libwhisper.a) and headers
// (whisper.h) must be available at link time via LIBRARY_PATH and
// C_INCLUDE_PATH environment variables.

package whisper

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	whisperlib "github.com/ggerganov/whisper.cpp/bindings/go/pkg/whisper"
	"github.com/lyricbench/lyricbench/pkg/audio"
	"github.com/lyricbench/lyricbench/pkg/model"
)

// Compile-time assertion that Native satisfies model.Transcriber.
var _ model.Transcriber = (*Native)(nil)

// Native is a transcriber that loads ggml weights in-process and decodes with
// a pinned custom configuration (greedy search, beam size 1). The model is
// loaded once at construction and shared by every Transcribe call; each call
// creates its own inference context because contexts are not thread-safe.
type Native struct {
	modelID  string
	model    whisperlib.Model
	language string
	beamSize int
}

// NativeOption is a functional option for configuring a Native variant.
type NativeOption func(*Native)

// WithLanguage sets the BCP-47 language code used when the caller does not
// pass one (e.g. "en", "de"). Defaults to "en".
func WithLanguage(lang string) NativeOption {
	return func(n *Native) { n.language = lang }
}

// WithBeamSize overrides the decoding beam size. Defaults to 1, matching the
// reduced-memory configuration this variant exists for.
func WithBeamSize(size int) NativeOption {
	return func(n *Native) { n.beamSize = size }
}

// NewNative downloads the snapshot for modelID if absent, locates the ggml
// weights file inside it and loads the model through the CGO bindings. The
// caller must call Close when the variant is no longer needed.
func NewNative(ctx context.Context, env *model.Env, modelID string, opts ...NativeOption) (*Native, error) {
	snapshot, err := env.Hub.EnsureModel(ctx, modelID)
	if err != nil {
		return nil, err
	}
	weights, err := findWeights(snapshot)
	if err != nil {
		return nil, err
	}

	m, err := whisperlib.New(weights)
	if err != nil {
		return nil, fmt.Errorf("whisper: load model %q: %w", weights, err)
	}

	n := &Native{
		modelID:  modelID,
		model:    m,
		language: defaultLanguage,
		beamSize: 1,
	}
	for _, o := range opts {
		o(n)
	}
	env.LoggerOrDefault().Info("loaded native model",
		"model", modelID, "weights", weights, "beam_size", n.beamSize)
	return n, nil
}

// Close releases the loaded model.
func (n *Native) Close() error {
	if n.model != nil {
		return n.model.Close()
	}
	return nil
}

// ModelID implements model.Transcriber.
func (n *Native) ModelID() string { return n.modelID }

// Transcribe implements model.Transcriber. Audio is decoded, down-mixed to
// mono and resampled to 16 kHz before inference.
func (n *Native) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	clip, err := audio.Load(audioPath)
	if err != nil {
		return "", err
	}
	clip, err = audio.Resample(clip, modelSampleRate)
	if err != nil {
		return "", err
	}

	lang := language
	if lang == "" {
		lang = n.language
	}

	// Each inference gets a fresh context; the model itself is shareable.
	wctx, err := n.model.NewContext()
	if err != nil {
		return "", fmt.Errorf("whisper: create context: %w", err)
	}
	if err := wctx.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("whisper: set language %q: %w", lang, err)
	}
	wctx.SetBeamSize(n.beamSize)

	if err := wctx.Process(clip.Samples, nil, nil, nil); err != nil {
		return "", fmt.Errorf("whisper: process audio: %w", err)
	}

	var parts []string
	for {
		segment, err := wctx.NextSegment()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("whisper: read segment: %w", err)
		}
		text := strings.TrimSpace(segment.Text)
		if text != "" {
			parts = append(parts, text)
		}
	}
	return strings.Join(parts, " "), nil
}

// findWeights locates the ggml weights file inside a snapshot directory.
// Snapshots may ship several quantisations; the lexically first match wins so
// the choice is stable across runs.
func findWeights(snapshot string) (string, error) {
	var candidates []string
	err := filepath.WalkDir(snapshot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch filepath.Ext(d.Name()) {
		case ".bin", ".gguf":
			candidates = append(candidates, path)
		}
		return nil
	})
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("whisper: snapshot %q does not exist", snapshot)
		}
		return "", fmt.Errorf("whisper: scan snapshot %q: %w", snapshot, err)
	}
	if len(candidates) == 0 {
		return "", fmt.Errorf("whisper: no ggml weights (.bin or .gguf) in snapshot %q", snapshot)
	}
	sort.Strings(candidates)
	return candidates[0], nil
}
