// Package ctc provides the wav2vec2-style CTC transcriber variant.
//
// CTC models emit one label per acoustic frame, so feeding them audio at the
// wrong rate silently produces garbage instead of an error. The variant
// therefore always resamples to the model's training rate client-side before
// uploading, rather than trusting the serving side to do it.
package ctc

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/lyricbench/lyricbench/pkg/audio"
	"github.com/lyricbench/lyricbench/pkg/model"
)

// modelSampleRate is the rate the wav2vec2 family is trained on.
const modelSampleRate = 16000

// Compile-time assertion that Transcriber implements model.Transcriber.
var _ model.Transcriber = (*Transcriber)(nil)

// Transcriber is a CTC ASR variant backed by a decode server that accepts a
// raw WAV body and returns the greedy CTC decode as JSON.
type Transcriber struct {
	modelID    string
	serverURL  string
	httpClient *http.Client
}

// New constructs a CTC variant for the given upstream model identifier,
// downloading its snapshot into the shared models directory if absent.
func New(ctx context.Context, env *model.Env, modelID string) (*Transcriber, error) {
	if env.CTCServerURL == "" {
		return nil, errors.New("ctc: inference.ctc_server_url is not configured")
	}
	if _, err := env.Hub.EnsureModel(ctx, modelID); err != nil {
		return nil, err
	}
	return &Transcriber{
		modelID:    modelID,
		serverURL:  strings.TrimRight(env.CTCServerURL, "/"),
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

// ModelID implements model.Transcriber.
func (t *Transcriber) ModelID() string { return t.modelID }

// Transcribe implements model.Transcriber. The language hint is ignored; the
// wav2vec2 checkpoints this variant serves are English-only.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	clip, err := audio.Load(audioPath)
	if err != nil {
		return "", err
	}
	clip, err = audio.Resample(clip, modelSampleRate)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		t.serverURL+"/decode", bytes.NewReader(audio.EncodeWAV(clip)))
	if err != nil {
		return "", fmt.Errorf("ctc: create request: %w", err)
	}
	req.Header.Set("Content-Type", "audio/wav")

	resp, err := t.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("ctc: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("ctc: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("ctc: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("ctc: parse JSON response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}
