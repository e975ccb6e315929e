// Package whisper provides the Whisper-family ASR model variants.
//
// Two transports are supported:
//
//   - [Pipeline] talks to a whisper.cpp-compatible HTTP inference server
//     (POST /inference with a multipart WAV upload). This mirrors how the
//     pipeline-backed models are served: a sidecar process holds the weights
//     from the shared models directory and the harness uploads audio per call.
//   - [Native] (native.go) loads ggml weights in-process through the
//     whisper.cpp CGO bindings and pins a custom decoding configuration.
package whisper

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strings"
	"time"

	"github.com/lyricbench/lyricbench/pkg/audio"
	"github.com/lyricbench/lyricbench/pkg/model"
)

const (
	// modelSampleRate is the rate Whisper models are trained on. Uploads are
	// resampled to it client-side so the server never has to guess.
	modelSampleRate = 16000

	defaultLanguage = "en"
)

// Compile-time assertion that Pipeline implements model.Transcriber.
var _ model.Transcriber = (*Pipeline)(nil)

// Pipeline is a pipeline-style ASR variant backed by a whisper.cpp HTTP
// inference server. Safe for concurrent use; the harness calls it
// sequentially.
type Pipeline struct {
	modelID    string
	serverURL  string
	language   string
	httpClient *http.Client
}

// NewPipeline constructs a pipeline variant for the given upstream model
// identifier. The snapshot is downloaded into the shared models directory if
// absent (the serving sidecar reads its weights from there).
func NewPipeline(ctx context.Context, env *model.Env, modelID string) (*Pipeline, error) {
	if env.ASRServerURL == "" {
		return nil, errors.New("whisper: inference.asr_server_url is not configured")
	}
	if _, err := env.Hub.EnsureModel(ctx, modelID); err != nil {
		return nil, err
	}
	return &Pipeline{
		modelID:    modelID,
		serverURL:  strings.TrimRight(env.ASRServerURL, "/"),
		language:   defaultLanguage,
		httpClient: &http.Client{Timeout: 10 * time.Minute},
	}, nil
}

// ModelID implements model.Transcriber.
func (p *Pipeline) ModelID() string { return p.modelID }

// Transcribe implements model.Transcriber. The audio file is decoded,
// down-mixed to mono, resampled to 16 kHz and uploaded as WAV.
func (p *Pipeline) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
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
		lang = p.language
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	fw, err := mw.CreateFormFile("file", "audio.wav")
	if err != nil {
		return "", fmt.Errorf("whisper: create form file: %w", err)
	}
	if _, err := fw.Write(audio.EncodeWAV(clip)); err != nil {
		return "", fmt.Errorf("whisper: write wav data: %w", err)
	}
	if err := mw.WriteField("language", lang); err != nil {
		return "", fmt.Errorf("whisper: write language field: %w", err)
	}
	if err := mw.WriteField("model", p.modelID); err != nil {
		return "", fmt.Errorf("whisper: write model field: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("whisper: close multipart writer: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.serverURL+"/inference", &body)
	if err != nil {
		return "", fmt.Errorf("whisper: create request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("whisper: http request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("whisper: server returned HTTP %d", resp.StatusCode)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("whisper: read response body: %w", err)
	}

	var result struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(data, &result); err != nil {
		return "", fmt.Errorf("whisper: parse JSON response: %w", err)
	}
	return strings.TrimSpace(result.Text), nil
}
