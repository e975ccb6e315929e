// Package instruct provides the instruction-following multimodal transcriber
// variant. Instead of a dedicated ASR head, the model is a chat model that
// receives the audio inline and a fixed instruction asking for the lyrics.
package instruct

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	"github.com/openai/openai-go/shared"

	"github.com/lyricbench/lyricbench/pkg/audio"
	"github.com/lyricbench/lyricbench/pkg/model"
)

const (
	// transcribePrompt is the fixed instruction sent with every clip. The
	// trailing sentence keeps chatty models from wrapping the lyrics in prose.
	transcribePrompt = "Transcribe the lyrics in the audio to text. Do not write anything else."

	// maxCompletionTokens bounds the reply length; song lyrics fit comfortably.
	maxCompletionTokens = 1000

	modelSampleRate = 16000
)

// AttentionKind reports which attention implementation the serving side runs.
type AttentionKind string

const (
	// AttentionAccelerated means the server has a fused flash attention kernel.
	AttentionAccelerated AttentionKind = "accelerated"

	// AttentionDefault is the eager fallback.
	AttentionDefault AttentionKind = "default"
)

// Compile-time assertion that Transcriber implements model.Transcriber.
var _ model.Transcriber = (*Transcriber)(nil)

// Transcriber is the instruction-following variant. It speaks the OpenAI chat
// protocol to a local multimodal server and embeds the audio as a base64 WAV
// content part.
type Transcriber struct {
	modelID   string
	client    oai.Client
	attention AttentionKind
}

// New constructs the variant: the snapshot is downloaded if absent and the
// serving side is probed once for its attention implementation. The probe is
// best-effort; on failure the default path is assumed and logged.
func New(ctx context.Context, env *model.Env, modelID string) (*Transcriber, error) {
	if env.InstructServerURL == "" {
		return nil, errors.New("instruct: inference.instruct_server_url is not configured")
	}
	if _, err := env.Hub.EnsureModel(ctx, modelID); err != nil {
		return nil, err
	}

	apiKey := env.APIKey
	if apiKey == "" {
		// The client library insists on a key even for local servers.
		apiKey = "none"
	}
	client := oai.NewClient(
		option.WithAPIKey(apiKey),
		option.WithBaseURL(strings.TrimRight(env.InstructServerURL, "/")+"/v1"),
	)

	attention := detectAttention(ctx, env.InstructServerURL)
	env.LoggerOrDefault().Info("instruct model ready",
		"model", modelID, "attention", string(attention))

	return &Transcriber{
		modelID:   modelID,
		client:    client,
		attention: attention,
	}, nil
}

// ModelID implements model.Transcriber.
func (t *Transcriber) ModelID() string { return t.modelID }

// Attention reports the attention implementation selected at setup.
func (t *Transcriber) Attention() AttentionKind { return t.attention }

// Transcribe implements model.Transcriber. The language hint is folded into
// the instruction when present; the model otherwise auto-detects.
func (t *Transcriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	clip, err := audio.Load(audioPath)
	if err != nil {
		return "", err
	}
	clip, err = audio.Resample(clip, modelSampleRate)
	if err != nil {
		return "", err
	}

	prompt := transcribePrompt
	if language != "" {
		prompt = fmt.Sprintf("The lyrics are in %s. %s", language, transcribePrompt)
	}

	parts := []oai.ChatCompletionContentPartUnionParam{
		oai.InputAudioContentPart(oai.ChatCompletionContentPartInputAudioInputAudioParam{
			Data:   base64.StdEncoding.EncodeToString(audio.EncodeWAV(clip)),
			Format: "wav",
		}),
		oai.TextContentPart(prompt),
	}

	params := oai.ChatCompletionNewParams{
		Model: shared.ChatModel(t.modelID),
		Messages: []oai.ChatCompletionMessageParamUnion{
			{
				OfUser: &oai.ChatCompletionUserMessageParam{
					Content: oai.ChatCompletionUserMessageParamContentUnion{
						OfArrayOfContentParts: parts,
					},
				},
			},
		},
		MaxCompletionTokens: param.NewOpt(int64(maxCompletionTokens)),
	}

	resp, err := t.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", fmt.Errorf("instruct: chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.New("instruct: response has no choices")
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// detectAttention probes the serving side's /props endpoint. Servers that run
// a fused flash attention kernel advertise it there; anything else, including
// servers without the endpoint, counts as the default path.
func detectAttention(ctx context.Context, serverURL string) AttentionKind {
	probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	url := strings.TrimRight(serverURL, "/") + "/props"
	req, err := http.NewRequestWithContext(probeCtx, http.MethodGet, url, nil)
	if err != nil {
		return AttentionDefault
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return AttentionDefault
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return AttentionDefault
	}

	var props struct {
		FlashAttn bool `json:"flash_attn"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&props); err != nil {
		return AttentionDefault
	}
	if props.FlashAttn {
		return AttentionAccelerated
	}
	return AttentionDefault
}
