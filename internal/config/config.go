// Package config provides the configuration schema and loader for the
// lyricbench evaluation harness.
package config

import (
	"github.com/lyricbench/lyricbench/pkg/model"
)

// LogLevel controls log verbosity.
type LogLevel string

const (
	LogDebug LogLevel = "debug"
	LogInfo  LogLevel = "info"
	LogWarn  LogLevel = "warn"
	LogError LogLevel = "error"
)

// IsValid reports whether l is a recognised log level.
func (l LogLevel) IsValid() bool {
	switch l {
	case LogDebug, LogInfo, LogWarn, LogError:
		return true
	}
	return false
}

// Config is the root configuration structure for lyricbench.
// It is typically loaded from a YAML file using [Load] or [LoadFromReader].
type Config struct {
	// DatasetsPath is the root holding the audio/ and lyrics/ trees.
	DatasetsPath string `yaml:"datasets_path"`

	// OutputDirectory receives the score table and rendered figures.
	OutputDirectory string `yaml:"output_directory"`

	// ModelsDirectory is the shared snapshot cache.
	ModelsDirectory string `yaml:"models_directory"`

	// HFKeyPath is the file holding the hub bearer token, read only when a
	// download is needed. A leading "~" expands to the user's home directory.
	HFKeyPath string `yaml:"hf_key_path"`

	// ReferenceDataset names the clean-speech dataset that is scored but
	// excluded from analysis figures.
	ReferenceDataset string `yaml:"reference_dataset"`

	// LogLevel controls verbosity.
	LogLevel LogLevel `yaml:"log_level"`

	// Inference holds the local serving endpoints.
	Inference InferenceConfig `yaml:"inference"`

	// SourceSeparationModels is parsed for compatibility with upstream
	// configuration files; separation runs outside this harness.
	SourceSeparationModels []model.Descriptor `yaml:"source_separation_models"`

	// ASRModelsReference lists the transcribers run on the reference dataset.
	ASRModelsReference []model.Descriptor `yaml:"asr_models_reference"`

	// ASRModelsSongs lists the transcribers run on the song datasets.
	ASRModelsSongs []model.Descriptor `yaml:"asr_models_songs"`

	// Metrics lists the metrics computed for every transcription.
	Metrics []model.Descriptor `yaml:"metrics"`
}

// InferenceConfig holds the endpoints of the local serving processes.
type InferenceConfig struct {
	// ASRServerURL is the whisper.cpp-compatible inference server.
	ASRServerURL string `yaml:"asr_server_url"`

	// CTCServerURL is the CTC decode server.
	CTCServerURL string `yaml:"ctc_server_url"`

	// InstructServerURL is the OpenAI-compatible chat server base URL; the
	// client appends /v1 itself.
	InstructServerURL string `yaml:"instruct_server_url"`

	// EmbeddingsServerURL is the OpenAI-compatible embeddings server base URL.
	EmbeddingsServerURL string `yaml:"embeddings_server_url"`

	// APIKey is an optional bearer token for the local servers.
	APIKey string `yaml:"api_key"`
}
