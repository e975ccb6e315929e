package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/lyricbench/lyricbench/pkg/model"
	"gopkg.in/yaml.v3"
)

// Load reads the YAML configuration file at path and returns a validated
// [Config] with defaults applied. It is a convenience wrapper around
// [LoadFromReader]. An empty path yields the pure defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		cfg := &Config{}
		applyDefaults(cfg)
		return cfg, Validate(cfg)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("config: open %q: %w", path, err)
	}
	defer f.Close()

	cfg, err := LoadFromReader(f)
	if err != nil {
		return nil, fmt.Errorf("config: parse %q: %w", path, err)
	}
	return cfg, nil
}

// LoadFromReader decodes a YAML config from r, applies defaults and validates
// the result. Useful in tests where configs are constructed from string
// literals.
func LoadFromReader(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("config: decode yaml: %w", err)
	}
	applyDefaults(cfg)
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyDefaults fills every unset field with its documented default.
func applyDefaults(cfg *Config) {
	if cfg.DatasetsPath == "" {
		cfg.DatasetsPath = "./data"
	}
	if cfg.OutputDirectory == "" {
		cfg.OutputDirectory = "./output"
	}
	if cfg.ModelsDirectory == "" {
		cfg.ModelsDirectory = "./models"
	}
	if cfg.HFKeyPath == "" {
		cfg.HFKeyPath = "~/hugging_face.key"
	}
	if cfg.ReferenceDataset == "" {
		cfg.ReferenceDataset = "emvd"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = LogInfo
	}
	if cfg.Inference.ASRServerURL == "" {
		cfg.Inference.ASRServerURL = "http://localhost:8080"
	}
	if cfg.Inference.CTCServerURL == "" {
		cfg.Inference.CTCServerURL = "http://localhost:8081"
	}
	if cfg.Inference.InstructServerURL == "" {
		cfg.Inference.InstructServerURL = "http://localhost:8090"
	}
	if cfg.Inference.EmbeddingsServerURL == "" {
		cfg.Inference.EmbeddingsServerURL = "http://localhost:8091"
	}
	if cfg.SourceSeparationModels == nil {
		cfg.SourceSeparationModels = []model.Descriptor{
			{Name: "Demucs", Args: []string{"mdx_extra"}},
		}
	}
	if cfg.ASRModelsReference == nil {
		cfg.ASRModelsReference = descriptors(
			"Whisper_Large_V3", "Whisper_Large_V2", "Phi_4_Multimodal_Instruct",
			"Canary_1B", "Wav2vec2_Large_960h_Lv60_Self",
		)
	}
	if cfg.ASRModelsSongs == nil {
		cfg.ASRModelsSongs = descriptors(
			"Whisper_Large_V3", "Whisper_Large_V2", "Phi_4_Multimodal_Instruct",
		)
	}
	if cfg.Metrics == nil {
		cfg.Metrics = []model.Descriptor{
			{Name: "WER"},
			{Name: "BLEU"},
			{Name: "ROUGE"},
			{Name: "EmbeddingSimilarity", Args: []string{"Gte_Qwen2_1d5B_Instruct"}},
			{Name: "EmbeddingSimilarity", Args: []string{"All_MiniLM_L6_V2"}},
			{Name: "EmbeddingSimilarity", Args: []string{"All_MPNet_Base_V2"}},
		}
	}
	cfg.HFKeyPath = expandHome(cfg.HFKeyPath)
}

func descriptors(names ...string) []model.Descriptor {
	out := make([]model.Descriptor, len(names))
	for i, n := range names {
		out[i] = model.Descriptor{Name: n}
	}
	return out
}

// expandHome resolves a leading "~/" against the current user's home
// directory. On failure the path is returned unchanged; the error will
// surface when the key file is actually read.
func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~"))
}

// Validate checks that cfg contains a coherent set of values.
// It returns a joined error listing all validation failures found.
func Validate(cfg *Config) error {
	var errs []error

	if !cfg.LogLevel.IsValid() {
		errs = append(errs, fmt.Errorf("log_level %q is invalid; valid values: debug, info, warn, error", cfg.LogLevel))
	}
	if cfg.DatasetsPath == "" {
		errs = append(errs, errors.New("datasets_path is required"))
	}
	if cfg.OutputDirectory == "" {
		errs = append(errs, errors.New("output_directory is required"))
	}
	if cfg.ModelsDirectory == "" {
		errs = append(errs, errors.New("models_directory is required"))
	}
	if cfg.ReferenceDataset == "" {
		errs = append(errs, errors.New("reference_dataset is required"))
	}
	for i, d := range cfg.Metrics {
		if d.Name == "" {
			errs = append(errs, fmt.Errorf("metrics[%d] has no name", i))
		}
	}

	return errors.Join(errs...)
}

// ValidateNames checks every configured model and metric name against the
// registries' known-name lists, so a typo fails at load time rather than
// halfway through a scoring run.
func ValidateNames(cfg *Config, knownTranscribers, knownMetrics []string) error {
	var errs []error

	checkModels := func(field string, list []model.Descriptor) {
		for _, d := range list {
			if !slices.Contains(knownTranscribers, d.Name) {
				errs = append(errs, fmt.Errorf("%s: unknown model %q; known: %s",
					field, d.Name, strings.Join(knownTranscribers, ", ")))
			}
		}
	}
	checkModels("asr_models_reference", cfg.ASRModelsReference)
	checkModels("asr_models_songs", cfg.ASRModelsSongs)

	for _, d := range cfg.Metrics {
		if !slices.Contains(knownMetrics, d.Name) {
			errs = append(errs, fmt.Errorf("metrics: unknown metric %q; known: %s",
				d.Name, strings.Join(knownMetrics, ", ")))
		}
	}

	return errors.Join(errs...)
}
