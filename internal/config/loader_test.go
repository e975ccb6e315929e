package config_test

import (
	"strings"
	"testing"

	"github.com/lyricbench/lyricbench/internal/config"
)

func TestLoadFromReader_Defaults(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(""))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	if cfg.DatasetsPath != "./data" {
		t.Errorf("datasets_path = %q", cfg.DatasetsPath)
	}
	if cfg.OutputDirectory != "./output" {
		t.Errorf("output_directory = %q", cfg.OutputDirectory)
	}
	if cfg.ModelsDirectory != "./models" {
		t.Errorf("models_directory = %q", cfg.ModelsDirectory)
	}
	if cfg.ReferenceDataset != "emvd" {
		t.Errorf("reference_dataset = %q", cfg.ReferenceDataset)
	}
	if cfg.LogLevel != config.LogInfo {
		t.Errorf("log_level = %q", cfg.LogLevel)
	}
	if strings.HasPrefix(cfg.HFKeyPath, "~") {
		t.Errorf("hf_key_path %q was not home-expanded", cfg.HFKeyPath)
	}
	if len(cfg.ASRModelsReference) != 5 {
		t.Errorf("asr_models_reference has %d entries; want 5", len(cfg.ASRModelsReference))
	}
	if len(cfg.ASRModelsSongs) != 3 {
		t.Errorf("asr_models_songs has %d entries; want 3", len(cfg.ASRModelsSongs))
	}
	if len(cfg.Metrics) != 6 {
		t.Errorf("metrics has %d entries; want 6", len(cfg.Metrics))
	}
}

func TestLoadFromReader_Overrides(t *testing.T) {
	t.Parallel()
	doc := `
datasets_path: /srv/lyrics
reference_dataset: clean_speech
log_level: debug
inference:
  asr_server_url: http://gpu-box:9000
metrics:
  - WER
  - name: EmbeddingSimilarity
    args: [All_MiniLM_L6_V2]
`
	cfg, err := config.LoadFromReader(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}
	if cfg.DatasetsPath != "/srv/lyrics" {
		t.Errorf("datasets_path = %q", cfg.DatasetsPath)
	}
	if cfg.ReferenceDataset != "clean_speech" {
		t.Errorf("reference_dataset = %q", cfg.ReferenceDataset)
	}
	if cfg.Inference.ASRServerURL != "http://gpu-box:9000" {
		t.Errorf("asr_server_url = %q", cfg.Inference.ASRServerURL)
	}
	// Untouched nested field keeps its default.
	if cfg.Inference.CTCServerURL != "http://localhost:8081" {
		t.Errorf("ctc_server_url = %q", cfg.Inference.CTCServerURL)
	}
	if len(cfg.Metrics) != 2 {
		t.Fatalf("metrics has %d entries; want 2", len(cfg.Metrics))
	}
	if cfg.Metrics[1].String() != "EmbeddingSimilarity(All_MiniLM_L6_V2)" {
		t.Errorf("metrics[1] = %q", cfg.Metrics[1].String())
	}
}

func TestLoadFromReader_UnknownField(t *testing.T) {
	t.Parallel()
	if _, err := config.LoadFromReader(strings.NewReader("no_such_field: 1\n")); err == nil {
		t.Fatal("expected error for unknown field")
	}
}

func TestLoadFromReader_InvalidLogLevel(t *testing.T) {
	t.Parallel()
	if _, err := config.LoadFromReader(strings.NewReader("log_level: verbose\n")); err == nil {
		t.Fatal("expected error for invalid log level")
	}
}

func TestValidateNames(t *testing.T) {
	t.Parallel()
	cfg, err := config.LoadFromReader(strings.NewReader(`
asr_models_reference: [Whisper_Large_V3]
asr_models_songs: [Whisper_Large_V3]
metrics: [WER]
`))
	if err != nil {
		t.Fatalf("LoadFromReader: %v", err)
	}

	known := []string{"Whisper_Large_V3"}
	if err := config.ValidateNames(cfg, known, []string{"WER"}); err != nil {
		t.Errorf("ValidateNames with known names: %v", err)
	}

	err = config.ValidateNames(cfg, known, []string{"BLEU"})
	if err == nil {
		t.Fatal("expected error for unknown metric name")
	}
	if !strings.Contains(err.Error(), "WER") {
		t.Errorf("error %q does not name the offending metric", err)
	}
}
