package analyze_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/lyricbench/lyricbench/internal/analyze"
	"github.com/lyricbench/lyricbench/internal/config"
	"github.com/lyricbench/lyricbench/internal/scores"
	"github.com/lyricbench/lyricbench/pkg/metric"
	"github.com/lyricbench/lyricbench/pkg/model"
)

// writeAudioTree creates {root}/audio/{dataset}/{style}/ with the given file
// names (content is irrelevant; only the listing matters here).
func writeAudioTree(t *testing.T, root, dataset string, styles []string, files []string) {
	t.Helper()
	for _, style := range styles {
		dir := filepath.Join(root, "audio", dataset, style)
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatal(err)
		}
		for _, f := range files {
			if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
				t.Fatal(err)
			}
		}
	}
}

func newMetricRegistry() *metric.Registry {
	metrics := metric.NewRegistry(model.NewRegistry(&model.Env{}))
	metrics.Register("WER", func(ctx context.Context, m *model.Registry, args []string) (metric.Metric, error) {
		return metric.NewWER(), nil
	})
	return metrics
}

func TestRun_RendersOneFigurePerDatasetAndMetric(t *testing.T) {
	t.Parallel()
	datasets := t.TempDir()
	output := t.TempDir()
	styles := []string{"rock", "ballad", "metal"}
	files := []string{"a.wav", "b.wav", "c.wav"}
	writeAudioTree(t, datasets, "jam", styles, files)
	writeAudioTree(t, datasets, "emvd", []string{"spoken"}, files)

	cfg := &config.Config{
		DatasetsPath:     datasets,
		OutputDirectory:  output,
		ReferenceDataset: "emvd",
		ASRModelsSongs:   []model.Descriptor{{Name: "ModelA"}, {Name: "ModelB"}},
		Metrics:          []model.Descriptor{{Name: "WER"}},
	}

	// Two versions per file; WER is lower-is-better, so the best of the two
	// must be the one that survives into the mean.
	table := scores.NewTable()
	for _, style := range styles {
		for _, f := range files {
			for _, m := range []string{"ModelA", "ModelB"} {
				table.Set("jam/"+style, f, m, "v1", "WER", 0.4)
				table.Set("jam/"+style, f, m, "v2", "WER", 0.2)
			}
		}
	}
	if err := scores.NewStore(output).Save(table); err != nil {
		t.Fatalf("Save: %v", err)
	}

	d := analyze.NewDriver(cfg, newMetricRegistry(), nil)
	if err := d.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}

	figure := filepath.Join(output, "figures", "jam - WER.png")
	if _, err := os.Stat(figure); err != nil {
		t.Errorf("expected figure at %q: %v", figure, err)
	}

	// The reference dataset must not be plotted.
	if _, err := os.Stat(filepath.Join(output, "figures", "emvd - WER.png")); err == nil {
		t.Error("reference dataset was plotted")
	}
}

func TestRun_TwoStyleDataset(t *testing.T) {
	t.Parallel()
	datasets := t.TempDir()
	output := t.TempDir()
	writeAudioTree(t, datasets, "rock", []string{"ballad", "metal"}, []string{"file1.wav"})

	cfg := &config.Config{
		DatasetsPath:     datasets,
		OutputDirectory:  output,
		ReferenceDataset: "emvd",
		ASRModelsSongs:   []model.Descriptor{{Name: "ModelA"}},
		Metrics:          []model.Descriptor{{Name: "WER"}},
	}

	table := scores.NewTable()
	table.Set("rock/ballad", "file1.wav", "ModelA", "v1", "WER", 0.1)
	table.Set("rock/metal", "file1.wav", "ModelA", "v1", "WER", 0.3)
	if err := scores.NewStore(output).Save(table); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if err := analyze.NewDriver(cfg, newMetricRegistry(), nil).Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if _, err := os.Stat(filepath.Join(output, "figures", "rock - WER.png")); err != nil {
		t.Errorf("expected figure for two-style dataset: %v", err)
	}
}

func TestRun_MissingEntryFailsTheFigure(t *testing.T) {
	t.Parallel()
	datasets := t.TempDir()
	output := t.TempDir()
	styles := []string{"rock", "ballad", "metal"}
	files := []string{"a.wav", "b.wav"}
	writeAudioTree(t, datasets, "jam", styles, files)

	cfg := &config.Config{
		DatasetsPath:     datasets,
		OutputDirectory:  output,
		ReferenceDataset: "emvd",
		ASRModelsSongs:   []model.Descriptor{{Name: "ModelA"}},
		Metrics:          []model.Descriptor{{Name: "WER"}},
	}

	// b.wav has no scores at all.
	table := scores.NewTable()
	for _, style := range styles {
		table.Set("jam/"+style, "a.wav", "ModelA", "v1", "WER", 0.3)
	}
	if err := scores.NewStore(output).Save(table); err != nil {
		t.Fatalf("Save: %v", err)
	}

	err := analyze.NewDriver(cfg, newMetricRegistry(), nil).Run(context.Background())
	if !errors.Is(err, scores.ErrMissingEntry) {
		t.Fatalf("err = %v; want ErrMissingEntry", err)
	}
	if _, statErr := os.Stat(filepath.Join(output, "figures", "jam - WER.png")); statErr == nil {
		t.Error("partial figure was written despite missing entry")
	}
}
