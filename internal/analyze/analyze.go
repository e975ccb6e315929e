// Package analyze implements the benchmark's aggregation stage: it reduces
// the persisted score table to per-style model means and renders one
// comparison figure per (dataset, metric).
package analyze

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/lyricbench/lyricbench/internal/config"
	"github.com/lyricbench/lyricbench/internal/plot"
	"github.com/lyricbench/lyricbench/internal/scores"
	"github.com/lyricbench/lyricbench/pkg/audio"
	"github.com/lyricbench/lyricbench/pkg/metric"
	"github.com/lyricbench/lyricbench/pkg/model"
)

// Driver renders the comparison figures from a fully populated score table.
// A hole in the table fails the affected dataset/metric figure outright; no
// partial figure is written.
type Driver struct {
	cfg     *config.Config
	metrics *metric.Registry
	logger  *slog.Logger
}

// NewDriver wires a driver from its collaborators.
func NewDriver(cfg *config.Config, metrics *metric.Registry, logger *slog.Logger) *Driver {
	if logger == nil {
		logger = slog.Default()
	}
	return &Driver{cfg: cfg, metrics: metrics, logger: logger}
}

// Run loads the score table and renders every figure. The reference dataset
// is scored like any other but never plotted.
func (d *Driver) Run(ctx context.Context) error {
	table, err := scores.NewStore(d.cfg.OutputDirectory).Load()
	if err != nil {
		return err
	}

	datasets, err := audio.ListDatasets(d.cfg.DatasetsPath, d.cfg.ReferenceDataset)
	if err != nil {
		return err
	}

	figuresDir := filepath.Join(d.cfg.OutputDirectory, "figures")
	if err := os.MkdirAll(figuresDir, 0o755); err != nil {
		return fmt.Errorf("analyze: create %q: %w", figuresDir, err)
	}

	for _, dataset := range datasets {
		subs, err := audio.ListDataset(d.cfg.DatasetsPath, dataset)
		if err != nil {
			return err
		}
		for _, metricDesc := range d.cfg.Metrics {
			if err := d.renderFigure(ctx, table, dataset, subs, metricDesc, figuresDir); err != nil {
				return err
			}
		}
	}
	return nil
}

// renderFigure aggregates one (dataset, metric) pair and writes its PNG.
func (d *Driver) renderFigure(ctx context.Context, table scores.Table, dataset string, subs []audio.SubDataset, metricDesc model.Descriptor, figuresDir string) error {
	m, err := d.metrics.Resolve(ctx, metricDesc)
	if err != nil {
		return err
	}
	metricKey := metricDesc.String()

	var rows []plot.Row
	for _, sub := range subs {
		subKey := dataset + "/" + sub.Style
		for _, md := range d.cfg.ASRModelsSongs {
			mean, err := d.meanBest(table, subKey, sub.Files, md.String(), metricKey, m.Direction())
			if err != nil {
				return err
			}
			rows = append(rows, plot.Row{Style: sub.Style, Model: md.String(), Score: mean})
		}
	}

	title := fmt.Sprintf("%s - %s", dataset, metricKey)
	path := filepath.Join(figuresDir, title+".png")
	if err := plot.Render(title, rows, path); err != nil {
		return err
	}
	// Shared output on multi-user machines.
	if err := os.Chmod(path, 0o777); err != nil {
		return fmt.Errorf("analyze: chmod %q: %w", path, err)
	}
	d.logger.Info("rendered figure", "dataset", dataset, "metric", metricKey, "path", path)
	return nil
}

// meanBest reduces one (style, model, metric) cell: per file, the best score
// across that file's reference versions; then the mean over files.
func (d *Driver) meanBest(table scores.Table, subKey string, files []string, modelKey, metricKey string, dir metric.Direction) (float64, error) {
	if len(files) == 0 {
		return 0, fmt.Errorf("analyze: %s has no audio files", subKey)
	}
	var sum float64
	for _, file := range files {
		versions, err := table.Versions(subKey, file, modelKey)
		if err != nil {
			return 0, err
		}
		perVersion := make([]float64, 0, len(versions))
		for _, v := range versions {
			score, err := table.Lookup(subKey, file, modelKey, v, metricKey)
			if err != nil {
				return 0, err
			}
			perVersion = append(perVersion, score)
		}
		sum += dir.Best(perVersion)
	}
	return sum / float64(len(files)), nil
}
