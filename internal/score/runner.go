// Package score implements the benchmark's scoring stage: it transcribes
// every audio file with every configured model and fills the score table that
// the analysis stage consumes.
package score

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/lyricbench/lyricbench/internal/config"
	"github.com/lyricbench/lyricbench/internal/observe"
	"github.com/lyricbench/lyricbench/internal/scores"
	"github.com/lyricbench/lyricbench/pkg/audio"
	"github.com/lyricbench/lyricbench/pkg/metric"
	"github.com/lyricbench/lyricbench/pkg/model"
)

// Runner drives the scoring stage. One run processes all configured datasets
// strictly sequentially, in program order; any failure aborts the run and the
// table is only persisted on success.
type Runner struct {
	cfg     *config.Config
	models  *model.Registry
	metrics *metric.Registry
	obs     *observe.Metrics
	logger  *slog.Logger
}

// NewRunner wires a runner from its collaborators.
func NewRunner(cfg *config.Config, models *model.Registry, metrics *metric.Registry, obs *observe.Metrics, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	if obs == nil {
		obs = observe.DefaultMetrics()
	}
	return &Runner{cfg: cfg, models: models, metrics: metrics, obs: obs, logger: logger}
}

// Run scores every dataset and persists the resulting table. Previously
// persisted scores are loaded first and overwritten entry by entry, so a run
// over a subset of datasets keeps the rest of the table intact.
func (r *Runner) Run(ctx context.Context) error {
	store := scores.NewStore(r.cfg.OutputDirectory)
	table, err := store.Load()
	if err != nil {
		return err
	}

	datasets, err := audio.ListDatasets(r.cfg.DatasetsPath, "")
	if err != nil {
		return err
	}

	for _, dataset := range datasets {
		modelList := r.cfg.ASRModelsSongs
		if dataset == r.cfg.ReferenceDataset {
			modelList = r.cfg.ASRModelsReference
		}
		if err := r.scoreDataset(ctx, table, dataset, modelList); err != nil {
			return err
		}
	}

	return store.Save(table)
}

// scoreDataset scores every file of one dataset with the given model list.
func (r *Runner) scoreDataset(ctx context.Context, table scores.Table, dataset string, modelList []model.Descriptor) error {
	subs, err := audio.ListDataset(r.cfg.DatasetsPath, dataset)
	if err != nil {
		return err
	}

	for _, sub := range subs {
		subKey := dataset + "/" + sub.Style
		for _, file := range sub.Files {
			refs, err := r.lyricsVersions(dataset, sub.Style, file)
			if err != nil {
				return err
			}
			for _, md := range modelList {
				if err := r.scoreFile(ctx, table, subKey, sub.Dir, file, md, refs); err != nil {
					return err
				}
			}
		}
	}
	return nil
}

// scoreFile transcribes one audio file with one model and scores the result
// against every reference version with every configured metric.
func (r *Runner) scoreFile(ctx context.Context, table scores.Table, subKey, dir, file string, md model.Descriptor, refs []lyricsVersion) error {
	transcriber, err := r.models.ResolveTranscriber(ctx, md)
	if err != nil {
		return err
	}

	audioPath := filepath.Join(dir, file)
	start := time.Now()
	hypothesis, err := transcriber.Transcribe(ctx, audioPath, "")
	if err != nil {
		r.obs.RecordScoreFailure(ctx, md.String(), "")
		return fmt.Errorf("score: transcribe %q with %s: %w", audioPath, md.String(), err)
	}
	r.obs.RecordTranscribe(ctx, md.String(), time.Since(start).Seconds())
	r.logger.Info("transcribed", "file", subKey+"/"+file, "model", md.String(),
		"seconds", time.Since(start).Seconds())

	for _, ref := range refs {
		for _, metricDesc := range r.cfg.Metrics {
			m, err := r.metrics.Resolve(ctx, metricDesc)
			if err != nil {
				return err
			}
			computeStart := time.Now()
			score, err := m.Compute(ctx, ref.text, hypothesis)
			r.obs.RecordMetricCompute(ctx, metricDesc.String(), time.Since(computeStart).Seconds())
			if err != nil {
				r.obs.RecordScoreFailure(ctx, md.String(), metricDesc.String())
				return fmt.Errorf("score: %s on %s/%s version %s: %w",
					metricDesc.String(), subKey, file, ref.name, err)
			}
			table.Set(subKey, file, md.String(), ref.name, metricDesc.String(), score)
		}
	}
	return nil
}

// lyricsVersion is one reference lyric text for a file.
type lyricsVersion struct {
	name string
	text string
}

// lyricsVersions reads every reference version for an audio file. Versions
// live at {datasets}/lyrics/{dataset}/{style}/{file-stem}/{version}.txt. A
// file with no versions directory is a dataset error.
func (r *Runner) lyricsVersions(dataset, style, file string) ([]lyricsVersion, error) {
	stem := strings.TrimSuffix(file, filepath.Ext(file))
	dir := filepath.Join(r.cfg.DatasetsPath, "lyrics", dataset, style, stem)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("score: list lyrics for %s/%s/%s: %w", dataset, style, file, err)
	}

	var versions []lyricsVersion
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".txt") {
			continue
		}
		data, err := os.ReadFile(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, fmt.Errorf("score: read lyrics %q: %w", filepath.Join(dir, e.Name()), err)
		}
		versions = append(versions, lyricsVersion{
			name: strings.TrimSuffix(e.Name(), filepath.Ext(e.Name())),
			text: string(data),
		})
	}
	if len(versions) == 0 {
		return nil, fmt.Errorf("score: no lyrics versions in %q", dir)
	}
	sort.Slice(versions, func(i, j int) bool { return versions[i].name < versions[j].name })
	return versions, nil
}
