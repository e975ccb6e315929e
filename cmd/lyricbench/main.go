// Command lyricbench evaluates ASR models on sung-lyrics datasets.
//
// Usage:
//
//	lyricbench [--config config.yaml] <command>
//
// Commands:
//
//	fetch    - download every configured model snapshot
//	score    - transcribe all datasets and persist the score table
//	analyze  - render the comparison figures from the score table
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/lyricbench/lyricbench/internal/analyze"
	"github.com/lyricbench/lyricbench/internal/config"
	"github.com/lyricbench/lyricbench/internal/observe"
	"github.com/lyricbench/lyricbench/internal/score"
	"github.com/lyricbench/lyricbench/pkg/hub"
	"github.com/lyricbench/lyricbench/pkg/metric"
	"github.com/lyricbench/lyricbench/pkg/model"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:           "lyricbench",
	Short:         "ASR benchmark harness for sung lyrics",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "lyricbench: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	rootCmd.AddCommand(fetchCmd, scoreCmd, analyzeCmd)
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download every configured model snapshot",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		return app.fetch(cmd.Context())
	},
}

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Transcribe all datasets and persist the score table",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		shutdown, err := observe.InitProvider(cmd.Context(), observe.ProviderConfig{})
		if err != nil {
			return err
		}
		defer shutdown(context.Background())

		runner := score.NewRunner(app.cfg, app.models, app.metrics, observe.DefaultMetrics(), app.logger)
		return runner.Run(cmd.Context())
	},
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Render the comparison figures from the score table",
	RunE: func(cmd *cobra.Command, args []string) error {
		app, err := setup(cmd)
		if err != nil {
			return err
		}
		return analyze.NewDriver(app.cfg, app.metrics, app.logger).Run(cmd.Context())
	},
}

// app bundles the wired collaborators every command needs.
type app struct {
	cfg     *config.Config
	models  *model.Registry
	metrics *metric.Registry
	logger  *slog.Logger
}

// setup loads configuration, initialises logging and builds the registries.
// An absent config file at the default location falls back to pure defaults;
// an explicitly named file must exist.
func setup(cmd *cobra.Command) (*app, error) {
	path := configPath
	if !cmd.Flags().Changed("config") {
		if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
			path = ""
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}

	logger := newLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	env := &model.Env{
		Hub:               hub.New(cfg.ModelsDirectory, cfg.HFKeyPath, hub.WithLogger(logger)),
		ASRServerURL:      cfg.Inference.ASRServerURL,
		CTCServerURL:      cfg.Inference.CTCServerURL,
		InstructServerURL: cfg.Inference.InstructServerURL,
		EmbedServerURL:    cfg.Inference.EmbeddingsServerURL,
		APIKey:            cfg.Inference.APIKey,
		Logger:            logger,
	}

	models := model.NewRegistry(env)
	registerBuiltinModels(models)
	metrics := metric.NewRegistry(models)
	registerBuiltinMetrics(metrics)

	if err := config.ValidateNames(cfg, models.KnownTranscribers(), metrics.Known()); err != nil {
		return nil, err
	}

	return &app{cfg: cfg, models: models, metrics: metrics, logger: logger}, nil
}

// fetch resolves every configured model and metric once, which triggers each
// snapshot download exactly once and nothing else.
func (a *app) fetch(ctx context.Context) error {
	seen := make(map[string]bool)
	for _, d := range append(append([]model.Descriptor{}, a.cfg.ASRModelsReference...), a.cfg.ASRModelsSongs...) {
		if seen[d.String()] {
			continue
		}
		seen[d.String()] = true
		if _, err := a.models.ResolveTranscriber(ctx, d); err != nil {
			return err
		}
	}
	for _, d := range a.cfg.Metrics {
		if _, err := a.metrics.Resolve(ctx, d); err != nil {
			return err
		}
	}
	a.logger.Info("all model snapshots present")
	return nil
}

func newLogger(level config.LogLevel) *slog.Logger {
	var lvl slog.Level
	switch level {
	case config.LogDebug:
		lvl = slog.LevelDebug
	case config.LogWarn:
		lvl = slog.LevelWarn
	case config.LogError:
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
}
