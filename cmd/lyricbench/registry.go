package main

import (
	"context"
	"fmt"

	"github.com/lyricbench/lyricbench/pkg/metric"
	"github.com/lyricbench/lyricbench/pkg/model"
	"github.com/lyricbench/lyricbench/pkg/model/ctc"
	"github.com/lyricbench/lyricbench/pkg/model/embed"
	"github.com/lyricbench/lyricbench/pkg/model/instruct"
	"github.com/lyricbench/lyricbench/pkg/model/whisper"
)

// registerBuiltinModels wires every model variant the harness ships under its
// configuration name.
func registerBuiltinModels(reg *model.Registry) {
	reg.RegisterTranscriber("Whisper_Large_V2", pipelineFactory("openai/whisper-large-v2"))
	reg.RegisterTranscriber("Whisper_Large_V3", pipelineFactory("openai/whisper-large-v3"))

	reg.RegisterTranscriber("Canary_1B", func(ctx context.Context, env *model.Env, args []string) (model.Transcriber, error) {
		return whisper.NewNative(ctx, env, "nvidia/canary-1b")
	})

	reg.RegisterTranscriber("Wav2vec2_Large_960h_Lv60_Self", func(ctx context.Context, env *model.Env, args []string) (model.Transcriber, error) {
		return ctc.New(ctx, env, "facebook/wav2vec2-large-960h-lv60-self")
	})

	reg.RegisterTranscriber("Phi_4_Multimodal_Instruct", func(ctx context.Context, env *model.Env, args []string) (model.Transcriber, error) {
		return instruct.New(ctx, env, "microsoft/Phi-4-multimodal-instruct")
	})

	reg.RegisterEmbedder("Gte_Qwen2_1d5B_Instruct", embedderFactory("Alibaba-NLP/gte-Qwen2-1.5B-instruct", 1536))
	reg.RegisterEmbedder("All_MiniLM_L6_V2", embedderFactory("sentence-transformers/all-MiniLM-L6-v2", 384))
	reg.RegisterEmbedder("All_MPNet_Base_V2", embedderFactory("sentence-transformers/all-mpnet-base-v2", 768))
}

func pipelineFactory(modelID string) model.TranscriberFactory {
	return func(ctx context.Context, env *model.Env, args []string) (model.Transcriber, error) {
		return whisper.NewPipeline(ctx, env, modelID)
	}
}

func embedderFactory(modelID string, dims int) model.EmbedderFactory {
	return func(ctx context.Context, env *model.Env, args []string) (model.Embedder, error) {
		return embed.New(ctx, env, modelID, dims)
	}
}

// registerBuiltinMetrics wires every metric under its configuration name.
func registerBuiltinMetrics(reg *metric.Registry) {
	reg.Register("WER", func(ctx context.Context, models *model.Registry, args []string) (metric.Metric, error) {
		return metric.NewWER(), nil
	})
	reg.Register("BLEU", func(ctx context.Context, models *model.Registry, args []string) (metric.Metric, error) {
		return metric.NewBLEU(), nil
	})
	reg.Register("ROUGE", func(ctx context.Context, models *model.Registry, args []string) (metric.Metric, error) {
		return metric.NewROUGE(), nil
	})
	reg.Register("JaroWinkler", func(ctx context.Context, models *model.Registry, args []string) (metric.Metric, error) {
		return metric.NewJaroWinkler(), nil
	})
	reg.Register("EmbeddingSimilarity", func(ctx context.Context, models *model.Registry, args []string) (metric.Metric, error) {
		if len(args) != 1 {
			return nil, fmt.Errorf("EmbeddingSimilarity takes exactly one embedder name, got %d args", len(args))
		}
		return metric.NewEmbeddingSimilarity(ctx, models, args[0])
	})
}
