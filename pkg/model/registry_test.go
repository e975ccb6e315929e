package model_test

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/lyricbench/lyricbench/pkg/model"
	"gopkg.in/yaml.v3"
)

type fakeTranscriber struct{ id string }

func (f *fakeTranscriber) Transcribe(ctx context.Context, audioPath, language string) (string, error) {
	return "text", nil
}
func (f *fakeTranscriber) ModelID() string { return f.id }

type fakeEmbedder struct{ id string }

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	return []float32{1, 0}, nil
}
func (f *fakeEmbedder) Dimensions() int { return 2 }
func (f *fakeEmbedder) ModelID() string { return f.id }

func TestResolveTranscriber_ReturnsIdenticalCachedInstance(t *testing.T) {
	t.Parallel()
	reg := model.NewRegistry(&model.Env{})
	constructed := 0
	reg.RegisterTranscriber("Whisper_Large_V3", func(ctx context.Context, env *model.Env, args []string) (model.Transcriber, error) {
		constructed++
		return &fakeTranscriber{id: "openai/whisper-large-v3"}, nil
	})

	d := model.Descriptor{Name: "Whisper_Large_V3"}
	first, err := reg.ResolveTranscriber(context.Background(), d)
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := reg.ResolveTranscriber(context.Background(), d)
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}
	if first != second {
		t.Error("repeat resolve must return the identical instance")
	}
	if constructed != 1 {
		t.Errorf("factory ran %d times; want 1", constructed)
	}
}

func TestResolveTranscriber_UnknownName_ReturnsErrNotRegistered(t *testing.T) {
	t.Parallel()
	reg := model.NewRegistry(&model.Env{})
	_, err := reg.ResolveTranscriber(context.Background(), model.Descriptor{Name: "Nope"})
	if !errors.Is(err, model.ErrNotRegistered) {
		t.Errorf("err = %v; want ErrNotRegistered", err)
	}
}

func TestResolveEmbedder_DistinctArgsGetDistinctInstances(t *testing.T) {
	t.Parallel()
	reg := model.NewRegistry(&model.Env{})
	reg.RegisterEmbedder("Echo", func(ctx context.Context, env *model.Env, args []string) (model.Embedder, error) {
		return &fakeEmbedder{id: strings.Join(args, "+")}, nil
	})

	a, err := reg.ResolveEmbedder(context.Background(), model.Descriptor{Name: "Echo", Args: []string{"a"}})
	if err != nil {
		t.Fatalf("resolve a: %v", err)
	}
	b, err := reg.ResolveEmbedder(context.Background(), model.Descriptor{Name: "Echo", Args: []string{"b"}})
	if err != nil {
		t.Fatalf("resolve b: %v", err)
	}
	if a == b {
		t.Error("different constructor args must yield different instances")
	}
}

func TestResolve_FactoryError_IsNotCached(t *testing.T) {
	t.Parallel()
	reg := model.NewRegistry(&model.Env{})
	calls := 0
	reg.RegisterTranscriber("Flaky", func(ctx context.Context, env *model.Env, args []string) (model.Transcriber, error) {
		calls++
		if calls == 1 {
			return nil, fmt.Errorf("transient setup failure")
		}
		return &fakeTranscriber{id: "flaky"}, nil
	})

	d := model.Descriptor{Name: "Flaky"}
	if _, err := reg.ResolveTranscriber(context.Background(), d); err == nil {
		t.Fatal("first resolve should fail")
	}
	if _, err := reg.ResolveTranscriber(context.Background(), d); err != nil {
		t.Fatalf("second resolve should construct fresh: %v", err)
	}
}

func TestKnownTranscribers_Sorted(t *testing.T) {
	t.Parallel()
	reg := model.NewRegistry(&model.Env{})
	for _, name := range []string{"Zeta", "Alpha", "Mid"} {
		reg.RegisterTranscriber(name, func(ctx context.Context, env *model.Env, args []string) (model.Transcriber, error) {
			return &fakeTranscriber{}, nil
		})
	}
	got := reg.KnownTranscribers()
	want := []string{"Alpha", "Mid", "Zeta"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("KnownTranscribers = %v; want %v", got, want)
		}
	}
}

func TestDescriptorString(t *testing.T) {
	t.Parallel()
	tests := []struct {
		d    model.Descriptor
		want string
	}{
		{model.Descriptor{Name: "WER"}, "WER"},
		{model.Descriptor{Name: "EmbeddingSimilarity", Args: []string{"All_MiniLM_L6_V2"}}, "EmbeddingSimilarity(All_MiniLM_L6_V2)"},
		{model.Descriptor{Name: "X", Args: []string{"a", "b"}}, "X(a,b)"},
	}
	for _, tc := range tests {
		if got := tc.d.String(); got != tc.want {
			t.Errorf("String() = %q; want %q", got, tc.want)
		}
	}
}

func TestDescriptorUnmarshalYAML_ScalarAndMapping(t *testing.T) {
	t.Parallel()
	var list []model.Descriptor
	doc := `
- WER
- name: EmbeddingSimilarity
  args: [All_MPNet_Base_V2]
`
	if err := yaml.Unmarshal([]byte(doc), &list); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(list) != 2 {
		t.Fatalf("got %d descriptors; want 2", len(list))
	}
	if list[0].Name != "WER" || len(list[0].Args) != 0 {
		t.Errorf("scalar form = %+v", list[0])
	}
	if list[1].String() != "EmbeddingSimilarity(All_MPNet_Base_V2)" {
		t.Errorf("mapping form = %q", list[1].String())
	}
}

func TestDescriptorUnmarshalYAML_MappingWithoutName_Fails(t *testing.T) {
	t.Parallel()
	var d model.Descriptor
	if err := yaml.Unmarshal([]byte("args: [x]"), &d); err == nil {
		t.Fatal("expected error for mapping without name")
	}
}
