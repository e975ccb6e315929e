package audio_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/lyricbench/lyricbench/pkg/audio"
)

// makeDatasetTree builds {root}/audio/{dataset}/{style}/{files...}.
func makeDatasetTree(t *testing.T, layout map[string]map[string][]string) string {
	t.Helper()
	root := t.TempDir()
	for dataset, styles := range layout {
		for style, files := range styles {
			dir := filepath.Join(root, "audio", dataset, style)
			if err := os.MkdirAll(dir, 0o755); err != nil {
				t.Fatalf("mkdir: %v", err)
			}
			for _, f := range files {
				if err := os.WriteFile(filepath.Join(dir, f), []byte("x"), 0o644); err != nil {
					t.Fatalf("write: %v", err)
				}
			}
		}
	}
	return root
}

func TestListDatasets_ExcludesReferenceDataset(t *testing.T) {
	t.Parallel()
	root := makeDatasetTree(t, map[string]map[string][]string{
		"rock": {"ballad": {"a.wav"}},
		"emvd": {"spoken": {"b.wav"}},
		"pop":  {"dance": {"c.wav"}},
	})

	names, err := audio.ListDatasets(root, "emvd")
	if err != nil {
		t.Fatalf("ListDatasets: %v", err)
	}
	want := []string{"pop", "rock"}
	if len(names) != len(want) {
		t.Fatalf("got %v; want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("names[%d] = %q; want %q", i, names[i], want[i])
		}
	}
}

func TestListDataset_SortsStylesAndFiles(t *testing.T) {
	t.Parallel()
	root := makeDatasetTree(t, map[string]map[string][]string{
		"rock": {
			"metal":  {"z.wav", "a.mp3", "notes.txt"},
			"ballad": {"b.wav"},
		},
	})

	subs, err := audio.ListDataset(root, "rock")
	if err != nil {
		t.Fatalf("ListDataset: %v", err)
	}
	if len(subs) != 2 {
		t.Fatalf("got %d sub-datasets; want 2", len(subs))
	}
	if subs[0].Style != "ballad" || subs[1].Style != "metal" {
		t.Errorf("styles = %q, %q; want ballad, metal", subs[0].Style, subs[1].Style)
	}
	gotFiles := subs[1].Files
	if len(gotFiles) != 2 || gotFiles[0] != "a.mp3" || gotFiles[1] != "z.wav" {
		t.Errorf("metal files = %v; want [a.mp3 z.wav] (txt skipped)", gotFiles)
	}
}

func TestListDataset_MissingDataset_ReturnsError(t *testing.T) {
	t.Parallel()
	root := t.TempDir()
	if _, err := audio.ListDataset(root, "nope"); err == nil {
		t.Fatal("expected error for missing dataset, got nil")
	}
}
