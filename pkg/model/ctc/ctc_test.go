package ctc_test

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lyricbench/lyricbench/pkg/audio"
	"github.com/lyricbench/lyricbench/pkg/hub"
	"github.com/lyricbench/lyricbench/pkg/model"
	"github.com/lyricbench/lyricbench/pkg/model/ctc"
)

func testEnv(t *testing.T, modelID, ctcURL string) *model.Env {
	t.Helper()
	modelsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(modelsDir, filepath.FromSlash(modelID)), 0o755); err != nil {
		t.Fatal(err)
	}
	return &model.Env{
		Hub:          hub.New(modelsDir, filepath.Join(t.TempDir(), "absent.key")),
		CTCServerURL: ctcURL,
	}
}

func TestTranscribe_ResamplesTo16k(t *testing.T) {
	t.Parallel()

	var gotRate int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/decode" {
			t.Errorf("path = %q; want /decode", r.URL.Path)
		}
		body, err := io.ReadAll(r.Body)
		if err != nil {
			t.Fatalf("read body: %v", err)
		}
		tmp := filepath.Join(t.TempDir(), "upload.wav")
		if err := os.WriteFile(tmp, body, 0o644); err != nil {
			t.Fatal(err)
		}
		clip, err := audio.Load(tmp)
		if err != nil {
			t.Fatalf("uploaded body is not a valid WAV: %v", err)
		}
		gotRate = clip.Rate
		w.Write([]byte(`{"text": "NOTHING ELSE MATTERS"}`))
	}))
	defer srv.Close()

	// Source clip at 44.1 kHz must arrive at the server as 16 kHz.
	src := &audio.Clip{Samples: make([]float32, 44100), Rate: 44100}
	path := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(path, audio.EncodeWAV(src), 0o644); err != nil {
		t.Fatal(err)
	}

	env := testEnv(t, "facebook/wav2vec2-large-960h-lv60-self", srv.URL)
	tr, err := ctc.New(context.Background(), env, "facebook/wav2vec2-large-960h-lv60-self")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	text, err := tr.Transcribe(context.Background(), path, "")
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "NOTHING ELSE MATTERS" {
		t.Errorf("text = %q", text)
	}
	if gotRate != 16000 {
		t.Errorf("uploaded rate = %d; want 16000", gotRate)
	}
}

func TestTranscribe_ServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "out of memory", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	clip := &audio.Clip{Samples: make([]float32, 1600), Rate: 16000}
	path := filepath.Join(t.TempDir(), "song.wav")
	if err := os.WriteFile(path, audio.EncodeWAV(clip), 0o644); err != nil {
		t.Fatal(err)
	}

	env := testEnv(t, "facebook/wav2vec2-large-960h-lv60-self", srv.URL)
	tr, err := ctc.New(context.Background(), env, "facebook/wav2vec2-large-960h-lv60-self")
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := tr.Transcribe(context.Background(), path, ""); err == nil {
		t.Fatal("expected error on HTTP 503")
	}
}

func TestNew_RequiresServerURL(t *testing.T) {
	t.Parallel()
	env := testEnv(t, "facebook/wav2vec2-large-960h-lv60-self", "")
	if _, err := ctc.New(context.Background(), env, "facebook/wav2vec2-large-960h-lv60-self"); err == nil {
		t.Fatal("expected error without a configured server URL")
	}
}
