package embed_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/lyricbench/lyricbench/pkg/hub"
	"github.com/lyricbench/lyricbench/pkg/model"
	"github.com/lyricbench/lyricbench/pkg/model/embed"
)

const testModelID = "sentence-transformers/all-MiniLM-L6-v2"

func testEnv(t *testing.T, serverURL string) *model.Env {
	t.Helper()
	modelsDir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(modelsDir, filepath.FromSlash(testModelID)), 0o755); err != nil {
		t.Fatal(err)
	}
	return &model.Env{
		Hub:            hub.New(modelsDir, filepath.Join(t.TempDir(), "absent.key")),
		EmbedServerURL: serverURL,
	}
}

func embedServer(t *testing.T, vec []float64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/embeddings" {
			http.NotFound(w, r)
			return
		}
		var req struct {
			Model string `json:"model"`
			Input string `json:"input"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("parse request: %v", err)
		}
		if req.Model != testModelID {
			t.Errorf("model = %q", req.Model)
		}
		if req.Input == "" {
			t.Error("empty input text")
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"object": "list",
			"data":   []map[string]any{{"object": "embedding", "index": 0, "embedding": vec}},
			"model":  req.Model,
		})
	}))
}

func TestEmbed(t *testing.T) {
	t.Parallel()

	srv := embedServer(t, []float64{0.5, -0.5, 0.25})
	defer srv.Close()

	e, err := embed.New(context.Background(), testEnv(t, srv.URL), testModelID, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if e.Dimensions() != 3 {
		t.Errorf("Dimensions = %d; want 3", e.Dimensions())
	}

	vec, err := e.Embed(context.Background(), "never gonna give you up")
	if err != nil {
		t.Fatalf("Embed: %v", err)
	}
	want := []float32{0.5, -0.5, 0.25}
	if len(vec) != len(want) {
		t.Fatalf("len = %d; want %d", len(vec), len(want))
	}
	for i := range want {
		if vec[i] != want[i] {
			t.Errorf("vec[%d] = %v; want %v", i, vec[i], want[i])
		}
	}
}

func TestEmbed_DimensionMismatch(t *testing.T) {
	t.Parallel()

	srv := embedServer(t, []float64{1, 2})
	defer srv.Close()

	e, err := embed.New(context.Background(), testEnv(t, srv.URL), testModelID, 3)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if _, err := e.Embed(context.Background(), "x"); err == nil {
		t.Fatal("expected error on dimension mismatch")
	}
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	if _, err := embed.New(context.Background(), testEnv(t, ""), testModelID, 3); err == nil {
		t.Error("expected error without a configured server URL")
	}
	if _, err := embed.New(context.Background(), testEnv(t, "http://localhost:1"), testModelID, 0); err == nil {
		t.Error("expected error for zero dimensions")
	}
}
