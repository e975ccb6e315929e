// Package hub downloads model snapshots from a Hugging Face-style model hub
// into a shared local cache directory.
//
// A snapshot is the full set of files published for a model repository. The
// client is deliberately dumb: it checks whether {models_dir}/{model_id}
// already exists, and if not, authenticates with a bearer token read from a
// key file, lists the repository's files, and fetches each of them. Failures
// are not retried; the partially written snapshot is left in a ".partial"
// staging directory that is ignored by the existence check, so a re-run
// starts the download from scratch.
//
// The cache directory is chmod-ed to 0o777 after a successful download so
// that the models can be shared between users of a common lab machine.
package hub

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"
)

// DefaultBaseURL is the public Hugging Face hub endpoint.
const DefaultBaseURL = "https://huggingface.co"

// defaultConcurrency bounds how many snapshot files are fetched at once
// within a single EnsureModel call.
const defaultConcurrency = 4

var (
	// ErrCredential indicates the token key file is missing, unreadable, or
	// empty while a download is required.
	ErrCredential = errors.New("hub: credential error")

	// ErrDownload indicates a network or storage failure while fetching a
	// snapshot. Downloads are never retried internally.
	ErrDownload = errors.New("hub: download failed")
)

// Client fetches model snapshots into a local cache directory. It is safe
// for concurrent use, though the harness resolves models sequentially.
type Client struct {
	modelsDir   string
	tokenPath   string
	baseURL     string
	concurrency int
	httpClient  *http.Client
	logger      *slog.Logger
}

// Option is a functional option for configuring a Client.
type Option func(*Client)

// WithBaseURL overrides the hub endpoint (e.g. a mirror or a test server).
func WithBaseURL(url string) Option {
	return func(c *Client) { c.baseURL = strings.TrimRight(url, "/") }
}

// WithHTTPClient overrides the HTTP client used for hub requests.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.httpClient = hc }
}

// WithConcurrency bounds the number of snapshot files fetched in parallel
// within one EnsureModel call. Defaults to 4.
func WithConcurrency(n int) Option {
	return func(c *Client) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithLogger sets the logger used for download progress messages.
func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

// New creates a Client that caches snapshots under modelsDir and reads its
// bearer token from the single-line file at tokenPath when a download is
// needed. The token file is only consulted on a cache miss.
func New(modelsDir, tokenPath string, opts ...Option) *Client {
	c := &Client{
		modelsDir:   modelsDir,
		tokenPath:   tokenPath,
		baseURL:     DefaultBaseURL,
		concurrency: defaultConcurrency,
		httpClient:  &http.Client{Timeout: 30 * time.Minute},
		logger:      slog.Default(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// LocalPath returns where the snapshot for modelID lives (or would live)
// inside the cache, without touching the network.
func (c *Client) LocalPath(modelID string) string {
	return filepath.Join(c.modelsDir, filepath.FromSlash(modelID))
}

// EnsureModel makes the snapshot for modelID available locally and returns
// its path. If the path already exists no network call is made. Otherwise the
// full snapshot is fetched into a staging directory and renamed into place
// once complete, then opened up for shared multi-user access.
func (c *Client) EnsureModel(ctx context.Context, modelID string) (string, error) {
	local := c.LocalPath(modelID)
	if _, err := os.Stat(local); err == nil {
		return local, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("hub: stat %q: %w", local, err)
	}

	token, err := c.readToken()
	if err != nil {
		return "", err
	}

	c.logger.Info("downloading model snapshot", "model", modelID, "dest", local)

	files, err := c.listSiblings(ctx, modelID, token)
	if err != nil {
		return "", err
	}
	if len(files) == 0 {
		return "", fmt.Errorf("%w: %q has no files", ErrDownload, modelID)
	}

	staging := local + ".partial"
	if err := os.RemoveAll(staging); err != nil {
		return "", fmt.Errorf("%w: clear staging %q: %v", ErrDownload, staging, err)
	}
	if err := os.MkdirAll(staging, 0o755); err != nil {
		return "", fmt.Errorf("%w: create staging %q: %v", ErrDownload, staging, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for _, name := range files {
		g.Go(func() error {
			return c.fetchFile(gctx, modelID, name, staging, token)
		})
	}
	if err := g.Wait(); err != nil {
		return "", err
	}

	if err := os.Rename(staging, local); err != nil {
		return "", fmt.Errorf("%w: finalise %q: %v", ErrDownload, local, err)
	}
	// Shared cache on multi-user machines.
	if err := os.Chmod(local, 0o777); err != nil {
		return "", fmt.Errorf("hub: chmod %q: %w", local, err)
	}

	c.logger.Info("model snapshot ready", "model", modelID, "files", len(files))
	return local, nil
}

// readToken loads and trims the single-line bearer token.
func (c *Client) readToken() (string, error) {
	data, err := os.ReadFile(c.tokenPath)
	if err != nil {
		return "", fmt.Errorf("%w: read key file %q: %v", ErrCredential, c.tokenPath, err)
	}
	token := strings.TrimSpace(string(data))
	if token == "" {
		return "", fmt.Errorf("%w: key file %q is empty", ErrCredential, c.tokenPath)
	}
	return token, nil
}

// listSiblings fetches the repository metadata and returns the snapshot's
// file names.
func (c *Client) listSiblings(ctx context.Context, modelID, token string) ([]string, error) {
	url := fmt.Sprintf("%s/api/models/%s", c.baseURL, modelID)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: build request: %v", ErrDownload, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: list %q: %v", ErrDownload, modelID, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return nil, fmt.Errorf("%w: hub rejected token for %q (HTTP %d)", ErrCredential, modelID, resp.StatusCode)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: list %q: HTTP %d", ErrDownload, modelID, resp.StatusCode)
	}

	var meta struct {
		Siblings []struct {
			Rfilename string `json:"rfilename"`
		} `json:"siblings"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&meta); err != nil {
		return nil, fmt.Errorf("%w: parse metadata for %q: %v", ErrDownload, modelID, err)
	}

	files := make([]string, 0, len(meta.Siblings))
	for _, s := range meta.Siblings {
		if s.Rfilename != "" {
			files = append(files, s.Rfilename)
		}
	}
	return files, nil
}

// fetchFile downloads one snapshot file into the staging directory,
// preserving any sub-directory structure from the repository.
func (c *Client) fetchFile(ctx context.Context, modelID, name, staging, token string) error {
	url := fmt.Sprintf("%s/%s/resolve/main/%s", c.baseURL, modelID, name)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request for %q: %v", ErrDownload, name, err)
	}
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: fetch %q: %v", ErrDownload, name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: fetch %q: HTTP %d", ErrDownload, name, resp.StatusCode)
	}

	dest := filepath.Join(staging, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(dest), 0o755); err != nil {
		return fmt.Errorf("%w: create dir for %q: %v", ErrDownload, name, err)
	}
	f, err := os.Create(dest)
	if err != nil {
		return fmt.Errorf("%w: create %q: %v", ErrDownload, dest, err)
	}
	defer f.Close()

	if _, err := io.Copy(f, resp.Body); err != nil {
		return fmt.Errorf("%w: write %q: %v", ErrDownload, dest, err)
	}
	return nil
}
