// Package scores holds the benchmark's central score table and its on-disk
// persistence. The table is a nested map keyed, in order, by sub-dataset
// ("dataset/style"), audio file name, model identifier, reference lyric
// version and metric key. Leaves are raw float64 scores; reduction across
// versions happens at analysis time, not here.
package scores

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrMissingEntry is returned by Lookup when any level of the key path is
// absent. Analysis treats it as fatal: a hole in the table means the scoring
// stage did not finish.
var ErrMissingEntry = errors.New("scores: missing entry")

// Table is the in-memory score table. It is not safe for concurrent writes;
// the scoring stage fills it sequentially.
type Table map[string]map[string]map[string]map[string]map[string]float64

// NewTable returns an empty table.
func NewTable() Table {
	return make(Table)
}

// Set records a score, creating intermediate levels as needed.
func (t Table) Set(subDataset, file, model, version, metricKey string, score float64) {
	files, ok := t[subDataset]
	if !ok {
		files = make(map[string]map[string]map[string]map[string]float64)
		t[subDataset] = files
	}
	models, ok := files[file]
	if !ok {
		models = make(map[string]map[string]map[string]float64)
		files[file] = models
	}
	versions, ok := models[model]
	if !ok {
		versions = make(map[string]map[string]float64)
		models[model] = versions
	}
	metrics, ok := versions[version]
	if !ok {
		metrics = make(map[string]float64)
		versions[version] = metrics
	}
	metrics[metricKey] = score
}

// Lookup returns the score at the full key path. The error names the exact
// path that is missing so the operator can see which scoring run to redo.
func (t Table) Lookup(subDataset, file, model, version, metricKey string) (float64, error) {
	files, ok := t[subDataset]
	if !ok {
		return 0, fmt.Errorf("%w: %s", ErrMissingEntry, subDataset)
	}
	models, ok := files[file]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s", ErrMissingEntry, subDataset, file)
	}
	versions, ok := models[model]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s model %s", ErrMissingEntry, subDataset, file, model)
	}
	metrics, ok := versions[version]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s model %s version %s", ErrMissingEntry, subDataset, file, model, version)
	}
	score, ok := metrics[metricKey]
	if !ok {
		return 0, fmt.Errorf("%w: %s/%s model %s version %s metric %s", ErrMissingEntry, subDataset, file, model, version, metricKey)
	}
	return score, nil
}

// Versions returns the sorted reference versions recorded for a
// (subDataset, file, model) triple.
func (t Table) Versions(subDataset, file, model string) ([]string, error) {
	files, ok := t[subDataset]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrMissingEntry, subDataset)
	}
	models, ok := files[file]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrMissingEntry, subDataset, file)
	}
	versions, ok := models[model]
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s model %s", ErrMissingEntry, subDataset, file, model)
	}
	names := make([]string, 0, len(versions))
	for v := range versions {
		names = append(names, v)
	}
	sort.Strings(names)
	return names, nil
}

// Store persists a Table under an output directory.
type Store struct {
	path string
}

// NewStore returns a store writing to {outputDir}/data/metrics.pt.
func NewStore(outputDir string) *Store {
	return &Store{path: filepath.Join(outputDir, "data", "metrics.pt")}
}

// Path returns the table's on-disk location.
func (s *Store) Path() string { return s.path }

// Load reads the persisted table. A missing file yields an empty table, so
// the first scoring run needs no special casing.
func (s *Store) Load() (Table, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return NewTable(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("scores: read %q: %w", s.path, err)
	}
	var t Table
	if err := msgpack.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("scores: decode %q: %w", s.path, err)
	}
	if t == nil {
		t = NewTable()
	}
	return t, nil
}

// Save writes the table, creating the data directory if needed. The file is
// opened up for shared multi-user access like the model cache.
func (s *Store) Save(t Table) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("scores: create %q: %w", filepath.Dir(s.path), err)
	}
	data, err := msgpack.Marshal(t)
	if err != nil {
		return fmt.Errorf("scores: encode table: %w", err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("scores: write %q: %w", s.path, err)
	}
	if err := os.Chmod(s.path, 0o777); err != nil {
		return fmt.Errorf("scores: chmod %q: %w", s.path, err)
	}
	return nil
}
