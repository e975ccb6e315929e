package metric

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/lyricbench/lyricbench/pkg/model"
)

// ErrNotRegistered is returned by Resolve when no factory exists for the
// requested descriptor name.
var ErrNotRegistered = errors.New("metric: not registered")

// Factory constructs a metric. Construction receives the model registry so
// that metrics depending on a model (embedding similarity) can resolve it,
// which may block on a first-time snapshot download.
type Factory func(ctx context.Context, models *model.Registry, args []string) (Metric, error)

// Registry resolves descriptors to singleton metric instances, mirroring the
// model registry: factories registered at startup, instances cached for the
// life of the registry under the descriptor's canonical string.
type Registry struct {
	models *model.Registry

	mu        sync.Mutex
	factories map[string]Factory
	instances map[string]Metric
}

// NewRegistry returns an empty metric registry whose factories will resolve
// model dependencies through models.
func NewRegistry(models *model.Registry) *Registry {
	return &Registry{
		models:    models,
		factories: make(map[string]Factory),
		instances: make(map[string]Metric),
	}
}

// Register registers a metric factory under name. A later registration with
// the same name overwrites the earlier one.
func (r *Registry) Register(name string, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[name] = f
}

// Resolve returns the singleton metric for d, constructing it on first use.
func (r *Registry) Resolve(ctx context.Context, d model.Descriptor) (Metric, error) {
	key := d.String()

	r.mu.Lock()
	if inst, ok := r.instances[key]; ok {
		r.mu.Unlock()
		return inst, nil
	}
	factory, ok := r.factories[d.Name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: metric %q", ErrNotRegistered, d.Name)
	}

	inst, err := factory(ctx, r.models, d.Args)
	if err != nil {
		return nil, fmt.Errorf("metric: construct %q: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.instances[key]; ok {
		return existing, nil
	}
	r.instances[key] = inst
	return inst, nil
}

// Known returns the sorted registered metric names.
func (r *Registry) Known() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.factories))
	for name := range r.factories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
