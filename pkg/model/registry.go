package model

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrNotRegistered is returned by the Resolve methods when no factory exists
// for the requested descriptor name.
var ErrNotRegistered = errors.New("model: not registered")

// TranscriberFactory constructs a transcriber variant. Construction may block
// on a first-time snapshot download, hence the context.
type TranscriberFactory func(ctx context.Context, env *Env, args []string) (Transcriber, error)

// EmbedderFactory constructs an embedder variant.
type EmbedderFactory func(ctx context.Context, env *Env, args []string) (Embedder, error)

// Registry resolves descriptors to singleton model instances. Factories are
// registered once at startup; resolved instances are cached for the life of
// the registry under the descriptor's canonical string, with no invalidation
// and no expiry. Tests use a fresh registry for isolation.
type Registry struct {
	env *Env

	mu                   sync.Mutex
	transcriberFactories map[string]TranscriberFactory
	embedderFactories    map[string]EmbedderFactory
	transcribers         map[string]Transcriber
	embedders            map[string]Embedder
}

// NewRegistry returns an empty registry whose factories will receive env.
func NewRegistry(env *Env) *Registry {
	return &Registry{
		env:                  env,
		transcriberFactories: make(map[string]TranscriberFactory),
		embedderFactories:    make(map[string]EmbedderFactory),
		transcribers:         make(map[string]Transcriber),
		embedders:            make(map[string]Embedder),
	}
}

// RegisterTranscriber registers a transcriber factory under name. A later
// registration with the same name overwrites the earlier one.
func (r *Registry) RegisterTranscriber(name string, f TranscriberFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.transcriberFactories[name] = f
}

// RegisterEmbedder registers an embedder factory under name.
func (r *Registry) RegisterEmbedder(name string, f EmbedderFactory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.embedderFactories[name] = f
}

// ResolveTranscriber returns the singleton transcriber for d, constructing it
// on first use. Repeat calls with the same descriptor return the identical
// instance without re-initialisation.
func (r *Registry) ResolveTranscriber(ctx context.Context, d Descriptor) (Transcriber, error) {
	key := d.String()

	r.mu.Lock()
	if inst, ok := r.transcribers[key]; ok {
		r.mu.Unlock()
		return inst, nil
	}
	factory, ok := r.transcriberFactories[d.Name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: transcriber %q", ErrNotRegistered, d.Name)
	}

	// Construction happens outside the lock: it may download a snapshot. The
	// harness resolves sequentially, so a duplicate construction race is not
	// a practical concern; first writer wins regardless.
	inst, err := factory(ctx, r.env, d.Args)
	if err != nil {
		return nil, fmt.Errorf("model: construct transcriber %q: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.transcribers[key]; ok {
		return existing, nil
	}
	r.transcribers[key] = inst
	return inst, nil
}

// ResolveEmbedder returns the singleton embedder for d, constructing it on
// first use.
func (r *Registry) ResolveEmbedder(ctx context.Context, d Descriptor) (Embedder, error) {
	key := d.String()

	r.mu.Lock()
	if inst, ok := r.embedders[key]; ok {
		r.mu.Unlock()
		return inst, nil
	}
	factory, ok := r.embedderFactories[d.Name]
	r.mu.Unlock()
	if !ok {
		return nil, fmt.Errorf("%w: embedder %q", ErrNotRegistered, d.Name)
	}

	inst, err := factory(ctx, r.env, d.Args)
	if err != nil {
		return nil, fmt.Errorf("model: construct embedder %q: %w", key, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.embedders[key]; ok {
		return existing, nil
	}
	r.embedders[key] = inst
	return inst, nil
}

// KnownTranscribers returns the sorted registered transcriber names. Used by
// configuration validation to reject unknown model names at load time.
func (r *Registry) KnownTranscribers() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.transcriberFactories))
	for name := range r.transcriberFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// KnownEmbedders returns the sorted registered embedder names.
func (r *Registry) KnownEmbedders() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	names := make([]string, 0, len(r.embedderFactories))
	for name := range r.embedderFactories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
