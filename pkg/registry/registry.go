// Package registry is the adapter factory and lazy-singleton cache the SDK
// facade consults to obtain a chainadapter.ChainAdapter for a given chain.
//
// The teacher's provider registry used a package-level var behind
// sync.Once — a single process-wide singleton. That shape does not fit a
// library meant to be embedded by many callers in one process, each
// wanting its own master seed and endpoint overrides: it is replaced here
// with an explicit, per-SDK-instance Registry plus golang.org/x/sync/singleflight
// to collapse concurrent first-use builds for the same chain into one
// factory call instead of a hand-rolled in-flight map.
package registry

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/walleterr"
)

// Factory builds a ChainAdapter for tag using the given catalog.
type Factory func(ctx context.Context, tag config.ChainTag, cfg config.ChainConfig) (chainadapter.ChainAdapter, error)

// Registry lazily constructs and caches one adapter instance per chain for
// the lifetime of the owning SDK instance.
type Registry struct {
	catalog   *config.Catalog
	factories map[config.ChainTag]Factory
	logger    *zap.Logger

	mu       sync.RWMutex
	adapters map[config.ChainTag]chainadapter.ChainAdapter
	group    singleflight.Group
}

// New creates an empty Registry bound to catalog for endpoint resolution.
// logger may be nil, in which case Preload's failure logging is a no-op.
func New(catalog *config.Catalog, logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{
		catalog:   catalog,
		logger:    logger,
		factories: make(map[config.ChainTag]Factory),
		adapters:  make(map[config.ChainTag]chainadapter.ChainAdapter),
	}
}

// Register installs the Factory used to build tag's adapter on first use.
// Registering a tag twice overwrites the earlier factory — callers that
// want a custom adapter implementation for testing call this before any
// Get for that chain.
func (r *Registry) Register(tag config.ChainTag, f Factory) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.factories[tag] = f
}

// Get returns the cached adapter for tag, building and initializing it on
// first use. Concurrent first calls for the same tag share one build via
// singleflight rather than racing independent factory invocations.
func (r *Registry) Get(ctx context.Context, tag config.ChainTag) (chainadapter.ChainAdapter, error) {
	r.mu.RLock()
	if a, ok := r.adapters[tag]; ok {
		r.mu.RUnlock()
		return a, nil
	}
	factory, ok := r.factories[tag]
	r.mu.RUnlock()

	if !ok {
		return nil, walleterr.NonRetry(walleterr.CodeUnsupportedChain,
			fmt.Sprintf("no adapter factory registered for chain %q", tag), nil)
	}

	result, err, _ := r.group.Do(string(tag), func() (any, error) {
		r.mu.RLock()
		if a, ok := r.adapters[tag]; ok {
			r.mu.RUnlock()
			return a, nil
		}
		r.mu.RUnlock()

		cfg, ok := r.catalog.Get(tag)
		if !ok {
			return nil, walleterr.NonRetry(walleterr.CodeUnsupportedChain,
				fmt.Sprintf("chain %q is not in the supported set", tag), nil)
		}

		adapter, err := factory(ctx, tag, cfg)
		if err != nil {
			return nil, err
		}
		if err := adapter.Initialize(ctx); err != nil {
			return nil, err
		}

		r.mu.Lock()
		r.adapters[tag] = adapter
		r.mu.Unlock()
		return adapter, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(chainadapter.ChainAdapter), nil
}

// Preload eagerly builds adapters for every tag in tags on a best-effort
// basis: a failure building one chain is logged and does not stop the
// remaining chains from being attempted. It returns the first error
// encountered (if any) after every tag has been tried; adapters already
// built are no-ops.
func (r *Registry) Preload(ctx context.Context, tags []config.ChainTag) error {
	var firstErr error
	for _, tag := range tags {
		if _, err := r.Get(ctx, tag); err != nil {
			r.logger.Warn("failed to preload chain adapter", zap.String("chain", string(tag)), zap.Error(err))
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Loaded reports the chains with an already-built adapter instance.
func (r *Registry) Loaded() []config.ChainTag {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]config.ChainTag, 0, len(r.adapters))
	for tag := range r.adapters {
		out = append(out, tag)
	}
	return out
}

// Shutdown calls Shutdown on every built adapter, collecting the first
// error but attempting every adapter regardless.
func (r *Registry) Shutdown(ctx context.Context) error {
	r.mu.Lock()
	adapters := make([]chainadapter.ChainAdapter, 0, len(r.adapters))
	for _, a := range r.adapters {
		adapters = append(adapters, a)
	}
	r.adapters = make(map[config.ChainTag]chainadapter.ChainAdapter)
	r.mu.Unlock()

	var firstErr error
	for _, a := range adapters {
		if err := a.Shutdown(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
