// Package wallet is the SDK entry point: it owns one master seed, one
// adapter Registry, one event Bus, and exposes the HD wallet facade
// operations (deriveAddress, balance, send, ...) that fan out to whichever
// chain the caller names.
//
// The SDK never persists anything. No mnemonic, no private key, and no
// wallet metadata touches disk; callers that need durable wallet records
// own that storage themselves, outside this package.
package wallet

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/drxa/sdk/pkg/chainadapter"
	"github.com/drxa/sdk/pkg/config"
	"github.com/drxa/sdk/pkg/entropy"
	"github.com/drxa/sdk/pkg/eventbus"
	"github.com/drxa/sdk/pkg/metrics"
	"github.com/drxa/sdk/pkg/registry"
	"github.com/drxa/sdk/pkg/subscription"
	"github.com/drxa/sdk/pkg/walleterr"
)

// Options configures a new SDK instance. Zero-value Options is usable:
// Logger defaults to a no-op logger and Metrics to metrics.NoOp.
type Options struct {
	Catalog *config.Catalog
	Logger  *zap.Logger
	Metrics metrics.Metrics
}

// SDK is one isolated wallet instance bound to a single master seed. An
// application that serves many end users typically holds many SDK
// instances (one per tenant's seed) or derives per-user seeds upstream and
// constructs one SDK per call — NewSDK itself is cheap.
type SDK struct {
	seed     entropy.MasterSeed
	catalog  *config.Catalog
	registry *registry.Registry
	bus      *eventbus.Bus
	subs     *subscription.Engine
	logger   *zap.Logger
	metrics  metrics.Metrics

	mu          sync.Mutex
	unsubscribe map[string]func()
}

// NewSDK constructs an SDK scoped to seed. The caller is responsible for
// registering chain adapter factories on the returned SDK's Registry
// before calling any facade operation for that chain.
func NewSDK(seed entropy.MasterSeed, opts Options) *SDK {
	if opts.Catalog == nil {
		opts.Catalog = config.NewCatalog()
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = metrics.NoOp{}
	}

	bus := eventbus.New(eventbus.DefaultBufferSize, opts.Logger)
	reg := registry.New(opts.Catalog, opts.Logger)

	return &SDK{
		seed:        seed,
		catalog:     opts.Catalog,
		registry:    reg,
		bus:         bus,
		subs:        subscription.New(bus),
		logger:      opts.Logger,
		metrics:     opts.Metrics,
		unsubscribe: make(map[string]func()),
	}
}

// Registry exposes the adapter registry so callers can Register factories
// for the chains they intend to use.
func (s *SDK) Registry() *registry.Registry { return s.registry }

// OnEvent subscribes handle to events matching filter on the SDK's shared
// bus, returning an unsubscribe function.
func (s *SDK) OnEvent(filter eventbus.Filter, handle func(eventbus.Event)) (unsubscribe func()) {
	return s.bus.Subscribe(filter, handle)
}

// Shutdown stops every active subscription and shuts down every built
// adapter. It does not clear the master seed from memory; callers that
// need that guarantee should let the SDK value go out of scope and rely on
// the garbage collector, since Go offers no portable secure-erase.
func (s *SDK) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	for _, stop := range s.unsubscribe {
		stop()
	}
	s.unsubscribe = make(map[string]func())
	s.mu.Unlock()

	return s.registry.Shutdown(ctx)
}

// derive recovers the SigningKey for (scope, userID, chain, index) from the
// SDK's master seed without ever exposing the seed itself to callers.
func (s *SDK) derive(scope, userID string, chain config.ChainTag, index string) (chainadapter.SigningKey, error) {
	e, err := entropy.Derive(s.seed, entropy.Params{Scope: scope, UserID: userID, Chain: string(chain), Index: index})
	if err != nil {
		return chainadapter.SigningKey{}, walleterr.NonRetry(walleterr.CodeInvalidDerivation, "key derivation failed", err)
	}
	var key chainadapter.SigningKey
	copy(key.RawSecret[:], e.RawSecret())
	copy(key.Reserved[:], e.Reserved())
	return key, nil
}
