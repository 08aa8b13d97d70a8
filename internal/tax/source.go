package tax

import (
	"context"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/noah-isme/taxcore/internal/money"
	"github.com/noah-isme/taxcore/internal/rules"
)

// Builder fixes the regime settings a deployment uses for every snapshot it
// computes against: which tax types are enabled, their zone restrictions, the
// rounding mode and the display flag.
type Builder struct {
	Types            []string
	VATZoneIDs       []string
	SalesTaxZoneIDs  []string
	Rounding         money.Mode
	DisplayInclusive bool
	Logger           zerolog.Logger
}

// Build constructs a registry over the given snapshot.
func (b Builder) Build(snapshot *rules.Snapshot) (*Registry, error) {
	registry := NewRegistry(b.Logger)
	for _, taxType := range b.Types {
		var plugin Plugin
		switch taxType {
		case TypeEuropeanUnionVAT:
			plugin = NewEuropeanUnionVAT(RegimeConfig{
				Snapshot:         snapshot,
				ZoneIDs:          b.VATZoneIDs,
				Rounding:         b.Rounding,
				DisplayInclusive: b.DisplayInclusive,
				Logger:           b.Logger,
			})
		case TypeSalesTax:
			plugin = NewSalesTax(RegimeConfig{
				Snapshot:         snapshot,
				ZoneIDs:          b.SalesTaxZoneIDs,
				Rounding:         b.Rounding,
				DisplayInclusive: b.DisplayInclusive,
				Logger:           b.Logger,
			})
		default:
			return nil, fmt.Errorf("tax: unknown tax type %q", taxType)
		}
		if err := registry.Register(taxType, plugin); err != nil {
			return nil, err
		}
	}
	return registry, nil
}

// Source resolves the registry a computation should run against. The empty
// version means the active snapshot; any other version is fetched from the
// shared snapshot cache and its registry memoized.
type Source struct {
	builder Builder
	cache   *rules.Cache

	active        *Registry
	activeVersion string

	mu   sync.Mutex
	memo map[string]*Registry
}

// NewSource builds the active registry up front so a bad configuration fails
// at startup, not on the first request. cache may be nil when only the active
// snapshot is served.
func NewSource(builder Builder, active *rules.Snapshot, cache *rules.Cache) (*Source, error) {
	registry, err := builder.Build(active)
	if err != nil {
		return nil, err
	}
	return &Source{
		builder:       builder,
		cache:         cache,
		active:        registry,
		activeVersion: active.Version,
		memo:          map[string]*Registry{},
	}, nil
}

// Registry returns the registry for a snapshot version. Unknown versions wrap
// rules.ErrRuleLookup so callers can distinguish them from transient faults.
func (s *Source) Registry(ctx context.Context, version string) (*Registry, error) {
	if version == "" || version == s.activeVersion {
		return s.active, nil
	}

	s.mu.Lock()
	memoized, ok := s.memo[version]
	s.mu.Unlock()
	if ok {
		return memoized, nil
	}

	if s.cache == nil {
		return nil, fmt.Errorf("%w: snapshot version %q not available", rules.ErrRuleLookup, version)
	}
	snapshot, found, err := s.cache.Get(ctx, version)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %q: %w", version, err)
	}
	if !found {
		return nil, fmt.Errorf("%w: snapshot version %q not available", rules.ErrRuleLookup, version)
	}
	registry, err := s.builder.Build(snapshot)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.memo[version] = registry
	s.mu.Unlock()
	return registry, nil
}
