package metacache

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/David-H-Afonso/beastvault/internal/observability/metrics"
	"github.com/David-H-Afonso/beastvault/internal/pokeapi"
)

// SpeciesFetcher is the upstream data source the resolver fills the cache
// from. *pokeapi.Client satisfies it.
type SpeciesFetcher interface {
	FetchSpecies(ctx context.Context, speciesID, form int, canGigantamax bool) (*pokeapi.SpeciesMetadata, error)
}

// MetaStore is an optional persisted mirror of successful resolutions,
// used to warm the memory cache across restarts.
type MetaStore interface {
	GetSpeciesMeta(key string) (*pokeapi.SpeciesMetadata, time.Time, error)
	SaveSpeciesMeta(key string, meta *pokeapi.SpeciesMetadata) error
}

// Resolver coordinates the memory cache, the persisted mirror and the
// upstream client. Concurrent requests for the same uncached key are
// coalesced so only one upstream fetch is issued.
type Resolver struct {
	cache   *Cache
	fetcher SpeciesFetcher
	store   MetaStore // may be nil
	group   singleflight.Group
	metrics *metrics.ResolverMetrics
	logger  *slog.Logger
	ttl     time.Duration
}

// NewResolver creates a resolver. store and m may be nil; logger falls back
// to the process default.
func NewResolver(cache *Cache, fetcher SpeciesFetcher, store MetaStore, m *metrics.ResolverMetrics, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = slog.Default()
	}
	cache.SetMetrics(m)
	return &Resolver{
		cache:   cache,
		fetcher: fetcher,
		store:   store,
		metrics: m,
		logger:  logger.With("component", "metacache"),
		ttl:     cache.ttl,
	}
}

// Resolve returns the metadata for key, consulting the memory cache, the
// persisted mirror and finally the upstream client. A nil result with a nil
// error means the lookup is in its negative-cache window; callers render a
// placeholder and move on.
func (r *Resolver) Resolve(ctx context.Context, key Key) (*pokeapi.SpeciesMetadata, error) {
	if entry, ok := r.cache.Get(key); ok {
		r.metrics.IncrementCacheHits()
		if entry.Miss {
			return nil, nil
		}
		return entry.Meta, nil
	}
	r.metrics.IncrementCacheMisses()

	v, err, _ := r.group.Do(key.String(), func() (any, error) {
		// Re-check under the flight: a concurrent caller may have
		// populated the cache while we waited for the group slot.
		if entry, ok := r.cache.Get(key); ok {
			if entry.Miss {
				return (*pokeapi.SpeciesMetadata)(nil), nil
			}
			return entry.Meta, nil
		}

		if meta := r.loadFromStore(key); meta != nil {
			r.cache.Put(key, meta)
			return meta, nil
		}

		meta, err := r.fetcher.FetchSpecies(ctx, key.SpeciesID, key.Form, key.Gmax)
		if err != nil {
			r.logger.Warn("species resolution failed, caching miss",
				"key", key.String(),
				"error", err)
			r.cache.PutMiss(key)
			return (*pokeapi.SpeciesMetadata)(nil), nil
		}

		r.cache.Put(key, meta)
		r.saveToStore(key, meta)
		return meta, nil
	})
	if err != nil {
		return nil, err
	}
	meta, _ := v.(*pokeapi.SpeciesMetadata)
	return meta, nil
}

// Flush clears the memory cache.
func (r *Resolver) Flush() {
	r.cache.Flush()
}

func (r *Resolver) loadFromStore(key Key) *pokeapi.SpeciesMetadata {
	if r.store == nil {
		return nil
	}
	meta, cachedAt, err := r.store.GetSpeciesMeta(key.String())
	if err != nil || meta == nil {
		return nil
	}
	if time.Since(cachedAt) > r.ttl {
		return nil
	}
	return meta
}

func (r *Resolver) saveToStore(key Key, meta *pokeapi.SpeciesMetadata) {
	if r.store == nil {
		return
	}
	if err := r.store.SaveSpeciesMeta(key.String(), meta); err != nil {
		r.logger.Debug("failed to persist species metadata",
			"key", key.String(),
			"error", err)
	}
}
