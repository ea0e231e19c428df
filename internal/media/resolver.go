package media

import (
	"sync/atomic"

	"gidi_ingest/internal/domain"
)

// Resolver hands out stock images in rotation when a source provides none.
// The counter is shared by all categories of one resolver and advances on
// every call, so a single category cycles with period len(pool).
type Resolver struct {
	pools       map[string][]string
	defaultPool []string
	counter     atomic.Uint64
}

// New builds a resolver. Pools in overrides replace the built-in pool for
// the same category; empty overrides are ignored.
func New(pools map[string][]string, defaultCategory string, overrides map[string][]string) *Resolver {
	merged := make(map[string][]string, len(pools)+len(overrides))
	for k, v := range pools {
		merged[k] = v
	}
	for k, v := range overrides {
		if len(v) > 0 {
			merged[k] = v
		}
	}
	return &Resolver{
		pools:       merged,
		defaultPool: merged[defaultCategory],
	}
}

func NewNewsResolver(overrides map[string][]string) *Resolver {
	return New(NewsPools, domain.CategoryGeneral, overrides)
}

func NewVenueResolver(overrides map[string][]string) *Resolver {
	return New(VenuePools, domain.VenueRestaurant, overrides)
}

// Next returns the next image for category. It never returns an empty
// string as long as the default pool is non-empty.
func (r *Resolver) Next(category string) string {
	pool, ok := r.pools[category]
	if !ok || len(pool) == 0 {
		pool = r.defaultPool
	}
	if len(pool) == 0 {
		return ""
	}
	i := r.counter.Add(1) - 1
	return pool[i%uint64(len(pool))]
}

// PoolSize reports how many images rotate for category.
func (r *Resolver) PoolSize(category string) int {
	if pool, ok := r.pools[category]; ok && len(pool) > 0 {
		return len(pool)
	}
	return len(r.defaultPool)
}

// IsFallback reports whether url is one of the rotation images.
func (r *Resolver) IsFallback(url string) bool {
	for _, pool := range r.pools {
		for _, u := range pool {
			if u == url {
				return true
			}
		}
	}
	return false
}
