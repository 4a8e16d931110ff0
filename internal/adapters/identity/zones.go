package identity

import (
	"context"
	"sync"
	"time"

	"github.com/okian/salesboard/internal/adapters/warehouse"
	model "github.com/okian/salesboard/internal/domain/model"
	"github.com/okian/salesboard/pkg/metrics"
)

// DefaultZoneTTL is how long a region's zones are reused.
const DefaultZoneTTL = 24 * time.Hour

// ZoneSource looks up the competition zones of a region.
type ZoneSource interface {
	FetchZones(ctx context.Context, region string) (warehouse.Zones, error)
}

type zoneEntry struct {
	zones   warehouse.Zones
	fetched time.Time
}

// ZoneCache memoises successful zone lookups per region.
type ZoneCache struct {
	source ZoneSource
	ttl    time.Duration
	now    func() time.Time

	mu      sync.Mutex
	entries map[string]zoneEntry
}

// NewZoneCache wraps source.
func NewZoneCache(source ZoneSource, ttl time.Duration) *ZoneCache {
	if ttl <= 0 {
		ttl = DefaultZoneTTL
	}
	return &ZoneCache{source: source, ttl: ttl, now: time.Now, entries: make(map[string]zoneEntry)}
}

// Resolve returns the zones of region. National and empty regions have none.
func (z *ZoneCache) Resolve(ctx context.Context, region string) (warehouse.Zones, error) {
	if region == "" || region == model.AllRegions {
		return warehouse.Zones{}, nil
	}
	z.mu.Lock()
	e, ok := z.entries[region]
	z.mu.Unlock()
	if ok && z.now().Sub(e.fetched) < z.ttl {
		metrics.RecordZoneCacheLookup("hit")
		return e.zones, nil
	}
	metrics.RecordZoneCacheLookup("miss")

	zones, err := z.source.FetchZones(ctx, region)
	if err != nil {
		return warehouse.Zones{}, err
	}
	z.mu.Lock()
	z.entries[region] = zoneEntry{zones: zones, fetched: z.now()}
	z.mu.Unlock()
	return zones, nil
}

// Preload resolves every region ahead of the first request and reports how
// many were loaded. Failures are skipped.
func (z *ZoneCache) Preload(ctx context.Context, regions []string) int {
	loaded := 0
	for _, r := range regions {
		if r == "" || r == model.AllRegions {
			continue
		}
		if _, err := z.Resolve(ctx, r); err == nil {
			loaded++
		}
	}
	return loaded
}

// Len reports how many regions are cached.
func (z *ZoneCache) Len() int {
	z.mu.Lock()
	defer z.mu.Unlock()
	return len(z.entries)
}
