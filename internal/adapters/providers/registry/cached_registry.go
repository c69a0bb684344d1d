package registry

import (
	"context"
	"encoding/json"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/internal/domain/providers"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
)

const departmentCachePrefix = "registry:dgsbjt:"

// CachedRegistry caches successful department lookups. Radius queries are
// passed straight through and never cached.
type CachedRegistry struct {
	next    providers.HospitalRegistry
	cache   providers.CacheProvider
	ttl     int
	metrics *observability.Metrics
}

// NewCachedRegistry wraps a registry with a department-code cache.
func NewCachedRegistry(next providers.HospitalRegistry, cache providers.CacheProvider, ttlSeconds int, metrics *observability.Metrics) *CachedRegistry {
	return &CachedRegistry{
		next:    next,
		cache:   cache,
		ttl:     ttlSeconds,
		metrics: metrics,
	}
}

var _ providers.HospitalRegistry = (*CachedRegistry)(nil)

// NearbyHospitals always hits the registry.
func (c *CachedRegistry) NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error) {
	return c.next.NearbyHospitals(ctx, q)
}

// DepartmentCodes serves from cache when possible. Failed lookups are not cached.
func (c *CachedRegistry) DepartmentCodes(ctx context.Context, facilityID string) (entities.DepartmentCodeSet, error) {
	key := departmentCachePrefix + facilityID

	if cached, err := c.cache.Get(ctx, key); err == nil {
		var codes []string
		if err := json.Unmarshal(cached, &codes); err == nil {
			observability.RecordCacheHit(ctx, c.metrics, departmentCachePrefix)
			return entities.DepartmentCodeSet(codes), nil
		}
	}
	observability.RecordCacheMiss(ctx, c.metrics, departmentCachePrefix)

	codes, err := c.next.DepartmentCodes(ctx, facilityID)
	if err != nil {
		return nil, err
	}

	if payload, err := json.Marshal(codes); err == nil {
		if err := c.cache.Set(ctx, key, payload, c.ttl); err != nil {
			observability.LoggerFromContext(ctx).Debug().Err(err).Str("ykiho", facilityID).Msg("failed to cache department codes")
		}
	}
	return codes, nil
}
