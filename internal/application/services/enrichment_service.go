package services

import (
	"context"
	"sync/atomic"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/internal/domain/providers"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
)

// EnrichmentService combines a radius query with per-facility department lookups.
type EnrichmentService struct {
	gateway        providers.HospitalGateway
	maxConcurrency int
}

// NewEnrichmentService creates an aggregator. maxConcurrency <= 0 issues every
// lookup at once; the registry's row cap bounds the fan-out in that case.
func NewEnrichmentService(gateway providers.HospitalGateway, maxConcurrency int) *EnrichmentService {
	return &EnrichmentService{
		gateway:        gateway,
		maxConcurrency: maxConcurrency,
	}
}

// FetchEnrichedHospitals returns the hospitals around a point, each with its
// department codes. The result has the same length and order as the radius
// query. A failed radius query is returned as is; a failed lookup leaves that
// hospital with an empty code set.
//
// Lookups already in flight are not cancelled with ctx. If ctx ends first the
// call returns ctx.Err() and their results are dropped.
func (s *EnrichmentService) FetchEnrichedHospitals(ctx context.Context, lng, lat, radiusMeters float64) ([]entities.EnrichedHospital, error) {
	ctx, span := observability.StartSpan(ctx, "EnrichmentService.FetchEnrichedHospitals")
	defer span.End()

	hospitals, err := s.gateway.NearbyHospitals(ctx, entities.GeoQuery{
		Longitude:    lng,
		Latitude:     lat,
		RadiusMeters: radiusMeters,
	})
	if err != nil {
		observability.RecordError(span, err)
		return nil, err
	}
	if len(hospitals) == 0 {
		return []entities.EnrichedHospital{}, nil
	}

	enriched := make([]entities.EnrichedHospital, len(hospitals))
	for i, h := range hospitals {
		enriched[i] = entities.EnrichedHospital{
			HospitalSummary: h,
			DepartmentCodes: entities.DepartmentCodeSet{},
		}
	}

	var failures, lookups atomic.Int64
	logger := observability.LoggerFromContext(ctx)
	lookupCtx := context.WithoutCancel(ctx)

	var g errgroup.Group
	if s.maxConcurrency > 0 {
		g.SetLimit(s.maxConcurrency)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := range enriched {
			if !enriched[i].HasFacilityID() {
				continue
			}
			lookups.Add(1)
			g.Go(func() error {
				codes, err := s.gateway.DepartmentCodes(lookupCtx, enriched[i].FacilityID)
				if err != nil {
					failures.Add(1)
					logger.Warn().Err(err).Str("ykiho", enriched[i].FacilityID).Msg("department lookup failed; keeping hospital without departments")
					return nil
				}
				if codes != nil {
					enriched[i].DepartmentCodes = codes
				}
				return nil
			})
		}
		_ = g.Wait()
	}()

	select {
	case <-done:
	case <-ctx.Done():
		observability.RecordError(span, ctx.Err())
		return nil, ctx.Err()
	}

	observability.SetSpanAttributes(span,
		attribute.Int("enrichment.hospitals", len(enriched)),
		attribute.Int64("enrichment.lookups", lookups.Load()),
		attribute.Int64("enrichment.failures", failures.Load()),
	)
	return enriched, nil
}
