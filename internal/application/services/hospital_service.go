package services

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel/attribute"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/internal/domain/providers"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
	apperrors "github.com/medivisit/hospitalfinder/pkg/errors"
)

// HospitalService backs the two gateway endpoints.
type HospitalService struct {
	registry providers.HospitalRegistry
	metrics  *observability.Metrics
}

// NewHospitalService creates a new hospital service
func NewHospitalService(registry providers.HospitalRegistry, metrics *observability.Metrics) *HospitalService {
	return &HospitalService{
		registry: registry,
		metrics:  metrics,
	}
}

// NearbyHospitals runs one registry radius query. Registry failures are
// returned as EXTERNAL errors and no partial list is produced.
func (s *HospitalService) NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error) {
	ctx, span := observability.StartSpan(ctx, "HospitalService.NearbyHospitals")
	defer span.End()

	if !q.Valid() {
		return nil, apperrors.NewValidationError("xPos, yPos and a positive radius are required")
	}

	observability.SetSpanAttributes(span,
		attribute.Float64("geo.longitude", q.Longitude),
		attribute.Float64("geo.latitude", q.Latitude),
		attribute.Float64("geo.radius_m", q.RadiusMeters),
	)

	hospitals, err := s.registry.NearbyHospitals(ctx, q)
	if err != nil {
		observability.RecordError(span, err)
		observability.LoggerFromContext(ctx).Error().Err(err).Msg("hospital registry query failed")
		if _, ok := apperrors.As(err); !ok {
			err = apperrors.NewExternalError("hospital registry unavailable", err)
		}
		return nil, err
	}
	if hospitals == nil {
		hospitals = []entities.HospitalSummary{}
	}
	return hospitals, nil
}

// DepartmentCodes never fails: any registry problem is logged and yields an
// empty set, so one bad facility cannot fail a caller's batch.
func (s *HospitalService) DepartmentCodes(ctx context.Context, facilityID string) entities.DepartmentCodeSet {
	ctx, span := observability.StartSpan(ctx, "HospitalService.DepartmentCodes")
	defer span.End()

	facilityID = strings.TrimSpace(facilityID)
	if facilityID == "" {
		return entities.DepartmentCodeSet{}
	}

	codes, err := s.registry.DepartmentCodes(ctx, facilityID)
	if err != nil {
		observability.RecordError(span, err)
		observability.RecordDetailFailure(ctx, s.metrics)
		observability.LoggerFromContext(ctx).Warn().Err(err).Str("ykiho", facilityID).Msg("department lookup failed; returning empty set")
		return entities.DepartmentCodeSet{}
	}
	if codes == nil {
		return entities.DepartmentCodeSet{}
	}
	return codes
}
