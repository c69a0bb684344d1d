package providers

import (
	"context"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
)

// HospitalGateway is the client-side view of the two gateway endpoints.
type HospitalGateway interface {
	// NearbyHospitals calls GET /api/hospital. Any failure is fatal to the caller.
	NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error)

	// DepartmentCodes calls GET /api/hospital-detail for one facility.
	DepartmentCodes(ctx context.Context, facilityID string) (entities.DepartmentCodeSet, error)
}
