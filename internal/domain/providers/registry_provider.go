package providers

import (
	"context"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
)

// HospitalRegistry is the public hospital registry the gateways proxy.
type HospitalRegistry interface {
	// NearbyHospitals returns the facilities within q.RadiusMeters of the point.
	// Unparseable records degrade to empty fields; only transport or upstream
	// status failures are returned as errors.
	NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error)

	// DepartmentCodes returns the department codes offered by one facility.
	DepartmentCodes(ctx context.Context, facilityID string) (entities.DepartmentCodeSet, error)
}
