package services_test

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
)

// MockHospitalSource satisfies both HospitalRegistry and HospitalGateway.
type MockHospitalSource struct {
	mock.Mock
}

func (m *MockHospitalSource) NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]entities.HospitalSummary), args.Error(1)
}

func (m *MockHospitalSource) DepartmentCodes(ctx context.Context, facilityID string) (entities.DepartmentCodeSet, error) {
	args := m.Called(ctx, facilityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(entities.DepartmentCodeSet), args.Error(1)
}

func ptr[T any](v T) *T { return &v }
