package services_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/medivisit/hospitalfinder/internal/application/services"
	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	apperrors "github.com/medivisit/hospitalfinder/pkg/errors"
)

// delayedGateway answers department lookups after a per-facility delay.
type delayedGateway struct {
	hospitals []entities.HospitalSummary
	delays    map[string]time.Duration
	failures  map[string]error
	codes     map[string]entities.DepartmentCodeSet

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
	mu          sync.Mutex
	calls       []string
}

func (g *delayedGateway) NearbyHospitals(_ context.Context, _ entities.GeoQuery) ([]entities.HospitalSummary, error) {
	return g.hospitals, nil
}

func (g *delayedGateway) DepartmentCodes(_ context.Context, id string) (entities.DepartmentCodeSet, error) {
	n := g.inFlight.Add(1)
	defer g.inFlight.Add(-1)
	for {
		cur := g.maxInFlight.Load()
		if n <= cur || g.maxInFlight.CompareAndSwap(cur, n) {
			break
		}
	}

	g.mu.Lock()
	g.calls = append(g.calls, id)
	g.mu.Unlock()

	time.Sleep(g.delays[id])
	if err := g.failures[id]; err != nil {
		return nil, err
	}
	return g.codes[id], nil
}

func TestEnrichmentService_ExampleScenario(t *testing.T) {
	gateway := new(MockHospitalSource)
	q := entities.GeoQuery{Longitude: 126.8301, Latitude: 37.3121, RadiusMeters: 1000}
	hospitals := []entities.HospitalSummary{
		{Name: "First", FacilityID: "A0012345"},
		{Name: "Second", FacilityID: "B0067890"},
		{Name: "Third", FacilityID: "C0011111"},
	}
	gateway.On("NearbyHospitals", mock.Anything, q).Return(hospitals, nil).Once()
	gateway.On("DepartmentCodes", mock.Anything, "A0012345").Return(nil, apperrors.NewExternalError("timeout", context.DeadlineExceeded)).Once()
	gateway.On("DepartmentCodes", mock.Anything, "B0067890").Return(entities.DepartmentCodeSet{"01", "04"}, nil).Once()
	gateway.On("DepartmentCodes", mock.Anything, "C0011111").Return(entities.DepartmentCodeSet{"07"}, nil).Once()

	svc := services.NewEnrichmentService(gateway, 0)
	got, err := svc.FetchEnrichedHospitals(context.Background(), 126.8301, 37.3121, 1000)

	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "A0012345", got[0].FacilityID)
	assert.Equal(t, entities.DepartmentCodeSet{}, got[0].DepartmentCodes)
	assert.Equal(t, entities.DepartmentCodeSet{"01", "04"}, got[1].DepartmentCodes)
	assert.Equal(t, entities.DepartmentCodeSet{"07"}, got[2].DepartmentCodes)
	gateway.AssertExpectations(t)
}

func TestEnrichmentService_PreservesOrderUnderRandomDelays(t *testing.T) {
	const n = 40
	gw := &delayedGateway{
		delays: make(map[string]time.Duration),
		codes:  make(map[string]entities.DepartmentCodeSet),
	}
	for i := 0; i < n; i++ {
		id := fmt.Sprintf("H%03d", i)
		gw.hospitals = append(gw.hospitals, entities.HospitalSummary{Name: "Hospital " + id, FacilityID: id})
		gw.delays[id] = time.Duration(rand.IntN(20)) * time.Millisecond
		gw.codes[id] = entities.DepartmentCodeSet{fmt.Sprintf("%02d", i%30)}
	}

	svc := services.NewEnrichmentService(gw, 0)
	got, err := svc.FetchEnrichedHospitals(context.Background(), 127, 37.5, 500)

	require.NoError(t, err)
	require.Len(t, got, n)
	for i, h := range got {
		assert.Equal(t, gw.hospitals[i], h.HospitalSummary, "position %d", i)
		assert.Equal(t, gw.codes[h.FacilityID], h.DepartmentCodes)
	}
}

func TestEnrichmentService_LookupsOverlap(t *testing.T) {
	gw := &delayedGateway{delays: make(map[string]time.Duration)}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("P%d", i)
		gw.hospitals = append(gw.hospitals, entities.HospitalSummary{FacilityID: id})
		gw.delays[id] = 50 * time.Millisecond
	}

	start := time.Now()
	_, err := services.NewEnrichmentService(gw, 0).FetchEnrichedHospitals(context.Background(), 1, 1, 1)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), 200*time.Millisecond)
	assert.Equal(t, int32(5), gw.maxInFlight.Load())
}

func TestEnrichmentService_RespectsConcurrencyLimit(t *testing.T) {
	gw := &delayedGateway{delays: make(map[string]time.Duration)}
	for i := 0; i < 10; i++ {
		id := fmt.Sprintf("L%d", i)
		gw.hospitals = append(gw.hospitals, entities.HospitalSummary{FacilityID: id})
		gw.delays[id] = 5 * time.Millisecond
	}

	got, err := services.NewEnrichmentService(gw, 2).FetchEnrichedHospitals(context.Background(), 1, 1, 1)
	require.NoError(t, err)

	assert.Len(t, got, 10)
	assert.LessOrEqual(t, gw.maxInFlight.Load(), int32(2))
	assert.Len(t, gw.calls, 10)
}

func TestEnrichmentService_SkipsHospitalsWithoutID(t *testing.T) {
	gw := &delayedGateway{
		hospitals: []entities.HospitalSummary{
			{Name: "No id"},
			{Name: "Blank id", FacilityID: "  "},
			{Name: "Has id", FacilityID: "K1"},
		},
		codes: map[string]entities.DepartmentCodeSet{"K1": {"11"}},
	}

	got, err := services.NewEnrichmentService(gw, 0).FetchEnrichedHospitals(context.Background(), 1, 1, 1)
	require.NoError(t, err)

	require.Len(t, got, 3)
	assert.Equal(t, entities.DepartmentCodeSet{}, got[0].DepartmentCodes)
	assert.Equal(t, entities.DepartmentCodeSet{}, got[1].DepartmentCodes)
	assert.Equal(t, entities.DepartmentCodeSet{"11"}, got[2].DepartmentCodes)
	assert.Equal(t, []string{"K1"}, gw.calls)
}

func TestEnrichmentService_EmptyListSkipsLookups(t *testing.T) {
	gateway := new(MockHospitalSource)
	gateway.On("NearbyHospitals", mock.Anything, mock.Anything).Return([]entities.HospitalSummary{}, nil).Once()

	got, err := services.NewEnrichmentService(gateway, 0).FetchEnrichedHospitals(context.Background(), 1, 1, 1)

	require.NoError(t, err)
	assert.NotNil(t, got)
	assert.Empty(t, got)
	gateway.AssertNotCalled(t, "DepartmentCodes", mock.Anything, mock.Anything)
}

func TestEnrichmentService_GeoQueryFailureIsFatal(t *testing.T) {
	gateway := new(MockHospitalSource)
	cause := apperrors.NewExternalError("gateway returned 500", nil)
	gateway.On("NearbyHospitals", mock.Anything, mock.Anything).Return(nil, cause).Once()

	got, err := services.NewEnrichmentService(gateway, 0).FetchEnrichedHospitals(context.Background(), 1, 1, 1)

	require.Error(t, err)
	assert.Nil(t, got)
	assert.ErrorIs(t, err, cause)
	gateway.AssertNotCalled(t, "DepartmentCodes", mock.Anything, mock.Anything)
}

func TestEnrichmentService_AllLookupsFail(t *testing.T) {
	gw := &delayedGateway{
		hospitals: []entities.HospitalSummary{{FacilityID: "F1"}, {FacilityID: "F2"}},
		failures:  map[string]error{"F1": errors.New("boom"), "F2": errors.New("boom")},
	}

	got, err := services.NewEnrichmentService(gw, 0).FetchEnrichedHospitals(context.Background(), 1, 1, 1)

	require.NoError(t, err)
	require.Len(t, got, 2)
	for _, h := range got {
		assert.NotNil(t, h.DepartmentCodes)
		assert.Empty(t, h.DepartmentCodes)
	}
}

func TestEnrichmentService_CancelledCallerDiscardsResults(t *testing.T) {
	gw := &delayedGateway{
		hospitals: []entities.HospitalSummary{{FacilityID: "S1"}},
		delays:    map[string]time.Duration{"S1": 200 * time.Millisecond},
		codes:     map[string]entities.DepartmentCodeSet{"S1": {"01"}},
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	got, err := services.NewEnrichmentService(gw, 0).FetchEnrichedHospitals(ctx, 1, 1, 1)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Nil(t, got)
	assert.Less(t, time.Since(start), 150*time.Millisecond)
}
