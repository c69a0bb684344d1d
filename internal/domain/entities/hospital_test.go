package entities

import (
	"encoding/json"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEnrichedHospital_JSONShape(t *testing.T) {
	lng, lat := 126.8301, 37.3121
	h := EnrichedHospital{
		HospitalSummary: HospitalSummary{
			Longitude:  &lng,
			Latitude:   &lat,
			Name:       "Ansan Clinic",
			FacilityID: "A0012345",
		},
	}

	data, err := json.Marshal(h)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, []any{}, decoded["dgsbjtCds"])
	assert.Nil(t, decoded["distance"])
	assert.Contains(t, decoded, "distance")
	assert.Nil(t, decoded["clCd"])
	assert.Equal(t, "A0012345", decoded["ykiho"])
	assert.Equal(t, 126.8301, decoded["XPos"])
}

func TestHospitalSummary_Position(t *testing.T) {
	lat := 37.5
	_, ok := HospitalSummary{Latitude: &lat}.Position()
	assert.False(t, ok)

	lng := 127.0
	pos, ok := HospitalSummary{Latitude: &lat, Longitude: &lng}.Position()
	assert.True(t, ok)
	assert.Equal(t, LatLng{Lat: 37.5, Lng: 127.0}, pos)
}

func TestHospitalSummary_HasFacilityID(t *testing.T) {
	assert.False(t, HospitalSummary{FacilityID: "  "}.HasFacilityID())
	assert.True(t, HospitalSummary{FacilityID: "JDQ4MTYx"}.HasFacilityID())
}

func TestGeoQuery_Valid(t *testing.T) {
	assert.True(t, GeoQuery{Longitude: 126.8, Latitude: 37.3, RadiusMeters: 1000}.Valid())
	assert.False(t, GeoQuery{Longitude: 126.8, Latitude: 37.3, RadiusMeters: 0}.Valid())
	assert.False(t, GeoQuery{Longitude: math.NaN(), Latitude: 37.3, RadiusMeters: 10}.Valid())
	assert.False(t, GeoQuery{Longitude: 1, Latitude: math.Inf(1), RadiusMeters: 10}.Valid())
}
