package entities

import (
	"encoding/json"
	"math"
	"strings"
)

// HospitalSummary is one facility as returned by a registry radius query.
// Numeric fields the registry sent in an unparseable form are nil.
type HospitalSummary struct {
	Longitude        *float64 `json:"XPos"`
	Latitude         *float64 `json:"YPos"`
	Distance         *float64 `json:"distance"`
	FacilityTypeCode *string  `json:"clCd"`
	PhoneNumber      string   `json:"telno"`
	Name             string   `json:"yadmNm"`
	FacilityID       string   `json:"ykiho"`
}

// HasFacilityID reports whether the record can be enriched with department detail.
func (h HospitalSummary) HasFacilityID() bool {
	return strings.TrimSpace(h.FacilityID) != ""
}

// Position returns the facility coordinates when both are known.
func (h HospitalSummary) Position() (LatLng, bool) {
	if h.Latitude == nil || h.Longitude == nil {
		return LatLng{}, false
	}
	return LatLng{Lat: *h.Latitude, Lng: *h.Longitude}, true
}

// DepartmentCodeSet lists the department codes a facility offers, in registry order.
// An empty set means either "none listed" or "lookup failed".
type DepartmentCodeSet []string

// MarshalJSON always produces an array, never null.
func (d DepartmentCodeSet) MarshalJSON() ([]byte, error) {
	if d == nil {
		return []byte("[]"), nil
	}
	return json.Marshal([]string(d))
}

// EnrichedHospital is a HospitalSummary together with its department codes.
type EnrichedHospital struct {
	HospitalSummary
	DepartmentCodes DepartmentCodeSet `json:"dgsbjtCds"`
}

// GeoQuery is a radius search around a point.
type GeoQuery struct {
	Longitude    float64
	Latitude     float64
	RadiusMeters float64
}

// Valid reports whether the query can be sent upstream.
func (q GeoQuery) Valid() bool {
	return isFinite(q.Longitude) && isFinite(q.Latitude) && isFinite(q.RadiusMeters) && q.RadiusMeters > 0
}

// LatLng is a WGS84 coordinate.
type LatLng struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
