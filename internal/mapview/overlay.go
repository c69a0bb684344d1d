package mapview

import (
	"fmt"
	"math"

	"github.com/medivisit/hospitalfinder/internal/domain/codes"
	"github.com/medivisit/hospitalfinder/internal/domain/entities"
)

// Overlay is the content of a marker's info window.
type Overlay struct {
	Name         string
	Distance     string
	Phone        string
	FacilityType string
	Departments  []string
}

// BuildOverlay renders a hospital for display in the given language.
func BuildOverlay(h entities.EnrichedHospital, language string) Overlay {
	o := Overlay{
		Name:        h.Name,
		Distance:    FormatDistance(h.Distance),
		Phone:       h.PhoneNumber,
		Departments: codes.DepartmentLabels(h.DepartmentCodes, language),
	}
	if h.FacilityTypeCode != nil {
		o.FacilityType = codes.FacilityTypeLabel(*h.FacilityTypeCode, language)
	}
	return o
}

// FormatDistance renders a distance in meters as "850m" or "1.2km".
// Unknown distances render as an empty string.
func FormatDistance(meters *float64) string {
	if meters == nil || math.IsNaN(*meters) || math.IsInf(*meters, 0) || *meters < 0 {
		return ""
	}
	m := math.Round(*meters)
	if m < 1000 {
		return fmt.Sprintf("%.0fm", m)
	}
	return fmt.Sprintf("%.1fkm", *meters/1000)
}
