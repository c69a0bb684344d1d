package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
	apperrors "github.com/medivisit/hospitalfinder/pkg/errors"
)

// HospitalFinder is the service behind the gateway endpoints.
type HospitalFinder interface {
	NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error)
	DepartmentCodes(ctx context.Context, facilityID string) entities.DepartmentCodeSet
}

// HospitalHandler handles the radius search endpoint.
type HospitalHandler struct {
	finder HospitalFinder
}

// NewHospitalHandler creates a new hospital handler
func NewHospitalHandler(finder HospitalFinder) *HospitalHandler {
	return &HospitalHandler{finder: finder}
}

type hospitalsResponse struct {
	Hospitals []entities.HospitalSummary `json:"hospitals"`
}

// NearbyHospitals handles GET /api/hospital?xPos=&yPos=&radius=
func (h *HospitalHandler) NearbyHospitals(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithAppError(w, apperrors.NewMethodNotAllowedError(r.Method))
		return
	}

	q, err := parseGeoQuery(r)
	if err != nil {
		respondWithAppError(w, err)
		return
	}

	hospitals, err := h.finder.NearbyHospitals(r.Context(), q)
	if err != nil {
		if appErr, ok := apperrors.As(err); ok && appErr.Type == apperrors.ErrorTypeValidation {
			respondWithAppError(w, appErr)
			return
		}
		observability.LoggerFromContext(r.Context()).Error().Err(err).Msg("nearby hospital lookup failed")
		message := "hospital registry unavailable"
		if appErr, ok := apperrors.As(err); ok {
			message = appErr.Message
		}
		respondWithJSON(w, http.StatusInternalServerError, map[string]string{
			"error":   "Failed to fetch hospital data",
			"message": message,
		})
		return
	}

	respondWithJSON(w, http.StatusOK, hospitalsResponse{Hospitals: hospitals})
}

func parseGeoQuery(r *http.Request) (entities.GeoQuery, *apperrors.AppError) {
	values := r.URL.Query()
	raw := map[string]string{
		"xPos":   strings.TrimSpace(values.Get("xPos")),
		"yPos":   strings.TrimSpace(values.Get("yPos")),
		"radius": strings.TrimSpace(values.Get("radius")),
	}

	var missing []string
	for _, name := range geoParams {
		if raw[name] == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return entities.GeoQuery{}, apperrors.NewValidationError("missing required parameters: " + strings.Join(missing, ", "))
	}

	parsed := make(map[string]float64, len(raw))
	for _, name := range geoParams {
		f, err := strconv.ParseFloat(raw[name], 64)
		if err != nil {
			return entities.GeoQuery{}, apperrors.NewValidationError(name + " must be a number")
		}
		parsed[name] = f
	}

	q := entities.GeoQuery{
		Longitude:    parsed["xPos"],
		Latitude:     parsed["yPos"],
		RadiusMeters: parsed["radius"],
	}
	if !q.Valid() {
		return entities.GeoQuery{}, apperrors.NewValidationError("radius must be a positive number and coordinates finite")
	}
	return q, nil
}

// geoParams fixes the order parameters are checked and reported in.
var geoParams = []string{"xPos", "yPos", "radius"}

// Helper functions
func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

func respondWithAppError(w http.ResponseWriter, err *apperrors.AppError) {
	respondWithError(w, err.HTTPStatus(), err.Message)
}
