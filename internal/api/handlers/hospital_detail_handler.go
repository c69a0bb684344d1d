package handlers

import (
	"net/http"
	"strings"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	apperrors "github.com/medivisit/hospitalfinder/pkg/errors"
)

// HospitalDetailHandler handles the department lookup endpoint.
type HospitalDetailHandler struct {
	finder HospitalFinder
}

func NewHospitalDetailHandler(finder HospitalFinder) *HospitalDetailHandler {
	return &HospitalDetailHandler{finder: finder}
}

type departmentResponse struct {
	DepartmentCodes entities.DepartmentCodeSet `json:"dgsbjtCds"`
}

// DepartmentCodes handles GET /api/hospital-detail?ykiho=
// Upstream failures are absorbed by the service and come back as an empty list.
func (h *HospitalDetailHandler) DepartmentCodes(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		respondWithAppError(w, apperrors.NewMethodNotAllowedError(r.Method))
		return
	}

	facilityID := strings.TrimSpace(r.URL.Query().Get("ykiho"))
	if facilityID == "" {
		respondWithError(w, http.StatusBadRequest, "missing required parameter: ykiho")
		return
	}

	codes := h.finder.DepartmentCodes(r.Context(), facilityID)
	if codes == nil {
		codes = entities.DepartmentCodeSet{}
	}
	respondWithJSON(w, http.StatusOK, departmentResponse{DepartmentCodes: codes})
}
