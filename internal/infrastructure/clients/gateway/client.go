package gateway

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	apperrors "github.com/medivisit/hospitalfinder/pkg/errors"
)

const maxResponseBytes = 4 << 20

// HTTPClient talks to the hospital gateway's two JSON endpoints.
type HTTPClient struct {
	baseURL    string
	httpClient *http.Client
}

type hospitalsResponse struct {
	Hospitals []entities.HospitalSummary `json:"hospitals"`
}

type departmentResponse struct {
	DepartmentCodes entities.DepartmentCodeSet `json:"dgsbjtCds"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

func NewClient(baseURL string, timeout time.Duration) *HTTPClient {
	return NewClientWithHTTP(baseURL, &http.Client{Timeout: timeout})
}

func NewClientWithHTTP(baseURL string, httpClient *http.Client) *HTTPClient {
	return &HTTPClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: httpClient,
	}
}

// NearbyHospitals calls GET /api/hospital.
func (c *HTTPClient) NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error) {
	query := url.Values{}
	query.Set("xPos", strconv.FormatFloat(q.Longitude, 'f', -1, 64))
	query.Set("yPos", strconv.FormatFloat(q.Latitude, 'f', -1, 64))
	query.Set("radius", strconv.FormatFloat(q.RadiusMeters, 'f', -1, 64))

	out := &hospitalsResponse{}
	if err := c.getJSON(ctx, "/api/hospital", query, out); err != nil {
		return nil, err
	}
	if out.Hospitals == nil {
		return []entities.HospitalSummary{}, nil
	}
	return out.Hospitals, nil
}

// DepartmentCodes calls GET /api/hospital-detail.
func (c *HTTPClient) DepartmentCodes(ctx context.Context, facilityID string) (entities.DepartmentCodeSet, error) {
	if strings.TrimSpace(facilityID) == "" {
		return nil, apperrors.NewValidationError("ykiho is required")
	}
	query := url.Values{}
	query.Set("ykiho", facilityID)

	out := &departmentResponse{}
	if err := c.getJSON(ctx, "/api/hospital-detail", query, out); err != nil {
		return nil, err
	}
	if out.DepartmentCodes == nil {
		return entities.DepartmentCodeSet{}, nil
	}
	return out.DepartmentCodes, nil
}

func (c *HTTPClient) getJSON(ctx context.Context, path string, query url.Values, out interface{}) error {
	endpoint := c.baseURL + path + "?" + query.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return apperrors.NewInternalError("building gateway request", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return apperrors.NewExternalError("gateway request failed", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return apperrors.NewExternalError("reading gateway response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return statusError(resp.StatusCode, body)
	}

	if err := json.Unmarshal(body, out); err != nil {
		return apperrors.NewExternalError("decoding gateway response", err)
	}
	return nil
}

func statusError(status int, body []byte) error {
	var payload errorResponse
	_ = json.Unmarshal(body, &payload)

	msg := payload.Error
	if payload.Message != "" {
		if msg != "" {
			msg += ": "
		}
		msg += payload.Message
	}
	if msg == "" {
		msg = http.StatusText(status)
	}
	msg = fmt.Sprintf("gateway returned %d: %s", status, msg)

	if status >= 400 && status < 500 {
		return apperrors.NewValidationError(msg)
	}
	return apperrors.NewExternalError(msg, nil)
}
