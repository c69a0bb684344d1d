package registry

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"github.com/medivisit/hospitalfinder/internal/domain/entities"
	"github.com/medivisit/hospitalfinder/internal/domain/providers"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
	"github.com/medivisit/hospitalfinder/pkg/config"
	apperrors "github.com/medivisit/hospitalfinder/pkg/errors"
)

const (
	defaultHTTPTimeout = 8 * time.Second
	maxResponseBytes   = 4 << 20
)

// HIRAProvider implements HospitalRegistry against the public health insurance
// review agency (HIRA) open API.
type HIRAProvider struct {
	serviceKey    string
	listURL       string
	departmentURL string
	format        string
	numOfRows     int
	httpClient    *http.Client
	metrics       *observability.Metrics
}

// NewHIRAProvider creates a registry provider from configuration.
func NewHIRAProvider(cfg config.RegistryConfig, metrics *observability.Metrics) *HIRAProvider {
	return NewHIRAProviderWithOptions(cfg, nil, metrics)
}

// NewHIRAProviderWithOptions allows overriding the HTTP client (used for tests).
func NewHIRAProviderWithOptions(cfg config.RegistryConfig, httpClient *http.Client, metrics *observability.Metrics) *HIRAProvider {
	if httpClient == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = defaultHTTPTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}
	numOfRows := cfg.NumOfRows
	if numOfRows <= 0 || numOfRows > config.MaxRegistryRows {
		numOfRows = config.MaxRegistryRows
	}
	format := strings.ToLower(strings.TrimSpace(cfg.Format))
	if format == "" {
		format = config.RegistryFormatXML
	}
	return &HIRAProvider{
		serviceKey:    cfg.ServiceKey,
		listURL:       cfg.HospitalListURL,
		departmentURL: cfg.DepartmentURL,
		format:        format,
		numOfRows:     numOfRows,
		httpClient:    httpClient,
		metrics:       metrics,
	}
}

var _ providers.HospitalRegistry = (*HIRAProvider)(nil)

// NearbyHospitals queries the hospital basis list around a point.
func (p *HIRAProvider) NearbyHospitals(ctx context.Context, q entities.GeoQuery) ([]entities.HospitalSummary, error) {
	ctx, span := observability.StartSpan(ctx, "registry.NearbyHospitals")
	defer span.End()

	params := url.Values{}
	params.Set("xPos", formatCoordinate(q.Longitude))
	params.Set("yPos", formatCoordinate(q.Latitude))
	params.Set("radius", formatCoordinate(q.RadiusMeters))
	params.Set("pageNo", "1")
	params.Set("numOfRows", strconv.Itoa(p.numOfRows))

	body, err := p.fetch(ctx, "hospital_list", p.listURL, params)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("hospital registry unavailable", err)
	}

	decoded, err := decodePayload[hospitalItem](p.format, body)
	if err != nil {
		observability.LoggerFromContext(ctx).Warn().Err(err).Msg("malformed hospital list; returning no hospitals")
		return []entities.HospitalSummary{}, nil
	}
	if err := decoded.upstreamError(); err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("hospital registry rejected the query", err)
	}

	hospitals := toSummaries(decoded.Items.List())
	observability.SetSpanAttributes(span, attribute.Int("registry.hospitals", len(hospitals)))
	return hospitals, nil
}

// DepartmentCodes looks up the departments of one facility. Every failure is
// returned; callers decide whether to absorb it.
func (p *HIRAProvider) DepartmentCodes(ctx context.Context, facilityID string) (entities.DepartmentCodeSet, error) {
	ctx, span := observability.StartSpan(ctx, "registry.DepartmentCodes")
	defer span.End()

	facilityID = strings.TrimSpace(facilityID)
	if facilityID == "" {
		return nil, apperrors.NewValidationError("facility id is required")
	}

	params := url.Values{}
	params.Set("ykiho", facilityID)
	params.Set("pageNo", "1")
	params.Set("numOfRows", strconv.Itoa(p.numOfRows))

	body, err := p.fetch(ctx, "department_codes", p.departmentURL, params)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("department registry unavailable", err)
	}

	decoded, err := decodePayload[departmentItem](p.format, body)
	if err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("malformed department response", err)
	}
	if err := decoded.upstreamError(); err != nil {
		observability.RecordError(span, err)
		return nil, apperrors.NewExternalError("department registry rejected the lookup", err)
	}

	return toDepartmentCodes(decoded.Items.List()), nil
}

func (p *HIRAProvider) fetch(ctx context.Context, operation, endpoint string, params url.Values) ([]byte, error) {
	start := time.Now()
	body, err := p.doFetch(ctx, endpoint, params)
	observability.RecordRegistryCall(ctx, p.metrics, operation, err == nil, time.Since(start))
	return body, err
}

func (p *HIRAProvider) doFetch(ctx context.Context, endpoint string, params url.Values) ([]byte, error) {
	if strings.TrimSpace(endpoint) == "" {
		return nil, fmt.Errorf("registry endpoint is not configured")
	}

	params.Set("ServiceKey", p.serviceKey)
	accept := "application/xml"
	if p.format == config.RegistryFormatJSON {
		params.Set("_type", "json")
		accept = "application/json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build registry request")
	}
	req.Header.Set("Accept", accept)

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("registry request failed: %w", redactURL(err))
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxResponseBytes))
		return nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("failed to read registry response: %w", redactURL(err))
	}
	return body, nil
}

// redactURL drops the request URL from transport errors; it carries the service key.
func redactURL(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return fmt.Errorf("%s: %w", urlErr.Op, urlErr.Err)
	}
	return err
}

func formatCoordinate(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
