package routes

import (
	"net/http"

	"github.com/medivisit/hospitalfinder/internal/api/handlers"
	"github.com/medivisit/hospitalfinder/internal/api/middleware"
	"github.com/medivisit/hospitalfinder/internal/infrastructure/observability"
)

// Router holds all route handlers
type Router struct {
	mux *http.ServeMux

	hospitalHandler       *handlers.HospitalHandler
	hospitalDetailHandler *handlers.HospitalDetailHandler

	allowedOrigins []string
	metrics        *observability.Metrics
}

// NewRouter creates a new router
func NewRouter(
	hospitalHandler *handlers.HospitalHandler,
	hospitalDetailHandler *handlers.HospitalDetailHandler,
	allowedOrigins []string,
	metrics *observability.Metrics,
) *Router {
	return &Router{
		mux:                   http.NewServeMux(),
		hospitalHandler:       hospitalHandler,
		hospitalDetailHandler: hospitalDetailHandler,
		allowedOrigins:        allowedOrigins,
		metrics:               metrics,
	}
}

// SetupRoutes registers the endpoints and returns the wrapped handler.
func (r *Router) SetupRoutes() http.Handler {
	r.mux.HandleFunc("GET /health", func(w http.ResponseWriter, req *http.Request) {
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write([]byte("OK")); err != nil {
			return
		}
	})

	// Registered without a method so the handlers answer other methods with a JSON 405.
	r.mux.HandleFunc("/api/hospital", r.hospitalHandler.NearbyHospitals)
	r.mux.HandleFunc("/api/hospital-detail", r.hospitalDetailHandler.DepartmentCodes)

	// Apply middleware in reverse order (last middleware wraps first)
	var handler http.Handler = r.mux
	handler = middleware.LoggingMiddleware(handler)
	handler = middleware.ObservabilityMiddleware(r.metrics)(handler)
	handler = middleware.ResponseOptimization(handler)

	// CORS is outermost so preflight never reaches the handlers.
	handler = middleware.CORSMiddleware(r.allowedOrigins)(handler)

	return handler
}
