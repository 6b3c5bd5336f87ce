// Package chi serves the search API over HTTP.
package chi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/shelfdex/internal/domain"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/request"
	"github.com/kailas-cloud/shelfdex/internal/domain/search/result"
	healthuc "github.com/kailas-cloud/shelfdex/internal/usecase/health"
	searchuc "github.com/kailas-cloud/shelfdex/internal/usecase/search"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

// Searcher is the search use case the server calls.
type Searcher interface {
	Search(ctx context.Context, req *request.Request) (*result.Page, error)
	MultiSearch(ctx context.Context, m *request.Multi) ([]*result.Page, error)
	Explain(ctx context.Context, req *request.Request) (*searchuc.Compiled, error)
}

// HealthChecker reports backend health.
type HealthChecker interface {
	Check(ctx context.Context) healthuc.Report
}

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Server holds the HTTP handlers of the search API.
type Server struct {
	search        Searcher
	health        HealthChecker
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(search Searcher, health HealthChecker, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &Server{search: search, health: health, logger: logger}
	s.errorHandlers = []errorHandler{
		unknownOptionHandler,
		sentinelHandler(domain.ErrInvalidPagination, http.StatusBadRequest, CodeInvalidPagination),
		sentinelHandler(domain.ErrInvalidSort, http.StatusBadRequest, CodeInvalidSort),
		sentinelHandler(domain.ErrInvalidFilter, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrInvalidQuery, http.StatusBadRequest, CodeValidationFailed),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, CodeNotFound),
		// An unsupported engine feature wraps both sentinels and is a 501.
		sentinelHandler(domain.ErrNotImplemented, http.StatusNotImplemented, CodeNotImplemented),
		sentinelHandler(domain.ErrSearchEngine, http.StatusBadGateway, CodeSearchEngineError),
	}
	return s
}

// Routes mounts the API on r.
func (s *Server) Routes(r chi.Router) {
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.Route("/api/v1", func(r chi.Router) {
		r.Post("/search", s.Search)
		r.Post("/search/explain", s.Explain)
		r.Post("/msearch", s.MultiSearch)
	})
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, CodeNotFound, "no such route")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, CodeBadRequest, "method not allowed")
	})
}

// Search handles POST /api/v1/search.
func (s *Server) Search(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	page, err := s.search.Search(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, pageToResponse(page))
}

// Explain handles POST /api/v1/search/explain.
func (s *Server) Explain(w http.ResponseWriter, r *http.Request) {
	req, ok := s.decodeSearch(w, r)
	if !ok {
		return
	}
	c, err := s.search.Explain(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp, err := compiledToResponse(c)
	if err != nil {
		s.handleDomainError(w, fmt.Errorf("encode compiled search: %w", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// MultiSearch handles POST /api/v1/msearch.
func (s *Server) MultiSearch(w http.ResponseWriter, r *http.Request) {
	var body MultiSearchRequest
	if !s.decode(w, r, &body) {
		return
	}
	params := make([]request.Params, len(body.Searches))
	for i := range body.Searches {
		params[i] = body.Searches[i].params()
	}
	m, err := request.NewMulti(params)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}

	pages, err := s.search.MultiSearch(r.Context(), &m)
	if err != nil {
		s.handleDomainError(w, err)
		return
	}
	resp := MultiSearchResponse{Responses: make([]SearchResponse, len(pages))}
	for i, p := range pages {
		resp.Responses[i] = pageToResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// HealthCheck handles GET /health.
func (s *Server) HealthCheck(w http.ResponseWriter, r *http.Request) {
	report := s.health.Check(r.Context())

	checks := make(map[string]string, len(report.Checks))
	for k, v := range report.Checks {
		checks[k] = string(v)
	}

	httpStatus := http.StatusOK
	if report.Status == healthuc.Unhealthy {
		httpStatus = http.StatusServiceUnavailable
	}
	writeJSON(w, httpStatus, HealthResponse{Status: string(report.Status), Checks: checks})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func (s *Server) decodeSearch(w http.ResponseWriter, r *http.Request) (*request.Request, bool) {
	var body SearchRequest
	if !s.decode(w, r, &body) {
		return nil, false
	}
	req, err := request.New(body.params())
	if err != nil {
		s.handleDomainError(w, err)
		return nil, false
	}
	return &req, true
}

// decode reads a JSON body, rejecting unknown fields.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		if name, ok := unknownField(err); ok {
			s.handleDomainError(w, domain.NewUnknownOption(name))
			return false
		}
		writeError(w, http.StatusBadRequest, CodeBadRequest, "Invalid request body: "+err.Error())
		return false
	}
	return true
}

// unknownField extracts the field name from encoding/json's unknown field error.
func unknownField(err error) (string, bool) {
	const prefix = "json: unknown field "
	msg := err.Error()
	if !strings.HasPrefix(msg, prefix) {
		return "", false
	}
	return strings.Trim(strings.TrimPrefix(msg, prefix), `"`), true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code ErrorCode, message string) {
	writeJSON(w, status, ErrorResponse{Code: code, Message: message})
}

// clientErrors may be shown to clients with their full message.
var clientErrors = []error{
	domain.ErrInvalidFilter,
	domain.ErrInvalidQuery,
	domain.ErrInvalidPagination,
	domain.ErrInvalidSort,
	domain.ErrNotFound,
}

// safeDomainMessage returns a message for the client without exposing internals.
func safeDomainMessage(err error) string {
	for _, s := range clientErrors {
		if errors.Is(err, s) {
			return err.Error()
		}
	}
	for _, s := range []error{domain.ErrNotImplemented, domain.ErrSearchEngine} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// sentinelHandler returns an errorHandler that matches a single sentinel error.
func sentinelHandler(sentinel error, status int, code ErrorCode) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

// unknownOptionHandler lists the rejected option names.
func unknownOptionHandler(w http.ResponseWriter, err error, _ string) bool {
	var uoe *domain.UnknownOptionError
	if !errors.As(err, &uoe) {
		return false
	}
	writeJSON(w, http.StatusBadRequest, ErrorResponse{
		Code:    CodeUnknownOption,
		Message: uoe.Error(),
		Options: uoe.Names,
	})
	return true
}

func (s *Server) handleDomainError(w http.ResponseWriter, err error) {
	s.logger.Warn("domain error", zap.Error(err))
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			return
		}
	}
	s.logger.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, CodeInternalError, "internal error")
}
