package chi

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/kailas-cloud/reltag/internal/domain"
	domrel "github.com/kailas-cloud/reltag/internal/domain/related"
	"github.com/kailas-cloud/reltag/internal/domain/tag"
	"github.com/kailas-cloud/reltag/internal/domain/tagsearch"
	logpkg "github.com/kailas-cloud/reltag/internal/logger"
	healthuc "github.com/kailas-cloud/reltag/internal/usecase/health"
	relateduc "github.com/kailas-cloud/reltag/internal/usecase/related"
)

// Error codes returned in errorResponse.Code.
const (
	codeBadRequest        = "bad_request"
	codeInvalidSearch     = "invalid_search"
	codeUnauthorized      = "unauthorized"
	codeNotFound          = "not_found"
	codeCorpusUnavailable = "corpus_unavailable"
	codeInternalError     = "internal_error"
)

// errorHandler tries to handle a domain error. Returns true if handled.
type errorHandler func(w http.ResponseWriter, err error, msg string) bool

// Defaults holds the engine parameters used when a request leaves them out.
type Defaults struct {
	TopN          int
	SampleSize    int
	FrequentLimit int
}

// Server serves the related-tags HTTP API.
type Server struct {
	related       *relateduc.Service
	health        *healthuc.Service
	defaults      Defaults
	logger        *zap.Logger
	errorHandlers []errorHandler
}

// NewServer creates an HTTP API server.
func NewServer(
	related *relateduc.Service,
	health *healthuc.Service,
	defaults Defaults,
	logger *zap.Logger,
) *Server {
	s := &Server{
		related:  related,
		health:   health,
		defaults: defaults,
		logger:   logger,
	}
	s.errorHandlers = []errorHandler{
		sentinelHandler(domain.ErrInvalidSearch, http.StatusBadRequest, codeInvalidSearch),
		sentinelHandler(domain.ErrInvalidRequest, http.StatusBadRequest, codeBadRequest),
		sentinelHandler(domain.ErrNotFound, http.StatusNotFound, codeNotFound),
		sentinelHandler(domain.ErrCorpusUnavailable, http.StatusServiceUnavailable, codeCorpusUnavailable),
	}
	return s
}

// Register mounts every route on r.
func (s *Server) Register(r chi.Router) {
	r.Get("/related_tags", s.SimilarTags)
	r.Get("/related_tags/frequent", s.FrequentTags)
	r.Get("/related_tags/jaccard", s.Jaccard)
	r.Get("/counts/posts", s.CountPosts)
	r.Get("/health", s.HealthCheck)
	r.Get("/metrics", s.Metrics)
	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, codeNotFound, "route not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, codeBadRequest, "method not allowed")
	})
}

// SimilarTags handles GET /related_tags.
// A corpus outage yields a degraded empty answer instead of an error.
func (s *Server) SimilarTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := tagsearch.Search(strings.TrimSpace(q.Get("search")))

	limit, err := intParam(q.Get("limit"), s.defaults.TopN)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sampleSize, err := intParam(q.Get("sample_size"), s.defaults.SampleSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	scope, err := scopeParam(q.Get("safe_mode"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	req, err := domrel.NewRequest(search, limit, sampleSize, scope)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	res, err := s.related.SimilarTags(r.Context(), req)
	if errors.Is(err, domain.ErrCorpusUnavailable) {
		logpkg.FromContext(r.Context()).Warn("serving degraded related tags", zap.Error(err))
		writeJSON(w, http.StatusOK, relatedTagsResponse{
			Search:   search.String(),
			Degraded: true,
			Tags:     []scoredTag{},
		})
		return
	}
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, relatedTagsFromResult(res))
}

// FrequentTags handles GET /related_tags/frequent.
func (s *Server) FrequentTags(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	search := tagsearch.Search(strings.TrimSpace(q.Get("search")))

	limit, err := intParam(q.Get("limit"), s.defaults.FrequentLimit)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	sampleSize, err := intParam(q.Get("sample_size"), s.defaults.SampleSize)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	categories, err := categoriesParam(q.Get("category"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	scope, err := scopeParam(q.Get("safe_mode"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	req, err := domrel.NewFrequentRequest(search, categories, limit, sampleSize, scope)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	counts, err := s.related.FrequentTags(r.Context(), req)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	resp := frequentTagsResponse{Search: search.String(), Tags: make([]countedTag, len(counts))}
	for i, c := range counts {
		resp.Tags[i] = countedTag{Name: c.Name, Count: c.Count}
	}
	writeJSON(w, http.StatusOK, resp)
}

// Jaccard handles GET /related_tags/jaccard.
func (s *Server) Jaccard(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	a := strings.ToLower(strings.TrimSpace(q.Get("a")))
	b := strings.ToLower(strings.TrimSpace(q.Get("b")))
	if a == "" || b == "" || strings.ContainsAny(a+b, " \t") {
		writeError(w, http.StatusBadRequest, codeBadRequest, "parameters a and b must each name one tag")
		return
	}
	scope, err := scopeParam(q.Get("safe_mode"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	score, err := s.related.JaccardSimilarity(r.Context(), scope, a, b)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, jaccardResponse{A: a, B: b, Score: score})
}

// CountPosts handles GET /counts/posts.
func (s *Server) CountPosts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	scope, err := scopeParam(q.Get("safe_mode"))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	n, err := s.related.CountPosts(r.Context(), scope, tagsearch.Search(strings.TrimSpace(q.Get("tags"))))
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	var resp countsResponse
	resp.Counts.Posts = n
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

	writeJSON(w, httpStatus, healthResponse{
		Status: string(report.Status),
		Checks: checks,
	})
}

// Metrics handles GET /metrics.
func (s *Server) Metrics(w http.ResponseWriter, r *http.Request) {
	promhttp.Handler().ServeHTTP(w, r)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{
		Code:    code,
		Message: message,
	})
}

// safeDomainMessage returns a client-facing message without exposing internals.
// Validation errors keep their detail, which only describes the caller's input.
func safeDomainMessage(err error) string {
	if errors.Is(err, domain.ErrInvalidSearch) || errors.Is(err, domain.ErrInvalidRequest) {
		return innermostDetail(err)
	}
	for _, s := range []error{domain.ErrNotFound, domain.ErrCorpusUnavailable} {
		if errors.Is(err, s) {
			return s.Error()
		}
	}
	return "internal error"
}

// innermostDetail strips the wrapping prefixes added by the use case layers.
func innermostDetail(err error) string {
	msg := err.Error()
	for _, s := range []error{domain.ErrInvalidSearch, domain.ErrInvalidRequest} {
		if i := strings.Index(msg, s.Error()); i >= 0 {
			return msg[i:]
		}
	}
	return msg
}

func sentinelHandler(sentinel error, status int, code string) errorHandler {
	return func(w http.ResponseWriter, err error, msg string) bool {
		if !errors.Is(err, sentinel) {
			return false
		}
		writeError(w, status, code, msg)
		return true
	}
}

func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logpkg.FromContext(r.Context())
	msg := safeDomainMessage(err)
	for _, h := range s.errorHandlers {
		if h(w, err, msg) {
			log.Warn("domain error", zap.Error(err))
			return
		}
	}
	log.Error("internal error", zap.Error(err))
	writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
}

func intParam(raw string, def int) (int, error) {
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%w: %q is not an integer", domain.ErrInvalidRequest, raw)
	}
	return n, nil
}

func scopeParam(raw string) (tagsearch.Scope, error) {
	if raw == "" {
		return tagsearch.Scope{}, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return tagsearch.Scope{}, fmt.Errorf("%w: safe_mode must be a boolean, got %q", domain.ErrInvalidRequest, raw)
	}
	return tagsearch.Scope{SafeMode: v}, nil
}

func categoriesParam(raw string) ([]tag.Category, error) {
	if strings.TrimSpace(raw) == "" {
		return nil, nil
	}
	var out []tag.Category
	for _, part := range strings.Split(raw, ",") {
		c, err := tag.ParseCategory(part)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", domain.ErrInvalidRequest, err)
		}
		out = append(out, c)
	}
	return out, nil
}
