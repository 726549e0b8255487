package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/yassineco/assistant-core/internal/auth"
	"github.com/yassineco/assistant-core/internal/embedding"
	"github.com/yassineco/assistant-core/internal/gateway"
	"github.com/yassineco/assistant-core/internal/generation"
	"github.com/yassineco/assistant-core/internal/index"
	"github.com/yassineco/assistant-core/internal/models"
	"github.com/yassineco/assistant-core/internal/query"
	"github.com/yassineco/assistant-core/internal/quota"
	"github.com/yassineco/assistant-core/internal/store"
)

type Server struct {
	store      store.TenantStore
	validator  *auth.Validator
	gateway    *gateway.Gateway
	engine     *query.Engine
	indexStore *index.Store
	tracker    quota.Tracker
	generator  generation.Provider
	docsDir    string
	jwtSecret  string
}

type Config struct {
	Store      store.TenantStore
	Validator  *auth.Validator
	Gateway    *gateway.Gateway
	Engine     *query.Engine
	IndexStore *index.Store
	Tracker    quota.Tracker
	Generator  generation.Provider
	DocsDir    string
	JWTSecret  string
}

func New(cfg Config) *Server {
	return &Server{
		store:      cfg.Store,
		validator:  cfg.Validator,
		gateway:    cfg.Gateway,
		engine:     cfg.Engine,
		indexStore: cfg.IndexStore,
		tracker:    cfg.Tracker,
		generator:  cfg.Generator,
		docsDir:    cfg.DocsDir,
		jwtSecret:  cfg.JWTSecret,
	}
}

func (s *Server) Routes() *mux.Router {
	router := mux.NewRouter()
	router.Use(AccessLog(s.store))

	router.HandleFunc("/health", s.Health).Methods("GET")
	router.HandleFunc("/auth/token", s.Token).Methods("POST")

	authMiddleware := auth.NewMiddleware(s.jwtSecret)
	api := router.PathPrefix("/v1").Subrouter()
	api.Use(authMiddleware.Authenticate)
	api.HandleFunc("/query", s.Query).Methods("POST")
	api.HandleFunc("/answer", s.Answer).Methods("POST")

	s.RegisterAdminRoutes(router)
	return router
}

func (s *Server) Health(w http.ResponseWriter, r *http.Request) {
	status := map[string]string{"status": "healthy"}
	if idx := s.indexStore.Current(); idx != nil {
		status["index_version"] = idx.Version
	}
	writeJSON(w, http.StatusOK, status)
}

// Token exchanges a valid API key for a short-lived bearer token. Tenant
// status and quota are still enforced per request.
func (s *Server) Token(w http.ResponseWriter, r *http.Request) {
	var req struct {
		APIKey string `json:"api_key"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}

	key, err := s.validator.ValidateKey(r.Context(), req.APIKey)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if _, err := s.validator.ResolveTenant(r.Context(), key.TenantID); err != nil {
		s.writeError(w, err)
		return
	}

	token, err := auth.GenerateToken(key.TenantID, key.ID, s.jwtSecret)
	if err != nil {
		log.Printf("token generation failed: %v", err)
		http.Error(w, "Failed to generate token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"token": token})
}

type queryRequest struct {
	Query    string   `json:"query"`
	TopK     int      `json:"top_k,omitempty"`
	MinScore *float64 `json:"min_score,omitempty"`
}

type queryResult struct {
	Content  string                  `json:"content"`
	Score    float64                 `json:"score"`
	Metadata models.DocumentMetadata `json:"metadata"`
}

type queryResponse struct {
	Results              []queryResult `json:"results"`
	TenantQuotaRemaining int64         `json:"tenant_quota_remaining"`
}

func (s *Server) Query(w http.ResponseWriter, r *http.Request) {
	rc, req, ok := s.admitQuery(w, r)
	if !ok {
		return
	}

	results, err := s.engine.Search(r.Context(), req.Query, req.TopK, req.MinScore)
	if err != nil {
		s.writeError(w, err)
		return
	}

	log.Printf("query served: tenant=%s request=%s results=%d", rc.TenantID, rc.RequestID, len(results))
	writeJSON(w, http.StatusOK, buildQueryResponse(results, rc))
}

func (s *Server) Answer(w http.ResponseWriter, r *http.Request) {
	if s.generator == nil {
		http.Error(w, "Generation backend not configured", http.StatusServiceUnavailable)
		return
	}

	rc, req, ok := s.admitQuery(w, r)
	if !ok {
		return
	}

	results, err := s.engine.Search(r.Context(), req.Query, req.TopK, req.MinScore)
	if err != nil {
		s.writeError(w, err)
		return
	}

	answer, err := s.generator.Generate(r.Context(), req.Query, results)
	if err != nil {
		log.Printf("generation failed: tenant=%s request=%s: %v", rc.TenantID, rc.RequestID, err)
		http.Error(w, "Generation backend failed", http.StatusBadGateway)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"answer":                 answer,
		"sources":                buildQueryResponse(results, rc).Results,
		"tenant_quota_remaining": rc.QuotaRemaining,
	})
}

// admitQuery decodes the request, runs the gateway admission and stamps the
// tenant into the access log. A false return means the response is already
// written.
func (s *Server) admitQuery(w http.ResponseWriter, r *http.Request) (*models.RequestContext, *queryRequest, bool) {
	cred, ok := auth.GetCredentialFromContext(r.Context())
	if !ok {
		http.Error(w, "Unauthorized", http.StatusUnauthorized)
		return nil, nil, false
	}

	var req queryRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return nil, nil, false
	}
	if strings.TrimSpace(req.Query) == "" {
		http.Error(w, "Query must not be empty", http.StatusBadRequest)
		return nil, nil, false
	}

	cost := int64(len(strings.Fields(req.Query)))
	var rc *models.RequestContext
	var err error
	if cred.RawKey != "" {
		rc, err = s.gateway.Admit(r.Context(), cred.RawKey, cost)
	} else {
		rc, err = s.gateway.AdmitClaims(r.Context(), cred.Claims, cost)
	}
	if err != nil {
		s.writeError(w, err)
		return nil, nil, false
	}

	SetLogTenant(r.Context(), rc.TenantID)
	w.Header().Set("X-Request-Id", rc.RequestID)
	return rc, &req, true
}

func buildQueryResponse(results []models.SearchResult, rc *models.RequestContext) queryResponse {
	out := queryResponse{
		Results:              make([]queryResult, 0, len(results)),
		TenantQuotaRemaining: rc.QuotaRemaining,
	}
	for _, res := range results {
		out.Results = append(out.Results, queryResult{
			Content:  res.Chunk.Content,
			Score:    res.Score,
			Metadata: res.Chunk.Metadata,
		})
	}
	return out
}

// writeError maps the error taxonomy to HTTP statuses: bad credentials 401,
// suspended tenant 403, quota 429 with Retry-After, index problems 503,
// provider failures 502.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	var quotaErr *quota.QuotaExceededError
	var dimErr *query.DimensionMismatchError
	var provErr *embedding.ProviderError

	switch {
	case errors.Is(err, auth.ErrKeyInvalid), errors.Is(err, auth.ErrKeyRevoked),
		errors.Is(err, auth.ErrTenantNotFound):
		http.Error(w, "Invalid API key", http.StatusUnauthorized)
	case errors.Is(err, auth.ErrTenantSuspended):
		http.Error(w, "Tenant suspended", http.StatusForbidden)
	case errors.As(err, &quotaErr):
		w.Header().Set("Retry-After", fmt.Sprintf("%d", int(quotaErr.RetryAfter.Seconds())+1))
		http.Error(w, quotaErr.Error(), http.StatusTooManyRequests)
	case errors.Is(err, index.ErrIndexNotFound):
		http.Error(w, "Index unavailable", http.StatusServiceUnavailable)
	case errors.As(err, &dimErr):
		http.Error(w, dimErr.Error(), http.StatusServiceUnavailable)
	case errors.As(err, &provErr):
		http.Error(w, "Embedding provider failed", http.StatusBadGateway)
	default:
		log.Printf("internal error: %v", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
