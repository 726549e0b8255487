package server

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/yassineco/assistant-core/internal/auth"
	"github.com/yassineco/assistant-core/internal/loader"
	"github.com/yassineco/assistant-core/internal/models"
	"github.com/yassineco/assistant-core/internal/store"
)

func (s *Server) RegisterAdminRoutes(router *mux.Router) {
	// Tenant management
	router.HandleFunc("/admin/tenants", s.ListTenants).Methods("GET")
	router.HandleFunc("/admin/tenants", s.CreateTenant).Methods("POST")
	router.HandleFunc("/admin/tenants/{id}", s.GetTenant).Methods("GET")
	router.HandleFunc("/admin/tenants/{id}", s.UpdateTenant).Methods("PUT")
	router.HandleFunc("/admin/tenants/{id}", s.DeleteTenant).Methods("DELETE")

	// API keys
	router.HandleFunc("/admin/tenants/{id}/keys", s.ListKeys).Methods("GET")
	router.HandleFunc("/admin/tenants/{id}/keys", s.IssueKey).Methods("POST")
	router.HandleFunc("/admin/keys/{keyID}/revoke", s.RevokeKey).Methods("POST")
	router.HandleFunc("/admin/keys/{keyID}/rotate", s.RotateKey).Methods("POST")

	// Usage and index operations
	router.HandleFunc("/admin/tenants/{id}/usage", s.GetUsage).Methods("GET")
	router.HandleFunc("/admin/tenants/{id}/analytics", s.GetAnalytics).Methods("GET")
	router.HandleFunc("/admin/reindex", s.Reindex).Methods("POST")
}

func (s *Server) CreateTenant(w http.ResponseWriter, r *http.Request) {
	var req struct {
		DisplayName  string `json:"display_name"`
		Plan         string `json:"plan"`
		QuotaDaily   int64  `json:"quota_daily"`
		QuotaMonthly int64  `json:"quota_monthly"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if req.DisplayName == "" {
		http.Error(w, "display_name is required", http.StatusBadRequest)
		return
	}
	if req.Plan == "" {
		req.Plan = "standard"
	}

	tenant := &models.Tenant{
		ID:           uuid.NewString(),
		DisplayName:  req.DisplayName,
		Status:       models.TenantActive,
		Plan:         req.Plan,
		QuotaDaily:   req.QuotaDaily,
		QuotaMonthly: req.QuotaMonthly,
	}
	if err := s.store.CreateTenant(r.Context(), tenant); err != nil {
		log.Printf("failed to create tenant: %v", err)
		http.Error(w, "Failed to create tenant", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, tenant)
}

func (s *Server) ListTenants(w http.ResponseWriter, r *http.Request) {
	tenants, err := s.store.ListTenants(r.Context())
	if err != nil {
		http.Error(w, "Failed to list tenants", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, tenants)
}

func (s *Server) GetTenant(w http.ResponseWriter, r *http.Request) {
	tenant, err := s.store.GetTenant(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Tenant not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, tenant)
}

func (s *Server) UpdateTenant(w http.ResponseWriter, r *http.Request) {
	var upd struct {
		DisplayName  *string              `json:"display_name"`
		Status       *models.TenantStatus `json:"status"`
		Plan         *string              `json:"plan"`
		QuotaDaily   *int64               `json:"quota_daily"`
		QuotaMonthly *int64               `json:"quota_monthly"`
	}
	if err := json.NewDecoder(r.Body).Decode(&upd); err != nil {
		http.Error(w, "Invalid request", http.StatusBadRequest)
		return
	}
	if upd.Status != nil && *upd.Status != models.TenantActive && *upd.Status != models.TenantSuspended {
		http.Error(w, "Invalid status", http.StatusBadRequest)
		return
	}

	err := s.store.UpdateTenant(r.Context(), mux.Vars(r)["id"], store.TenantUpdate{
		DisplayName:  upd.DisplayName,
		Status:       upd.Status,
		Plan:         upd.Plan,
		QuotaDaily:   upd.QuotaDaily,
		QuotaMonthly: upd.QuotaMonthly,
	})
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Tenant not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to update tenant", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "updated"})
}

func (s *Server) DeleteTenant(w http.ResponseWriter, r *http.Request) {
	err := s.store.DeleteTenant(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "Tenant not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to delete tenant", http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// IssueKey mints a new API key for a tenant. The raw key appears in this
// response only; the store keeps just the hash.
func (s *Server) IssueKey(w http.ResponseWriter, r *http.Request) {
	tenantID := mux.Vars(r)["id"]
	if _, err := s.store.GetTenant(r.Context(), tenantID); err != nil {
		http.Error(w, "Tenant not found", http.StatusNotFound)
		return
	}

	raw, key, err := auth.GenerateKey(uuid.NewString(), tenantID)
	if err != nil {
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}
	if err := s.store.CreateAPIKey(r.Context(), key); err != nil {
		log.Printf("failed to store API key: %v", err)
		http.Error(w, "Failed to store API key", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{
		"key_id":  key.ID,
		"api_key": raw,
	})
}

func (s *Server) ListKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := s.store.ListAPIKeys(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Failed to list API keys", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, keys)
}

func (s *Server) RevokeKey(w http.ResponseWriter, r *http.Request) {
	err := s.store.RevokeAPIKey(r.Context(), mux.Vars(r)["keyID"])
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "API key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to revoke API key", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "revoked"})
}

// RotateKey revokes a key and issues a fresh one for the same tenant in a
// single call. The old key stops working immediately.
func (s *Server) RotateKey(w http.ResponseWriter, r *http.Request) {
	keyID := mux.Vars(r)["keyID"]

	old, err := s.store.GetAPIKey(r.Context(), keyID)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, "API key not found", http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, "Failed to rotate API key", http.StatusInternalServerError)
		return
	}

	if err := s.store.RevokeAPIKey(r.Context(), keyID); err != nil {
		http.Error(w, "Failed to rotate API key", http.StatusInternalServerError)
		return
	}

	raw, key, err := auth.GenerateKey(uuid.NewString(), old.TenantID)
	if err != nil {
		http.Error(w, "Failed to generate API key", http.StatusInternalServerError)
		return
	}
	if err := s.store.CreateAPIKey(r.Context(), key); err != nil {
		log.Printf("failed to store rotated API key: %v", err)
		http.Error(w, "Failed to store API key", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"key_id":  key.ID,
		"api_key": raw,
	})
}

func (s *Server) GetUsage(w http.ResponseWriter, r *http.Request) {
	daily, monthly, err := s.tracker.Usage(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		http.Error(w, "Failed to get usage", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"daily":   daily,
		"monthly": monthly,
	})
}

func (s *Server) GetAnalytics(w http.ResponseWriter, r *http.Request) {
	from, to := parseTimeRange(r)
	stats, err := s.store.GetTenantAnalytics(r.Context(), mux.Vars(r)["id"], from, to)
	if err != nil {
		http.Error(w, "Failed to get analytics", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

// Reindex runs a full build from the docs directory, then swaps the new
// index in. A failed build leaves the live index untouched.
func (s *Server) Reindex(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	docs, err := loader.LoadDir(s.docsDir)
	if err != nil {
		log.Printf("reindex: loading documents failed: %v", err)
		http.Error(w, "Failed to load documents: "+err.Error(), http.StatusInternalServerError)
		return
	}

	idx, err := s.indexStore.Build(r.Context(), docs)
	if err != nil {
		log.Printf("reindex: build failed: %v", err)
		http.Error(w, "Index build failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	s.indexStore.Swap(idx)

	writeJSON(w, http.StatusOK, map[string]any{
		"version":     idx.Version,
		"documents":   idx.Stats.Documents,
		"chunk_count": idx.Stats.Chunks,
		"dimension":   idx.Dimension,
		"duration_ms": time.Since(start).Milliseconds(),
	})
}

func parseTimeRange(r *http.Request) (time.Time, time.Time) {
	from := time.Now().UTC().AddDate(0, 0, -30)
	to := time.Now().UTC()
	if v := r.URL.Query().Get("from"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			from = t
		}
	}
	if v := r.URL.Query().Get("to"); v != "" {
		if t, err := time.Parse("2006-01-02", v); err == nil {
			to = t
		}
	}
	return from, to
}
