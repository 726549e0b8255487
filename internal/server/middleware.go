package server

import (
	"bytes"
	"context"
	"log"
	"net/http"
	"time"

	"github.com/yassineco/assistant-core/internal/models"
	"github.com/yassineco/assistant-core/internal/store"
)

type logContextKey string

const logTenantKey logContextKey = "log_tenant"

// SetLogTenant attributes the in-flight request's access log row to a
// tenant. Handlers call it once admission succeeds.
func SetLogTenant(ctx context.Context, tenantID string) {
	if p, ok := ctx.Value(logTenantKey).(*string); ok {
		*p = tenantID
	}
}

// AccessLog records one row per request, written asynchronously so logging
// never blocks the response path.
func AccessLog(s store.TenantStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			tenantID := ""
			ctx := context.WithValue(r.Context(), logTenantKey, &tenantID)

			recorder := &responseRecorder{ResponseWriter: w, statusCode: http.StatusOK}
			next.ServeHTTP(recorder, r.WithContext(ctx))

			elapsed := time.Since(start)
			entry := &models.AccessLog{
				TenantID:       tenantID,
				Endpoint:       r.URL.Path,
				Method:         r.Method,
				StatusCode:     recorder.statusCode,
				ResponseTimeMs: int(elapsed.Milliseconds()),
				RequestSize:    r.ContentLength,
				ResponseSize:   int64(recorder.size),
				Timestamp:      start.UTC(),
			}
			go s.LogAccess(context.Background(), entry)

			log.Printf("%s %s -> %d (%dms)", r.Method, r.URL.Path, recorder.statusCode, elapsed.Milliseconds())
		})
	}
}

type responseRecorder struct {
	http.ResponseWriter
	statusCode    int
	size          int
	body          *bytes.Buffer
	headerWritten bool
}

func (r *responseRecorder) WriteHeader(statusCode int) {
	if !r.headerWritten {
		r.statusCode = statusCode
		r.ResponseWriter.WriteHeader(statusCode)
		r.headerWritten = true
	}
}

func (r *responseRecorder) Write(b []byte) (int, error) {
	size, err := r.ResponseWriter.Write(b)
	r.size += size
	if r.body != nil {
		r.body.Write(b)
	}
	return size, err
}
