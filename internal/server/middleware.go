// HTTP middleware: correlation ids, request logging, CORS, rate limiting.

package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/r-Iyer/MapMyMemories/internal/server/ipgeo"
	"github.com/r-Iyer/MapMyMemories/internal/server/ratelimit"
	"github.com/r-Iyer/MapMyMemories/internal/server/reqctx"
)

// RequestMetadata attaches the client IP, a correlation id, and (when a geoip
// database is configured) the origin country to the request context.
func RequestMetadata(checker *ipgeo.Checker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			ip := reqctx.GetClientIP(r)
			ctx = reqctx.WithClientIP(ctx, ip)

			id := r.Header.Get("X-Request-Id")
			if id == "" {
				id = uuid.NewString()
			}
			ctx = reqctx.WithRequestID(ctx, id)
			w.Header().Set("X-Request-Id", id)

			if checker != nil {
				ctx = reqctx.WithCountryCode(ctx, checker.CountryCode(ip))
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// statusRecorder captures the response status code for logging.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// LogRequests logs one line per request with method, path, status and timing.
func LogRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		ctx := r.Context()
		attrs := []any{
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"dur", time.Since(start).Round(time.Millisecond),
			"ip", reqctx.ClientIP(ctx),
		}
		if cc := reqctx.CountryCode(ctx); cc != "" {
			attrs = append(attrs, "country", cc)
		}
		slog.InfoContext(ctx, "http", attrs...)
	})
}

// CORS allows cross-origin requests from the map front end.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-Id")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// RateLimit rejects requests over the per-client budget with a 429.
func RateLimit(limiter *ratelimit.Limiter) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			result := limiter.Allow(reqctx.GetClientIP(r))
			if !result.Allowed {
				writeRateLimitError(w, int(result.RetryAfter.Seconds()))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
