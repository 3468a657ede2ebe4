// Package server implements the HTTP server and routing logic.
package server

import (
	"net/http"

	"github.com/r-Iyer/MapMyMemories/internal/server/handlers"
	"github.com/r-Iyer/MapMyMemories/internal/server/ipgeo"
	"github.com/r-Iyer/MapMyMemories/internal/server/ratelimit"
)

// NewRouter creates and configures the HTTP router.
// Serves API endpoints at /api/* and the uploaded files at /public/.
func NewRouter(svc *handlers.Services, cfg *handlers.Config, uploadLimiter *ratelimit.Limiter, geoChecker *ipgeo.Checker) http.Handler {
	mux := &http.ServeMux{}
	uh := handlers.NewUploadHandler(svc)
	ph := handlers.NewPlacesHandler(svc)
	usersh := handlers.NewUsersHandler(svc)
	hh := handlers.NewHealthHandler(cfg.Version)

	// Health check
	mux.Handle("GET /api/health", Wrap(hh.Health))

	// Upload endpoint. It is the only write path, so it alone is rate
	// limited. Raw handler because of the multipart form.
	upload := http.Handler(http.HandlerFunc(uh.UploadPlaceHandler))
	if uploadLimiter != nil {
		upload = RateLimit(uploadLimiter)(upload)
	}
	mux.Handle("POST /api/upload", upload)

	// Read endpoints
	mux.Handle("GET /api/places/{username}", Wrap(ph.ListPlaces))
	mux.Handle("GET /api/places/{username}/history", Wrap(ph.GetHistory))
	mux.Handle("GET /api/users", Wrap(usersh.ListUsers))

	// Raw file serving: user images and ledgers straight off the data
	// directory, same layout the remote mirror uses.
	mux.Handle("GET /public/", http.StripPrefix("/public/", http.FileServer(http.Dir(svc.Local.BaseDir()))))

	var h http.Handler = mux
	h = LogRequests(h)
	h = CORS(h)
	h = RequestMetadata(geoChecker)(h)
	return h
}
