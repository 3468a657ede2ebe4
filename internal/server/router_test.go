package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/r-Iyer/MapMyMemories/internal/server/dto"
	"github.com/r-Iyer/MapMyMemories/internal/server/handlers"
	"github.com/r-Iyer/MapMyMemories/internal/server/ratelimit"
	"github.com/r-Iyer/MapMyMemories/internal/storage/local"
	"github.com/r-Iyer/MapMyMemories/internal/uploader"
)

func newTestRouter(t *testing.T, limiter *ratelimit.Limiter) http.Handler {
	t.Helper()
	store, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	svc := &handlers.Services{
		Uploader: &uploader.Service{Local: store},
		Local:    store,
	}
	return NewRouter(svc, &handlers.Config{Version: "test"}, limiter, nil)
}

func uploadRequest(t *testing.T, username, place, latlong string) *http.Request {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range map[string]string{"username": username, "place": place, "latlong": latlong} {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	fw, err := w.CreateFormFile("image", "pic.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := fw.Write([]byte("jpeg bytes")); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	req := httptest.NewRequest(http.MethodPost, "/api/upload", buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func TestRouterHealth(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.HealthResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Status != "ok" || resp.Version != "test" {
		t.Errorf("resp = %+v", resp)
	}
	if rec.Header().Get("X-Request-Id") == "" {
		t.Error("missing X-Request-Id header")
	}
}

func TestRouterUploadThenList(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)

	// Unknown user is a 404 before the first upload.
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places/carol", nil))
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "carol", "Lisbon", "38.72, -9.14"))
	if rec.Code != http.StatusOK {
		t.Fatalf("upload status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places/carol", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("list status = %d: %s", rec.Code, rec.Body.String())
	}
	var resp dto.ListPlacesResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Places) != 1 || resp.Places[0].Place != "Lisbon" {
		t.Errorf("places = %+v", resp.Places)
	}

	// The uploaded image is served straight off the data directory.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/public/carol/images/Lisbon.jpg", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("public serve status = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/users", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("users status = %d", rec.Code)
	}
	var users dto.ListUsersResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &users); err != nil {
		t.Fatal(err)
	}
	if len(users.Users) != 1 || users.Users[0] != "carol" {
		t.Errorf("users = %v", users.Users)
	}
}

func TestRouterUploadRateLimited(t *testing.T) {
	t.Parallel()
	limiter := ratelimit.NewLimiter(1, time.Hour, 1)
	defer limiter.Stop()
	router := newTestRouter(t, limiter)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "dave", "Oslo", "59.91, 10.75"))
	if rec.Code != http.StatusOK {
		t.Fatalf("first upload status = %d: %s", rec.Code, rec.Body.String())
	}

	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, uploadRequest(t, "dave", "Bergen", "60.39, 5.32"))
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("second upload status = %d, want 429", rec.Code)
	}

	// Reads are not rate limited.
	rec = httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/places/dave", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("read status = %d, want 200", rec.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	t.Parallel()
	router := newTestRouter(t, nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/upload", nil))
	if rec.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want 204", rec.Code)
	}
	if rec.Header().Get("Access-Control-Allow-Origin") != "*" {
		t.Error("missing CORS header")
	}
}
