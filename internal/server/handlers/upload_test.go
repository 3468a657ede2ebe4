package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/r-Iyer/MapMyMemories/internal/server/dto"
	"github.com/r-Iyer/MapMyMemories/internal/storage/local"
	"github.com/r-Iyer/MapMyMemories/internal/uploader"
)

func newTestServices(t *testing.T) *Services {
	t.Helper()
	store, err := local.NewStore(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	return &Services{
		Uploader: &uploader.Service{Local: store},
		Local:    store,
	}
}

// multipartBody builds a multipart form with the given fields plus an image
// part named imageField (skipped when imageField is empty).
func multipartBody(t *testing.T, fields map[string]string, imageField, imageName string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	for k, v := range fields {
		if err := w.WriteField(k, v); err != nil {
			t.Fatal(err)
		}
	}
	if imageField != "" {
		fw, err := w.CreateFormFile(imageField, imageName)
		if err != nil {
			t.Fatal(err)
		}
		if _, err := fw.Write([]byte("fake image bytes")); err != nil {
			t.Fatal(err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	return buf, w.FormDataContentType()
}

func postUpload(t *testing.T, h *UploadHandler, fields map[string]string, imageField, imageName string) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, fields, imageField, imageName)
	req := httptest.NewRequest(http.MethodPost, "/api/upload", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()
	h.UploadPlaceHandler(rec, req)
	return rec
}

func TestUploadPlaceHandlerSuccess(t *testing.T) {
	t.Parallel()
	svc := newTestServices(t)
	h := NewUploadHandler(svc)

	fields := map[string]string{
		"username": "alice",
		"place":    "Eiffel Tower",
		"state":    "Ile-de-France",
		"country":  "France",
		"latlong":  "48.8584, 2.2945",
	}
	rec := postUpload(t, h, fields, "image", "tower.jpg")
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}
	var resp dto.UploadResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Message != "Upload successful!" {
		t.Errorf("Message = %q", resp.Message)
	}
	if !resp.Appended {
		t.Error("Appended = false, want true")
	}
	if resp.LocalImagePath == "" {
		t.Error("LocalImagePath is empty")
	}
	if len(resp.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none", resp.Warnings)
	}
}

func TestUploadPlaceHandlerMissingImage(t *testing.T) {
	t.Parallel()
	svc := newTestServices(t)
	h := NewUploadHandler(svc)

	fields := map[string]string{
		"username": "alice",
		"place":    "Eiffel Tower",
		"latlong":  "48.8584, 2.2945",
	}
	rec := postUpload(t, h, fields, "", "")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	var resp dto.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Error.Message != "invalid request data" {
		t.Errorf("message = %q, want %q", resp.Error.Message, "invalid request data")
	}
}

func TestUploadPlaceHandlerValidation(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		fields  map[string]string
		wantMsg string
	}{
		{
			name:    "missing username",
			fields:  map[string]string{"place": "Paris", "latlong": "48.85, 2.35"},
			wantMsg: "invalid request data",
		},
		{
			name:    "latlong without comma",
			fields:  map[string]string{"username": "alice", "place": "Paris", "latlong": "48.85"},
			wantMsg: "invalid request data",
		},
		{
			name:    "non numeric latlong",
			fields:  map[string]string{"username": "alice", "place": "Paris", "latlong": "north, south"},
			wantMsg: "latitude or longitude is not valid",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			svc := newTestServices(t)
			h := NewUploadHandler(svc)
			rec := postUpload(t, h, tt.fields, "image", "pic.png")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusBadRequest, rec.Body.String())
			}
			var resp dto.ErrorResponse
			if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
				t.Fatal(err)
			}
			if resp.Error.Message != tt.wantMsg {
				t.Errorf("message = %q, want %q", resp.Error.Message, tt.wantMsg)
			}
		})
	}
}
