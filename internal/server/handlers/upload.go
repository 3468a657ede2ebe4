// Handles place submissions (multipart/form-data).

package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/r-Iyer/MapMyMemories/internal/geo"
	"github.com/r-Iyer/MapMyMemories/internal/server/dto"
	"github.com/r-Iyer/MapMyMemories/internal/storage/local"
	"github.com/r-Iyer/MapMyMemories/internal/uploader"
)

// UploadHandler handles map pin uploads.
type UploadHandler struct {
	Svc *Services
}

// NewUploadHandler creates a new upload handler.
func NewUploadHandler(svc *Services) *UploadHandler {
	return &UploadHandler{Svc: svc}
}

// UploadPlaceHandler handles a place submission (multipart/form-data).
// This is a raw http.HandlerFunc because it handles multipart forms.
func (h *UploadHandler) UploadPlaceHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := r.ParseMultipartForm(10 << 20); err != nil { // 10 MB
		writeErrorResponse(w, dto.BadRequest("invalid request data"))
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		writeErrorResponse(w, dto.BadRequest("invalid request data"))
		return
	}
	defer func() {
		if err := file.Close(); err != nil {
			slog.Error("Failed to close uploaded file", "error", err)
		}
	}()

	data, err := io.ReadAll(file)
	if err != nil {
		writeErrorResponse(w, dto.Internal("failed to read uploaded image"))
		return
	}

	sub := uploader.Submission{
		Username:  r.FormValue("username"),
		Place:     r.FormValue("place"),
		State:     r.FormValue("state"),
		Country:   r.FormValue("country"),
		LatLong:   r.FormValue("latlong"),
		ImageName: header.Filename,
		ImageData: data,
	}

	result, err := h.Svc.Uploader.Upload(ctx, sub)
	if err != nil {
		switch {
		case errors.Is(err, uploader.ErrInvalidRequest):
			writeErrorResponse(w, dto.BadRequest("invalid request data"))
		case errors.Is(err, geo.ErrInvalidLatLong):
			writeErrorResponse(w, dto.BadRequest("latitude or longitude is not valid"))
		case errors.Is(err, local.ErrInvalidUsername):
			writeErrorResponse(w, dto.BadRequest("invalid request data"))
		default:
			slog.ErrorContext(ctx, "Upload failed", "err", err, "username", sub.Username, "place", sub.Place)
			writeErrorResponse(w, dto.InternalWithError("failed to process upload", err))
		}
		return
	}

	resp := dto.UploadResponse{
		Message:        result.Message,
		Appended:       result.Appended,
		ImageURL:       result.ImageURL,
		LedgerURL:      result.LedgerURL,
		LocalImagePath: result.LocalImagePath,
		Warnings:       result.Warnings,
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.ErrorContext(ctx, "Failed to encode response", "err", err)
	}
}
