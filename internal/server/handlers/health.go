package handlers

import (
	"context"

	"github.com/r-Iyer/MapMyMemories/internal/server/dto"
)

// HealthHandler handles health check requests.
type HealthHandler struct {
	version string
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(version string) *HealthHandler {
	return &HealthHandler{version: version}
}

// Health handles health check requests.
func (h *HealthHandler) Health(_ context.Context, _ *dto.HealthRequest) (*dto.HealthResponse, error) {
	return &dto.HealthResponse{Status: "ok", Version: h.version}, nil
}
