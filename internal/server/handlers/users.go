// Handles user listing requests.

package handlers

import (
	"context"

	"github.com/r-Iyer/MapMyMemories/internal/server/dto"
)

// UsersHandler handles user listing HTTP requests.
type UsersHandler struct {
	Svc *Services
}

// NewUsersHandler creates a new users handler.
func NewUsersHandler(svc *Services) *UsersHandler {
	return &UsersHandler{Svc: svc}
}

// ListUsers returns every user that has pinned at least one place.
func (h *UsersHandler) ListUsers(_ context.Context, _ *dto.ListUsersRequest) (*dto.ListUsersResponse, error) {
	users, err := h.Svc.Local.ListUsers()
	if err != nil {
		return nil, dto.InternalWithError("failed to list users", err)
	}
	if users == nil {
		users = []string{}
	}
	return &dto.ListUsersResponse{Users: users}, nil
}
