// Handles place listing and ledger history requests.

package handlers

import (
	"context"
	"errors"

	"github.com/r-Iyer/MapMyMemories/internal/ledger"
	"github.com/r-Iyer/MapMyMemories/internal/server/dto"
	"github.com/r-Iyer/MapMyMemories/internal/storage/local"
)

const defaultHistoryLimit = 20

// PlacesHandler handles place listing HTTP requests.
type PlacesHandler struct {
	Svc *Services
}

// NewPlacesHandler creates a new places handler.
func NewPlacesHandler(svc *Services) *PlacesHandler {
	return &PlacesHandler{Svc: svc}
}

// ListPlaces returns every place a user has pinned.
func (h *PlacesHandler) ListPlaces(ctx context.Context, req *dto.ListPlacesRequest) (*dto.ListPlacesResponse, error) {
	data, found, err := h.Svc.Local.ReadLedger(req.Username)
	if err != nil {
		if errors.Is(err, local.ErrInvalidUsername) {
			return nil, dto.BadRequest("invalid request data")
		}
		return nil, dto.InternalWithError("failed to read places", err)
	}
	if !found {
		return nil, dto.NotFound("places for user")
	}

	records, err := ledger.Parse(data)
	if err != nil {
		return nil, dto.InternalWithError("failed to parse places", err)
	}

	places := make([]dto.Place, 0, len(records))
	for _, rec := range records {
		places = append(places, dto.Place{
			Username:  rec.Username,
			Place:     rec.Place,
			State:     rec.State,
			Country:   rec.Country,
			Latitude:  rec.Latitude,
			Longitude: rec.Longitude,
			Picture:   rec.Picture,
		})
	}
	return &dto.ListPlacesResponse{Username: req.Username, Places: places}, nil
}

// GetHistory returns the change history of a user's ledger, newest first.
func (h *PlacesHandler) GetHistory(ctx context.Context, req *dto.HistoryRequest) (*dto.HistoryResponse, error) {
	if h.Svc.History == nil {
		return nil, dto.NotFound("ledger history")
	}

	limit := req.Limit
	if limit == 0 {
		limit = defaultHistoryLimit
	}

	commits, err := h.Svc.History.History(ctx, local.RelLedgerPath(req.Username), limit)
	if err != nil {
		return nil, dto.InternalWithError("failed to read ledger history", err)
	}

	entries := make([]dto.LedgerCommit, 0, len(commits))
	for _, c := range commits {
		entries = append(entries, dto.LedgerCommit{
			Hash:    c.Hash,
			Message: c.Message,
			Author:  c.Author,
			Date:    c.Date,
		})
	}
	return &dto.HistoryResponse{Username: req.Username, Commits: entries}, nil
}
