// API response types.

package dto

import "time"

// HealthResponse reports server liveness.
type HealthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version"`
}

// UploadResponse is the success payload of POST /api/upload. Warnings carry
// remote-mirror failures that did not fail the request, so clients can retry
// just the remote half.
type UploadResponse struct {
	Message        string   `json:"message"`
	Appended       bool     `json:"appended"`
	ImageURL       string   `json:"imageUrl"`
	LedgerURL      string   `json:"ledgerUrl"`
	LocalImagePath string   `json:"localImagePath,omitempty"`
	Warnings       []string `json:"warnings,omitempty"`
}

// Place is one pinned place as rendered by the map front end.
type Place struct {
	Username  string `json:"username"`
	Place     string `json:"place"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Picture   string `json:"picture"`
}

// ListPlacesResponse is the payload of GET /api/places/{username}.
type ListPlacesResponse struct {
	Username string  `json:"username"`
	Places   []Place `json:"places"`
}

// ListUsersResponse is the payload of GET /api/users.
type ListUsersResponse struct {
	Users []string `json:"users"`
}

// LedgerCommit is one history entry of a user's ledger.
type LedgerCommit struct {
	Hash    string    `json:"hash"`
	Message string    `json:"message"`
	Author  string    `json:"author"`
	Date    time.Time `json:"date"`
}

// HistoryResponse is the payload of GET /api/places/{username}/history.
type HistoryResponse struct {
	Username string         `json:"username"`
	Commits  []LedgerCommit `json:"commits"`
}
