// API request types.

package dto

// HealthRequest is the (empty) health check request.
type HealthRequest struct{}

// Validate implements Validatable.
func (r *HealthRequest) Validate() error { return nil }

// ListPlacesRequest asks for one user's pinned places.
type ListPlacesRequest struct {
	Username string `path:"username"`
}

// Validate implements Validatable.
func (r *ListPlacesRequest) Validate() error {
	if r.Username == "" {
		return MissingField("username")
	}
	return nil
}

// ListUsersRequest is the (empty) user listing request.
type ListUsersRequest struct{}

// Validate implements Validatable.
func (r *ListUsersRequest) Validate() error { return nil }

// HistoryRequest asks for the change history of one user's ledger.
type HistoryRequest struct {
	Username string `path:"username"`
	Limit    int    `query:"limit"`
}

// Validate implements Validatable.
func (r *HistoryRequest) Validate() error {
	if r.Username == "" {
		return MissingField("username")
	}
	if r.Limit < 0 {
		return BadRequest("limit must not be negative")
	}
	return nil
}
