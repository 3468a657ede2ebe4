// Defines the ledger record type and its identity tuple.

// Package ledger implements the per-user place ledger: the record type, the
// CSV codec it is persisted with, and the reconciliation step that dedups a
// candidate record against the existing rows.
package ledger

// Columns is the canonical CSV column order for a ledger file.
var Columns = []string{"username", "place", "state", "country", "latitude", "longitude", "picture"}

// Record is one row of a user's place ledger. Latitude and longitude keep the
// exact strings the user submitted so formatting survives round-trips.
type Record struct {
	Username  string `json:"username"`
	Place     string `json:"place"`
	State     string `json:"state"`
	Country   string `json:"country"`
	Latitude  string `json:"latitude"`
	Longitude string `json:"longitude"`
	Picture   string `json:"picture"`
}

// Key returns the identity tuple used for duplicate detection. Comparison is
// exact string equality: rows differing only in case or whitespace are
// distinct rows.
func (r Record) Key() [5]string {
	return [5]string{r.Place, r.State, r.Country, r.Latitude, r.Longitude}
}

// IsEmpty reports whether every field is the empty string. Such rows are
// parse artifacts of trailing blank lines, not data.
func (r Record) IsEmpty() bool {
	return r == Record{}
}

// fields returns the record's values in Columns order.
func (r Record) fields() []string {
	return []string{r.Username, r.Place, r.State, r.Country, r.Latitude, r.Longitude, r.Picture}
}

// setField assigns a value to the field named by a CSV header cell. Unknown
// column names are ignored.
func (r *Record) setField(name, value string) {
	switch name {
	case "username":
		r.Username = value
	case "place":
		r.Place = value
	case "state":
		r.State = value
	case "country":
		r.Country = value
	case "latitude":
		r.Latitude = value
	case "longitude":
		r.Longitude = value
	case "picture":
		r.Picture = value
	}
}
