// Parses and validates combined latitude/longitude strings.

// Package geo handles coordinate validation and optional reverse-geocode
// autofill of the state and country fields.
package geo

import (
	"errors"
	"math"
	"strconv"
	"strings"
)

// ErrInvalidLatLong is returned when a combined coordinate string does not
// contain two finite decimal numbers separated by a comma.
var ErrInvalidLatLong = errors.New("latitude or longitude is not valid")

// ParseLatLong splits a combined "lat, lon" string on its comma and validates
// both halves as finite decimal numbers. The returned strings are the trimmed
// originals, not reformatted values, so user formatting is preserved in the
// ledger.
func ParseLatLong(latlong string) (lat, lon string, err error) {
	before, after, found := strings.Cut(latlong, ",")
	if !found {
		return "", "", ErrInvalidLatLong
	}
	lat = strings.TrimSpace(before)
	lon = strings.TrimSpace(after)
	if !isFinite(lat) || !isFinite(lon) {
		return "", "", ErrInvalidLatLong
	}
	return lat, lon, nil
}

// isFinite reports whether s parses as a float64 that is neither NaN nor
// infinite. A second comma in the longitude half fails here, as does an empty
// half.
func isFinite(s string) bool {
	f, err := strconv.ParseFloat(s, 64)
	return err == nil && !math.IsNaN(f) && !math.IsInf(f, 0)
}
