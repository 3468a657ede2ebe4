// Reverse-geocode autofill for missing state/country fields.

package geo

import (
	"fmt"
	"strconv"

	"github.com/andreiashu/geobed"
)

// Autofiller resolves coordinates to the region and country of the nearest
// known city. It backs the optional autofill of empty state/country fields on
// upload; a lookup miss returns empty strings and the caller keeps whatever
// the user submitted.
type Autofiller struct {
	g *geobed.GeoBed
}

// NewAutofiller loads the geobed city dataset. The first call on a fresh host
// downloads and caches the dataset, so construction can take a while; callers
// should treat a construction error as "autofill unavailable" rather than
// fatal.
func NewAutofiller() (*Autofiller, error) {
	g, err := geobed.NewGeobed()
	if err != nil {
		return nil, fmt.Errorf("failed to load geocoder dataset: %w", err)
	}
	return &Autofiller{g: g}, nil
}

// Locate returns the admin region code and ISO country code nearest to the
// given coordinates, or empty strings when the coordinates resolve to no
// known city.
func (a *Autofiller) Locate(latitude, longitude string) (state, country string) {
	lat, err := strconv.ParseFloat(latitude, 64)
	if err != nil {
		return "", ""
	}
	lon, err := strconv.ParseFloat(longitude, 64)
	if err != nil {
		return "", ""
	}
	city := a.g.ReverseGeocode(lat, lon)
	return city.Region(), city.Country()
}
