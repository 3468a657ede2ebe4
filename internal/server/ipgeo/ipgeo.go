// Package ipgeo provides IP-to-country geolocation using MaxMind MMDB files.
//
// The server uses it, when a database is configured, to tag upload logs with
// the uploader's origin country. Lookups are best-effort: any failure yields
// an empty code and the request proceeds untagged.
package ipgeo

import (
	"net/netip"

	"github.com/oschwald/maxminddb-golang/v2"
)

// Checker resolves IP addresses to ISO 3166-1 alpha-2 country codes.
type Checker struct {
	reader *maxminddb.Reader
}

// Open opens an MMDB file for country lookups.
func Open(dbPath string) (*Checker, error) {
	r, err := maxminddb.Open(dbPath)
	if err != nil {
		return nil, err
	}
	return &Checker{reader: r}, nil
}

// Close releases the MMDB reader resources.
func (c *Checker) Close() error {
	return c.reader.Close()
}

// countryRecord is the minimal struct for MMDB country lookups.
type countryRecord struct {
	Country struct {
		ISOCode string `maxminddb:"iso_code"`
	} `maxminddb:"country"`
}

// CountryCode returns the ISO 3166-1 alpha-2 country code for the given IP
// string. Returns "local" for loopback, private, and unspecified IPs, and ""
// on parse or lookup error.
func (c *Checker) CountryCode(ipStr string) string {
	addr, err := netip.ParseAddr(ipStr)
	if err != nil {
		return ""
	}
	if addr.IsLoopback() || addr.IsPrivate() || addr.IsUnspecified() || addr.IsLinkLocalUnicast() {
		return "local"
	}
	var rec countryRecord
	if err := c.reader.Lookup(addr).Decode(&rec); err != nil {
		return ""
	}
	return rec.Country.ISOCode
}
