package geoip

import (
	"errors"
	"fmt"
	"net"
	"strings"

	"github.com/oschwald/geoip2-golang"
)

// ErrUnavailable is returned when the resolver is not initialized.
var ErrUnavailable = errors.New("geoip resolver unavailable")

// Location is the approximate position of an IP address.
type Location struct {
	Latitude  float64
	Longitude float64
	Country   string
	City      string
}

// Locator resolves approximate coordinates from IP addresses.
type Locator interface {
	Locate(ip string) (Location, error)
}

// Resolver provides city lookups backed by a MaxMind GeoIP2/GeoLite2 City database.
type Resolver struct {
	reader *geoip2.Reader
}

// NewResolver opens the GeoIP database at the given path. When the path is empty, nil is returned.
func NewResolver(path string) (*Resolver, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	reader, err := geoip2.Open(path)
	if err != nil {
		return nil, fmt.Errorf("geoip: open database: %w", err)
	}
	return &Resolver{reader: reader}, nil
}

// Locate returns the city-level location for the provided IP.
func (r *Resolver) Locate(ip string) (Location, error) {
	if r == nil || r.reader == nil {
		return Location{}, ErrUnavailable
	}
	parsed := net.ParseIP(strings.TrimSpace(ip))
	if parsed == nil {
		return Location{}, fmt.Errorf("geoip: invalid ip %q", ip)
	}
	record, err := r.reader.City(parsed)
	if err != nil {
		return Location{}, fmt.Errorf("geoip: lookup city: %w", err)
	}
	if record == nil || (record.Location.Latitude == 0 && record.Location.Longitude == 0) {
		return Location{}, ErrUnavailable
	}
	return Location{
		Latitude:  record.Location.Latitude,
		Longitude: record.Location.Longitude,
		Country:   record.Country.IsoCode,
		City:      record.City.Names["en"],
	}, nil
}

// Close closes the underlying database reader.
func (r *Resolver) Close() error {
	if r == nil || r.reader == nil {
		return nil
	}
	return r.reader.Close()
}
