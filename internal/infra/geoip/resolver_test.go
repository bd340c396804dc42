package geoip

import (
	"errors"
	"testing"
)

func TestNewResolverWithoutPath(t *testing.T) {
	r, err := NewResolver("  ")
	if err != nil || r != nil {
		t.Fatalf("expected nil resolver and nil error, got %v, %v", r, err)
	}
}

func TestNilResolverIsUnavailable(t *testing.T) {
	var r *Resolver
	if _, err := r.Locate("8.8.8.8"); !errors.Is(err, ErrUnavailable) {
		t.Fatalf("expected ErrUnavailable, got %v", err)
	}
	if err := r.Close(); err != nil {
		t.Fatalf("Close on nil resolver: %v", err)
	}
}

func TestNewResolverMissingFile(t *testing.T) {
	if _, err := NewResolver("/nonexistent/GeoLite2-City.mmdb"); err == nil {
		t.Fatal("expected error for missing database")
	}
}
