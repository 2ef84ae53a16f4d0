package adapters

import (
	"context"

	addresssvc "avfall_backend/internal/addresses/service"
	"avfall_backend/internal/addresses/transport"
	"avfall_backend/internal/maps"
)

// AddressGeocoder adapts the maps service for the address lookup.
// It implements addresses/service.Geocoder.
type AddressGeocoder struct {
	svc *maps.Service
}

// NewAddressGeocoder creates a new geocoder adapter.
// Returns nil if the service is nil (disabled).
func NewAddressGeocoder(svc *maps.Service) *AddressGeocoder {
	if svc == nil {
		return nil
	}
	return &AddressGeocoder{svc: svc}
}

// Locate returns the first match for query, or nil when there is none.
func (a *AddressGeocoder) Locate(ctx context.Context, query string) (*transport.Point, error) {
	lat, lon, found, err := a.svc.Locate(ctx, query)
	if err != nil || !found {
		return nil, err
	}
	return &transport.Point{Lat: lat, Lon: lon}, nil
}

// Compile-time check that AddressGeocoder implements addresses/service.Geocoder.
var _ addresssvc.Geocoder = (*AddressGeocoder)(nil)
