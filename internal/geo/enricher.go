package geo

import (
	"context"
	"fmt"
	"log/slog"

	"friands/internal/domain"
	"friands/internal/ports"
)

const defaultRadiusMeters = 500

// Enricher composes geocoding and proximity counts into a Geography record.
type Enricher struct {
	geocoder *Geocoder
	overpass *Overpass
	radius   int
	logger   *slog.Logger
}

var _ ports.GeoEnricher = (*Enricher)(nil)

// NewEnricher wires the two geo services; radius defaults to 500 m.
func NewEnricher(geocoder *Geocoder, overpass *Overpass, radius int, logger *slog.Logger) *Enricher {
	if radius <= 0 {
		radius = defaultRadiusMeters
	}
	return &Enricher{geocoder: geocoder, overpass: overpass, radius: radius, logger: logger}
}

// Enrich resolves the address and counts nearby restaurants and transit
// stops. A failed geocode returns (nil, nil): the caller decides whether
// missing geography is fatal.
func (e *Enricher) Enrich(ctx context.Context, address string, restaurantID int64) (*domain.Geography, error) {
	lat, lon, found, err := e.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, fmt.Errorf("geocode %q: %w", address, err)
	}
	if !found {
		if e.logger != nil {
			e.logger.Warn("address not enrichable", "address", address)
		}
		return nil, nil
	}

	density, err := e.overpass.CountNearby(ctx, KindRestaurants, lat, lon, e.radius)
	if err != nil {
		return nil, fmt.Errorf("count nearby restaurants: %w", err)
	}
	transit, err := e.overpass.CountNearby(ctx, KindTransit, lat, lon, e.radius)
	if err != nil {
		return nil, fmt.Errorf("count nearby transit: %w", err)
	}

	return &domain.Geography{
		RestaurantID:      restaurantID,
		Address:           address,
		Latitude:          lat,
		Longitude:         lon,
		RestaurantDensity: density,
		TransportCount:    transit,
	}, nil
}
