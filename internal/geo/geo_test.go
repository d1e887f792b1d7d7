package geo

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestGeocode(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "1 Rue X, 69001 Lyon" {
			t.Errorf("unexpected query: %s", got)
		}
		if got := r.URL.Query().Get("limit"); got != "1" {
			t.Errorf("unexpected limit: %s", got)
		}
		_, _ = w.Write([]byte(`[{"lat":"45.7640","lon":"4.8357"}]`))
	}))
	defer server.Close()

	geocoder := NewGeocoder(server.URL, "friands-test", server.Client(), nil)
	lat, lon, found, err := geocoder.Geocode(context.Background(), "1 Rue X, 69001 Lyon")
	if err != nil {
		t.Fatalf("Geocode error: %v", err)
	}
	if !found {
		t.Fatal("expected a geocoding result")
	}
	if lat != 45.764 || lon != 4.8357 {
		t.Fatalf("unexpected coordinates: %f, %f", lat, lon)
	}
}

func TestGeocodeNoResult(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	geocoder := NewGeocoder(server.URL, "friands-test", server.Client(), nil)
	_, _, found, err := geocoder.Geocode(context.Background(), "nulle part")
	if err != nil {
		t.Fatalf("Geocode error: %v", err)
	}
	if found {
		t.Fatal("expected no result")
	}
}

func TestCountNearby(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("data") == "" {
			t.Error("expected an overpass query")
		}
		_, _ = w.Write([]byte(`{"elements":[{},{},{}]}`))
	}))
	defer server.Close()

	overpass := NewOverpass(server.URL, server.Client(), nil)
	count, err := overpass.CountNearby(context.Background(), KindRestaurants, 45.764, 4.8357, 500)
	if err != nil {
		t.Fatalf("CountNearby error: %v", err)
	}
	if count != 3 {
		t.Fatalf("expected 3 elements, got %d", count)
	}
}

func TestCountNearbyNon200(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGatewayTimeout)
	}))
	defer server.Close()

	overpass := NewOverpass(server.URL, server.Client(), nil)
	count, err := overpass.CountNearby(context.Background(), KindTransit, 45.764, 4.8357, 500)
	if err != nil {
		t.Fatalf("CountNearby should not fail on non-200: %v", err)
	}
	if count != 0 {
		t.Fatalf("expected 0 on non-200, got %d", count)
	}
}

func TestEnrich(t *testing.T) {
	t.Parallel()

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"lat":"45.7640","lon":"4.8357"}]`))
	}))
	defer nominatim.Close()

	overpass := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"elements":[{},{}]}`))
	}))
	defer overpass.Close()

	enricher := NewEnricher(
		NewGeocoder(nominatim.URL, "friands-test", nominatim.Client(), nil),
		NewOverpass(overpass.URL, overpass.Client(), nil),
		500, nil)

	geography, err := enricher.Enrich(context.Background(), "1 Rue X, 69001 Lyon", 42)
	if err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if geography == nil {
		t.Fatal("expected geography")
	}
	if geography.RestaurantID != 42 {
		t.Fatalf("unexpected restaurant id: %d", geography.RestaurantID)
	}
	if geography.Latitude != 45.764 || geography.Longitude != 4.8357 {
		t.Fatalf("unexpected coordinates: %f, %f", geography.Latitude, geography.Longitude)
	}
	if geography.RestaurantDensity != 2 || geography.TransportCount != 2 {
		t.Fatalf("unexpected counts: %d, %d", geography.RestaurantDensity, geography.TransportCount)
	}
}

func TestEnrichGeocodeMiss(t *testing.T) {
	t.Parallel()

	nominatim := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[]`))
	}))
	defer nominatim.Close()

	enricher := NewEnricher(
		NewGeocoder(nominatim.URL, "friands-test", nominatim.Client(), nil),
		NewOverpass("http://unused", nil, nil),
		500, nil)

	geography, err := enricher.Enrich(context.Background(), "nulle part", 1)
	if err != nil {
		t.Fatalf("Enrich error: %v", err)
	}
	if geography != nil {
		t.Fatalf("expected nil geography, got %+v", geography)
	}
}
