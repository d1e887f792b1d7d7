package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"time"
)

// AmenityKind selects which amenity query CountNearby runs.
type AmenityKind string

const (
	// KindRestaurants counts restaurant nodes, ways and relations.
	KindRestaurants AmenityKind = "restaurants"
	// KindTransit counts bus stops, rail stations and subway entrances.
	KindTransit AmenityKind = "transit"
)

// Overpass counts amenities around a point through an Overpass-style API.
type Overpass struct {
	endpoint string
	client   *http.Client
	logger   *slog.Logger
}

// NewOverpass wires the interpreter endpoint.
func NewOverpass(endpoint string, client *http.Client, logger *slog.Logger) *Overpass {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	return &Overpass{endpoint: endpoint, client: client, logger: logger}
}

// CountNearby counts amenities of the given kind within radius meters of the
// point. A non-200 response counts as zero rather than failing the caller.
func (o *Overpass) CountNearby(ctx context.Context, kind AmenityKind, lat, lon float64, radius int) (int, error) {
	query, err := overpassQuery(kind, lat, lon, radius)
	if err != nil {
		return 0, err
	}

	params := url.Values{}
	params.Set("data", query)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, o.endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return 0, fmt.Errorf("build overpass request: %w", err)
	}

	resp, err := o.client.Do(req)
	if err != nil {
		return 0, fmt.Errorf("overpass request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		if o.logger != nil {
			o.logger.Warn("overpass query failed", "kind", kind, "status", resp.Status)
		}
		return 0, nil
	}

	var payload struct {
		Elements []json.RawMessage `json:"elements"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return 0, fmt.Errorf("decode overpass response: %w", err)
	}
	return len(payload.Elements), nil
}

func overpassQuery(kind AmenityKind, lat, lon float64, radius int) (string, error) {
	around := fmt.Sprintf("(around:%d,%f,%f)", radius, lat, lon)
	switch kind {
	case KindRestaurants:
		return fmt.Sprintf(`[out:json];(node["amenity"="restaurant"]%[1]s;way["amenity"="restaurant"]%[1]s;relation["amenity"="restaurant"]%[1]s;);out body;`, around), nil
	case KindTransit:
		return fmt.Sprintf(`[out:json];(node["highway"="bus_stop"]%[1]s;node["railway"="station"]%[1]s;node["amenity"="subway"]%[1]s;);out body;`, around), nil
	default:
		return "", fmt.Errorf("unknown amenity kind %q", kind)
	}
}
