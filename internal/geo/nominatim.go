package geo

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Geocoder resolves free-text addresses through a Nominatim-style endpoint.
type Geocoder struct {
	endpoint  string
	userAgent string
	client    *http.Client
	logger    *slog.Logger
}

// NewGeocoder wires the endpoint; Nominatim requires an identifying
// User-Agent on every request.
func NewGeocoder(endpoint, userAgent string, client *http.Client, logger *slog.Logger) *Geocoder {
	if client == nil {
		client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Geocoder{endpoint: endpoint, userAgent: userAgent, client: client, logger: logger}
}

// Geocode resolves an address to coordinates with a single request. A query
// with zero results is not an error: it returns found=false and logs.
func (g *Geocoder) Geocode(ctx context.Context, address string) (lat, lon float64, found bool, err error) {
	u, err := url.Parse(g.endpoint)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geocoder endpoint: %w", err)
	}
	q := u.Query()
	q.Set("q", address)
	q.Set("format", "json")
	q.Set("addressdetails", "1")
	q.Set("limit", "1")
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return 0, 0, false, fmt.Errorf("build geocode request: %w", err)
	}
	req.Header.Set("User-Agent", g.userAgent)

	resp, err := g.client.Do(req)
	if err != nil {
		return 0, 0, false, fmt.Errorf("geocode request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return 0, 0, false, fmt.Errorf("geocoder returned %s", resp.Status)
	}

	var results []struct {
		Lat string `json:"lat"`
		Lon string `json:"lon"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		return 0, 0, false, fmt.Errorf("decode geocoder response: %w", err)
	}
	if len(results) == 0 {
		if g.logger != nil {
			g.logger.Warn("no geocoding result", "address", address)
		}
		return 0, 0, false, nil
	}

	lat, err = strconv.ParseFloat(results[0].Lat, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse latitude %q: %w", results[0].Lat, err)
	}
	lon, err = strconv.ParseFloat(results[0].Lon, 64)
	if err != nil {
		return 0, 0, false, fmt.Errorf("parse longitude %q: %w", results[0].Lon, err)
	}
	return lat, lon, true, nil
}
