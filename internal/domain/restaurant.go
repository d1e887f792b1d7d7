package domain

import "time"

// Restaurant is the aggregate entity scraped from one listing page.
type Restaurant struct {
	ID          int64
	Name        string
	Category    string
	Tags        string
	Price       string
	Rating      float64
	ReviewCount int
	URL         string
	Summary     string
}

// Geography enriches a restaurant with coordinates and proximity counts
// gathered from external geo services. It is co-created with its restaurant
// in the same ingestion run, never on its own.
type Geography struct {
	ID                int64
	RestaurantID      int64
	Address           string
	Latitude          float64
	Longitude         float64
	RestaurantDensity int
	TransportCount    int
}

// Review is a single user review from a paginated review listing.
// Label stays nil until the sentiment backfill assigns a 1..5 value.
type Review struct {
	ID           int64
	RestaurantID int64
	Author       string
	Rating       float64
	Date         time.Time
	Title        string
	Body         string
	Label        *int
}

// Listing carries the raw restaurant-level fields extracted from a page,
// before any identifier is allocated.
type Listing struct {
	Name        string
	Address     string
	Tags        string
	Price       string
	Rating      float64
	ReviewCount int
}
