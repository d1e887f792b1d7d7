package ports

import (
	"context"

	"friands/internal/domain"
)

// ListingSource fetches restaurant pages from the review site and turns them
// into entities.
type ListingSource interface {
	FetchListing(ctx context.Context, url string) (*domain.Listing, error)
	FetchReviews(ctx context.Context, url string, restaurantID, firstReviewID int64) ([]domain.Review, error)
}

// GeoEnricher resolves a free-text address into coordinates plus proximity
// counts. A nil result with a nil error means the address could not be
// geocoded; the caller decides what that implies.
type GeoEnricher interface {
	Enrich(ctx context.Context, address string, restaurantID int64) (*domain.Geography, error)
}

// SentimentClassifier labels review text on a 1..5 star scale.
type SentimentClassifier interface {
	Classify(ctx context.Context, text string) (int, error)
}

// Summarizer produces a short digest of a restaurant's recent reviews.
type Summarizer interface {
	Summarize(ctx context.Context, restaurant string, reviews []domain.Review) (string, error)
}
