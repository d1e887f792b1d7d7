package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"friands/internal/domain"
	"friands/internal/ports"
	"friands/internal/storage"
)

// Stage names surfaced in abort messages so the caller always knows which
// step failed.
const (
	stageCheckDuplicate = "check duplicate"
	stageExtractListing = "extract listing"
	stageAllocateID     = "allocate restaurant id"
	stageEnrich         = "enrich geography"
	stageScrapeReviews  = "scrape reviews"
	stagePersist        = "persist"
)

const defaultCategory = "Restaurant"

// ErrAlreadyIngested reports that the URL was persisted by an earlier run.
var ErrAlreadyIngested = errors.New("restaurant already ingested")

var (
	restaurantColumns = []string{"id_restaurant", "nom", "categorie", "tags", "price", "note_globale", "total_comments", "url", "summary"}
	geographyColumns  = []string{"id_localisation", "id_restaurant", "localisation", "latitude", "longitude", "restaurant_density", "transport_count"}
	reviewColumns     = []string{"id_avis", "id_restaurant", "nom_utilisateur", "note_restaurant", "date_avis", "titre_avis", "contenu_avis", "label"}
)

// IngestorDeps wires the driven adapters into the ingestion pipeline.
type IngestorDeps struct {
	Gateway   *storage.Gateway
	Allocator *storage.Allocator
	Source    ports.ListingSource
	Enricher  ports.GeoEnricher
	URLPrefix string
	URLSuffix string
	Logger    *slog.Logger
}

// Ingestor runs the scrape-enrich-persist pipeline for one restaurant URL.
// Runs must be serialized: identifier allocation reads max+1 without locking.
type Ingestor struct {
	gateway   *storage.Gateway
	allocator *storage.Allocator
	source    ports.ListingSource
	enricher  ports.GeoEnricher
	urlPrefix string
	urlSuffix string
	logger    *slog.Logger
}

// Report summarizes a completed ingestion run.
type Report struct {
	RestaurantID int64
	ReviewCount  int
}

// NewIngestor constructs the orchestration component.
func NewIngestor(deps IngestorDeps) *Ingestor {
	return &Ingestor{
		gateway:   deps.Gateway,
		allocator: deps.Allocator,
		source:    deps.Source,
		enricher:  deps.Enricher,
		urlPrefix: deps.URLPrefix,
		urlSuffix: deps.URLSuffix,
		logger:    deps.Logger,
	}
}

// ValidateURL rejects malformed listing URLs before any network call.
func (i *Ingestor) ValidateURL(rawURL string) error {
	if !strings.HasPrefix(rawURL, i.urlPrefix) || !strings.HasSuffix(rawURL, i.urlSuffix) {
		return fmt.Errorf("url must start with %q and end with %q", i.urlPrefix, i.urlSuffix)
	}
	return nil
}

// Ingest walks the pipeline for one URL: duplicate check, listing
// extraction, id allocation, geo enrichment, review pagination, then three
// ordered inserts under a single transaction. Either all three tables
// receive their rows and the transaction commits, or nothing persists.
// Re-invoking on the same URL is idempotent thanks to the duplicate check.
func (i *Ingestor) Ingest(ctx context.Context, pageURL string) (*Report, error) {
	if err := i.ValidateURL(pageURL); err != nil {
		return nil, err
	}

	rows, err := i.gateway.Select(ctx, "SELECT 1 FROM restaurants WHERE url = ? LIMIT 1", pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageCheckDuplicate, err)
	}
	if len(rows) > 0 {
		return nil, fmt.Errorf("%s: %w", stageCheckDuplicate, ErrAlreadyIngested)
	}

	listing, err := i.source.FetchListing(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageExtractListing, err)
	}
	if listing == nil {
		return nil, fmt.Errorf("%s: page yielded no listing", stageExtractListing)
	}

	restaurantID, err := i.allocator.NextID(ctx, "restaurants", "id_restaurant")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageAllocateID, err)
	}

	geography, err := i.enricher.Enrich(ctx, listing.Address, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageEnrich, err)
	}
	if geography == nil {
		// Geography is mandatory: a restaurant whose address cannot be
		// resolved is not persisted at all.
		return nil, fmt.Errorf("%s: no coordinates for %q", stageEnrich, listing.Address)
	}
	geography.ID, err = i.allocator.NextID(ctx, "geographie", "id_localisation")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageEnrich, err)
	}

	firstReviewID, err := i.allocator.NextID(ctx, "avis", "id_avis")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageScrapeReviews, err)
	}
	reviews, err := i.source.FetchReviews(ctx, pageURL, restaurantID, firstReviewID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", stageScrapeReviews, err)
	}
	if len(reviews) == 0 {
		return nil, fmt.Errorf("%s: no reviews collected", stageScrapeReviews)
	}

	if err := i.persist(ctx, pageURL, listing, restaurantID, geography, reviews); err != nil {
		if rbErr := i.gateway.Rollback(); rbErr != nil {
			i.logger.Error("rollback failed", "error", rbErr)
		}
		return nil, fmt.Errorf("%s: %w", stagePersist, err)
	}
	if err := i.gateway.Commit(); err != nil {
		return nil, fmt.Errorf("%s: %w", stagePersist, err)
	}

	i.logger.Info("restaurant ingested",
		"id", restaurantID,
		"name", listing.Name,
		"reviews", len(reviews))
	return &Report{RestaurantID: restaurantID, ReviewCount: len(reviews)}, nil
}

func (i *Ingestor) persist(ctx context.Context, pageURL string, listing *domain.Listing, restaurantID int64, geography *domain.Geography, reviews []domain.Review) error {
	restaurantRow := []any{
		restaurantID,
		listing.Name,
		defaultCategory,
		listing.Tags,
		listing.Price,
		listing.Rating,
		listing.ReviewCount,
		pageURL,
		nil,
	}
	if err := i.gateway.Insert(ctx, "restaurants", [][]any{restaurantRow}, restaurantColumns, true); err != nil {
		return fmt.Errorf("restaurants: %w", err)
	}

	geographyRow := []any{
		geography.ID,
		geography.RestaurantID,
		geography.Address,
		geography.Latitude,
		geography.Longitude,
		geography.RestaurantDensity,
		geography.TransportCount,
	}
	if err := i.gateway.Insert(ctx, "geographie", [][]any{geographyRow}, geographyColumns, true); err != nil {
		return fmt.Errorf("geographie: %w", err)
	}

	reviewRows := make([][]any, 0, len(reviews))
	for _, review := range reviews {
		reviewRows = append(reviewRows, []any{
			review.ID,
			review.RestaurantID,
			review.Author,
			review.Rating,
			review.Date.Format("2006-01-02"),
			review.Title,
			review.Body,
			nil,
		})
	}
	if err := i.gateway.Insert(ctx, "avis", reviewRows, reviewColumns, true); err != nil {
		return fmt.Errorf("avis: %w", err)
	}
	return nil
}
