package app

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"friands/internal/config"
	"friands/internal/geo"
	"friands/internal/logging"
	"friands/internal/nlp"
	"friands/internal/ports"
	"friands/internal/scrape"
	"friands/internal/storage"
	"friands/internal/usecase"
)

// Application wires configuration into the ingestion and backfill use cases.
type Application struct {
	cfg      config.Config
	gateway  *storage.Gateway
	ingestor *usecase.Ingestor
	backfill *usecase.Backfill
	logger   *slog.Logger
}

// New opens the database, initializes the schema, and builds the pipeline.
func New(ctx context.Context, cfg config.Config, baseLogger *slog.Logger) (*Application, error) {
	if baseLogger == nil {
		baseLogger = logging.New(cfg.Logging.Level)
	}

	gateway, err := storage.Open(ctx, cfg.Database.Path, baseLogger.With("component", "storage"))
	if err != nil {
		return nil, fmt.Errorf("open storage: %w", err)
	}
	if err := gateway.InitSchema(ctx); err != nil {
		gateway.Close()
		return nil, fmt.Errorf("init schema: %w", err)
	}

	source := scrape.NewSource(nil, scrape.Config{
		UserAgent: cfg.Scraper.UserAgent,
		PageLimit: cfg.Scraper.PageLimit,
		PageSize:  cfg.Scraper.PageSize,
		DelayMin:  time.Duration(cfg.Scraper.DelayMinSec) * time.Second,
		DelayMax:  time.Duration(cfg.Scraper.DelayMaxSec) * time.Second,
	}, baseLogger.With("component", "scraper"))

	geocoder := geo.NewGeocoder(cfg.Geo.NominatimURL, cfg.Geo.UserAgent, nil, baseLogger.With("component", "geocoder"))
	overpass := geo.NewOverpass(cfg.Geo.OverpassURL, nil, baseLogger.With("component", "overpass"))
	enricher := geo.NewEnricher(geocoder, overpass, cfg.Geo.RadiusMeters, baseLogger.With("component", "enricher"))

	ingestor := usecase.NewIngestor(usecase.IngestorDeps{
		Gateway:   gateway,
		Allocator: storage.NewAllocator(gateway),
		Source:    source,
		Enricher:  enricher,
		URLPrefix: cfg.Scraper.URLPrefix,
		URLSuffix: cfg.Scraper.URLSuffix,
		Logger:    baseLogger.With("component", "ingest"),
	})

	var classifier ports.SentimentClassifier
	if cfg.Sentiment.InferenceURL != "" {
		classifier = nlp.NewSentimentClient(cfg.Sentiment.InferenceURL, cfg.Sentiment.APIKey)
	}
	var summarizer ports.Summarizer
	if cfg.Mistral.APIKey != "" {
		summarizer = nlp.NewMistralClient(cfg.Mistral)
	}

	backfill := usecase.NewBackfill(usecase.BackfillDeps{
		Gateway:    gateway,
		Classifier: classifier,
		Summarizer: summarizer,
		Logger:     baseLogger.With("component", "backfill"),
	})

	return &Application{
		cfg:      cfg,
		gateway:  gateway,
		ingestor: ingestor,
		backfill: backfill,
		logger:   baseLogger,
	}, nil
}

// Ingest runs the full pipeline for one listing URL.
func (a *Application) Ingest(ctx context.Context, url string) error {
	report, err := a.ingestor.Ingest(ctx, url)
	if err != nil {
		return err
	}
	a.logger.Info("ingestion done", "restaurant_id", report.RestaurantID, "reviews", report.ReviewCount)
	return nil
}

// LabelReviews backfills sentiment labels for reviews still lacking one.
func (a *Application) LabelReviews(ctx context.Context) error {
	_, err := a.backfill.LabelReviews(ctx)
	return err
}

// SummarizeRestaurants backfills generated summaries for restaurants still
// lacking one.
func (a *Application) SummarizeRestaurants(ctx context.Context) error {
	_, err := a.backfill.SummarizeRestaurants(ctx)
	return err
}

// Close releases the storage connection; uncommitted work is discarded.
func (a *Application) Close() error {
	return a.gateway.Close()
}
