package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"friands/internal/domain"
	"friands/internal/ports"
	"friands/internal/storage"
)

const defaultSummaryMonths = 18

// BackfillDeps wires the enrichment collaborators for already-persisted rows.
type BackfillDeps struct {
	Gateway       *storage.Gateway
	Classifier    ports.SentimentClassifier
	Summarizer    ports.Summarizer
	Workers       int
	SummaryMonths int
	Logger        *slog.Logger
}

// Backfill runs the post-ingestion enrichment batches: sentiment labels for
// reviews and generated summaries for restaurants. Rows with a still-null
// label or summary are the work queue, so a re-run picks up whatever a
// previous batch missed.
type Backfill struct {
	gateway       *storage.Gateway
	classifier    ports.SentimentClassifier
	summarizer    ports.Summarizer
	workers       int
	summaryMonths int
	logger        *slog.Logger
}

// NewBackfill constructs the batch component; the worker pool defaults to
// the CPU count.
func NewBackfill(deps BackfillDeps) *Backfill {
	workers := deps.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	months := deps.SummaryMonths
	if months <= 0 {
		months = defaultSummaryMonths
	}
	return &Backfill{
		gateway:       deps.Gateway,
		classifier:    deps.Classifier,
		summarizer:    deps.Summarizer,
		workers:       workers,
		summaryMonths: months,
		logger:        deps.Logger,
	}
}

// LabelReviews classifies every review whose label is still null, fanning
// the service calls out over the worker pool, then writes each label back as
// its own committed update. The first failure rolls back the pending row and
// stops the batch; labels committed before it stay.
func (b *Backfill) LabelReviews(ctx context.Context) (int, error) {
	if b.classifier == nil {
		return 0, fmt.Errorf("no sentiment classifier configured")
	}

	rows, err := b.gateway.Select(ctx, "SELECT id_avis, contenu_avis FROM avis WHERE label IS NULL")
	if err != nil {
		return 0, fmt.Errorf("load unlabeled reviews: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	type task struct {
		id   int64
		body string
	}
	type outcome struct {
		id    int64
		label int
		err   error
	}

	tasks := make([]task, 0, len(rows))
	for _, row := range rows {
		id, _ := row[0].(int64)
		body, _ := row[1].(string)
		tasks = append(tasks, task{id: id, body: body})
	}

	results := make([]outcome, len(tasks))
	var wg sync.WaitGroup
	semaphore := make(chan struct{}, b.workers)
	for idx, tk := range tasks {
		wg.Add(1)
		semaphore <- struct{}{}
		go func(idx int, tk task) {
			defer wg.Done()
			defer func() { <-semaphore }()
			label, err := b.classifier.Classify(ctx, tk.body)
			results[idx] = outcome{id: tk.id, label: label, err: err}
		}(idx, tk)
	}
	wg.Wait()

	updated := 0
	for _, res := range results {
		if res.err != nil {
			return updated, fmt.Errorf("classify review %d: %w", res.id, res.err)
		}

		_, err := b.gateway.Update(ctx, "avis",
			map[string]any{"label": res.label},
			[]storage.Cond{{Column: "id_avis", Value: res.id}})
		if err == nil {
			err = b.gateway.Commit()
		}
		if err != nil {
			if rbErr := b.gateway.Rollback(); rbErr != nil {
				b.logger.Error("rollback failed", "error", rbErr)
			}
			return updated, fmt.Errorf("update review %d: %w", res.id, err)
		}
		updated++
	}

	b.logger.Info("sentiment labels written", "count", updated)
	return updated, nil
}

// SummarizeRestaurants generates a summary for every restaurant that still
// lacks one, from its reviews of the last summaryMonths months, committing
// each restaurant independently.
func (b *Backfill) SummarizeRestaurants(ctx context.Context) (int, error) {
	if b.summarizer == nil {
		return 0, fmt.Errorf("no summarizer configured")
	}

	rows, err := b.gateway.Select(ctx, "SELECT id_restaurant, nom FROM restaurants WHERE summary IS NULL")
	if err != nil {
		return 0, fmt.Errorf("load restaurants without summary: %w", err)
	}

	cutoff := time.Now().AddDate(0, -b.summaryMonths, 0).Format("2006-01-02")
	updated := 0
	for _, row := range rows {
		id, _ := row[0].(int64)
		name, _ := row[1].(string)

		reviews, err := b.recentReviews(ctx, id, cutoff)
		if err != nil {
			return updated, err
		}
		if len(reviews) == 0 {
			b.logger.Debug("no recent reviews to summarize", "restaurant_id", id)
			continue
		}

		summary, err := b.summarizer.Summarize(ctx, name, reviews)
		if err != nil {
			return updated, fmt.Errorf("summarize restaurant %d: %w", id, err)
		}

		_, err = b.gateway.Update(ctx, "restaurants",
			map[string]any{"summary": summary},
			[]storage.Cond{{Column: "id_restaurant", Value: id}})
		if err == nil {
			err = b.gateway.Commit()
		}
		if err != nil {
			if rbErr := b.gateway.Rollback(); rbErr != nil {
				b.logger.Error("rollback failed", "error", rbErr)
			}
			return updated, fmt.Errorf("update restaurant %d: %w", id, err)
		}
		updated++
	}

	b.logger.Info("summaries written", "count", updated)
	return updated, nil
}

func (b *Backfill) recentReviews(ctx context.Context, restaurantID int64, cutoff string) ([]domain.Review, error) {
	rows, err := b.gateway.Select(ctx,
		"SELECT note_restaurant, date_avis, titre_avis, contenu_avis FROM avis WHERE id_restaurant = ? AND date_avis >= ?",
		restaurantID, cutoff)
	if err != nil {
		return nil, fmt.Errorf("load reviews for restaurant %d: %w", restaurantID, err)
	}

	reviews := make([]domain.Review, 0, len(rows))
	for _, row := range rows {
		review := domain.Review{RestaurantID: restaurantID}
		if v, ok := row[0].(float64); ok {
			review.Rating = v
		}
		if v, ok := row[1].(string); ok {
			if date, err := time.Parse("2006-01-02", v); err == nil {
				review.Date = date
			}
		}
		if v, ok := row[2].(string); ok {
			review.Title = v
		}
		if v, ok := row[3].(string); ok {
			review.Body = v
		}
		reviews = append(reviews, review)
	}
	return reviews, nil
}
