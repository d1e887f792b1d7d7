package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"friands/internal/domain"
	"friands/internal/storage"
)

type fakeClassifier struct {
	label int
	// failOn makes Classify fail for any text containing the substring.
	failOn string
}

func (f *fakeClassifier) Classify(_ context.Context, text string) (int, error) {
	if f.failOn != "" && strings.Contains(text, f.failOn) {
		return 0, errors.New("classifier unavailable")
	}
	return f.label, nil
}

type fakeSummarizer struct {
	summary string
	fail    bool
	seen    []string
}

func (f *fakeSummarizer) Summarize(_ context.Context, restaurant string, _ []domain.Review) (string, error) {
	f.seen = append(f.seen, restaurant)
	if f.fail {
		return "", errors.New("summarizer unavailable")
	}
	return f.summary, nil
}

func testBackfill(t *testing.T, deps BackfillDeps) (*Backfill, *storage.Gateway) {
	t.Helper()

	gw, err := storage.Open(context.Background(), filepath.Join(t.TempDir(), "friands.db"), nil)
	if err != nil {
		t.Fatalf("open gateway: %v", err)
	}
	t.Cleanup(func() { _ = gw.Close() })
	if err := gw.InitSchema(context.Background()); err != nil {
		t.Fatalf("init schema: %v", err)
	}

	deps.Gateway = gw
	deps.Workers = 2
	deps.Logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewBackfill(deps), gw
}

func seedRestaurant(t *testing.T, gw *storage.Gateway, id int64, name string) {
	t.Helper()
	row := []any{id, name, "Restaurant", "", "€€", 4.0, 3, "https://example/r.html", nil}
	if err := gw.Insert(context.Background(), "restaurants", [][]any{row}, nil, false); err != nil {
		t.Fatalf("seed restaurant: %v", err)
	}
	if err := gw.Commit(); err != nil {
		t.Fatalf("commit seed: %v", err)
	}
}

func seedReview(t *testing.T, gw *storage.Gateway, id, restaurantID int64, date, body string) {
	t.Helper()
	row := []any{id, restaurantID, "Testeur", 4.0, date, "Titre", body, nil}
	if err := gw.Insert(context.Background(), "avis", [][]any{row}, nil, false); err != nil {
		t.Fatalf("seed review: %v", err)
	}
	if err := gw.Commit(); err != nil {
		t.Fatalf("commit seed: %v", err)
	}
}

func TestLabelReviews(t *testing.T) {
	t.Parallel()

	backfill, gw := testBackfill(t, BackfillDeps{Classifier: &fakeClassifier{label: 4}})
	seedRestaurant(t, gw, 1, "Chez Test")
	seedReview(t, gw, 1, 1, "2025-03-01", "Service rapide.")
	seedReview(t, gw, 2, 1, "2025-03-02", "Plats copieux.")

	updated, err := backfill.LabelReviews(context.Background())
	if err != nil {
		t.Fatalf("LabelReviews error: %v", err)
	}
	if updated != 2 {
		t.Fatalf("expected 2 labeled reviews, got %d", updated)
	}

	rows, err := gw.Select(context.Background(), "SELECT COUNT(*) FROM avis WHERE label = 4")
	if err != nil {
		t.Fatalf("count labels: %v", err)
	}
	if rows[0][0].(int64) != 2 {
		t.Fatalf("expected 2 rows with label 4, got %v", rows[0][0])
	}

	// A second run finds nothing left to label.
	updated, err = backfill.LabelReviews(context.Background())
	if err != nil {
		t.Fatalf("second LabelReviews error: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected 0 on a clean table, got %d", updated)
	}
}

func TestLabelReviewsPartialFailure(t *testing.T) {
	t.Parallel()

	backfill, gw := testBackfill(t, BackfillDeps{
		Classifier: &fakeClassifier{label: 5, failOn: "immangeable"},
	})
	seedRestaurant(t, gw, 1, "Chez Test")
	seedReview(t, gw, 1, 1, "2025-03-01", "Service rapide.")
	seedReview(t, gw, 2, 1, "2025-03-02", "Plats copieux.")
	seedReview(t, gw, 3, 1, "2025-03-03", "Tout était immangeable.")

	updated, err := backfill.LabelReviews(context.Background())
	if err == nil {
		t.Fatal("expected classification error")
	}
	if updated != 2 {
		t.Fatalf("expected 2 committed labels before the failure, got %d", updated)
	}

	rows, selErr := gw.Select(context.Background(), "SELECT COUNT(*) FROM avis WHERE label IS NULL")
	if selErr != nil {
		t.Fatalf("count remaining: %v", selErr)
	}
	if rows[0][0].(int64) != 1 {
		t.Fatalf("expected 1 review left unlabeled, got %v", rows[0][0])
	}
}

func TestLabelReviewsWithoutClassifier(t *testing.T) {
	t.Parallel()

	backfill, _ := testBackfill(t, BackfillDeps{})
	if _, err := backfill.LabelReviews(context.Background()); err == nil {
		t.Fatal("expected error without a classifier")
	}
}

func TestSummarizeRestaurants(t *testing.T) {
	t.Parallel()

	summarizer := &fakeSummarizer{summary: "Un bistro apprécié pour son service."}
	backfill, gw := testBackfill(t, BackfillDeps{Summarizer: summarizer})
	seedRestaurant(t, gw, 1, "Chez Test")
	seedReview(t, gw, 1, 1, time.Now().AddDate(0, -2, 0).Format("2006-01-02"), "Service rapide.")

	updated, err := backfill.SummarizeRestaurants(context.Background())
	if err != nil {
		t.Fatalf("SummarizeRestaurants error: %v", err)
	}
	if updated != 1 {
		t.Fatalf("expected 1 summary, got %d", updated)
	}
	if len(summarizer.seen) != 1 || summarizer.seen[0] != "Chez Test" {
		t.Fatalf("summarizer called with %v", summarizer.seen)
	}

	rows, err := gw.Select(context.Background(), "SELECT summary FROM restaurants WHERE id_restaurant = 1")
	if err != nil {
		t.Fatalf("select summary: %v", err)
	}
	if rows[0][0].(string) != summarizer.summary {
		t.Fatalf("unexpected summary: %v", rows[0][0])
	}
}

func TestSummarizeSkipsStaleReviews(t *testing.T) {
	t.Parallel()

	summarizer := &fakeSummarizer{summary: "ne devrait pas apparaître"}
	backfill, gw := testBackfill(t, BackfillDeps{Summarizer: summarizer, SummaryMonths: 18})
	seedRestaurant(t, gw, 1, "Chez Oubli")
	// A review older than the window leaves nothing to summarize.
	seedReview(t, gw, 1, 1, time.Now().AddDate(0, -24, 0).Format("2006-01-02"), "Vieux souvenir.")

	updated, err := backfill.SummarizeRestaurants(context.Background())
	if err != nil {
		t.Fatalf("SummarizeRestaurants error: %v", err)
	}
	if updated != 0 {
		t.Fatalf("expected no summary, got %d", updated)
	}
	if len(summarizer.seen) != 0 {
		t.Fatalf("summarizer should not have been called, saw %v", summarizer.seen)
	}
}

func TestSummarizeRestaurantsFailure(t *testing.T) {
	t.Parallel()

	backfill, gw := testBackfill(t, BackfillDeps{Summarizer: &fakeSummarizer{fail: true}})
	seedRestaurant(t, gw, 1, "Chez Panne")
	seedReview(t, gw, 1, 1, time.Now().AddDate(0, -1, 0).Format("2006-01-02"), "Bien.")

	updated, err := backfill.SummarizeRestaurants(context.Background())
	if err == nil {
		t.Fatal("expected summarizer error")
	}
	if updated != 0 {
		t.Fatalf("expected 0 committed summaries, got %d", updated)
	}

	rows, selErr := gw.Select(context.Background(), "SELECT COUNT(*) FROM restaurants WHERE summary IS NULL")
	if selErr != nil {
		t.Fatalf("count: %v", selErr)
	}
	if rows[0][0].(int64) != 1 {
		t.Fatalf("summary should still be null, got %v", rows[0][0])
	}
}
