package scrape

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"

	"friands/internal/domain"
	"friands/internal/ports"
)

// Config bounds the pagination and the politeness delays of a Source.
type Config struct {
	UserAgent string
	PageLimit int
	PageSize  int
	DelayMin  time.Duration
	DelayMax  time.Duration
}

// Source fetches listing and review pages from the review site, pausing a
// randomized interval before each request to stay under anti-scraping
// thresholds. It is synchronous: every fetch blocks the caller.
type Source struct {
	client    *http.Client
	userAgent string
	pageLimit int
	pageSize  int
	delayMin  time.Duration
	delayMax  time.Duration
	logger    *slog.Logger
}

var _ ports.ListingSource = (*Source)(nil)

// NewSource wires an HTTP client; pageLimit defaults to 5 pages of 15 reviews.
func NewSource(client *http.Client, cfg Config, logger *slog.Logger) *Source {
	if client == nil {
		client = &http.Client{Timeout: 20 * time.Second}
	}
	if cfg.PageLimit <= 0 {
		cfg.PageLimit = 5
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 15
	}
	return &Source{
		client:    client,
		userAgent: cfg.UserAgent,
		pageLimit: cfg.PageLimit,
		pageSize:  cfg.PageSize,
		delayMin:  cfg.DelayMin,
		delayMax:  cfg.DelayMax,
		logger:    logger,
	}
}

// FetchListing downloads the restaurant page and extracts its fields. Unlike
// review pagination, a failure here is fatal for the run.
func (s *Source) FetchListing(ctx context.Context, pageURL string) (*domain.Listing, error) {
	s.pause()

	doc, err := s.fetchDocument(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	listing := ExtractListing(doc)
	if listing == nil {
		return nil, fmt.Errorf("page %s carries no listing markers", pageURL)
	}
	return listing, nil
}

// FetchReviews pages through the review listing, assigning identifiers from
// firstReviewID onward. Pagination ends at the page limit, on a non-200
// page, or on a page without review containers; whatever was accumulated is
// returned.
func (s *Source) FetchReviews(ctx context.Context, baseURL string, restaurantID, firstReviewID int64) ([]domain.Review, error) {
	var collected []domain.Review
	nextID := firstReviewID

	for page := 0; page < s.pageLimit; page++ {
		pageURL := reviewPageURL(baseURL, page*s.pageSize)
		s.debug("fetch review page", "url", pageURL, "page", page+1)

		doc, err := s.fetchDocument(ctx, pageURL)
		if err != nil {
			s.debug("review pagination stopped", "url", pageURL, "error", err)
			break
		}

		pageReviews := ExtractReviews(doc)
		if len(pageReviews) == 0 {
			break
		}

		for i := range pageReviews {
			pageReviews[i].ID = nextID
			pageReviews[i].RestaurantID = restaurantID
			nextID++
		}
		collected = append(collected, pageReviews...)

		s.pause()
	}

	return collected, nil
}

func (s *Source) fetchDocument(ctx context.Context, pageURL string) (*goquery.Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9,fr;q=0.8")
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request document: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%s returned %s", pageURL, resp.Status)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse document: %w", err)
	}
	return doc, nil
}

// pause blocks for a random interval between delayMin and delayMax. A zero
// delayMax disables the pause.
func (s *Source) pause() {
	if s.delayMax <= 0 {
		return
	}
	delay := s.delayMin
	if span := s.delayMax - s.delayMin; span > 0 {
		delay += time.Duration(rand.Int63n(int64(span)))
	}
	time.Sleep(delay)
}

// reviewPageURL appends the review offset the way the site paginates.
func reviewPageURL(base string, offset int) string {
	if offset == 0 {
		return base
	}
	return fmt.Sprintf("%s-or%d", base, offset)
}

func (s *Source) debug(msg string, args ...any) {
	if s.logger != nil {
		s.logger.Debug(msg, args...)
	}
}
