package scrape

import (
	"testing"
	"time"
)

const reviewContainer = `
<div class="_c">
  <span class="biGQs _P fiohW fOtGX">Claire D</span>
  <svg class="UctUV"><title>5,0 sur 5 bulles</title></svg>
  <div class="biGQs _P pZUbB ncFvv osNWb">Rédigé le 3 février 2025</div>
  <div class="biGQs _P fiohW qWPrE ncFvv fOtGX">Très bon moment</div>
  <span class="JguWG">Un accueil   chaleureux “exceptionnel” 😍 et des plats copieux.</span>
</div>`

func TestExtractReviews(t *testing.T) {
	t.Parallel()

	reviews := ExtractReviews(mustDocument(t, reviewContainer))
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}

	review := reviews[0]
	if review.Author != "Claire D" {
		t.Fatalf("unexpected author: %s", review.Author)
	}
	if review.Rating != 5.0 {
		t.Fatalf("unexpected rating: %f", review.Rating)
	}
	wantDate := time.Date(2025, time.February, 3, 0, 0, 0, 0, time.UTC)
	if !review.Date.Equal(wantDate) {
		t.Fatalf("unexpected date: %v", review.Date)
	}
	if review.Title != "Très bon moment" {
		t.Fatalf("unexpected title: %s", review.Title)
	}
	want := "Un accueil chaleureux exceptionnel et des plats copieux."
	if review.Body != want {
		t.Fatalf("unexpected body: %q", review.Body)
	}
}

func TestExtractReviewsDefaults(t *testing.T) {
	t.Parallel()

	// A container missing every marker still yields a review with
	// placeholders rather than being dropped.
	reviews := ExtractReviews(mustDocument(t, `<div class="_c"><p>rien</p></div>`))
	if len(reviews) != 1 {
		t.Fatalf("expected 1 review, got %d", len(reviews))
	}

	review := reviews[0]
	if review.Author != anonymousAuthor {
		t.Fatalf("unexpected author: %s", review.Author)
	}
	if review.Title != missingTitle {
		t.Fatalf("unexpected title: %s", review.Title)
	}
	if review.Body != missingBody {
		t.Fatalf("unexpected body: %s", review.Body)
	}
	if review.Rating != 0 {
		t.Fatalf("unexpected rating: %f", review.Rating)
	}
}

func TestExtractReviewsEmptyPage(t *testing.T) {
	t.Parallel()

	if reviews := ExtractReviews(mustDocument(t, `<p>plus d'avis</p>`)); len(reviews) != 0 {
		t.Fatalf("expected no reviews, got %d", len(reviews))
	}
}
