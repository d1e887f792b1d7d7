package scrape

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"friands/internal/domain"
)

const (
	anonymousAuthor = "Anonyme"
	missingTitle    = "Titre non disponible"
	missingBody     = "Contenu non disponible"
)

// ExtractReviews collects every review container on one page of the review
// listing. Missing markers inside a container fall back to placeholders;
// title and body go through the cleaning pass.
func ExtractReviews(doc *goquery.Document) []domain.Review {
	var reviews []domain.Review

	doc.Find("div._c").Each(func(_ int, container *goquery.Selection) {
		review := domain.Review{
			Author: anonymousAuthor,
			Title:  missingTitle,
			Body:   missingBody,
		}

		if author := strings.TrimSpace(container.Find("span.biGQs._P.fiohW.fOtGX").First().Text()); author != "" {
			review.Author = author
		}

		// The rating lives in the accessible title of the bubble svg,
		// e.g. "4,0 sur 5 bulles".
		if title := container.Find("svg.UctUV title").First(); title.Length() > 0 {
			fields := strings.Fields(strings.TrimSpace(title.Text()))
			if len(fields) > 0 {
				if rating, err := strconv.ParseFloat(decimalComma.Replace(fields[0]), 64); err == nil {
					review.Rating = rating
				}
			}
		}

		if raw := strings.TrimSpace(container.Find("div.biGQs._P.pZUbB.ncFvv.osNWb").First().Text()); raw != "" {
			if date, err := ParseReviewDate(raw); err == nil {
				review.Date = date
			}
		}

		if title := strings.TrimSpace(container.Find("div.biGQs._P.fiohW.qWPrE.ncFvv.fOtGX").First().Text()); title != "" {
			review.Title = CleanText(title)
		}
		if body := strings.TrimSpace(container.Find("span.JguWG").First().Text()); body != "" {
			review.Body = CleanText(body)
		}

		reviews = append(reviews, review)
	})

	return reviews
}
