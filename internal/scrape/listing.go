package scrape

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"friands/internal/domain"
)

const (
	namePlaceholder = "Nom non trouvé"
	// Last-resort address when neither structural location carries one.
	fallbackAddress = "44 Rue Saint-Jean, 69005 Lyon France"
)

var (
	priceExpr    = regexp.MustCompile(`[€$£]+(?:\s*-\s*[€$£]+)?`)
	firstInteger = regexp.MustCompile(`\d+`)
	decimalComma = strings.NewReplacer(",", ".")
)

// addressStrategies are tried in order; the first non-empty result wins.
var addressStrategies = []func(*goquery.Document) string{
	func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("div.OFtgC").First().Text())
	},
	func(doc *goquery.Document) string {
		return strings.TrimSpace(doc.Find("span.yEWoV").First().Text())
	},
	func(*goquery.Document) string {
		return fallbackAddress
	},
}

// ExtractListing pulls restaurant-level fields out of a listing page.
// Extraction is best-effort per field: a missing marker degrades that field
// to a placeholder or zero value. Only a page with no identity markers at
// all yields nil.
func ExtractListing(doc *goquery.Document) *domain.Listing {
	listing := &domain.Listing{Name: namePlaceholder}

	if name := strings.TrimSpace(doc.Find("h1.rRtyp").First().Text()); name != "" {
		listing.Name = name
	}

	for _, strategy := range addressStrategies {
		if addr := strategy(doc); addr != "" {
			listing.Address = addr
			break
		}
	}

	// The tag line mixes cuisine labels with a currency-symbol price range;
	// the price is carved out first and the rest becomes the tags.
	tagsText := strings.TrimSpace(doc.Find("span.VdWAl, span.HUMGB.cPbcf").First().Text())
	if price := priceExpr.FindString(tagsText); price != "" {
		listing.Price = price
		tagsText = strings.TrimSpace(strings.Replace(tagsText, price, "", 1))
	}
	listing.Tags = strings.Trim(tagsText, ", ")

	if raw := strings.TrimSpace(doc.Find("div.biGQs._P.fiohW.hzzSG.uuBRH").First().Text()); raw != "" {
		if rating, err := strconv.ParseFloat(decimalComma.Replace(raw), 64); err == nil {
			listing.Rating = rating
		}
	}

	if raw := strings.TrimSpace(doc.Find("span.GPKsO").First().Text()); raw != "" {
		if m := firstInteger.FindString(raw); m != "" {
			listing.ReviewCount, _ = strconv.Atoi(m)
		}
	}

	if listing.Name == namePlaceholder && listing.Rating == 0 && listing.ReviewCount == 0 {
		return nil
	}
	return listing
}
