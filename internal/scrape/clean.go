package scrape

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	quoteMarks = regexp.MustCompile(`["'”“‘’]`)
	symbols    = regexp.MustCompile(`[^\p{L}\p{N}\s,.\-]`)
	spaceRuns  = regexp.MustCompile(`\s+`)
)

// CleanText normalizes scraped review text: quote marks disappear, anything
// outside letters, digits, whitespace and basic punctuation is stripped
// (which removes emoji), runs of whitespace collapse to a single space, and
// the result is trimmed. Applying it twice yields the same output as once.
func CleanText(text string) string {
	text = quoteMarks.ReplaceAllString(text, "")
	text = symbols.ReplaceAllString(text, "")
	text = spaceRuns.ReplaceAllString(text, " ")
	return strings.TrimSpace(text)
}

const writtenOnPrefix = "Rédigé le "

var frenchMonths = map[string]time.Month{
	"janvier":   time.January,
	"février":   time.February,
	"mars":      time.March,
	"avril":     time.April,
	"mai":       time.May,
	"juin":      time.June,
	"juillet":   time.July,
	"août":      time.August,
	"septembre": time.September,
	"octobre":   time.October,
	"novembre":  time.November,
	"décembre":  time.December,
}

// ParseReviewDate parses localized review dates of the form
// "Rédigé le 12 janvier 2024"; the prefix is optional.
func ParseReviewDate(text string) (time.Time, error) {
	text = strings.TrimSpace(text)
	text = strings.TrimSpace(strings.TrimPrefix(text, writtenOnPrefix))

	parts := strings.Fields(text)
	if len(parts) != 3 {
		return time.Time{}, fmt.Errorf("unexpected date %q", text)
	}

	day, err := strconv.Atoi(parts[0])
	if err != nil {
		return time.Time{}, fmt.Errorf("day in %q: %w", text, err)
	}
	month, ok := frenchMonths[strings.ToLower(parts[1])]
	if !ok {
		return time.Time{}, fmt.Errorf("unknown month in %q", text)
	}
	year, err := strconv.Atoi(parts[2])
	if err != nil {
		return time.Time{}, fmt.Errorf("year in %q: %w", text, err)
	}

	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC), nil
}
