package ratings

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// LetterboxdURL resolves the Letterboxd film page for a movie. Letterboxd
// search results have no year attribute to range-compare, so the scan tries
// the exact year first and then ±1 across all results.
func (s *Scraper) LetterboxdURL(ctx context.Context, title, year string) string {
	searchURL := letterboxdSearchURL + strings.ReplaceAll(title, " ", "+") + "/"
	doc := s.fetchDocument(ctx, searchURL)
	if doc == nil {
		return ""
	}

	wantYear, err := strconv.Atoi(year)
	if err != nil {
		return ""
	}
	results := doc.Find("span.film-title-wrapper")

	var resolved string
	for _, checkYear := range []int{wantYear, wantYear - 1, wantYear + 1} {
		want := strconv.Itoa(checkYear)
		results.EachWithBreak(func(_ int, result *goquery.Selection) bool {
			if strings.TrimSpace(result.Find("small.metadata").First().Text()) != want {
				return true
			}
			if href, ok := result.Find("a").First().Attr("href"); ok {
				resolved = "https://letterboxd.com" + href
				return false
			}
			return true
		})
		if resolved != "" {
			break
		}
	}
	return resolved
}

// LetterboxdRating extracts the average user rating from a film page's
// twitter:data2 meta tag ("3.85 out of 5"), rounded to one decimal place.
func (s *Scraper) LetterboxdRating(ctx context.Context, pageURL string) *float64 {
	if pageURL == "" {
		return nil
	}
	doc := s.fetchDocument(ctx, pageURL)
	if doc == nil {
		return nil
	}

	content, ok := doc.Find(`meta[name="twitter:data2"]`).First().Attr("content")
	if !ok {
		return nil
	}
	if len(content) > 5 {
		content = content[:5]
	}
	rating, err := strconv.ParseFloat(strings.TrimSpace(content), 64)
	if err != nil {
		return nil
	}
	rounded := math.Round(rating*10) / 10
	return &rounded
}
