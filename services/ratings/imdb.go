package ratings

import (
	"context"
	"strings"
)

// IMDBRating extracts the average user rating ("8.8") from a title page's
// hero rating bar. Empty string when the id is missing or the node absent.
func (s *Scraper) IMDBRating(ctx context.Context, imdbID string) string {
	if imdbID == "" {
		return ""
	}
	doc := s.fetchDocument(ctx, imdbTitleURL+imdbID)
	if doc == nil {
		return ""
	}

	// Rendered as "8.8/10"; strip the denominator.
	rating := strings.TrimSpace(doc.Find(`div[data-testid="hero-rating-bar__aggregate-rating__score"]`).First().Text())
	if rating == "" {
		return ""
	}
	return strings.TrimSuffix(rating, "/10")
}
