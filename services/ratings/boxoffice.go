package ratings

import (
	"context"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// BoxOfficeMojoURL builds the Box Office Mojo page URL for an IMDb id.
// No network round trip is needed; Mojo keys its title pages by IMDb id.
func BoxOfficeMojoURL(imdbID string) string {
	if imdbID == "" {
		return ""
	}
	return boxOfficeMojoTitleURL + imdbID + "/"
}

// BoxOfficeAmounts returns every currency amount shown on the title's Box
// Office Mojo page, verbatim and in page order. Nil when the identity is
// unresolvable or the page cannot be fetched.
func (s *Scraper) BoxOfficeAmounts(ctx context.Context, imdbID string) []string {
	if imdbID == "" {
		return nil
	}
	doc := s.fetchDocument(ctx, BoxOfficeMojoURL(imdbID))
	if doc == nil {
		return nil
	}

	var amounts []string
	doc.Find("span.a-size-medium.a-text-bold").Each(func(_ int, span *goquery.Selection) {
		amounts = append(amounts, strings.TrimSpace(span.Text()))
	})
	return amounts
}
