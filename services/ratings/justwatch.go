package ratings

import "context"

// JustWatchPage extracts the US landing-page link from a title's TMDB
// watch-provider page. Empty string when no provider URL was supplied or
// the link is absent.
func (s *Scraper) JustWatchPage(ctx context.Context, providerURL string) string {
	if providerURL == "" {
		return ""
	}
	doc := s.fetchDocument(ctx, providerURL)
	if doc == nil {
		return ""
	}

	href, _ := doc.Find("div.homepage").First().Find("a").First().Attr("href")
	return href
}
