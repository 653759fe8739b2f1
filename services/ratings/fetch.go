package ratings

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/PuerkitoBio/goquery"
)

// Rating-source endpoints. Search URLs get the query appended verbatim
// (spaces pre-encoded per site convention).
const (
	rottenTomatoesSearchURL = "https://www.rottentomatoes.com/search?search="
	letterboxdSearchURL     = "https://letterboxd.com/s/search/"
	commonSenseSearchURL    = "https://www.commonsensemedia.org/search/"
	imdbTitleURL            = "https://www.imdb.com/title/"
	boxOfficeMojoTitleURL   = "https://www.boxofficemojo.com/title/"
)

// Browser-like headers; several of the scraped sites serve bot traffic a
// different (or empty) page without them.
var scrapeHeaders = map[string]string{
	"User-Agent":      "Mozilla/5.0 (X11; Linux x86_64; rv:12.0) Gecko/20100101 Firefox/12.0",
	"Accept-Language": "en-US",
	"Accept":          "text/html",
	"Referer":         "https://www.google.com",
}

// Scraper owns the HTTP client shared by every rating-source fetch. Every
// method on it fails soft: transport errors, bad statuses and unparseable
// pages all come back as the zero value, logged but never propagated. A
// broken rating site must never take down an aggregation.
type Scraper struct {
	httpc *http.Client
}

func NewScraper(httpc *http.Client) *Scraper {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Scraper{httpc: httpc}
}

// fetchDocument GETs url and parses the response body with goquery.
// Returns nil on any failure.
func (s *Scraper) fetchDocument(ctx context.Context, url string) *goquery.Document {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		log.Printf("[ratings] bad request url %s: %v", url, err)
		return nil
	}
	for k, v := range scrapeHeaders {
		req.Header.Set(k, v)
	}

	resp, err := s.httpc.Do(req)
	if err != nil {
		log.Printf("[ratings] request failed %s: %v", url, err)
		return nil
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("[ratings] request failed %s: %s", url, resp.Status)
		return nil
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		log.Printf("[ratings] parse failed %s: %v", url, err)
		return nil
	}
	return doc
}
