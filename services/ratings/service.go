package ratings

import (
	"context"
	"log"

	"github.com/sourcegraph/conc"

	"reelratings/models"
)

// Service aggregates every rating source for one title into a single
// ExternalData bundle. The fan-out is structured so that independent
// fetches never wait on each other: each source runs in its own subtask,
// and the two resolve-then-fetch sources (RottenTomatoes, Letterboxd) chain
// their second phase inside their own subtask. Wall-clock cost is the
// slowest source, not the sum.
type Service struct {
	scraper *Scraper
}

func NewService(scraper *Scraper) *Service {
	return &Service{scraper: scraper}
}

// Query identifies the title the sources are asked about. All fields come
// from the already-resolved catalog details.
type Query struct {
	IMDBID       string
	Title        string
	Year         string
	MediaType    string
	JustWatchURL string
}

// MovieData fans out to every movie-applicable source and joins the results.
// It never fails: a total outage of every source still yields a fully-shaped
// bundle with nil fields.
func (s *Service) MovieData(ctx context.Context, q Query) models.ExternalData {
	ext := models.ExternalData{
		BoxOfficeMojoURL: optional(BoxOfficeMojoURL(q.IMDBID)),
	}

	var wg conc.WaitGroup
	wg.Go(func() {
		ext.IMDBRating = optional(s.scraper.IMDBRating(ctx, q.IMDBID))
	})
	wg.Go(func() {
		// Two-phase: the scores fetch depends on our own URL resolution,
		// nothing else waits on either.
		url := s.scraper.RottenTomatoesURL(ctx, q.Title, q.Year, q.MediaType)
		ext.RottenTomatoesURL = optional(url)
		ext.RottenTomatoesScores = s.scraper.RottenTomatoesScores(ctx, url)
	})
	wg.Go(func() {
		url := s.scraper.LetterboxdURL(ctx, q.Title, q.Year)
		ext.LetterboxdURL = optional(url)
		ext.LetterboxdRating = s.scraper.LetterboxdRating(ctx, url)
	})
	wg.Go(func() {
		ext.CommonSenseInfo = s.scraper.CommonSenseInfo(ctx, q.Title, q.Year, q.MediaType)
	})
	wg.Go(func() {
		ext.BoxOfficeAmounts = s.scraper.BoxOfficeAmounts(ctx, q.IMDBID)
	})
	wg.Go(func() {
		ext.JustWatchPage = optional(s.scraper.JustWatchPage(ctx, q.JustWatchURL))
	})
	if recovered := wg.WaitAndRecover(); recovered != nil {
		log.Printf("[ratings] recovered panic in movie fan-out for %q: %v", q.Title, recovered.Value)
	}

	return ext
}

// TVShowData is the TV variant of the fan-out: Letterboxd and Box Office
// Mojo only cover movies, so their fields stay nil.
func (s *Service) TVShowData(ctx context.Context, q Query) models.ExternalData {
	var ext models.ExternalData

	var wg conc.WaitGroup
	wg.Go(func() {
		ext.IMDBRating = optional(s.scraper.IMDBRating(ctx, q.IMDBID))
	})
	wg.Go(func() {
		url := s.scraper.RottenTomatoesURL(ctx, q.Title, q.Year, q.MediaType)
		ext.RottenTomatoesURL = optional(url)
		ext.RottenTomatoesScores = s.scraper.RottenTomatoesScores(ctx, url)
	})
	wg.Go(func() {
		ext.CommonSenseInfo = s.scraper.CommonSenseInfo(ctx, q.Title, q.Year, q.MediaType)
	})
	wg.Go(func() {
		ext.JustWatchPage = optional(s.scraper.JustWatchPage(ctx, q.JustWatchURL))
	})
	if recovered := wg.WaitAndRecover(); recovered != nil {
		log.Printf("[ratings] recovered panic in tv fan-out for %q: %v", q.Title, recovered.Value)
	}

	return ext
}

// optional converts an empty string to nil so failed sources serialize as
// JSON null rather than "".
func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
