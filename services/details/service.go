package details

import (
	"context"
	"errors"
	"log"
	"time"

	"reelratings/models"
	"reelratings/services/cache"
	"reelratings/services/ratings"
	"reelratings/utils"
)

// ErrInvalidMediaType is returned for media types other than movie|tv.
var ErrInvalidMediaType = errors.New("invalid media type")

type catalogClient interface {
	Trending(ctx context.Context) ([]models.TrendingItem, error)
	Search(ctx context.Context, query string) ([]models.TrendingItem, error)
	TitleDetails(ctx context.Context, tmdbID int64, mediaType string) (*models.TitleDetails, error)
	DirectorMovies(ctx context.Context, personID int64) ([]models.TrendingItem, error)
}

type ratingsAggregator interface {
	MovieData(ctx context.Context, q ratings.Query) models.ExternalData
	TVShowData(ctx context.Context, q ratings.Query) models.ExternalData
}

type cacheStore interface {
	Get(ctx context.Context, key string, v any) bool
	Set(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// Service is the cache-first detail pipeline: cache lookup, then catalog
// resolution, then the rating-source fan-out, then an atomic cache write
// with a content-derived TTL.
type Service struct {
	catalog catalogClient
	ratings ratingsAggregator
	cache   cacheStore

	// Pacing for the trending pre-warm batch.
	refreshTarget  time.Duration
	refreshWorkers int
}

func NewService(catalog catalogClient, ratings ratingsAggregator, store cacheStore, refreshTarget time.Duration, refreshWorkers int) *Service {
	return &Service{
		catalog:        catalog,
		ratings:        ratings,
		cache:          store,
		refreshTarget:  refreshTarget,
		refreshWorkers: refreshWorkers,
	}
}

// Details returns the combined document for one title, from cache when
// fresh. On a miss the catalog fetch is load-bearing (its error propagates);
// the rating fan-out is not (failed sources stay null). The document is
// cached only after the full fan-in completes.
func (s *Service) Details(ctx context.Context, tmdbID int64, mediaType string) (*models.TitleDocument, error) {
	if !models.ValidMediaType(mediaType) {
		return nil, ErrInvalidMediaType
	}

	key := cache.DetailsKey(tmdbID, mediaType)
	var cached models.TitleDocument
	if s.cache.Get(ctx, key, &cached) {
		return &cached, nil
	}

	tmdbData, err := s.catalog.TitleDetails(ctx, tmdbID, mediaType)
	if err != nil {
		return nil, err
	}

	q := ratings.Query{
		IMDBID:       tmdbData.IMDBID,
		Title:        tmdbData.Title,
		Year:         tmdbData.Year,
		MediaType:    mediaType,
		JustWatchURL: tmdbData.JustWatchURL,
	}
	var ext models.ExternalData
	if mediaType == models.MediaTypeMovie {
		ext = s.ratings.MovieData(ctx, q)
	} else {
		ext = s.ratings.TVShowData(ctx, q)
	}
	if tmdbData.IMDBID != "" {
		imdbURL := "https://www.imdb.com/title/" + tmdbData.IMDBID
		ext.IMDBURL = &imdbURL
	}

	doc := models.TitleDocument{TMDBData: *tmdbData, ExternalData: ext}
	if err := s.cache.Set(ctx, key, doc, cache.TTLFor(&doc)); err != nil {
		log.Printf("[details] caching %s: %v", key, err)
	}
	return &doc, nil
}

// Trending returns the trending movie list, cache-first with a live catalog
// fallback when the cache is cold or unreachable.
func (s *Service) Trending(ctx context.Context) ([]models.TrendingItem, error) {
	var cached []models.TrendingItem
	if s.cache.Get(ctx, cache.TrendingKey, &cached) && len(cached) > 0 {
		return cached, nil
	}

	items, err := s.catalog.Trending(ctx)
	if err != nil {
		return nil, err
	}
	if err := s.cache.Set(ctx, cache.TrendingKey, items, cache.ShortTTL); err != nil {
		log.Printf("[details] caching trending list: %v", err)
	}
	return items, nil
}

// Search passes a title query through to the catalog.
func (s *Service) Search(ctx context.Context, query string) ([]models.TrendingItem, error) {
	return s.catalog.Search(ctx, query)
}

// DirectorMovies passes a filmography lookup through to the catalog.
func (s *Service) DirectorMovies(ctx context.Context, personID int64) ([]models.TrendingItem, error) {
	return s.catalog.DirectorMovies(ctx, personID)
}

// RefreshTrending re-fetches the trending list, replaces the cached copy and
// pre-warms every item's detail document through the throttled batch runner.
// Individual item failures are isolated; the batch always completes.
func (s *Service) RefreshTrending(ctx context.Context) error {
	items, err := s.catalog.Trending(ctx)
	if err != nil {
		return err
	}
	if err := s.cache.Set(ctx, cache.TrendingKey, items, cache.ShortTTL); err != nil {
		log.Printf("[details] caching trending list: %v", err)
	}

	warmed := utils.ThrottledFetch(ctx, items, func(ctx context.Context, item models.TrendingItem) (int64, error) {
		if _, err := s.Details(ctx, item.TMDBID, item.MediaType); err != nil {
			return 0, err
		}
		return item.TMDBID, nil
	}, s.refreshTarget, s.refreshWorkers)

	log.Printf("[details] trending refresh complete: %d/%d documents warmed", len(warmed), len(items))
	return nil
}
