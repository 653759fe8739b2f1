package details

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"reelratings/models"
	"reelratings/services/cache"
	"reelratings/services/ratings"
)

type fakeCatalog struct {
	mu           sync.Mutex
	detailsCalls int
	trendingErr  error
	detailsErr   error
}

func (f *fakeCatalog) Trending(ctx context.Context) ([]models.TrendingItem, error) {
	if f.trendingErr != nil {
		return nil, f.trendingErr
	}
	return []models.TrendingItem{
		{TMDBID: 27205, Title: "Inception", Year: "2010", MediaType: models.MediaTypeMovie},
		{TMDBID: 603, Title: "The Matrix", Year: "1999", MediaType: models.MediaTypeMovie},
	}, nil
}

func (f *fakeCatalog) Search(ctx context.Context, query string) ([]models.TrendingItem, error) {
	return []models.TrendingItem{{TMDBID: 1, Title: query}}, nil
}

func (f *fakeCatalog) TitleDetails(ctx context.Context, tmdbID int64, mediaType string) (*models.TitleDetails, error) {
	f.mu.Lock()
	f.detailsCalls++
	f.mu.Unlock()
	if f.detailsErr != nil {
		return nil, f.detailsErr
	}
	return &models.TitleDetails{
		TMDBID:    tmdbID,
		MediaType: mediaType,
		Title:     "Inception",
		Year:      "2010",
		IMDBID:    "tt1375666",
	}, nil
}

func (f *fakeCatalog) DirectorMovies(ctx context.Context, personID int64) ([]models.TrendingItem, error) {
	return []models.TrendingItem{{TMDBID: 2, Title: "Oppenheimer"}}, nil
}

func (f *fakeCatalog) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.detailsCalls
}

type fakeRatings struct{}

func (fakeRatings) MovieData(ctx context.Context, q ratings.Query) models.ExternalData {
	rating := "8.8"
	return models.ExternalData{IMDBRating: &rating}
}

func (fakeRatings) TVShowData(ctx context.Context, q ratings.Query) models.ExternalData {
	return models.ExternalData{}
}

// fakeCache is an in-memory stand-in recording the TTL of each write.
type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	ttls map[string]time.Duration
}

func newFakeCache() *fakeCache {
	return &fakeCache{data: make(map[string][]byte), ttls: make(map[string]time.Duration)}
}

func (f *fakeCache) Get(ctx context.Context, key string, v any) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	data, ok := f.data[key]
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

func (f *fakeCache) Set(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.data[key] = data
	f.ttls[key] = ttl
	return nil
}

func (f *fakeCache) Delete(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.data, key)
	return nil
}

func newTestService(catalog *fakeCatalog, store *fakeCache) *Service {
	return NewService(catalog, fakeRatings{}, store, 50*time.Millisecond, 3)
}

func TestDetailsInvalidMediaType(t *testing.T) {
	svc := newTestService(&fakeCatalog{}, newFakeCache())

	if _, err := svc.Details(context.Background(), 27205, "person"); !errors.Is(err, ErrInvalidMediaType) {
		t.Fatalf("expected ErrInvalidMediaType, got %v", err)
	}
}

func TestDetailsCacheMissThenHit(t *testing.T) {
	catalog := &fakeCatalog{}
	store := newFakeCache()
	svc := newTestService(catalog, store)
	ctx := context.Background()

	doc, err := svc.Details(ctx, 27205, models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("Details failed: %v", err)
	}
	if doc.TMDBData.Title != "Inception" {
		t.Fatalf("unexpected title: %q", doc.TMDBData.Title)
	}
	if doc.ExternalData.IMDBRating == nil || *doc.ExternalData.IMDBRating != "8.8" {
		t.Fatalf("unexpected imdb rating: %v", doc.ExternalData.IMDBRating)
	}
	if doc.ExternalData.IMDBURL == nil || *doc.ExternalData.IMDBURL != "https://www.imdb.com/title/tt1375666" {
		t.Fatalf("unexpected imdb url: %v", doc.ExternalData.IMDBURL)
	}

	// Second call must come from cache without touching the catalog.
	doc2, err := svc.Details(ctx, 27205, models.MediaTypeMovie)
	if err != nil {
		t.Fatalf("second Details failed: %v", err)
	}
	if doc2.TMDBData.Title != doc.TMDBData.Title {
		t.Fatalf("cached document differs: %q vs %q", doc2.TMDBData.Title, doc.TMDBData.Title)
	}
	if catalog.callCount() != 1 {
		t.Fatalf("expected 1 catalog call, got %d", catalog.callCount())
	}
}

func TestDetailsCatalogFailurePropagates(t *testing.T) {
	catalog := &fakeCatalog{detailsErr: errors.New("tmdb down")}
	store := newFakeCache()
	svc := newTestService(catalog, store)

	if _, err := svc.Details(context.Background(), 27205, models.MediaTypeMovie); err == nil {
		t.Fatal("expected catalog error to propagate")
	}
	if len(store.data) != 0 {
		t.Fatal("nothing should be cached on a catalog failure")
	}
}

func TestDetailsCachesWithContentDerivedTTL(t *testing.T) {
	store := newFakeCache()
	svc := newTestService(&fakeCatalog{}, store)

	if _, err := svc.Details(context.Background(), 27205, models.MediaTypeMovie); err != nil {
		t.Fatalf("Details failed: %v", err)
	}

	key := cache.DetailsKey(27205, models.MediaTypeMovie)
	ttl, ok := store.ttls[key]
	if !ok {
		t.Fatal("expected the document to be cached")
	}
	// 2010 movie without cross-links stays on the short tier.
	if ttl != cache.ShortTTL {
		t.Fatalf("ttl = %v, want %v", ttl, cache.ShortTTL)
	}
}

func TestTrendingCacheFirst(t *testing.T) {
	store := newFakeCache()
	cachedItems := []models.TrendingItem{{TMDBID: 42, Title: "Cached Movie"}}
	if err := store.Set(context.Background(), cache.TrendingKey, cachedItems, cache.ShortTTL); err != nil {
		t.Fatal(err)
	}
	svc := newTestService(&fakeCatalog{trendingErr: errors.New("must not be called")}, store)

	items, err := svc.Trending(context.Background())
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(items) != 1 || items[0].Title != "Cached Movie" {
		t.Fatalf("expected cached list, got %+v", items)
	}
}

func TestTrendingLiveFallback(t *testing.T) {
	store := newFakeCache()
	svc := newTestService(&fakeCatalog{}, store)

	items, err := svc.Trending(context.Background())
	if err != nil {
		t.Fatalf("Trending failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("expected 2 live items, got %d", len(items))
	}
	if _, ok := store.ttls[cache.TrendingKey]; !ok {
		t.Fatal("live trending result should be cached")
	}
	if store.ttls[cache.TrendingKey] != cache.ShortTTL {
		t.Fatalf("trending ttl = %v, want %v", store.ttls[cache.TrendingKey], cache.ShortTTL)
	}
}

func TestRefreshTrendingWarmsDetails(t *testing.T) {
	catalog := &fakeCatalog{}
	store := newFakeCache()
	svc := newTestService(catalog, store)

	if err := svc.RefreshTrending(context.Background()); err != nil {
		t.Fatalf("RefreshTrending failed: %v", err)
	}

	var trending []models.TrendingItem
	if !store.Get(context.Background(), cache.TrendingKey, &trending) || len(trending) != 2 {
		t.Fatalf("trending list not cached: %+v", trending)
	}

	for _, item := range trending {
		var doc models.TitleDocument
		if !store.Get(context.Background(), cache.DetailsKey(item.TMDBID, item.MediaType), &doc) {
			t.Fatalf("details for %d not pre-warmed", item.TMDBID)
		}
	}
}

func TestRefreshTrendingCatalogFailure(t *testing.T) {
	svc := newTestService(&fakeCatalog{trendingErr: errors.New("tmdb down")}, newFakeCache())

	if err := svc.RefreshTrending(context.Background()); err == nil {
		t.Fatal("expected catalog failure to propagate")
	}
}
