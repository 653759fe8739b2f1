package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"reelratings/models"
	"reelratings/utils"
)

// Minimal TMDB v3 client covering trending, multi search, title details and
// person credits.

const (
	tmdbBaseURL       = "https://api.themoviedb.org/3"
	tmdbImageBaseURL  = "https://www.themoviedb.org/t/p"
	trendingPageCount = 5
)

type Client struct {
	apiKey string
	httpc  *http.Client

	throttleMu  sync.Mutex
	lastRequest time.Time
	minInterval time.Duration
}

func NewClient(apiKey string, httpc *http.Client) *Client {
	if httpc == nil {
		httpc = &http.Client{Timeout: 15 * time.Second}
	}
	return &Client{
		apiKey:      apiKey,
		httpc:       httpc,
		minInterval: 20 * time.Millisecond,
	}
}

func (c *Client) doGET(ctx context.Context, path string, q url.Values, v any) error {
	if q == nil {
		q = url.Values{}
	}
	q.Set("api_key", c.apiKey)
	q.Set("language", "en-US")
	u := tmdbBaseURL + path + "?" + q.Encode()

	var lastErr error
	backoff := 300 * time.Millisecond
	for attempt := 0; attempt < 3; attempt++ {
		c.throttleMu.Lock()
		since := time.Since(c.lastRequest)
		if since < c.minInterval {
			time.Sleep(c.minInterval - since)
		}
		c.lastRequest = time.Now()
		c.throttleMu.Unlock()

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
		if err != nil {
			return err
		}
		resp, err := c.httpc.Do(req)
		if err != nil {
			lastErr = err
			time.Sleep(backoff)
			backoff *= 2
			continue
		}
		if resp.StatusCode >= 300 {
			body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			resp.Body.Close()
			if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
				if ra := resp.Header.Get("Retry-After"); ra != "" {
					if secs, err := strconv.Atoi(ra); err == nil {
						time.Sleep(time.Duration(secs) * time.Second)
					}
				} else {
					time.Sleep(backoff)
					backoff *= 2
				}
				lastErr = fmt.Errorf("tmdb get %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
				continue
			}
			return fmt.Errorf("tmdb get %s failed: %s: %s", path, resp.Status, strings.TrimSpace(string(body)))
		}
		err = json.NewDecoder(resp.Body).Decode(v)
		resp.Body.Close()
		return err
	}
	return lastErr
}

// tmdbListResult is a single entry of a trending/search/credits response.
type tmdbListResult struct {
	ID           int64  `json:"id"`
	Title        string `json:"title"`
	Name         string `json:"name"`
	MediaType    string `json:"media_type"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	PosterPath   string `json:"poster_path"`
	Job          string `json:"job"`
}

// Trending fetches the top trending movies of the week, five pages
// concurrently, flattened in page order and deduplicated.
func (c *Client) Trending(ctx context.Context) ([]models.TrendingItem, error) {
	pages := make([][]tmdbListResult, trendingPageCount)
	errs := make([]error, trendingPageCount)

	var wg sync.WaitGroup
	for i := 0; i < trendingPageCount; i++ {
		wg.Add(1)
		go func(page int) {
			defer wg.Done()
			var resp struct {
				Results []tmdbListResult `json:"results"`
			}
			q := url.Values{}
			q.Set("page", strconv.Itoa(page+1))
			errs[page] = c.doGET(ctx, "/trending/movie/week", q, &resp)
			pages[page] = resp.Results
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, fmt.Errorf("fetch trending: %w", err)
		}
	}

	var all []tmdbListResult
	for _, page := range pages {
		all = append(all, page...)
	}
	return filterListResults(all, "w500"), nil
}

// Search looks up movies and TV shows by title via TMDB multi search.
func (c *Client) Search(ctx context.Context, query string) ([]models.TrendingItem, error) {
	var resp struct {
		Results []tmdbListResult `json:"results"`
	}
	q := url.Values{}
	q.Set("query", query)
	q.Set("include_adult", "false")
	q.Set("page", "1")
	if err := c.doGET(ctx, "/search/multi", q, &resp); err != nil {
		return nil, fmt.Errorf("search %q: %w", query, err)
	}
	return filterListResults(resp.Results, "w185"), nil
}

// filterListResults normalizes raw TMDB list entries: TMDB-id deduplication,
// 4-digit year required, poster URL built for the requested size (empty when
// TMDB has no poster, the frontend shows its placeholder).
func filterListResults(results []tmdbListResult, posterSize string) []models.TrendingItem {
	seen := make(map[int64]struct{}, len(results))
	items := make([]models.TrendingItem, 0, len(results))
	for _, r := range results {
		if _, dup := seen[r.ID]; dup {
			continue
		}
		seen[r.ID] = struct{}{}

		mediaType := r.MediaType
		if mediaType == "" {
			mediaType = models.MediaTypeMovie
		}

		var title, date string
		switch mediaType {
		case models.MediaTypeMovie:
			title, date = r.Title, r.ReleaseDate
		case models.MediaTypeTV:
			title, date = r.Name, r.FirstAirDate
		default:
			continue
		}
		if len(date) < 4 {
			continue
		}

		items = append(items, models.TrendingItem{
			TMDBID:    r.ID,
			Title:     title,
			Year:      date[:4],
			MediaType: mediaType,
			PosterImg: posterURL(posterSize, r.PosterPath),
		})
	}
	return items
}

func posterURL(size, path string) string {
	if path == "" {
		return ""
	}
	return tmdbImageBaseURL + "/" + size + path
}

// tmdbTitleDetails is the append_to_response payload for a single title.
type tmdbTitleDetails struct {
	Title        string `json:"title"`
	Name         string `json:"name"`
	ReleaseDate  string `json:"release_date"`
	FirstAirDate string `json:"first_air_date"`
	IMDBID       string `json:"imdb_id"`
	Runtime      int    `json:"runtime"`
	PosterPath   string `json:"poster_path"`
	CreatedBy    []struct {
		Name string `json:"name"`
	} `json:"created_by"`
	ExternalIDs struct {
		IMDBID string `json:"imdb_id"`
	} `json:"external_ids"`
	Credits struct {
		Crew []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Job  string `json:"job"`
		} `json:"crew"`
	} `json:"credits"`
	ReleaseDates struct {
		Results []struct {
			ISO3166 string `json:"iso_3166_1"`
			Dates   []struct {
				Certification string `json:"certification"`
			} `json:"release_dates"`
		} `json:"results"`
	} `json:"release_dates"`
	WatchProviders struct {
		Results map[string]struct {
			Link string `json:"link"`
		} `json:"results"`
	} `json:"watch/providers"`
}

// TitleDetails fetches the canonical metadata for one title. This is the one
// load-bearing upstream: failures propagate to the caller.
func (c *Client) TitleDetails(ctx context.Context, tmdbID int64, mediaType string) (*models.TitleDetails, error) {
	if !models.ValidMediaType(mediaType) {
		return nil, fmt.Errorf("invalid media type: %s", mediaType)
	}

	var raw tmdbTitleDetails
	q := url.Values{}
	q.Set("append_to_response", "release_dates,watch/providers,external_ids,credits")
	path := fmt.Sprintf("/%s/%d", mediaType, tmdbID)
	if err := c.doGET(ctx, path, q, &raw); err != nil {
		return nil, fmt.Errorf("title details %s/%d: %w", mediaType, tmdbID, err)
	}

	details := &models.TitleDetails{
		TMDBID:       tmdbID,
		MediaType:    mediaType,
		PosterImg:    posterURL("w500", raw.PosterPath),
		JustWatchURL: raw.WatchProviders.Results["US"].Link,
	}

	switch mediaType {
	case models.MediaTypeMovie:
		details.Title = raw.Title
		details.Year = yearOf(raw.ReleaseDate)
		details.IMDBID = raw.IMDBID
		details.Runtime = utils.FormatRuntime(raw.Runtime)
		details.Certification = usCertification(raw)
		for _, crew := range raw.Credits.Crew {
			if crew.Job == "Director" {
				details.Director = append(details.Director, models.Person{ID: crew.ID, Name: crew.Name})
			}
		}
	case models.MediaTypeTV:
		details.Title = raw.Name
		details.Year = yearOf(raw.FirstAirDate)
		details.IMDBID = raw.ExternalIDs.IMDBID
		for _, creator := range raw.CreatedBy {
			details.Creator = append(details.Creator, creator.Name)
		}
	}

	if details.Title == "" || len(details.Year) != 4 {
		log.Printf("[catalog] incomplete details for %s/%d: title=%q year=%q", mediaType, tmdbID, details.Title, details.Year)
	}
	return details, nil
}

func yearOf(date string) string {
	if len(date) < 4 {
		return ""
	}
	return date[:4]
}

// usCertification returns the first non-empty US certification rating.
func usCertification(raw tmdbTitleDetails) string {
	for _, result := range raw.ReleaseDates.Results {
		if result.ISO3166 != "US" {
			continue
		}
		for _, rd := range result.Dates {
			if rd.Certification != "" {
				return rd.Certification
			}
		}
	}
	return ""
}

// DirectorMovies fetches the movies a person directed, newest first.
func (c *Client) DirectorMovies(ctx context.Context, personID int64) ([]models.TrendingItem, error) {
	var resp struct {
		Crew []tmdbListResult `json:"crew"`
	}
	path := fmt.Sprintf("/person/%d/movie_credits", personID)
	if err := c.doGET(ctx, path, nil, &resp); err != nil {
		return nil, fmt.Errorf("director movies %d: %w", personID, err)
	}

	directed := resp.Crew[:0]
	for _, credit := range resp.Crew {
		if credit.Job == "Director" && len(credit.ReleaseDate) >= 4 {
			directed = append(directed, credit)
		}
	}
	sort.SliceStable(directed, func(i, j int) bool {
		return directed[i].ReleaseDate > directed[j].ReleaseDate
	})

	items := make([]models.TrendingItem, 0, len(directed))
	for _, credit := range directed {
		items = append(items, models.TrendingItem{
			TMDBID:    credit.ID,
			Title:     credit.Title,
			Year:      credit.ReleaseDate[:4],
			MediaType: models.MediaTypeMovie,
			PosterImg: posterURL("w185", credit.PosterPath),
		})
	}
	return items, nil
}
