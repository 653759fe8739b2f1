package ratings

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"strings"
	"testing"
)

type roundTripFunc func(req *http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

func htmlResponse(body string) *http.Response {
	return &http.Response{
		StatusCode: http.StatusOK,
		Body:       io.NopCloser(bytes.NewBufferString(body)),
		Header:     make(http.Header),
	}
}

// newTestScraper serves a fixed HTML page per URL substring; anything
// unmatched gets a 404.
func newTestScraper(t *testing.T, pages map[string]string) *Scraper {
	t.Helper()
	return NewScraper(&http.Client{
		Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
			if req.Header.Get("User-Agent") == "" {
				t.Error("scrape request missing User-Agent header")
			}
			for substr, body := range pages {
				if strings.Contains(req.URL.String(), substr) {
					return htmlResponse(body), nil
				}
			}
			return &http.Response{
				StatusCode: http.StatusNotFound,
				Body:       io.NopCloser(bytes.NewBufferString("")),
				Header:     make(http.Header),
			}, nil
		}),
	})
}

const rtSearchPage = `<html><body>
<search-page-media-row releaseyear="2008">
  <a data-qa="info-name">Inception of Something Else</a>
  <a data-qa="thumbnail-link" href="https://www.rottentomatoes.com/m/wrong_movie"></a>
</search-page-media-row>
<search-page-media-row releaseyear="2010">
  <a data-qa="info-name">Inception</a>
  <a data-qa="thumbnail-link" href="https://www.rottentomatoes.com/m/inception"></a>
</search-page-media-row>
</body></html>`

func TestRottenTomatoesURL(t *testing.T) {
	s := newTestScraper(t, map[string]string{
		"rottentomatoes.com/search": rtSearchPage,
	})

	got := s.RottenTomatoesURL(context.Background(), "Inception", "2010", "movie")
	if got != "https://www.rottentomatoes.com/m/inception" {
		t.Fatalf("RottenTomatoesURL = %q", got)
	}
}

func TestRottenTomatoesURLYearTooFar(t *testing.T) {
	s := newTestScraper(t, map[string]string{
		"rottentomatoes.com/search": rtSearchPage,
	})

	if got := s.RottenTomatoesURL(context.Background(), "Inception", "2020", "movie"); got != "" {
		t.Fatalf("expected no match for distant year, got %q", got)
	}
}

func TestRottenTomatoesURLUsesStartYearForTV(t *testing.T) {
	page := `<html><body>
<search-page-media-row startyear="2011">
  <a data-qa="info-name">Game of Thrones</a>
  <a data-qa="thumbnail-link" href="https://www.rottentomatoes.com/tv/game_of_thrones"></a>
</search-page-media-row>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"rottentomatoes.com/search": page,
	})

	got := s.RottenTomatoesURL(context.Background(), "Game of Thrones", "2011", "tv")
	if got != "https://www.rottentomatoes.com/tv/game_of_thrones" {
		t.Fatalf("RottenTomatoesURL = %q", got)
	}
}

func TestRottenTomatoesScores(t *testing.T) {
	// Critics score arrives as a string, audience as a number; both shapes
	// appear in the wild.
	page := `<html><body><script id="media-scorecard-json" type="application/json">
{"criticsScore":{"score":"87","certified":true,"sentiment":"POSITIVE"},
"audienceScore":{"score":91,"certified":false,"sentiment":"POSITIVE"}}
</script></body></html>`
	s := newTestScraper(t, map[string]string{
		"rottentomatoes.com/m/inception": page,
	})

	scores := s.RottenTomatoesScores(context.Background(), "https://www.rottentomatoes.com/m/inception")
	if scores == nil {
		t.Fatal("expected scores")
	}
	if scores.Tomatometer == nil || *scores.Tomatometer != 87 {
		t.Fatalf("tomatometer = %v", scores.Tomatometer)
	}
	if scores.TomatometerState == nil || *scores.TomatometerState != "certified-fresh" {
		t.Fatalf("tomatometer state = %v", scores.TomatometerState)
	}
	if scores.AudienceScore == nil || *scores.AudienceScore != 91 {
		t.Fatalf("audience score = %v", scores.AudienceScore)
	}
	if scores.AudienceState == nil || *scores.AudienceState != "upright" {
		t.Fatalf("audience state = %v", scores.AudienceState)
	}
}

func TestRottenTomatoesScoresMissingBlock(t *testing.T) {
	s := newTestScraper(t, map[string]string{
		"rottentomatoes.com/m/inception": `<html><body></body></html>`,
	})

	if scores := s.RottenTomatoesScores(context.Background(), "https://www.rottentomatoes.com/m/inception"); scores != nil {
		t.Fatalf("expected nil for missing scorecard, got %+v", scores)
	}
	if scores := s.RottenTomatoesScores(context.Background(), ""); scores != nil {
		t.Fatal("expected nil for empty url")
	}
}

func TestScoreStateMapping(t *testing.T) {
	score := flexInt(80)
	tests := []struct {
		certified bool
		sentiment string
		want      string // "" means nil
	}{
		{true, "POSITIVE", "certified-fresh"},
		{false, "POSITIVE", "fresh"},
		{false, "NEGATIVE", "rotten"},
		{true, "NEGATIVE", ""},
		{false, "", ""},
	}
	for _, tt := range tests {
		entry := &scorecardEntry{Score: &score, Certified: tt.certified, Sentiment: tt.sentiment}
		got := scoreState(entry, "certified-fresh", "fresh", "rotten")
		if tt.want == "" {
			if got != nil {
				t.Fatalf("certified=%v sentiment=%q: expected nil, got %q", tt.certified, tt.sentiment, *got)
			}
			continue
		}
		if got == nil || *got != tt.want {
			t.Fatalf("certified=%v sentiment=%q: got %v, want %q", tt.certified, tt.sentiment, got, tt.want)
		}
	}

	// Missing score means no state, whatever the flags say.
	if got := scoreState(&scorecardEntry{Certified: true, Sentiment: "POSITIVE"}, "a", "b", "c"); got != nil {
		t.Fatalf("expected nil state without a score, got %q", *got)
	}
}

func TestLetterboxdURL(t *testing.T) {
	page := `<html><body>
<span class="film-title-wrapper">
  <a href="/film/inception-the-cobol-job/">Inception: The Cobol Job</a>
  <small class="metadata">2010</small>
</span>
<span class="film-title-wrapper">
  <a href="/film/inception/">Inception</a>
  <small class="metadata">2010</small>
</span>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"letterboxd.com/s/search": page,
	})

	// Exact-year scan picks the first row with a matching year.
	got := s.LetterboxdURL(context.Background(), "Inception", "2010")
	if got != "https://letterboxd.com/film/inception-the-cobol-job/" {
		t.Fatalf("LetterboxdURL = %q", got)
	}
}

func TestLetterboxdURLAdjacentYear(t *testing.T) {
	page := `<html><body>
<span class="film-title-wrapper">
  <a href="/film/inception/">Inception</a>
  <small class="metadata">2010</small>
</span>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"letterboxd.com/s/search": page,
	})

	if got := s.LetterboxdURL(context.Background(), "Inception", "2011"); got != "https://letterboxd.com/film/inception/" {
		t.Fatalf("LetterboxdURL = %q", got)
	}
	if got := s.LetterboxdURL(context.Background(), "Inception", "2013"); got != "" {
		t.Fatalf("expected no match two years off, got %q", got)
	}
}

func TestLetterboxdRating(t *testing.T) {
	page := `<html><head>
<meta name="twitter:data2" content="4.24 out of 5">
</head><body></body></html>`
	s := newTestScraper(t, map[string]string{
		"letterboxd.com/film/inception": page,
	})

	rating := s.LetterboxdRating(context.Background(), "https://letterboxd.com/film/inception/")
	if rating == nil || *rating != 4.2 {
		t.Fatalf("LetterboxdRating = %v, want 4.2", rating)
	}
	if got := s.LetterboxdRating(context.Background(), ""); got != nil {
		t.Fatal("expected nil for empty url")
	}
}

func TestCommonSenseInfo(t *testing.T) {
	page := `<html><body>
<div class="site-search-teaser">
  <div class="review-teaser-type caption">TV</div>
  <h3 class="review-teaser-title">Inception the Series</h3>
  <div class="review-product-summary">Some other thing (2010)</div>
  <span class="rating__age">10+</span>
  <a href="/tv-reviews/inception-the-series"></a>
</div>
<div class="site-search-teaser">
  <div class="review-teaser-type caption">MOVIE</div>
  <h3 class="review-teaser-title">Inception</h3>
  <div class="review-product-summary">Mind-bending heist thriller (2010)</div>
  <span class="rating__age">13+</span>
  <a href="/movie-reviews/inception"></a>
</div>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"commonsensemedia.org/search": page,
	})

	info := s.CommonSenseInfo(context.Background(), "Inception", "2010", "movie")
	if info == nil {
		t.Fatal("expected commonsense info")
	}
	if info.URL != "https://www.commonsensemedia.org/movie-reviews/inception" {
		t.Fatalf("url = %q", info.URL)
	}
	if info.Rating != "13+" {
		t.Fatalf("rating = %q", info.Rating)
	}
}

func TestCommonSenseInfoSkipsUnratedCandidates(t *testing.T) {
	page := `<html><body>
<div class="site-search-teaser">
  <div class="review-teaser-type caption">MOVIE</div>
  <h3 class="review-teaser-title">Inception</h3>
  <div class="review-product-summary">Missing age rating (2010)</div>
  <span class="rating__age"></span>
  <a href="/movie-reviews/inception"></a>
</div>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"commonsensemedia.org/search": page,
	})

	if info := s.CommonSenseInfo(context.Background(), "Inception", "2010", "movie"); info != nil {
		t.Fatalf("expected nil for candidate without age rating, got %+v", info)
	}
}

func TestIMDBRating(t *testing.T) {
	page := `<html><body>
<div data-testid="hero-rating-bar__aggregate-rating__score"><span>8.8</span>/10</div>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"imdb.com/title/tt1375666": page,
	})

	if got := s.IMDBRating(context.Background(), "tt1375666"); got != "8.8" {
		t.Fatalf("IMDBRating = %q", got)
	}
	if got := s.IMDBRating(context.Background(), ""); got != "" {
		t.Fatalf("expected empty rating for empty id, got %q", got)
	}
}

func TestBoxOfficeAmounts(t *testing.T) {
	page := `<html><body>
<span class="a-size-medium a-text-bold">$292,587,330</span>
<span class="a-size-medium a-text-bold">$544,272,402</span>
<span class="a-size-medium a-text-bold">$836,859,732</span>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"boxofficemojo.com/title/tt1375666": page,
	})

	amounts := s.BoxOfficeAmounts(context.Background(), "tt1375666")
	if len(amounts) != 3 {
		t.Fatalf("expected 3 amounts, got %d: %v", len(amounts), amounts)
	}
	if amounts[2] != "$836,859,732" {
		t.Fatalf("amounts[2] = %q", amounts[2])
	}

	if got := s.BoxOfficeAmounts(context.Background(), ""); got != nil {
		t.Fatal("expected nil for empty imdb id")
	}
}

func TestBoxOfficeMojoURL(t *testing.T) {
	if got := BoxOfficeMojoURL("tt1375666"); got != "https://www.boxofficemojo.com/title/tt1375666/" {
		t.Fatalf("BoxOfficeMojoURL = %q", got)
	}
	if got := BoxOfficeMojoURL(""); got != "" {
		t.Fatalf("expected empty url for empty id, got %q", got)
	}
}

func TestJustWatchPage(t *testing.T) {
	page := `<html><body>
<div class="homepage"><a href="https://www.justwatch.com/us/movie/inception">JustWatch</a></div>
</body></html>`
	s := newTestScraper(t, map[string]string{
		"themoviedb.org/movie/27205-inception/watch": page,
	})

	got := s.JustWatchPage(context.Background(), "https://www.themoviedb.org/movie/27205-inception/watch?locale=US")
	if got != "https://www.justwatch.com/us/movie/inception" {
		t.Fatalf("JustWatchPage = %q", got)
	}
	if got := s.JustWatchPage(context.Background(), ""); got != "" {
		t.Fatalf("expected empty page for empty url, got %q", got)
	}
}

func TestFlexIntDecoding(t *testing.T) {
	var f flexInt
	if err := f.UnmarshalJSON([]byte(`"87"`)); err != nil || f != 87 {
		t.Fatalf("string decode: %v %d", err, f)
	}
	if err := f.UnmarshalJSON([]byte(`91`)); err != nil || f != 91 {
		t.Fatalf("number decode: %v %d", err, f)
	}
	if err := f.UnmarshalJSON([]byte(`"n/a"`)); err == nil {
		t.Fatal("expected error for non-numeric score")
	}
}
