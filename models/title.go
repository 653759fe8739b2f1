package models

// MediaTypeMovie and MediaTypeTV are the only media types the catalog serves.
const (
	MediaTypeMovie = "movie"
	MediaTypeTV    = "tv"
)

// ValidMediaType reports whether mediaType is one of the supported values.
func ValidMediaType(mediaType string) bool {
	return mediaType == MediaTypeMovie || mediaType == MediaTypeTV
}

// Person is a credited crew member (currently only directors).
type Person struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// TitleDetails is the canonical TMDB-side identity of a title. It is
// immutable once fetched; every rating-source lookup derives from it.
type TitleDetails struct {
	TMDBID        int64    `json:"tmdb_id"`
	MediaType     string   `json:"media_type"`
	Title         string   `json:"title"`
	Year          string   `json:"year"`
	IMDBID        string   `json:"imdb_id"`
	PosterImg     string   `json:"poster_img"`
	JustWatchURL  string   `json:"justwatch_url"`
	Runtime       string   `json:"runtime,omitempty"`
	Certification string   `json:"certification,omitempty"`
	Director      []Person `json:"director,omitempty"`
	Creator       []string `json:"creator,omitempty"`
}

// RottenTomatoesScores carries the critic and audience metrics parsed from
// the scorecard JSON block. A missing score or an unrecognized
// certified/sentiment combination leaves the corresponding field nil.
type RottenTomatoesScores struct {
	Tomatometer      *int    `json:"tomatometer"`
	TomatometerState *string `json:"tomatometer_state"`
	AudienceScore    *int    `json:"audience_score"`
	AudienceState    *string `json:"audience_state"`
}

// CommonSenseInfo is the family-guidance age rating plus its review page.
type CommonSenseInfo struct {
	URL    string `json:"url"`
	Rating string `json:"rating"`
}

// ExternalData is the combined rating bundle from every scraped source.
// Every field is nullable: a failed or unresolvable source contributes nil,
// never an error.
type ExternalData struct {
	IMDBURL              *string               `json:"imdb_url"`
	IMDBRating           *string               `json:"imdb_rating"`
	RottenTomatoesURL    *string               `json:"rottentomatoes_url"`
	RottenTomatoesScores *RottenTomatoesScores `json:"rottentomatoes_scores"`
	LetterboxdURL        *string               `json:"letterboxd_url"`
	LetterboxdRating     *float64              `json:"letterboxd_rating"`
	CommonSenseInfo      *CommonSenseInfo      `json:"commonsense_info"`
	BoxOfficeMojoURL     *string               `json:"boxofficemojo_url"`
	BoxOfficeAmounts     []string              `json:"box_office_amounts"`
	JustWatchPage        *string               `json:"justwatch_page"`
}

// TitleDocument is the full cached response for a details request: the
// catalog identity plus the aggregated external ratings. It is stored
// atomically or not at all.
type TitleDocument struct {
	TMDBData     TitleDetails `json:"tmdb_data"`
	ExternalData ExternalData `json:"external_data"`
}

// TrendingItem is a lightweight listing entry for the trending grid,
// search results and director filmographies.
type TrendingItem struct {
	TMDBID    int64  `json:"tmdb_id"`
	Title     string `json:"title"`
	Year      string `json:"year"`
	MediaType string `json:"media_type"`
	PosterImg string `json:"poster_img"`
}
