package cache

import (
	"log"
	"strconv"
	"time"

	"reelratings/models"
)

// Cache durations for detail documents. The short tier stays just under a
// day so the nightly refresh always lands on an expired entry. The longer
// tiers are reserved for back-catalog movies whose cross-links are complete,
// since those documents barely change.
const (
	ShortTTL  = 23 * time.Hour
	MediumTTL = 30 * 24 * time.Hour
	LongTTL   = 365 * 24 * time.Hour
)

// TTLFor computes the cache duration for a details document from the title's
// age and the completeness of its cross-reference links. Anything malformed
// falls back to the short tier; a bad document must never break a cache write.
func TTLFor(doc *models.TitleDocument) time.Duration {
	if doc == nil {
		return ShortTTL
	}
	releaseYear, err := strconv.Atoi(doc.TMDBData.Year)
	if err != nil {
		log.Printf("[cache] malformed year %q for tmdb_id=%d; using short TTL", doc.TMDBData.Year, doc.TMDBData.TMDBID)
		return ShortTTL
	}
	yearsSinceRelease := time.Now().Year() - releaseYear

	switch {
	case yearsSinceRelease >= 4 && extendedCacheEligible(doc):
		return LongTTL
	case yearsSinceRelease >= 2 && extendedCacheEligible(doc):
		return MediumTTL
	default:
		return ShortTTL
	}
}

// extendedCacheEligible requires a fully cross-linked movie: Letterboxd,
// RottenTomatoes and IMDb URLs all resolved. TV shows never qualify, their
// data changes while a series is airing.
func extendedCacheEligible(doc *models.TitleDocument) bool {
	ext := doc.ExternalData
	return doc.TMDBData.MediaType == models.MediaTypeMovie &&
		ext.LetterboxdURL != nil && *ext.LetterboxdURL != "" &&
		ext.RottenTomatoesURL != nil && *ext.RottenTomatoesURL != "" &&
		ext.IMDBURL != nil && *ext.IMDBURL != ""
}
