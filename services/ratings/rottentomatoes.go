package ratings

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mozillazg/go-unidecode"

	"reelratings/models"
	"reelratings/utils"
)

// RottenTomatoesURL resolves the RottenTomatoes page for a title by scanning
// the search results for a candidate whose year is within ±1 and whose title
// clears the similarity threshold. First accepted candidate wins. Empty
// string means not found.
func (s *Scraper) RottenTomatoesURL(ctx context.Context, title, year, mediaType string) string {
	searchURL := rottenTomatoesSearchURL + strings.ReplaceAll(title, " ", "%20")
	doc := s.fetchDocument(ctx, searchURL)
	if doc == nil {
		return ""
	}

	// RT search rows carry the year as an element attribute, named
	// differently for movies and shows.
	yearAttr := "releaseyear"
	if mediaType == models.MediaTypeTV {
		yearAttr = "startyear"
	}
	wantYear, err := strconv.Atoi(year)
	if err != nil {
		return ""
	}
	wantTitle := strings.ToLower(unidecode.Unidecode(title))

	var resolved string
	doc.Find("search-page-media-row").EachWithBreak(func(_ int, row *goquery.Selection) bool {
		rowYear, err := strconv.Atoi(strings.TrimSpace(row.AttrOr(yearAttr, "")))
		if err != nil {
			return true
		}
		if rowYear-wantYear > 1 || wantYear-rowYear > 1 {
			return true
		}

		rowTitle := strings.TrimSpace(row.Find(`a[data-qa="info-name"]`).First().Text())
		if utils.Similar(wantTitle, strings.ToLower(rowTitle)) <= utils.SimilarityThreshold {
			return true
		}

		if href, ok := row.Find(`a[data-qa="thumbnail-link"]`).First().Attr("href"); ok {
			resolved = href
			return false
		}
		return true
	})
	return resolved
}

// scorecardEntry is one score block of the embedded scorecard JSON. Scores
// arrive as JSON strings or numbers depending on page variant.
type scorecardEntry struct {
	Score     *flexInt `json:"score"`
	Certified bool     `json:"certified"`
	Sentiment string   `json:"sentiment"`
}

// flexInt decodes a JSON number or a numeric JSON string.
type flexInt int

func (f *flexInt) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	n, err := strconv.Atoi(s)
	if err != nil {
		return err
	}
	*f = flexInt(n)
	return nil
}

// RottenTomatoesScores extracts the Tomatometer and audience scores from the
// scorecard JSON block embedded in a title page. Nil when the URL is empty
// or the block is absent or carries neither score.
func (s *Scraper) RottenTomatoesScores(ctx context.Context, pageURL string) *models.RottenTomatoesScores {
	if pageURL == "" {
		return nil
	}
	doc := s.fetchDocument(ctx, pageURL)
	if doc == nil {
		return nil
	}

	raw := doc.Find("script#media-scorecard-json").First().Text()
	if raw == "" {
		return nil
	}

	var card struct {
		CriticsScore  json.RawMessage `json:"criticsScore"`
		AudienceScore json.RawMessage `json:"audienceScore"`
	}
	if err := json.Unmarshal([]byte(raw), &card); err != nil {
		return nil
	}

	critics := decodeScorecardEntry(card.CriticsScore)
	audience := decodeScorecardEntry(card.AudienceScore)
	if critics == nil && audience == nil {
		return nil
	}

	scores := &models.RottenTomatoesScores{}
	if critics != nil {
		scores.Tomatometer = intValue(critics.Score)
		scores.TomatometerState = scoreState(critics, "certified-fresh", "fresh", "rotten")
	}
	if audience != nil {
		scores.AudienceScore = intValue(audience.Score)
		scores.AudienceState = scoreState(audience, "verified-hot", "upright", "spilled")
	}
	return scores
}

func decodeScorecardEntry(raw json.RawMessage) *scorecardEntry {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	var entry scorecardEntry
	if err := json.Unmarshal(raw, &entry); err != nil {
		return nil
	}
	return &entry
}

// scoreState maps the raw certified/sentiment flags to the qualitative
// state. A missing score or an unrecognized flag combination yields nil;
// the numeric score (if any) is still reported alongside.
func scoreState(entry *scorecardEntry, certifiedPositive, positive, negative string) *string {
	if entry.Score == nil || entry.Sentiment == "" {
		return nil
	}
	switch {
	case entry.Certified && entry.Sentiment == "POSITIVE":
		return &certifiedPositive
	case !entry.Certified && entry.Sentiment == "POSITIVE":
		return &positive
	case !entry.Certified && entry.Sentiment == "NEGATIVE":
		return &negative
	}
	return nil
}

func intValue(f *flexInt) *int {
	if f == nil {
		return nil
	}
	n := int(*f)
	return &n
}
