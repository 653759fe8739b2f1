package ratings

import (
	"context"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/mozillazg/go-unidecode"

	"reelratings/models"
	"reelratings/utils"
)

// CommonSenseInfo resolves a title's Common Sense Media review and extracts
// its age rating. A candidate must match on media type, title similarity and
// year (exact, then ±1), and must carry both a non-empty age rating and a
// review link; anything missing skips the candidate and the scan continues.
func (s *Scraper) CommonSenseInfo(ctx context.Context, title, year, mediaType string) *models.CommonSenseInfo {
	searchURL := commonSenseSearchURL + strings.ReplaceAll(title, " ", "%20")
	doc := s.fetchDocument(ctx, searchURL)
	if doc == nil {
		return nil
	}

	wantYear, err := strconv.Atoi(year)
	if err != nil {
		return nil
	}
	wantTitle := strings.ToLower(unidecode.Unidecode(title))
	wantType := strings.ToUpper(mediaType)

	var info *models.CommonSenseInfo
	doc.Find("div.site-search-teaser").EachWithBreak(func(_ int, result *goquery.Selection) bool {
		productType := strings.TrimSpace(result.Find("div.review-teaser-type.caption").First().Text())
		if productType != wantType {
			return true
		}

		resultTitle := strings.TrimSpace(result.Find("h3.review-teaser-title").First().Text())
		if resultTitle == "" || utils.Similar(wantTitle, strings.ToLower(resultTitle)) < utils.SimilarityThreshold {
			return true
		}

		// The summary line ends with "(YYYY)".
		summary := strings.TrimSpace(result.Find("div.review-product-summary").First().Text())
		if len(summary) < 5 {
			return true
		}
		resultYear := summary[len(summary)-5 : len(summary)-1]

		for _, checkYear := range []int{wantYear, wantYear - 1, wantYear + 1} {
			if resultYear != strconv.Itoa(checkYear) {
				continue
			}
			rating := strings.TrimSpace(result.Find("span.rating__age").First().Text())
			if rating == "" {
				continue
			}
			href, ok := result.Find("a").First().Attr("href")
			if !ok || href == "" {
				continue
			}
			info = &models.CommonSenseInfo{
				URL:    "https://www.commonsensemedia.org" + href,
				Rating: rating,
			}
			return false
		}
		return true
	})
	return info
}
