package scraper

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/plenzo-app/plenzo/config"
	"github.com/plenzo-app/plenzo/models"
)

// extractDeals pulls up to cfg.MaxResults deals out of a rendered results
// page. Rows are visited in document order; a row missing its image block,
// the image inside it, its link block, or the anchor inside that is dropped
// entirely, and later rows take its place. Ranks are assigned 1..k over the
// surviving rows, so a skipped row never leaves a gap.
//
// A present element with a missing attribute is not a row failure: the
// corresponding field is simply null.
func extractDeals(rawHTML, pageURL string, cfg config.SearchConfig) []models.Deal {
	deals := []models.Deal{}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return deals
	}

	base, err := url.Parse(pageURL)
	if err != nil {
		base = nil
	}

	doc.Find(cfg.ResultSelector).EachWithBreak(func(_ int, row *goquery.Selection) bool {
		deal, ok := extractRow(row, base, cfg)
		if ok {
			deal.Rank = len(deals) + 1
			deals = append(deals, deal)
		}
		return len(deals) < cfg.MaxResults
	})

	return deals
}

// extractRow reads one result container. ok is false when the row is
// structurally incomplete and must be skipped.
func extractRow(row *goquery.Selection, base *url.URL, cfg config.SearchConfig) (models.Deal, bool) {
	imgBlock := row.Find(cfg.ImageSelector).First()
	if imgBlock.Length() == 0 {
		return models.Deal{}, false
	}
	img := imgBlock.Find("img").First()
	if img.Length() == 0 {
		return models.Deal{}, false
	}

	// Lazy-load attribute wins; fall back to src when it is absent or empty.
	var imageURL *string
	if v, ok := img.Attr(cfg.LazyImageAttr); ok && v != "" {
		imageURL = resolveRef(base, v)
	} else if v, ok := img.Attr("src"); ok && v != "" {
		imageURL = resolveRef(base, v)
	}

	linkBlock := row.Find(cfg.LinkSelector).First()
	if linkBlock.Length() == 0 {
		return models.Deal{}, false
	}
	anchor := linkBlock.Find("a").First()
	if anchor.Length() == 0 {
		return models.Deal{}, false
	}

	var link *string
	if href, ok := anchor.Attr("href"); ok && strings.TrimSpace(href) != "" {
		link = resolveRef(base, strings.TrimSpace(href))
	}

	return models.Deal{
		Title:    strings.TrimSpace(anchor.Text()),
		Link:     link,
		ImageURL: imageURL,
	}, true
}

// resolveRef resolves ref against base, returning ref untouched when it does
// not parse or no base is available.
func resolveRef(base *url.URL, ref string) *string {
	if base == nil {
		return &ref
	}
	parsed, err := url.Parse(ref)
	if err != nil {
		return &ref
	}
	resolved := base.ResolveReference(parsed).String()
	return &resolved
}
