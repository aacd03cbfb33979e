package scraper

import (
	"context"
	"log/slog"
	"net/url"
	"strconv"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
	"github.com/ysmood/gson"

	"github.com/plenzo-app/plenzo/models"
)

// Search runs one deal search for term and returns up to MaxResults deals.
//
// Failure semantics: navigation errors, wait timeouts, and pages without any
// result rows are logged and reported as zero results, not as errors. Only a
// failure to obtain a working page (pool exhaustion, browser crash) is
// returned as an error.
func (s *Scraper) Search(ctx context.Context, term string) ([]models.Deal, error) {
	ctx, cancel := context.WithTimeout(ctx, s.searchCfg.SearchTimeout)
	defer cancel()

	queryURL := s.searchURL(term)

	if s.searchCfg.FetchMode == "http" {
		if deals, ok := s.searchViaHTTP(ctx, queryURL); ok {
			return deals, nil
		}
		// Shell page or fetch failure: escalate to the browser.
	}

	return s.searchViaBrowser(ctx, queryURL)
}

// searchURL builds the forum search URL with the term URL-encoded.
func (s *Scraper) searchURL(term string) string {
	q := url.Values{}
	q.Set("forumchoice[]", strconv.Itoa(s.searchCfg.ForumID))
	q.Set("q", term)
	q.Set("showposts", "0")
	return s.searchCfg.BaseURL + "/newsearch.php?" + q.Encode()
}

// searchViaHTTP fetches the results page over plain HTTP with a Chrome TLS
// fingerprint. The second return value is false when the browser path should
// be used instead (fetch failed or the page looks JS-rendered).
func (s *Scraper) searchViaHTTP(ctx context.Context, queryURL string) ([]models.Deal, bool) {
	body, err := s.httpFetcher.fetch(ctx, queryURL)
	if err != nil {
		slog.Warn("http fetch failed, falling back to browser",
			"url", queryURL, "error", err)
		return nil, false
	}
	if needsBrowser(body) {
		slog.Debug("results page looks JS-rendered, falling back to browser",
			"url", queryURL)
		return nil, false
	}
	return s.extract(string(body), queryURL), true
}

// searchViaBrowser is the rod-based path.
//
// Lifecycle:
//
//  1. Acquire page       – borrow a tab from the pool (or create one)
//  2. DEFER: cleanup     – about:blank + return to pool (leak prevention)
//  3. Stealth injection  – mask navigator.webdriver etc. (before navigation)
//  4. Identity           – user agent override + Google referer header
//  5. Hijack mount       – block images/CSS/fonts/media (before navigation)
//  6. Context binding    – propagate the search deadline to all Rod calls
//  7. Navigate           – triggers page load
//  8. Wait               – bounded wait for the first result container
//  9. Extract            – rendered HTML → deals
//
// Step 2's about:blank uses the ORIGINAL page reference (without request
// context), so cleanup succeeds even if the request context has expired.
func (s *Scraper) searchViaBrowser(ctx context.Context, queryURL string) ([]models.Deal, error) {
	// ── 1. Acquire page from pool ─────────────────────────────────────
	s.activePages.Add(1)
	defer s.activePages.Add(-1)

	page, acquireErr := s.pagePool.Get(func() (*rod.Page, error) {
		return s.browser.Page(proto.TargetCreateTarget{})
	})
	if acquireErr != nil {
		return nil, models.NewSearchError(
			models.ErrCodeBrowserCrash,
			"failed to acquire page from pool",
			acquireErr,
		)
	}

	// ── 2. CRITICAL DEFER: prevent DOM memory leak + guarantee pool return
	defer func() {
		if navErr := page.Navigate("about:blank"); navErr != nil {
			slog.Warn("cleanup: failed to navigate to about:blank",
				"error", navErr,
			)
		}
		s.pagePool.Put(page)
	}()

	// ── 3. Stealth injection ──────────────────────────────────────────
	if s.searchCfg.Stealth {
		if _, evalErr := page.EvalOnNewDocument(stealth.JS); evalErr != nil {
			slog.Warn("stealth injection failed, proceeding without stealth",
				"error", evalErr,
			)
		}
	}

	// ── 4. Browser identity ───────────────────────────────────────────
	_ = proto.NetworkSetUserAgentOverride{
		UserAgent: s.browserCfg.UserAgent,
	}.Call(page)
	if u, parseErr := url.Parse(queryURL); parseErr == nil {
		_ = proto.NetworkSetExtraHTTPHeaders{
			Headers: proto.NetworkHeaders{
				"Referer": gson.New("https://www.google.com/search?q=" + url.QueryEscape(u.Hostname())),
			},
		}.Call(page)
	}

	// ── 5. Mount hijack router (blocks Image/Stylesheet/Font/Media) ──
	router := setupHijack(page, s.searchCfg.BlockedResourceTypes)
	if router != nil {
		defer func() { _ = router.Stop() }()
	}

	// ── 6. Bind search deadline to page ───────────────────────────────
	p := page.Context(ctx)

	// ── 7. Navigate ───────────────────────────────────────────────────
	if navErr := p.Navigate(queryURL); navErr != nil {
		slog.Warn("navigation failed, treating as zero results",
			"url", queryURL, "error", navErr)
		return []models.Deal{}, nil
	}

	// ── 8. Bounded wait for the first result container ────────────────
	if _, waitErr := p.Timeout(s.searchCfg.WaitTimeout).Element(s.searchCfg.ResultSelector); waitErr != nil {
		slog.Info("no result rows appeared within the wait window",
			"url", queryURL,
			"selector", s.searchCfg.ResultSelector,
			"timeout", s.searchCfg.WaitTimeout,
			"error", waitErr,
		)
		return []models.Deal{}, nil
	}

	// ── 9. Extract ────────────────────────────────────────────────────
	rawHTML, htmlErr := p.HTML()
	if htmlErr != nil {
		slog.Warn("failed to read rendered HTML, treating as zero results",
			"url", queryURL, "error", htmlErr)
		return []models.Deal{}, nil
	}

	finalURL := evalStringOrEmpty(p, `() => window.location.href`)
	if finalURL == "" {
		finalURL = queryURL
	}

	return s.extract(rawHTML, finalURL), nil
}

// extract parses the results page and applies the row extraction rules.
func (s *Scraper) extract(rawHTML, pageURL string) []models.Deal {
	deals := extractDeals(rawHTML, pageURL, s.searchCfg)
	slog.Debug("extraction complete", "url", pageURL, "deals", len(deals))
	return deals
}

// evalStringOrEmpty evaluates a JS expression and returns the string result,
// swallowing any errors (useful for optional metadata extraction).
func evalStringOrEmpty(page *rod.Page, js string) string {
	res, err := page.Eval(js)
	if err != nil {
		return ""
	}
	return res.Value.Str()
}
