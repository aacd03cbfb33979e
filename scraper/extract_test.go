package scraper

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/plenzo-app/plenzo/config"
)

func testSearchConfig() config.SearchConfig {
	return config.SearchConfig{
		BaseURL:        "https://slickdeals.net",
		ForumID:        9,
		ResultSelector: ".resultRow",
		ImageSelector:  ".dealImg",
		LinkSelector:   ".dealWrapper",
		LazyImageAttr:  "data-original",
		MaxResults:     3,
		FetchMode:      "browser",
	}
}

// goodRow renders a fully-formed result row.
func goodRow(n int) string {
	return fmt.Sprintf(`
		<div class="resultRow">
			<div class="dealImg"><img data-original="/img/%d.jpg" src="/placeholder.gif"></div>
			<div class="dealWrapper"><a href="/f/deal-%d"> Deal %d </a></div>
		</div>`, n, n, n)
}

func page(rows ...string) string {
	return "<html><body>" + strings.Join(rows, "\n") + "</body></html>"
}

func TestExtractDeals_HappyPath(t *testing.T) {
	deals := extractDeals(page(goodRow(1), goodRow(2)), "https://slickdeals.net/newsearch.php?q=camera", testSearchConfig())

	require.Len(t, deals, 2)
	assert.Equal(t, 1, deals[0].Rank)
	assert.Equal(t, "Deal 1", deals[0].Title)
	require.NotNil(t, deals[0].Link)
	assert.Equal(t, "https://slickdeals.net/f/deal-1", *deals[0].Link)
	require.NotNil(t, deals[0].ImageURL)
	assert.Equal(t, "https://slickdeals.net/img/1.jpg", *deals[0].ImageURL, "lazy-load attribute wins over src")
}

func TestExtractDeals_CapsAtMaxResults(t *testing.T) {
	deals := extractDeals(page(goodRow(1), goodRow(2), goodRow(3), goodRow(4), goodRow(5)),
		"https://slickdeals.net/", testSearchConfig())

	require.Len(t, deals, 3)
	assert.Equal(t, "Deal 3", deals[2].Title)
}

func TestExtractDeals_SkippedRowsAreReplacedAndRanksCompact(t *testing.T) {
	// Rows 2 and 4 are malformed (no link block): later rows take their
	// place and ranks stay dense.
	broken := `<div class="resultRow"><div class="dealImg"><img src="/x.jpg"></div></div>`
	deals := extractDeals(page(goodRow(1), broken, goodRow(3), broken, goodRow(5)),
		"https://slickdeals.net/", testSearchConfig())

	require.Len(t, deals, 3)
	assert.Equal(t, []int{1, 2, 3}, []int{deals[0].Rank, deals[1].Rank, deals[2].Rank})
	assert.Equal(t, "Deal 1", deals[0].Title)
	assert.Equal(t, "Deal 3", deals[1].Title)
	assert.Equal(t, "Deal 5", deals[2].Title)
}

func TestExtractDeals_MissingImageBlockDropsRow(t *testing.T) {
	noImg := `
		<div class="resultRow">
			<div class="dealWrapper"><a href="/f/no-img">No image deal</a></div>
		</div>`
	deals := extractDeals(page(noImg, goodRow(2)), "https://slickdeals.net/", testSearchConfig())

	require.Len(t, deals, 1, "a row without its image block is dropped, not returned with a null image")
	assert.Equal(t, "Deal 2", deals[0].Title)
	assert.Equal(t, 1, deals[0].Rank)
}

func TestExtractDeals_MissingImgTagDropsRow(t *testing.T) {
	emptyImgBlock := `
		<div class="resultRow">
			<div class="dealImg"></div>
			<div class="dealWrapper"><a href="/f/x">X</a></div>
		</div>`
	deals := extractDeals(page(emptyImgBlock), "https://slickdeals.net/", testSearchConfig())
	assert.Empty(t, deals)
}

func TestExtractDeals_MissingAnchorDropsRow(t *testing.T) {
	noAnchor := `
		<div class="resultRow">
			<div class="dealImg"><img src="/x.jpg"></div>
			<div class="dealWrapper"><span>not a link</span></div>
		</div>`
	deals := extractDeals(page(noAnchor), "https://slickdeals.net/", testSearchConfig())
	assert.Empty(t, deals)
}

func TestExtractDeals_MissingAttributesYieldNullFields(t *testing.T) {
	// The elements are all present, so the row survives; the absent
	// attributes become nulls.
	bareRow := `
		<div class="resultRow">
			<div class="dealImg"><img alt="no source"></div>
			<div class="dealWrapper"><a>Attribute-free deal</a></div>
		</div>`
	deals := extractDeals(page(bareRow), "https://slickdeals.net/", testSearchConfig())

	require.Len(t, deals, 1)
	assert.Equal(t, "Attribute-free deal", deals[0].Title)
	assert.Nil(t, deals[0].Link)
	assert.Nil(t, deals[0].ImageURL)
}

func TestExtractDeals_EmptyLazyAttrFallsBackToSrc(t *testing.T) {
	row := `
		<div class="resultRow">
			<div class="dealImg"><img data-original="" src="/real.jpg"></div>
			<div class="dealWrapper"><a href="/f/x">X</a></div>
		</div>`
	deals := extractDeals(page(row), "https://slickdeals.net/", testSearchConfig())

	require.Len(t, deals, 1)
	require.NotNil(t, deals[0].ImageURL)
	assert.Equal(t, "https://slickdeals.net/real.jpg", *deals[0].ImageURL)
}

func TestExtractDeals_TitleIsTrimmedAndLinksResolved(t *testing.T) {
	row := `
		<div class="resultRow">
			<div class="dealImg"><img src="//cdn.example.com/i.jpg"></div>
			<div class="dealWrapper"><a href="f/relative-deal">
				  Spacious   title
			</a></div>
		</div>`
	deals := extractDeals(page(row), "https://slickdeals.net/newsearch.php?q=x", testSearchConfig())

	require.Len(t, deals, 1)
	assert.Equal(t, "Spacious   title", deals[0].Title)
	require.NotNil(t, deals[0].Link)
	assert.Equal(t, "https://slickdeals.net/f/relative-deal", *deals[0].Link)
	require.NotNil(t, deals[0].ImageURL)
	assert.Equal(t, "https://cdn.example.com/i.jpg", *deals[0].ImageURL, "protocol-relative URLs inherit the page scheme")
}

func TestExtractDeals_NoRowsYieldsEmptySlice(t *testing.T) {
	deals := extractDeals("<html><body><p>nothing here</p></body></html>",
		"https://slickdeals.net/", testSearchConfig())

	assert.NotNil(t, deals)
	assert.Empty(t, deals)
}

func TestExtractDeals_FirstAnchorWins(t *testing.T) {
	row := `
		<div class="resultRow">
			<div class="dealImg"><img src="/x.jpg"></div>
			<div class="dealWrapper">
				<a href="/f/main">Main deal</a>
				<a href="/f/secondary">See more</a>
			</div>
		</div>`
	deals := extractDeals(page(row), "https://slickdeals.net/", testSearchConfig())

	require.Len(t, deals, 1)
	assert.Equal(t, "Main deal", deals[0].Title)
	assert.Equal(t, "https://slickdeals.net/f/main", *deals[0].Link)
}
