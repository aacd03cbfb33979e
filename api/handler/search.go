package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plenzo-app/plenzo/cache"
	"github.com/plenzo-app/plenzo/models"
)

// Searcher runs one deal search. *scraper.Scraper satisfies it.
type Searcher interface {
	Search(ctx context.Context, term string) ([]models.Deal, error)
}

// Search returns a handler for GET /api/search.
//
// Contract:
//
//	missing/blank q   → 400 {"error": "Missing 'q' query parameter"}
//	zero results      → 200 {"query": ..., "results": []}
//	unexpected error  → 500 {"error": "Search failed on the server."}
//
// Error details are logged server-side and never leaked to the client.
func Search(searcher Searcher, cc *cache.Cache) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "Missing 'q' query parameter",
			})
			return
		}

		if cc != nil && cc.Enabled() {
			if deals, hit := cc.Get(cache.Key(query)); hit {
				c.JSON(http.StatusOK, models.SearchResponse{Query: query, Results: deals})
				return
			}
		}

		deals, err := searcher.Search(c.Request.Context(), query)
		if err != nil {
			slog.Error("deal search failed", "query", query, "error", err)
			c.JSON(http.StatusInternalServerError, models.ErrorResponse{
				Error: "Search failed on the server.",
			})
			return
		}
		if deals == nil {
			deals = []models.Deal{}
		}

		if cc != nil && cc.Enabled() {
			cc.Set(cache.Key(query), deals)
		}

		c.JSON(http.StatusOK, models.SearchResponse{Query: query, Results: deals})
	}
}
