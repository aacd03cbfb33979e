package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/plenzo-app/plenzo/models"
)

// DealFinder extracts a single best deal via the hosted model.
// *llm.Client satisfies it.
type DealFinder interface {
	Configured() bool
	FindDeal(ctx context.Context, term string) (*models.DealCard, error)
}

// Deal returns a handler for GET /api/deal.
//
// Unlike the search path, model failures are surfaced to the caller: the
// front end shows the underlying message after backoff exhaustion.
func Deal(finder DealFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		query := strings.TrimSpace(c.Query("q"))
		if query == "" {
			c.JSON(http.StatusBadRequest, models.ErrorResponse{
				Error: "Missing 'q' query parameter",
			})
			return
		}

		if !finder.Configured() {
			c.JSON(http.StatusServiceUnavailable, models.ErrorResponse{
				Error: "Deal extraction is not configured on this server.",
			})
			return
		}

		card, err := finder.FindDeal(c.Request.Context(), query)
		if err != nil {
			slog.Warn("deal extraction failed", "query", query, "error", err)
			status, msg := dealErrorStatus(err)
			c.JSON(status, models.ErrorResponse{Error: msg})
			return
		}

		c.JSON(http.StatusOK, card)
	}
}

// dealErrorStatus maps extraction errors to HTTP statuses, keeping the
// user-visible message.
func dealErrorStatus(err error) (int, string) {
	var se *models.SearchError
	if !errors.As(err, &se) {
		return http.StatusBadGateway, err.Error()
	}
	switch se.Code {
	case models.ErrCodeLLMRateLimited:
		return http.StatusTooManyRequests, se.Message
	case models.ErrCodeLLMUnavailable:
		return http.StatusServiceUnavailable, se.Message
	default:
		return http.StatusBadGateway, se.Message
	}
}
