package models

// Deal is one extracted search result row.
//
// Rank is 1-based and dense: rows that fail extraction are dropped and the
// surviving rows are renumbered, so rank never has gaps. Link and ImageURL
// are null when the source row carried the element but not the attribute.
type Deal struct {
	Rank     int     `json:"rank"`
	Title    string  `json:"title"`
	Link     *string `json:"link"`
	ImageURL *string `json:"imageUrl"`
}

// DealCard is the LLM path's single-deal result. All four keys are mandated
// by the extraction instruction sent to the model.
type DealCard struct {
	Title    string `json:"title"`
	Price    string `json:"price"`
	Link     string `json:"link"`
	ImageURL string `json:"imageUrl"`
}

// SearchResponse is the body for GET /api/search.
type SearchResponse struct {
	Query   string `json:"query"`
	Results []Deal `json:"results"`
}

// ErrorResponse is the body for all API error statuses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// PoolStats is a snapshot of browser page pool utilisation.
type PoolStats struct {
	MaxPages    int `json:"max_pages"`
	ActivePages int `json:"active_pages"`
}

// HealthResponse is the body for GET /api/health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Uptime    string    `json:"uptime"`
	PoolStats PoolStats `json:"pool"`
	Version   string    `json:"version"`
}
