// Package llm calls the hosted generativelanguage API to extract a single
// best deal for a search term, grounded by the Google Search tool.
package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/plenzo-app/plenzo/config"
	"github.com/plenzo-app/plenzo/fetch"
	"github.com/plenzo-app/plenzo/models"
)

// systemPrompt constrains the model to a pure four-key JSON object. It is the
// only output enforcement: the search grounding tool conflicts with a
// schema-validated response format, so the instruction must do the work.
const systemPrompt = "You are a deal extraction agent. The user is querying for a current deal " +
	"on a specific item from Slickdeals. Search the web and find the single, most recent and " +
	"relevant deal for the term provided. Extract ONLY the deal's title, the final price, the " +
	"direct link to the retailer (or the Slickdeals thread if retailer link is not immediately " +
	"clear), and any associated image URL if available. Provide the response as a valid, pure " +
	"JSON object with the keys: 'title', 'price', 'link', and 'imageUrl'. DO NOT include any " +
	"introductory text, markdown formatting (like ```json), or explanations outside of the " +
	"JSON object itself. The keys are mandatory."

// Client talks to the generateContent endpoint through the backoff fetcher.
type Client struct {
	cfg     config.LLMConfig
	fetcher *fetch.Client
}

// NewClient creates a Gemini client. Pass nil to use a default backoff
// fetcher built from cfg.
func NewClient(cfg config.LLMConfig, fetcher *fetch.Client) *Client {
	if fetcher == nil {
		fetcher = fetch.New(&http.Client{Timeout: cfg.Timeout}, cfg.MaxRetries)
	}
	return &Client{cfg: cfg, fetcher: fetcher}
}

// Configured reports whether an API key is available.
func (c *Client) Configured() bool {
	return c.cfg.APIKey != ""
}

// generateRequest is the generateContent request body.
type generateRequest struct {
	Contents          []content `json:"contents"`
	Tools             []tool    `json:"tools"`
	SystemInstruction *content  `json:"systemInstruction"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text string `json:"text"`
}

type tool struct {
	GoogleSearch struct{} `json:"google_search"`
}

// generateResponse is the minimal generateContent response we need.
type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// FindDeal asks the model for the single best current deal matching term.
func (c *Client) FindDeal(ctx context.Context, term string) (*models.DealCard, error) {
	if !c.Configured() {
		return nil, models.NewSearchError(models.ErrCodeLLMUnavailable,
			"no generativelanguage API key configured", nil)
	}

	userQuery := fmt.Sprintf(
		"Find the best and most current Slickdeals thread for: %s. Use this information to fill the JSON fields.",
		term,
	)
	reqBody := generateRequest{
		Contents:          []content{{Parts: []part{{Text: userQuery}}}},
		Tools:             []tool{{}},
		SystemInstruction: &content{Parts: []part{{Text: systemPrompt}}},
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	endpoint := fmt.Sprintf("%s/models/%s:generateContent?key=%s",
		strings.TrimRight(c.cfg.BaseURL, "/"), c.cfg.Model, c.cfg.APIKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.fetcher.Do(req)
	if err != nil {
		return nil, models.NewSearchError(models.ErrCodeLLMFailure,
			"deal extraction request failed", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, models.NewSearchError(models.ErrCodeLLMFailure,
			"failed to read deal extraction response", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, classifyAPIError(resp.StatusCode, respBody)
	}

	var genResp generateResponse
	if err := json.Unmarshal(respBody, &genResp); err != nil {
		return nil, models.NewSearchError(models.ErrCodeLLMFailure,
			"failed to parse deal extraction response", err)
	}

	text := firstCandidateText(&genResp)
	if text == "" {
		return nil, models.NewSearchError(models.ErrCodeLLMFailure,
			"model response was empty", nil)
	}

	var card models.DealCard
	if err := json.Unmarshal([]byte(stripCodeFences(text)), &card); err != nil {
		return nil, models.NewSearchError(models.ErrCodeLLMFailure,
			"model did not return valid deal JSON", err)
	}

	return &card, nil
}

// firstCandidateText returns the text of the first part of the first
// candidate, or "".
func firstCandidateText(r *generateResponse) string {
	if len(r.Candidates) == 0 {
		return ""
	}
	parts := r.Candidates[0].Content.Parts
	if len(parts) == 0 {
		return ""
	}
	return strings.TrimSpace(parts[0].Text)
}

// stripCodeFences removes a surrounding markdown code fence. The system
// prompt forbids fences but models still emit them occasionally.
func stripCodeFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```json")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// classifyAPIError maps HTTP status codes to typed errors, keeping a body
// snippet for the user-visible message.
func classifyAPIError(statusCode int, body []byte) *models.SearchError {
	snippet := string(body)
	if len(snippet) > 100 {
		snippet = snippet[:100] + "..."
	}
	msg := fmt.Sprintf("API returned error status %d: %s", statusCode, snippet)

	if statusCode == http.StatusTooManyRequests {
		return models.NewSearchError(models.ErrCodeLLMRateLimited, msg, nil)
	}
	return models.NewSearchError(models.ErrCodeLLMFailure, msg, nil)
}
