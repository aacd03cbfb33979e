// Command plenzo-mcp is an MCP stdio server exposing the Plenzo HTTP API as
// tools, so agent runtimes can search deals directly.
package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

func main() {
	apiURL := os.Getenv("PLENZO_API_URL")
	if apiURL == "" {
		apiURL = "http://127.0.0.1:8080"
	}

	s := server.NewMCPServer(
		"plenzo",
		"0.1.0",
		server.WithToolCapabilities(false),
	)

	searchDealsTool := mcp.NewTool("search_deals",
		mcp.WithDescription("Search the deals forum for a product and return up to three current deals (rank, title, link, image URL). Uses a headless browser server-side."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text product to find deals for, e.g. 'laptop'"),
		),
	)
	s.AddTool(searchDealsTool, handleAPIQuery(apiURL, "/api/search"))

	findDealTool := mcp.NewTool("find_deal",
		mcp.WithDescription("Ask the AI deal extraction agent for the single best current deal on a product. Returns a JSON object with title, price, link and imageUrl."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("Free-text product to find a deal for"),
		),
	)
	s.AddTool(findDealTool, handleAPIQuery(apiURL, "/api/deal"))

	if err := server.ServeStdio(s); err != nil {
		fmt.Fprintf(os.Stderr, "server error: %v\n", err)
		os.Exit(1)
	}
}

// handleAPIQuery returns a tool handler that forwards the query to a Plenzo
// API endpoint and relays the JSON body.
func handleAPIQuery(apiURL, path string) server.ToolHandlerFunc {
	client := &http.Client{Timeout: 120 * time.Second}

	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		query, err := request.RequireString("query")
		if err != nil {
			return mcp.NewToolResultError("query is required"), nil
		}

		endpoint := apiURL + path + "?q=" + url.QueryEscape(query)
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to create request: %v", err)), nil
		}

		resp, err := client.Do(req)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("API request failed: %v", err)), nil
		}
		defer resp.Body.Close()

		body, err := io.ReadAll(resp.Body)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("failed to read response: %v", err)), nil
		}

		if resp.StatusCode != http.StatusOK {
			return mcp.NewToolResultError(fmt.Sprintf("API returned %d: %s", resp.StatusCode, string(body))), nil
		}

		return mcp.NewToolResultText(string(body)), nil
	}
}
