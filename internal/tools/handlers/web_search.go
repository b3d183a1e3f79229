package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/agentcore/orchestrator/internal/tools"
)

// WebSearchEndpointEnv names the environment variable holding the search
// provider's base URL. The handler issues `GET <endpoint>?q=<query>&num=<n>`
// and expects a JSON array of {"title","url","snippet"} objects back —
// deliberately provider-agnostic so a Brave/SerpAPI/self-hosted proxy can
// all sit behind it without a handler change.
const WebSearchEndpointEnv = "WEB_SEARCH_ENDPOINT"

// WebSearchTool implements the web_search built-in (§4.B): query -> ranked
// results. No pack example repo imports a dedicated search-engine client —
// every hit is a plain HTTP GET against a configurable provider, so this
// stays on net/http rather than adopting a library with no real use here.
type WebSearchTool struct {
	httpClient *http.Client
}

// NewWebSearchTool creates a new web_search handler.
func NewWebSearchTool() *WebSearchTool {
	return &WebSearchTool{httpClient: &http.Client{Timeout: 30 * time.Second}}
}

func (t *WebSearchTool) Name() string {
	return "web_search"
}

func (t *WebSearchTool) Kind() tools.ToolKind {
	return tools.ToolKindFunction
}

// IsMutating is false: web_search only reads from an external index.
func (t *WebSearchTool) IsMutating(_ *tools.ToolInvocation) bool {
	return false
}

type webSearchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Snippet string `json:"snippet"`
}

// Handle issues the search request and returns the results as formatted
// text content (§4.B "content: list of typed parts (text | image)" —
// search results are always text parts).
func (t *WebSearchTool) Handle(ctx context.Context, invocation *tools.ToolInvocation) (*tools.ToolOutput, error) {
	query, ok := invocation.Arguments["query"].(string)
	if !ok {
		return nil, tools.NewValidationError("query must be a string")
	}
	if query == "" {
		return nil, tools.NewValidationError("query cannot be empty")
	}

	numResults := 5
	if raw, ok := invocation.Arguments["num_results"]; ok {
		switch v := raw.(type) {
		case float64:
			numResults = int(v)
		case int:
			numResults = v
		}
	}
	if numResults <= 0 {
		numResults = 5
	}

	endpoint := os.Getenv(WebSearchEndpointEnv)
	if endpoint == "" {
		success := false
		return &tools.ToolOutput{
			Content: fmt.Sprintf("web_search unavailable: %s is not configured", WebSearchEndpointEnv),
			Success: &success,
		}, nil
	}

	reqURL := fmt.Sprintf("%s?q=%s&num=%s", endpoint, url.QueryEscape(query), strconv.Itoa(numResults))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, tools.NewValidationError("invalid search endpoint: " + err.Error())
	}

	resp, err := t.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		success := false
		return &tools.ToolOutput{Content: fmt.Sprintf("web_search request failed: %v", err), Success: &success}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		success := false
		return &tools.ToolOutput{Content: fmt.Sprintf("web_search provider returned status %d", resp.StatusCode), Success: &success}, nil
	}

	var results []webSearchResult
	if err := json.NewDecoder(resp.Body).Decode(&results); err != nil {
		success := false
		return &tools.ToolOutput{Content: fmt.Sprintf("web_search response decode failed: %v", err), Success: &success}, nil
	}

	content := formatSearchResults(results, numResults)
	success := true
	return &tools.ToolOutput{Content: content, Success: &success}, nil
}

func formatSearchResults(results []webSearchResult, limit int) string {
	if len(results) > limit {
		results = results[:limit]
	}
	if len(results) == 0 {
		return "no results"
	}
	out := ""
	for i, r := range results {
		out += fmt.Sprintf("%d. %s (%s)\n%s\n", i+1, r.Title, r.URL, r.Snippet)
	}
	return out
}
