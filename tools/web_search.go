package tools

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"

	"github.com/petasbytes/toolgraph/internal/metrics"
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Search query."`
}

const (
	noWebResult        = "No good web search result was found"
	webResultMaxChars  = 4000
	defaultTavilyLimit = 5
)

// Tavily queries the Tavily search API.
type Tavily struct {
	http       httpClient
	apiKey     string
	endpoint   string
	maxResults int
}

func NewTavily(h *HTTPOptions, apiKey, endpoint string, maxResults int) *Tavily {
	if maxResults <= 0 {
		maxResults = defaultTavilyLimit
	}
	return &Tavily{http: h.client(), apiKey: apiKey, endpoint: endpoint, maxResults: maxResults}
}

func WebSearchDefinition(t *Tavily) ToolDefinition {
	return NewTool("web_search",
		"Search the web for current information. Returns ranked results with title, URL and a content snippet.",
		func(ctx context.Context, in SearchInput) Result {
			return t.Search(ctx, in.Query)
		})
}

// Search returns the ranked results for query, one numbered block per hit.
func (t *Tavily) Search(ctx context.Context, query string) Result {
	if t.apiKey == "" {
		return Failure(ErrNotConfigured, "web_search: TAVILY_API_KEY is not set")
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return Failure(ErrInvalidArgs, "query must not be empty")
	}

	payload, _ := sjson.SetBytes([]byte(`{}`), "query", query)
	payload, _ = sjson.SetBytes(payload, "max_results", t.maxResults)
	payload, _ = sjson.SetBytes(payload, "search_depth", "basic")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.endpoint, bytes.NewReader(payload))
	if err != nil {
		return Failure(ErrInvalidArgs, "web_search: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+t.apiKey)

	body, err := t.http.do(ctx, req)
	if err != nil {
		return Failure(classify(err), "web_search: %v", err)
	}

	var blocks []string
	gjson.GetBytes(body, "results").ForEach(func(_, r gjson.Result) bool {
		blocks = append(blocks, fmt.Sprintf("%d. %s\nURL: %s\n%s",
			len(blocks)+1,
			r.Get("title").String(),
			r.Get("url").String(),
			strings.TrimSpace(r.Get("content").String())))
		return true
	})
	if len(blocks) == 0 {
		return Success(noWebResult)
	}
	out, _ := metrics.Truncate(strings.Join(blocks, "\n\n"), webResultMaxChars)
	return Success(out)
}
