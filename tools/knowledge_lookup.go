package tools

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/tidwall/gjson"

	"github.com/petasbytes/toolgraph/internal/metrics"
)

type KnowledgeLookupInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Topic or question to look up in the encyclopedia."`
}

// noWikipediaResult is returned (as a success) when the search has no hit.
const noWikipediaResult = "No good Wikipedia Search Result was found"

// Wikipedia looks up the best matching article and returns its lead summary.
type Wikipedia struct {
	http     httpClient
	baseURL  string
	maxChars int
}

func NewWikipedia(h *HTTPOptions, baseURL string, maxChars int) *Wikipedia {
	if maxChars <= 0 {
		maxChars = 500
	}
	return &Wikipedia{http: h.client(), baseURL: strings.TrimRight(baseURL, "/"), maxChars: maxChars}
}

func KnowledgeLookupDefinition(w *Wikipedia) ToolDefinition {
	return NewTool("knowledge_lookup",
		"Look up a short encyclopedic summary (Wikipedia) for a topic. Use for definitions, background and facts about well-known subjects.",
		func(ctx context.Context, in KnowledgeLookupInput) Result {
			return w.Lookup(ctx, in.Query)
		})
}

// Lookup searches for query, takes the top hit and returns
// "Page: <title>\nSummary: <extract>" clamped to the configured length.
func (w *Wikipedia) Lookup(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Failure(ErrInvalidArgs, "query must not be empty")
	}

	search := url.Values{
		"action":   {"query"},
		"list":     {"search"},
		"srsearch": {query},
		"srlimit":  {"1"},
		"format":   {"json"},
	}
	body, err := w.http.get(ctx, w.baseURL+"/w/api.php?"+search.Encode())
	if err != nil {
		return Failure(classify(err), "wikipedia search: %v", err)
	}
	title := gjson.GetBytes(body, "query.search.0.title").String()
	if title == "" {
		return Success(noWikipediaResult)
	}

	page := url.PathEscape(strings.ReplaceAll(title, " ", "_"))
	body, err = w.http.get(ctx, w.baseURL+"/api/rest_v1/page/summary/"+page)
	if err != nil {
		return Failure(classify(err), "wikipedia summary for %q: %v", title, err)
	}
	extract := strings.TrimSpace(gjson.GetBytes(body, "extract").String())
	if extract == "" {
		return Success(noWikipediaResult)
	}

	out, _ := metrics.Truncate(fmt.Sprintf("Page: %s\nSummary: %s", title, extract), w.maxChars)
	return Success(out)
}
