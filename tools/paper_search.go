package tools

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/petasbytes/toolgraph/internal/metrics"
)

const noArxivResult = "No good Arxiv Result was found"

// Subset of the arXiv Atom feed.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	Title     string `xml:"title"`
	Summary   string `xml:"summary"`
	Published string `xml:"published"`
	Authors   []struct {
		Name string `xml:"name"`
	} `xml:"author"`
}

// Arxiv searches the arXiv export API.
type Arxiv struct {
	http       httpClient
	baseURL    string
	maxResults int
	maxChars   int
}

func NewArxiv(h *HTTPOptions, baseURL string, maxResults, maxChars int) *Arxiv {
	if maxResults <= 0 {
		maxResults = 3
	}
	if maxChars <= 0 {
		maxChars = 4000
	}
	return &Arxiv{http: h.client(), baseURL: baseURL, maxResults: maxResults, maxChars: maxChars}
}

func PaperSearchDefinition(a *Arxiv) ToolDefinition {
	return NewTool("paper_search",
		"Search arXiv for scientific papers. Returns publication date, title, authors and abstract of the best matches.",
		func(ctx context.Context, in SearchInput) Result {
			return a.Search(ctx, in.Query)
		})
}

func (a *Arxiv) Search(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Failure(ErrInvalidArgs, "query must not be empty")
	}

	q := url.Values{
		"search_query": {"all:" + query},
		"start":        {"0"},
		"max_results":  {strconv.Itoa(a.maxResults)},
	}
	body, err := a.http.get(ctx, a.baseURL+"?"+q.Encode())
	if err != nil {
		return Failure(classify(err), "paper_search: %v", err)
	}

	var feed arxivFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return Failure(ErrUpstream, "paper_search: decode feed: %v", err)
	}
	if len(feed.Entries) == 0 {
		return Success(noArxivResult)
	}

	blocks := make([]string, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		names := make([]string, 0, len(e.Authors))
		for _, au := range e.Authors {
			names = append(names, strings.TrimSpace(au.Name))
		}
		published := strings.TrimSpace(e.Published)
		if len(published) >= 10 {
			published = published[:10]
		}
		blocks = append(blocks, fmt.Sprintf("Published: %s\nTitle: %s\nAuthors: %s\nSummary: %s",
			published, collapse(e.Title), strings.Join(names, ", "), collapse(e.Summary)))
	}
	out, _ := metrics.Truncate(strings.Join(blocks, "\n\n"), a.maxChars)
	return Success(out)
}
