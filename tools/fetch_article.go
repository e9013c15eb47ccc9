package tools

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/petasbytes/toolgraph/internal/metrics"
	"github.com/petasbytes/toolgraph/internal/safety"
)

type FetchArticleInput struct {
	URL string `json:"url" jsonschema:"required" jsonschema_description:"Absolute http(s) URL of the page to read."`
}

type MediumSearchInput struct {
	Query string `json:"query" jsonschema:"required" jsonschema_description:"Search terms for Medium articles."`
}

const (
	articleMaxChars = 4000
	linksMaxChars   = 2000

	// fetchErrorPrefix starts the text of every failed fetch.
	fetchErrorPrefix = "Error fetching URL: "

	defaultMediumSearchURL = "https://medium.com/search"
)

// Elements never considered page content.
const boilerplate = "script, style, noscript, template, svg, nav, header, footer, aside, form, iframe"

// Fetcher downloads pages and turns them into model-sized text.
type Fetcher struct {
	http   httpClient
	robots *safety.RobotsChecker

	// MediumSearchURL is the search endpoint used by MediumSearch.
	MediumSearchURL string
}

// NewFetcher returns a Fetcher. A nil robots checker skips robots.txt.
func NewFetcher(h *HTTPOptions, robots *safety.RobotsChecker) *Fetcher {
	return &Fetcher{http: h.client(), robots: robots, MediumSearchURL: defaultMediumSearchURL}
}

func FetchArticleDefinition(f *Fetcher) ToolDefinition {
	return NewTool("fetch_article",
		"Download a web page and return its main readable text (first 4000 characters). Use when you have a specific URL to read.",
		func(ctx context.Context, in FetchArticleInput) Result {
			return f.FetchArticle(ctx, in.URL)
		})
}

func ExtractLinksDefinition(f *Fetcher) ToolDefinition {
	return NewTool("extract_links",
		"List the links of a web page as \"Text: '...' | URL: '...'\" lines (first 2000 characters). Use to discover pages to read next.",
		func(ctx context.Context, in FetchArticleInput) Result {
			return f.ExtractLinks(ctx, in.URL)
		})
}

func MediumSearchDefinition(f *Fetcher) ToolDefinition {
	return NewTool("medium_search",
		"Search Medium.com for articles and return the result links.",
		func(ctx context.Context, in MediumSearchInput) Result {
			return f.MediumSearch(ctx, in.Query)
		})
}

// FetchArticle returns the dominant text of the page at rawURL.
func (f *Fetcher) FetchArticle(ctx context.Context, rawURL string) Result {
	doc, res := f.load(ctx, rawURL)
	if doc == nil {
		return res
	}
	text := articleText(doc)
	out, _ := metrics.Truncate(text, articleMaxChars)
	return Success(out)
}

// ExtractLinks returns one line per anchor that has visible text.
func (f *Fetcher) ExtractLinks(ctx context.Context, rawURL string) Result {
	doc, res := f.load(ctx, rawURL)
	if doc == nil {
		return res
	}
	var lines []string
	doc.Find("a[href]").Each(func(_ int, a *goquery.Selection) {
		text := strings.TrimSpace(spacedText(a))
		if text == "" {
			return
		}
		href, _ := a.Attr("href")
		lines = append(lines, fmt.Sprintf("Text: '%s' | URL: '%s'", text, href))
	})
	out, _ := metrics.Truncate(strings.Join(lines, "\n"), linksMaxChars)
	return Success(out)
}

// MediumSearch runs ExtractLinks on Medium's search page for query.
func (f *Fetcher) MediumSearch(ctx context.Context, query string) Result {
	query = strings.TrimSpace(query)
	if query == "" {
		return Failure(ErrInvalidArgs, "query must not be empty")
	}
	return f.ExtractLinks(ctx, f.MediumSearchURL+"?q="+url.QueryEscape(query))
}

// load validates, checks robots.txt and parses the page. On failure it
// returns a nil document and the Result to hand back.
func (f *Fetcher) load(ctx context.Context, rawURL string) (*goquery.Document, Result) {
	u, err := safety.ValidateURL(rawURL)
	if err != nil {
		code := ErrInvalidURL
		if errors.Is(err, safety.ErrDeniedURL) {
			code = ErrDeniedURL
		}
		return nil, fetchFailure(code, err)
	}
	if f.robots != nil {
		if err := f.robots.Check(ctx, u); err != nil {
			return nil, fetchFailure(ErrDeniedURL, err)
		}
	}

	body, err := f.http.get(ctx, u.String())
	if err != nil {
		return nil, fetchFailure(classify(err), err)
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fetchFailure(ErrUpstream, fmt.Errorf("parse HTML: %w", err))
	}
	return doc, Result{}
}

func fetchFailure(code ErrorCode, err error) Result {
	return Result{
		Text: fetchErrorPrefix + err.Error(),
		Err:  &ToolError{Code: code, Message: err.Error()},
	}
}

// articleText prefers <article>, then <main>, then <body>, and joins the
// block-level text inside it. Pages without such blocks fall back to all text.
func articleText(doc *goquery.Document) string {
	doc.Find(boilerplate).Remove()

	root := doc.Selection
	for _, sel := range []string{"article", "main", "body"} {
		if s := doc.Find(sel).First(); s.Length() > 0 {
			root = s
			break
		}
	}

	var parts []string
	root.Find("h1, h2, h3, h4, p, li, pre, blockquote").Each(func(_ int, s *goquery.Selection) {
		// Nested blocks (p inside li, etc.) are emitted by their outermost match.
		if s.ParentsFiltered("p, li, pre, blockquote").Length() > 0 {
			return
		}
		if t := collapse(s.Text()); t != "" {
			parts = append(parts, t)
		}
	})
	if len(parts) == 0 {
		return collapse(root.Text())
	}
	return strings.Join(parts, "\n\n")
}

// spacedText joins the text nodes under s with single spaces, keeping the
// whitespace inside each node as written.
func spacedText(s *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(sel *goquery.Selection) {
		sel.Contents().Each(func(_ int, c *goquery.Selection) {
			switch goquery.NodeName(c) {
			case "#text":
				parts = append(parts, c.Text())
			case "#comment", "script", "style":
			default:
				walk(c)
			}
		})
	}
	walk(s)
	return strings.Join(parts, " ")
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
