package tools

import (
	"context"
	"fmt"
	"net/http"

	"google.golang.org/api/option"

	"github.com/petasbytes/toolgraph/internal/config"
	"github.com/petasbytes/toolgraph/internal/safety"
)

// Registry maps tool names to definitions and keeps registration order,
// which is the order tools are advertised to the model.
type Registry struct {
	defs   []ToolDefinition
	byName map[string]ToolDefinition
}

// NewRegistry rejects empty and duplicate names.
func NewRegistry(defs ...ToolDefinition) (*Registry, error) {
	r := &Registry{byName: make(map[string]ToolDefinition, len(defs))}
	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("tool with empty name")
		}
		if d.Function == nil {
			return nil, fmt.Errorf("tool %q has no function", d.Name)
		}
		if _, dup := r.byName[d.Name]; dup {
			return nil, fmt.Errorf("duplicate tool %q", d.Name)
		}
		r.byName[d.Name] = d
		r.defs = append(r.defs, d)
	}
	return r, nil
}

func (r *Registry) Lookup(name string) (ToolDefinition, bool) {
	d, ok := r.byName[name]
	return d, ok
}

// Definitions returns a copy of the registered tools in registration order.
func (r *Registry) Definitions() []ToolDefinition {
	return append([]ToolDefinition(nil), r.defs...)
}

func (r *Registry) Names() []string {
	names := make([]string, len(r.defs))
	for i, d := range r.defs {
		names[i] = d.Name
	}
	return names
}

// Toolbox holds the configured tool backends.
type Toolbox struct {
	Wikipedia *Wikipedia
	Fetcher   *Fetcher
	Sheets    *SheetRecorder
	Tavily    *Tavily
	Arxiv     *Arxiv
}

// NewToolbox builds every backend from cfg. client may be nil.
// sheetsOpts are forwarded to the Sheets client.
func NewToolbox(ctx context.Context, cfg config.Config, client *http.Client, sheetsOpts ...option.ClientOption) *Toolbox {
	h := &HTTPOptions{Client: client, UserAgent: cfg.UserAgent}
	var robots *safety.RobotsChecker
	if cfg.RespectRobots {
		robots = safety.NewRobotsChecker(client, cfg.UserAgent)
	}
	return &Toolbox{
		Wikipedia: NewWikipedia(h, cfg.Wikipedia.BaseURL, cfg.Wikipedia.MaxChars),
		Fetcher:   NewFetcher(h, robots),
		Sheets:    NewSheetRecorder(ctx, cfg.Sheets, sheetsOpts...),
		Tavily:    NewTavily(h, cfg.Tavily.APIKey, cfg.Tavily.BaseURL, cfg.Tavily.MaxResults),
		Arxiv:     NewArxiv(h, cfg.Arxiv.BaseURL, cfg.Arxiv.MaxResults, cfg.Arxiv.MaxChars),
	}
}

// Registry returns every tool wired to the toolbox backends.
func (b *Toolbox) Registry() *Registry {
	r, err := NewRegistry(
		KnowledgeLookupDefinition(b.Wikipedia),
		FetchArticleDefinition(b.Fetcher),
		ExtractLinksDefinition(b.Fetcher),
		MediumSearchDefinition(b.Fetcher),
		RecordResultDefinition(b.Sheets),
		WebSearchDefinition(b.Tavily),
		PaperSearchDefinition(b.Arxiv),
	)
	if err != nil {
		// Static names; only a programming error gets here.
		panic(err)
	}
	return r
}

// Warnings lists backends that will fail every call as configured.
func (b *Toolbox) Warnings() []string {
	var w []string
	if err := b.Sheets.Err(); err != nil {
		w = append(w, fmt.Sprintf("record_result disabled: %v", err))
	}
	if b.Tavily.apiKey == "" {
		w = append(w, "web_search disabled: TAVILY_API_KEY is not set")
	}
	return w
}
