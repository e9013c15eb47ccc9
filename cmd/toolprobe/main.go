// Command toolprobe runs a single tool outside the model loop.
//
//	toolprobe -tool knowledge_lookup -input "LangChain"
//	toolprobe -tool fetch_article -input https://go.dev/blog/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tidwall/sjson"

	"github.com/petasbytes/toolgraph/internal/config"
	"github.com/petasbytes/toolgraph/tools"
)

// argField maps each tool to the argument the -input flag fills.
var argField = map[string]string{
	"knowledge_lookup": "query",
	"fetch_article":    "url",
	"extract_links":    "url",
	"medium_search":    "query",
	"record_result":    "final_answer",
	"web_search":       "query",
	"paper_search":     "query",
}

func main() {
	name := flag.String("tool", "", "tool to run")
	input := flag.String("input", "", "query, URL or answer passed to the tool")
	flag.Parse()
	os.Exit(run(*name, *input))
}

func run(name, input string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	box := tools.NewToolbox(ctx, cfg, nil)
	reg := box.Registry()

	def, ok := reg.Lookup(name)
	field, known := argField[name]
	if !ok || !known {
		fmt.Fprintf(os.Stderr, "usage: toolprobe -tool <%s> -input <text>\n", strings.Join(reg.Names(), "|"))
		return 2
	}
	for _, w := range box.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	args, err := sjson.SetBytes([]byte(`{}`), field, input)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if cfg.ToolTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ToolTimeout)
		defer cancel()
	}

	res := def.Function(ctx, args)
	fmt.Println(res.Content())
	if !res.OK() {
		return 1
	}
	return 0
}
