package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/petasbytes/toolgraph/internal/config"
	"github.com/petasbytes/toolgraph/internal/provider"
	"github.com/petasbytes/toolgraph/internal/router"
	"github.com/petasbytes/toolgraph/internal/telemetry"
	"github.com/petasbytes/toolgraph/memory"
	"github.com/petasbytes/toolgraph/tools"
)

func main() {
	query := flag.String("q", "", "run a single turn with this input and exit")
	flag.Parse()
	os.Exit(run(*query))
}

// run owns every deferred cleanup; main only turns its result into an exit code.
func run(query string) int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		<-sigch
		fmt.Println("\nExiting...")
		cancel()
	}()

	model, err := provider.New(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return 1
	}
	if c, ok := model.(io.Closer); ok {
		defer c.Close()
	}

	box := tools.NewToolbox(ctx, cfg, nil)
	for _, w := range box.Warnings() {
		fmt.Fprintf(os.Stderr, "warning: %s\n", w)
	}

	events := telemetry.New(cfg.Observe, cfg.EventsDir)
	r := router.New(model, box.Registry(), router.OptionsFromConfig(cfg, events))

	conv, _ := memory.NewConversation()

	if query != "" {
		if !turn(ctx, r, conv, query) {
			return 1
		}
		return 0
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Printf("Chat with %s (type exit or Ctrl-C to quit)\n", model.Name())

	// stdin reader goroutine -> lines into channel
	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

outer:
	for {
		fmt.Print("\u001b[94mYou\u001b[0m: ")
		var (
			user string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case user, ok = <-inputCh:
			if !ok {
				break outer
			}
		}
		user = strings.TrimSpace(user)
		switch strings.ToLower(user) {
		case "":
			continue
		case "exit", "quit":
			break outer
		}
		turn(ctx, r, conv, user)
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: stdin read error: %v\n", err)
	}
	return 0
}

// turn runs one user input through the router and prints the reply.
// It reports false when the turn ended with an error.
func turn(ctx context.Context, r *router.Router, conv *memory.Conversation, input string) bool {
	out, err := r.RunTurn(ctx, conv, input)
	if text := strings.TrimSpace(out.Reply.Text); text != "" && err == nil {
		fmt.Printf("\u001b[93mAgent\u001b[0m: %s\n", text)
	}
	switch {
	case err == nil:
		return true
	case errors.Is(err, context.Canceled):
		return false
	case errors.Is(err, router.ErrTurnLimitExceeded):
		fmt.Fprintf(os.Stderr, "error: %v (after %d tool cycles)\n", err, out.Cycles)
	default:
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
	}
	return false
}
