package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/petasbytes/streamchat/internal/chat"
	"github.com/petasbytes/streamchat/internal/config"
	"github.com/petasbytes/streamchat/internal/provider"
	"github.com/petasbytes/streamchat/internal/search"
	"github.com/petasbytes/streamchat/internal/transcript"
	"github.com/petasbytes/streamchat/memory"
	"github.com/petasbytes/streamchat/tools"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()}))

	p, err := provider.New(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}

	// Set up graceful shutdown on Ctrl-C (SIGINT) / SIGTERM. The first signal
	// during a send cancels only that send.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	var (
		mu         sync.Mutex
		turnCancel context.CancelFunc
	)
	sigch := make(chan os.Signal, 1)
	signal.Notify(sigch, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigch)
	go func() {
		for range sigch {
			mu.Lock()
			tc := turnCancel
			turnCancel = nil
			mu.Unlock()
			if tc != nil {
				tc()
				continue
			}
			fmt.Println("\nExiting...")
			cancel()
			return
		}
	}()

	hist, err := memory.Open(cfg.HistoryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "warning: history disabled: %v\n", err)
	}
	var persisted []transcript.Turn
	if hist != nil {
		defer hist.Close()
		if persisted, err = hist.Load(ctx); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to load persisted transcript: %v\n", err)
		}
	}

	store := transcript.New(persisted)
	out := newRenderer(os.Stdout)
	store.Observe(out.observe)

	searcher := search.New(
		search.WithMaxResults(cfg.SearchMaxResults),
		search.WithRateLimit(cfg.SearchRPS, 1),
	)
	opts := []chat.Option{
		chat.WithLogger(logger),
		chat.WithMaxFollowUps(cfg.MaxFollowUps),
		chat.WithTokenBudget(cfg.TokenBudget),
		chat.WithMaxTokens(cfg.MaxTokens),
	}
	if hist != nil {
		opts = append(opts, chat.WithPersister(hist))
	}
	coord := chat.NewCoordinator(p, store, tools.NewExecutor(tools.Registry(searcher), logger), opts...)

	model := cfg.Model
	if model == "" {
		model = provider.DefaultModelFor(cfg.Provider)
	}
	toolCfg := tools.Config{APIKey: cfg.TavilyAPIKey, Timeout: cfg.SearchTimeout.Duration}

	go connect(ctx, coord, out, logger)

	out.replay(persisted)
	out.notice("Chat via %s (%s). Commands: /model <id>, /key <tavily key>, /clear. Ctrl-C to quit.", p.Name(), model)
	if !toolCfg.Enabled() {
		out.notice("Web search is off; set TAVILY_API_KEY or use /key.")
	}

	scanner := bufio.NewScanner(os.Stdin)
	inputCh := make(chan string)
	go func() {
		for scanner.Scan() {
			inputCh <- scanner.Text()
		}
		close(inputCh)
	}()

outer:
	for {
		out.prompt()
		var (
			line string
			ok   bool
		)
		select {
		case <-ctx.Done():
			break outer
		case line, ok = <-inputCh:
			if !ok {
				break outer
			}
		}

		if cmd, arg, isCmd := parseCommand(line); isCmd {
			switch cmd {
			case "/model":
				if arg == "" {
					out.notice("model: %s", model)
					continue
				}
				model = arg
				out.notice("model set to %s", model)
			case "/key":
				toolCfg.APIKey = arg
				if toolCfg.Enabled() {
					out.notice("web search enabled")
				} else {
					out.notice("web search disabled")
				}
			case "/clear":
				if err := store.Reset(); err != nil {
					out.notice("cannot clear: %v", err)
					continue
				}
				if hist != nil {
					if err := hist.Save(ctx, nil); err != nil {
						logger.Warn("failed to clear saved transcript", "error", err)
					}
				}
				out.notice("transcript cleared")
			default:
				out.notice("unknown command %s", cmd)
			}
			continue
		}

		turnCtx, tc := context.WithCancel(ctx)
		mu.Lock()
		turnCancel = tc
		mu.Unlock()

		_, err := coord.Send(turnCtx, line, model, toolCfg)

		mu.Lock()
		turnCancel = nil
		mu.Unlock()
		tc()

		switch {
		case err == nil, errors.Is(err, chat.ErrBlankInput):
		case errors.Is(err, chat.ErrNotReady):
			out.notice("Waiting for %s; try again shortly.", p.Name())
		default:
			out.notice("error: %v", err)
		}
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "warning: stdin read error: %v\n", err)
	}
}

// connect retries until the provider answers or ctx ends.
func connect(ctx context.Context, coord *chat.Coordinator, out *renderer, logger *slog.Logger) {
	delay := time.Second
	for {
		err := coord.Connect(ctx)
		if err == nil {
			return
		}
		logger.Warn("provider not reachable", "error", err, "retry_in", delay)
		select {
		case <-ctx.Done():
			return
		case <-time.After(delay):
		}
		delay = min(delay*2, 30*time.Second)
	}
}

// parseCommand splits "/cmd arg" lines; anything else is chat input.
func parseCommand(line string) (cmd, arg string, ok bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return "", "", false
	}
	cmd, arg, _ = strings.Cut(line, " ")
	return cmd, strings.TrimSpace(arg), true
}
