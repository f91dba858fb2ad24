// Command bjsim runs blackjack Monte Carlo simulations from the terminal
// and serves the HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"

	"github.com/MJE43/bjsim/internal/config"
)

type command struct {
	name  string
	usage string
	run   func(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error
}

var commands = []command{
	{"run", "simulate many rounds and print the totals", runCmd},
	{"deal", "play a single round and trace it", dealCmd},
	{"strategies", "list registered strategies", strategiesCmd},
	{"serve", "start the HTTP API", serveCmd},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [-config file] <command> [flags]\n\ncommands:\n", os.Args[0])
	for _, c := range commands {
		fmt.Fprintf(os.Stderr, "  %-11s %s\n", c.name, c.usage)
	}
}

func main() {
	configFlag := flag.String("config", envOr("BJSIM_CONFIG", "bjsim.yaml"), "path to the YAML config file")
	debugFlag := flag.Bool("debug", false, "enable debug logging")
	flag.Usage = usage
	flag.Parse()

	if flag.NArg() < 1 {
		usage()
		os.Exit(2)
	}

	if *debugFlag {
		pterm.DefaultLogger.Level = pterm.LogLevelDebug
	}
	logger := slog.New(pterm.NewSlogHandler(&pterm.DefaultLogger))

	cfg, err := config.Load(*configFlag)
	if err != nil {
		logger.Error("config load failed", "path", *configFlag, "err", err)
		os.Exit(1)
	}
	names, err := cfg.RegisterStrategies()
	if err != nil {
		logger.Error("strategy registration failed", "err", err)
		os.Exit(1)
	}
	if len(names) > 0 {
		logger.Debug("registered script strategies", "names", names)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	name, args := flag.Arg(0), flag.Args()[1:]
	for _, c := range commands {
		if c.name != name {
			continue
		}
		if err := c.run(ctx, cfg, logger, args); err != nil {
			if !errors.Is(err, flag.ErrHelp) {
				logger.Error(name+" failed", "err", err)
			}
			stop()
			os.Exit(1)
		}
		return
	}

	fmt.Fprintf(os.Stderr, "unknown command %q\n\n", name)
	usage()
	os.Exit(2)
}

func envOr(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
