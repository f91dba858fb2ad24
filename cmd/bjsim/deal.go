package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/pterm/pterm"
	"github.com/sanity-io/litter"
	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/config"
	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/round"
	"github.com/MJE43/bjsim/internal/scripting"
	"github.com/MJE43/bjsim/internal/sim"
	"github.com/MJE43/bjsim/internal/strategy"
)

func dealCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("deal", flag.ContinueOnError)
	cards := fs.String("cards", "", "comma separated shoe in draw order, e.g. A,K,8,Q")
	seats := fs.Int("seats", 1, "seats at the table")
	bet := fs.String("bet", "1", "stake per seat")
	strat := fs.String("strategy", "", "registered strategy name")
	script := fs.String("script", "", "JavaScript strategy file")
	serverSeed := fs.String("server-seed", "", "server seed (random when empty)")
	clientSeed := fs.String("client-seed", "", "client seed")
	dump := fs.Bool("dump", false, "dump the full round report")
	if err := fs.Parse(args); err != nil {
		return err
	}

	stake, err := decimal.NewFromString(*bet)
	if err != nil {
		return fmt.Errorf("invalid -bet: %w", err)
	}

	var s strategy.Strategy
	if *script != "" {
		src, err := readScript(*script)
		if err != nil {
			return err
		}
		compiled, err := scripting.Compile("script", src)
		if err != nil {
			return err
		}
		for _, l := range compiled.Logs {
			logger.Info("script log", "message", l.Message)
		}
		s = compiled.Table
	} else {
		name := *strat
		if name == "" {
			name = cfg.Apply(sim.Request{}).Strategy
		}
		if name == "" {
			name = sim.DefaultStrategy
		}
		if s, err = strategy.Get(name); err != nil {
			return err
		}
	}

	table, err := round.New(round.Config{Seats: *seats, Bet: stake, Strategy: s})
	if err != nil {
		return err
	}

	var shoe *games.Shoe
	if *cards != "" {
		parsed, err := games.ParseCards(strings.Split(*cards, ","))
		if err != nil {
			return err
		}
		if shoe, err = games.NewShoeFromCards(parsed); err != nil {
			return err
		}
	} else {
		seeds := engine.Seeds{Server: *serverSeed, Client: *clientSeed}
		if seeds.Empty() {
			seeds = engine.RandomSeeds()
		}
		req := cfg.Apply(sim.Request{})
		decks := req.Decks
		if decks == 0 {
			decks = sim.DefaultDecks
		}
		if shoe, err = games.NewShoe(decks, req.Ranks, games.WithRand(engine.NewRand(seeds, 0))); err != nil {
			return err
		}
		shoe.Shuffle()
		logger.Debug("shuffled shoe", "decks", decks, "server_seed_hash", engine.HashSeed(seeds.Server), "client_seed", seeds.Client)
	}

	var acc results.Accumulator
	report, err := table.Play(shoe, &acc)
	if err != nil {
		return err
	}

	if *dump {
		fmt.Fprintln(os.Stdout, litter.Sdump(report))
	}
	return printReport(report, acc)
}

func printReport(report *round.Report, acc results.Accumulator) error {
	data := pterm.TableData{{"Seat", "Cards", "Value", "Stake", "Decisions", "Outcome"}}
	for _, h := range report.Hands {
		seat := fmt.Sprint(h.Seat)
		if h.Split {
			seat += " (split)"
		}
		decisions := make([]string, len(h.Decisions))
		for i, d := range h.Decisions {
			decisions[i] = d.String()
		}
		data = append(data, []string{
			seat, cardList(h.Cards), fmt.Sprint(h.Value()), h.Stake.String(),
			strings.Join(decisions, " "), h.Outcome.String(),
		})
	}
	data = append(data, []string{"dealer", cardList(report.Dealer), fmt.Sprint(report.DealerValue), "", "", ""})

	if err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(data).Render(); err != nil {
		return err
	}
	pterm.Info.Printfln("Invested %s, pot %s, ratio %s", acc.Invested, acc.Pot, ratioText(acc))
	return nil
}

func cardList(cards []games.Card) string {
	labels := make([]string, len(cards))
	for i, c := range cards {
		labels[i] = c.String()
	}
	return strings.Join(labels, " ")
}

func readScript(path string) (string, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read script: %w", err)
	}
	return string(src), nil
}
