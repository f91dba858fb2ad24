package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pterm/pterm"
	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/config"
	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/sim"
	"github.com/MJE43/bjsim/internal/store"
)

func runCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("run", flag.ContinueOnError)
	rounds := fs.Int("rounds", 0, "rounds to simulate")
	decks := fs.Int("decks", 0, "decks in the shoe")
	seats := fs.Int("seats", 0, "seats at the table")
	bet := fs.String("bet", "", "stake per seat")
	strat := fs.String("strategy", "", "registered strategy name")
	script := fs.String("script", "", "JavaScript strategy file")
	workers := fs.Int("workers", 0, "parallel workers")
	batch := fs.Int("batch", 0, "rounds per batch")
	shuffle := fs.Int("shuffle-every", 0, "rounds between reshuffles")
	serverSeed := fs.String("server-seed", "", "server seed (random when empty)")
	clientSeed := fs.String("client-seed", "", "client seed")
	timeout := fs.Duration("timeout", 0, "stop after this long and report partial totals")
	save := fs.Bool("save", false, "store the run in the database")
	if err := fs.Parse(args); err != nil {
		return err
	}

	req := sim.Request{
		Rounds:       *rounds,
		Decks:        *decks,
		Seats:        *seats,
		Strategy:     *strat,
		Workers:      *workers,
		BatchSize:    *batch,
		ShuffleEvery: *shuffle,
		Seeds:        engine.Seeds{Server: *serverSeed, Client: *clientSeed},
		TimeoutMs:    int(timeout.Milliseconds()),
	}
	if *bet != "" {
		d, err := decimal.NewFromString(*bet)
		if err != nil {
			return fmt.Errorf("invalid -bet: %w", err)
		}
		req.Bet = d
	}
	if *script != "" {
		src, err := readScript(*script)
		if err != nil {
			return err
		}
		req.Script = src
	}
	req = cfg.Apply(req)

	logger.Debug("starting simulation", "rounds", req.Rounds, "strategy", req.Strategy, "workers", req.Workers)

	spinner, _ := pterm.DefaultSpinner.Start("Simulating...")
	res, err := sim.NewRunner().Run(ctx, req, sim.WithProgress(func(p sim.Progress) {
		spinner.UpdateText(fmt.Sprintf("Batch %d/%d, %s rounds, ratio %.5f",
			p.Batch, p.Batches, humanize.Comma(p.Rounds), p.TotalRatio))
	}))
	if err != nil {
		spinner.Fail(err.Error())
		return err
	}
	if res.TimedOut {
		spinner.Warning("Stopped early, totals are partial")
	} else {
		spinner.Success(fmt.Sprintf("Done in %s", time.Duration(res.DurationMs)*time.Millisecond))
	}

	if err := printResult(res); err != nil {
		return err
	}

	if *save {
		id, err := saveRun(cfg.Database.Path, res)
		if err != nil {
			return err
		}
		pterm.Info.Printfln("Saved run %s", id)
	}
	return nil
}

func printResult(res *sim.Result) error {
	t := res.Totals
	pterm.DefaultSection.Println("Totals")
	err := pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData{
		{"Rounds", "Hands", "Wins", "Losses", "Busts", "Pushes", "Blackjacks", "Even money", "Doubles", "Splits"},
		{
			humanize.Comma(t.Rounds), humanize.Comma(t.Hands()), humanize.Comma(t.Wins),
			humanize.Comma(t.Losses), humanize.Comma(t.Busts), humanize.Comma(t.Pushes),
			humanize.Comma(t.Blackjacks), humanize.Comma(t.EvenMoney), humanize.Comma(t.Doubles),
			humanize.Comma(t.Splits),
		},
	}).Render()
	if err != nil {
		return err
	}

	pterm.DefaultSection.Println("Money")
	err = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData{
		{"Invested", "Winnings", "Pot", "Net", "Ratio"},
		{t.Invested.StringFixed(2), t.Winnings.StringFixed(2), t.Pot.StringFixed(2), t.Net().StringFixed(2), ratioText(t)},
	}).Render()
	if err != nil {
		return err
	}

	s := res.RatioSummary
	if s.Count > 1 {
		pterm.DefaultSection.Println("Per-batch ratio")
		err = pterm.DefaultTable.WithHasHeader().WithBoxed().WithData(pterm.TableData{
			{"Batches", "Min", "Max", "Mean", "Std dev", "Sample std dev"},
			{
				humanize.Comma(int64(s.Count)), fmt.Sprintf("%.5f", s.Min), fmt.Sprintf("%.5f", s.Max),
				fmt.Sprintf("%.5f", s.Mean), fmt.Sprintf("%.5f", s.StdDev), fmt.Sprintf("%.5f", s.SampleStdDev),
			},
		}).Render()
		if err != nil {
			return err
		}
	}

	pterm.Info.Printfln("Seeds: server hash %s, client %q", engine.HashSeed(res.Echo.Seeds.Server), res.Echo.Seeds.Client)
	return nil
}

func ratioText(t results.Accumulator) string {
	r, err := t.Ratio()
	if err != nil {
		return "n/a"
	}
	return fmt.Sprintf("%.5f", r)
}

func saveRun(path string, res *sim.Result) (string, error) {
	db, err := store.NewSQLiteDB(path)
	if err != nil {
		return "", err
	}
	defer db.Close()
	if err := db.Migrate(); err != nil {
		return "", err
	}
	run := store.NewRun(res)
	if err := db.SaveRun(run); err != nil {
		return "", err
	}
	return run.ID, nil
}
