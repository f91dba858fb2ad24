package main

import (
	"context"
	"flag"
	"log/slog"

	"github.com/pterm/pterm"

	"github.com/MJE43/bjsim/internal/config"
	"github.com/MJE43/bjsim/internal/strategy"
)

func strategiesCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("strategies", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}

	data := pterm.TableData{{"Name", "Source", "Splits", "Description"}}
	for _, s := range strategy.List() {
		splits := ""
		if s.Splits {
			splits = "yes"
		}
		data = append(data, []string{s.Name, s.Source, splits, s.Description})
	}
	return pterm.DefaultTable.WithHasHeader().WithData(data).Render()
}
