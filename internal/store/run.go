package store

import (
	"encoding/json"

	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/sim"
)

// NewRun builds the persisted form of a finished simulation. The server
// seed itself is never stored; only its hash is.
func NewRun(res *sim.Result) *Run {
	req := res.Echo
	strategyName := req.Strategy
	if req.Script != "" {
		strategyName = "script"
	}

	echo := req
	echo.Seeds.Server = ""
	requestJSON, err := json.Marshal(echo)
	if err != nil {
		requestJSON = []byte("{}")
	}

	return &Run{
		Strategy:       strategyName,
		Decks:          req.Decks,
		Seats:          req.Seats,
		Bet:            req.Bet.String(),
		Rounds:         req.Rounds,
		ShuffleEvery:   req.ShuffleEvery,
		BatchSize:      req.BatchSize,
		Workers:        req.Workers,
		ServerSeedHash: engine.HashSeed(req.Seeds.Server),
		ClientSeed:     req.Seeds.Client,
		RequestJSON:    string(requestJSON),
		Totals:         res.Totals,
		Ratio:          res.Ratio,
		Summary:        res.RatioSummary,
		TimedOut:       res.TimedOut,
		DurationMs:     res.DurationMs,
		EngineVersion:  res.EngineVersion,
	}
}
