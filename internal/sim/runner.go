package sim

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/round"
	"github.com/MJE43/bjsim/internal/scripting"
	"github.com/MJE43/bjsim/internal/strategy"
)

const EngineVersion = "go-1.0.0"

// scriptStrategyName names strategies compiled from an inline request script.
const scriptStrategyName = "script"

// Progress is reported once per finished batch.
type Progress struct {
	Batch      int     `json:"batch"`
	Batches    int     `json:"batches"`
	Rounds     int64   `json:"rounds"`
	Ratio      float64 `json:"ratio"`
	TotalRatio float64 `json:"total_ratio"`
}

// Result contains the merged totals of a run.
type Result struct {
	Totals        results.Accumulator `json:"totals"`
	Ratio         float64             `json:"ratio"`
	RatioSummary  results.Summary     `json:"ratio_summary"`
	Samples       []float64           `json:"samples"`
	Batches       int                 `json:"batches"`
	TimedOut      bool                `json:"timed_out,omitempty"`
	DurationMs    int64               `json:"duration_ms"`
	EngineVersion string              `json:"engine_version"`
	Echo          Request             `json:"echo"`
}

type runConfig struct {
	progress func(Progress)
}

// RunOption configures a single Run call.
type RunOption func(*runConfig)

// WithProgress registers a callback invoked serially after each batch.
func WithProgress(fn func(Progress)) RunOption {
	return func(c *runConfig) { c.progress = fn }
}

type batchResult struct {
	index int
	acc   results.Accumulator
}

// Runner executes simulation requests. Each worker owns one shoe seeded
// from the request seeds and its worker index, so a request replays
// exactly for the same seeds and worker count.
type Runner struct{}

// NewRunner creates a Runner.
func NewRunner() *Runner {
	return &Runner{}
}

// Run executes req. Cancellation or the request timeout stops every worker
// at the next round boundary; the partial result is returned with TimedOut
// set.
func (r *Runner) Run(ctx context.Context, req Request, opts ...RunOption) (*Result, error) {
	var cfg runConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	req = req.WithDefaults()
	if err := req.Validate(); err != nil {
		return nil, err
	}
	if req.Seeds.Empty() {
		req.Seeds = engine.RandomSeeds()
	}

	strat, err := resolveStrategy(req)
	if err != nil {
		return nil, err
	}
	table, err := round.New(round.Config{Seats: req.Seats, Bet: req.Bet, Bets: req.Bets, Strategy: strat})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}
	ranks := req.Ranks
	if ranks == nil {
		ranks = games.StandardRanks
	}

	if req.TimeoutMs > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.TimeoutMs)*time.Millisecond)
		defer cancel()
	}

	start := time.Now()
	batches := req.Batches()
	workers := min(req.Workers, batches)
	out := make(chan batchResult, workers*2)

	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		shoe, err := games.NewShoe(req.Decks, ranks, games.WithRand(engine.NewRand(req.Seeds, uint64(w))))
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
		}
		wk := &worker{
			id:      w,
			workers: workers,
			req:     req,
			table:   table,
			shoe:    shoe,
			out:     out,
		}
		g.Go(func() error { return wk.run(gctx) })
	}

	var collected []batchResult
	done := make(chan struct{})
	go func() {
		defer close(done)
		var totals results.Accumulator
		for br := range out {
			collected = append(collected, br)
			totals.Merge(br.acc)
			if cfg.progress != nil {
				ratio, _ := br.acc.Ratio()
				total, _ := totals.Ratio()
				cfg.progress(Progress{
					Batch:      br.index,
					Batches:    batches,
					Rounds:     totals.Rounds,
					Ratio:      ratio,
					TotalRatio: total,
				})
			}
		}
	}()

	err = g.Wait()
	close(out)
	<-done
	if err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return nil, err
	}

	sort.Slice(collected, func(i, j int) bool { return collected[i].index < collected[j].index })

	res := &Result{
		Samples:       make([]float64, 0, len(collected)),
		Batches:       batches,
		TimedOut:      ctx.Err() != nil,
		EngineVersion: EngineVersion,
		Echo:          req,
	}
	for _, br := range collected {
		res.Totals.Merge(br.acc)
		if ratio, err := br.acc.Ratio(); err == nil {
			res.Samples = append(res.Samples, ratio)
		}
	}
	res.RatioSummary = results.Summarize(res.Samples)
	if ratio, err := res.Totals.Ratio(); err == nil {
		res.Ratio = ratio
	}
	res.DurationMs = time.Since(start).Milliseconds()

	return res, nil
}

func resolveStrategy(req Request) (strategy.Strategy, error) {
	if req.Script != "" {
		compiled, err := scripting.Compile(scriptStrategyName, req.Script)
		if err != nil {
			return nil, err
		}
		return compiled.Table, nil
	}
	s, err := strategy.Get(req.Strategy)
	if err != nil {
		return nil, err
	}
	// Workers share one read-only table.
	return strategy.Compile(s), nil
}

type worker struct {
	id      int
	workers int
	req     Request
	table   *round.Engine
	shoe    *games.Shoe
	out     chan<- batchResult
	played  int
}

// run plays batches id, id+workers, ... in order.
func (w *worker) run(ctx context.Context) error {
	w.shoe.Shuffle()
	batches := w.req.Batches()

	for b := w.id; b < batches; b += w.workers {
		n := w.req.BatchSize
		if rest := w.req.Rounds - b*w.req.BatchSize; rest < n {
			n = rest
		}

		var acc results.Accumulator
		var stopErr error
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				stopErr = err
				break
			}
			if w.played > 0 && w.played%w.req.ShuffleEvery == 0 {
				w.shoe.Shuffle()
			}
			if _, err := w.table.Play(w.shoe, &acc); err != nil {
				return err
			}
			w.played++
		}

		// The collector drains until every worker returns.
		if acc.Rounds > 0 {
			w.out <- batchResult{index: b, acc: acc}
		}
		if stopErr != nil {
			return stopErr
		}
	}
	return nil
}
