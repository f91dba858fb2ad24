package store

import (
	"errors"
	"time"

	"github.com/MJE43/bjsim/internal/results"
)

var ErrRunNotFound = errors.New("run not found")

// DB represents the database interface
type DB interface {
	Close() error
	Migrate() error
	SaveRun(run *Run) error
	GetRun(id string) (*Run, error)
	ListRuns(query RunsQuery) (*RunsList, error)
	DeleteRun(id string) error
}

// RunsQuery represents query parameters for listing runs
type RunsQuery struct {
	Strategy string `json:"strategy,omitempty"`
	Page     int    `json:"page"`
	PerPage  int    `json:"perPage"`
}

// RunsList represents paginated runs response
type RunsList struct {
	Runs       []Run `json:"runs"`
	TotalCount int   `json:"totalCount"`
	Page       int   `json:"page"`
	PerPage    int   `json:"perPage"`
	TotalPages int   `json:"totalPages"`
}

// Run is the persisted aggregate of one simulation. Only totals are kept,
// never individual rounds.
type Run struct {
	ID             string `json:"id" db:"id"`
	Strategy       string `json:"strategy" db:"strategy"`
	Decks          int    `json:"decks" db:"decks"`
	Seats          int    `json:"seats" db:"seats"`
	Bet            string `json:"bet" db:"bet"`
	Rounds         int    `json:"rounds" db:"rounds"`
	ShuffleEvery   int    `json:"shuffle_every" db:"shuffle_every"`
	BatchSize      int    `json:"batch_size" db:"batch_size"`
	Workers        int    `json:"workers" db:"workers"`
	ServerSeedHash string `json:"server_seed_hash" db:"server_seed_hash"` // SHA256 hash only
	ClientSeed     string `json:"client_seed" db:"client_seed"`
	RequestJSON    string `json:"request_json" db:"request_json"`

	Totals  results.Accumulator `json:"totals"`
	Ratio   float64             `json:"ratio" db:"ratio"`
	Summary results.Summary     `json:"ratio_summary"`

	TimedOut      bool      `json:"timed_out" db:"timed_out"`
	DurationMs    int64     `json:"duration_ms" db:"duration_ms"`
	EngineVersion string    `json:"engine_version" db:"engine_version"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}
