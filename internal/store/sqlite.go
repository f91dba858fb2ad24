package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/google/uuid"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// SQLiteDB implements the DB interface using SQLite
type SQLiteDB struct {
	db *sql.DB
}

// NewSQLiteDB opens the database at path; ":memory:" is accepted.
func NewSQLiteDB(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps ":memory:" databases alive and serializes writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return &SQLiteDB{db: db}, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate applies every pending embedded migration.
func (s *SQLiteDB) Migrate() error {
	fsys, err := fs.Sub(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, s.db, fsys)
	if err != nil {
		return fmt.Errorf("migration provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}
	return nil
}

const runColumns = `id, strategy, decks, seats, bet, rounds, shuffle_every, batch_size, workers,
	server_seed_hash, client_seed, request_json,
	rounds_played, wins, losses, pushes, busts, blackjacks, even_money, doubles, splits,
	invested, winnings, pot, ratio,
	summary_count, summary_min, summary_max, summary_mean, summary_stddev, summary_sample_stddev,
	timed_out, duration_ms, engine_version, created_at`

// SaveRun inserts run, assigning an ID and creation time when unset.
func (s *SQLiteDB) SaveRun(run *Run) error {
	if run.ID == "" {
		run.ID = uuid.New().String()
	}
	if run.CreatedAt.IsZero() {
		run.CreatedAt = time.Now().UTC()
	}
	if run.RequestJSON == "" {
		run.RequestJSON = "{}"
	}

	query := `INSERT INTO runs (` + runColumns + `) VALUES (
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?,
		?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	t := run.Totals
	sm := run.Summary
	has := sm.Count > 0
	_, err := s.db.Exec(query,
		run.ID, run.Strategy, run.Decks, run.Seats, run.Bet, run.Rounds, run.ShuffleEvery,
		run.BatchSize, run.Workers, run.ServerSeedHash, run.ClientSeed, run.RequestJSON,
		t.Rounds, t.Wins, t.Losses, t.Pushes, t.Busts, t.Blackjacks, t.EvenMoney, t.Doubles, t.Splits,
		t.Invested.String(), t.Winnings.String(), t.Pot.String(), run.Ratio,
		sm.Count, nullable(has, sm.Min), nullable(has, sm.Max), nullable(has, sm.Mean),
		nullable(has, sm.StdDev), nullable(has, sm.SampleStdDev),
		boolInt(run.TimedOut), run.DurationMs, run.EngineVersion, run.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to save run: %w", err)
	}
	return nil
}

// GetRun retrieves a run by ID
func (s *SQLiteDB) GetRun(id string) (*Run, error) {
	row := s.db.QueryRow(`SELECT `+runColumns+` FROM runs WHERE id = ?`, id)
	run, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return run, nil
}

// DeleteRun removes a run by ID
func (s *SQLiteDB) DeleteRun(id string) error {
	res, err := s.db.Exec(`DELETE FROM runs WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	return nil
}

// ListRuns retrieves runs with pagination and filtering
func (s *SQLiteDB) ListRuns(query RunsQuery) (*RunsList, error) {
	whereClause := ""
	args := []any{}

	if query.Strategy != "" {
		whereClause = "WHERE strategy = ?"
		args = append(args, query.Strategy)
	}

	var totalCount int
	if err := s.db.QueryRow("SELECT COUNT(*) FROM runs "+whereClause, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("failed to get total count: %w", err)
	}

	if query.PerPage <= 0 {
		query.PerPage = 50
	}
	if query.Page <= 0 {
		query.Page = 1
	}

	totalPages := (totalCount + query.PerPage - 1) / query.PerPage
	offset := (query.Page - 1) * query.PerPage

	mainQuery := `SELECT ` + runColumns + ` FROM runs ` + whereClause + `
		ORDER BY created_at DESC, id
		LIMIT ? OFFSET ?`
	args = append(args, query.PerPage, offset)

	rows, err := s.db.Query(mainQuery, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query runs: %w", err)
	}
	defer rows.Close()

	runs := []Run{}
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, *run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating runs: %w", err)
	}

	return &RunsList{
		Runs:       runs,
		TotalCount: totalCount,
		Page:       query.Page,
		PerPage:    query.PerPage,
		TotalPages: totalPages,
	}, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(row scanner) (*Run, error) {
	var run Run
	var timedOut int
	var minV, maxV, meanV, sd, ssd sql.NullFloat64
	t := &run.Totals

	err := row.Scan(
		&run.ID, &run.Strategy, &run.Decks, &run.Seats, &run.Bet, &run.Rounds, &run.ShuffleEvery,
		&run.BatchSize, &run.Workers, &run.ServerSeedHash, &run.ClientSeed, &run.RequestJSON,
		&t.Rounds, &t.Wins, &t.Losses, &t.Pushes, &t.Busts, &t.Blackjacks, &t.EvenMoney, &t.Doubles, &t.Splits,
		&t.Invested, &t.Winnings, &t.Pot, &run.Ratio,
		&run.Summary.Count, &minV, &maxV, &meanV, &sd, &ssd,
		&timedOut, &run.DurationMs, &run.EngineVersion, &run.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	run.Summary.Min = minV.Float64
	run.Summary.Max = maxV.Float64
	run.Summary.Mean = meanV.Float64
	run.Summary.StdDev = sd.Float64
	run.Summary.SampleStdDev = ssd.Float64
	run.TimedOut = timedOut == 1

	return &run, nil
}

func nullable(valid bool, v float64) sql.NullFloat64 {
	return sql.NullFloat64{Float64: v, Valid: valid}
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
