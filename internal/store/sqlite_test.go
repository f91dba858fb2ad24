package store

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/sim"
)

func newTestDB(t *testing.T) *SQLiteDB {
	t.Helper()
	db, err := NewSQLiteDB(":memory:")
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	if err := db.Migrate(); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return db
}

func testRun(strategy string, created time.Time) *Run {
	return &Run{
		Strategy:      strategy,
		Decks:         8,
		Seats:         1,
		Bet:           "1",
		Rounds:        1000,
		ShuffleEvery:  4,
		BatchSize:     100,
		Workers:       1,
		ClientSeed:    "client",
		EngineVersion: "test",
		CreatedAt:     created,
		Totals: results.Accumulator{
			Rounds:   1000,
			Wins:     430,
			Losses:   480,
			Pushes:   90,
			Invested: decimal.NewFromInt(1000),
			Winnings: decimal.NewFromInt(430),
			Pot:      decimal.RequireFromString("950.5"),
		},
		Ratio:   0.9505,
		Summary: results.Summary{Count: 10, Min: 0.8, Max: 1.1, Mean: 0.95, StdDev: 0.07, SampleStdDev: 0.074},
	}
}

func TestSaveAndGetRun(t *testing.T) {
	db := newTestDB(t)

	run := testRun("classic", time.Now().UTC())
	if err := db.SaveRun(run); err != nil {
		t.Fatalf("SaveRun failed: %v", err)
	}
	if run.ID == "" {
		t.Fatal("SaveRun did not assign an ID")
	}

	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got.Strategy != "classic" || got.Decks != 8 || got.Bet != "1" {
		t.Errorf("unexpected config echo: %+v", got)
	}
	if !got.Totals.Equal(run.Totals) {
		t.Errorf("totals mismatch: got %+v, want %+v", got.Totals, run.Totals)
	}
	if !got.Totals.Pot.Equal(decimal.RequireFromString("950.5")) {
		t.Errorf("pot lost precision: %s", got.Totals.Pot)
	}
	if got.Summary != run.Summary {
		t.Errorf("summary mismatch: got %+v, want %+v", got.Summary, run.Summary)
	}
	if got.RequestJSON != "{}" {
		t.Errorf("expected default request_json, got %q", got.RequestJSON)
	}
}

func TestGetRunNotFound(t *testing.T) {
	db := newTestDB(t)
	if _, err := db.GetRun("missing"); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound, got %v", err)
	}
}

func TestEmptySummaryRoundTrips(t *testing.T) {
	db := newTestDB(t)

	run := testRun("basic", time.Now().UTC())
	run.Summary = results.Summary{}
	if err := db.SaveRun(run); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Summary != (results.Summary{}) {
		t.Errorf("expected empty summary, got %+v", got.Summary)
	}
}

func TestListRuns(t *testing.T) {
	db := newTestDB(t)

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	strategies := []string{"classic", "basic", "classic", "split", "classic"}
	for i, s := range strategies {
		if err := db.SaveRun(testRun(s, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveRun %d failed: %v", i, err)
		}
	}

	all, err := db.ListRuns(RunsQuery{Page: 1, PerPage: 10})
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if all.TotalCount != 5 || len(all.Runs) != 5 {
		t.Fatalf("expected 5 runs, got %d/%d", all.TotalCount, len(all.Runs))
	}
	if all.Runs[0].Strategy != "classic" || !all.Runs[0].CreatedAt.After(all.Runs[1].CreatedAt) {
		t.Errorf("runs not ordered newest first")
	}

	classic, err := db.ListRuns(RunsQuery{Strategy: "classic", Page: 1, PerPage: 2})
	if err != nil {
		t.Fatal(err)
	}
	if classic.TotalCount != 3 || len(classic.Runs) != 2 || classic.TotalPages != 2 {
		t.Errorf("unexpected filtered page: count=%d len=%d pages=%d", classic.TotalCount, len(classic.Runs), classic.TotalPages)
	}

	page2, err := db.ListRuns(RunsQuery{Strategy: "classic", Page: 2, PerPage: 2})
	if err != nil {
		t.Fatal(err)
	}
	if len(page2.Runs) != 1 {
		t.Errorf("expected 1 run on page 2, got %d", len(page2.Runs))
	}

	defaults, err := db.ListRuns(RunsQuery{})
	if err != nil {
		t.Fatal(err)
	}
	if defaults.Page != 1 || defaults.PerPage != 50 {
		t.Errorf("unexpected defaults page=%d perPage=%d", defaults.Page, defaults.PerPage)
	}
}

func TestDeleteRun(t *testing.T) {
	db := newTestDB(t)

	run := testRun("classic", time.Now().UTC())
	if err := db.SaveRun(run); err != nil {
		t.Fatal(err)
	}
	if err := db.DeleteRun(run.ID); err != nil {
		t.Fatalf("DeleteRun failed: %v", err)
	}
	if _, err := db.GetRun(run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected deleted run to be gone, got %v", err)
	}
	if err := db.DeleteRun(run.ID); !errors.Is(err, ErrRunNotFound) {
		t.Errorf("expected ErrRunNotFound on second delete, got %v", err)
	}
}

func TestMigrationIdempotency(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bjsim.db")

	db, err := NewSQLiteDB(path)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	for i := 0; i < 3; i++ {
		if err := db.Migrate(); err != nil {
			t.Fatalf("Migrate pass %d failed: %v", i+1, err)
		}
	}

	if err := db.SaveRun(testRun("classic", time.Now().UTC())); err != nil {
		t.Fatalf("SaveRun after repeated migrations failed: %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file missing: %v", err)
	}
}

func TestNewRunFromResult(t *testing.T) {
	res, err := sim.NewRunner().Run(context.Background(), sim.Request{
		Rounds: 200,
		Seeds:  engine.Seeds{Server: "secret", Client: "client"},
	})
	if err != nil {
		t.Fatal(err)
	}

	run := NewRun(res)
	if run.ServerSeedHash != engine.HashSeed("secret") {
		t.Errorf("server seed hash = %q", run.ServerSeedHash)
	}
	if run.Strategy != sim.DefaultStrategy || run.Decks != sim.DefaultDecks {
		t.Errorf("unexpected echo: %+v", run)
	}

	var echo sim.Request
	if err := json.Unmarshal([]byte(run.RequestJSON), &echo); err != nil {
		t.Fatalf("request_json is not valid: %v", err)
	}
	if echo.Seeds.Server != "" {
		t.Error("request_json leaked the server seed")
	}

	db := newTestDB(t)
	if err := db.SaveRun(run); err != nil {
		t.Fatal(err)
	}
	got, err := db.GetRun(run.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Totals.Rounds != 200 {
		t.Errorf("rounds = %d", got.Totals.Rounds)
	}
}
