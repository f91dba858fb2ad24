package api

import (
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/round"
	"github.com/MJE43/bjsim/internal/store"
	"github.com/MJE43/bjsim/internal/strategy"
)

// HealthStatus represents the overall health status
type HealthStatus string

const (
	HealthStatusHealthy   HealthStatus = "healthy"
	HealthStatusDegraded  HealthStatus = "degraded"
	HealthStatusUnhealthy HealthStatus = "unhealthy"
)

// HealthCheckResponse represents a comprehensive health check response
type HealthCheckResponse struct {
	Status        HealthStatus           `json:"status"`
	Timestamp     string                 `json:"timestamp"`
	EngineVersion string                 `json:"engine_version"`
	GitCommit     string                 `json:"git_commit,omitempty"`
	BuildTime     string                 `json:"build_time,omitempty"`
	Uptime        string                 `json:"uptime"`
	Checks        map[string]HealthCheck `json:"checks"`
	System        SystemInfo             `json:"system"`
	RequestID     string                 `json:"request_id,omitempty"`
}

// HealthCheck represents an individual health check
type HealthCheck struct {
	Status      HealthStatus `json:"status"`
	Message     string       `json:"message,omitempty"`
	LastChecked string       `json:"last_checked"`
	Duration    string       `json:"duration,omitempty"`
}

// SystemInfo contains system information
type SystemInfo struct {
	GoVersion     string `json:"go_version"`
	NumGoroutines int    `json:"num_goroutines"`
	NumCPU        int    `json:"num_cpu"`
	GOMAXPROCS    int    `json:"gomaxprocs"`
	MemoryAlloc   uint64 `json:"memory_alloc_bytes"`
	GCCycles      uint32 `json:"gc_cycles"`
}

func (s *Server) handleHealthCheck(w http.ResponseWriter, r *http.Request) {
	checks := map[string]HealthCheck{
		"strategies": s.checkStrategies(),
		"engine":     s.checkEngine(),
		"database":   s.checkDatabase(),
	}

	overall := HealthStatusHealthy
	for _, c := range checks {
		switch {
		case c.Status == HealthStatusUnhealthy:
			overall = HealthStatusUnhealthy
		case c.Status == HealthStatusDegraded && overall == HealthStatusHealthy:
			overall = HealthStatusDegraded
		}
	}

	status := http.StatusOK
	if overall == HealthStatusUnhealthy {
		status = http.StatusServiceUnavailable
	}

	s.writeJSON(w, status, HealthCheckResponse{
		Status:        overall,
		Timestamp:     time.Now().UTC().Format(time.RFC3339),
		EngineVersion: EngineVersion,
		GitCommit:     GitCommit,
		BuildTime:     BuildTime,
		Uptime:        time.Since(s.startTime).String(),
		Checks:        checks,
		System:        systemInfo(),
		RequestID:     middleware.GetReqID(r.Context()),
	})
}

func (s *Server) checkStrategies() HealthCheck {
	start := time.Now()
	n := len(strategy.List())
	check := newCheck(HealthStatusHealthy, fmt.Sprintf("%d strategies registered", n), start)
	if n == 0 {
		check.Status = HealthStatusUnhealthy
	}
	return check
}

// checkEngine plays a fixed round whose result is known.
func (s *Server) checkEngine() HealthCheck {
	start := time.Now()
	e, err := round.New(round.Config{Seats: 1, Bet: decimal.NewFromInt(1), Strategy: strategy.Classic{}})
	if err != nil {
		return newCheck(HealthStatusUnhealthy, err.Error(), start)
	}
	shoe, err := games.NewShoeFromCards([]games.Card{games.Ace, games.Ten, games.Eight, games.Ten})
	if err != nil {
		return newCheck(HealthStatusUnhealthy, err.Error(), start)
	}
	var acc results.Accumulator
	if _, err := e.Play(shoe, &acc); err != nil {
		return newCheck(HealthStatusUnhealthy, err.Error(), start)
	}
	if acc.Blackjacks != 1 {
		return newCheck(HealthStatusUnhealthy, "engine self-test produced unexpected outcome", start)
	}
	return newCheck(HealthStatusHealthy, "self-test round settled", start)
}

func (s *Server) checkDatabase() HealthCheck {
	start := time.Now()
	if s.db == nil {
		return newCheck(HealthStatusDegraded, "database not configured", start)
	}
	if _, err := s.db.ListRuns(store.RunsQuery{PerPage: 1}); err != nil {
		return newCheck(HealthStatusUnhealthy, err.Error(), start)
	}
	return newCheck(HealthStatusHealthy, "database reachable", start)
}

func newCheck(status HealthStatus, msg string, start time.Time) HealthCheck {
	return HealthCheck{
		Status:      status,
		Message:     msg,
		LastChecked: time.Now().UTC().Format(time.RFC3339),
		Duration:    time.Since(start).String(),
	}
}

func systemInfo() SystemInfo {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	return SystemInfo{
		GoVersion:     runtime.Version(),
		NumGoroutines: runtime.NumGoroutine(),
		NumCPU:        runtime.NumCPU(),
		GOMAXPROCS:    runtime.GOMAXPROCS(0),
		MemoryAlloc:   m.Alloc,
		GCCycles:      m.NumGC,
	}
}
