package api

import (
	"github.com/shopspring/decimal"

	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/round"
	"github.com/MJE43/bjsim/internal/sim"
	"github.com/MJE43/bjsim/internal/strategy"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

const (
	// Input validation errors
	ErrTypeValidation       = "validation_error"
	ErrTypeInvalidJSON      = "invalid_json"
	ErrTypeStrategyNotFound = "strategy_not_found"
	ErrTypeScript           = "script_error"

	// Lookup errors
	ErrTypeNotFound = "not_found"

	// System errors
	ErrTypeTimeout            = "timeout"
	ErrTypeInternal           = "internal_error"
	ErrTypeServiceUnavailable = "service_unavailable"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryStrategy   ErrorCategory = "strategy"
	CategoryStorage    ErrorCategory = "storage"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, ErrTypeInvalidJSON:
		return CategoryValidation
	case ErrTypeStrategyNotFound, ErrTypeScript:
		return CategoryStrategy
	case ErrTypeNotFound:
		return CategoryStorage
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// SimulationResponse is returned by POST /api/v1/simulations.
type SimulationResponse struct {
	RunID  string      `json:"run_id,omitempty"`
	Result *sim.Result `json:"result"`
}

// StrategiesResponse lists the registered strategies.
type StrategiesResponse struct {
	Strategies    []strategy.Spec `json:"strategies"`
	EngineVersion string          `json:"engine_version"`
}

// DealRequest plays a single round. Cards, when given, is the exact shoe
// in draw order; otherwise a shoe of Decks is shuffled from Seeds.
type DealRequest struct {
	Cards    []string          `json:"cards,omitempty"`
	Decks    int               `json:"decks,omitempty"`
	Seats    int               `json:"seats,omitempty"`
	Bet      decimal.Decimal   `json:"bet"`
	Bets     []decimal.Decimal `json:"bets,omitempty"`
	Strategy string            `json:"strategy,omitempty"`
	Seeds    engine.Seeds      `json:"seeds"`
}

// DealResponse traces the dealt round.
type DealResponse struct {
	Report        *round.Report       `json:"report"`
	Totals        results.Accumulator `json:"totals"`
	Ratio         float64             `json:"ratio"`
	EngineVersion string              `json:"engine_version"`
	Echo          DealRequest         `json:"echo"`
}

// StreamMessage is one websocket frame on the simulation stream.
type StreamMessage struct {
	Type     string        `json:"type"` // "progress", "result" or "error"
	Progress *sim.Progress `json:"progress,omitempty"`
	Result   *sim.Result   `json:"result,omitempty"`
	RunID    string        `json:"run_id,omitempty"`
	Error    *EngineError  `json:"error,omitempty"`
}
