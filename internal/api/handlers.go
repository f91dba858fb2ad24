package api

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/bjsim/internal/engine"
	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/results"
	"github.com/MJE43/bjsim/internal/round"
	"github.com/MJE43/bjsim/internal/sim"
	"github.com/MJE43/bjsim/internal/store"
	"github.com/MJE43/bjsim/internal/strategy"
)

const maxBodyBytes = 1 << 20

func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		s.errorHandler.HandleError(w, r, NewError(ErrTypeInvalidJSON, "Invalid JSON in request body").
			WithCause(err).
			WithContext("path", r.URL.Path).
			Build())
		return false
	}
	return true
}

func (s *Server) handleListStrategies(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, StrategiesResponse{
		Strategies:    strategy.List(),
		EngineVersion: EngineVersion,
	})
}

func (s *Server) handleCreateSimulation(w http.ResponseWriter, r *http.Request) {
	var req sim.Request
	if !s.decode(w, r, &req) {
		return
	}

	res, err := s.runner.Run(r.Context(), s.applyDefaults(req))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.logger.Printf("simulation_completed strategy=%s rounds=%d ratio=%.6f timed_out=%t duration_ms=%d",
		res.Echo.Strategy, res.Totals.Rounds, res.Ratio, res.TimedOut, res.DurationMs)

	resp := SimulationResponse{Result: res}
	if s.db != nil {
		run := store.NewRun(res)
		if err := s.db.SaveRun(run); err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		resp.RunID = run.ID
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleListSimulations(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}

	q := store.RunsQuery{Strategy: r.URL.Query().Get("strategy")}
	var ok bool
	if q.Page, ok = s.intParam(w, r, "page"); !ok {
		return
	}
	if q.PerPage, ok = s.intParam(w, r, "perPage"); !ok {
		return
	}
	if q.PerPage > 500 {
		s.errorHandler.HandleValidationError(w, r, "perPage", "perPage must not exceed 500")
		return
	}

	list, err := s.db.ListRuns(q)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, list)
}

func (s *Server) intParam(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		s.errorHandler.HandleValidationError(w, r, name, name+" must be a non-negative integer")
		return 0, false
	}
	return v, true
}

func (s *Server) handleGetSimulation(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	run, err := s.db.GetRun(chi.URLParam(r, "id"))
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	s.writeJSON(w, http.StatusOK, run)
}

func (s *Server) handleDeleteSimulation(w http.ResponseWriter, r *http.Request) {
	if s.db == nil {
		s.errorHandler.HandleUnavailable(w, r, "database")
		return
	}
	if err := s.db.DeleteRun(chi.URLParam(r, "id")); err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeal(w http.ResponseWriter, r *http.Request) {
	var req DealRequest
	if !s.decode(w, r, &req) {
		return
	}
	defaults := s.applyDefaults(sim.Request{}).WithDefaults()
	if req.Seats == 0 {
		req.Seats = max(len(req.Bets), 1)
	}
	if req.Bet.IsZero() && len(req.Bets) == 0 {
		req.Bet = defaults.Bet
	}
	if req.Strategy == "" {
		req.Strategy = defaults.Strategy
	}
	if req.Decks == 0 {
		req.Decks = defaults.Decks
	}

	strat, err := strategy.Get(req.Strategy)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	table, err := round.New(round.Config{Seats: req.Seats, Bet: req.Bet, Bets: req.Bets, Strategy: strat})
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}

	var shoe *games.Shoe
	if len(req.Cards) > 0 {
		cards, err := games.ParseCards(req.Cards)
		if err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		if shoe, err = games.NewShoeFromCards(cards); err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
	} else {
		if req.Decks > sim.MaxDecks {
			s.errorHandler.HandleValidationError(w, r, "decks", "too many decks")
			return
		}
		if req.Seeds.Empty() {
			req.Seeds = engine.RandomSeeds()
		}
		shoe, err = games.NewShoe(req.Decks, defaults.Ranks, games.WithRand(engine.NewRand(req.Seeds, 0)))
		if err != nil {
			s.errorHandler.HandleError(w, r, err)
			return
		}
		shoe.Shuffle()
	}

	var acc results.Accumulator
	report, err := table.Play(shoe, &acc)
	if err != nil {
		s.errorHandler.HandleError(w, r, err)
		return
	}
	ratio, _ := acc.Ratio()

	s.writeJSON(w, http.StatusOK, DealResponse{
		Report:        report,
		Totals:        acc,
		Ratio:         ratio,
		EngineVersion: EngineVersion,
		Echo:          req,
	})
}
