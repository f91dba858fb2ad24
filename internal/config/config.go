package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/scripting"
	"github.com/MJE43/bjsim/internal/sim"
)

const (
	addrName    = "BJSIM_ADDR"
	dbPathName  = "BJSIM_DB_PATH"
	workersName = "BJSIM_WORKERS"

	defaultAddr   = "127.0.0.1:8080"
	defaultDBPath = "bjsim.db"
)

var ErrInvalidConfig = errors.New("invalid config")

type Server struct {
	Addr    string   `yaml:"addr"`
	Origins []string `yaml:"origins"`
}

type Database struct {
	Path string `yaml:"path"`
}

// Simulation holds request defaults. Zero fields fall through to the
// simulator's own defaults.
type Simulation struct {
	Decks        int    `yaml:"decks"`
	Seats        int    `yaml:"seats"`
	Bet          string `yaml:"bet"`
	Rounds       int    `yaml:"rounds"`
	ShuffleEvery int    `yaml:"shuffle_every"`
	BatchSize    int    `yaml:"batch_size"`
	Workers      int    `yaml:"workers"`
	Strategy     string `yaml:"strategy"`
	TimeoutMs    int    `yaml:"timeout_ms"`
}

// Config is the file-backed configuration. Strategies maps a strategy
// name to a script file, relative to the config file.
type Config struct {
	Server     Server            `yaml:"server"`
	Database   Database          `yaml:"database"`
	Simulation Simulation        `yaml:"simulation"`
	Ranks      map[string]int    `yaml:"ranks"`
	Strategies map[string]string `yaml:"strategies"`

	dir string
}

// Load reads .env (if any), then the YAML file at path, then applies
// environment overrides. A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	cfg := &Config{
		Server:   Server{Addr: defaultAddr},
		Database: Database{Path: defaultDBPath},
	}

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case errors.Is(err, fs.ErrNotExist):
		case err != nil:
			return nil, fmt.Errorf("read config: %w", err)
		default:
			if err := yaml.Unmarshal(raw, cfg); err != nil {
				return nil, fmt.Errorf("%w: %s: %w", ErrInvalidConfig, path, err)
			}
			cfg.dir = filepath.Dir(path)
		}
	}

	if v := os.Getenv(addrName); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv(dbPathName); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv(workersName); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return nil, fmt.Errorf("%w: %s=%q", ErrInvalidConfig, workersName, v)
		}
		cfg.Simulation.Workers = n
	}

	if _, err := cfg.RankTable(); err != nil {
		return nil, err
	}
	if _, err := cfg.bet(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// RankTable returns the configured per-deck rank counts, or nil when the
// standard deck applies.
func (c *Config) RankTable() (games.RankTable, error) {
	if len(c.Ranks) == 0 {
		return nil, nil
	}
	t := make(games.RankTable, len(c.Ranks))
	for k, n := range c.Ranks {
		card, err := games.ParseCard(k)
		if err != nil {
			return nil, fmt.Errorf("%w: ranks: %w", ErrInvalidConfig, err)
		}
		t[card] += n
	}
	if err := t.Validate(); err != nil {
		return nil, fmt.Errorf("%w: ranks: %w", ErrInvalidConfig, err)
	}
	return t, nil
}

func (c *Config) bet() (decimal.Decimal, error) {
	if c.Simulation.Bet == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(c.Simulation.Bet)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: simulation.bet: %w", ErrInvalidConfig, err)
	}
	return d, nil
}

// Apply fills the unset fields of req from the simulation section.
func (c *Config) Apply(req sim.Request) sim.Request {
	s := c.Simulation
	if req.Decks == 0 {
		req.Decks = s.Decks
	}
	if req.Seats == 0 && len(req.Bets) == 0 {
		req.Seats = s.Seats
	}
	if req.Bet.IsZero() && len(req.Bets) == 0 {
		req.Bet, _ = c.bet()
	}
	if req.Rounds == 0 {
		req.Rounds = s.Rounds
	}
	if req.ShuffleEvery == 0 {
		req.ShuffleEvery = s.ShuffleEvery
	}
	if req.BatchSize == 0 {
		req.BatchSize = s.BatchSize
	}
	if req.Workers == 0 {
		req.Workers = s.Workers
	}
	if req.Strategy == "" && req.Script == "" {
		req.Strategy = s.Strategy
	}
	if req.TimeoutMs == 0 {
		req.TimeoutMs = s.TimeoutMs
	}
	if req.Ranks == nil {
		req.Ranks, _ = c.RankTable()
	}
	return req
}

// RegisterStrategies compiles every configured script and registers it in
// the strategy registry. It returns the names registered, sorted.
func (c *Config) RegisterStrategies() ([]string, error) {
	names := make([]string, 0, len(c.Strategies))
	for name := range c.Strategies {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		path := c.Strategies[name]
		if !filepath.IsAbs(path) && c.dir != "" {
			path = filepath.Join(c.dir, path)
		}
		src, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("strategy %s: %w", name, err)
		}
		if _, err := scripting.Register(name, string(src)); err != nil {
			return nil, fmt.Errorf("strategy %s: %w", name, err)
		}
	}
	return names, nil
}
