package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"time"

	"github.com/MJE43/bjsim/internal/api"
	"github.com/MJE43/bjsim/internal/config"
	"github.com/MJE43/bjsim/internal/store"
)

const shutdownTimeout = 10 * time.Second

func serveCmd(ctx context.Context, cfg *config.Config, logger *slog.Logger, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ContinueOnError)
	addr := fs.String("addr", cfg.Server.Addr, "listen address")
	dbPath := fs.String("db", cfg.Database.Path, "SQLite database path, empty to disable run history")
	timeout := fs.Duration("request-timeout", 60*time.Second, "per-request timeout")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var db store.DB
	if *dbPath != "" {
		sqlite, err := store.NewSQLiteDB(*dbPath)
		if err != nil {
			return err
		}
		defer sqlite.Close()
		if err := sqlite.Migrate(); err != nil {
			return err
		}
		db = sqlite
	}

	srv := api.NewServer(db,
		api.WithLogger(log.New(os.Stderr, "[API] ", log.LstdFlags)),
		api.WithAllowedOrigins(cfg.Server.Origins),
		api.WithRequestTimeout(*timeout),
		api.WithRequestDefaults(cfg.Apply),
	)
	httpServer := &http.Server{
		Addr:              *addr,
		Handler:           srv.Routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		return err
	}
	logger.Info("listening", "addr", ln.Addr().String(), "db", *dbPath, "version", api.GetVersionInfo().EngineVersion)

	errc := make(chan error, 1)
	go func() {
		errc <- httpServer.Serve(ln)
	}()

	select {
	case err := <-errc:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return httpServer.Shutdown(shutdownCtx)
}
