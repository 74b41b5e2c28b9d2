/*
main.go - Application entry point

PURPOSE:
  Initializes and starts the medical gas consumption tracking server for
  the ministry's hospital network. Handles configuration, dependency
  injection, and graceful shutdown.

STARTUP SEQUENCE:
  1. Load configuration (environment + optional .env file)
  2. Configure structured logging
  3. Open SQLite store and run migrations
  4. Optionally seed the reference catalogs (-seed)
  5. Wire the consumption service, token issuer and HTTP router
  6. Start the missing-report sweeper
  7. Start server with graceful shutdown

COMMAND-LINE FLAGS:
  -seed    Load the reference catalogs and demo accounts on first run.
           A no-op when the database already holds users.

CONFIGURATION:
  All knobs come from environment variables (PORT, DB_PATH, JWT_SECRET,
  TOKEN_TTL_MINUTES, CORS_ORIGINS, LOG_LEVEL, SWEEP_INTERVAL_MINUTES,
  SWEEP_WINDOW_DAYS). See config/config.go for defaults.

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM:
  1. Stop the sweeper
  2. Stop accepting new connections
  3. Wait for active requests to complete (30s timeout)
  4. Close database connection
  5. Exit

EXAMPLES:
  # Development run with seeded demo data
  ./server -seed

  # Production run
  ENV=production JWT_SECRET=... DB_PATH=/var/lib/medgas/medgas.db ./server

SEE ALSO:
  - api/server.go: Router configuration
  - api/sweeper.go: Background missing-report detection
  - store/sqlite/sqlite.go: Database implementation
*/
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/mspbs/medgas/api"
	"github.com/mspbs/medgas/auth"
	"github.com/mspbs/medgas/config"
	"github.com/mspbs/medgas/consumption"
	"github.com/mspbs/medgas/store/sqlite"
)

func main() {
	seed := flag.Bool("seed", false, "seed reference catalogs and demo accounts")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		bootLog := zerolog.New(os.Stderr)
		bootLog.Fatal().Err(err).Msg("failed to load configuration")
	}

	log := newLogger(cfg)
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}

	store, err := sqlite.New(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Str("db_path", cfg.DBPath).Msg("failed to open database")
	}
	defer store.Close()

	if *seed {
		if err := store.Seed(context.Background()); err != nil {
			log.Fatal().Err(err).Msg("failed to seed database")
		}
		log.Info().Msg("reference catalogs ready")
	}

	svc := consumption.NewService(store, store, log)
	tokens := auth.NewTokenIssuer(cfg.EffectiveJWTSecret(),
		time.Duration(cfg.TokenTTLMinutes)*time.Minute)
	handler := api.NewHandler(store, svc, tokens, store, log)
	router := api.NewRouter(handler, cfg.CORSOrigins)

	var sweeper *api.Sweeper
	if cfg.SweepIntervalOff() {
		log.Info().Msg("missing-report sweeper disabled")
	} else {
		sweeper = api.NewSweeper(svc, log)
		sweeper.CheckInterval = time.Duration(cfg.SweepInterval) * time.Minute
		sweeper.WindowDays = cfg.SweepWindowDays
		sweeper.Start()
	}

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("server starting")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down")
	if sweeper != nil {
		sweeper.Stop()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("forced shutdown")
	}
	log.Info().Msg("server stopped")
}

// newLogger builds the process logger from LOG_LEVEL and ENV. Development
// gets human-readable console output, everything else structured JSON.
func newLogger(cfg *config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}

	if cfg.IsDev() {
		out := zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}
		return zerolog.New(out).Level(level).With().Timestamp().Logger()
	}
	return zerolog.New(os.Stderr).Level(level).With().Timestamp().Logger()
}
