package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/mcclellann/loanledger/pkg/cache"
	"github.com/mcclellann/loanledger/pkg/ledger"
	"github.com/mcclellann/loanledger/pkg/store"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const memoryDSN = ":memory:"

type config struct {
	Addr      string
	DBPath    string
	RedisAddr string
	Seed      bool
	LogLevel  string
}

func envOr(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok {
		return v
	}
	return fallback
}

// loadConfig reads flags; each flag defaults to its LEDGER_* environment variable.
func loadConfig(args []string) (config, error) {
	var cfg config
	seedDefault, err := strconv.ParseBool(envOr("LEDGER_SEED", "true"))
	if err != nil {
		return cfg, fmt.Errorf("invalid LEDGER_SEED: %w", err)
	}

	fs := flag.NewFlagSet("api", flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", envOr("LEDGER_ADDR", ":8080"), "HTTP listen address")
	fs.StringVar(&cfg.DBPath, "db", envOr("LEDGER_DB", "loanledger.db"), "SQLite database file, or :memory: for an in-process store")
	fs.StringVar(&cfg.RedisAddr, "redis", envOr("LEDGER_REDIS_ADDR", ""), "Redis address for the quote cache (empty keeps quotes in memory)")
	fs.BoolVar(&cfg.Seed, "seed", seedDefault, "Seed sample customers when none exist")
	fs.StringVar(&cfg.LogLevel, "log-level", envOr("LEDGER_LOG_LEVEL", "info"), "Log level (debug, info, warn, error)")
	if err := fs.Parse(args); err != nil {
		return cfg, err
	}
	return cfg, nil
}

func setupLogging(level string) error {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", level, err)
	}
	zerolog.SetGlobalLevel(lvl)
	log.Logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	return nil
}

func openStorage(dsn string) (store.Storage, error) {
	if dsn == memoryDSN {
		return store.NewMemoryStore(), nil
	}
	return store.NewSQLiteStore(dsn)
}

// openQuoteCache prefers Redis and falls back to memory when it is unset or unreachable.
func openQuoteCache(addr string) cache.QuoteCache {
	if addr == "" {
		return cache.NewMemoryCache()
	}
	rc := cache.NewRedisCache(addr, 24*time.Hour)
	if err := rc.Ping(); err != nil {
		log.Warn().Err(err).Str("addr", addr).Msg("redis unavailable, caching quotes in memory")
		rc.Close()
		return cache.NewMemoryCache()
	}
	return rc
}

func main() {
	cfg, err := loadConfig(os.Args[1:])
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	if err := setupLogging(cfg.LogLevel); err != nil {
		log.Fatal().Err(err).Msg("failed to configure logging")
	}

	storage, err := openStorage(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize store")
	}
	defer storage.Close()

	l := ledger.NewLedger(storage, ledger.WithQuoteCache(openQuoteCache(cfg.RedisAddr)))
	if cfg.Seed {
		if err := l.InitializeSampleData(); err != nil {
			log.Fatal().Err(err).Msg("failed to seed sample customers")
		}
	}

	server := NewServer(l, storage)
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      server.Router(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("addr", cfg.Addr).Msg("server starting")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErr:
		log.Error().Err(err).Msg("server failed")
		return
	case <-quit:
		log.Info().Msg("shutting down server")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := httpServer.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("error during server shutdown")
	}
	log.Info().Msg("server exited")
}
