package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cognicore/meiyo/internal/logging"
	"github.com/cognicore/meiyo/internal/sentiment"
	"github.com/cognicore/meiyo/internal/server"
	"github.com/cognicore/meiyo/pkg/meiyo"
	"github.com/cognicore/meiyo/pkg/meiyo/config"
	"github.com/cognicore/meiyo/pkg/meiyo/history"
	"github.com/cognicore/meiyo/pkg/meiyo/history/sqlite"
)

func main() {
	var (
		configPath = flag.String("config", "", "YAML settings file (required)")
		addr       = flag.String("addr", "", "Listen address (overrides server.addr)")
		logLevel   = flag.String("log-level", "info", "Log level (debug, info, warn, error)")
	)
	flag.Parse()

	if *configPath == "" {
		log.Fatal("--config required")
	}

	logger := logging.InitWriter(os.Stdout, "meiyo-server", *logLevel)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}
	if key := os.Getenv("MEIYO_SENTIMENT_API_KEY"); key != "" {
		cfg.Sentiment.APIKey = key
	}
	if token := os.Getenv("MEIYO_ADMIN_TOKEN"); token != "" {
		cfg.Server.AdminToken = token
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	engine, err := meiyo.Build(ctx, cfg, logger)
	if err != nil {
		log.Fatalf("build engine: %v", err)
	}
	defer engine.Close()

	loader := cfg.Loader()
	loader.Logger = logger

	opts := server.Options{
		Engine:     engine,
		Loader:     loader,
		MaxTextLen: cfg.Server.MaxTextLen,
		AdminToken: cfg.Server.AdminToken,
		Logger:     logger,
	}
	if opts.AdminToken == "" {
		logger.Warn("no admin token configured; admin routes are locked")
	}

	if cfg.History.SQLitePath != "" {
		store, err := sqlite.OpenSQLite(ctx, cfg.History.SQLitePath)
		if err != nil {
			log.Fatalf("open history: %v", err)
		}
		defer store.Close()
		opts.History = store
	}

	if cfg.Sentiment.BaseURL != "" && cfg.Sentiment.Model != "" {
		opts.Sentiment = sentiment.New(sentiment.Options{
			BaseURL:   cfg.Sentiment.BaseURL,
			APIKey:    cfg.Sentiment.APIKey,
			Model:     cfg.Sentiment.Model,
			Timeout:   cfg.Sentiment.Timeout,
			CacheSize: cfg.Sentiment.CacheSize,
		})
	}

	srv, err := server.New(opts)
	if err != nil {
		log.Fatal(err)
	}

	st := engine.Snapshot().Stats()
	logger.Info("engine ready",
		"dictionary_version", st.Version,
		"terms", st.Terms,
		"whitelist", st.WhitelistSize,
		"surnames", st.Surnames,
		"history", historyKind(opts.History),
		"sentiment", opts.Sentiment != nil,
	)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Start(cfg.Server.Addr)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			log.Fatalf("server: %v", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.Canceled) {
			logger.Error("shutdown", "error", err)
		}
	}
}

func historyKind(s history.Store) string {
	if s == nil {
		return "disabled"
	}
	return "sqlite"
}
