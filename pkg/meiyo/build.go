package meiyo

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/cognicore/meiyo/pkg/meiyo/analysis"
	"github.com/cognicore/meiyo/pkg/meiyo/config"
	"github.com/cognicore/meiyo/pkg/meiyo/dictionary"
	"github.com/cognicore/meiyo/pkg/meiyo/evalcache"
	"github.com/cognicore/meiyo/pkg/meiyo/match"
	"github.com/cognicore/meiyo/pkg/meiyo/normalize"
	"github.com/cognicore/meiyo/pkg/meiyo/rules"
	"github.com/cognicore/meiyo/pkg/meiyo/tokenize"
)

// SourceLoader produces the raw dictionary collections.
type SourceLoader interface {
	Load() (dictionary.Source, error)
}

// Build wires an Engine from cfg: the kagome tokenizer, the configured
// thresholds and rules, the result cache (with a Redis tier when an address
// is set) and an initial snapshot loaded from the data section.
func Build(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*Engine, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}

	kagome, err := tokenize.NewKagome()
	if err != nil {
		return nil, fmt.Errorf("init tokenizer: %w", err)
	}
	var nopts []normalize.Option
	if cfg.Normalize.KanjiReading {
		nopts = append(nopts, normalize.WithKanjiReading(kagome))
	}
	normalizer := normalize.New(nopts...)
	tok := tokenize.New(kagome, cfg.Cache.TokenizerCapacity, tokenize.WithLogger(logger))

	local := evalcache.NewFIFO[Result](cfg.Cache.Capacity)
	var cache ResultCache = local
	var closers []io.Closer
	if cfg.Cache.RedisAddr != "" {
		// Verdicts depend on the engine settings as well as the snapshot.
		prefix := cfg.Cache.RedisPrefix
		if prefix == "" {
			prefix = "meiyo"
		}
		shared, err := evalcache.DialRedis[Result](ctx, cfg.Cache.RedisAddr, cfg.Cache.RedisDB, evalcache.RedisOptions{
			Prefix: prefix + ":" + cfg.EngineFingerprint(),
			TTL:    cfg.Cache.RedisTTL,
			Logger: logger,
		})
		if err != nil {
			return nil, fmt.Errorf("connect result cache: %w", err)
		}
		cache = evalcache.NewTiered[Result](local, shared)
		closers = append(closers, shared)
	}

	e := New(Options{
		Pipeline: analysis.NewPipeline(normalizer, tok),
		Matcher:  match.New(cfg.Thresholds()),
		Rules:    rules.New(cfg.RulesConfig(), normalizer),
		Cache:    cache,
		Logger:   logger,
	})
	e.closers = closers

	loader := cfg.Loader()
	loader.Logger = logger
	if err := e.Reload(loader); err != nil {
		e.Close()
		return nil, err
	}
	return e, nil
}

// Reload reads fresh sources and publishes them as a new snapshot. On error
// the current snapshot stays in place.
func (e *Engine) Reload(l SourceLoader) error {
	src, err := l.Load()
	if err != nil {
		return err
	}
	snap := dictionary.NewSnapshot(src, e.pipeline)
	if st := snap.Stats(); st.Terms == 0 {
		e.logger.Warn("dictionary snapshot has no offensive terms", "version", st.Version)
	}
	e.Swap(snap)
	return nil
}

// Close releases connections opened by Build.
func (e *Engine) Close() error {
	var errs []error
	for _, c := range e.closers {
		errs = append(errs, c.Close())
	}
	e.closers = nil
	return errors.Join(errs...)
}
