package cmd

import (
	"context"
	"io"

	"sjsage522/bestmuadata/config"
	"sjsage522/bestmuadata/helpers"
	"sjsage522/bestmuadata/internal/exporter"
	"sjsage522/bestmuadata/internal/extractor"
	"sjsage522/bestmuadata/internal/orchestrator"
	"sjsage522/bestmuadata/internal/store"
	"sjsage522/bestmuadata/logger"
	"sjsage522/bestmuadata/services/cache"
	"sjsage522/bestmuadata/services/publisher"
)

// sessionStreamMaxLength caps the session report stream
const sessionStreamMaxLength = 1000

// app is the set of services one command works with
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	store    *store.Store
	exporter *exporter.Exporter
	closers  []io.Closer
}

// openApp validates the configuration, opens the store and prepares the
// export directory.
func (o *rootOptions) openApp(ctx context.Context) (*app, error) {
	if err := o.cfg.Validate(); err != nil {
		return nil, err
	}

	s, err := store.Open(ctx, o.cfg.DatabaseURL, logger.ForStore())
	if err != nil {
		return nil, err
	}
	a := &app{cfg: o.cfg, log: o.log, store: s, closers: []io.Closer{s}}

	exp, err := exporter.New(s, o.cfg.ExportDir, logger.ForExporter())
	if err != nil {
		a.Close()
		return nil, err
	}
	a.exporter = exp
	return a, nil
}

// Close releases every service in reverse opening order
func (a *app) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close service")
		}
	}
	a.closers = nil
}

// orchestrator wires the fetcher, page cache, extractor and the optional
// session report publisher and error log into a run orchestrator.
func (a *app) orchestrator(ctx context.Context) (*orchestrator.Orchestrator, error) {
	cfg := a.cfg

	ext, err := extractor.New(extractor.Config{
		BaseURL:  cfg.BaseURL,
		Delay:    cfg.Delay,
		CacheTTL: cfg.PageCacheTTL,
	}, helpers.NewHTTPFetcher(cfg.HTTPTimeout, ""), a.pageCache(ctx), logger.ForExtractor())
	if err != nil {
		return nil, err
	}

	deps := orchestrator.Dependencies{
		Extractor: ext,
		Store:     a.store,
		Exporter:  a.exporter,
		Logger:    logger.ForOrchestrator(),
	}
	if cfg.SessionReportStream != "" {
		pub := publisher.NewRedisPublisher(ctx, cfg.RedisAddr, cfg.RedisDB, cfg.SessionReportStream, sessionStreamMaxLength)
		a.closers = append(a.closers, pub)
		deps.Publisher = pub
		a.log.Info().Str("addr", cfg.RedisAddr).Str("stream", cfg.SessionReportStream).Msg("session reports enabled")
	}
	if cfg.ErrorLogFile != "" {
		deps.ErrorLog = helpers.NewFileErrorLogger(cfg.ErrorLogFile)
	}

	return orchestrator.New(orchestrator.Config{
		Workers:                cfg.Workers,
		Delay:                  cfg.Delay,
		MaxCategories:          cfg.MaxCategories,
		MaxProductsPerCategory: cfg.MaxProductsPerCategory,
		MaxPagesPerCategory:    cfg.MaxPagesPerCategory,
		SkipDetails:            cfg.SkipDetails,
	}, deps)
}

// pageCache connects the configured page cache. An unreachable backend
// disables caching for the run.
func (a *app) pageCache(ctx context.Context) cache.CacheService {
	log := logger.ForCache()

	switch a.cfg.CacheBackend {
	case config.CacheMemcache:
		mc := cache.NewMemcacheService(a.cfg.MemcacheAddr)
		if err := mc.Ping(); err != nil {
			log.Warn().Err(err).Str("addr", a.cfg.MemcacheAddr).Msg("memcache unavailable, page cache disabled")
			return nil
		}
		log.Info().Str("addr", a.cfg.MemcacheAddr).Msg("connected to memcache")
		return mc
	case config.CacheRedis:
		rc := cache.NewRedisCache(ctx, a.cfg.RedisAddr, a.cfg.RedisDB)
		if err := rc.Ping(); err != nil {
			rc.Close()
			log.Warn().Err(err).Str("addr", a.cfg.RedisAddr).Msg("redis unavailable, page cache disabled")
			return nil
		}
		a.closers = append(a.closers, rc)
		log.Info().Str("addr", a.cfg.RedisAddr).Int("db", a.cfg.RedisDB).Msg("connected to redis")
		return rc
	default:
		return nil
	}
}
