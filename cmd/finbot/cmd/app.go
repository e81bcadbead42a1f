package cmd

import (
	"context"
	"fmt"
	"time"

	"finbot/internal/amqp"
	"finbot/internal/backend"
	"finbot/internal/bot"
	"finbot/internal/cache"
	"finbot/internal/categories"
	"finbot/internal/config"
	"finbot/internal/core"
	"finbot/internal/log"
	"finbot/internal/middleware/ratelimit"
	"finbot/internal/services"
	"finbot/internal/session"
)

const sweepInterval = time.Minute

// app is the wired bot shared by the serve and console commands.
type app struct {
	ledger     *services.LedgerService
	dispatcher *bot.Dispatcher
	sessions   *session.Tracker
	limiter    *ratelimit.Limiter
	caches     *cache.Manager
}

func newApp(ctx context.Context, cfg *config.Config, logger *log.Logger) (*app, error) {
	loc, err := cfg.Location()
	if err != nil {
		return nil, err
	}

	table, err := categories.LoadTable(cfg.CategoriesFile)
	if err != nil {
		return nil, fmt.Errorf("load categories: %w", err)
	}

	backendCfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return nil, err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, backendCfg)
	if err != nil {
		return nil, err
	}

	rules := cache.NewLRUCache[[]core.CategoryRule](cfg.RulesCacheSize, cfg.RulesCacheTTL)
	opts := []services.Option{
		services.WithTable(table),
		services.WithRulesCache(rules),
		services.WithLocation(loc),
	}
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, continuing without events", log.FieldError, err)
		} else {
			opts = append(opts, services.WithPublisher(client))
			logger.Info("Publishing transaction events", "exchange", cfg.AMQPExchange)
		}
	}
	// The service closes the store together with the publisher.
	ledger := services.NewLedgerService(store.Repository, opts...)

	sessions := session.NewTracker(session.WithTimeout(cfg.SessionTimeout))
	limiter := ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: cfg.RateLimitPerMinute})

	caches := cache.NewManager()
	caches.Register("rules", rules)
	caches.Register("sessions", sessions)
	caches.Register("rate_limit", limiter)
	caches.StartCleanup(sweepInterval)

	dispatcher := bot.NewDispatcher(ledger, sessions,
		bot.WithLogger(logger),
		bot.WithPageSize(cfg.ListPageSize),
		bot.WithHistoryMonths(cfg.HistoryMonths),
		bot.WithLocation(loc),
	)

	logger.Info("Bot ready",
		"backend", cfg.DataBackend,
		"categories", len(table.Categories),
		"session_timeout", cfg.SessionTimeout)

	return &app{
		ledger:     ledger,
		dispatcher: dispatcher,
		sessions:   sessions,
		limiter:    limiter,
		caches:     caches,
	}, nil
}

func (a *app) Close() error {
	a.caches.Stop()
	a.limiter.Stop()
	return a.ledger.Close()
}
