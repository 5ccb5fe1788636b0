// Package app builds the tracker components from configuration.
package app

import (
	"context"
	"errors"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/agenthands/tally/internal/config"
	"github.com/agenthands/tally/internal/core/classify"
	"github.com/agenthands/tally/internal/core/reconcile"
	"github.com/agenthands/tally/internal/llm"
	"github.com/agenthands/tally/internal/metrics"
	"github.com/agenthands/tally/internal/notify"
	"github.com/agenthands/tally/internal/server"
	"github.com/agenthands/tally/internal/store"
)

// App holds the wired components. When ConfigErr is set only Metrics and
// Registry are populated; callers report the error instead of running a cycle.
type App struct {
	Config     *config.Config
	ConfigErr  error
	Store      store.Store
	Notifier   *notify.Client
	LLM        llm.LLMClient
	Engine     *reconcile.Engine
	Classifier *classify.Classifier
	Metrics    *metrics.Metrics
	Registry   *prometheus.Registry

	logger  *zap.Logger
	closers []io.Closer
}

// New connects every component named in cfg. Invalid configuration is not an
// error here; it is kept in ConfigErr so the HTTP surface can still start.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	a := &App{Config: cfg, Registry: reg, Metrics: metrics.New(reg), logger: logger}

	if err := cfg.Validate(); err != nil {
		logger.Warn("configuration incomplete, triggers will report it", zap.Error(err))
		a.ConfigErr = err
		return a, nil
	}

	s, err := store.Open(ctx, cfg.Store, logger)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, s)

	if cfg.Notify.RedisAddr != "" {
		n, err := notify.NewClient(&redis.Options{
			Addr:     cfg.Notify.RedisAddr,
			Password: cfg.Notify.RedisPassword,
			DB:       cfg.Notify.RedisDB,
		}, cfg.Notify.Channel)
		if err != nil {
			a.Close()
			return nil, err
		}
		a.closers = append(a.closers, n)
		if err := n.Ping(ctx); err != nil {
			// Commits still succeed without a notifier; only live observers miss events.
			logger.Warn("redis unreachable, change events may be lost", zap.String("addr", cfg.Notify.RedisAddr), zap.Error(err))
		}
		a.Notifier = n
		a.Store = store.NewNotifying(s, n, logger, a.Metrics)
	} else {
		a.Store = s
	}

	client, err := llm.NewClient(ctx, cfg.LLM, logger)
	if err != nil {
		a.Close()
		return nil, err
	}
	if c, ok := client.(io.Closer); ok {
		a.closers = append(a.closers, c)
	}
	if cfg.LLM.RatePerMinute > 0 {
		client = llm.NewLimited(client, cfg.LLM.RatePerMinute, cfg.LLM.RateBurst)
	}
	a.LLM = llm.NewInstrumented(client, cfg.LLM.Provider, a.Metrics)

	a.Engine = reconcile.NewEngine(a.Store, a.LLM, cfg.Store.RecordID, cfg.Reconcile, logger, a.Metrics)
	a.Classifier = classify.NewClassifier(a.LLM, classify.DefaultRegistry(), logger, a.Metrics)

	logger.Info("components ready",
		zap.String("llm_provider", cfg.LLM.Provider),
		zap.String("store_backend", cfg.Store.Backend),
		zap.Bool("notifier", a.Notifier != nil))
	return a, nil
}

// ServerOptions returns the HTTP server's collaborators.
func (a *App) ServerOptions() server.Options {
	opts := server.Options{
		RecordID:         a.Config.Store.RecordID,
		Secret:           a.Config.Server.ReconcileSecret,
		ConfigErr:        a.ConfigErr,
		ReconcileTimeout: seconds(a.Config.Reconcile.TimeoutSeconds),
		ClassifyTimeout:  seconds(a.Config.Classify.TimeoutSeconds),
		Gatherer:         a.Registry,
		Logger:           a.logger,
	}
	if a.ConfigErr != nil {
		return opts
	}

	opts.Reconciler = a.Engine
	opts.Classifier = a.Classifier
	opts.Store = a.Store
	if a.Notifier != nil {
		opts.Subscriber = a.Notifier
	}
	return opts
}

// Close releases connections in reverse order of creation.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func seconds(n int) time.Duration {
	return time.Duration(n) * time.Second
}
