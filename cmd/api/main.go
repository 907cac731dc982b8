package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ethanbaker/countries/internal/api"
	countries_module "github.com/ethanbaker/countries/internal/api/modules/countries"
	"github.com/ethanbaker/countries/internal/events"
	"github.com/ethanbaker/countries/internal/feeds"
	"github.com/ethanbaker/countries/internal/metrics"
	"github.com/ethanbaker/countries/internal/refresh"
	"github.com/ethanbaker/countries/internal/render"
	"github.com/ethanbaker/countries/internal/scheduler"
	country_store "github.com/ethanbaker/countries/internal/stores/country"
	"github.com/ethanbaker/countries/pkg/country"
	"github.com/ethanbaker/countries/pkg/utils"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Start the API server
func main() {
	// Load global config
	cfg := utils.NewConfigFromEnv(utils.EnvFile())

	settings, err := utils.LoadSettings(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "[API-MAIN]: invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := utils.SetupLogging(settings.LogLevel, settings.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, settings, logger); err != nil {
		logger.Error("api stopped", "component", "main", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, settings *utils.Settings, logger *slog.Logger) error {
	store, err := openStore(settings.Database, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	// Metrics
	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	recorder := metrics.NewRefreshMetrics(registry)

	if total, err := store.Count(ctx); err == nil {
		recorder.RecordCountries(total)
	}

	// Feeds
	feedConfig, err := loadFeedConfig(settings.Feeds)
	if err != nil {
		return err
	}
	countryFeed := feeds.NewCountryFeed(feedConfig.CountriesURL, feedConfig.Timeout, feeds.WithObserver(recorder))
	rateFeed := feeds.NewRateFeed(feedConfig.RatesURL, feedConfig.Timeout, feeds.WithObserver(recorder))

	// Summary image
	renderer, err := render.NewRenderer()
	if err != nil {
		return err
	}
	cache := render.NewCache(settings.CacheDir)

	// Events
	var publisher events.Publisher = events.NoopPublisher{}
	if len(settings.Kafka.Brokers) > 0 {
		publisher = events.NewKafkaPublisher(settings.Kafka.Brokers, settings.Kafka.Topic)
		logger.Info("publishing refresh events", "component", "main", "topic", settings.Kafka.Topic)
	}
	defer publisher.Close()

	service, err := refresh.NewService(refresh.Options{
		Countries:  countryFeed,
		Rates:      rateFeed,
		Store:      store,
		Reconciler: country.NewReconciler(nil),
		Summary:    render.NewGenerator(store, renderer, cache),
		Publisher:  publisher,
		Metrics:    recorder,
		Logger:     logger,
	})
	if err != nil {
		return err
	}
	defer service.Close()

	// Optional scheduled refresh
	if settings.Refresh.Cron != "" {
		sched, err := scheduler.New(settings.Refresh.Cron, func(ctx context.Context) error {
			_, err := service.Refresh(ctx)
			return err
		}, settings.Refresh.Timeout, logger)
		if err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
	}

	if settings.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	engine, err := api.NewEngine(api.Options{
		CORSOrigins: settings.CORSOrigins,
		Countries: countries_module.Options{
			Store:     store,
			Refresher: service,
			Images:    cache,
			Metrics:   recorder,
			Logger:    logger,
		},
		Gatherer: registry,
	})
	if err != nil {
		return err
	}

	return api.Serve(ctx, engine, settings.Port)
}

// openStore picks MySQL when a database is configured, then SQLite, then memory
func openStore(db utils.DatabaseSettings, logger *slog.Logger) (country.Store, error) {
	switch {
	case db.UseMySQL():
		logger.Info("using mysql store", "component", "main", "host", db.Host, "database", db.Name)
		store, err := country_store.NewStore(db.MySQLDSN())
		if err != nil {
			return nil, fmt.Errorf("failed to initialize mysql store: %w", err)
		}
		return store, nil

	case db.SQLitePath != "":
		logger.Info("using sqlite store", "component", "main", "path", db.SQLitePath)
		store, err := country_store.NewSQLiteStore(db.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize sqlite store: %w", err)
		}
		return store, nil

	default:
		logger.Warn("no database configured, countries are kept in memory", "component", "main")
		return country_store.NewInMemoryStore(), nil
	}
}

// loadFeedConfig layers the YAML feeds file and env overrides over the defaults
func loadFeedConfig(s utils.FeedSettings) (feeds.Config, error) {
	cfg := feeds.DefaultConfig()
	if s.ConfigPath != "" {
		loaded, err := feeds.LoadConfig(s.ConfigPath)
		if err != nil {
			return cfg, err
		}
		cfg = loaded
	}

	if s.CountriesURL != "" {
		cfg.CountriesURL = s.CountriesURL
	}
	if s.RatesURL != "" {
		cfg.RatesURL = s.RatesURL
	}
	if s.Timeout > 0 && s.ConfigPath == "" {
		cfg.Timeout = s.Timeout
	}
	return cfg, nil
}
