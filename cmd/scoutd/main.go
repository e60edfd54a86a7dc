package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/pitchline/scoutd/internal/browser"
	"github.com/pitchline/scoutd/internal/config"
	"github.com/pitchline/scoutd/internal/control"
	"github.com/pitchline/scoutd/internal/jobs"
	"github.com/pitchline/scoutd/internal/proxy"
	"github.com/pitchline/scoutd/internal/queue"
	"github.com/pitchline/scoutd/internal/ratelimit"
	"github.com/pitchline/scoutd/internal/resolver"
	"github.com/pitchline/scoutd/internal/scheduler"
	"github.com/pitchline/scoutd/internal/sources"
	"github.com/pitchline/scoutd/internal/store"
	"github.com/pitchline/scoutd/internal/telemetry"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "scoutd",
		Short: "scoutd — headless sports-data scraper and scheduler",
		Long: `scoutd scrapes fixtures, odds and live scores for a configured set of
sports, resolves scraped fixtures against a shared relational store, and
runs its sync jobs on an adaptive schedule.

Components:
  • Stealth headless browsing with proxy rotation and per-domain throttling
  • A pluggable source registry with cooldown-on-block bookkeeping
  • Fuzzy team-name resolution against the shared Event/Team schema
  • An adaptive, urgency-aware scheduler alongside fixed cron rules
  • An HTTP control surface for health, job status and manual triggers
  • Prometheus metrics`,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(migrateCmd())
	rootCmd.AddCommand(versionCmd())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the scheduler and control surface",
		RunE:  runServe,
	}
}

func migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending scraper_runs/scraper_alerts migrations",
		RunE:  runMigrate,
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("scoutd %s\n", config.Version)
		},
	}
}

func setupLogger() *slog.Logger {
	return telemetry.NewLogger(verbose)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	logger := setupLogger()
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if cfg.Database.URL == "" {
		return fmt.Errorf("database.url (or DATABASE_URL) must be set")
	}
	if err := store.Migrate(cfg.Database.URL); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	logger.Info("migrations applied")
	return nil
}

// runServe is the composition root: every component named in §4 is built
// here and wired explicitly into jobs.Deps, with no ambient singletons.
func runServe(cmd *cobra.Command, args []string) error {
	logger := setupLogger()

	cfg, err := config.Load(cfgFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.Logging.Verbose = cfg.Logging.Verbose || verbose
	if err := config.Validate(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Database.URL)
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}
	if err := store.Migrate(cfg.Database.URL); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logger.Warn("error closing database", "error", err)
		}
	}()

	metrics := telemetry.NewMetrics(logger)

	rotator, err := proxy.NewRotator(proxyConfigs(cfg.Proxy), logger)
	if err != nil {
		return fmt.Errorf("build proxy rotator: %w", err)
	}

	detector := ratelimit.NewDetector()

	pool, err := browser.New(rotator, logger)
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}
	defer func() {
		if err := pool.Close(); err != nil {
			logger.Warn("error closing browser pool", "error", err)
		}
	}()

	registry := sources.NewRegistry([]sources.Source{
		sources.NewOddsSource("primary_bookmaker", "bookmaker.example", 0, 90, cfg.Sources.OddsSportURLs, cfg.Sources.MatchRowSelector, logger),
	})

	oddsAPI := sources.NewOddsAPIClient(cfg.OddsAPI.BaseURL, cfg.OddsAPI.APIKey)
	liveScores := sources.NewLiveScoresClient(cfg.Sources.LiveScoresURL)

	resolv := resolver.New(db, logger)

	var settlement queue.SettlementQueue
	if cfg.Settlement.QueueURL != "" {
		sqsQueue, err := queue.NewSQSQueue(ctx, cfg.Settlement.QueueURL, logger)
		if err != nil {
			return fmt.Errorf("build settlement queue: %w", err)
		}
		settlement = sqsQueue
	} else {
		settlement = queue.NewNoopQueue(logger)
	}

	deps := &jobs.Deps{
		Store:        db,
		Pool:         pool,
		RateLimit:    detector,
		OddsSources:  registry,
		FixtureURLs:  cfg.Sources.FixtureURLs,
		FixtureXPath: cfg.Sources.FixtureRowXPath,
		LiveScores:   liveScores,
		OddsAPI:      oddsAPI,
		Resolver:     resolv,
		Settlement:   settlement,
		Metrics:      metrics,
		Sports:       configuredSports(cfg.Sources),
	}

	sched, err := scheduler.New(deps, schedulerConfig(cfg.Scheduler), logger)
	if err != nil {
		return fmt.Errorf("build scheduler: %w", err)
	}
	if cfg.Scheduler.Enabled {
		sched.Start(ctx)
	} else {
		logger.Info("scheduler disabled, only manual job triggers will run")
	}

	controlSrv := control.New(sched, pool, rotator)
	httpSrv := &http.Server{Addr: cfg.Control.ListenAddr, Handler: controlSrv}
	go func() {
		logger.Info("control surface listening", "addr", cfg.Control.ListenAddr)
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("control surface stopped", "error", err)
		}
	}()

	var metricsSrv *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())
		metricsSrv = &http.Server{Addr: cfg.Metrics.ListenAddr, Handler: mux}
		go func() {
			logger.Info("metrics listening", "addr", cfg.Metrics.ListenAddr)
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("metrics server stopped", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Scheduler.ShutdownDeadline)
	defer cancel()

	sched.Shutdown(shutdownCtx)
	_ = httpSrv.Shutdown(shutdownCtx)
	if metricsSrv != nil {
		_ = metricsSrv.Shutdown(shutdownCtx)
	}

	logger.Info("shutdown complete")
	return nil
}

func proxyConfigs(cfg config.ProxyConfig) []proxy.Config {
	var out []proxy.Config
	if cfg.DataImpulseUsername != "" {
		out = append(out, proxy.Config{
			Name:        "dataimpulse",
			URLTemplate: fmt.Sprintf("http://gw.dataimpulse.com:823?country=%s", cfg.Country),
			Username:    cfg.DataImpulseUsername,
			Password:    cfg.DataImpulsePassword,
			CountryCode: cfg.Country,
			CostWeight:  1.0,
		})
	}
	if cfg.IPRoyalUsername != "" {
		out = append(out, proxy.Config{
			Name:        "iproyal",
			URLTemplate: fmt.Sprintf("http://geo.iproyal.com:12321?country=%s", cfg.Country),
			Username:    cfg.IPRoyalUsername,
			Password:    cfg.IPRoyalPassword,
			CountryCode: cfg.Country,
			CostWeight:  1.5,
		})
	}
	return out
}

// configuredSports derives the sport/competition catalog from whichever
// sport slugs carry fixture or odds URLs; a deployment that configures no
// URLs for a sport effectively disables it without a separate toggle.
func configuredSports(cfg config.SourcesConfig) []jobs.Sport {
	seen := map[string]bool{}
	var out []jobs.Sport
	for slug := range cfg.FixtureURLs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, jobs.Sport{Name: slug, Slug: slug, Competition: slug})
	}
	for slug := range cfg.OddsSportURLs {
		if seen[slug] {
			continue
		}
		seen[slug] = true
		out = append(out, jobs.Sport{Name: slug, Slug: slug, Competition: slug})
	}
	return out
}

func schedulerConfig(cfg config.SchedulerConfig) scheduler.Config {
	return scheduler.Config{
		SyncFixturesCron:      cfg.SyncFixturesCron,
		SyncLiveScoresCron:    cfg.SyncLiveScoresCron,
		TransitionEventsCron:  cfg.TransitionEventsCron,
		BrowserRotationPeriod: cfg.BrowserRotationPeriod,
		ShutdownDeadline:      cfg.ShutdownDeadline,
	}
}
