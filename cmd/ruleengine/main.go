package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/aevon-lab/rule-engine/internal/auth"
	"github.com/aevon-lab/rule-engine/internal/consumer"
	corecfg "github.com/aevon-lab/rule-engine/internal/core/config"
	"github.com/aevon-lab/rule-engine/internal/core/storage"
	"github.com/aevon-lab/rule-engine/internal/core/storage/kafka"
	"github.com/aevon-lab/rule-engine/internal/core/storage/postgres"
	"github.com/aevon-lab/rule-engine/internal/engine"
	"github.com/aevon-lab/rule-engine/internal/ingestion"
	"github.com/aevon-lab/rule-engine/internal/metrics"
	"github.com/aevon-lab/rule-engine/internal/migrations"
	"github.com/aevon-lab/rule-engine/internal/projection"
	"github.com/aevon-lab/rule-engine/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	configPath := flag.String("config", "ruleengine.yaml", "Path to configuration file")
	flag.Parse()

	// 0. Bootstrap logger until config says otherwise
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, nil)))

	if err := run(*configPath); err != nil {
		slog.Error("Rule engine stopped with error", "error", err)
		os.Exit(1)
	}
	slog.Info("Shutdown complete")
}

func run(configPath string) error {
	// 1. Load Configuration
	cfg, err := corecfg.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	setupLogger(cfg.Log)

	def := cfg.Rule
	slog.Info("Loaded rule definition",
		"path", cfg.Rules.Path,
		"fingerprint", def.Fingerprint,
		"instant_rule", def.InstantRuleID(),
		"window_rule", def.WindowRuleID(),
		"max_window_age", def.MaxWindowAge,
		"refire_while_full", def.RefireWhileFull)

	// 2. Metrics
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	collector := metrics.NewCollector(reg, metrics.Options{PerDevice: cfg.Metrics.PerDevice})

	// 3. Alert sinks
	sinks := storage.NewMultiSink()
	var (
		dbAdapter *postgres.Adapter
		health    server.HealthChecker
		reader    storage.AlertReader
	)
	if cfg.Database.Enabled {
		dbAdapter, err = postgres.NewAdapter(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
		if err != nil {
			return fmt.Errorf("failed to initialize database: %w", err)
		}
		defer dbAdapter.Close()

		if err := migrations.RunMigrations(dbAdapter.DB(), cfg.Database.AutoMigrate); err != nil {
			return fmt.Errorf("failed to run database migrations: %w", err)
		}
		if err := dbAdapter.Prepare(); err != nil {
			return err
		}
		dbAdapter.SetSaveTimeout(cfg.Alerts.DeliverTimeout)

		sinks.Add("postgres", dbAdapter)
		health = dbAdapter
		reader = dbAdapter
	}

	if cfg.Kafka.PublishAlerts() {
		publisher, err := kafka.NewAlertPublisher(kafka.PublisherConfig{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.AlertTopic,
			WriteTimeout: cfg.Kafka.WriteTimeout,
			MaxRetries:   cfg.Kafka.MaxRetries,
			RetryBackoff: cfg.Kafka.RetryBackoff,
			Compression:  cfg.Kafka.Compression,
			RequiredAcks: cfg.Kafka.RequiredAcks,
		})
		if err != nil {
			return fmt.Errorf("failed to initialize alert publisher: %w", err)
		}
		defer publisher.Close()
		sinks.Add("kafka", publisher)
	}

	if sinks.Len() == 0 {
		slog.Warn("No durable alert sink configured; alerts are only logged")
		sinks.Add("log", storage.LogSink{})
	}

	// 4. Engine
	store, err := engine.NewStore(def)
	if err != nil {
		return err
	}
	eng, err := engine.New(def, store, sinks,
		engine.WithObserver(collector),
		engine.WithDeliverTimeout(cfg.Alerts.DeliverTimeout))
	if err != nil {
		return fmt.Errorf("failed to initialize engine: %w", err)
	}
	metrics.RegisterWindowGauge(reg, store.Len)

	// 5. HTTP surface
	srv := server.New(fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port), cfg.Server.Mode, health,
		promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg}))
	ingestion.NewService(eng, cfg.Server.MaxBodySizeMB).
		RegisterRoutes(srv.Engine, auth.Middleware([]byte(cfg.Auth.JWTSecret)))
	projection.NewService(store, def, reader).RegisterRoutes(srv.Engine)
	if cfg.Auth.JWTSecret == "" {
		slog.Warn("Ingest authentication disabled (auth.jwt_secret is empty)")
	}

	// 6. Start Services
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error { return srv.Run(gctx) })

	if cfg.Janitor.Enabled {
		janitor := engine.NewJanitor(eng, cfg.Janitor.Interval)
		g.Go(func() error { return janitor.Start(gctx) })
	} else {
		slog.Info("Janitor disabled by config")
	}

	if cfg.Kafka.Enabled {
		ccfg := consumer.Config{
			Brokers:      cfg.Kafka.Brokers,
			Topic:        cfg.Kafka.EnvelopeTopic,
			GroupID:      cfg.Kafka.GroupID,
			Consumers:    cfg.Kafka.Consumers,
			MinBytes:     cfg.Kafka.MinBytes,
			MaxBytes:     cfg.Kafka.MaxBytes,
			MaxWait:      cfg.Kafka.MaxWait,
			RetryBackoff: cfg.Kafka.RetryBackoff,
		}
		if cfg.Kafka.ProtoFile != "" {
			ccfg.ProtoMessage, err = consumer.CompileMessage(gctx, cfg.Kafka.ProtoFile, cfg.Kafka.ProtoMessage)
			if err != nil {
				stop()
				_ = g.Wait()
				return err
			}
			slog.Info("Typed protobuf envelopes enabled", "message", ccfg.ProtoMessage.FullName())
		}
		c, err := consumer.New(ccfg, eng)
		if err != nil {
			stop()
			_ = g.Wait()
			return fmt.Errorf("failed to initialize kafka consumer: %w", err)
		}
		g.Go(func() error { return c.Start(gctx) })
	} else {
		slog.Info("Kafka consumer disabled by config")
	}

	slog.Info("Rule engine started",
		"database", cfg.Database.Enabled,
		"kafka_consumer", cfg.Kafka.Enabled,
		"kafka_alerts", cfg.Kafka.PublishAlerts(),
		"janitor_interval", cfg.Janitor.Interval)

	// Components stop on signal; the first failing one cancels the rest.
	return g.Wait()
}

func setupLogger(cfg corecfg.LogConfig) {
	opts := &slog.HandlerOptions{Level: cfg.SlogLevel()}
	var handler slog.Handler
	if cfg.Format == "json" {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	} else {
		handler = slog.NewTextHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
