// Command tariffsync runs the box-tariff synchronization service: scheduled
// fetches from the WB commerce API into PostgreSQL and scheduled republication
// of the latest tariffs into configured Google Sheets.
package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"wb-tariff-sync/internal/config"
	"wb-tariff-sync/internal/observability"
	"wb-tariff-sync/internal/scheduler"
	"wb-tariff-sync/internal/sheets"
	"wb-tariff-sync/internal/storage/migrations"
	"wb-tariff-sync/internal/storage/postgres"
	"wb-tariff-sync/internal/wbapi"
)

func main() {
	configPath := flag.String("config", "config/config.yaml", "Path to YAML configuration file")
	manual := flag.Bool("manual", false, "Run one fetch-and-store and one publish cycle, then exit")
	flag.Parse()

	// Optional .env for local development; absence is not an error.
	_ = godotenv.Load()

	log, err := zap.NewProduction()
	if err != nil {
		fmt.Fprintf(os.Stderr, "create logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync() //nolint:errcheck

	if err := run(*configPath, *manual, log); err != nil {
		log.Fatal("service failed", zap.Error(err))
	}
}

func run(configPath string, manual bool, log *zap.Logger) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	ctx := context.Background()

	pool, err := postgres.NewPool(ctx, cfg.Database.DSN())
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	if err := migrations.RunPostgresMigrations(ctx, pool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	store := postgres.NewTariffStore(pool, log)
	client := wbapi.NewClient(cfg.WB.APIKey, cfg.WB.BaseURL, cfg.WB.TariffEndpoint, log)

	publisher, err := buildPublisher(ctx, cfg.Sheets, log)
	if err != nil {
		return err
	}

	location, err := time.LoadLocation(cfg.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("load timezone %q: %w", cfg.Scheduler.Timezone, err)
	}

	metrics := observability.NewMetrics("wb_tariff_sync")

	sched := scheduler.New(scheduler.Options{
		Fetcher:     client,
		Store:       store,
		Publisher:   publisher,
		FetchSpec:   cfg.Scheduler.FetchTariffs,
		PublishSpec: cfg.Scheduler.UpdateSheets,
		Location:    location,
		Metrics:     metrics,
	}, log)

	if manual {
		log.Info("manual mode: running both jobs once")
		sched.RunFetchJob(ctx)
		sched.RunPublishJob(ctx)
		return nil
	}

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr, log)
	}

	if err := sched.Start(); err != nil {
		return fmt.Errorf("start scheduler: %w", err)
	}

	log.Info("service started",
		zap.String("timezone", cfg.Scheduler.Timezone),
		zap.Int("sheet_targets", publisher.TargetCount()))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh

	log.Info("received signal, shutting down", zap.String("signal", sig.String()))
	sched.Stop()
	return nil
}

// buildPublisher reads each target's credential file and opens a sheets
// service for it. Any unreadable credential or unreachable service is fatal;
// a partially configured target set never starts.
func buildPublisher(ctx context.Context, targets []config.SheetTarget, log *zap.Logger) (*sheets.Publisher, error) {
	built := make([]*sheets.Target, 0, len(targets))
	for _, tc := range targets {
		creds, err := os.ReadFile(tc.CredentialsFile)
		if err != nil {
			return nil, fmt.Errorf("read credentials for %s: %w", tc.SpreadsheetID, err)
		}
		target, err := sheets.NewTarget(ctx, tc.SpreadsheetID, tc.Range, creds)
		if err != nil {
			return nil, err
		}
		built = append(built, target)
	}
	return sheets.NewPublisher(built, log), nil
}

func serveMetrics(addr string, log *zap.Logger) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", observability.Handler())

	log.Info("metrics endpoint listening", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Error("metrics endpoint failed", zap.Error(err))
	}
}
