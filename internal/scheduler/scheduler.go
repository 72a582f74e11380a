// Package scheduler owns the two recurring jobs of the service: fetch-and-store
// (job A) and project-and-publish (job B), plus the one-shot bootstrap run
// performed at startup. It is the error boundary: job-level failures are
// logged and never crash the process or cancel future triggers.
package scheduler

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wb-tariff-sync/internal/domain"
	"wb-tariff-sync/internal/normalize"
	"wb-tariff-sync/internal/observability"
	"wb-tariff-sync/internal/sheets"
	"wb-tariff-sync/internal/storage"
)

// TariffFetcher is the upstream API surface the scheduler needs.
type TariffFetcher interface {
	FetchTariffs(ctx context.Context) ([]*domain.TariffRecord, error)
	HealthCheck(ctx context.Context) bool
}

// SheetPublisher writes a projected row set to every configured target.
type SheetPublisher interface {
	PublishAll(ctx context.Context, rows []domain.SheetRow) error
}

// Options for creating a Scheduler.
type Options struct {
	Fetcher   TariffFetcher
	Store     storage.TariffStore
	Publisher SheetPublisher

	// Cron trigger expressions for jobs A and B.
	FetchSpec   string
	PublishSpec string

	// Location is the fixed named timezone for trigger evaluation.
	Location *time.Location

	// Clock overrides time.Now. Tests only.
	Clock func() time.Time

	// Metrics is optional; nil disables instrumentation.
	Metrics *observability.Metrics
}

// Scheduler sequences calls between the fetch client, the store and the
// sheet publisher. A manual trigger of a job while a scheduled run of the
// same job is in flight is not guarded; both proceed concurrently.
type Scheduler struct {
	fetcher   TariffFetcher
	store     storage.TariffStore
	publisher SheetPublisher

	fetchSpec   string
	publishSpec string
	location    *time.Location

	now     func() time.Time
	metrics *observability.Metrics
	log     *zap.Logger

	mu      sync.Mutex
	cron    *cron.Cron
	running bool
}

// Status reports whether jobs are registered and echoes the active
// trigger expressions.
type Status struct {
	Running     bool
	FetchSpec   string
	PublishSpec string
}

// New creates a Scheduler.
func New(opts Options, log *zap.Logger) *Scheduler {
	now := opts.Clock
	if now == nil {
		now = time.Now
	}
	loc := opts.Location
	if loc == nil {
		loc = time.UTC
	}
	return &Scheduler{
		fetcher:     opts.Fetcher,
		store:       opts.Store,
		publisher:   opts.Publisher,
		fetchSpec:   opts.FetchSpec,
		publishSpec: opts.PublishSpec,
		location:    loc,
		now:         now,
		metrics:     opts.Metrics,
		log:         log.Named("scheduler"),
	}
}

// Start registers both jobs against their trigger expressions, starts the
// timers, then runs the bootstrap sequence asynchronously. Fails only when
// a trigger expression does not parse.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("scheduler already started")
	}

	c := cron.New(cron.WithLocation(s.location))

	if _, err := c.AddFunc(s.fetchSpec, func() {
		s.RunFetchJob(context.Background())
	}); err != nil {
		return fmt.Errorf("register fetch job %q: %w", s.fetchSpec, err)
	}

	if _, err := c.AddFunc(s.publishSpec, func() {
		s.RunPublishJob(context.Background())
	}); err != nil {
		return fmt.Errorf("register publish job %q: %w", s.publishSpec, err)
	}

	c.Start()
	s.cron = c
	s.running = true

	s.log.Info("scheduler started",
		zap.String("fetch_schedule", s.fetchSpec),
		zap.String("publish_schedule", s.publishSpec),
		zap.String("timezone", s.location.String()))

	// Bootstrap must not block timer registration.
	go s.bootstrap(context.Background())

	return nil
}

// Stop cancels future triggers. In-flight job runs are not interrupted.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	s.cron.Stop()
	s.cron = nil
	s.running = false
	s.log.Info("scheduler stopped")
}

// Status reports the current scheduler state.
func (s *Scheduler) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()

	return Status{
		Running:     s.running,
		FetchSpec:   s.fetchSpec,
		PublishSpec: s.publishSpec,
	}
}

// bootstrap performs the one-time conditional run at startup: fetch if the
// store is empty or stale, then publish if any records exist.
func (s *Scheduler) bootstrap(ctx context.Context) {
	s.log.Info("running bootstrap")

	if !s.fetcher.HealthCheck(ctx) {
		s.log.Error("upstream api is not available, skipping bootstrap")
		return
	}

	stats, err := s.store.GetStats(ctx)
	if err != nil {
		s.log.Error("bootstrap stats query failed", zap.Error(err))
		return
	}
	s.log.Info("store statistics",
		zap.Int64("total_records", stats.TotalRecords),
		zap.Int64("unique_dates", stats.UniqueDates),
		zap.Int64("unique_warehouses", stats.UniqueWarehouses))

	if stats.TotalRecords == 0 || s.isStale(stats.LatestDate) {
		s.RunFetchJob(ctx)
	}

	// Re-read after the conditional fetch: publish whenever any records
	// exist, regardless of whether job A just ran.
	stats, err = s.store.GetStats(ctx)
	if err != nil {
		s.log.Error("bootstrap stats re-query failed", zap.Error(err))
		return
	}
	if stats.TotalRecords > 0 {
		s.RunPublishJob(ctx)
	}
}

// isStale reports whether the stored latest date differs from today.
func (s *Scheduler) isStale(latest *time.Time) bool {
	if latest == nil {
		return true
	}
	return !normalize.Date(*latest).Equal(normalize.Date(s.now()))
}

// RunFetchJob executes job A: fetch tariffs and upsert them. All errors are
// caught and logged; a failed run never cancels future scheduled runs.
func (s *Scheduler) RunFetchJob(ctx context.Context) {
	s.log.Info("starting fetch job")

	records, err := s.fetcher.FetchTariffs(ctx)
	if err != nil {
		s.log.Error("fetch job failed", zap.Error(err))
		s.countFetch("error")
		return
	}

	if len(records) == 0 {
		s.log.Warn("no tariffs received from upstream api")
		s.countFetch("empty")
		return
	}

	if s.metrics != nil {
		s.metrics.TariffsFetched.Add(float64(len(records)))
	}

	if err := s.store.Upsert(ctx, records); err != nil {
		s.log.Error("fetch job store failed", zap.Error(err))
		s.countFetch("error")
		return
	}

	s.log.Info("fetch job completed", zap.Int("records", len(records)))
	s.countFetch("success")
	if s.metrics != nil {
		s.metrics.TariffsStored.Add(float64(len(records)))
		s.metrics.LastSuccessfulFetch.SetToCurrentTime()
	}
}

// RunPublishJob executes job B: project the latest records and publish them
// to every configured target. Per-target failures are isolated inside the
// publisher; here they are logged and swallowed.
func (s *Scheduler) RunPublishJob(ctx context.Context) {
	s.log.Info("starting publish job")

	records, err := s.store.GetLatest(ctx)
	if err != nil {
		s.log.Error("publish job query failed", zap.Error(err))
		s.countPublish("error")
		return
	}

	if len(records) == 0 {
		s.log.Warn("no tariffs in store, skipping publish")
		s.countPublish("empty")
		return
	}

	rows := sheets.Project(records, s.now())

	if err := s.publisher.PublishAll(ctx, rows); err != nil {
		// Some (possibly all) targets failed; the rest were still attempted.
		s.log.Error("publish job completed with target failures", zap.Error(err))
		s.countPublish("partial")
		if s.metrics != nil {
			s.metrics.SheetTargetFailures.Inc()
		}
		return
	}

	s.log.Info("publish job completed", zap.Int("rows", len(rows)))
	s.countPublish("success")
	if s.metrics != nil {
		s.metrics.RowsPublished.Add(float64(len(rows)))
		s.metrics.LastSuccessfulPublish.SetToCurrentTime()
	}
}

func (s *Scheduler) countFetch(status string) {
	if s.metrics != nil {
		s.metrics.FetchRuns.WithLabelValues(status).Inc()
	}
}

func (s *Scheduler) countPublish(status string) {
	if s.metrics != nil {
		s.metrics.PublishRuns.WithLabelValues(status).Inc()
	}
}
