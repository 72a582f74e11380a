package scheduler

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"wb-tariff-sync/internal/domain"
	"wb-tariff-sync/internal/storage/memory"
)

type fakeFetcher struct {
	mu      sync.Mutex
	healthy bool
	records []*domain.TariffRecord
	err     error
	calls   int
}

func (f *fakeFetcher) FetchTariffs(_ context.Context) ([]*domain.TariffRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	return f.records, f.err
}

func (f *fakeFetcher) HealthCheck(_ context.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.healthy
}

func (f *fakeFetcher) fetchCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakePublisher struct {
	mu    sync.Mutex
	err   error
	calls [][]domain.SheetRow
}

func (p *fakePublisher) PublishAll(_ context.Context, rows []domain.SheetRow) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.calls = append(p.calls, rows)
	return p.err
}

func (p *fakePublisher) publishCalls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.calls)
}

func record(date time.Time, name string) *domain.TariffRecord {
	return &domain.TariffRecord{
		Date:             date,
		WarehouseName:    name,
		BoxDeliveryBase:  10,
		BoxDeliveryLiter: 1,
	}
}

func newTestScheduler(t *testing.T, fetcher *fakeFetcher, store *memory.TariffStore, publisher *fakePublisher, clock func() time.Time) *Scheduler {
	t.Helper()
	return New(Options{
		Fetcher:     fetcher,
		Store:       store,
		Publisher:   publisher,
		FetchSpec:   "0 * * * *",
		PublishSpec: "30 * * * *",
		Clock:       clock,
	}, zap.NewNop())
}

func TestRunFetchJob_StoresRecords(t *testing.T) {
	today := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		healthy: true,
		records: []*domain.TariffRecord{record(today, "Коледино"), record(today, "Казань")},
	}
	store := memory.NewTariffStore()
	s := newTestScheduler(t, fetcher, store, &fakePublisher{}, nil)

	s.RunFetchJob(context.Background())

	stored, err := store.GetLatest(context.Background())
	require.NoError(t, err)
	assert.Len(t, stored, 2)
}

func TestRunFetchJob_EmptyResponseSkipsStore(t *testing.T) {
	fetcher := &fakeFetcher{healthy: true}
	store := memory.NewTariffStore()
	s := newTestScheduler(t, fetcher, store, &fakePublisher{}, nil)

	s.RunFetchJob(context.Background())

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords)
}

func TestRunFetchJob_FetchErrorDoesNotPanic(t *testing.T) {
	fetcher := &fakeFetcher{healthy: true, err: errors.New("timeout")}
	store := memory.NewTariffStore()
	s := newTestScheduler(t, fetcher, store, &fakePublisher{}, nil)

	assert.NotPanics(t, func() { s.RunFetchJob(context.Background()) })

	stats, err := store.GetStats(context.Background())
	require.NoError(t, err)
	assert.Zero(t, stats.TotalRecords)
}

func TestRunPublishJob_ProjectsLatestRows(t *testing.T) {
	today := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	store := memory.NewTariffStore()
	require.NoError(t, store.Upsert(context.Background(), []*domain.TariffRecord{
		record(today, "Коледино"),
		record(today, "Казань"),
	}))
	publisher := &fakePublisher{}
	s := newTestScheduler(t, &fakeFetcher{healthy: true}, store, publisher, nil)

	s.RunPublishJob(context.Background())

	require.Equal(t, 1, publisher.publishCalls())
	assert.Len(t, publisher.calls[0], 2)
}

func TestRunPublishJob_EmptyStoreSkipsPublish(t *testing.T) {
	publisher := &fakePublisher{}
	s := newTestScheduler(t, &fakeFetcher{healthy: true}, memory.NewTariffStore(), publisher, nil)

	s.RunPublishJob(context.Background())

	assert.Zero(t, publisher.publishCalls())
}

func TestRunPublishJob_TargetFailureIsSwallowed(t *testing.T) {
	today := time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC)
	store := memory.NewTariffStore()
	require.NoError(t, store.Upsert(context.Background(), []*domain.TariffRecord{record(today, "Тула")}))
	publisher := &fakePublisher{err: errors.New("sheet unavailable")}
	s := newTestScheduler(t, &fakeFetcher{healthy: true}, store, publisher, nil)

	assert.NotPanics(t, func() { s.RunPublishJob(context.Background()) })
	assert.Equal(t, 1, publisher.publishCalls())
}

func TestBootstrap_UnhealthyAPISkipsEverything(t *testing.T) {
	fetcher := &fakeFetcher{healthy: false}
	publisher := &fakePublisher{}
	s := newTestScheduler(t, fetcher, memory.NewTariffStore(), publisher, nil)

	s.bootstrap(context.Background())

	assert.Zero(t, fetcher.fetchCalls())
	assert.Zero(t, publisher.publishCalls())
}

func TestBootstrap_EmptyStoreFetchesThenPublishes(t *testing.T) {
	today := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	fetcher := &fakeFetcher{
		healthy: true,
		records: []*domain.TariffRecord{record(today.Truncate(24*time.Hour), "Коледино")},
	}
	publisher := &fakePublisher{}
	s := newTestScheduler(t, fetcher, memory.NewTariffStore(), publisher, func() time.Time { return today })

	s.bootstrap(context.Background())

	assert.Equal(t, 1, fetcher.fetchCalls())
	assert.Equal(t, 1, publisher.publishCalls())
}

func TestBootstrap_FreshDataSkipsFetchButPublishes(t *testing.T) {
	today := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	store := memory.NewTariffStore()
	require.NoError(t, store.Upsert(context.Background(), []*domain.TariffRecord{
		record(time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), "Коледино"),
	}))
	fetcher := &fakeFetcher{healthy: true}
	publisher := &fakePublisher{}
	s := newTestScheduler(t, fetcher, store, publisher, func() time.Time { return today })

	s.bootstrap(context.Background())

	assert.Zero(t, fetcher.fetchCalls())
	assert.Equal(t, 1, publisher.publishCalls())
}

func TestBootstrap_StaleDataTriggersFetch(t *testing.T) {
	today := time.Date(2025, 7, 3, 12, 0, 0, 0, time.UTC)
	store := memory.NewTariffStore()
	require.NoError(t, store.Upsert(context.Background(), []*domain.TariffRecord{
		record(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), "Коледино"),
	}))
	fetcher := &fakeFetcher{
		healthy: true,
		records: []*domain.TariffRecord{record(time.Date(2025, 7, 3, 0, 0, 0, 0, time.UTC), "Коледино")},
	}
	publisher := &fakePublisher{}
	s := newTestScheduler(t, fetcher, store, publisher, func() time.Time { return today })

	s.bootstrap(context.Background())

	assert.Equal(t, 1, fetcher.fetchCalls())
	assert.Equal(t, 1, publisher.publishCalls())
}

func TestBootstrap_FetchFailureOnEmptyStoreSkipsPublish(t *testing.T) {
	fetcher := &fakeFetcher{healthy: true, err: errors.New("timeout")}
	publisher := &fakePublisher{}
	s := newTestScheduler(t, fetcher, memory.NewTariffStore(), publisher, nil)

	s.bootstrap(context.Background())

	assert.Equal(t, 1, fetcher.fetchCalls())
	assert.Zero(t, publisher.publishCalls())
}

func TestStartStop(t *testing.T) {
	fetcher := &fakeFetcher{healthy: false}
	s := newTestScheduler(t, fetcher, memory.NewTariffStore(), &fakePublisher{}, nil)

	require.NoError(t, s.Start())
	st := s.Status()
	assert.True(t, st.Running)
	assert.Equal(t, "0 * * * *", st.FetchSpec)
	assert.Equal(t, "30 * * * *", st.PublishSpec)

	require.Error(t, s.Start())

	s.Stop()
	assert.False(t, s.Status().Running)
}

func TestStart_InvalidCronSpec(t *testing.T) {
	s := New(Options{
		Fetcher:     &fakeFetcher{},
		Store:       memory.NewTariffStore(),
		Publisher:   &fakePublisher{},
		FetchSpec:   "not a cron spec",
		PublishSpec: "30 * * * *",
	}, zap.NewNop())

	require.Error(t, s.Start())
	assert.False(t, s.Status().Running)
}
