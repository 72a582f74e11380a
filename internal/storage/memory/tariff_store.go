package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"wb-tariff-sync/internal/domain"
	"wb-tariff-sync/internal/idhash"
	"wb-tariff-sync/internal/normalize"
	"wb-tariff-sync/internal/storage"
)

// TariffStore is an in-memory implementation of storage.TariffStore.
// Used by scheduler tests and as a dry-run storage driver.
type TariffStore struct {
	mu     sync.RWMutex
	data   map[string]*domain.TariffRecord // keyed by date|warehouse_name
	nextID int64
}

// NewTariffStore creates a new in-memory tariff store.
func NewTariffStore() *TariffStore {
	return &TariffStore{
		data:   make(map[string]*domain.TariffRecord),
		nextID: 1,
	}
}

// Compile-time interface check.
var _ storage.TariffStore = (*TariffStore)(nil)

func key(date time.Time, warehouseName string) string {
	return normalize.DateString(date) + "|" + warehouseName
}

// Upsert inserts or merges each record keyed on (date, warehouse_name),
// preserving row identity and creation timestamp on merge.
func (s *TariffStore) Upsert(_ context.Context, records []*domain.TariffRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	for _, rec := range records {
		if rec == nil || rec.WarehouseName == "" {
			return storage.ErrInvalidInput
		}

		stored := *rec
		stored.Date = normalize.Date(rec.Date)
		if stored.WarehouseID == 0 {
			stored.WarehouseID = idhash.WarehouseID(stored.WarehouseName)
		}
		stored.UpdatedAt = now

		k := key(stored.Date, stored.WarehouseName)
		if existing, ok := s.data[k]; ok {
			stored.ID = existing.ID
			stored.CreatedAt = existing.CreatedAt
		} else {
			stored.ID = s.nextID
			s.nextID++
			stored.CreatedAt = now
		}
		s.data[k] = &stored
	}
	return nil
}

// GetLatest returns all records for the maximum stored date, ordered by
// warehouse name ascending.
func (s *TariffStore) GetLatest(ctx context.Context) ([]*domain.TariffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var max time.Time
	for _, rec := range s.data {
		if rec.Date.After(max) {
			max = rec.Date
		}
	}
	return s.byDateLocked(max), nil
}

// GetByDate returns records for an exact date, same ordering.
func (s *TariffStore) GetByDate(_ context.Context, date time.Time) ([]*domain.TariffRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.byDateLocked(normalize.Date(date)), nil
}

// byDateLocked collects copies of all records for one date sorted by
// warehouse name. Caller holds the lock.
func (s *TariffStore) byDateLocked(date time.Time) []*domain.TariffRecord {
	result := make([]*domain.TariffRecord, 0)
	for _, rec := range s.data {
		if rec.Date.Equal(date) {
			recCopy := *rec
			result = append(result, &recCopy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].WarehouseName < result[j].WarehouseName
	})
	return result
}

// GetSortedForPublication returns records for the maximum date ordered by
// BoxDeliveryBase ascending, then warehouse name ascending.
func (s *TariffStore) GetSortedForPublication(ctx context.Context) ([]*domain.TariffRecord, error) {
	records, err := s.GetLatest(ctx)
	if err != nil {
		return nil, err
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].BoxDeliveryBase != records[j].BoxDeliveryBase {
			return records[i].BoxDeliveryBase < records[j].BoxDeliveryBase
		}
		return records[i].WarehouseName < records[j].WarehouseName
	})
	return records, nil
}

// GetStats returns aggregate counts over all stored records.
func (s *TariffStore) GetStats(_ context.Context) (*domain.TariffStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := &domain.TariffStats{}
	dates := make(map[string]struct{})
	warehouses := make(map[int64]struct{})

	for _, rec := range s.data {
		stats.TotalRecords++
		dates[normalize.DateString(rec.Date)] = struct{}{}
		warehouses[rec.WarehouseID] = struct{}{}

		d := rec.Date
		if stats.EarliestDate == nil || d.Before(*stats.EarliestDate) {
			earliest := d
			stats.EarliestDate = &earliest
		}
		if stats.LatestDate == nil || d.After(*stats.LatestDate) {
			latest := d
			stats.LatestDate = &latest
		}
	}

	stats.UniqueDates = int64(len(dates))
	stats.UniqueWarehouses = int64(len(warehouses))
	return stats, nil
}

// CheckConnection always succeeds for the in-memory store.
func (s *TariffStore) CheckConnection(_ context.Context) bool {
	return true
}
