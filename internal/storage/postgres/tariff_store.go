package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"wb-tariff-sync/internal/domain"
	"wb-tariff-sync/internal/idhash"
	"wb-tariff-sync/internal/storage"
)

// TariffStore implements storage.TariffStore using PostgreSQL.
type TariffStore struct {
	pool *Pool
	log  *zap.Logger
}

// NewTariffStore creates a new TariffStore.
func NewTariffStore(pool *Pool, log *zap.Logger) *TariffStore {
	return &TariffStore{pool: pool, log: log.Named("storage")}
}

// Compile-time interface check.
var _ storage.TariffStore = (*TariffStore)(nil)

const upsertQuery = `
	INSERT INTO tariffs (
		date, warehouse_id, warehouse_name, box_delivery_and_storage_expr,
		box_delivery_base, box_delivery_liter, box_storage_base, box_storage_liter,
		dt_next_box, dt_till_max
	) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (date, warehouse_name) DO UPDATE SET
		warehouse_id                  = EXCLUDED.warehouse_id,
		box_delivery_and_storage_expr = EXCLUDED.box_delivery_and_storage_expr,
		box_delivery_base             = EXCLUDED.box_delivery_base,
		box_delivery_liter            = EXCLUDED.box_delivery_liter,
		box_storage_base              = EXCLUDED.box_storage_base,
		box_storage_liter             = EXCLUDED.box_storage_liter,
		dt_next_box                   = EXCLUDED.dt_next_box,
		dt_till_max                   = EXCLUDED.dt_till_max,
		updated_at                    = now()
`

// Upsert inserts or merges each record keyed on (date, warehouse_name).
// Records are applied one statement at a time, no surrounding transaction:
// the first failure aborts the remaining records, already-applied rows stay.
func (s *TariffStore) Upsert(ctx context.Context, records []*domain.TariffRecord) error {
	for _, rec := range records {
		if rec == nil || rec.WarehouseName == "" {
			return storage.ErrInvalidInput
		}

		warehouseID := rec.WarehouseID
		if warehouseID == 0 {
			warehouseID = idhash.WarehouseID(rec.WarehouseName)
		}

		_, err := s.pool.Exec(ctx, upsertQuery,
			rec.Date,
			warehouseID,
			rec.WarehouseName,
			rec.BoxDeliveryAndStorageExpr,
			rec.BoxDeliveryBase,
			rec.BoxDeliveryLiter,
			rec.BoxStorageBase,
			rec.BoxStorageLiter,
			rec.DtNextBox,
			rec.DtTillMax,
		)
		if err != nil {
			return fmt.Errorf("upsert tariff %q: %w: %v", rec.WarehouseName, storage.ErrUnavailable, err)
		}
	}

	s.log.Info("upserted tariffs", zap.Int("count", len(records)))
	return nil
}

const selectColumns = `
	id, date, warehouse_id, warehouse_name, box_delivery_and_storage_expr,
	box_delivery_base, box_delivery_liter, box_storage_base, box_storage_liter,
	dt_next_box, dt_till_max, created_at, updated_at
`

// GetLatest returns all records for the maximum stored date, ordered by
// warehouse name ascending.
func (s *TariffStore) GetLatest(ctx context.Context) ([]*domain.TariffRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM tariffs
		WHERE date = (SELECT MAX(date) FROM tariffs)
		ORDER BY warehouse_name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get latest tariffs: %w: %v", storage.ErrUnavailable, err)
	}
	defer rows.Close()

	return scanTariffs(rows)
}

// GetByDate returns records for an exact date, ordered by warehouse name.
func (s *TariffStore) GetByDate(ctx context.Context, date time.Time) ([]*domain.TariffRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM tariffs
		WHERE date = $1
		ORDER BY warehouse_name ASC
	`

	rows, err := s.pool.Query(ctx, query, date)
	if err != nil {
		return nil, fmt.Errorf("get tariffs by date: %w: %v", storage.ErrUnavailable, err)
	}
	defer rows.Close()

	return scanTariffs(rows)
}

// GetSortedForPublication returns records for the maximum date pre-sorted
// by box_delivery_base ascending, then warehouse name. The projection
// layer applies its own coefficient sort on top of this.
func (s *TariffStore) GetSortedForPublication(ctx context.Context) ([]*domain.TariffRecord, error) {
	query := `
		SELECT ` + selectColumns + `
		FROM tariffs
		WHERE date = (SELECT MAX(date) FROM tariffs)
		ORDER BY box_delivery_base ASC, warehouse_name ASC
	`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("get tariffs for publication: %w: %v", storage.ErrUnavailable, err)
	}
	defer rows.Close()

	return scanTariffs(rows)
}

// GetStats returns aggregate counts over the whole table.
func (s *TariffStore) GetStats(ctx context.Context) (*domain.TariffStats, error) {
	query := `
		SELECT
			COUNT(*),
			COUNT(DISTINCT date),
			COUNT(DISTINCT warehouse_id),
			MIN(date),
			MAX(date)
		FROM tariffs
	`

	var stats domain.TariffStats
	err := s.pool.QueryRow(ctx, query).Scan(
		&stats.TotalRecords,
		&stats.UniqueDates,
		&stats.UniqueWarehouses,
		&stats.EarliestDate,
		&stats.LatestDate,
	)
	if err != nil {
		return nil, fmt.Errorf("get tariff stats: %w: %v", storage.ErrUnavailable, err)
	}
	return &stats, nil
}

// CheckConnection issues a trivial round-trip query and reports the result.
func (s *TariffStore) CheckConnection(ctx context.Context) bool {
	var one int
	if err := s.pool.QueryRow(ctx, "SELECT 1").Scan(&one); err != nil {
		s.log.Warn("connection check failed", zap.Error(err))
		return false
	}
	return true
}

// scanTariffs scans rows into a slice of TariffRecord.
func scanTariffs(rows pgx.Rows) ([]*domain.TariffRecord, error) {
	records := make([]*domain.TariffRecord, 0)

	for rows.Next() {
		var rec domain.TariffRecord
		err := rows.Scan(
			&rec.ID,
			&rec.Date,
			&rec.WarehouseID,
			&rec.WarehouseName,
			&rec.BoxDeliveryAndStorageExpr,
			&rec.BoxDeliveryBase,
			&rec.BoxDeliveryLiter,
			&rec.BoxStorageBase,
			&rec.BoxStorageLiter,
			&rec.DtNextBox,
			&rec.DtTillMax,
			&rec.CreatedAt,
			&rec.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan tariff row: %w", err)
		}
		rec.Date = rec.Date.UTC()
		records = append(records, &rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tariff rows: %w: %v", storage.ErrUnavailable, err)
	}

	return records, nil
}
