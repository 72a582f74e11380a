package storage

import (
	"context"
	"time"

	"wb-tariff-sync/internal/domain"
)

// TariffStore provides access to tariffs storage. Operations return
// ErrUnavailable (wrapped) on connectivity or query failure; only
// CheckConnection degrades to a boolean.
type TariffStore interface {
	// Upsert inserts or merges each record keyed on (date, warehouse_name).
	// On conflict all mutable fields are overwritten; row identity and
	// creation timestamp are preserved. Records are applied independently:
	// a failure aborts the remaining records but does not roll back the
	// ones already applied.
	Upsert(ctx context.Context, records []*domain.TariffRecord) error

	// GetLatest returns all records for the maximum stored date, ordered
	// by warehouse name ascending. Empty slice when the store is empty.
	GetLatest(ctx context.Context) ([]*domain.TariffRecord, error)

	// GetByDate returns records for an exact date, same ordering.
	GetByDate(ctx context.Context, date time.Time) ([]*domain.TariffRecord, error)

	// GetSortedForPublication returns records for the maximum date ordered
	// by box_delivery_base ascending, then warehouse name ascending.
	GetSortedForPublication(ctx context.Context) ([]*domain.TariffRecord, error)

	// GetStats returns aggregate counts over the whole table.
	GetStats(ctx context.Context) (*domain.TariffStats, error)

	// CheckConnection issues a trivial round-trip query and reports the
	// result as a boolean. Never returns an error.
	CheckConnection(ctx context.Context) bool
}
