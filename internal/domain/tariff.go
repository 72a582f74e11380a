package domain

import "time"

// TariffRecord represents one warehouse's box-tariff snapshot for one calendar date.
// Corresponds to the tariffs table in PostgreSQL; (Date, WarehouseName) is unique.
type TariffRecord struct {
	ID                        int64      // autogenerated row identity
	Date                      time.Time  // civil date, no time component (UTC midnight)
	WarehouseID               int64      // upstream id, or hash fallback derived from the name
	WarehouseName             string     // fallback identity key
	BoxDeliveryAndStorageExpr *string    // opaque descriptive string (nullable)
	BoxDeliveryBase           float64    // delivery, base rate
	BoxDeliveryLiter          float64    // delivery, per liter
	BoxStorageBase            float64    // storage, base rate
	BoxStorageLiter           float64    // storage, per liter
	DtNextBox                 *time.Time // next tariff change, nil when upstream omits it
	DtTillMax                 *time.Time // current tariff valid until, nil when unparseable
	CreatedAt                 time.Time  // set on first insert, preserved across upserts
	UpdatedAt                 time.Time  // bumped on every upsert merge
}

// TariffStats holds aggregate counts over the whole tariffs table.
// Used as a bootstrap signal for whether an initial fetch is needed.
type TariffStats struct {
	TotalRecords     int64
	UniqueDates      int64
	UniqueWarehouses int64
	EarliestDate     *time.Time
	LatestDate       *time.Time
}

// SheetRow is the derived, non-persisted projection of a TariffRecord
// published to spreadsheet targets. Coefficient is the sum of the four
// cost components rounded to 2 decimal places.
type SheetRow struct {
	WarehouseName    string
	WarehouseID      int64
	BoxDeliveryBase  float64
	BoxDeliveryLiter float64
	BoxStorageBase   float64
	BoxStorageLiter  float64
	Coefficient      float64
	Date             string // human-readable publish timestamp, Moscow time
}
