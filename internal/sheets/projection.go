// Package sheets turns stored tariff records into a sorted row set and
// publishes it to configured spreadsheet targets.
package sheets

import (
	"fmt"
	"math"
	"sort"
	"time"

	"wb-tariff-sync/internal/domain"
)

// moscowZone is the fixed civil timezone used for the publish timestamp.
// Deliberately not a zone-database lookup: the offset is always +3.
var moscowZone = time.FixedZone("МСК", 3*60*60)

// ruMonths holds Russian genitive month names for the publish timestamp.
var ruMonths = [...]string{
	"января", "февраля", "марта", "апреля", "мая", "июня",
	"июля", "августа", "сентября", "октября", "ноября", "декабря",
}

// FormatPublishTime renders an instant as a human-readable Moscow-time
// string, e.g. "3 июля 2025 г., 14:05:09 МСК (GMT+3)".
func FormatPublishTime(at time.Time) string {
	t := at.In(moscowZone)
	return fmt.Sprintf("%d %s %d г., %02d:%02d:%02d МСК (GMT+3)",
		t.Day(), ruMonths[t.Month()-1], t.Year(), t.Hour(), t.Minute(), t.Second())
}

// Project computes the publishable row set from tariff records. Pure, never
// fails. Coefficient is the sum of the four cost components rounded to two
// decimal places (half away from zero on the scaled integer). Rows are
// stable-sorted by coefficient ascending only; ties keep input order, so the
// store's pre-sort shows through for equal coefficients.
func Project(records []*domain.TariffRecord, at time.Time) []domain.SheetRow {
	date := FormatPublishTime(at)

	rows := make([]domain.SheetRow, 0, len(records))
	for _, rec := range records {
		coefficient := rec.BoxDeliveryBase + rec.BoxDeliveryLiter +
			rec.BoxStorageBase + rec.BoxStorageLiter

		rows = append(rows, domain.SheetRow{
			WarehouseName:    rec.WarehouseName,
			WarehouseID:      rec.WarehouseID,
			BoxDeliveryBase:  rec.BoxDeliveryBase,
			BoxDeliveryLiter: rec.BoxDeliveryLiter,
			BoxStorageBase:   rec.BoxStorageBase,
			BoxStorageLiter:  rec.BoxStorageLiter,
			Coefficient:      math.Round(coefficient*100) / 100,
			Date:             date,
		})
	}

	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].Coefficient < rows[j].Coefficient
	})

	return rows
}
