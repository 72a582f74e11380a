package idhash

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWarehouseID(t *testing.T) {
	tests := []struct {
		name      string
		warehouse string
		want      int64
	}{
		{name: "cyrillic name", warehouse: "Коледино", want: 275501085},
		{name: "long cyrillic name", warehouse: "Электросталь", want: 14901747},
		{name: "name with space", warehouse: "СЦ Пушкино", want: 941383976},
		{name: "latin name", warehouse: "Tula", want: 2618326},
		{name: "empty name", warehouse: "", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, WarehouseID(tt.warehouse))
		})
	}
}

func TestWarehouseID_Deterministic(t *testing.T) {
	assert.Equal(t, WarehouseID("Казань"), WarehouseID("Казань"))
}

func TestWarehouseID_NonNegative(t *testing.T) {
	// Long inputs overflow int32 many times over; the result must still
	// come out non-negative.
	names := []string{
		"Санкт-Петербург Уткина Заводь",
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa",
		"склад-склад-склад-склад-склад-склад",
	}
	for _, n := range names {
		assert.GreaterOrEqual(t, WarehouseID(n), int64(0), "name %q", n)
	}
}
