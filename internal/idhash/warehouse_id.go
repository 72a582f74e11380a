// Package idhash derives deterministic identifiers for warehouses that the
// upstream API returns without an id. The algorithm is the classic shift-add
// string hash with 32-bit overflow wrap, kept bit-exact with the original
// deployment so repeated fetches map the same name to the same id.
package idhash

// WarehouseID computes a stable non-negative id from a warehouse name.
// Empty names hash to 0.
func WarehouseID(name string) int64 {
	var h int32
	for _, r := range name {
		// h = (h << 5) - h + code, wrapping at 32 bits.
		h = h*31 + int32(r)
	}
	// Absolute value in 64-bit space so MinInt32 does not wrap back negative.
	v := int64(h)
	if v < 0 {
		v = -v
	}
	return v
}
