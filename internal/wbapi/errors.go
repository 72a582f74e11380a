package wbapi

import "errors"

// Client errors. Both surface to the caller unretried; the scheduler is
// the boundary that decides whether a failed run matters.
var (
	// ErrNetwork is returned when the upstream API is unreachable, times
	// out, or answers with a non-2xx status.
	ErrNetwork = errors.New("wb api unreachable")

	// ErrFormat is returned when the response body does not carry the
	// expected response.data path.
	ErrFormat = errors.New("wb api response has unexpected format")
)
