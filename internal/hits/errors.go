package hits

import "errors"

// ErrInvalidGeometry is returned when a hit cannot be resolved to a finite
// grid position: unknown TPC, wire out of range, or a non-finite time or charge.
var ErrInvalidGeometry = errors.New("invalid geometry")
