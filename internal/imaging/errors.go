package imaging

import (
	"errors"

	"github.com/ironsheep/blurcluster-mcp/internal/hits"
)

var (
	// ErrInvalidParameter is returned for a negative radius, margin or
	// threshold, or a non-positive sigma.
	ErrInvalidParameter = errors.New("invalid parameter")

	// ErrInvalidGeometry is returned when hits cannot be placed on a grid.
	ErrInvalidGeometry = hits.ErrInvalidGeometry
)
