package clustering

import (
	"fmt"
	"math"

	"github.com/ironsheep/blurcluster-mcp/internal/detection"
	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

var (
	// ErrInvalidParameter is returned for out-of-range parameters.
	ErrInvalidParameter = imaging.ErrInvalidParameter

	// ErrInvalidGeometry is returned for hits that cannot be gridded.
	ErrInvalidGeometry = imaging.ErrInvalidGeometry
)

// Params is the full configuration of the clustering pipeline.
type Params struct {
	// Blur kernel half-widths in wires and ticks, and its Gaussian width.
	BlurWire  int     `json:"blur_wire"`
	BlurTick  int     `json:"blur_tick"`
	BlurSigma float64 `json:"blur_sigma"`

	// Growth window half-widths in wires and ticks.
	ClusterWireDistance int `json:"cluster_wire_distance"`
	ClusterTickDistance int `json:"cluster_tick_distance"`

	// NeighboursThreshold is the in-cluster 8-neighbour count a cell needs to
	// join; MinNeighbours is the count a member needs to stay.
	NeighboursThreshold int `json:"neighbours_threshold"`
	MinNeighbours       int `json:"min_neighbours"`

	// MinSize is the minimum number of hits in an emitted cluster.
	MinSize int `json:"min_size"`

	MinSeed         float64 `json:"min_seed"`
	TimeThreshold   float64 `json:"time_threshold"`
	ChargeThreshold float64 `json:"charge_threshold"`

	// MinMergeClusterSize is the cell count both clusters of a pair need to
	// be considered for merging; MergingThreshold is the collinearity the
	// pair must exceed.
	MinMergeClusterSize int     `json:"min_merge_cluster_size"`
	MergingThreshold    float64 `json:"merging_threshold"`
}

// DefaultParams returns the standard configuration.
func DefaultParams() Params {
	return Params{
		BlurWire:            6,
		BlurTick:            12,
		BlurSigma:           6,
		ClusterWireDistance: 2,
		ClusterTickDistance: 2,
		NeighboursThreshold: 0,
		MinNeighbours:       0,
		MinSize:             2,
		MinSeed:             0.1,
		TimeThreshold:       500,
		ChargeThreshold:     0.07,
		MinMergeClusterSize: 3,
		MergingThreshold:    0.9,
	}
}

// Validate checks every parameter.
func (p Params) Validate() error {
	if err := p.KernelKey().Validate(); err != nil {
		return err
	}

	ints := []struct {
		name string
		v    int
	}{
		{"cluster_wire_distance", p.ClusterWireDistance},
		{"cluster_tick_distance", p.ClusterTickDistance},
		{"neighbours_threshold", p.NeighboursThreshold},
		{"min_neighbours", p.MinNeighbours},
		{"min_size", p.MinSize},
		{"min_merge_cluster_size", p.MinMergeClusterSize},
	}
	for _, f := range ints {
		if f.v < 0 {
			return fmt.Errorf("%w: %s must be >= 0: %d", ErrInvalidParameter, f.name, f.v)
		}
	}

	floats := []struct {
		name string
		v    float64
	}{
		{"min_seed", p.MinSeed},
		{"time_threshold", p.TimeThreshold},
		{"charge_threshold", p.ChargeThreshold},
		{"merging_threshold", p.MergingThreshold},
	}
	for _, f := range floats {
		if math.IsNaN(f.v) || f.v < 0 {
			return fmt.Errorf("%w: %s must be >= 0: %v", ErrInvalidParameter, f.name, f.v)
		}
	}
	return nil
}

// KernelKey returns the blur kernel the parameters call for.
func (p Params) KernelKey() imaging.KernelKey {
	return imaging.KernelKey{WireRadius: p.BlurWire, TickRadius: p.BlurTick, Sigma: p.BlurSigma}
}

// Margin is the number of empty bins kept around the hits so the blur has
// room to spread.
func (p Params) Margin() int {
	return max(p.BlurWire, p.BlurTick)
}

// FinderParams returns the region growing subset.
func (p Params) FinderParams() detection.FinderParams {
	return detection.FinderParams{
		WireDistance:        p.ClusterWireDistance,
		TickDistance:        p.ClusterTickDistance,
		NeighboursThreshold: p.NeighboursThreshold,
		MinNeighbours:       p.MinNeighbours,
		MinSize:             p.MinSize,
		MinSeed:             p.MinSeed,
		TimeThreshold:       p.TimeThreshold,
		ChargeThreshold:     p.ChargeThreshold,
	}
}

// MergeParams returns the merging subset.
func (p Params) MergeParams() detection.MergeParams {
	return detection.MergeParams{
		MinClusterSize: p.MinMergeClusterSize,
		Threshold:      p.MergingThreshold,
	}
}
