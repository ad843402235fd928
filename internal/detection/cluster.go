package detection

import (
	"sort"

	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

// Cluster is a set of grid cells grown from one seed.
type Cluster struct {
	// Seed is the cell the cluster was grown from. Merged clusters keep the
	// seed of their first part.
	Seed int `json:"seed"`

	// Cells are the member cell indices in the order they joined.
	Cells []int `json:"cells"`
}

// Len returns the number of member cells.
func (c Cluster) Len() int { return len(c.Cells) }

// ClusterStats summarizes a cluster on its grid.
type ClusterStats struct {
	Size        int     `json:"size"`
	HitCount    int     `json:"hit_count"`
	SeedValue   float64 `json:"seed_value"`
	TotalCharge float64 `json:"total_charge"`
	MinWire     int     `json:"min_wire"`
	MaxWire     int     `json:"max_wire"`
	MinTick     int     `json:"min_tick"`
	MaxTick     int     `json:"max_tick"`
}

// Stats computes ClusterStats using the values of g. Wire and tick bounds are
// in detector coordinates. A nil occupied counts no hits.
func (c Cluster) Stats(g *imaging.Grid, occupied func(cell int) bool) ClusterStats {
	st := ClusterStats{Size: len(c.Cells)}
	if len(c.Cells) == 0 {
		return st
	}
	if c.Seed >= 0 && c.Seed < g.Len() {
		st.SeedValue = g.Value(c.Seed)
	}
	st.MinWire, st.MaxWire = g.Wire(c.Cells[0]), g.Wire(c.Cells[0])
	st.MinTick, st.MaxTick = g.Tick(c.Cells[0]), g.Tick(c.Cells[0])
	for _, cell := range c.Cells {
		st.TotalCharge += g.Value(cell)
		if occupied != nil && occupied(cell) {
			st.HitCount++
		}
		st.MinWire = min(st.MinWire, g.Wire(cell))
		st.MaxWire = max(st.MaxWire, g.Wire(cell))
		st.MinTick = min(st.MinTick, g.Tick(cell))
		st.MaxTick = max(st.MaxTick, g.Tick(cell))
	}
	return st
}

// CellSets returns the member cells of each cluster, as the renderer takes them.
func CellSets(clusters []Cluster) [][]int {
	out := make([][]int, len(clusters))
	for i, c := range clusters {
		out[i] = c.Cells
	}
	return out
}

// lowerMedian returns the lower median of vals. vals is sorted in place.
func lowerMedian(vals []int) int {
	sort.Ints(vals)
	return vals[(len(vals)-1)/2]
}
