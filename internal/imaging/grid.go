package imaging

import (
	"fmt"
	"sort"

	"github.com/ironsheep/blurcluster-mcp/internal/hits"
)

// MaxGridCells bounds the area of a grid built from hits.
const MaxGridCells = 1 << 26

// Grid is a dense wire × tick array of charge values.
type Grid struct {
	// Wires and Ticks are the grid dimensions in bins.
	Wires int `json:"wires"`
	Ticks int `json:"ticks"`

	// WireOffset and TickOffset are the detector coordinates of bin (0, 0).
	WireOffset int `json:"wire_offset"`
	TickOffset int `json:"tick_offset"`

	// Values holds Wires*Ticks cells, indexed by wireBin*Ticks + tickBin.
	Values []float64 `json:"-"`
}

// NewGrid allocates a zeroed grid.
func NewGrid(wires, ticks, wireOffset, tickOffset int) *Grid {
	return &Grid{
		Wires:      wires,
		Ticks:      ticks,
		WireOffset: wireOffset,
		TickOffset: tickOffset,
		Values:     make([]float64, wires*ticks),
	}
}

// Len returns the number of cells.
func (g *Grid) Len() int { return len(g.Values) }

// Index flattens a bin pair into a cell index.
func (g *Grid) Index(wireBin, tickBin int) int { return wireBin*g.Ticks + tickBin }

// Bins splits a cell index into its bin pair.
func (g *Grid) Bins(cell int) (wireBin, tickBin int) {
	return cell / g.Ticks, cell % g.Ticks
}

// Contains reports whether the bin pair lies inside the grid.
func (g *Grid) Contains(wireBin, tickBin int) bool {
	return wireBin >= 0 && wireBin < g.Wires && tickBin >= 0 && tickBin < g.Ticks
}

// At returns the value at a bin pair. The pair must be inside the grid.
func (g *Grid) At(wireBin, tickBin int) float64 { return g.Values[g.Index(wireBin, tickBin)] }

// Value returns the value of a cell.
func (g *Grid) Value(cell int) float64 { return g.Values[cell] }

// Wire returns the global wire of a cell.
func (g *Grid) Wire(cell int) int { return g.WireOffset + cell/g.Ticks }

// Tick returns the detector tick of a cell.
func (g *Grid) Tick(cell int) int { return g.TickOffset + cell%g.Ticks }

// Sum returns the total of all cell values.
func (g *Grid) Sum() float64 {
	var s float64
	for _, v := range g.Values {
		s += v
	}
	return s
}

// Max returns the largest cell value, or 0 for an empty grid.
func (g *Grid) Max() float64 {
	var m float64
	for _, v := range g.Values {
		if v > m {
			m = v
		}
	}
	return m
}

// GridStats summarizes a grid for logs and tool output.
type GridStats struct {
	Wires         int     `json:"wires"`
	Ticks         int     `json:"ticks"`
	WireOffset    int     `json:"wire_offset"`
	TickOffset    int     `json:"tick_offset"`
	NonZeroCells  int     `json:"non_zero_cells"`
	TotalCharge   float64 `json:"total_charge"`
	MaxCellCharge float64 `json:"max_cell_charge"`
}

// Stats computes a GridStats for g.
func (g *Grid) Stats() GridStats {
	st := GridStats{
		Wires:         g.Wires,
		Ticks:         g.Ticks,
		WireOffset:    g.WireOffset,
		TickOffset:    g.TickOffset,
		TotalCharge:   g.Sum(),
		MaxCellCharge: g.Max(),
	}
	for _, v := range g.Values {
		if v != 0 {
			st.NonZeroCells++
		}
	}
	return st
}

// CellHitMap maps a cell index to the hit that produced it.
//
// At most one hit is remembered per cell. When several hits land in one cell
// their charges are all summed into the grid, and the hit that sorts last in
// hits.Less order (largest charge, then largest ID) is the one remembered.
type CellHitMap struct {
	hits map[int]hits.Hit

	// Collisions counts hits that landed in an already occupied cell.
	Collisions int
}

// Hit returns the hit recorded for cell.
func (m *CellHitMap) Hit(cell int) (hits.Hit, bool) {
	if m == nil {
		return hits.Hit{}, false
	}
	h, ok := m.hits[cell]
	return h, ok
}

// Has reports whether cell holds a hit.
func (m *CellHitMap) Has(cell int) bool {
	_, ok := m.Hit(cell)
	return ok
}

// Len returns the number of occupied cells.
func (m *CellHitMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.hits)
}

// BuildGrid rasterizes hits into a grid covering their wire/tick extent plus
// margin bins on every side, and records which hit produced each cell.
//
// Hits are accumulated in hits.Less order, so the grid and the map do not depend
// on the order of hs. Empty input yields a zero-size grid.
func BuildGrid(hs []hits.Hit, margin int) (*Grid, *CellHitMap, error) {
	if margin < 0 {
		return nil, nil, fmt.Errorf("%w: grid margin must be >= 0: %d", ErrInvalidParameter, margin)
	}
	cellMap := &CellHitMap{hits: make(map[int]hits.Hit, len(hs))}
	if len(hs) == 0 {
		return NewGrid(0, 0, 0, 0), cellMap, nil
	}

	sorted := make([]hits.Hit, len(hs))
	copy(sorted, hs)
	sort.Slice(sorted, func(i, j int) bool { return hits.Less(sorted[i], sorted[j]) })

	minWire, maxWire := sorted[0].Wire, sorted[0].Wire
	minTick, maxTick := sorted[0].Tick, sorted[0].Tick
	for _, h := range sorted[1:] {
		minWire = min(minWire, h.Wire)
		maxWire = max(maxWire, h.Wire)
		minTick = min(minTick, h.Tick)
		maxTick = max(maxTick, h.Tick)
	}

	wires := int64(maxWire) - int64(minWire) + 1 + 2*int64(margin)
	ticks := int64(maxTick) - int64(minTick) + 1 + 2*int64(margin)
	if wires <= 0 || ticks <= 0 || wires > MaxGridCells || ticks > MaxGridCells || wires*ticks > MaxGridCells {
		return nil, nil, fmt.Errorf("%w: hits span %d wires x %d ticks (max %d cells)",
			ErrInvalidGeometry, wires, ticks, MaxGridCells)
	}

	g := NewGrid(int(wires), int(ticks), minWire-margin, minTick-margin)
	for _, h := range sorted {
		wireBin := h.Wire - g.WireOffset
		tickBin := h.Tick - g.TickOffset
		if !g.Contains(wireBin, tickBin) {
			return nil, nil, fmt.Errorf("%w: hit %d at wire %d tick %d outside grid",
				ErrInvalidGeometry, h.ID, h.Wire, h.Tick)
		}
		cell := g.Index(wireBin, tickBin)
		g.Values[cell] += h.Charge
		if _, taken := cellMap.hits[cell]; taken {
			cellMap.Collisions++
		}
		cellMap.hits[cell] = h
	}
	return g, cellMap, nil
}
