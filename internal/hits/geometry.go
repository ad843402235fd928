package hits

import (
	"fmt"
	"math"
)

// WireID addresses a wire by its position in the detector hierarchy.
type WireID struct {
	Cryostat int `json:"cryostat"`
	TPC      int `json:"tpc"`
	Plane    int `json:"plane"`
	Wire     int `json:"wire"`
}

// Geometry resolves a detector wire to its global wire index.
// Implementations must be safe for concurrent reads.
type Geometry interface {
	GlobalWire(id WireID) (int, error)
}

// Layout flattens wires using per-TPC wire counts.
//
// Wires[c][t][p] is the number of wires in plane p of TPC t in cryostat c. The
// global wire of (c, t, p, w) is w plus the wire counts of plane p in every TPC
// of cryostats 0..c-1 and in TPCs 0..t-1 of cryostat c, so each (cryostat, TPC,
// wire) of a plane gets its own global wire. A Layout with no cryostats treats
// local wires as global.
type Layout struct {
	Wires [][][]int `json:"wires"`
}

// GlobalWire implements Geometry.
func (l Layout) GlobalWire(id WireID) (int, error) {
	if id.Wire < 0 {
		return 0, fmt.Errorf("%w: negative wire %d", ErrInvalidGeometry, id.Wire)
	}
	if len(l.Wires) == 0 {
		return id.Wire, nil
	}
	if id.Cryostat < 0 || id.Cryostat >= len(l.Wires) {
		return 0, fmt.Errorf("%w: unknown cryostat %d", ErrInvalidGeometry, id.Cryostat)
	}
	tpcs := l.Wires[id.Cryostat]
	if id.TPC < 0 || id.TPC >= len(tpcs) {
		return 0, fmt.Errorf("%w: unknown TPC %d in cryostat %d", ErrInvalidGeometry, id.TPC, id.Cryostat)
	}
	if id.Plane < 0 || id.Plane >= len(tpcs[id.TPC]) {
		return 0, fmt.Errorf("%w: unknown plane %d in TPC %d", ErrInvalidGeometry, id.Plane, id.TPC)
	}
	if n := tpcs[id.TPC][id.Plane]; id.Wire >= n {
		return 0, fmt.Errorf("%w: wire %d out of range for plane %d of TPC %d (%d wires)",
			ErrInvalidGeometry, id.Wire, id.Plane, id.TPC, n)
	}

	offset := 0
	for c := 0; c < id.Cryostat; c++ {
		offset += planeWires(l.Wires[c], len(l.Wires[c]), id.Plane)
	}
	offset += planeWires(tpcs, id.TPC, id.Plane)
	return offset + id.Wire, nil
}

// planeWires sums the wire counts of plane in the first n TPCs.
func planeWires(tpcs [][]int, n, plane int) int {
	total := 0
	for t := 0; t < n; t++ {
		if plane < len(tpcs[t]) {
			total += tpcs[t][plane]
		}
	}
	return total
}

// RawHit is a hit as delivered by the detector-data framework, before wire
// flattening and tick binning.
type RawHit struct {
	WireID
	PeakTime float64 `json:"peak_time"`
	Integral float64 `json:"integral"`
}

// Resolve converts raw hits to Hits, assigning each the ID of its position in
// raw. The tick is the peak time rounded to the nearest sample. Any hit that
// cannot be placed fails the whole call with ErrInvalidGeometry.
func Resolve(raw []RawHit, geom Geometry) ([]Hit, error) {
	if geom == nil {
		geom = Layout{}
	}
	out := make([]Hit, 0, len(raw))
	for i, r := range raw {
		wire, err := geom.GlobalWire(r.WireID)
		if err != nil {
			return nil, fmt.Errorf("hit %d: %w", i, err)
		}
		if math.IsNaN(r.PeakTime) || math.IsInf(r.PeakTime, 0) {
			return nil, fmt.Errorf("hit %d: %w: non-finite peak time", i, ErrInvalidGeometry)
		}
		tick := math.Round(r.PeakTime)
		if tick < math.MinInt32 || tick > math.MaxInt32 {
			return nil, fmt.Errorf("hit %d: %w: peak time %g out of range", i, ErrInvalidGeometry, r.PeakTime)
		}
		if math.IsNaN(r.Integral) || math.IsInf(r.Integral, 0) {
			return nil, fmt.Errorf("hit %d: %w: non-finite charge", i, ErrInvalidGeometry)
		}
		out = append(out, Hit{
			ID:     i,
			Wire:   wire,
			Tick:   int(tick),
			Charge: r.Integral,
			Plane:  r.Plane,
		})
	}
	return out, nil
}
