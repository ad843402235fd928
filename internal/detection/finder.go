package detection

import (
	"sort"

	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

// FinderParams configures region growing.
type FinderParams struct {
	// WireDistance and TickDistance bound the growth window around each member.
	WireDistance int
	TickDistance int

	// NeighboursThreshold is the number of in-cluster 8-neighbours a cell
	// needs to join a cluster.
	NeighboursThreshold int

	// MinNeighbours is the number of in-cluster 8-neighbours a member needs
	// to stay in its cluster once growth stops.
	MinNeighbours int

	// MinSize is the smallest number of hit-backed members an emitted cluster
	// may have.
	MinSize int

	// MinSeed is the blurred value a cell must exceed to start a cluster.
	MinSeed float64

	// TimeThreshold is the largest tick distance from the cluster's dominant
	// tick a member may have.
	TimeThreshold float64

	// ChargeThreshold is the smallest blurred value a member may have.
	ChargeThreshold float64
}

// FindClusters grows clusters on a blurred grid.
//
// occupied reports whether a cell is backed by a hit; it drives the dominant
// tick and the MinSize test. A nil occupied treats every cell as hit-backed.
//
// # Seeds
//
// Cells with value above MinSeed are visited in descending value order, ties
// broken by ascending cell index. A seed already assigned to an earlier
// cluster is skipped.
//
// # Growth
//
// Growth proceeds in passes over the current members. For each member the
// window of ±WireDistance wires and ±TickDistance ticks is scanned, and any
// unassigned non-empty cell with at least NeighboursThreshold in-cluster
// 8-neighbours joins immediately. Growth stops after a pass that adds
// nothing.
//
// # Filters
//
// After growth, members are dropped in this order:
//   - fewer than MinNeighbours in-cluster 8-neighbours
//   - tick more than TimeThreshold from the dominant tick (lower median of
//     the hit-backed member ticks, or of all member ticks without any)
//   - blurred value below ChargeThreshold
//
// The cluster is kept only if at least MinSize hit-backed members survive.
// Every visited cell stays assigned, whether or not it survives, so no
// later seed can claim it.
func FindClusters(g *imaging.Grid, occupied func(cell int) bool, p FinderParams) []Cluster {
	if occupied == nil {
		occupied = func(int) bool { return true }
	}

	seeds := make([]int, 0)
	for cell, v := range g.Values {
		if v > p.MinSeed {
			seeds = append(seeds, cell)
		}
	}
	sort.SliceStable(seeds, func(i, j int) bool {
		return g.Values[seeds[i]] > g.Values[seeds[j]]
	})

	assigned := make([]bool, g.Len())
	clusters := make([]Cluster, 0)

	for _, seed := range seeds {
		if assigned[seed] {
			continue
		}
		members := grow(g, assigned, seed, p)
		members = filterNeighbours(g, members, p.MinNeighbours)
		members = filterTime(g, members, occupied, p.TimeThreshold)
		members = filterCharge(g, members, p.ChargeThreshold)

		hitCount := 0
		for _, cell := range members {
			if occupied(cell) {
				hitCount++
			}
		}
		if len(members) == 0 || hitCount < p.MinSize {
			continue
		}
		clusters = append(clusters, Cluster{Seed: seed, Cells: members})
	}

	return clusters
}

// grow runs region growing from seed and marks every joined cell assigned.
func grow(g *imaging.Grid, assigned []bool, seed int, p FinderParams) []int {
	inCluster := map[int]bool{seed: true}
	members := []int{seed}
	assigned[seed] = true

	for {
		added := false
		n := len(members)
		for i := 0; i < n; i++ {
			w, t := g.Bins(members[i])
			for dw := -p.WireDistance; dw <= p.WireDistance; dw++ {
				for dt := -p.TickDistance; dt <= p.TickDistance; dt++ {
					ww, tt := w+dw, t+dt
					if !g.Contains(ww, tt) {
						continue
					}
					cell := g.Index(ww, tt)
					if assigned[cell] || g.Values[cell] == 0 {
						continue
					}
					if countNeighbours(g, inCluster, ww, tt) < p.NeighboursThreshold {
						continue
					}
					assigned[cell] = true
					inCluster[cell] = true
					members = append(members, cell)
					added = true
				}
			}
		}
		if !added {
			return members
		}
	}
}

// countNeighbours counts the 8-neighbours of (w, t) that are in set.
func countNeighbours(g *imaging.Grid, set map[int]bool, w, t int) int {
	n := 0
	for dw := -1; dw <= 1; dw++ {
		for dt := -1; dt <= 1; dt++ {
			if dw == 0 && dt == 0 {
				continue
			}
			if g.Contains(w+dw, t+dt) && set[g.Index(w+dw, t+dt)] {
				n++
			}
		}
	}
	return n
}

// filterNeighbours drops members with fewer than minNeighbours in-cluster
// 8-neighbours. Counts are taken against the cluster as grown.
func filterNeighbours(g *imaging.Grid, members []int, minNeighbours int) []int {
	if minNeighbours <= 0 {
		return members
	}
	set := make(map[int]bool, len(members))
	for _, cell := range members {
		set[cell] = true
	}
	kept := make([]int, 0, len(members))
	for _, cell := range members {
		w, t := g.Bins(cell)
		if countNeighbours(g, set, w, t) >= minNeighbours {
			kept = append(kept, cell)
		}
	}
	return kept
}

// filterTime drops members too far in time from the dominant tick.
func filterTime(g *imaging.Grid, members []int, occupied func(int) bool, threshold float64) []int {
	if len(members) == 0 {
		return members
	}
	ticks := make([]int, 0, len(members))
	for _, cell := range members {
		if occupied(cell) {
			ticks = append(ticks, g.Tick(cell))
		}
	}
	if len(ticks) == 0 {
		for _, cell := range members {
			ticks = append(ticks, g.Tick(cell))
		}
	}
	dominant := lowerMedian(ticks)

	kept := make([]int, 0, len(members))
	for _, cell := range members {
		d := g.Tick(cell) - dominant
		if d < 0 {
			d = -d
		}
		if float64(d) <= threshold {
			kept = append(kept, cell)
		}
	}
	return kept
}

// filterCharge drops members whose blurred value is below threshold.
func filterCharge(g *imaging.Grid, members []int, threshold float64) []int {
	kept := make([]int, 0, len(members))
	for _, cell := range members {
		if g.Values[cell] >= threshold {
			kept = append(kept, cell)
		}
	}
	return kept
}
