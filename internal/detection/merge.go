package detection

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"

	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

// MergeParams configures cluster merging.
type MergeParams struct {
	// MinClusterSize is the number of cells both clusters of a pair need
	// before the pair is considered.
	MinClusterSize int

	// Threshold is the collinearity a combined pair must exceed to merge.
	Threshold float64
}

// Collinearity measures how close a 2D point cloud lies to a straight line.
//
// It is the largest eigenvalue of the points' covariance matrix divided by
// the sum of both eigenvalues: 1.0 for points on a line, 0.5 for an isotropic
// blob. Fewer than two points, or points that all coincide, return 1.0.
func Collinearity(points [][2]float64) float64 {
	if len(points) < 2 {
		return 1
	}
	data := mat.NewDense(len(points), 2, nil)
	for i, p := range points {
		data.Set(i, 0, p[0])
		data.Set(i, 1, p[1])
	}

	var cov mat.SymDense
	stat.CovarianceMatrix(&cov, data, nil)

	var eig mat.EigenSym
	if !eig.Factorize(&cov, false) {
		return 0
	}
	vals := eig.Values(nil)

	trace := 0.0
	largest := 0.0
	for _, v := range vals {
		trace += v
		largest = max(largest, v)
	}
	if trace <= 0 {
		return 1
	}
	return largest / trace
}

// MergeClusters joins clusters whose combined cells are collinear.
//
// Merging is greedy and one pair at a time. Among all pairs with both sides at
// least MinClusterSize cells, the pair with the highest combined collinearity
// above Threshold is joined, ties going to the pair with the smallest seed
// cells. The joined cluster is then tested against the rest like any other, so
// every cluster built from several parts is itself collinear. Merging stops
// when no pair passes.
//
// A joined cluster lists the cells of its parts in their input order and
// keeps the first part's seed. Clusters that join nothing pass through
// unchanged, in their original relative order.
func MergeClusters(clusters []Cluster, g *imaging.Grid, p MergeParams) []Cluster {
	n := len(clusters)
	parts := make([][]int, n)
	points := make([][][2]float64, n)
	for i, c := range clusters {
		parts[i] = []int{i}
		points[i] = cellPoints(g, c.Cells)
	}
	alive := make([]bool, n)
	for i := range alive {
		alive[i] = true
	}

	eligible := func(i int) bool {
		return len(points[i]) >= p.MinClusterSize
	}
	score := func(i, j int) float64 {
		combined := make([][2]float64, 0, len(points[i])+len(points[j]))
		combined = append(combined, points[i]...)
		combined = append(combined, points[j]...)
		return Collinearity(combined)
	}

	// scores[i][j-i-1] holds the collinearity of pair i<j; NaN marks a pair
	// that is not eligible.
	scores := make([][]float64, n)
	for i := range scores {
		scores[i] = make([]float64, n-i-1)
		for j := i + 1; j < n; j++ {
			scores[i][j-i-1] = math.NaN()
			if eligible(i) && eligible(j) {
				scores[i][j-i-1] = score(i, j)
			}
		}
	}

	for {
		bi, bj := -1, -1
		best := 0.0
		for i := 0; i < n; i++ {
			if !alive[i] {
				continue
			}
			for j := i + 1; j < n; j++ {
				s := scores[i][j-i-1]
				if !alive[j] || math.IsNaN(s) || s <= p.Threshold {
					continue
				}
				if bi < 0 || s > best || (s == best && seedPairLess(clusters, parts, i, j, bi, bj)) {
					bi, bj, best = i, j, s
				}
			}
		}
		if bi < 0 {
			break
		}

		// The lower index absorbs the higher one, so the survivor keeps the
		// first part in input order.
		alive[bj] = false
		parts[bi] = append(parts[bi], parts[bj]...)
		sort.Ints(parts[bi])
		points[bi] = nil
		for _, k := range parts[bi] {
			points[bi] = append(points[bi], cellPoints(g, clusters[k].Cells)...)
		}
		for k := 0; k < n; k++ {
			if k == bi || !alive[k] || !eligible(k) {
				continue
			}
			lo, hi := min(bi, k), max(bi, k)
			scores[lo][hi-lo-1] = score(lo, hi)
		}
	}

	out := make([]Cluster, 0, n)
	for i := 0; i < n; i++ {
		if !alive[i] {
			continue
		}
		if len(parts[i]) == 1 {
			out = append(out, clusters[i])
			continue
		}
		merged := Cluster{Seed: clusters[parts[i][0]].Seed}
		for _, k := range parts[i] {
			merged.Cells = append(merged.Cells, clusters[k].Cells...)
		}
		out = append(out, merged)
	}
	return out
}

// seedPairLess reports whether pair (i, j) has smaller seed cells than pair
// (k, l). Seeds are compared as (lower, higher) so the choice does not depend
// on where the clusters sit in the input.
func seedPairLess(clusters []Cluster, parts [][]int, i, j, k, l int) bool {
	seed := func(x int) int { return minSeed(clusters, parts[x]) }
	a0, a1 := min(seed(i), seed(j)), max(seed(i), seed(j))
	b0, b1 := min(seed(k), seed(l)), max(seed(k), seed(l))
	if a0 != b0 {
		return a0 < b0
	}
	return a1 < b1
}

func minSeed(clusters []Cluster, part []int) int {
	m := clusters[part[0]].Seed
	for _, k := range part[1:] {
		m = min(m, clusters[k].Seed)
	}
	return m
}

// cellPoints converts cells to (wireBin, tickBin) points.
func cellPoints(g *imaging.Grid, cells []int) [][2]float64 {
	pts := make([][2]float64, len(cells))
	for i, cell := range cells {
		w, t := g.Bins(cell)
		pts[i] = [2]float64{float64(w), float64(t)}
	}
	return pts
}
