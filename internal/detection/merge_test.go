package detection

import (
	"math"
	"math/rand/v2"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

func TestCollinearity(t *testing.T) {
	tests := []struct {
		name   string
		points [][2]float64
		want   float64
	}{
		{"diagonal line", [][2]float64{{0, 0}, {1, 1}, {2, 2}, {3, 3}}, 1},
		{"horizontal line", [][2]float64{{0, 5}, {1, 5}, {2, 5}}, 1},
		{"square", [][2]float64{{0, 0}, {1, 0}, {0, 1}, {1, 1}}, 0.5},
		{"single point", [][2]float64{{4, 4}}, 1},
		{"coincident points", [][2]float64{{2, 2}, {2, 2}, {2, 2}}, 1},
		{"empty", nil, 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Collinearity(tt.points)
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Collinearity = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCollinearity_Range(t *testing.T) {
	points := [][2]float64{{0, 0}, {3, 1}, {1, 4}, {5, 5}, {2, 2}, {4, 0}}
	got := Collinearity(points)
	if got < 0.5 || got > 1 {
		t.Errorf("Collinearity = %v, want within [0.5, 1]", got)
	}
}

// diagonalClusters returns clusters whose cells lie on the grid diagonal.
func diagonalClusters(g *imaging.Grid, parts ...[]int) []Cluster {
	out := make([]Cluster, len(parts))
	for i, part := range parts {
		cells := make([]int, len(part))
		for j, d := range part {
			cells[j] = g.Index(d, d)
		}
		out[i] = Cluster{Seed: cells[0], Cells: cells}
	}
	return out
}

func TestMergeClusters_Collinear(t *testing.T) {
	g := imaging.NewGrid(8, 8, 0, 0)
	clusters := diagonalClusters(g, []int{0, 1, 2}, []int{3, 4})

	tests := []struct {
		name      string
		threshold float64
		want      int
	}{
		{"below one merges", 0.99, 1},
		{"above one keeps", 1.01, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := MergeClusters(clusters, g, MergeParams{MinClusterSize: 2, Threshold: tt.threshold})
			if len(got) != tt.want {
				t.Fatalf("got %d clusters, want %d", len(got), tt.want)
			}
		})
	}
}

func TestMergeClusters_CellOrder(t *testing.T) {
	g := imaging.NewGrid(8, 8, 0, 0)
	clusters := diagonalClusters(g, []int{2, 1, 0}, []int{4, 3})

	got := MergeClusters(clusters, g, MergeParams{MinClusterSize: 2, Threshold: 0.9})
	if len(got) != 1 {
		t.Fatalf("got %d clusters, want 1", len(got))
	}
	want := Cluster{
		Seed:  g.Index(2, 2),
		Cells: []int{g.Index(2, 2), g.Index(1, 1), g.Index(0, 0), g.Index(4, 4), g.Index(3, 3)},
	}
	if diff := cmp.Diff(want, got[0]); diff != "" {
		t.Errorf("merged cluster mismatch (-want +got):\n%s", diff)
	}
	if clusters[0].Len() != 3 {
		t.Error("input clusters must not be modified")
	}
}

func TestMergeClusters_MinClusterSize(t *testing.T) {
	g := imaging.NewGrid(8, 8, 0, 0)
	clusters := diagonalClusters(g, []int{0, 1, 2}, []int{3, 4})

	got := MergeClusters(clusters, g, MergeParams{MinClusterSize: 3, Threshold: 0.5})
	if len(got) != 2 {
		t.Errorf("got %d clusters, want 2 (second cluster too small)", len(got))
	}
}

func TestMergeClusters_NotCollinear(t *testing.T) {
	g := imaging.NewGrid(10, 10, 0, 0)
	horizontal := Cluster{Seed: g.Index(0, 0), Cells: []int{g.Index(0, 0), g.Index(1, 0), g.Index(2, 0)}}
	vertical := Cluster{Seed: g.Index(5, 2), Cells: []int{g.Index(5, 2), g.Index(5, 3), g.Index(5, 4), g.Index(5, 5)}}

	got := MergeClusters([]Cluster{horizontal, vertical}, g, MergeParams{MinClusterSize: 3, Threshold: 0.95})
	if diff := cmp.Diff([]Cluster{horizontal, vertical}, got); diff != "" {
		t.Errorf("clusters changed (-want +got):\n%s", diff)
	}
}

func TestMergeClusters_Transitive(t *testing.T) {
	g := imaging.NewGrid(12, 12, 0, 0)
	clusters := diagonalClusters(g, []int{0, 1}, []int{9, 10}, []int{4, 5})

	got := MergeClusters(clusters, g, MergeParams{MinClusterSize: 2, Threshold: 0.9})
	if len(got) != 1 {
		t.Fatalf("got %d clusters, want 1", len(got))
	}
	if got[0].Len() != 6 || got[0].Seed != g.Index(0, 0) {
		t.Errorf("unexpected merged cluster: %+v", got[0])
	}
}

func TestMergeClusters_OrderIndependent(t *testing.T) {
	g := imaging.NewGrid(12, 12, 0, 0)
	a := diagonalClusters(g, []int{0, 1}, []int{4, 5})
	b := Cluster{Seed: g.Index(8, 0), Cells: []int{g.Index(8, 0), g.Index(9, 0), g.Index(10, 0)}}

	p := MergeParams{MinClusterSize: 2, Threshold: 0.999}
	forward := MergeClusters([]Cluster{a[0], a[1], b}, g, p)
	backward := MergeClusters([]Cluster{b, a[1], a[0]}, g, p)

	if len(forward) != 2 {
		t.Fatalf("got %d clusters, want 2", len(forward))
	}
	if len(forward) != len(backward) {
		t.Fatalf("partition depends on order: %d vs %d clusters", len(forward), len(backward))
	}
	sizes := func(cs []Cluster) map[int]int {
		m := make(map[int]int)
		for _, c := range cs {
			m[c.Len()]++
		}
		return m
	}
	if diff := cmp.Diff(sizes(forward), sizes(backward)); diff != "" {
		t.Errorf("partition depends on order (-forward +backward):\n%s", diff)
	}
}

func TestMergeClusters_Empty(t *testing.T) {
	g := imaging.NewGrid(2, 2, 0, 0)
	if got := MergeClusters(nil, g, MergeParams{Threshold: 0.9}); len(got) != 0 {
		t.Errorf("got %d clusters, want 0", len(got))
	}
}

// blob returns a 2x2 cluster with its lower corner at (w, t).
func blob(g *imaging.Grid, w, t int) Cluster {
	cells := []int{g.Index(w, t), g.Index(w+1, t), g.Index(w, t+1), g.Index(w+1, t+1)}
	return Cluster{Seed: cells[0], Cells: cells}
}

func TestMergeClusters_RetestsMergedCluster(t *testing.T) {
	g := imaging.NewGrid(60, 60, 0, 0)
	clusters := []Cluster{blob(g, 0, 0), blob(g, 50, 0), blob(g, 0, 50)}
	p := MergeParams{MinClusterSize: 3, Threshold: 0.95}

	got := MergeClusters(clusters, g, p)
	if len(got) != 2 {
		t.Fatalf("got %d clusters, want 2", len(got))
	}
	assertMergedCollinear(t, g, got, 4, p.Threshold)
}

func TestMergeClusters_MergedClustersStayCollinear(t *testing.T) {
	g := imaging.NewGrid(200, 200, 0, 0)
	rng := rand.New(rand.NewPCG(7, 11))

	clusters := make([]Cluster, 0, 40)
	used := make(map[int]bool)
	for len(clusters) < 40 {
		w, tk := rng.IntN(198), rng.IntN(198)
		c := blob(g, w, tk)
		clash := false
		for _, cell := range c.Cells {
			clash = clash || used[cell]
		}
		if clash {
			continue
		}
		for _, cell := range c.Cells {
			used[cell] = true
		}
		clusters = append(clusters, c)
	}

	for _, threshold := range []float64{0.8, 0.9, 0.97} {
		p := MergeParams{MinClusterSize: 3, Threshold: threshold}
		got := MergeClusters(clusters, g, p)
		assertMergedCollinear(t, g, got, 4, threshold)

		total := 0
		for _, c := range got {
			total += c.Len()
		}
		if total != 4*len(clusters) {
			t.Errorf("threshold %v: %d cells out, want %d", threshold, total, 4*len(clusters))
		}
	}
}

// assertMergedCollinear checks every cluster larger than partSize cells, i.e.
// built from several parts, passes the merge threshold on its own.
func assertMergedCollinear(t *testing.T, g *imaging.Grid, clusters []Cluster, partSize int, threshold float64) {
	t.Helper()
	for i, c := range clusters {
		if c.Len() <= partSize {
			continue
		}
		if got := Collinearity(cellPoints(g, c.Cells)); got <= threshold {
			t.Errorf("cluster %d (%d cells) has collinearity %.3f, want > %v", i, c.Len(), got, threshold)
		}
	}
}
