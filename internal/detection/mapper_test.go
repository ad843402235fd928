package detection

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ironsheep/blurcluster-mcp/internal/hits"
	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

func TestMapHits(t *testing.T) {
	hs := []hits.Hit{
		{ID: 0, Wire: 10, Tick: 5, Charge: 2},
		{ID: 1, Wire: 12, Tick: 5, Charge: 3},
	}
	g, cellMap, err := imaging.BuildGrid(hs, 0)
	if err != nil {
		t.Fatalf("BuildGrid failed: %v", err)
	}

	clusters := []Cluster{
		{Seed: g.Index(2, 0), Cells: []int{g.Index(2, 0), g.Index(1, 0), g.Index(0, 0)}},
		{Seed: g.Index(1, 0), Cells: []int{g.Index(1, 0)}},
	}

	got := MapHits(clusters, cellMap)
	if len(got) != 1 {
		t.Fatalf("got %d hit clusters, want 1 (hitless cluster dropped)", len(got))
	}
	if diff := cmp.Diff([]int{1, 0}, got[0].IDs()); diff != "" {
		t.Errorf("hit order mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(hs[1], got[0].Hits[0]); diff != "" {
		t.Errorf("hit mismatch (-want +got):\n%s", diff)
	}
}

func TestMapHits_Empty(t *testing.T) {
	if got := MapHits(nil, nil); len(got) != 0 {
		t.Errorf("got %d hit clusters, want 0", len(got))
	}
}
