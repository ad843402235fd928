package detection

import (
	"github.com/ironsheep/blurcluster-mcp/internal/hits"
	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

// HitCluster is an emitted cluster of hits.
type HitCluster struct {
	Hits []hits.Hit `json:"hits"`
}

// IDs returns the hit IDs in member order.
func (c HitCluster) IDs() []int {
	ids := make([]int, len(c.Hits))
	for i, h := range c.Hits {
		ids[i] = h.ID
	}
	return ids
}

// MapHits replaces each cluster's cells with the hits recorded for them.
// Cells without a hit are skipped and member order is kept. Clusters left
// without hits are dropped.
func MapHits(clusters []Cluster, cells *imaging.CellHitMap) []HitCluster {
	out := make([]HitCluster, 0, len(clusters))
	for _, c := range clusters {
		hs := make([]hits.Hit, 0, len(c.Cells))
		for _, cell := range c.Cells {
			if h, ok := cells.Hit(cell); ok {
				hs = append(hs, h)
			}
		}
		if len(hs) == 0 {
			continue
		}
		out = append(out, HitCluster{Hits: hs})
	}
	return out
}
