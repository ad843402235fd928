package clustering

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/ironsheep/blurcluster-mcp/internal/detection"
	"github.com/ironsheep/blurcluster-mcp/internal/hits"
	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
	"github.com/ironsheep/blurcluster-mcp/internal/monitoring"
)

// maxParallelPlanes bounds the number of planes clustered at once.
const maxParallelPlanes = 8

// Alg is a configured clustering pipeline.
type Alg struct {
	params  Params
	kernels *imaging.KernelCache
}

// Option configures an Alg.
type Option func(*Alg)

// WithKernelCache makes the Alg share kernels with other users of c.
func WithKernelCache(c *imaging.KernelCache) Option {
	return func(a *Alg) {
		if c != nil {
			a.kernels = c
		}
	}
}

// New validates p and returns an Alg.
func New(p Params, opts ...Option) (*Alg, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	a := &Alg{params: p}
	for _, opt := range opts {
		opt(a)
	}
	if a.kernels == nil {
		a.kernels = imaging.NewKernelCache()
	}
	return a, nil
}

// Params returns the Alg's parameters.
func (a *Alg) Params() Params { return a.params }

// Kernels returns the kernel cache the Alg blurs with.
func (a *Alg) Kernels() *imaging.KernelCache { return a.kernels }

// PlaneResult holds every intermediate product of one plane's run. Grids and
// clusters are read-only once returned.
type PlaneResult struct {
	Plane int
	Hits  int

	Raw      *imaging.Grid
	Blurred  *imaging.Grid
	CellHits *imaging.CellHitMap

	// Found is the number of clusters before merging.
	Found int

	// Clusters are the merged cell clusters.
	Clusters []detection.Cluster

	// HitClusters are the emitted clusters.
	HitClusters []detection.HitCluster
}

// ClusterPlane runs the pipeline on the hits of a single plane.
//
// Empty input returns an empty result. Hits from more than one plane are
// rejected with ErrInvalidParameter.
func (a *Alg) ClusterPlane(hs []hits.Hit) (*PlaneResult, error) {
	res := &PlaneResult{Hits: len(hs)}
	if len(hs) > 0 {
		res.Plane = hs[0].Plane
	}
	for _, h := range hs {
		if h.Plane != res.Plane {
			return nil, fmt.Errorf("%w: hits span planes %d and %d", ErrInvalidParameter, res.Plane, h.Plane)
		}
	}

	kernel, err := a.kernels.Get(a.params.KernelKey())
	if err != nil {
		return nil, err
	}

	raw, cellHits, err := imaging.BuildGrid(hs, a.params.Margin())
	if err != nil {
		return nil, fmt.Errorf("plane %d: %w", res.Plane, err)
	}
	res.Raw = raw
	res.CellHits = cellHits
	if cellHits.Collisions > 0 {
		monitoring.Debugf("plane %d: %d hits shared a cell", res.Plane, cellHits.Collisions)
	}

	res.Blurred = imaging.Convolve(raw, kernel)

	found := detection.FindClusters(res.Blurred, cellHits.Has, a.params.FinderParams())
	res.Found = len(found)
	res.Clusters = detection.MergeClusters(found, res.Blurred, a.params.MergeParams())
	res.HitClusters = detection.MapHits(res.Clusters, cellHits)

	monitoring.Debugf("plane %d: %d hits, grid %dx%d, %d clusters found, %d after merging",
		res.Plane, res.Hits, raw.Wires, raw.Ticks, res.Found, len(res.Clusters))
	return res, nil
}

// PlaneStats summarizes a PlaneResult.
type PlaneStats struct {
	Plane      int                      `json:"plane"`
	Hits       int                      `json:"hits"`
	Collisions int                      `json:"collisions"`
	Grid       imaging.GridStats        `json:"grid"`
	Found      int                      `json:"found"`
	Merged     int                      `json:"merged"`
	Emitted    int                      `json:"emitted"`
	Clusters   []detection.ClusterStats `json:"clusters"`
}

// Stats computes PlaneStats. Cluster statistics use blurred values.
func (r *PlaneResult) Stats() PlaneStats {
	st := PlaneStats{
		Plane:    r.Plane,
		Hits:     r.Hits,
		Found:    r.Found,
		Merged:   r.Found - len(r.Clusters),
		Emitted:  len(r.HitClusters),
		Clusters: make([]detection.ClusterStats, len(r.Clusters)),
	}
	if r.CellHits != nil {
		st.Collisions = r.CellHits.Collisions
	}
	if r.Raw != nil {
		st.Grid = r.Raw.Stats()
	}
	for i, c := range r.Clusters {
		st.Clusters[i] = c.Stats(r.Blurred, r.CellHits.Has)
	}
	return st
}

// EventResult holds the per-plane results of one event, in ascending plane
// order.
type EventResult struct {
	Planes []*PlaneResult
}

// Clusters returns the emitted clusters of all planes, plane by plane.
func (r *EventResult) Clusters() []detection.HitCluster {
	out := make([]detection.HitCluster, 0)
	for _, p := range r.Planes {
		out = append(out, p.HitClusters...)
	}
	return out
}

// Plane returns the result for plane, or nil.
func (r *EventResult) Plane(plane int) *PlaneResult {
	for _, p := range r.Planes {
		if p.Plane == plane {
			return p
		}
	}
	return nil
}

// ClusterEvent splits hs by plane and clusters the planes in parallel. The
// first failing plane aborts the event.
func (a *Alg) ClusterEvent(ctx context.Context, hs []hits.Hit) (*EventResult, error) {
	groups := hits.ByPlane(hs)
	planes := hits.Planes(groups)
	results := make([]*PlaneResult, len(planes))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelPlanes)

	for i, plane := range planes {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := a.ClusterPlane(groups[plane])
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	emitted := 0
	for _, r := range results {
		emitted += len(r.HitClusters)
	}
	monitoring.Debugf("event: %d hits on %d planes, %d clusters", len(hs), len(planes), emitted)
	return &EventResult{Planes: results}, nil
}
