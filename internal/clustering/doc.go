// Package clustering runs the blurred clustering pipeline over detector hits.
//
// For each readout plane the pipeline:
//
//  1. rasterizes the plane's hits into a wire × tick grid ([imaging.BuildGrid])
//  2. blurs the grid with a cached Gaussian kernel ([imaging.KernelCache], [imaging.Convolve])
//  3. grows clusters on the blurred grid ([detection.FindClusters])
//  4. merges collinear clusters ([detection.MergeClusters])
//  5. maps cluster cells back to hits ([detection.MapHits])
//
// An [Alg] is safe for concurrent use. Planes of one event run in parallel
// and share nothing but the kernel cache.
//
// # Errors
//
// Invalid parameters are reported as [ErrInvalidParameter] when the Alg is
// built. Hits that cannot be placed on a grid fail their plane with
// [ErrInvalidGeometry]. Clusters rejected by a threshold are never errors.
package clustering
