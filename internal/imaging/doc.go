// Package imaging turns hit lists into dense charge images and blurs them.
//
// This package implements the raster half of the clustering pipeline: building a
// wire × tick grid from hits, generating and caching Gaussian kernels, convolving
// grids with them, and rendering grids and clusters as debug images.
//
// # Coordinate System
//
// A Grid is indexed by (wireBin, tickBin), both 0-based. WireOffset and TickOffset
// map bins back to detector coordinates:
//   - global wire = WireOffset + wireBin
//   - tick = TickOffset + tickBin
//
// Cells are addressed by a flattened index, wireBin*Ticks + tickBin. Blurring
// changes cell values, never cell indices, so an index taken from one grid is
// valid in any grid convolved from it.
//
// In rendered images wires run left to right and ticks run bottom to top.
//
// # Thread Safety
//
// KernelCache is safe for concurrent use; a cache hit only takes a read lock.
// Grids are not synchronized. A grid is built, blurred and read within one
// pipeline invocation and shared read-only afterwards.
//
// # Error Handling
//
// Functions return errors for invalid inputs such as:
//   - Negative kernel radii, non-positive sigma, or a negative grid margin
//     (ErrInvalidParameter)
//   - Hit sets spanning more cells than MaxGridCells (ErrInvalidGeometry)
//   - Encoding or file errors when writing rendered images
package imaging
