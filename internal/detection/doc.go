// Package detection grows, filters and merges clusters on a blurred hit grid.
//
// The package works on cell indices of an [imaging.Grid]. It never reads hit
// records directly: the finder only asks whether a cell is backed by a hit,
// and [MapHits] turns the final cell clusters into hit clusters at the end.
//
// # Algorithm Overview
//
// Clustering follows three steps:
//
//  1. Region growing ([FindClusters]): cells above the seed threshold are
//     visited in descending value order. Each unassigned seed grows a cluster
//     by repeated passes that admit nearby non-empty cells with enough
//     in-cluster neighbours. The cluster is then pruned by the neighbour,
//     time and charge filters and discarded if too few hits remain.
//  2. Merging ([MergeClusters]): clusters whose combined cells lie close to
//     a straight line, as measured by principal component analysis, are
//     joined. Merging repeats until no pair qualifies.
//  3. Mapping ([MapHits]): member cells are replaced by the hits recorded
//     for them in the grid's cell hit map.
//
// # Neighbourhoods
//
// "Neighbours" of a cell are always its eight surrounding cells. The growth
// window (ClusterWireDistance × ClusterTickDistance) is separate and can be
// larger than one cell.
//
// # Determinism
//
// Results depend only on grid contents and parameters. Seeds with equal value
// are ordered by cell index, growth scans cells in a fixed order, and merging
// picks the best pair by collinearity and then by seed cells.
package detection
