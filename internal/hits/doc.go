// Package hits defines the detector hit records consumed by the clustering pipeline
// and the plumbing that supplies them.
//
// A Hit is an immutable measurement on one wire of one readout plane at one time
// tick. Wires are addressed by a global index: the local wire number of each TPC is
// shifted by the wire counts of the TPCs before it, so one integer identifies a
// (TPC, wire) pair across every sub-volume that shares the plane.
//
// # Geometry
//
// Wire flattening goes through the Geometry interface. Layout is the provided
// implementation, built from per-TPC wire counts. Callers with a richer detector
// description can inject their own Geometry.
//
// # Input Files
//
// Events are JSON documents holding raw hits, an optional Layout, and the IDs of
// hits already claimed by track reconstruction. EventCache keeps decoded events in
// memory keyed by path, the same way a long-running server keeps loaded inputs.
package hits
