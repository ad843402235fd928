package hits

import "sort"

// Hit is one charge measurement on a global wire at a time tick.
type Hit struct {
	// ID is the position of the hit in the supplier's list.
	ID int `json:"id"`

	// Wire is the global wire index (flattened across TPCs).
	Wire int `json:"wire"`

	// Tick is the time sample of the hit peak.
	Tick int `json:"tick"`

	// Charge is the integrated charge of the hit.
	Charge float64 `json:"charge"`

	// Plane is the readout plane (view) the hit belongs to.
	Plane int `json:"plane"`
}

// Less orders hits by wire, tick, charge, then ID. It is the canonical order
// used wherever the result must not depend on the order hits were supplied in.
func Less(a, b Hit) bool {
	if a.Wire != b.Wire {
		return a.Wire < b.Wire
	}
	if a.Tick != b.Tick {
		return a.Tick < b.Tick
	}
	if a.Charge != b.Charge {
		return a.Charge < b.Charge
	}
	return a.ID < b.ID
}

// ByPlane groups hits by plane. Within a plane the input order is kept.
func ByPlane(hs []Hit) map[int][]Hit {
	out := make(map[int][]Hit)
	for _, h := range hs {
		out[h.Plane] = append(out[h.Plane], h)
	}
	return out
}

// Planes returns the plane ids present in groups in ascending order.
func Planes(groups map[int][]Hit) []int {
	planes := make([]int, 0, len(groups))
	for p := range groups {
		planes = append(planes, p)
	}
	sort.Ints(planes)
	return planes
}

// Exclude returns the hits whose ID is not in excluded. The input slice is
// not modified. A nil or empty set returns hs unchanged.
func Exclude(hs []Hit, excluded map[int]struct{}) []Hit {
	if len(excluded) == 0 {
		return hs
	}
	out := make([]Hit, 0, len(hs))
	for _, h := range hs {
		if _, skip := excluded[h.ID]; skip {
			continue
		}
		out = append(out, h)
	}
	return out
}

// IDSet builds an exclusion set from a list of hit IDs.
func IDSet(ids []int) map[int]struct{} {
	set := make(map[int]struct{}, len(ids))
	for _, id := range ids {
		set[id] = struct{}{}
	}
	return set
}
