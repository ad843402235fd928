package imaging

// Convolve blurs g with k and returns a new grid with the same dimensions and
// offsets. Kernel taps that fall outside the grid contribute nothing: there is
// no wraparound and no edge replication, so charge near the border leaks out.
//
// The convolution is direct, O(cells × kernel area), and skips empty input
// cells, which dominate hit grids.
func Convolve(g *Grid, k *Kernel) *Grid {
	out := NewGrid(g.Wires, g.Ticks, g.WireOffset, g.TickOffset)
	wr := k.Key.WireRadius
	tr := k.Key.TickRadius

	for w := 0; w < g.Wires; w++ {
		for t := 0; t < g.Ticks; t++ {
			v := g.Values[w*g.Ticks+t]
			if v == 0 {
				continue
			}
			for dw := -wr; dw <= wr; dw++ {
				ww := w + dw
				if ww < 0 || ww >= g.Wires {
					continue
				}
				row := ww * g.Ticks
				for dt := -tr; dt <= tr; dt++ {
					tt := t + dt
					if tt < 0 || tt >= g.Ticks {
						continue
					}
					out.Values[row+tt] += v * k.Weight(dw, dt)
				}
			}
		}
	}
	return out
}
