package clustering

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultParams_Valid(t *testing.T) {
	require.NoError(t, DefaultParams().Validate())
}

func TestParams_Validate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Params)
	}{
		{"negative blur wire", func(p *Params) { p.BlurWire = -1 }},
		{"negative blur tick", func(p *Params) { p.BlurTick = -1 }},
		{"zero sigma", func(p *Params) { p.BlurSigma = 0 }},
		{"nan sigma", func(p *Params) { p.BlurSigma = math.NaN() }},
		{"negative wire distance", func(p *Params) { p.ClusterWireDistance = -1 }},
		{"negative tick distance", func(p *Params) { p.ClusterTickDistance = -2 }},
		{"negative neighbours threshold", func(p *Params) { p.NeighboursThreshold = -1 }},
		{"negative min neighbours", func(p *Params) { p.MinNeighbours = -1 }},
		{"negative min size", func(p *Params) { p.MinSize = -1 }},
		{"negative min seed", func(p *Params) { p.MinSeed = -0.1 }},
		{"negative time threshold", func(p *Params) { p.TimeThreshold = -1 }},
		{"nan charge threshold", func(p *Params) { p.ChargeThreshold = math.NaN() }},
		{"negative merge size", func(p *Params) { p.MinMergeClusterSize = -3 }},
		{"negative merging threshold", func(p *Params) { p.MergingThreshold = -0.5 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := DefaultParams()
			tt.modify(&p)
			require.ErrorIs(t, p.Validate(), ErrInvalidParameter)

			_, err := New(p)
			require.ErrorIs(t, err, ErrInvalidParameter)
		})
	}
}

func TestParams_Subsets(t *testing.T) {
	p := DefaultParams()

	key := p.KernelKey()
	assert.Equal(t, 6, key.WireRadius)
	assert.Equal(t, 12, key.TickRadius)
	assert.Equal(t, 6.0, key.Sigma)
	assert.Equal(t, 12, p.Margin())

	fp := p.FinderParams()
	assert.Equal(t, p.ClusterWireDistance, fp.WireDistance)
	assert.Equal(t, p.MinSeed, fp.MinSeed)
	assert.Equal(t, p.MinSize, fp.MinSize)

	mp := p.MergeParams()
	assert.Equal(t, 3, mp.MinClusterSize)
	assert.Equal(t, 0.9, mp.Threshold)
}
