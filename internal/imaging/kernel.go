package imaging

import (
	"fmt"
	"math"
	"sync"

	"github.com/anthonynsimon/bild/convolution"
)

// KernelKey identifies a Gaussian blur kernel.
type KernelKey struct {
	WireRadius int     `json:"wire_radius"`
	TickRadius int     `json:"tick_radius"`
	Sigma      float64 `json:"sigma"`
}

// Validate checks that the key describes a buildable kernel.
func (k KernelKey) Validate() error {
	if k.WireRadius < 0 || k.TickRadius < 0 {
		return fmt.Errorf("%w: blur radius must be >= 0: wire=%d tick=%d",
			ErrInvalidParameter, k.WireRadius, k.TickRadius)
	}
	if !(k.Sigma > 0) || math.IsInf(k.Sigma, 0) {
		return fmt.Errorf("%w: blur sigma must be > 0: %v", ErrInvalidParameter, k.Sigma)
	}
	if 2*k.Sigma*k.Sigma == 0 {
		return fmt.Errorf("%w: blur sigma too small: %v", ErrInvalidParameter, k.Sigma)
	}
	return nil
}

// Kernel is a normalized 2D Gaussian weight table of size
// (2*WireRadius+1) x (2*TickRadius+1).
type Kernel struct {
	Key     KernelKey
	width   int
	height  int
	weights convolution.Matrix
}

// NewKernel builds the Gaussian table for key. Each weight is
// exp(-(dw²+dt²)/(2σ²)) for offsets dw, dt from the centre, and the table is
// scaled so the weights sum to 1.
func NewKernel(key KernelKey) (*Kernel, error) {
	if err := key.Validate(); err != nil {
		return nil, err
	}

	width := 2*key.WireRadius + 1
	height := 2*key.TickRadius + 1
	raw := convolution.NewKernel(width, height)
	twoSigmaSq := 2 * key.Sigma * key.Sigma
	for dt := -key.TickRadius; dt <= key.TickRadius; dt++ {
		for dw := -key.WireRadius; dw <= key.WireRadius; dw++ {
			x := dw + key.WireRadius
			y := dt + key.TickRadius
			raw.Matrix[y*width+x] = math.Exp(-float64(dw*dw+dt*dt) / twoSigmaSq)
		}
	}

	return &Kernel{
		Key:     key,
		width:   width,
		height:  height,
		weights: raw.Normalized(),
	}, nil
}

// Width is the kernel extent along the wire axis.
func (k *Kernel) Width() int { return k.width }

// Height is the kernel extent along the tick axis.
func (k *Kernel) Height() int { return k.height }

// Weight returns the weight at offset (dw, dt) from the kernel centre.
// Offsets outside the footprint weigh 0.
func (k *Kernel) Weight(dw, dt int) float64 {
	if dw < -k.Key.WireRadius || dw > k.Key.WireRadius || dt < -k.Key.TickRadius || dt > k.Key.TickRadius {
		return 0
	}
	return k.weights.At(dw+k.Key.WireRadius, dt+k.Key.TickRadius)
}

// Sum returns the total weight of the kernel (1 up to rounding).
func (k *Kernel) Sum() float64 {
	var s float64
	for y := 0; y < k.height; y++ {
		for x := 0; x < k.width; x++ {
			s += k.weights.At(x, y)
		}
	}
	return s
}

// KernelCache memoizes the most recently built kernel.
//
// Get returns the cached kernel while its key matches; a different key rebuilds
// and replaces the entry. Only one kernel is kept, since parameters are normally
// constant across events. KernelCache is safe for concurrent use.
type KernelCache struct {
	mu     sync.RWMutex
	last   *Kernel
	builds int
}

// NewKernelCache creates an empty cache.
func NewKernelCache() *KernelCache {
	return &KernelCache{}
}

// Get returns the kernel for key, building it if the cached one differs.
func (c *KernelCache) Get(key KernelKey) (*Kernel, error) {
	c.mu.RLock()
	if c.last != nil && c.last.Key == key {
		k := c.last
		c.mu.RUnlock()
		return k, nil
	}
	c.mu.RUnlock()

	if err := key.Validate(); err != nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Another writer may have built it while we waited.
	if c.last != nil && c.last.Key == key {
		return c.last, nil
	}
	k, err := NewKernel(key)
	if err != nil {
		return nil, err
	}
	c.last = k
	c.builds++
	return k, nil
}

// Current returns the key of the cached kernel, if any.
func (c *KernelCache) Current() (KernelKey, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.last == nil {
		return KernelKey{}, false
	}
	return c.last.Key, true
}

// Builds returns how many times the cache has computed a kernel.
func (c *KernelCache) Builds() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.builds
}
