package imaging

import (
	"errors"
	"math"
	"sync"
	"testing"
)

func TestNewKernel_Gaussian(t *testing.T) {
	k, err := NewKernel(KernelKey{WireRadius: 1, TickRadius: 1, Sigma: 1})
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	if k.Width() != 3 || k.Height() != 3 {
		t.Fatalf("size: got %dx%d, want 3x3", k.Width(), k.Height())
	}

	norm := 1 + 4*math.Exp(-0.5) + 4*math.Exp(-1)
	tests := []struct {
		dw, dt int
		want   float64
	}{
		{0, 0, 1 / norm},
		{1, 0, math.Exp(-0.5) / norm},
		{0, -1, math.Exp(-0.5) / norm},
		{-1, 1, math.Exp(-1) / norm},
		{2, 0, 0},
	}
	for _, tt := range tests {
		if got := k.Weight(tt.dw, tt.dt); math.Abs(got-tt.want) > 1e-12 {
			t.Errorf("Weight(%d,%d) = %v, want %v", tt.dw, tt.dt, got, tt.want)
		}
	}

	if sum := k.Sum(); math.Abs(sum-1) > 1e-12 {
		t.Errorf("Sum: got %v, want 1", sum)
	}
}

func TestNewKernel_Asymmetric(t *testing.T) {
	k, err := NewKernel(KernelKey{WireRadius: 2, TickRadius: 4, Sigma: 1.5})
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	if k.Width() != 5 || k.Height() != 9 {
		t.Errorf("size: got %dx%d, want 5x9", k.Width(), k.Height())
	}
	if math.Abs(k.Weight(2, 3)-k.Weight(-2, -3)) > 1e-15 {
		t.Error("kernel should be point symmetric")
	}
	if k.Weight(0, 0) <= k.Weight(0, 1) {
		t.Error("centre should carry the largest weight")
	}
	if sum := k.Sum(); math.Abs(sum-1) > 1e-12 {
		t.Errorf("Sum: got %v, want 1", sum)
	}
}

func TestNewKernel_ZeroRadius(t *testing.T) {
	k, err := NewKernel(KernelKey{WireRadius: 0, TickRadius: 0, Sigma: 2})
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	if got := k.Weight(0, 0); math.Abs(got-1) > 1e-15 {
		t.Errorf("identity kernel weight: got %v, want 1", got)
	}
}

func TestKernelKey_Validate(t *testing.T) {
	bad := []KernelKey{
		{WireRadius: -1, TickRadius: 1, Sigma: 1},
		{WireRadius: 1, TickRadius: -1, Sigma: 1},
		{WireRadius: 1, TickRadius: 1, Sigma: 0},
		{WireRadius: 1, TickRadius: 1, Sigma: -2},
		{WireRadius: 1, TickRadius: 1, Sigma: math.NaN()},
		{WireRadius: 1, TickRadius: 1, Sigma: math.Inf(1)},
		{WireRadius: 1, TickRadius: 1, Sigma: 1e-200},
	}
	for _, key := range bad {
		if err := key.Validate(); !errors.Is(err, ErrInvalidParameter) {
			t.Errorf("Validate(%+v): expected ErrInvalidParameter, got %v", key, err)
		}
	}
}

func TestNewKernel_TinySigma(t *testing.T) {
	if _, err := NewKernel(KernelKey{WireRadius: 2, TickRadius: 2, Sigma: 1e-200}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}

	k, err := NewKernel(KernelKey{WireRadius: 2, TickRadius: 2, Sigma: 1e-150})
	if err != nil {
		t.Fatalf("NewKernel failed: %v", err)
	}
	if k.Weight(0, 0) != 1 {
		t.Errorf("centre weight: got %v, want 1", k.Weight(0, 0))
	}
	if k.Weight(1, 0) != 0 || k.Weight(0, -1) != 0 {
		t.Error("off-centre weights should vanish")
	}
	if math.IsNaN(k.Sum()) || math.Abs(k.Sum()-1) > 1e-12 {
		t.Errorf("Sum: got %v, want 1", k.Sum())
	}
}

func TestKernelCache_Reuse(t *testing.T) {
	cache := NewKernelCache()
	key := KernelKey{WireRadius: 2, TickRadius: 3, Sigma: 1}

	first, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	second, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first != second {
		t.Error("identical key should return the cached kernel")
	}
	if cache.Builds() != 1 {
		t.Errorf("Builds: got %d, want 1", cache.Builds())
	}
}

func TestKernelCache_Invalidate(t *testing.T) {
	cache := NewKernelCache()
	key := KernelKey{WireRadius: 2, TickRadius: 3, Sigma: 1}

	first, _ := cache.Get(key)
	key.Sigma = 2
	second, err := cache.Get(key)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if first == second {
		t.Error("changed sigma should rebuild the kernel")
	}
	if cache.Builds() != 2 {
		t.Errorf("Builds: got %d, want 2", cache.Builds())
	}
	if cur, ok := cache.Current(); !ok || cur != key {
		t.Errorf("Current: got %+v ok=%v, want %+v", cur, ok, key)
	}

	// Going back to the first key rebuilds again: only the last key is kept.
	key.Sigma = 1
	if _, err := cache.Get(key); err != nil {
		t.Fatal(err)
	}
	if cache.Builds() != 3 {
		t.Errorf("Builds: got %d, want 3", cache.Builds())
	}
}

func TestKernelCache_InvalidKeyKeepsEntry(t *testing.T) {
	cache := NewKernelCache()
	good := KernelKey{WireRadius: 1, TickRadius: 1, Sigma: 1}
	if _, err := cache.Get(good); err != nil {
		t.Fatal(err)
	}
	if _, err := cache.Get(KernelKey{WireRadius: 1, TickRadius: 1, Sigma: 0}); !errors.Is(err, ErrInvalidParameter) {
		t.Errorf("expected ErrInvalidParameter, got %v", err)
	}
	if cur, _ := cache.Current(); cur != good {
		t.Errorf("failed Get replaced the cache entry: %+v", cur)
	}
}

func TestKernelCache_ConcurrentAccess(t *testing.T) {
	cache := NewKernelCache()
	key := KernelKey{WireRadius: 3, TickRadius: 3, Sigma: 2}

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := cache.Get(key); err != nil {
				t.Errorf("concurrent Get failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if cache.Builds() != 1 {
		t.Errorf("Builds: got %d, want 1", cache.Builds())
	}
}
