// Package config loads clustering tuning files.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ironsheep/blurcluster-mcp/internal/clustering"
	"github.com/ironsheep/blurcluster-mcp/internal/imaging"
)

// EnvConfigPath names the environment variable holding a tuning file path.
const EnvConfigPath = "BLURCLUSTER_CONFIG"

// maxConfigFileSize bounds the tuning files LoadTuningConfig accepts.
const maxConfigFileSize = 1 * 1024 * 1024

// TuningConfig is a partial set of clustering parameters. Nil fields fall
// back to the defaults (or to the base params passed to Apply), so the same
// schema serves for startup files and per-request overrides.
type TuningConfig struct {
	// Blur params
	BlurWire  *int     `json:"blur_wire,omitempty"`
	BlurTick  *int     `json:"blur_tick,omitempty"`
	BlurSigma *float64 `json:"blur_sigma,omitempty"`

	// Growth params
	ClusterWireDistance *int     `json:"cluster_wire_distance,omitempty"`
	ClusterTickDistance *int     `json:"cluster_tick_distance,omitempty"`
	NeighboursThreshold *int     `json:"neighbours_threshold,omitempty"`
	MinNeighbours       *int     `json:"min_neighbours,omitempty"`
	MinSize             *int     `json:"min_size,omitempty"`
	MinSeed             *float64 `json:"min_seed,omitempty"`
	TimeThreshold       *float64 `json:"time_threshold,omitempty"`
	ChargeThreshold     *float64 `json:"charge_threshold,omitempty"`

	// Merge params
	MinMergeClusterSize *int     `json:"min_merge_cluster_size,omitempty"`
	MergingThreshold    *float64 `json:"merging_threshold,omitempty"`

	// Debug render params (optional)
	RenderScale       *int    `json:"render_scale,omitempty"`
	RenderGridSpacing *int    `json:"render_grid_spacing,omitempty"`
	RenderGridColor   *string `json:"render_grid_color,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrInt(v int) *int             { return &v }
func ptrString(v string) *string    { return &v }

// EmptyTuningConfig returns a TuningConfig with all fields set to nil.
func EmptyTuningConfig() *TuningConfig {
	return &TuningConfig{}
}

// DefaultTuningConfig returns a TuningConfig with every field set to its default.
func DefaultTuningConfig() *TuningConfig {
	p := clustering.DefaultParams()
	return &TuningConfig{
		BlurWire:            ptrInt(p.BlurWire),
		BlurTick:            ptrInt(p.BlurTick),
		BlurSigma:           ptrFloat64(p.BlurSigma),
		ClusterWireDistance: ptrInt(p.ClusterWireDistance),
		ClusterTickDistance: ptrInt(p.ClusterTickDistance),
		NeighboursThreshold: ptrInt(p.NeighboursThreshold),
		MinNeighbours:       ptrInt(p.MinNeighbours),
		MinSize:             ptrInt(p.MinSize),
		MinSeed:             ptrFloat64(p.MinSeed),
		TimeThreshold:       ptrFloat64(p.TimeThreshold),
		ChargeThreshold:     ptrFloat64(p.ChargeThreshold),
		MinMergeClusterSize: ptrInt(p.MinMergeClusterSize),
		MergingThreshold:    ptrFloat64(p.MergingThreshold),
		RenderScale:         ptrInt(4),
		RenderGridSpacing:   ptrInt(0),
		RenderGridColor:     ptrString("#FF000080"),
	}
}

// LoadTuningConfig loads a TuningConfig from a JSON file.
// The file must have a .json extension and be at most 1MB. Fields omitted
// from the file keep their defaults.
func LoadTuningConfig(path string) (*TuningConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	if fileInfo.Size() > maxConfigFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxConfigFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyTuningConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// LoadFromEnv loads the file named by BLURCLUSTER_CONFIG, or returns an
// empty config when the variable is unset.
func LoadFromEnv() (*TuningConfig, error) {
	path := os.Getenv(EnvConfigPath)
	if path == "" {
		return EmptyTuningConfig(), nil
	}
	return LoadTuningConfig(path)
}

// Validate checks that the configuration resolves to valid parameters.
func (c *TuningConfig) Validate() error {
	if err := c.Params().Validate(); err != nil {
		return err
	}
	if c.RenderScale != nil && (*c.RenderScale < 1 || *c.RenderScale > 64) {
		return fmt.Errorf("%w: render_scale must be between 1 and 64, got %d",
			imaging.ErrInvalidParameter, *c.RenderScale)
	}
	if c.RenderGridSpacing != nil && *c.RenderGridSpacing < 0 {
		return fmt.Errorf("%w: render_grid_spacing must be non-negative, got %d",
			imaging.ErrInvalidParameter, *c.RenderGridSpacing)
	}
	return nil
}

// Params resolves the config against the default parameters.
func (c *TuningConfig) Params() clustering.Params {
	return c.Apply(clustering.DefaultParams())
}

// Apply returns base with every set field of c written over it.
func (c *TuningConfig) Apply(base clustering.Params) clustering.Params {
	if c == nil {
		return base
	}
	p := base
	setInt(&p.BlurWire, c.BlurWire)
	setInt(&p.BlurTick, c.BlurTick)
	setFloat(&p.BlurSigma, c.BlurSigma)
	setInt(&p.ClusterWireDistance, c.ClusterWireDistance)
	setInt(&p.ClusterTickDistance, c.ClusterTickDistance)
	setInt(&p.NeighboursThreshold, c.NeighboursThreshold)
	setInt(&p.MinNeighbours, c.MinNeighbours)
	setInt(&p.MinSize, c.MinSize)
	setFloat(&p.MinSeed, c.MinSeed)
	setFloat(&p.TimeThreshold, c.TimeThreshold)
	setFloat(&p.ChargeThreshold, c.ChargeThreshold)
	setInt(&p.MinMergeClusterSize, c.MinMergeClusterSize)
	setFloat(&p.MergingThreshold, c.MergingThreshold)
	return p
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setFloat(dst *float64, v *float64) {
	if v != nil {
		*dst = *v
	}
}

// GetRenderOptions returns the debug render settings or their defaults.
func (c *TuningConfig) GetRenderOptions() imaging.RenderOptions {
	opts := imaging.RenderOptions{Scale: 4, GridColor: "#FF000080"}
	if c == nil {
		return opts
	}
	if c.RenderScale != nil {
		opts.Scale = *c.RenderScale
	}
	if c.RenderGridSpacing != nil {
		opts.GridSpacing = *c.RenderGridSpacing
	}
	if c.RenderGridColor != nil && *c.RenderGridColor != "" {
		opts.GridColor = *c.RenderGridColor
	}
	return opts
}
