package config

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strconv"
)

// DefaultConfigPath is the path to the canonical analysis defaults file.
const DefaultConfigPath = "config/analysis.defaults.json"

// Edge modes accepted by smoothing_edge_mode.
const (
	EdgeModeZero        = "zero"
	EdgeModeRenormalize = "renormalize"
)

// Focal length bases accepted by focal_length_basis.
const (
	FocalBasisHeight = "height"
	FocalBasisWidth  = "width"
)

// AnalysisConfig is the root configuration for a pipeline run. The schema is
// flat so the same JSON can be stored next to a session's artifacts and
// replayed later. Nil fields fall back to the defaults returned by the Get*
// accessors.
type AnalysisConfig struct {
	// Ingest params (upstream of the core)
	SampleStride *int `json:"sample_stride,omitempty"`
	MaxFrames    *int `json:"max_frames,omitempty"` // 0 means no limit

	// Aggregation params
	ConfusionThreshold *float64 `json:"confusion_threshold,omitempty"`
	ConfusionWindowSec *float64 `json:"confusion_window_sec,omitempty"`
	HeatmapBinSec      *float64 `json:"heatmap_bin_sec,omitempty"`

	// Smoothing params
	SmoothingWindow   *int    `json:"smoothing_window,omitempty"`
	SmoothingEdgeMode *string `json:"smoothing_edge_mode,omitempty"` // "zero" or "renormalize"

	// Geometry params
	FocalLengthBasis  *string `json:"focal_length_basis,omitempty"` // "height" or "width"
	PoseMaxIterations *int    `json:"pose_max_iterations,omitempty"`

	// Execution
	Workers *int `json:"workers,omitempty"`

	// Weights overrides the named scoring constants, e.g. {"yaw_range_deg": 25}.
	// Keys are checked by the scoring package when the analyzer is built.
	Weights map[string]float64 `json:"weights,omitempty"`

	// Persistence
	StoragePath  *string `json:"storage_path,omitempty"`
	DatabasePath *string `json:"database_path,omitempty"`
}

// Helper functions to create pointers
func ptrFloat64(v float64) *float64 { return &v }
func ptrString(v string) *string    { return &v }
func ptrInt(v int) *int             { return &v }

// EmptyAnalysisConfig returns an AnalysisConfig with all fields set to nil.
func EmptyAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{}
}

// DefaultAnalysisConfig returns a config with every field populated from the
// built-in defaults. It mirrors config/analysis.defaults.json.
func DefaultAnalysisConfig() *AnalysisConfig {
	return &AnalysisConfig{
		SampleStride:       ptrInt(1),
		MaxFrames:          ptrInt(0),
		ConfusionThreshold: ptrFloat64(0.7),
		ConfusionWindowSec: ptrFloat64(3),
		HeatmapBinSec:      ptrFloat64(1),
		SmoothingWindow:    ptrInt(5),
		SmoothingEdgeMode:  ptrString(EdgeModeZero),
		FocalLengthBasis:   ptrString(FocalBasisHeight),
		PoseMaxIterations:  ptrInt(100),
		Workers:            ptrInt(1),
		StoragePath:        ptrString("output/sessions"),
		DatabasePath:       ptrString("attention.db"),
	}
}

// LoadAnalysisConfig loads an AnalysisConfig from a JSON file.
// The file must have a .json extension and be under 1MB. Fields omitted from
// the JSON file retain their defaults, so partial configs are safe.
func LoadAnalysisConfig(path string) (*AnalysisConfig, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	fileInfo, err := os.Stat(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config file: %w", err)
	}
	const maxFileSize = 1 * 1024 * 1024 // 1MB
	if fileInfo.Size() > maxFileSize {
		return nil, fmt.Errorf("config file too large: %d bytes (max %d)", fileInfo.Size(), maxFileSize)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := EmptyAnalysisConfig()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config JSON: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// ApplyEnv overrides fields from environment variables using the names the
// deployment scripts already export. lookup is normally os.LookupEnv.
func (c *AnalysisConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	floats := []struct {
		name string
		dst  **float64
	}{
		{"CONFUSION_THRESHOLD", &c.ConfusionThreshold},
		{"CONFUSION_WINDOW_SEC", &c.ConfusionWindowSec},
		{"HEATMAP_BIN_SEC", &c.HeatmapBinSec},
	}
	for _, f := range floats {
		raw, ok := lookup(f.name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.name, raw, err)
		}
		*f.dst = ptrFloat64(v)
	}

	ints := []struct {
		name string
		dst  **int
	}{
		{"SAMPLE_STRIDE", &c.SampleStride},
		{"MAX_FRAMES", &c.MaxFrames},
		{"SMOOTHING_WINDOW", &c.SmoothingWindow},
		{"WORKERS", &c.Workers},
	}
	for _, f := range ints {
		raw, ok := lookup(f.name)
		if !ok || raw == "" {
			continue
		}
		v, err := strconv.Atoi(raw)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", f.name, raw, err)
		}
		*f.dst = ptrInt(v)
	}

	if v, ok := lookup("STORAGE_PATH"); ok && v != "" {
		c.StoragePath = ptrString(v)
	}
	if v, ok := lookup("DATABASE_PATH"); ok && v != "" {
		c.DatabasePath = ptrString(v)
	}

	return c.Validate()
}

// Validate checks that the configuration values are valid.
func (c *AnalysisConfig) Validate() error {
	if c.ConfusionThreshold != nil {
		if v := *c.ConfusionThreshold; math.IsNaN(v) || v < 0 || v > 1 {
			return fmt.Errorf("confusion_threshold must be between 0 and 1, got %f", v)
		}
	}
	if c.ConfusionWindowSec != nil {
		if v := *c.ConfusionWindowSec; !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("confusion_window_sec must be positive, got %f", v)
		}
	}
	if c.HeatmapBinSec != nil {
		if v := *c.HeatmapBinSec; !(v > 0) || math.IsInf(v, 0) {
			return fmt.Errorf("heatmap_bin_sec must be positive, got %f", v)
		}
	}
	if c.SmoothingWindow != nil && *c.SmoothingWindow < 1 {
		return fmt.Errorf("smoothing_window must be at least 1, got %d", *c.SmoothingWindow)
	}
	if c.SmoothingEdgeMode != nil {
		switch *c.SmoothingEdgeMode {
		case EdgeModeZero, EdgeModeRenormalize:
		default:
			return fmt.Errorf("invalid smoothing_edge_mode %q", *c.SmoothingEdgeMode)
		}
	}
	if c.FocalLengthBasis != nil {
		switch *c.FocalLengthBasis {
		case FocalBasisHeight, FocalBasisWidth:
		default:
			return fmt.Errorf("invalid focal_length_basis %q", *c.FocalLengthBasis)
		}
	}
	if c.SampleStride != nil && *c.SampleStride < 1 {
		return fmt.Errorf("sample_stride must be at least 1, got %d", *c.SampleStride)
	}
	if c.MaxFrames != nil && *c.MaxFrames < 0 {
		return fmt.Errorf("max_frames must be non-negative, got %d", *c.MaxFrames)
	}
	if c.PoseMaxIterations != nil && *c.PoseMaxIterations < 1 {
		return fmt.Errorf("pose_max_iterations must be at least 1, got %d", *c.PoseMaxIterations)
	}
	if c.Workers != nil && *c.Workers < 1 {
		return fmt.Errorf("workers must be at least 1, got %d", *c.Workers)
	}
	return nil
}

// GetSampleStride returns the sample_stride value or the default.
func (c *AnalysisConfig) GetSampleStride() int {
	if c.SampleStride == nil {
		return 1
	}
	return *c.SampleStride
}

// GetMaxFrames returns the max_frames value or the default (no limit).
func (c *AnalysisConfig) GetMaxFrames() int {
	if c.MaxFrames == nil {
		return 0
	}
	return *c.MaxFrames
}

// GetConfusionThreshold returns the confusion_threshold value or the default.
func (c *AnalysisConfig) GetConfusionThreshold() float64 {
	if c.ConfusionThreshold == nil {
		return 0.7
	}
	return *c.ConfusionThreshold
}

// GetConfusionWindowSec returns the confusion_window_sec value or the default.
func (c *AnalysisConfig) GetConfusionWindowSec() float64 {
	if c.ConfusionWindowSec == nil {
		return 3
	}
	return *c.ConfusionWindowSec
}

// GetHeatmapBinSec returns the heatmap_bin_sec value or the default.
func (c *AnalysisConfig) GetHeatmapBinSec() float64 {
	if c.HeatmapBinSec == nil {
		return 1
	}
	return *c.HeatmapBinSec
}

// GetSmoothingWindow returns the smoothing_window value or the default.
func (c *AnalysisConfig) GetSmoothingWindow() int {
	if c.SmoothingWindow == nil {
		return 5
	}
	return *c.SmoothingWindow
}

// GetSmoothingEdgeMode returns the smoothing_edge_mode value or the default.
func (c *AnalysisConfig) GetSmoothingEdgeMode() string {
	if c.SmoothingEdgeMode == nil || *c.SmoothingEdgeMode == "" {
		return EdgeModeZero
	}
	return *c.SmoothingEdgeMode
}

// GetFocalLengthBasis returns the focal_length_basis value or the default.
func (c *AnalysisConfig) GetFocalLengthBasis() string {
	if c.FocalLengthBasis == nil || *c.FocalLengthBasis == "" {
		return FocalBasisHeight
	}
	return *c.FocalLengthBasis
}

// GetPoseMaxIterations returns the pose_max_iterations value or the default.
func (c *AnalysisConfig) GetPoseMaxIterations() int {
	if c.PoseMaxIterations == nil {
		return 100
	}
	return *c.PoseMaxIterations
}

// GetWorkers returns the workers value or the default.
func (c *AnalysisConfig) GetWorkers() int {
	if c.Workers == nil {
		return 1
	}
	return *c.Workers
}

// GetStoragePath returns the storage_path value or the default.
func (c *AnalysisConfig) GetStoragePath() string {
	if c.StoragePath == nil || *c.StoragePath == "" {
		return "output/sessions"
	}
	return *c.StoragePath
}

// GetDatabasePath returns the database_path value or the default.
func (c *AnalysisConfig) GetDatabasePath() string {
	if c.DatabasePath == nil || *c.DatabasePath == "" {
		return "attention.db"
	}
	return *c.DatabasePath
}
