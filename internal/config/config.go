// Package config loads and validates extraction settings. Settings live in a
// JSON file with all fields optional; the Get* accessors supply defaults for
// anything unset, so partial configs are safe and CLI flags can override
// individual values.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/atticfilm/slidescan/internal/geometry"
	"github.com/atticfilm/slidescan/internal/metric"
)

// Config is the tuning surface of the extraction pipeline. The schema
// mirrors the CLI flags so the same JSON works for repeatable batch runs.
type Config struct {
	// Geometry
	AspectRatio *string `json:"aspect_ratio,omitempty"` // "w:h"
	Corners     *string `json:"corners,omitempty"`      // JSON array of four [x, y] pairs

	// Metric and thresholds
	MetricMode       *string  `json:"metric_mode,omitempty"` // diff | brightness | phash
	PrimingThreshold *float64 `json:"priming_threshold,omitempty"`
	CaptureThreshold *float64 `json:"capture_threshold,omitempty"`

	// Capture policy
	FramesRequired *int     `json:"frames_required,omitempty"` // stability-count policy
	BacktrackMS    *int     `json:"backtrack_ms,omitempty"`    // backtracking policy
	FPS            *float64 `json:"fps,omitempty"`             // frame rate of the source feed

	// Frame bounds
	StartFrame *int `json:"start_frame,omitempty"`
	EndFrame   *int `json:"end_frame,omitempty"` // 0 = unbounded
	Stride     *int `json:"stride,omitempty"`    // images per slide

	// Live ingestion
	SettleDelay *string `json:"settle_delay,omitempty"` // duration string like "500ms"

	// Output
	ArchiveYear *int `json:"archive_year,omitempty"`
}

// Default returns a Config with no fields set; accessors fall back to the
// built-in defaults.
func Default() *Config {
	return &Config{}
}

// Load reads and validates a Config from a JSON file.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, fmt.Errorf("config file must have .json extension, got %q", ext)
	}

	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config JSON: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// Validate reports the first violated constraint. All checks run before any
// frame is processed.
func (c *Config) Validate() error {
	if c.AspectRatio != nil {
		if _, err := geometry.ParseAspectRatio(*c.AspectRatio); err != nil {
			return err
		}
	}
	if c.Corners != nil {
		if _, err := geometry.ParseCorners(*c.Corners); err != nil {
			return err
		}
	}
	if c.MetricMode != nil {
		if _, err := metric.New(metric.Mode(*c.MetricMode)); err != nil {
			return err
		}
	}
	if c.PrimingThreshold != nil {
		if *c.PrimingThreshold < 0 || *c.PrimingThreshold > 255 {
			return fmt.Errorf("priming_threshold must be between 0 and 255, got %g", *c.PrimingThreshold)
		}
	}
	if c.CaptureThreshold != nil {
		if *c.CaptureThreshold < 0 || *c.CaptureThreshold > 255 {
			return fmt.Errorf("capture_threshold must be between 0 and 255, got %g", *c.CaptureThreshold)
		}
	}
	if c.FramesRequired != nil && *c.FramesRequired < 1 {
		return fmt.Errorf("frames_required must be at least 1, got %d", *c.FramesRequired)
	}
	if c.BacktrackMS != nil && *c.BacktrackMS < 0 {
		return fmt.Errorf("backtrack_ms must be non-negative, got %d", *c.BacktrackMS)
	}
	if c.FPS != nil && *c.FPS <= 0 {
		return fmt.Errorf("fps must be positive, got %g", *c.FPS)
	}
	if c.StartFrame != nil && *c.StartFrame < 0 {
		return fmt.Errorf("start_frame must be non-negative, got %d", *c.StartFrame)
	}
	if c.EndFrame != nil && *c.EndFrame != 0 {
		start := 0
		if c.StartFrame != nil {
			start = *c.StartFrame
		}
		if *c.EndFrame < start {
			return fmt.Errorf("end_frame %d must be at least start_frame %d", *c.EndFrame, start)
		}
	}
	if c.Stride != nil && (*c.Stride < 1 || *c.Stride > 9) {
		return fmt.Errorf("stride must be between 1 and 9, got %d", *c.Stride)
	}
	if c.SettleDelay != nil && *c.SettleDelay != "" {
		if _, err := time.ParseDuration(*c.SettleDelay); err != nil {
			return fmt.Errorf("invalid settle_delay %q: %w", *c.SettleDelay, err)
		}
	}
	if c.ArchiveYear != nil && *c.ArchiveYear != 0 {
		if *c.ArchiveYear < 1800 || *c.ArchiveYear > 9999 {
			return fmt.Errorf("archive_year %d out of range", *c.ArchiveYear)
		}
	}
	return nil
}

// GetAspectRatio returns the parsed aspect ratio or the 3:2 default.
func (c *Config) GetAspectRatio() geometry.AspectRatio {
	if c.AspectRatio == nil {
		return geometry.AspectRatio{Num: 3, Den: 2}
	}
	ar, err := geometry.ParseAspectRatio(*c.AspectRatio)
	if err != nil {
		return geometry.AspectRatio{Num: 3, Den: 2}
	}
	return ar
}

// GetMetricMode returns the metric mode, defaulting to brightness.
func (c *Config) GetMetricMode() metric.Mode {
	if c.MetricMode == nil {
		return metric.ModeBrightness
	}
	return metric.Mode(*c.MetricMode)
}

// GetPrimingThreshold returns the priming threshold or its default.
func (c *Config) GetPrimingThreshold() float64 {
	if c.PrimingThreshold == nil {
		return 75
	}
	return *c.PrimingThreshold
}

// GetCaptureThreshold returns the capture threshold or its default.
func (c *Config) GetCaptureThreshold() float64 {
	if c.CaptureThreshold == nil {
		return 15
	}
	return *c.CaptureThreshold
}

// GetFramesRequired returns the stability-count run length or its default.
func (c *Config) GetFramesRequired() int {
	if c.FramesRequired == nil {
		return 3
	}
	return *c.FramesRequired
}

// GetBacktrackMS returns the lookback duration in milliseconds or its default.
func (c *Config) GetBacktrackMS() int {
	if c.BacktrackMS == nil {
		return 50
	}
	return *c.BacktrackMS
}

// GetFPS returns the source frame rate or its default.
func (c *Config) GetFPS() float64 {
	if c.FPS == nil {
		return 30
	}
	return *c.FPS
}

// GetStartFrame returns the start bound, default 0.
func (c *Config) GetStartFrame() int {
	if c.StartFrame == nil {
		return 0
	}
	return *c.StartFrame
}

// GetEndFrame returns the end bound; 0 means unbounded.
func (c *Config) GetEndFrame() int {
	if c.EndFrame == nil {
		return 0
	}
	return *c.EndFrame
}

// GetStride returns the images-per-slide stride, default 1.
func (c *Config) GetStride() int {
	if c.Stride == nil {
		return 1
	}
	return *c.Stride
}

// GetSettleDelay returns the live-ingestion settle delay, default 500ms.
func (c *Config) GetSettleDelay() time.Duration {
	if c.SettleDelay == nil || *c.SettleDelay == "" {
		return 500 * time.Millisecond
	}
	d, err := time.ParseDuration(*c.SettleDelay)
	if err != nil {
		return 500 * time.Millisecond
	}
	return d
}

// GetArchiveYear returns the archive year; 0 disables timestamping.
func (c *Config) GetArchiveYear() int {
	if c.ArchiveYear == nil {
		return 0
	}
	return *c.ArchiveYear
}

// GetCorners returns the configured corner set, if any.
func (c *Config) GetCorners() (geometry.Corners, bool) {
	if c.Corners == nil {
		return geometry.Corners{}, false
	}
	corners, err := geometry.ParseCorners(*c.Corners)
	if err != nil {
		return geometry.Corners{}, false
	}
	return corners, true
}
