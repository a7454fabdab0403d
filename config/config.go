package config

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/LdDl/lineage-go/labelimage"
	"github.com/LdDl/lineage-go/lineage"
	"github.com/pkg/errors"
)

const maxFileSize = 1 * 1024 * 1024

// Config is the run configuration. Fields omitted from the JSON file keep their defaults
type Config struct {
	SearchRadius         float64    `json:"search_radius"`
	AreaRatio            [2]float64 `json:"area_ratio"`
	OrientationDif       [2]float64 `json:"orientation_dif"`
	MinTrajectoryLength  int        `json:"min_trajectory_length"`
	CollisionPolicy      string     `json:"collision_policy"`
	Workers              int        `json:"workers"`
	MaskSuffix           string     `json:"mask_suffix"`
	TimeStringLength     int        `json:"time_string_length"`
	RemoveBoundaryLabels bool       `json:"remove_boundary_labels"`
}

// Default returns the configuration of the lab pipeline
func Default() *Config {
	constraints := lineage.DefaultConstraints()
	load := labelimage.DefaultLoadOptions()
	return &Config{
		SearchRadius:         constraints.SearchRadius,
		AreaRatio:            [2]float64{constraints.AreaRatio.Low, constraints.AreaRatio.High},
		OrientationDif:       [2]float64{constraints.OrientationDif.Low, constraints.OrientationDif.High},
		MinTrajectoryLength:  100,
		CollisionPolicy:      lineage.CollisionOverwrite.String(),
		Workers:              0,
		MaskSuffix:           load.Suffix,
		TimeStringLength:     load.TimeStringLength,
		RemoveBoundaryLabels: true,
	}
}

// Load reads a JSON config over the defaults.
// The file must have a .json extension and be at most 1 MiB.
func Load(path string) (*Config, error) {
	cleanPath := filepath.Clean(path)
	if ext := filepath.Ext(cleanPath); ext != ".json" {
		return nil, errors.Errorf("config file must have .json extension, got %q", ext)
	}
	info, err := os.Stat(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "can't stat config file")
	}
	if info.Size() > maxFileSize {
		return nil, errors.Errorf("config file too large: %d bytes (max %d)", info.Size(), maxFileSize)
	}
	data, err := os.ReadFile(cleanPath)
	if err != nil {
		return nil, errors.Wrap(err, "can't read config file")
	}
	cfg := Default()
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, errors.Wrap(err, "can't parse config JSON")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}
	return cfg, nil
}

// Validate checks every field
func (c *Config) Validate() error {
	if err := c.Constraints().Validate(); err != nil {
		return err
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	if c.MinTrajectoryLength < 0 {
		return errors.Errorf("min_trajectory_length must be non-negative, got %d", c.MinTrajectoryLength)
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must be non-negative, got %d", c.Workers)
	}
	if c.MaskSuffix == "" {
		return errors.New("mask_suffix must not be empty")
	}
	if c.TimeStringLength <= 0 {
		return errors.Errorf("time_string_length must be positive, got %d", c.TimeStringLength)
	}
	return nil
}

// Constraints converts the gate fields
func (c *Config) Constraints() lineage.Constraints {
	return lineage.Constraints{
		SearchRadius:   c.SearchRadius,
		AreaRatio:      lineage.NewRange(c.AreaRatio[0], c.AreaRatio[1]),
		OrientationDif: lineage.NewRange(c.OrientationDif[0], c.OrientationDif[1]),
	}
}

func (c *Config) Policy() (lineage.CollisionPolicy, error) {
	return lineage.ParseCollisionPolicy(c.CollisionPolicy)
}

// LoadOptions converts the mask discovery fields
func (c *Config) LoadOptions() labelimage.LoadOptions {
	return labelimage.LoadOptions{
		Suffix:           c.MaskSuffix,
		TimeStringLength: c.TimeStringLength,
	}
}

// NewTracker builds a tracker from the gate, policy and worker fields
func (c *Config) NewTracker() (*lineage.Tracker, error) {
	policy, err := c.Policy()
	if err != nil {
		return nil, err
	}
	tracker, err := lineage.NewTracker(c.Constraints(), policy)
	if err != nil {
		return nil, err
	}
	tracker.SetWorkers(c.Workers)
	return tracker, nil
}
