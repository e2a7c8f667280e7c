// Package config loads sky ratio run configurations. Files are JSON and may
// contain whole-line // comments.
package config

import (
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/samber/lo"
	"github.com/sauerbraten/jsonfile"

	"github.com/df07/go-sky-ratio/pkg/accel"
	"github.com/df07/go-sky-ratio/pkg/core"
	"github.com/df07/go-sky-ratio/pkg/sky"
	"github.com/df07/go-sky-ratio/pkg/sun"
)

// DateLayout is the format of SunConfig.Date
const DateLayout = "2006-01-02"

// Config describes one evaluation run: the scene to open, the checkpoints
// to evaluate and how rays are cast. Zero values mean "use the scene's own
// setting" where the scene has one.
type Config struct {
	RayResolution float64      `json:"ray_resolution"`
	Method        string       `json:"method"`
	Accelerator   string       `json:"accelerator"`
	Workers       int          `json:"workers"`
	Checkpoints   [][3]float64 `json:"checkpoints"`
	Sample        string       `json:"sample"`
	SceneScript   string       `json:"scene_script"`
	Meshes        []string     `json:"meshes"`
	STLOutput     string       `json:"stl_output"`
	Sun           *SunConfig   `json:"sun"`

	resolutionSet bool
}

// SunConfig enables a direct-sun report for one day at a location in
// degrees, north and east positive. Timezone is an IANA name; empty means UTC.
type SunConfig struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Date        string  `json:"date"`
	Timezone    string  `json:"timezone"`
	StepMinutes int     `json:"step_minutes"`
}

// Default returns the configuration used when no file is given
func Default() *Config {
	return &Config{
		RayResolution: sky.DefaultResolution,
		Method:        sky.MethodSolidAngle.String(),
		Accelerator:   accel.NameBVH,
	}
}

// Load parses the file at path over Default and validates it. Relative
// scene, mesh and output paths resolve against the file's directory.
func Load(path string) (*Config, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, errors.Wrap(err, "config")
	}

	conf := Default()
	// NaN cannot come from JSON, so it marks an absent ray_resolution
	conf.RayResolution = math.NaN()
	if err := jsonfile.ParseFile(path, conf); err != nil {
		return nil, errors.Wrapf(err, "failed to parse config %s", path)
	}
	if math.IsNaN(conf.RayResolution) {
		conf.RayResolution = sky.DefaultResolution
	} else {
		conf.resolutionSet = true
	}

	dir := filepath.Dir(path)
	conf.SceneScript = resolve(dir, conf.SceneScript)
	conf.STLOutput = resolve(dir, conf.STLOutput)
	conf.Meshes = lo.Map(conf.Meshes, func(mesh string, _ int) string {
		return resolve(dir, mesh)
	})

	if err := conf.Validate(); err != nil {
		return nil, errors.Wrapf(err, "invalid config %s", path)
	}
	return conf, nil
}

// ResolutionSet reports whether the loaded file named ray_resolution
// explicitly, so that it overrides the scene's own resolution
func (c *Config) ResolutionSet() bool {
	return c.resolutionSet
}

func resolve(dir, path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(dir, path)
}

// Validate rejects settings the checker would otherwise silently repair
func (c *Config) Validate() error {
	if !sky.ValidResolution(c.RayResolution) {
		return errors.Errorf("ray_resolution must be in (0, %v], got %v", sky.MaxResolution, c.RayResolution)
	}
	if _, err := sky.ParseMethod(c.Method); err != nil {
		return errors.Wrap(err, "method")
	}
	if _, err := accel.ByName(c.Accelerator); err != nil {
		return errors.Wrap(err, "accelerator")
	}
	if c.Workers < 0 {
		return errors.Errorf("workers must not be negative, got %d", c.Workers)
	}
	for i, cp := range c.Checkpoints {
		if !core.NewVec3(cp[0], cp[1], cp[2]).IsFinite() {
			return errors.Wrapf(core.ErrInvalidGeometry, "checkpoint %d", i)
		}
	}
	if c.Sample != "" && c.SceneScript != "" {
		return errors.New("sample and scene_script are mutually exclusive")
	}
	if c.Sun != nil {
		if err := c.Sun.Validate(); err != nil {
			return errors.Wrap(err, "sun")
		}
	}
	return nil
}

// CheckpointVecs returns the configured checkpoints as vectors
func (c *Config) CheckpointVecs() []core.Vec3 {
	return lo.Map(c.Checkpoints, func(cp [3]float64, _ int) core.Vec3 {
		return core.NewVec3(cp[0], cp[1], cp[2])
	})
}

// Validate checks coordinates, date and step
func (s *SunConfig) Validate() error {
	if math.IsNaN(s.Latitude) || s.Latitude < -90 || s.Latitude > 90 {
		return errors.Errorf("latitude must be in [-90, 90], got %v", s.Latitude)
	}
	if math.IsNaN(s.Longitude) || s.Longitude < -180 || s.Longitude > 180 {
		return errors.Errorf("longitude must be in [-180, 180], got %v", s.Longitude)
	}
	if s.StepMinutes <= 0 {
		return errors.Errorf("step_minutes must be positive, got %d", s.StepMinutes)
	}
	_, err := s.date()
	return err
}

func (s *SunConfig) date() (time.Time, error) {
	loc := time.UTC
	if s.Timezone != "" {
		var err error
		if loc, err = time.LoadLocation(s.Timezone); err != nil {
			return time.Time{}, errors.Wrap(err, "timezone")
		}
	}
	date, err := time.ParseInLocation(DateLayout, s.Date, loc)
	if err != nil {
		return time.Time{}, errors.Wrap(err, "date")
	}
	return date, nil
}

// Times returns the sample instants across the configured day
func (s *SunConfig) Times() ([]time.Time, error) {
	date, err := s.date()
	if err != nil {
		return nil, err
	}
	return sun.Times(date, time.Duration(s.StepMinutes)*time.Minute)
}
