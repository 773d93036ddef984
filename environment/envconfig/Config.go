// Package envconfig provides configuration structs for configuring
// environments with default physical parameters and tasks. Environment
// configurations in this package are JSON and YAML serializable.
package envconfig

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	env "github.com/samuelfneumann/gomultiworld/environment"
	"github.com/samuelfneumann/gomultiworld/environment/point2d"
	"github.com/samuelfneumann/gomultiworld/environment/wrappers"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
)

// EnvName stores the name of environments that can be configured with
// this package
type EnvName string

// Environments available for configuration
const (
	Point2D EnvName = "Point2D"
)

// Config implements a specific configuration of a specific environment
// and its Reach task. If Image is non-nil the environment is wrapped
// in a wrappers.ImageEnv.
type Config struct {
	Environment        EnvName `json:"environment" yaml:"environment"`
	EpisodeCutoff      int     `json:"episode_cutoff" yaml:"episode_cutoff"`
	TerminateOnSuccess bool    `json:"terminate_on_success" yaml:"terminate_on_success"`

	Point2D point2d.Config        `json:"point2d" yaml:"point2d"`
	Image   *wrappers.ImageConfig `json:"image,omitempty" yaml:"image,omitempty"`
}

// Default returns the default Point2D configuration with episodes cut
// off after 100 steps
func Default() Config {
	return Config{
		Environment:   Point2D,
		EpisodeCutoff: 100,
		Point2D:       point2d.DefaultConfig(),
	}
}

// Load reads a Config from a JSON (.json) or YAML (.yaml, .yml) file.
// Fields missing from the file keep their default values.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("load: %w", err)
	}

	c := Default()
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &c)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &c)
	default:
		return Config{}, fmt.Errorf("load: unknown config format %q", ext)
	}
	if err != nil {
		return Config{}, fmt.Errorf("load: could not decode %v: %w", path, err)
	}
	return c, nil
}

// Save writes the Config to path as JSON or YAML, depending on the
// file extension
func (c Config) Save(path string) error {
	var data []byte
	var err error

	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		data, err = json.MarshalIndent(c, "", "  ")
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		return fmt.Errorf("save: unknown config format %q", ext)
	}
	if err != nil {
		return fmt.Errorf("save: could not encode config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save: %w", err)
	}
	return nil
}

// Create returns the environment described by the Config as well as
// the first timestep of the environment
func (c Config) Create(seed uint64,
	logger *zap.Logger) (env.ImageGoalEnvironment, ts.TimeStep, error) {
	switch c.Environment {
	case Point2D:
		task := point2d.NewReach(c.EpisodeCutoff, c.TerminateOnSuccess)
		p, step, err := point2d.New(task, c.Point2D, seed, logger)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
		}
		if c.Image == nil {
			return p, step, nil
		}

		i, step, err := wrappers.NewImageEnv(p, *c.Image, nil, seed,
			logger)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("create: %w", err)
		}
		return i, step, nil
	}

	return nil, ts.TimeStep{}, fmt.Errorf("create: cannot create "+
		"environment %v, no such environment", c.Environment)
}
