// Package experiment implements functionality for running an experiment
package experiment

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/samuelfneumann/gomultiworld/agent/random"
	"github.com/samuelfneumann/gomultiworld/diagnostics"
	"github.com/samuelfneumann/gomultiworld/environment/envconfig"
	"github.com/samuelfneumann/gomultiworld/experiment/tracker"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
)

// Interface Experiment outlines structs that can run experiments.
// Experiments will track environment TimeSteps, caching each TimeStep
// in RAM to be later saved to disk. The Save() function
// will then take all cached data and save it to disk. This is usually
// performed after an experiment has been run. The Run() method will
// run all episodes util the maximum timestep limit is reached. The
// RunEpisode() function will run a single episode.
//
// Experiments send each TimeStep to Trackers using the Tracker's
// Track() method. The Tracker then determines which data from the
// TimeStep it caches and saves. New Trackers can be registered with
// an Experiment through the constructor or through an Experiment's
// Register() function.
type Experiment interface {
	Run() error

	// RunEpisode returns whether or not the step budget was exhausted
	RunEpisode() (bool, error)

	// Tracks current timestep by sending it to Trackers
	track(ts.TimeStep)

	// Save all tracked data to disk
	Save() error

	// Adds a new tracker.Tracker to the (possibly already running)
	// experiment. Useful if you want to track data only after a
	// specified event.
	Register(t tracker.Tracker)

	// Paths returns every episode run so far
	Paths() []diagnostics.Path
}

type Type string

const (
	OnlineExp Type = "OnlineExperiment"
)

// Config represents a configuration of an experiment.
type Config struct {
	Type     `json:"type" yaml:"type"`
	MaxSteps uint             `json:"max_steps" yaml:"max_steps"`
	EnvConf  envconfig.Config `json:"environment" yaml:"environment"`
}

// CreateExp creates the experiment described by the Config, running a
// uniform random agent in the configured environment
func (c Config) CreateExp(seed uint64, t []tracker.Tracker,
	logger *zap.Logger) (Experiment, error) {
	env, _, err := c.EnvConf.Create(seed, logger)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create environment: %w",
			err)
	}

	agent, err := random.NewUniform(env.ActionSpec(), seed)
	if err != nil {
		return nil, fmt.Errorf("createExp: could not create agent: %w", err)
	}

	switch c.Type {
	case OnlineExp:
		return NewOnline(env, agent, c.MaxSteps, logger, t...), nil
	}

	return nil, fmt.Errorf("createExp: no such experiment type %v", c.Type)
}
