package experiment

import (
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/samuelfneumann/gomultiworld/agent"
	"github.com/samuelfneumann/gomultiworld/diagnostics"
	env "github.com/samuelfneumann/gomultiworld/environment"
	"github.com/samuelfneumann/gomultiworld/experiment/tracker"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
	"github.com/samuelfneumann/gomultiworld/utils/logging"
)

// Online is an Experiment that runs an agent online only. No offline
// evaluation is performed. Every episode run is kept as a
// diagnostics.Path so that goal-conditioned environments can summarise
// the experiment.
type Online struct {
	env.Environment
	agent.Agent
	id           uuid.UUID
	maxSteps     uint
	currentSteps uint
	trackers     []tracker.Tracker
	paths        []diagnostics.Path
	logger       *zap.Logger
}

// NewOnline creates and returns a new online experiment on a given
// environment with a given agent. The steps parameter determines how
// many timesteps the experiment is run for, and the t parameter
// is a slice of tracker.Tracker which determine what data is saved.
func NewOnline(e env.Environment, a agent.Agent, steps uint,
	logger *zap.Logger, t ...tracker.Tracker) *Online {
	id := uuid.New()
	logger = logging.OrNop(logger).With(zap.Stringer("run", id))

	return &Online{
		Environment: e,
		Agent:       a,
		id:          id,
		maxSteps:    steps,
		trackers:    t,
		logger:      logger,
	}
}

// ID returns the unique identifier of the experiment run
func (o *Online) ID() uuid.UUID {
	return o.id
}

// Register registers a tracker.Tracker with an Experiment so that data
// generated during the experiment can be tracked and saved
func (o *Online) Register(t tracker.Tracker) {
	o.trackers = append(o.trackers, t)
}

// RunEpisode runs a single episode of the experiment
func (o *Online) RunEpisode() (bool, error) {
	step, err := o.Environment.Reset()
	if err != nil {
		return false, fmt.Errorf("runEpisode: could not reset: %w", err)
	}
	if err := o.Agent.ObserveFirst(step); err != nil {
		return false, fmt.Errorf("runEpisode: %w", err)
	}
	o.track(step)

	path := diagnostics.Path{step}
	episodeReturn := 0.0

	// Run the next timestep
	for !step.Last() && o.currentSteps < o.maxSteps {
		o.currentSteps++

		// Select action, step in environment
		action := o.Agent.SelectAction(step)
		step, _, err = o.Environment.Step(action)
		if err != nil {
			return false, fmt.Errorf("runEpisode: could not step: %w", err)
		}
		path = append(path, step)
		episodeReturn += step.Reward

		// Cache the environment step in each Tracker
		o.track(step)

		// Observe the timestep and step the agent
		if err := o.Agent.Observe(action, step); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
		if err := o.Agent.Step(); err != nil {
			return false, fmt.Errorf("runEpisode: %w", err)
		}
	}

	if step.Last() {
		o.Agent.EndEpisode()
	}
	o.paths = append(o.paths, path)

	o.logger.Debug("episode finished",
		zap.Int("episode", len(o.paths)),
		zap.Int("length", step.Number),
		zap.Float64("return", episodeReturn),
		zap.Stringer("end", step.EndType()),
	)

	// Return whether or not the max timestep limit has been reached
	return o.currentSteps >= o.maxSteps, nil
}

// Run runs the entire experiment for all timesteps
func (o *Online) Run() error {
	o.logger.Info("starting experiment", zap.Uint("steps", o.maxSteps))

	for ended := false; !ended; {
		var err error
		if ended, err = o.RunEpisode(); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}

	o.logger.Info("experiment finished",
		zap.Int("episodes", len(o.paths)),
		zap.Uint("steps", o.currentSteps),
	)
	return nil
}

// Paths returns every episode run so far. The last path may be
// incomplete if the step budget ran out during an episode.
func (o *Online) Paths() []diagnostics.Path {
	return o.paths
}

// Diagnostics summarises all episodes run so far. Diagnostics returns
// an error if the environment is not goal-conditioned.
func (o *Online) Diagnostics(prefix string) (diagnostics.Stats, error) {
	g, ok := o.Environment.(env.GoalEnvironment)
	if !ok {
		return nil, fmt.Errorf("diagnostics: environment %T is not "+
			"goal-conditioned", o.Environment)
	}
	return g.Diagnostics(o.paths, prefix), nil
}

// Save saves all the data cached by the Trackers to disk
func (o *Online) Save() error {
	for _, t := range o.trackers {
		if err := t.Save(); err != nil {
			return fmt.Errorf("save: %w", err)
		}
	}
	return nil
}

// track tracks the current timestep by caching its data in each tracker
func (o *Online) track(t ts.TimeStep) {
	for _, tr := range o.trackers {
		tr.Track(t)
	}
}
