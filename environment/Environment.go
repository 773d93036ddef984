// Package environment outlines the interfaces and structs needed to
// implement concrete environments, including goal-conditioned
// environments whose rewards depend on the distance between an
// achieved goal and a desired goal.
package environment

import (
	"github.com/samuelfneumann/gomultiworld/diagnostics"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
	"gonum.org/v1/gonum/mat"
)

// Starter implements a distribution of starting states and samples
// starting states for environments
type Starter interface {
	Start() *mat.VecDense
}

// Ender determines when episodes end. If End returns true it must
// also set the StepType of the argument TimeStep to timestep.Last.
type Ender interface {
	End(*ts.TimeStep) bool
}

// Task implements the reward scheme, the start state distribution,
// and the episode termination scheme of an environment
type Task interface {
	Starter
	Ender
	GetReward(state, action, nextState mat.Vector) float64
	AtGoal(state mat.Matrix) bool
}

// Environment implements a simulated environment, which includes a
// Task to complete
type Environment interface {
	Task
	Reset() (ts.TimeStep, error)
	Step(action *mat.VecDense) (ts.TimeStep, bool, error)
	CurrentTimeStep() ts.TimeStep
	RewardSpec() Spec
	DiscountSpec() Spec
	ObservationSpec() Spec
	ActionSpec() Spec
}

// GoalEnvironment is an Environment conditioned on a goal. Each
// TimeStep produced by a GoalEnvironment carries a timestep.Dict with
// at least the observation, desired_goal and achieved_goal entries.
type GoalEnvironment interface {
	Environment

	// Goal returns the current desired goal
	Goal() ts.Dict

	// SetGoal sets the desired goal
	SetGoal(goal ts.Dict) error

	// SampleGoals samples batchSize goals without changing the
	// current goal
	SampleGoals(batchSize int) (ts.Batch, error)

	// ComputeRewards computes the rewards of a batch of transitions,
	// one row per transition
	ComputeRewards(actions *mat.Dense, obs ts.Batch) (*mat.Dense, error)

	// EnvState returns a copy of the state needed to restore the
	// environment with SetEnvState
	EnvState() ts.Dict
	SetEnvState(state ts.Dict) error

	// SetToGoal places the environment in the state described by goal
	SetToGoal(goal ts.Dict) error

	// Diagnostics summarises the Info of a set of episodes
	Diagnostics(paths []diagnostics.Path, prefix string) diagnostics.Stats
}

// Imager is an environment that can render itself. Image returns a
// flattened, row-major image with Channels() values per pixel, each
// in [0, 255].
type Imager interface {
	Image(width, height int) (*mat.VecDense, error)
	Channels() int
}

// ImageGoalEnvironment is a GoalEnvironment which can render itself
type ImageGoalEnvironment interface {
	GoalEnvironment
	Imager
}
