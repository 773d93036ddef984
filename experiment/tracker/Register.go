package tracker

import (
	"github.com/samuelfneumann/gomultiworld/environment"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
)

// sourced is a Tracker which ignores the TimeSteps handed to it and
// tracks the most recent TimeStep of its source Environment instead
type sourced struct {
	Tracker
	source environment.Environment
}

// Register returns a Tracker that tracks data from env only. Each call
// to Track on the returned Tracker passes env.CurrentTimeStep() to t,
// and Save saves the data of t.
//
// This lets an experiment run on a wrapper, such as a
// wrappers.ImageEnv rewarding image distances, while t tracks the
// distance-based rewards of the wrapped Point2D. The wrapper must
// step env exactly once per step of its own, so that t sees
// sequential TimeSteps.
//
// The concrete type of t is hidden by the returned Tracker, so keep a
// reference to t to read its data.
func Register(t Tracker, env environment.Environment) Tracker {
	return &sourced{Tracker: t, source: env}
}

// Track tracks the current TimeStep of the source Environment
func (s *sourced) Track(ts.TimeStep) {
	s.Tracker.Track(s.source.CurrentTimeStep())
}
