package environment

import ts "github.com/samuelfneumann/gomultiworld/timestep"

// StepLimit implements the Ender interface to end episodes at specific
// timestep limits. A limit of zero or less never ends an episode.
type StepLimit struct {
	episodeSteps int
}

// NewStepLimit creates and returns a new step limit
func NewStepLimit(episodeSteps int) *StepLimit {
	return &StepLimit{episodeSteps}
}

// End determines whether or not the current episode should be ended,
// returning a boolean to indicate episode termination. If the episode
// should be ended End() will modify the timestep so that its StepType
// field is timestep.Last and its EndType is timestep.Timeout
func (s *StepLimit) End(t *ts.TimeStep) bool {
	if s.episodeSteps > 0 && t.Number >= s.episodeSteps {
		t.StepType = ts.Last
		t.SetEnd(ts.Timeout)
		return true
	}
	return false
}

// EpisodeSteps returns the step limit
func (s *StepLimit) EpisodeSteps() int {
	return s.episodeSteps
}
