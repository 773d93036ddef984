package tracker

import "github.com/samuelfneumann/gomultiworld/timestep"

// Success tracks whether each episode ended in success, as reported by
// a boolean entry of the Info of the last TimeStep in the episode.
// Episodes whose last TimeStep lacks the entry count as failures.
type Success struct {
	key       string
	successes []float64
	filename  string
}

// NewSuccess returns a new Success Tracker reading the Info entry
// named key and saving its data at the location filename
func NewSuccess(key, filename string) *Success {
	return &Success{key: key, filename: filename}
}

// Track records the success of an episode when t is its last TimeStep
func (s *Success) Track(t timestep.TimeStep) {
	if !t.Last() {
		return
	}

	success, ok := t.Info.Scalar(s.key)
	if !ok || success != 1.0 {
		s.successes = append(s.successes, 0.0)
		return
	}
	s.successes = append(s.successes, 1.0)
}

// Data returns 1.0 for each successful episode and 0.0 otherwise
func (s *Success) Data() []float64 {
	return s.successes
}

// Save saves the data tracked by the Success Tracker to disk.
func (s *Success) Save() error {
	return save(s.filename, s.successes)
}
