package environment

import (
	"fmt"

	"golang.org/x/exp/rand"

	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/stat/distmv"
)

// maxRejections bounds the number of samples drawn by a UniformStarter
// before it gives up on finding an accepted state
const maxRejections = 100_000

// UniformStarter samples starting states uniformly from a box. If a
// rejection function is set, states for which it returns true are
// discarded and resampled.
type UniformStarter struct {
	features int
	seed     uint64
	rand     *distmv.Uniform
	reject   func(*mat.VecDense) bool
}

// NewUniformStarter returns a new UniformStarter over the box described
// by bounds
func NewUniformStarter(bounds []r1.Interval, seed uint64) *UniformStarter {
	source := rand.NewSource(seed)
	rand := distmv.NewUniform(bounds, source)

	return &UniformStarter{
		features: len(bounds),
		seed:     seed,
		rand:     rand,
	}
}

// NewRejectionStarter returns a new UniformStarter over the box
// described by bounds which resamples any state for which reject
// returns true
func NewRejectionStarter(bounds []r1.Interval, seed uint64,
	reject func(*mat.VecDense) bool) *UniformStarter {
	u := NewUniformStarter(bounds, seed)
	u.reject = reject
	return u
}

// Start samples a starting state. Start panics if no acceptable
// state can be found, which indicates a misconfigured rejection
// region covering the whole box.
func (u *UniformStarter) Start() *mat.VecDense {
	s, err := u.Sample()
	if err != nil {
		panic(fmt.Sprintf("start: %v", err))
	}
	return s
}

// Sample samples a state, returning an error if every sampled state
// was rejected
func (u *UniformStarter) Sample() (*mat.VecDense, error) {
	for i := 0; i < maxRejections; i++ {
		state := mat.NewVecDense(u.features, u.rand.Rand(nil))
		if u.reject == nil || !u.reject(state) {
			return state, nil
		}
	}
	return nil, fmt.Errorf("sample: no state accepted after %v samples",
		maxRejections)
}
