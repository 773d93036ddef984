// Package random implements agents which act uniformly at random
package random

import (
	"fmt"

	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/gomultiworld/environment"
	"github.com/samuelfneumann/gomultiworld/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Uniform is an Agent which selects each element of its actions
// uniformly at random between the bounds of an action Spec. Uniform
// does not learn, so its Learner methods do nothing.
type Uniform struct {
	dists []distuv.Uniform
	eval  bool
}

// NewUniform returns a new Uniform agent acting within the bounds of
// the argument action Spec
func NewUniform(actionSpec environment.Spec, seed uint64) (*Uniform,
	error) {
	if actionSpec.Type != environment.Action {
		return nil, fmt.Errorf("newUniform: cannot create a policy from "+
			"a %v spec", actionSpec.Type)
	}

	source := rand.NewSource(seed)
	n := actionSpec.Shape.Len()
	dists := make([]distuv.Uniform, n)
	for i := 0; i < n; i++ {
		min := actionSpec.LowerBound.AtVec(i)
		max := actionSpec.UpperBound.AtVec(i)
		if min > max {
			return nil, fmt.Errorf("newUniform: lower bound %v exceeds "+
				"upper bound %v in dimension %v", min, max, i)
		}
		dists[i] = distuv.Uniform{Min: min, Max: max, Src: source}
	}

	return &Uniform{dists: dists}, nil
}

// SelectAction samples a random action. The TimeStep is ignored.
func (u *Uniform) SelectAction(timestep.TimeStep) *mat.VecDense {
	action := make([]float64, len(u.dists))
	for i := range u.dists {
		action[i] = u.dists[i].Rand()
	}
	return mat.NewVecDense(len(action), action)
}

// Eval sets the policy to evaluation mode
func (u *Uniform) Eval() { u.eval = true }

// Train sets the policy to training mode
func (u *Uniform) Train() { u.eval = false }

// IsEval returns whether the policy is in evaluation mode
func (u *Uniform) IsEval() bool { return u.eval }

// Step performs no update
func (u *Uniform) Step() error { return nil }

// Observe ignores the transition
func (u *Uniform) Observe(mat.Vector, timestep.TimeStep) error { return nil }

// ObserveFirst ignores the first timestep
func (u *Uniform) ObserveFirst(timestep.TimeStep) error { return nil }

// EndEpisode does nothing
func (u *Uniform) EndEpisode() {}
