package point2d

import (
	"github.com/samuelfneumann/gomultiworld/utils/floatutils"
	"gonum.org/v1/gonum/spatial/r2"
)

// Move returns the position reached when moving from position by
// velocity, given the walls and a boundary square of half-width
// boundary centred at the origin.
//
// Each wall in turn corrects the move. If the corrected position
// differs from the uncorrected one in both coordinates, the ball is
// likely caught on two walls at once, and the corrections are redone
// with the walls in reverse order, which often leaves the ball caught
// on a single wall only. This is a heuristic. It does not guarantee
// that the ball stays outside every wall for every concave layout.
func Move(position, velocity r2.Vec, walls []*Wall,
	boundary float64) r2.Vec {
	target := position.Add(velocity)

	next := target
	for _, wall := range walls {
		next = wall.HandleCollision(position, next)
	}

	if changed(next, target) > 1 {
		next = target
		for i := len(walls) - 1; i >= 0; i-- {
			next = walls[i].HandleCollision(position, next)
		}
	}

	return clampToBoundary(next, boundary)
}

// changed returns the number of coordinates in which p and q differ
func changed(p, q r2.Vec) int {
	n := 0
	if p.X != q.X {
		n++
	}
	if p.Y != q.Y {
		n++
	}
	return n
}

func clampToBoundary(p r2.Vec, boundary float64) r2.Vec {
	return r2.Vec{
		X: floatutils.Clip(p.X, -boundary, boundary),
		Y: floatutils.Clip(p.Y, -boundary, boundary),
	}
}

// clipAction clips each element of an action to [-1, 1] and scales
// it by scale
func clipAction(action r2.Vec, scale float64) r2.Vec {
	return r2.Vec{
		X: floatutils.Clip(action.X, -1, 1),
		Y: floatutils.Clip(action.Y, -1, 1),
	}.Scale(scale)
}

// TrueModel returns the next state of the wall-free dynamics with
// unit action scale
func TrueModel(state, action r2.Vec, boundary float64) r2.Vec {
	return clampToBoundary(state.Add(clipAction(action, 1.0)), boundary)
}

// TrueStates rolls out TrueModel from state over the actions. The
// returned slice starts with state and has len(actions)+1 elements.
func TrueStates(state r2.Vec, actions []r2.Vec, boundary float64) []r2.Vec {
	states := make([]r2.Vec, 0, len(actions)+1)
	states = append(states, state)
	for _, action := range actions {
		state = TrueModel(state, action, boundary)
		states = append(states, state)
	}
	return states
}
