package point2d

import (
	"fmt"
	"math"

	"github.com/samuelfneumann/gomultiworld/environment"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// Reach implements the Reach task. In this task, the ball must reach
// the target. Rewards are computed from the distance between the
// ball and the target using the reward type of the registered
// Point2D environment. Episodes end after a step limit and, if
// configured, as soon as the ball is within the target radius.
//
// The Reach Task must be registered with a Point2D before it can be
// used. Point2D registers a Reach Task when it is constructed.
type Reach struct {
	env        *Point2D
	registered bool

	stepLimit          *environment.StepLimit
	terminateOnSuccess bool
	enders             environment.Enders
}

// NewReach returns a new Reach Task. Episodes are cut off after
// cutoff steps, or never if cutoff is not positive.
func NewReach(cutoff int, terminateOnSuccess bool) *Reach {
	return &Reach{
		stepLimit:          environment.NewStepLimit(cutoff),
		terminateOnSuccess: terminateOnSuccess,
	}
}

// register registers a Point2D environment with the Reach Task
func (r *Reach) register(p *Point2D) {
	r.env = p
	r.enders = environment.Enders{r.stepLimit}
	if r.terminateOnSuccess {
		success := environment.NewFunctionEnder(func(obs *mat.VecDense) bool {
			return r.AtGoal(obs)
		}, ts.TerminalStateReached)

		// Reaching the goal on the final step counts as success
		r.enders = environment.Enders{success, r.stepLimit}
	}
	r.registered = true
}

// Start returns the starting position of the ball for a new episode.
// In evaluation mode with a fixed evaluation reset the fixed reset is
// used. Otherwise the position is sampled uniformly outside all walls
// if randomisation is enabled, or set to the fixed reset if one is
// configured. If none apply the ball stays where it is.
func (r *Reach) Start() *mat.VecDense {
	if !r.registered {
		panic("start: must register with Point2D environment first")
	}
	cfg := r.env.cfg

	switch {
	case r.env.mode == EvalSampling && cfg.UseFixedResetForEval:
		return mat.NewVecDense(2, []float64{cfg.FixedReset[0],
			cfg.FixedReset[1]})

	case cfg.RandomizePositionOnReset:
		pos, err := r.env.positions.Sample()
		if err != nil {
			panic(fmt.Sprintf("start: could not sample position: %v", err))
		}
		return pos

	case cfg.FixedReset != nil:
		return mat.NewVecDense(2, []float64{cfg.FixedReset[0],
			cfg.FixedReset[1]})
	}

	return vecOf(r.env.position)
}

// End checks if a TimeStep is the last in an episode. If so, it
// adjusts the TimeStep's StepType to timestep.Last and returns true.
func (r *Reach) End(t *ts.TimeStep) bool {
	return r.enders.End(t)
}

// reward computes the reward of arriving at nextState given the
// current target
func (r *Reach) reward(nextState mat.Vector) (float64, error) {
	if !r.registered {
		return 0, fmt.Errorf("reward: must register with Point2D " +
			"environment first")
	}
	if nextState.Len() != 2 {
		return 0, fmt.Errorf("reward: state should be (x, y) position, "+
			"got length %v", nextState.Len())
	}
	return r.env.cfg.RewardType.Reward(nextState, vecOf(r.env.target),
		r.env.cfg.TargetRadius)
}

// GetReward returns the reward for some transition. GetReward panics
// if the reward type of the registered environment is not
// implemented.
func (r *Reach) GetReward(_, _, nextState mat.Vector) float64 {
	reward, err := r.reward(nextState)
	if err != nil {
		panic(fmt.Sprintf("getReward: %v", err))
	}
	return reward
}

// AtGoal returns whether the (x, y) position determined by the
// argument state is within the target radius of the target
func (r *Reach) AtGoal(state mat.Matrix) bool {
	rows, cols := state.Dims()
	if rows != 2 || cols != 1 {
		panic(fmt.Sprintf("atGoal: argument state should be (x, y) " +
			"column vector"))
	}
	pos := r2.Vec{X: state.At(0, 0), Y: state.At(1, 0)}
	return distance(pos, r.env.target) < r.env.cfg.TargetRadius
}

// distance returns the Euclidean distance between p and q
func distance(p, q r2.Vec) float64 {
	d := p.Sub(q)
	return math.Hypot(d.X, d.Y)
}

func vecOf(p r2.Vec) *mat.VecDense {
	return mat.NewVecDense(2, []float64{p.X, p.Y})
}

func r2Of(v mat.Vector) r2.Vec {
	return r2.Vec{X: v.AtVec(0), Y: v.AtVec(1)}
}
