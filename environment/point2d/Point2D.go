// Package point2d implements the Point2D goal-conditioned environment.
// A ball moves in a square arena, possibly containing walls, and must
// reach a target position.
package point2d

import (
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/gomultiworld/diagnostics"
	"github.com/samuelfneumann/gomultiworld/environment"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
	"github.com/samuelfneumann/gomultiworld/utils/logging"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"
	"gonum.org/v1/gonum/spatial/r2"
)

const (
	// DefaultPresampledGoals is the size of the goal pool sampled the
	// first time goals are needed and no fixed goal is configured
	DefaultPresampledGoals int = 10_000

	// Info keys produced by Step
	InfoRadius           = "radius"
	InfoTargetPosition   = "target_position"
	InfoDistanceToTarget = "distance_to_target"
	InfoVelocity         = "velocity"
	InfoSpeed            = "speed"
	InfoIsSuccess        = "is_success"
)

// GoalSamplingMode determines which goal sampler is used
type GoalSamplingMode int

const (
	// DefaultSampling uses the fixed goal or the presampled goal pool
	DefaultSampling GoalSamplingMode = iota

	// TrainSampling uses the exploration goal sampler if set
	TrainSampling

	// EvalSampling uses the evaluation goal sampler if set, and the
	// fixed evaluation reset if configured
	EvalSampling
)

// GoalSampler samples a batch of goals for a Point2D environment
type GoalSampler interface {
	SampleGoals(p *Point2D, batchSize int) (ts.Batch, error)
}

// GoalSamplerFunc adapts a function to the GoalSampler interface
type GoalSamplerFunc func(p *Point2D, batchSize int) (ts.Batch, error)

// SampleGoals calls f
func (f GoalSamplerFunc) SampleGoals(p *Point2D, batchSize int) (ts.Batch,
	error) {
	return f(p, batchSize)
}

// Config configures a Point2D environment
type Config struct {
	BoundaryDist float64    `json:"boundary_dist" yaml:"boundary_dist"`
	BallRadius   float64    `json:"ball_radius" yaml:"ball_radius"`
	TargetRadius float64    `json:"target_radius" yaml:"target_radius"`
	ActionScale  float64    `json:"action_scale" yaml:"action_scale"`
	RewardType   RewardType `json:"reward_type" yaml:"reward_type"`
	Discount     float64    `json:"discount" yaml:"discount"`

	WallShape        WallShape `json:"wall_shape" yaml:"wall_shape"`
	WallThickness    float64   `json:"wall_thickness" yaml:"wall_thickness"`
	InnerWallMaxDist float64   `json:"inner_wall_max_dist" yaml:"inner_wall_max_dist"`

	// Walls overrides WallShape when non-nil
	Walls []*Wall `json:"-" yaml:"-"`

	FixedGoal                []float64 `json:"fixed_goal,omitempty" yaml:"fixed_goal,omitempty"`
	RandomizePositionOnReset bool      `json:"randomize_position_on_reset" yaml:"randomize_position_on_reset"`
	FixedReset               []float64 `json:"fixed_reset,omitempty" yaml:"fixed_reset,omitempty"`
	UseFixedResetForEval     bool      `json:"use_fixed_reset_for_eval" yaml:"use_fixed_reset_for_eval"`
	PresampledGoals          int       `json:"presampled_goals" yaml:"presampled_goals"`

	ImagesAreRGB bool `json:"images_are_rgb" yaml:"images_are_rgb"`
	ShowGoal     bool `json:"show_goal" yaml:"show_goal"`
	RenderSize   int  `json:"render_size" yaml:"render_size"`
}

// DefaultConfig returns the default Point2D configuration
func DefaultConfig() Config {
	return Config{
		BoundaryDist:             4,
		BallRadius:               0.5,
		TargetRadius:             0.6,
		ActionScale:              1.0,
		RewardType:               Dense,
		Discount:                 1.0,
		WallShape:                NoWalls,
		WallThickness:            1.0,
		InnerWallMaxDist:         1.0,
		RandomizePositionOnReset: true,
		PresampledGoals:          DefaultPresampledGoals,
		ShowGoal:                 true,
		RenderSize:               84,
	}
}

// Validate returns an error if the configuration is not usable
func (c Config) Validate() error {
	if c.BoundaryDist <= 0 {
		return fmt.Errorf("validate: boundary distance must be positive, "+
			"got %v", c.BoundaryDist)
	}
	if c.ActionScale <= 0 || c.ActionScale > 1 {
		return fmt.Errorf("validate: action scale must be in (0, 1], "+
			"got %v", c.ActionScale)
	}
	if c.BallRadius < 0 || c.TargetRadius < 0 {
		return fmt.Errorf("validate: radii must be non-negative")
	}
	if c.FixedGoal != nil && len(c.FixedGoal) != 2 {
		return fmt.Errorf("validate: fixed goal must be 2-dimensional, "+
			"got %v", len(c.FixedGoal))
	}
	if c.FixedReset != nil && len(c.FixedReset) != 2 {
		return fmt.Errorf("validate: fixed reset must be 2-dimensional, "+
			"got %v", len(c.FixedReset))
	}
	if c.UseFixedResetForEval && c.FixedReset == nil {
		return fmt.Errorf("validate: fixed reset for evaluation requires " +
			"a fixed reset")
	}
	if c.PresampledGoals <= 0 {
		return fmt.Errorf("validate: presampled goal pool size must be "+
			"positive, got %v", c.PresampledGoals)
	}
	return nil
}

// Point2D implements a 2D point-mass navigation environment. A ball
// of some radius moves within the square [-b, b]² and must reach a
// target. The square may contain axis-aligned walls which the ball
// cannot enter.
//
// Actions are 2-dimensional velocities. Each element is clipped to
// [-1, 1] and scaled by the configured action scale before moving the
// ball. Collisions with walls are resolved by Move.
//
// Observations are goal-conditioned. The Dict of each TimeStep holds
// the ball position under observation, achieved_goal,
// state_observation, and state_achieved_goal, and the target under
// desired_goal and state_desired_goal. The flat Observation of each
// TimeStep is the ball position.
//
// The Point2D struct satisfies the environment.GoalEnvironment and
// environment.Imager interfaces.
type Point2D struct {
	environment.Task
	cfg    Config
	walls  []*Wall
	logger *zap.Logger

	position r2.Vec
	target   r2.Vec

	rng       *rand.Rand
	positions *environment.UniformStarter

	mode        GoalSamplingMode
	explSampler GoalSampler
	evalSampler GoalSampler
	presampled  ts.Batch
	currentStep ts.TimeStep
}

// New returns a new Point2D environment and its first TimeStep. If
// t is a *Reach Task it is registered with the environment. A nil
// logger disables logging.
func New(t environment.Task, c Config, seed uint64,
	logger *zap.Logger) (*Point2D, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}
	logger = logging.OrNop(logger)

	walls := c.Walls
	if walls == nil {
		var err error
		walls, err = Walls(c.WallShape, c.BallRadius, c.InnerWallMaxDist,
			c.WallThickness)
		if err != nil {
			return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
		}
	}

	p := &Point2D{
		Task:   t,
		cfg:    c,
		walls:  walls,
		logger: logger,
		rng:    rand.New(rand.NewSource(seed)),
		mode:   EvalSampling,
	}

	bounds := []r1.Interval{
		{Min: -c.BoundaryDist, Max: c.BoundaryDist},
		{Min: -c.BoundaryDist, Max: c.BoundaryDist},
	}
	p.positions = environment.NewRejectionStarter(bounds, seed+1,
		func(pos *mat.VecDense) bool {
			return p.insideWall(r2Of(pos))
		})

	if reach, ok := t.(*Reach); ok {
		reach.register(p)
	}

	firstStep, err := p.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("new: %w", err)
	}

	logger.Debug("created Point2D environment",
		zap.Stringer("wall_shape", c.WallShape),
		zap.Int("walls", len(walls)),
		zap.Stringer("reward_type", c.RewardType),
		zap.Uint64("seed", seed),
	)

	return p, firstStep, nil
}

// Reset resets the environment to begin a new episode. A new target
// is sampled and the ball is placed at the Task's start position.
func (p *Point2D) Reset() (ts.TimeStep, error) {
	goals, err := p.SampleGoals(1)
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: could not sample goal: %w",
			err)
	}
	if err := p.SetGoal(goals.Row(0)); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}

	start := p.Start()
	if start.Len() != 2 {
		return ts.TimeStep{}, fmt.Errorf("reset: start state should be "+
			"(x, y) position, got length %v", start.Len())
	}
	p.position = r2Of(start)

	obs := p.obs()
	step := ts.New(ts.First, 0, p.cfg.Discount, obs[ts.ObservationKey], 0)
	step.Dict = obs
	p.currentStep = step

	return step, nil
}

// rewarder is a Task whose reward computation reports failures
type rewarder interface {
	reward(nextState mat.Vector) (float64, error)
}

// Step takes one environmental step given a velocity action
func (p *Point2D) Step(action *mat.VecDense) (ts.TimeStep, bool, error) {
	if action.Len() != 2 {
		return ts.TimeStep{}, true, fmt.Errorf("step: actions must be "+
			"2-dimensional, got length %v", action.Len())
	}

	velocity := clipAction(r2Of(action), p.cfg.ActionScale)
	state := vecOf(p.position)
	next := Move(p.position, velocity, p.walls, p.cfg.BoundaryDist)
	nextState := vecOf(next)

	var reward float64
	if r, ok := p.Task.(rewarder); ok {
		var err error
		reward, err = r.reward(nextState)
		if err != nil {
			return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
		}
	} else {
		reward = p.GetReward(state, vecOf(velocity), nextState)
	}

	// Move the ball only once the whole step has been computed
	p.position = next

	dist := distance(next, p.target)
	info := ts.Info{
		InfoTargetPosition: []float64{p.target.X, p.target.Y},
		InfoVelocity:       []float64{velocity.X, velocity.Y},
	}
	info.SetScalar(InfoRadius, p.cfg.TargetRadius)
	info.SetScalar(InfoDistanceToTarget, dist)
	info.SetScalar(InfoSpeed, math.Hypot(velocity.X, velocity.Y))
	info.SetBool(InfoIsSuccess, dist < p.cfg.TargetRadius)

	obs := p.obs()
	t := ts.New(ts.Mid, reward, p.cfg.Discount, obs[ts.ObservationKey],
		p.currentStep.Number+1)
	t.Dict = obs
	t.Info = info

	p.End(&t)
	p.currentStep = t

	return t, t.Last(), nil
}

// obs returns the current goal-conditioned observation
func (p *Point2D) obs() ts.Dict {
	return ts.Dict{
		ts.ObservationKey:    vecOf(p.position),
		ts.DesiredGoal:       vecOf(p.target),
		ts.AchievedGoal:      vecOf(p.position),
		ts.StateObservation:  vecOf(p.position),
		ts.StateDesiredGoal:  vecOf(p.target),
		ts.StateAchievedGoal: vecOf(p.position),
	}
}

// insideWall returns whether pos is inside any wall
func (p *Point2D) insideWall(pos r2.Vec) bool {
	for _, wall := range p.walls {
		if wall.Contains(pos) {
			return true
		}
	}
	return false
}

// CurrentTimeStep returns the current time step
func (p *Point2D) CurrentTimeStep() ts.TimeStep {
	return p.currentStep
}

// Position returns the position of the ball
func (p *Point2D) Position() r2.Vec {
	return p.position
}

// SetPosition moves the ball to pos without checking for walls
func (p *Point2D) SetPosition(pos r2.Vec) {
	p.position = pos
}

// Target returns the target position
func (p *Point2D) Target() r2.Vec {
	return p.target
}

// Walls returns the walls of the environment
func (p *Point2D) Walls() []*Wall {
	return p.walls
}

// Config returns the configuration of the environment
func (p *Point2D) Config() Config {
	return p.cfg
}

// SetGoalSamplingMode sets which goal sampler is used
func (p *Point2D) SetGoalSamplingMode(mode GoalSamplingMode) {
	p.mode = mode
}

// GoalSamplingMode returns the current goal sampling mode
func (p *Point2D) GoalSamplingMode() GoalSamplingMode {
	return p.mode
}

// SetGoalSamplers sets the goal samplers used in training and
// evaluation modes. Either may be nil, in which case that mode falls
// back to default sampling.
func (p *Point2D) SetGoalSamplers(expl, eval GoalSampler) {
	p.explSampler = expl
	p.evalSampler = eval
}

// SetPresampledGoals replaces the presampled goal pool. The pool must
// contain state_desired_goal entries.
func (p *Point2D) SetPresampledGoals(goals ts.Batch) error {
	g, ok := goals[ts.StateDesiredGoal]
	if !ok {
		return fmt.Errorf("setPresampledGoals: goals must contain %v",
			ts.StateDesiredGoal)
	}
	if _, cols := g.Dims(); cols != 2 {
		return fmt.Errorf("setPresampledGoals: goals must be "+
			"2-dimensional, got %v", cols)
	}
	p.presampled = ts.Batch{
		ts.DesiredGoal:      mat.DenseCopyOf(g),
		ts.StateDesiredGoal: mat.DenseCopyOf(g),
	}
	return nil
}

// Goal returns the current goal
func (p *Point2D) Goal() ts.Dict {
	return ts.Dict{
		ts.DesiredGoal:      vecOf(p.target),
		ts.StateDesiredGoal: vecOf(p.target),
	}
}

// SetGoal sets the target to the state_desired_goal of goal
func (p *Point2D) SetGoal(goal ts.Dict) error {
	g, ok := goal[ts.StateDesiredGoal]
	if !ok || g.Len() != 2 {
		return fmt.Errorf("setGoal: goal must contain a 2-dimensional %v",
			ts.StateDesiredGoal)
	}
	p.target = r2Of(g)
	return nil
}

// SampleGoals samples batchSize goals. In training or evaluation mode
// the corresponding goal sampler is used if set. Otherwise the fixed
// goal is repeated if configured, or goals are drawn with replacement
// from the presampled goal pool, which is built on first use from
// positions outside all walls.
func (p *Point2D) SampleGoals(batchSize int) (ts.Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("sampleGoals: batch size must be "+
			"positive, got %v", batchSize)
	}

	switch {
	case p.mode == TrainSampling && p.explSampler != nil:
		return p.explSampler.SampleGoals(p, batchSize)
	case p.mode == EvalSampling && p.evalSampler != nil:
		return p.evalSampler.SampleGoals(p, batchSize)
	}

	if p.cfg.FixedGoal != nil {
		goals := mat.NewDense(batchSize, 2, nil)
		for i := 0; i < batchSize; i++ {
			goals.SetRow(i, p.cfg.FixedGoal)
		}
		return ts.Batch{
			ts.DesiredGoal:      goals,
			ts.StateDesiredGoal: mat.DenseCopyOf(goals),
		}, nil
	}

	if p.presampled == nil {
		if err := p.presampleGoals(); err != nil {
			return nil, fmt.Errorf("sampleGoals: %w", err)
		}
	}

	n := p.presampled.Len()
	indices := make([]int, batchSize)
	for i := range indices {
		indices[i] = p.rng.Intn(n)
	}
	return p.presampled.Select(indices), nil
}

// presampleGoals builds the presampled goal pool
func (p *Point2D) presampleGoals() error {
	goals := mat.NewDense(p.cfg.PresampledGoals, 2, nil)
	for i := 0; i < p.cfg.PresampledGoals; i++ {
		pos, err := p.positions.Sample()
		if err != nil {
			return fmt.Errorf("presampleGoals: %w", err)
		}
		goals.SetRow(i, pos.RawVector().Data)
	}

	p.presampled = ts.Batch{
		ts.DesiredGoal:      goals,
		ts.StateDesiredGoal: mat.DenseCopyOf(goals),
	}
	p.logger.Debug("presampled goals", zap.Int("goals", p.cfg.PresampledGoals))
	return nil
}

// ComputeRewards computes the rewards for a batch of transitions from
// their state_achieved_goal and state_desired_goal entries. Actions
// are ignored.
func (p *Point2D) ComputeRewards(_ *mat.Dense, obs ts.Batch) (*mat.Dense,
	error) {
	achieved, ok := obs[ts.StateAchievedGoal]
	if !ok {
		return nil, fmt.Errorf("computeRewards: missing %v",
			ts.StateAchievedGoal)
	}
	desired, ok := obs[ts.StateDesiredGoal]
	if !ok {
		return nil, fmt.Errorf("computeRewards: missing %v",
			ts.StateDesiredGoal)
	}

	rewards, err := p.cfg.RewardType.Rewards(achieved, desired,
		p.cfg.TargetRadius)
	if err != nil {
		return nil, fmt.Errorf("computeRewards: %w", err)
	}
	return rewards, nil
}

// EnvState returns the current observation, which fully describes the
// state of the environment
func (p *Point2D) EnvState() ts.Dict {
	return p.obs()
}

// SetEnvState restores a state returned by EnvState
func (p *Point2D) SetEnvState(state ts.Dict) error {
	pos, ok := state[ts.StateObservation]
	if !ok || pos.Len() != 2 {
		return fmt.Errorf("setEnvState: state must contain a "+
			"2-dimensional %v", ts.StateObservation)
	}
	if err := p.SetGoal(state); err != nil {
		return fmt.Errorf("setEnvState: %w", err)
	}
	p.position = r2Of(pos)
	return nil
}

// SetToGoal places both the ball and the target at the goal position
func (p *Point2D) SetToGoal(goal ts.Dict) error {
	if err := p.SetGoal(goal); err != nil {
		return fmt.Errorf("setToGoal: %w", err)
	}
	p.position = p.target
	return nil
}

// MeshGrid returns every point (x, y) with x and y in
// {-b, -b+granularity, ...} below b, one point per row, with y
// varying fastest
func (p *Point2D) MeshGrid(granularity float64) (*mat.Dense, error) {
	if granularity <= 0 {
		return nil, fmt.Errorf("meshGrid: granularity must be positive")
	}

	b := p.cfg.BoundaryDist
	vals := make([]float64, int(math.Ceil(2*b/granularity)))
	for i := range vals {
		vals[i] = -b + float64(i)*granularity
	}

	grid := mat.NewDense(len(vals)*len(vals), 2, nil)
	for i, x := range vals {
		for j, y := range vals {
			grid.SetRow(i*len(vals)+j, []float64{x, y})
		}
	}
	return grid, nil
}

// Diagnostics returns statistics of the Info of each step in paths
func (p *Point2D) Diagnostics(paths []diagnostics.Path,
	prefix string) diagnostics.Stats {
	var stats diagnostics.Stats
	for _, key := range []string{
		InfoRadius,
		InfoTargetPosition,
		InfoDistanceToTarget,
		InfoVelocity,
		InfoSpeed,
		InfoIsSuccess,
	} {
		stats = append(stats, diagnostics.PathStats(paths, key, prefix)...)
	}
	return stats
}

// ActionSpec returns the action specification of the environment
func (p *Point2D) ActionSpec() environment.Spec {
	return environment.NewBoxSpec(2, environment.Action, -1, 1)
}

// ObservationSpec returns the observation specification of the
// environment
func (p *Point2D) ObservationSpec() environment.Spec {
	return environment.NewBoxSpec(2, environment.Observation,
		-p.cfg.BoundaryDist, p.cfg.BoundaryDist)
}

// DiscountSpec returns the discounting specification of the environment
func (p *Point2D) DiscountSpec() environment.Spec {
	return environment.NewBoxSpec(1, environment.Discount, p.cfg.Discount,
		p.cfg.Discount)
}

// RewardSpec returns the reward specification of the environment
func (p *Point2D) RewardSpec() environment.Spec {
	side := 2 * p.cfg.BoundaryDist

	var low float64
	switch p.cfg.RewardType {
	case Sparse:
		low = -1
	case DenseL1, VectorizedDense:
		low = -2 * side
	default:
		low = -math.Sqrt2 * side
	}
	return environment.NewBoxSpec(1, environment.Reward, low, 0)
}

func (p *Point2D) String() string {
	return fmt.Sprintf("Point2D  |  Position: (%.2f, %.2f)  |  "+
		"Target: (%.2f, %.2f)  |  Walls: %v", p.position.X, p.position.Y,
		p.target.X, p.target.Y, p.cfg.WallShape)
}
