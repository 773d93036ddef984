// Package wrappers implements wrappers around environments
package wrappers

import (
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"

	"github.com/samuelfneumann/gomultiworld/diagnostics"
	"github.com/samuelfneumann/gomultiworld/environment"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
	"github.com/samuelfneumann/gomultiworld/utils/floatutils"
	"github.com/samuelfneumann/gomultiworld/utils/logging"
	"gonum.org/v1/gonum/mat"
)

// Info keys added by ImageEnv
const (
	InfoImageDist    = "image_dist"
	InfoImageSuccess = "image_success"
)

// ErrUnknownImageRewardType is returned when an ImageEnv is asked to
// compute rewards with a reward type which is not implemented
var ErrUnknownImageRewardType = errors.New("unknown image reward type")

// ImageRewardType determines how an ImageEnv computes rewards
type ImageRewardType int

const (
	// WrappedEnv uses the rewards of the wrapped environment
	WrappedEnv ImageRewardType = iota

	// ImageDistance rewards are the negative Euclidean distance between
	// the achieved and desired goal images
	ImageDistance

	// ImageSparse rewards are -1 if the image distance exceeds the
	// threshold and 0 otherwise
	ImageSparse
)

var imageRewardTypeNames = map[ImageRewardType]string{
	WrappedEnv:    "wrapped_env",
	ImageDistance: "image_distance",
	ImageSparse:   "image_sparse",
}

// ParseImageRewardType returns the ImageRewardType named by s
func ParseImageRewardType(s string) (ImageRewardType, error) {
	for r, name := range imageRewardTypeNames {
		if name == s {
			return r, nil
		}
	}
	return WrappedEnv, fmt.Errorf("parseImageRewardType: %w %q",
		ErrUnknownImageRewardType, s)
}

func (r ImageRewardType) String() string {
	if name, ok := imageRewardTypeNames[r]; ok {
		return name
	}
	return fmt.Sprintf("ImageRewardType(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler
func (r ImageRewardType) MarshalText() ([]byte, error) {
	name, ok := imageRewardTypeNames[r]
	if !ok {
		return nil, fmt.Errorf("marshalText: %w %d",
			ErrUnknownImageRewardType, int(r))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *ImageRewardType) UnmarshalText(text []byte) error {
	rt, err := ParseImageRewardType(string(text))
	if err != nil {
		return err
	}
	*r = rt
	return nil
}

// ImageConfig configures an ImageEnv
type ImageConfig struct {
	ImSize     int             `json:"imsize" yaml:"imsize"`
	Transpose  bool            `json:"transpose" yaml:"transpose"`
	Grayscale  bool            `json:"grayscale" yaml:"grayscale"`
	Normalize  bool            `json:"normalize" yaml:"normalize"`
	RewardType ImageRewardType `json:"reward_type" yaml:"reward_type"`
	Threshold  float64         `json:"threshold" yaml:"threshold"`

	// NonPresampledGoalImgIsGarbage skips rendering goal images when
	// no presampled goals are given, using the current observation
	// image as the goal image instead. This is mostly useful when
	// presampling goals.
	NonPresampledGoalImgIsGarbage bool `json:"non_presampled_goal_img_is_garbage" yaml:"non_presampled_goal_img_is_garbage"`

	RecomputeReward bool `json:"recompute_reward" yaml:"recompute_reward"`
}

// DefaultImageConfig returns the default ImageEnv configuration
func DefaultImageConfig() ImageConfig {
	return ImageConfig{
		ImSize:          84,
		RewardType:      WrappedEnv,
		Threshold:       10,
		RecomputeReward: true,
	}
}

// Validate returns an error if the configuration is not usable
func (c ImageConfig) Validate() error {
	if c.ImSize <= 0 {
		return fmt.Errorf("validate: image size must be positive, got %v",
			c.ImSize)
	}
	if _, ok := imageRewardTypeNames[c.RewardType]; !ok {
		return fmt.Errorf("validate: %w %v", ErrUnknownImageRewardType,
			c.RewardType)
	}
	return nil
}

// goalHider is an environment which can hide its goal when rendering
type goalHider interface {
	SetShowGoal(show bool)
}

// ImageEnv wraps a goal environment which can render itself so that
// observations and goals are images. Each observation gains the
// image_observation, image_desired_goal, and image_achieved_goal
// entries, and the observation, desired_goal, and achieved_goal
// entries are replaced by the corresponding images. All other entries
// of the wrapped environment's observations are kept.
//
// Goal images are drawn from a set of presampled goals if one is
// given. Otherwise they are rendered by placing the wrapped
// environment at its goal, which requires the wrapped environment's
// SetToGoal method. If the wrapped environment can hide its goal when
// rendering, it is told to do so.
//
// ImageEnv itself implements the environment.ImageGoalEnvironment
// interface, and is therefore itself an environment.
type ImageEnv struct {
	environment.ImageGoalEnvironment
	cfg    ImageConfig
	logger *zap.Logger

	channels int
	imgGoal  *mat.VecDense

	presampled    ts.Batch
	numPresampled int
	goalIdx       int
	rng           *rand.Rand

	currentStep ts.TimeStep
}

// NewImageEnv returns a new ImageEnv wrapping env and its first
// TimeStep. The presampledGoals may be nil. If not, it must contain an
// image_desired_goal entry along with any entries required by the
// wrapped environment's SetGoal method. A nil logger disables logging.
func NewImageEnv(env environment.ImageGoalEnvironment, c ImageConfig,
	presampledGoals ts.Batch, seed uint64,
	logger *zap.Logger) (*ImageEnv, ts.TimeStep, error) {
	if err := c.Validate(); err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newImageEnv: %w", err)
	}
	logger = logging.OrNop(logger)

	channels := env.Channels()
	if c.Grayscale {
		channels = 1
	}

	if hider, ok := env.(goalHider); ok {
		hider.SetShowGoal(false)
	}

	i := &ImageEnv{
		ImageGoalEnvironment: env,
		cfg:                  c,
		logger:               logger,
		channels:             channels,
		goalIdx:              -1,
		rng:                  rand.New(rand.NewSource(seed)),
	}

	if presampledGoals != nil {
		goals, ok := presampledGoals[ts.ImageDesiredGoal]
		if !ok {
			return nil, ts.TimeStep{}, fmt.Errorf("newImageEnv: presampled "+
				"goals must contain %v", ts.ImageDesiredGoal)
		}
		if _, cols := goals.Dims(); cols != i.ImageLength() {
			return nil, ts.TimeStep{}, fmt.Errorf("newImageEnv: presampled "+
				"goal images have length %v, want %v", cols, i.ImageLength())
		}
		i.presampled = presampledGoals
		i.numPresampled = presampledGoals.Len()
	}

	step, err := i.Reset()
	if err != nil {
		return nil, ts.TimeStep{}, fmt.Errorf("newImageEnv: %w", err)
	}

	logger.Debug("created image environment",
		zap.Int("imsize", c.ImSize),
		zap.Int("channels", channels),
		zap.Stringer("reward_type", c.RewardType),
		zap.Int("presampled_goals", i.numPresampled),
	)

	return i, step, nil
}

// ImageLength returns the length of each flat image observation
func (i *ImageEnv) ImageLength() int {
	return i.cfg.ImSize * i.cfg.ImSize * i.channels
}

// Channels returns the number of values per pixel of the images
// returned by Image
func (i *ImageEnv) Channels() int {
	return i.channels
}

// Image renders the wrapped environment and processes the image as
// configured: converted to grayscale, normalized to [0, 1], and
// transposed from height x width x channels to
// channels x width x height.
func (i *ImageEnv) Image(width, height int) (*mat.VecDense, error) {
	img, err := i.ImageGoalEnvironment.Image(width, height)
	if err != nil {
		return nil, fmt.Errorf("image: %w", err)
	}
	data := img.RawVector().Data

	if i.cfg.Grayscale && i.ImageGoalEnvironment.Channels() == 3 {
		data, err = luma(data)
		if err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
	}

	if i.cfg.Normalize {
		for j := range data {
			data[j] /= 255.0
		}
		floatutils.ClipSlice(data, 0, 1)
	}

	if i.cfg.Transpose {
		data, err = transpose(data, height, width, i.channels)
		if err != nil {
			return nil, fmt.Errorf("image: %w", err)
		}
	}

	return mat.NewVecDense(len(data), data), nil
}

// flatImage returns the processed image at the configured size
func (i *ImageEnv) flatImage() (*mat.VecDense, error) {
	return i.Image(i.cfg.ImSize, i.cfg.ImSize)
}

// SetGoalIndex fixes the index of the presampled goal used when a
// single goal is sampled, such as on Reset. A negative index samples
// goals at random.
func (i *ImageEnv) SetGoalIndex(idx int) error {
	if idx >= i.numPresampled {
		return fmt.Errorf("setGoalIndex: index %v out of range with %v "+
			"presampled goals", idx, i.numPresampled)
	}
	i.goalIdx = idx
	return nil
}

// Reset resets the wrapped environment and sets the goal image
func (i *ImageEnv) Reset() (ts.TimeStep, error) {
	step, err := i.ImageGoalEnvironment.Reset()
	if err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	if step.Dict == nil {
		step.Dict = ts.Dict{}
	}

	switch {
	case i.numPresampled > 0:
		goals, err := i.SampleGoals(1)
		if err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
		}
		goal := goals.Row(0)
		if err := i.SetGoal(goal); err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
		}
		for k, v := range goal {
			step.Dict[k] = v
		}

	case i.cfg.NonPresampledGoalImgIsGarbage:
		i.imgGoal, err = i.flatImage()
		if err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
		}

	default:
		i.imgGoal, err = i.goalImage(i.ImageGoalEnvironment.Goal())
		if err != nil {
			return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
		}
	}

	if err := i.updateObs(&step); err != nil {
		return ts.TimeStep{}, fmt.Errorf("reset: %w", err)
	}
	i.currentStep = step
	return step, nil
}

// goalImage renders the wrapped environment placed at goal, restoring
// the wrapped environment's state afterwards
func (i *ImageEnv) goalImage(goal ts.Dict) (*mat.VecDense, error) {
	state := i.ImageGoalEnvironment.EnvState()
	defer func() {
		if err := i.ImageGoalEnvironment.SetEnvState(state); err != nil {
			i.logger.Error("could not restore environment state",
				zap.Error(err))
		}
	}()

	if err := i.ImageGoalEnvironment.SetToGoal(goal); err != nil {
		return nil, fmt.Errorf("goalImage: %w", err)
	}
	return i.flatImage()
}

// Step takes one environmental step given action a
func (i *ImageEnv) Step(a *mat.VecDense) (ts.TimeStep, bool, error) {
	step, done, err := i.ImageGoalEnvironment.Step(a)
	if err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}
	if step.Dict == nil {
		step.Dict = ts.Dict{}
	}

	if err := i.updateObs(&step); err != nil {
		return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
	}

	if i.cfg.RecomputeReward {
		obs, err := ts.NewBatch(step.Dict)
		if err != nil {
			return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
		}
		actions := mat.NewDense(1, a.Len(), nil)
		actions.SetRow(0, mat.VecDenseCopyOf(a).RawVector().Data)

		rewards, err := i.ComputeRewards(actions, obs)
		if err != nil {
			return ts.TimeStep{}, true, fmt.Errorf("step: %w", err)
		}
		step.Reward = mat.Sum(rewards)
	}

	i.updateInfo(&step)
	i.currentStep = step
	return step, done, nil
}

// updateObs adds the image entries to the observation of step
func (i *ImageEnv) updateObs(step *ts.TimeStep) error {
	img, err := i.flatImage()
	if err != nil {
		return fmt.Errorf("updateObs: %w", err)
	}

	step.Dict[ts.ImageObservation] = img
	step.Dict[ts.ImageDesiredGoal] = i.imgGoal
	step.Dict[ts.ImageAchievedGoal] = img
	step.Dict[ts.ObservationKey] = img
	step.Dict[ts.DesiredGoal] = i.imgGoal
	step.Dict[ts.AchievedGoal] = img
	step.Observation = img
	return nil
}

// updateInfo adds the image distance and success to the Info of step
func (i *ImageEnv) updateInfo(step *ts.TimeStep) {
	if step.Info == nil {
		step.Info = ts.Info{}
	}

	var diff mat.VecDense
	diff.SubVec(step.Dict[ts.ImageAchievedGoal], i.imgGoal)
	dist := mat.Norm(&diff, 2)

	step.Info.SetScalar(InfoImageDist, dist)
	step.Info.SetBool(InfoImageSuccess, dist < i.cfg.Threshold)
}

// CurrentTimeStep returns the current time step
func (i *ImageEnv) CurrentTimeStep() ts.TimeStep {
	return i.currentStep
}

// Goal returns the current goal of the wrapped environment with the
// goal image added
func (i *ImageEnv) Goal() ts.Dict {
	goal := i.ImageGoalEnvironment.Goal()
	goal[ts.DesiredGoal] = i.imgGoal
	goal[ts.ImageDesiredGoal] = i.imgGoal
	return goal
}

// SetGoal sets the goal image and the goal of the wrapped environment.
// The goal must contain an image_desired_goal entry along with any
// entries required by the wrapped environment.
func (i *ImageEnv) SetGoal(goal ts.Dict) error {
	img, ok := goal[ts.ImageDesiredGoal]
	if !ok || img.Len() != i.ImageLength() {
		return fmt.Errorf("setGoal: goal must contain a %v of length %v",
			ts.ImageDesiredGoal, i.ImageLength())
	}
	if err := i.ImageGoalEnvironment.SetGoal(goal); err != nil {
		return fmt.Errorf("setGoal: %w", err)
	}
	i.imgGoal = mat.VecDenseCopyOf(img)
	return nil
}

// SampleGoals samples batchSize goals. Goals are drawn with replacement
// from the presampled goals if there are any. Otherwise goals are
// sampled from the wrapped environment and their images rendered,
// which is slow.
func (i *ImageEnv) SampleGoals(batchSize int) (ts.Batch, error) {
	if batchSize <= 0 {
		return nil, fmt.Errorf("sampleGoals: batch size must be "+
			"positive, got %v", batchSize)
	}

	if i.numPresampled > 0 {
		indices := make([]int, batchSize)
		for j := range indices {
			indices[j] = i.rng.Intn(i.numPresampled)
		}
		if batchSize == 1 && i.goalIdx >= 0 {
			indices[0] = i.goalIdx
		}
		return i.presampled.Select(indices), nil
	}

	if batchSize > 1 {
		i.logger.Warn("sampling goal images is slow",
			zap.Int("batch_size", batchSize))
	}

	goals, err := i.ImageGoalEnvironment.SampleGoals(batchSize)
	if err != nil {
		return nil, fmt.Errorf("sampleGoals: %w", err)
	}

	images := mat.NewDense(batchSize, i.ImageLength(), nil)
	for j := 0; j < batchSize; j++ {
		img, err := i.goalImage(goals.Row(j))
		if err != nil {
			return nil, fmt.Errorf("sampleGoals: %w", err)
		}
		images.SetRow(j, img.RawVector().Data)
	}

	goals[ts.DesiredGoal] = images
	goals[ts.ImageDesiredGoal] = mat.DenseCopyOf(images)
	return goals, nil
}

// ComputeRewards computes the rewards of a batch of transitions. Image
// rewards are computed from the achieved_goal and desired_goal images.
// Otherwise, the wrapped environment computes the rewards.
func (i *ImageEnv) ComputeRewards(actions *mat.Dense, obs ts.Batch) (*mat.Dense,
	error) {
	if i.cfg.RewardType == WrappedEnv {
		rewards, err := i.ImageGoalEnvironment.ComputeRewards(actions, obs)
		if err != nil {
			return nil, fmt.Errorf("computeRewards: %w", err)
		}
		return rewards, nil
	}

	achieved, ok := obs[ts.AchievedGoal]
	if !ok {
		return nil, fmt.Errorf("computeRewards: missing %v", ts.AchievedGoal)
	}
	desired, ok := obs[ts.DesiredGoal]
	if !ok {
		return nil, fmt.Errorf("computeRewards: missing %v", ts.DesiredGoal)
	}

	dist, err := imageDistances(achieved, desired)
	if err != nil {
		return nil, fmt.Errorf("computeRewards: %w", err)
	}

	rewards := mat.NewDense(len(dist), 1, nil)
	for j, d := range dist {
		switch i.cfg.RewardType {
		case ImageDistance:
			rewards.Set(j, 0, -d)

		case ImageSparse:
			if d > i.cfg.Threshold {
				rewards.Set(j, 0, -1)
			}

		default:
			return nil, fmt.Errorf("computeRewards: %w %v",
				ErrUnknownImageRewardType, i.cfg.RewardType)
		}
	}
	return rewards, nil
}

// Diagnostics returns the diagnostics of the wrapped environment
// followed by statistics of the image distance and image success
func (i *ImageEnv) Diagnostics(paths []diagnostics.Path,
	prefix string) diagnostics.Stats {
	stats := i.ImageGoalEnvironment.Diagnostics(paths, prefix)
	for _, key := range []string{InfoImageDist, InfoImageSuccess} {
		stats = append(stats, diagnostics.PathStats(paths, key, prefix)...)
	}
	return stats
}

// ObservationSpec returns the observation specification of the
// environment, which describes the flat observation images
func (i *ImageEnv) ObservationSpec() environment.Spec {
	high := 255.0
	if i.cfg.Normalize {
		high = 1.0
	}
	return environment.NewBoxSpec(i.ImageLength(), environment.Observation,
		0, high)
}

// RewardSpec returns the reward specification of the environment
func (i *ImageEnv) RewardSpec() environment.Spec {
	switch i.cfg.RewardType {
	case ImageSparse:
		return environment.NewBoxSpec(1, environment.Reward, -1, 0)
	case ImageDistance:
		return environment.NewBoxSpec(1, environment.Reward,
			math.Inf(-1), 0)
	}
	return i.ImageGoalEnvironment.RewardSpec()
}

func (i *ImageEnv) String() string {
	return fmt.Sprintf("ImageEnv  |  Image size: %v  |  Channels: %v  |  "+
		"Reward: %v  |  Wrapped: %v", i.cfg.ImSize, i.channels,
		i.cfg.RewardType, i.ImageGoalEnvironment)
}
