package wrappers

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/gomultiworld/diagnostics"
	"github.com/samuelfneumann/gomultiworld/environment"
	"github.com/samuelfneumann/gomultiworld/environment/point2d"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

// newPoint2D returns a Point2D environment rendering RGB images, which
// starts the ball at the origin with the target at (1, 1) if fixed is
// true
func newPoint2D(t *testing.T, fixed bool, seed uint64) *point2d.Point2D {
	t.Helper()
	c := point2d.DefaultConfig()
	c.ImagesAreRGB = true
	if fixed {
		c.RandomizePositionOnReset = false
		c.FixedReset = []float64{0, 0}
		c.FixedGoal = []float64{1, 1}
	}

	p, _, err := point2d.New(point2d.NewReach(0, false), c, seed, nil)
	require.NoError(t, err)
	return p
}

func newImageEnv(t *testing.T, env environment.ImageGoalEnvironment,
	mutate func(*ImageConfig), presampled ts.Batch) (*ImageEnv, ts.TimeStep) {
	t.Helper()
	c := DefaultImageConfig()
	c.ImSize = 16
	if mutate != nil {
		mutate(&c)
	}

	i, step, err := NewImageEnv(env, c, presampled, 1, nil)
	require.NoError(t, err)
	return i, step
}

func action(x, y float64) *mat.VecDense {
	return mat.NewVecDense(2, []float64{x, y})
}

func TestImageEnvImplementsInterfaces(t *testing.T) {
	var _ environment.ImageGoalEnvironment = &ImageEnv{}
}

func TestImageEnvObservation(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, step := newImageEnv(t, p, nil, nil)

	assert.Equal(t, 3, i.Channels())
	assert.Equal(t, 3*16*16, i.ImageLength())
	assert.True(t, step.First())

	for _, key := range []ts.Key{
		ts.ImageObservation,
		ts.ImageDesiredGoal,
		ts.ImageAchievedGoal,
		ts.ObservationKey,
		ts.DesiredGoal,
		ts.AchievedGoal,
	} {
		require.Contains(t, step.Dict, key)
		assert.Equal(t, i.ImageLength(), step.Dict[key].Len(), string(key))
	}
	assert.Equal(t, i.ImageLength(), step.Observation.Len())
	assert.Equal(t, []float64{0, 0},
		step.Dict[ts.StateObservation].RawVector().Data)
	assert.Equal(t, []float64{1, 1},
		step.Dict[ts.StateDesiredGoal].RawVector().Data)

	assert.True(t, i.ObservationSpec().Contains(step.Observation))
	assert.False(t, p.Config().ShowGoal, "goal markers are hidden")
}

func TestImageEnvReachGoal(t *testing.T) {
	for _, rewardType := range []ImageRewardType{ImageDistance, ImageSparse} {
		t.Run(rewardType.String(), func(t *testing.T) {
			p := newPoint2D(t, true, 1)
			i, _ := newImageEnv(t, p, func(c *ImageConfig) {
				c.RewardType = rewardType
			}, nil)

			step, _, err := i.Step(action(0, 0))
			require.NoError(t, err)
			dist, _ := step.Info.Scalar(InfoImageDist)
			assert.Greater(t, dist, 10.0)
			success, _ := step.Info.Scalar(InfoImageSuccess)
			assert.Equal(t, 0.0, success)
			if rewardType == ImageDistance {
				assert.InDelta(t, -dist, step.Reward, 1e-9)
			} else {
				assert.Equal(t, -1.0, step.Reward)
			}

			// The goal image shows the ball at the goal
			step, _, err = i.Step(action(1, 1))
			require.NoError(t, err)
			dist, _ = step.Info.Scalar(InfoImageDist)
			assert.Equal(t, 0.0, dist)
			success, _ = step.Info.Scalar(InfoImageSuccess)
			assert.Equal(t, 1.0, success)
			assert.Equal(t, 0.0, math.Abs(step.Reward))
		})
	}
}

func TestImageEnvWrappedReward(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, _ := newImageEnv(t, p, nil, nil)

	step, _, err := i.Step(action(0, 0))
	require.NoError(t, err)
	assert.InDelta(t, -math.Sqrt2, step.Reward, 1e-12)

	i, _ = newImageEnv(t, newPoint2D(t, true, 1), func(c *ImageConfig) {
		c.RewardType = ImageSparse
		c.RecomputeReward = false
	}, nil)
	step, _, err = i.Step(action(0, 0))
	require.NoError(t, err)
	assert.InDelta(t, -math.Sqrt2, step.Reward, 1e-12)
}

func TestImageEnvGrayscale(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, step := newImageEnv(t, p, func(c *ImageConfig) {
		c.ImSize = 48
		c.Grayscale = true
	}, nil)

	assert.Equal(t, 1, i.Channels())
	require.Equal(t, 48*48, step.Observation.Len())

	// White background and a blue ball
	assert.Equal(t, 255.0, step.Observation.AtVec(0))
	assert.Equal(t, 29.0, step.Observation.AtVec(24*48+24))
}

func TestImageEnvNormalize(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, step := newImageEnv(t, p, func(c *ImageConfig) {
		c.ImSize = 48
		c.Normalize = true
		c.Transpose = true
	}, nil)

	assert.Equal(t, 1.0, mat.Max(step.Observation))
	assert.Equal(t, 0.0, mat.Min(step.Observation))
	assert.True(t, i.ObservationSpec().Contains(step.Observation))
}

func TestImageEnvSampleGoals(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, _ := newImageEnv(t, p, nil, nil)

	goals, err := i.SampleGoals(3)
	require.NoError(t, err)
	require.Equal(t, 3, goals.Len())

	want := i.Goal()[ts.ImageDesiredGoal].RawVector().Data
	for j := 0; j < 3; j++ {
		row := goals.Row(j)
		assert.Equal(t, want, row[ts.ImageDesiredGoal].RawVector().Data)
		assert.Equal(t, want, row[ts.DesiredGoal].RawVector().Data)
		assert.Equal(t, []float64{1, 1},
			row[ts.StateDesiredGoal].RawVector().Data)
	}

	// Rendering goals leaves the wrapped environment untouched
	assert.Equal(t, r2.Vec{}, p.Position())
}

func TestImageEnvPresampledGoals(t *testing.T) {
	sampler, _ := newImageEnv(t, newPoint2D(t, false, 2), nil, nil)
	goals, err := sampler.SampleGoals(5)
	require.NoError(t, err)

	p := newPoint2D(t, false, 3)
	i, step := newImageEnv(t, p, nil, goals)

	findGoal := func(img []float64) int {
		for j := 0; j < goals.Len(); j++ {
			if mat.Equal(goals.Row(j)[ts.ImageDesiredGoal],
				mat.NewVecDense(len(img), img)) {
				return j
			}
		}
		return -1
	}

	idx := findGoal(step.Dict[ts.ImageDesiredGoal].RawVector().Data)
	require.GreaterOrEqual(t, idx, 0)
	want := goals.Row(idx)[ts.StateDesiredGoal].RawVector().Data
	assert.Equal(t, r2.Vec{X: want[0], Y: want[1]}, p.Target())

	require.NoError(t, i.SetGoalIndex(2))
	_, err = i.Reset()
	require.NoError(t, err)
	want = goals.Row(2)[ts.StateDesiredGoal].RawVector().Data
	assert.Equal(t, r2.Vec{X: want[0], Y: want[1]}, p.Target())
	assert.Equal(t, 2,
		findGoal(i.Goal()[ts.ImageDesiredGoal].RawVector().Data))

	assert.Error(t, i.SetGoalIndex(5))

	_, _, err = NewImageEnv(newPoint2D(t, false, 4), DefaultImageConfig(),
		goals, 1, nil)
	assert.Error(t, err, "presampled images must match the image size")
}

func TestImageEnvGarbageGoalImage(t *testing.T) {
	p := newPoint2D(t, true, 1)
	_, step := newImageEnv(t, p, func(c *ImageConfig) {
		c.NonPresampledGoalImgIsGarbage = true
	}, nil)

	assert.True(t, mat.Equal(step.Dict[ts.ImageObservation],
		step.Dict[ts.ImageDesiredGoal]))
}

func TestImageEnvSetGoal(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, _ := newImageEnv(t, p, nil, nil)

	goal := ts.Dict{ts.StateDesiredGoal: mat.NewVecDense(2, []float64{2, 2})}
	assert.Error(t, i.SetGoal(goal))

	goal[ts.ImageDesiredGoal] = mat.NewVecDense(i.ImageLength(), nil)
	require.NoError(t, i.SetGoal(goal))
	assert.Equal(t, r2.Vec{X: 2, Y: 2}, p.Target())
	assert.Equal(t, 0.0, mat.Max(i.Goal()[ts.DesiredGoal]))
}

func TestImageEnvComputeRewards(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, _ := newImageEnv(t, p, func(c *ImageConfig) {
		c.RewardType = ImageDistance
	}, nil)

	obs := ts.Batch{
		ts.AchievedGoal: mat.NewDense(2, 2, []float64{0, 0, 3, 4}),
		ts.DesiredGoal:  mat.NewDense(2, 2, nil),
	}
	rewards, err := i.ComputeRewards(nil, obs)
	require.NoError(t, err)
	assert.Equal(t, 0.0, math.Abs(rewards.At(0, 0)))
	assert.InDelta(t, -5.0, rewards.At(1, 0), 1e-12)

	_, err = i.ComputeRewards(nil, ts.Batch{})
	assert.Error(t, err)
}

func TestImageEnvDiagnostics(t *testing.T) {
	p := newPoint2D(t, true, 1)
	i, first := newImageEnv(t, p, nil, nil)

	path := diagnostics.Path{first}
	for _, a := range []*mat.VecDense{action(0, 0), action(1, 1)} {
		step, _, err := i.Step(a)
		require.NoError(t, err)
		path = append(path, step)
	}

	stats := i.Diagnostics([]diagnostics.Path{path}, "")
	for _, name := range []string{
		"distance_to_target Mean",
		"image_dist Mean",
		"Final image_dist Mean",
		"Final image_success Mean",
	} {
		_, ok := stats.Get(name)
		assert.True(t, ok, name)
	}

	success, _ := stats.Get("image_success Mean")
	assert.Equal(t, 0.5, success)
}

func TestImageConfigValidate(t *testing.T) {
	c := DefaultImageConfig()
	assert.NoError(t, c.Validate())

	c.ImSize = 0
	assert.Error(t, c.Validate())

	c = DefaultImageConfig()
	c.RewardType = ImageRewardType(7)
	assert.True(t, errors.Is(c.Validate(), ErrUnknownImageRewardType))
}

func TestParseImageRewardType(t *testing.T) {
	for r, name := range imageRewardTypeNames {
		got, err := ParseImageRewardType(name)
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseImageRewardType("pixels")
	assert.True(t, errors.Is(err, ErrUnknownImageRewardType))
}

func TestLuma(t *testing.T) {
	got, err := luma([]float64{255, 255, 255, 0, 0, 255, 255, 0, 0})
	require.NoError(t, err)
	assert.Equal(t, []float64{255, 29, 76}, got)

	_, err = luma([]float64{1, 2})
	assert.Error(t, err)
}

func TestTranspose(t *testing.T) {
	// Height 2, width 3, 2 channels, value = 100h + 10w + c
	img := []float64{
		0, 1, 10, 11, 20, 21,
		100, 101, 110, 111, 120, 121,
	}
	got, err := transpose(img, 2, 3, 2)
	require.NoError(t, err)

	want := []float64{
		0, 100, 10, 110, 20, 120,
		1, 101, 11, 111, 21, 121,
	}
	assert.Equal(t, want, got)

	_, err = transpose(img, 3, 3, 2)
	assert.Error(t, err)
}
