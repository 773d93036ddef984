package envconfig

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samuelfneumann/gomultiworld/environment/point2d"
	"github.com/samuelfneumann/gomultiworld/environment/wrappers"
	ts "github.com/samuelfneumann/gomultiworld/timestep"
)

const yamlConfig = `
environment: Point2D
episode_cutoff: 50
terminate_on_success: true
point2d:
  wall_shape: u
  reward_type: sparse
  action_scale: 0.5
  fixed_goal: [1, 1]
image:
  imsize: 32
  grayscale: true
  reward_type: image_sparse
  threshold: 5
  recompute_reward: true
`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoadYAML(t *testing.T) {
	c, err := Load(writeFile(t, "env.yaml", yamlConfig))
	require.NoError(t, err)

	assert.Equal(t, Point2D, c.Environment)
	assert.Equal(t, 50, c.EpisodeCutoff)
	assert.True(t, c.TerminateOnSuccess)
	assert.Equal(t, point2d.UWall, c.Point2D.WallShape)
	assert.Equal(t, point2d.Sparse, c.Point2D.RewardType)
	assert.Equal(t, 0.5, c.Point2D.ActionScale)
	assert.Equal(t, []float64{1, 1}, c.Point2D.FixedGoal)

	// Missing fields keep their defaults
	assert.Equal(t, 4.0, c.Point2D.BoundaryDist)
	assert.Equal(t, point2d.DefaultPresampledGoals, c.Point2D.PresampledGoals)

	require.NotNil(t, c.Image)
	assert.Equal(t, 32, c.Image.ImSize)
	assert.True(t, c.Image.Grayscale)
	assert.Equal(t, wrappers.ImageSparse, c.Image.RewardType)
	assert.Equal(t, 5.0, c.Image.Threshold)
}

func TestLoadJSON(t *testing.T) {
	json := `{
		"environment": "Point2D",
		"episode_cutoff": 10,
		"point2d": {"wall_shape": "box", "reward_type": "dense_l1"}
	}`
	c, err := Load(writeFile(t, "env.json", json))
	require.NoError(t, err)

	assert.Equal(t, 10, c.EpisodeCutoff)
	assert.Equal(t, point2d.BoxWall, c.Point2D.WallShape)
	assert.Equal(t, point2d.DenseL1, c.Point2D.RewardType)
	assert.Nil(t, c.Image)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(writeFile(t, "env.toml", "environment = 'Point2D'"))
	assert.Error(t, err)

	_, err = Load(writeFile(t, "env.yaml", "point2d:\n  wall_shape: spiral\n"))
	assert.Error(t, err)

	_, err = Load(filepath.Join(t.TempDir(), "missing.json"))
	assert.Error(t, err)
}

func TestSaveLoad(t *testing.T) {
	c := Default()
	c.Point2D.WallShape = point2d.FourCornerWalls
	c.Point2D.RewardType = point2d.VectorizedDense
	image := wrappers.DefaultImageConfig()
	c.Image = &image

	for _, name := range []string{"env.json", "env.yml"} {
		path := filepath.Join(t.TempDir(), name)
		require.NoError(t, c.Save(path))

		loaded, err := Load(path)
		require.NoError(t, err)
		assert.Equal(t, c, loaded, name)
	}

	assert.Error(t, c.Save(filepath.Join(t.TempDir(), "env.ini")))
}

func TestCreate(t *testing.T) {
	c := Default()
	e, step, err := c.Create(1, nil)
	require.NoError(t, err)
	assert.IsType(t, &point2d.Point2D{}, e)
	assert.True(t, step.First())
	assert.Equal(t, 2, step.Observation.Len())

	image := wrappers.DefaultImageConfig()
	image.ImSize = 16
	c.Image = &image
	e, step, err = c.Create(1, nil)
	require.NoError(t, err)
	assert.IsType(t, &wrappers.ImageEnv{}, e)
	assert.Equal(t, 16*16, step.Dict[ts.ImageObservation].Len())

	c.Environment = "Maze"
	_, _, err = c.Create(1, nil)
	assert.Error(t, err)

	c = Default()
	c.Point2D.ActionScale = 2
	_, _, err = c.Create(1, nil)
	assert.Error(t, err)
}
