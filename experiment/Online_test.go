package experiment

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/samuelfneumann/gomultiworld/environment/envconfig"
	"github.com/samuelfneumann/gomultiworld/environment/point2d"
	"github.com/samuelfneumann/gomultiworld/environment/wrappers"
	"github.com/samuelfneumann/gomultiworld/experiment/tracker"
)

func config(steps uint) Config {
	env := envconfig.Default()
	env.EpisodeCutoff = 5
	return Config{Type: OnlineExp, MaxSteps: steps, EnvConf: env}
}

func TestOnlineRun(t *testing.T) {
	dir := t.TempDir()
	lengths := tracker.NewEpisodeLength(filepath.Join(dir, "lengths.bin"))
	returns := tracker.NewReturn(filepath.Join(dir, "returns.bin"))

	exp, err := config(12).CreateExp(1, []tracker.Tracker{lengths},
		zaptest.NewLogger(t))
	require.NoError(t, err)
	exp.Register(returns)

	require.NoError(t, exp.Run())

	// 12 steps make two full episodes and one cut short by the budget
	paths := exp.Paths()
	require.Len(t, paths, 3)
	assert.Len(t, paths[0], 6)
	assert.Len(t, paths[1], 6)
	assert.Len(t, paths[2], 3)
	assert.True(t, paths[0][0].First())
	assert.True(t, paths[0][5].Last())

	assert.Equal(t, []float64{5, 5}, lengths.Data())
	assert.Len(t, returns.Data(), 2)

	require.NoError(t, exp.Save())
	saved, err := tracker.LoadData(filepath.Join(dir, "lengths.bin"))
	require.NoError(t, err)
	assert.Equal(t, []float64{5, 5}, saved)
}

func TestOnlineRunEpisode(t *testing.T) {
	exp, err := config(7).CreateExp(1, nil, nil)
	require.NoError(t, err)

	done, err := exp.RunEpisode()
	require.NoError(t, err)
	assert.False(t, done)

	done, err = exp.RunEpisode()
	require.NoError(t, err)
	assert.True(t, done)
}

func TestOnlineDiagnostics(t *testing.T) {
	exp, err := config(10).CreateExp(1, nil, nil)
	require.NoError(t, err)
	require.NoError(t, exp.Run())

	online := exp.(*Online)
	assert.NotEqual(t, online.ID().String(), "")

	stats, err := online.Diagnostics("exploration/")
	require.NoError(t, err)
	assert.NotEmpty(t, stats)
	for _, name := range stats.Names() {
		assert.Contains(t, name, "exploration/")
	}

	_, ok := stats.Get("exploration/" + point2d.InfoIsSuccess + " Mean")
	assert.True(t, ok)
}

func TestOnlineImageEnv(t *testing.T) {
	c := config(5)
	image := wrappers.DefaultImageConfig()
	image.ImSize = 8
	c.EnvConf.Image = &image

	exp, err := c.CreateExp(1, nil, nil)
	require.NoError(t, err)
	require.NoError(t, exp.Run())
	assert.Len(t, exp.Paths(), 1)
}

func TestCreateExpErrors(t *testing.T) {
	c := config(5)
	c.Type = "Offline"
	_, err := c.CreateExp(1, nil, nil)
	assert.Error(t, err)

	c = config(5)
	c.EnvConf.Environment = "Maze"
	_, err = c.CreateExp(1, nil, nil)
	assert.Error(t, err)
}
