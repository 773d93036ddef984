package point2d

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

// imageConfig places the ball at the origin and the target in the
// top right corner
func imageConfig(rgb bool) Config {
	c := DefaultConfig()
	c.RandomizePositionOnReset = false
	c.FixedReset = []float64{0, 0}
	c.FixedGoal = []float64{3, 3}
	c.ImagesAreRGB = rgb
	return c
}

func TestImageGrayscale(t *testing.T) {
	const size = 84
	p, _ := newEnv(t, imageConfig(false), nil)
	require.Equal(t, 1, p.Channels())

	img, err := p.Image(size, size)
	require.NoError(t, err)
	require.Equal(t, size*size, img.Len())

	// Only the ball is visible in grayscale images
	centre := size/2*size + size/2
	assert.Equal(t, 255.0, img.AtVec(centre))
	assert.Equal(t, 0.0, img.AtVec(0))

	goalRow, goalCol := 70, 70
	assert.Equal(t, 0.0, img.AtVec(goalRow*size+goalCol))

	for i := 0; i < img.Len(); i++ {
		require.GreaterOrEqual(t, img.AtVec(i), 0.0)
		require.LessOrEqual(t, img.AtVec(i), 255.0)
	}
}

func TestImageRGB(t *testing.T) {
	const size = 84
	p, _ := newEnv(t, imageConfig(true), nil)
	require.Equal(t, 3, p.Channels())

	img, err := p.Image(size, size)
	require.NoError(t, err)
	require.Equal(t, 3*size*size, img.Len())

	pixel := func(row, col int) []float64 {
		i := 3 * (row*size + col)
		return []float64{img.AtVec(i), img.AtVec(i + 1), img.AtVec(i + 2)}
	}

	assert.Equal(t, []float64{0, 0, 255}, pixel(size/2, size/2))
	assert.Equal(t, []float64{255, 255, 255}, pixel(0, 0))

	// (3, 3) maps to pixel (70, 70)
	assert.Equal(t, []float64{0, 255, 0}, pixel(70, 70))
}

func TestImageFollowsBall(t *testing.T) {
	const size = 84
	p, _ := newEnv(t, imageConfig(false), nil)

	p.SetPosition(r2.Vec{X: -3, Y: 0})
	img, err := p.Image(size, size)
	require.NoError(t, err)

	// x = -3 maps to column (1.5 / 9) * 84 = 14
	assert.Equal(t, 255.0, img.AtVec(size/2*size+14))
	assert.Equal(t, 0.0, img.AtVec(size/2*size+size/2))
}

func TestImageSize(t *testing.T) {
	p, _ := newEnv(t, imageConfig(false), nil)

	_, err := p.Image(84, 48)
	assert.Error(t, err)

	_, err = p.Image(0, 0)
	assert.Error(t, err)
}

func TestSavePNG(t *testing.T) {
	p, _ := newEnv(t, imageConfig(true), nil)
	path := filepath.Join(t.TempDir(), "point2d.png")

	require.NoError(t, p.SavePNG(path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}
