package point2d

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
	"github.com/samuelfneumann/gomultiworld/utils/floatutils"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r2"
)

var (
	backgroundColour = color.White
	goalColour       = color.RGBA{R: 0, G: 255, B: 0, A: 255}
	ballColour       = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	wallColour       = color.Black
)

// Channels returns the number of values per pixel in the images
// returned by Image
func (p *Point2D) Channels() int {
	if p.cfg.ImagesAreRGB {
		return 3
	}
	return 1
}

// SetShowGoal sets whether the target is drawn in rendered images
func (p *Point2D) SetShowGoal(show bool) {
	p.cfg.ShowGoal = show
}

// Image renders the environment and returns the image as a flat
// vector of pixel values in [0, 255], row by row. The arena spans
// [-b-r, b+r] in both dimensions, where r is the ball radius, and
// row i of the image shows points with smaller y than row i+1.
//
// RGB images hold three values per pixel. Otherwise images hold a
// single value per pixel equal to the blue channel less the red
// channel, so that only the ball is visible.
func (p *Point2D) Image(width, height int) (*mat.VecDense, error) {
	if width != height {
		return nil, fmt.Errorf("image: only square images are supported, "+
			"got %v x %v", width, height)
	}
	if width <= 0 {
		return nil, fmt.Errorf("image: image size must be positive")
	}

	img := p.render(width)
	bounds := img.Bounds()

	data := make([]float64, 0, width*height*p.Channels())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := img.RGBAAt(x, y)
			if p.cfg.ImagesAreRGB {
				data = append(data, float64(c.R), float64(c.G), float64(c.B))
				continue
			}

			data = append(data,
				floatutils.Clip(float64(c.B)-float64(c.R), 0, 255))
		}
	}

	return mat.NewVecDense(len(data), data), nil
}

// SavePNG renders the environment at the configured render size and
// saves it as a PNG image
func (p *Point2D) SavePNG(path string) error {
	if p.cfg.RenderSize <= 0 {
		return fmt.Errorf("savePNG: render size must be positive")
	}
	if err := gg.SavePNG(path, p.render(p.cfg.RenderSize)); err != nil {
		return fmt.Errorf("savePNG: %w", err)
	}
	return nil
}

// render draws the environment on a size x size canvas
func (p *Point2D) render(size int) *image.RGBA {
	extent := p.cfg.BoundaryDist + p.cfg.BallRadius
	scale := float64(size) / (2 * extent)
	toPixel := func(v r2.Vec) (float64, float64) {
		return (v.X + extent) * scale, (v.Y + extent) * scale
	}

	dc := gg.NewContext(size, size)
	dc.SetColor(backgroundColour)
	dc.Clear()

	if p.cfg.ShowGoal {
		x, y := toPixel(p.target)
		dc.DrawCircle(x, y, p.cfg.TargetRadius*scale)
		dc.SetColor(goalColour)
		dc.Fill()
	}

	x, y := toPixel(p.position)
	dc.DrawCircle(x, y, p.cfg.BallRadius*scale)
	dc.SetColor(ballColour)
	dc.Fill()

	dc.SetColor(wallColour)
	dc.SetLineWidth(1.0)
	for _, wall := range p.walls {
		corners := wall.Endpoints()
		for i := range corners {
			x1, y1 := toPixel(corners[i])
			x2, y2 := toPixel(corners[(i+1)%len(corners)])
			dc.DrawLine(x1, y1, x2, y2)
		}
	}
	dc.Stroke()

	return dc.Image().(*image.RGBA)
}
