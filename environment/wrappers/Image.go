package wrappers

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// Luma weights of the red, green, and blue channels
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// luma converts a flat, row-major RGB image to a single channel
// image. Each converted value is rounded to the nearest integer.
func luma(rgb []float64) ([]float64, error) {
	if len(rgb)%3 != 0 {
		return nil, fmt.Errorf("luma: RGB image length %v is not a "+
			"multiple of 3", len(rgb))
	}

	out := make([]float64, len(rgb)/3)
	for i := range out {
		r, g, b := rgb[3*i], rgb[3*i+1], rgb[3*i+2]
		out[i] = math.Round(lumaR*r + lumaG*g + lumaB*b)
	}
	return out, nil
}

// transpose reverses the axes of a flat height x width x channels
// image, returning a flat channels x width x height image
func transpose(img []float64, height, width, channels int) ([]float64,
	error) {
	if len(img) != height*width*channels {
		return nil, fmt.Errorf("transpose: image length %v does not match "+
			"shape (%v, %v, %v)", len(img), height, width, channels)
	}

	out := make([]float64, len(img))
	for h := 0; h < height; h++ {
		for w := 0; w < width; w++ {
			for c := 0; c < channels; c++ {
				out[(c*width+w)*height+h] = img[(h*width+w)*channels+c]
			}
		}
	}
	return out, nil
}

// imageDistances returns the Euclidean distance between each row of
// achieved and desired
func imageDistances(achieved, desired mat.Matrix) ([]float64, error) {
	rows, cols := achieved.Dims()
	dRows, dCols := desired.Dims()
	if rows != dRows || cols != dCols {
		return nil, fmt.Errorf("imageDistances: achieved images have shape "+
			"(%v, %v) but desired images have shape (%v, %v)", rows, cols,
			dRows, dCols)
	}

	dist := make([]float64, rows)
	a := make([]float64, cols)
	d := make([]float64, cols)
	for i := range dist {
		mat.Row(a, i, achieved)
		mat.Row(d, i, desired)
		dist[i] = floats.Distance(a, d, 2)
	}
	return dist, nil
}
