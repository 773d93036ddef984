package point2d

import (
	"fmt"

	"gonum.org/v1/gonum/spatial/r2"
)

// segment is a closed line segment between two points
type segment struct {
	a, b r2.Vec
}

// orientation returns the sign of the turn p -> q -> r. It is positive
// for a counter-clockwise turn, negative for a clockwise turn and zero
// when the points are collinear.
func orientation(p, q, r r2.Vec) float64 {
	return q.Sub(p).Cross(r.Sub(p))
}

// onBox returns whether p lies within the bounding box of s. It is
// only meaningful for points collinear with s.
func (s segment) onBox(p r2.Vec) bool {
	return p.X >= min(s.a.X, s.b.X) && p.X <= max(s.a.X, s.b.X) &&
		p.Y >= min(s.a.Y, s.b.Y) && p.Y <= max(s.a.Y, s.b.Y)
}

// intersects returns whether two segments share at least one point,
// including touching endpoints and collinear overlaps
func (s segment) intersects(o segment) bool {
	d1 := orientation(o.a, o.b, s.a)
	d2 := orientation(o.a, o.b, s.b)
	d3 := orientation(s.a, s.b, o.a)
	d4 := orientation(s.a, s.b, o.b)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	switch {
	case d1 == 0 && o.onBox(s.a):
		return true
	case d2 == 0 && o.onBox(s.b):
		return true
	case d3 == 0 && s.onBox(o.a):
		return true
	case d4 == 0 && s.onBox(o.b):
		return true
	}
	return false
}

// Wall is an axis-aligned wall segment with some thickness. The ball
// may not enter the wall's inflated rectangle: the wall expanded by
// its thickness and by the minimum distance the ball's centre must
// keep from the wall, usually the ball radius.
//
// Collision handling is approximate. A move that crosses a side of
// the inflated rectangle towards its interior has the coordinate
// orthogonal to that side clamped onto the side.
type Wall struct {
	// Min and Max are the corners of the inflated rectangle
	Min, Max r2.Vec

	minDist   float64
	thickness float64

	// Outline of the wall itself, in drawing order
	endpoints [4]r2.Vec

	top, bottom, left, right segment
}

func newWall(min, max r2.Vec, minDist, thickness float64) *Wall {
	return &Wall{
		Min:       min,
		Max:       max,
		minDist:   minDist,
		thickness: thickness,
		top:       segment{r2.Vec{X: min.X, Y: max.Y}, max},
		bottom:    segment{min, r2.Vec{X: max.X, Y: min.Y}},
		left:      segment{min, r2.Vec{X: min.X, Y: max.Y}},
		right:     segment{r2.Vec{X: max.X, Y: min.Y}, max},
	}
}

// NewVerticalWall returns a vertical wall at x spanning [bottomY, topY].
// The ball's centre is kept at least minDist from the wall.
func NewVerticalWall(minDist, x, bottomY, topY, thickness float64) *Wall {
	inflate := minDist + thickness
	w := newWall(
		r2.Vec{X: x - inflate, Y: bottomY - inflate},
		r2.Vec{X: x + inflate, Y: topY + inflate},
		minDist,
		thickness,
	)
	w.endpoints = [4]r2.Vec{
		{X: x + thickness, Y: topY + thickness},
		{X: x + thickness, Y: bottomY - thickness},
		{X: x - thickness, Y: bottomY - thickness},
		{X: x - thickness, Y: topY + thickness},
	}
	return w
}

// NewHorizontalWall returns a horizontal wall at y spanning
// [leftX, rightX]. The ball's centre is kept at least minDist from
// the wall.
func NewHorizontalWall(minDist, y, leftX, rightX, thickness float64) *Wall {
	inflate := minDist + thickness
	w := newWall(
		r2.Vec{X: leftX - inflate, Y: y - inflate},
		r2.Vec{X: rightX + inflate, Y: y + inflate},
		minDist,
		thickness,
	)
	w.endpoints = [4]r2.Vec{
		{X: rightX + thickness, Y: y + thickness},
		{X: rightX + thickness, Y: y - thickness},
		{X: leftX - thickness, Y: y - thickness},
		{X: leftX - thickness, Y: y + thickness},
	}
	return w
}

// Contains returns whether p lies strictly inside the inflated
// rectangle of the wall
func (w *Wall) Contains(p r2.Vec) bool {
	return w.Min.X < p.X && p.X < w.Max.X && w.Min.Y < p.Y && p.Y < w.Max.Y
}

// HandleCollision returns the position reached when moving from start
// towards end given the wall. If the move crosses a side of the
// inflated rectangle while heading into it, the coordinate orthogonal
// to that side is clamped onto the side. Otherwise end is returned.
func (w *Wall) HandleCollision(start, end r2.Vec) r2.Vec {
	trajectory := segment{start, end}
	out := end

	if w.top.intersects(trajectory) && end.Y <= start.Y {
		out.Y = w.Max.Y
	}
	if w.bottom.intersects(trajectory) && end.Y >= start.Y {
		out.Y = w.Min.Y
	}
	if w.right.intersects(trajectory) && end.X <= start.X {
		out.X = w.Max.X
	}
	if w.left.intersects(trajectory) && end.X >= start.X {
		out.X = w.Min.X
	}

	return out
}

// Endpoints returns the four corners of the wall outline, excluding
// the ball's minimum distance, in drawing order
func (w *Wall) Endpoints() [4]r2.Vec {
	return w.endpoints
}

// Thickness returns the wall's thickness
func (w *Wall) Thickness() float64 {
	return w.thickness
}

func (w *Wall) String() string {
	return fmt.Sprintf("Wall  |  Min: (%.2f, %.2f)  |  Max: (%.2f, %.2f)",
		w.Min.X, w.Min.Y, w.Max.X, w.Max.Y)
}
