package point2d

import (
	"errors"
	"fmt"
)

// ErrUnknownWallShape is returned when a wall shape is not one of the
// predefined layouts
var ErrUnknownWallShape = errors.New("unknown wall shape")

// WallShape selects one of the predefined wall layouts
type WallShape int

const (
	NoWalls WallShape = iota
	UWall
	HorizontalWallShape
	CentreWall
	CornerWall
	FourCornerWalls
	BigUWall
	EasyUWall
	BigHorizontalWall
	BoxWall
)

var wallShapeNames = map[WallShape]string{
	NoWalls:             "none",
	UWall:               "u",
	HorizontalWallShape: "-",
	CentreWall:          "--",
	CornerWall:          "-|",
	FourCornerWalls:     "4-|",
	BigUWall:            "big-u",
	EasyUWall:           "easy-u",
	BigHorizontalWall:   "big-h",
	BoxWall:             "box",
}

// ParseWallShape returns the WallShape named by s. The empty string
// names NoWalls and "h" is an alias of "-".
func ParseWallShape(s string) (WallShape, error) {
	switch s {
	case "":
		return NoWalls, nil
	case "h":
		return HorizontalWallShape, nil
	}
	for shape, name := range wallShapeNames {
		if name == s {
			return shape, nil
		}
	}
	return NoWalls, fmt.Errorf("parseWallShape: %w %q", ErrUnknownWallShape, s)
}

func (w WallShape) String() string {
	if name, ok := wallShapeNames[w]; ok {
		return name
	}
	return fmt.Sprintf("WallShape(%d)", int(w))
}

// MarshalText implements encoding.TextMarshaler
func (w WallShape) MarshalText() ([]byte, error) {
	name, ok := wallShapeNames[w]
	if !ok {
		return nil, fmt.Errorf("marshalText: %w %d", ErrUnknownWallShape, int(w))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (w *WallShape) UnmarshalText(text []byte) error {
	shape, err := ParseWallShape(string(text))
	if err != nil {
		return err
	}
	*w = shape
	return nil
}

// Walls returns the walls of a predefined layout. The ball radius is
// the minimum distance the ball's centre keeps from each wall, and
// innerWallMaxDist scales the layout. Some layouts ignore thickness.
func Walls(shape WallShape, ballRadius, innerWallMaxDist,
	thickness float64) ([]*Wall, error) {
	d := innerWallMaxDist
	r := ballRadius

	switch shape {
	case NoWalls:
		return []*Wall{}, nil

	case UWall:
		return []*Wall{
			NewVerticalWall(r, d, -d, d, 0),  // right
			NewVerticalWall(r, -d, -d, d, 0), // left
			NewHorizontalWall(r, d, -d, d, 0),
		}, nil

	case HorizontalWallShape:
		return []*Wall{NewHorizontalWall(r, d, -d, d, 0)}, nil

	case CentreWall:
		return []*Wall{NewHorizontalWall(r, 0, -d, d, 0)}, nil

	case CornerWall:
		return []*Wall{
			NewHorizontalWall(r, 1.5*d, 0.5*d, 1.5*d, thickness),
			NewVerticalWall(r, 1.5*d, 0.5*d, 1.5*d, thickness),
		}, nil

	case FourCornerWalls:
		lo, hi := 1.25*d, 2.25*d
		return []*Wall{
			NewHorizontalWall(r, hi, lo, hi, thickness),
			NewVerticalWall(r, hi, lo, hi, thickness),
			NewHorizontalWall(r, hi, -hi, -lo, thickness),
			NewVerticalWall(r, -hi, lo, hi, thickness),
			NewHorizontalWall(r, -hi, -hi, -lo, thickness),
			NewVerticalWall(r, -hi, -hi, -lo, thickness),
			NewHorizontalWall(r, -hi, lo, hi, thickness),
			NewVerticalWall(r, hi, -hi, -lo, thickness),
		}, nil

	case BigUWall:
		return []*Wall{
			NewVerticalWall(r, 2*d, -2*d, d, thickness),
			NewVerticalWall(r, -2*d, -2*d, d, thickness),
			NewHorizontalWall(r, d, -2*d, 2*d, thickness),
		}, nil

	case EasyUWall:
		return []*Wall{
			NewVerticalWall(r, 2*d, -0.5*d, d, thickness),
			NewVerticalWall(r, -2*d, -0.5*d, d, thickness),
			NewHorizontalWall(r, d, -2*d, 2*d, thickness),
		}, nil

	case BigHorizontalWall:
		return []*Wall{NewHorizontalWall(r, d, -2*d, 2*d, 0)}, nil

	case BoxWall:
		return []*Wall{NewVerticalWall(r, 0, 0, 0, thickness)}, nil
	}

	return nil, fmt.Errorf("walls: %w %v", ErrUnknownWallShape, shape)
}
