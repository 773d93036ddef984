package point2d

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

// ErrUnknownRewardType is returned when rewards are computed for a
// reward type which is not implemented
var ErrUnknownRewardType = errors.New("unknown reward type")

// RewardType determines how rewards are computed from the distance
// between the achieved goal and the desired goal
type RewardType int

const (
	// Dense rewards are the negative Euclidean distance
	Dense RewardType = iota

	// Sparse rewards are -1 outside the target radius and 0 inside
	Sparse

	// DenseL1 rewards are the negative L1 distance
	DenseL1

	// VectorizedDense rewards are the negative absolute error of
	// each dimension. The scalar reward of a step is their sum.
	VectorizedDense
)

var rewardTypeNames = map[RewardType]string{
	Dense:           "dense",
	Sparse:          "sparse",
	DenseL1:         "dense_l1",
	VectorizedDense: "vectorized_dense",
}

// ParseRewardType returns the RewardType named by s
func ParseRewardType(s string) (RewardType, error) {
	for r, name := range rewardTypeNames {
		if name == s {
			return r, nil
		}
	}
	return Dense, fmt.Errorf("parseRewardType: %w %q", ErrUnknownRewardType, s)
}

func (r RewardType) String() string {
	if name, ok := rewardTypeNames[r]; ok {
		return name
	}
	return fmt.Sprintf("RewardType(%d)", int(r))
}

// MarshalText implements encoding.TextMarshaler
func (r RewardType) MarshalText() ([]byte, error) {
	name, ok := rewardTypeNames[r]
	if !ok {
		return nil, fmt.Errorf("marshalText: %w %d", ErrUnknownRewardType,
			int(r))
	}
	return []byte(name), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (r *RewardType) UnmarshalText(text []byte) error {
	rt, err := ParseRewardType(string(text))
	if err != nil {
		return err
	}
	*r = rt
	return nil
}

// Width returns the number of reward values computed per transition
// for a goal of dimension goalDim
func (r RewardType) Width(goalDim int) int {
	if r == VectorizedDense {
		return goalDim
	}
	return 1
}

// Rewards computes the rewards for each row of achieved and desired.
// The returned matrix has one row per transition and Width columns.
func (r RewardType) Rewards(achieved, desired mat.Matrix,
	targetRadius float64) (*mat.Dense, error) {
	if _, ok := rewardTypeNames[r]; !ok {
		return nil, fmt.Errorf("rewards: %w %v", ErrUnknownRewardType, r)
	}

	rows, cols := achieved.Dims()
	dRows, dCols := desired.Dims()
	if rows != dRows || cols != dCols {
		return nil, fmt.Errorf("rewards: achieved goals have shape "+
			"(%v, %v) but desired goals have shape (%v, %v)", rows, cols,
			dRows, dCols)
	}

	out := mat.NewDense(rows, r.Width(cols), nil)
	a := make([]float64, cols)
	d := make([]float64, cols)
	for i := 0; i < rows; i++ {
		mat.Row(a, i, achieved)
		mat.Row(d, i, desired)

		switch r {
		case Dense:
			out.Set(i, 0, -floats.Distance(a, d, 2))

		case Sparse:
			if floats.Distance(a, d, 2) > targetRadius {
				out.Set(i, 0, -1)
			} else {
				out.Set(i, 0, 0)
			}

		case DenseL1:
			out.Set(i, 0, -floats.Distance(a, d, 1))

		case VectorizedDense:
			for j := range a {
				out.Set(i, j, -math.Abs(a[j]-d[j]))
			}

		default:
			return nil, fmt.Errorf("rewards: %w %v", ErrUnknownRewardType, r)
		}
	}
	return out, nil
}

// Reward computes the scalar reward of a single transition
func (r RewardType) Reward(achieved, desired mat.Vector,
	targetRadius float64) (float64, error) {
	rewards, err := r.Rewards(achieved.T(), desired.T(), targetRadius)
	if err != nil {
		return 0, err
	}
	return floats.Sum(rewards.RawRowView(0)), nil
}
