package timestep

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/mat"
)

// Key names a single entry of a goal-conditioned observation
type Key string

// Keys used by goal-conditioned environments
const (
	ObservationKey    Key = "observation"
	DesiredGoal       Key = "desired_goal"
	AchievedGoal      Key = "achieved_goal"
	StateObservation  Key = "state_observation"
	StateDesiredGoal  Key = "state_desired_goal"
	StateAchievedGoal Key = "state_achieved_goal"

	ImageObservation  Key = "image_observation"
	ImageDesiredGoal  Key = "image_desired_goal"
	ImageAchievedGoal Key = "image_achieved_goal"
)

// Dict is a goal-conditioned observation, mapping each Key to a vector
type Dict map[Key]*mat.VecDense

// Copy returns a deep copy of the Dict
func (d Dict) Copy() Dict {
	if d == nil {
		return nil
	}
	c := make(Dict, len(d))
	for k, v := range d {
		if v == nil {
			c[k] = nil
			continue
		}
		c[k] = mat.VecDenseCopyOf(v)
	}
	return c
}

// Keys returns the keys of the Dict in sorted order
func (d Dict) Keys() []Key {
	keys := make([]Key, 0, len(d))
	for k := range d {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Batch is a batch of goal-conditioned observations or goals. Each
// entry is a matrix with one row per sample.
type Batch map[Key]*mat.Dense

// NewBatch stacks the argument Dicts into a Batch. Only keys present
// in every Dict are kept.
func NewBatch(dicts ...Dict) (Batch, error) {
	if len(dicts) == 0 {
		return Batch{}, nil
	}

	b := make(Batch)
	for key, first := range dicts[0] {
		cols := first.Len()
		m := mat.NewDense(len(dicts), cols, nil)

		ok := true
		for i, d := range dicts {
			v, present := d[key]
			if !present {
				ok = false
				break
			}
			if v.Len() != cols {
				return nil, fmt.Errorf("newBatch: key %v has length %v at "+
					"row %v, want %v", key, v.Len(), i, cols)
			}
			m.SetRow(i, v.RawVector().Data)
		}
		if ok {
			b[key] = m
		}
	}
	return b, nil
}

// Len returns the number of samples in the Batch
func (b Batch) Len() int {
	for _, m := range b {
		r, _ := m.Dims()
		return r
	}
	return 0
}

// Row returns the sample at index i as a Dict
func (b Batch) Row(i int) Dict {
	d := make(Dict, len(b))
	for k, m := range b {
		d[k] = mat.NewVecDense(m.RawMatrix().Cols, mat.Row(nil, i, m))
	}
	return d
}

// Select returns a new Batch consisting of the rows at the argument
// indices, in order
func (b Batch) Select(indices []int) Batch {
	out := make(Batch, len(b))
	for k, m := range b {
		_, cols := m.Dims()
		sel := mat.NewDense(len(indices), cols, nil)
		for i, idx := range indices {
			sel.SetRow(i, mat.Row(nil, idx, m))
		}
		out[k] = sel
	}
	return out
}

// Info holds diagnostic information about a transition. Scalars are
// stored as single-element slices.
type Info map[string][]float64

// SetScalar stores a scalar value
func (i Info) SetScalar(name string, value float64) {
	i[name] = []float64{value}
}

// Scalar returns the scalar stored at name
func (i Info) Scalar(name string) (float64, bool) {
	v, ok := i[name]
	if !ok || len(v) != 1 {
		return 0, false
	}
	return v[0], true
}

// SetBool stores a boolean as 1.0 (true) or 0.0 (false)
func (i Info) SetBool(name string, value bool) {
	if value {
		i.SetScalar(name, 1.0)
		return
	}
	i.SetScalar(name, 0.0)
}
