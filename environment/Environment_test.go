package environment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/spatial/r1"

	ts "github.com/samuelfneumann/gomultiworld/timestep"
)

func TestBoxSpec(t *testing.T) {
	s := NewBoxSpec(2, Action, -1, 1)
	assert.Equal(t, Action, s.Type)
	assert.Equal(t, Continuous, s.Cardinality)

	assert.True(t, s.Contains(mat.NewVecDense(2, []float64{-1, 1})))
	assert.False(t, s.Contains(mat.NewVecDense(2, []float64{0, 1.5})))
	assert.False(t, s.Contains(mat.NewVecDense(3, nil)))
}

func TestNewSpecPanics(t *testing.T) {
	assert.Panics(t, func() {
		NewSpec(mat.NewVecDense(2, nil), Observation, mat.NewVecDense(1, nil),
			mat.NewVecDense(2, nil), Continuous)
	})
}

func TestStepLimit(t *testing.T) {
	s := NewStepLimit(3)
	step := ts.New(ts.Mid, 0, 1, nil, 2)
	assert.False(t, s.End(&step))
	assert.True(t, step.Mid())

	step.Number = 3
	assert.True(t, s.End(&step))
	assert.True(t, step.Last())
	assert.Equal(t, ts.Timeout, step.EndType())

	never := NewStepLimit(0)
	step = ts.New(ts.Mid, 0, 1, nil, 1_000_000)
	assert.False(t, never.End(&step))
}

func TestEnders(t *testing.T) {
	positive := NewFunctionEnder(func(v *mat.VecDense) bool {
		return v.AtVec(0) > 0
	}, ts.TerminalStateReached)
	enders := Enders{positive, NewStepLimit(5)}

	step := ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, []float64{-1}), 1)
	assert.False(t, enders.End(&step))

	// The first Ender to end the episode decides the end type
	step = ts.New(ts.Mid, 0, 1, mat.NewVecDense(1, []float64{1}), 5)
	assert.True(t, enders.End(&step))
	assert.Equal(t, ts.TerminalStateReached, step.EndType())
}

func TestUniformStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 1}, {Min: 2, Max: 3}}
	s := NewUniformStarter(bounds, 1)
	for i := 0; i < 100; i++ {
		state := s.Start()
		require.Equal(t, 2, state.Len())
		assert.True(t, state.AtVec(0) >= -1 && state.AtVec(0) <= 1)
		assert.True(t, state.AtVec(1) >= 2 && state.AtVec(1) <= 3)
	}
}

func TestRejectionStarter(t *testing.T) {
	bounds := []r1.Interval{{Min: -1, Max: 1}}
	s := NewRejectionStarter(bounds, 1, func(v *mat.VecDense) bool {
		return v.AtVec(0) < 0
	})
	for i := 0; i < 100; i++ {
		assert.GreaterOrEqual(t, s.Start().AtVec(0), 0.0)
	}

	all := NewRejectionStarter(bounds, 1, func(*mat.VecDense) bool {
		return true
	})
	_, err := all.Sample()
	assert.Error(t, err)
	assert.Panics(t, func() { all.Start() })
}
