package point2d

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/mat"
)

func TestRewards(t *testing.T) {
	achieved := mat.NewDense(3, 2, []float64{
		0, 0,
		3, 4,
		0.3, 0.4,
	})
	desired := mat.NewDense(3, 2, []float64{
		0, 0,
		0, 0,
		0, 0,
	})

	tests := []struct {
		rewardType RewardType
		want       []float64
	}{
		{Dense, []float64{0, -5, -0.5}},
		{Sparse, []float64{0, -1, 0}},
		{DenseL1, []float64{0, -7, -0.7}},
		{VectorizedDense, []float64{0, 0, -3, -4, -0.3, -0.4}},
	}

	for _, test := range tests {
		t.Run(test.rewardType.String(), func(t *testing.T) {
			rewards, err := test.rewardType.Rewards(achieved, desired, 0.6)
			require.NoError(t, err)

			rows, cols := rewards.Dims()
			assert.Equal(t, 3, rows)
			assert.Equal(t, test.rewardType.Width(2), cols)

			got := rewards.RawMatrix().Data
			require.Len(t, got, len(test.want))
			for i := range got {
				assert.InDelta(t, test.want[i], got[i], 1e-12)
			}
		})
	}
}

func TestSparseRewardBoundary(t *testing.T) {
	a := mat.NewVecDense(2, []float64{0.6, 0})
	d := mat.NewVecDense(2, []float64{0, 0})

	r, err := Sparse.Reward(a, d, 0.6)
	require.NoError(t, err)
	assert.Equal(t, 0.0, r)
	assert.False(t, math.Signbit(r))

	a.SetVec(0, 0.61)
	r, err = Sparse.Reward(a, d, 0.6)
	require.NoError(t, err)
	assert.Equal(t, -1.0, r)
}

func TestVectorizedDenseScalarReward(t *testing.T) {
	a := mat.NewVecDense(2, []float64{1, 2})
	d := mat.NewVecDense(2, []float64{0, 0})

	r, err := VectorizedDense.Reward(a, d, 0.6)
	require.NoError(t, err)
	assert.InDelta(t, -3.0, r, 1e-12)
}

func TestRewardsShapeMismatch(t *testing.T) {
	_, err := Dense.Rewards(mat.NewDense(2, 2, nil), mat.NewDense(3, 2, nil), 1)
	assert.Error(t, err)
}

func TestUnknownRewardTypeErrors(t *testing.T) {
	_, err := RewardType(9).Rewards(mat.NewDense(1, 2, nil),
		mat.NewDense(1, 2, nil), 1)
	assert.True(t, errors.Is(err, ErrUnknownRewardType))

	_, err = RewardType(9).MarshalText()
	assert.True(t, errors.Is(err, ErrUnknownRewardType))

	_, err = ParseRewardType("shaped")
	assert.True(t, errors.Is(err, ErrUnknownRewardType))
}

func TestParseRewardType(t *testing.T) {
	for _, name := range []string{"dense", "sparse", "dense_l1",
		"vectorized_dense"} {
		r, err := ParseRewardType(name)
		require.NoError(t, err)
		assert.Equal(t, name, r.String())

		text, err := r.MarshalText()
		require.NoError(t, err)
		assert.Equal(t, name, string(text))
	}

	var r RewardType
	require.NoError(t, r.UnmarshalText([]byte("sparse")))
	assert.Equal(t, Sparse, r)
}
