package numeric

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSecantLinearConvergesImmediately(t *testing.T) {
	f := func(x float64) float64 { return x - 12345 }

	res, err := Secant(f, 0, 100000, 1)
	require.NoError(t, err)
	assert.True(t, res.Converged)
	assert.InDelta(t, 12345, res.X, 1e-6)
	assert.InDelta(t, 0, res.FX, 1e-6)
}

func TestSecantNoConvergeAfterMaxIterations(t *testing.T) {
	// f oscillates without ever settling within tolerance of zero.
	f := func(x float64) float64 {
		if int(x)%2 == 0 {
			return 1000
		}
		return -1000
	}

	_, err := Secant(f, 0, 1, 1e-9)
	require.Error(t, err)

	var nc *NoConvergeError
	require.ErrorAs(t, err, &nc)
	assert.Equal(t, MaxSecantIterations, nc.Iterations)
}
