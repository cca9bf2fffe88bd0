package scenario

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/rand"
)

func TestGenerateMonteCarloProducesExpectedPathShape(t *testing.T) {
	p := MCParams{Horizon: 2, Return: 0.05, Volatility: 0.15, Paths: 4, S0: 100}
	rng := rand.New(rand.NewSource(1))

	paths := GenerateMonteCarlo(p, rng)
	require.Len(t, paths, 4)

	wantLen := int(p.Horizon / MonteCarloDt)
	for i, path := range paths {
		assert.Equal(t, i, path.ID)
		assert.Equal(t, MonteCarloDt, path.Dt)
		assert.Len(t, path.Prices, wantLen)
		for _, price := range path.Prices {
			assert.Greater(t, price, 0.0)
		}
	}
}

func TestGenerateMonteCarloIsDeterministicForAFixedSeed(t *testing.T) {
	p := MCParams{Horizon: 1, Return: 0.05, Volatility: 0.2, Paths: 2, S0: 100}

	a := GenerateMonteCarlo(p, rand.New(rand.NewSource(42)))
	b := GenerateMonteCarlo(p, rand.New(rand.NewSource(42)))

	assert.Equal(t, a, b)
}

func TestFromHistoricalWindowsTheRequestedSlice(t *testing.T) {
	prices := make([]float64, 36)
	for i := range prices {
		prices[i] = float64(i)
	}

	path, err := FromHistorical(prices, 6, 2)
	require.NoError(t, err)
	assert.Equal(t, HistoricalDt, path.Dt)
	assert.Len(t, path.Prices, 24)
	assert.Equal(t, 6.0, path.Prices[0])
}

func TestFromHistoricalRejectsShortSeries(t *testing.T) {
	_, err := FromHistorical(make([]float64, 10), 0, 2)
	assert.Error(t, err)
}
