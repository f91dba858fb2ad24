package results

import (
	"math"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarizeEmpty(t *testing.T) {
	require.Equal(t, Summary{}, Summarize(nil))
}

func TestSummarizeSingle(t *testing.T) {
	s := Summarize([]float64{0.97})
	require.Equal(t, 1, s.Count)
	require.Equal(t, 0.97, s.Min)
	require.Equal(t, 0.97, s.Max)
	require.Equal(t, 0.97, s.Mean)
	require.Zero(t, s.StdDev)
	require.Zero(t, s.SampleStdDev)
}

func TestSummarize(t *testing.T) {
	s := Summarize([]float64{2, 4, 4, 4, 5, 5, 7, 9})
	require.Equal(t, 8, s.Count)
	require.Equal(t, 2.0, s.Min)
	require.Equal(t, 9.0, s.Max)
	require.InDelta(t, 5.0, s.Mean, 1e-12)
	require.InDelta(t, 2.0, s.StdDev, 1e-12)
	require.InDelta(t, math.Sqrt(32.0/7.0), s.SampleStdDev, 1e-12)
}
