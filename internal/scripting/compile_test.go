package scripting

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/MJE43/bjsim/internal/games"
	"github.com/MJE43/bjsim/internal/strategy"
)

const classicScript = `
	function decide(total, dealer, doubled) {
		if (total >= 17 || (total >= 12 && dealer >= 7)) {
			return STAND
		}
		return HIT
	}
`

func TestCompileMatchesBuiltin(t *testing.T) {
	c, err := Compile("js-classic", classicScript)
	require.NoError(t, err)
	require.Equal(t, "js-classic", c.Table.Name())
	require.False(t, c.Table.Splits())

	want := strategy.Classic{}
	for total := 2; total <= 21; total++ {
		for dealer := 2; dealer <= 11; dealer++ {
			require.Equal(t, want.Decide(total, dealer, false), c.Table.Decide(total, dealer, false))
		}
	}
}

func TestCompileWithSplitAndDouble(t *testing.T) {
	src := `
		function decide(total, dealer, doubled) {
			if (!doubled && total == 11) return DOUBLE
			return total >= 17 ? STAND : HIT
		}
		function split(rank, dealer) {
			return rank == ACE
		}
	`
	c, err := Compile("js-split", src)
	require.NoError(t, err)
	require.Equal(t, strategy.Double, c.Table.Decide(11, 6, false))
	require.Equal(t, strategy.Hit, c.Table.Decide(11, 6, true))
	require.True(t, c.Table.Splits())
	require.True(t, c.Table.ShouldSplit(games.Ace, 10))
	require.False(t, c.Table.ShouldSplit(games.Eight, 10))
}

func TestCompileCapturesLogs(t *testing.T) {
	src := `
		console.log("loaded", 1)
		function decide() { return "stand" }
	`
	c, err := Compile("js-log", src)
	require.NoError(t, err)
	require.Len(t, c.Logs, 1)
	require.Equal(t, "loaded 1", c.Logs[0].Message)
}

func TestCompileErrors(t *testing.T) {
	tests := []struct {
		name   string
		script string
	}{
		{"syntax error", "function decide( {"},
		{"missing decide", "var x = 1"},
		{"decide not a function", "var decide = 3"},
		{"bad return value", "function decide() { return 'surrender' }"},
		{"throws", "function decide() { throw new Error('boom') }"},
		{"require blocked", "require('fs'); function decide() { return STAND }"},
		{"split not a function", "function decide() { return STAND }; var split = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Compile("bad", tt.script)
			require.ErrorIs(t, err, ErrScript)
		})
	}
}

func TestCompileTimeout(t *testing.T) {
	_, err := Compile("loop", "while (true) {}")
	require.ErrorIs(t, err, ErrScript)
}

func TestCompileRequiresName(t *testing.T) {
	_, err := Compile("", classicScript)
	require.ErrorIs(t, err, ErrScript)
}

func TestRegisterAddsToRegistry(t *testing.T) {
	_, err := Register("js-registered", classicScript)
	require.NoError(t, err)

	s, err := strategy.Get("js-registered")
	require.NoError(t, err)
	require.Equal(t, strategy.Stand, s.Decide(18, 10, false))
}
