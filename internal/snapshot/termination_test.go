package snapshot

import (
	"testing"

	"github.com/esraa1000/chronoclash/internal/grid"
	"github.com/stretchr/testify/require"
)

func TestIsCompleteFalseUntilEveryCellClaimed(t *testing.T) {
	g, err := grid.New(2)
	require.NoError(t, err)
	require.False(t, IsComplete(g))

	g.Claim(0, 0, 1)
	g.Claim(0, 1, 1)
	g.Claim(1, 0, 2)
	require.False(t, IsComplete(g))

	g.Claim(1, 1, 2)
	require.True(t, IsComplete(g))
}

func TestScoreboardOrdersByScoreThenPlayerID(t *testing.T) {
	g, err := grid.New(2)
	require.NoError(t, err)
	g.Claim(0, 0, 1)
	g.Claim(0, 1, 2)
	g.Claim(1, 0, 2)
	g.Claim(1, 1, 3)

	board := Scoreboard(g, 3)
	require.Equal(t, []grid.ScoreboardEntry{
		{PlayerID: 2, Score: 2},
		{PlayerID: 1, Score: 1},
		{PlayerID: 3, Score: 1},
	}, board)
}
