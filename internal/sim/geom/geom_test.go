package geom

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPosRoundTrip(t *testing.T) {
	for x := -12; x <= 12; x += 3 {
		for y := -12; y <= 12; y += 4 {
			p := P(x, y)
			got, err := ParsePos(p.String())
			require.NoError(t, err)
			assert.Equal(t, p, got)
		}
	}
	got, err := ParsePos("(-1000000, 0)")
	require.NoError(t, err)
	assert.Equal(t, P(-1000000, 0), got)
}

func TestParsePosErrors(t *testing.T) {
	for _, s := range []string{"", "(1 2)", "(a, 2)", "(1, b)", "(1,)"} {
		_, err := ParsePos(s)
		assert.Error(t, err, s)
	}
	got, err := ParsePos("3,4")
	require.NoError(t, err)
	assert.Equal(t, P(3, 4), got)
}

func TestDirectionBetween(t *testing.T) {
	cases := []struct {
		to   Pos
		want Direction
	}{
		{P(2, 3), Front},
		{P(2, 1), Back},
		{P(1, 2), Left},
		{P(3, 2), Right},
	}
	for _, tc := range cases {
		got, err := DirectionBetween(P(2, 2), tc.to)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got)

		step, err := P(2, 2).Step(got)
		require.NoError(t, err)
		assert.Equal(t, tc.to, step)
	}

	_, err := DirectionBetween(P(2, 2), P(3, 3))
	assert.True(t, errors.Is(err, ErrInvalidDirection))
	_, err = DirectionBetween(P(2, 2), P(2, 2))
	assert.True(t, errors.Is(err, ErrInvalidDirection))
}

func TestParseDirection(t *testing.T) {
	d, err := ParseDirection("left")
	require.NoError(t, err)
	assert.Equal(t, Left, d)

	_, err = ParseDirection("up")
	assert.True(t, errors.Is(err, ErrInvalidDirection))

	_, err = P(0, 0).Step(DirNone)
	assert.True(t, errors.Is(err, ErrInvalidDirection))
}

func TestNeighborhoods(t *testing.T) {
	assert.ElementsMatch(t, []Pos{P(1, 2), P(3, 2), P(2, 1), P(2, 3)}, Neighbors4(P(2, 2), 5))
	assert.ElementsMatch(t, []Pos{P(1, 0), P(0, 1)}, Neighbors4(P(0, 0), 5))
	assert.Len(t, Neighbors8(P(2, 2), 5), 8)
	assert.Len(t, Neighbors8(P(0, 0), 5), 3)

	area := WhisperArea(P(2, 2), 5)
	assert.Len(t, area, 12)
	assert.Contains(t, area, P(0, 2))
	assert.Contains(t, area, P(2, 4))
	assert.Contains(t, area, P(3, 3))
	assert.NotContains(t, area, P(2, 2))
	assert.NotContains(t, area, P(4, 4))

	corner := WhisperArea(P(0, 0), 5)
	assert.ElementsMatch(t, []Pos{P(1, 0), P(0, 1), P(1, 1), P(2, 0), P(0, 2)}, corner)
}
