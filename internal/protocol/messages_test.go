package protocol

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"wumpusworld.ai/internal/sim/geom"
)

func TestEncode(t *testing.T) {
	cases := []struct {
		msg  Message
		want string
	}{
		{WantToMove(geom.P(1, 1), geom.P(2, 1)), "want_to_move: (1, 1)->(2, 1)"},
		{Deny(geom.P(2, 1)), "deny: (2, 1)"},
		{Allow(geom.P(0, 4)), "allow: (0, 4)"},
		{WumpusKilled(geom.P(3, 3)), "wumpus_killed: (3, 3)"},
		{Stuck(geom.P(0, 0)), "stuck: (0, 0)"},
		{SafeCellAt(geom.P(4, 2)), "safe_cell_at: (4, 2)"},
		{Vote(BallotCall), "vote: call"},
		{Vote(BallotExit), "vote: exit"},
		{Stay(), "stay:"},
	}
	for _, tc := range cases {
		t.Run(tc.want, func(t *testing.T) {
			assert.Equal(t, tc.want, Encode(tc.msg))
			got, err := Parse(tc.want)
			require.NoError(t, err)
			assert.Equal(t, tc.msg, got)
		})
	}
}

func TestParseToleratesSpacing(t *testing.T) {
	got, err := Parse("  want_to_move :( -1 ,2 ) -> (3,  -4) ")
	require.NoError(t, err)
	assert.Equal(t, WantToMove(geom.P(-1, 2), geom.P(3, -4)), got)

	got, err = Parse("vote")
	require.NoError(t, err)
	assert.Equal(t, Vote(BallotCall), got)
}

func TestParseErrors(t *testing.T) {
	cases := []struct {
		in   string
		want error
	}{
		{"dance: (1, 1)", ErrUnknownAction},
		{"", ErrUnknownAction},
		{"deny: (1 1)", ErrMalformedPayload},
		{"deny:", ErrMalformedPayload},
		{"want_to_move: (1, 1)", ErrMalformedPayload},
		{"want_to_move: (1, 1)->(x, 2)", ErrMalformedPayload},
		{"vote: maybe", ErrMalformedPayload},
		{"stay: (1, 1)", ErrMalformedPayload},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			_, err := Parse(tc.in)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestCodeOf(t *testing.T) {
	_, err := Parse("dance: (1, 1)")
	assert.Equal(t, CodeUnknownAction, CodeOf(err))
	_, err = Parse("deny: nowhere")
	assert.Equal(t, CodeBadMessage, CodeOf(err))
	assert.Equal(t, "", CodeOf(nil))
	assert.True(t, IsKnownCode(CodeOf(errors.New("x"))))
}

func TestScopeString(t *testing.T) {
	assert.Equal(t, "whisper", Whisper.String())
	assert.Equal(t, "shout", Shout.String())
}
