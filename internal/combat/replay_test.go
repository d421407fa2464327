package combat

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuild_MatchesLiveState(t *testing.T) {
	live, err := NewState("kitsune-09", "heavy-loader", FormatBestOf3)
	require.NoError(t, err)

	history := []HistoryEntry{
		{Move1: MovePunch, Move2: MoveKick},
		{Move1: MoveBlock, Move2: MoveSpecial},
		{Move1: MoveKick, Move2: MoveBlock},
		{Move1: MoveSpecial, Move2: MovePunch},
		{Forfeit: 2},
		{Move1: MovePunch, Move2: MovePunch},
	}
	for _, h := range history {
		if h.Forfeit != 0 {
			live, _, err = ForfeitRound(live, h.Forfeit)
		} else {
			live, _, err = ResolveTurn(live, h.Move1, h.Move2)
		}
		require.NoError(t, err)
	}

	rebuilt, err := Rebuild("kitsune-09", "heavy-loader", FormatBestOf3, history)
	require.NoError(t, err)
	assert.Equal(t, live, rebuilt)
}

func TestRebuild_EmptyHistoryIsInitialState(t *testing.T) {
	initial, err := NewState("viperblade", "technomancer", FormatBestOf5)
	require.NoError(t, err)

	rebuilt, err := Rebuild("viperblade", "technomancer", FormatBestOf5, nil)
	require.NoError(t, err)
	assert.Equal(t, initial, rebuilt)
}

func TestRebuild_UnknownCharacter(t *testing.T) {
	_, err := Rebuild("viperblade", "nobody", FormatBestOf3, nil)
	assert.Error(t, err)
}

func TestRoster(t *testing.T) {
	chars := Roster()
	assert.Len(t, chars, 20)

	c, ok := CharacterByID("cyber-ninja")
	require.True(t, ok)
	assert.Equal(t, 96, c.MaxHP)
	assert.Equal(t, TierLegacy, c.Tier)

	_, ok = CharacterByID("missing")
	assert.False(t, ok)

	// Returned slice is a copy; mutating it must not touch the roster.
	chars[0].MaxHP = 1
	c, _ = CharacterByID(chars[0].ID)
	assert.NotEqual(t, 1, c.MaxHP)
}
