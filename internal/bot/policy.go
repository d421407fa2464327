// Package bot supplies the house opponent for practice rooms. Move choice
// is a pure function of (match id, combat state), so a bot match replays
// exactly like a human one; any "thinking" delay is presentation-side.
package bot

import (
	"hash/fnv"

	"github.com/kaspaclash/arena-server/internal/combat"
)

// Address is the identity the house bot plays under.
const Address = "arena:house-bot"

// DefaultCharacter is the bot's roster pick.
const DefaultCharacter = "dag-warrior"

// Policy chooses moves for the bot side.
type Policy struct{}

// New creates a bot policy.
func New() *Policy { return &Policy{} }

// ChooseMove picks the bot's move for the current turn. side is the bot's
// seat (1 or 2).
func (p *Policy) ChooseMove(matchID string, state combat.State, side int) combat.Move {
	me, them := state.Player1, state.Player2
	if side == 2 {
		me, them = them, me
	}

	myChar, ok := combat.CharacterByID(me.CharacterID)
	if !ok {
		return combat.MovePunch
	}

	specialCost := combat.EnergyCostFor(combat.MoveSpecial, myChar)
	kickCost := combat.EnergyCostFor(combat.MoveKick, myChar)

	switch {
	case me.Energy >= specialCost && them.GuardMeter >= 50:
		// A loaded guard meter means they have been turtling; punch through.
		return combat.MoveSpecial
	case me.HP*4 < me.MaxHP && me.GuardMeter < 75:
		return combat.MoveBlock
	case me.Energy >= specialCost && them.HP <= 30:
		return combat.MoveSpecial
	case me.Energy >= kickCost:
		// Alternate punch and kick on a stable hash so two bots never fall
		// into a mirrored loop.
		if mixTurn(matchID, state.CurrentRound, state.CurrentTurn, side)%2 == 0 {
			return combat.MoveKick
		}
		return combat.MovePunch
	default:
		return combat.MovePunch
	}
}

func mixTurn(matchID string, round, turn, side int) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(matchID))
	_, _ = h.Write([]byte{byte(round), byte(turn), byte(side)})
	return h.Sum32()
}
