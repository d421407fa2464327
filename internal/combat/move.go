package combat

import "fmt"

// Move is a combat action submitted for one turn.
type Move string

const (
	MovePunch   Move = "punch"
	MoveKick    Move = "kick"
	MoveBlock   Move = "block"
	MoveSpecial Move = "special"

	// MoveNone is the placeholder used for a side whose action is
	// suppressed (stunned) this turn. It is never accepted from a client.
	MoveNone Move = "none"
)

// Valid reports whether the move may be submitted by a player.
func (m Move) Valid() bool {
	switch m {
	case MovePunch, MoveKick, MoveBlock, MoveSpecial:
		return true
	}
	return false
}

// Outcome classifies what a side's move did this turn.
type Outcome string

const (
	OutcomeHit       Outcome = "hit"
	OutcomeBlocked   Outcome = "blocked"     // attack landed into a block, damage reduced
	OutcomeGuarding  Outcome = "guarding"    // blocked an incoming attack
	OutcomeStaggered Outcome = "staggered"   // punch interrupted by kick
	OutcomeStunned   Outcome = "stunned"     // special interrupted by punch
	OutcomeReflected Outcome = "reflected"   // kick into a block, partial damage bounced back
	OutcomeShattered Outcome = "shattered"   // block broken by a special
	OutcomeBreak     Outcome = "guard_break" // special that broke through a block
	OutcomeIdle      Outcome = "idle"        // no effective action
)

// Base move stats. Damage is scaled by the character's damage modifier for
// the move; the special's energy cost is scaled by the character's special
// cost modifier.
const (
	punchDamage   = 10.0
	kickDamage    = 15.0
	specialDamage = 25.0

	kickEnergyCost    = 25
	specialEnergyCost = 50
)

// Fixed resolution constants.
const (
	staggerClashFactor = 0.75 // kick landing on an interrupted punch
	staggerCarryFactor = 0.5  // outgoing damage while staggered
	reflectFraction    = 0.3  // kick damage bounced back by a block
	shatterBonus       = 1.5  // special damage through a broken block
	blockGuardBuildup  = 25   // guard meter gain per blocking turn
	guardMeterMax      = 100
)

func baseDamage(m Move) float64 {
	switch m {
	case MovePunch:
		return punchDamage
	case MoveKick:
		return kickDamage
	case MoveSpecial:
		return specialDamage
	}
	return 0
}

// EnergyCostFor returns the energy a character pays for a move.
func EnergyCostFor(m Move, c Character) int {
	return energyCost(m, c)
}

func energyCost(m Move, c Character) int {
	switch m {
	case MoveKick:
		return kickEnergyCost
	case MoveSpecial:
		return roundInt(specialEnergyCost * c.SpecialCostModifier)
	}
	return 0
}

// outcomeFor returns the acting side's outcome given both final moves.
// The matrix is total: every (mine, theirs) pair over the five moves is
// covered, MoveNone included.
func outcomeFor(mine, theirs Move) Outcome {
	if mine == MoveNone {
		return OutcomeIdle
	}
	if theirs == MoveNone {
		if mine == MoveBlock {
			return OutcomeGuarding
		}
		return OutcomeHit
	}

	switch mine {
	case MovePunch:
		switch theirs {
		case MoveKick:
			return OutcomeStaggered
		case MoveBlock:
			return OutcomeBlocked
		default: // punch, special
			return OutcomeHit
		}
	case MoveKick:
		switch theirs {
		case MoveBlock:
			return OutcomeReflected
		default: // punch, kick, special
			return OutcomeHit
		}
	case MoveBlock:
		switch theirs {
		case MoveSpecial:
			return OutcomeShattered
		default: // punch, kick, block
			return OutcomeGuarding
		}
	case MoveSpecial:
		switch theirs {
		case MovePunch:
			return OutcomeStunned
		case MoveBlock:
			return OutcomeBreak
		default: // kick, special
			return OutcomeHit
		}
	}
	panic(fmt.Sprintf("combat: unknown move %q", mine))
}
