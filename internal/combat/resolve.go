package combat

import "fmt"

// ResolveTurn applies both submitted moves to the state and returns the
// next state plus the turn record. It is a pure function: identical inputs
// always produce identical outputs, so no clock, randomness, or logging is
// allowed in here. Callers must not invoke it once MatchOver is set.
func ResolveTurn(s State, move1, move2 Move) (State, TurnResult, error) {
	if s.MatchOver {
		return s, TurnResult{}, fmt.Errorf("match already over")
	}
	s.RoundOver = false
	s.RoundWinner = 0
	char1, ok := CharacterByID(s.Player1.CharacterID)
	if !ok {
		return s, TurnResult{}, fmt.Errorf("unknown character %q", s.Player1.CharacterID)
	}
	char2, ok := CharacterByID(s.Player2.CharacterID)
	if !ok {
		return s, TurnResult{}, fmt.Errorf("unknown character %q", s.Player2.CharacterID)
	}

	r1 := PlayerTurnResult{Move: move1, Effects: []string{}}
	r2 := PlayerTurnResult{Move: move2, Effects: []string{}}

	// Carried statuses from the previous turn. A stunned side loses its
	// action outright; a staggered side acts at half strength.
	stag1, stag2 := s.Player1.Staggered, s.Player2.Staggered
	if s.Player1.Stunned {
		r1.Move = MoveNone
		r1.Effects = append(r1.Effects, EffectStunSkipped)
	}
	if s.Player2.Stunned {
		r2.Move = MoveNone
		r2.Effects = append(r2.Effects, EffectStunSkipped)
	}
	s.Player1.Stunned, s.Player2.Stunned = false, false
	s.Player1.Staggered, s.Player2.Staggered = false, false

	// Energy gate: an unaffordable move is substituted with punch, the
	// zero-cost move. Never silently free.
	gateEnergy(&r1, s.Player1.Energy, char1)
	gateEnergy(&r2, s.Player2.Energy, char2)

	r1.Outcome = outcomeFor(r1.Move, r2.Move)
	r2.Outcome = outcomeFor(r2.Move, r1.Move)

	dealt1 := damageDealt(r1, r2, char1, char2, stag1)
	dealt2 := damageDealt(r2, r1, char2, char1, stag2)

	// Reflected kicks hurt the kicker as well.
	self1 := reflectedDamage(r1, char1, stag1)
	self2 := reflectedDamage(r2, char2, stag2)

	r1.DamageDealt = dealt1
	r2.DamageDealt = dealt2
	r1.DamageTaken = dealt2 + self1
	r2.DamageTaken = dealt1 + self2

	s.Player1.HP = clamp(s.Player1.HP-r1.DamageTaken, 0, s.Player1.MaxHP)
	s.Player2.HP = clamp(s.Player2.HP-r2.DamageTaken, 0, s.Player2.MaxHP)

	// Energy: pay for the final move (an interrupted special still paid for
	// the attempt), then regen.
	r1.EnergySpent = energyCost(r1.Move, char1)
	r2.EnergySpent = energyCost(r2.Move, char2)
	s.Player1.Energy = clamp(s.Player1.Energy-r1.EnergySpent+char1.EnergyRegen, 0, s.Player1.MaxEnergy)
	s.Player2.Energy = clamp(s.Player2.Energy-r2.EnergySpent+char2.EnergyRegen, 0, s.Player2.MaxEnergy)

	applyGuardMeter(&s.Player1, &r1)
	applyGuardMeter(&s.Player2, &r2)

	// New statuses earned this turn.
	if r1.Outcome == OutcomeStaggered {
		s.Player1.Staggered = true
		r1.Effects = append(r1.Effects, EffectStaggered)
	}
	if r2.Outcome == OutcomeStaggered {
		s.Player2.Staggered = true
		r2.Effects = append(r2.Effects, EffectStaggered)
	}
	if r1.Outcome == OutcomeStunned {
		s.Player1.Stunned = true
		r1.Effects = append(r1.Effects, EffectStunned)
	}
	if r2.Outcome == OutcomeStunned {
		s.Player2.Stunned = true
		r2.Effects = append(r2.Effects, EffectStunned)
	}

	s = settleRound(s)
	if !s.RoundOver {
		s.CurrentTurn++
	}

	result := TurnResult{Player1: r1, Player2: r2, Narrative: narrative(r1, r2, s)}
	return s, result, nil
}

// ForfeitRound ends the current round against the given side without any
// exchange of moves: used for move timeouts and transaction rejections.
// The forfeiting side's hp drops to zero so round accounting and replay
// stay on the single code path.
func ForfeitRound(s State, loser int) (State, TurnResult, error) {
	if s.MatchOver {
		return s, TurnResult{}, fmt.Errorf("match already over")
	}
	if loser != 1 && loser != 2 {
		return s, TurnResult{}, fmt.Errorf("invalid side %d", loser)
	}

	s.RoundOver = false
	s.RoundWinner = 0
	round := s.CurrentRound
	s.side(loser).HP = 0
	r1 := PlayerTurnResult{Move: MoveNone, Outcome: OutcomeIdle, Effects: []string{}}
	r2 := PlayerTurnResult{Move: MoveNone, Outcome: OutcomeIdle, Effects: []string{}}
	if loser == 1 {
		r1.Effects = append(r1.Effects, EffectForfeit)
	} else {
		r2.Effects = append(r2.Effects, EffectForfeit)
	}

	s = settleRound(s)
	result := TurnResult{
		Player1:   r1,
		Player2:   r2,
		Narrative: fmt.Sprintf("player %d forfeits round %d", loser, round),
	}
	return s, result, nil
}

func gateEnergy(r *PlayerTurnResult, energy int, c Character) {
	if r.Move == MoveNone {
		return
	}
	if energyCost(r.Move, c) > energy {
		r.Move = MovePunch
		r.Effects = append(r.Effects, EffectExhausted)
	}
}

// damageDealt computes the damage the acting side inflicts on its opponent.
func damageDealt(mine, theirs PlayerTurnResult, me, them Character, staggered bool) int {
	var factor float64
	switch mine.Outcome {
	case OutcomeHit:
		factor = 1
		if mine.Move == MoveKick && theirs.Move == MovePunch {
			// Clash with an interrupted punch lands softer.
			factor = staggerClashFactor
		}
	case OutcomeBlocked:
		factor = 1 - them.BlockEffectiveness
	case OutcomeReflected:
		factor = 1 - them.BlockEffectiveness
	case OutcomeBreak:
		factor = shatterBonus
	default:
		// guarding, staggered, stunned, shattered, idle deal nothing
		return 0
	}
	dmg := baseDamage(mine.Move) * me.modifier(mine.Move) * factor
	if staggered {
		dmg *= staggerCarryFactor
	}
	return roundInt(dmg)
}

// reflectedDamage is the self-damage a kicker takes when kicking into a
// block.
func reflectedDamage(mine PlayerTurnResult, me Character, staggered bool) int {
	if mine.Outcome != OutcomeReflected {
		return 0
	}
	dmg := baseDamage(mine.Move) * me.modifier(mine.Move) * reflectFraction
	if staggered {
		dmg *= staggerCarryFactor
	}
	return roundInt(dmg)
}

func applyGuardMeter(p *PlayerState, r *PlayerTurnResult) {
	switch r.Outcome {
	case OutcomeShattered:
		// Guard break by a special: meter resets outright.
		p.GuardMeter = 0
	case OutcomeGuarding:
		r.GuardBuildup = blockGuardBuildup
		p.GuardMeter += blockGuardBuildup
		if p.GuardMeter >= guardMeterMax {
			// Overloaded guard: the meter snaps and leaves the blocker open.
			p.GuardMeter = 0
			p.Stunned = true
			r.Effects = append(r.Effects, EffectGuardBroken)
		}
	}
}

// settleRound checks hp totals, closes the round if someone dropped, and
// either finishes the match or deals fresh stats for the next round.
func settleRound(s State) State {
	if s.Player1.HP > 0 && s.Player2.HP > 0 {
		return s
	}

	s.RoundOver = true
	switch {
	case s.Player1.HP <= 0 && s.Player2.HP <= 0:
		// Double KO: the round is a draw and gets replayed, no tally change.
		s.RoundWinner = 0
	case s.Player1.HP <= 0:
		s.RoundWinner = 2
	default:
		s.RoundWinner = 1
	}

	if s.RoundWinner != 0 {
		winner := s.side(s.RoundWinner)
		winner.RoundsWon++
		if winner.RoundsWon >= s.RoundsToWin {
			s.MatchOver = true
			s.MatchWinner = s.RoundWinner
			return s
		}
	}

	// Next round: fresh hp/energy/guard, tallies preserved.
	c1, _ := CharacterByID(s.Player1.CharacterID)
	c2, _ := CharacterByID(s.Player2.CharacterID)
	won1, won2 := s.Player1.RoundsWon, s.Player2.RoundsWon
	s.Player1 = freshSide(c1)
	s.Player2 = freshSide(c2)
	s.Player1.RoundsWon = won1
	s.Player2.RoundsWon = won2
	s.CurrentRound++
	s.CurrentTurn = 1
	return s
}

func narrative(r1, r2 PlayerTurnResult, s State) string {
	if s.MatchOver {
		return fmt.Sprintf("%s vs %s: player %d wins the match %d-%d",
			r1.Move, r2.Move, s.MatchWinner, s.side(s.MatchWinner).RoundsWon, s.side(other(s.MatchWinner)).RoundsWon)
	}
	if s.RoundOver {
		if s.RoundWinner == 0 {
			return fmt.Sprintf("%s vs %s: double knockout, round replayed", r1.Move, r2.Move)
		}
		return fmt.Sprintf("%s vs %s: player %d takes the round", r1.Move, r2.Move, s.RoundWinner)
	}
	return fmt.Sprintf("%s (%s) vs %s (%s)", r1.Move, r1.Outcome, r2.Move, r2.Outcome)
}
