package combat

import "fmt"

// Format is the match length.
type Format string

const (
	FormatBestOf3 Format = "best_of_3"
	FormatBestOf5 Format = "best_of_5"
)

// RoundsToWin derives the win target from the format.
func (f Format) RoundsToWin() int {
	if f == FormatBestOf5 {
		return 3
	}
	return 2
}

// Valid reports whether the format is known.
func (f Format) Valid() bool {
	return f == FormatBestOf3 || f == FormatBestOf5
}

// PlayerState is one combatant's side of the state.
type PlayerState struct {
	CharacterID string `json:"characterId"`
	HP          int    `json:"hp"`
	MaxHP       int    `json:"maxHp"`
	Energy      int    `json:"energy"`
	MaxEnergy   int    `json:"maxEnergy"`
	GuardMeter  int    `json:"guardMeter"`
	Stunned     bool   `json:"isStunned"`
	Staggered   bool   `json:"isStaggered"`
	RoundsWon   int    `json:"roundsWon"`
}

// State is the authoritative combat state of a match. Sides are 1 and 2;
// index helpers keep the two symmetric code paths honest.
type State struct {
	Player1 PlayerState `json:"player1"`
	Player2 PlayerState `json:"player2"`

	CurrentRound int    `json:"currentRound"`
	CurrentTurn  int    `json:"currentTurn"`
	Format       Format `json:"matchFormat"`
	RoundsToWin  int    `json:"roundsToWin"`

	RoundOver   bool `json:"isRoundOver"`
	MatchOver   bool `json:"isMatchOver"`
	RoundWinner int  `json:"roundWinner"` // 1, 2, or 0 for none/draw
	MatchWinner int  `json:"matchWinner"` // 1, 2, or 0 while undecided
}

// PlayerTurnResult describes one side's contribution to a resolved turn.
type PlayerTurnResult struct {
	Move         Move     `json:"move"`
	Outcome      Outcome  `json:"outcome"`
	DamageDealt  int      `json:"damageDealt"`
	DamageTaken  int      `json:"damageTaken"`
	EnergySpent  int      `json:"energySpent"`
	GuardBuildup int      `json:"guardBuildup"`
	Effects      []string `json:"effects"`
}

// TurnResult is the full record of one resolved turn. Append-only history
// material; never mutated after creation.
type TurnResult struct {
	Player1   PlayerTurnResult `json:"player1"`
	Player2   PlayerTurnResult `json:"player2"`
	Narrative string           `json:"narrative"`
}

// Status effect names carried in PlayerTurnResult.Effects.
const (
	EffectStunned     = "stunned"
	EffectStaggered   = "staggered"
	EffectStunSkipped = "stun_skipped"
	EffectExhausted   = "exhausted"
	EffectGuardBroken = "guard_broken"
	EffectForfeit     = "round_forfeit"
)

// NewState builds the initial state for two confirmed characters.
func NewState(char1ID, char2ID string, format Format) (State, error) {
	c1, ok := CharacterByID(char1ID)
	if !ok {
		return State{}, fmt.Errorf("unknown character %q", char1ID)
	}
	c2, ok := CharacterByID(char2ID)
	if !ok {
		return State{}, fmt.Errorf("unknown character %q", char2ID)
	}
	return State{
		Player1:      freshSide(c1),
		Player2:      freshSide(c2),
		CurrentRound: 1,
		CurrentTurn:  1,
		Format:       format,
		RoundsToWin:  format.RoundsToWin(),
	}, nil
}

func freshSide(c Character) PlayerState {
	return PlayerState{
		CharacterID: c.ID,
		HP:          c.MaxHP,
		MaxHP:       c.MaxHP,
		Energy:      c.MaxEnergy,
		MaxEnergy:   c.MaxEnergy,
	}
}

func (s *State) side(n int) *PlayerState {
	if n == 1 {
		return &s.Player1
	}
	return &s.Player2
}

func other(n int) int {
	if n == 1 {
		return 2
	}
	return 1
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func roundInt(f float64) int {
	if f < 0 {
		return 0
	}
	return int(f + 0.5)
}
