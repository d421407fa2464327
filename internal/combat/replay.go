package combat

import "fmt"

// HistoryEntry is one persisted turn of a match, in resolution order.
// Forfeited rounds are recorded with Forfeit set and the loser side.
type HistoryEntry struct {
	Move1   Move `json:"move1"`
	Move2   Move `json:"move2"`
	Forfeit int  `json:"forfeit,omitempty"` // 0 none, else losing side
}

// Rebuild replays a persisted move history from scratch and returns the
// resulting state. Because ResolveTurn is deterministic this always
// reproduces the authoritative state, which is what reconnecting clients
// and audits rely on.
func Rebuild(char1ID, char2ID string, format Format, history []HistoryEntry) (State, error) {
	s, err := NewState(char1ID, char2ID, format)
	if err != nil {
		return State{}, err
	}
	for i, h := range history {
		if h.Forfeit != 0 {
			s, _, err = ForfeitRound(s, h.Forfeit)
		} else {
			s, _, err = ResolveTurn(s, h.Move1, h.Move2)
		}
		if err != nil {
			return State{}, fmt.Errorf("replay entry %d: %w", i, err)
		}
	}
	return s, nil
}
