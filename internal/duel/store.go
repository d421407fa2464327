package duel

import (
	"context"
	"time"

	"github.com/kaspaclash/arena-server/internal/combat"
)

// SubmittedMove is one side's action for one turn. The (match, round, turn,
// side) key is unique in storage: inserting it twice must fail, which is
// what makes move acceptance race-free.
type SubmittedMove struct {
	MatchID     string      `json:"matchId"`
	Round       int         `json:"round"`
	Turn        int         `json:"turn"`
	Side        int         `json:"side"`
	Address     string      `json:"address"`
	Move        combat.Move `json:"move"`
	TxID        string      `json:"txId,omitempty"`
	Rejected    bool        `json:"rejected,omitempty"`
	SubmittedAt time.Time   `json:"submittedAt"`
}

// TurnRecord is the append-only log of resolved turns; the combat state of
// any match is reconstructible by replaying it.
type TurnRecord struct {
	MatchID   string            `json:"matchId"`
	Round     int               `json:"round"`
	Turn      int               `json:"turn"`
	Move1     combat.Move       `json:"move1"`
	Move2     combat.Move       `json:"move2"`
	Forfeit   int               `json:"forfeit,omitempty"`
	Result    combat.TurnResult `json:"result"`
	State     combat.State      `json:"state"`
	CreatedAt time.Time         `json:"createdAt"`
}

// Store is the persistent match table plus its move/turn logs. AttachGuest
// and PutMove are conditional writes: they report false instead of applying
// when their precondition no longer holds.
type Store interface {
	Create(ctx context.Context, m Match) error
	Get(ctx context.Context, id string) (Match, bool, error)
	GetByCode(ctx context.Context, code string) (Match, bool, error)
	Update(ctx context.Context, m Match) error

	// AttachGuest sets player2 iff the match is still waiting with no
	// second player.
	AttachGuest(ctx context.Context, id, guest string) (bool, error)

	// ActiveByAddress lists non-terminal matches the address plays in.
	ActiveByAddress(ctx context.Context, address string) ([]Match, error)

	// Due lists non-terminal matches with any deadline at or before now,
	// plus waiting rooms created before waitingCutoff.
	Due(ctx context.Context, now, waitingCutoff time.Time) ([]Match, error)

	// PutMove inserts iff no action exists for (match, round, turn, side).
	PutMove(ctx context.Context, mv SubmittedMove) (bool, error)
	MovesForTurn(ctx context.Context, matchID string, round, turn int) ([]SubmittedMove, error)

	AppendTurn(ctx context.Context, rec TurnRecord) error
	History(ctx context.Context, matchID string) ([]TurnRecord, error)
}
