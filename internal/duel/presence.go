package duel

import (
	"context"

	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/notify"
)

// Forfeit surrenders the whole match. Because surrender is irreversible it
// demands a signed proof of intent, verified against the player's key.
func (mg *Manager) Forfeit(ctx context.Context, matchID, address, signatureHex string) error {
	unlock := mg.lockMatch(matchID)
	defer unlock()

	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return err
	}
	side := m.SideOf(address)
	if side == 0 {
		return validationErr(CodeNotParticipant, "%s is not in match %s", address, matchID)
	}
	if m.Status != StatusInProgress {
		return conflictErr(CodeWrongStatus, "match is %s", m.Status)
	}
	if err := mg.verifier.VerifySurrender(address, matchID, signatureHex); err != nil {
		return validationErr(CodeBadSignature, "%s", err)
	}

	mg.logger.Info("player surrendered",
		zap.String("match_id", matchID),
		zap.String("address", address),
	)
	mg.complete(ctx, m, otherSide(side), "surrender")
	return nil
}

// Disconnect records a side dropping without ending the match; the
// opponent may claim a timeout win once the grace deadline passes.
func (mg *Manager) Disconnect(ctx context.Context, matchID, address string) error {
	unlock := mg.lockMatch(matchID)
	defer unlock()

	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return err
	}
	side := m.SideOf(address)
	if side == 0 {
		return validationErr(CodeNotParticipant, "%s is not in match %s", address, matchID)
	}
	if m.Status.Terminal() {
		return conflictErr(CodeWrongStatus, "match is %s", m.Status)
	}

	grace := mg.now().UTC().Add(mg.cfg.DisconnectGrace)
	if side == 1 {
		m.Player1Connected = false
		m.Player1GraceAt = &grace
	} else {
		m.Player2Connected = false
		m.Player2GraceAt = &grace
	}
	if err := mg.store.Update(ctx, m); err != nil {
		return externalErr(err, "record disconnect")
	}

	mg.logger.Info("player disconnected",
		zap.String("match_id", matchID),
		zap.String("address", address),
	)
	mg.pub.Publish(m.ID, notify.EventOpponentDisconnected, map[string]any{
		"address": address,
		"graceAt": grace,
	})
	return nil
}

// Reconnect clears the disconnect flags and replays the authoritative
// state to the rejoining client.
func (mg *Manager) Reconnect(ctx context.Context, matchID, address string) (GameState, error) {
	unlock := mg.lockMatch(matchID)
	defer unlock()

	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return GameState{}, err
	}
	side := m.SideOf(address)
	if side == 0 {
		return GameState{}, validationErr(CodeNotParticipant, "%s is not in match %s", address, matchID)
	}

	if !m.Status.Terminal() {
		if side == 1 {
			m.Player1Connected = true
			m.Player1GraceAt = nil
		} else {
			m.Player2Connected = true
			m.Player2GraceAt = nil
		}
		if err := mg.store.Update(ctx, m); err != nil {
			return GameState{}, externalErr(err, "record reconnect")
		}
		mg.pub.Publish(m.ID, notify.EventOpponentReconnected, map[string]any{"address": address})
	}

	gs := GameState{Match: m}
	if m.Status == StatusInProgress || m.Status == StatusCompleted {
		st, err := mg.stateFor(ctx, m)
		if err != nil {
			return GameState{}, err
		}
		gs.Combat = &st
	}
	return gs, nil
}

// Timeout claim results.
const (
	TimeoutWin       = "win"
	TimeoutCancelled = "cancelled"
	TimeoutNoAction  = "no_action"
)

// ClaimTimeout lets the connected side claim victory over an opponent
// whose disconnect grace has run out. With both sides gone the match is
// cancelled instead.
func (mg *Manager) ClaimTimeout(ctx context.Context, matchID, address string) (string, error) {
	unlock := mg.lockMatch(matchID)
	defer unlock()

	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return "", err
	}
	side := m.SideOf(address)
	if side == 0 {
		return "", validationErr(CodeNotParticipant, "%s is not in match %s", address, matchID)
	}
	if m.Status != StatusInProgress {
		return "", conflictErr(CodeWrongStatus, "match is %s", m.Status)
	}

	now := mg.now().UTC()
	opp := otherSide(side)
	oppExpired := !m.connected(opp) && m.graceAt(opp) != nil && !now.Before(*m.graceAt(opp))
	selfExpired := !m.connected(side) && m.graceAt(side) != nil && !now.Before(*m.graceAt(side))

	switch {
	case oppExpired && m.connected(side):
		mg.complete(ctx, m, side, "opponent_timeout")
		return TimeoutWin, nil
	case oppExpired && selfExpired:
		mg.cancel(ctx, m, "both_disconnected")
		return TimeoutCancelled, nil
	default:
		return TimeoutNoAction, nil
	}
}

// Move timeout results.
const (
	MoveTimeoutCancelled = "match_cancelled"
	MoveTimeoutForfeited = "round_forfeited"
	MoveTimeoutNoAction  = "no_action"
)

// MoveTimeoutResult reports what a move-deadline check did.
type MoveTimeoutResult struct {
	Result      string `json:"result"`
	RoundWinner int    `json:"roundWinner,omitempty"`
}

// MoveTimeout enforces the move deadline: the side that failed to act
// forfeits the round; if neither side acted, the match is cancelled.
// Callable by a participant or by the sweeper.
func (mg *Manager) MoveTimeout(ctx context.Context, matchID string) (MoveTimeoutResult, error) {
	unlock := mg.lockMatch(matchID)
	defer unlock()

	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return MoveTimeoutResult{}, err
	}
	return mg.moveTimeoutLocked(ctx, m)
}

func (mg *Manager) moveTimeoutLocked(ctx context.Context, m Match) (MoveTimeoutResult, error) {
	if m.Status != StatusInProgress {
		return MoveTimeoutResult{Result: MoveTimeoutNoAction}, nil
	}
	if m.MoveDeadlineAt == nil || mg.now().UTC().Before(*m.MoveDeadlineAt) {
		return MoveTimeoutResult{Result: MoveTimeoutNoAction}, nil
	}

	st, err := mg.stateFor(ctx, m)
	if err != nil {
		return MoveTimeoutResult{}, err
	}
	moves, err := mg.store.MovesForTurn(ctx, m.ID, st.CurrentRound, st.CurrentTurn)
	if err != nil {
		return MoveTimeoutResult{}, externalErr(err, "load turn actions")
	}

	acted := map[int]bool{}
	for _, mv := range moves {
		if !mv.Rejected {
			acted[mv.Side] = true
		}
	}

	switch {
	case acted[1] && acted[2]:
		// Both moves are in; resolution is already on its way.
		return MoveTimeoutResult{Result: MoveTimeoutNoAction}, nil
	case acted[1]:
		if err := mg.forfeitRound(ctx, m, st, 2, "move_timeout"); err != nil {
			return MoveTimeoutResult{}, err
		}
		return MoveTimeoutResult{Result: MoveTimeoutForfeited, RoundWinner: 1}, nil
	case acted[2]:
		if err := mg.forfeitRound(ctx, m, st, 1, "move_timeout"); err != nil {
			return MoveTimeoutResult{}, err
		}
		return MoveTimeoutResult{Result: MoveTimeoutForfeited, RoundWinner: 2}, nil
	default:
		mg.cancel(ctx, m, "both_timed_out")
		return MoveTimeoutResult{Result: MoveTimeoutCancelled}, nil
	}
}
