package duel

import (
	"context"

	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/bot"
	"github.com/kaspaclash/arena-server/internal/combat"
	"github.com/kaspaclash/arena-server/internal/notify"
)

// SubmitMove accepts one side's move for the current turn. Acceptance is a
// conditional insert on (match, round, turn, side): a resubmission before
// resolution is a conflict. The transaction id is the authorization gate:
// no txId, no durable accept.
func (mg *Manager) SubmitMove(ctx context.Context, matchID, address string, mv combat.Move, txID string) error {
	if !mv.Valid() {
		return validationErr(CodeInvalidMove, "unknown move %q", mv)
	}
	if txID == "" {
		return validationErr(CodeMissingAuth, "move requires an authorization transaction id")
	}

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

	st, err := mg.stateFor(ctx, m)
	if err != nil {
		return err
	}

	accepted, err := mg.store.PutMove(ctx, SubmittedMove{
		MatchID:     matchID,
		Round:       st.CurrentRound,
		Turn:        st.CurrentTurn,
		Side:        side,
		Address:     address,
		Move:        mv,
		TxID:        txID,
		SubmittedAt: mg.now().UTC(),
	})
	if err != nil {
		return externalErr(err, "accept move")
	}
	if !accepted {
		return conflictErr(CodeDuplicateMove, "move already submitted for this turn")
	}

	mg.logger.Debug("move accepted",
		zap.String("match_id", matchID),
		zap.String("address", address),
		zap.String("move", string(mv)),
		zap.Int("round", st.CurrentRound),
		zap.Int("turn", st.CurrentTurn),
	)

	if m.VsBot {
		mg.submitBotMove(ctx, m, st)
	}
	return mg.tryResolveTurn(ctx, m, st)
}

// submitBotMove drops the house bot's move in right behind the player's.
// Best effort: losing the insert race just means the slot already filled.
func (mg *Manager) submitBotMove(ctx context.Context, m Match, st combat.State) {
	botSide := m.SideOf(bot.Address)
	if botSide == 0 {
		return
	}
	mv := mg.bots.ChooseMove(m.ID, st, botSide)
	_, err := mg.store.PutMove(ctx, SubmittedMove{
		MatchID:     m.ID,
		Round:       st.CurrentRound,
		Turn:        st.CurrentTurn,
		Side:        botSide,
		Address:     bot.Address,
		Move:        mv,
		TxID:        "bot",
		SubmittedAt: mg.now().UTC(),
	})
	if err != nil {
		mg.logger.Warn("bot move insert failed", zap.String("match_id", m.ID), zap.Error(err))
	}
}

// Reject lets a side refuse to authorize its move for the current turn.
// One rejection forfeits the round once the opponent has acted; mutual
// rejection cancels the match. Returns match_cancelled, opponent_wins or
// waiting.
func (mg *Manager) Reject(ctx context.Context, matchID, address string) (string, error) {
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

	st, err := mg.stateFor(ctx, m)
	if err != nil {
		return "", err
	}

	accepted, err := mg.store.PutMove(ctx, SubmittedMove{
		MatchID:     matchID,
		Round:       st.CurrentRound,
		Turn:        st.CurrentTurn,
		Side:        side,
		Address:     address,
		Rejected:    true,
		SubmittedAt: mg.now().UTC(),
	})
	if err != nil {
		return "", externalErr(err, "record rejection")
	}
	if !accepted {
		return "", conflictErr(CodeDuplicateMove, "action already submitted for this turn")
	}

	moves, err := mg.store.MovesForTurn(ctx, matchID, st.CurrentRound, st.CurrentTurn)
	if err != nil {
		return "", externalErr(err, "load turn actions")
	}
	if len(moves) < 2 {
		return "waiting", nil
	}

	if err := mg.resolveTurn(ctx, m, st, moves); err != nil {
		return "", err
	}
	final, err := mg.Get(ctx, matchID)
	if err != nil {
		return "", err
	}
	if final.Status == StatusCancelled {
		return "match_cancelled", nil
	}
	return "opponent_wins", nil
}

// tryResolveTurn resolves the current turn once both actions are in.
// Caller holds the match lock.
func (mg *Manager) tryResolveTurn(ctx context.Context, m Match, st combat.State) error {
	moves, err := mg.store.MovesForTurn(ctx, m.ID, st.CurrentRound, st.CurrentTurn)
	if err != nil {
		return externalErr(err, "load turn actions")
	}
	if len(moves) < 2 {
		return nil
	}
	return mg.resolveTurn(ctx, m, st, moves)
}

// resolveTurn runs the combat engine over the pair of submitted actions and
// persists the outcome. Rejections route through the forfeit path so the
// turn log stays complete.
func (mg *Manager) resolveTurn(ctx context.Context, m Match, st combat.State, moves []SubmittedMove) error {
	var act1, act2 *SubmittedMove
	for i := range moves {
		switch moves[i].Side {
		case 1:
			act1 = &moves[i]
		case 2:
			act2 = &moves[i]
		}
	}
	if act1 == nil || act2 == nil {
		return nil
	}

	switch {
	case act1.Rejected && act2.Rejected:
		mg.cancel(ctx, m, "both_rejected")
		return nil
	case act1.Rejected:
		return mg.forfeitRound(ctx, m, st, 1, "rejected")
	case act2.Rejected:
		return mg.forfeitRound(ctx, m, st, 2, "rejected")
	}

	next, result, err := combat.ResolveTurn(st, act1.Move, act2.Move)
	if err != nil {
		return externalErr(err, "resolve turn")
	}

	rec := TurnRecord{
		MatchID:   m.ID,
		Round:     st.CurrentRound,
		Turn:      st.CurrentTurn,
		Move1:     act1.Move,
		Move2:     act2.Move,
		Result:    result,
		State:     next,
		CreatedAt: mg.now().UTC(),
	}
	return mg.commitTurn(ctx, m, next, rec)
}

// forfeitRound awards the current round to the opponent of loserSide.
func (mg *Manager) forfeitRound(ctx context.Context, m Match, st combat.State, loserSide int, reason string) error {
	next, result, err := combat.ForfeitRound(st, loserSide)
	if err != nil {
		return externalErr(err, "forfeit round")
	}

	mg.logger.Info("round forfeited",
		zap.String("match_id", m.ID),
		zap.Int("loser_side", loserSide),
		zap.String("reason", reason),
	)
	rec := TurnRecord{
		MatchID:   m.ID,
		Round:     st.CurrentRound,
		Turn:      st.CurrentTurn,
		Move1:     combat.MoveNone,
		Move2:     combat.MoveNone,
		Forfeit:   loserSide,
		Result:    result,
		State:     next,
		CreatedAt: mg.now().UTC(),
	}
	return mg.commitTurn(ctx, m, next, rec)
}

// commitTurn appends the turn record, advances deadlines or finishes the
// match, and broadcasts the result. Caller holds the match lock.
func (mg *Manager) commitTurn(ctx context.Context, m Match, next combat.State, rec TurnRecord) error {
	if err := mg.store.AppendTurn(ctx, rec); err != nil {
		return externalErr(err, "append turn")
	}
	mg.cacheState(m.ID, next)

	mg.pub.Publish(m.ID, notify.EventTurnResolved, map[string]any{
		"round":       rec.Round,
		"turn":        rec.Turn,
		"result":      rec.Result,
		"combatState": next,
	})
	if next.RoundOver {
		mg.pub.Publish(m.ID, notify.EventRoundEnded, map[string]any{
			"round":       rec.Round,
			"roundWinner": next.RoundWinner,
			"rounds": map[string]int{
				"player1": next.Player1.RoundsWon,
				"player2": next.Player2.RoundsWon,
			},
		})
	}

	if next.MatchOver {
		mg.complete(ctx, m, next.MatchWinner, "knockout")
		return nil
	}

	deadline := mg.now().UTC().Add(mg.cfg.MoveTimeout)
	m.MoveDeadlineAt = &deadline
	if err := mg.store.Update(ctx, m); err != nil {
		return externalErr(err, "advance deadline")
	}
	return nil
}
