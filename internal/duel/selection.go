package duel

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/combat"
	"github.com/kaspaclash/arena-server/internal/notify"
)

// SelectionResult tells the caller whether both sides are locked in.
type SelectionResult struct {
	MatchReady          bool       `json:"matchReady"`
	SelectionDeadlineAt *time.Time `json:"selectionDeadlineAt,omitempty"`
	MoveDeadlineAt      *time.Time `json:"moveDeadlineAt,omitempty"`
}

// SelectCharacter records a side's pick. A confirmed pick is final; once
// both sides confirm, combat state is initialized and the match goes
// in_progress.
func (mg *Manager) SelectCharacter(ctx context.Context, matchID, address, characterID string, confirm bool) (SelectionResult, error) {
	if _, ok := combat.CharacterByID(characterID); !ok {
		return SelectionResult{}, validationErr(CodeUnknownChar, "unknown character %q", characterID)
	}

	unlock := mg.lockMatch(matchID)
	defer unlock()

	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return SelectionResult{}, err
	}
	side := m.SideOf(address)
	if side == 0 {
		return SelectionResult{}, validationErr(CodeNotParticipant, "%s is not in match %s", address, matchID)
	}
	if m.Status != StatusCharacterSelect {
		return SelectionResult{}, conflictErr(CodeWrongStatus, "match is %s", m.Status)
	}
	if !m.StakesConfirmed() {
		return SelectionResult{}, conflictErr(CodeStakePending, "selection opens once both stakes confirm")
	}
	if m.confirmed(side) {
		return SelectionResult{}, conflictErr(CodeWrongStatus, "selection already confirmed")
	}

	if side == 1 {
		m.Player1Character = characterID
		m.Player1Confirmed = confirm
	} else {
		m.Player2Character = characterID
		m.Player2Confirmed = confirm
	}

	ready := m.Player1Confirmed && m.Player2Confirmed
	if ready {
		if err := mg.startCombat(ctx, &m); err != nil {
			return SelectionResult{}, err
		}
	} else if err := mg.store.Update(ctx, m); err != nil {
		return SelectionResult{}, externalErr(err, "save selection")
	}

	mg.pub.Publish(m.ID, notify.EventCharacterSelected, map[string]any{
		"address":     address,
		"characterId": characterID,
		"confirmed":   confirm,
		"matchReady":  ready,
	})

	return SelectionResult{
		MatchReady:          ready,
		SelectionDeadlineAt: m.SelectionDeadlineAt,
		MoveDeadlineAt:      m.MoveDeadlineAt,
	}, nil
}

// startCombat initializes the resolver state and opens the first round.
// Caller holds the match lock.
func (mg *Manager) startCombat(ctx context.Context, m *Match) error {
	st, err := combat.NewState(m.Player1Character, m.Player2Character, m.Format)
	if err != nil {
		return validationErr(CodeUnknownChar, "%s", err)
	}

	deadline := mg.now().UTC().Add(mg.cfg.MoveTimeout)
	m.Status = StatusInProgress
	m.SelectionDeadlineAt = nil
	m.MoveDeadlineAt = &deadline
	if err := mg.store.Update(ctx, *m); err != nil {
		return externalErr(err, "start combat")
	}
	mg.cacheState(m.ID, st)

	mg.logger.Info("combat started",
		zap.String("match_id", m.ID),
		zap.String("player1_character", m.Player1Character),
		zap.String("player2_character", m.Player2Character),
		zap.String("format", string(m.Format)),
	)
	mg.pub.Publish(m.ID, notify.EventMatchStarted, map[string]any{
		"combatState":    st,
		"moveDeadlineAt": deadline,
	})
	return nil
}
