package duel

import (
	"context"
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/bot"
	"github.com/kaspaclash/arena-server/internal/notify"
	"github.com/kaspaclash/arena-server/internal/stake"
)

// Room codes avoid 0/O, 1/I/L so they survive being read out loud.
const (
	roomCodeAlphabet = "23456789ABCDEFGHJKMNPQRSTUVWXYZ"
	roomCodeLength   = 6
)

func newRoomCode() string {
	max := big.NewInt(int64(len(roomCodeAlphabet)))
	buf := make([]byte, roomCodeLength)
	for i := range buf {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			// crypto/rand only fails when the platform entropy source is
			// broken; there is no sensible recovery.
			panic(err)
		}
		buf[i] = roomCodeAlphabet[n.Int64()]
	}
	return string(buf)
}

// CreateRoom opens a code-joined (non-ranked) match. With vsBot the house
// bot takes the second seat immediately and selection starts; bot rooms
// cannot carry a stake.
func (mg *Manager) CreateRoom(ctx context.Context, host, stakeSompi string, vsBot bool) (Match, error) {
	if host == "" {
		return Match{}, validationErr(CodeNotParticipant, "host address is required")
	}
	if stakeSompi != "" && !stake.ValidAmount(stakeSompi) {
		return Match{}, validationErr(CodeInvalidStake, "stake must be a positive decimal sompi amount")
	}
	if vsBot && stakeSompi != "" {
		return Match{}, validationErr(CodeInvalidStake, "bot matches cannot be staked")
	}

	m := Match{
		ID:               uuid.NewString(),
		Player1:          host,
		Status:           StatusWaiting,
		Format:           mg.cfg.DefaultFormat,
		RoomCode:         newRoomCode(),
		StakeSompi:       stakeSompi,
		Player1Connected: true,
		CreatedAt:        mg.now().UTC(),
	}

	if vsBot {
		deadline := mg.now().UTC().Add(mg.cfg.SelectionTimeout)
		m.VsBot = true
		m.Player2 = bot.Address
		m.Player2Connected = true
		m.Player2Character = bot.DefaultCharacter
		m.Player2Confirmed = true
		m.Status = StatusCharacterSelect
		m.SelectionDeadlineAt = &deadline
	}

	if err := mg.store.Create(ctx, m); err != nil {
		return Match{}, externalErr(err, "create room")
	}

	mg.logger.Info("room created",
		zap.String("match_id", m.ID),
		zap.String("host", host),
		zap.String("code", m.RoomCode),
		zap.Bool("vs_bot", vsBot),
		zap.Bool("staked", m.Staked()),
	)
	return m, nil
}

// JoinRoom attaches the guest to a waiting room. The attach is a
// conditional write, so two racing joins cannot both take the seat.
func (mg *Manager) JoinRoom(ctx context.Context, guest, code string) (Match, error) {
	if guest == "" {
		return Match{}, validationErr(CodeNotParticipant, "guest address is required")
	}

	m, ok, err := mg.store.GetByCode(ctx, code)
	if err != nil {
		return Match{}, externalErr(err, "lookup room")
	}
	if !ok {
		return Match{}, notFoundErr(CodeRoomNotFound, "no room with code %s", code)
	}
	if guest == m.Player1 {
		return Match{}, validationErr(CodeSelfJoin, "cannot join your own room")
	}
	if m.Status != StatusWaiting || m.Player2 != "" {
		return Match{}, conflictErr(CodeRoomFull, "room %s is no longer open", code)
	}

	attached, err := mg.store.AttachGuest(ctx, m.ID, guest)
	if err != nil {
		return Match{}, externalErr(err, "join room")
	}
	if !attached {
		return Match{}, conflictErr(CodeRoomFull, "room %s is no longer open", code)
	}

	unlock := mg.lockMatch(m.ID)
	defer unlock()

	m, err = mg.Get(ctx, m.ID)
	if err != nil {
		return Match{}, err
	}
	m.Status = StatusCharacterSelect
	m.Player2Connected = true
	now := mg.now().UTC()
	if m.Staked() {
		// Selection waits until both deposits confirm.
		deadline := now.Add(mg.cfg.StakeTimeout)
		m.StakeDeadlineAt = &deadline
	} else {
		deadline := now.Add(mg.cfg.SelectionTimeout)
		m.SelectionDeadlineAt = &deadline
	}
	if err := mg.store.Update(ctx, m); err != nil {
		return Match{}, externalErr(err, "join room")
	}

	mg.logger.Info("guest joined room",
		zap.String("match_id", m.ID),
		zap.String("guest", guest),
	)
	mg.pub.Publish(m.ID, notify.EventPlayerJoined, map[string]any{
		"hostAddress":         m.Player1,
		"guestAddress":        guest,
		"stakeAmountSompi":    m.StakeSompi,
		"stakeDeadlineAt":     m.StakeDeadlineAt,
		"selectionDeadlineAt": m.SelectionDeadlineAt,
	})
	return m, nil
}

// ConfirmStake records a side's deposit transaction. When the second
// deposit lands, character selection opens.
func (mg *Manager) ConfirmStake(ctx context.Context, matchID, address, txID string) (Match, error) {
	if txID == "" {
		return Match{}, validationErr(CodeMissingAuth, "transaction id is required")
	}

	unlock := mg.lockMatch(matchID)
	defer unlock()

	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return Match{}, err
	}
	side := m.SideOf(address)
	if side == 0 {
		return Match{}, validationErr(CodeNotParticipant, "%s is not in match %s", address, matchID)
	}
	if m.Status != StatusCharacterSelect {
		return Match{}, conflictErr(CodeWrongStatus, "match is %s", m.Status)
	}
	if !m.Staked() {
		return Match{}, validationErr(CodeInvalidStake, "match carries no stake")
	}

	if side == 1 {
		if m.Player1StakeTx != "" {
			return Match{}, conflictErr(CodeAlreadyStaked, "stake already confirmed")
		}
		m.Player1StakeTx = txID
	} else {
		if m.Player2StakeTx != "" {
			return Match{}, conflictErr(CodeAlreadyStaked, "stake already confirmed")
		}
		m.Player2StakeTx = txID
	}

	if m.StakesConfirmed() {
		deadline := mg.now().UTC().Add(mg.cfg.SelectionTimeout)
		m.StakeDeadlineAt = nil
		m.SelectionDeadlineAt = &deadline
	}
	if err := mg.store.Update(ctx, m); err != nil {
		return Match{}, externalErr(err, "confirm stake")
	}

	mg.pub.Publish(m.ID, notify.EventStakeConfirmed, map[string]any{
		"address":             address,
		"bothConfirmed":       m.StakesConfirmed(),
		"selectionDeadlineAt": m.SelectionDeadlineAt,
	})
	if m.StakesConfirmed() {
		mg.pub.Publish(m.ID, notify.EventSelectionStarted, map[string]any{
			"selectionDeadlineAt": m.SelectionDeadlineAt,
		})
	}
	return m, nil
}
