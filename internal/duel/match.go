// Package duel drives a match through its lifecycle: selection, staking,
// active rounds, disconnection, timeout and completion. The match row is
// the single source of truth; combat state is derived from the persisted
// turn history and only cached in memory.
package duel

import (
	"time"

	"github.com/kaspaclash/arena-server/internal/combat"
)

// Status is a match lifecycle stage.
type Status string

const (
	StatusWaiting         Status = "waiting" // room awaiting its second player
	StatusCharacterSelect Status = "character_select"
	StatusInProgress      Status = "in_progress"
	StatusCompleted       Status = "completed"
	StatusCancelled       Status = "cancelled"
)

// Terminal reports whether the match can no longer change.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Match is the persistent match record. Stake amounts are decimal sompi
// strings and all deadlines are server-issued absolute timestamps, so a
// reconnecting client and a slow client compute the same remaining time.
type Match struct {
	ID      string        `json:"id"`
	Player1 string        `json:"player1Address"`
	Player2 string        `json:"player2Address,omitempty"`
	Status  Status        `json:"status"`
	Format  combat.Format `json:"format"`
	Ranked  bool          `json:"ranked"`
	VsBot   bool          `json:"vsBot,omitempty"`

	RoomCode   string `json:"roomCode,omitempty"`
	StakeSompi string `json:"stakeAmountSompi,omitempty"`

	StakeDeadlineAt     *time.Time `json:"stakeDeadlineAt,omitempty"`
	SelectionDeadlineAt *time.Time `json:"selectionDeadlineAt,omitempty"`
	MoveDeadlineAt      *time.Time `json:"moveDeadlineAt,omitempty"`

	Player1Character string `json:"player1CharacterId,omitempty"`
	Player2Character string `json:"player2CharacterId,omitempty"`
	Player1Confirmed bool   `json:"player1Confirmed"`
	Player2Confirmed bool   `json:"player2Confirmed"`

	Player1StakeTx string `json:"player1StakeTx,omitempty"`
	Player2StakeTx string `json:"player2StakeTx,omitempty"`

	Player1Connected bool       `json:"player1Connected"`
	Player2Connected bool       `json:"player2Connected"`
	Player1GraceAt   *time.Time `json:"player1GraceAt,omitempty"`
	Player2GraceAt   *time.Time `json:"player2GraceAt,omitempty"`

	Winner    string `json:"winnerAddress,omitempty"`
	EndReason string `json:"endReason,omitempty"`

	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`
}

// SideOf maps an address to its seat, 0 for non-participants.
func (m *Match) SideOf(address string) int {
	switch address {
	case "":
		return 0
	case m.Player1:
		return 1
	case m.Player2:
		return 2
	}
	return 0
}

// AddressOf maps a seat back to its address.
func (m *Match) AddressOf(side int) string {
	if side == 1 {
		return m.Player1
	}
	if side == 2 {
		return m.Player2
	}
	return ""
}

// Staked reports whether the match carries a stake.
func (m *Match) Staked() bool { return m.StakeSompi != "" }

// StakesConfirmed reports whether both deposits are in.
func (m *Match) StakesConfirmed() bool {
	return !m.Staked() || (m.Player1StakeTx != "" && m.Player2StakeTx != "")
}

func (m *Match) characterOf(side int) string {
	if side == 1 {
		return m.Player1Character
	}
	return m.Player2Character
}

func (m *Match) confirmed(side int) bool {
	if side == 1 {
		return m.Player1Confirmed
	}
	return m.Player2Confirmed
}

func (m *Match) connected(side int) bool {
	if side == 1 {
		return m.Player1Connected
	}
	return m.Player2Connected
}

func (m *Match) graceAt(side int) *time.Time {
	if side == 1 {
		return m.Player1GraceAt
	}
	return m.Player2GraceAt
}

func otherSide(side int) int {
	if side == 1 {
		return 2
	}
	return 1
}

// GameState is the authoritative view replayed to a rejoining client.
type GameState struct {
	Match  Match         `json:"match"`
	Combat *combat.State `json:"combatState,omitempty"`
}
