package duel

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/bot"
	"github.com/kaspaclash/arena-server/internal/combat"
	"github.com/kaspaclash/arena-server/internal/matchmaking"
	"github.com/kaspaclash/arena-server/internal/notify"
	"github.com/kaspaclash/arena-server/internal/rating"
	"github.com/kaspaclash/arena-server/internal/stake"
	"github.com/kaspaclash/arena-server/internal/wallet"
)

// Config carries the server-enforced deadlines. Every deadline handed to a
// client is an absolute timestamp computed from these.
type Config struct {
	SelectionTimeout time.Duration
	MoveTimeout      time.Duration
	StakeTimeout     time.Duration
	DisconnectGrace  time.Duration
	RoomTTL          time.Duration
	SweepInterval    time.Duration
	DefaultFormat    combat.Format
}

// DefaultConfig returns the production timings.
func DefaultConfig() Config {
	return Config{
		SelectionTimeout: 60 * time.Second,
		MoveTimeout:      30 * time.Second,
		StakeTimeout:     2 * time.Minute,
		DisconnectGrace:  45 * time.Second,
		RoomTTL:          30 * time.Minute,
		SweepInterval:    5 * time.Second,
		DefaultFormat:    combat.FormatBestOf3,
	}
}

// RatingUpdater is the rating collaborator invoked on ranked completion.
type RatingUpdater interface {
	Update(ctx context.Context, winnerAddr, loserAddr string) (rating.Change, rating.Change, error)
}

// Manager is the match lifecycle controller. Cross-instance safety comes
// from the store's conditional writes; the per-match mutex only serializes
// turn resolution within this process.
type Manager struct {
	store    Store
	pub      notify.Publisher
	ratings  RatingUpdater
	stakes   stake.Settler
	verifier wallet.SurrenderVerifier
	bots     *bot.Policy
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time

	mu     sync.Mutex
	locks  map[string]*sync.Mutex
	states map[string]combat.State
}

// NewManager wires the controller with its collaborators.
func NewManager(store Store, pub notify.Publisher, ratings RatingUpdater, stakes stake.Settler,
	verifier wallet.SurrenderVerifier, cfg Config, logger *zap.Logger) *Manager {
	return &Manager{
		store:    store,
		pub:      pub,
		ratings:  ratings,
		stakes:   stakes,
		verifier: verifier,
		bots:     bot.New(),
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		locks:    make(map[string]*sync.Mutex),
		states:   make(map[string]combat.State),
	}
}

// SetClock overrides the controller clock for tests.
func (mg *Manager) SetClock(now func() time.Time) { mg.now = now }

func (mg *Manager) lockMatch(id string) func() {
	mg.mu.Lock()
	l, ok := mg.locks[id]
	if !ok {
		l = &sync.Mutex{}
		mg.locks[id] = l
	}
	mg.mu.Unlock()
	l.Lock()
	return l.Unlock
}

// CreateFromQueue creates a ranked match for a freshly claimed pair. Called
// by the pairing engine, which rolls its claims back if this fails.
func (mg *Manager) CreateFromQueue(ctx context.Context, player1, player2 string) (matchmaking.MatchResult, error) {
	deadline := mg.now().UTC().Add(mg.cfg.SelectionTimeout)
	m := Match{
		ID:                  uuid.NewString(),
		Player1:             player1,
		Player2:             player2,
		Status:              StatusCharacterSelect,
		Format:              mg.cfg.DefaultFormat,
		Ranked:              true,
		SelectionDeadlineAt: &deadline,
		Player1Connected:    true,
		Player2Connected:    true,
		CreatedAt:           mg.now().UTC(),
	}
	if err := mg.store.Create(ctx, m); err != nil {
		return matchmaking.MatchResult{}, err
	}

	mg.logger.Info("ranked match created",
		zap.String("match_id", m.ID),
		zap.String("player1", player1),
		zap.String("player2", player2),
	)
	mg.pub.Publish(m.ID, notify.EventSelectionStarted, map[string]any{
		"player1":             player1,
		"player2":             player2,
		"selectionDeadlineAt": deadline,
	})

	return matchmaking.MatchResult{
		MatchID:             m.ID,
		Player1:             player1,
		Player2:             player2,
		SelectionDeadlineAt: deadline,
	}, nil
}

// AbandonActive cancels any non-terminal match the address still plays in.
// A player re-entering matchmaking has walked away from whatever was stuck.
func (mg *Manager) AbandonActive(ctx context.Context, address string) error {
	active, err := mg.store.ActiveByAddress(ctx, address)
	if err != nil {
		return err
	}
	for _, m := range active {
		unlock := mg.lockMatch(m.ID)
		cur, ok, err := mg.store.Get(ctx, m.ID)
		if err == nil && ok && !cur.Status.Terminal() {
			mg.cancel(ctx, cur, "abandoned")
		}
		unlock()
		if err != nil {
			return err
		}
	}
	return nil
}

// Get returns the match record.
func (mg *Manager) Get(ctx context.Context, id string) (Match, error) {
	m, ok, err := mg.store.Get(ctx, id)
	if err != nil {
		return Match{}, externalErr(err, "load match")
	}
	if !ok {
		return Match{}, notFoundErr(CodeMatchNotFound, "match %s not found", id)
	}
	return m, nil
}

// StateSync returns the authoritative game state for a participant; the
// reconnect path and the explicit state fetch both use it.
func (mg *Manager) StateSync(ctx context.Context, matchID, address string) (GameState, error) {
	m, err := mg.Get(ctx, matchID)
	if err != nil {
		return GameState{}, err
	}
	if m.SideOf(address) == 0 {
		return GameState{}, validationErr(CodeNotParticipant, "%s is not in match %s", address, matchID)
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

// stateFor returns the cached combat state, rebuilding it from the
// persisted turn history when the cache is cold (restart, other instance).
func (mg *Manager) stateFor(ctx context.Context, m Match) (combat.State, error) {
	mg.mu.Lock()
	st, ok := mg.states[m.ID]
	mg.mu.Unlock()
	if ok {
		return st, nil
	}

	history, err := mg.store.History(ctx, m.ID)
	if err != nil {
		return combat.State{}, externalErr(err, "load history")
	}
	entries := make([]combat.HistoryEntry, len(history))
	for i, rec := range history {
		entries[i] = combat.HistoryEntry{Move1: rec.Move1, Move2: rec.Move2, Forfeit: rec.Forfeit}
	}
	st, err = combat.Rebuild(m.Player1Character, m.Player2Character, m.Format, entries)
	if err != nil {
		return combat.State{}, externalErr(err, "rebuild state")
	}

	mg.cacheState(m.ID, st)
	return st, nil
}

func (mg *Manager) cacheState(id string, st combat.State) {
	mg.mu.Lock()
	mg.states[id] = st
	mg.mu.Unlock()
}

func (mg *Manager) forget(id string) {
	mg.mu.Lock()
	delete(mg.states, id)
	delete(mg.locks, id)
	mg.mu.Unlock()
}

// complete finishes the match in the winner's favor and fires the external
// effects: rating update for ranked play, stake payout for staked play.
func (mg *Manager) complete(ctx context.Context, m Match, winnerSide int, reason string) Match {
	now := mg.now().UTC()
	m.Status = StatusCompleted
	m.Winner = m.AddressOf(winnerSide)
	m.EndReason = reason
	m.CompletedAt = &now
	m.SelectionDeadlineAt = nil
	m.MoveDeadlineAt = nil
	m.StakeDeadlineAt = nil

	if err := mg.store.Update(ctx, m); err != nil {
		mg.logger.Error("failed to persist completion", zap.String("match_id", m.ID), zap.Error(err))
		return m
	}

	loser := m.AddressOf(otherSide(winnerSide))
	if m.Ranked && !m.VsBot {
		if _, _, err := mg.ratings.Update(ctx, m.Winner, loser); err != nil {
			mg.logger.Warn("rating update failed", zap.String("match_id", m.ID), zap.Error(err))
		}
	}
	if m.Staked() && m.StakesConfirmed() {
		if err := mg.stakes.Payout(ctx, m.ID, m.Winner); err != nil {
			mg.logger.Error("stake payout failed", zap.String("match_id", m.ID), zap.Error(err))
		}
	}

	mg.logger.Info("match completed",
		zap.String("match_id", m.ID),
		zap.String("winner", m.Winner),
		zap.String("reason", reason),
	)
	mg.pub.Publish(m.ID, notify.EventMatchCompleted, map[string]any{
		"winnerAddress": m.Winner,
		"reason":        reason,
	})
	mg.forget(m.ID)
	return m
}

// cancel voids the match with no winner; deposited stakes are refunded.
func (mg *Manager) cancel(ctx context.Context, m Match, reason string) Match {
	now := mg.now().UTC()
	m.Status = StatusCancelled
	m.EndReason = reason
	m.CompletedAt = &now
	m.SelectionDeadlineAt = nil
	m.MoveDeadlineAt = nil
	m.StakeDeadlineAt = nil

	if err := mg.store.Update(ctx, m); err != nil {
		mg.logger.Error("failed to persist cancellation", zap.String("match_id", m.ID), zap.Error(err))
		return m
	}

	if m.Staked() && (m.Player1StakeTx != "" || m.Player2StakeTx != "") {
		if err := mg.stakes.Refund(ctx, m.ID); err != nil {
			mg.logger.Error("stake refund failed", zap.String("match_id", m.ID), zap.Error(err))
		}
	}

	mg.logger.Info("match cancelled",
		zap.String("match_id", m.ID),
		zap.String("reason", reason),
	)
	mg.pub.Publish(m.ID, notify.EventMatchCancelled, map[string]any{"reason": reason})
	mg.forget(m.ID)
	return m
}
