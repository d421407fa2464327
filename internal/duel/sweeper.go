package duel

import (
	"context"
	"time"

	"github.com/go-co-op/gocron/v2"
	"go.uber.org/zap"
)

// SweepDeadlines advances every match whose deadline has passed. Deadlines
// are enforced here, not by clients: an absent client can never stall a
// match.
func (mg *Manager) SweepDeadlines(ctx context.Context) error {
	now := mg.now().UTC()
	due, err := mg.store.Due(ctx, now, now.Add(-mg.cfg.RoomTTL))
	if err != nil {
		return err
	}

	for _, m := range due {
		unlock := mg.lockMatch(m.ID)
		cur, ok, err := mg.store.Get(ctx, m.ID)
		if err != nil || !ok || cur.Status.Terminal() {
			unlock()
			continue
		}
		mg.sweepOne(ctx, cur, now)
		unlock()
	}
	return nil
}

// sweepOne applies the deadline rules for one match. Caller holds the lock.
func (mg *Manager) sweepOne(ctx context.Context, m Match, now time.Time) {
	expired := func(t *time.Time) bool { return t != nil && !now.Before(*t) }

	switch m.Status {
	case StatusWaiting:
		if now.Sub(m.CreatedAt) >= mg.cfg.RoomTTL {
			mg.cancel(ctx, m, "room_expired")
		}

	case StatusCharacterSelect:
		if expired(m.StakeDeadlineAt) && !m.StakesConfirmed() {
			mg.cancel(ctx, m, "stake_timeout")
			return
		}
		if expired(m.SelectionDeadlineAt) {
			mg.sweepSelection(ctx, m)
		}

	case StatusInProgress:
		grace1 := expired(m.Player1GraceAt) && !m.Player1Connected
		grace2 := expired(m.Player2GraceAt) && !m.Player2Connected
		switch {
		case grace1 && grace2:
			mg.cancel(ctx, m, "both_disconnected")
			return
		case grace1 && m.Player2Connected:
			mg.complete(ctx, m, 2, "opponent_timeout")
			return
		case grace2 && m.Player1Connected:
			mg.complete(ctx, m, 1, "opponent_timeout")
			return
		}
		if expired(m.MoveDeadlineAt) {
			if _, err := mg.moveTimeoutLocked(ctx, m); err != nil {
				mg.logger.Warn("move timeout sweep failed", zap.String("match_id", m.ID), zap.Error(err))
			}
		}
	}
}

// sweepSelection handles an expired character-selection deadline: with one
// side locked in, a staked match goes to that side and an unstaked one is
// cancelled; with neither locked in the match is always cancelled.
func (mg *Manager) sweepSelection(ctx context.Context, m Match) {
	switch {
	case m.Player1Confirmed == m.Player2Confirmed:
		// Neither (or, in a lost race, both) confirmed.
		mg.cancel(ctx, m, "selection_timeout")
	case m.Staked():
		winner := 1
		if m.Player2Confirmed {
			winner = 2
		}
		mg.complete(ctx, m, winner, "selection_timeout")
	default:
		mg.cancel(ctx, m, "selection_timeout")
	}
}

// Sweeper periodically runs the deadline sweep plus any extra hygiene
// tasks (the matchmaking queue's stale-entry sweep rides along).
type Sweeper struct {
	sched  gocron.Scheduler
	logger *zap.Logger
}

// NewSweeper schedules the manager's deadline sweep and the given extra
// tasks at the configured interval. Call Start to begin, Stop to halt.
func NewSweeper(mg *Manager, logger *zap.Logger, extra ...func(context.Context) error) (*Sweeper, error) {
	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, err
	}

	tasks := append([]func(context.Context) error{mg.SweepDeadlines}, extra...)
	_, err = sched.NewJob(
		gocron.DurationJob(mg.cfg.SweepInterval),
		gocron.NewTask(func() {
			ctx, cancel := context.WithTimeout(context.Background(), mg.cfg.SweepInterval)
			defer cancel()
			for _, task := range tasks {
				if err := task(ctx); err != nil {
					logger.Warn("sweep task failed", zap.Error(err))
				}
			}
		}),
	)
	if err != nil {
		return nil, err
	}

	return &Sweeper{sched: sched, logger: logger}, nil
}

// Start begins the periodic sweep.
func (s *Sweeper) Start() { s.sched.Start() }

// Stop halts the scheduler and waits for in-flight jobs.
func (s *Sweeper) Stop() {
	if err := s.sched.Shutdown(); err != nil {
		s.logger.Warn("sweeper shutdown error", zap.Error(err))
	}
}
