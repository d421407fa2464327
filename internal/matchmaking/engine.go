package matchmaking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// ErrAlreadyMatched rejects an enqueue for a player whose entry has been
// claimed by a pairing attempt. The claimer owns the entry until match
// creation finishes or the claim is rolled back; re-joining must never
// flip it back to searching underneath them.
var ErrAlreadyMatched = errors.New("player is already being paired")

// Config tunes the pairing window and queue hygiene.
type Config struct {
	BaseWindow     int           // rating range before expansion kicks in
	ExpansionRate  int           // rating points added per waited second
	MinWait        time.Duration // wait before the window starts expanding
	MaxWindow      int           // expansion ceiling
	CandidateLimit int           // candidates fetched per attempt
	StaleAfter     time.Duration // queue entries older than this are swept
}

// DefaultConfig matches the documented pairing defaults.
func DefaultConfig() Config {
	return Config{
		BaseWindow:     100,
		ExpansionRate:  5,
		MinWait:        10 * time.Second,
		MaxWindow:      500,
		CandidateLimit: 8,
		StaleAfter:     30 * time.Minute,
	}
}

// Engine pairs searching players. There is no lock around pairing:
// correctness rests on the store's conditional claim plus the
// lower-address-claims tie-break, which guarantees at most one side of any
// eligible pair ever issues the claim.
type Engine struct {
	store   QueueStore
	creator MatchCreator
	cfg     Config
	logger  *zap.Logger
	now     func() time.Time
}

// NewEngine creates a pairing engine.
func NewEngine(store QueueStore, creator MatchCreator, cfg Config, logger *zap.Logger) *Engine {
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultConfig().CandidateLimit
	}
	return &Engine{
		store:   store,
		creator: creator,
		cfg:     cfg,
		logger:  logger,
		now:     time.Now,
	}
}

// SetClock overrides the engine's clock; tests use it to drive window
// expansion without sleeping.
func (e *Engine) SetClock(now func() time.Time) { e.now = now }

// Enqueue inserts or refreshes the caller's queue entry. Idempotent per
// address: re-joining while already searching keeps the original join time.
// Joining the queue abandons any stuck match the player is still listed in.
// A claimed entry is never downgraded: that would let a second pairing
// attempt take a player whose claim is still completing, so the join is
// rejected with ErrAlreadyMatched instead.
func (e *Engine) Enqueue(ctx context.Context, address, network string, rating int) error {
	if address == "" {
		return fmt.Errorf("address is required")
	}

	existing, ok, err := e.store.Get(ctx, address)
	if err != nil {
		return err
	}
	if ok && existing.Status == StatusMatched {
		return ErrAlreadyMatched
	}

	if err := e.creator.AbandonActive(ctx, address); err != nil {
		return fmt.Errorf("abandon active match: %w", err)
	}

	joined := e.now().UTC()
	if ok && existing.Status == StatusSearching {
		joined = existing.JoinedAt
	}

	entry := Entry{
		Address:  address,
		Rating:   rating,
		Network:  network,
		JoinedAt: joined,
		Status:   StatusSearching,
	}
	applied, err := e.store.Upsert(ctx, entry)
	if err != nil {
		return err
	}
	if !applied {
		// Claimed between the read above and the write: same answer.
		return ErrAlreadyMatched
	}

	e.logger.Info("player enqueued",
		zap.String("address", address),
		zap.String("network", network),
		zap.Int("rating", rating),
	)
	return nil
}

// Dequeue removes the caller from the queue. Absent entries are not an
// error; a claim already in flight may still complete, in which case the
// claimer simply finds no entry and backs off.
func (e *Engine) Dequeue(ctx context.Context, address string) error {
	if err := e.store.Delete(ctx, address); err != nil {
		return err
	}
	e.logger.Info("player dequeued", zap.String("address", address))
	return nil
}

// AttemptMatch tries to pair the caller with the best eligible opponent.
// Returns nil with no error when no pairing happened; the caller polls
// again. The claim protocol is two-phase: claim the candidate, then claim
// self, then create the match. Any later failure rolls the earlier claims
// back so nobody is left stranded in matched with no match.
func (e *Engine) AttemptMatch(ctx context.Context, address string) (*MatchResult, error) {
	self, ok, err := e.store.Get(ctx, address)
	if err != nil {
		return nil, err
	}
	if !ok || self.Status != StatusSearching {
		// Not queued, or already claimed by a peer: the claimer finishes
		// match creation, so the claimed side just waits.
		return nil, nil
	}

	window := e.ratingWindow(self)
	candidates, err := e.store.Candidates(ctx, self.Network, self.Rating-window, self.Rating+window, address, e.cfg.CandidateLimit)
	if err != nil {
		return nil, err
	}

	for _, cand := range candidates {
		// Deterministic tie-break: only the lexicographically lower address
		// claims. The higher side will be claimed, never claims.
		if address >= cand.Address {
			continue
		}

		claimed, err := e.store.Claim(ctx, cand.Address, address)
		if err != nil {
			return nil, err
		}
		if !claimed {
			continue // lost the race for this candidate, try the next
		}

		result, err := e.finishPairing(ctx, self, cand)
		if err != nil {
			e.logger.Warn("pairing failed after claim, rolled back",
				zap.String("address", address),
				zap.String("candidate", cand.Address),
				zap.Error(err),
			)
			return nil, err
		}
		if result == nil {
			// Self was claimed mid-flight; candidate has been released.
			return nil, nil
		}
		return result, nil
	}

	return nil, nil
}

// finishPairing runs the second claim phase and match creation, undoing
// the candidate claim (and self claim) on any failure.
func (e *Engine) finishPairing(ctx context.Context, self, cand Entry) (*MatchResult, error) {
	selfClaimed, err := e.store.Claim(ctx, self.Address, cand.Address)
	if err != nil {
		e.release(ctx, cand.Address)
		return nil, err
	}
	if !selfClaimed {
		// A third party claimed us between the eligibility check and now.
		e.release(ctx, cand.Address)
		return nil, nil
	}

	result, err := e.creator.CreateFromQueue(ctx, self.Address, cand.Address)
	if err != nil {
		e.release(ctx, cand.Address)
		e.release(ctx, self.Address)
		return nil, fmt.Errorf("create match: %w", err)
	}

	// Both entries leave the queue; the match record owns them now.
	if err := e.store.Delete(ctx, self.Address); err != nil {
		e.logger.Warn("failed to remove queue entry", zap.String("address", self.Address), zap.Error(err))
	}
	if err := e.store.Delete(ctx, cand.Address); err != nil {
		e.logger.Warn("failed to remove queue entry", zap.String("address", cand.Address), zap.Error(err))
	}

	e.logger.Info("players paired",
		zap.String("match_id", result.MatchID),
		zap.String("player1", result.Player1),
		zap.String("player2", result.Player2),
		zap.Int("rating_gap", abs(self.Rating-cand.Rating)),
	)
	return &result, nil
}

func (e *Engine) release(ctx context.Context, address string) {
	if _, err := e.store.Release(ctx, address); err != nil {
		e.logger.Error("claim rollback failed; entry may be stranded",
			zap.String("address", address),
			zap.Error(err),
		)
	}
}

// ratingWindow widens the acceptable rating gap the longer the player has
// waited: base + (wait - minWait) * rate, capped.
func (e *Engine) ratingWindow(self Entry) int {
	waited := e.now().Sub(self.JoinedAt)
	window := e.cfg.BaseWindow
	if waited > e.cfg.MinWait {
		extra := int(waited.Seconds()-e.cfg.MinWait.Seconds()) * e.cfg.ExpansionRate
		window += extra
	}
	if window > e.cfg.MaxWindow {
		window = e.cfg.MaxWindow
	}
	return window
}

// SweepStale drops entries that have sat in the queue past the ceiling.
func (e *Engine) SweepStale(ctx context.Context) error {
	cutoff := e.now().Add(-e.cfg.StaleAfter)
	n, err := e.store.DeleteStale(ctx, cutoff)
	if err != nil {
		return err
	}
	if n > 0 {
		e.logger.Info("swept stale queue entries", zap.Int("count", n))
	}
	return nil
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
