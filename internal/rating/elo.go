// Package rating maintains player skill ratings, updated on ranked match
// completion with a standard Elo exchange.
package rating

import (
	"context"
	"math"

	"go.uber.org/zap"
)

const (
	// DefaultRating seeds players with no history.
	DefaultRating = 1000
	kFactor       = 32
	floorRating   = 100
)

// Store persists one rating per address.
type Store interface {
	Rating(ctx context.Context, address string) (int, bool, error)
	SetRating(ctx context.Context, address string, rating int) error
}

// Change reports one side of a rating update.
type Change struct {
	Address string `json:"address"`
	Before  int    `json:"before"`
	After   int    `json:"after"`
	Change  int    `json:"change"`
}

// Updater applies Elo updates.
type Updater struct {
	store  Store
	logger *zap.Logger
}

// NewUpdater creates a rating updater.
func NewUpdater(store Store, logger *zap.Logger) *Updater {
	return &Updater{store: store, logger: logger}
}

// RatingOf returns the stored rating, or the default for new players.
func (u *Updater) RatingOf(ctx context.Context, address string) (int, error) {
	r, ok, err := u.store.Rating(ctx, address)
	if err != nil {
		return 0, err
	}
	if !ok {
		return DefaultRating, nil
	}
	return r, nil
}

// Update applies the winner/loser exchange and persists both sides.
func (u *Updater) Update(ctx context.Context, winnerAddr, loserAddr string) (Change, Change, error) {
	winBefore, err := u.RatingOf(ctx, winnerAddr)
	if err != nil {
		return Change{}, Change{}, err
	}
	loseBefore, err := u.RatingOf(ctx, loserAddr)
	if err != nil {
		return Change{}, Change{}, err
	}

	delta := eloDelta(winBefore, loseBefore)
	winAfter := winBefore + delta
	loseAfter := loseBefore - delta
	if loseAfter < floorRating {
		loseAfter = floorRating
	}

	if err := u.store.SetRating(ctx, winnerAddr, winAfter); err != nil {
		return Change{}, Change{}, err
	}
	if err := u.store.SetRating(ctx, loserAddr, loseAfter); err != nil {
		return Change{}, Change{}, err
	}

	u.logger.Info("ratings updated",
		zap.String("winner", winnerAddr),
		zap.Int("winner_rating", winAfter),
		zap.String("loser", loserAddr),
		zap.Int("loser_rating", loseAfter),
		zap.Int("delta", delta),
	)

	return Change{Address: winnerAddr, Before: winBefore, After: winAfter, Change: delta},
		Change{Address: loserAddr, Before: loseBefore, After: loseAfter, Change: loseAfter - loseBefore},
		nil
}

// eloDelta is the winner's gain given both ratings before the match.
func eloDelta(winner, loser int) int {
	expected := 1.0 / (1.0 + math.Pow(10, float64(loser-winner)/400.0))
	delta := int(math.Round(kFactor * (1.0 - expected)))
	if delta < 1 {
		delta = 1
	}
	return delta
}
