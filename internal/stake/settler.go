// Package stake settles escrowed match stakes. The chain client that moves
// funds is an external collaborator; this package records settlement intent
// and hands it off. Amounts travel as decimal sompi strings end to end so
// no precision is lost.
package stake

import (
	"context"
	"fmt"
	"math/big"

	"go.uber.org/zap"
)

// Settler resolves a staked match's escrow.
type Settler interface {
	// Refund returns both deposits, used on cancellation.
	Refund(ctx context.Context, matchID string) error
	// Payout sends the pot to the winner, used on completion.
	Payout(ctx context.Context, matchID, winnerAddress string) error
}

// ValidAmount reports whether s is a positive integer sompi amount in
// decimal form.
func ValidAmount(s string) bool {
	n, ok := new(big.Int).SetString(s, 10)
	return ok && n.Sign() > 0
}

// LedgerSettler records settlements to the application log; the payout
// daemon consumes the ledger downstream.
type LedgerSettler struct {
	logger *zap.Logger
}

// NewLedgerSettler creates a ledger-backed settler.
func NewLedgerSettler(logger *zap.Logger) *LedgerSettler {
	return &LedgerSettler{logger: logger}
}

func (s *LedgerSettler) Refund(_ context.Context, matchID string) error {
	if matchID == "" {
		return fmt.Errorf("match id is required")
	}
	s.logger.Info("stake refund recorded", zap.String("match_id", matchID))
	return nil
}

func (s *LedgerSettler) Payout(_ context.Context, matchID, winnerAddress string) error {
	if matchID == "" || winnerAddress == "" {
		return fmt.Errorf("match id and winner are required")
	}
	s.logger.Info("stake payout recorded",
		zap.String("match_id", matchID),
		zap.String("winner", winnerAddress),
	)
	return nil
}
