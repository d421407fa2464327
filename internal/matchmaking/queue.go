package matchmaking

import (
	"context"
	"time"
)

// Status of a queue entry. The searching→matched transition is the claim:
// it must be a conditional write so exactly one pairing attempt wins it.
type Status string

const (
	StatusSearching Status = "searching"
	StatusMatched   Status = "matched"
)

// Entry is a player actively looking for an opponent.
type Entry struct {
	Address     string    `json:"address"`
	Rating      int       `json:"rating"`
	Network     string    `json:"network"` // compatibility partition, e.g. mainnet/testnet
	JoinedAt    time.Time `json:"joinedAt"`
	Status      Status    `json:"status"`
	MatchedWith string    `json:"matchedWith,omitempty"`
}

// QueueStore is the persistent queue table. Claim and Release are the CAS
// primitives: they must only apply when the entry is still in the expected
// status and report whether they did.
type QueueStore interface {
	// Upsert inserts the entry or refreshes an existing searching one.
	// A matched row belongs to its claimer and must not be overwritten;
	// Upsert reports false, leaving recovery to Release or the sweep.
	Upsert(ctx context.Context, e Entry) (bool, error)
	Get(ctx context.Context, address string) (Entry, bool, error)
	Delete(ctx context.Context, address string) error

	// Candidates returns searching entries in the given partition whose
	// rating lies in [minRating, maxRating], excluding the given address,
	// oldest joiners first, at most limit rows.
	Candidates(ctx context.Context, network string, minRating, maxRating int, exclude string, limit int) ([]Entry, error)

	// Claim flips address from searching to matched-with-by. Returns false
	// without error when the entry is gone or no longer searching.
	Claim(ctx context.Context, address, by string) (bool, error)

	// Release flips address from matched back to searching (claim rollback).
	Release(ctx context.Context, address string) (bool, error)

	// DeleteStale removes searching entries older than the cutoff and
	// returns how many went.
	DeleteStale(ctx context.Context, cutoff time.Time) (int, error)
}

// MatchResult is what a successful pairing hands back to the caller.
type MatchResult struct {
	MatchID             string    `json:"matchId"`
	Player1             string    `json:"player1"`
	Player2             string    `json:"player2"`
	SelectionDeadlineAt time.Time `json:"selectionDeadlineAt"`
}

// MatchCreator turns a claimed pair into a persistent match. AbandonActive
// cancels any stuck match the address is still part of; re-entering the
// queue counts as walking away from it.
type MatchCreator interface {
	CreateFromQueue(ctx context.Context, player1, player2 string) (MatchResult, error)
	AbandonActive(ctx context.Context, address string) error
}
