package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kaspaclash/arena-server/internal/matchmaking"
)

// PGQueueStore is the Postgres matchmaking queue. Claim and Release are
// conditional UPDATEs; the row's status column is the compare-and-swap
// target that keeps two pairing attempts from taking the same player.
type PGQueueStore struct {
	db *DB
}

// NewPGQueueStore wraps the pool.
func NewPGQueueStore(db *DB) *PGQueueStore {
	return &PGQueueStore{db: db}
}

func (s *PGQueueStore) Upsert(ctx context.Context, e matchmaking.Entry) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO queue_entries (address, rating, network, status, matched_with, joined_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (address) DO UPDATE
		SET rating = EXCLUDED.rating,
		    network = EXCLUDED.network,
		    status = EXCLUDED.status,
		    matched_with = EXCLUDED.matched_with,
		    joined_at = EXCLUDED.joined_at
		WHERE queue_entries.status = $7`,
		e.Address, e.Rating, e.Network, e.Status, e.MatchedWith, e.JoinedAt,
		matchmaking.StatusSearching)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGQueueStore) Get(ctx context.Context, address string) (matchmaking.Entry, bool, error) {
	var e matchmaking.Entry
	err := s.db.Pool.QueryRow(ctx, `
		SELECT address, rating, network, status, matched_with, joined_at
		FROM queue_entries WHERE address = $1`, address).
		Scan(&e.Address, &e.Rating, &e.Network, &e.Status, &e.MatchedWith, &e.JoinedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return matchmaking.Entry{}, false, nil
	}
	if err != nil {
		return matchmaking.Entry{}, false, err
	}
	return e, true, nil
}

func (s *PGQueueStore) Delete(ctx context.Context, address string) error {
	_, err := s.db.Pool.Exec(ctx, `DELETE FROM queue_entries WHERE address = $1`, address)
	return err
}

func (s *PGQueueStore) Candidates(ctx context.Context, network string, minRating, maxRating int, exclude string, limit int) ([]matchmaking.Entry, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT address, rating, network, status, matched_with, joined_at
		FROM queue_entries
		WHERE network = $1
		  AND status = $2
		  AND rating BETWEEN $3 AND $4
		  AND address <> $5
		ORDER BY joined_at ASC, address ASC
		LIMIT $6`,
		network, matchmaking.StatusSearching, minRating, maxRating, exclude, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []matchmaking.Entry
	for rows.Next() {
		var e matchmaking.Entry
		if err := rows.Scan(&e.Address, &e.Rating, &e.Network, &e.Status, &e.MatchedWith, &e.JoinedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (s *PGQueueStore) Claim(ctx context.Context, address, by string) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE queue_entries
		SET status = $1, matched_with = $2
		WHERE address = $3 AND status = $4`,
		matchmaking.StatusMatched, by, address, matchmaking.StatusSearching)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGQueueStore) Release(ctx context.Context, address string) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE queue_entries
		SET status = $1, matched_with = ''
		WHERE address = $2 AND status = $3`,
		matchmaking.StatusSearching, address, matchmaking.StatusMatched)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGQueueStore) DeleteStale(ctx context.Context, cutoff time.Time) (int, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		DELETE FROM queue_entries WHERE status = $1 AND joined_at < $2`,
		matchmaking.StatusSearching, cutoff)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
