package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
)

// PGRatingStore persists ladder ratings.
type PGRatingStore struct {
	db *DB
}

// NewPGRatingStore wraps the pool.
func NewPGRatingStore(db *DB) *PGRatingStore {
	return &PGRatingStore{db: db}
}

func (s *PGRatingStore) Rating(ctx context.Context, address string) (int, bool, error) {
	var r int
	err := s.db.Pool.QueryRow(ctx,
		`SELECT rating FROM ratings WHERE address = $1`, address).Scan(&r)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return r, true, nil
}

func (s *PGRatingStore) SetRating(ctx context.Context, address string, r int) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO ratings (address, rating, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (address) DO UPDATE
		SET rating = EXCLUDED.rating, updated_at = NOW()`,
		address, r)
	return err
}
