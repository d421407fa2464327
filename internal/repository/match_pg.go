package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/kaspaclash/arena-server/internal/combat"
	"github.com/kaspaclash/arena-server/internal/duel"
)

const matchColumns = `id, player1, player2, status, format, ranked, vs_bot,
	room_code, stake_sompi, stake_deadline_at, selection_deadline_at,
	move_deadline_at, player1_character, player2_character,
	player1_confirmed, player2_confirmed, player1_stake_tx, player2_stake_tx,
	player1_connected, player2_connected, player1_grace_at, player2_grace_at,
	winner, end_reason, created_at, completed_at`

// PGMatchStore is the Postgres duel.Store. AttachGuest and PutMove rely on
// row conditions and the primary key rather than application locks, so the
// guarantees hold across server instances.
type PGMatchStore struct {
	db *DB
}

// NewPGMatchStore wraps the pool.
func NewPGMatchStore(db *DB) *PGMatchStore {
	return &PGMatchStore{db: db}
}

func (s *PGMatchStore) Create(ctx context.Context, m duel.Match) error {
	_, err := s.db.Pool.Exec(ctx, `
		INSERT INTO matches (`+matchColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
		        $14, $15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26)`,
		matchArgs(m)...)
	return err
}

func (s *PGMatchStore) Get(ctx context.Context, id string) (duel.Match, bool, error) {
	return s.getWhere(ctx, `id = $1`, id)
}

func (s *PGMatchStore) GetByCode(ctx context.Context, code string) (duel.Match, bool, error) {
	return s.getWhere(ctx, `room_code = $1 AND room_code <> ''`, code)
}

func (s *PGMatchStore) getWhere(ctx context.Context, cond string, arg any) (duel.Match, bool, error) {
	row := s.db.Pool.QueryRow(ctx, `SELECT `+matchColumns+` FROM matches WHERE `+cond, arg)
	m, err := scanMatch(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return duel.Match{}, false, nil
	}
	if err != nil {
		return duel.Match{}, false, err
	}
	return m, true, nil
}

func (s *PGMatchStore) Update(ctx context.Context, m duel.Match) error {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE matches SET
			player1 = $2, player2 = $3, status = $4, format = $5,
			ranked = $6, vs_bot = $7, room_code = $8, stake_sompi = $9,
			stake_deadline_at = $10, selection_deadline_at = $11,
			move_deadline_at = $12, player1_character = $13,
			player2_character = $14, player1_confirmed = $15,
			player2_confirmed = $16, player1_stake_tx = $17,
			player2_stake_tx = $18, player1_connected = $19,
			player2_connected = $20, player1_grace_at = $21,
			player2_grace_at = $22, winner = $23, end_reason = $24,
			created_at = $25, completed_at = $26
		WHERE id = $1`,
		matchArgs(m)...)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("match %s not found", m.ID)
	}
	return nil
}

func (s *PGMatchStore) AttachGuest(ctx context.Context, id, guest string) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		UPDATE matches SET player2 = $2
		WHERE id = $1 AND status = $3 AND player2 = ''`,
		id, guest, duel.StatusWaiting)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGMatchStore) ActiveByAddress(ctx context.Context, address string) ([]duel.Match, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE (player1 = $1 OR player2 = $1)
		  AND status NOT IN ($2, $3)`,
		address, duel.StatusCompleted, duel.StatusCancelled)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (s *PGMatchStore) Due(ctx context.Context, now, waitingCutoff time.Time) ([]duel.Match, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT `+matchColumns+` FROM matches
		WHERE status NOT IN ($1, $2)
		  AND (stake_deadline_at <= $3
		    OR selection_deadline_at <= $3
		    OR move_deadline_at <= $3
		    OR player1_grace_at <= $3
		    OR player2_grace_at <= $3
		    OR (status = $4 AND created_at <= $5))`,
		duel.StatusCompleted, duel.StatusCancelled, now, duel.StatusWaiting, waitingCutoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanMatches(rows)
}

func (s *PGMatchStore) PutMove(ctx context.Context, mv duel.SubmittedMove) (bool, error) {
	tag, err := s.db.Pool.Exec(ctx, `
		INSERT INTO match_moves (match_id, round, turn, side, address, move, tx_id, rejected, submitted_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (match_id, round, turn, side) DO NOTHING`,
		mv.MatchID, mv.Round, mv.Turn, mv.Side, mv.Address, mv.Move, mv.TxID, mv.Rejected, mv.SubmittedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PGMatchStore) MovesForTurn(ctx context.Context, matchID string, round, turn int) ([]duel.SubmittedMove, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT match_id, round, turn, side, address, move, tx_id, rejected, submitted_at
		FROM match_moves
		WHERE match_id = $1 AND round = $2 AND turn = $3
		ORDER BY side ASC`,
		matchID, round, turn)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []duel.SubmittedMove
	for rows.Next() {
		var mv duel.SubmittedMove
		if err := rows.Scan(&mv.MatchID, &mv.Round, &mv.Turn, &mv.Side,
			&mv.Address, &mv.Move, &mv.TxID, &mv.Rejected, &mv.SubmittedAt); err != nil {
			return nil, err
		}
		out = append(out, mv)
	}
	return out, rows.Err()
}

func (s *PGMatchStore) AppendTurn(ctx context.Context, rec duel.TurnRecord) error {
	resultJSON, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("encode turn result: %w", err)
	}
	stateJSON, err := json.Marshal(rec.State)
	if err != nil {
		return fmt.Errorf("encode combat state: %w", err)
	}
	_, err = s.db.Pool.Exec(ctx, `
		INSERT INTO match_turns (match_id, round, turn, move1, move2, forfeit, result, state, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.MatchID, rec.Round, rec.Turn, rec.Move1, rec.Move2, rec.Forfeit,
		resultJSON, stateJSON, rec.CreatedAt)
	return err
}

func (s *PGMatchStore) History(ctx context.Context, matchID string) ([]duel.TurnRecord, error) {
	rows, err := s.db.Pool.Query(ctx, `
		SELECT match_id, round, turn, move1, move2, forfeit, result, state, created_at
		FROM match_turns
		WHERE match_id = $1
		ORDER BY round ASC, turn ASC`,
		matchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []duel.TurnRecord
	for rows.Next() {
		var (
			rec        duel.TurnRecord
			resultJSON []byte
			stateJSON  []byte
		)
		if err := rows.Scan(&rec.MatchID, &rec.Round, &rec.Turn, &rec.Move1,
			&rec.Move2, &rec.Forfeit, &resultJSON, &stateJSON, &rec.CreatedAt); err != nil {
			return nil, err
		}
		if err := json.Unmarshal(resultJSON, &rec.Result); err != nil {
			return nil, fmt.Errorf("decode turn result: %w", err)
		}
		if err := json.Unmarshal(stateJSON, &rec.State); err != nil {
			return nil, fmt.Errorf("decode combat state: %w", err)
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func matchArgs(m duel.Match) []any {
	return []any{
		m.ID, m.Player1, m.Player2, m.Status, m.Format, m.Ranked, m.VsBot,
		m.RoomCode, m.StakeSompi, m.StakeDeadlineAt, m.SelectionDeadlineAt,
		m.MoveDeadlineAt, m.Player1Character, m.Player2Character,
		m.Player1Confirmed, m.Player2Confirmed, m.Player1StakeTx, m.Player2StakeTx,
		m.Player1Connected, m.Player2Connected, m.Player1GraceAt, m.Player2GraceAt,
		m.Winner, m.EndReason, m.CreatedAt, m.CompletedAt,
	}
}

func scanMatch(row pgx.Row) (duel.Match, error) {
	var (
		m      duel.Match
		status string
		format string
	)
	err := row.Scan(&m.ID, &m.Player1, &m.Player2, &status, &format,
		&m.Ranked, &m.VsBot, &m.RoomCode, &m.StakeSompi,
		&m.StakeDeadlineAt, &m.SelectionDeadlineAt, &m.MoveDeadlineAt,
		&m.Player1Character, &m.Player2Character,
		&m.Player1Confirmed, &m.Player2Confirmed,
		&m.Player1StakeTx, &m.Player2StakeTx,
		&m.Player1Connected, &m.Player2Connected,
		&m.Player1GraceAt, &m.Player2GraceAt,
		&m.Winner, &m.EndReason, &m.CreatedAt, &m.CompletedAt)
	if err != nil {
		return duel.Match{}, err
	}
	m.Status = duel.Status(status)
	m.Format = combat.Format(format)
	return m, nil
}

func scanMatches(rows pgx.Rows) ([]duel.Match, error) {
	var out []duel.Match
	for rows.Next() {
		m, err := scanMatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
