package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/kaspaclash/arena-server/internal/duel"
	"github.com/kaspaclash/arena-server/internal/matchmaking"
)

// MemoryQueueStore is an in-process QueueStore with the same conditional
// write semantics as the Postgres one. Used by tests and single-node dev.
type MemoryQueueStore struct {
	mu      sync.Mutex
	entries map[string]matchmaking.Entry
}

// NewMemoryQueueStore creates an empty queue.
func NewMemoryQueueStore() *MemoryQueueStore {
	return &MemoryQueueStore{entries: make(map[string]matchmaking.Entry)}
}

func (s *MemoryQueueStore) Upsert(_ context.Context, e matchmaking.Entry) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur, ok := s.entries[e.Address]; ok && cur.Status == matchmaking.StatusMatched {
		return false, nil
	}
	s.entries[e.Address] = e
	return true, nil
}

func (s *MemoryQueueStore) Get(_ context.Context, address string) (matchmaking.Entry, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[address]
	return e, ok, nil
}

func (s *MemoryQueueStore) Delete(_ context.Context, address string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, address)
	return nil
}

func (s *MemoryQueueStore) Candidates(_ context.Context, network string, minRating, maxRating int, exclude string, limit int) ([]matchmaking.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var out []matchmaking.Entry
	for _, e := range s.entries {
		if e.Status != matchmaking.StatusSearching || e.Network != network || e.Address == exclude {
			continue
		}
		if e.Rating < minRating || e.Rating > maxRating {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].JoinedAt.Equal(out[j].JoinedAt) {
			return out[i].Address < out[j].Address
		}
		return out[i].JoinedAt.Before(out[j].JoinedAt)
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *MemoryQueueStore) Claim(_ context.Context, address, by string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[address]
	if !ok || e.Status != matchmaking.StatusSearching {
		return false, nil
	}
	e.Status = matchmaking.StatusMatched
	e.MatchedWith = by
	s.entries[address] = e
	return true, nil
}

func (s *MemoryQueueStore) Release(_ context.Context, address string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.entries[address]
	if !ok || e.Status != matchmaking.StatusMatched {
		return false, nil
	}
	e.Status = matchmaking.StatusSearching
	e.MatchedWith = ""
	s.entries[address] = e
	return true, nil
}

func (s *MemoryQueueStore) DeleteStale(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for addr, e := range s.entries {
		if e.Status == matchmaking.StatusSearching && e.JoinedAt.Before(cutoff) {
			delete(s.entries, addr)
			n++
		}
	}
	return n, nil
}

type moveKey struct {
	matchID     string
	round, turn int
	side        int
}

// MemoryMatchStore is the in-process duel.Store counterpart.
type MemoryMatchStore struct {
	mu      sync.Mutex
	matches map[string]duel.Match
	byCode  map[string]string
	moves   map[moveKey]duel.SubmittedMove
	turns   map[string][]duel.TurnRecord

	// FailCreate forces Create to fail; pairing rollback tests use it.
	FailCreate error
}

// NewMemoryMatchStore creates an empty match store.
func NewMemoryMatchStore() *MemoryMatchStore {
	return &MemoryMatchStore{
		matches: make(map[string]duel.Match),
		byCode:  make(map[string]string),
		moves:   make(map[moveKey]duel.SubmittedMove),
		turns:   make(map[string][]duel.TurnRecord),
	}
}

func (s *MemoryMatchStore) Create(_ context.Context, m duel.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.FailCreate != nil {
		return s.FailCreate
	}
	s.matches[m.ID] = m
	if m.RoomCode != "" {
		s.byCode[m.RoomCode] = m.ID
	}
	return nil
}

func (s *MemoryMatchStore) Get(_ context.Context, id string) (duel.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	return m, ok, nil
}

func (s *MemoryMatchStore) GetByCode(_ context.Context, code string) (duel.Match, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id, ok := s.byCode[code]
	if !ok {
		return duel.Match{}, false, nil
	}
	m, ok := s.matches[id]
	return m, ok, nil
}

func (s *MemoryMatchStore) Update(_ context.Context, m duel.Match) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.matches[m.ID] = m
	return nil
}

func (s *MemoryMatchStore) AttachGuest(_ context.Context, id, guest string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok || m.Status != duel.StatusWaiting || m.Player2 != "" {
		return false, nil
	}
	m.Player2 = guest
	s.matches[id] = m
	return true, nil
}

func (s *MemoryMatchStore) ActiveByAddress(_ context.Context, address string) ([]duel.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []duel.Match
	for _, m := range s.matches {
		if !m.Status.Terminal() && m.SideOf(address) != 0 {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryMatchStore) Due(_ context.Context, now, waitingCutoff time.Time) ([]duel.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	passed := func(t *time.Time) bool { return t != nil && !now.Before(*t) }

	var out []duel.Match
	for _, m := range s.matches {
		if m.Status.Terminal() {
			continue
		}
		switch {
		case m.Status == duel.StatusWaiting && !m.CreatedAt.After(waitingCutoff):
			out = append(out, m)
		case passed(m.StakeDeadlineAt), passed(m.SelectionDeadlineAt), passed(m.MoveDeadlineAt),
			passed(m.Player1GraceAt), passed(m.Player2GraceAt):
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *MemoryMatchStore) PutMove(_ context.Context, mv duel.SubmittedMove) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	k := moveKey{matchID: mv.MatchID, round: mv.Round, turn: mv.Turn, side: mv.Side}
	if _, exists := s.moves[k]; exists {
		return false, nil
	}
	s.moves[k] = mv
	return true, nil
}

func (s *MemoryMatchStore) MovesForTurn(_ context.Context, matchID string, round, turn int) ([]duel.SubmittedMove, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []duel.SubmittedMove
	for side := 1; side <= 2; side++ {
		if mv, ok := s.moves[moveKey{matchID: matchID, round: round, turn: turn, side: side}]; ok {
			out = append(out, mv)
		}
	}
	return out, nil
}

func (s *MemoryMatchStore) AppendTurn(_ context.Context, rec duel.TurnRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.turns[rec.MatchID] = append(s.turns[rec.MatchID], rec)
	return nil
}

func (s *MemoryMatchStore) History(_ context.Context, matchID string) ([]duel.TurnRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]duel.TurnRecord, len(s.turns[matchID]))
	copy(out, s.turns[matchID])
	return out, nil
}

// MemoryRatingStore keeps ratings in a map.
type MemoryRatingStore struct {
	mu      sync.Mutex
	ratings map[string]int
}

// NewMemoryRatingStore creates an empty rating store.
func NewMemoryRatingStore() *MemoryRatingStore {
	return &MemoryRatingStore{ratings: make(map[string]int)}
}

func (s *MemoryRatingStore) Rating(_ context.Context, address string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.ratings[address]
	return r, ok, nil
}

func (s *MemoryRatingStore) SetRating(_ context.Context, address string, r int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ratings[address] = r
	return nil
}
