package duel_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/bot"
	"github.com/kaspaclash/arena-server/internal/combat"
	"github.com/kaspaclash/arena-server/internal/duel"
	"github.com/kaspaclash/arena-server/internal/notify"
	"github.com/kaspaclash/arena-server/internal/rating"
	"github.com/kaspaclash/arena-server/internal/repository"
)

const (
	alice = "kaspa:alice"
	bob   = "kaspa:bob"
)

type capturePublisher struct {
	mu     sync.Mutex
	events []string
}

func (p *capturePublisher) Publish(_ string, event string, _ any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, event)
}

func (p *capturePublisher) has(event string) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, e := range p.events {
		if e == event {
			return true
		}
	}
	return false
}

type fakeRatings struct {
	mu    sync.Mutex
	calls [][2]string
}

func (f *fakeRatings) Update(_ context.Context, winner, loser string) (rating.Change, rating.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, [2]string{winner, loser})
	return rating.Change{}, rating.Change{}, nil
}

type fakeSettler struct {
	mu      sync.Mutex
	refunds []string
	payouts [][2]string
}

func (f *fakeSettler) Refund(_ context.Context, matchID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.refunds = append(f.refunds, matchID)
	return nil
}

func (f *fakeSettler) Payout(_ context.Context, matchID, winner string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payouts = append(f.payouts, [2]string{matchID, winner})
	return nil
}

type fakeVerifier struct{ err error }

func (f *fakeVerifier) VerifySurrender(_, _, _ string) error { return f.err }

type env struct {
	mg       *duel.Manager
	store    *repository.MemoryMatchStore
	pub      *capturePublisher
	ratings  *fakeRatings
	stakes   *fakeSettler
	verifier *fakeVerifier
	now      time.Time
}

func newEnv(t *testing.T) *env {
	t.Helper()
	e := &env{
		store:    repository.NewMemoryMatchStore(),
		pub:      &capturePublisher{},
		ratings:  &fakeRatings{},
		stakes:   &fakeSettler{},
		verifier: &fakeVerifier{},
		now:      time.Date(2026, 2, 1, 9, 0, 0, 0, time.UTC),
	}
	e.mg = duel.NewManager(e.store, e.pub, e.ratings, e.stakes, e.verifier, duel.DefaultConfig(), zap.NewNop())
	e.mg.SetClock(func() time.Time { return e.now })
	return e
}

func (e *env) advance(d time.Duration) { e.now = e.now.Add(d) }

// startedQueueMatch pairs alice and bob and walks them to in_progress.
func startedQueueMatch(t *testing.T, e *env) duel.Match {
	t.Helper()
	ctx := context.Background()

	result, err := e.mg.CreateFromQueue(ctx, alice, bob)
	require.NoError(t, err)

	_, err = e.mg.SelectCharacter(ctx, result.MatchID, alice, "dag-warrior", true)
	require.NoError(t, err)
	sel, err := e.mg.SelectCharacter(ctx, result.MatchID, bob, "cyber-ninja", true)
	require.NoError(t, err)
	require.True(t, sel.MatchReady)

	m, err := e.mg.Get(ctx, result.MatchID)
	require.NoError(t, err)
	require.Equal(t, duel.StatusInProgress, m.Status)
	return m
}

func errKind(t *testing.T, err error) duel.Kind {
	t.Helper()
	var de *duel.Error
	require.ErrorAs(t, err, &de)
	return de.Kind
}

func errCode(t *testing.T, err error) string {
	t.Helper()
	var de *duel.Error
	require.ErrorAs(t, err, &de)
	return de.Code
}

func TestQueueMatchLifecycle(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	result, err := e.mg.CreateFromQueue(ctx, alice, bob)
	require.NoError(t, err)
	assert.NotEmpty(t, result.MatchID)

	m, err := e.mg.Get(ctx, result.MatchID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCharacterSelect, m.Status)
	assert.True(t, m.Ranked)
	require.NotNil(t, m.SelectionDeadlineAt)
	assert.Equal(t, e.now.Add(60*time.Second), *m.SelectionDeadlineAt)
	assert.True(t, e.pub.has(notify.EventSelectionStarted))

	// One confirmation is not enough to start.
	sel, err := e.mg.SelectCharacter(ctx, m.ID, alice, "dag-warrior", true)
	require.NoError(t, err)
	assert.False(t, sel.MatchReady)

	sel, err = e.mg.SelectCharacter(ctx, m.ID, bob, "cyber-ninja", true)
	require.NoError(t, err)
	assert.True(t, sel.MatchReady)
	require.NotNil(t, sel.MoveDeadlineAt)

	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusInProgress, m.Status)
	assert.Nil(t, m.SelectionDeadlineAt)
	assert.True(t, e.pub.has(notify.EventMatchStarted))
}

func TestSelectCharacterGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	result, err := e.mg.CreateFromQueue(ctx, alice, bob)
	require.NoError(t, err)

	_, err = e.mg.SelectCharacter(ctx, result.MatchID, alice, "no-such-fighter", true)
	assert.Equal(t, duel.CodeUnknownChar, errCode(t, err))

	_, err = e.mg.SelectCharacter(ctx, result.MatchID, "kaspa:stranger", "dag-warrior", true)
	assert.Equal(t, duel.CodeNotParticipant, errCode(t, err))

	// A confirmed pick is final.
	_, err = e.mg.SelectCharacter(ctx, result.MatchID, alice, "dag-warrior", true)
	require.NoError(t, err)
	_, err = e.mg.SelectCharacter(ctx, result.MatchID, alice, "cyber-ninja", true)
	assert.Equal(t, duel.KindConflict, errKind(t, err))
}

func TestTurnResolutionFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, alice, combat.MovePunch, "tx-a1"))

	// One move in: nothing resolved yet.
	history, err := e.store.History(ctx, m.ID)
	require.NoError(t, err)
	assert.Empty(t, history)

	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, bob, combat.MoveKick, "tx-b1"))
	history, err = e.store.History(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, combat.MovePunch, history[0].Move1)
	assert.Equal(t, combat.MoveKick, history[0].Move2)
	assert.True(t, e.pub.has(notify.EventTurnResolved))

	// The move deadline advanced for the next turn.
	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	require.NotNil(t, m.MoveDeadlineAt)
	assert.Equal(t, e.now.Add(30*time.Second), *m.MoveDeadlineAt)
}

func TestSubmitMoveGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	err := e.mg.SubmitMove(ctx, m.ID, alice, combat.Move("uppercut"), "tx-1")
	assert.Equal(t, duel.CodeInvalidMove, errCode(t, err))

	err = e.mg.SubmitMove(ctx, m.ID, alice, combat.MovePunch, "")
	assert.Equal(t, duel.CodeMissingAuth, errCode(t, err))

	err = e.mg.SubmitMove(ctx, m.ID, "kaspa:stranger", combat.MovePunch, "tx-1")
	assert.Equal(t, duel.CodeNotParticipant, errCode(t, err))

	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, alice, combat.MovePunch, "tx-1"))
	err = e.mg.SubmitMove(ctx, m.ID, alice, combat.MoveKick, "tx-2")
	assert.Equal(t, duel.CodeDuplicateMove, errCode(t, err))
	assert.Equal(t, duel.KindConflict, errKind(t, err))
}

func TestRejectForfeitsRound(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, alice, combat.MovePunch, "tx-a1"))
	outcome, err := e.mg.Reject(ctx, m.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, "opponent_wins", outcome)

	history, err := e.store.History(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].Forfeit)
	assert.Equal(t, 1, history[0].State.RoundWinner)
	assert.Equal(t, 1, history[0].State.Player1.RoundsWon)
	// Next round opened, match still live.
	assert.Equal(t, 2, history[0].State.CurrentRound)
	assert.False(t, history[0].State.MatchOver)
}

func TestRejectWaitsForOpponent(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	outcome, err := e.mg.Reject(ctx, m.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, "waiting", outcome)
}

func TestMutualRejectCancelsMatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	_, err := e.mg.Reject(ctx, m.ID, alice)
	require.NoError(t, err)
	outcome, err := e.mg.Reject(ctx, m.ID, bob)
	require.NoError(t, err)
	assert.Equal(t, "match_cancelled", outcome)

	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCancelled, m.Status)
	assert.Equal(t, "both_rejected", m.EndReason)
}

func TestSurrenderCompletesAndRates(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.Forfeit(ctx, m.ID, alice, "deadbeef"))

	m, err := e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCompleted, m.Status)
	assert.Equal(t, bob, m.Winner)
	assert.Equal(t, "surrender", m.EndReason)
	require.NotNil(t, m.CompletedAt)

	// Ranked match: winner's rating update ran exactly once.
	e.ratings.mu.Lock()
	defer e.ratings.mu.Unlock()
	require.Len(t, e.ratings.calls, 1)
	assert.Equal(t, [2]string{bob, alice}, e.ratings.calls[0])
}

func TestSurrenderRequiresValidSignature(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	e.verifier.err = assert.AnError
	err := e.mg.Forfeit(ctx, m.ID, alice, "deadbeef")
	assert.Equal(t, duel.CodeBadSignature, errCode(t, err))

	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusInProgress, m.Status)
}

func TestStakedRoomFlow(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.mg.CreateRoom(ctx, alice, "500000000", false)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusWaiting, m.Status)
	assert.Len(t, m.RoomCode, 6)
	assert.False(t, m.Ranked)

	m, err = e.mg.JoinRoom(ctx, bob, m.RoomCode)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCharacterSelect, m.Status)
	require.NotNil(t, m.StakeDeadlineAt, "staked rooms open with a stake deadline")
	assert.Nil(t, m.SelectionDeadlineAt)

	// Selection is gated on both deposits.
	_, err = e.mg.SelectCharacter(ctx, m.ID, alice, "dag-warrior", true)
	assert.Equal(t, duel.CodeStakePending, errCode(t, err))

	m, err = e.mg.ConfirmStake(ctx, m.ID, alice, "stake-tx-a")
	require.NoError(t, err)
	assert.Nil(t, m.SelectionDeadlineAt, "one deposit does not open selection")

	_, err = e.mg.ConfirmStake(ctx, m.ID, alice, "stake-tx-a2")
	assert.Equal(t, duel.CodeAlreadyStaked, errCode(t, err))

	m, err = e.mg.ConfirmStake(ctx, m.ID, bob, "stake-tx-b")
	require.NoError(t, err)
	assert.Nil(t, m.StakeDeadlineAt)
	require.NotNil(t, m.SelectionDeadlineAt)

	_, err = e.mg.SelectCharacter(ctx, m.ID, alice, "dag-warrior", true)
	require.NoError(t, err)
	_, err = e.mg.SelectCharacter(ctx, m.ID, bob, "block-bruiser", true)
	require.NoError(t, err)

	// Winner takes the pot.
	require.NoError(t, e.mg.Forfeit(ctx, m.ID, bob, "deadbeef"))
	e.stakes.mu.Lock()
	defer e.stakes.mu.Unlock()
	require.Len(t, e.stakes.payouts, 1)
	assert.Equal(t, [2]string{m.ID, alice}, e.stakes.payouts[0])
}

func TestRoomJoinGuards(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.mg.CreateRoom(ctx, alice, "", false)
	require.NoError(t, err)

	_, err = e.mg.JoinRoom(ctx, bob, "XXXXXX")
	assert.Equal(t, duel.CodeRoomNotFound, errCode(t, err))

	_, err = e.mg.JoinRoom(ctx, alice, m.RoomCode)
	assert.Equal(t, duel.CodeSelfJoin, errCode(t, err))

	_, err = e.mg.JoinRoom(ctx, bob, m.RoomCode)
	require.NoError(t, err)

	_, err = e.mg.JoinRoom(ctx, "kaspa:carol", m.RoomCode)
	assert.Equal(t, duel.CodeRoomFull, errCode(t, err))
}

func TestCreateRoomValidation(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	_, err := e.mg.CreateRoom(ctx, alice, "not-a-number", false)
	assert.Equal(t, duel.CodeInvalidStake, errCode(t, err))

	_, err = e.mg.CreateRoom(ctx, alice, "-5", false)
	assert.Equal(t, duel.CodeInvalidStake, errCode(t, err))

	_, err = e.mg.CreateRoom(ctx, alice, "100", true)
	assert.Equal(t, duel.CodeInvalidStake, errCode(t, err), "bot matches cannot be staked")
}

func TestBotRoomPlaysImmediately(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.mg.CreateRoom(ctx, alice, "", true)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCharacterSelect, m.Status)
	assert.Equal(t, bot.Address, m.Player2)
	assert.True(t, m.Player2Confirmed)

	sel, err := e.mg.SelectCharacter(ctx, m.ID, alice, "hash-hunter", true)
	require.NoError(t, err)
	assert.True(t, sel.MatchReady)

	// The bot answers within the same submission.
	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, alice, combat.MovePunch, "tx-1"))
	history, err := e.store.History(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
}

func TestDisconnectReconnectAndClaim(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.Disconnect(ctx, m.ID, bob))
	assert.True(t, e.pub.has(notify.EventOpponentDisconnected))

	// Grace not yet expired: the claim does nothing.
	outcome, err := e.mg.ClaimTimeout(ctx, m.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, duel.TimeoutNoAction, outcome)

	// Reconnecting clears the grace deadline and replays state.
	gs, err := e.mg.Reconnect(ctx, m.ID, bob)
	require.NoError(t, err)
	assert.True(t, gs.Match.Player2Connected)
	require.NotNil(t, gs.Combat)
	assert.Equal(t, 1, gs.Combat.CurrentRound)

	// Drop again and let the grace run out.
	require.NoError(t, e.mg.Disconnect(ctx, m.ID, bob))
	e.advance(46 * time.Second)
	outcome, err = e.mg.ClaimTimeout(ctx, m.ID, alice)
	require.NoError(t, err)
	assert.Equal(t, duel.TimeoutWin, outcome)

	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCompleted, m.Status)
	assert.Equal(t, alice, m.Winner)
	assert.Equal(t, "opponent_timeout", m.EndReason)
}

func TestMoveTimeoutForfeitsIdleSide(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, alice, combat.MovePunch, "tx-a1"))

	// Before the deadline nothing happens.
	res, err := e.mg.MoveTimeout(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.MoveTimeoutNoAction, res.Result)

	e.advance(31 * time.Second)
	res, err = e.mg.MoveTimeout(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.MoveTimeoutForfeited, res.Result)
	assert.Equal(t, 1, res.RoundWinner)

	history, err := e.store.History(ctx, m.ID)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, 2, history[0].Forfeit)
}

func TestMoveTimeoutCancelsWhenNobodyActs(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	e.advance(31 * time.Second)
	res, err := e.mg.MoveTimeout(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.MoveTimeoutCancelled, res.Result)

	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCancelled, m.Status)
	assert.Equal(t, "both_timed_out", m.EndReason)
}

func TestAbandonActiveCancelsStuckMatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.AbandonActive(ctx, alice))

	m, err := e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCancelled, m.Status)
	assert.Equal(t, "abandoned", m.EndReason)
}

func TestStateSyncRebuildsFromHistory(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, alice, combat.MoveKick, "tx-a1"))
	require.NoError(t, e.mg.SubmitMove(ctx, m.ID, bob, combat.MovePunch, "tx-b1"))

	warm, err := e.mg.StateSync(ctx, m.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, warm.Combat)

	// A second manager over the same store has a cold cache and must
	// reconstruct the identical state from the turn log.
	cold := duel.NewManager(e.store, e.pub, e.ratings, e.stakes, e.verifier, duel.DefaultConfig(), zap.NewNop())
	cold.SetClock(func() time.Time { return e.now })
	rebuilt, err := cold.StateSync(ctx, m.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, rebuilt.Combat)
	assert.Equal(t, *warm.Combat, *rebuilt.Combat)

	_, err = e.mg.StateSync(ctx, m.ID, "kaspa:stranger")
	assert.Equal(t, duel.CodeNotParticipant, errCode(t, err))
}

func TestSweepCancelsExpiredRoom(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.mg.CreateRoom(ctx, alice, "", false)
	require.NoError(t, err)

	e.advance(31 * time.Minute)
	require.NoError(t, e.mg.SweepDeadlines(ctx))

	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCancelled, m.Status)
	assert.Equal(t, "room_expired", m.EndReason)
}

func TestSweepStakeTimeoutRefunds(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.mg.CreateRoom(ctx, alice, "500000000", false)
	require.NoError(t, err)
	_, err = e.mg.JoinRoom(ctx, bob, m.RoomCode)
	require.NoError(t, err)
	_, err = e.mg.ConfirmStake(ctx, m.ID, alice, "stake-tx-a")
	require.NoError(t, err)

	e.advance(3 * time.Minute)
	require.NoError(t, e.mg.SweepDeadlines(ctx))

	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCancelled, m.Status)
	assert.Equal(t, "stake_timeout", m.EndReason)

	// The lone deposit comes back.
	e.stakes.mu.Lock()
	defer e.stakes.mu.Unlock()
	require.Len(t, e.stakes.refunds, 1)
	assert.Equal(t, m.ID, e.stakes.refunds[0])
}

func TestSweepSelectionTimeoutUnstaked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	result, err := e.mg.CreateFromQueue(ctx, alice, bob)
	require.NoError(t, err)
	_, err = e.mg.SelectCharacter(ctx, result.MatchID, alice, "dag-warrior", true)
	require.NoError(t, err)

	e.advance(61 * time.Second)
	require.NoError(t, e.mg.SweepDeadlines(ctx))

	// Without money at risk the stalled match is simply voided.
	m, err := e.mg.Get(ctx, result.MatchID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCancelled, m.Status)
	assert.Equal(t, "selection_timeout", m.EndReason)
}

func TestSweepSelectionTimeoutStaked(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()

	m, err := e.mg.CreateRoom(ctx, alice, "500000000", false)
	require.NoError(t, err)
	_, err = e.mg.JoinRoom(ctx, bob, m.RoomCode)
	require.NoError(t, err)
	_, err = e.mg.ConfirmStake(ctx, m.ID, alice, "stake-tx-a")
	require.NoError(t, err)
	_, err = e.mg.ConfirmStake(ctx, m.ID, bob, "stake-tx-b")
	require.NoError(t, err)
	_, err = e.mg.SelectCharacter(ctx, m.ID, alice, "dag-warrior", true)
	require.NoError(t, err)

	e.advance(61 * time.Second)
	require.NoError(t, e.mg.SweepDeadlines(ctx))

	// With stakes down, the side that locked in takes the match.
	m, err = e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCompleted, m.Status)
	assert.Equal(t, alice, m.Winner)
	assert.Equal(t, "selection_timeout", m.EndReason)

	e.stakes.mu.Lock()
	defer e.stakes.mu.Unlock()
	require.Len(t, e.stakes.payouts, 1)
	assert.Equal(t, [2]string{m.ID, alice}, e.stakes.payouts[0])
}

func TestSweepDisconnectGrace(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.Disconnect(ctx, m.ID, bob))
	e.advance(46 * time.Second)
	require.NoError(t, e.mg.SweepDeadlines(ctx))

	m, err := e.mg.Get(ctx, m.ID)
	require.NoError(t, err)
	assert.Equal(t, duel.StatusCompleted, m.Status)
	assert.Equal(t, alice, m.Winner)
	assert.Equal(t, "opponent_timeout", m.EndReason)
}

func TestActionsRejectedOnFinishedMatch(t *testing.T) {
	e := newEnv(t)
	ctx := context.Background()
	m := startedQueueMatch(t, e)

	require.NoError(t, e.mg.Forfeit(ctx, m.ID, alice, "deadbeef"))

	err := e.mg.SubmitMove(ctx, m.ID, alice, combat.MovePunch, "tx-1")
	assert.Equal(t, duel.CodeWrongStatus, errCode(t, err))

	_, err = e.mg.Reject(ctx, m.ID, bob)
	assert.Equal(t, duel.CodeWrongStatus, errCode(t, err))

	err = e.mg.Forfeit(ctx, m.ID, bob, "deadbeef")
	assert.Equal(t, duel.CodeWrongStatus, errCode(t, err))
}
