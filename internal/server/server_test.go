package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/kaspaclash/arena-server/internal/config"
	"github.com/kaspaclash/arena-server/internal/duel"
	"github.com/kaspaclash/arena-server/internal/matchmaking"
	"github.com/kaspaclash/arena-server/internal/notify"
	"github.com/kaspaclash/arena-server/internal/rating"
	"github.com/kaspaclash/arena-server/internal/repository"
	"github.com/kaspaclash/arena-server/internal/server"
	"github.com/kaspaclash/arena-server/internal/stake"
)

type okVerifier struct{}

func (okVerifier) VerifySurrender(_, _, _ string) error { return nil }

func newTestServer(t *testing.T) (*httptest.Server, *repository.MemoryQueueStore) {
	t.Helper()
	logger := zap.NewNop()

	matchStore := repository.NewMemoryMatchStore()
	queueStore := repository.NewMemoryQueueStore()
	ratingStore := repository.NewMemoryRatingStore()

	ratings := rating.NewUpdater(ratingStore, logger)
	matches := duel.NewManager(matchStore, notify.NopPublisher{}, ratings,
		stake.NewLedgerSettler(logger), okVerifier{}, duel.DefaultConfig(), logger)
	queue := matchmaking.NewEngine(queueStore, matches, matchmaking.DefaultConfig(), logger)

	srv := server.New(config.ServerConfig{AllowedOrigins: []string{"*"}}, server.Deps{
		Queue:   queue,
		Matches: matches,
		Ratings: ratings,
		Hub:     notify.NewHub(logger),
	}, logger)

	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return ts, queueStore
}

func post(t *testing.T, ts *httptest.Server, path string, body any) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	buf, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(ts.URL+path, "application/json", bytes.NewReader(buf))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	return resp, fields
}

func get(t *testing.T, ts *httptest.Server, path string) (*http.Response, map[string]json.RawMessage) {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })

	var fields map[string]json.RawMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&fields))
	return resp, fields
}

func strField(t *testing.T, fields map[string]json.RawMessage, key string) string {
	t.Helper()
	var s string
	require.NoError(t, json.Unmarshal(fields[key], &s))
	return s
}

func TestHealth(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, fields := get(t, ts, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", strField(t, fields, "status"))
}

func TestListCharacters(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, fields := get(t, ts, "/api/v1/characters")
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var roster []map[string]any
	require.NoError(t, json.Unmarshal(fields["characters"], &roster))
	assert.Len(t, roster, 20)
}

func TestQueuePairingOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, fields := post(t, ts, "/api/v1/queue/join", map[string]string{"address": "kaspa:alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var rtg int
	require.NoError(t, json.Unmarshal(fields["rating"], &rtg))
	assert.Equal(t, rating.DefaultRating, rtg)

	resp, _ = post(t, ts, "/api/v1/queue/join", map[string]string{"address": "kaspa:bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, fields = post(t, ts, "/api/v1/queue/attempt", map[string]string{"address": "kaspa:alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var matched bool
	require.NoError(t, json.Unmarshal(fields["matched"], &matched))
	require.True(t, matched)

	var result matchmaking.MatchResult
	require.NoError(t, json.Unmarshal(fields["match"], &result))
	assert.NotEmpty(t, result.MatchID)
	assert.Equal(t, "kaspa:alice", result.Player1)
	assert.Equal(t, "kaspa:bob", result.Player2)
}

func TestRoomMatchOverHTTP(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, fields := post(t, ts, "/api/v1/rooms/create", map[string]any{"address": "kaspa:alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := strField(t, fields, "id")
	code := strField(t, fields, "roomCode")
	require.Len(t, code, 6)

	resp, _ = post(t, ts, "/api/v1/rooms/join", map[string]string{"address": "kaspa:bob", "roomCode": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	for addr, char := range map[string]string{"kaspa:alice": "dag-warrior", "kaspa:bob": "cyber-ninja"} {
		resp, _ = post(t, ts, "/api/v1/matches/"+id+"/select",
			map[string]any{"address": addr, "characterId": char, "confirm": true})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	resp, fields = post(t, ts, "/api/v1/matches/"+id+"/move",
		map[string]string{"address": "kaspa:alice", "move": "punch", "txId": "tx-1"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "accepted", strField(t, fields, "status"))

	// Resubmitting before resolution conflicts.
	resp, fields = post(t, ts, "/api/v1/matches/"+id+"/move",
		map[string]string{"address": "kaspa:alice", "move": "kick", "txId": "tx-2"})
	require.Equal(t, http.StatusConflict, resp.StatusCode)
	var detail map[string]string
	require.NoError(t, json.Unmarshal(fields["error"], &detail))
	assert.Equal(t, "duplicate_move", detail["code"])

	resp, _ = post(t, ts, "/api/v1/matches/"+id+"/move",
		map[string]string{"address": "kaspa:bob", "move": "kick", "txId": "tx-3"})
	require.Equal(t, http.StatusOK, resp.StatusCode)

	// State sync shows the resolved turn.
	resp, fields = get(t, ts, "/api/v1/matches/"+id+"?address=kaspa:alice")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var gs duel.GameState
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &gs))
	require.NotNil(t, gs.Combat)
	assert.Equal(t, 2, gs.Combat.CurrentTurn)
}

func TestDisconnectActionField(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, fields := post(t, ts, "/api/v1/rooms/create", map[string]any{"address": "kaspa:alice"})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	id := strField(t, fields, "id")
	code := strField(t, fields, "roomCode")

	resp, _ = post(t, ts, "/api/v1/rooms/join", map[string]string{"address": "kaspa:bob", "roomCode": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	for addr, char := range map[string]string{"kaspa:alice": "dag-warrior", "kaspa:bob": "cyber-ninja"} {
		resp, _ = post(t, ts, "/api/v1/matches/"+id+"/select",
			map[string]any{"address": addr, "characterId": char, "confirm": true})
		require.Equal(t, http.StatusOK, resp.StatusCode)
	}

	// One endpoint carries both presence transitions through the action
	// field; an explicit "disconnect" starts the grace window.
	resp, fields = post(t, ts, "/api/v1/matches/"+id+"/disconnect",
		map[string]string{"address": "kaspa:bob", "action": "disconnect"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "disconnected", strField(t, fields, "status"))

	// "reconnect" clears it and answers with a full state sync.
	resp, fields = post(t, ts, "/api/v1/matches/"+id+"/disconnect",
		map[string]string{"address": "kaspa:bob", "action": "reconnect"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var gs duel.GameState
	raw, err := json.Marshal(fields)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(raw, &gs))
	require.NotNil(t, gs.Combat)
	assert.Equal(t, duel.StatusInProgress, gs.Match.Status)

	resp, _ = post(t, ts, "/api/v1/matches/"+id+"/disconnect",
		map[string]string{"address": "kaspa:bob", "action": "flee"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestQueueJoinWhileClaimed(t *testing.T) {
	ts, queueStore := newTestServer(t)

	resp, _ := post(t, ts, "/api/v1/queue/join", map[string]string{"address": "kaspa:alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = post(t, ts, "/api/v1/queue/join", map[string]string{"address": "kaspa:bob"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	claimed, err := queueStore.Claim(context.Background(), "kaspa:bob", "kaspa:alice")
	require.NoError(t, err)
	require.True(t, claimed)

	resp, fields := post(t, ts, "/api/v1/queue/join", map[string]string{"address": "kaspa:bob"})
	assert.Equal(t, http.StatusConflict, resp.StatusCode)
	var detail map[string]string
	require.NoError(t, json.Unmarshal(fields["error"], &detail))
	assert.Equal(t, "already_matched", detail["code"])
}

func TestErrorMapping(t *testing.T) {
	ts, _ := newTestServer(t)

	resp, fields := post(t, ts, "/api/v1/rooms/join",
		map[string]string{"address": "kaspa:bob", "roomCode": "XXXXXX"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	var detail map[string]string
	require.NoError(t, json.Unmarshal(fields["error"], &detail))
	assert.Equal(t, "room_not_found", detail["code"])

	resp, _ = get(t, ts, fmt.Sprintf("/api/v1/matches/%s?address=kaspa:alice", "no-such-id"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestMalformedBody(t *testing.T) {
	ts, _ := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/v1/queue/join", "application/json",
		bytes.NewReader([]byte("{not json")))
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}
