package server

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/kaspaclash/arena-server/internal/combat"
)

func matchID(r *http.Request) string {
	return mux.Vars(r)["id"]
}

func (h *handler) listCharacters(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"characters": combat.Roster()})
}

type createRoomRequest struct {
	Address    string `json:"address"`
	StakeSompi string `json:"stakeAmountSompi,omitempty"`
	VsBot      bool   `json:"vsBot,omitempty"`
}

func (h *handler) createRoom(w http.ResponseWriter, r *http.Request) {
	var req createRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.matches.CreateRoom(r.Context(), req.Address, req.StakeSompi, req.VsBot)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

type joinRoomRequest struct {
	Address  string `json:"address"`
	RoomCode string `json:"roomCode"`
}

func (h *handler) joinRoom(w http.ResponseWriter, r *http.Request) {
	var req joinRoomRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.matches.JoinRoom(r.Context(), req.Address, req.RoomCode)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

func (h *handler) matchState(w http.ResponseWriter, r *http.Request) {
	address := r.URL.Query().Get("address")
	gs, err := h.matches.StateSync(r.Context(), matchID(r), address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

type stakeRequest struct {
	Address string `json:"address"`
	TxID    string `json:"txId"`
}

func (h *handler) confirmStake(w http.ResponseWriter, r *http.Request) {
	var req stakeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	m, err := h.matches.ConfirmStake(r.Context(), matchID(r), req.Address, req.TxID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, m)
}

type selectRequest struct {
	Address     string `json:"address"`
	CharacterID string `json:"characterId"`
	Confirm     bool   `json:"confirm"`
}

func (h *handler) selectCharacter(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if !decodeBody(w, r, &req) {
		return
	}
	result, err := h.matches.SelectCharacter(r.Context(), matchID(r), req.Address, req.CharacterID, req.Confirm)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

type moveRequest struct {
	Address string `json:"address"`
	Move    string `json:"move"`
	TxID    string `json:"txId"`
}

func (h *handler) submitMove(w http.ResponseWriter, r *http.Request) {
	var req moveRequest
	if !decodeBody(w, r, &req) {
		return
	}
	err := h.matches.SubmitMove(r.Context(), matchID(r), req.Address, combat.Move(req.Move), req.TxID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "accepted"})
}

type addressRequest struct {
	Address string `json:"address"`
}

func (h *handler) rejectMove(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	outcome, err := h.matches.Reject(r.Context(), matchID(r), req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": outcome})
}

type forfeitRequest struct {
	Address   string `json:"address"`
	Signature string `json:"signature"`
}

func (h *handler) forfeit(w http.ResponseWriter, r *http.Request) {
	var req forfeitRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if err := h.matches.Forfeit(r.Context(), matchID(r), req.Address, req.Signature); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "surrendered"})
}

type presenceRequest struct {
	Address string `json:"address"`
	Action  string `json:"action,omitempty"`
}

// disconnect covers both presence transitions on one endpoint: an absent
// or "disconnect" action starts the grace window, "reconnect" clears it
// and answers with a full state sync, exactly like the /reconnect route.
func (h *handler) disconnect(w http.ResponseWriter, r *http.Request) {
	var req presenceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	switch req.Action {
	case "", "disconnect":
		if err := h.matches.Disconnect(r.Context(), matchID(r), req.Address); err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "disconnected"})
	case "reconnect":
		gs, err := h.matches.Reconnect(r.Context(), matchID(r), req.Address)
		if err != nil {
			h.writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, gs)
	default:
		badRequest(w, "bad_request", "unknown action")
	}
}

func (h *handler) reconnect(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	gs, err := h.matches.Reconnect(r.Context(), matchID(r), req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, gs)
}

func (h *handler) claimTimeout(w http.ResponseWriter, r *http.Request) {
	var req addressRequest
	if !decodeBody(w, r, &req) {
		return
	}
	outcome, err := h.matches.ClaimTimeout(r.Context(), matchID(r), req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"result": outcome})
}

func (h *handler) moveTimeout(w http.ResponseWriter, r *http.Request) {
	result, err := h.matches.MoveTimeout(r.Context(), matchID(r))
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
