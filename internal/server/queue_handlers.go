package server

import (
	"errors"
	"net/http"

	"github.com/kaspaclash/arena-server/internal/matchmaking"
)

type queueRequest struct {
	Address string `json:"address"`
	Network string `json:"network"`
}

func (h *handler) queueJoin(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Address == "" {
		badRequest(w, "bad_request", "address is required")
		return
	}
	if req.Network == "" {
		req.Network = "mainnet"
	}

	rtg, err := h.ratings.RatingOf(r.Context(), req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if err := h.queue.Enqueue(r.Context(), req.Address, req.Network, rtg); err != nil {
		if errors.Is(err, matchmaking.ErrAlreadyMatched) {
			writeErrorCode(w, http.StatusConflict, "already_matched", "a match is already being created for this player")
			return
		}
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "searching",
		"rating": rtg,
	})
}

func (h *handler) queueLeave(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Address == "" {
		badRequest(w, "bad_request", "address is required")
		return
	}
	if err := h.queue.Dequeue(r.Context(), req.Address); err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "left"})
}

// queueAttempt runs one pairing pass for the caller. Clients poll it while
// searching; a nil result means keep waiting.
func (h *handler) queueAttempt(w http.ResponseWriter, r *http.Request) {
	var req queueRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Address == "" {
		badRequest(w, "bad_request", "address is required")
		return
	}

	result, err := h.queue.AttemptMatch(r.Context(), req.Address)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if result == nil {
		writeJSON(w, http.StatusOK, map[string]any{"matched": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"matched": true,
		"match":   result,
	})
}
