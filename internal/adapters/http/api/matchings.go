package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/okian/huddle/internal/domain/types"
)

// MatchingsHandler handles matching submissions and run lookups.
type MatchingsHandler struct {
	deps         Dependencies
	maxBodyBytes int64
}

// NewMatchingsHandler creates a new matchings handler.
func NewMatchingsHandler(deps Dependencies, maxBodyBytes int64) *MatchingsHandler {
	return &MatchingsHandler{deps: deps, maxBodyBytes: maxBodyBytes}
}

// HandleSubmit handles POST /matchings requests. New runs answer 202; a
// known request_id answers 200 with the original run.
func (h *MatchingsHandler) HandleSubmit(w http.ResponseWriter, r *http.Request) {
	const op = "api.submit_matching"
	req, err := h.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	sub, err := h.deps.Submit(r.Context(), req)
	if err != nil {
		fail(w, op, err)
		return
	}
	if sub.Duplicate {
		writeJSON(w, http.StatusOK, sub)
		return
	}
	writeJSON(w, http.StatusAccepted, sub)
}

// HandleMatchSync handles POST /matchings/sync requests.
func (h *MatchingsHandler) HandleMatchSync(w http.ResponseWriter, r *http.Request) {
	const op = "api.match_sync"
	req, err := h.decode(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", WrapKind(op, ErrBadRequest, err))
		return
	}

	res, err := h.deps.Match(r.Context(), req)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// HandleGetRun handles GET /matchings/{id} requests.
func (h *MatchingsHandler) HandleGetRun(w http.ResponseWriter, r *http.Request) {
	const op = "api.get_matching"
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		writeError(w, http.StatusBadRequest, "bad_request", NewKind(op, ErrBadRequest))
		return
	}

	run, err := h.deps.Get(r.Context(), id)
	if err != nil {
		fail(w, op, err)
		return
	}
	writeJSON(w, http.StatusOK, run)
}

func (h *MatchingsHandler) decode(w http.ResponseWriter, r *http.Request) (types.MatchRequest, error) {
	var req types.MatchRequest
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err := dec.Decode(&req); err != nil {
		return types.MatchRequest{}, Wrap("api.decode", err)
	}
	if dec.More() {
		return types.MatchRequest{}, Wrap("api.decode", errors.New("unexpected data after request body"))
	}
	return req, nil
}
