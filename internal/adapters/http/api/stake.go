// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/okhandani/highstakes/internal/domain/model"
)

// maxStakeBody bounds the stake request body; the payload is one integer.
const maxStakeBody = 64

// StakeDependencies defines the interface for placing bets.
type StakeDependencies interface {
	ValidateSession(ctx context.Context, key string) (model.CustomerID, bool)
	PlaceBet(ctx context.Context, bet model.Bet)
}

// StakeHandler handles stake submissions.
type StakeHandler struct {
	deps StakeDependencies
}

// NewStakeHandler creates a new stake handler.
func NewStakeHandler(deps StakeDependencies) *StakeHandler {
	return &StakeHandler{deps: deps}
}

// HandlePostStake handles POST /{offerID}/stake?sessionkey=K requests.
// The body is the stake in cents. The submission is fire-and-forget: a
// 204 acknowledges receipt, not acceptance. A stake that does not beat
// the stored one is silently dropped by the store.
func (h *StakeHandler) HandlePostStake(w http.ResponseWriter, r *http.Request) {
	offer, err := pathID(r, "offerID")
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	key := r.URL.Query().Get("sessionkey")
	customer, ok := h.deps.ValidateSession(r.Context(), key)
	if !ok {
		writeText(w, http.StatusUnauthorized, "invalid session")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxStakeBody))
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid stake body")
		return
	}
	stake, err := strconv.ParseInt(strings.TrimSpace(string(body)), 10, 64)
	if err != nil || stake < 0 {
		writeText(w, http.StatusBadRequest, "invalid stake")
		return
	}

	h.deps.PlaceBet(r.Context(), model.Bet{
		Offer:    model.OfferID(offer),
		Customer: customer,
		Stake:    model.Stake(stake),
	})
	w.WriteHeader(http.StatusNoContent)
}
