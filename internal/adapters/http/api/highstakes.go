// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/okhandani/highstakes/internal/adapters/repository"
	"github.com/okhandani/highstakes/internal/domain/model"
)

// HighStakesDependencies defines the interface for top-N queries.
type HighStakesDependencies interface {
	TopBets(ctx context.Context, offer model.OfferID, n int) ([]model.Bet, error)
}

// HighStakesHandler handles top-N stake queries.
type HighStakesHandler struct {
	deps        HighStakesDependencies
	defaultTopN int
	maxLimit    int
}

// NewHighStakesHandler creates a new highstakes handler.
func NewHighStakesHandler(deps HighStakesDependencies, defaultTopN, maxLimit int) *HighStakesHandler {
	return &HighStakesHandler{deps: deps, defaultTopN: defaultTopN, maxLimit: maxLimit}
}

// HandleGetHighStakes handles GET /{offerID}/highstakes[?limit=N] requests.
// The response is "customer=stake" pairs joined by commas, descending by
// stake; an offer with no bets yields an empty body.
func (h *HighStakesHandler) HandleGetHighStakes(w http.ResponseWriter, r *http.Request) {
	offer, err := pathID(r, "offerID")
	if err != nil {
		writeText(w, http.StatusBadRequest, "invalid offer id")
		return
	}

	n := h.defaultTopN
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err = strconv.Atoi(raw)
		if err != nil || n > h.maxLimit {
			writeText(w, http.StatusBadRequest, "invalid limit")
			return
		}
	}

	bets, err := h.deps.TopBets(r.Context(), model.OfferID(offer), n)
	if err != nil {
		if errors.Is(err, repository.ErrInvalidLimit) {
			writeText(w, http.StatusBadRequest, "invalid limit")
			return
		}
		writeText(w, http.StatusInternalServerError, "query failed")
		return
	}

	parts := make([]string, len(bets))
	for i, b := range bets {
		parts[i] = b.CSV()
	}
	writeText(w, http.StatusOK, strings.Join(parts, ","))
}
