// Package repository implements the sharded bet store.
package repository

import (
	"context"

	"github.com/okhandani/highstakes/internal/domain/model"
)

// Store provides write and read access to per-offer bet state.
type Store interface {
	// PlaceBet submits a bet for asynchronous processing. It never blocks
	// and never reports the outcome; processing failures are logged.
	PlaceBet(ctx context.Context, bet model.Bet)

	// TopBets returns up to n bets for an offer in strictly descending
	// stake order. A negative n fails with ErrInvalidLimit; an offer with
	// no bets yields an empty slice.
	TopBets(ctx context.Context, offer model.OfferID, n int) ([]model.Bet, error)

	// OfferCount returns the number of offers with a ranking board.
	OfferCount(ctx context.Context) int
}
