// Package model contains domain models passed between layers.
package model

import "strconv"

// OfferID identifies a bettable event. Opaque; compared only by value.
type OfferID int64

// CustomerID identifies a customer placing bets. Opaque; compared only by value.
type CustomerID int64

// Stake is a bet amount in whole cents. Stakes are totally ordered and
// never negative; ZeroStake marks "no bet yet" and sorts at or below every
// real stake.
type Stake int64

// ZeroStake is the lower-bound sentinel used for unused ranking slots.
const ZeroStake Stake = 0

// Cents returns the amount as an int64.
func (s Stake) Cents() int64 { return int64(s) }

func (s Stake) String() string { return strconv.FormatInt(int64(s), 10) }

func (o OfferID) String() string { return strconv.FormatInt(int64(o), 10) }

func (c CustomerID) String() string { return strconv.FormatInt(int64(c), 10) }

// Bet is the wire and query representation of a placed stake. It is not
// stored as such; reads reconstruct it from the per-offer ranking state.
type Bet struct {
	Offer    OfferID
	Customer CustomerID
	Stake    Stake
}

// CSV renders the query wire shape, "customer=stake".
func (b Bet) CSV() string {
	return b.Customer.String() + "=" + b.Stake.String()
}
