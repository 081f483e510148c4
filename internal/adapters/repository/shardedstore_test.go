package repository_test

import (
	"context"
	"errors"
	"os"
	"sync"
	"testing"
	"time"

	repository "github.com/okhandani/highstakes/internal/adapters/repository"
	"github.com/okhandani/highstakes/internal/domain/model"
	"github.com/okhandani/highstakes/internal/domain/ranking"
	"github.com/okhandani/highstakes/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMain(m *testing.M) {
	if err := logger.Init(); err != nil {
		os.Exit(1)
	}
	os.Exit(m.Run())
}

// awaitTop polls until the offer's ranking settles on want entries or the
// bets stop being visible within the deadline. PlaceBet is fire-and-forget,
// so tests must wait for the shard to drain.
func awaitTop(ctx context.Context, s *repository.ShardedStore, offer model.OfferID, n, want int) ([]model.Bet, error) {
	deadline := time.Now().Add(5 * time.Second)
	for {
		bets, err := s.TopBets(ctx, offer, n)
		if err != nil {
			return nil, err
		}
		if len(bets) >= want || time.Now().After(deadline) {
			return bets, nil
		}
		time.Sleep(time.Millisecond)
	}
}

func TestShardedStore_PlaceAndQuery(t *testing.T) {
	Convey("Given a running sharded store", t, func() {
		s, err := repository.NewShardedStore(repository.WithBoardCapacity(3))
		So(err, ShouldBeNil)
		ctx := context.Background()
		defer s.Close(ctx)

		Convey("When bets arrive for one offer", func() {
			s.PlaceBet(ctx, model.Bet{Offer: 1, Customer: 10, Stake: 100})
			s.PlaceBet(ctx, model.Bet{Offer: 1, Customer: 20, Stake: 300})
			s.PlaceBet(ctx, model.Bet{Offer: 1, Customer: 30, Stake: 200})

			Convey("Then the query sees them highest first", func() {
				bets, err := awaitTop(ctx, s, 1, 10, 3)
				So(err, ShouldBeNil)
				So(bets, ShouldResemble, []model.Bet{
					{Offer: 1, Customer: 20, Stake: 300},
					{Offer: 1, Customer: 30, Stake: 200},
					{Offer: 1, Customer: 10, Stake: 100},
				})
			})

			Convey("Then a later low bet from a ranked customer changes nothing", func() {
				_, err := awaitTop(ctx, s, 1, 10, 3)
				So(err, ShouldBeNil)

				s.PlaceBet(ctx, model.Bet{Offer: 1, Customer: 20, Stake: 50})

				// FIFO per offer: once the next query returns, the low
				// bet has already been processed and rejected.
				bets, err := s.TopBets(ctx, 1, 10)
				So(err, ShouldBeNil)
				So(bets[0], ShouldResemble, model.Bet{Offer: 1, Customer: 20, Stake: 300})
			})
		})

		Convey("When bets target different offers", func() {
			s.PlaceBet(ctx, model.Bet{Offer: 1, Customer: 10, Stake: 100})
			s.PlaceBet(ctx, model.Bet{Offer: 2, Customer: 10, Stake: 999})

			Convey("Then rankings stay independent", func() {
				one, err := awaitTop(ctx, s, 1, 10, 1)
				So(err, ShouldBeNil)
				two, err := awaitTop(ctx, s, 2, 10, 1)
				So(err, ShouldBeNil)

				So(one, ShouldHaveLength, 1)
				So(one[0].Stake, ShouldEqual, model.Stake(100))
				So(two, ShouldHaveLength, 1)
				So(two[0].Stake, ShouldEqual, model.Stake(999))
				So(s.OfferCount(ctx), ShouldEqual, 2)
			})
		})

		Convey("When an offer has never seen a bet", func() {
			bets, err := s.TopBets(ctx, 777, 10)
			So(err, ShouldBeNil)
			So(bets, ShouldNotBeNil)
			So(bets, ShouldBeEmpty)
		})

		Convey("When the limit is negative", func() {
			_, err := s.TopBets(ctx, 1, -1)
			So(errors.Is(err, repository.ErrInvalidLimit), ShouldBeTrue)
		})

		Convey("When the limit is zero", func() {
			s.PlaceBet(ctx, model.Bet{Offer: 1, Customer: 10, Stake: 100})
			bets, err := awaitTop(ctx, s, 1, 0, 0)
			So(err, ShouldBeNil)
			So(bets, ShouldBeEmpty)
		})
	})
}

func TestShardedStore_InvalidCapacity(t *testing.T) {
	Convey("Given invalid board capacities", t, func() {
		for _, capacity := range []int{-1, ranking.MaxCapacity + 1} {
			s, err := repository.NewShardedStore(repository.WithBoardCapacity(capacity))
			So(s, ShouldBeNil)
			So(errors.Is(err, ranking.ErrInvalidCapacity), ShouldBeTrue)
		}
	})
}

func TestShardedStore_Close(t *testing.T) {
	Convey("Given a store with queued work", t, func() {
		s, err := repository.NewShardedStore(repository.WithShardCount(2))
		So(err, ShouldBeNil)
		ctx := context.Background()

		for i := int64(0); i < 100; i++ {
			s.PlaceBet(ctx, model.Bet{Offer: 5, Customer: model.CustomerID(i), Stake: model.Stake(i + 1)})
		}

		Convey("When the store closes", func() {
			So(s.Close(ctx), ShouldBeNil)

			Convey("Then closing again is a no-op", func() {
				So(s.Close(ctx), ShouldBeNil)
			})

			Convey("Then queries fail with ErrClosed", func() {
				_, err := s.TopBets(ctx, 5, 10)
				So(errors.Is(err, repository.ErrClosed), ShouldBeTrue)
			})

			Convey("Then late bets are dropped without panic", func() {
				So(func() {
					s.PlaceBet(ctx, model.Bet{Offer: 5, Customer: 1, Stake: 1})
				}, ShouldNotPanic)
			})
		})
	})
}

func TestShardedStore_ContextCancellation(t *testing.T) {
	Convey("Given a store and a cancelled context", t, func() {
		s, err := repository.NewShardedStore()
		So(err, ShouldBeNil)
		defer s.Close(context.Background())

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		Convey("Then a query reports the cancellation", func() {
			// The shard may still answer before the ctx branch wins, so
			// accept either a result or a ctx error, never a hang.
			bets, err := s.TopBets(ctx, 1, 10)
			if err != nil {
				So(errors.Is(err, context.Canceled), ShouldBeTrue)
			} else {
				So(bets, ShouldBeEmpty)
			}
		})
	})
}

func TestShardedStore_ConcurrentPlacers(t *testing.T) {
	s, err := repository.NewShardedStore(repository.WithBoardCapacity(20))
	if err != nil {
		t.Fatalf("new store: %v", err)
	}
	ctx := context.Background()
	defer s.Close(ctx)

	const (
		offers    = 8
		placers   = 16
		perPlacer = 500
	)

	var wg sync.WaitGroup
	for p := 0; p < placers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perPlacer; i++ {
				s.PlaceBet(ctx, model.Bet{
					Offer:    model.OfferID(i % offers),
					Customer: model.CustomerID(p),
					Stake:    model.Stake(p*perPlacer + i + 1),
				})
			}
		}(p)
	}
	wg.Wait()

	// Every placer's final stake for an offer is its highest, so each
	// offer's ranking must hold all placers in descending stake order.
	for offer := int64(0); offer < offers; offer++ {
		bets, err := awaitTop(ctx, s, model.OfferID(offer), placers, placers)
		if err != nil {
			t.Fatalf("offer %d: %v", offer, err)
		}
		if len(bets) != placers {
			t.Fatalf("offer %d: ranked %d customers, want %d", offer, len(bets), placers)
		}
		for i := 1; i < len(bets); i++ {
			if bets[i].Stake > bets[i-1].Stake {
				t.Fatalf("offer %d: ranking not descending at %d: %v", offer, i, bets)
			}
		}
	}
}
