package ranking_test

import (
	"errors"
	"math/rand"
	"sort"
	"testing"

	"github.com/okhandani/highstakes/internal/domain/model"
	ranking "github.com/okhandani/highstakes/internal/domain/ranking"
	. "github.com/smartystreets/goconvey/convey"
)

// topN materializes the board's lazy view for assertions.
func topN(b *ranking.Board, n int) ([]model.CustomerID, []model.Stake) {
	var customers []model.CustomerID
	var stakes []model.Stake
	for c, s := range b.TopN(n) {
		customers = append(customers, c)
		stakes = append(stakes, s)
	}
	return customers, stakes
}

func TestBoard_New(t *testing.T) {
	Convey("Given board construction", t, func() {
		Convey("When the capacity is within range", func() {
			b, err := ranking.New(ranking.DefaultCapacity)
			So(err, ShouldBeNil)
			So(b.Capacity(), ShouldEqual, ranking.DefaultCapacity)
			So(b.Len(), ShouldEqual, 0)
		})

		Convey("When the capacity is zero", func() {
			b, err := ranking.New(0)
			So(b, ShouldBeNil)
			So(errors.Is(err, ranking.ErrInvalidCapacity), ShouldBeTrue)
		})

		Convey("When the capacity exceeds the maximum", func() {
			b, err := ranking.New(ranking.MaxCapacity + 1)
			So(b, ShouldBeNil)
			So(errors.Is(err, ranking.ErrInvalidCapacity), ShouldBeTrue)
		})

		Convey("When the capacity is negative", func() {
			b, err := ranking.New(-5)
			So(b, ShouldBeNil)
			So(errors.Is(err, ranking.ErrInvalidCapacity), ShouldBeTrue)
		})
	})
}

func TestBoard_AddOrUpdate(t *testing.T) {
	Convey("Given a board with capacity 3", t, func() {
		b, err := ranking.New(3)
		So(err, ShouldBeNil)

		Convey("When bets arrive below capacity", func() {
			So(b.AddOrUpdate(1, 10), ShouldBeTrue)
			So(b.AddOrUpdate(2, 20), ShouldBeTrue)
			So(b.AddOrUpdate(3, 30), ShouldBeTrue)

			Convey("Then all of them rank, highest first", func() {
				customers, stakes := topN(b, 3)
				So(customers, ShouldResemble, []model.CustomerID{3, 2, 1})
				So(stakes, ShouldResemble, []model.Stake{30, 20, 10})
			})

			Convey("And a new customer above the minimum evicts it", func() {
				So(b.AddOrUpdate(4, 25), ShouldBeTrue)

				customers, stakes := topN(b, 3)
				So(customers, ShouldResemble, []model.CustomerID{3, 4, 2})
				So(stakes, ShouldResemble, []model.Stake{30, 25, 20})
				So(b.Len(), ShouldEqual, 3)
			})

			Convey("And a new customer at or below the minimum is rejected", func() {
				So(b.AddOrUpdate(4, 10), ShouldBeFalse)
				So(b.AddOrUpdate(4, 5), ShouldBeFalse)

				customers, _ := topN(b, 3)
				So(customers, ShouldResemble, []model.CustomerID{3, 2, 1})
			})
		})

		Convey("When a ranked customer raises their stake", func() {
			b.AddOrUpdate(1, 10)
			b.AddOrUpdate(2, 20)
			b.AddOrUpdate(3, 30)
			So(b.AddOrUpdate(1, 40), ShouldBeTrue)

			Convey("Then they move up and keep a single entry", func() {
				customers, stakes := topN(b, 3)
				So(customers, ShouldResemble, []model.CustomerID{1, 3, 2})
				So(stakes, ShouldResemble, []model.Stake{40, 30, 20})
				So(b.Len(), ShouldEqual, 3)
			})
		})

		Convey("When a ranked customer submits a lower or equal stake", func() {
			b.AddOrUpdate(1, 10)
			b.AddOrUpdate(2, 20)

			So(b.AddOrUpdate(2, 20), ShouldBeFalse)
			So(b.AddOrUpdate(2, 15), ShouldBeFalse)

			Convey("Then the ranking is untouched", func() {
				customers, stakes := topN(b, 3)
				So(customers, ShouldResemble, []model.CustomerID{2, 1})
				So(stakes, ShouldResemble, []model.Stake{20, 10})
			})
		})
	})
}

func TestBoard_CapacityOne(t *testing.T) {
	Convey("Given a board with capacity 1", t, func() {
		b, err := ranking.New(1)
		So(err, ShouldBeNil)

		Convey("When successive bets arrive", func() {
			So(b.AddOrUpdate(1, 10), ShouldBeTrue)
			So(b.AddOrUpdate(2, 5), ShouldBeFalse)
			So(b.AddOrUpdate(2, 10), ShouldBeFalse)
			So(b.AddOrUpdate(2, 11), ShouldBeTrue)

			Convey("Then only the single highest survives", func() {
				customers, stakes := topN(b, 5)
				So(customers, ShouldResemble, []model.CustomerID{2})
				So(stakes, ShouldResemble, []model.Stake{11})
				So(b.Len(), ShouldEqual, 1)
			})
		})
	})
}

func TestBoard_TopN(t *testing.T) {
	Convey("Given a partially filled board", t, func() {
		b, err := ranking.New(5)
		So(err, ShouldBeNil)
		b.AddOrUpdate(7, 70)
		b.AddOrUpdate(8, 80)
		b.AddOrUpdate(9, 90)

		Convey("When asking for fewer entries than ranked", func() {
			customers, _ := topN(b, 2)
			So(customers, ShouldResemble, []model.CustomerID{9, 8})
		})

		Convey("When asking for more entries than ranked", func() {
			customers, stakes := topN(b, 100)
			So(customers, ShouldResemble, []model.CustomerID{9, 8, 7})
			So(stakes, ShouldResemble, []model.Stake{90, 80, 70})
		})

		Convey("When asking for zero entries", func() {
			customers, _ := topN(b, 0)
			So(customers, ShouldBeEmpty)
		})

		Convey("When the view is consumed twice", func() {
			seq := b.TopN(3)
			first := 0
			for range seq {
				first++
			}
			second := 0
			for range seq {
				second++
			}
			So(first, ShouldEqual, 3)
			So(second, ShouldEqual, 3)
		})

		Convey("When the consumer stops early", func() {
			seen := 0
			for range b.TopN(3) {
				seen++
				break
			}
			So(seen, ShouldEqual, 1)
		})
	})

	Convey("Given an empty board", t, func() {
		b, err := ranking.New(3)
		So(err, ShouldBeNil)

		Convey("Then the view yields nothing", func() {
			customers, _ := topN(b, 3)
			So(customers, ShouldBeEmpty)
		})
	})
}

func TestBoard_Randomized(t *testing.T) {
	// Cross-check the linked-slot board against a plain map reference.
	const (
		capacity  = 10
		customers = 40
		rounds    = 5000
	)

	rng := rand.New(rand.NewSource(42))
	b, err := ranking.New(capacity)
	if err != nil {
		t.Fatalf("new board: %v", err)
	}
	ref := make(map[model.CustomerID]model.Stake)

	// Distinct stakes keep the reference deterministic: with ties the
	// eviction choice depends on arrival order, which a plain map
	// cannot reproduce.
	perm := rng.Perm(rounds)

	for i := 0; i < rounds; i++ {
		customer := model.CustomerID(rng.Intn(customers) + 1)
		stake := model.Stake(perm[i] + 1)

		b.AddOrUpdate(customer, stake)

		// Reference semantics: keep the highest stake per customer,
		// ranked customers only improve, and only the top `capacity`
		// stakes survive.
		if cur, ok := ref[customer]; !ok || stake > cur {
			if !ok && len(ref) == capacity {
				minCustomer, minStake := refMin(ref)
				if stake <= minStake {
					continue
				}
				delete(ref, minCustomer)
			}
			ref[customer] = stake
		}

		if i%100 == 0 {
			assertMatchesReference(t, b, ref)
		}
	}
	assertMatchesReference(t, b, ref)
}

func refMin(ref map[model.CustomerID]model.Stake) (model.CustomerID, model.Stake) {
	var minCustomer model.CustomerID
	minStake := model.Stake(1 << 62)
	for c, s := range ref {
		if s < minStake {
			minStake = s
			minCustomer = c
		}
	}
	return minCustomer, minStake
}

func assertMatchesReference(t *testing.T, b *ranking.Board, ref map[model.CustomerID]model.Stake) {
	t.Helper()

	customers, stakes := topN(b, len(ref)+1)
	if len(customers) != len(ref) {
		t.Fatalf("board has %d entries, reference has %d", len(customers), len(ref))
	}
	for i := 1; i < len(stakes); i++ {
		if stakes[i] > stakes[i-1] {
			t.Fatalf("ranking not descending at %d: %v", i, stakes)
		}
	}
	want := make([]model.Stake, 0, len(ref))
	for c, s := range ref {
		want = append(want, s)
		if got, ok := stakesFor(customers, stakes, c); !ok || got != s {
			t.Fatalf("customer %d: board stake %d (present=%v), want %d", c, got, ok, s)
		}
	}
	sort.Slice(want, func(i, j int) bool { return want[i] > want[j] })
	for i := range want {
		if stakes[i] != want[i] {
			t.Fatalf("stake order mismatch at %d: got %v, want %v", i, stakes, want)
		}
	}
}

func stakesFor(customers []model.CustomerID, stakes []model.Stake, c model.CustomerID) (model.Stake, bool) {
	for i, got := range customers {
		if got == c {
			return stakes[i], true
		}
	}
	return 0, false
}
