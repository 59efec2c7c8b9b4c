package consistency_test

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/procsys/appcore/consistency"
	"github.com/procsys/appcore/pv"
	"github.com/procsys/appcore/version"
)

// triple declares three receiver-side channels, the shape of the observed
// three-channel scenario.
func triple(t *testing.T) (*pv.ScalarPushInput[int32], *pv.ScalarPushInput[int32], *pv.ScalarPushInput[int32]) {
	t.Helper()
	owner := pv.NewOwner("Receiver")
	in1 := pv.NewScalarPushInput[int32](owner, "/Test/in1")
	in2 := pv.NewScalarPushInput[int32](owner, "/Test/in2")
	in3 := pv.NewScalarPushInput[int32](owner, "/Test/in3")
	return in1, in2, in3
}

func event(el pv.Element, v version.Number) pv.UpdateEvent {
	return pv.UpdateEvent{ID: el.ID(), Version: v}
}

func TestExact_ThreeChannelScenario(t *testing.T) {
	in1, in2, in3 := triple(t)

	group, err := consistency.New(in1, in2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := group.Add(in3); err != nil {
		t.Fatalf("Add(in3) error = %v", err)
	}

	// Round one: all three channels updated under v1, arriving as
	// in1, in3, in2. Only the event completing the set matches.
	v1 := version.New()
	if group.Update(event(in1, v1)) {
		t.Error("first update of round one should not match")
	}
	if group.Update(event(in3, v1)) {
		t.Error("second update of round one should not match")
	}
	if !group.Update(event(in2, v1)) {
		t.Error("third update of round one should match")
	}

	// Round two covers only in1 and in3 under v2: in2 still carries v1,
	// so no event can match.
	v2 := version.New()
	if group.Update(event(in1, v2)) {
		t.Error("first update of round two should not match")
	}
	if group.Update(event(in3, v2)) {
		t.Error("second update of round two should not match")
	}

	// A third round under v3 reaches consistency again once all three
	// arrive: matched is not terminal in either direction.
	v3 := version.New()
	group.Update(event(in1, v3))
	group.Update(event(in2, v3))
	if !group.Update(event(in3, v3)) {
		t.Error("completing round three should match again")
	}
}

func TestExact_AnyInterleavingMatchesOnCompletion(t *testing.T) {
	in1, in2, in3 := triple(t)
	members := []pv.Element{in1, in2, in3}

	rng := rand.New(rand.NewSource(1))
	for trial := 0; trial < 50; trial++ {
		group, err := consistency.New(members...)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}

		// A few incomplete rounds with per-round versions, then one round
		// assigning a single version to every member in random order.
		for n := rng.Intn(3); n > 0; n-- {
			v := version.New()
			group.Update(event(members[rng.Intn(3)], v))
		}

		v := version.New()
		order := rng.Perm(3)
		for i, idx := range order {
			matched := group.Update(event(members[idx], v))
			if i < len(order)-1 && matched {
				t.Errorf("trial %d: matched before the covering set completed", trial)
			}
			if i == len(order)-1 && !matched {
				t.Errorf("trial %d: final update of the covering set should match", trial)
			}
		}
	}
}

func TestExact_NonMemberEventIsFalse(t *testing.T) {
	in1, in2, in3 := triple(t)

	group, err := consistency.New(in1, in2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	v := version.New()
	group.Update(event(in1, v))
	group.Update(event(in2, v))
	if group.Update(event(in3, v)) {
		t.Error("event for a non-member must return false")
	}
}

func TestExact_AddAfterUpdateIsUsageError(t *testing.T) {
	in1, in2, in3 := triple(t)

	group, err := consistency.New(in1, in2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	group.Update(event(in1, version.New()))

	if err := group.Add(in3); !errors.Is(err, consistency.ErrActive) {
		t.Errorf("Add() after Update error = %v, want ErrActive", err)
	}
}

func TestHistorized_WindowOfOneBehavesLikeExact(t *testing.T) {
	mkEvents := func(in1, in2, in3 pv.Element) []struct {
		ev   pv.UpdateEvent
		want bool
	} {
		v1 := version.New()
		v2 := version.New()
		return []struct {
			ev   pv.UpdateEvent
			want bool
		}{
			{event(in1, v1), false},
			{event(in3, v1), false},
			{event(in2, v1), true},
			{event(in1, v2), false},
			{event(in3, v2), false},
			{event(in2, v2), true},
		}
	}

	t.Run("exact", func(t *testing.T) {
		in1, in2, in3 := triple(t)
		group, err := consistency.New(in1, in2, in3)
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		for i, step := range mkEvents(in1, in2, in3) {
			if got := group.Update(step.ev); got != step.want {
				t.Errorf("step %d: Update() = %v, want %v", i, got, step.want)
			}
		}
	})

	t.Run("historized N=1", func(t *testing.T) {
		in1, in2, in3 := triple(t)
		group, err := consistency.NewHistorized(1, in1, in2, in3)
		if err != nil {
			t.Fatalf("NewHistorized() error = %v", err)
		}
		for i, step := range mkEvents(in1, in2, in3) {
			if got := group.Update(step.ev); got != step.want {
				t.Errorf("step %d: Update() = %v, want %v", i, got, step.want)
			}
		}
	})
}

func TestHistorized_SlowProducerMatchesWithinWindow(t *testing.T) {
	owner := pv.NewOwner("Receiver")
	a := pv.NewScalarPushInput[int32](owner, "/Test/fast")
	b := pv.NewScalarPushInput[int32](owner, "/Test/slow")

	group, err := consistency.NewHistorized(2, a, b)
	if err != nil {
		t.Fatalf("NewHistorized() error = %v", err)
	}

	// Channel A updates every tick, channel B every third tick sharing
	// A's version. With a window of 2 the pair is consistent exactly when
	// B's event lands.
	var matchedTicks []int
	for tick := 1; tick <= 6; tick++ {
		v := version.New()
		if group.Update(event(a, v)) {
			matchedTicks = append(matchedTicks, tick)
		}
		if tick%3 == 0 {
			if group.Update(event(b, v)) {
				matchedTicks = append(matchedTicks, tick)
			}
		}
	}

	if len(matchedTicks) != 2 || matchedTicks[0] != 3 || matchedTicks[1] != 6 {
		t.Errorf("matched at ticks %v, want [3 6]", matchedTicks)
	}
}

func TestHistorized_WindowEviction(t *testing.T) {
	owner := pv.NewOwner("Receiver")
	a := pv.NewScalarPushInput[int32](owner, "/Test/a")
	b := pv.NewScalarPushInput[int32](owner, "/Test/b")

	group, err := consistency.NewHistorized(2, a, b)
	if err != nil {
		t.Fatalf("NewHistorized() error = %v", err)
	}

	v1 := version.New()
	v2 := version.New()
	v3 := version.New()

	// a's window fills with v1, v2 and then evicts v1 for v3.
	group.Update(event(a, v1))
	group.Update(event(a, v2))
	group.Update(event(a, v3))

	// b arriving with the evicted v1 cannot match any more.
	if group.Update(event(b, v1)) {
		t.Error("evicted version must not satisfy the window")
	}
	// b arriving with a retained version still matches.
	if !group.Update(event(b, v2)) {
		t.Error("retained version should satisfy the window")
	}
}

func TestHistorized_RejectsZeroLength(t *testing.T) {
	if _, err := consistency.NewHistorized(0); !errors.Is(err, consistency.ErrHistoryLength) {
		t.Errorf("NewHistorized(0) error = %v, want ErrHistoryLength", err)
	}
}

func TestModeOrder_HistorizedAfterExactAllowed(t *testing.T) {
	in1, in2, _ := triple(t)

	if _, err := consistency.New(in1, in2); err != nil {
		t.Fatalf("exact group error = %v", err)
	}
	if _, err := consistency.NewHistorized(1, in1, in2); err != nil {
		t.Errorf("historized after exact error = %v, want nil", err)
	}
}

func TestModeOrder_ExactAfterHistorizedRejected(t *testing.T) {
	in1, in2, _ := triple(t)

	if _, err := consistency.NewHistorized(1, in1, in2); err != nil {
		t.Fatalf("historized group error = %v", err)
	}
	if _, err := consistency.New(in1); !errors.Is(err, consistency.ErrModeOrder) {
		t.Errorf("exact after historized error = %v, want ErrModeOrder", err)
	}
}

func TestGroup_StatsAndMatched(t *testing.T) {
	in1, in2, _ := triple(t)

	group, err := consistency.New(in1, in2)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	v := version.New()
	group.Update(event(in1, v))
	group.Update(event(in2, v))

	if !group.Matched() {
		t.Error("Matched() should report the last outcome")
	}
	stats := group.Stats()
	if stats.Matches != 1 || stats.Mismatches != 1 {
		t.Errorf("Stats() = %+v, want 1 match, 1 mismatch", stats)
	}
}
