// Package consistency implements data-consistency matching over process
// variable updates: deciding whether the updates delivered so far form a
// version-consistent snapshot across all member channels.
//
// Exact mode keeps the latest observed version per member and reports a
// match when all of them equal the version of the event just processed.
// Historized mode keeps a bounded window of recent versions per member and
// tolerates members updating at different rates. A false result from
// Update is normal control flow, not an error; the caller decides whether
// to fall back to a previous validated snapshot.
package consistency

import (
	"fmt"
	"sync"

	"github.com/procsys/appcore/pv"
	"github.com/procsys/appcore/version"
)

// Mode selects the matching algorithm of a group.
type Mode int

const (
	// ModeExact requires all members' latest versions to be identical.
	ModeExact Mode = iota
	// ModeHistorized matches against a bounded per-member version history.
	ModeHistorized
)

func (m Mode) String() string {
	switch m {
	case ModeExact:
		return "exact"
	case ModeHistorized:
		return "historized"
	default:
		return fmt.Sprintf("Mode(%d)", int(m))
	}
}

// Stats counts match outcomes over the group's lifetime.
type Stats struct {
	Matches    uint64
	Mismatches uint64
}

type memberState struct {
	latest version.Number
	seen   bool

	hist []version.Number // ring of the last histLen versions
	next int
	size int
}

func (st *memberState) record(mode Mode, v version.Number) {
	if mode == ModeExact {
		st.latest = v
		st.seen = true
		return
	}
	st.hist[st.next] = v
	st.next = (st.next + 1) % len(st.hist)
	if st.size < len(st.hist) {
		st.size++
	}
}

func (st *memberState) matches(mode Mode, v version.Number) bool {
	if mode == ModeExact {
		return st.seen && st.latest.Equal(v)
	}
	for i := 0; i < st.size; i++ {
		if st.hist[i].Equal(v) {
			return true
		}
	}
	return false
}

// Group is a data-consistency group over a fixed set of channels.
type Group struct {
	mu      sync.Mutex
	mode    Mode
	histLen int
	members map[pv.ElementID]*memberState
	active  bool
	matched bool
	stats   Stats
}

// New creates an exact-matching group over the given channels.
func New(members ...pv.Element) (*Group, error) {
	g := &Group{
		mode:    ModeExact,
		members: make(map[pv.ElementID]*memberState),
	}
	for _, m := range members {
		if err := g.Add(m); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// NewHistorized creates a historized group retaining the last histLen
// versions per member. histLen must be at least 1; a historized group with
// histLen 1 behaves like an exact group for equal-cadence producers.
func NewHistorized(histLen int, members ...pv.Element) (*Group, error) {
	if histLen < 1 {
		return nil, fmt.Errorf("history length %d: %w", histLen, ErrHistoryLength)
	}
	g := &Group{
		mode:    ModeHistorized,
		histLen: histLen,
		members: make(map[pv.ElementID]*memberState),
	}
	for _, m := range members {
		if err := g.Add(m); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// Mode returns the group's matching mode.
func (g *Group) Mode() Mode {
	return g.mode
}

// Add registers a member channel. Composition is immutable once matching
// has begun: calling Add after the first Update fails with ErrActive.
// A channel already tracked by a historized group may not join an exact
// group; that ordering violation fails with ErrModeOrder.
func (g *Group) Add(el pv.Element) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.active {
		return fmt.Errorf("add %s: %w", el.Path(), ErrActive)
	}
	if _, exists := g.members[el.ID()]; exists {
		return fmt.Errorf("add %s: %w", el.Path(), ErrDuplicate)
	}
	if err := recordMembership(el.ID(), g.mode); err != nil {
		return fmt.Errorf("add %s: %w", el.Path(), err)
	}

	st := &memberState{}
	if g.mode == ModeHistorized {
		st.hist = make([]version.Number, g.histLen)
	}
	g.members[el.ID()] = st
	return nil
}

// Update records a delivered event and reports whether the group now holds
// a version-consistent snapshot: in exact mode every member's latest
// version equals the event's version, in historized mode every member's
// history window contains it. Events for channels outside the group return
// false and are not recorded. A match is not terminal; the next Update
// re-evaluates from current state.
func (g *Group) Update(ev pv.UpdateEvent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.active = true

	st, ok := g.members[ev.ID]
	if !ok {
		g.matched = false
		return false
	}

	st.record(g.mode, ev.Version)

	for _, member := range g.members {
		if !member.matches(g.mode, ev.Version) {
			g.matched = false
			g.stats.Mismatches++
			return false
		}
	}

	g.matched = true
	g.stats.Matches++
	return true
}

// Matched reports the outcome of the most recent Update.
func (g *Group) Matched() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.matched
}

// Stats returns match counters for this group.
func (g *Group) Stats() Stats {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.stats
}

// membership tracks, process-wide, which channels have joined historized
// groups. Layering is directional: historized after exact is fine, exact
// after historized is a usage error.
var membership = struct {
	mu         sync.Mutex
	historized map[pv.ElementID]bool
}{
	historized: make(map[pv.ElementID]bool),
}

func recordMembership(id pv.ElementID, mode Mode) error {
	membership.mu.Lock()
	defer membership.mu.Unlock()

	if mode == ModeExact {
		if membership.historized[id] {
			return ErrModeOrder
		}
		return nil
	}
	membership.historized[id] = true
	return nil
}
