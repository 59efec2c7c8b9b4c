// Package readany provides the read-any synchronization primitive: a group
// of push inputs waited on together, delivering whichever member fires
// first. Delivery across members is FIFO by arrival, not by registration
// order, and every delivered event updates the member's visible value as a
// side effect.
//
// A group is assembled with Add, locked with Finalise and then waited on
// with ReadAny and its derivatives. Waiting before Finalise, or adding
// after it, is a usage error.
package readany

import (
	"context"
	"fmt"
	"sync"

	"github.com/procsys/appcore/pv"
)

// Group is a read-any group over a fixed set of push inputs.
type Group struct {
	mu        sync.Mutex
	members   []pv.PushChannel
	byID      map[pv.ElementID]pv.PushChannel
	notify    chan pv.ElementID
	interrupt chan struct{}
	finalised bool
}

// New creates an empty group. Members are registered with Add.
func New() *Group {
	return &Group{
		byID:      make(map[pv.ElementID]pv.PushChannel),
		interrupt: make(chan struct{}, 1),
	}
}

// Of creates a finalised group over the given members.
func Of(members ...pv.PushChannel) (*Group, error) {
	g := New()
	for _, m := range members {
		if err := g.Add(m); err != nil {
			return nil, err
		}
	}
	if err := g.Finalise(); err != nil {
		return nil, err
	}
	return g, nil
}

// AllOf creates a finalised group over every push input declared by the
// owner, the usual per-module group.
func AllOf(owner *pv.Owner) (*Group, error) {
	g := New()
	for _, in := range owner.Inputs() {
		if err := g.Add(in); err != nil {
			return nil, err
		}
	}
	if err := g.Finalise(); err != nil {
		return nil, err
	}
	return g, nil
}

// Add registers a member. Fails with ErrFinalised once the group is locked
// and with ErrDuplicate if the element is already a member.
func (g *Group) Add(ch pv.PushChannel) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalised {
		return fmt.Errorf("add %s: %w", ch.Path(), ErrFinalised)
	}
	if _, exists := g.byID[ch.ID()]; exists {
		return fmt.Errorf("add %s: %w", ch.Path(), ErrDuplicate)
	}

	g.members = append(g.members, ch)
	g.byID[ch.ID()] = ch
	return nil
}

// Finalise locks the member set and starts collecting arrival
// notifications. Updates already pending at this point are delivered first,
// in registration order, then strictly FIFO by arrival. Required before the
// first wait; calling it twice is a usage error.
func (g *Group) Finalise() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.finalised {
		return ErrFinalised
	}

	capacity := 0
	for _, m := range g.members {
		capacity += m.Depth()
	}
	g.notify = make(chan pv.ElementID, capacity)

	for _, m := range g.members {
		if err := m.Subscribe(g.notify); err != nil {
			return fmt.Errorf("finalise %s: %w", m.Path(), err)
		}
	}

	g.finalised = true
	return nil
}

// ReadAny blocks until any member has a pending update, applies it to the
// member and returns the event. Returns ErrNotFinalised before Finalise,
// ErrInterrupted after Interrupt, or the context error on cancellation.
func (g *Group) ReadAny(ctx context.Context) (pv.UpdateEvent, error) {
	if err := g.checkFinalised(); err != nil {
		return pv.UpdateEvent{}, err
	}

	for {
		select {
		case id := <-g.notify:
			if ev, ok := g.take(id); ok {
				return ev, nil
			}
			// stale token from a retired update, keep waiting
		case <-g.interrupt:
			return pv.UpdateEvent{}, ErrInterrupted
		case <-ctx.Done():
			return pv.UpdateEvent{}, ctx.Err()
		}
	}
}

// ReadAnyNonBlocking delivers one pending update if available. The returned
// event is invalid (IsValid() == false) when no member has pending data.
func (g *Group) ReadAnyNonBlocking() (pv.UpdateEvent, error) {
	if err := g.checkFinalised(); err != nil {
		return pv.UpdateEvent{}, err
	}

	for {
		select {
		case id := <-g.notify:
			if ev, ok := g.take(id); ok {
				return ev, nil
			}
		default:
			return pv.UpdateEvent{}, nil
		}
	}
}

// ReadUntil delivers updates until the given element has fired at least
// once since the call began. Updates on other members are applied and
// discarded.
func (g *Group) ReadUntil(ctx context.Context, id pv.ElementID) error {
	if err := g.checkFinalised(); err != nil {
		return err
	}
	if _, ok := g.member(id); !ok {
		return fmt.Errorf("read until %s: %w", id, ErrNotMember)
	}

	for {
		ev, err := g.ReadAny(ctx)
		if err != nil {
			return err
		}
		if ev.ID == id {
			return nil
		}
	}
}

// ReadUntilAll delivers updates until every given element has fired at
// least once since the call began.
func (g *Group) ReadUntilAll(ctx context.Context, ids ...pv.ElementID) error {
	if err := g.checkFinalised(); err != nil {
		return err
	}

	waiting := make(map[pv.ElementID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := g.member(id); !ok {
			return fmt.Errorf("read until %s: %w", id, ErrNotMember)
		}
		waiting[id] = struct{}{}
	}

	for len(waiting) > 0 {
		ev, err := g.ReadAny(ctx)
		if err != nil {
			return err
		}
		delete(waiting, ev.ID)
	}
	return nil
}

// Interrupt wakes one blocked ReadAny, which returns ErrInterrupted. Safe
// to call from any goroutine; an interrupt with no waiter is consumed by
// the next wait.
func (g *Group) Interrupt() {
	select {
	case g.interrupt <- struct{}{}:
	default:
	}
}

// Members returns the member set in registration order.
func (g *Group) Members() []pv.PushChannel {
	g.mu.Lock()
	defer g.mu.Unlock()
	out := make([]pv.PushChannel, len(g.members))
	copy(out, g.members)
	return out
}

func (g *Group) checkFinalised() error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.finalised {
		return ErrNotFinalised
	}
	return nil
}

func (g *Group) member(id pv.ElementID) (pv.PushChannel, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	ch, ok := g.byID[id]
	return ch, ok
}

func (g *Group) take(id pv.ElementID) (pv.UpdateEvent, bool) {
	ch, ok := g.member(id)
	if !ok {
		return pv.UpdateEvent{}, false
	}
	return ch.TakeUpdate()
}
