package pv

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/procsys/appcore/version"
)

// DefaultQueueDepth is the update queue capacity of a push input unless
// overridden with WithQueueDepth.
const DefaultQueueDepth = 3

type update struct {
	value   any // private copy, safe to hand to the consumer
	version version.Number
}

// updateQueue is the bounded single-producer update queue behind every push
// input. When the queue is full the oldest pending update is retired and
// counted as data loss.
//
// A queue can be mirrored into a read-any notification channel. The
// invariant maintained by push is that the number of outstanding
// notification tokens for this queue equals the number of queued updates:
// a token drawn by a read-any group always has a matching update, and a
// retired update hands its token over to the update replacing it.
type updateQueue struct {
	id ElementID
	ch chan update

	mu     sync.Mutex // producer side and notify registration
	notify chan<- ElementID

	lost atomic.Uint64
}

func newUpdateQueue(id ElementID, depth int) *updateQueue {
	if depth < 1 {
		depth = DefaultQueueDepth
	}
	return &updateQueue{
		id: id,
		ch: make(chan update, depth),
	}
}

func (q *updateQueue) depth() int {
	return cap(q.ch)
}

func (q *updateQueue) pending() int {
	return len(q.ch)
}

func (q *updateQueue) lostCount() uint64 {
	return q.lost.Load()
}

// push delivers one update, retiring the oldest pending entry when full.
func (q *updateQueue) push(u update) {
	q.mu.Lock()
	defer q.mu.Unlock()

	dropped := false
	for {
		select {
		case q.ch <- u:
			if q.notify != nil && !dropped {
				select {
				case q.notify <- q.id:
				default:
				}
			}
			return
		default:
		}

		select {
		case <-q.ch:
			q.lost.Add(1)
			dropped = true
		default:
			// consumer drained the queue in between, retry the send
		}
	}
}

// subscribe attaches a read-any notification channel and seeds it with
// tokens for updates already pending. An input can belong to at most one
// read-any group.
func (q *updateQueue) subscribe(notify chan<- ElementID) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.notify != nil {
		return ErrAlreadyGrouped
	}
	q.notify = notify

	for i := 0; i < q.pending(); i++ {
		select {
		case notify <- q.id:
		default:
		}
	}
	return nil
}

func (q *updateQueue) tryPop() (update, bool) {
	select {
	case u := <-q.ch:
		return u, true
	default:
		return update{}, false
	}
}

func (q *updateQueue) pop(ctx context.Context) (update, error) {
	select {
	case u := <-q.ch:
		return u, nil
	case <-ctx.Done():
		return update{}, ctx.Err()
	}
}
