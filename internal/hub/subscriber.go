package hub

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/metrics"
)

// ErrSubscriberClosed is returned by Receive once the subscriber has been
// removed from the hub (unsubscribe or hub shutdown).
var ErrSubscriberClosed = errors.New("subscriber closed")

// Subscriber is one live client's bounded inbox of serialized change events.
// It is created by Hub.Subscribe and must be released with Hub.Unsubscribe;
// the transport adapter is responsible for doing that exactly once on every
// exit path of its delivery loop.
type Subscriber struct {
	id    uuid.UUID
	inbox chan []byte
	clock clockwork.Clock

	// sendMu serializes the drop-oldest/enqueue pair so concurrent broadcasts
	// cannot overfill the inbox. Held only for channel operations.
	sendMu sync.Mutex

	closeOnce sync.Once
	done      chan struct{}
}

// ID identifies the subscriber within the hub's set.
func (s *Subscriber) ID() uuid.UUID {
	return s.id
}

// Receive waits for the next event, the timeout, cancellation, or closure.
//
// A nil error with ok=false means the timeout elapsed with nothing pending;
// the caller should write a heartbeat frame and call Receive again. Context
// cancellation and closure end the delivery loop and return an error, but
// neither is a failure of the stream.
func (s *Subscriber) Receive(ctx context.Context, timeout time.Duration) ([]byte, bool, error) {
	// Drain anything already queued before arming a timer.
	select {
	case payload := <-s.inbox:
		return payload, true, nil
	default:
	}

	timer := s.clock.NewTimer(timeout)
	defer timer.Stop()

	select {
	case payload := <-s.inbox:
		return payload, true, nil
	case <-timer.Chan():
		return nil, false, nil
	case <-ctx.Done():
		return nil, false, ctx.Err()
	case <-s.done:
		return nil, false, ErrSubscriberClosed
	}
}

// Pending reports how many events are queued but not yet received.
func (s *Subscriber) Pending() int {
	return len(s.inbox)
}

// offer enqueues payload without ever blocking. When the inbox is at
// capacity the oldest pending event is discarded first, so the subscriber
// keeps the most recent state.
func (s *Subscriber) offer(payload []byte) {
	s.sendMu.Lock()
	defer s.sendMu.Unlock()

	for len(s.inbox) >= cap(s.inbox) {
		select {
		case <-s.inbox:
			metrics.HubEventsDroppedTotal.Inc()
		default:
		}
	}

	select {
	case s.inbox <- payload:
	default:
		// Unreachable while all senders hold sendMu; kept so offer can
		// never block even if that invariant breaks.
		metrics.HubEventsDroppedTotal.Inc()
	}
}

func (s *Subscriber) close() {
	s.closeOnce.Do(func() { close(s.done) })
}
