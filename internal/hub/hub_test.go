package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
)

func testEvent(id int64) domain.ChangeEvent {
	return domain.ChangeEvent{Type: domain.EventProjectUpdated, ID: id, Changed: []string{"status"}}
}

func TestBroadcastDeliversToAllSubscribers(t *testing.T) {
	h := New(10, clockwork.NewRealClock())
	defer h.Stop()

	a := h.Subscribe()
	b := h.Subscribe()
	require.Equal(t, 2, h.SubscriberCount())

	h.Broadcast(testEvent(7))

	for _, s := range []*Subscriber{a, b} {
		payload, ok, err := s.Receive(context.Background(), time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		var got domain.ChangeEvent
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, domain.EventProjectUpdated, got.Type)
		assert.Equal(t, int64(7), got.ID)
	}
}

func TestBroadcastPreservesPublishOrder(t *testing.T) {
	h := New(50, clockwork.NewRealClock())
	defer h.Stop()

	s := h.Subscribe()
	for i := int64(1); i <= 20; i++ {
		h.Broadcast(testEvent(i))
	}

	for i := int64(1); i <= 20; i++ {
		payload, ok, err := s.Receive(context.Background(), time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		var got domain.ChangeEvent
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, i, got.ID, "event %d out of order", i)
	}
}

func TestSaturatedInboxDropsOldestFirst(t *testing.T) {
	const capacity = 100
	h := New(capacity, clockwork.NewRealClock())
	defer h.Stop()

	s := h.Subscribe()
	for i := int64(0); i < 150; i++ {
		h.Broadcast(testEvent(i))
	}

	require.Equal(t, capacity, s.Pending())

	// The 50 oldest were discarded; the survivors are 50..149 in order.
	for i := int64(50); i < 150; i++ {
		payload, ok, err := s.Receive(context.Background(), time.Second)
		require.NoError(t, err)
		require.True(t, ok)

		var got domain.ChangeEvent
		require.NoError(t, json.Unmarshal(payload, &got))
		assert.Equal(t, i, got.ID)
	}
	assert.Equal(t, 0, s.Pending())
}

func TestSlowSubscriberDoesNotStallOthers(t *testing.T) {
	h := New(2, clockwork.NewRealClock())
	defer h.Stop()

	slow := h.Subscribe()
	fast := h.Subscribe()

	// Saturate the slow subscriber well past its capacity. Broadcast must
	// return promptly regardless.
	done := make(chan struct{})
	go func() {
		for i := int64(0); i < 1000; i++ {
			h.Broadcast(testEvent(i))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("broadcast blocked on a saturated subscriber")
	}

	assert.Equal(t, 2, slow.Pending())
	assert.Equal(t, 2, fast.Pending())
}

func TestUnsubscribeIsIdempotent(t *testing.T) {
	h := New(10, clockwork.NewRealClock())
	defer h.Stop()

	s := h.Subscribe()
	other := h.Subscribe()

	h.Unsubscribe(s)
	h.Unsubscribe(s)
	h.Unsubscribe(nil)

	assert.Equal(t, 1, h.SubscriberCount())

	// Fan-out still works for the remaining subscriber.
	h.Broadcast(testEvent(1))
	_, ok, err := other.Receive(context.Background(), time.Second)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestReceiveTimeoutSignalsHeartbeat(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := New(10, clock)
	defer h.Stop()

	s := h.Subscribe()

	type result struct {
		payload []byte
		ok      bool
		err     error
	}
	results := make(chan result, 1)
	go func() {
		payload, ok, err := s.Receive(context.Background(), 25*time.Second)
		results <- result{payload, ok, err}
	}()

	clock.BlockUntil(1)
	clock.Advance(25 * time.Second)

	select {
	case r := <-results:
		require.NoError(t, r.err)
		assert.False(t, r.ok)
		assert.Nil(t, r.payload)
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not return after the timeout elapsed")
	}
}

func TestReceiveDrainsPendingBeforeArmingTimer(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := New(10, clock)
	defer h.Stop()

	s := h.Subscribe()
	h.Broadcast(testEvent(3))

	// The fake clock never advances; a queued event must still come through.
	payload, ok, err := s.Receive(context.Background(), time.Minute)
	require.NoError(t, err)
	require.True(t, ok)

	var got domain.ChangeEvent
	require.NoError(t, json.Unmarshal(payload, &got))
	assert.Equal(t, int64(3), got.ID)
}

func TestReceiveHonoursContextCancellation(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := New(10, clock)
	defer h.Stop()

	s := h.Subscribe()

	ctx, cancel := context.WithCancel(context.Background())
	errs := make(chan error, 1)
	go func() {
		_, _, err := s.Receive(ctx, time.Minute)
		errs <- err
	}()

	clock.BlockUntil(1)
	cancel()

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not observe cancellation")
	}
}

func TestReceiveReturnsClosedAfterUnsubscribe(t *testing.T) {
	clock := clockwork.NewFakeClock()
	h := New(10, clock)
	defer h.Stop()

	s := h.Subscribe()

	errs := make(chan error, 1)
	go func() {
		_, _, err := s.Receive(context.Background(), time.Minute)
		errs <- err
	}()

	clock.BlockUntil(1)
	h.Unsubscribe(s)

	select {
	case err := <-errs:
		assert.ErrorIs(t, err, ErrSubscriberClosed)
	case <-time.After(5 * time.Second):
		t.Fatal("Receive did not observe subscriber closure")
	}
}

func TestStopDisconnectsEverySubscriber(t *testing.T) {
	h := New(10, clockwork.NewRealClock())

	subs := make([]*Subscriber, 5)
	for i := range subs {
		subs[i] = h.Subscribe()
	}

	h.Stop()
	assert.Equal(t, 0, h.SubscriberCount())

	for i, s := range subs {
		_, _, err := s.Receive(context.Background(), time.Second)
		assert.ErrorIs(t, err, ErrSubscriberClosed, "subscriber %d", i)
	}
}

func TestConcurrentBroadcastAndChurn(t *testing.T) {
	h := New(16, clockwork.NewRealClock())
	defer h.Stop()

	stop := make(chan struct{})
	go func() {
		for i := int64(0); ; i++ {
			select {
			case <-stop:
				return
			default:
				h.Broadcast(testEvent(i))
			}
		}
	}()

	for i := 0; i < 200; i++ {
		s := h.Subscribe()
		if i%3 == 0 {
			_, _, _ = s.Receive(context.Background(), time.Millisecond)
		}
		h.Unsubscribe(s)
	}
	close(stop)

	assert.Equal(t, 0, h.SubscriberCount())
}

func TestDistinctSubscribersGetDistinctIDs(t *testing.T) {
	h := New(10, clockwork.NewRealClock())
	defer h.Stop()

	seen := make(map[string]bool)
	for i := 0; i < 10; i++ {
		s := h.Subscribe()
		key := fmt.Sprint(s.ID())
		require.False(t, seen[key], "duplicate subscriber id")
		seen[key] = true
	}
}
