// Package relay bridges the local broadcast hub to other instances through
// Redis pub/sub, so every instance's subscribers see every change event.
package relay

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/sony/gobreaker"

	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/domain"
	"github.com/achilleasntalagiorgos1997/pm-dashboard/internal/metrics"
)

const (
	channel       = "projects:events"
	queueCapacity = 256
)

// envelope is the wire format on the relay channel. Origin lets an instance
// ignore its own messages when they come back around.
type envelope struct {
	Origin uuid.UUID          `json:"origin"`
	Event  domain.ChangeEvent `json:"event"`
}

// Relay forwards locally published change events to Redis and feeds events
// from other instances into the local publisher. Publish never blocks: a full
// queue or an open circuit breaker drops the event, mirroring the hub's
// lossy delivery contract.
type Relay struct {
	rdb     *redis.Client
	local   domain.EventPublisher
	origin  uuid.UUID
	queue   chan domain.ChangeEvent
	breaker *gobreaker.CircuitBreaker

	wg     sync.WaitGroup
	cancel context.CancelFunc
	once   sync.Once
}

// New creates a relay that mirrors events between the local publisher and
// Redis. Call Start before publishing.
func New(rdb *redis.Client, local domain.EventPublisher) *Relay {
	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:     "redis-relay",
		Interval: 10 * time.Second,
		Timeout:  30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("Relay circuit breaker state changed",
				"name", name, "from", from.String(), "to", to.String())
		},
	})

	return &Relay{
		rdb:     rdb,
		local:   local,
		origin:  uuid.New(),
		queue:   make(chan domain.ChangeEvent, queueCapacity),
		breaker: breaker,
	}
}

// Origin identifies this instance on the relay channel.
func (r *Relay) Origin() uuid.UUID {
	return r.origin
}

// Publish implements domain.EventPublisher. The event is queued for the
// publisher worker; when the queue is full the event is dropped.
func (r *Relay) Publish(event domain.ChangeEvent) {
	select {
	case r.queue <- event:
	default:
		metrics.RelayDroppedTotal.Inc()
	}
}

// Start launches the publisher worker and the subscriber loop. They run
// until Stop is called or ctx is cancelled.
func (r *Relay) Start(ctx context.Context) {
	ctx, r.cancel = context.WithCancel(ctx)

	r.wg.Add(2)
	go r.publishLoop(ctx)
	go r.subscribeLoop(ctx)
}

// Stop shuts both loops down and waits for them.
func (r *Relay) Stop() {
	r.once.Do(func() {
		if r.cancel != nil {
			r.cancel()
		}
		r.wg.Wait()
	})
}

func (r *Relay) publishLoop(ctx context.Context) {
	defer r.wg.Done()

	for {
		select {
		case event := <-r.queue:
			r.forward(ctx, event)
		case <-ctx.Done():
			return
		}
	}
}

func (r *Relay) forward(ctx context.Context, event domain.ChangeEvent) {
	data, err := json.Marshal(envelope{Origin: r.origin, Event: event})
	if err != nil {
		slog.Error("Failed to marshal relay envelope", "type", event.Type, "error", err)
		metrics.RelayDroppedTotal.Inc()
		return
	}

	_, err = r.breaker.Execute(func() (any, error) {
		return nil, r.rdb.Publish(ctx, channel, data).Err()
	})
	if err != nil {
		metrics.RelayDroppedTotal.Inc()
		slog.Debug("Relay publish dropped", "type", event.Type, "error", err)
		return
	}
	metrics.RelayPublishedTotal.Inc()
}

func (r *Relay) subscribeLoop(ctx context.Context) {
	defer r.wg.Done()

	pubsub := r.rdb.Subscribe(ctx, channel)
	defer func() {
		_ = pubsub.Close()
	}()

	ch := pubsub.Channel()
	for {
		select {
		case msg, ok := <-ch:
			if !ok {
				return
			}
			r.handleMessage(msg.Payload)
		case <-ctx.Done():
			return
		}
	}
}

// handleMessage feeds one relayed event into the local publisher, skipping
// messages this instance produced itself.
func (r *Relay) handleMessage(payload string) {
	var env envelope
	if err := json.Unmarshal([]byte(payload), &env); err != nil {
		slog.Warn("Invalid relay message", "error", err)
		return
	}
	if env.Origin == r.origin {
		return
	}

	metrics.RelayReceivedTotal.Inc()
	r.local.Publish(env.Event)
}
