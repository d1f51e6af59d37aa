// Package relay is the in-memory room registry for live chat sessions.
//
// A room is keyed by connection ID and holds the set of currently subscribed
// sessions. Delivery is best-effort and at-most-once per subscriber per
// publish: the durable message log is the source of truth, the relay is a
// latency optimization. Subscribers that also poll history must deduplicate
// by message ID, since the same message can arrive once from a fetch and once
// from a push, in either order.
//
// Room membership is not persisted. A restarted hub starts empty and clients
// re-join on reconnect; Join is idempotent, so re-joining is always safe.
package relay

import (
	"sync"

	"github.com/knightkill/parley-app/internal/metrics"
	"github.com/knightkill/parley-app/internal/model"
	"go.uber.org/zap"
)

// subscriberBuffer is the per-session backlog. A session that falls further
// behind than this loses events instead of blocking the publisher.
const subscriberBuffer = 32

// Subscriber is one live session's handle in the hub. Events arrive on C
// until the subscriber leaves every room (or the hub closes), after which C
// is closed.
type Subscriber struct {
	events chan *model.Message

	mu    sync.Mutex
	rooms map[string]struct{}
	done  bool
}

func NewSubscriber() *Subscriber {
	return &Subscriber{
		events: make(chan *model.Message, subscriberBuffer),
		rooms:  make(map[string]struct{}),
	}
}

// C is the subscriber's event stream.
func (s *Subscriber) C() <-chan *model.Message {
	return s.events
}

// Hub maps connection IDs to the sets of live subscribers. It is owned by the
// server process and injected into the transport layer; there is no package
// global. All methods are safe for concurrent use.
type Hub struct {
	mu     sync.Mutex
	rooms  map[string]map[*Subscriber]struct{}
	closed bool

	logger *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		rooms:  make(map[string]map[*Subscriber]struct{}),
		logger: logger,
	}
}

// Join adds the subscriber to the room. Joining a room twice is a no-op.
func (h *Hub) Join(connectionID string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	room, ok := h.rooms[connectionID]
	if !ok {
		room = make(map[*Subscriber]struct{})
		h.rooms[connectionID] = room
		metrics.RelayRooms.Inc()
	}
	if _, ok := room[sub]; ok {
		return
	}
	room[sub] = struct{}{}
	metrics.RelaySubscribers.Inc()

	sub.mu.Lock()
	sub.rooms[connectionID] = struct{}{}
	sub.mu.Unlock()

	h.logger.Debug("subscriber joined room", zap.String("connection_id", connectionID))
}

// Leave removes the subscriber from the room; removing an absent subscriber
// is a no-op. The subscriber's channel stays open so it can join other rooms
// on the same session; only LeaveAll and Close close it.
func (h *Hub) Leave(connectionID string, sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(connectionID, sub)
}

// LeaveAll detaches the subscriber from every room it is in and closes its
// event channel. The transport calls this on session disconnect.
func (h *Hub) LeaveAll(sub *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()

	sub.mu.Lock()
	ids := make([]string, 0, len(sub.rooms))
	for id := range sub.rooms {
		ids = append(ids, id)
	}
	sub.mu.Unlock()

	for _, id := range ids {
		h.leaveLocked(id, sub)
	}
	h.finish(sub)
}

// Publish delivers msg to every subscriber currently in the room for
// msg.ConnectionID, including the publisher's own other sessions. A
// subscriber whose buffer is full simply misses the event; it will see the
// message on its next history fetch.
func (h *Hub) Publish(msg *model.Message) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}

	room := h.rooms[msg.ConnectionID]
	for sub := range room {
		select {
		case sub.events <- msg:
			metrics.RelayDelivered.Inc()
		default:
			metrics.RelayDropped.Inc()
			h.logger.Warn("relay subscriber too slow, event dropped",
				zap.String("connection_id", msg.ConnectionID),
				zap.String("message_id", msg.ID))
		}
	}
	metrics.RelayPublished.Inc()
}

// Close empties every room and closes every subscriber channel. Used on
// server shutdown; clients re-join after reconnecting.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return
	}
	h.closed = true

	for id, room := range h.rooms {
		for sub := range room {
			sub.mu.Lock()
			delete(sub.rooms, id)
			sub.mu.Unlock()
			metrics.RelaySubscribers.Dec()
			h.finish(sub)
		}
		delete(h.rooms, id)
		metrics.RelayRooms.Dec()
	}
}

// leaveLocked removes sub from one room. Caller holds h.mu.
func (h *Hub) leaveLocked(connectionID string, sub *Subscriber) {
	room, ok := h.rooms[connectionID]
	if !ok {
		return
	}
	if _, ok := room[sub]; !ok {
		return
	}
	delete(room, sub)
	metrics.RelaySubscribers.Dec()
	if len(room) == 0 {
		delete(h.rooms, connectionID)
		metrics.RelayRooms.Dec()
	}

	sub.mu.Lock()
	delete(sub.rooms, connectionID)
	sub.mu.Unlock()
}

func (h *Hub) finish(sub *Subscriber) {
	sub.mu.Lock()
	defer sub.mu.Unlock()
	if sub.done {
		return
	}
	sub.done = true
	close(sub.events)
}
