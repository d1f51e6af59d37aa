package relay

import (
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/knightkill/parley-app/internal/model"
	"go.uber.org/zap"
)

func newMsg(connectionID, id string) *model.Message {
	return &model.Message{ID: id, ConnectionID: connectionID, Content: "hi", CreatedAt: time.Now()}
}

// receiveOne ждёт одно событие с коротким таймаутом.
func receiveOne(t *testing.T, sub *Subscriber) *model.Message {
	t.Helper()
	select {
	case msg, ok := <-sub.C():
		if !ok {
			t.Fatal("subscriber channel closed unexpectedly")
		}
		return msg
	case <-time.After(time.Second):
		t.Fatal("no event delivered")
	}
	return nil
}

func assertNoEvent(t *testing.T, sub *Subscriber) {
	t.Helper()
	select {
	case msg, ok := <-sub.C():
		if ok {
			t.Fatalf("unexpected event %s", msg.ID)
		}
	default:
	}
}

func TestPublishDeliversToRoomMembers(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	a := NewSubscriber()
	b := NewSubscriber()
	other := NewSubscriber()
	hub.Join("conn-1", a)
	hub.Join("conn-1", b)
	hub.Join("conn-2", other)

	msg := newMsg("conn-1", "m1")
	hub.Publish(msg)

	if got := receiveOne(t, a); got.ID != "m1" {
		t.Fatalf("subscriber a got %s, want m1", got.ID)
	}
	if got := receiveOne(t, b); got.ID != "m1" {
		t.Fatalf("subscriber b got %s, want m1", got.ID)
	}
	assertNoEvent(t, other)
}

func TestJoinIsIdempotent(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	sub := NewSubscriber()
	hub.Join("conn-1", sub)
	hub.Join("conn-1", sub)

	hub.Publish(newMsg("conn-1", "m1"))

	receiveOne(t, sub)
	assertNoEvent(t, sub)
}

func TestLeaveStopsDelivery(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	sub := NewSubscriber()
	hub.Join("conn-1", sub)
	hub.Leave("conn-1", sub)

	hub.Publish(newMsg("conn-1", "m1"))
	assertNoEvent(t, sub)
}

func TestLeaveAbsentIsNoop(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	sub := NewSubscriber()
	hub.Leave("conn-1", sub) // never joined

	hub.Join("conn-1", sub)
	hub.Publish(newMsg("conn-1", "m1"))
	receiveOne(t, sub)
}

func TestSlowSubscriberDropsInsteadOfBlocking(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	sub := NewSubscriber()
	hub.Join("conn-1", sub)

	// Переполняем буфер: лишние события теряются, Publish не блокируется.
	total := subscriberBuffer + 5
	done := make(chan struct{})
	go func() {
		for i := 0; i < total; i++ {
			hub.Publish(newMsg("conn-1", fmt.Sprintf("m%d", i)))
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	delivered := 0
	for {
		select {
		case <-sub.C():
			delivered++
			continue
		default:
		}
		break
	}
	if delivered != subscriberBuffer {
		t.Fatalf("delivered %d events, want %d", delivered, subscriberBuffer)
	}
}

func TestLeaveAllClosesSubscriber(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	sub := NewSubscriber()
	hub.Join("conn-1", sub)
	hub.Join("conn-2", sub)

	hub.LeaveAll(sub)

	hub.Publish(newMsg("conn-1", "m1"))
	hub.Publish(newMsg("conn-2", "m2"))

	if _, ok := <-sub.C(); ok {
		t.Fatal("expected closed channel after LeaveAll")
	}
}

func TestCloseDropsEveryRoom(t *testing.T) {
	hub := NewHub(zap.NewNop())

	a := NewSubscriber()
	b := NewSubscriber()
	hub.Join("conn-1", a)
	hub.Join("conn-2", b)

	hub.Close()

	if _, ok := <-a.C(); ok {
		t.Fatal("subscriber a channel open after Close")
	}
	if _, ok := <-b.C(); ok {
		t.Fatal("subscriber b channel open after Close")
	}

	// После Close всё превращается в no-op.
	hub.Join("conn-1", a)
	hub.Publish(newMsg("conn-1", "m1"))
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
	hub := NewHub(zap.NewNop())
	defer hub.Close()

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			room := fmt.Sprintf("conn-%d", i%4)
			sub := NewSubscriber()
			for j := 0; j < 50; j++ {
				hub.Join(room, sub)
				hub.Publish(newMsg(room, fmt.Sprintf("m-%d-%d", i, j)))
				hub.Leave(room, sub)
			}
			hub.LeaveAll(sub)
		}(i)
	}
	wg.Wait()
}
