package service_test

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/relay"
)

func TestAppendAndListOrdering(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	var want []string
	for i := 0; i < 5; i++ {
		// Чередуем стороны: порядок определяется вставкой, не отправителем.
		sender := guardian.ID
		if i%2 == 1 {
			sender = teacher.ID
		}
		msg, err := e.chatSvc.Append(e.ctx, sender, conn.ID, fmt.Sprintf("msg %d", i))
		if err != nil {
			t.Fatal(err)
		}
		want = append(want, msg.ID)
	}

	msgs, err := e.chatSvc.List(e.ctx, teacher.ID, conn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != len(want) {
		t.Fatalf("listed %d messages, want %d", len(msgs), len(want))
	}
	for i, m := range msgs {
		if m.ID != want[i] {
			t.Fatalf("position %d has %s, want %s", i, m.ID, want[i])
		}
		if m.Sender == nil {
			t.Fatalf("message %s has no sender summary", m.ID)
		}
	}

	// Повторное чтение без новых записей отдаёт ту же последовательность.
	again, err := e.chatSvc.List(e.ctx, guardian.ID, conn.ID)
	if err != nil {
		t.Fatal(err)
	}
	for i, m := range again {
		if m.ID != want[i] {
			t.Fatalf("second read diverged at %d: %s vs %s", i, m.ID, want[i])
		}
	}
}

func TestAppendSetsReceiver(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	msg, err := e.chatSvc.Append(e.ctx, guardian.ID, conn.ID, "hello")
	if err != nil {
		t.Fatal(err)
	}
	if msg.ReceiverID != teacher.ID {
		t.Fatalf("receiver %s, want %s", msg.ReceiverID, teacher.ID)
	}

	back, err := e.chatSvc.Append(e.ctx, teacher.ID, conn.ID, "hi")
	if err != nil {
		t.Fatal(err)
	}
	if back.ReceiverID != guardian.ID {
		t.Fatalf("receiver %s, want %s", back.ReceiverID, guardian.ID)
	}
}

func TestAppendPublishesToRoom(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	sub := relay.NewSubscriber()
	e.hub.Join(conn.ID, sub)
	defer e.hub.LeaveAll(sub)

	msg, err := e.chatSvc.Append(e.ctx, guardian.ID, conn.ID, "hello")
	if err != nil {
		t.Fatal(err)
	}

	select {
	case got := <-sub.C():
		if got.ID != msg.ID {
			t.Fatalf("relay delivered %s, want %s", got.ID, msg.ID)
		}
		if got.Content != "hello" {
			t.Fatalf("relay delivered content %q", got.Content)
		}
	case <-time.After(time.Second):
		t.Fatal("no relay event after append")
	}
}

func TestAppendRejectsEmptyContent(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	if _, err := e.chatSvc.Append(e.ctx, guardian.ID, conn.ID, "   \n"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("got %v, want ErrInvalidInput", err)
	}

	msgs, err := e.chatSvc.List(e.ctx, guardian.ID, conn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(msgs) != 0 {
		t.Fatalf("rejected append left %d messages", len(msgs))
	}
}

// Чужая связь неотличима от несуществующей.
func TestChatForeignConnectionLooksMissing(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	outsider := e.seedUser(t, "Outsider", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	if _, err := e.chatSvc.List(e.ctx, outsider.ID, conn.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign list: got %v, want ErrNotFound", err)
	}
	if _, err := e.chatSvc.Append(e.ctx, outsider.ID, conn.ID, "hi"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign append: got %v, want ErrNotFound", err)
	}
	if _, err := e.chatSvc.List(e.ctx, guardian.ID, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("missing connection: got %v, want ErrNotFound", err)
	}
}
