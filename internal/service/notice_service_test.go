package service_test

import (
	"errors"
	"testing"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
)

func TestNoticeCreateTeacherOnly(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	notice, err := e.noticeSvc.Create(e.ctx, teacher.ID, conn.ID, model.NoticeTypeNotice, "Schedule", "No class Friday")
	if err != nil {
		t.Fatal(err)
	}
	if notice.TeacherID != teacher.ID || notice.ConnectionID != conn.ID {
		t.Fatalf("notice bound to %s/%s", notice.TeacherID, notice.ConnectionID)
	}

	if _, err := e.noticeSvc.Create(e.ctx, guardian.ID, conn.ID, model.NoticeTypeNotice, "Hi", "Not allowed"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("guardian create: got %v, want ErrUnauthorized", err)
	}
}

func TestNoticeValidation(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	if _, err := e.noticeSvc.Create(e.ctx, teacher.ID, conn.ID, "RANT", "Title", "Content"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("bad type: got %v, want ErrInvalidInput", err)
	}
	if _, err := e.noticeSvc.Create(e.ctx, teacher.ID, conn.ID, model.NoticeTypeComplaint, "  ", "Content"); !errors.Is(err, apperr.ErrInvalidInput) {
		t.Fatalf("blank title: got %v, want ErrInvalidInput", err)
	}

	// Учитель не может вещать в чужую связь.
	otherTeacher := e.seedUser(t, "Other", model.RoleTeacher)
	if _, err := e.noticeSvc.Create(e.ctx, otherTeacher.ID, conn.ID, model.NoticeTypeNotice, "Title", "Content"); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign connection: got %v, want ErrNotFound", err)
	}
}

// Роль решает форму выдачи: учитель видит своё авторство, опекун — всё по
// своим связям.
func TestNoticeListByRole(t *testing.T) {
	e := newEnv(t)
	teacherA := e.seedUser(t, "Teacher A", model.RoleTeacher)
	teacherB := e.seedUser(t, "Teacher B", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	connA := e.connect(t, teacherA, guardian, "Petya")
	connB := e.connect(t, teacherB, guardian, "Petya")

	first, err := e.noticeSvc.Create(e.ctx, teacherA.ID, connA.ID, model.NoticeTypeNotice, "From A", "...")
	if err != nil {
		t.Fatal(err)
	}
	second, err := e.noticeSvc.Create(e.ctx, teacherB.ID, connB.ID, model.NoticeTypeComplaint, "From B", "...")
	if err != nil {
		t.Fatal(err)
	}

	aView, err := e.noticeSvc.ListForAccount(e.ctx, teacherA.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(aView) != 1 || aView[0].ID != first.ID {
		t.Fatalf("teacher A sees %d notices", len(aView))
	}

	gView, err := e.noticeSvc.ListForAccount(e.ctx, guardian.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(gView) != 2 {
		t.Fatalf("guardian sees %d notices, want 2", len(gView))
	}
	// Новые первыми.
	if gView[0].ID != second.ID || gView[1].ID != first.ID {
		t.Fatalf("notices out of order: %s, %s", gView[0].ID, gView[1].ID)
	}

	if _, err := e.noticeSvc.ListForAccount(e.ctx, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, apperr.ErrUnauthenticated) {
		t.Fatalf("unknown account: got %v, want ErrUnauthenticated", err)
	}
}
