package service_test

import (
	"errors"
	"testing"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
)

func TestConnectionListAttachesSummaries(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	other := e.seedUser(t, "Other Guardian", model.RoleGuardian)
	e.connect(t, teacher, guardian, "Petya")
	e.connect(t, teacher, other, "Masha")

	conns, err := e.connSvc.ListForAccount(e.ctx, teacher.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(conns) != 2 {
		t.Fatalf("teacher has %d connections, want 2", len(conns))
	}
	for _, c := range conns {
		if c.Guardian == nil || c.Teacher == nil {
			t.Fatalf("connection %s missing party summaries", c.ID)
		}
		if c.Teacher.ID != teacher.ID {
			t.Fatalf("connection %s teacher summary is %s", c.ID, c.Teacher.ID)
		}
	}

	guardianView, err := e.connSvc.ListForAccount(e.ctx, guardian.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(guardianView) != 1 {
		t.Fatalf("guardian has %d connections, want 1", len(guardianView))
	}

	empty, err := e.connSvc.ListForAccount(e.ctx, "00000000-0000-0000-0000-000000000000")
	if err != nil {
		t.Fatal(err)
	}
	if empty == nil || len(empty) != 0 {
		t.Fatalf("unknown account lists %v", empty)
	}
}

func TestConnectionCounterparty(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	got, err := e.connSvc.Counterparty(e.ctx, conn, guardian.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != teacher.ID {
		t.Fatalf("counterparty %s, want %s", got.ID, teacher.ID)
	}

	if _, err := e.connSvc.Counterparty(e.ctx, conn, "00000000-0000-0000-0000-000000000000"); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("non-member: got %v, want ErrUnauthorized", err)
	}
}

// Чтения отвечают NotFound, мутации — Unauthorized.
func TestConnectionScopingErrors(t *testing.T) {
	e := newEnv(t)
	teacher := e.seedUser(t, "Teacher", model.RoleTeacher)
	guardian := e.seedUser(t, "Guardian", model.RoleGuardian)
	outsider := e.seedUser(t, "Outsider", model.RoleGuardian)
	conn := e.connect(t, teacher, guardian, "Petya")

	if _, err := e.connSvc.GetForAccount(e.ctx, outsider.ID, conn.ID); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("foreign get: got %v, want ErrNotFound", err)
	}
	if _, err := e.connSvc.Authorize(e.ctx, outsider.ID, conn.ID); !errors.Is(err, apperr.ErrUnauthorized) {
		t.Fatalf("foreign authorize: got %v, want ErrUnauthorized", err)
	}

	got, err := e.connSvc.GetForAccount(e.ctx, guardian.ID, conn.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.ChildName != "Petya" {
		t.Fatalf("child name %q", got.ChildName)
	}
}
