package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/knightkill/parley-app/internal/apperr"
)

func TestGenerateCodeShape(t *testing.T) {
	seen := make(map[string]bool)
	for i := 0; i < 200; i++ {
		code, err := generateCode()
		if err != nil {
			t.Fatal(err)
		}
		if len(code) != codeLength {
			t.Fatalf("code %q has length %d, want %d", code, len(code), codeLength)
		}
		for _, r := range code {
			if !strings.ContainsRune(codeAlphabet, r) {
				t.Fatalf("code %q contains %q outside the alphabet", code, r)
			}
		}
		seen[code] = true
	}
	// 200 кодов из пространства 32^8 — коллизии здесь почти наверняка баг.
	if len(seen) < 190 {
		t.Fatalf("only %d distinct codes out of 200", len(seen))
	}
}

func TestAlphabetExcludesLookalikes(t *testing.T) {
	if len(codeAlphabet) != 32 {
		t.Fatalf("alphabet has %d symbols, want 32", len(codeAlphabet))
	}
	for _, bad := range "0O1Il" {
		if strings.ContainsRune(codeAlphabet, bad) {
			t.Fatalf("alphabet contains ambiguous symbol %q", bad)
		}
	}
}

func TestUniqueCodeRetriesOnCollision(t *testing.T) {
	collisions := 3
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return calls <= collisions, nil
	}

	code, err := uniqueCode(context.Background(), exists)
	if err != nil {
		t.Fatal(err)
	}
	if code == "" {
		t.Fatal("empty code")
	}
	if calls != collisions+1 {
		t.Fatalf("probed %d times, want %d", calls, collisions+1)
	}
}

func TestUniqueCodeExhaustsAttempts(t *testing.T) {
	calls := 0
	exists := func(ctx context.Context, code string) (bool, error) {
		calls++
		return true, nil
	}

	_, err := uniqueCode(context.Background(), exists)
	if !errors.Is(err, apperr.ErrCodeSpaceExhausted) {
		t.Fatalf("got %v, want ErrCodeSpaceExhausted", err)
	}
	if calls != maxCodeAttempts {
		t.Fatalf("probed %d times, want %d", calls, maxCodeAttempts)
	}
}
