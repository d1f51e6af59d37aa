package service

import (
	"context"
	"crypto/rand"
	"fmt"

	"github.com/knightkill/parley-app/internal/apperr"
)

// codeAlphabet excludes lookalike symbols (0/O, 1/I), 32 symbols total so a
// random byte maps onto it without modulo bias.
const codeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"

const (
	codeLength      = 8
	maxCodeAttempts = 10
)

// generateCode возвращает один случайный код-кандидат.
func generateCode() (string, error) {
	buf := make([]byte, codeLength)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate random bytes: %w", err)
	}
	out := make([]byte, codeLength)
	for i, b := range buf {
		out[i] = codeAlphabet[int(b)%len(codeAlphabet)]
	}
	return string(out), nil
}

// uniqueCode generates a code absent from the ledger, probing at most
// maxCodeAttempts times. Exhausting every attempt is operationally
// near-impossible in a 32^8 space but still a handled failure mode.
func uniqueCode(ctx context.Context, exists func(context.Context, string) (bool, error)) (string, error) {
	for i := 0; i < maxCodeAttempts; i++ {
		code, err := generateCode()
		if err != nil {
			return "", err
		}
		taken, err := exists(ctx, code)
		if err != nil {
			return "", fmt.Errorf("check code exists: %w", err)
		}
		if !taken {
			return code, nil
		}
	}
	return "", apperr.Wrap(apperr.ErrCodeSpaceExhausted, "%d attempts collided", maxCodeAttempts)
}
