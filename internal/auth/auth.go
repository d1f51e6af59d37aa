// Package auth resolves the calling account for a request. Session issuance
// itself is an external concern; this service only verifies tokens.
package auth

import (
	"net/http"
	"strings"

	"github.com/knightkill/parley-app/internal/apperr"
	"github.com/knightkill/parley-app/internal/model"
	"github.com/knightkill/parley-app/internal/repository"
)

// Authenticator resolves the account behind a request, or
// apperr.ErrUnauthenticated when there is none.
type Authenticator interface {
	Authenticate(r *http.Request) (*model.User, error)
}

// TokenAuthenticator resolves a bearer token against the users table. Tokens
// are provisioned out of band (seed data, admin tooling).
type TokenAuthenticator struct {
	users *repository.UserRepository
}

func NewTokenAuthenticator(users *repository.UserRepository) *TokenAuthenticator {
	return &TokenAuthenticator{users: users}
}

func (a *TokenAuthenticator) Authenticate(r *http.Request) (*model.User, error) {
	token := bearerToken(r)
	if token == "" {
		// Браузерный WebSocket не умеет ставить заголовки — токен в query.
		token = r.URL.Query().Get("token")
	}
	if token == "" {
		return nil, apperr.ErrUnauthenticated
	}

	user, err := a.users.GetByToken(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, apperr.ErrUnauthenticated
	}
	return user, nil
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	const prefix = "Bearer "
	if len(h) > len(prefix) && strings.EqualFold(h[:len(prefix)], prefix) {
		return h[len(prefix):]
	}
	return ""
}
