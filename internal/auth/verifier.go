// Package auth is the session/identity gate contract. Identity lives in an
// external provider; this package only verifies presented tokens and resolves
// the caller's role.
package auth

import (
	"context"
	"errors"
	"strings"

	"github.com/codefyre/backend/internal/model/identity"
)

var ErrInvalidToken = errors.New("invalid or expired token")

// Verifier turns a bearer token into a caller identity. Implementations wrap
// whatever identity provider the deployment uses.
type Verifier interface {
	Verify(ctx context.Context, token string) (identity.Identity, error)
}

// StaticVerifier resolves tokens against a fixed map, the development and
// test stand-in for the hosted identity provider.
type StaticVerifier struct {
	tokens map[string]identity.Identity
}

// NewStaticVerifier builds a verifier over a token -> identity map.
func NewStaticVerifier(tokens map[string]identity.Identity) *StaticVerifier {
	return &StaticVerifier{tokens: tokens}
}

// Verify looks the token up; unknown tokens fail with ErrInvalidToken.
func (v *StaticVerifier) Verify(_ context.Context, token string) (identity.Identity, error) {
	id, ok := v.tokens[token]
	if !ok {
		return identity.Identity{}, ErrInvalidToken
	}
	return id, nil
}

// RoleChecker answers whether a verified caller holds the admin role.
type RoleChecker interface {
	IsAdmin(ctx context.Context, id identity.Identity) (bool, error)
}

// RoleCheckerFunc adapts a function to the RoleChecker interface.
type RoleCheckerFunc func(ctx context.Context, id identity.Identity) (bool, error)

// IsAdmin calls f.
func (f RoleCheckerFunc) IsAdmin(ctx context.Context, id identity.Identity) (bool, error) {
	return f(ctx, id)
}

// EmailRoles grants admin by email allow-list, the fallback when no
// relational role table is configured.
type EmailRoles struct {
	emails map[string]bool
}

// NewEmailRoles builds the allow-list checker; matching is case-insensitive.
func NewEmailRoles(emails []string) *EmailRoles {
	set := make(map[string]bool, len(emails))
	for _, e := range emails {
		if e = strings.ToLower(strings.TrimSpace(e)); e != "" {
			set[e] = true
		}
	}
	return &EmailRoles{emails: set}
}

// IsAdmin reports allow-list membership.
func (r *EmailRoles) IsAdmin(_ context.Context, id identity.Identity) (bool, error) {
	return r.emails[strings.ToLower(id.Email)], nil
}
