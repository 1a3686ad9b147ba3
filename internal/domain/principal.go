package domain

import (
	"errors"
	"fmt"
)

// PrincipalKind tells how a caller authenticated.
type PrincipalKind string

const (
	// PrincipalLocal authenticated with credentials issued by this service.
	PrincipalLocal PrincipalKind = "local"

	// PrincipalFederated authenticated through an external identity provider.
	PrincipalFederated PrincipalKind = "federated"
)

// Principal is the authenticated caller. The ledger only ever sees OwnerID.
type Principal struct {
	Kind     PrincipalKind
	Subject  string
	Provider string
}

// OwnerID returns the opaque ledger owner for the principal.
// Federated subjects are namespaced by provider so two providers cannot collide.
func (p Principal) OwnerID() string {
	if p.Kind == PrincipalFederated {
		return fmt.Sprintf("%s:%s", p.Provider, p.Subject)
	}
	return p.Subject
}

// Validate checks that the principal resolves to an owner.
func (p Principal) Validate() error {
	switch p.Kind {
	case PrincipalLocal:
		if p.Subject == "" {
			return ErrInvalidToken
		}
	case PrincipalFederated:
		if p.Subject == "" || p.Provider == "" {
			return ErrInvalidToken
		}
	default:
		return ErrInvalidToken
	}
	return nil
}

// Authentication errors
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)
