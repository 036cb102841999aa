//go:generate go run go.uber.org/mock/mockgen -source=verifier.go -destination=../../mocks/mock_verifier.go -package=mocks

// Package auth verifies the signed session tokens presented on the socket handshake.
package auth

import (
	"context"
	"errors"
)

var (
	// ErrMissingToken means no credential was presented.
	ErrMissingToken = errors.New("missing token")
	// ErrInvalidToken indicates a bad signature, algorithm or payload.
	ErrInvalidToken = errors.New("invalid token")
	// ErrExpiredToken signals that the token's expiry is in the past.
	ErrExpiredToken = errors.New("token expired")
)

// Identity is what a verified token proves about its bearer.
type Identity struct {
	UserID string
}

// Verifier checks a token's signature and expiry.
// Failures wrap ErrInvalidToken or ErrExpiredToken; any other error is unexpected.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
