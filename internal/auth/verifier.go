// Package auth verifies bearer credentials against an identity provider
// and resolves them to a stable user identity. Two verifiers are provided:
// OIDC for externally-issued ID tokens and JWT for locally-issued HS256
// tokens. Both are injected explicitly wherever an identity is needed;
// nothing here is resolved through globals.
package auth

import (
	"context"
	"errors"
)

// ErrInvalidToken is returned when the identity provider rejects a
// credential (expired, malformed, bad signature, unknown issuer). Handlers
// map it to 403; the request never reaches the object store.
var ErrInvalidToken = errors.New("invalid token")

// Identity is the verified result of a credential. It lives for the
// duration of one request and is never persisted.
type Identity struct {
	UID   string
	Email string
}

// Verifier validates an opaque bearer credential and yields the identity
// it proves. Implementations must return ErrInvalidToken (possibly
// wrapped) for any credential the provider rejects.
type Verifier interface {
	Verify(ctx context.Context, token string) (*Identity, error)
}
