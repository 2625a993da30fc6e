// Package identity resolves the caller behind a request.
package identity

import (
	"context"
	"errors"
	"strings"
)

// ErrInvalidToken is returned when a presented token cannot be verified.
var ErrInvalidToken = errors.New("invalid token")

// Identity is a signed-in caller. A nil *Identity is an anonymous caller.
type Identity struct {
	UserID string
	Email  string
	Pro    bool
}

// IsPro reports whether id carries the pro entitlement. Nil is anonymous.
func IsPro(id *Identity) bool {
	return id != nil && id.Pro
}

// Resolver turns a bearer token into an Identity.
type Resolver interface {
	Resolve(ctx context.Context, token string) (*Identity, error)
}

// Anonymous resolves every token to no identity. It is used when no
// identity provider is configured.
type Anonymous struct{}

func (Anonymous) Resolve(context.Context, string) (*Identity, error) {
	return nil, nil
}

// BearerToken extracts the token from an Authorization header value.
func BearerToken(header string) string {
	header = strings.TrimSpace(header)
	if len(header) < 7 || !strings.EqualFold(header[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

type ctxKey struct{}

// WithIdentity stores id on ctx.
func WithIdentity(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// FromContext returns the identity stored on ctx, or nil.
func FromContext(ctx context.Context) *Identity {
	id, _ := ctx.Value(ctxKey{}).(*Identity)
	return id
}
