package identity

import (
	"context"
	"fmt"
	"strings"

	supa "github.com/supabase-community/supabase-go"
)

// entitlementKey is read from app_metadata, which only the service role can
// write. user_metadata is editable by the user and is ignored.
const entitlementKey = "is_pro"

// SupabaseResolver verifies access tokens against Supabase Auth.
type SupabaseResolver struct {
	lookup func(token string) (*Identity, error)
}

// NewSupabaseResolver builds a resolver backed by client's Auth API.
func NewSupabaseResolver(client *supa.Client) *SupabaseResolver {
	return &SupabaseResolver{
		lookup: func(token string) (*Identity, error) {
			user, err := client.Auth.WithToken(token).GetUser()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
			}
			return &Identity{
				UserID: user.ID.String(),
				Email:  user.Email,
				Pro:    entitled(user.AppMetadata),
			}, nil
		},
	}
}

// Resolve returns nil for an empty token.
func (r *SupabaseResolver) Resolve(ctx context.Context, token string) (*Identity, error) {
	if token == "" {
		return nil, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.lookup(token)
}

// entitled accepts the flag as a bool or as the strings "true"/"1".
func entitled(meta map[string]interface{}) bool {
	switch v := meta[entitlementKey].(type) {
	case bool:
		return v
	case string:
		v = strings.ToLower(strings.TrimSpace(v))
		return v == "true" || v == "1"
	case float64:
		return v != 0
	default:
		return false
	}
}
