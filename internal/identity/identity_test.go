package identity

import (
	"context"
	"errors"
	"testing"
)

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
	}{
		{"Bearer abc.def", "abc.def"},
		{"bearer   xyz  ", "xyz"},
		{"Basic dXNlcg==", ""},
		{"Bearer", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := BearerToken(tt.header); got != tt.want {
			t.Errorf("BearerToken(%q) = %q, want %q", tt.header, got, tt.want)
		}
	}
}

func TestIsPro(t *testing.T) {
	if IsPro(nil) {
		t.Error("anonymous caller must not be pro")
	}
	if IsPro(&Identity{UserID: "u1"}) {
		t.Error("free caller must not be pro")
	}
	if !IsPro(&Identity{UserID: "u2", Pro: true}) {
		t.Error("pro caller must be pro")
	}
}

func TestContextRoundTrip(t *testing.T) {
	if FromContext(context.Background()) != nil {
		t.Fatal("empty context should carry no identity")
	}
	id := &Identity{UserID: "u1", Pro: true}
	if got := FromContext(WithIdentity(context.Background(), id)); got != id {
		t.Fatalf("FromContext = %v, want %v", got, id)
	}
}

func TestEntitled(t *testing.T) {
	tests := []struct {
		name string
		meta map[string]interface{}
		want bool
	}{
		{"bool true", map[string]interface{}{"is_pro": true}, true},
		{"bool false", map[string]interface{}{"is_pro": false}, false},
		{"string true", map[string]interface{}{"is_pro": "TRUE"}, true},
		{"string one", map[string]interface{}{"is_pro": "1"}, true},
		{"number", map[string]interface{}{"is_pro": float64(1)}, true},
		{"missing", map[string]interface{}{"plan": "pro"}, false},
		{"nil map", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := entitled(tt.meta); got != tt.want {
				t.Errorf("entitled() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSupabaseResolver(t *testing.T) {
	r := &SupabaseResolver{lookup: func(token string) (*Identity, error) {
		if token == "good" {
			return &Identity{UserID: "u1", Pro: true}, nil
		}
		return nil, ErrInvalidToken
	}}

	id, err := r.Resolve(context.Background(), "")
	if err != nil || id != nil {
		t.Fatalf("empty token: got (%v, %v), want (nil, nil)", id, err)
	}

	id, err = r.Resolve(context.Background(), "good")
	if err != nil || !IsPro(id) {
		t.Fatalf("good token: got (%v, %v)", id, err)
	}

	if _, err := r.Resolve(context.Background(), "bad"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("bad token: got %v, want ErrInvalidToken", err)
	}
}
