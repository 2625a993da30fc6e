package config

import (
	"fmt"
	"strings"

	postgrest "github.com/supabase-community/postgrest-go"
	supa "github.com/supabase-community/supabase-go"
)

// NewSupabaseClient creates the client used for Supabase Auth lookups.
func NewSupabaseClient(cfg Supabase) (*supa.Client, error) {
	client, err := supa.NewClient(cfg.URL, cfg.Key, nil)
	if err != nil {
		return nil, fmt.Errorf("initialize supabase client: %w", err)
	}
	return client, nil
}

// NewPostgrestClient creates a PostgREST client authenticated with the
// service key, for the job table.
func NewPostgrestClient(cfg Supabase) (*postgrest.Client, error) {
	client := postgrest.NewClient(strings.TrimRight(cfg.URL, "/")+"/rest/v1", "", map[string]string{
		"apikey":        cfg.Key,
		"Authorization": fmt.Sprintf("Bearer %s", cfg.Key),
	})
	if client.ClientError != nil {
		return nil, fmt.Errorf("initialize postgrest client: %w", client.ClientError)
	}
	return client, nil
}
