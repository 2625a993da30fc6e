package main

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"framegrab/config"
	"framegrab/internal/identity"
	"framegrab/internal/jobstore"
)

// openBackend builds the job store and dispatcher selected by cfg.Backend.
// The returned close func releases any client connections.
func openBackend(cfg config.Config, logger *logrus.Logger) (jobstore.Backend, func() error, error) {
	noop := func() error { return nil }

	switch cfg.Backend {
	case config.BackendMemory:
		logger.Warn("Using in-memory job backend; jobs are lost on restart")
		return jobstore.NewMemory(), noop, nil

	case config.BackendRedis:
		client, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		return jobstore.NewRedisBackend(client, cfg.Redis.KeyPrefix, cfg.Redis.Queue), client.Close, nil

	case config.BackendSupabase:
		pg, err := config.NewPostgrestClient(cfg.Supabase)
		if err != nil {
			return nil, nil, err
		}
		client, err := config.NewRedisClient(cfg.Redis)
		if err != nil {
			return nil, nil, err
		}
		queue := jobstore.NewRedisBackend(client, cfg.Redis.KeyPrefix, cfg.Redis.Queue)
		store := jobstore.NewPostgrestStore(pg, cfg.Supabase.Table)
		logger.WithField("table", cfg.Supabase.Table).Warn("Supabase backend: the worker must write results to the job table, not to Redis")
		return jobstore.NewSequential(store, queue, logger), client.Close, nil
	}
	return nil, nil, fmt.Errorf("backend: unknown value %q", cfg.Backend)
}

// openResolver returns the Supabase Auth resolver when Supabase is
// configured; otherwise every caller is anonymous.
func openResolver(cfg config.Config, logger *logrus.Logger) (identity.Resolver, error) {
	if !cfg.IdentityEnabled() {
		logger.Warn("Supabase not configured; all callers are treated as free tier")
		return identity.Anonymous{}, nil
	}
	client, err := config.NewSupabaseClient(cfg.Supabase)
	if err != nil {
		return nil, err
	}
	return identity.NewSupabaseResolver(client), nil
}
