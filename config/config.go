package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
)

// HTTP configures the public API listener.
type HTTP struct {
	Addr                   string `toml:"addr"`
	CORSOrigins            string `toml:"cors_origins"`
	DownloadTimeoutSeconds int    `toml:"download_timeout_seconds"`
}

// GRPC configures the health endpoint.
type GRPC struct {
	Addr string `toml:"addr"`
}

// Redis configures the job store and work queue when backend is redis, and
// the work queue when backend is supabase.
type Redis struct {
	URL       string `toml:"url"`
	Queue     string `toml:"queue"`
	KeyPrefix string `toml:"key_prefix"`
}

// Supabase configures the identity provider and, for the supabase backend,
// the job table.
type Supabase struct {
	URL   string `toml:"url"`
	Key   string `toml:"key"`
	Table string `toml:"table"`
}

// Sweeper configures the reconciliation loop.
type Sweeper struct {
	IntervalSeconds        int `toml:"interval_seconds"`
	QueuedThresholdSeconds int `toml:"queued_threshold_seconds"`
	MaxProcessingSeconds   int `toml:"max_processing_seconds"`
	MaxDispatchAttempts    int `toml:"max_dispatch_attempts"`
}

// Gating selects whose tier shapes a finished job: "viewer" or "owner".
type Gating struct {
	Mode string `toml:"mode"`
}

// Log configures the logrus logger.
type Log struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// Config is the full service configuration.
type Config struct {
	Backend  string   `toml:"backend"`
	HTTP     HTTP     `toml:"http"`
	GRPC     GRPC     `toml:"grpc"`
	Redis    Redis    `toml:"redis"`
	Supabase Supabase `toml:"supabase"`
	Sweeper  Sweeper  `toml:"sweeper"`
	Gating   Gating   `toml:"gating"`
	Log      Log      `toml:"log"`
}

const (
	BackendRedis    = "redis"
	BackendSupabase = "supabase"
	BackendMemory   = "memory"
)

// Default returns the configuration used when nothing is set.
func Default() Config {
	return Config{
		Backend: BackendRedis,
		HTTP: HTTP{
			Addr:                   ":8080",
			CORSOrigins:            "*",
			DownloadTimeoutSeconds: 30,
		},
		GRPC: GRPC{Addr: ":9090"},
		Redis: Redis{
			URL:       "redis://localhost:6379/0",
			Queue:     "video_queue",
			KeyPrefix: "job:",
		},
		Supabase: Supabase{Table: "extraction_jobs"},
		Sweeper: Sweeper{
			IntervalSeconds:        60,
			QueuedThresholdSeconds: 900,
			MaxProcessingSeconds:   1800,
			MaxDispatchAttempts:    5,
		},
		Gating: Gating{Mode: "viewer"},
		Log:    Log{Level: "info", Format: "json"},
	}
}

// Load builds the configuration from defaults, an optional TOML file, and
// the environment, in increasing precedence. A .env file in the working
// directory is loaded first if present. An empty path falls back to
// FRAMEGRAB_CONFIG.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("load .env: %w", err)
	}

	cfg := Default()
	if path == "" {
		path = os.Getenv("FRAMEGRAB_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config %s: %w", path, err)
		}
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.Backend, "FRAMEGRAB_BACKEND")
	setString(&cfg.HTTP.Addr, "FRAMEGRAB_HTTP_ADDR")
	setString(&cfg.HTTP.CORSOrigins, "FRAMEGRAB_CORS_ORIGINS")
	setString(&cfg.GRPC.Addr, "FRAMEGRAB_GRPC_ADDR")
	setString(&cfg.Redis.URL, "REDIS_URL")
	setString(&cfg.Redis.Queue, "FRAMEGRAB_QUEUE")
	setString(&cfg.Redis.KeyPrefix, "FRAMEGRAB_KEY_PREFIX")
	setString(&cfg.Supabase.URL, "SUPABASE_URL")
	setString(&cfg.Supabase.Key, "SUPABASE_SERVICE_KEY")
	setString(&cfg.Supabase.Table, "FRAMEGRAB_JOB_TABLE")
	setString(&cfg.Gating.Mode, "FRAMEGRAB_GATING_MODE")
	setString(&cfg.Log.Level, "LOG_LEVEL")
	setString(&cfg.Log.Format, "LOG_FORMAT")

	ints := []struct {
		dst *int
		key string
	}{
		{&cfg.HTTP.DownloadTimeoutSeconds, "FRAMEGRAB_DOWNLOAD_TIMEOUT_SECONDS"},
		{&cfg.Sweeper.IntervalSeconds, "FRAMEGRAB_SWEEP_INTERVAL_SECONDS"},
		{&cfg.Sweeper.QueuedThresholdSeconds, "FRAMEGRAB_QUEUED_THRESHOLD_SECONDS"},
		{&cfg.Sweeper.MaxProcessingSeconds, "FRAMEGRAB_MAX_PROCESSING_SECONDS"},
		{&cfg.Sweeper.MaxDispatchAttempts, "FRAMEGRAB_MAX_DISPATCH_ATTEMPTS"},
	}
	for _, i := range ints {
		v, ok := os.LookupEnv(i.key)
		if !ok || strings.TrimSpace(v) == "" {
			continue
		}
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%s: %q is not an integer", i.key, v)
		}
		*i.dst = n
	}
	return nil
}

func setString(dst *string, key string) {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		*dst = v
	}
}

// Validate checks cross-field requirements.
func (c Config) Validate() error {
	switch c.Backend {
	case BackendRedis, BackendMemory:
	case BackendSupabase:
		if c.Supabase.URL == "" || c.Supabase.Key == "" {
			return errors.New("backend: supabase requires supabase.url and supabase.key")
		}
	default:
		return fmt.Errorf("backend: unknown value %q", c.Backend)
	}
	if c.Backend != BackendMemory && c.Redis.URL == "" {
		return errors.New("redis.url: required for the work queue")
	}
	switch strings.ToLower(c.Gating.Mode) {
	case "", "viewer", "owner":
	default:
		return fmt.Errorf("gating.mode: unknown value %q", c.Gating.Mode)
	}
	if c.HTTP.DownloadTimeoutSeconds <= 0 {
		return errors.New("http.download_timeout_seconds: must be positive")
	}
	for key, v := range map[string]int{
		"sweeper.interval_seconds":         c.Sweeper.IntervalSeconds,
		"sweeper.queued_threshold_seconds": c.Sweeper.QueuedThresholdSeconds,
		"sweeper.max_processing_seconds":   c.Sweeper.MaxProcessingSeconds,
		"sweeper.max_dispatch_attempts":    c.Sweeper.MaxDispatchAttempts,
	} {
		if v < 0 {
			return fmt.Errorf("%s: must not be negative", key)
		}
	}
	return nil
}

// DownloadTimeout is the relay's upstream fetch timeout.
func (c Config) DownloadTimeout() time.Duration {
	return time.Duration(c.HTTP.DownloadTimeoutSeconds) * time.Second
}

// SweepInterval, QueuedThreshold and MaxProcessingAge convert the sweeper
// settings.
func (c Config) SweepInterval() time.Duration {
	return time.Duration(c.Sweeper.IntervalSeconds) * time.Second
}

func (c Config) QueuedThreshold() time.Duration {
	return time.Duration(c.Sweeper.QueuedThresholdSeconds) * time.Second
}

func (c Config) MaxProcessingAge() time.Duration {
	return time.Duration(c.Sweeper.MaxProcessingSeconds) * time.Second
}

// IdentityEnabled reports whether Supabase Auth is configured.
func (c Config) IdentityEnabled() bool {
	return c.Supabase.URL != "" && c.Supabase.Key != ""
}
