package config

import (
	"errors"
	"fmt"
	"time"
)

const (
	AuthModeLocal  = "local"
	AuthModeHosted = "hosted"
)

// Config holds runtime settings for the yaji front ends.
type Config struct {
	AuthMode    string
	LocalDBPath string

	SupabaseURL     string
	SupabaseAnonKey string
	HTTPTimeout     time.Duration

	DatabaseDSN string

	S3Bucket     string
	S3Region     string
	S3Endpoint   string
	S3AccessKey  string
	S3SecretKey  string
	AvatarURLTTL time.Duration

	HTTPAddr   string
	LogBackend string
	Debug      bool
}

// LoadDefaults populates c with defaults suitable for local development.
func (c *Config) LoadDefaults() {
	c.AuthMode = AuthModeLocal
	c.LocalDBPath = "yaji.db"
	c.HTTPTimeout = 10 * time.Second
	c.S3Region = "us-east-1"
	c.AvatarURLTTL = 15 * time.Minute
	c.HTTPAddr = "127.0.0.1:8080"
	c.LogBackend = "zap"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	switch c.AuthMode {
	case AuthModeLocal:
		if c.LocalDBPath == "" {
			return errors.New("local auth mode requires a local db path")
		}
	case AuthModeHosted:
		if c.SupabaseURL == "" || c.SupabaseAnonKey == "" {
			return errors.New("hosted auth mode requires supabase url and anon key")
		}
	default:
		return fmt.Errorf("unknown auth mode %q", c.AuthMode)
	}
	if c.HTTPTimeout <= 0 {
		return errors.New("http timeout must be positive")
	}
	return nil
}

// Load builds a Config from defaults, the JSON file, dotenv/environment
// and finally the flags found in args.
func Load(args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	if err := parseJson(cfg, args); err != nil {
		return nil, fmt.Errorf("json config: %w", err)
	}
	if err := parseEnv(cfg, args); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	if err := parseFlags(cfg, args); err != nil {
		return nil, fmt.Errorf("flags: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
