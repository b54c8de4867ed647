package config

import (
	"flag"
	"io"
	"strings"
	"time"

	"github.com/dmitrijs2005/shiciyaji/internal/flagx"
)

var knownFlags = []string{
	"mode", "db", "supabase-url", "supabase-key", "dsn",
	"s3-bucket", "s3-region", "s3-endpoint", "addr", "log", "t",
}

// boolFlags never take a separate value token.
var boolFlags = []string{"debug"}

// parseFlags applies the flags this package owns. Other arguments are
// filtered out first so subcommand arguments never trip the parser.
func parseFlags(cfg *Config, args []string) error {
	allowed := make([]string, 0, len(knownFlags)*2)
	for _, f := range knownFlags {
		allowed = append(allowed, "-"+f, "--"+f)
	}
	filtered := flagx.FilterArgs(args, allowed)
	for _, a := range args {
		for _, b := range boolFlags {
			if a == "-"+b || a == "--"+b || strings.HasPrefix(a, "-"+b+"=") || strings.HasPrefix(a, "--"+b+"=") {
				filtered = append(filtered, a)
			}
		}
	}

	fs := flag.NewFlagSet("yaji", flag.ContinueOnError)
	fs.SetOutput(io.Discard)

	fs.StringVar(&cfg.AuthMode, "mode", cfg.AuthMode, "auth backend: local or hosted")
	fs.StringVar(&cfg.LocalDBPath, "db", cfg.LocalDBPath, "local SQLite file")
	fs.StringVar(&cfg.SupabaseURL, "supabase-url", cfg.SupabaseURL, "hosted auth base URL")
	fs.StringVar(&cfg.SupabaseAnonKey, "supabase-key", cfg.SupabaseAnonKey, "hosted anon API key")
	fs.StringVar(&cfg.DatabaseDSN, "dsn", cfg.DatabaseDSN, "catalogue Postgres DSN")
	fs.StringVar(&cfg.S3Bucket, "s3-bucket", cfg.S3Bucket, "avatar bucket")
	fs.StringVar(&cfg.S3Region, "s3-region", cfg.S3Region, "avatar bucket region")
	fs.StringVar(&cfg.S3Endpoint, "s3-endpoint", cfg.S3Endpoint, "S3-compatible endpoint")
	fs.StringVar(&cfg.HTTPAddr, "addr", cfg.HTTPAddr, "listen address")
	fs.StringVar(&cfg.LogBackend, "log", cfg.LogBackend, "log backend: zap or slog")
	fs.BoolVar(&cfg.Debug, "debug", cfg.Debug, "debug logging")
	timeout := fs.Int("t", int(cfg.HTTPTimeout.Seconds()), "hosted HTTP timeout (in seconds)")

	if err := fs.Parse(filtered); err != nil {
		return err
	}

	fs.Visit(func(f *flag.Flag) {
		if f.Name == "t" {
			cfg.HTTPTimeout = time.Duration(*timeout) * time.Second
		}
	})
	return nil
}
