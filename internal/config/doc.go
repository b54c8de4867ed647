// Package config loads runtime configuration for yaji.
//
// Sources, later ones overriding earlier ones:
//
//  1. Built-in defaults (see (*Config).LoadDefaults).
//  2. Optional JSON file selected with -c or -config.
//  3. A dotenv file (-env-file, else ./.env when present) and YAJI_*
//     environment variables. Real environment variables win over the file.
//  4. Command-line flags.
//
// JSON example (durations accept "30s" or integer nanoseconds):
//
//	{
//	  "auth_mode": "hosted",
//	  "supabase_url": "https://abc.supabase.co",
//	  "supabase_anon_key": "ey...",
//	  "database_dsn": "postgres://yaji@localhost:5432/yaji",
//	  "http_timeout": "10s",
//	  "avatar_url_ttl": "15m"
//	}
//
// Flags
//
//	-mode string          local | hosted
//	-db string            path of the local SQLite file
//	-supabase-url string  hosted auth base URL
//	-supabase-key string  hosted anon API key
//	-dsn string           catalogue Postgres DSN
//	-s3-bucket string     avatar bucket
//	-s3-region string     avatar bucket region
//	-s3-endpoint string   S3-compatible endpoint override
//	-addr string          listen address for `yaji serve`
//	-log string           zap | slog
//	-debug                enable debug logging
//	-t int                hosted HTTP timeout in seconds
package config
