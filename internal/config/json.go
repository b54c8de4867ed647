package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/shiciyaji/internal/flagx"
	"github.com/dmitrijs2005/shiciyaji/internal/timex"
)

// JsonConfig is the on-disk shape. Pointer fields distinguish "absent" from
// zero so a partial file only overrides what it names.
type JsonConfig struct {
	AuthMode        *string         `json:"auth_mode"`
	LocalDBPath     *string         `json:"local_db_path"`
	SupabaseURL     *string         `json:"supabase_url"`
	SupabaseAnonKey *string         `json:"supabase_anon_key"`
	HTTPTimeout     *timex.Duration `json:"http_timeout"`
	DatabaseDSN     *string         `json:"database_dsn"`
	S3Bucket        *string         `json:"s3_bucket"`
	S3Region        *string         `json:"s3_region"`
	S3Endpoint      *string         `json:"s3_endpoint"`
	S3AccessKey     *string         `json:"s3_access_key"`
	S3SecretKey     *string         `json:"s3_secret_key"`
	AvatarURLTTL    *timex.Duration `json:"avatar_url_ttl"`
	HTTPAddr        *string         `json:"http_addr"`
	LogBackend      *string         `json:"log_backend"`
	Debug           *bool           `json:"debug"`
}

func parseJson(cfg *Config, args []string) error {
	path := flagx.ConfigPath(args)
	if path == "" {
		return nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	var jc JsonConfig
	if err := json.Unmarshal(data, &jc); err != nil {
		return err
	}

	setString(&cfg.AuthMode, jc.AuthMode)
	setString(&cfg.LocalDBPath, jc.LocalDBPath)
	setString(&cfg.SupabaseURL, jc.SupabaseURL)
	setString(&cfg.SupabaseAnonKey, jc.SupabaseAnonKey)
	setString(&cfg.DatabaseDSN, jc.DatabaseDSN)
	setString(&cfg.S3Bucket, jc.S3Bucket)
	setString(&cfg.S3Region, jc.S3Region)
	setString(&cfg.S3Endpoint, jc.S3Endpoint)
	setString(&cfg.S3AccessKey, jc.S3AccessKey)
	setString(&cfg.S3SecretKey, jc.S3SecretKey)
	setString(&cfg.HTTPAddr, jc.HTTPAddr)
	setString(&cfg.LogBackend, jc.LogBackend)
	if jc.HTTPTimeout != nil {
		cfg.HTTPTimeout = jc.HTTPTimeout.Duration
	}
	if jc.AvatarURLTTL != nil {
		cfg.AvatarURLTTL = jc.AvatarURLTTL.Duration
	}
	if jc.Debug != nil {
		cfg.Debug = *jc.Debug
	}
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}
