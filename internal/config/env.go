package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"

	"github.com/dmitrijs2005/shiciyaji/internal/flagx"
)

const defaultEnvFile = ".env"

var (
	lookupEnv   = os.LookupEnv
	readEnvFile = godotenv.Read
)

// parseEnv overlays YAJI_* variables. Values from the dotenv file are used
// only when the process environment does not set the same key.
func parseEnv(cfg *Config, args []string) error {
	path := flagx.EnvFilePath(args)
	explicit := path != ""
	if !explicit {
		path = defaultEnvFile
	}

	fileVars, err := readEnvFile(path)
	if err != nil {
		if explicit || !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("read %s: %w", path, err)
		}
		fileVars = nil
	}

	get := func(key string) (string, bool) {
		if v, ok := lookupEnv(key); ok {
			return v, true
		}
		v, ok := fileVars[key]
		return v, ok
	}

	strs := map[string]*string{
		"YAJI_AUTH_MODE":         &cfg.AuthMode,
		"YAJI_LOCAL_DB":          &cfg.LocalDBPath,
		"YAJI_SUPABASE_URL":      &cfg.SupabaseURL,
		"YAJI_SUPABASE_ANON_KEY": &cfg.SupabaseAnonKey,
		"YAJI_DATABASE_DSN":      &cfg.DatabaseDSN,
		"YAJI_S3_BUCKET":         &cfg.S3Bucket,
		"YAJI_S3_REGION":         &cfg.S3Region,
		"YAJI_S3_ENDPOINT":       &cfg.S3Endpoint,
		"YAJI_S3_ACCESS_KEY":     &cfg.S3AccessKey,
		"YAJI_S3_SECRET_KEY":     &cfg.S3SecretKey,
		"YAJI_HTTP_ADDR":         &cfg.HTTPAddr,
		"YAJI_LOG_BACKEND":       &cfg.LogBackend,
	}
	for key, dst := range strs {
		if v, ok := get(key); ok {
			*dst = v
		}
	}

	if v, ok := get("YAJI_DEBUG"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("YAJI_DEBUG: %w", err)
		}
		cfg.Debug = b
	}
	if v, ok := get("YAJI_HTTP_TIMEOUT"); ok {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("YAJI_HTTP_TIMEOUT: %w", err)
		}
		cfg.HTTPTimeout = d
	}
	return nil
}
