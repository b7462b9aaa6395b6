// Package config assembles runtime settings for the API from defaults, an
// optional YAML file and ESTATEHUB_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const EnvPrefix = "ESTATEHUB_"

// Config holds runtime settings for the API server.
type Config struct {
	HTTP  HTTPConfig  `yaml:"http"`
	DB    DBConfig    `yaml:"db"`
	Auth  AuthConfig  `yaml:"auth"`
	Media MediaConfig `yaml:"media"`
}

type HTTPConfig struct {
	Addr         string   `yaml:"addr"`
	MaxBodyBytes int64    `yaml:"max_body_bytes"`
	RateBurst    int      `yaml:"rate_burst"`
	RatePerSec   float64  `yaml:"rate_per_sec"`
	CORSOrigins  []string `yaml:"cors_origins"`
}

// DBConfig configures the Postgres pool. An empty DSN selects in-memory stores.
type DBConfig struct {
	DSN             string        `yaml:"dsn"`
	MaxOpenConns    int           `yaml:"max_open_conns"`
	MaxIdleConns    int           `yaml:"max_idle_conns"`
	ConnMaxLifetime time.Duration `yaml:"conn_max_lifetime"`
}

type AuthConfig struct {
	Secret   string        `yaml:"secret"`
	TokenTTL time.Duration `yaml:"token_ttl"`
	ResetTTL time.Duration `yaml:"reset_ttl"`
	// DenylistSize enables token revocation when positive.
	DenylistSize int `yaml:"denylist_size"`
}

type MediaConfig struct {
	Driver  string   `yaml:"driver"`
	Dir     string   `yaml:"dir"`
	BaseURL string   `yaml:"base_url"`
	S3      S3Config `yaml:"s3"`
}

type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// Defaults returns development defaults. Auth.Secret is deliberately empty.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Addr:         ":8080",
			MaxBodyBytes: 1 << 20,
			RateBurst:    20,
			RatePerSec:   10,
			CORSOrigins:  []string{"*"},
		},
		DB: DBConfig{
			MaxOpenConns:    50,
			MaxIdleConns:    25,
			ConnMaxLifetime: 15 * time.Minute,
		},
		Auth: AuthConfig{
			TokenTTL: 24 * time.Hour,
			ResetTTL: time.Hour,
		},
		Media: MediaConfig{
			Driver:  "disk",
			Dir:     "uploads",
			BaseURL: "/uploads",
			S3:      S3Config{Region: "us-east-1"},
		},
	}
}

// Load builds a Config from defaults, the YAML file at path (if non-empty)
// and the environment looked up through getenv. A nil getenv uses os.Getenv.
func Load(path string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	cfg := Defaults()
	if path == "" {
		path = getenv(EnvPrefix + "CONFIG")
	}
	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	}
	if err := applyEnv(&cfg, getenv); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnv(cfg *Config, getenv func(string) string) error {
	str := func(key string, dst *string) {
		if v, ok := lookup(getenv, key); ok {
			*dst = v
		}
	}
	var errs []error
	num := func(key string, set func(string) error) {
		if v, ok := lookup(getenv, key); ok {
			if err := set(v); err != nil {
				errs = append(errs, fmt.Errorf("%s%s: %w", EnvPrefix, key, err))
			}
		}
	}
	intVar := func(dst *int) func(string) error {
		return func(v string) error {
			n, err := strconv.Atoi(v)
			*dst = n
			return err
		}
	}
	durVar := func(dst *time.Duration) func(string) error {
		return func(v string) error {
			d, err := time.ParseDuration(v)
			*dst = d
			return err
		}
	}

	str("HTTP_ADDR", &cfg.HTTP.Addr)
	num("HTTP_MAX_BODY_BYTES", func(v string) error {
		n, err := strconv.ParseInt(v, 10, 64)
		cfg.HTTP.MaxBodyBytes = n
		return err
	})
	num("HTTP_RATE_BURST", intVar(&cfg.HTTP.RateBurst))
	num("HTTP_RATE_PER_SEC", func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		cfg.HTTP.RatePerSec = f
		return err
	})
	if v, ok := lookup(getenv, "HTTP_CORS_ORIGINS"); ok {
		cfg.HTTP.CORSOrigins = splitList(v)
	}

	str("DB_DSN", &cfg.DB.DSN)
	num("DB_MAX_OPEN_CONNS", intVar(&cfg.DB.MaxOpenConns))
	num("DB_MAX_IDLE_CONNS", intVar(&cfg.DB.MaxIdleConns))
	num("DB_CONN_MAX_LIFETIME", durVar(&cfg.DB.ConnMaxLifetime))

	str("AUTH_SECRET", &cfg.Auth.Secret)
	num("AUTH_TOKEN_TTL", durVar(&cfg.Auth.TokenTTL))
	num("AUTH_RESET_TTL", durVar(&cfg.Auth.ResetTTL))
	num("AUTH_DENYLIST_SIZE", intVar(&cfg.Auth.DenylistSize))

	str("MEDIA_DRIVER", &cfg.Media.Driver)
	str("MEDIA_DIR", &cfg.Media.Dir)
	str("MEDIA_BASE_URL", &cfg.Media.BaseURL)
	str("MEDIA_S3_BUCKET", &cfg.Media.S3.Bucket)
	str("MEDIA_S3_REGION", &cfg.Media.S3.Region)
	str("MEDIA_S3_ENDPOINT", &cfg.Media.S3.Endpoint)
	str("MEDIA_S3_ACCESS_KEY", &cfg.Media.S3.AccessKey)
	str("MEDIA_S3_SECRET_KEY", &cfg.Media.S3.SecretKey)

	return errors.Join(errs...)
}

func lookup(getenv func(string) string, key string) (string, bool) {
	v := strings.TrimSpace(getenv(EnvPrefix + key))
	return v, v != ""
}

func splitList(v string) []string {
	var out []string
	for _, part := range strings.Split(v, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Validate reports settings the server cannot start with.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Auth.Secret) == "" {
		errs = append(errs, errors.New("auth.secret is required"))
	}
	if c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be positive"))
	}
	if c.Auth.ResetTTL <= 0 {
		errs = append(errs, errors.New("auth.reset_ttl must be positive"))
	}
	if c.Auth.DenylistSize < 0 {
		errs = append(errs, errors.New("auth.denylist_size must not be negative"))
	}
	if c.HTTP.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("http.max_body_bytes must be positive"))
	}
	switch c.Media.Driver {
	case "disk":
		if c.Media.Dir == "" {
			errs = append(errs, errors.New("media.dir is required for the disk driver"))
		}
	case "s3":
		if c.Media.S3.Bucket == "" {
			errs = append(errs, errors.New("media.s3.bucket is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("media.driver must be disk or s3, got %q", c.Media.Driver))
	}
	return errors.Join(errs...)
}
