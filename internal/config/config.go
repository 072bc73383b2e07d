package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

const (
	DriverS3    = "s3"
	DriverMinio = "minio"

	ListScopeBucket = "bucket"
	ListScopePrefix = "prefix"

	EnvPrefix = "BUCKETGATE"

	// SigV4 presigned URLs cannot outlive one week.
	MaxPresignExpiry = 7 * 24 * time.Hour
	MaxListKeys      = 1000
)

type Config struct {
	Store StoreConfig `toml:"store"`
	Log   LogConfig   `toml:"log"`
}

type StoreConfig struct {
	Driver         string        `toml:"driver"`
	AccessKey      string        `toml:"access_key" split_words:"true"`
	SecretKey      string        `toml:"secret_key" split_words:"true"`
	Region         string        `toml:"region"`
	Bucket         string        `toml:"bucket"`
	Prefix         string        `toml:"prefix"`
	PublicEndpoint string        `toml:"public_endpoint" split_words:"true"`
	Endpoint       string        `toml:"endpoint"`
	UsePathStyle   bool          `toml:"use_path_style" split_words:"true"`
	PresignExpiry  time.Duration `toml:"presign_expiry" split_words:"true"`
	RequestTimeout time.Duration `toml:"request_timeout" split_words:"true"`
	ListScope      string        `toml:"list_scope" split_words:"true"`
	ListMaxKeys    int32         `toml:"list_max_keys" split_words:"true"`
}

type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Driver:         DriverS3,
			PresignExpiry:  15 * time.Minute,
			RequestTimeout: 30 * time.Second,
			ListScope:      ListScopeBucket,
			ListMaxKeys:    MaxListKeys,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load reads the TOML file at path, then applies BUCKETGATE_* environment
// overrides. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
	} else if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	cfg.ApplyDefaults()
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadDotEnv exports variables from a .env file without overriding ones
// already set in the process environment.
func LoadDotEnv(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load env file: %w", err)
	}
	return nil
}

func (c *Config) ApplyEnv() error {
	if err := envconfig.Process(EnvPrefix, &c.Store); err != nil {
		return fmt.Errorf("read store environment: %w", err)
	}
	if err := envconfig.Process(EnvPrefix+"_LOG", &c.Log); err != nil {
		return fmt.Errorf("read log environment: %w", err)
	}
	return nil
}

func (c *Config) ApplyDefaults() {
	if c.Store.Driver == "" {
		c.Store.Driver = DriverS3
	}
	if c.Store.PresignExpiry == 0 {
		c.Store.PresignExpiry = 15 * time.Minute
	}
	if c.Store.ListScope == "" {
		c.Store.ListScope = ListScopeBucket
	}
	if c.Store.ListMaxKeys == 0 {
		c.Store.ListMaxKeys = MaxListKeys
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Log.Format == "" {
		c.Log.Format = "console"
	}
}

// Normalize trims surrounding whitespace. The prefix is left untouched:
// object keys are the plain concatenation prefix+name.
func (c *Config) Normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Store.AccessKey = strings.TrimSpace(c.Store.AccessKey)
	c.Store.SecretKey = strings.TrimSpace(c.Store.SecretKey)
	c.Store.Region = strings.TrimSpace(c.Store.Region)
	c.Store.Bucket = strings.TrimSpace(c.Store.Bucket)
	c.Store.PublicEndpoint = strings.TrimSpace(c.Store.PublicEndpoint)
	c.Store.Endpoint = strings.TrimSpace(c.Store.Endpoint)
	c.Store.ListScope = strings.ToLower(strings.TrimSpace(c.Store.ListScope))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
}

func (c *Config) Validate() error {
	if err := c.Store.Validate(); err != nil {
		return err
	}

	switch c.Log.Level {
	case "trace", "debug", "info", "warn", "error", "disabled":
	default:
		return errors.New("log.level must be trace, debug, info, warn, error, or disabled")
	}
	switch c.Log.Format {
	case "console", "json":
	default:
		return errors.New("log.format must be console or json")
	}
	return nil
}

func (s StoreConfig) Validate() error {
	switch s.Driver {
	case DriverS3, DriverMinio:
	default:
		return errors.New("store.driver must be s3 or minio")
	}

	if strings.Contains(s.Bucket, "/") {
		return errors.New("store.bucket must not contain '/'")
	}
	if (s.AccessKey == "") != (s.SecretKey == "") {
		return errors.New("store.access_key and store.secret_key must be set together")
	}
	if _, err := ValidateEndpoint(s.Endpoint); err != nil {
		return fmt.Errorf("store.endpoint: %w", err)
	}
	if s.PublicEndpoint != "" {
		if _, err := ValidateEndpoint(s.PublicEndpoint); err != nil {
			return fmt.Errorf("store.public_endpoint: %w", err)
		}
	}

	if s.PresignExpiry <= 0 || s.PresignExpiry > MaxPresignExpiry {
		return errors.New("store.presign_expiry must be between 1s and 168h")
	}
	if s.RequestTimeout < 0 {
		return errors.New("store.request_timeout must be >= 0")
	}
	switch s.ListScope {
	case ListScopeBucket, ListScopePrefix:
	default:
		return errors.New("store.list_scope must be bucket or prefix")
	}
	if s.ListMaxKeys < 1 || s.ListMaxKeys > MaxListKeys {
		return fmt.Errorf("store.list_max_keys must be between 1 and %d", MaxListKeys)
	}
	return nil
}

// ValidateEndpoint returns the trimmed endpoint, or an error when it is set
// but is not an absolute http(s) URL.
func ValidateEndpoint(raw string) (string, error) {
	endpoint := strings.TrimSpace(raw)
	if endpoint == "" {
		return "", nil
	}

	u, err := url.Parse(endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "", errors.New("endpoint must be a valid http(s) URL")
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("endpoint must use http or https")
	}
	return endpoint, nil
}
