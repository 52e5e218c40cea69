// Package config holds the runtime settings of the timer service.
//
// Values are resolved in three layers: built-in defaults, an optional YAML
// file, and finally command-line flags. The YAML file path comes from the
// -config flag or the TIMER_SERVICE_CONFIG environment variable.
package config

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// EnvConfigPath names the environment variable consulted when -config is not set.
const EnvConfigPath = "TIMER_SERVICE_CONFIG"

// Config is the master configuration for the service.
type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Cache    CacheConfig    `yaml:"cache"`
	Media    MediaConfig    `yaml:"media"`
}

// ServerConfig configures the HTTP listener.
type ServerConfig struct {
	Port string `yaml:"port"`
}

// DatabaseConfig configures the relational store.
type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`

	// MigrationsDir is where create-migration writes new files.
	// Applied migrations are embedded in the binary.
	MigrationsDir string `yaml:"migrations_dir"`
}

// AuthConfig configures bearer token issuance.
type AuthConfig struct {
	SecretKey string        `yaml:"secret_key"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	// Type is "memory" or "redis".
	Type          string        `yaml:"type"`
	RedisAddr     string        `yaml:"redis_addr"`
	RedisPassword string        `yaml:"redis_password"`
	RedisDB       int           `yaml:"redis_db"`
	TTL           time.Duration `yaml:"ttl"`
}

// MediaConfig configures where uploaded timer images go.
type MediaConfig struct {
	// Backend is "local" or "s3".
	Backend string `yaml:"backend"`
	Root    string `yaml:"root"`

	// URL prefixes storage keys in responses. Empty selects the backend
	// default: /media/ for local, the bucket URL for s3.
	URL           string   `yaml:"url"`
	MaxUploadSize int64    `yaml:"max_upload_size"`
	S3            S3Config `yaml:"s3"`
}

// S3Config holds the settings of an S3-compatible bucket.
type S3Config struct {
	Bucket    string `yaml:"bucket"`
	Region    string `yaml:"region"`
	Endpoint  string `yaml:"endpoint"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
}

// LoadDefaults populates Config with development defaults.
// The secret key must be overridden outside development.
func (c *Config) LoadDefaults() {
	c.Server.Port = "8080"
	c.Database.Driver = "sqlite3"
	c.Database.DSN = "file:./timer_service.db?_foreign_keys=on"
	c.Database.MigrationsDir = "./database/migrations"
	c.Auth.SecretKey = "insecure-development-secret"
	c.Auth.TokenTTL = 24 * time.Hour
	c.Cache.Type = "memory"
	c.Cache.RedisAddr = "localhost:6379"
	c.Cache.TTL = 5 * time.Minute
	c.Media.Backend = "local"
	c.Media.Root = "./media"
	c.Media.MaxUploadSize = 10 << 20
	c.Media.S3.Region = "us-east-1"
}

// Validate reports settings that cannot work together.
func (c *Config) Validate() error {
	if c.Auth.SecretKey == "" {
		return errors.New("auth.secret_key must not be empty")
	}
	if c.Auth.TokenTTL <= 0 {
		return errors.New("auth.token_ttl must be positive")
	}
	switch c.Cache.Type {
	case "memory", "redis":
	default:
		return fmt.Errorf("unknown cache type %q", c.Cache.Type)
	}
	switch c.Media.Backend {
	case "local":
	case "s3":
		if c.Media.S3.Bucket == "" {
			return errors.New("media.s3.bucket is required for the s3 backend")
		}
	default:
		return fmt.Errorf("unknown media backend %q", c.Media.Backend)
	}
	return nil
}

// loadFile overlays the YAML file at path onto c.
// Keys missing from the file keep their current value.
func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parsing config file %s: %w", path, err)
	}
	return nil
}

// flagValues receives raw flag values before they are applied to a Config.
type flagValues struct {
	configPath    string
	port          string
	dbDriver      string
	dsn           string
	migrationsDir string
	secret        string
	tokenTTL      time.Duration
	cacheType     string
	redisAddr     string
	mediaBackend  string
	mediaRoot     string
	mediaURL      string
	s3Bucket      string
	s3Region      string
	s3Endpoint    string
	s3AccessKey   string
	s3SecretKey   string
}

func bindFlags(fs *flag.FlagSet) *flagValues {
	v := &flagValues{}
	fs.StringVar(&v.configPath, "config", "", "path to a YAML config file (or $"+EnvConfigPath+")")
	fs.StringVar(&v.port, "port", "", "HTTP port")
	fs.StringVar(&v.dbDriver, "db-driver", "", "database driver")
	fs.StringVar(&v.dsn, "db", "", "database DSN")
	fs.StringVar(&v.migrationsDir, "migrations", "", "directory for new migration files")
	fs.StringVar(&v.secret, "secret", "", "token signing secret")
	fs.DurationVar(&v.tokenTTL, "token-ttl", 0, "bearer token lifetime")
	fs.StringVar(&v.cacheType, "cache", "", "cache backend: memory or redis")
	fs.StringVar(&v.redisAddr, "redis-addr", "", "redis address")
	fs.StringVar(&v.mediaBackend, "media-backend", "", "media backend: local or s3")
	fs.StringVar(&v.mediaRoot, "media-root", "", "local media root directory")
	fs.StringVar(&v.mediaURL, "media-url", "", "public URL prefix for media")
	fs.StringVar(&v.s3Bucket, "s3-bucket", "", "S3 bucket")
	fs.StringVar(&v.s3Region, "s3-region", "", "S3 region")
	fs.StringVar(&v.s3Endpoint, "s3-endpoint", "", "S3 base endpoint")
	fs.StringVar(&v.s3AccessKey, "s3-access-key", "", "S3 access key")
	fs.StringVar(&v.s3SecretKey, "s3-secret-key", "", "S3 secret key")
	return v
}

// apply copies the flag named name onto c.
func (v *flagValues) apply(name string, c *Config) {
	switch name {
	case "port":
		c.Server.Port = v.port
	case "db-driver":
		c.Database.Driver = v.dbDriver
	case "db":
		c.Database.DSN = v.dsn
	case "migrations":
		c.Database.MigrationsDir = v.migrationsDir
	case "secret":
		c.Auth.SecretKey = v.secret
	case "token-ttl":
		c.Auth.TokenTTL = v.tokenTTL
	case "cache":
		c.Cache.Type = v.cacheType
	case "redis-addr":
		c.Cache.RedisAddr = v.redisAddr
	case "media-backend":
		c.Media.Backend = v.mediaBackend
	case "media-root":
		c.Media.Root = v.mediaRoot
	case "media-url":
		c.Media.URL = v.mediaURL
	case "s3-bucket":
		c.Media.S3.Bucket = v.s3Bucket
	case "s3-region":
		c.Media.S3.Region = v.s3Region
	case "s3-endpoint":
		c.Media.S3.Endpoint = v.s3Endpoint
	case "s3-access-key":
		c.Media.S3.AccessKey = v.s3AccessKey
	case "s3-secret-key":
		c.Media.S3.SecretKey = v.s3SecretKey
	}
}

// Load registers the configuration flags on fs, parses args and returns the
// resolved Config. Callers may register their own flags on fs beforehand.
func Load(fs *flag.FlagSet, args []string) (*Config, error) {
	cfg := &Config{}
	cfg.LoadDefaults()

	v := bindFlags(fs)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	path := v.configPath
	if path == "" {
		path = os.Getenv(EnvConfigPath)
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			return nil, err
		}
	}

	fs.Visit(func(f *flag.Flag) {
		v.apply(f.Name, cfg)
	})

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}
