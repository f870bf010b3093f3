// Package config loads tunedeck settings from TOML files and the environment.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/adrg/xdg"
	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

const appName = "tunedeck"

// Backend names.
const (
	BackendSQLite = "sqlite"
	BackendMemory = "memory"
	BackendMinio  = "minio"
	BackendRedis  = "redis"
	BackendPrefs  = "prefs"
)

// DefaultMaxHistory is the action log retention cap.
const DefaultMaxHistory = 200

type Config struct {
	Storage   StorageConfig   `koanf:"storage"`
	Log       LogConfig       `koanf:"log"`
	History   HistoryConfig   `koanf:"history"`
	Ingest    IngestConfig    `koanf:"ingest"`
	Reconcile ReconcileConfig `koanf:"reconcile"`
}

// StorageConfig selects the blob and document backends.
type StorageConfig struct {
	Blobs     string      `koanf:"blobs"`     // "sqlite", "memory" or "minio"
	Documents string      `koanf:"documents"` // "sqlite", "memory", "redis" or "prefs"
	Path      string      `koanf:"path"`      // sqlite database file, empty means the XDG data file
	Minio     MinioConfig `koanf:"minio"`
	Redis     RedisConfig `koanf:"redis"`
}

// MinioConfig holds the S3-compatible blob store settings.
type MinioConfig struct {
	Endpoint  string `koanf:"endpoint"`
	AccessKey string `koanf:"access_key"`
	SecretKey string `koanf:"secret_key"`
	Bucket    string `koanf:"bucket"`
	Region    string `koanf:"region"`
	UseSSL    bool   `koanf:"use_ssl"`
	Prefix    string `koanf:"prefix"`
}

// RedisConfig holds the document store settings for Redis.
type RedisConfig struct {
	Addr     string `koanf:"addr"`
	Password string `koanf:"password"`
	DB       int    `koanf:"db"`
	Prefix   string `koanf:"prefix"`
}

// LogConfig controls the logger. An empty level defers to TUNEDECK_LOG_LEVEL.
type LogConfig struct {
	Level      string `koanf:"level"`
	Format     string `koanf:"format"` // "text" or "json"
	File       string `koanf:"file"`
	MaxSizeMB  int    `koanf:"max_size_mb"`
	MaxBackups int    `koanf:"max_backups"`
	MaxAgeDays int    `koanf:"max_age_days"`
	Compress   bool   `koanf:"compress"`
}

type HistoryConfig struct {
	MaxEntries int `koanf:"max_entries"`
}

type IngestConfig struct {
	Extensions []string `koanf:"extensions"` // empty means the built-in audio list
}

type ReconcileConfig struct {
	Concurrency int `koanf:"concurrency"`
}

// Default returns the configuration used when no file sets a value.
func Default() *Config {
	return &Config{
		Storage: StorageConfig{
			Blobs:     BackendSQLite,
			Documents: BackendSQLite,
			Minio:     MinioConfig{Bucket: appName, Prefix: "blobs/"},
			Redis:     RedisConfig{Addr: "127.0.0.1:6379", Prefix: appName + ":"},
		},
		Log: LogConfig{
			Format:     "text",
			MaxSizeMB:  10,
			MaxBackups: 3,
			MaxAgeDays: 28,
		},
		History:   HistoryConfig{MaxEntries: DefaultMaxHistory},
		Reconcile: ReconcileConfig{Concurrency: 8},
	}
}

// Load reads .env, then every existing file from the default search paths and
// finally the explicit paths. Later files win. An explicit path that does not
// exist is an error; missing default files are skipped.
func Load(explicit ...string) (*Config, error) {
	// .env never overrides variables already set
	_ = godotenv.Load()

	k := koanf.New(".")
	for _, path := range searchPaths() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}
	for _, path := range explicit {
		if path == "" {
			continue
		}
		if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
			return nil, fmt.Errorf("load %s: %w", path, err)
		}
	}

	cfg := Default()
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}
	cfg.applyEnv()
	if err := cfg.normalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func searchPaths() []string {
	var paths []string

	// 1. $XDG_CONFIG_HOME/tunedeck/config.toml
	paths = append(paths, filepath.Join(xdg.ConfigHome, appName, "config.toml"))

	// 2. ./config.toml (highest priority)
	paths = append(paths, "config.toml")

	return paths
}

// applyEnv lets secrets stay out of config files.
func (c *Config) applyEnv() {
	c.Storage.Minio.AccessKey = getEnv("TUNEDECK_MINIO_ACCESS_KEY", c.Storage.Minio.AccessKey)
	c.Storage.Minio.SecretKey = getEnv("TUNEDECK_MINIO_SECRET_KEY", c.Storage.Minio.SecretKey)
	c.Storage.Redis.Password = getEnv("TUNEDECK_REDIS_PASSWORD", c.Storage.Redis.Password)
	c.Storage.Redis.DB = getEnvInt("TUNEDECK_REDIS_DB", c.Storage.Redis.DB)
}

func (c *Config) normalize() error {
	c.Storage.Blobs = strings.ToLower(strings.TrimSpace(c.Storage.Blobs))
	c.Storage.Documents = strings.ToLower(strings.TrimSpace(c.Storage.Documents))
	c.Storage.Path = expandPath(c.Storage.Path)
	c.Log.File = expandPath(c.Log.File)

	switch c.Storage.Blobs {
	case BackendSQLite, BackendMemory, BackendMinio:
	default:
		return fmt.Errorf("storage.blobs: unknown backend %q", c.Storage.Blobs)
	}
	switch c.Storage.Documents {
	case BackendSQLite, BackendMemory, BackendRedis, BackendPrefs:
	default:
		return fmt.Errorf("storage.documents: unknown backend %q", c.Storage.Documents)
	}
	if c.Storage.Blobs == BackendMinio && c.Storage.Minio.Endpoint == "" {
		return fmt.Errorf("storage.minio.endpoint is required for the minio backend")
	}
	if c.History.MaxEntries <= 0 {
		c.History.MaxEntries = DefaultMaxHistory
	}
	return nil
}

// UsesSQLite reports whether either backend needs the database file.
func (c *Config) UsesSQLite() bool {
	return c.Storage.Blobs == BackendSQLite || c.Storage.Documents == BackendSQLite
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}
