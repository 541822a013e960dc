package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/nexuscrm/registry/internal/domain/models"
	"github.com/nexuscrm/registry/pkg/constants"
)

// EnvPrefix prefixes every environment override (REGISTRY_DATABASE_DRIVER, ...)
const EnvPrefix = "REGISTRY"

// DefaultConfigFile is read from the working directory when no --config is given
const DefaultConfigFile = "registry.yaml"

// Config is the process configuration
type Config struct {
	Env        string         `mapstructure:"env"`
	Server     ServerConfig   `mapstructure:"server"`
	Database   DatabaseConfig `mapstructure:"database"`
	Log        LogConfig      `mapstructure:"log"`
	Auth       AuthConfig     `mapstructure:"auth"`
	Cache      CacheConfig    `mapstructure:"cache"`
	Metrics    MetricsConfig  `mapstructure:"metrics"`
	Export     ExportConfig   `mapstructure:"export"`
	ModelsFile string         `mapstructure:"models_file"`

	// Models are the model definitions of the config file's models section
	Models []models.ObjectMetadata `mapstructure:"-"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type DatabaseConfig struct {
	Driver   string `mapstructure:"driver"` // mysql or sqlite
	DSN      string `mapstructure:"dsn"`
	Host     string `mapstructure:"host"`
	Port     string `mapstructure:"port"`
	User     string `mapstructure:"user"`
	Password string `mapstructure:"password"`
	Name     string `mapstructure:"name"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
	File  string `mapstructure:"file"`
}

type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
}

type CacheConfig struct {
	TTL     time.Duration `mapstructure:"ttl"`
	Cleanup time.Duration `mapstructure:"cleanup"`
}

type MetricsConfig struct {
	Enabled bool `mapstructure:"enabled"`
}

type ExportConfig struct {
	FilenamePrefix string `mapstructure:"filename_prefix"`
}

// IsDevelopment reports whether the process runs in development mode
func (c *Config) IsDevelopment() bool {
	return strings.EqualFold(c.Env, "development")
}

// SetDefaults registers every key with its default so env overrides apply
func SetDefaults(v *viper.Viper) {
	v.SetDefault("env", "production")
	v.SetDefault("server.port", constants.DefaultPort)
	v.SetDefault("database.driver", constants.DriverSQLite)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.host", "127.0.0.1")
	v.SetDefault("database.port", "4000")
	v.SetDefault("database.user", "root")
	v.SetDefault("database.password", "")
	v.SetDefault("database.name", "registry")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.file", "")
	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_ttl", constants.DefaultTokenTTL)
	v.SetDefault("cache.ttl", constants.DefaultCacheTTL)
	v.SetDefault("cache.cleanup", constants.DefaultCacheCleanup)
	v.SetDefault("metrics.enabled", true)
	v.SetDefault("export.filename_prefix", constants.DefaultExportPrefix)
	v.SetDefault("models_file", "")
}

// Load reads .env, the config file and REGISTRY_ environment overrides.
// An empty cfgFile falls back to ./registry.yaml when present.
func Load(v *viper.Viper, cfgFile string) (*Config, error) {
	// Load .env file if present
	_ = godotenv.Load()

	SetDefaults(v)
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if cfgFile == "" {
		if _, err := os.Stat(DefaultConfigFile); err == nil {
			cfgFile = DefaultConfigFile
		}
	}
	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("reading config %s: %w", cfgFile, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decoding config: %w", err)
	}

	if v.IsSet("models") {
		defs, err := decodeModels(v.Get("models"))
		if err != nil {
			return nil, fmt.Errorf("decoding models: %w", err)
		}
		cfg.Models = defs
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// decodeModels re-encodes the generic viper value so the yaml tags of the
// model types apply
func decodeModels(raw interface{}) ([]models.ObjectMetadata, error) {
	data, err := yaml.Marshal(raw)
	if err != nil {
		return nil, err
	}
	var defs []models.ObjectMetadata
	if err := yaml.Unmarshal(data, &defs); err != nil {
		return nil, err
	}
	return defs, nil
}

// Validate rejects configurations the process cannot start with
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case constants.DriverMySQL, constants.DriverSQLite:
	default:
		return fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
	if c.Server.Port == "" {
		return errors.New("server.port is required")
	}
	if c.Cache.TTL < 0 {
		return errors.New("cache.ttl must not be negative")
	}
	return nil
}
