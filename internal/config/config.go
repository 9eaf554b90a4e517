package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/rebeliceyang/lazysearch/internal/filter"
	"github.com/rebeliceyang/lazysearch/internal/logging"
)

const appName = "lazysearch"

// Config holds all application configuration
type Config struct {
	General  GeneralConfig  `mapstructure:"general"`
	Mappings MappingsConfig `mapstructure:"mappings"`
	Database DatabaseConfig `mapstructure:"database"`
	Elastic  ElasticConfig  `mapstructure:"elastic"`
	Cache    CacheConfig    `mapstructure:"cache"`
	Logging  LoggingConfig  `mapstructure:"logging"`
}

type GeneralConfig struct {
	Target   string `mapstructure:"target"`
	Prefix   string `mapstructure:"prefix"`
	Dialect  string `mapstructure:"dialect"`
	BindVars bool   `mapstructure:"bind_vars"`
	Limit    int    `mapstructure:"limit"`
}

type MappingsConfig struct {
	File string `mapstructure:"file"`
}

type DatabaseConfig struct {
	Driver     string `mapstructure:"driver"`
	Host       string `mapstructure:"host"`
	Port       int    `mapstructure:"port"`
	Name       string `mapstructure:"name"`
	User       string `mapstructure:"user"`
	Password   string `mapstructure:"password"`
	SSLMode    string `mapstructure:"ssl_mode"`
	Path       string `mapstructure:"path"`
	UseKeyring bool   `mapstructure:"use_keyring"`
	MaxConns   int    `mapstructure:"max_conns"`
}

type ElasticConfig struct {
	Parameters map[string]any `mapstructure:"parameters"`
}

type CacheConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Size    int  `mapstructure:"size"`
}

type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// GetDefaults returns a Config with all default values
func GetDefaults() *Config {
	return &Config{
		General: GeneralConfig{
			Target:  "sql",
			Dialect: "standard",
			Limit:   100,
		},
		Mappings: MappingsConfig{
			File: "mappings.yaml",
		},
		Database: DatabaseConfig{
			Driver:   "postgres",
			Host:     "localhost",
			Port:     5432,
			SSLMode:  "prefer",
			MaxConns: 5,
		},
		Elastic: ElasticConfig{
			Parameters: map[string]any{},
		},
		Cache: CacheConfig{
			Enabled: true,
			Size:    256,
		},
		Logging: LoggingConfig{
			Level:  "warn",
			Format: "text",
		},
	}
}

// Load loads configuration from path, or from the first config.yaml found in
// the search paths when path is empty. LAZYSEARCH_* environment variables
// override file values.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")

		// 1. User config directory
		if configDir, err := GetConfigPath(); err == nil {
			v.AddConfigPath(configDir)
		}

		// 2. Current directory
		v.AddConfigPath(".")

		// 3. Default config directory
		v.AddConfigPath("./config")
	}

	v.SetEnvPrefix("LAZYSEARCH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := GetDefaults()
	v.SetDefault("general.target", defaults.General.Target)
	v.SetDefault("general.prefix", defaults.General.Prefix)
	v.SetDefault("general.dialect", defaults.General.Dialect)
	v.SetDefault("general.bind_vars", defaults.General.BindVars)
	v.SetDefault("general.limit", defaults.General.Limit)
	v.SetDefault("mappings.file", defaults.Mappings.File)
	v.SetDefault("database.driver", defaults.Database.Driver)
	v.SetDefault("database.host", defaults.Database.Host)
	v.SetDefault("database.port", defaults.Database.Port)
	v.SetDefault("database.name", defaults.Database.Name)
	v.SetDefault("database.user", defaults.Database.User)
	v.SetDefault("database.password", defaults.Database.Password)
	v.SetDefault("database.ssl_mode", defaults.Database.SSLMode)
	v.SetDefault("database.path", defaults.Database.Path)
	v.SetDefault("database.use_keyring", defaults.Database.UseKeyring)
	v.SetDefault("database.max_conns", defaults.Database.MaxConns)
	v.SetDefault("elastic.parameters", defaults.Elastic.Parameters)
	v.SetDefault("cache.enabled", defaults.Cache.Enabled)
	v.SetDefault("cache.size", defaults.Cache.Size)
	v.SetDefault("logging.level", defaults.Logging.Level)
	v.SetDefault("logging.format", defaults.Logging.Format)

	// Read config (it's okay if file doesn't exist, we have defaults)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects values no command can work with
func (c *Config) Validate() error {
	switch c.General.Target {
	case "sql", "elastic":
	default:
		return fmt.Errorf("invalid config: unknown target %q", c.General.Target)
	}
	if _, err := filter.LookupDialect(c.General.Dialect); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	switch c.Database.Driver {
	case "postgres", "sqlite":
	default:
		return fmt.Errorf("invalid config: unknown database driver %q", c.Database.Driver)
	}
	if _, err := logging.ParseLevel(c.Logging.Level); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	if c.Cache.Size < 0 {
		return fmt.Errorf("invalid config: negative cache size %d", c.Cache.Size)
	}
	return nil
}

// GetConfigPath returns the user config directory path
func GetConfigPath() (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, appName), nil
}

// ResolvePath makes a path from the config file relative to the config file's
// directory
func ResolvePath(configFile, path string) string {
	if path == "" || filepath.IsAbs(path) || configFile == "" {
		return path
	}
	return filepath.Join(filepath.Dir(configFile), path)
}
