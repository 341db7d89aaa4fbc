package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for our application
type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	Data     DataConfig     `mapstructure:"data"`
	Import   ImportConfig   `mapstructure:"import"`
	Log      LogConfig      `mapstructure:"log"`
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string        `mapstructure:"host"`
	HTTPPort       int           `mapstructure:"http_port"`
	AllowedOrigins []string      `mapstructure:"allowed_origins"`
	ShutdownGrace  time.Duration `mapstructure:"shutdown_grace"`
}

// DatabaseConfig holds database configuration
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"`
	Path   string `mapstructure:"path"`
	URL    string `mapstructure:"url"`
	Memory bool   `mapstructure:"memory"`
	LogSQL bool   `mapstructure:"log_sql"`
}

// DataConfig points at the source documents
type DataConfig struct {
	JMdictXML    string `mapstructure:"jmdict_xml"`
	Kanjidic2XML string `mapstructure:"kanjidic2_xml"`
	JMnedictXML  string `mapstructure:"jmnedict_xml"`
	Kradfile     string `mapstructure:"kradfile"`
	// UseXML serves lookups from the documents above instead of the database.
	UseXML bool `mapstructure:"use_xml"`
}

// ImportConfig holds bulk import settings
type ImportConfig struct {
	BatchSize int `mapstructure:"batch_size"`
}

// LogConfig holds logging configuration
type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

// Load reads configuration from file and environment variables
func Load() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./config")
	if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(filepath.Join(home, ".jamdict"))
	}

	// Set default values
	setDefaults()

	// Enable reading from environment variables
	viper.SetEnvPrefix("jamdict")
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read configuration file
	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	config.Database.Path = expandHome(config.Database.Path)
	config.Data.JMdictXML = expandHome(config.Data.JMdictXML)
	config.Data.Kanjidic2XML = expandHome(config.Data.Kanjidic2XML)
	config.Data.JMnedictXML = expandHome(config.Data.JMnedictXML)
	config.Data.Kradfile = expandHome(config.Data.Kradfile)

	return &config, nil
}

// setDefaults sets default configuration values
func setDefaults() {
	// Server defaults
	viper.SetDefault("server.host", "localhost")
	viper.SetDefault("server.http_port", 8080)
	viper.SetDefault("server.allowed_origins", []string{"*"})
	viper.SetDefault("server.shutdown_grace", 10*time.Second)

	// Database defaults
	viper.SetDefault("database.driver", "sqlite3")
	viper.SetDefault("database.path", "~/.jamdict/data/jamdict.db")
	viper.SetDefault("database.url", "")
	viper.SetDefault("database.memory", false)
	viper.SetDefault("database.log_sql", false)

	// Source documents
	viper.SetDefault("data.jmdict_xml", "")
	viper.SetDefault("data.kanjidic2_xml", "")
	viper.SetDefault("data.jmnedict_xml", "")
	viper.SetDefault("data.kradfile", "")
	viper.SetDefault("data.use_xml", false)

	viper.SetDefault("import.batch_size", 1000)

	// Log defaults
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "json")
}

// DatabaseDriver returns the database/sql driver name
func (c *Config) DatabaseDriver() (string, error) {
	driver := strings.ToLower(strings.TrimSpace(c.Database.Driver))
	switch driver {
	case "", "sqlite3":
		return "sqlite3", nil
	case "sqlite", "pgx", "postgres":
		return driver, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", c.Database.Driver)
	}
}

// DatabaseURL returns the DSN for the configured driver
func (c *Config) DatabaseURL() (string, error) {
	driver, err := c.DatabaseDriver()
	if err != nil {
		return "", err
	}
	switch driver {
	case "pgx", "postgres":
		if c.Database.URL == "" {
			return "", fmt.Errorf("database.url is required for driver %s", driver)
		}
		return c.Database.URL, nil
	default:
		if c.Database.Path == "" {
			return "", fmt.Errorf("database.path is required for driver %s", driver)
		}
		return c.Database.Path, nil
	}
}

func expandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
