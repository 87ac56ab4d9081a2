// Package config provides configuration management for the back office.
// It loads configuration from environment variables and .env files, with an
// optional YAML file overlay for server settings.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Buildium BuildiumConfig
	Database DatabaseConfig
	Server   ServerConfig
	Debug    bool
}

// BuildiumConfig represents Buildium API configuration.
type BuildiumConfig struct {
	APIURL            string
	APIKey            string
	Timeout           time.Duration
	RequestsPerSecond float64
}

// DatabaseConfig represents ledger store configuration.
type DatabaseConfig struct {
	Path string
}

// ServerConfig represents HTTP server configuration.
type ServerConfig struct {
	Port            string
	ShutdownTimeout time.Duration
}

// fileConfig is the YAML shape of an optional config file. Every field is
// optional; environment variables win over file values.
type fileConfig struct {
	Buildium struct {
		APIURL            string  `yaml:"api_url"`
		APIKey            string  `yaml:"api_key"`
		TimeoutSeconds    int     `yaml:"timeout_seconds"`
		RequestsPerSecond float64 `yaml:"requests_per_second"`
	} `yaml:"buildium"`
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`
	Server struct {
		Port                   string `yaml:"port"`
		ShutdownTimeoutSeconds int    `yaml:"shutdown_timeout_seconds"`
	} `yaml:"server"`
}

// Load loads configuration from environment variables.
// It automatically loads a .env file from the current directory if available.
// You can optionally specify a custom config path; a path ending in .yaml or
// .yml is treated as a YAML config file, anything else as a .env file.
func Load(configPath ...string) (*Config, error) {
	var file fileConfig

	if len(configPath) > 0 && configPath[0] != "" {
		path := configPath[0]
		if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
			if err := yaml.Unmarshal(data, &file); err != nil {
				return nil, fmt.Errorf("failed to parse config file: %w", err)
			}
			_ = godotenv.Load()
		} else {
			if err := godotenv.Load(path); err != nil {
				return nil, fmt.Errorf("failed to load .env file: %w", err)
			}
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	timeoutSeconds, err := parseIntEnv("BUILDIUM_TIMEOUT_SECONDS", firstNonZero(file.Buildium.TimeoutSeconds, 30))
	if err != nil {
		return nil, fmt.Errorf("invalid BUILDIUM_TIMEOUT_SECONDS: %w", err)
	}

	rps, err := parseFloatEnv("BUILDIUM_REQUESTS_PER_SECOND", firstNonZeroFloat(file.Buildium.RequestsPerSecond, 5))
	if err != nil {
		return nil, fmt.Errorf("invalid BUILDIUM_REQUESTS_PER_SECOND: %w", err)
	}

	shutdownSeconds, err := parseIntEnv("SERVER_SHUTDOWN_TIMEOUT_SECONDS", firstNonZero(file.Server.ShutdownTimeoutSeconds, 10))
	if err != nil {
		return nil, fmt.Errorf("invalid SERVER_SHUTDOWN_TIMEOUT_SECONDS: %w", err)
	}

	config := &Config{
		Buildium: BuildiumConfig{
			APIURL:            getEnvOrDefault("BUILDIUM_API_URL", firstNonEmpty(file.Buildium.APIURL, "https://api.buildium.com")),
			APIKey:            getEnvOrDefault("BUILDIUM_API_KEY", file.Buildium.APIKey),
			Timeout:           time.Duration(timeoutSeconds) * time.Second,
			RequestsPerSecond: rps,
		},
		Database: DatabaseConfig{
			Path: getEnvOrDefault("DATABASE_PATH", firstNonEmpty(file.Database.Path, "./data/backoffice.db")),
		},
		Server: ServerConfig{
			Port:            getEnvOrDefault("PORT", firstNonEmpty(file.Server.Port, "8080")),
			ShutdownTimeout: time.Duration(shutdownSeconds) * time.Second,
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "buildium":
			switch path[1] {
			case "apiUrl":
				value = c.Buildium.APIURL
			case "apiKey":
				value = c.Buildium.APIKey
			}
		case "database":
			switch path[1] {
			case "path":
				value = c.Database.Path
			}
		case "server":
			switch path[1] {
			case "port":
				value = c.Server.Port
			}
		}

		if value == "" {
			missing = append(missing, strings.Join(path, "."))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// parseIntEnv parses an int from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseIntEnv(key string, defaultValue int) (int, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.Atoi(value)
	if err != nil {
		return 0, fmt.Errorf("invalid integer value for %s: %s", key, value)
	}

	return parsed, nil
}

// parseFloatEnv parses a float64 from an environment variable.
// Returns defaultValue if the environment variable is not set.
func parseFloatEnv(key string, defaultValue float64) (float64, error) {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue, nil
	}

	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid float value for %s: %s", key, value)
	}

	return parsed, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func firstNonZero(values ...int) int {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}

func firstNonZeroFloat(values ...float64) float64 {
	for _, v := range values {
		if v != 0 {
			return v
		}
	}
	return 0
}
