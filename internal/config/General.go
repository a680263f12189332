package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Application configuration loaded from environment variables.
// These are populated at startup by the LoadConfig function.
var (
	// LogLevel is the zerolog level name, "info" when unset.
	LogLevel string
	// LogFile receives a copy of every log line when set.
	LogFile string

	// Port serves the HTTP API.
	Port string
	// MetricsPort serves /metrics.
	MetricsPort int

	// DataDir holds the goleveldb store. Empty keeps state in memory.
	DataDir string
	// ParamsFile is the yaml parameters file. Empty uses DefaultParameters.
	ParamsFile string

	// KeeperInterval is the delay between keeper cycles.
	KeeperInterval time.Duration

	// DB configures the optional postgres event sink. Nil when DB_HOST is unset.
	DB *DBConfig
)

var ErrMissingEnv = errors.New("environment variable is required but not set")

// DBConfig holds database connection parameters.
type DBConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LoadConfig loads configuration from environment variables and sets the global config vars.
// Everything has a default except the database, which is only required once DB_HOST is set.
func LoadConfig() error {
	log.Info().Msg("Loading application configuration from environment variables...")

	var err error

	LogLevel = getEnvOr("LOG_LEVEL", "info")
	LogFile = expandHome(getEnvOr("LOG_FILE", ""))
	Port = getEnvOr("PORT", "8080")

	MetricsPort, err = getEnvAsIntOr("METRICS_PORT", 2112)
	if err != nil {
		return err
	}

	DataDir = expandHome(getEnvOr("DATA_DIR", ""))
	ParamsFile = expandHome(getEnvOr("PARAMS_FILE", ""))

	intervalS, err := getEnvAsUint64Or("KEEPER_INTERVAL_S", 600)
	if err != nil {
		return err
	}
	KeeperInterval = time.Duration(intervalS) * time.Second

	if DB, err = loadDBConfig(); err != nil {
		return err
	}

	if err := loadEndpointConfig(); err != nil {
		return err
	}

	log.Debug().
		Str("Port", Port).
		Int("MetricsPort", MetricsPort).
		Str("DataDir", DataDir).
		Str("ParamsFile", ParamsFile).
		Bool("Postgres", DB != nil).
		Msg("Configuration loaded successfully.")

	return nil
}

func loadDBConfig() (*DBConfig, error) {
	host := getEnvOr("DB_HOST", "")
	if host == "" {
		return nil, nil
	}
	port, err := getEnvAsIntOr("DB_PORT", 5432)
	if err != nil {
		return nil, err
	}
	user, err := getEnv("DB_USER")
	if err != nil {
		return nil, err
	}
	name, err := getEnv("DB_NAME")
	if err != nil {
		return nil, err
	}
	return &DBConfig{
		Host:     host,
		Port:     port,
		User:     user,
		Password: getEnvOr("DB_PASSWORD", ""),
		DBName:   name,
		SSLMode:  getEnvOr("DB_SSLMODE", "disable"),
	}, nil
}

// DSN renders the lib/pq connection string.
func (c DBConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.Host, c.Port, c.User, c.Password, c.DBName, c.SSLMode)
}

// expandHome expands a leading ~/ to the user's home directory.
func expandHome(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}

// getEnv retrieves a string environment variable. Returns error if not set.
func getEnv(key string) (string, error) {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value, nil
	}
	return "", fmt.Errorf("%s: %w", key, ErrMissingEnv)
}

func getEnvOr(key, fallback string) string {
	if value, err := getEnv(key); err == nil {
		return value
	}
	return fallback
}

// getEnvAsUint64Or retrieves an environment variable as a uint64, or fallback when unset.
func getEnvAsUint64Or(key string, fallback uint64) (uint64, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return fallback, nil
	}
	value, err := strconv.ParseUint(valueStr, 10, 64)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid uint64, got: " + valueStr)
	}
	return value, nil
}

func getEnvAsIntOr(key string, fallback int) (int, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return fallback, nil
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return 0, errors.New("environment variable " + key + " must be a valid int, got: " + valueStr)
	}
	return value, nil
}

// getEnvAsBool accepts the strconv.ParseBool spellings and defaults to fallback when unset.
func getEnvAsBool(key string, fallback bool) (bool, error) {
	valueStr, err := getEnv(key)
	if err != nil {
		return fallback, nil
	}
	value, err := strconv.ParseBool(valueStr)
	if err != nil {
		return false, errors.New("environment variable " + key + " must be a valid bool, got: " + valueStr)
	}
	return value, nil
}
