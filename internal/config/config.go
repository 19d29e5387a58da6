package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/modelvault/modelvault/internal/logger"
	"github.com/modelvault/modelvault/internal/utils"
)

type PostgresConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	Name     string `yaml:"name"`
	SSLMode  string `yaml:"sslmode"`
}

type DriftConfig struct {
	Epsilon   float64 `yaml:"epsilon"`
	Threshold float64 `yaml:"threshold"`
}

type Config struct {
	LogMode             string         `yaml:"log_mode"`
	Postgres            PostgresConfig `yaml:"postgres"`
	StoreTimeoutSeconds int            `yaml:"store_timeout_seconds"`
	Drift               DriftConfig    `yaml:"drift"`
}

func Default() Config {
	return Config{
		LogMode: "development",
		Postgres: PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "modelvault",
			SSLMode: "disable",
		},
		StoreTimeoutSeconds: 10,
		Drift: DriftConfig{
			Epsilon:   0.001,
			Threshold: 0.1,
		},
	}
}

// Load reads an optional YAML config file and applies environment overrides on
// top of it. A missing file is not an error; a malformed one is.
func Load(path string, log *logger.Logger) (Config, error) {
	cfg := Default()

	if path != "" {
		raw, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
			if log != nil {
				log.Debug("Config file not found, using defaults", "path", path)
			}
		case err != nil:
			return Config{}, fmt.Errorf("reading config file %q: %w", path, err)
		default:
			if err := yaml.Unmarshal(raw, &cfg); err != nil {
				return Config{}, fmt.Errorf("parsing config file %q: %w", path, err)
			}
		}
	}

	cfg.LogMode = utils.GetEnv("LOG_MODE", cfg.LogMode, log)
	cfg.Postgres.Host = utils.GetEnv("POSTGRES_HOST", cfg.Postgres.Host, log)
	cfg.Postgres.Port = utils.GetEnv("POSTGRES_PORT", cfg.Postgres.Port, log)
	cfg.Postgres.User = utils.GetEnv("POSTGRES_USER", cfg.Postgres.User, log)
	cfg.Postgres.Password = utils.GetEnv("POSTGRES_PASSWORD", cfg.Postgres.Password, log)
	cfg.Postgres.Name = utils.GetEnv("POSTGRES_NAME", cfg.Postgres.Name, log)
	cfg.Postgres.SSLMode = utils.GetEnv("POSTGRES_SSLMODE", cfg.Postgres.SSLMode, log)
	cfg.StoreTimeoutSeconds = utils.GetEnvAsInt("STORE_TIMEOUT_SECONDS", cfg.StoreTimeoutSeconds, log)
	cfg.Drift.Epsilon = utils.GetEnvAsFloat("DRIFT_EPSILON", cfg.Drift.Epsilon, log)
	cfg.Drift.Threshold = utils.GetEnvAsFloat("DRIFT_THRESHOLD", cfg.Drift.Threshold, log)

	if cfg.StoreTimeoutSeconds <= 0 {
		cfg.StoreTimeoutSeconds = 10
	}
	if cfg.Drift.Epsilon <= 0 {
		cfg.Drift.Epsilon = 0.001
	}
	if cfg.Drift.Threshold <= 0 {
		cfg.Drift.Threshold = 0.1
	}
	return cfg, nil
}

func (p PostgresConfig) DSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=%s",
		p.User, p.Password, p.Host, p.Port, p.Name, p.SSLMode,
	)
}
