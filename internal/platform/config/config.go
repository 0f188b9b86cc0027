package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"kpiengine/internal/domain/period"
	"kpiengine/internal/domain/reward"
)

type Config struct {
	Addr             string        `yaml:"addr"`
	DatabaseURL      string        `yaml:"databaseUrl"`
	JWTSecret        string        `yaml:"jwtSecret"`
	Environment      string        `yaml:"environment"`
	RunMigrations    bool          `yaml:"runMigrations"`
	RunSeed          bool          `yaml:"runSeed"`
	MigrationsDir    string        `yaml:"migrationsDir"`
	MetricsEnabled   bool          `yaml:"metricsEnabled"`
	MaxBodyBytes     int64         `yaml:"maxBodyBytes"`
	BatchWorkers     int           `yaml:"batchWorkers"`
	RewardFormula    string        `yaml:"rewardFormula"`
	RecalcInterval   time.Duration `yaml:"recalcInterval"`
	RecalcPeriodType string        `yaml:"recalcPeriodType"`
	LogLevel         string        `yaml:"logLevel"`
	LogFormat        string        `yaml:"logFormat"`
}

func defaults() Config {
	return Config{
		Addr:             ":8080",
		Environment:      "development",
		RunMigrations:    true,
		RunSeed:          true,
		MigrationsDir:    "migrations",
		MetricsEnabled:   true,
		MaxBodyBytes:     1048576,
		BatchWorkers:     reward.DefaultWorkers,
		RewardFormula:    string(reward.FormulaStandard),
		RecalcPeriodType: string(period.Monthly),
		LogLevel:         "info",
		LogFormat:        "json",
	}
}

// Load builds the configuration from defaults, then the YAML file named by
// CONFIG_FILE when set, then environment variables.
func Load() (Config, error) {
	cfg := defaults()
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := cfg.overlayFile(path); err != nil {
			return Config{}, err
		}
	}
	cfg.Addr = getEnv("APP_ADDR", cfg.Addr)
	cfg.DatabaseURL = getEnv("DATABASE_URL", cfg.DatabaseURL)
	cfg.JWTSecret = getEnv("JWT_SECRET", cfg.JWTSecret)
	cfg.Environment = getEnv("APP_ENV", cfg.Environment)
	cfg.RunMigrations = getEnvBool("RUN_MIGRATIONS", cfg.RunMigrations)
	cfg.RunSeed = getEnvBool("RUN_SEED", cfg.RunSeed)
	cfg.MigrationsDir = getEnv("MIGRATIONS_DIR", cfg.MigrationsDir)
	cfg.MetricsEnabled = getEnvBool("METRICS_ENABLED", cfg.MetricsEnabled)
	cfg.MaxBodyBytes = int64(getEnvInt("MAX_BODY_BYTES", int(cfg.MaxBodyBytes)))
	cfg.BatchWorkers = getEnvInt("BATCH_WORKERS", cfg.BatchWorkers)
	cfg.RewardFormula = getEnv("REWARD_FORMULA", cfg.RewardFormula)
	cfg.RecalcInterval = getEnvDuration("RECALC_INTERVAL", cfg.RecalcInterval)
	cfg.RecalcPeriodType = getEnv("RECALC_PERIOD_TYPE", cfg.RecalcPeriodType)
	cfg.LogLevel = getEnv("LOG_LEVEL", cfg.LogLevel)
	cfg.LogFormat = getEnv("LOG_FORMAT", cfg.LogFormat)
	return cfg, nil
}

func (c *Config) overlayFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config file: %w", err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	return nil
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) int {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := time.ParseDuration(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func (c Config) Formula() reward.Formula {
	f, _ := reward.ParseFormula(c.RewardFormula)
	return f
}

func (c Config) PeriodType() period.Type {
	t, _ := period.ParseType(c.RecalcPeriodType)
	return t
}

func (c Config) Validate() error {
	if strings.TrimSpace(c.DatabaseURL) == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.Environment == "production" && strings.TrimSpace(c.JWTSecret) == "" {
		return fmt.Errorf("JWT_SECRET must be set to a strong value in production")
	}
	if c.MaxBodyBytes < 1024 {
		return fmt.Errorf("MAX_BODY_BYTES must be at least 1024")
	}
	if c.BatchWorkers <= 0 {
		return fmt.Errorf("BATCH_WORKERS must be positive")
	}
	if _, err := reward.ParseFormula(c.RewardFormula); err != nil {
		return fmt.Errorf("REWARD_FORMULA: %w", err)
	}
	if _, err := period.ParseType(c.RecalcPeriodType); err != nil {
		return fmt.Errorf("RECALC_PERIOD_TYPE: %w", err)
	}
	if c.RecalcInterval < 0 {
		return fmt.Errorf("RECALC_INTERVAL must not be negative")
	}
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("LOG_LEVEL must be one of debug, info, warn, error")
	}
	return nil
}

func parseLogLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger builds the process logger; LOG_FORMAT=text switches to the text
// handler for local runs.
func (c Config) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLogLevel(c.LogLevel)}
	if strings.EqualFold(c.LogFormat, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
