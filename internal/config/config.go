package config

import (
	"fmt"
	"log/slog"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"

	"outlet-dashboard/internal/models"
)

type Config struct {
	Server   ServerConfig
	Workbook WorkbookConfig
	Logger   LoggerConfig
	Security SecurityConfig
	LLM      LLMConfig
}

type ServerConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type WorkbookConfig struct {
	File          string
	ChartCategory string
	// ReportMonth pins the as-of month (YYYY-MM). Empty means the current month.
	ReportMonth string
	LoadTimeout time.Duration
}

type LoggerConfig struct {
	Level  string
	Format string
}

type SecurityConfig struct {
	EnableRateLimit bool
	RateLimitRPS    int
	RateLimitBurst  int
}

type LLMConfig struct {
	APIKey            string
	Model             string
	BaseURL           string
	Temperature       float64
	Timeout           time.Duration
	RequestsPerMinute int
}

// LogValue keeps the credential out of structured logs.
func (c LLMConfig) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("model", c.Model),
		slog.String("base_url", c.BaseURL),
		slog.Bool("api_key_set", c.APIKey != ""),
		slog.Duration("timeout", c.Timeout),
	)
}

// LogValue groups every section so the whole config can be logged as one
// attribute. slog resolves LogValue on the top-level value only, so the LLM
// section is resolved here explicitly.
func (c *Config) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Group("server",
			slog.String("host", c.Server.Host),
			slog.Int("port", c.Server.Port),
			slog.Duration("read_timeout", c.Server.ReadTimeout),
			slog.Duration("write_timeout", c.Server.WriteTimeout),
			slog.Duration("shutdown_timeout", c.Server.ShutdownTimeout),
		),
		slog.Group("workbook",
			slog.String("file", c.Workbook.File),
			slog.String("chart_category", c.Workbook.ChartCategory),
			slog.String("report_month", c.Workbook.ReportMonth),
			slog.Duration("load_timeout", c.Workbook.LoadTimeout),
		),
		slog.Group("logger",
			slog.String("level", c.Logger.Level),
			slog.String("format", c.Logger.Format),
		),
		slog.Group("security",
			slog.Bool("rate_limit", c.Security.EnableRateLimit),
			slog.Int("rps", c.Security.RateLimitRPS),
			slog.Int("burst", c.Security.RateLimitBurst),
		),
		slog.Attr{Key: "llm", Value: c.LLM.LogValue()},
	)
}

// Load reads the environment, after merging an optional .env file.
// Variables already set in the environment win over the file.
func Load(envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && len(envFiles) > 0 {
		return nil, fmt.Errorf("load env file: %w", err)
	}

	cfg := &Config{
		Server: ServerConfig{
			Host:            getEnvString("SERVER_HOST", "localhost"),
			Port:            getEnvInt("SERVER_PORT", 8084),
			ReadTimeout:     getEnvDuration("SERVER_READ_TIMEOUT", 10*time.Second),
			WriteTimeout:    getEnvDuration("SERVER_WRITE_TIMEOUT", 60*time.Second),
			IdleTimeout:     getEnvDuration("SERVER_IDLE_TIMEOUT", 60*time.Second),
			ShutdownTimeout: getEnvDuration("SERVER_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Workbook: WorkbookConfig{
			File:          getEnvString("WORKBOOK_FILE", "MT Sales Raw Data.xlsx"),
			ChartCategory: getEnvString("CHART_CATEGORY", "LRB Sales"),
			ReportMonth:   getEnvString("REPORT_MONTH", ""),
			LoadTimeout:   getEnvDuration("WORKBOOK_LOAD_TIMEOUT", 30*time.Second),
		},
		Logger: LoggerConfig{
			Level:  getEnvString("LOG_LEVEL", "info"),
			Format: getEnvString("LOG_FORMAT", "json"),
		},
		Security: SecurityConfig{
			EnableRateLimit: getEnvBool("SECURITY_RATE_LIMIT_ENABLED", true),
			RateLimitRPS:    getEnvInt("SECURITY_RATE_LIMIT_RPS", 20),
			RateLimitBurst:  getEnvInt("SECURITY_RATE_LIMIT_BURST", 10),
		},
		LLM: LLMConfig{
			APIKey:            getEnvString("OPENAI_API_KEY", ""),
			Model:             getEnvString("LLM_MODEL", "gpt-3.5-turbo"),
			BaseURL:           getEnvString("LLM_BASE_URL", "https://api.openai.com/v1"),
			Temperature:       getEnvFloat("LLM_TEMPERATURE", 0.2),
			Timeout:           getEnvDuration("LLM_TIMEOUT", 30*time.Second),
			RequestsPerMinute: getEnvInt("LLM_REQUESTS_PER_MINUTE", 30),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("server port must be between 1 and 65535, got %d", c.Server.Port)
	}

	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server read and write timeouts must be positive")
	}

	if c.Workbook.File == "" {
		return fmt.Errorf("workbook file path cannot be empty")
	}

	if c.Workbook.ReportMonth != "" {
		if _, err := models.ParseMonth(c.Workbook.ReportMonth); err != nil {
			return fmt.Errorf("REPORT_MONTH: %w", err)
		}
	}

	validLogLevels := []string{"debug", "info", "warn", "error"}
	if !slices.Contains(validLogLevels, c.Logger.Level) {
		return fmt.Errorf("invalid log level %q, must be one of: %s", c.Logger.Level, strings.Join(validLogLevels, ", "))
	}

	validLogFormats := []string{"json", "text"}
	if !slices.Contains(validLogFormats, c.Logger.Format) {
		return fmt.Errorf("invalid log format %q, must be one of: %s", c.Logger.Format, strings.Join(validLogFormats, ", "))
	}

	if c.Security.RateLimitRPS <= 0 || c.Security.RateLimitBurst <= 0 {
		return fmt.Errorf("rate limit RPS and burst must be positive")
	}

	if c.LLM.Timeout <= 0 {
		return fmt.Errorf("LLM timeout must be positive")
	}

	return nil
}

// AsOf is the reporting month: the configured override, or the month of now.
func (c *Config) AsOf(now time.Time) models.Month {
	if m, err := models.ParseMonth(c.Workbook.ReportMonth); err == nil {
		return m
	}
	return models.Month{Year: now.Year(), Month: int(now.Month())}
}

func (c *Config) Address() string {
	return fmt.Sprintf("%s:%d", c.Server.Host, c.Server.Port)
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}
