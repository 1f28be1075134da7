package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"agencyops/database"
	"agencyops/models"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"
	"github.com/shopspring/decimal"
)

// Config holds all application configuration
type Config struct {
	// Database configuration
	DatabaseURL  string
	DatabaseName string

	// HTTP configuration
	HTTPAddr       string
	JWTSecret      string // Bearer token auth is disabled when empty
	RateLimitRPS   int
	RateLimitBurst int

	// Logging
	LogLevel  string
	LogFormat string // "json" or "text"

	// Accounting configuration
	FiscalYearStartMonth int             // Calendar month (1-12) the fiscal year starts in
	PayrollDeductionRate decimal.Decimal // Percent withheld from gross pay

	// Reconciliation job
	ReconcileEnabled  bool
	ReconcileSchedule string // Standard 5-field cron spec

	// P&L report cache
	PnLCacheTTL time.Duration

	// NATS configuration
	NATSServers       string // NATS server addresses (comma-separated), forwarding disabled when empty
	NATSSubjectPrefix string

	// AMQP configuration
	AMQPURL      string
	AMQPExchange string

	// Discord webhook notifications
	DiscordWebhookID    string
	DiscordWebhookToken string

	// Environment
	Environment string // "development", "production" or "test"

	// envProblems holds values load could not parse, reported by Validate
	envProblems []string
}

var (
	instance *Config
	once     sync.Once
	mu       sync.Mutex // Protects instance for test setup
)

// Get returns the global configuration instance
func Get() *Config {
	mu.Lock()
	defer mu.Unlock()

	// If instance is already set (e.g., by tests), return it
	if instance != nil {
		return instance
	}

	once.Do(func() {
		var err error
		instance, err = load()
		if err != nil {
			if os.Getenv("ENVIRONMENT") == "test" {
				instance = NewTestConfig()
			} else {
				panic(fmt.Sprintf("failed to load config: %v", err))
			}
		}
	})
	return instance
}

// GetDatabaseURL constructs the full database URL by combining base URL and database name
func (c *Config) GetDatabaseURL() string {
	return database.ConstructDatabaseURL(c.DatabaseURL, c.DatabaseName)
}

// IsProduction reports whether the service runs in production mode
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

// load loads configuration from environment variables
func load() (*Config, error) {
	// A missing .env file is fine, the environment may already be populated
	_ = godotenv.Load()

	var env envReader
	config := &Config{
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		DatabaseName: os.Getenv("DATABASE_NAME"),

		HTTPAddr:       getEnvWithDefault("HTTP_ADDR", ":8080"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		RateLimitRPS:   env.getInt("RATE_LIMIT_RPS", 20),
		RateLimitBurst: env.getInt("RATE_LIMIT_BURST", 40),

		LogLevel:  getEnvWithDefault("LOG_LEVEL", "info"),
		LogFormat: os.Getenv("LOG_FORMAT"),

		FiscalYearStartMonth: env.getInt("FISCAL_YEAR_START_MONTH", 1),
		PayrollDeductionRate: decimal.Zero,

		ReconcileEnabled:  getEnvWithDefault("RECONCILE_ENABLED", "true") == "true",
		ReconcileSchedule: getEnvWithDefault("RECONCILE_SCHEDULE", "0 3 * * *"),

		PnLCacheTTL: env.getDuration("PNL_CACHE_TTL", 5*time.Minute),

		NATSServers:       os.Getenv("NATS_SERVERS"),
		NATSSubjectPrefix: getEnvWithDefault("NATS_SUBJECT_PREFIX", "agencyops"),

		AMQPURL:      os.Getenv("AMQP_URL"),
		AMQPExchange: getEnvWithDefault("AMQP_EXCHANGE", "agencyops.events"),

		DiscordWebhookID:    os.Getenv("DISCORD_WEBHOOK_ID"),
		DiscordWebhookToken: os.Getenv("DISCORD_WEBHOOK_TOKEN"),

		Environment: os.Getenv("ENVIRONMENT"),
	}
	config.envProblems = env.problems

	if rate := os.Getenv("PAYROLL_DEDUCTION_RATE"); rate != "" {
		parsed, err := decimal.NewFromString(strings.TrimSpace(rate))
		if err != nil {
			return nil, fmt.Errorf("invalid PAYROLL_DEDUCTION_RATE %q: %w", rate, err)
		}
		config.PayrollDeductionRate = parsed
	}

	// Set default environment if not specified
	if config.Environment == "" {
		config.Environment = "development"
	}

	if config.LogFormat == "" {
		config.LogFormat = "text"
		if config.IsProduction() {
			config.LogFormat = "json"
		}
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// Validate checks the configuration and reports every problem found
func (c *Config) Validate() error {
	problems := append([]string(nil), c.envProblems...)

	if c.Environment != "test" && c.DatabaseURL == "" {
		problems = append(problems, "DATABASE_URL is required")
	}
	if c.DatabaseName != "" && strings.TrimSpace(c.DatabaseName) == "" {
		problems = append(problems, "DATABASE_NAME cannot be blank when provided")
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 32 {
		problems = append(problems, "JWT_SECRET must be at least 32 bytes")
	}
	if c.RateLimitRPS <= 0 || c.RateLimitBurst <= 0 {
		problems = append(problems, "RATE_LIMIT_RPS and RATE_LIMIT_BURST must be positive")
	}
	if c.FiscalYearStartMonth < 1 || c.FiscalYearStartMonth > 12 {
		problems = append(problems, fmt.Sprintf("FISCAL_YEAR_START_MONTH must be between 1 and 12, got %d", c.FiscalYearStartMonth))
	}
	if c.PayrollDeductionRate.IsNegative() || c.PayrollDeductionRate.GreaterThan(decimal.NewFromInt(100)) {
		problems = append(problems, "PAYROLL_DEDUCTION_RATE must be between 0 and 100")
	}
	if !models.HasRateScale(c.PayrollDeductionRate) {
		problems = append(problems, fmt.Sprintf("PAYROLL_DEDUCTION_RATE allows at most 4 decimal places, got %s", c.PayrollDeductionRate))
	}
	if c.PnLCacheTTL <= 0 {
		problems = append(problems, fmt.Sprintf("PNL_CACHE_TTL must be positive, got %s", c.PnLCacheTTL))
	}
	if c.ReconcileEnabled {
		if _, err := cron.ParseStandard(c.ReconcileSchedule); err != nil {
			problems = append(problems, fmt.Sprintf("invalid RECONCILE_SCHEDULE %q: %v", c.ReconcileSchedule, err))
		}
	}
	if c.LogFormat != "" && c.LogFormat != "json" && c.LogFormat != "text" {
		problems = append(problems, fmt.Sprintf("LOG_FORMAT must be json or text, got %q", c.LogFormat))
	}
	if (c.DiscordWebhookID == "") != (c.DiscordWebhookToken == "") {
		problems = append(problems, "DISCORD_WEBHOOK_ID and DISCORD_WEBHOOK_TOKEN must be set together")
	}

	if len(problems) > 0 {
		return errors.New("invalid configuration: " + strings.Join(problems, "; "))
	}
	return nil
}

// getEnvWithDefault returns the environment variable value or a default if not set
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// envReader parses typed environment variables, collecting malformed values instead of
// silently falling back to the default
type envReader struct {
	problems []string
}

func (r *envReader) getInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s must be an integer, got %q", key, value))
		return defaultValue
	}
	return parsed
}

func (r *envReader) getDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := time.ParseDuration(strings.TrimSpace(value))
	if err != nil {
		r.problems = append(r.problems, fmt.Sprintf("%s must be a duration such as 5m, got %q", key, value))
		return defaultValue
	}
	return parsed
}

// Test helpers - only use in tests

// SetTestConfig overrides the global config instance for testing
func SetTestConfig(testConfig *Config) {
	mu.Lock()
	defer mu.Unlock()
	instance = testConfig
}

// ResetConfig resets the global config instance and sync.Once for testing
func ResetConfig() {
	mu.Lock()
	defer mu.Unlock()
	instance = nil
	once = sync.Once{}
}

// NewTestConfig creates a minimal config suitable for unit tests
func NewTestConfig() *Config {
	return &Config{
		Environment:          "test",
		HTTPAddr:             ":0",
		RateLimitRPS:         1000,
		RateLimitBurst:       1000,
		LogLevel:             "debug",
		LogFormat:            "text",
		FiscalYearStartMonth: 1,
		PayrollDeductionRate: decimal.Zero,
		ReconcileSchedule:    "0 3 * * *",
		PnLCacheTTL:          time.Minute,
		NATSSubjectPrefix:    "agencyops",
		AMQPExchange:         "agencyops.events",
	}
}
