package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("ENVIRONMENT", "development")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, 20, cfg.RateLimitRPS)
	assert.Equal(t, 40, cfg.RateLimitBurst)
	assert.Equal(t, 1, cfg.FiscalYearStartMonth)
	assert.True(t, cfg.PayrollDeductionRate.IsZero())
	assert.True(t, cfg.ReconcileEnabled)
	assert.Equal(t, "0 3 * * *", cfg.ReconcileSchedule)
	assert.Equal(t, 5*time.Minute, cfg.PnLCacheTTL)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "agencyops", cfg.NATSSubjectPrefix)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("FISCAL_YEAR_START_MONTH", "4")
	t.Setenv("PAYROLL_DEDUCTION_RATE", "12.5")
	t.Setenv("PNL_CACHE_TTL", "30s")
	t.Setenv("RECONCILE_ENABLED", "false")

	cfg, err := load()
	require.NoError(t, err)

	assert.Equal(t, 4, cfg.FiscalYearStartMonth)
	assert.True(t, cfg.PayrollDeductionRate.Equal(decimal.RequireFromString("12.5")))
	assert.Equal(t, 30*time.Second, cfg.PnLCacheTTL)
	assert.False(t, cfg.ReconcileEnabled)
	assert.Equal(t, "json", cfg.LogFormat, "production defaults to json logs")
	assert.True(t, cfg.IsProduction())
}

func TestLoad_InvalidDeductionRate(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("PAYROLL_DEDUCTION_RATE", "abc")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PAYROLL_DEDUCTION_RATE")
}

func TestLoad_MalformedNumbersAreReported(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("RATE_LIMIT_RPS", "fast")
	t.Setenv("RATE_LIMIT_BURST", "4O")
	t.Setenv("FISCAL_YEAR_START_MONTH", "april")
	t.Setenv("PNL_CACHE_TTL", "300")

	_, err := load()
	require.Error(t, err)
	for _, key := range []string{"RATE_LIMIT_RPS", "RATE_LIMIT_BURST", "FISCAL_YEAR_START_MONTH", "PNL_CACHE_TTL"} {
		assert.Contains(t, err.Error(), key)
	}
}

func TestLoad_NonPositiveCacheTTL(t *testing.T) {
	t.Setenv("DATABASE_URL", "postgres://localhost:5432")
	t.Setenv("PNL_CACHE_TTL", "0s")

	_, err := load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "PNL_CACHE_TTL must be positive")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{
			name:   "test config is valid",
			mutate: func(c *Config) {},
		},
		{
			name:    "database url required outside test",
			mutate:  func(c *Config) { c.Environment = "production" },
			wantErr: "DATABASE_URL is required",
		},
		{
			name:    "short jwt secret",
			mutate:  func(c *Config) { c.JWTSecret = "too-short" },
			wantErr: "JWT_SECRET",
		},
		{
			name:    "fiscal month out of range",
			mutate:  func(c *Config) { c.FiscalYearStartMonth = 13 },
			wantErr: "FISCAL_YEAR_START_MONTH",
		},
		{
			name:    "deduction rate above 100",
			mutate:  func(c *Config) { c.PayrollDeductionRate = decimal.NewFromInt(101) },
			wantErr: "PAYROLL_DEDUCTION_RATE",
		},
		{
			name:    "deduction rate finer than the stored scale",
			mutate:  func(c *Config) { c.PayrollDeductionRate = decimal.RequireFromString("12.34567") },
			wantErr: "at most 4 decimal places",
		},
		{
			name:   "deduction rate at the stored scale",
			mutate: func(c *Config) { c.PayrollDeductionRate = decimal.RequireFromString("12.3456") },
		},
		{
			name:    "zero cache ttl",
			mutate:  func(c *Config) { c.PnLCacheTTL = 0 },
			wantErr: "PNL_CACHE_TTL",
		},
		{
			name:    "negative cache ttl",
			mutate:  func(c *Config) { c.PnLCacheTTL = -time.Second },
			wantErr: "PNL_CACHE_TTL",
		},
		{
			name: "bad cron schedule",
			mutate: func(c *Config) {
				c.ReconcileEnabled = true
				c.ReconcileSchedule = "every day"
			},
			wantErr: "RECONCILE_SCHEDULE",
		},
		{
			name:    "webhook id without token",
			mutate:  func(c *Config) { c.DiscordWebhookID = "123" },
			wantErr: "DISCORD_WEBHOOK_ID",
		},
		{
			name:    "unknown log format",
			mutate:  func(c *Config) { c.LogFormat = "xml" },
			wantErr: "LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewTestConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidate_CollectsAllProblems(t *testing.T) {
	cfg := NewTestConfig()
	cfg.FiscalYearStartMonth = 0
	cfg.RateLimitRPS = 0

	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "FISCAL_YEAR_START_MONTH")
	assert.Contains(t, err.Error(), "RATE_LIMIT_RPS")
}

func TestSetTestConfig(t *testing.T) {
	defer ResetConfig()

	custom := NewTestConfig()
	custom.HTTPAddr = ":9999"
	SetTestConfig(custom)

	assert.Same(t, custom, Get())
}
