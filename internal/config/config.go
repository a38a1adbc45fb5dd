// Package config provides configuration management for the QuantDesk application.
package config

import (
	"fmt"
	"time"
)

// Config represents the complete application configuration
type Config struct {
	App        AppConfig        `mapstructure:"app" validate:"required"`
	Server     ServerConfig     `mapstructure:"server" validate:"required"`
	Database   DatabaseConfig   `mapstructure:"database" validate:"required"`
	MarketData MarketDataConfig `mapstructure:"market_data" validate:"required"`
	Forecast   ForecastConfig   `mapstructure:"forecast" validate:"required"`
	Analytics  AnalyticsConfig  `mapstructure:"analytics" validate:"required"`
	Backtest   BacktestConfig   `mapstructure:"backtest" validate:"required"`
	Portfolio  PortfolioConfig  `mapstructure:"portfolio" validate:"required"`
	Ledger     LedgerConfig     `mapstructure:"ledger" validate:"required"`
	Report     ReportConfig     `mapstructure:"report" validate:"required"`
	Metrics    MetricsConfig    `mapstructure:"metrics" validate:"required"`
	Secrets    SecretsConfig    `mapstructure:"secrets"`
}

// AppConfig represents application-level configuration
type AppConfig struct {
	Name        string `mapstructure:"name" validate:"required"`
	Environment string `mapstructure:"environment" validate:"required,environment"`
	LogLevel    string `mapstructure:"log_level" validate:"required,loglevel"`
}

// ServerConfig represents HTTP API configuration
type ServerConfig struct {
	Port           int      `mapstructure:"port" validate:"required,min=1,max=65535"`
	AllowedOrigins []string `mapstructure:"allowed_origins" validate:"required,min=1"`
	TimeoutSeconds int      `mapstructure:"timeout_seconds" validate:"required,gt=0"`
}

// DatabaseConfig represents database connection configuration
type DatabaseConfig struct {
	Host               string `mapstructure:"host" validate:"required"`
	Port               int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Name               string `mapstructure:"name" validate:"required"`
	User               string `mapstructure:"user" validate:"required"`
	Password           string `mapstructure:"password" validate:"required"`
	SSLMode            string `mapstructure:"ssl_mode" validate:"required,oneof=disable require verify-full"`
	MaxConnections     int    `mapstructure:"max_connections" validate:"required,gt=0"`
	MaxIdleConnections int    `mapstructure:"max_idle_connections" validate:"required,gt=0"`
}

// MarketDataConfig represents the market data provider configuration
type MarketDataConfig struct {
	BaseURL                string  `mapstructure:"base_url" validate:"required,url"`
	RequestTimeoutSeconds  int     `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts          int     `mapstructure:"retry_attempts" validate:"required,gte=0"`
	RequestsPerSecond      float64 `mapstructure:"requests_per_second" validate:"required,gt=0"`
	Burst                  int     `mapstructure:"burst" validate:"required,gt=0"`
	MaxConsecutiveFailures int     `mapstructure:"max_consecutive_failures" validate:"required,gt=0"`
	CacheTTLSeconds        int     `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
}

// ForecastConfig represents the external forecasting service configuration
type ForecastConfig struct {
	URL                   string `mapstructure:"url" validate:"required,url"`
	RequestTimeoutSeconds int    `mapstructure:"request_timeout_seconds" validate:"required,gt=0"`
	RetryAttempts         int    `mapstructure:"retry_attempts" validate:"required,gte=0"`
	CacheTTLSeconds       int    `mapstructure:"cache_ttl_seconds" validate:"required,gt=0"`
	DefaultHorizonDays    int    `mapstructure:"default_horizon_days" validate:"required,gt=0"`
}

// AnalyticsConfig represents risk metric parameters
type AnalyticsConfig struct {
	RiskFreeRate    float64 `mapstructure:"risk_free_rate" validate:"gte=0,lte=1"`
	PeriodsPerYear  int     `mapstructure:"periods_per_year" validate:"required,gt=0"`
	ConfidenceLevel float64 `mapstructure:"confidence_level" validate:"required,gt=0,lt=1"`
}

// BacktestConfig represents backtest cost-model defaults
type BacktestConfig struct {
	TransactionCost float64 `mapstructure:"transaction_cost" validate:"gte=0,lte=0.1"`
	Slippage        float64 `mapstructure:"slippage" validate:"gte=0,lte=0.1"`
}

// PortfolioConfig represents portfolio optimizer parameters
type PortfolioConfig struct {
	MaxSharpeIterations int     `mapstructure:"max_sharpe_iterations" validate:"required,gt=0"`
	FrontierSamples     int     `mapstructure:"frontier_samples" validate:"required,gt=0"`
	TurnoverCostRate    float64 `mapstructure:"turnover_cost_rate" validate:"gte=0,lte=0.1"`
	DefaultRebalance    string  `mapstructure:"default_rebalance" validate:"required,rebalance"`
}

// LedgerConfig represents paper trading configuration
type LedgerConfig struct {
	InitialBalance float64 `mapstructure:"initial_balance" validate:"required,gt=0"`
}

// ReportConfig represents the daily report generator configuration
type ReportConfig struct {
	Watchlist           []string `mapstructure:"watchlist" validate:"required,min=1"`
	Schedule            string   `mapstructure:"schedule" validate:"required"`
	OutputDir           string   `mapstructure:"output_dir" validate:"required"`
	ArchiveAfterDays    int      `mapstructure:"archive_after_days" validate:"required,gt=0"`
	RetryAttempts       int      `mapstructure:"retry_attempts" validate:"required,gt=0"`
	RetryBackoffSeconds int      `mapstructure:"retry_backoff_seconds" validate:"required,gt=0"`
}

// MetricsConfig represents metrics and monitoring configuration
type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Port    int    `mapstructure:"port" validate:"required,min=1,max=65535"`
	Path    string `mapstructure:"path" validate:"required"`
}

// SecretsConfig represents the AWS Secrets Manager overlay
type SecretsConfig struct {
	Enabled    bool   `mapstructure:"enabled"`
	Region     string `mapstructure:"region"`
	SecretName string `mapstructure:"secret_name"`
}

// IsDevelopment checks if the application is running in development mode
func (c *Config) IsDevelopment() bool {
	return c.App.Environment == "development"
}

// IsStaging checks if the application is running in staging mode
func (c *Config) IsStaging() bool {
	return c.App.Environment == "staging"
}

// IsProduction checks if the application is running in production mode
func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

// GetDatabaseDSN returns a PostgreSQL DSN string
func (c *Config) GetDatabaseDSN() string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.Database.User,
		c.Database.Password,
		c.Database.Host,
		c.Database.Port,
		c.Database.Name,
		c.Database.SSLMode,
	)
}

// MarketDataTimeout returns the market data request timeout
func (c *Config) MarketDataTimeout() time.Duration {
	return time.Duration(c.MarketData.RequestTimeoutSeconds) * time.Second
}

// MarketDataCacheTTL returns the quote/history cache lifetime
func (c *Config) MarketDataCacheTTL() time.Duration {
	return time.Duration(c.MarketData.CacheTTLSeconds) * time.Second
}

// ForecastCacheTTL returns the forecast cache lifetime
func (c *Config) ForecastCacheTTL() time.Duration {
	return time.Duration(c.Forecast.CacheTTLSeconds) * time.Second
}
