package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	Tickers         []string
	StartDate       string // YYYY-MM-DD
	EndDate         string // YYYY-MM-DD
	MinAllocation   float64
	MaxAllocation   float64
	RiskAversion    float64
	LookbackDays    int
	RecentPriceDays int
	DatabaseURL     string // Postgres DSN; empty disables persistence
	TableName       string
	CachePath       string // local quote cache; empty disables caching
	Schedule        string // cron spec; empty means run once
	LogLevel        string
	PrettyLogs      bool
}

// portfolioFile is the optional YAML file overriding tickers and risk knobs.
type portfolioFile struct {
	Tickers       []string `yaml:"tickers"`
	MinAllocation *float64 `yaml:"min_allocation"`
	MaxAllocation *float64 `yaml:"max_allocation"`
	RiskAversion  *float64 `yaml:"risk_aversion"`
	LookbackDays  *int     `yaml:"lookback_days"`
}

var defaultTickers = []string{"AMD", "MSFT", "AAPL", "TSLA", "AMZN", "NVDA"}

// Load reads configuration from the environment and the optional portfolio
// YAML file named by PORTFOLIO_FILE.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{
		Tickers:         defaultTickers,
		StartDate:       getEnv("START_DATE", "2024-01-01"),
		EndDate:         getEnv("END_DATE", time.Now().UTC().Format("2006-01-02")),
		MinAllocation:   getEnvAsFloat("MIN_ALLOCATION", 0.01),
		MaxAllocation:   getEnvAsFloat("MAX_ALLOCATION", 1.0),
		RiskAversion:    getEnvAsFloat("RISK_AVERSION", 3.0),
		LookbackDays:    getEnvAsInt("LOOKBACK_DAYS", 252),
		RecentPriceDays: getEnvAsInt("RECENT_PRICE_DAYS", 30),
		DatabaseURL:     getEnv("DATABASE_URL", ""),
		TableName:       getEnv("TABLE_NAME", "stock_predictions"),
		CachePath:       getEnv("CACHE_PATH", ""),
		Schedule:        getEnv("SCHEDULE", ""),
		LogLevel:        getEnv("LOG_LEVEL", "info"),
		PrettyLogs:      getEnvAsBool("PRETTY_LOGS", true),
	}

	if path := getEnv("PORTFOLIO_FILE", ""); path != "" {
		if err := cfg.applyPortfolioFile(path); err != nil {
			return nil, err
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) applyPortfolioFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read portfolio file: %w", err)
	}

	var pf portfolioFile
	if err := yaml.Unmarshal(raw, &pf); err != nil {
		return fmt.Errorf("failed to parse portfolio file: %w", err)
	}

	if len(pf.Tickers) > 0 {
		c.Tickers = pf.Tickers
	}
	if pf.MinAllocation != nil {
		c.MinAllocation = *pf.MinAllocation
	}
	if pf.MaxAllocation != nil {
		c.MaxAllocation = *pf.MaxAllocation
	}
	if pf.RiskAversion != nil {
		c.RiskAversion = *pf.RiskAversion
	}
	if pf.LookbackDays != nil {
		c.LookbackDays = *pf.LookbackDays
	}

	return nil
}

// Validate checks that the configuration can produce a feasible run.
func (c *Config) Validate() error {
	if len(c.Tickers) == 0 {
		return fmt.Errorf("at least one ticker is required")
	}
	if _, err := time.Parse("2006-01-02", c.StartDate); err != nil {
		return fmt.Errorf("invalid START_DATE %q: %w", c.StartDate, err)
	}
	if _, err := time.Parse("2006-01-02", c.EndDate); err != nil {
		return fmt.Errorf("invalid END_DATE %q: %w", c.EndDate, err)
	}
	if c.MinAllocation < 0 || c.MaxAllocation <= 0 {
		return fmt.Errorf("allocation bounds must be positive")
	}
	if c.MinAllocation > c.MaxAllocation {
		return fmt.Errorf("MIN_ALLOCATION %.3f exceeds MAX_ALLOCATION %.3f", c.MinAllocation, c.MaxAllocation)
	}
	if c.LookbackDays <= 0 {
		return fmt.Errorf("LOOKBACK_DAYS must be positive")
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
