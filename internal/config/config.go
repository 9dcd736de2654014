// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir  string // Base directory for database files, always absolute
	Port     int
	LogLevel string
	DevMode  bool

	EODHDAPIKey string // Market data provider token (empty disables live sync)

	// Rebalancing behavior
	ShortTermRate     float64 // Short-term capital gains rate
	LongTermRate      float64 // Long-term capital gains rate
	LotSelection      string  // fifo, lifo or highest_cost_first
	MinTradeSize      float64 // Dollar dead-band below which trades are skipped
	DriftThreshold    float64 // Max absolute drift before the check job flags a rebalance
	RebalanceSchedule string  // Cron spec for the scheduled rebalance check
	PriceSyncSchedule string  // Cron spec for the price sync job
}

// Load reads configuration from environment variables, with .env support.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("DUMBFI_DATA_DIR", "./data")
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:           absDataDir,
		Port:              getEnvAsInt("PORT", 8080),
		LogLevel:          getEnv("LOG_LEVEL", "info"),
		DevMode:           getEnvAsBool("DEV_MODE", false),
		EODHDAPIKey:       getEnv("EODHD_API_KEY", ""),
		ShortTermRate:     getEnvAsFloat("SHORT_TERM_RATE", 0.35),
		LongTermRate:      getEnvAsFloat("LONG_TERM_RATE", 0.15),
		LotSelection:      getEnv("LOT_SELECTION", "fifo"),
		MinTradeSize:      getEnvAsFloat("MIN_TRADE_SIZE", 0),
		DriftThreshold:    getEnvAsFloat("DRIFT_THRESHOLD", 0.05),
		RebalanceSchedule: getEnv("REBALANCE_SCHEDULE", "@daily"),
		PriceSyncSchedule: getEnv("PRICE_SYNC_SCHEDULE", "@every 6h"),
	}

	return cfg, nil
}

// PortfolioDBPath returns the path to the portfolio database.
func (c *Config) PortfolioDBPath() string {
	return filepath.Join(c.DataDir, "portfolio.db")
}

// MarketDBPath returns the path to the market data database.
func (c *Config) MarketDBPath() string {
	return filepath.Join(c.DataDir, "market.db")
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}
