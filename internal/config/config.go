package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/shopspring/decimal"
)

type Config struct {
	Port              string
	DBUrl             string
	JWTSecret         string
	AppEnv            string
	CommissionPercent decimal.Decimal
	MinStartBalance   decimal.Decimal
	MonitorInterval   time.Duration
	AcceptTimeout     time.Duration
}

func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	jwtSecret, exists := os.LookupEnv("JWT_SECRET")
	if !exists || jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	commission, err := getEnvDecimal("COMMISSION_PERCENT", decimal.NewFromInt(20))
	if err != nil {
		return nil, err
	}
	if commission.IsNegative() || commission.GreaterThan(decimal.NewFromInt(100)) {
		return nil, fmt.Errorf("COMMISSION_PERCENT must be between 0 and 100")
	}

	minStartBalance, err := getEnvDecimal("MIN_START_BALANCE", decimal.NewFromInt(50))
	if err != nil {
		return nil, err
	}
	if minStartBalance.IsNegative() {
		return nil, fmt.Errorf("MIN_START_BALANCE must not be negative")
	}

	return &Config{
		Port:              getEnv("PORT", "8080"),
		DBUrl:             getEnv("DB_URL", ""),
		JWTSecret:         jwtSecret,
		AppEnv:            normalizeEnv(getEnv("APP_ENV", "production")),
		CommissionPercent: commission,
		MinStartBalance:   minStartBalance,
		MonitorInterval:   getEnvSeconds("MONITOR_INTERVAL_SECONDS", 30*time.Second),
		AcceptTimeout:     getEnvSeconds("ACCEPT_TIMEOUT_SECONDS", 2*time.Minute),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvDecimal(key string, fallback decimal.Decimal) (decimal.Decimal, error) {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback, nil
	}
	parsed, err := decimal.NewFromString(strings.TrimSpace(value))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s must be a valid number: %v", key, err)
	}
	return parsed, nil
}

func getEnvSeconds(key string, fallback time.Duration) time.Duration {
	value, exists := os.LookupEnv(key)
	if !exists || strings.TrimSpace(value) == "" {
		return fallback
	}
	seconds, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || seconds <= 0 {
		return fallback
	}
	return time.Duration(seconds) * time.Second
}

func normalizeEnv(value string) string {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "dev", "develop", "development", "local":
		return "development"
	case "prod", "production":
		return "production"
	case "stage", "staging":
		return "staging"
	case "test", "testing":
		return "test"
	default:
		return strings.ToLower(strings.TrimSpace(value))
	}
}
