package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	Database DatabaseConfig
	Server   ServerConfig
	App      AppConfig
	Escrow   EscrowConfig
	Jobs     JobsConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver     string
	Host       string
	Port       string
	User       string
	Password   string
	DBName     string
	SQLitePath string
}

// ServerConfig holds server settings
type ServerConfig struct {
	Port        string
	FrontendURL string
}

// AppConfig holds application-specific settings
type AppConfig struct {
	JWTSecret    string
	AuthMessage  string
	EnableFaucet bool
}

// EscrowConfig holds settlement parameters
type EscrowConfig struct {
	ProgramID     string
	FeeBps        int64
	SideFeeBps    int64
	UnderMaxGoals uint32
	OverMinGoals  uint32
	Rounding      string
	PayoutMode    string
}

// JobsConfig holds background job settings
type JobsConfig struct {
	CreditSweepInterval time.Duration
}

const DefaultAuthMessage = "Sign this message to authenticate with Match Escrow"

// Load loads configuration from environment variables
func Load() (*Config, error) {
	// Try to load .env file (ignore error if it doesn't exist)
	_ = godotenv.Load()

	var errs []error
	config := &Config{
		Database: DatabaseConfig{
			Driver:     getEnv("DB_DRIVER", "postgres"),
			Host:       getEnv("DB_HOST", "localhost"),
			Port:       getEnv("DB_PORT", "5432"),
			User:       getEnv("DB_USER", "postgres"),
			Password:   getEnv("DB_PASSWORD", ""),
			DBName:     getEnv("DB_NAME", "match_escrow"),
			SQLitePath: getEnv("DB_SQLITE_PATH", "match_escrow.db"),
		},
		Server: ServerConfig{
			Port:        getEnv("SERVER_PORT", "8080"),
			FrontendURL: getEnv("FRONTEND_URL", ""),
		},
		App: AppConfig{
			JWTSecret:    getEnv("JWT_SECRET", ""),
			AuthMessage:  getEnv("AUTH_MESSAGE", DefaultAuthMessage),
			EnableFaucet: getBool("ENABLE_FAUCET", false, &errs),
		},
		Escrow: EscrowConfig{
			ProgramID:     getEnv("ESCROW_PROGRAM_ID", ""),
			FeeBps:        getInt("ESCROW_FEE_BPS", 500, &errs),
			SideFeeBps:    getInt("ESCROW_SIDE_FEE_BPS", 0, &errs),
			UnderMaxGoals: uint32(getInt("ESCROW_UNDER_MAX_GOALS", 2, &errs)),
			OverMinGoals:  uint32(getInt("ESCROW_OVER_MIN_GOALS", 3, &errs)),
			Rounding:      getEnv("ESCROW_ROUNDING", "first_winners"),
			PayoutMode:    getEnv("ESCROW_PAYOUT_MODE", "push"),
		},
		Jobs: JobsConfig{
			CreditSweepInterval: getDuration("CREDIT_SWEEP_INTERVAL", time.Minute, &errs),
		},
	}

	if len(errs) > 0 {
		return nil, errs[0]
	}

	// Validate required fields
	if config.App.JWTSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	switch config.Database.Driver {
	case "postgres", "sqlite":
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q", config.Database.Driver)
	}

	if config.Jobs.CreditSweepInterval <= 0 {
		return nil, fmt.Errorf("CREDIT_SWEEP_INTERVAL must be positive")
	}

	return config, nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf(
		"host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		c.Database.Host,
		c.Database.Port,
		c.Database.User,
		c.Database.Password,
		c.Database.DBName,
	)
}

// getEnv gets an environment variable with a fallback default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getInt(key string, defaultValue int64, errs *[]error) int64 {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.ParseInt(value, 10, 64)
	if err != nil || n < 0 {
		*errs = append(*errs, fmt.Errorf("%s must be a non-negative integer, got %q", key, value))
		return defaultValue
	}
	return n
}

func getBool(key string, defaultValue bool, errs *[]error) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	b, err := strconv.ParseBool(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a boolean, got %q", key, value))
		return defaultValue
	}
	return b
}

func getDuration(key string, defaultValue time.Duration, errs *[]error) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		*errs = append(*errs, fmt.Errorf("%s must be a duration, got %q", key, value))
		return defaultValue
	}
	return d
}
