package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// envPaths are tried in order; the first file found is loaded
var envPaths = []string{".env", "../.env", "../../.env"}

// LoadEnv loads environment variables from the nearest .env file. Variables
// already present in the process environment are never overridden.
func LoadEnv() error {
	for _, envPath := range envPaths {
		if _, err := os.Stat(envPath); err != nil {
			continue
		}
		if err := godotenv.Load(envPath); err != nil {
			return fmt.Errorf("failed to load %s: %w", envPath, err)
		}
		break
	}
	return nil
}

// GetEnv gets environment variable with default
func GetEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// GetEnvInt gets integer environment variable with default
func GetEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

// GetEnvFloat gets float environment variable with default
func GetEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
	}
	return defaultValue
}

// GetEnvBool gets boolean environment variable with default
func GetEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		switch strings.ToLower(value) {
		case "true", "1", "yes", "on":
			return true
		case "false", "0", "no", "off":
			return false
		}
	}
	return defaultValue
}

// Database holds the store connection settings
type Database struct {
	Driver string // postgres or sqlite3
	DSN    string
	// AreaQuery and OccupationQuery return (code, name) rows in priority order
	AreaQuery       string
	OccupationQuery string
}

// LoadDatabase reads DB_DRIVER and DB_DSN, building a postgres DSN from the
// PG* variables when DB_DSN is unset.
func LoadDatabase() Database {
	d := Database{
		Driver:          GetEnv("DB_DRIVER", "postgres"),
		DSN:             os.Getenv("DB_DSN"),
		AreaQuery:       os.Getenv("CATALOG_AREAS_QUERY"),
		OccupationQuery: os.Getenv("CATALOG_OCCUPATIONS_QUERY"),
	}
	if d.DSN == "" {
		switch d.Driver {
		case "sqlite3":
			d.DSN = "file:vacancies.db?_txlock=immediate&_foreign_keys=on"
		default:
			d.DSN = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s",
				GetEnv("PGHOST", "localhost"),
				GetEnv("PGPORT", "5432"),
				GetEnv("PGUSER", "postgres"),
				GetEnv("PGPASSWORD", "postgres"),
				GetEnv("PGDATABASE", "vacancies"),
				GetEnv("PGSSLMODE", "disable"))
		}
	}
	return d
}

// Source holds the vacancy API settings
type Source struct {
	BaseURL   string
	Region    string
	PageSize  int
	RateLimit float64 // requests per second
}

// LoadSource reads the TRUDVSEM_* variables
func LoadSource() Source {
	return Source{
		BaseURL:   GetEnv("TRUDVSEM_URL", "http://opendata.trudvsem.ru"),
		Region:    GetEnv("TRUDVSEM_REGION", "54"),
		PageSize:  GetEnvInt("TRUDVSEM_PAGE_SIZE", 100),
		RateLimit: GetEnvFloat("TRUDVSEM_RPS", 5),
	}
}
