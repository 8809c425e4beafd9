package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Store backends understood by STORE_BACKEND.
const (
	StoreBackendDynamo   = "dynamodb"
	StoreBackendPostgres = "postgres"
)

// Config holds application configuration
type Config struct {
	Port     string
	Env      string
	LogLevel string

	// IntentName is the only intent the hook fulfills.
	IntentName string

	StoreBackend string

	// AWS / DynamoDB
	AWSRegion             string
	AWSAccessKeyID        string
	AWSSecretAccessKey    string
	AWSEndpointOverride   string
	AppointmentTypesTable string
	AppointmentsTable     string
	AppointmentsDateIndex string

	// PostgreSQL
	DatabaseURL string

	// Redis catalog cache (disabled when RedisAddr is empty)
	RedisAddr       string
	RedisPassword   string
	RedisTLS        bool
	CatalogCacheTTL time.Duration

	// SQS booking events (disabled when empty)
	BookingEventsQueueURL string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:     getEnv("PORT", "8080"),
		Env:      getEnv("ENV", "development"),
		LogLevel: getEnv("LOG_LEVEL", "info"),

		IntentName: getEnv("INTENT_NAME", "MakeAppointment"),

		StoreBackend: strings.ToLower(strings.TrimSpace(getEnv("STORE_BACKEND", StoreBackendDynamo))),

		AWSRegion:             getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:        getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:    getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride:   getEnv("AWS_ENDPOINT_OVERRIDE", ""),
		AppointmentTypesTable: getEnv("APPOINTMENT_TYPES_TABLE", "AppointmentType"),
		AppointmentsTable:     getEnv("APPOINTMENTS_TABLE", "Appointments"),
		AppointmentsDateIndex: getEnv("APPOINTMENTS_DATE_INDEX", "Date-Time-index"),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		RedisAddr:       getEnv("REDIS_ADDR", ""),
		RedisPassword:   getEnv("REDIS_PASSWORD", ""),
		RedisTLS:        getEnvAsBool("REDIS_TLS", false),
		CatalogCacheTTL: getEnvAsDuration("CATALOG_CACHE_TTL", 5*time.Minute),

		BookingEventsQueueURL: getEnv("BOOKING_EVENTS_QUEUE_URL", ""),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
