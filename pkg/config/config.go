package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Registry payload formats understood by the registry adapter.
const (
	RegistryFormatXML  = "xml"
	RegistryFormatJSON = "json"
)

// MaxRegistryRows is the largest page the registry is asked for. It also
// bounds how many department lookups one enrichment call can issue.
const MaxRegistryRows = 100

// Config holds all application configuration
type Config struct {
	Server     ServerConfig
	Registry   RegistryConfig
	Redis      RedisConfig
	Aggregator AggregatorConfig
	OTEL       OTELConfig
}

// ServerConfig holds server configuration
type ServerConfig struct {
	Host           string
	Port           int
	Env            string
	AllowedOrigins []string
}

// RegistryConfig holds the public hospital registry configuration.
// ServiceKey is a secret and must never be logged or returned to clients.
type RegistryConfig struct {
	ServiceKey      string
	HospitalListURL string
	DepartmentURL   string
	Format          string
	Timeout         time.Duration
	NumOfRows       int
	DetailCacheTTL  int
}

// RedisConfig holds Redis configuration
type RedisConfig struct {
	Enabled  bool
	Host     string
	Port     int
	Password string
	DB       int
}

// AggregatorConfig holds settings for the client-side enrichment aggregator.
type AggregatorConfig struct {
	GatewayURL     string
	MaxConcurrency int
	Timeout        time.Duration
}

// OTELConfig holds OpenTelemetry configuration
type OTELConfig struct {
	ServiceName    string
	ServiceVersion string
	Endpoint       string
	Enabled        bool
}

// Load loads configuration from environment variables
func Load() (*Config, error) {
	return &Config{
		Server: ServerConfig{
			Host:           getEnv("SERVER_HOST", "0.0.0.0"),
			Port:           getEnvAsInt("SERVER_PORT", 8080),
			Env:            getEnv("APP_ENV", "development"),
			AllowedOrigins: getEnvAsList("ALLOWED_ORIGINS", []string{"*"}),
		},
		Registry: RegistryConfig{
			ServiceKey:      getEnv("REGISTRY_SERVICE_KEY", ""),
			HospitalListURL: getEnv("REGISTRY_HOSPITAL_LIST_URL", "https://apis.data.go.kr/B551182/hospInfoServicev2/getHospBasisList"),
			DepartmentURL:   getEnv("REGISTRY_DEPARTMENT_URL", "https://apis.data.go.kr/B551182/MadmDtlInfoService2.7/getDgsbjtInfo2.7"),
			Format:          strings.ToLower(getEnv("REGISTRY_FORMAT", RegistryFormatXML)),
			Timeout:         getEnvAsDuration("REGISTRY_TIMEOUT", 8*time.Second),
			NumOfRows:       getEnvAsInt("REGISTRY_NUM_OF_ROWS", 100),
			DetailCacheTTL:  getEnvAsInt("DETAIL_CACHE_TTL_SECONDS", 60*60),
		},
		Redis: RedisConfig{
			Enabled:  getEnvAsBool("REDIS_ENABLED", false),
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvAsInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Aggregator: AggregatorConfig{
			GatewayURL:     getEnv("GATEWAY_URL", "http://localhost:8080"),
			MaxConcurrency: getEnvAsInt("AGGREGATOR_MAX_CONCURRENCY", 0),
			Timeout:        getEnvAsDuration("GATEWAY_TIMEOUT", 10*time.Second),
		},
		OTEL: OTELConfig{
			ServiceName:    getEnv("OTEL_SERVICE_NAME", "hospital-finder"),
			ServiceVersion: getEnv("OTEL_SERVICE_VERSION", "1.0.0"),
			Endpoint:       getEnv("OTEL_ENDPOINT", ""),
			Enabled:        getEnvAsBool("OTEL_ENABLED", false),
		},
	}, nil
}

// Validate checks the settings the gateway server cannot run without.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Registry.ServiceKey) == "" {
		return fmt.Errorf("REGISTRY_SERVICE_KEY is required")
	}
	switch c.Registry.Format {
	case RegistryFormatXML, RegistryFormatJSON:
	default:
		return fmt.Errorf("unsupported REGISTRY_FORMAT %q (want xml or json)", c.Registry.Format)
	}
	if c.Registry.NumOfRows <= 0 || c.Registry.NumOfRows > MaxRegistryRows {
		return fmt.Errorf("REGISTRY_NUM_OF_ROWS must be between 1 and %d", MaxRegistryRows)
	}
	if c.Aggregator.MaxConcurrency < 0 {
		return fmt.Errorf("AGGREGATOR_MAX_CONCURRENCY must not be negative")
	}
	return nil
}

// Addr returns the listen address for the HTTP server
func (c *ServerConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// RedisAddr returns the Redis address
func (c *RedisConfig) RedisAddr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// HasServiceKey reports whether a credential is configured without exposing it.
func (c *RegistryConfig) HasServiceKey() bool {
	return strings.TrimSpace(c.ServiceKey) != ""
}

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

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}

func getEnvAsList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	var out []string
	for _, item := range strings.Split(value, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	if len(out) == 0 {
		return defaultValue
	}
	return out
}
