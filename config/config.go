package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all application configuration
//
//nolint:govet // Field alignment optimization would reduce readability
type Config struct {
	Server        ServerConfig
	Database      DatabaseConfig
	Storage       StorageConfig
	Session       SessionConfig
	EventTriggers EventTriggersConfig
	Logging       LoggingConfig
	Observability ObservabilityConfig
	Profiling     ProfilingConfig
	Cache         CacheConfig
	Forms         FormsConfig
}

type ServerConfig struct {
	Port           string
	GinMode        string
	AppEnv         string
	AllowedOrigins []string
}

type DatabaseConfig struct {
	URL           string
	MaxConns      int32
	MinConns      int32
	CACertPath    string
	TLSServerName string
}

// StorageConfig configures the S3-compatible bucket holding portfolio images
type StorageConfig struct {
	AccessKeyID     string
	SecretAccessKey string
	BucketName      string
	Endpoint        string
	Region          string
}

type SessionConfig struct {
	JWTSecret    string
	JWTIssuer    string
	CookieDomain string
	CookieSecure bool
}

type EventTriggersConfig struct {
	PortfolioCreatedTriggerURL string
}

type LoggingConfig struct {
	Level string
	Dir   string
}

type ObservabilityConfig struct {
	AlloyEndpoint     string
	ServiceName       string
	ServiceNamespace  string
	ServiceVersion    string
	ServiceInstanceID string
}

type ProfilingConfig struct {
	Enabled               bool
	Endpoint              string
	AppName               string
	SampleTypes           string
	UploadIntervalSeconds int
}

type CacheConfig struct {
	PortfolioTTLSeconds int
}

type FormsConfig struct {
	SessionTTLMinutes int
	MaxOpenPerOwner   int
}

// defaults apply when neither the environment nor .env sets a key
var defaults = map[string]any{
	"PORT":                                  "8082",
	"GIN_MODE":                              "release",
	"APP_ENV":                               "production",
	"ALLOWED_CORS_ORIGINS":                  "https://getmentor.dev,https://www.getmentor.dev",
	"LOG_LEVEL":                             "info",
	"LOG_DIR":                               "/app/logs",
	"O11Y_EXPORTER_ENDPOINT":                "alloy:4318", // OTLP over HTTP
	"O11Y_BE_SERVICE_NAME":                  "portfolio-api",
	"O11Y_SERVICE_NAMESPACE":                "getmentor-dev",
	"O11Y_BE_SERVICE_VERSION":               "1.0.0",
	"O11Y_PROFILING_ENABLED":                false,
	"O11Y_PROFILING_APP_NAME":               "portfolio-api",
	"O11Y_PROFILING_SAMPLE_TYPES":           "cpu,alloc_space,alloc_objects,goroutines,mutex,block",
	"O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS": 15,
	"DB_MAX_CONNS":                          20,
	"DB_MIN_CONNS":                          2,
	"DATABASE_CA_CERT_PATH":                 "certs/yandex-ca.crt",
	"S3_REGION":                             "ru-central1",
	"PORTFOLIO_CACHE_TTL":                   600, // seconds
	"FORM_SESSION_TTL_MINUTES":              30,
	"FORM_MAX_OPEN_PER_OWNER":               5,
	"JWT_ISSUER":                            "getmentor-api",
	"COOKIE_DOMAIN":                         "",
	"COOKIE_SECURE":                         true,
}

// Load reads configuration from environment variables, falling back to a .env file
func Load() (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}

	// Automatically read environment variables
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Read from .env file if it exists
	v.SetConfigName(".env")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")
	_ = v.ReadInConfig() //nolint:errcheck // Ignore error if .env file doesn't exist

	cfg := &Config{
		Server: ServerConfig{
			Port:           v.GetString("PORT"),
			GinMode:        v.GetString("GIN_MODE"),
			AppEnv:         v.GetString("APP_ENV"),
			AllowedOrigins: splitList(v.GetString("ALLOWED_CORS_ORIGINS")),
		},
		Database: DatabaseConfig{
			URL:           v.GetString("DATABASE_URL"),
			MaxConns:      v.GetInt32("DB_MAX_CONNS"),
			MinConns:      v.GetInt32("DB_MIN_CONNS"),
			CACertPath:    v.GetString("DATABASE_CA_CERT_PATH"),
			TLSServerName: v.GetString("DATABASE_TLS_SERVER_NAME"),
		},
		Storage: StorageConfig{
			AccessKeyID:     v.GetString("S3_ACCESS_KEY_ID"),
			SecretAccessKey: v.GetString("S3_SECRET_ACCESS_KEY"),
			BucketName:      v.GetString("S3_BUCKET_NAME"),
			Endpoint:        v.GetString("S3_ENDPOINT"),
			Region:          v.GetString("S3_REGION"),
		},
		Session: SessionConfig{
			JWTSecret:    v.GetString("JWT_SECRET"),
			JWTIssuer:    v.GetString("JWT_ISSUER"),
			CookieDomain: v.GetString("COOKIE_DOMAIN"),
			CookieSecure: v.GetBool("COOKIE_SECURE"),
		},
		EventTriggers: EventTriggersConfig{
			PortfolioCreatedTriggerURL: v.GetString("PORTFOLIO_CREATED_TRIGGER_URL"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("LOG_LEVEL"),
			Dir:   v.GetString("LOG_DIR"),
		},
		Observability: ObservabilityConfig{
			AlloyEndpoint:     v.GetString("O11Y_EXPORTER_ENDPOINT"),
			ServiceName:       v.GetString("O11Y_BE_SERVICE_NAME"),
			ServiceNamespace:  v.GetString("O11Y_SERVICE_NAMESPACE"),
			ServiceVersion:    v.GetString("O11Y_BE_SERVICE_VERSION"),
			ServiceInstanceID: v.GetString("SERVICE_INSTANCE_ID"),
		},
		Profiling: ProfilingConfig{
			Enabled:               v.GetBool("O11Y_PROFILING_ENABLED"),
			Endpoint:              v.GetString("O11Y_PROFILING_ENDPOINT"),
			AppName:               v.GetString("O11Y_PROFILING_APP_NAME"),
			SampleTypes:           v.GetString("O11Y_PROFILING_SAMPLE_TYPES"),
			UploadIntervalSeconds: v.GetInt("O11Y_PROFILING_UPLOAD_INTERVAL_SECONDS"),
		},
		Cache: CacheConfig{
			PortfolioTTLSeconds: v.GetInt("PORTFOLIO_CACHE_TTL"),
		},
		Forms: FormsConfig{
			SessionTTLMinutes: v.GetInt("FORM_SESSION_TTL_MINUTES"),
			MaxOpenPerOwner:   v.GetInt("FORM_MAX_OPEN_PER_OWNER"),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// splitList parses a comma-separated list, dropping empty entries
func splitList(raw string) []string {
	items := []string{}
	for _, item := range strings.Split(raw, ",") {
		item = strings.TrimSpace(item)
		if item != "" {
			items = append(items, item)
		}
	}
	return items
}

// Validate checks if required configuration values are set
func (c *Config) Validate() error {
	required := []struct {
		key   string
		value string
	}{
		{"DATABASE_URL", c.Database.URL},
		{"JWT_SECRET", c.Session.JWTSecret},
		{"PORT", c.Server.Port},
		{"S3_BUCKET_NAME", c.Storage.BucketName},
	}
	for _, r := range required {
		if r.value == "" {
			return fmt.Errorf("%s is required", r.key)
		}
	}

	switch {
	case len(c.Server.AllowedOrigins) == 0:
		return fmt.Errorf("ALLOWED_CORS_ORIGINS is required")
	case c.Forms.SessionTTLMinutes <= 0:
		return fmt.Errorf("FORM_SESSION_TTL_MINUTES must be positive")
	case c.Profiling.Enabled && c.Profiling.Endpoint == "":
		return fmt.Errorf("O11Y_PROFILING_ENDPOINT is required when profiling is enabled")
	}
	return nil
}

// IsDevelopment returns true if running in development mode
func (c *Config) IsDevelopment() bool {
	return c.Server.AppEnv == "development" || c.Server.GinMode == "debug"
}

