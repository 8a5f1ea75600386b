package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validConfig() *Config {
	return &Config{
		Server: ServerConfig{
			Port:           "8082",
			AllowedOrigins: []string{"https://getmentor.dev"},
		},
		Database: DatabaseConfig{URL: "postgres://localhost:5432/portfolio"},
		Storage:  StorageConfig{BucketName: "portfolio-images"},
		Session:  SessionConfig{JWTSecret: "secret"},
		Forms:    FormsConfig{SessionTTLMinutes: 30},
	}
}

func TestConfig_IsDevelopment(t *testing.T) {
	tests := []struct {
		name     string
		config   *Config
		expected bool
	}{
		{
			name:     "development environment",
			config:   &Config{Server: ServerConfig{AppEnv: "development"}},
			expected: true,
		},
		{
			name:     "debug gin mode",
			config:   &Config{Server: ServerConfig{GinMode: "debug"}},
			expected: true,
		},
		{
			name:     "release mode",
			config:   &Config{Server: ServerConfig{GinMode: "release", AppEnv: "production"}},
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.config.IsDevelopment())
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(c *Config)
		errorMsg string
	}{
		{
			name:   "valid config",
			mutate: func(c *Config) {},
		},
		{
			name:     "missing database URL",
			mutate:   func(c *Config) { c.Database.URL = "" },
			errorMsg: "DATABASE_URL is required",
		},
		{
			name:     "missing JWT secret",
			mutate:   func(c *Config) { c.Session.JWTSecret = "" },
			errorMsg: "JWT_SECRET is required",
		},
		{
			name:     "missing CORS origins",
			mutate:   func(c *Config) { c.Server.AllowedOrigins = nil },
			errorMsg: "ALLOWED_CORS_ORIGINS is required",
		},
		{
			name:     "missing bucket",
			mutate:   func(c *Config) { c.Storage.BucketName = "" },
			errorMsg: "S3_BUCKET_NAME is required",
		},
		{
			name:     "non-positive form TTL",
			mutate:   func(c *Config) { c.Forms.SessionTTLMinutes = 0 },
			errorMsg: "FORM_SESSION_TTL_MINUTES must be positive",
		},
		{
			name: "profiling without endpoint",
			mutate: func(c *Config) {
				c.Profiling.Enabled = true
			},
			errorMsg: "O11Y_PROFILING_ENDPOINT is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(cfg)
			err := cfg.Validate()
			if tt.errorMsg == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.errorMsg)
		})
	}
}

func TestLoad_WithDefaults(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://localhost:5432/portfolio")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_BUCKET_NAME", "portfolio-images")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8082", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.GinMode)
	assert.Equal(t, []string{"https://getmentor.dev", "https://www.getmentor.dev"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 600, cfg.Cache.PortfolioTTLSeconds)
	assert.Equal(t, 30, cfg.Forms.SessionTTLMinutes)
	assert.Equal(t, 5, cfg.Forms.MaxOpenPerOwner)
	assert.Equal(t, int32(20), cfg.Database.MaxConns)
	assert.True(t, cfg.Session.CookieSecure)
	assert.Equal(t, "ru-central1", cfg.Storage.Region)
}

func TestLoad_WithEnvironmentVariables(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "postgres://db:5432/portfolio")
	t.Setenv("JWT_SECRET", "secret")
	t.Setenv("S3_BUCKET_NAME", "portfolio-images")
	t.Setenv("PORT", "9000")
	t.Setenv("APP_ENV", "development")
	t.Setenv("ALLOWED_CORS_ORIGINS", " https://a.dev, ,https://b.dev ")
	t.Setenv("FORM_SESSION_TTL_MINUTES", "5")
	t.Setenv("PORTFOLIO_CREATED_TRIGGER_URL", "https://fn.example.com/?id=")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Server.Port)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, []string{"https://a.dev", "https://b.dev"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, 5, cfg.Forms.SessionTTLMinutes)
	assert.Equal(t, "https://fn.example.com/?id=", cfg.EventTriggers.PortfolioCreatedTriggerURL)
}

func TestLoad_ValidationFailure(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	assert.Error(t, err)
	assert.Nil(t, cfg)
}
