package main

import (
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/getmentor/portfolio-api/config"
	"github.com/getmentor/portfolio-api/pkg/db"
	"github.com/getmentor/portfolio-api/pkg/logger"
	"go.uber.org/zap"
)

// Usage: migrate [-path file://migrations] [up|down]
func main() {
	path := flag.String("path", "file://migrations", "migrations source URL")
	flag.Parse()

	direction, err := db.ParseDirection(flag.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	err = logger.Initialize(logger.Config{
		Level:       cfg.Logging.Level,
		LogDir:      cfg.Logging.Dir,
		ServiceName: "portfolio-migrate",
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	logger.Info("Starting database migrations",
		zap.String("database", maskDatabaseURL(cfg.Database.URL)),
		zap.String("direction", string(direction)))

	poolCfg := db.PoolConfig{
		URL:           cfg.Database.URL,
		CACertPath:    cfg.Database.CACertPath,
		TLSServerName: cfg.Database.TLSServerName,
	}
	if err := db.Migrate(poolCfg, *path, direction); err != nil {
		logger.Error("Failed to run migrations", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}

	logger.Info("Database migrations completed successfully")
}

// maskDatabaseURL hides the password of a database URL for logging
func maskDatabaseURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return "***"
	}
	return u.Redacted()
}
