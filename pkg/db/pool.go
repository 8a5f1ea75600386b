package db

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// DefaultCACertPath is where the managed PostgreSQL CA certificate is mounted
const DefaultCACertPath = "certs/yandex-ca.crt"

// PoolConfig contains database pool configuration parameters
type PoolConfig struct {
	URL        string
	MaxConns   int32
	MinConns   int32
	CACertPath string
	// TLSServerName overrides the host name checked against the server certificate
	TLSServerName string
}

// requiresTLS reports whether the URL asks for an encrypted connection
func requiresTLS(databaseURL string) bool {
	for _, mode := range []string{"sslmode=require", "sslmode=verify-full", "sslmode=verify-ca"} {
		if strings.Contains(databaseURL, mode) {
			return true
		}
	}
	return false
}

// tlsConfig builds the client TLS config. It returns nil for local
// connections without an sslmode.
func tlsConfig(cfg PoolConfig) (*tls.Config, error) {
	if !requiresTLS(cfg.URL) {
		return nil, nil
	}

	certPath := cfg.CACertPath
	if certPath == "" {
		certPath = DefaultCACertPath
	}
	caPEM, err := os.ReadFile(certPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read CA certificate from %s: %w", certPath, err)
	}

	roots := x509.NewCertPool()
	if !roots.AppendCertsFromPEM(caPEM) {
		return nil, fmt.Errorf("failed to append CA certificate to pool")
	}

	return &tls.Config{
		RootCAs:    roots,
		ServerName: cfg.TLSServerName,
		MinVersion: tls.VersionTLS12,
	}, nil
}

// NewPool creates a PostgreSQL connection pool and pings it.
//
// Pool settings:
//   - MaxConns / MinConns from config
//   - HealthCheckPeriod: 30s
//   - MaxConnLifetime: 1h
//   - MaxConnIdleTime: 30m
func NewPool(ctx context.Context, poolCfg PoolConfig) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(poolCfg.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	tlsCfg, err := tlsConfig(poolCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to configure TLS: %w", err)
	}
	if tlsCfg != nil {
		config.ConnConfig.TLSConfig = tlsCfg
	}

	config.MaxConns = poolCfg.MaxConns
	config.MinConns = poolCfg.MinConns
	config.HealthCheckPeriod = 30 * time.Second
	config.MaxConnLifetime = 1 * time.Hour
	config.MaxConnIdleTime = 30 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return pool, nil
}

// Close gracefully closes the connection pool
func Close(pool *pgxpool.Pool) {
	if pool != nil {
		pool.Close()
	}
}
