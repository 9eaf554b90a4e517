package connection

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Pool wraps pgxpool with our configuration
type Pool struct {
	pool   *pgxpool.Pool
	config Config
}

// NewPool creates a new connection pool
func NewPool(ctx context.Context, config Config) (*Pool, error) {
	poolConfig, err := parsePoolConfig(config)
	if err != nil {
		return nil, err
	}
	config.MaxConns = int(poolConfig.MaxConns)

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	// Test connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Pool{
		pool:   pool,
		config: config,
	}, nil
}

func parsePoolConfig(config Config) (*pgxpool.Config, error) {
	poolConfig, err := pgxpool.ParseConfig(config.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection config: %w", err)
	}

	// Configure pool settings
	poolConfig.MaxConns = 5
	if config.MaxConns > 0 {
		poolConfig.MaxConns = int32(config.MaxConns)
	}
	poolConfig.MinConns = 1
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute
	return poolConfig, nil
}

// Close closes the connection pool
func (p *Pool) Close() {
	if p.pool != nil {
		p.pool.Close()
	}
}

// Config returns the configuration the pool was opened with, MaxConns
// holding the effective pool size
func (p *Pool) Config() Config {
	return p.config
}

// GetPool returns the underlying pgxpool.Pool
func (p *Pool) GetPool() *pgxpool.Pool {
	return p.pool
}

// Query executes a query and returns each row keyed by column name
func (p *Pool) Query(ctx context.Context, sql string, args ...any) ([]map[string]any, error) {
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []map[string]any
	fieldDescriptions := rows.FieldDescriptions()

	for rows.Next() {
		values, err := rows.Values()
		if err != nil {
			return nil, err
		}

		row := make(map[string]any)
		for i, fd := range fieldDescriptions {
			row[fd.Name] = values[i]
		}
		results = append(results, row)
	}

	return results, rows.Err()
}
