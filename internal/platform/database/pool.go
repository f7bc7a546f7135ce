// Package database opens the Postgres account registry and applies its schema.
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"syncauth/migrations"
)

const pingTimeout = 5 * time.Second

type Config struct {
	URL             string        `env:"DATABASE_URL"`
	MaxOpenConns    int           `env:"DATABASE_MAX_OPEN_CONNS" envDefault:"25"`
	MaxIdleConns    int           `env:"DATABASE_MAX_IDLE_CONNS" envDefault:"5"`
	ConnMaxLifetime time.Duration `env:"DATABASE_CONN_MAX_LIFETIME" envDefault:"5m"`
}

var errNotConfigured = errors.New("database not configured")

// Pool is the registry's connection pool. A nil *Pool means no database is
// configured; its methods tolerate that.
type Pool struct {
	db *sql.DB
}

// New opens the pgx driver and pings it. An empty URL yields (nil, nil).
func New(ctx context.Context, cfg Config) (*Pool, error) {
	if cfg.URL == "" {
		return nil, nil
	}
	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("open account database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	pingCtx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping account database: %w", err)
	}
	return &Pool{db: db}, nil
}

// Migrate brings the schema up to date from the embedded goose files.
func Migrate(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("goose dialect: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migrate account schema: %w", err)
	}
	return nil
}

func (p *Pool) DB() *sql.DB {
	return p.db
}

// Health is registered as the "database" readiness check.
func (p *Pool) Health(ctx context.Context) error {
	if p == nil {
		return errNotConfigured
	}
	return p.db.PingContext(ctx)
}

// RegisterMetrics exports sql.DBStats for the pool under db_name="accounts".
func (p *Pool) RegisterMetrics(reg prometheus.Registerer) error {
	if p == nil {
		return errNotConfigured
	}
	return reg.Register(collectors.NewDBStatsCollector(p.db, "accounts"))
}

func (p *Pool) Close() error {
	if p == nil {
		return nil
	}
	return p.db.Close()
}
