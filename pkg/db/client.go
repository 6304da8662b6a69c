// Package db owns the gorm connection: opening it for postgres or sqlite,
// transactions, health pings and constraint error matching.
package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/angelmondragon/shopfront-backend/pkg/config"
	"github.com/angelmondragon/shopfront-backend/pkg/logger"
)

type Client struct {
	conn *gorm.DB
}

// Pinger is what readiness checks need from a datastore.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Open connects to sqlite when the feature flag is set and to postgres
// otherwise, then verifies the connection with a ping.
func Open(ctx context.Context, cfg *config.Config, logg *logger.Logger) (*Client, error) {
	queries := newQueryLogger(logg, cfg.DB.SlowQuery)
	if cfg.FeatureFlags.UseSQLite {
		return openSQLite(ctx, cfg.DB.SQLitePath, queries, logg)
	}
	return openPostgres(ctx, cfg.DB, queries, logg)
}

func openPostgres(ctx context.Context, cfg config.DBConfig, queries *queryLogger, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	dialector := postgres.New(postgres.Config{DSN: cfg.DSN, PreferSimpleProtocol: true})
	return connect(ctx, dialector, queries, logg, func(pool *sql.DB) {
		if cfg.MaxOpenConns > 0 {
			pool.SetMaxOpenConns(cfg.MaxOpenConns)
		}
		if cfg.MaxIdleConns > 0 {
			pool.SetMaxIdleConns(cfg.MaxIdleConns)
		}
		pool.SetConnMaxLifetime(cfg.ConnMaxLifetime)
		pool.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	})
}

func openSQLite(ctx context.Context, path string, queries *queryLogger, logg *logger.Logger) (*Client, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := path
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on"
	}
	if logg != nil {
		ctx = logg.WithField(ctx, "path", path)
	}
	return connect(ctx, sqlite.Open(dsn), queries, logg, func(pool *sql.DB) {
		// sqlite allows one writer; a single connection avoids SQLITE_BUSY
		pool.SetMaxOpenConns(1)
	})
}

func connect(ctx context.Context, dialector gorm.Dialector, queries *queryLogger, logg *logger.Logger, tune func(*sql.DB)) (*Client, error) {
	conn, err := gorm.Open(dialector, &gorm.Config{Logger: queries, SkipDefaultTransaction: true})
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialector.Name(), err)
	}
	pool, err := conn.DB()
	if err != nil {
		return nil, fmt.Errorf("%s pool: %w", dialector.Name(), err)
	}
	tune(pool)
	if err := pool.PingContext(ctx); err != nil {
		_ = pool.Close()
		return nil, fmt.Errorf("ping %s: %w", dialector.Name(), err)
	}
	if logg != nil {
		logg.Info(logg.WithField(ctx, "dialect", dialector.Name()), "database connected")
	}
	return &Client{conn: conn}, nil
}

// Wrap adopts an already open connection.
func Wrap(conn *gorm.DB) *Client {
	return &Client{conn: conn}
}

func (c *Client) DB() *gorm.DB {
	return c.conn
}

// Dialect is "postgres" or "sqlite".
func (c *Client) Dialect() string {
	return c.conn.Dialector.Name()
}

func (c *Client) AutoMigrate(models ...any) error {
	return c.conn.AutoMigrate(models...)
}

func (c *Client) Ping(ctx context.Context) error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.PingContext(ctx)
}

func (c *Client) Close() error {
	pool, err := c.conn.DB()
	if err != nil {
		return err
	}
	return pool.Close()
}

// WithTx runs fn in a transaction. An error or panic from fn rolls back;
// the panic is re-raised afterwards.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) (err error) {
	tx := c.conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}
	committed := false
	defer func() {
		if !committed {
			tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit().Error; err != nil {
		return err
	}
	committed = true
	return nil
}
