package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"strings"
	"sync"

	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/civictrack/civictrack-backend/pkg/config"
	"github.com/civictrack/civictrack-backend/pkg/logger"
)

// ErrNotConnected is returned when the client has never opened a connection.
var ErrNotConnected = errors.New("database not connected")

// Opener creates a new GORM connection.
type Opener func(ctx context.Context) (*gorm.DB, error)

// Client owns the process-wide GORM connection. The connection is opened on
// first use, cached, and reopened only after a failed health check.
type Client struct {
	mu   sync.Mutex
	conn *gorm.DB
	open Opener
	logg *logger.Logger
}

// Pinger exposes the health check surface.
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewLazy builds a client that connects on the first call to Conn.
func NewLazy(open Opener, logg *logger.Logger) *Client {
	return &Client{open: open, logg: logg}
}

// New boots a GORM client using the provided configuration and connects eagerly.
func New(ctx context.Context, cfg config.DBConfig, logg *logger.Logger) (*Client, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("database DSN is required")
	}
	client := NewLazy(ConfigOpener(cfg), logg)
	if _, err := client.Conn(ctx); err != nil {
		return nil, err
	}
	return client, nil
}

// ConfigOpener returns an Opener for the configured driver.
func ConfigOpener(cfg config.DBConfig) Opener {
	return func(ctx context.Context) (*gorm.DB, error) {
		var dialector gorm.Dialector
		switch strings.ToLower(strings.TrimSpace(cfg.Driver)) {
		case "", "postgres":
			dialector = postgres.New(postgres.Config{
				DSN:                  cfg.DSN,
				PreferSimpleProtocol: true,
			})
		case "sqlite":
			dialector = sqlite.Open(cfg.DSN)
		default:
			return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
		}

		conn, err := gorm.Open(dialector, gormConfig())
		if err != nil {
			return nil, fmt.Errorf("opening db connection: %w", err)
		}

		sqlDB, err := conn.DB()
		if err != nil {
			return nil, fmt.Errorf("getting sql db handle: %w", err)
		}
		applyPoolSettings(sqlDB, cfg)
		if err := sqlDB.PingContext(ctx); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("ping database: %w", err)
		}
		return conn, nil
	}
}

func gormConfig() *gorm.Config {
	gormLogger := gormlogger.New(
		log.New(io.Discard, "", log.LstdFlags),
		gormlogger.Config{LogLevel: gormlogger.Silent},
	)
	return &gorm.Config{
		Logger:                 gormLogger,
		SkipDefaultTransaction: true,
	}
}

func applyPoolSettings(sqlDB *sql.DB, cfg config.DBConfig) {
	if cfg.MaxOpenConns > 0 {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	if cfg.ConnMaxIdleTime > 0 {
		sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)
	}
}

// Conn returns the cached connection, opening it if needed. A cached
// connection that fails its ping is closed and replaced.
func (c *Client) Conn(ctx context.Context) (*gorm.DB, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.conn != nil {
		pingErr := pingConn(ctx, c.conn)
		if pingErr == nil {
			return c.conn, nil
		}
		if c.logg != nil {
			c.logg.Warn(c.logg.WithField(ctx, "error", pingErr.Error()), "database connection lost, reconnecting")
		}
		if sqlDB, err := c.conn.DB(); err == nil {
			_ = sqlDB.Close()
		}
		c.conn = nil
	}

	if c.open == nil {
		return nil, ErrNotConnected
	}
	conn, err := c.open(ctx)
	if err != nil {
		return nil, err
	}
	c.conn = conn
	if c.logg != nil {
		c.logg.Info(ctx, "database connection established")
	}
	return conn, nil
}

// DB returns the cached GORM connection without a health check.
func (c *Client) DB() *gorm.DB {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.conn
}

// Ping verifies the datasource is reachable, reconnecting when required.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Conn(ctx)
	return err
}

// Close shuts down the pooled connections.
func (c *Client) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return nil
	}
	sqlDB, err := c.conn.DB()
	if err != nil {
		return err
	}
	c.conn = nil
	return sqlDB.Close()
}

// WithTx executes fn inside a transaction, rolling back on error/panic.
func (c *Client) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	conn := c.DB()
	if conn == nil {
		return ErrNotConnected
	}
	return WithTx(ctx, conn, fn)
}

// WithTx executes fn inside a transaction on conn.
func WithTx(ctx context.Context, conn *gorm.DB, fn func(tx *gorm.DB) error) error {
	tx := conn.WithContext(ctx).Begin()
	if tx.Error != nil {
		return tx.Error
	}

	defer func() {
		if r := recover(); r != nil {
			tx.Rollback()
			panic(r)
		}
	}()

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit().Error
}

func pingConn(ctx context.Context, conn *gorm.DB) error {
	sqlDB, err := conn.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
