// Package database owns the process-wide relational store handle.
//
// The dialect is chosen from the connection URL: postgres:// and postgresql://
// go through pgx's database/sql driver; sqlite: URLs open an embedded,
// cgo-free SQLite database (sqlite::memory: for a throwaway store).
package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"

	"github.com/ghuser/itemsapi/pkg/config"
	"github.com/ghuser/itemsapi/pkg/logger"
)

// Dialect names the SQL flavour behind a Database.
type Dialect string

const (
	DialectPostgres Dialect = "postgres"
	DialectSQLite   Dialect = "sqlite"
)

// ErrAcquireTimeout is returned when no pooled connection frees up within
// the acquire timeout.
var ErrAcquireTimeout = errors.New("database: timed out acquiring connection")

// Options configures Open. Zero durations fall back to the defaults below.
type Options struct {
	URL            string
	MaxConns       int
	IdleTimeout    time.Duration
	ConnectTimeout time.Duration
	AcquireTimeout time.Duration
}

// OptionsFromConfig maps the DB_* settings onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		URL:            cfg.DatabaseURL,
		MaxConns:       cfg.DBMaxConns,
		IdleTimeout:    cfg.DBIdleTimeout,
		ConnectTimeout: cfg.DBConnectTimeout,
		AcquireTimeout: cfg.DBAcquireTimeout,
	}
}

func (o *Options) applyDefaults() {
	if o.MaxConns <= 0 {
		o.MaxConns = 20
	}
	if o.IdleTimeout <= 0 {
		o.IdleTimeout = 30 * time.Second
	}
	if o.ConnectTimeout <= 0 {
		o.ConnectTimeout = 2 * time.Second
	}
	if o.AcquireTimeout <= 0 {
		o.AcquireTimeout = 2 * time.Second
	}
}

// Database wraps a bounded *sql.DB pool.
type Database struct {
	db             *sql.DB
	dialect        Dialect
	acquireTimeout time.Duration
	log            logger.Logger
}

// Open creates the pool and verifies connectivity within ConnectTimeout.
func Open(ctx context.Context, opts Options, log logger.Logger) (*Database, error) {
	opts.applyDefaults()
	if strings.TrimSpace(opts.URL) == "" {
		return nil, errors.New("database: URL is required")
	}

	var (
		db      *sql.DB
		dialect Dialect
		err     error
	)
	if IsSQLiteURL(opts.URL) {
		dialect = DialectSQLite
		db, err = openSQLite(opts)
	} else {
		dialect = DialectPostgres
		db, err = openPostgres(opts)
	}
	if err != nil {
		return nil, err
	}

	pingCtx, cancel := context.WithTimeout(ctx, opts.ConnectTimeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("database: ping %s: %w", dialect, err)
	}

	log.Info("database pool ready",
		"dialect", dialect,
		"max_conns", opts.MaxConns,
		"idle_timeout", opts.IdleTimeout,
		"acquire_timeout", opts.AcquireTimeout,
	)

	return &Database{
		db:             db,
		dialect:        dialect,
		acquireTimeout: opts.AcquireTimeout,
		log:            log,
	}, nil
}

func openPostgres(opts Options) (*sql.DB, error) {
	pcfg, err := pgx.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("database: parse url: %w", err)
	}
	pcfg.ConnectTimeout = opts.ConnectTimeout

	db := stdlib.OpenDB(*pcfg)
	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)
	db.SetConnMaxIdleTime(opts.IdleTimeout)
	return db, nil
}

// sqlitePragmas are applied on every new connection.
var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"synchronous(NORMAL)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

func openSQLite(opts Options) (*sql.DB, error) {
	path := SQLitePath(opts.URL)
	memory := path == ":memory:"

	q := url.Values{}
	for _, p := range sqlitePragmas {
		if memory && strings.HasPrefix(p, "journal_mode") {
			continue
		}
		q.Add("_pragma", p)
	}

	db, err := sql.Open("sqlite", path+"?"+q.Encode())
	if err != nil {
		return nil, fmt.Errorf("database: open sqlite: %w", err)
	}

	if memory {
		// Every connection to :memory: is a separate database, so the pool
		// is pinned to one connection that is never recycled.
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxIdleTime(0)
		db.SetConnMaxLifetime(0)
		return db, nil
	}

	db.SetMaxOpenConns(opts.MaxConns)
	db.SetMaxIdleConns(opts.MaxConns)
	db.SetConnMaxIdleTime(opts.IdleTimeout)
	return db, nil
}

// IsSQLiteURL reports whether u selects the embedded store.
func IsSQLiteURL(u string) bool {
	return strings.HasPrefix(u, "sqlite:")
}

// SQLitePath extracts the file path from sqlite:<path>, sqlite://<path> or
// sqlite::memory:.
func SQLitePath(u string) string {
	p := strings.TrimPrefix(u, "sqlite:")
	p = strings.TrimPrefix(p, "//")
	if p == "" {
		return ":memory:"
	}
	return p
}

// DB returns the underlying pool for sqlc queries that need no pinned connection.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Dialect reports which SQL flavour the pool speaks.
func (d *Database) Dialect() Dialect {
	return d.dialect
}

// WithConn checks a connection out of the pool, waiting at most the acquire
// timeout, and hands it to fn. The wait is bounded separately from ctx so a
// slow pool fails fast even when ctx has no deadline.
func (d *Database) WithConn(ctx context.Context, fn func(*sql.Conn) error) error {
	acquireCtx, cancel := context.WithTimeout(ctx, d.acquireTimeout)
	conn, err := d.db.Conn(acquireCtx)
	cancel()
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) && ctx.Err() == nil {
			return fmt.Errorf("%w after %s", ErrAcquireTimeout, d.acquireTimeout)
		}
		return fmt.Errorf("database: acquire connection: %w", err)
	}
	defer conn.Close() //nolint:errcheck

	return fn(conn)
}

// WithTx runs fn inside a transaction on a freshly acquired connection.
// fn's error rolls the transaction back; otherwise it is committed.
func (d *Database) WithTx(ctx context.Context, fn func(*sql.Tx) error) error {
	return d.WithConn(ctx, func(conn *sql.Conn) error {
		tx, err := conn.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("database: begin tx: %w", err)
		}
		if err := fn(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
				d.log.ErrorContext(ctx, "database: rollback failed", "error", rbErr)
			}
			return err
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("database: commit: %w", err)
		}
		return nil
	})
}

// Ping checks connectivity through the pool.
func (d *Database) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

// PoolStats is the readiness view of sql.DBStats.
type PoolStats struct {
	Dialect         Dialect `json:"dialect"`
	MaxOpen         int     `json:"max_open"`
	Open            int     `json:"open"`
	InUse           int     `json:"in_use"`
	Idle            int     `json:"idle"`
	WaitCount       int64   `json:"wait_count"`
	WaitDurationMs  int64   `json:"wait_duration_ms"`
	MaxIdleTimeDrop int64   `json:"max_idle_time_closed"`
}

// Stats snapshots the pool counters.
func (d *Database) Stats() PoolStats {
	s := d.db.Stats()
	return PoolStats{
		Dialect:         d.dialect,
		MaxOpen:         s.MaxOpenConnections,
		Open:            s.OpenConnections,
		InUse:           s.InUse,
		Idle:            s.Idle,
		WaitCount:       s.WaitCount,
		WaitDurationMs:  s.WaitDuration.Milliseconds(),
		MaxIdleTimeDrop: s.MaxIdleTimeClosed,
	}
}

// Close releases every pooled connection.
func (d *Database) Close() error {
	return d.db.Close()
}
