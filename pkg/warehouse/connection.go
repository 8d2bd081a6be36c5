// Package warehouse owns the single benchmark connection: engine dialects,
// connection setup, timed statement execution and the staging table.
package warehouse

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog"

	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
)

// Config represents connection configuration.
type Config struct {
	Engine          string        `json:"engine"`
	Host            string        `json:"host"`
	Port            int           `json:"port"`
	Database        string        `json:"database"`
	User            string        `json:"user"`
	Password        string        `json:"-"`
	SSLMode         string        `json:"sslmode"`
	ConnectTimeout  time.Duration `json:"connect_timeout"`
	ApplicationName string        `json:"application_name"`
}

// Session is the subset of a connection the benchmark scenarios use.
type Session interface {
	Execer
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	Dialect() Dialect
}

// Connection is one pinned session. Temporary tables live as long as the
// session, so every statement of a run goes through the same *sql.Conn.
type Connection struct {
	db      *sql.DB
	conn    *sql.Conn
	dialect Dialect
	logger  zerolog.Logger
}

// Open connects to the configured engine and verifies the session with a
// round trip. Any failure is returned as a CONNECTION_FAILED error; there
// is no usable handle after a failed Open.
func Open(ctx context.Context, cfg Config, logger zerolog.Logger) (*Connection, error) {
	dialect, err := DialectFor(cfg.Engine)
	if err != nil {
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeInvalidConfig, "unknown engine")
	}
	if cfg.SSLMode == "" {
		cfg.SSLMode = "require"
	}
	if cfg.ConnectTimeout <= 0 {
		cfg.ConnectTimeout = 30 * time.Second
	}

	dsn := dialect.DSN(cfg)
	logger.Debug().
		Str("engine", dialect.Name()).
		Str("dsn", maskDSN(dsn)).
		Msgf("Connect to %s@%s:%s", cfg.User, cfg.Host, cfg.Database)

	db, err := sql.Open(dialect.DriverName(), dsn)
	if err != nil {
		logger.Error().Err(err).Str("engine", dialect.Name()).Msg("Unable to open database")
		return nil, pkgerrors.Wrap(err, pkgerrors.CodeConnectionFailed, "failed to open database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	connCtx, cancel := context.WithTimeout(ctx, cfg.ConnectTimeout)
	defer cancel()

	c, err := NewConnection(connCtx, db, dialect, logger)
	if err != nil {
		db.Close()
		logger.Error().Err(err).Str("engine", dialect.Name()).Msg("Unable to connect")
		return nil, pkgerrors.Wrapf(err, pkgerrors.CodeConnectionFailed, "unable to connect to %s", dialect.Name())
	}

	logger.Debug().Str("engine", dialect.Name()).Msg("Connection established")
	return c, nil
}

// NewConnection pins one session of an already open database and verifies
// it with a round trip. The caller keeps ownership of db on failure.
func NewConnection(ctx context.Context, db *sql.DB, dialect Dialect, logger zerolog.Logger) (*Connection, error) {
	conn, err := db.Conn(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire connection: %w", err)
	}
	if err := validate(ctx, conn); err != nil {
		conn.Close()
		return nil, err
	}
	return &Connection{db: db, conn: conn, dialect: dialect, logger: logger}, nil
}

// validate performs a ping and a trivial query on the session.
func validate(ctx context.Context, conn *sql.Conn) error {
	if err := conn.PingContext(ctx); err != nil {
		return fmt.Errorf("ping failed: %w", err)
	}
	var result int
	if err := conn.QueryRowContext(ctx, "SELECT 1").Scan(&result); err != nil {
		return fmt.Errorf("query test failed: %w", err)
	}
	if result != 1 {
		return fmt.Errorf("query test returned unexpected result: %d", result)
	}
	return nil
}

// Dialect returns the engine dialect of the connection.
func (c *Connection) Dialect() Dialect {
	return c.dialect
}

// ExecContext runs a statement on the pinned session.
func (c *Connection) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return c.conn.ExecContext(ctx, query, args...)
}

// QueryRowContext runs a single-row query on the pinned session.
func (c *Connection) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return c.conn.QueryRowContext(ctx, query, args...)
}

// Close releases the session and the underlying database handle.
func (c *Connection) Close() error {
	connErr := c.conn.Close()
	dbErr := c.db.Close()
	if connErr != nil {
		return connErr
	}
	if dbErr == nil {
		c.logger.Debug().Msg("Connection closed")
	}
	return dbErr
}

// maskDSN hides the password of URL-style connection strings.
func maskDSN(dsn string) string {
	if dsn == "" {
		return ":memory:"
	}
	u, err := url.Parse(dsn)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return dsn
	}
	return u.Redacted()
}
