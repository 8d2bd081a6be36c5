package warehouse

import (
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
	"github.com/marcboeker/go-duckdb/v2"
)

// Supported engines.
const (
	EngineRedshift = "redshift"
	EngineDuckDB   = "duckdb"
)

// literalTimeLayout is the layout used for timestamps rendered into SQL text.
const literalTimeLayout = "2006-01-02 15:04:05.000000"

// Dialect captures the SQL differences between the engines rsbench can
// load into.
type Dialect interface {
	// Name returns the engine name.
	Name() string
	// DriverName returns the database/sql driver name.
	DriverName() string
	// DSN builds the connection string for cfg.
	DSN(cfg Config) string
	// QuoteIdentifier quotes a table or column name.
	QuoteIdentifier(name string) string
	// QuoteLiteral renders a Go value as a SQL literal.
	QuoteLiteral(v any) (string, error)
	// Placeholder returns the bind parameter marker for the i-th (1-based) argument.
	Placeholder(i int) string
	// DropTableSQL returns the statements removing the staging table.
	DropTableSQL(table string) []string
	// CreateTableSQL returns the statements creating the staging table.
	CreateTableSQL(table string) []string
	// CopySQL returns the bulk-load statement ingesting source into table.
	CopySQL(table string, columns []string, source, role string) (string, error)
	// IsUndefinedTable reports whether err means the object does not exist.
	IsUndefinedTable(err error) bool
}

// DialectFor returns the dialect for engine.
func DialectFor(engine string) (Dialect, error) {
	switch strings.ToLower(engine) {
	case EngineRedshift, "":
		return Redshift{}, nil
	case EngineDuckDB:
		return DuckDB{}, nil
	default:
		return nil, fmt.Errorf("unsupported engine: %s", engine)
	}
}

// columnDefinitions is the typed part of the staging table shared by all engines.
const columnDefinitions = `my_integer integer,
	my_smallint smallint,
	my_decimal decimal(8,2),
	my_timestamp timestamp,
	my_varchar varchar(100)`

// Redshift talks to Amazon Redshift through the pgx stdlib driver.
type Redshift struct{}

// Name implements Dialect.
func (Redshift) Name() string { return EngineRedshift }

// DriverName implements Dialect.
func (Redshift) DriverName() string { return "pgx" }

// DSN implements Dialect.
func (Redshift) DSN(cfg Config) string {
	q := url.Values{}
	q.Set("sslmode", cfg.SSLMode)
	if cfg.ConnectTimeout > 0 {
		q.Set("connect_timeout", strconv.Itoa(int(cfg.ConnectTimeout/time.Second)))
	}
	if cfg.ApplicationName != "" {
		q.Set("application_name", cfg.ApplicationName)
	}
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(cfg.User, cfg.Password),
		Host:     fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Path:     "/" + cfg.Database,
		RawQuery: q.Encode(),
	}
	return u.String()
}

// QuoteIdentifier implements Dialect.
func (Redshift) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

// QuoteLiteral implements Dialect. Redshift runs without
// standard_conforming_strings, so backslashes are doubled instead of using
// E'' escape strings.
func (Redshift) QuoteLiteral(v any) (string, error) {
	return renderLiteral(v, func(s string) string {
		s = strings.ReplaceAll(s, `\`, `\\`)
		return "'" + strings.ReplaceAll(s, "'", "''") + "'"
	})
}

// Placeholder implements Dialect.
func (Redshift) Placeholder(i int) string { return "$" + strconv.Itoa(i) }

// DropTableSQL implements Dialect.
func (d Redshift) DropTableSQL(table string) []string {
	return []string{"DROP TABLE " + d.QuoteIdentifier(table)}
}

// CreateTableSQL implements Dialect.
func (d Redshift) CreateTableSQL(table string) []string {
	return []string{fmt.Sprintf(`CREATE TEMP TABLE %s (
	id bigint identity(0, 1) PRIMARY KEY,
	%s
)`, d.QuoteIdentifier(table), columnDefinitions)}
}

// CopySQL implements Dialect.
func (d Redshift) CopySQL(table string, columns []string, source, role string) (string, error) {
	if source == "" || role == "" {
		return "", errors.New("copy requires a source and an IAM role")
	}
	src, _ := d.QuoteLiteral(source)
	iam, _ := d.QuoteLiteral(role)
	return fmt.Sprintf(`COPY %s (%s)
FROM %s
IAM_ROLE %s
FORMAT AS CSV
TIMEFORMAT 'YYYY-MM-DD HH:MI:SS'
DELIMITER ';'
IGNOREHEADER AS 1`, d.QuoteIdentifier(table), quoteColumns(d, columns), src, iam), nil
}

// IsUndefinedTable implements Dialect.
func (Redshift) IsUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "42P01"
	}
	return false
}

// DuckDB loads into a local DuckDB database. It runs every scenario,
// including copy from a local CSV file, without warehouse credentials.
type DuckDB struct{}

// Name implements Dialect.
func (DuckDB) Name() string { return EngineDuckDB }

// DriverName implements Dialect.
func (DuckDB) DriverName() string { return "duckdb" }

// DSN implements Dialect. The database name is used as the file path; an
// empty name or ":memory:" opens an in-memory database.
func (DuckDB) DSN(cfg Config) string {
	if cfg.Database == ":memory:" {
		return ""
	}
	return cfg.Database
}

// QuoteIdentifier implements Dialect.
func (DuckDB) QuoteIdentifier(name string) string { return pq.QuoteIdentifier(name) }

// QuoteLiteral implements Dialect.
func (DuckDB) QuoteLiteral(v any) (string, error) {
	return renderLiteral(v, pq.QuoteLiteral)
}

// Placeholder implements Dialect.
func (DuckDB) Placeholder(i int) string { return "$" + strconv.Itoa(i) }

// DropTableSQL implements Dialect.
func (d DuckDB) DropTableSQL(table string) []string {
	return []string{
		"DROP TABLE " + d.QuoteIdentifier(table),
		"DROP SEQUENCE " + d.QuoteIdentifier(table+"_id_seq"),
	}
}

// CreateTableSQL implements Dialect. DuckDB has no identity columns, so
// the id is drawn from a temporary sequence starting at 0.
func (d DuckDB) CreateTableSQL(table string) []string {
	seq := d.QuoteIdentifier(table + "_id_seq")
	seqLit, _ := d.QuoteLiteral(table + "_id_seq")
	return []string{
		fmt.Sprintf("CREATE TEMP SEQUENCE %s MINVALUE 0 START 0", seq),
		fmt.Sprintf(`CREATE TEMP TABLE %s (
	id bigint PRIMARY KEY DEFAULT nextval(%s),
	%s
)`, d.QuoteIdentifier(table), seqLit, columnDefinitions),
	}
}

// CopySQL implements Dialect. The role is ignored.
func (d DuckDB) CopySQL(table string, columns []string, source, _ string) (string, error) {
	if source == "" {
		return "", errors.New("copy requires a source")
	}
	src, _ := d.QuoteLiteral(source)
	return fmt.Sprintf(
		"COPY %s (%s) FROM %s (FORMAT CSV, DELIMITER ';', HEADER, TIMESTAMPFORMAT '%%Y-%%m-%%d %%H:%%M:%%S')",
		d.QuoteIdentifier(table), quoteColumns(d, columns), src,
	), nil
}

// IsUndefinedTable implements Dialect.
func (DuckDB) IsUndefinedTable(err error) bool {
	var duckErr *duckdb.Error
	if errors.As(err, &duckErr) {
		return duckErr.Type == duckdb.ErrorTypeCatalog
	}
	return err != nil && strings.Contains(err.Error(), "does not exist")
}

func quoteColumns(d Dialect, columns []string) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = d.QuoteIdentifier(c)
	}
	return strings.Join(quoted, ", ")
}

// renderLiteral formats v as SQL text. Strings and timestamps go through
// quote; numbers are written unquoted.
func renderLiteral(v any, quote func(string) string) (string, error) {
	switch x := v.(type) {
	case nil:
		return "NULL", nil
	case string:
		return quote(x), nil
	case []byte:
		return quote(string(x)), nil
	case time.Time:
		return quote(x.Format(literalTimeLayout)), nil
	case bool:
		if x {
			return "TRUE", nil
		}
		return "FALSE", nil
	case int:
		return strconv.Itoa(x), nil
	case int16:
		return strconv.FormatInt(int64(x), 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	default:
		return "", fmt.Errorf("unsupported literal type %T", v)
	}
}
