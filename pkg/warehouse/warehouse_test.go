package warehouse

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
	"github.com/TFMV/rsbench/pkg/infrastructure/metrics"
)

func openDuckDB(t *testing.T) *Connection {
	t.Helper()
	logger := zerolog.New(zerolog.NewTestWriter(t))
	conn, err := Open(context.Background(), Config{Engine: EngineDuckDB, Database: ":memory:"}, logger)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func TestOpen_DuckDB(t *testing.T) {
	conn := openDuckDB(t)
	assert.Equal(t, EngineDuckDB, conn.Dialect().Name())
}

func TestNewConnection_PinsSession(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open(DuckDB{}.DriverName(), "")
	require.NoError(t, err)

	conn, err := NewConnection(ctx, db, DuckDB{}, zerolog.New(zerolog.NewTestWriter(t)))
	require.NoError(t, err)
	defer conn.Close()

	// Temp tables are only visible on the pinned session.
	_, err = conn.ExecContext(ctx, "CREATE TEMP TABLE pinned (v integer)")
	require.NoError(t, err)
	_, err = conn.ExecContext(ctx, "INSERT INTO pinned VALUES (1), (2)")
	require.NoError(t, err)

	n, err := CountRows(ctx, conn, "pinned")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestNewConnection_ClosedDatabase(t *testing.T) {
	db, err := sql.Open(DuckDB{}.DriverName(), "")
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, err = NewConnection(context.Background(), db, DuckDB{}, zerolog.Nop())
	require.Error(t, err)
}

func TestOpen_UnknownEngine(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	_, err := Open(context.Background(), Config{Engine: "oracle"}, logger)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsInvalidConfig(err))
}

func TestOpen_ConnectionFailure(t *testing.T) {
	logger := zerolog.New(zerolog.NewTestWriter(t))
	_, err := Open(context.Background(), Config{
		Engine:         EngineRedshift,
		Host:           "127.0.0.1",
		Port:           1,
		Database:       "dev",
		User:           "nobody",
		Password:       "secret",
		SSLMode:        "disable",
		ConnectTimeout: 2 * time.Second,
	}, logger)
	require.Error(t, err)
	assert.True(t, pkgerrors.IsConnectionFailed(err))
}

func TestInitTable_SchemaAndEmpty(t *testing.T) {
	ctx := context.Background()
	conn := openDuckDB(t)
	exec := NewExecutor(conn, zerolog.Nop(), nil, "init")

	// First init drops a table that does not exist yet.
	_, err := InitTable(ctx, exec, conn.Dialect(), TableName)
	require.NoError(t, err)

	rows, err := conn.conn.QueryContext(ctx,
		"SELECT name FROM pragma_table_info('_rs_benchmarking') ORDER BY cid")
	require.NoError(t, err)
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		require.NoError(t, rows.Scan(&name))
		names = append(names, name)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []string{"id", "my_integer", "my_smallint", "my_decimal", "my_timestamp", "my_varchar"}, names)

	n, err := CountRows(ctx, conn, TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)
}

func TestInitTable_RecreatesEmptyTable(t *testing.T) {
	ctx := context.Background()
	conn := openDuckDB(t)
	exec := NewExecutor(conn, zerolog.Nop(), nil, "init")

	_, err := InitTable(ctx, exec, conn.Dialect(), TableName)
	require.NoError(t, err)
	_, err = exec.Exec(ctx, `INSERT INTO "_rs_benchmarking" (my_integer) VALUES (1), (2)`)
	require.NoError(t, err)

	_, err = InitTable(ctx, exec, conn.Dialect(), TableName)
	require.NoError(t, err)

	n, err := CountRows(ctx, conn, TableName)
	require.NoError(t, err)
	assert.Equal(t, int64(0), n)

	// The identity restarts at zero for the fresh table.
	_, err = exec.Exec(ctx, `INSERT INTO "_rs_benchmarking" (my_integer) VALUES (7)`)
	require.NoError(t, err)
	var id int64
	require.NoError(t, conn.QueryRowContext(ctx, `SELECT id FROM "_rs_benchmarking"`).Scan(&id))
	assert.Equal(t, int64(0), id)
}

type fakeExecer struct {
	queries []string
	args    [][]any
	err     error
}

func (f *fakeExecer) ExecContext(_ context.Context, query string, args ...any) (sql.Result, error) {
	f.queries = append(f.queries, query)
	f.args = append(f.args, args)
	if f.err != nil {
		return nil, f.err
	}
	return driverResult{}, nil
}

type driverResult struct{}

func (driverResult) LastInsertId() (int64, error) { return 0, nil }
func (driverResult) RowsAffected() (int64, error) { return 1, nil }

func TestExecutor_CountsAndTimes(t *testing.T) {
	fake := &fakeExecer{}
	collector := metrics.NewPrometheusCollector()
	exec := NewExecutor(fake, zerolog.Nop(), collector, "classic")

	for i := 0; i < 3; i++ {
		_, err := exec.Exec(context.Background(), "INSERT INTO t VALUES ($1)", i)
		require.NoError(t, err)
	}

	assert.Equal(t, 3, exec.Statements())
	assert.GreaterOrEqual(t, exec.Elapsed(), time.Duration(0))
	assert.Len(t, fake.queries, 3)
	assert.Equal(t, []any{2}, fake.args[2])
}

func TestExecutor_WrapsErrors(t *testing.T) {
	cause := errors.New("syntax error")
	exec := NewExecutor(&fakeExecer{err: cause}, zerolog.Nop(), nil, "bulk")

	_, err := exec.Exec(context.Background(), "INSERT garbage")
	require.Error(t, err)
	assert.True(t, errors.Is(err, pkgerrors.ErrStatementFailed))
	assert.True(t, errors.Is(err, cause))
	assert.Equal(t, 0, exec.Statements())
}

func TestInitTable_PropagatesOtherDropErrors(t *testing.T) {
	exec := NewExecutor(&fakeExecer{err: errors.New("permission denied")}, zerolog.Nop(), nil, "init")
	_, err := InitTable(context.Background(), exec, Redshift{}, TableName)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "permission denied")
}

func TestTruncateQuery(t *testing.T) {
	short := "SELECT 1"
	assert.Equal(t, short, truncateQuery(short))

	long := make([]byte, 150)
	for i := range long {
		long[i] = 'x'
	}
	got := truncateQuery(string(long))
	assert.Len(t, got, 103)
}
