package warehouse

import (
	"context"
	"fmt"
	"time"

	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
)

// TableName is the staging table every scenario loads into.
const TableName = "_rs_benchmarking"

// InitTable drops and recreates the staging table so a scenario starts
// from an empty relation. A drop of a table that does not exist is
// expected and ignored. It returns the SQL time spent.
func InitTable(ctx context.Context, exec *Executor, dialect Dialect, table string) (time.Duration, error) {
	var total time.Duration

	for _, stmt := range dialect.DropTableSQL(table) {
		d, err := exec.Exec(ctx, stmt)
		if err != nil {
			if !dialect.IsUndefinedTable(err) {
				return total, err
			}
			exec.logger.Debug().Err(err).Msg("Drop of missing object ignored")
			continue
		}
		total += d
	}

	for _, stmt := range dialect.CreateTableSQL(table) {
		d, err := exec.Exec(ctx, stmt)
		if err != nil {
			return total, err
		}
		total += d
	}

	exec.logger.Info().
		Str("table", table).
		Msgf("Create table executed in %.4f seconds", total.Seconds())
	return total, nil
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, conn Session, table string) (int64, error) {
	var n int64
	query := fmt.Sprintf("SELECT count(*) FROM %s", conn.Dialect().QuoteIdentifier(table))
	if err := conn.QueryRowContext(ctx, query).Scan(&n); err != nil {
		return 0, pkgerrors.Wrapf(err, pkgerrors.CodeStatementFailed, "failed to count rows of %s", table)
	}
	return n, nil
}
