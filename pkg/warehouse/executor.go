package warehouse

import (
	"context"
	"database/sql"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
	"github.com/TFMV/rsbench/pkg/infrastructure/metrics"
)

// Execer runs a single statement. *Connection and *sql.Conn satisfy it.
type Execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

// Executor times every statement it runs and keeps per-scenario totals.
// Statements run in autocommit mode; no transaction is opened.
type Executor struct {
	conn      Execer
	logger    zerolog.Logger
	metrics   metrics.Collector
	scenario  string
	threshold time.Duration

	statements int
	elapsed    time.Duration
}

// NewExecutor creates an executor labelled with scenario. A nil collector
// disables metrics.
func NewExecutor(conn Execer, logger zerolog.Logger, collector metrics.Collector, scenario string) *Executor {
	if collector == nil {
		collector = metrics.NewNoOpCollector()
	}
	return &Executor{
		conn:      conn,
		logger:    logger,
		metrics:   collector,
		scenario:  scenario,
		threshold: 5 * time.Second,
	}
}

// Exec runs query and returns the time spent in the call. Errors are
// wrapped as STATEMENT_FAILED and are not counted towards the totals.
func (e *Executor) Exec(ctx context.Context, query string, args ...any) (time.Duration, error) {
	start := time.Now()
	_, err := e.conn.ExecContext(ctx, query, args...)
	duration := time.Since(start)

	e.logQuery(query, duration, err)
	if err != nil {
		return duration, pkgerrors.Wrap(err, pkgerrors.CodeStatementFailed, "statement execution failed").
			WithDetail("scenario", e.scenario)
	}

	e.statements++
	e.elapsed += duration
	e.metrics.IncrementCounter(metrics.StatementsTotal, "scenario", e.scenario)
	e.metrics.RecordHistogram(metrics.StatementDuration, duration.Seconds(), "scenario", e.scenario)
	return duration, nil
}

// Statements returns the number of statements executed successfully.
func (e *Executor) Statements() int {
	return e.statements
}

// Elapsed returns the summed duration of successful statements.
func (e *Executor) Elapsed() time.Duration {
	return e.elapsed
}

func (e *Executor) logQuery(query string, duration time.Duration, err error) {
	logEvent := e.logger.Debug()
	if err != nil {
		logEvent = logEvent.Err(err)
	} else if duration > e.threshold {
		logEvent = e.logger.Warn().Bool("slow_query", true)
	}

	logEvent.
		Str("scenario", e.scenario).
		Dur("duration", duration).
		Str("query", truncateQuery(query)).
		Bool("success", err == nil).
		Msg("Statement executed")
}

func truncateQuery(query string) string {
	const maxLen = 100
	if len(query) <= maxLen {
		return query
	}
	return query[:maxLen] + "..."
}
