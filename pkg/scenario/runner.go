package scenario

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
	"github.com/TFMV/rsbench/pkg/batch"
	"github.com/TFMV/rsbench/pkg/generator"
	"github.com/TFMV/rsbench/pkg/infrastructure/metrics"
	"github.com/TFMV/rsbench/pkg/staging"
	"github.com/TFMV/rsbench/pkg/warehouse"
)

// Options configures a Runner.
type Options struct {
	// Table is the staging table; defaults to warehouse.TableName.
	Table string
	// ChunkSize bounds tuples per bulk statement; defaults to batch.DefaultChunkSize.
	ChunkSize int
	// Stager places the copy scenario's CSV file.
	Stager staging.Stager
	// CopyRole authorizes the warehouse to read the staged file.
	CopyRole string
	// Verify counts the table rows after every scenario.
	Verify bool
	// OnResult is called after each scenario completes.
	OnResult func(Result)
	// Now supplies the staging file timestamp; defaults to time.Now.
	Now func() time.Time
}

// Runner executes scenarios sequentially on one session.
type Runner struct {
	session   warehouse.Session
	generator *generator.Generator
	logger    zerolog.Logger
	metrics   metrics.Collector
	opts      Options
}

// NewRunner creates a runner. A nil collector disables metrics.
func NewRunner(session warehouse.Session, gen *generator.Generator, logger zerolog.Logger, collector metrics.Collector, opts Options) *Runner {
	if collector == nil {
		collector = metrics.NewNoOpCollector()
	}
	if opts.Table == "" {
		opts.Table = warehouse.TableName
	}
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = batch.DefaultChunkSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Runner{
		session:   session,
		generator: gen,
		logger:    logger,
		metrics:   collector,
		opts:      opts,
	}
}

// Run executes names in the given order with records rows each. It stops
// at the first failing scenario and returns the results completed so far.
func (r *Runner) Run(ctx context.Context, names []Name, records int) ([]Result, error) {
	results := make([]Result, 0, len(names))
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return results, pkgerrors.Wrap(err, pkgerrors.CodeCanceled, "benchmark interrupted")
		}

		res, err := r.RunOne(ctx, name, records)
		if err != nil {
			return results, fmt.Errorf("%s scenario: %w", name, err)
		}
		results = append(results, res)
		if r.opts.OnResult != nil {
			r.opts.OnResult(res)
		}
	}
	return results, nil
}

// RunOne executes a single scenario.
func (r *Runner) RunOne(ctx context.Context, name Name, records int) (Result, error) {
	var (
		res Result
		err error
	)
	switch name {
	case Classic:
		res, err = r.Classic(ctx, records)
	case Bulk:
		res, err = r.Bulk(ctx, records)
	case Copy:
		res, err = r.Copy(ctx, records)
	default:
		return Result{}, pkgerrors.New(pkgerrors.CodeInvalidConfig, fmt.Sprintf("unknown scenario %q", name))
	}
	if err != nil {
		return res, err
	}

	if r.opts.Verify {
		n, err := warehouse.CountRows(ctx, r.session, r.opts.Table)
		if err != nil {
			return res, err
		}
		res.TableRows = &n
		if n != int64(res.Records) {
			r.logger.Warn().
				Str("scenario", string(name)).
				Int64("table_rows", n).
				Int("records", res.Records).
				Msg("Row count mismatch after load")
		}
	}

	r.record(res)
	return res, nil
}

// Classic inserts one row per parameterized statement. Requests above
// MaxClassicRecords are clamped with a warning.
func (r *Runner) Classic(ctx context.Context, records int) (Result, error) {
	res := Result{Scenario: Classic, Requested: records, Records: records}
	if records > MaxClassicRecords {
		r.logger.Warn().
			Int("requested", records).
			Int("max", MaxClassicRecords).
			Msgf("For classic inserts, max nbr of records is %d, using that then.", MaxClassicRecords)
		res.Records = MaxClassicRecords
		res.Clamped = true
	}

	initTime, err := r.initTable(ctx)
	if err != nil {
		return res, err
	}
	res.TableInit = initTime

	dialect := r.session.Dialect()
	query := r.insertStatement(dialect)
	exec := r.executor(Classic)
	r.logger.Debug().Msgf("Classic insert %d records", res.Records)

	start := time.Now()
	for row := range r.generator.Rows(res.Records) {
		if _, err := exec.Exec(ctx, query, row.Values()...); err != nil {
			return res, err
		}
	}
	res.Wall = time.Since(start)
	res.SQL = exec.Elapsed()
	res.Statements = exec.Statements()
	return res, nil
}

// Bulk inlines rows into multi-row INSERT statements of at most
// ChunkSize tuples each.
func (r *Runner) Bulk(ctx context.Context, records int) (Result, error) {
	res := Result{Scenario: Bulk, Requested: records, Records: records}

	initTime, err := r.initTable(ctx)
	if err != nil {
		return res, err
	}
	res.TableInit = initTime

	dialect := r.session.Dialect()
	writer := &batch.Writer[generator.Row]{
		Table:           r.opts.Table,
		Columns:         generator.Columns,
		ChunkSize:       r.opts.ChunkSize,
		Encode:          generator.Row.Values,
		Quote:           dialect.QuoteLiteral,
		QuoteIdentifier: dialect.QuoteIdentifier,
	}
	exec := r.executor(Bulk)
	r.logger.Debug().Msgf("Insert %d records with bulk insert", records)

	start := time.Now()
	stats, err := writer.Write(ctx, exec, r.generator.Rows(records))
	if err != nil {
		return res, err
	}
	res.Wall = time.Since(start)
	res.SQL = stats.SQLTime
	res.Statements = stats.Statements
	return res, nil
}

// Copy writes the rows to a CSV file, stages it and ingests it with one
// bulk-load statement.
func (r *Runner) Copy(ctx context.Context, records int) (Result, error) {
	res := Result{Scenario: Copy, Requested: records, Records: records}
	if r.opts.Stager == nil {
		return res, pkgerrors.ErrMissingCopyArgs
	}

	initTime, err := r.initTable(ctx)
	if err != nil {
		return res, err
	}
	res.TableInit = initTime

	exec := r.executor(Copy)
	r.logger.Debug().Msgf("Insert %d records with copy insert", records)

	start := time.Now()
	var buf bytes.Buffer
	if _, err := staging.WriteCSV(&buf, r.generator.Rows(records)); err != nil {
		return res, pkgerrors.Wrap(err, pkgerrors.CodeStagingFailed, "failed to write staging file")
	}
	uri, err := r.opts.Stager.Stage(ctx, staging.ObjectKey(r.opts.Now()), &buf, int64(buf.Len()))
	if err != nil {
		return res, pkgerrors.Wrap(err, pkgerrors.CodeStagingFailed, "failed to stage file")
	}
	res.StagedURI = uri

	query, err := r.session.Dialect().CopySQL(r.opts.Table, generator.Columns, uri, r.opts.CopyRole)
	if err != nil {
		return res, pkgerrors.Wrap(err, pkgerrors.CodeInvalidConfig, "failed to build copy statement")
	}
	if _, err := exec.Exec(ctx, query); err != nil {
		return res, err
	}
	res.Wall = time.Since(start)
	res.SQL = exec.Elapsed()
	res.Statements = exec.Statements()
	return res, nil
}

func (r *Runner) initTable(ctx context.Context) (time.Duration, error) {
	exec := warehouse.NewExecutor(r.session, r.logger, r.metrics, "table_init")
	return warehouse.InitTable(ctx, exec, r.session.Dialect(), r.opts.Table)
}

func (r *Runner) executor(name Name) *warehouse.Executor {
	return warehouse.NewExecutor(r.session, r.logger, r.metrics, string(name))
}

// insertStatement returns the parameterized single-row INSERT.
func (r *Runner) insertStatement(dialect warehouse.Dialect) string {
	cols := make([]string, len(generator.Columns))
	params := make([]string, len(generator.Columns))
	for i, c := range generator.Columns {
		cols[i] = dialect.QuoteIdentifier(c)
		params[i] = dialect.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		dialect.QuoteIdentifier(r.opts.Table), strings.Join(cols, ", "), strings.Join(params, ", "))
}

func (r *Runner) record(res Result) {
	label := string(res.Scenario)
	r.metrics.RecordGauge(metrics.RowsLoaded, float64(res.Records), "scenario", label)
	r.metrics.RecordGauge(metrics.ScenarioWall, res.Wall.Seconds(), "scenario", label)
	r.metrics.RecordGauge(metrics.ScenarioSQL, res.SQL.Seconds(), "scenario", label)
}
