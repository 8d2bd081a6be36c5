// Package main provides the entry point for the rsbench insert benchmark.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/TFMV/rsbench/bench"
	"github.com/TFMV/rsbench/cmd/rsbench/config"
	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
	"github.com/TFMV/rsbench/pkg/generator"
	"github.com/TFMV/rsbench/pkg/infrastructure/metrics"
	"github.com/TFMV/rsbench/pkg/scenario"
	"github.com/TFMV/rsbench/pkg/staging"
	"github.com/TFMV/rsbench/pkg/warehouse"
)

var (
	// Version information (set by build flags)
	version   = "dev"
	commit    = "unknown"
	buildDate = "unknown"
)

// app carries the process dependencies so commands can run in tests.
type app struct {
	stdout    io.Writer
	stderr    io.Writer
	lookupEnv func(string) (string, bool)
	prompt    warehouse.PromptFunc
	open      func(context.Context, warehouse.Config, zerolog.Logger) (*warehouse.Connection, error)
}

func newApp() *app {
	return &app{
		stdout:    os.Stdout,
		stderr:    os.Stderr,
		lookupEnv: os.LookupEnv,
		prompt:    warehouse.TerminalPrompt(os.Stderr),
		open:      warehouse.Open,
	}
}

func newRootCmd(a *app) *cobra.Command {
	v := viper.New()

	rootCmd := &cobra.Command{
		Use:   "rsbench",
		Short: "Redshift insert benchmark",
		Long: `Measure insert throughput against Amazon Redshift.

rsbench loads generated rows into a temporary table with row-by-row
inserts (classic), multi-row inserts (bulk) and a staged CSV COPY (copy),
and reports wall-clock and SQL time for each.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	insertCmd := &cobra.Command{
		Use:   "insert",
		Short: "Run the insert scenarios",
		Long: `Run one or all insert scenarios on a single connection.

Example:
  rsbench insert -h cluster.example.com -D dev -u admin -s bulk -n 100000
  rsbench insert -h cluster.example.com -D dev -u admin -c s3://bucket/path -i arn:aws:iam::123:role/copy
  rsbench insert --engine duckdb -D :memory: -s classic`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.runInsert(cmd, v)
		},
	}

	// -h is the database host; help keeps its long form only.
	flags := insertCmd.Flags()
	flags.StringP("db-host", "h", "", "database host")
	flags.IntP("db-port", "p", config.DefaultPort, "database port")
	flags.StringP("db-name", "D", "", "database name (a file path or :memory: for duckdb)")
	flags.StringP("db-user", "u", "", "database user")
	flags.StringP("copy-s3-path", "c", "", "staging location for the copy scenario (s3://bucket/prefix or a local directory)")
	flags.StringP("copy-iam-role", "i", "", "IAM role the warehouse assumes to read the staged file")
	flags.IntP("nbr-of-records", "n", 10, "number of records to insert per scenario")
	flags.StringP("scenario", "s", string(scenario.All), "scenario to run (all, classic, bulk, copy)")
	flags.BoolP("debug", "d", false, "enable debug logging")
	flags.String("engine", warehouse.EngineRedshift, "database engine (redshift, duckdb)")
	flags.String("sslmode", "require", "TLS mode for redshift connections")
	flags.Duration("connect-timeout", 30*time.Second, "connection timeout")
	flags.String("output", bench.FormatText, "report format (text, json, csv, markdown)")
	flags.Int64("seed", generator.DefaultSeed, "random seed for generated rows")
	flags.Int("chunk-size", 0, "rows per bulk insert statement (default 50000)")
	flags.Bool("verify", false, "count table rows after every scenario")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("log-format", "console", "log format (console, json)")
	flags.String("push-gateway", "", "Prometheus Pushgateway URL")
	flags.String("metrics-job", "rsbench", "Pushgateway job name")
	flags.String("s3-endpoint", "", "S3 endpoint (default s3.amazonaws.com)")
	flags.String("s3-region", "", "S3 region")
	flags.Bool("s3-use-ssl", true, "use TLS for S3")
	flags.String("config", "", "config file path")
	flags.Bool("help", false, "help for insert")

	// Bind flags to viper
	if err := v.BindPFlags(flags); err != nil {
		panic(fmt.Errorf("failed to bind flags: %w", err))
	}
	v.SetEnvPrefix("RSBENCH")
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	rootCmd.AddCommand(insertCmd)

	// Add version command
	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "rsbench\n")
			fmt.Fprintf(out, "Version:    %s\n", version)
			fmt.Fprintf(out, "Commit:     %s\n", commit)
			fmt.Fprintf(out, "Build Date: %s\n", buildDate)
		},
	})

	return rootCmd
}

func main() {
	a := newApp()
	if err := newRootCmd(a).Execute(); err != nil {
		fmt.Fprintf(a.stderr, "Error: %v\n", err)
		os.Exit(pkgerrors.ExitCode(err))
	}
}

func (a *app) runInsert(cmd *cobra.Command, v *viper.Viper) error {
	// Load configuration; a rejected configuration never reaches the database
	cfg, err := loadConfig(v)
	if err != nil {
		if errors.Is(err, pkgerrors.ErrMissingCopyArgs) {
			return fmt.Errorf("copy-iam-role and copy-s3-path are required for the copy scenario: %w", err)
		}
		return err
	}

	logger := setupLogging(cfg.LogLevel, cfg.LogFormat, a.stderr)
	runID := uuid.NewString()
	logger = logger.With().Str("run_id", runID).Logger()

	if cfg.NeedsPassword() {
		cfg.Password, err = warehouse.ResolvePassword(cfg.Password, a.lookupEnv, a.prompt)
		if err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeInvalidConfig, "password required")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	conn, err := a.open(ctx, cfg.Warehouse(), logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := conn.Close(); err != nil {
			logger.Debug().Err(err).Msg("Failed to close connection")
		}
	}()

	names := cfg.Scenarios()
	var stager staging.Stager
	if scenario.Includes(names, scenario.Copy) {
		stager, err = staging.NewStager(cfg.CopyPath, cfg.S3, logger)
		if err != nil {
			return err
		}
	}

	var collector metrics.Collector = metrics.NewNoOpCollector()
	var prom *metrics.PrometheusCollector
	if cfg.Metrics.Enabled() {
		prom = metrics.NewPrometheusCollector()
		collector = prom
	}

	report := bench.Report{
		RunID:     runID,
		Engine:    cfg.Engine,
		Seed:      cfg.Seed,
		StartedAt: time.Now().UTC(),
	}

	text := strings.EqualFold(cfg.Output, bench.FormatText)
	runner := scenario.NewRunner(conn, generator.New(cfg.Seed), logger, collector, scenario.Options{
		ChunkSize: cfg.ChunkSize,
		Stager:    stager,
		CopyRole:  cfg.CopyRole,
		Verify:    cfg.Verify,
		OnResult: func(r scenario.Result) {
			if text {
				if err := bench.WriteLine(r, a.stdout); err != nil {
					logger.Warn().Err(err).Msg("Failed to write result")
				}
			}
		},
	})

	logger.Info().
		Str("engine", cfg.Engine).
		Int("records", cfg.Records).
		Str("scenario", cfg.Scenario).
		Msg("Starting benchmark")

	report.Results, err = runner.Run(ctx, names, cfg.Records)
	if err != nil {
		return err
	}

	if !text {
		if err := bench.Write(cfg.Output, report, a.stdout); err != nil {
			return pkgerrors.Wrap(err, pkgerrors.CodeInternal, "failed to write report")
		}
	}

	if prom != nil {
		if err := prom.Push(ctx, cfg.Metrics.PushGateway, cfg.Metrics.Job, runID); err != nil {
			logger.Warn().Err(err).Str("gateway", cfg.Metrics.PushGateway).Msg("Failed to push metrics")
		}
	}

	return nil
}

func loadConfig(v *viper.Viper) (*config.Config, error) {
	// Load config file if specified
	if configFile := v.GetString("config"); configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return nil, pkgerrors.Wrap(err, pkgerrors.CodeInvalidConfig, "failed to read config file")
		}
	}

	// Build configuration
	cfg := &config.Config{
		Engine:         v.GetString("engine"),
		Host:           v.GetString("db-host"),
		Port:           v.GetInt("db-port"),
		Database:       v.GetString("db-name"),
		User:           v.GetString("db-user"),
		SSLMode:        v.GetString("sslmode"),
		ConnectTimeout: v.GetDuration("connect-timeout"),
		CopyPath:       v.GetString("copy-s3-path"),
		CopyRole:       v.GetString("copy-iam-role"),
		Records:        v.GetInt("nbr-of-records"),
		Scenario:       v.GetString("scenario"),
		ChunkSize:      v.GetInt("chunk-size"),
		Seed:           v.GetInt64("seed"),
		Verify:         v.GetBool("verify"),
		Debug:          v.GetBool("debug"),
		LogLevel:       v.GetString("log-level"),
		LogFormat:      v.GetString("log-format"),
		Output:         v.GetString("output"),
		S3: staging.S3Config{
			Endpoint: v.GetString("s3-endpoint"),
			Region:   v.GetString("s3-region"),
			UseSSL:   v.GetBool("s3-use-ssl"),
		},
		Metrics: config.MetricsConfig{
			PushGateway: v.GetString("push-gateway"),
			Job:         v.GetString("metrics-job"),
		},
	}

	// Validate configuration
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func setupLogging(level, format string, out io.Writer) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339Nano
	zerolog.DurationFieldUnit = time.Millisecond

	logLevel, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil || logLevel == zerolog.NoLevel {
		logLevel = zerolog.InfoLevel
	}

	w := out
	if format != "json" {
		w = zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly}
	}

	logger := zerolog.New(w).
		Level(logLevel).
		With().
		Timestamp().
		Str("service", "rsbench")

	if logLevel == zerolog.DebugLevel {
		logger = logger.Caller()
	}

	return logger.Logger()
}
