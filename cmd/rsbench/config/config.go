// Package config provides the run configuration of an rsbench invocation.
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/TFMV/rsbench/bench"
	pkgerrors "github.com/TFMV/rsbench/pkg/errors"
	"github.com/TFMV/rsbench/pkg/generator"
	"github.com/TFMV/rsbench/pkg/scenario"
	"github.com/TFMV/rsbench/pkg/staging"
	"github.com/TFMV/rsbench/pkg/warehouse"
)

// DefaultPort is the Redshift listener port.
const DefaultPort = 5439

// Config represents the run configuration. It is built once at startup
// and passed explicitly to every component. The yaml tags are the config
// file keys, which share their names with the command line flags.
type Config struct {
	// Connection settings
	Engine         string        `yaml:"engine" json:"engine"`
	Host           string        `yaml:"db-host" json:"db-host"`
	Port           int           `yaml:"db-port" json:"db-port"`
	Database       string        `yaml:"db-name" json:"db-name"`
	User           string        `yaml:"db-user" json:"db-user"`
	Password       string        `yaml:"-" json:"-"`
	SSLMode        string        `yaml:"sslmode" json:"sslmode"`
	ConnectTimeout time.Duration `yaml:"connect-timeout" json:"connect-timeout"`

	// Copy scenario settings
	CopyPath string `yaml:"copy-s3-path" json:"copy-s3-path"`
	CopyRole string `yaml:"copy-iam-role" json:"copy-iam-role"`

	// Benchmark settings
	Records   int    `yaml:"nbr-of-records" json:"nbr-of-records"`
	Scenario  string `yaml:"scenario" json:"scenario"`
	ChunkSize int    `yaml:"chunk-size" json:"chunk-size"`
	Seed      int64  `yaml:"seed" json:"seed"`
	Verify    bool   `yaml:"verify" json:"verify"`

	// Output settings
	Debug     bool   `yaml:"debug" json:"debug"`
	LogLevel  string `yaml:"log-level" json:"log-level"`
	LogFormat string `yaml:"log-format" json:"log-format"`
	Output    string `yaml:"output" json:"output"`

	// Object storage configuration
	S3 staging.S3Config `yaml:",inline" json:"s3"`

	// Metrics configuration
	Metrics MetricsConfig `yaml:",inline" json:"metrics"`
}

// MetricsConfig represents metrics configuration.
type MetricsConfig struct {
	PushGateway string `yaml:"push-gateway" json:"push-gateway"`
	Job         string `yaml:"metrics-job" json:"metrics-job"`
}

// Enabled reports whether metrics are pushed at the end of a run.
func (m MetricsConfig) Enabled() bool {
	return m.PushGateway != ""
}

// Validate fills defaults and rejects configurations that cannot run. It
// runs before any connection is opened, so a rejected run executes no SQL.
func (c *Config) Validate() error {
	if c.Engine == "" {
		c.Engine = warehouse.EngineRedshift
	}
	c.Engine = strings.ToLower(c.Engine)
	if _, err := warehouse.DialectFor(c.Engine); err != nil {
		return invalid(err.Error())
	}

	if c.Port <= 0 {
		c.Port = DefaultPort
	}
	if c.SSLMode == "" {
		c.SSLMode = "require"
	}
	if c.ConnectTimeout <= 0 {
		c.ConnectTimeout = 30 * time.Second
	}
	if c.Scenario == "" {
		c.Scenario = string(scenario.All)
	}
	if c.Records < 0 {
		return invalid(fmt.Sprintf("nbr-of-records must not be negative, got %d", c.Records))
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Debug {
		c.LogLevel = "debug"
	}
	if c.LogFormat == "" {
		c.LogFormat = "console"
	}
	if c.Output == "" {
		c.Output = bench.FormatText
	}
	if c.Metrics.Job == "" {
		c.Metrics.Job = "rsbench"
	}

	if c.Database == "" {
		return invalid("db-name is required")
	}
	if c.Engine == warehouse.EngineRedshift {
		if c.Host == "" {
			return invalid("db-host is required")
		}
		if c.User == "" {
			return invalid("db-user is required")
		}
	}

	if !validOutput(c.Output) {
		return invalid(fmt.Sprintf("unsupported output format: %s", c.Output))
	}

	names, err := scenario.ParseSelector(c.Scenario)
	if err != nil {
		return invalid(err.Error())
	}
	if scenario.Includes(names, scenario.Copy) {
		if c.CopyPath == "" || c.CopyRole == "" {
			return pkgerrors.ErrMissingCopyArgs
		}
		// Redshift can only COPY from object storage.
		if c.Engine == warehouse.EngineRedshift && !strings.HasPrefix(c.CopyPath, "s3://") {
			return invalid(fmt.Sprintf("copy-s3-path must be an s3:// location for redshift, got %q", c.CopyPath))
		}
	}

	return nil
}

// Scenarios returns the scenarios selected by the configuration, in
// execution order.
func (c *Config) Scenarios() []scenario.Name {
	names, err := scenario.ParseSelector(c.Scenario)
	if err != nil {
		return nil
	}
	return names
}

// Warehouse returns the connection settings.
func (c *Config) Warehouse() warehouse.Config {
	return warehouse.Config{
		Engine:          c.Engine,
		Host:            c.Host,
		Port:            c.Port,
		Database:        c.Database,
		User:            c.User,
		Password:        c.Password,
		SSLMode:         c.SSLMode,
		ConnectTimeout:  c.ConnectTimeout,
		ApplicationName: "rsbench",
	}
}

// NeedsPassword reports whether the engine authenticates with a password.
func (c *Config) NeedsPassword() bool {
	return c.Engine == warehouse.EngineRedshift
}

// DefaultConfig returns a default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine:         warehouse.EngineRedshift,
		Port:           DefaultPort,
		SSLMode:        "require",
		ConnectTimeout: 30 * time.Second,
		Records:        10,
		Scenario:       string(scenario.All),
		Seed:           generator.DefaultSeed,
		LogLevel:       "info",
		LogFormat:      "console",
		Output:         bench.FormatText,
		Metrics: MetricsConfig{
			Job: "rsbench",
		},
	}
}

func validOutput(format string) bool {
	for _, f := range bench.Formats {
		if strings.EqualFold(f, format) {
			return true
		}
	}
	return false
}

func invalid(msg string) error {
	return pkgerrors.New(pkgerrors.CodeInvalidConfig, msg)
}
