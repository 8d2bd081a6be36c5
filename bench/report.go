// Package bench renders benchmark results.
package bench

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/TFMV/rsbench/pkg/scenario"
)

// Output formats accepted by Write.
const (
	FormatText     = "text"
	FormatJSON     = "json"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
)

// Formats lists the accepted output formats.
var Formats = []string{FormatText, FormatJSON, FormatCSV, FormatMarkdown}

// Report is the outcome of one rsbench invocation.
type Report struct {
	RunID     string            `json:"run_id"`
	Engine    string            `json:"engine"`
	Seed      int64             `json:"seed"`
	StartedAt time.Time         `json:"started_at"`
	Results   []scenario.Result `json:"results"`
}

// Write renders report in format.
func Write(format string, report Report, w io.Writer) error {
	switch strings.ToLower(format) {
	case FormatText, "":
		for _, r := range report.Results {
			if err := WriteLine(r, w); err != nil {
				return err
			}
		}
		return nil
	case FormatJSON:
		return WriteJSON(report, w)
	case FormatCSV:
		return WriteCSV(report.Results, w)
	case FormatMarkdown:
		return WriteMarkdown(report.Results, w)
	default:
		return fmt.Errorf("unsupported output format: %s", format)
	}
}

// WriteLine writes the one-line summary of a scenario, for example:
//
//	Bulk insert for 10 records: 0.123 of which 0.045 in sql
func WriteLine(r scenario.Result, w io.Writer) error {
	_, err := fmt.Fprintf(w, "%s insert for %d records: %.3f of which %.3f in sql\n",
		r.Scenario.Title(), r.Records, r.Wall.Seconds(), r.SQL.Seconds())
	return err
}

// WriteJSON writes the report to w in JSON format.
func WriteJSON(report Report, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(report)
}

// WriteCSV writes results in CSV format.
func WriteCSV(results []scenario.Result, w io.Writer) error {
	c := csv.NewWriter(w)
	if err := c.Write([]string{"scenario", "records", "statements", "wall_seconds", "sql_seconds", "clamped"}); err != nil {
		return err
	}
	for _, r := range results {
		record := []string{
			string(r.Scenario),
			strconv.Itoa(r.Records),
			strconv.Itoa(r.Statements),
			seconds(r.Wall),
			seconds(r.SQL),
			strconv.FormatBool(r.Clamped),
		}
		if err := c.Write(record); err != nil {
			return err
		}
	}
	c.Flush()
	return c.Error()
}

// WriteMarkdown renders results as a simple Markdown table.
func WriteMarkdown(results []scenario.Result, w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 2, 2, ' ', 0)
	fmt.Fprintf(tw, "| Scenario\t| Records\t| Statements\t| Wall (s)\t| SQL (s)\t|\n")
	fmt.Fprintf(tw, "|---\t|---\t|---\t|---\t|---\t|\n")
	for _, r := range results {
		fmt.Fprintf(tw, "| %s\t| %d\t| %d\t| %s\t| %s\t|\n",
			r.Scenario, r.Records, r.Statements, seconds(r.Wall), seconds(r.SQL))
	}
	return tw.Flush()
}

func seconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
