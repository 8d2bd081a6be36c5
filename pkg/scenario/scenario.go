// Package scenario implements the three loading strategies rsbench times:
// row-by-row inserts, multi-row batch inserts and a bulk load from a
// staged CSV file.
package scenario

import (
	"fmt"
	"strings"
	"time"
)

// Name identifies a loading strategy.
type Name string

// Scenario names accepted on the command line.
const (
	All     Name = "all"
	Classic Name = "classic"
	Bulk    Name = "bulk"
	Copy    Name = "copy"
)

// Order is the execution order of the scenarios selected by "all".
var Order = []Name{Bulk, Copy, Classic}

// MaxClassicRecords caps the row-by-row scenario, whose cost is dominated
// by round trips.
const MaxClassicRecords = 100

// Title returns the capitalised scenario name used in report lines.
func (n Name) Title() string {
	s := string(n)
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// ParseSelector expands a scenario selector into the scenarios to run.
func ParseSelector(selector string) ([]Name, error) {
	switch Name(strings.ToLower(strings.TrimSpace(selector))) {
	case All, "":
		return append([]Name(nil), Order...), nil
	case Classic:
		return []Name{Classic}, nil
	case Bulk:
		return []Name{Bulk}, nil
	case Copy:
		return []Name{Copy}, nil
	default:
		return nil, fmt.Errorf("unknown scenario %q: expected one of all, classic, bulk, copy", selector)
	}
}

// Includes reports whether names contains n.
func Includes(names []Name, n Name) bool {
	for _, name := range names {
		if name == n {
			return true
		}
	}
	return false
}

// Result holds the measurements of one scenario run.
type Result struct {
	Scenario   Name          `json:"scenario"`
	Requested  int           `json:"requested_records"`
	Records    int           `json:"records"`
	Statements int           `json:"statements"`
	Wall       time.Duration `json:"wall_ns"`
	SQL        time.Duration `json:"sql_ns"`
	TableInit  time.Duration `json:"table_init_ns"`
	Clamped    bool          `json:"clamped,omitempty"`
	StagedURI  string        `json:"staged_uri,omitempty"`
	TableRows  *int64        `json:"table_rows,omitempty"`
}
