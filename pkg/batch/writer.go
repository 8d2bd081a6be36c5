// Package batch writes rows into a table as multi-row INSERT statements.
package batch

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"
)

// DefaultChunkSize bounds the number of tuples inlined into one statement
// so the statement stays within warehouse size limits.
const DefaultChunkSize = 50_000

// Execer runs one SQL statement and returns the time spent in the call.
type Execer interface {
	Exec(ctx context.Context, query string, args ...any) (time.Duration, error)
}

// Writer renders rows of type T into INSERT ... VALUES statements. Values
// are inlined as literals produced by Quote, so Writer is independent of
// the bind parameter limits of the driver.
type Writer[T any] struct {
	Table     string
	Columns   []string
	ChunkSize int

	// Encode returns the values of a row in Columns order.
	Encode func(T) []any
	// Quote renders a single value as a SQL literal.
	Quote func(any) (string, error)
	// QuoteIdentifier quotes table and column names. Names are used as-is when nil.
	QuoteIdentifier func(string) string
}

// Stats summarises one Write call.
type Stats struct {
	Rows       int
	Statements int
	SQLTime    time.Duration
}

// Write consumes rows and executes one statement per chunk, in order. An
// empty sequence executes nothing.
func (w *Writer[T]) Write(ctx context.Context, exec Execer, rows iter.Seq[T]) (Stats, error) {
	var stats Stats
	if len(w.Columns) == 0 {
		return stats, fmt.Errorf("batch writer for %s has no columns", w.Table)
	}
	if w.Encode == nil || w.Quote == nil {
		return stats, fmt.Errorf("batch writer for %s needs Encode and Quote", w.Table)
	}

	chunkSize := w.ChunkSize
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}

	prefix := w.insertPrefix()
	var b strings.Builder
	pending := 0

	flush := func() error {
		if pending == 0 {
			return nil
		}
		d, err := exec.Exec(ctx, b.String())
		if err != nil {
			return fmt.Errorf("failed to execute chunk %d: %w", stats.Statements+1, err)
		}
		stats.Statements++
		stats.SQLTime += d
		b.Reset()
		pending = 0
		return nil
	}

	for row := range rows {
		values := w.Encode(row)
		if len(values) != len(w.Columns) {
			return stats, fmt.Errorf("row %d has %d values, want %d", stats.Rows, len(values), len(w.Columns))
		}

		if pending == 0 {
			b.WriteString(prefix)
		} else {
			b.WriteString(",")
		}
		if err := w.writeTuple(&b, values); err != nil {
			return stats, fmt.Errorf("row %d: %w", stats.Rows, err)
		}
		pending++
		stats.Rows++

		if pending == chunkSize {
			if err := flush(); err != nil {
				return stats, err
			}
		}
	}

	if err := flush(); err != nil {
		return stats, err
	}
	return stats, nil
}

// insertPrefix returns the statement head, for example:
//
//	INSERT INTO my_table (id, value) VALUES
func (w *Writer[T]) insertPrefix() string {
	quote := w.QuoteIdentifier
	if quote == nil {
		quote = func(s string) string { return s }
	}

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(quote(w.Table))
	b.WriteString(" (")
	for i, c := range w.Columns {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(quote(c))
	}
	b.WriteString(") VALUES ")
	return b.String()
}

func (w *Writer[T]) writeTuple(b *strings.Builder, values []any) error {
	b.WriteString("(")
	for i, v := range values {
		if i > 0 {
			b.WriteString(",")
		}
		lit, err := w.Quote(v)
		if err != nil {
			return err
		}
		b.WriteString(lit)
	}
	b.WriteString(")")
	return nil
}
