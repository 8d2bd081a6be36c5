// Package staging writes benchmark rows to CSV and places the file where
// the warehouse bulk-load statement can read it.
package staging

import (
	"encoding/csv"
	"fmt"
	"io"
	"iter"
	"path"
	"strconv"
	"time"

	"github.com/TFMV/rsbench/pkg/generator"
)

// Delimiter separates CSV fields.
const Delimiter = ';'

// TimestampLayout matches the TIMEFORMAT of the bulk-load statement.
const TimestampLayout = "2006-01-02 15:04:05"

// KeyPrefix is the directory created under the configured storage path.
const KeyPrefix = "_rs_benchmark"

// ObjectKey returns the timestamped key of a staging file.
func ObjectKey(now time.Time) string {
	return path.Join(KeyPrefix, now.Format("20060102-15:04:05")+".csv")
}

// WriteCSV writes a header line and one line per row to w. It returns the
// number of data rows written.
func WriteCSV(w io.Writer, rows iter.Seq[generator.Row]) (int, error) {
	cw := csv.NewWriter(w)
	cw.Comma = Delimiter

	if err := cw.Write(generator.Columns); err != nil {
		return 0, fmt.Errorf("failed to write header: %w", err)
	}

	n := 0
	record := make([]string, len(generator.Columns))
	for r := range rows {
		record[0] = strconv.FormatInt(int64(r.Integer), 10)
		record[1] = strconv.FormatInt(int64(r.SmallInt), 10)
		record[2] = strconv.FormatFloat(r.Decimal, 'f', 2, 64)
		record[3] = r.Timestamp.Format(TimestampLayout)
		record[4] = r.Varchar
		if err := cw.Write(record); err != nil {
			return n, fmt.Errorf("failed to write row %d: %w", n, err)
		}
		n++
	}

	cw.Flush()
	return n, cw.Error()
}
