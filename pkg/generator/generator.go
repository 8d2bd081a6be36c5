// Package generator produces the synthetic rows loaded by every scenario.
package generator

import (
	"iter"
	"math"
	"math/rand"
	"time"
)

// DefaultSeed is applied once per process so scenarios in one run draw
// comparable data.
const DefaultSeed int64 = 1

const (
	maxInteger    = 1_000_000_000
	maxSmallInt   = 1_000
	decimalScale  = 2
	varcharLength = 100
	letters       = "abcdefghijklmnopqrstuvwxyz"
)

// Columns lists the loaded columns in table order.
var Columns = []string{"my_integer", "my_smallint", "my_decimal", "my_timestamp", "my_varchar"}

// Row is one synthetic record.
type Row struct {
	Integer   int32
	SmallInt  int16
	Decimal   float64
	Timestamp time.Time
	Varchar   string
}

// Values returns the row's values in Columns order.
func (r Row) Values() []any {
	return []any{r.Integer, r.SmallInt, r.Decimal, r.Timestamp, r.Varchar}
}

// Generator draws rows from a single seeded source. It is not safe for
// concurrent use.
type Generator struct {
	rand *rand.Rand
	now  func() time.Time
}

// Option configures a Generator.
type Option func(*Generator)

// WithClock overrides the timestamp source.
func WithClock(now func() time.Time) Option {
	return func(g *Generator) {
		g.now = now
	}
}

// New creates a generator seeded with seed.
func New(seed int64, opts ...Option) *Generator {
	g := &Generator{
		rand: rand.New(rand.NewSource(seed)),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Rows returns a lazy sequence of exactly n rows. Each iteration of the
// returned sequence generates fresh rows from the shared source.
func (g *Generator) Rows(n int) iter.Seq[Row] {
	return func(yield func(Row) bool) {
		for i := 0; i < n; i++ {
			if !yield(g.Row()) {
				return
			}
		}
	}
}

// Row generates a single row.
func (g *Generator) Row() Row {
	return Row{
		Integer:   int32(g.rand.Int63n(maxInteger)),
		SmallInt:  int16(g.rand.Intn(maxSmallInt)),
		Decimal:   roundScale(g.rand.Float64(), decimalScale),
		Timestamp: g.now(),
		Varchar:   g.randomString(varcharLength),
	}
}

func (g *Generator) randomString(n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = letters[g.rand.Intn(len(letters))]
	}
	return string(b)
}

func roundScale(v float64, scale int) float64 {
	p := math.Pow10(scale)
	return math.Round(v*p) / p
}
