package generator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func collect(g *Generator, n int) []Row {
	var rows []Row
	for r := range g.Rows(n) {
		rows = append(rows, r)
	}
	return rows
}

func TestRows_Count(t *testing.T) {
	g := New(DefaultSeed)
	for _, n := range []int{0, 1, 7, 250} {
		assert.Len(t, collect(g, n), n)
	}
}

func TestRows_ValueRanges(t *testing.T) {
	g := New(DefaultSeed)
	for _, r := range collect(g, 500) {
		assert.GreaterOrEqual(t, r.Integer, int32(0))
		assert.Less(t, r.Integer, int32(maxInteger))
		assert.GreaterOrEqual(t, r.SmallInt, int16(0))
		assert.Less(t, r.SmallInt, int16(maxSmallInt))
		assert.GreaterOrEqual(t, r.Decimal, 0.0)
		assert.LessOrEqual(t, r.Decimal, 1.0)
		assert.InDelta(t, r.Decimal, roundScale(r.Decimal, 2), 1e-12)
		require.Len(t, r.Varchar, varcharLength)
		for _, c := range r.Varchar {
			assert.True(t, c >= 'a' && c <= 'z', "unexpected character %q", c)
		}
	}
}

func TestRows_SameSeedIsReproducible(t *testing.T) {
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	clock := func() time.Time { return fixed }

	a := collect(New(42, WithClock(clock)), 20)
	b := collect(New(42, WithClock(clock)), 20)
	assert.Equal(t, a, b)
}

func TestRows_Restartable(t *testing.T) {
	g := New(DefaultSeed)
	seq := g.Rows(3)

	first := 0
	for range seq {
		first++
	}
	second := 0
	for range seq {
		second++
	}
	assert.Equal(t, 3, first)
	assert.Equal(t, 3, second)
}

func TestRows_EarlyBreak(t *testing.T) {
	g := New(DefaultSeed)
	seen := 0
	for range g.Rows(100) {
		seen++
		if seen == 5 {
			break
		}
	}
	assert.Equal(t, 5, seen)
}

func TestRow_Values(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	r := Row{Integer: 1, SmallInt: 2, Decimal: 0.5, Timestamp: ts, Varchar: "abc"}
	vals := r.Values()
	require.Len(t, vals, len(Columns))
	assert.Equal(t, []any{int32(1), int16(2), 0.5, ts, "abc"}, vals)
}
