package bench

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TFMV/rsbench/pkg/scenario"
)

func sampleReport() Report {
	return Report{
		RunID:     "4a1f0c2e-0000-4000-8000-000000000000",
		Engine:    "redshift",
		Seed:      1,
		StartedAt: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Results: []scenario.Result{
			{Scenario: scenario.Bulk, Requested: 10, Records: 10, Statements: 1, Wall: 1234567 * time.Microsecond, SQL: 456789 * time.Microsecond},
			{Scenario: scenario.Classic, Requested: 150, Records: 100, Statements: 100, Wall: 2 * time.Second, SQL: 1500 * time.Millisecond, Clamped: true},
		},
	}
}

func TestWriteLine(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteLine(sampleReport().Results[0], &buf))
	assert.Equal(t, "Bulk insert for 10 records: 1.235 of which 0.457 in sql\n", buf.String())
}

func TestWrite_Text(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(FormatText, sampleReport(), &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, "Classic insert for 100 records: 2.000 of which 1.500 in sql", lines[1])
}

func TestWrite_JSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(FormatJSON, sampleReport(), &buf))

	var decoded Report
	require.NoError(t, json.Unmarshal(buf.Bytes(), &decoded))
	assert.Equal(t, "redshift", decoded.Engine)
	require.Len(t, decoded.Results, 2)
	assert.True(t, decoded.Results[1].Clamped)
	assert.Equal(t, 150, decoded.Results[1].Requested)
}

func TestWrite_CSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(FormatCSV, sampleReport(), &buf))
	assert.Equal(t,
		"scenario,records,statements,wall_seconds,sql_seconds,clamped\n"+
			"bulk,10,1,1.235,0.457,false\n"+
			"classic,100,100,2.000,1.500,true\n",
		buf.String())
}

func TestWrite_Markdown(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(FormatMarkdown, sampleReport(), &buf))
	out := buf.String()
	assert.Contains(t, out, "Scenario")
	assert.Contains(t, out, "classic")
	assert.Equal(t, 4, strings.Count(out, "\n"))
}

func TestWrite_UnknownFormat(t *testing.T) {
	err := Write("yaml", sampleReport(), &bytes.Buffer{})
	require.Error(t, err)
}
