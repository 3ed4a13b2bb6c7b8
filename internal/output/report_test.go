package output

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteHTMLReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteHTMLReport(&buf, sampleSummary()))
	html := buf.String()

	for _, want := range []string{
		"<!DOCTYPE html>",
		"<title>http://localhost:8080/ - rampgen report</title>",
		`<div class="status pass">Drained</div>`,
		"1,200",
		"99.0",
		"2.00ms",
		"stepsChart",
		`"pps":100`,
		`"p50":2`,
		"width: 83.3%",
	} {
		assert.Contains(t, html, want)
	}
}

func TestWriteHTMLReport_Incomplete(t *testing.T) {
	s := sampleSummary()
	s.Drained = false
	s.Reason = "interrupted"
	s.Steps = nil

	var buf bytes.Buffer
	require.NoError(t, WriteHTMLReport(&buf, s))
	assert.Contains(t, buf.String(), "Incomplete (interrupted)")
	assert.NotContains(t, buf.String(), `<canvas id="stepsChart">`)
	assert.Contains(t, buf.String(), "stepsData = []")
}

func TestWriteHTMLReport_Nil(t *testing.T) {
	assert.Error(t, WriteHTMLReport(&bytes.Buffer{}, nil))
}

func TestGenerateHTMLReport(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.html")
	require.NoError(t, GenerateHTMLReport(sampleSummary(), path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Latency by Rate")

	err = GenerateHTMLReport(sampleSummary(), filepath.Join(t.TempDir(), "missing", "report.html"))
	assert.ErrorContains(t, err, "failed to write HTML file")
}
