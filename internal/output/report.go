package output

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"html/template"
	"io"
	"os"
	"time"
)

// reportData is what the HTML template renders.
type reportData struct {
	*Summary
	Title      string
	Generated  time.Time
	Success    float64
	Histogram  []histogramRow
	StepsJSON  template.JS
	HasLatency bool
}

type histogramRow struct {
	Label   string
	Count   uint64
	Percent float64
}

// stepPoint is one chart point. Latencies are in milliseconds.
type stepPoint struct {
	PPS   uint32  `json:"pps"`
	P50   float64 `json:"p50"`
	P90   float64 `json:"p90"`
	P99   float64 `json:"p99"`
	Max   float64 `json:"max"`
	Count int64   `json:"count"`
}

var reportTemplate = template.Must(template.New("report").Funcs(template.FuncMap{
	"duration": formatDuration,
	"latency":  formatDurationShort,
	"number":   formatNumber,
	"pct":      func(f float64) string { return fmt.Sprintf("%.1f", f*100) },
}).Parse(htmlTemplate))

// WriteHTMLReport renders s as a self-contained HTML page.
func WriteHTMLReport(w io.Writer, s *Summary) error {
	if s == nil {
		return errors.New("summary cannot be nil")
	}

	stepsJSON, err := stepsJSON(s)
	if err != nil {
		return fmt.Errorf("failed to convert steps: %w", err)
	}

	data := reportData{
		Summary:    s,
		Title:      s.Target,
		Generated:  time.Now(),
		Success:    s.SuccessRatio(),
		Histogram:  histogramRows(s),
		StepsJSON:  template.JS(stepsJSON),
		HasLatency: s.Latency.Count > 0,
	}

	var buf bytes.Buffer
	if err := reportTemplate.Execute(&buf, data); err != nil {
		return fmt.Errorf("failed to execute template: %w", err)
	}
	_, err = buf.WriteTo(w)
	return err
}

// GenerateHTMLReport writes the HTML report for s to path.
func GenerateHTMLReport(s *Summary, path string) error {
	var buf bytes.Buffer
	if err := WriteHTMLReport(&buf, s); err != nil {
		return fmt.Errorf("failed to generate HTML: %w", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("failed to write HTML file: %w", err)
	}
	return nil
}

func histogramRows(s *Summary) []histogramRow {
	rows := make([]histogramRow, len(s.Stats.Times))
	for i, n := range s.Stats.Times {
		rows[i] = histogramRow{Label: histogramLabels[i], Count: n}
		if s.Stats.Received > 0 {
			rows[i].Percent = float64(n) / float64(s.Stats.Received) * 100
		}
	}
	return rows
}

func stepsJSON(s *Summary) (string, error) {
	ms := func(d time.Duration) float64 { return float64(d) / float64(time.Millisecond) }

	points := make([]stepPoint, len(s.Steps))
	for i, st := range s.Steps {
		points[i] = stepPoint{
			PPS: st.PPS, P50: ms(st.P50), P90: ms(st.P90), P99: ms(st.P99), Max: ms(st.Max),
			Count: st.Count,
		}
	}
	b, err := json.Marshal(points)
	if err != nil {
		return "[]", err
	}
	return string(b), nil
}
