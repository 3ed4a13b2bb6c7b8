package output

import (
	"fmt"
	"io"
	"os"
	"time"
)

// StatsSource produces the generator's stats text, one line per call.
// *load.Generator implements it.
type StatsSource interface {
	WriteStats(w io.Writer, now time.Time) (int, error)
}

// StatsWriter appends stats lines from a source to a file or stream. Like
// the source it is driven from a single goroutine.
type StatsWriter struct {
	w      io.Writer
	closer io.Closer
	source StatsSource
	lines  int
}

// NewStatsWriter writes the lines of source to w.
func NewStatsWriter(w io.Writer, source StatsSource) *StatsWriter {
	return &StatsWriter{w: w, source: source}
}

// CreateStatsFile opens path for the lines of source, truncating it. The
// path "-" selects standard output, which Close leaves open.
func CreateStatsFile(path string, source StatsSource) (*StatsWriter, error) {
	if path == "-" {
		return NewStatsWriter(os.Stdout, source), nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create stats file: %w", err)
	}
	sw := NewStatsWriter(f, source)
	sw.closer = f
	return sw, nil
}

// Sample writes the next line taken at now. The first call writes the
// header only, so callers normally sample once when the run starts.
func (sw *StatsWriter) Sample(now time.Time) error {
	if _, err := sw.source.WriteStats(sw.w, now); err != nil {
		return fmt.Errorf("failed to write stats: %w", err)
	}
	sw.lines++
	return nil
}

// Lines returns how many lines have been written, header included.
func (sw *StatsWriter) Lines() int {
	return sw.lines
}

// Close closes the underlying file, if the writer opened one.
func (sw *StatsWriter) Close() error {
	if sw.closer == nil {
		return nil
	}
	return sw.closer.Close()
}
