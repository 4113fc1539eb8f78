package domain

import (
	"fmt"
	"time"
)

// Summary is the final report of one run: a pure function of the closing
// Progress snapshot and the elapsed wall-clock time.
type Summary struct {
	Operation         string
	State             RunState
	Processed         int
	DuplicatesFound   int
	DuplicatesRemoved int
	Errors            int
	Elapsed           time.Duration
}

// Summarize derives the report from the final progress state.
func Summarize(p Progress, elapsed time.Duration) Summary {
	return Summary{
		Operation:         p.Operation,
		State:             p.State,
		Processed:         p.ProcessedRecords,
		DuplicatesFound:   p.DuplicatesFound,
		DuplicatesRemoved: p.DuplicatesRemoved,
		Errors:            p.Errors,
		Elapsed:           elapsed,
	}
}

// Throughput returns processed records per second.
func (s Summary) Throughput() float64 {
	secs := s.Elapsed.Seconds()
	if secs <= 0 {
		return 0
	}
	return float64(s.Processed) / secs
}

func (s Summary) String() string {
	return fmt.Sprintf("%s %s: processed=%d duplicates=%d removed=%d errors=%d elapsed=%s (%.1f records/s)",
		s.Operation, s.State, s.Processed, s.DuplicatesFound, s.DuplicatesRemoved, s.Errors,
		FormatDuration(s.Elapsed), s.Throughput())
}

// FormatDuration renders a duration as hours/minutes/seconds.
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60
	switch {
	case h > 0:
		return fmt.Sprintf("%dh %dm %ds", h, m, s)
	case m > 0:
		return fmt.Sprintf("%dm %ds", m, s)
	default:
		return fmt.Sprintf("%ds", s)
	}
}
