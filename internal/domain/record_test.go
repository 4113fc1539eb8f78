package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func record(props map[string]Property) Record {
	return Record{ID: "rec-1", Properties: props}
}

func TestPropertyAccessorDefaults(t *testing.T) {
	t.Parallel()

	rec := record(map[string]Property{
		"Commits": {Type: PropertyTitle, Text: "fix bug"},
		"Count":   {Type: PropertyNumber, Number: 3},
		"Date":    {Type: PropertyDate, Date: time.Date(2024, 1, 2, 15, 4, 0, 0, time.UTC)},
	})

	assert.Equal(t, "fix bug", rec.Text("Commits"))
	assert.Equal(t, float64(3), rec.Number("Count"))
	assert.Equal(t, 2024, rec.Date("Date").Year())

	// Missing or mistyped properties yield zero values, never panics.
	assert.Equal(t, "", rec.Text("Missing"))
	assert.Equal(t, "", rec.Text("Count"))
	assert.True(t, rec.Date("Commits").IsZero())
	assert.Zero(t, rec.Number("Date"))
	assert.False(t, rec.Has("Missing"))
}

func TestStrongKey(t *testing.T) {
	t.Parallel()

	fields := DefaultKeyFields()

	rec := record(map[string]Property{
		"Commit SHA": {Type: PropertyRichText, Text: "abc123"},
	})
	assert.Equal(t, "sha:abc123", fields.StrongKey(rec))

	blank := record(map[string]Property{
		"Commit SHA": {Type: PropertyRichText, Text: "   "},
	})
	assert.Equal(t, "", fields.StrongKey(blank))

	assert.Equal(t, "", fields.StrongKey(record(nil)))
}

func TestCompositeKeyTruncatesToDay(t *testing.T) {
	t.Parallel()

	fields := DefaultKeyFields()

	morning := record(map[string]Property{
		"Commits":      {Type: PropertyTitle, Text: "fix bug"},
		"Project Name": {Type: PropertyRichText, Text: "X"},
		"Date":         {Type: PropertyDate, Date: time.Date(2024, 1, 1, 8, 0, 0, 0, time.UTC)},
	})
	evening := record(map[string]Property{
		"Commits":      {Type: PropertyTitle, Text: "fix bug"},
		"Project Name": {Type: PropertyRichText, Text: "X"},
		"Date":         {Type: PropertyDate, Date: time.Date(2024, 1, 1, 22, 30, 0, 0, time.UTC)},
	})

	assert.Equal(t, "fix bug|X|2024-01-01", fields.CompositeKey(morning))
	assert.Equal(t, fields.CompositeKey(morning), fields.CompositeKey(evening))
}

func TestSummarize(t *testing.T) {
	t.Parallel()

	progress := Progress{
		Operation:         "dedup",
		State:             StateDone,
		ProcessedRecords:  1200,
		DuplicatesFound:   80,
		DuplicatesRemoved: 78,
		Errors:            2,
	}

	summary := Summarize(progress, 2*time.Minute)
	assert.Equal(t, 1200, summary.Processed)
	assert.InDelta(t, 10.0, summary.Throughput(), 0.01)
	assert.Contains(t, summary.String(), "processed=1200")
	assert.Contains(t, summary.String(), "errors=2")
	assert.Contains(t, summary.String(), "2m 0s")
}

func TestFormatDuration(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "45s", FormatDuration(45*time.Second))
	assert.Equal(t, "2m 13s", FormatDuration(2*time.Minute+13*time.Second))
	assert.Equal(t, "1h 0m 5s", FormatDuration(time.Hour+5*time.Second))
}
