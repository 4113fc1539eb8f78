package report

import (
	"bytes"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
)

func render(t *testing.T, runs []domain.RunRecord) *goquery.Document {
	t.Helper()

	var buf bytes.Buffer
	require.NoError(t, Generate(&buf, runs))

	doc, err := goquery.NewDocumentFromReader(&buf)
	require.NoError(t, err)
	return doc
}

func TestGenerateRendersRunRows(t *testing.T) {
	t.Parallel()

	started := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	doc := render(t, []domain.RunRecord{
		{
			RunID:           "0f9b2a4c-1111-2222-3333-444455556666",
			Operation:       "dedup",
			State:           domain.StateDone,
			Processed:       500,
			DuplicatesFound: 42,
			Removed:         40,
			Errors:          2,
			StartedAt:       started,
			FinishedAt:      started.Add(2*time.Minute + 13*time.Second),
		},
		{
			RunID:      "deadbeef-7777-8888-9999-000011112222",
			Operation:  "purge",
			State:      domain.StateFailed,
			StartedAt:  started.Add(time.Hour),
			FinishedAt: started.Add(time.Hour + 45*time.Second),
		},
	})

	rows := doc.Find("table#runs tbody tr")
	require.Equal(t, 2, rows.Length())

	first := rows.First().Find("td")
	assert.Equal(t, "0f9b2a4c", first.Eq(0).Text())
	assert.Equal(t, "dedup", first.Eq(1).Text())
	assert.Equal(t, "done", first.Eq(2).Text())
	assert.Equal(t, "500", first.Eq(3).Text())
	assert.Equal(t, "42", first.Eq(4).Text())
	assert.Equal(t, "40", first.Eq(5).Text())
	assert.Equal(t, "2", first.Eq(6).Text())
	assert.Equal(t, "2m 13s", first.Eq(7).Text())
	assert.Equal(t, "2024-06-01 09:00", first.Eq(8).Text())

	assert.Equal(t, "Generated", doc.Find("p.meta").Text()[:9])
	assert.Contains(t, doc.Find("p.meta").Text(), "2 run(s)")
}

func TestGenerateMarksFailedRuns(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	doc := render(t, []domain.RunRecord{
		{RunID: "ok-run", Operation: "dedup", State: domain.StateDone, StartedAt: now, FinishedAt: now},
		{RunID: "bad-run", Operation: "rename", State: domain.StateFailed, StartedAt: now, FinishedAt: now},
	})

	assert.Equal(t, 1, doc.Find("tr.failed").Length())
	assert.Contains(t, doc.Find("tr.failed").Text(), "rename")
}

func TestGenerateEmptyRunList(t *testing.T) {
	t.Parallel()

	doc := render(t, nil)
	assert.Zero(t, doc.Find("table#runs tbody tr").Length())
	assert.Contains(t, doc.Find("p.meta").Text(), "0 run(s)")
}
