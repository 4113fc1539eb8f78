// Package report renders a static HTML summary of recent maintenance runs
// from the audit log.
package report

import (
	"fmt"
	"html/template"
	"io"
	"time"

	"github.com/FallingWithStyle/Github-Notion-Logger-sub003/internal/domain"
)

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Commit Log Maintenance Report</title>
<style>
body { font-family: sans-serif; margin: 2rem; color: #222; }
h1 { font-size: 1.4rem; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; }
th { background: #f3f3f3; }
tr.failed td { background: #fdecec; }
.meta { color: #777; font-size: 0.85rem; margin-top: 1rem; }
</style>
</head>
<body>
<h1>Commit Log Maintenance Report</h1>
<table id="runs">
<thead>
<tr><th>Run</th><th>Operation</th><th>State</th><th>Processed</th><th>Duplicates</th><th>Removed</th><th>Errors</th><th>Duration</th><th>Started</th></tr>
</thead>
<tbody>
{{- range .Runs}}
<tr class="{{.RowClass}}"><td>{{.ShortID}}</td><td>{{.Operation}}</td><td>{{.State}}</td><td>{{.Processed}}</td><td>{{.DuplicatesFound}}</td><td>{{.Removed}}</td><td>{{.Errors}}</td><td>{{.Duration}}</td><td>{{.Started}}</td></tr>
{{- end}}
</tbody>
</table>
<p class="meta">Generated {{.GeneratedAt}} from {{len .Runs}} run(s).</p>
</body>
</html>
`

var tmpl = template.Must(template.New("report").Parse(pageTemplate))

type runRow struct {
	ShortID         string
	Operation       string
	State           domain.RunState
	Processed       int
	DuplicatesFound int
	Removed         int
	Errors          int
	Duration        string
	Started         string
	RowClass        string
}

type pageData struct {
	Runs        []runRow
	GeneratedAt string
}

// Generate writes the HTML report for the given runs, newest first.
func Generate(w io.Writer, runs []domain.RunRecord) error {
	data := pageData{
		GeneratedAt: time.Now().UTC().Format(time.RFC3339),
		Runs:        make([]runRow, 0, len(runs)),
	}
	for _, run := range runs {
		row := runRow{
			ShortID:         shortID(run.RunID),
			Operation:       run.Operation,
			State:           run.State,
			Processed:       run.Processed,
			DuplicatesFound: run.DuplicatesFound,
			Removed:         run.Removed,
			Errors:          run.Errors,
			Duration:        domain.FormatDuration(run.FinishedAt.Sub(run.StartedAt)),
			Started:         run.StartedAt.UTC().Format("2006-01-02 15:04"),
		}
		if run.State == domain.StateFailed {
			row.RowClass = "failed"
		}
		data.Runs = append(data.Runs, row)
	}

	if err := tmpl.Execute(w, data); err != nil {
		return fmt.Errorf("render report: %w", err)
	}
	return nil
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
