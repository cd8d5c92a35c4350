// Package record writes the Markdown decommission record kept as an
// audit trail after an application is removed.
package record

import (
	"fmt"
	"io"
	"os"
	"text/template"
	"time"
)

// Phase is one step of the decommission run and its outcome.
type Phase struct {
	Name      string
	Completed bool
	Detail    string
}

// Record captures everything the audit trail needs about one
// decommission run.
type Record struct {
	App       string
	Operator  string
	Reason    string
	FormerURL string
	Date      time.Time
	DryRun    bool
	Phases    []Phase
}

const recordTemplate = `---
app: {{ .App }}
date: {{ .Date.Format "2006-01-02" }}
operator: {{ .Operator }}
reason: {{ if .Reason }}{{ .Reason }}{{ else }}not recorded{{ end }}
former_url: {{ if .FormerURL }}{{ .FormerURL }}{{ else }}n/a{{ end }}
dry_run: {{ .DryRun }}
---

# Decommission record: {{ .App }}

Removed on {{ .Date.Format "2006-01-02 15:04 MST" }}.

## Cleanup checklist

{{ range .Phases -}}
- [{{ if .Completed }}x{{ else }} {{ end }}] {{ .Name }}{{ if .Detail }} - {{ .Detail }}{{ end }}
{{ end }}
## Follow-ups

- [ ] Purge the soft-deleted Key Vault after the retention period
- [ ] Remove CI/CD pipelines referencing {{ .App }}
- [ ] Archive the source repository
`

var tmpl = template.Must(template.New("record").Parse(recordTemplate))

// Write renders the record as Markdown.
func Write(w io.Writer, rec Record) error {
	if err := tmpl.Execute(w, rec); err != nil {
		return fmt.Errorf("failed to render decommission record: %w", err)
	}
	return nil
}

// WriteFile renders the record to path, refusing to overwrite an
// existing record.
func WriteFile(path string, rec Record) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644) // #nosec G302 - audit record, not a secret
	if err != nil {
		return fmt.Errorf("failed to create decommission record: %w", err)
	}
	defer f.Close()
	return Write(f, rec)
}

// Filename returns the conventional record file name for an app.
func Filename(app string, date time.Time) string {
	return fmt.Sprintf("decommission-%s-%s.md", app, date.Format("2006-01-02"))
}
