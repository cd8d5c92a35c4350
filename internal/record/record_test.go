package record

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleRecord() Record {
	return Record{
		App:       "billing",
		Operator:  "jdoe",
		Reason:    "service retired",
		FormerURL: "https://billing.apps.example.com",
		Date:      time.Date(2026, 8, 31, 14, 30, 0, 0, time.UTC),
		Phases: []Phase{
			{Name: "Kubernetes resources", Completed: true, Detail: "5 resources deleted"},
			{Name: "Key Vault", Completed: true},
			{Name: "DNS record", Completed: false, Detail: "skipped"},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleRecord()))
	out := buf.String()

	assert.Contains(t, out, "app: billing")
	assert.Contains(t, out, "date: 2026-08-31")
	assert.Contains(t, out, "operator: jdoe")
	assert.Contains(t, out, "former_url: https://billing.apps.example.com")
	assert.Contains(t, out, "- [x] Kubernetes resources - 5 resources deleted")
	assert.Contains(t, out, "- [x] Key Vault")
	assert.Contains(t, out, "- [ ] DNS record - skipped")
	assert.Contains(t, out, "Purge the soft-deleted Key Vault")
}

func TestWrite_DryRunMarked(t *testing.T) {
	rec := sampleRecord()
	rec.DryRun = true

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rec))

	assert.Contains(t, buf.String(), "dry_run: true")
}

func TestWrite_EmptyOptionalFields(t *testing.T) {
	rec := sampleRecord()
	rec.Reason = ""
	rec.FormerURL = ""

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, rec))

	assert.Contains(t, buf.String(), "reason: not recorded")
	assert.Contains(t, buf.String(), "former_url: n/a")
}

func TestWriteFile_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), Filename("billing", time.Now()))

	require.NoError(t, WriteFile(path, sampleRecord()))
	err := WriteFile(path, sampleRecord())
	require.Error(t, err)

	data, readErr := os.ReadFile(path)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), "# Decommission record: billing")
}

func TestFilename(t *testing.T) {
	date := time.Date(2026, 8, 31, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "decommission-billing-2026-08-31.md", Filename("billing", date))
}
