package templates_test

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/csg33k/tss-payroll/internal/domain"
	"github.com/csg33k/tss-payroll/internal/taxconfig"
	"github.com/csg33k/tss-payroll/internal/templates"
)

func renderIndex(t *testing.T, artifacts []domain.Artifact) string {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, templates.Index(artifacts, taxconfig.MustForYear(2024)).Render(context.Background(), &buf))
	return buf.String()
}

func TestIndex_Parameters(t *testing.T) {
	html := renderIndex(t, nil)
	assert.Contains(t, html, "Año fiscal 2024")
	assert.Contains(t, html, "2.87%")
	assert.Contains(t, html, "3.04%")
	assert.Contains(t, html, "7.10%")
	assert.Contains(t, html, "1.20%", "work risk base plus default variable")
	assert.Contains(t, html, "No hay archivos generados.")
}

func TestIndex_ArchiveRows(t *testing.T) {
	html := renderIndex(t, []domain.Artifact{{
		ID:        "a1",
		Kind:      domain.KindDelimitedText,
		Filename:  "TSS_101234567_202403.txt",
		Period:    "03/2024",
		Lines:     2,
		Size:      2048,
		CreatedAt: time.Date(2024, 4, 1, 12, 0, 0, 0, time.UTC),
	}})
	assert.Contains(t, html, `href="/exports/a1"`)
	assert.Contains(t, html, "TSS_101234567_202403.txt")
	assert.Contains(t, html, "2.0 KB")
	assert.Contains(t, html, `hx-delete="/exports/a1"`)
}

func TestIndex_EscapesFilenames(t *testing.T) {
	html := renderIndex(t, []domain.Artifact{{ID: "x", Filename: "<script>alert(1)</script>"}})
	assert.NotContains(t, html, "<script>alert(1)</script>")
	assert.Contains(t, html, "&lt;script&gt;")
}
