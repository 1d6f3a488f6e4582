package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"taskflow/internal/services"
)

func sampleReport(columns int) *services.Report {
	cols := []string{"id", "title", "status", "priority", "assigned_to", "deadline", "folder", "milestone", "milestone_status", "milestone_deadline"}[:columns]
	headers := make([]string, len(cols))
	copy(headers, cols)
	row := func(kind string) services.ReportRow {
		cells := make([]string, len(cols))
		for i := range cells {
			cells[i] = "Überprüfung der Quartalsberichte"
		}
		return services.ReportRow{Kind: kind, Cells: cells}
	}
	rep := &services.Report{
		Title:       "Task & Milestone Report",
		Columns:     cols,
		Headers:     headers,
		GeneratedAt: time.Date(2026, 2, 10, 9, 0, 0, 0, time.UTC),
		Filters:     "From - | To - | Status All",
	}
	for i := 0; i < 60; i++ {
		rep.Rows = append(rep.Rows, row(services.RowTask), row(services.RowMilestone))
	}
	return rep
}

func TestWriteReport(t *testing.T) {
	for _, n := range []int{3, 10} {
		var buf bytes.Buffer
		g := NewReportGenerator("", "")
		require.NoError(t, g.Write(&buf, sampleReport(n)))
		assert.True(t, bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")))
	}
}

func TestMissingFontFallsBackToCoreFont(t *testing.T) {
	var buf bytes.Buffer
	g := NewReportGenerator("/does/not/exist.ttf", "/no/logo.png")
	require.NoError(t, g.Write(&buf, &services.Report{Title: "Empty", Columns: []string{"id"}, Headers: []string{"Task ID"}}))
	assert.NotZero(t, buf.Len())
}

func TestColumnWidthsFillPage(t *testing.T) {
	widths := columnWidths([]string{"id", "title", "unknown"}, 190)
	assert.InDelta(t, 190, widths[0]+widths[1]+widths[2], 0.001)
	assert.Greater(t, widths[1], widths[0])
}
