package spreadsheet

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"taskflow/internal/services"
)

func TestWriteReport(t *testing.T) {
	rep := &services.Report{
		Columns: []string{"id", "title", "milestone"},
		Headers: []string{"Task ID", "Title", "Milestone"},
		Rows: []services.ReportRow{
			{Kind: services.RowTask, TaskID: 1, Cells: []string{"1", "Budget", ""}},
			{Kind: services.RowMilestone, TaskID: 1, Cells: []string{"", "", "Draft"}},
			{Kind: services.RowQuickLog, Cells: []string{"Q-3", "Printer", "-"}},
		},
	}
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, rep))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, []string{"Task ID", "Title", "Milestone"}, rows[0])
	assert.Equal(t, "1", rows[1][0])
	assert.Equal(t, "Budget", rows[1][1])
	assert.Equal(t, []string{"", "", "Draft"}, rows[2])
	assert.Equal(t, []string{"Q-3", "Printer", "-"}, rows[3])
}

func TestWriteEmptyReport(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteReport(&buf, &services.Report{}))
	assert.NotZero(t, buf.Len())
}
