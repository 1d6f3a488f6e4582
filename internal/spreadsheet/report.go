package spreadsheet

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"taskflow/internal/services"
)

// SheetName is the worksheet holding the report.
const SheetName = "Tasks Report"

// WriteReport renders rep as an .xlsx workbook with a bold header row.
// Milestone rows are shaded.
func WriteReport(w io.Writer, rep *services.Report) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		return err
	}
	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"0D6EFD"}},
	})
	if err != nil {
		return err
	}
	milestoneStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Italic: true},
		Fill: excelize.Fill{Type: "pattern", Pattern: 1, Color: []string{"F0F0F0"}},
	})
	if err != nil {
		return err
	}

	header := make([]interface{}, len(rep.Headers))
	for i, h := range rep.Headers {
		header[i] = h
	}
	if err := f.SetSheetRow(SheetName, "A1", &header); err != nil {
		return err
	}
	if len(rep.Headers) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(rep.Headers), 1)
		if err := f.SetCellStyle(SheetName, "A1", last, headerStyle); err != nil {
			return err
		}
		lastCol, _ := excelize.ColumnNumberToName(len(rep.Headers))
		if err := f.SetColWidth(SheetName, "A", lastCol, 20); err != nil {
			return err
		}
	}

	for i, row := range rep.Rows {
		r := i + 2
		values := make([]interface{}, len(row.Cells))
		for j, c := range row.Cells {
			values[j] = c
		}
		start := fmt.Sprintf("A%d", r)
		if err := f.SetSheetRow(SheetName, start, &values); err != nil {
			return err
		}
		if row.Kind == services.RowMilestone && len(row.Cells) > 0 {
			end, _ := excelize.CoordinatesToCellName(len(row.Cells), r)
			if err := f.SetCellStyle(SheetName, start, end, milestoneStyle); err != nil {
				return err
			}
		}
	}
	if err := f.SetPanes(SheetName, &excelize.Panes{Freeze: true, YSplit: 1, TopLeftCell: "A2", ActivePane: "bottomLeft"}); err != nil {
		return err
	}

	_, err = f.WriteTo(w)
	return err
}
