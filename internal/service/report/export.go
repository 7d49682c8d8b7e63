package report

import (
	"fmt"

	"github.com/geopoint/geopoint-backend-go/internal/domain/report"
	"github.com/xuri/excelize/v2"
)

const (
	sheetEmployees = "Employees"
	sheetUnits     = "Units"
	sheetDays      = "Days"
	xlsxMIME       = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
)

func renderWorkbook(resp report.OvertimeReportResponse) (report.ExportFile, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheetEmployees); err != nil {
		return report.ExportFile{}, fmt.Errorf("%w: %v", report.ErrExportFailed, err)
	}
	for _, name := range []string{sheetUnits, sheetDays} {
		if _, err := f.NewSheet(name); err != nil {
			return report.ExportFile{}, fmt.Errorf("%w: %v", report.ErrExportFailed, err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "#FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return report.ExportFile{}, fmt.Errorf("%w: %v", report.ErrExportFailed, err)
	}

	employees := [][]any{{"Employee ID", "Employee", "Days worked", "Worked hours", "Extra hours", "Extra minutes"}}
	for _, e := range resp.Employees {
		employees = append(employees, []any{
			e.EmployeeID, e.EmployeeName, e.DaysWorked,
			e.WorkedHours.InexactFloat64(), e.ExtraHours.InexactFloat64(), e.ExtraMinutes,
		})
	}
	employees = append(employees, []any{"", "Total", "", report.Hours(resp.TotalWorkedMinutes).InexactFloat64(),
		resp.TotalExtraHours.InexactFloat64(), resp.TotalExtraMinutes})

	units := [][]any{{"Unit", "Extra hours", "Extra minutes"}}
	for _, u := range resp.Units {
		units = append(units, []any{u.Unit, u.ExtraHours.InexactFloat64(), u.ExtraMinutes})
	}

	days := [][]any{{"Day", "Employee", "Unit", "First entry", "Last exit", "Worked minutes", "Baseline minutes", "Extra minutes"}}
	for _, d := range resp.Days {
		days = append(days, []any{
			d.Day, d.EmployeeName, d.Unit, d.FirstEntry, d.LastExit,
			d.WorkedMinutes, d.BaselineMinutes, d.ExtraMinutes,
		})
	}

	for sheet, rows := range map[string][][]any{sheetEmployees: employees, sheetUnits: units, sheetDays: days} {
		if err := writeRows(f, sheet, rows, headerStyle); err != nil {
			return report.ExportFile{}, fmt.Errorf("%w: %v", report.ErrExportFailed, err)
		}
	}
	f.SetColWidth(sheetEmployees, "A", "A", 38)
	f.SetColWidth(sheetEmployees, "B", "B", 28)
	f.SetColWidth(sheetUnits, "A", "A", 28)
	f.SetColWidth(sheetDays, "B", "C", 24)
	f.SetActiveSheet(0)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return report.ExportFile{}, fmt.Errorf("%w: %v", report.ErrExportFailed, err)
	}

	return report.ExportFile{
		Filename:    fmt.Sprintf("overtime_%s_%s.xlsx", resp.StartDate, resp.EndDate),
		ContentType: xlsxMIME,
		Content:     buf.Bytes(),
	}, nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	if len(rows) == 0 {
		return nil
	}
	end, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	return f.SetCellStyle(sheet, "A1", end, headerStyle)
}
