// Package report renders appointment lists for download.
package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"

	"medireach/internal/calendar"
	"medireach/internal/model"
)

// XLSXContentType is the MIME type of AppointmentsXLSX output.
const XLSXContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

const appointmentsSheet = "Appointments"

var appointmentColumns = []struct {
	header string
	width  float64
	value  func(a *model.Appointment, loc *time.Location) interface{}
}{
	{"Date", 12, func(a *model.Appointment, loc *time.Location) interface{} {
		return a.Date.In(loc).Format(calendar.DateLayout)
	}},
	{"Time", 10, func(a *model.Appointment, _ *time.Location) interface{} { return a.Time }},
	{"Patient", 24, func(a *model.Appointment, _ *time.Location) interface{} {
		if a.Patient == nil {
			return ""
		}
		return a.Patient.Name
	}},
	{"Patient Email", 28, func(a *model.Appointment, _ *time.Location) interface{} {
		if a.Patient == nil {
			return ""
		}
		return a.Patient.Email
	}},
	{"Doctor", 22, func(a *model.Appointment, _ *time.Location) interface{} { return a.Doctor }},
	{"Department", 18, func(a *model.Appointment, _ *time.Location) interface{} { return string(a.Department) }},
	{"Status", 12, func(a *model.Appointment, _ *time.Location) interface{} { return string(a.Status) }},
	{"Reason", 36, func(a *model.Appointment, _ *time.Location) interface{} { return a.Reason }},
	{"Notes", 36, func(a *model.Appointment, _ *time.Location) interface{} { return a.Notes }},
	{"Reminder Sent", 14, func(a *model.Appointment, _ *time.Location) interface{} {
		if a.ReminderSent {
			return "Yes"
		}
		return "No"
	}},
}

// AppointmentsXLSX writes items to a single-sheet workbook. Dates are rendered
// as calendar days in loc.
func AppointmentsXLSX(items []model.Appointment, loc *time.Location) ([]byte, error) {
	if loc == nil {
		loc = time.Local
	}

	f := excelize.NewFile()
	defer f.Close()

	index, err := f.NewSheet(appointmentsSheet)
	if err != nil {
		return nil, fmt.Errorf("create sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if err := f.DeleteSheet("Sheet1"); err != nil {
		return nil, fmt.Errorf("delete default sheet: %w", err)
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#E6F3FF"}, Pattern: 1},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})
	if err != nil {
		return nil, fmt.Errorf("create header style: %w", err)
	}

	for i, col := range appointmentColumns {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(appointmentsSheet, cell, col.header); err != nil {
			return nil, fmt.Errorf("set header %s: %w", cell, err)
		}
		if err := f.SetCellStyle(appointmentsSheet, cell, cell, headerStyle); err != nil {
			return nil, fmt.Errorf("style header %s: %w", cell, err)
		}
		name, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetColWidth(appointmentsSheet, name, name, col.width); err != nil {
			return nil, fmt.Errorf("set column width: %w", err)
		}
	}

	for r := range items {
		row := make([]interface{}, len(appointmentColumns))
		for i, col := range appointmentColumns {
			row[i] = col.value(&items[r], loc)
		}
		cell, err := excelize.CoordinatesToCellName(1, r+2)
		if err != nil {
			return nil, err
		}
		if err := f.SetSheetRow(appointmentsSheet, cell, &row); err != nil {
			return nil, fmt.Errorf("write row %d: %w", r+2, err)
		}
	}

	if err := f.SetPanes(appointmentsSheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	}); err != nil {
		return nil, fmt.Errorf("freeze header: %w", err)
	}

	var buf bytes.Buffer
	if _, err := f.WriteTo(&buf); err != nil {
		return nil, fmt.Errorf("write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

// ExportFilename names an export generated at t.
func ExportFilename(t time.Time) string {
	return "appointments-" + t.Format("20060102-150405") + ".xlsx"
}
