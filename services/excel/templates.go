package excel

import (
	"fmt"
	"io"
)

// Template names served by the download endpoints
const (
	TemplateSchedule  = "schedule"
	TemplateInterview = "interview"
	TemplateRecord    = "record"
)

// WriteTemplate writes an empty import workbook with one example row
func WriteTemplate(w io.Writer, name string) error {
	switch name {
	case TemplateSchedule:
		return writeWorkbook(w, "Schedule",
			[]string{"schedule_date", "time_slots", "max_appointments", "available_slots", "counselor_name"},
			[]float64{16, 36, 18, 18, 18},
			[][]interface{}{{"2025-01-06", "09:00-10:00,10:00-11:00", 10, 10, ""}})
	case TemplateInterview:
		headers := make([]string, 0, len(interviewColumns)-1)
		widths := make([]float64, 0, len(interviewColumns)-1)
		for _, c := range interviewColumns[:len(interviewColumns)-1] {
			headers = append(headers, c.Header)
			widths = append(widths, c.Width)
		}
		return writeWorkbook(w, "Interviews", headers, widths,
			[][]interface{}{{"Zhang San", "No.1 Middle School", "Grade 8", "Class 3", 1, "pending", "initial", "", ""}})
	case TemplateRecord:
		widths := make([]float64, len(RecordColumns))
		for i := range widths {
			widths[i] = 18
		}
		example := []interface{}{
			"Li Si", "student", "female", 15, "S20250001", "No.1 Middle School",
			"Grade 9", "Class 2", "13800000000", "Li Wu", "13900000000",
			"self", "sleep problems", "improve sleep", 1,
			"active", "2025-01-06", "09:00", 50,
			"completed", "", "", "", "", "", "",
		}
		return writeWorkbook(w, "Records", RecordColumns, widths, [][]interface{}{example})
	}
	return fmt.Errorf("unknown template %q", name)
}
