package excel

import (
	"fmt"
	"io"
	"strconv"

	"github.com/mindbridge/counsel-api/model"
	"github.com/xuri/excelize/v2"
)

var interviewAliases = map[string]string{
	"学生姓名":              "student_name",
	"姓名":                "student_name",
	"std_name":          "student_name",
	"student_name":      "student_name",
	"学校":                "organization",
	"std_school":        "organization",
	"organization":      "organization",
	"年级":                "grade",
	"std_grade":         "grade",
	"grade":             "grade",
	"班级":                "class_name",
	"std_class":         "class_name",
	"class_name":        "class_name",
	"访谈次数":              "interview_count",
	"interview_count":   "interview_count",
	"访谈状态":              "status",
	"interview_status":  "status",
	"status":            "status",
	"访谈类型":              "interview_type",
	"interview_type":    "interview_type",
	"医生评定":              "doctor_assessment",
	"doctor_evaluation": "doctor_assessment",
	"doctor_assessment": "doctor_assessment",
	"后续计划":              "follow_up_plan",
	"follow_up_plan":    "follow_up_plan",
}

// interviewColumns is the export and template layout
var interviewColumns = []struct {
	Header string
	Width  float64
}{
	{"student_name", 16},
	{"organization", 24},
	{"grade", 10},
	{"class_name", 10},
	{"interview_count", 16},
	{"status", 14},
	{"interview_type", 16},
	{"doctor_assessment", 40},
	{"follow_up_plan", 40},
	{"created_at", 20},
}

var interviewStatusAliases = map[string]model.InterviewStatus{
	"pending":     model.InterviewPending,
	"待处理":         model.InterviewPending,
	"in_progress": model.InterviewInProgress,
	"进行中":         model.InterviewInProgress,
	"completed":   model.InterviewCompleted,
	"已完成":         model.InterviewCompleted,
}

// ParseInterviewSheet reads interview assessments from a workbook
func ParseInterviewSheet(r io.Reader) ([]model.InterviewAssessment, *ImportReport, error) {
	table, err := ReadTable(r, interviewAliases)
	if err != nil {
		return nil, nil, err
	}
	if !table.Has("student_name") {
		return nil, nil, errMissingColumn("student_name")
	}

	report := &ImportReport{}
	var out []model.InterviewAssessment
	for _, row := range table.Rows() {
		name := row.Get("student_name")
		if name == "" {
			report.AddError(row.Number, "student name is required")
			continue
		}

		count := 1
		if n, err := row.Int("interview_count"); err != nil {
			report.AddError(row.Number, "%v", err)
			continue
		} else if n != nil {
			if *n < 1 {
				report.AddError(row.Number, "interview count must be at least 1")
				continue
			}
			count = *n
		}

		status := model.InterviewPending
		if raw := row.Get("status"); raw != "" {
			s, ok := interviewStatusAliases[raw]
			if !ok {
				report.AddError(row.Number, "unknown status %q", raw)
				continue
			}
			status = s
		}

		out = append(out, model.InterviewAssessment{
			StudentName:      name,
			Organization:     row.Get("organization"),
			Grade:            row.Get("grade"),
			ClassName:        row.Get("class_name"),
			InterviewCount:   count,
			Status:           status,
			InterviewType:    row.Get("interview_type"),
			DoctorAssessment: row.Get("doctor_assessment"),
			FollowUpPlan:     row.Get("follow_up_plan"),
		})
	}
	return out, report, nil
}

// ExportInterviews writes the assessments as an xlsx workbook
func ExportInterviews(w io.Writer, items []model.InterviewAssessment) error {
	headers := make([]string, len(interviewColumns))
	widths := make([]float64, len(interviewColumns))
	for i, c := range interviewColumns {
		headers[i] = c.Header
		widths[i] = c.Width
	}

	rows := make([][]interface{}, 0, len(items))
	for _, it := range items {
		rows = append(rows, []interface{}{
			it.StudentName,
			it.Organization,
			it.Grade,
			it.ClassName,
			it.InterviewCount,
			string(it.Status),
			it.InterviewType,
			it.DoctorAssessment,
			it.FollowUpPlan,
			it.CreatedAt.Format("2006-01-02 15:04"),
		})
	}
	return writeWorkbook(w, "Interviews", headers, widths, rows)
}

func writeWorkbook(w io.Writer, sheet string, headers []string, widths []float64, rows [][]interface{}) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return err
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
	})
	if err != nil {
		return err
	}

	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
		col, _ := excelize.ColumnNumberToName(i + 1)
		if i < len(widths) {
			if err := f.SetColWidth(sheet, col, col, widths[i]); err != nil {
				return err
			}
		}
	}
	last, _ := excelize.CoordinatesToCellName(len(headers), 1)
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}

	for r, values := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, r+2)
		if err := f.SetSheetRow(sheet, cell, &values); err != nil {
			return fmt.Errorf("row %d: %w", r+2, err)
		}
	}

	return f.Write(w)
}

func errMissingColumn(column string) error {
	return fmt.Errorf("sheet must contain a %s column", strconv.Quote(column))
}
