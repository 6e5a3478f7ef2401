package excel

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mindbridge/counsel-api/model"
	"github.com/xuri/excelize/v2"
	"gorm.io/datatypes"
)

// buildSheet writes rows into a single-sheet workbook
func buildSheet(t *testing.T, rows [][]interface{}) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, values := range rows {
		cell, _ := excelize.CoordinatesToCellName(1, i+1)
		if err := f.SetSheetRow("Sheet1", cell, &values); err != nil {
			t.Fatalf("SetSheetRow failed: %v", err)
		}
	}
	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		t.Fatalf("Write failed: %v", err)
	}
	return &buf
}

func day(y int, m time.Month, d int) datatypes.Date {
	return datatypes.Date(time.Date(y, m, d, 0, 0, 0, 0, time.Local))
}

func TestParseCellDate(t *testing.T) {
	tests := []struct {
		input   string
		want    datatypes.Date
		wantErr bool
	}{
		{"2024-01-09", day(2024, 1, 9), false},
		{"2024/01/09", day(2024, 1, 9), false},
		{"2024/1/9", day(2024, 1, 9), false},
		{"2024-01-09 14:30", day(2024, 1, 9), false},
		{"45300", day(2024, 1, 9), false},
		{"next week", datatypes.Date{}, true},
		{"-3", datatypes.Date{}, true},
	}

	for _, tt := range tests {
		got, err := ParseCellDate(tt.input)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseCellDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			continue
		}
		if !tt.wantErr && !time.Time(got).Equal(time.Time(tt.want)) {
			t.Errorf("ParseCellDate(%q) = %v, want %v", tt.input, time.Time(got), time.Time(tt.want))
		}
	}
}

func TestSplitList(t *testing.T) {
	tests := []struct {
		input string
		want  []string
	}{
		{"09:00-10:00,10:00-11:00", []string{"09:00-10:00", "10:00-11:00"}},
		{"a，b；c", []string{"a", "b", "c"}},
		{`["x", "y"]`, []string{"x", "y"}},
		{"  ", []string{}},
	}

	for _, tt := range tests {
		got := SplitList(tt.input)
		if strings.Join(got, "|") != strings.Join(tt.want, "|") {
			t.Errorf("SplitList(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestImportReportCapsErrors(t *testing.T) {
	report := &ImportReport{}
	for i := 0; i < MaxReportedErrors+5; i++ {
		report.AddError(i+2, "row %d failed", i+2)
	}
	if report.ErrorCount != MaxReportedErrors+5 {
		t.Errorf("ErrorCount = %d, want %d", report.ErrorCount, MaxReportedErrors+5)
	}
	if len(report.Errors) != MaxReportedErrors {
		t.Errorf("len(Errors) = %d, want %d", len(report.Errors), MaxReportedErrors)
	}
	if report.Errors[0].Row != 2 || report.Errors[0].Error != "row 2 failed" {
		t.Errorf("first error = %+v", report.Errors[0])
	}
}

func TestParseScheduleSheet(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"日期", "时间段", "最大预约数", "剩余可预约数", "咨询师姓名"},
		{"2024-03-04", "09:00-10:00,10:00-11:00", 10, 10, "Wang"},
		{"", "", "", "", ""},
		{"2024-03-05", "9:00-10:00", "", 0, ""},
		{"not a date", "09:00-10:00", "", "", ""},
		{"2024-03-06", "", "", "", ""},
		{"2024-03-07", "11:00-10:00", "", "", ""},
	})

	rows, report, err := ParseScheduleSheet(buf)
	if err != nil {
		t.Fatalf("ParseScheduleSheet failed: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("parsed %d rows, want 2", len(rows))
	}

	first := rows[0]
	if first.Row != 2 || first.Counselor != "Wang" || len(first.Slots) != 2 {
		t.Errorf("unexpected first row: %+v", first)
	}
	if first.SlotCapacity != 5 || !first.Available {
		t.Errorf("first row capacity=%d available=%v, want 5 and true", first.SlotCapacity, first.Available)
	}

	second := rows[1]
	if second.Row != 4 || second.Slots[0].Start != "09:00" {
		t.Errorf("unexpected second row: %+v", second)
	}
	if second.SlotCapacity != DefaultSlotCapacity || second.Available {
		t.Errorf("second row capacity=%d available=%v, want %d and false", second.SlotCapacity, second.Available, DefaultSlotCapacity)
	}

	if report.ErrorCount != 3 {
		t.Errorf("ErrorCount = %d, want 3: %+v", report.ErrorCount, report.Errors)
	}
	wantRows := []int{5, 6, 7}
	for i, e := range report.Errors {
		if e.Row != wantRows[i] {
			t.Errorf("error %d on row %d, want %d", i, e.Row, wantRows[i])
		}
	}
}

func TestParseScheduleSheetMissingColumn(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"time_slots"},
		{"09:00-10:00"},
	})
	if _, _, err := ParseScheduleSheet(buf); err == nil {
		t.Error("expected error for sheet without a date column")
	}
}

func TestParseRecordSheet(t *testing.T) {
	buf := buildSheet(t, [][]interface{}{
		{"来访者姓名", "性别", "年龄", "学籍号", "档案状态", "访谈日期", "访谈时长", "访谈状态", "危机状态"},
		{"Li Si", "女", 15, "S001", "进行中", "2024-04-01", 50, "", "自伤,失眠"},
		{"Zhao Liu", "male", "", "", "已结案", "", "", "", ""},
		{"Bad Gender", "x", "", "", "", "", "", "", ""},
		{"Bad Status", "", "", "", "paused", "", "", "", ""},
	})

	items, report, err := ParseRecordSheet(buf)
	if err != nil {
		t.Fatalf("ParseRecordSheet failed: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("parsed %d records, want 2 (errors: %+v)", len(items), report.Errors)
	}

	li := items[0]
	if li.StudentNo != "S001" || li.Record.Gender != model.GenderFemale || li.Record.Age == nil || *li.Record.Age != 15 {
		t.Errorf("unexpected first record: %+v", li)
	}
	if li.Session == nil {
		t.Fatal("first record should carry a session")
	}
	if li.Session.VisitStatus != model.VisitCompleted {
		t.Errorf("visit status = %q, want %q", li.Session.VisitStatus, model.VisitCompleted)
	}
	if string(li.Session.CrisisStatus) != `["自伤","失眠"]` {
		t.Errorf("crisis status = %s", li.Session.CrisisStatus)
	}

	zhao := items[1]
	if zhao.Record.CurrentStatus != model.RecordClosed || zhao.Session != nil {
		t.Errorf("unexpected second record: %+v", zhao)
	}

	if report.ErrorCount != 2 {
		t.Errorf("ErrorCount = %d, want 2", report.ErrorCount)
	}
}

func TestInterviewExportRoundTrip(t *testing.T) {
	items := []model.InterviewAssessment{
		{StudentName: "Zhang San", Organization: "No.1 Middle School", Grade: "8", ClassName: "3", InterviewCount: 2, Status: model.InterviewInProgress, CreatedAt: time.Now()},
		{StudentName: "Li Si", InterviewCount: 1, Status: model.InterviewCompleted, FollowUpPlan: "weekly", CreatedAt: time.Now()},
	}

	var buf bytes.Buffer
	if err := ExportInterviews(&buf, items); err != nil {
		t.Fatalf("ExportInterviews failed: %v", err)
	}

	parsed, report, err := ParseInterviewSheet(&buf)
	if err != nil {
		t.Fatalf("ParseInterviewSheet failed: %v", err)
	}
	if report.ErrorCount != 0 {
		t.Errorf("unexpected errors: %+v", report.Errors)
	}
	if len(parsed) != len(items) {
		t.Fatalf("parsed %d items, want %d", len(parsed), len(items))
	}
	for i := range items {
		if parsed[i].StudentName != items[i].StudentName ||
			parsed[i].InterviewCount != items[i].InterviewCount ||
			parsed[i].Status != items[i].Status ||
			parsed[i].FollowUpPlan != items[i].FollowUpPlan {
			t.Errorf("item %d = %+v, want %+v", i, parsed[i], items[i])
		}
	}
}

func TestTemplatesParse(t *testing.T) {
	var buf bytes.Buffer
	if err := WriteTemplate(&buf, TemplateSchedule); err != nil {
		t.Fatalf("schedule template: %v", err)
	}
	rows, _, err := ParseScheduleSheet(&buf)
	if err != nil || len(rows) != 1 {
		t.Errorf("schedule template parsed %d rows, err %v", len(rows), err)
	}

	buf.Reset()
	if err := WriteTemplate(&buf, TemplateRecord); err != nil {
		t.Fatalf("record template: %v", err)
	}
	records, report, err := ParseRecordSheet(&buf)
	if err != nil || len(records) != 1 {
		t.Errorf("record template parsed %d rows, err %v, report %+v", len(records), err, report)
	}

	buf.Reset()
	if err := WriteTemplate(&buf, TemplateInterview); err != nil {
		t.Fatalf("interview template: %v", err)
	}
	interviews, _, err := ParseInterviewSheet(&buf)
	if err != nil || len(interviews) != 1 {
		t.Errorf("interview template parsed %d rows, err %v", len(interviews), err)
	}

	if err := WriteTemplate(&buf, "unknown"); err == nil {
		t.Error("expected error for unknown template")
	}
}
