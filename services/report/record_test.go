package report

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/pdfvalidation"
	"gorm.io/datatypes"
)

func sampleRecord() *model.ConsultationRecord {
	age := 15
	duration := 50
	return &model.ConsultationRecord{
		RecordNo:       "RC202401010001",
		ClientName:     "Li Si",
		ClientType:     model.ClientStudent,
		Gender:         model.GenderFemale,
		Age:            &age,
		School:         "No.1 Middle School",
		MainComplaint:  "sleep problems",
		InterviewCount: 2,
		CurrentStatus:  model.RecordActive,
		Sessions: []model.ConsultationSession{
			{SessionNumber: 1, InterviewDate: datatypes.Date(time.Now()), Duration: &duration, VisitStatus: model.VisitCompleted, CrisisStatus: datatypes.JSON(`["none"]`)},
			{SessionNumber: 2, VisitStatus: model.VisitScheduled, DoctorEvaluation: strings.Repeat("long evaluation text ", 60)},
		},
	}
}

func TestRecordPDF(t *testing.T) {
	var buf bytes.Buffer
	if err := NewGenerator("").RecordPDF(&buf, sampleRecord(), "Wang", time.Now()); err != nil {
		t.Fatalf("RecordPDF failed: %v", err)
	}

	result, err := pdfvalidation.Check(buf.Bytes(), pdfvalidation.DefaultLimits)
	if err != nil {
		t.Fatalf("generated PDF is invalid: %v", err)
	}
	t.Logf("report has %d page(s), %d bytes", result.PageCount, result.FileSize)
}

func TestRecordPDFMissingFont(t *testing.T) {
	var buf bytes.Buffer
	g := NewGenerator("/nonexistent/font.ttf")
	if err := g.RecordPDF(&buf, sampleRecord(), "Wang", time.Now()); err != nil {
		t.Fatalf("RecordPDF should fall back to the core font: %v", err)
	}
	if !bytes.HasPrefix(buf.Bytes(), []byte("%PDF-")) {
		t.Error("output is not a PDF")
	}
}

func TestJSONList(t *testing.T) {
	if got := jsonList([]byte(`["a","b"]`)); len(got) != 2 {
		t.Errorf("jsonList = %v, want 2 items", got)
	}
	if got := jsonList([]byte(`not json`)); got != nil {
		t.Errorf("jsonList(invalid) = %v, want nil", got)
	}
	if got := optionalInt(nil); got != "" {
		t.Errorf("optionalInt(nil) = %q", got)
	}
}
