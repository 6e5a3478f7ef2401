package report

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/jung-kurt/gofpdf"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/timefmt"
)

const unicodeFamily = "report"

// Generator renders consultation records as PDF documents. With a TTF font
// configured any script prints; without one the core Arial font is used and
// text outside cp1252 is lost.
type Generator struct {
	fontPath string
}

// NewGenerator creates a Generator. fontPath may be empty.
func NewGenerator(fontPath string) *Generator {
	return &Generator{fontPath: fontPath}
}

type writer struct {
	pdf    *gofpdf.Fpdf
	family string
	tr     func(string) string
}

func (g *Generator) newWriter() *writer {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(15, 15, 15)
	pdf.SetAutoPageBreak(true, 15)

	w := &writer{pdf: pdf, family: "Arial", tr: pdf.UnicodeTranslatorFromDescriptor("")}
	if g.fontPath != "" {
		pdf.AddUTF8Font(unicodeFamily, "", g.fontPath)
		pdf.AddUTF8Font(unicodeFamily, "B", g.fontPath)
		if pdf.Ok() {
			w.family = unicodeFamily
			w.tr = func(s string) string { return s }
		} else {
			// unreadable font file, fall back to the core font
			pdf.ClearError()
		}
	}
	return w
}

func (w *writer) heading(text string) {
	w.pdf.SetFont(w.family, "B", 13)
	w.pdf.CellFormat(0, 9, w.tr(text), "B", 1, "L", false, 0, "")
	w.pdf.Ln(2)
}

func (w *writer) field(label, value string) {
	if value == "" {
		value = "-"
	}
	w.pdf.SetFont(w.family, "B", 10)
	w.pdf.CellFormat(45, 7, w.tr(label), "", 0, "L", false, 0, "")
	w.pdf.SetFont(w.family, "", 10)
	w.pdf.MultiCell(0, 7, w.tr(value), "", "L", false)
}

// RecordPDF writes a report of the record and its sessions to out
func (g *Generator) RecordPDF(out io.Writer, record *model.ConsultationRecord, counselorName string, generatedAt time.Time) error {
	w := g.newWriter()
	w.pdf.SetTitle(w.tr("Consultation record "+record.RecordNo), false)
	w.pdf.AddPage()

	w.pdf.SetFont(w.family, "B", 16)
	w.pdf.CellFormat(0, 12, w.tr("Consultation Record"), "", 1, "C", false, 0, "")
	w.pdf.SetFont(w.family, "", 9)
	w.pdf.CellFormat(0, 6, w.tr(fmt.Sprintf("No. %s    Generated %s", record.RecordNo, timefmt.FormatMinute(generatedAt))), "", 1, "C", false, 0, "")
	w.pdf.Ln(4)

	w.heading("Client")
	w.field("Name", record.ClientName)
	w.field("Type", string(record.ClientType))
	w.field("Gender", string(record.Gender))
	w.field("Age", optionalInt(record.Age))
	w.field("School", record.School)
	w.field("Grade / Class", strings.TrimSpace(record.Grade+" "+record.ClassName))
	w.field("Contact", record.Contact)
	w.field("Emergency contact", strings.TrimSpace(record.EmergencyContact+" "+record.EmergencyPhone))
	w.pdf.Ln(2)

	w.heading("Case")
	w.field("Counselor", counselorName)
	w.field("Referral source", record.ReferralSource)
	w.field("Main complaint", record.MainComplaint)
	w.field("Goal", record.ConsultationGoal)
	w.field("Interviews", strconv.Itoa(record.InterviewCount))
	w.field("Status", string(record.CurrentStatus))
	w.pdf.Ln(2)

	for _, s := range record.Sessions {
		w.heading(fmt.Sprintf("Session %d", s.SessionNumber))
		w.field("Date", strings.TrimSpace(timefmt.FormatDate(s.InterviewDate)+" "+s.InterviewTime))
		w.field("Duration (min)", optionalInt(s.Duration))
		w.field("Status", string(s.VisitStatus))
		w.field("Observation", s.ObjectiveDescription)
		w.field("Evaluation", s.DoctorEvaluation)
		w.field("Follow-up", s.FollowUpPlan)
		w.field("Next visit", s.NextVisitPlan)
		w.field("Crisis", strings.Join(jsonList(s.CrisisStatus), ", "))
		w.field("Consultant", s.ConsultantName)
		w.pdf.Ln(2)
	}

	if err := w.pdf.Output(out); err != nil {
		return fmt.Errorf("error generating record PDF: %w", err)
	}
	return nil
}

func optionalInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func jsonList(raw []byte) []string {
	var items []string
	if len(raw) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil
	}
	return items
}
