package excel

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/mindbridge/counsel-api/model"
	"gorm.io/datatypes"
)

var recordAliases = map[string]string{
	"来访者姓名":                 "client_name",
	"姓名":                    "client_name",
	"client_name":           "client_name",
	"来访者类型":                 "client_type",
	"client_type":           "client_type",
	"性别":                    "gender",
	"gender":                "gender",
	"年龄":                    "age",
	"age":                   "age",
	"学籍号":                   "student_no",
	"student_no":            "student_no",
	"学校":                    "school",
	"school":                "school",
	"年级":                    "grade",
	"grade":                 "grade",
	"班级":                    "class_name",
	"class_name":            "class_name",
	"联系方式":                  "contact",
	"contact":               "contact",
	"紧急联系人姓名":               "emergency_contact",
	"emergency_contact":     "emergency_contact",
	"紧急联系人电话":               "emergency_phone",
	"emergency_phone":       "emergency_phone",
	"咨询来源":                  "referral_source",
	"referral_source":       "referral_source",
	"主诉问题":                  "main_complaint",
	"main_complaint":        "main_complaint",
	"咨询目标":                  "consultation_goal",
	"consultation_goal":     "consultation_goal",
	"访谈次数":                  "interview_count",
	"interview_count":       "interview_count",
	"档案状态":                  "current_status",
	"current_status":        "current_status",
	"访谈日期":                  "interview_date",
	"interview_date":        "interview_date",
	"访谈时间":                  "interview_time",
	"interview_time":        "interview_time",
	"访谈时长":                  "duration",
	"duration":              "duration",
	"访谈状态":                  "visit_status",
	"visit_status":          "visit_status",
	"客观描述":                  "objective_description",
	"objective_description": "objective_description",
	"医生评定":                  "doctor_evaluation",
	"doctor_evaluation":     "doctor_evaluation",
	"后续计划":                  "follow_up_plan",
	"follow_up_plan":        "follow_up_plan",
	"下次访谈计划":                "next_visit_plan",
	"next_visit_plan":       "next_visit_plan",
	"危机状态":                  "crisis_status",
	"crisis_status":         "crisis_status",
	"咨询师姓名":                 "consultant_name",
	"consultant_name":       "consultant_name",
}

// RecordColumns is the header row of the record import template
var RecordColumns = []string{
	"client_name", "client_type", "gender", "age", "student_no", "school",
	"grade", "class_name", "contact", "emergency_contact", "emergency_phone",
	"referral_source", "main_complaint", "consultation_goal", "interview_count",
	"current_status", "interview_date", "interview_time", "duration",
	"visit_status", "objective_description", "doctor_evaluation",
	"follow_up_plan", "next_visit_plan", "crisis_status", "consultant_name",
}

// RecordImport is one parsed row. Session is nil when the row carries no
// interview date.
type RecordImport struct {
	Row       int
	StudentNo string
	Record    model.ConsultationRecord
	Session   *model.ConsultationSession
}

// ParseRecordSheet reads consultation records, each optionally carrying one
// session
func ParseRecordSheet(r io.Reader) ([]RecordImport, *ImportReport, error) {
	table, err := ReadTable(r, recordAliases)
	if err != nil {
		return nil, nil, err
	}
	if !table.Has("client_name") {
		return nil, nil, errMissingColumn("client_name")
	}

	report := &ImportReport{}
	var out []RecordImport
	for _, row := range table.Rows() {
		item, msg := parseRecordRow(row)
		if msg != "" {
			report.AddError(row.Number, "%s", msg)
			continue
		}
		out = append(out, item)
	}
	return out, report, nil
}

func parseRecordRow(row Row) (RecordImport, string) {
	name := row.Get("client_name")
	if name == "" {
		return RecordImport{}, "client name is required"
	}

	rec := model.ConsultationRecord{
		ClientName:       name,
		ClientType:       model.ClientStudent,
		School:           row.Get("school"),
		Grade:            row.Get("grade"),
		ClassName:        row.Get("class_name"),
		Contact:          row.Get("contact"),
		EmergencyContact: row.Get("emergency_contact"),
		EmergencyPhone:   row.Get("emergency_phone"),
		ReferralSource:   row.Get("referral_source"),
		MainComplaint:    row.Get("main_complaint"),
		ConsultationGoal: row.Get("consultation_goal"),
		CurrentStatus:    model.RecordActive,
	}

	switch strings.ToLower(row.Get("client_type")) {
	case "", "student", "学生":
	case "adult", "成人":
		rec.ClientType = model.ClientAdult
	default:
		return RecordImport{}, "unknown client type " + row.Get("client_type")
	}

	if g := row.Get("gender"); g != "" {
		gender, ok := model.ParseGender(g)
		if !ok {
			return RecordImport{}, "unknown gender " + g
		}
		rec.Gender = gender
	}

	age, err := row.Int("age")
	if err != nil {
		return RecordImport{}, err.Error()
	}
	rec.Age = age

	count, err := row.Int("interview_count")
	if err != nil {
		return RecordImport{}, err.Error()
	}
	if count != nil {
		rec.InterviewCount = *count
	}

	status, ok := model.ParseRecordStatus(row.Get("current_status"))
	if !ok {
		return RecordImport{}, "unknown record status " + row.Get("current_status")
	}
	rec.CurrentStatus = status

	item := RecordImport{Row: row.Number, StudentNo: row.Get("student_no"), Record: rec}

	date, present, err := row.Date("interview_date")
	if err != nil {
		return RecordImport{}, err.Error()
	}
	if !present {
		return item, ""
	}

	session, msg := parseSession(row, date)
	if msg != "" {
		return RecordImport{}, msg
	}
	item.Session = session
	return item, ""
}

func parseSession(row Row, date datatypes.Date) (*model.ConsultationSession, string) {
	duration, err := row.Int("duration")
	if err != nil {
		return nil, err.Error()
	}

	status, ok := model.ParseVisitStatus(row.Get("visit_status"), model.VisitCompleted)
	if !ok {
		return nil, "unknown visit status " + row.Get("visit_status")
	}

	crisis, err := json.Marshal(SplitList(row.Get("crisis_status")))
	if err != nil {
		return nil, err.Error()
	}

	return &model.ConsultationSession{
		InterviewDate:        date,
		InterviewTime:        row.Get("interview_time"),
		Duration:             duration,
		VisitStatus:          status,
		ObjectiveDescription: row.Get("objective_description"),
		DoctorEvaluation:     row.Get("doctor_evaluation"),
		FollowUpPlan:         row.Get("follow_up_plan"),
		NextVisitPlan:        row.Get("next_visit_plan"),
		CrisisStatus:         datatypes.JSON(crisis),
		ConsultantName:       row.Get("consultant_name"),
		AttachImages:         datatypes.JSON("[]"),
	}, ""
}
