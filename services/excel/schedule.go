package excel

import (
	"io"

	"github.com/mindbridge/counsel-api/utils/timefmt"
	"gorm.io/datatypes"
)

// DefaultSlotCapacity is how many appointments one slot takes when the
// sheet does not say
const DefaultSlotCapacity = 5

var scheduleAliases = map[string]string{
	"日期":               "schedule_date",
	"排班日期":             "schedule_date",
	"date":             "schedule_date",
	"work_date":        "schedule_date",
	"schedule_date":    "schedule_date",
	"时间段":              "time_slots",
	"排班时间段":            "time_slots",
	"时间段数组":            "time_slots",
	"time_slots":       "time_slots",
	"work_schedules":   "time_slots",
	"work_time":        "time_slots",
	"最大预约数":            "max_appointments",
	"max_appointments": "max_appointments",
	"剩余可预约数":           "available_slots",
	"available_slots":  "available_slots",
	"咨询师":              "counselor",
	"咨询师姓名":            "counselor",
	"counselor":        "counselor",
	"counselor_name":   "counselor",
}

// ScheduleSlot is one "HH:MM-HH:MM" window
type ScheduleSlot struct {
	Start string
	End   string
}

// ScheduleRow is one parsed day of a schedule sheet
type ScheduleRow struct {
	Row          int
	Date         datatypes.Date
	Counselor    string
	Slots        []ScheduleSlot
	SlotCapacity int
	Available    bool
}

// ParseScheduleSheet reads a schedule workbook. Rows that cannot be used
// are recorded in the report and skipped.
func ParseScheduleSheet(r io.Reader) ([]ScheduleRow, *ImportReport, error) {
	table, err := ReadTable(r, scheduleAliases)
	if err != nil {
		return nil, nil, err
	}
	if !table.Has("schedule_date") {
		return nil, nil, errMissingColumn("schedule_date")
	}

	report := &ImportReport{}
	var out []ScheduleRow
	for _, row := range table.Rows() {
		date, present, err := row.Date("schedule_date")
		if err != nil {
			report.AddError(row.Number, "%v", err)
			continue
		}
		if !present {
			report.AddError(row.Number, "date is required")
			continue
		}

		raw := SplitList(row.Get("time_slots"))
		if len(raw) == 0 {
			report.AddError(row.Number, "time slots are required")
			continue
		}
		slots := make([]ScheduleSlot, 0, len(raw))
		var slotErr error
		for _, s := range raw {
			start, end, err := timefmt.SplitWorkTime(s)
			if err != nil {
				slotErr = err
				break
			}
			slots = append(slots, ScheduleSlot{Start: start, End: end})
		}
		if slotErr != nil {
			report.AddError(row.Number, "%v", slotErr)
			continue
		}

		capacity := DefaultSlotCapacity
		maxAppointments, err := row.Int("max_appointments")
		if err != nil {
			report.AddError(row.Number, "%v", err)
			continue
		}
		// the sheet gives a per-day total, spread it over the slots
		if maxAppointments != nil {
			capacity = max(*maxAppointments/len(slots), 1)
		}

		available := true
		remaining, err := row.Int("available_slots")
		if err != nil {
			report.AddError(row.Number, "%v", err)
			continue
		}
		if remaining != nil && *remaining <= 0 {
			available = false
		}

		out = append(out, ScheduleRow{
			Row:          row.Number,
			Date:         date,
			Counselor:    row.Get("counselor"),
			Slots:        slots,
			SlotCapacity: capacity,
			Available:    available,
		})
	}
	return out, report, nil
}
