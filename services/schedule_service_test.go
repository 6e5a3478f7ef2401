package services

import (
	"testing"
	"time"

	"github.com/mindbridge/counsel-api/model"
	"gorm.io/datatypes"
)

func TestGroupMonth(t *testing.T) {
	from := time.Date(2024, 2, 1, 0, 0, 0, 0, time.Local)
	to := from.AddDate(0, 1, 0)
	day := func(d int) datatypes.Date {
		return datatypes.Date(time.Date(2024, 2, d, 0, 0, 0, 0, time.Local))
	}

	rows := []model.Schedule{
		{ID: 1, CounselorID: 7, WorkDate: day(5), StartTime: "09:00", EndTime: "10:00", Counselor: model.Counselor{Name: "Li"}},
		{ID: 2, CounselorID: 7, WorkDate: day(5), StartTime: "14:00", EndTime: "15:00", Counselor: model.Counselor{Name: "Li"}},
		{ID: 3, CounselorID: 9, WorkDate: day(5), StartTime: "09:00", EndTime: "10:00", Counselor: model.Counselor{Name: "Wang"}},
		{ID: 4, CounselorID: 9, WorkDate: day(29), StartTime: "08:00", EndTime: "09:00", Counselor: model.Counselor{Name: "Wang"}},
	}

	days := groupMonth(from, to, rows)
	if len(days) != 29 {
		t.Fatalf("got %d days for February 2024, want 29", len(days))
	}
	if days[0].Date != "2024-02-01" || len(days[0].Schedules) != 0 {
		t.Errorf("first day = %+v, want an empty 2024-02-01", days[0])
	}
	if days[0].Schedules == nil {
		t.Error("empty days should render an empty list, not null")
	}

	fifth := days[4]
	if len(fifth.Schedules) != 2 {
		t.Fatalf("got %d counselors on the 5th, want 2", len(fifth.Schedules))
	}
	li := fifth.Schedules[0]
	if li.ID != 7 || li.Name != "Li" || len(li.WorkTime) != 2 || li.WorkTime[1] != "14:00-15:00" {
		t.Errorf("unexpected grouping for counselor 7: %+v", li)
	}
	if len(li.SlotIDs) != 2 || li.SlotIDs[0] != 1 {
		t.Errorf("slot ids = %v, want [1 2]", li.SlotIDs)
	}
	if got := days[28].Schedules; len(got) != 1 || got[0].WorkTime[0] != "08:00-09:00" {
		t.Errorf("29th = %+v", got)
	}
}

func TestRanges(t *testing.T) {
	start := time.Date(2024, 4, 2, 10, 0, 0, 0, time.Local)
	out := Ranges([]model.Cancellation{{ID: 3, CancelStart: start, CancelEnd: start.Add(2 * time.Hour), Reason: "training"}})
	if len(out) != 1 {
		t.Fatalf("got %d ranges", len(out))
	}
	want := CancellationRange{ID: 3, StartTime: "2024-04-02 10:00", EndTime: "2024-04-02 12:00", Reason: "training"}
	if out[0] != want {
		t.Errorf("got %+v, want %+v", out[0], want)
	}
	if Ranges(nil) == nil {
		t.Error("Ranges(nil) should be an empty list")
	}
}
