package schedule

import (
	"encoding/json"
	"testing"
)

func TestSlotEntrySlots(t *testing.T) {
	tests := []struct {
		name      string
		entry     SlotEntry
		wantStart []string
		wantErr   bool
	}{
		{"single window", SlotEntry{WorkTime: "09:00-10:00"}, []string{"09:00"}, false},
		{"comma windows", SlotEntry{WorkTime: "09:00-10:00, 14:00-15:00"}, []string{"09:00", "14:00"}, false},
		{"start and stop", SlotEntry{WorkTime: "9:00", StopWorkTime: "11:30"}, []string{"09:00"}, false},
		{"list", SlotEntry{WorkTimes: []string{"08:00-09:00", "10:00-11:00"}, WorkTime: "ignored"}, []string{"08:00", "10:00"}, false},
		{"missing", SlotEntry{}, nil, true},
		{"reversed", SlotEntry{WorkTime: "11:00", StopWorkTime: "10:00"}, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			specs, err := tt.entry.slots()
			if (err != nil) != tt.wantErr {
				t.Fatalf("slots() error = %v, wantErr %v", err, tt.wantErr)
			}
			if len(specs) != len(tt.wantStart) {
				t.Fatalf("got %d slots, want %d", len(specs), len(tt.wantStart))
			}
			for i, s := range specs {
				if s.Start != tt.wantStart[i] || !s.Available {
					t.Errorf("slot %d = %+v, want start %s", i, s, tt.wantStart[i])
				}
			}
		})
	}
}

func TestCreateScheduleRequestShapes(t *testing.T) {
	tests := []struct {
		name      string
		body      string
		wantNames []string
		wantErr   bool
	}{
		{"single object", `{"year":2030,"month":1,"date":7,"schedules":{"name":"A","work_time":"09:00","stop_work_time":"10:00"}}`, []string{"A"}, false},
		{"list", `{"year":2030,"month":1,"date":7,"schedules":[{"name":"A","work_time":"09:00-10:00"},{"name":"B","work_time":"10:00-11:00"}]}`, []string{"A", "B"}, false},
		{"empty list", `{"schedules":[]}`, []string{}, false},
		{"scalar", `{"schedules":"A"}`, nil, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var req CreateScheduleRequest
			err := json.Unmarshal([]byte(tt.body), &req)
			if (err != nil) != tt.wantErr {
				t.Fatalf("Unmarshal error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(req.Schedules) != len(tt.wantNames) {
				t.Fatalf("got %d entries, want %d", len(req.Schedules), len(tt.wantNames))
			}
			for i, e := range req.Schedules {
				if e.Name != tt.wantNames[i] {
					t.Errorf("entry %d name = %q, want %q", i, e.Name, tt.wantNames[i])
				}
			}
		})
	}
}
