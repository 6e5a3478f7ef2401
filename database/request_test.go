package database

import "testing"

func TestCountTimeSlots(t *testing.T) {
	trend := CountTimeSlots([]string{"09:00-10:00", "09:30-10:30", "14:00~15:00", "garbage"})

	if len(trend.TimeSlots) != 13 || trend.TimeSlots[0] != 8 || trend.TimeSlots[12] != 20 {
		t.Fatalf("unexpected hours: %v", trend.TimeSlots)
	}

	want := map[int]int64{8: 0, 9: 2, 10: 2, 14: 1, 15: 1, 20: 0}
	for i, hour := range trend.TimeSlots {
		if n, ok := want[hour]; ok && trend.Appointments[i] != n {
			t.Errorf("hour %d: got %d, want %d", hour, trend.Appointments[i], n)
		}
	}
}

func TestBucketAges(t *testing.T) {
	dist := BucketAges([]int{0, 12, 17, 18, 30, 45, 60, 90})

	if len(dist.Labels) != len(AgeBuckets) || len(dist.Values) != len(AgeBuckets) {
		t.Fatalf("got %d labels and %d values", len(dist.Labels), len(dist.Values))
	}
	want := []int64{2, 1, 1, 1, 0, 2}
	for i, n := range want {
		if dist.Values[i] != n {
			t.Errorf("bucket %s: got %d, want %d", dist.Labels[i], dist.Values[i], n)
		}
	}
}
