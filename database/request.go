package database

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// TransactionSummary is the count and nominal amount of orders on one day
type TransactionSummary struct {
	Count  int64 `db:"count" json:"count"`
	Amount int64 `json:"amount"`
}

// OrderPrice is the nominal amount booked per accepted or completed order
const OrderPrice = 100

// CategorySplit counts online and offline orders
type CategorySplit struct {
	Online  int64 `db:"online" json:"online"`
	Offline int64 `db:"offline" json:"outline"`
}

// MonthlyConsultations is one year of record counts, January first
type MonthlyConsultations struct {
	Total int64     `json:"total"`
	Data  [12]int64 `json:"data"`
}

// TimeSlotTrend pairs each hour with the number of appointments touching it
type TimeSlotTrend struct {
	TimeSlots    []int   `json:"timeSlots"`
	Appointments []int64 `json:"appointments"`
}

// GenderSplit counts records by client gender
type GenderSplit struct {
	Male   int64 `db:"male" json:"male"`
	Female int64 `db:"female" json:"female"`
}

// AgeDistribution counts records per age bucket, see AgeBuckets
type AgeDistribution struct {
	Labels []string `json:"labels"`
	Values []int64  `json:"values"`
}

// AgeBuckets are inclusive bounds; an upper bound of 0 is open-ended
var AgeBuckets = []struct {
	Label    string
	Min, Max int
}{
	{"1-17", 1, 17},
	{"18-25", 18, 25},
	{"26-35", 26, 35},
	{"36-45", 36, 45},
	{"46-55", 46, 55},
	{"56+", 56, 0},
}

// TodayTransactions counts a counselor's accepted and completed orders for day
func (s *StatsStore) TodayTransactions(ctx context.Context, counselorID uint, day time.Time) (*TransactionSummary, error) {
	query := `
		SELECT COUNT(*) AS count FROM appointments
		WHERE counselor_id = $1 AND appointment_date = $2::date AND status IN ('accepted', 'completed');
	`
	var out TransactionSummary
	if err := s.db.GetContext(ctx, &out, query, counselorID, day.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("today transactions: %w", err)
	}
	out.Amount = out.Count * OrderPrice
	return &out, nil
}

// CategoryData splits a counselor's orders into online and offline
func (s *StatsStore) CategoryData(ctx context.Context, counselorID uint) (*CategorySplit, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE service_type = 'online')  AS online,
			COUNT(*) FILTER (WHERE service_type = 'offline') AS offline
		FROM appointments WHERE counselor_id = $1;
	`
	var out CategorySplit
	if err := s.db.GetContext(ctx, &out, query, counselorID); err != nil {
		return nil, fmt.Errorf("category data: %w", err)
	}
	return &out, nil
}

// YearlyConsultations counts a counselor's records per month of year
func (s *StatsStore) YearlyConsultations(ctx context.Context, counselorID uint, year int) (*MonthlyConsultations, error) {
	query := `
		SELECT EXTRACT(MONTH FROM created_at)::int AS month, COUNT(*) AS count
		FROM consultation_records
		WHERE counselor_id = $1 AND EXTRACT(YEAR FROM created_at) = $2
		GROUP BY 1;
	`
	var rows []struct {
		Month int   `db:"month"`
		Count int64 `db:"count"`
	}
	if err := s.db.SelectContext(ctx, &rows, query, counselorID, year); err != nil {
		return nil, fmt.Errorf("yearly consultations: %w", err)
	}

	var out MonthlyConsultations
	for _, r := range rows {
		if r.Month < 1 || r.Month > 12 {
			continue
		}
		out.Data[r.Month-1] = r.Count
		out.Total += r.Count
	}
	return &out, nil
}

// TimeSlotData counts, for each hour 8..20, the counselor's appointments in
// the 30 days up to today whose time slot mentions that hour
func (s *StatsStore) TimeSlotData(ctx context.Context, counselorID uint, today time.Time) (*TimeSlotTrend, error) {
	query := `
		SELECT time_slot FROM appointments
		WHERE counselor_id = $1 AND appointment_date BETWEEN $2::date AND $3::date;
	`
	var slots []string
	start := today.AddDate(0, 0, -30).Format("2006-01-02")
	if err := s.db.SelectContext(ctx, &slots, query, counselorID, start, today.Format("2006-01-02")); err != nil {
		return nil, fmt.Errorf("time slot data: %w", err)
	}
	return CountTimeSlots(slots), nil
}

// CountTimeSlots buckets slot strings such as "09:00-10:00" by hour 8..20
func CountTimeSlots(slots []string) *TimeSlotTrend {
	out := &TimeSlotTrend{}
	for hour := 8; hour <= 20; hour++ {
		out.TimeSlots = append(out.TimeSlots, hour)
		var n int64
		for _, slot := range slots {
			if slotTouchesHour(slot, hour) {
				n++
			}
		}
		out.Appointments = append(out.Appointments, n)
	}
	return out
}

// slotTouchesHour reports whether either end of an "HH:MM-HH:MM" slot falls in hour
func slotTouchesHour(slot string, hour int) bool {
	parts := strings.FieldsFunc(slot, func(r rune) bool {
		return r == '-' || r == '~' || r == ' ' || r == ','
	})
	for _, part := range parts {
		if t, err := time.Parse("15:04", part); err == nil && t.Hour() == hour {
			return true
		}
	}
	return false
}

// GenderData counts a counselor's records by gender
func (s *StatsStore) GenderData(ctx context.Context, counselorID uint) (*GenderSplit, error) {
	query := `
		SELECT
			COUNT(*) FILTER (WHERE gender = 'male')   AS male,
			COUNT(*) FILTER (WHERE gender = 'female') AS female
		FROM consultation_records WHERE counselor_id = $1;
	`
	var out GenderSplit
	if err := s.db.GetContext(ctx, &out, query, counselorID); err != nil {
		return nil, fmt.Errorf("gender data: %w", err)
	}
	return &out, nil
}

// AgeData counts a counselor's records in each of AgeBuckets
func (s *StatsStore) AgeData(ctx context.Context, counselorID uint) (*AgeDistribution, error) {
	query := `SELECT age FROM consultation_records WHERE counselor_id = $1 AND age IS NOT NULL;`
	var ages []int
	if err := s.db.SelectContext(ctx, &ages, query, counselorID); err != nil {
		return nil, fmt.Errorf("age data: %w", err)
	}
	return BucketAges(ages), nil
}

// BucketAges distributes ages over AgeBuckets; ages below 1 are ignored
func BucketAges(ages []int) *AgeDistribution {
	out := &AgeDistribution{Values: make([]int64, len(AgeBuckets))}
	for _, b := range AgeBuckets {
		out.Labels = append(out.Labels, b.Label)
	}
	for _, age := range ages {
		for i, b := range AgeBuckets {
			if age >= b.Min && (b.Max == 0 || age <= b.Max) {
				out.Values[i]++
				break
			}
		}
	}
	return out
}

// RefreshConsultationCounts recomputes counselor_profiles.consultation_count
// from completed appointments
func (s *StatsStore) RefreshConsultationCounts(ctx context.Context) (int64, error) {
	query := `
		UPDATE counselor_profiles p SET consultation_count = sub.n, updated_at = NOW()
		FROM (
			SELECT c.id AS counselor_id, COUNT(a.id) AS n
			FROM counselors c
			LEFT JOIN appointments a ON a.counselor_id = c.id AND a.status = 'completed'
			GROUP BY c.id
		) sub
		WHERE p.counselor_id = sub.counselor_id AND p.consultation_count <> sub.n;
	`
	res, err := s.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("refresh consultation counts: %w", err)
	}
	return res.RowsAffected()
}
