package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services/excel"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var (
	// ErrSlotTaken is returned when a counselor already has a window
	// starting at the same time on the same day
	ErrSlotTaken = errors.New("schedule slot already exists for this counselor")
	// ErrForbidden is returned when a counselor touches another counselor's data
	ErrForbidden = errors.New("not allowed to modify another counselor's data")
	ErrNotFound  = errors.New("record not found")
)

// SlotSpec is one window to be scheduled
type SlotSpec struct {
	Start     string
	End       string
	Capacity  int
	Available bool
}

// DayPlan is every window of one counselor on one day
type DayPlan struct {
	Date  datatypes.Date
	Slots []SlotSpec
}

// CounselorDay groups a counselor's windows in the month view
type CounselorDay struct {
	ID       uint     `json:"id"`
	Name     string   `json:"name"`
	WorkTime []string `json:"work_time"`
	SlotIDs  []uint   `json:"slot_ids"`
}

// MonthDay is one calendar day of the month view
type MonthDay struct {
	Date      string         `json:"date"`
	Schedules []CounselorDay `json:"schedules"`
}

// CounselorCancellations groups cancellations by counselor
type CounselorCancellations struct {
	ID            uint                `json:"id"`
	Name          string              `json:"name"`
	StopSchedules []CancellationRange `json:"stop_schedules"`
}

// CancellationRange is a cancellation rendered with minute precision
type CancellationRange struct {
	ID        uint   `json:"id"`
	StartTime string `json:"start_time"`
	EndTime   string `json:"end_time"`
	Reason    string `json:"reason,omitempty"`
}

// ScheduleService owns schedules and cancellations
type ScheduleService struct {
	db *gorm.DB
}

// NewScheduleService creates a new schedule service
func NewScheduleService(db *gorm.DB) *ScheduleService {
	return &ScheduleService{db: db}
}

func translateSlotError(err error) error {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return ErrSlotTaken
	}
	return err
}

func newSchedule(counselorID uint, date datatypes.Date, slot SlotSpec, createdBy string) model.Schedule {
	capacity := slot.Capacity
	if capacity <= 0 {
		capacity = excel.DefaultSlotCapacity
	}
	return model.Schedule{
		CounselorID:     counselorID,
		WorkDate:        date,
		StartTime:       slot.Start,
		EndTime:         slot.End,
		Available:       slot.Available,
		MaxAppointments: capacity,
		CreatedBy:       createdBy,
	}
}

// CounselorPlan pairs a counselor with the windows to open on one day
type CounselorPlan struct {
	CounselorID uint
	Plan        DayPlan
}

// AddSlots creates the windows for one counselor and day. Either all are
// created or none; a clash with an existing window yields ErrSlotTaken.
func (s *ScheduleService) AddSlots(ctx context.Context, counselorID uint, plan DayPlan, createdBy string) ([]model.Schedule, error) {
	return s.AddPlans(ctx, []CounselorPlan{{CounselorID: counselorID, Plan: plan}}, createdBy)
}

// AddPlans writes the windows of several counselors in one transaction
func (s *ScheduleService) AddPlans(ctx context.Context, plans []CounselorPlan, createdBy string) ([]model.Schedule, error) {
	rows := make([]model.Schedule, 0, len(plans))
	for _, p := range plans {
		for _, slot := range p.Plan.Slots {
			rows = append(rows, newSchedule(p.CounselorID, p.Plan.Date, slot, createdBy))
		}
	}
	if len(rows) == 0 {
		return rows, nil
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return nil, translateSlotError(err)
	}
	return rows, nil
}

// ReplaceAll deletes every window of the counselor and writes plans in its place
func (s *ScheduleService) ReplaceAll(ctx context.Context, counselorID uint, plans []DayPlan, createdBy string) (deleted, created int64, err error) {
	var rows []model.Schedule
	for _, plan := range plans {
		for _, slot := range plan.Slots {
			rows = append(rows, newSchedule(counselorID, plan.Date, slot, createdBy))
		}
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Where("counselor_id = ?", counselorID).Delete(&model.Schedule{})
		if res.Error != nil {
			return fmt.Errorf("failed to clear schedules: %w", res.Error)
		}
		deleted = res.RowsAffected
		if len(rows) == 0 {
			return nil
		}
		if err := tx.CreateInBatches(&rows, 100).Error; err != nil {
			return err
		}
		created = int64(len(rows))
		return nil
	})
	if err != nil {
		return 0, 0, translateSlotError(err)
	}
	return deleted, created, nil
}

// CounselorResolver maps a counselor name found in a sheet to an id
type CounselorResolver func(ctx context.Context, name string) (uint, error)

// CounselorByName resolves a counselor by display name
func (s *ScheduleService) CounselorByName(ctx context.Context, name string) (uint, error) {
	var counselor model.Counselor
	if err := s.db.WithContext(ctx).Select("id").Where("name = ?", name).First(&counselor).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, ErrNotFound
		}
		return 0, err
	}
	return counselor.ID, nil
}

// ImportRows stores parsed sheet rows. Each row is applied on its own so one
// clash does not discard the rest; failures are added to report.
func (s *ScheduleService) ImportRows(ctx context.Context, rows []excel.ScheduleRow, defaultCounselor uint, resolve CounselorResolver, createdBy string, report *excel.ImportReport) {
	for _, row := range rows {
		counselorID := defaultCounselor
		if row.Counselor != "" && resolve != nil {
			id, err := resolve(ctx, row.Counselor)
			if err != nil {
				report.AddError(row.Row, "counselor %q not found", row.Counselor)
				continue
			}
			counselorID = id
		}
		if counselorID == 0 {
			report.AddError(row.Row, "counselor is required")
			continue
		}

		plan := DayPlan{Date: row.Date}
		for _, slot := range row.Slots {
			plan.Slots = append(plan.Slots, SlotSpec{Start: slot.Start, End: slot.End, Capacity: row.SlotCapacity, Available: row.Available})
		}
		if _, err := s.AddSlots(ctx, counselorID, plan, createdBy); err != nil {
			if errors.Is(err, ErrSlotTaken) {
				report.AddError(row.Row, "%s", ErrSlotTaken.Error())
			} else {
				report.AddError(row.Row, "failed to save schedule")
			}
			continue
		}
		report.SuccessCount++
	}
}

// MonthView lists every day of the month with the windows declared on it,
// grouped by counselor. counselorID limits the view to one counselor.
func (s *ScheduleService) MonthView(ctx context.Context, year, month int, counselorID *uint) ([]MonthDay, error) {
	from, to, err := timefmt.MonthBounds(year, month)
	if err != nil {
		return nil, err
	}

	q := s.db.WithContext(ctx).Preload("Counselor").
		Where("work_date >= ? AND work_date < ?", from, to)
	if counselorID != nil {
		q = q.Where("counselor_id = ?", *counselorID)
	}
	var rows []model.Schedule
	if err := q.Order("work_date, counselor_id, start_time").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch schedules: %w", err)
	}

	return groupMonth(from, to, rows), nil
}

func groupMonth(from, to time.Time, rows []model.Schedule) []MonthDay {
	byDay := make(map[string][]model.Schedule)
	for _, r := range rows {
		key := timefmt.FormatDate(r.WorkDate)
		byDay[key] = append(byDay[key], r)
	}

	var days []MonthDay
	for d := from; d.Before(to); d = d.AddDate(0, 0, 1) {
		key := d.Format(timefmt.DateLayout)
		day := MonthDay{Date: key, Schedules: []CounselorDay{}}
		index := make(map[uint]int)
		for _, r := range byDay[key] {
			i, ok := index[r.CounselorID]
			if !ok {
				i = len(day.Schedules)
				index[r.CounselorID] = i
				day.Schedules = append(day.Schedules, CounselorDay{ID: r.CounselorID, Name: r.Counselor.Name})
			}
			day.Schedules[i].WorkTime = append(day.Schedules[i].WorkTime, r.WorkTime())
			day.Schedules[i].SlotIDs = append(day.Schedules[i].SlotIDs, r.ID)
		}
		days = append(days, day)
	}
	return days
}

// DeleteSlot removes one window. counselorID, when set, must own it.
func (s *ScheduleService) DeleteSlot(ctx context.Context, id uint, counselorID *uint) error {
	var row model.Schedule
	if err := s.db.WithContext(ctx).First(&row, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if counselorID != nil && row.CounselorID != *counselorID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Delete(&row).Error
}

// CreateCancellation validates and stores a cancellation
func (s *ScheduleService) CreateCancellation(ctx context.Context, c *model.Cancellation) error {
	if !c.CancelStart.Before(c.CancelEnd) {
		return timefmt.ErrInvalidRange
	}
	if c.AbsenceType == "" {
		c.AbsenceType = model.AbsenceOther
	}
	return s.db.WithContext(ctx).Create(c).Error
}

// CancellationPatch carries the fields of an update; nil fields are kept
type CancellationPatch struct {
	Start  *time.Time
	End    *time.Time
	Reason *string
}

// UpdateCancellation applies patch to cancellation id owned by counselorID
func (s *ScheduleService) UpdateCancellation(ctx context.Context, id, counselorID uint, patch CancellationPatch) (*model.Cancellation, error) {
	c, err := s.ownedCancellation(ctx, id, counselorID)
	if err != nil {
		return nil, err
	}
	if patch.Start != nil {
		c.CancelStart = *patch.Start
	}
	if patch.End != nil {
		c.CancelEnd = *patch.End
	}
	if patch.Reason != nil {
		c.Reason = *patch.Reason
	}
	if !c.CancelStart.Before(c.CancelEnd) {
		return nil, timefmt.ErrInvalidRange
	}
	if err := s.db.WithContext(ctx).Save(c).Error; err != nil {
		return nil, err
	}
	return c, nil
}

// DeleteCancellation removes a cancellation. counselorID, when set, must own it.
func (s *ScheduleService) DeleteCancellation(ctx context.Context, id uint, counselorID *uint) error {
	var c model.Cancellation
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrNotFound
		}
		return err
	}
	if counselorID != nil && c.CounselorID != *counselorID {
		return ErrForbidden
	}
	return s.db.WithContext(ctx).Delete(&c).Error
}

func (s *ScheduleService) ownedCancellation(ctx context.Context, id, counselorID uint) (*model.Cancellation, error) {
	var c model.Cancellation
	if err := s.db.WithContext(ctx).First(&c, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if c.CounselorID != counselorID {
		return nil, ErrForbidden
	}
	return &c, nil
}

// Conflicts returns the counselor's cancellations intersecting [start, end)
func (s *ScheduleService) Conflicts(ctx context.Context, counselorID uint, start, end time.Time) ([]model.Cancellation, error) {
	if !start.Before(end) {
		return nil, timefmt.ErrInvalidRange
	}
	var rows []model.Cancellation
	err := s.db.WithContext(ctx).
		Where("counselor_id = ? AND cancel_start < ? AND cancel_end > ?", counselorID, end, start).
		Order("cancel_start").
		Find(&rows).Error
	return rows, err
}

// CancellationsByYear groups the cancellations starting in year by counselor
func (s *ScheduleService) CancellationsByYear(ctx context.Context, year int) ([]CounselorCancellations, error) {
	from := time.Date(year, 1, 1, 0, 0, 0, 0, time.Local)
	var rows []model.Cancellation
	err := s.db.WithContext(ctx).Preload("Counselor").
		Where("cancel_start >= ? AND cancel_start < ?", from, from.AddDate(1, 0, 0)).
		Order("counselor_id, cancel_start").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch cancellations: %w", err)
	}

	out := []CounselorCancellations{}
	index := make(map[uint]int)
	for _, c := range rows {
		i, ok := index[c.CounselorID]
		if !ok {
			i = len(out)
			index[c.CounselorID] = i
			out = append(out, CounselorCancellations{ID: c.CounselorID, Name: c.Counselor.Name})
		}
		out[i].StopSchedules = append(out[i].StopSchedules, rangeOf(c))
	}
	return out, nil
}

func rangeOf(c model.Cancellation) CancellationRange {
	return CancellationRange{
		ID:        c.ID,
		StartTime: timefmt.FormatMinute(c.CancelStart),
		EndTime:   timefmt.FormatMinute(c.CancelEnd),
		Reason:    c.Reason,
	}
}

// Ranges renders cancellations for a response
func Ranges(rows []model.Cancellation) []CancellationRange {
	out := make([]CancellationRange, 0, len(rows))
	for _, c := range rows {
		out = append(out, rangeOf(c))
	}
	return out
}

// NamedCancellation is one entry of a bulk upsert
type NamedCancellation struct {
	Name  string
	Start time.Time
	End   time.Time
}

// UpsertByName creates each cancellation unless the counselor already has one
// with the same range. Unknown names are skipped and returned.
func (s *ScheduleService) UpsertByName(ctx context.Context, items []NamedCancellation, createdBy string) (created int, skipped []string, err error) {
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if !item.Start.Before(item.End) {
				return timefmt.ErrInvalidRange
			}
			var counselor model.Counselor
			if err := tx.Where("name = ?", item.Name).First(&counselor).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					skipped = append(skipped, item.Name)
					continue
				}
				return err
			}

			var existing int64
			if err := tx.Model(&model.Cancellation{}).
				Where("counselor_id = ? AND cancel_start = ? AND cancel_end = ?", counselor.ID, item.Start, item.End).
				Count(&existing).Error; err != nil {
				return err
			}
			if existing > 0 {
				continue
			}
			if err := tx.Create(&model.Cancellation{
				CounselorID: counselor.ID,
				CancelStart: item.Start,
				CancelEnd:   item.End,
				AbsenceType: model.AbsenceOther,
				CreatedBy:   createdBy,
			}).Error; err != nil {
				return err
			}
			created++
		}
		return nil
	})
	if err != nil {
		return 0, nil, err
	}
	return created, skipped, nil
}
