package database

import (
	"fmt"
	"os"
	"slices"
	"time"

	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/auth"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Seeder handles database seeding operations
type Seeder struct {
	db  *gorm.DB
	log *zap.Logger
}

// NewSeeder creates a new seeder instance
func NewSeeder(db *gorm.DB, log *zap.Logger) *Seeder {
	return &Seeder{db: db, log: log}
}

type seedStep struct {
	name string
	fn   func() error
}

// steps lists the seeds in foreign key order
func (s *Seeder) steps() []seedStep {
	return []seedStep{
		{"admin", s.SeedAdminUser},
		{"counselors", s.SeedCounselors},
		{"students", s.SeedStudents},
		{"referral-units", s.SeedReferralUnits},
		{"categories", s.SeedCategories},
		{"schedules", s.SeedSchedules},
	}
}

// StepNames returns the seed names accepted by Run
func (s *Seeder) StepNames() []string {
	var names []string
	for _, step := range s.steps() {
		names = append(names, step.name)
	}
	return names
}

// Run executes the named seeds in their fixed order, or every seed when
// only is empty. Unknown names are an error.
func (s *Seeder) Run(only []string) error {
	selected := make(map[string]bool, len(only))
	for _, name := range only {
		selected[name] = true
	}
	for _, step := range s.steps() {
		delete(selected, step.name)
	}
	for name := range selected {
		return fmt.Errorf("unknown seed %q", name)
	}

	s.log.Info("seeding database")
	for _, step := range s.steps() {
		if len(only) > 0 && !slices.Contains(only, step.name) {
			continue
		}
		if err := step.fn(); err != nil {
			return fmt.Errorf("failed to seed %s: %w", step.name, err)
		}
	}

	s.log.Info("seeding completed")
	return nil
}

// SeedAdminUser creates the default admin user
func (s *Seeder) SeedAdminUser() error {
	adminEmail := os.Getenv("ADMIN_EMAIL")
	adminPassword := os.Getenv("ADMIN_PASSWORD")

	if adminEmail == "" || adminPassword == "" {
		s.log.Warn("ADMIN_EMAIL or ADMIN_PASSWORD not set, skipping admin user")
		return nil
	}

	var count int64
	if err := s.db.Model(&model.AdminUser{}).Where("email = ?", adminEmail).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("admin user exists, skipping")
		return nil
	}

	passwordHash, err := auth.HashPassword(adminPassword)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	admin := &model.AdminUser{
		Username:     "admin",
		Gender:       model.GenderMale,
		Email:        adminEmail,
		PasswordHash: passwordHash,
	}
	if err := s.db.Create(admin).Error; err != nil {
		return err
	}

	s.log.Info("created admin user", zap.String("email", admin.Email))
	return nil
}

// SeedCounselors creates demo counselors with profiles
func (s *Seeder) SeedCounselors() error {
	var count int64
	if err := s.db.Model(&model.Counselor{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("counselors exist, skipping")
		return nil
	}

	demo := []struct {
		name, email, phone, org string
		gender                  model.Gender
		tags                    string
	}{
		{"Wang Fang", "wang.fang@example.com", "13800000001", "City Counseling Center", model.GenderFemale, `["anxiety","sleep"]`},
		{"Chen Ming", "chen.ming@example.com", "13800000002", "City Counseling Center", model.GenderMale, `["family","adolescence"]`},
	}

	passwordHash, err := auth.HashPassword("counselor123")
	if err != nil {
		return err
	}

	for _, d := range demo {
		c := model.Counselor{
			Name:          d.name,
			Username:      auth.GenerateUsername("counselor"),
			Gender:        d.gender,
			Phone:         d.phone,
			Email:         d.email,
			PasswordHash:  passwordHash,
			Organization:  d.org,
			ExpertiseTags: datatypes.JSON(d.tags),
			ServeType:     datatypes.JSON(`["online","offline"]`),
			Status:        model.CounselorEnabled,
			Profile: &model.CounselorProfile{
				Name:         d.name,
				Organization: d.org,
				Expertise:    datatypes.JSON(d.tags),
			},
		}
		if err := s.db.Create(&c).Error; err != nil {
			return err
		}
	}

	s.log.Info("created demo counselors", zap.Int("count", len(demo)), zap.String("password", "counselor123"))
	return nil
}

// SeedStudents creates sample students
func (s *Seeder) SeedStudents() error {
	var count int64
	if err := s.db.Model(&model.Student{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("students exist, skipping")
		return nil
	}

	age := func(n int) *int { return &n }
	students := []model.Student{
		{StudentNo: "S20250001", Name: "Zhang San", Gender: model.GenderMale, Age: age(14), School: "No.1 Middle School", Grade: "Grade 8", ClassName: "Class 3", CreatedBy: "seed"},
		{StudentNo: "S20250002", Name: "Li Si", Gender: model.GenderFemale, Age: age(15), School: "No.1 Middle School", Grade: "Grade 9", ClassName: "Class 2", CreatedBy: "seed"},
		{StudentNo: "S20250003", Name: "Zhao Liu", Gender: model.GenderFemale, Age: age(16), School: "No.2 High School", Grade: "Grade 10", ClassName: "Class 1", CreatedBy: "seed"},
	}
	if err := s.db.Create(&students).Error; err != nil {
		return err
	}

	s.log.Info("created students", zap.Int("count", len(students)))
	return nil
}

// SeedReferralUnits creates sample referral units
func (s *Seeder) SeedReferralUnits() error {
	var count int64
	if err := s.db.Model(&model.ReferralUnit{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("referral units exist, skipping")
		return nil
	}

	units := []model.ReferralUnit{
		{UnitName: "City Mental Health Center", Address: "12 Riverside Road", ContactPhone: "010-88880001", CreatedBy: "seed"},
		{UnitName: "Children's Hospital Psychology Dept.", Address: "7 Park Avenue", ContactPhone: "010-88880002", CreatedBy: "seed"},
	}
	if err := s.db.Create(&units).Error; err != nil {
		return err
	}

	s.log.Info("created referral units", zap.Int("count", len(units)))
	return nil
}

// SeedCategories creates the default content categories
func (s *Seeder) SeedCategories() error {
	var count int64
	if err := s.db.Model(&model.Category{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("categories exist, skipping")
		return nil
	}

	categories := []model.Category{
		{CategoryName: "Emotional health", SortOrder: 1, CreatedBy: "seed"},
		{CategoryName: "Study stress", SortOrder: 2, CreatedBy: "seed"},
		{CategoryName: "Family relationships", SortOrder: 3, CreatedBy: "seed"},
	}
	if err := s.db.Create(&categories).Error; err != nil {
		return err
	}

	s.log.Info("created categories", zap.Int("count", len(categories)))
	return nil
}

// SeedSchedules gives every counselor two morning windows on the next five weekdays
func (s *Seeder) SeedSchedules() error {
	var count int64
	if err := s.db.Model(&model.Schedule{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		s.log.Info("schedules exist, skipping")
		return nil
	}

	var counselors []model.Counselor
	if err := s.db.Find(&counselors).Error; err != nil {
		return err
	}

	var rows []model.Schedule
	day := time.Now().Truncate(24 * time.Hour)
	for added := 0; added < 5; day = day.AddDate(0, 0, 1) {
		if day.Weekday() == time.Saturday || day.Weekday() == time.Sunday {
			continue
		}
		added++
		date := datatypes.Date(time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, time.Local))
		for _, c := range counselors {
			rows = append(rows,
				model.Schedule{CounselorID: c.ID, WorkDate: date, StartTime: "09:00", EndTime: "10:00", Available: true, MaxAppointments: 5, CreatedBy: "seed"},
				model.Schedule{CounselorID: c.ID, WorkDate: date, StartTime: "10:00", EndTime: "11:00", Available: true, MaxAppointments: 5, CreatedBy: "seed"},
			)
		}
	}
	if len(rows) == 0 {
		return nil
	}
	if err := s.db.Create(&rows).Error; err != nil {
		return err
	}

	s.log.Info("created schedule windows", zap.Int("count", len(rows)))
	return nil
}
