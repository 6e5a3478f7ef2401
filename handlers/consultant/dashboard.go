package consultant

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/utils/response"
	"go.uber.org/zap"
)

type YearRequest struct {
	Year int `json:"year" validate:"omitempty,min=1970,max=9999"`
}

func (h *Handler) statsFailed(c *fiber.Ctx, name string, err error) error {
	h.Logger.Error("dashboard query failed", zap.String("stat", name), zap.Error(err))
	return response.InternalServerError(c, "Failed to load dashboard data")
}

// TodayTransactions handles POST /api/consultant/dashboard/today-transactions
func (h *Handler) TodayTransactions(c *fiber.Ctx) error {
	summary, err := h.Stats.TodayTransactions(c.UserContext(), counselor(c).ID, time.Now())
	if err != nil {
		return h.statsFailed(c, "today_transactions", err)
	}
	return response.Success(c, summary)
}

// CategoryData handles POST /api/consultant/dashboard/category-data
func (h *Handler) CategoryData(c *fiber.Ctx) error {
	split, err := h.Stats.CategoryData(c.UserContext(), counselor(c).ID)
	if err != nil {
		return h.statsFailed(c, "category_data", err)
	}
	return response.Success(c, split)
}

// YearlyConsultations handles POST /api/consultant/dashboard/yearly-consultations
func (h *Handler) YearlyConsultations(c *fiber.Ctx) error {
	var req YearRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	year := req.Year
	if year == 0 {
		year = time.Now().Year()
	}

	monthly, err := h.Stats.YearlyConsultations(c.UserContext(), counselor(c).ID, year)
	if err != nil {
		return h.statsFailed(c, "yearly_consultations", err)
	}
	return response.Success(c, monthly)
}

// TimeSlotData handles POST /api/consultant/dashboard/time-slot-data
func (h *Handler) TimeSlotData(c *fiber.Ctx) error {
	trend, err := h.Stats.TimeSlotData(c.UserContext(), counselor(c).ID, time.Now())
	if err != nil {
		return h.statsFailed(c, "time_slot_data", err)
	}
	return response.Success(c, trend)
}

// GenderData handles POST /api/consultant/dashboard/gender-data
func (h *Handler) GenderData(c *fiber.Ctx) error {
	split, err := h.Stats.GenderData(c.UserContext(), counselor(c).ID)
	if err != nil {
		return h.statsFailed(c, "gender_data", err)
	}
	return response.Success(c, split)
}

// AgeData handles POST /api/consultant/dashboard/age-data
func (h *Handler) AgeData(c *fiber.Ctx) error {
	dist, err := h.Stats.AgeData(c.UserContext(), counselor(c).ID)
	if err != nil {
		return h.statsFailed(c, "age_data", err)
	}
	return response.Success(c, dist)
}
