package consultant

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	orderHandler "github.com/mindbridge/counsel-api/handlers/order"
	"github.com/mindbridge/counsel-api/model"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/timefmt"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
)

type OrderListRequest struct {
	PageRequest
	Name      string `json:"name"`
	DateStart string `json:"date_start"`
	DateEnd   string `json:"date_end"`
	Type      string `json:"type"`
	Status    string `json:"status"`
}

// OrderCreateRequest mirrors the booking form. age arrives as text.
type OrderCreateRequest struct {
	Name    string   `json:"name" validate:"required,max=50"`
	Age     string   `json:"age" validate:"required"`
	Gender  string   `json:"gender" validate:"required"`
	Type    string   `json:"type" validate:"required"`
	Date    string   `json:"date" validate:"required"`
	Time    string   `json:"time" validate:"required,max=20"`
	Contact string   `json:"contact" validate:"required,max=100"`
	KeyWord []string `json:"key_word"`
}

type OrderStatusRequest struct {
	ID     uint   `json:"id" validate:"required"`
	Status string `json:"status" validate:"required"`
}

// OrderView is an order as the consultant client lists it
type OrderView struct {
	ID       uint   `json:"id"`
	OrderNo  string `json:"order_no"`
	Name     string `json:"name"`
	Gender   string `json:"gender"`
	Age      string `json:"age"`
	Type     string `json:"type"`
	Date     string `json:"date"`
	Time     string `json:"time"`
	Contact  string `json:"contact"`
	KeyWord  string `json:"key_word"`
	Status   string `json:"status"`
	RecordID *uint  `json:"record_id"`
}

func newOrderView(a model.Appointment) OrderView {
	view := OrderView{
		ID:       a.ID,
		OrderNo:  a.OrderNo,
		Name:     a.ClientName,
		Gender:   string(a.ClientGender),
		Type:     a.ServiceType.Label(),
		Date:     timefmt.FormatDate(a.AppointmentDate),
		Time:     a.TimeSlot,
		Contact:  a.ContactInfo,
		Status:   string(a.Status),
		RecordID: a.RecordID,
	}
	if a.ClientAge != nil {
		view.Age = strconv.Itoa(*a.ClientAge)
	}
	var keywords []string
	if len(a.Keywords) > 0 && json.Unmarshal(a.Keywords, &keywords) == nil {
		view.KeyWord = strings.Join(keywords, ",")
	}
	return view
}

// ListOrders handles POST /api/consultant/orders/list
func (h *Handler) ListOrders(c *fiber.Ctx) error {
	var req OrderListRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	page := req.page()

	query := h.DB.Model(&model.Appointment{}).Where("counselor_id = ?", counselor(c).ID)
	query = queryHelper.Contains(query, "client_name", req.Name)
	if req.Type != "" {
		st, ok := model.ParseServiceType(req.Type)
		if !ok {
			return response.BadRequest(c, "Invalid type filter")
		}
		query = query.Where("service_type = ?", st)
	}
	if req.Status != "" {
		st, ok := model.ParseAppointmentStatus(req.Status)
		if !ok {
			return response.BadRequest(c, "Invalid status filter")
		}
		query = query.Where("status = ?", st)
	}
	query, err := queryHelper.DateRange(query, "appointment_date", req.DateStart, req.DateEnd)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}

	var orders []model.Appointment
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &orders)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch orders")
	}

	views := make([]OrderView, 0, len(orders))
	for _, a := range orders {
		views = append(views, newOrderView(a))
	}
	return response.Paginated(c, views, page.Meta(total))
}

// CreateOrder handles POST /api/consultant/orders/create. The order joins
// the counselor's record for the client, which is opened if needed.
func (h *Handler) CreateOrder(c *fiber.Ctx) error {
	var req OrderCreateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	age, err := strconv.Atoi(strings.TrimSpace(req.Age))
	if err != nil || age < 1 || age > 120 {
		return response.BadRequest(c, "age must be a number between 1 and 120")
	}
	gender, ok := model.ParseGender(req.Gender)
	if !ok {
		return response.BadRequest(c, "gender must be male or female")
	}
	serviceType := model.ServiceOffline
	if st, ok := model.ParseServiceType(req.Type); ok && st == model.ServiceOnline {
		serviceType = model.ServiceOnline
	}
	date, err := timefmt.ParseDate(req.Date)
	if err != nil {
		return response.BadRequest(c, err.Error())
	}
	if req.KeyWord == nil {
		req.KeyWord = []string{}
	}
	keywords, _ := json.Marshal(req.KeyWord)

	a := model.Appointment{
		ClientName:      validation.SanitizeString(req.Name),
		ClientGender:    gender,
		ClientAge:       &age,
		ContactInfo:     validation.SanitizeString(req.Contact),
		ServiceType:     serviceType,
		Keywords:        keywords,
		AppointmentDate: date,
		TimeSlot:        strings.TrimSpace(req.Time),
	}
	record, err := h.Appointments.CreateForCounselor(c.UserContext(), counselor(c), &a)
	if err != nil {
		h.Logger.Error("create consultant order", zap.Error(err))
		return response.InternalServerError(c, "Failed to create order")
	}

	return response.Created(c, fiber.Map{
		"order_no":  a.OrderNo,
		"record_no": record.RecordNo,
		"order":     newOrderView(a),
	})
}

// UpdateOrderStatus handles POST /api/consultant/orders/status
func (h *Handler) UpdateOrderStatus(c *fiber.Ctx) error {
	var req OrderStatusRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	next, ok := model.ParseAppointmentStatus(req.Status)
	if !ok {
		return response.BadRequest(c, "Invalid status")
	}

	owner := counselor(c).ID
	a, err := h.Appointments.Transition(c.UserContext(), req.ID, next, &owner)
	if err != nil {
		return orderHandler.StatusError(c, err)
	}
	return response.Success(c, newOrderView(*a))
}
