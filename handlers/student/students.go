package student

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/utils/middleware"
	queryHelper "github.com/mindbridge/counsel-api/utils/query"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"gorm.io/gorm"
)

// StudentHandler handles student-related requests
type StudentHandler struct {
	db        *gorm.DB
	validator *validation.Validator
}

// NewStudentHandler creates a new student handler
func NewStudentHandler(db *gorm.DB) *StudentHandler {
	return &StudentHandler{
		db:        db,
		validator: validation.NewValidator(),
	}
}

// StudentRequest is the body of POST and PUT. On PUT absent fields are kept.
type StudentRequest struct {
	StudentNo     *string `json:"student_no" validate:"omitempty,max=50"`
	Name          *string `json:"name" validate:"omitempty,min=1,max=50"`
	Gender        *string `json:"gender"`
	Age           *int    `json:"age" validate:"omitempty,gte=0,lte=150"`
	School        *string `json:"school" validate:"omitempty,max=100"`
	Grade         *string `json:"grade" validate:"omitempty,max=50"`
	ClassName     *string `json:"class_name" validate:"omitempty,max=50"`
	Contact       *string `json:"contact" validate:"omitempty,max=50"`
	GuardianName  *string `json:"guardian_name" validate:"omitempty,max=50"`
	GuardianPhone *string `json:"guardian_phone" validate:"omitempty,max=20"`
	Notes         *string `json:"notes"`
}

func (r *StudentRequest) apply(s *model.Student) error {
	if r.Gender != nil {
		g, ok := model.ParseGender(*r.Gender)
		if !ok && *r.Gender != "" {
			return errors.New("gender must be male or female")
		}
		s.Gender = g
	}
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = validation.SanitizeString(*src)
		}
	}
	set(&s.StudentNo, r.StudentNo)
	set(&s.Name, r.Name)
	set(&s.School, r.School)
	set(&s.Grade, r.Grade)
	set(&s.ClassName, r.ClassName)
	set(&s.Contact, r.Contact)
	set(&s.GuardianName, r.GuardianName)
	set(&s.GuardianPhone, r.GuardianPhone)
	set(&s.Notes, r.Notes)
	if r.Age != nil {
		s.Age = r.Age
	}
	return nil
}

// ListStudents handles GET /api/admin/students
func (h *StudentHandler) ListStudents(c *fiber.Ctx) error {
	page := queryHelper.PageFromQuery(c)

	query := h.db.Model(&model.Student{})
	query = queryHelper.Contains(query, "name", c.Query("name"))
	query = queryHelper.Contains(query, "school", c.Query("school"))
	query = queryHelper.Equals(query, "grade", c.Query("grade"))
	query = queryHelper.Equals(query, "class_name", c.Query("class_name"))
	query = queryHelper.Equals(query, "student_no", c.Query("student_no"))

	var students []model.Student
	total, err := queryHelper.Paginate(query, page, "created_at DESC", &students)
	if err != nil {
		return response.InternalServerError(c, "Failed to fetch students")
	}

	return response.Paginated(c, students, page.Meta(total))
}

// GetStudent handles GET /api/admin/students/:id
func (h *StudentHandler) GetStudent(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var student model.Student
	if err := h.db.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}

	return response.Success(c, student)
}

// CreateStudent handles POST /api/admin/students
func (h *StudentHandler) CreateStudent(c *fiber.Ctx) error {
	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}
	if req.Name == nil || *req.Name == "" {
		return response.BadRequest(c, "name is required")
	}

	student := model.Student{CreatedBy: middleware.ActorName(c)}
	if err := req.apply(&student); err != nil {
		return response.BadRequest(c, err.Error())
	}

	if err := h.db.Create(&student).Error; err != nil {
		return response.InternalServerError(c, "Failed to create student")
	}

	return response.Created(c, student)
}

// UpdateStudent handles PUT /api/admin/students/:id
func (h *StudentHandler) UpdateStudent(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	var req StudentRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	var student model.Student
	if err := h.db.First(&student, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Student not found")
		}
		return response.InternalServerError(c, "Failed to fetch student")
	}

	if err := req.apply(&student); err != nil {
		return response.BadRequest(c, err.Error())
	}
	if student.Name == "" {
		return response.BadRequest(c, "name cannot be empty")
	}

	if err := h.db.Save(&student).Error; err != nil {
		return response.InternalServerError(c, "Failed to update student")
	}

	return response.Success(c, student)
}

// DeleteStudent handles DELETE /api/admin/students/:id
func (h *StudentHandler) DeleteStudent(c *fiber.Ctx) error {
	id, err := queryHelper.ParamID(c, "id")
	if err != nil {
		return response.BadRequest(c, "Invalid student ID")
	}

	result := h.db.Delete(&model.Student{}, id)
	if result.Error != nil {
		return response.InternalServerError(c, "Failed to delete student")
	}
	if result.RowsAffected == 0 {
		return response.NotFound(c, "Student not found")
	}

	return response.SuccessWithMessage(c, "Student deleted successfully", nil)
}
