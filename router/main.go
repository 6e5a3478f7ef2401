package router

import (
	"context"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/handlers"
	audit_handlers "github.com/mindbridge/counsel-api/handlers/admin"
	adminauth_handlers "github.com/mindbridge/counsel-api/handlers/adminauth"
	consultant_handlers "github.com/mindbridge/counsel-api/handlers/consultant"
	content_handlers "github.com/mindbridge/counsel-api/handlers/content"
	counselor_handlers "github.com/mindbridge/counsel-api/handlers/counselor"
	file_handlers "github.com/mindbridge/counsel-api/handlers/files"
	interview_handlers "github.com/mindbridge/counsel-api/handlers/interview"
	negativeevent_handlers "github.com/mindbridge/counsel-api/handlers/negativeevent"
	notification_handlers "github.com/mindbridge/counsel-api/handlers/notification"
	order_handlers "github.com/mindbridge/counsel-api/handlers/order"
	referral_handlers "github.com/mindbridge/counsel-api/handlers/referral"
	schedule_handlers "github.com/mindbridge/counsel-api/handlers/schedule"
	student_handlers "github.com/mindbridge/counsel-api/handlers/student"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/services/report"
	"github.com/mindbridge/counsel-api/utils"
	"github.com/mindbridge/counsel-api/utils/auth"
	"github.com/mindbridge/counsel-api/utils/middleware"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Services are the shared collaborators the routes are built from
type Services struct {
	AdminTokens     auth.TokenStore
	CounselorTokens auth.TokenStore
	Verification    *services.VerificationService
	BruteForce      *middleware.BruteForceProtection
	Appointments    *services.AppointmentService
	Records         *services.RecordService
	Schedules       *services.ScheduleService
	Files           *services.FileService
	Stats           *database.StatsStore
	Reports         *report.Generator
	Tickets         *auth.TicketManager
	Logger          *zap.Logger
}

// AdminLoader resolves an admin token owner; inactive admins are rejected
func AdminLoader(db *gorm.DB) middleware.PrincipalLoader {
	return func(ctx context.Context, ownerID uint) (interface{}, error) {
		var admin model.AdminUser
		if err := db.WithContext(ctx).First(&admin, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, middleware.ErrPrincipalNotFound
			}
			return nil, err
		}
		if !admin.IsActive {
			return nil, middleware.ErrPrincipalNotFound
		}
		return &admin, nil
	}
}

// CounselorLoader resolves a counselor token owner; disabled counselors are rejected
func CounselorLoader(db *gorm.DB) middleware.PrincipalLoader {
	return func(ctx context.Context, ownerID uint) (interface{}, error) {
		var counselor model.Counselor
		if err := db.WithContext(ctx).First(&counselor, ownerID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, middleware.ErrPrincipalNotFound
			}
			return nil, err
		}
		if !counselor.IsEnabled() {
			return nil, middleware.ErrPrincipalNotFound
		}
		return &counselor, nil
	}
}

// loginLimiter wraps a login route with brute-force protection when Redis is up
func loginLimiter(bf *middleware.BruteForceProtection, h fiber.Handler) []fiber.Handler {
	if bf == nil {
		return []fiber.Handler{h}
	}
	return []fiber.Handler{bf.CheckAndRecordAttempt(), h}
}

func SetupRoutes(app *fiber.App, store database.Storage, svc Services) {
	db, ok := store.GetDB().(*gorm.DB)
	if !ok {
		svc.Logger.Fatal("failed to get GORM DB instance")
	}

	adminGuard := middleware.NewTokenGuard(middleware.GuardConfig{
		Store:     svc.AdminTokens,
		Load:      AdminLoader(db),
		LocalsKey: middleware.LocalsAdmin,
		Logger:    svc.Logger,
	})
	counselorGuard := middleware.NewTokenGuard(middleware.GuardConfig{
		Store:     svc.CounselorTokens,
		Load:      CounselorLoader(db),
		LocalsKey: middleware.LocalsCounselor,
		Logger:    svc.Logger,
	})
	audited := func(action, resource string) fiber.Handler {
		return middleware.AdminAuditLog(db, svc.Logger, action, resource)
	}

	adminAuthHandler := adminauth_handlers.NewAuthHandler(db, svc.AdminTokens, svc.Verification, svc.BruteForce, svc.Logger)
	studentHandler := student_handlers.NewStudentHandler(db)
	interviewHandler := interview_handlers.NewInterviewHandler(db, svc.Files, svc.Logger)
	eventHandler := negativeevent_handlers.NewEventHandler(db)
	referralHandler := referral_handlers.NewReferralHandler(db, svc.Files, svc.Logger)
	contentHandler := content_handlers.NewContentHandler(db)
	notificationHandler := notification_handlers.NewNotificationHandler(db)
	counselorHandler := counselor_handlers.NewCounselorHandler(db, svc.CounselorTokens, svc.Logger)
	orderHandler := order_handlers.NewOrderHandler(db, svc.Appointments, svc.Logger)
	scheduleHandler := schedule_handlers.NewScheduleHandler(svc.Schedules, svc.Files, svc.Logger)
	auditHandler := audit_handlers.NewAuditHandler(db)
	fileHandler := file_handlers.NewFileHandler(svc.Files, svc.Tickets, svc.Logger)
	consultant := consultant_handlers.NewHandler(consultant_handlers.Deps{
		DB:           db,
		Tokens:       svc.CounselorTokens,
		Verification: svc.Verification,
		BruteForce:   svc.BruteForce,
		Appointments: svc.Appointments,
		Records:      svc.Records,
		Schedules:    svc.Schedules,
		Files:        svc.Files,
		Stats:        svc.Stats,
		Reports:      svc.Reports,
		Tickets:      svc.Tickets,
		Logger:       svc.Logger,
	})

	// Health check endpoint (public)
	app.Get("/ping", utils.MakeHTTPHandleFunc(handlers.HandleCheckHealth, store))

	api := app.Group("/api")
	api.Get("/files/:ticket", fileHandler.Download)

	// ==================== Admin surface ====================

	admin := api.Group("/admin")

	adminAuth := admin.Group("/auth")
	adminAuth.Get("/captcha", adminAuthHandler.Captcha)
	adminAuth.Post("/send-code", adminAuthHandler.SendCode)
	adminAuth.Post("/register", loginLimiter(svc.BruteForce, adminAuthHandler.Register)...)
	adminAuth.Post("/login", loginLimiter(svc.BruteForce, adminAuthHandler.Login)...)
	adminAuth.Post("/logout", adminGuard.Header(), adminAuthHandler.Logout)
	adminAuth.Get("/me", adminGuard.Header(), adminAuthHandler.Me)
	adminAuth.Post("/user-info", adminGuard.Body(), adminAuthHandler.Me)

	protected := admin.Group("", adminGuard.Header())

	students := protected.Group("/students")
	students.Get("/", studentHandler.ListStudents)
	students.Get("/:id", studentHandler.GetStudent)
	students.Post("/", audited("student_create", "students"), studentHandler.CreateStudent)
	students.Put("/:id", audited("student_update", "students"), studentHandler.UpdateStudent)
	students.Delete("/:id", audited("student_delete", "students"), studentHandler.DeleteStudent)

	interviews := protected.Group("/interviews")
	interviews.Get("/", interviewHandler.ListInterviews)
	interviews.Get("/export", interviewHandler.ExportInterviews)
	interviews.Get("/template", interviewHandler.DownloadTemplate)
	interviews.Post("/upload", audited("interview_upload", "interviews"), interviewHandler.UploadInterviews)
	interviews.Get("/:id", interviewHandler.GetInterview)
	interviews.Post("/", audited("interview_create", "interviews"), interviewHandler.CreateInterview)
	interviews.Put("/:id", audited("interview_update", "interviews"), interviewHandler.UpdateInterview)
	interviews.Delete("/:id", audited("interview_delete", "interviews"), interviewHandler.DeleteInterview)

	events := protected.Group("/negative-events")
	events.Get("/", eventHandler.ListEvents)
	events.Get("/:id", eventHandler.GetEvent)
	events.Post("/", audited("negative_event_create", "negative_events"), eventHandler.CreateEvent)
	events.Put("/:id", audited("negative_event_update", "negative_events"), eventHandler.UpdateEvent)
	events.Delete("/:id", audited("negative_event_delete", "negative_events"), eventHandler.DeleteEvent)

	units := protected.Group("/referral-units")
	units.Get("/", referralHandler.ListUnits)
	units.Get("/names", referralHandler.UnitNames)
	units.Get("/:id", referralHandler.GetUnit)
	units.Post("/", audited("referral_unit_create", "referral_units"), referralHandler.CreateUnit)
	units.Put("/:id", audited("referral_unit_update", "referral_units"), referralHandler.UpdateUnit)
	units.Delete("/:id", audited("referral_unit_delete", "referral_units"), referralHandler.DeleteUnit)

	referrals := protected.Group("/referrals")
	referrals.Get("/", referralHandler.ListReferrals)
	referrals.Get("/:id", referralHandler.GetReferral)
	referrals.Post("/", audited("referral_create", "referrals"), referralHandler.CreateReferral)
	referrals.Put("/:id", audited("referral_update", "referrals"), referralHandler.UpdateReferral)
	referrals.Delete("/:id", audited("referral_delete", "referrals"), referralHandler.DeleteReferral)

	categories := protected.Group("/categories")
	categories.Get("/", contentHandler.ListCategories)
	categories.Get("/names", contentHandler.CategoryNames)
	categories.Get("/:id", contentHandler.GetCategory)
	categories.Post("/", audited("category_create", "categories"), contentHandler.CreateCategory)
	categories.Put("/:id", audited("category_update", "categories"), contentHandler.UpdateCategory)
	categories.Delete("/:id", audited("category_delete", "categories"), contentHandler.DeleteCategory)

	articles := protected.Group("/articles")
	articles.Get("/", contentHandler.ListArticles)
	articles.Get("/:id", contentHandler.GetArticle)
	articles.Post("/", audited("article_create", "articles"), contentHandler.CreateArticle)
	articles.Put("/:id", audited("article_update", "articles"), contentHandler.UpdateArticle)
	articles.Delete("/:id", audited("article_delete", "articles"), contentHandler.DeleteArticle)

	notifications := protected.Group("/notifications")
	notifications.Get("/", notificationHandler.ListNotifications)
	notifications.Get("/:id", notificationHandler.GetNotification)
	notifications.Post("/", audited("notification_create", "notifications"), notificationHandler.CreateNotification)
	notifications.Put("/:id", audited("notification_update", "notifications"), notificationHandler.UpdateNotification)
	notifications.Delete("/:id", audited("notification_delete", "notifications"), notificationHandler.DeleteNotification)

	banners := protected.Group("/banners")
	banners.Get("/", contentHandler.ListBanners)
	banners.Get("/:id", contentHandler.GetBanner)
	banners.Post("/", audited("banner_create", "banners"), contentHandler.CreateBanner)
	banners.Put("/:id", audited("banner_update", "banners"), contentHandler.UpdateBanner)
	banners.Delete("/:id", audited("banner_delete", "banners"), contentHandler.DeleteBanner)

	counselors := protected.Group("/counselors")
	counselors.Get("/", counselorHandler.ListCounselors)
	counselors.Get("/:id", counselorHandler.GetCounselor)
	counselors.Post("/", audited("counselor_create", "counselors"), counselorHandler.CreateCounselor)
	counselors.Put("/:id", audited("counselor_update", "counselors"), counselorHandler.UpdateCounselor)
	counselors.Patch("/:id/status", audited("counselor_status", "counselors"), counselorHandler.UpdateStatus)
	counselors.Delete("/:id", audited("counselor_delete", "counselors"), counselorHandler.DeleteCounselor)

	orders := protected.Group("/orders")
	orders.Get("/", orderHandler.ListOrders)
	orders.Get("/:id", orderHandler.GetOrder)
	orders.Post("/", audited("order_create", "orders"), orderHandler.CreateOrder)
	orders.Patch("/:id/status", audited("order_status", "orders"), orderHandler.UpdateStatus)

	schedules := protected.Group("/schedules")
	schedules.Get("/", scheduleHandler.MonthView)
	schedules.Post("/", audited("schedule_create", "schedules"), scheduleHandler.CreateSchedules)
	schedules.Post("/upload", audited("schedule_upload", "schedules"), scheduleHandler.UploadSchedules)
	schedules.Delete("/:id", audited("schedule_delete", "schedules"), scheduleHandler.DeleteSchedule)

	cancellations := protected.Group("/cancellations")
	cancellations.Get("/", scheduleHandler.ListCancellations)
	cancellations.Post("/", audited("cancellation_create", "cancellations"), scheduleHandler.CreateCancellation)
	cancellations.Put("/", audited("cancellation_upsert", "cancellations"), scheduleHandler.UpsertCancellations)
	cancellations.Post("/conflicts", scheduleHandler.Conflicts)
	cancellations.Delete("/:id", audited("cancellation_delete", "cancellations"), scheduleHandler.DeleteCancellation)

	auditLogs := protected.Group("/audit-logs")
	auditLogs.Get("/", auditHandler.ListAuditLogs)
	auditLogs.Get("/:id", auditHandler.GetAuditLog)

	// ==================== Consultant surface ====================

	cs := api.Group("/consultant")

	cs.Post("/login", loginLimiter(svc.BruteForce, consultant.Login)...)
	cs.Post("/register", loginLimiter(svc.BruteForce, consultant.Register)...)
	cs.Post("/email", consultant.SendEmailCode)
	cs.Post("/reset-password", loginLimiter(svc.BruteForce, consultant.ResetPassword)...)

	authed := cs.Group("", counselorGuard.Body())
	authed.Post("/deactivate", consultant.Deactivate)
	authed.Post("/logout", consultant.Logout)

	dashboard := authed.Group("/dashboard")
	dashboard.Post("/today-transactions", consultant.TodayTransactions)
	dashboard.Post("/category-data", consultant.CategoryData)
	dashboard.Post("/yearly-consultations", consultant.YearlyConsultations)
	dashboard.Post("/time-slot-data", consultant.TimeSlotData)
	dashboard.Post("/gender-data", consultant.GenderData)
	dashboard.Post("/age-data", consultant.AgeData)

	csOrders := authed.Group("/orders")
	csOrders.Post("/list", consultant.ListOrders)
	csOrders.Post("/create", consultant.CreateOrder)
	csOrders.Post("/status", consultant.UpdateOrderStatus)

	records := authed.Group("/records")
	records.Post("/list", consultant.ListRecords)
	records.Post("/create", consultant.CreateRecord)
	records.Post("/delete", consultant.DeleteRecord)
	records.Post("/profile", consultant.RecordProfile)
	records.Post("/report", consultant.RecordReport)
	records.Post("/upload", consultant.UploadRecords)
	records.Post("/sessions/create", consultant.CreateSession)
	records.Post("/sessions/update", consultant.UpdateSession)

	templates := authed.Group("/templates")
	templates.Post("/list", consultant.ListTemplates)
	templates.Post("/upload", consultant.UploadTemplate)
	templates.Post("/download", consultant.DownloadTemplates)

	schedule := authed.Group("/schedule")
	schedule.Post("/work", consultant.WorkSchedule)
	schedule.Post("/work/update", consultant.UpdateWorkSchedule)
	schedule.Post("/upload", consultant.UploadSchedule)
	schedule.Post("/stop", consultant.ListStops)
	schedule.Post("/stop/create", consultant.CreateStop)
	schedule.Post("/stop/update", consultant.UpdateStop)
	schedule.Post("/stop/delete", consultant.DeleteStop)
	schedule.Post("/stop/conflict", consultant.StopConflict)

	user := authed.Group("/user")
	user.Post("/comments", consultant.Comments)
	user.Post("/profile", consultant.Profile)
	user.Post("/update-profile", consultant.UpdateProfile)
	user.Post("/update-avatar", consultant.UpdateAvatar)
	user.Post("/file-link", consultant.FileLink)
}
