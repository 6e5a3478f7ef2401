package adminauth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services"
	"github.com/mindbridge/counsel-api/utils/auth"
	"github.com/mindbridge/counsel-api/utils/middleware"
	"github.com/mindbridge/counsel-api/utils/response"
	"github.com/mindbridge/counsel-api/utils/validation"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// SendCodeCooldown is the minimum gap between two codes to one address
const SendCodeCooldown = time.Minute

// AuthHandler handles admin sign-up, sign-in and session endpoints
type AuthHandler struct {
	db           *gorm.DB
	tokens       auth.TokenStore
	verification *services.VerificationService
	bruteForce   *middleware.BruteForceProtection
	validator    *validation.Validator
	logger       *zap.Logger
}

// NewAuthHandler creates a new admin auth handler
func NewAuthHandler(db *gorm.DB, tokens auth.TokenStore, verification *services.VerificationService, bruteForce *middleware.BruteForceProtection, logger *zap.Logger) *AuthHandler {
	return &AuthHandler{
		db:           db,
		tokens:       tokens,
		verification: verification,
		bruteForce:   bruteForce,
		validator:    validation.NewValidator(),
		logger:       logger,
	}
}

type SendCodeRequest struct {
	Email    string `json:"email" validate:"required,email"`
	UserName string `json:"user_name"`
	Phone    string `json:"phone"`
}

type RegisterRequest struct {
	Email      string `json:"email" validate:"required,email"`
	UserName   string `json:"user_name" validate:"required,min=3,max=150"`
	Password   string `json:"password" validate:"required,min=6,max=72"`
	VerifyCode string `json:"verify_code" validate:"required"`
	Phone      string `json:"phone" validate:"max=20"`
	Gender     string `json:"gender"`
}

type LoginRequest struct {
	Email      string `json:"email" validate:"required,email"`
	Password   string `json:"password" validate:"required"`
	CaptchaKey string `json:"captcha_key" validate:"required"`
	Captcha    string `json:"captcha" validate:"required"`
}

// LoginResponse carries the opaque token clients send back on every request
type LoginResponse struct {
	Token     string     `json:"token"`
	ID        uint       `json:"id"`
	ExpiresAt *time.Time `json:"expires_at,omitempty"`
}

// Captcha handles GET /api/admin/auth/captcha
func (h *AuthHandler) Captcha(c *fiber.Ctx) error {
	captcha, err := h.verification.IssueCaptcha(c.UserContext())
	if err != nil {
		h.logger.Error("issue captcha", zap.Error(err))
		return response.InternalServerError(c, "Failed to generate captcha")
	}
	return response.Success(c, captcha)
}

// SendCode handles POST /api/admin/auth/send-code
func (h *AuthHandler) SendCode(c *fiber.Ctx) error {
	var req SendCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if !h.bruteForce.AllowSend(c.UserContext(), "admin:"+email, SendCodeCooldown) {
		return response.TooManyRequests(c, "Please wait before requesting another code")
	}

	if err := h.verification.SendCode(c.UserContext(), model.RealmAdmin, email, model.PurposeRegister); err != nil {
		h.logger.Error("send admin code", zap.String("email", email), zap.Error(err))
		return response.InternalServerError(c, "Failed to send verification code")
	}

	return response.SuccessWithMessage(c, "Verification code sent", nil)
}

// Register handles POST /api/admin/auth/register
func (h *AuthHandler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	ctx := c.UserContext()

	if err := h.verification.VerifyCode(ctx, model.RealmAdmin, email, req.VerifyCode, model.PurposeRegister); err != nil {
		if errors.Is(err, services.ErrInvalidCode) {
			h.bruteForce.RecordFailedAttempt(c)
			return response.BadRequest(c, "Verification code is invalid or expired")
		}
		return response.InternalServerError(c, "Failed to verify code")
	}

	gender := model.GenderMale
	if req.Gender != "" {
		g, ok := model.ParseGender(req.Gender)
		if !ok {
			return response.BadRequest(c, "gender must be male or female")
		}
		gender = g
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to process password")
	}

	admin := model.AdminUser{
		Username:     validation.SanitizeString(req.UserName),
		Email:        email,
		Phone:        strings.TrimSpace(req.Phone),
		Gender:       gender,
		PasswordHash: hash,
	}
	if err := h.db.WithContext(ctx).Create(&admin).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Email or username already registered")
		}
		h.logger.Error("register admin", zap.Error(err))
		return response.InternalServerError(c, "Failed to register")
	}

	return response.Created(c, admin)
}

// Login handles POST /api/admin/auth/login. Any earlier token of the admin
// is deactivated.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return response.BadRequest(c, "Invalid request body")
	}
	if err := h.validator.ValidateStruct(req); err != nil {
		return response.ValidationError(c, err)
	}

	ctx := c.UserContext()
	if err := h.verification.CheckCaptcha(ctx, req.CaptchaKey, req.Captcha); err != nil {
		if errors.Is(err, services.ErrInvalidCaptcha) {
			return response.BadRequest(c, "Captcha is invalid or expired")
		}
		return response.InternalServerError(c, "Failed to check captcha")
	}

	var admin model.AdminUser
	if err := h.db.WithContext(ctx).Where("email = ?", strings.ToLower(strings.TrimSpace(req.Email))).First(&admin).Error; err != nil {
		h.bruteForce.RecordFailedAttempt(c)
		return response.Unauthorized(c, "Invalid email or password")
	}
	if err := auth.VerifyPassword(admin.PasswordHash, req.Password); err != nil {
		h.bruteForce.RecordFailedAttempt(c)
		return response.Unauthorized(c, "Invalid email or password")
	}
	h.bruteForce.RecordSuccessfulAttempt(c)
	h.upgradeHash(ctx, &admin, req.Password)

	record, err := h.tokens.Issue(ctx, admin.ID)
	if err != nil {
		h.logger.Error("issue admin token", zap.Uint("admin_id", admin.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.Success(c, LoginResponse{Token: record.Token, ID: admin.ID, ExpiresAt: record.ExpiresAt})
}

// Logout handles POST /api/admin/auth/logout
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	if err := h.tokens.Revoke(c.UserContext(), middleware.CurrentToken(c)); err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		return response.InternalServerError(c, "Failed to logout")
	}
	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}

// Me handles GET /api/admin/auth/me and POST /api/admin/auth/user-info
func (h *AuthHandler) Me(c *fiber.Ctx) error {
	admin, ok := middleware.CurrentAdmin(c)
	if !ok {
		return response.Unauthorized(c, middleware.MsgMissingCredentials)
	}
	return response.Success(c, admin)
}

// upgradeHash re-hashes passwords stored with an outdated bcrypt cost
func (h *AuthHandler) upgradeHash(ctx context.Context, admin *model.AdminUser, password string) {
	if !auth.NeedsRehash(admin.PasswordHash) {
		return
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return
	}
	if err := h.db.WithContext(ctx).Model(admin).Update("password_hash", hash).Error; err != nil {
		h.logger.Warn("failed to upgrade password hash", zap.Uint("admin_id", admin.ID), zap.Error(err))
	}
}
