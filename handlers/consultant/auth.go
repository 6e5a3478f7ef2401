package consultant

import (
	"errors"
	"strings"

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

const (
	accountEmail = "email"
	accountPhone = "phone"
)

var errPhoneCodes = errors.New("verification codes are only delivered by email")

type LoginRequest struct {
	LoginType   string `json:"loginType" validate:"required,oneof=password code"`
	AccountType string `json:"accountType" validate:"required,oneof=email phone"`
	Account     string `json:"account" validate:"required"`
	Credential  string `json:"credential" validate:"required"`
}

type RegisterRequest struct {
	UserName         string `json:"userName" validate:"required,min=2,max=150"`
	AccountType      string `json:"accountType" validate:"required,oneof=email phone"`
	Account          string `json:"account" validate:"required"`
	Password         string `json:"password" validate:"required,min=6,max=72"`
	VerificationCode string `json:"verificationCode" validate:"required"`
}

type EmailCodeRequest struct {
	Email   string `json:"email" validate:"required,email"`
	Purpose string `json:"purpose" validate:"omitempty,oneof=register login reset"`
}

type ResetPasswordRequest struct {
	AccountType      string `json:"accountType" validate:"required,oneof=email phone"`
	Account          string `json:"account" validate:"required"`
	VerificationCode string `json:"verificationCode" validate:"required"`
	NewPassword      string `json:"newPassword" validate:"required,min=6,max=72"`
}

type DeactivateRequest struct {
	AccountType      string `json:"accountType" validate:"required,oneof=email phone"`
	Account          string `json:"account" validate:"required"`
	VerificationCode string `json:"verificationCode" validate:"required"`
}

// UserInfo is the counselor summary returned on sign-in
type UserInfo struct {
	ID           uint   `json:"id"`
	Username     string `json:"username"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	Phone        string `json:"phone"`
	Organization string `json:"organization"`
	Avatar       string `json:"avatar"`
}

func userInfo(co *model.Counselor) UserInfo {
	info := UserInfo{
		ID:           co.ID,
		Username:     co.Username,
		Name:         co.Name,
		Email:        co.Email,
		Phone:        co.Phone,
		Organization: co.Organization,
	}
	if co.Profile != nil {
		info.Avatar = co.Profile.AvatarURL
	}
	return info
}

func normalizeAccount(accountType, account string) string {
	account = strings.TrimSpace(account)
	if accountType == accountEmail {
		return strings.ToLower(account)
	}
	return account
}

func (h *Handler) findByAccount(c *fiber.Ctx, accountType, account string) (*model.Counselor, error) {
	var co model.Counselor
	column := "email"
	if accountType == accountPhone {
		column = "phone"
	}
	err := h.DB.WithContext(c.UserContext()).Preload("Profile").
		Where(column+" = ?", normalizeAccount(accountType, account)).First(&co).Error
	if err != nil {
		return nil, err
	}
	return &co, nil
}

// verifyAny redeems the code against the first purpose it matches
func (h *Handler) verifyAny(c *fiber.Ctx, email, code string, purposes ...model.CodePurpose) error {
	var err error
	for _, p := range purposes {
		err = h.Verification.VerifyCode(c.UserContext(), model.RealmCounselor, email, code, p)
		if err == nil || !errors.Is(err, services.ErrInvalidCode) {
			return err
		}
	}
	return err
}

func (h *Handler) codeError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, errPhoneCodes):
		return response.BadRequest(c, err.Error())
	case errors.Is(err, services.ErrInvalidCode):
		h.BruteForce.RecordFailedAttempt(c)
		return response.BadRequest(c, "Verification code is invalid or expired")
	}
	h.Logger.Error("verify code", zap.Error(err))
	return response.InternalServerError(c, "Failed to verify code")
}

// Login handles POST /api/consultant/auth/login
func (h *Handler) Login(c *fiber.Ctx) error {
	var req LoginRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}

	co, err := h.findByAccount(c, req.AccountType, req.Account)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			h.BruteForce.RecordFailedAttempt(c)
			return response.Unauthorized(c, "Invalid account or credential")
		}
		return response.InternalServerError(c, "Failed to sign in")
	}

	switch req.LoginType {
	case "password":
		if err := auth.VerifyPassword(co.PasswordHash, req.Credential); err != nil {
			h.BruteForce.RecordFailedAttempt(c)
			return response.Unauthorized(c, "Invalid account or credential")
		}
	case "code":
		if req.AccountType != accountEmail {
			return response.BadRequest(c, errPhoneCodes.Error())
		}
		if err := h.verifyAny(c, co.Email, req.Credential, model.PurposeLogin, model.PurposeRegister); err != nil {
			if errors.Is(err, services.ErrInvalidCode) {
				h.BruteForce.RecordFailedAttempt(c)
				return response.Unauthorized(c, "Verification code is invalid or expired")
			}
			return h.codeError(c, err)
		}
	}
	if !co.IsEnabled() {
		return response.Forbidden(c, "Account is disabled")
	}
	h.BruteForce.RecordSuccessfulAttempt(c)

	record, err := h.Tokens.Issue(c.UserContext(), co.ID)
	if err != nil {
		h.Logger.Error("issue counselor token", zap.Uint("counselor_id", co.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to generate token")
	}

	return response.SuccessWithMessage(c, "Login successful", fiber.Map{
		"token":    record.Token,
		"userInfo": userInfo(co),
	})
}

// Register handles POST /api/consultant/auth/register
func (h *Handler) Register(c *fiber.Ctx) error {
	var req RegisterRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	if req.AccountType != accountEmail {
		return response.BadRequest(c, errPhoneCodes.Error())
	}

	email := normalizeAccount(accountEmail, req.Account)
	if !validation.ValidateEmail(email) {
		return response.BadRequest(c, "Invalid email address")
	}
	if err := h.Verification.VerifyCode(c.UserContext(), model.RealmCounselor, email, req.VerificationCode, model.PurposeRegister); err != nil {
		return h.codeError(c, err)
	}

	var taken int64
	h.DB.Model(&model.Counselor{}).Where("email = ?", email).Count(&taken)
	if taken > 0 {
		return response.Conflict(c, "Email already registered")
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to process password")
	}

	name := validation.SanitizeString(req.UserName)
	co := model.Counselor{
		Username:      name,
		Name:          name,
		Email:         email,
		Gender:        model.GenderMale,
		PasswordHash:  hash,
		Status:        model.CounselorEnabled,
		ExpertiseTags: []byte("[]"),
		ServeType:     []byte("[]"),
	}
	err = h.DB.WithContext(c.UserContext()).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&co).Error; err != nil {
			return err
		}
		return tx.Create(&model.CounselorProfile{CounselorID: co.ID, Name: name, Expertise: []byte("[]")}).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return response.Conflict(c, "Username already exists")
		}
		h.Logger.Error("register counselor", zap.Error(err))
		return response.InternalServerError(c, "Failed to register")
	}

	return response.Created(c, userInfo(&co))
}

// SendEmailCode handles POST /api/consultant/auth/email
func (h *Handler) SendEmailCode(c *fiber.Ctx) error {
	var req EmailCodeRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	purpose := model.PurposeRegister
	if req.Purpose != "" {
		purpose = model.CodePurpose(req.Purpose)
	}

	email := normalizeAccount(accountEmail, req.Email)
	if !h.BruteForce.AllowSend(c.UserContext(), "counselor:"+email, sendCodeCooldown) {
		return response.TooManyRequests(c, "Please wait before requesting another code")
	}
	if err := h.Verification.SendCode(c.UserContext(), model.RealmCounselor, email, purpose); err != nil {
		h.Logger.Error("send counselor code", zap.String("email", email), zap.Error(err))
		return response.InternalServerError(c, "Failed to send verification code")
	}

	return response.SuccessWithMessage(c, "Verification code sent", nil)
}

// ResetPassword handles POST /api/consultant/auth/reset-password. Existing
// sessions are signed out.
func (h *Handler) ResetPassword(c *fiber.Ctx) error {
	var req ResetPasswordRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	if req.AccountType != accountEmail {
		return response.BadRequest(c, errPhoneCodes.Error())
	}

	email := normalizeAccount(accountEmail, req.Account)
	if err := h.verifyAny(c, email, req.VerificationCode, model.PurposeReset, model.PurposeRegister); err != nil {
		return h.codeError(c, err)
	}

	co, err := h.findByAccount(c, accountEmail, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return response.NotFound(c, "Account not found")
		}
		return response.InternalServerError(c, "Failed to reset password")
	}

	hash, err := auth.HashPassword(req.NewPassword)
	if err != nil {
		if errors.Is(err, auth.ErrWeakPassword) {
			return response.BadRequest(c, err.Error())
		}
		return response.InternalServerError(c, "Failed to process password")
	}
	if err := h.DB.Model(co).Update("password_hash", hash).Error; err != nil {
		return response.InternalServerError(c, "Failed to reset password")
	}
	if err := h.Tokens.RevokeAll(c.UserContext(), co.ID); err != nil {
		h.Logger.Warn("revoke tokens after reset", zap.Uint("counselor_id", co.ID), zap.Error(err))
	}

	return response.SuccessWithMessage(c, "Password reset successfully", nil)
}

// Deactivate handles POST /api/consultant/auth/deactivate. The account is
// disabled, not deleted, and every token is revoked.
func (h *Handler) Deactivate(c *fiber.Ctx) error {
	var req DeactivateRequest
	if ok, err := h.bind(c, &req); !ok {
		return err
	}
	co := counselor(c)

	account := normalizeAccount(req.AccountType, req.Account)
	if (req.AccountType == accountEmail && account != strings.ToLower(co.Email)) ||
		(req.AccountType == accountPhone && account != co.Phone) {
		return response.BadRequest(c, "Account does not match the signed-in counselor")
	}
	if co.Email == "" {
		return response.BadRequest(c, errPhoneCodes.Error())
	}
	if err := h.verifyAny(c, co.Email, req.VerificationCode, model.PurposeReset, model.PurposeRegister, model.PurposeLogin); err != nil {
		return h.codeError(c, err)
	}

	if err := h.DB.Model(co).Update("status", model.CounselorDisabled).Error; err != nil {
		return response.InternalServerError(c, "Failed to deactivate account")
	}
	if err := h.Tokens.RevokeAll(c.UserContext(), co.ID); err != nil {
		h.Logger.Error("revoke tokens on deactivate", zap.Uint("counselor_id", co.ID), zap.Error(err))
		return response.InternalServerError(c, "Failed to deactivate account")
	}

	return response.SuccessWithMessage(c, "Account deactivated", nil)
}

// Logout handles POST /api/consultant/auth/logout
func (h *Handler) Logout(c *fiber.Ctx) error {
	if err := h.Tokens.Revoke(c.UserContext(), middleware.CurrentToken(c)); err != nil && !errors.Is(err, auth.ErrTokenNotFound) {
		return response.InternalServerError(c, "Failed to logout")
	}
	return response.SuccessWithMessage(c, "Logged out successfully", nil)
}
