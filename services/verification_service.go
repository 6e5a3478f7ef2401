package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/mindbridge/counsel-api/model"
	"github.com/mindbridge/counsel-api/services/media"
	"github.com/mindbridge/counsel-api/utils/auth"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	ErrInvalidCode    = errors.New("verification code is invalid or expired")
	ErrInvalidCaptcha = errors.New("captcha is invalid or expired")
)

// IssuedCaptcha is returned to the login form
type IssuedCaptcha struct {
	Key         string `json:"captcha_key"`
	ImageBase64 string `json:"captcha_image_base64"`
}

// VerificationService issues and redeems email codes and login captchas
type VerificationService struct {
	db     *gorm.DB
	sender CodeSender
	logger *zap.Logger
	// echo codes to the log when mail cannot be sent; development only
	logCodes bool
	now      func() time.Time
}

// NewVerificationService creates a new verification service
func NewVerificationService(db *gorm.DB, sender CodeSender, logger *zap.Logger, logCodes bool) *VerificationService {
	return &VerificationService{db: db, sender: sender, logger: logger, logCodes: logCodes, now: time.Now}
}

// IssueCaptcha stores a new captcha and renders it
func (s *VerificationService) IssueCaptcha(ctx context.Context) (*IssuedCaptcha, error) {
	text, err := auth.CaptchaText(auth.CaptchaLength)
	if err != nil {
		return nil, err
	}
	image, err := media.CaptchaBase64(text)
	if err != nil {
		return nil, fmt.Errorf("failed to render captcha: %w", err)
	}

	row := model.Captcha{
		Key:       uuid.NewString(),
		Text:      text,
		ExpiresAt: s.now().Add(model.CaptchaTTL),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to store captcha: %w", err)
	}
	return &IssuedCaptcha{Key: row.Key, ImageBase64: image}, nil
}

// CheckCaptcha redeems a captcha. A captcha can be redeemed once, whether or
// not the answer was right.
func (s *VerificationService) CheckCaptcha(ctx context.Context, key, text string) error {
	if key == "" || text == "" {
		return ErrInvalidCaptcha
	}
	var row model.Captcha
	if err := s.db.WithContext(ctx).Where("key = ?", key).First(&row).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCaptcha
		}
		return err
	}

	ok := row.Matches(text, s.now())
	if err := s.db.WithContext(ctx).Model(&row).Update("is_used", true).Error; err != nil {
		return err
	}
	if !ok {
		return ErrInvalidCaptcha
	}
	return nil
}

// SendCode generates a code for email and delivers it
func (s *VerificationService) SendCode(ctx context.Context, realm model.Realm, email string, purpose model.CodePurpose) error {
	email = strings.ToLower(strings.TrimSpace(email))
	code, err := auth.NumericCode(auth.VerificationCodeLength)
	if err != nil {
		return err
	}

	row := model.VerificationCode{
		Realm:     realm,
		Email:     email,
		Code:      code,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(model.VerificationCodeTTL),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("failed to store verification code: %w", err)
	}

	if err := s.sender.SendVerificationCode(email, code, purpose, realm); err != nil {
		if s.logCodes && errors.Is(err, ErrEmailNotConfigured) {
			s.logger.Warn("verification code not mailed",
				zap.String("email", email), zap.String("purpose", string(purpose)), zap.String("code", code))
			return nil
		}
		return err
	}
	return nil
}

// VerifyCode redeems the newest matching code for email and purpose
func (s *VerificationService) VerifyCode(ctx context.Context, realm model.Realm, email, code string, purpose model.CodePurpose) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || code == "" {
		return ErrInvalidCode
	}

	var row model.VerificationCode
	err := s.db.WithContext(ctx).
		Where("realm = ? AND email = ? AND purpose = ? AND is_verified = ?", realm, email, purpose, false).
		Order("created_at DESC").
		First(&row).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrInvalidCode
		}
		return err
	}
	if !row.Matches(strings.TrimSpace(code), s.now()) {
		if err := s.db.WithContext(ctx).Model(&row).
			UpdateColumn("failures", gorm.Expr("failures + 1")).Error; err != nil {
			s.logger.Warn("failed to count code failure", zap.Uint("code_id", row.ID), zap.Error(err))
		}
		return ErrInvalidCode
	}
	return s.db.WithContext(ctx).Model(&row).Update("is_verified", true).Error
}

// PurgeExpired removes used or expired codes and captchas
func (s *VerificationService) PurgeExpired(ctx context.Context) (int64, error) {
	now := s.now()
	codes := s.db.WithContext(ctx).
		Where("is_verified = ? OR expires_at < ?", true, now).
		Delete(&model.VerificationCode{})
	if codes.Error != nil {
		return 0, fmt.Errorf("failed to purge codes: %w", codes.Error)
	}
	captchas := s.db.WithContext(ctx).
		Where("is_used = ? OR expires_at < ?", true, now).
		Delete(&model.Captcha{})
	if captchas.Error != nil {
		return 0, fmt.Errorf("failed to purge captchas: %w", captchas.Error)
	}
	return codes.RowsAffected + captchas.RowsAffected, nil
}
