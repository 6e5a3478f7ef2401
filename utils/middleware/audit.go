package middleware

import (
	"encoding/json"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/model"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var redactedFields = []string{"password", "new_password", "newPassword", "token", "code", "verification_code", "captcha_text"}

// AdminAuditLog records a mutating admin action after the handler ran.
// Requests without an authenticated admin are passed through unlogged.
func AdminAuditLog(db *gorm.DB, log *zap.Logger, action, resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		admin, ok := CurrentAdmin(c)
		if !ok {
			return c.Next()
		}

		var resourceID uint
		if id := c.Params("id"); id != "" {
			if parsedID, err := strconv.ParseUint(id, 10, 32); err == nil {
				resourceID = uint(parsedID)
			}
		}

		newValue := "null"
		if strings.HasPrefix(c.Get(fiber.HeaderContentType), fiber.MIMEApplicationJSON) {
			newValue = redactBody(c.Body())
		}

		err := c.Next()

		// fiber reuses the ctx after return, so copy what the goroutine needs
		entry := model.AdminAuditLog{
			AdminID:     admin.ID,
			Action:      action,
			Resource:    resource,
			ResourceID:  resourceID,
			NewValue:    newValue,
			StatusCode:  c.Response().StatusCode(),
			IPAddress:   c.IP(),
			UserAgent:   string([]byte(c.Get(fiber.HeaderUserAgent))),
			Description: c.Method() + " " + c.Path(),
		}
		if err != nil {
			if fe, ok := err.(*fiber.Error); ok {
				entry.StatusCode = fe.Code
			}
		}

		go func() {
			if dbErr := db.Create(&entry).Error; dbErr != nil {
				log.Warn("failed to write audit log", zap.String("action", action), zap.Error(dbErr))
			}
		}()

		return err
	}
}

func redactBody(body []byte) string {
	if len(body) == 0 {
		return "null"
	}
	var payload map[string]interface{}
	if err := json.Unmarshal(body, &payload); err != nil {
		return "null"
	}
	for _, f := range redactedFields {
		if _, ok := payload[f]; ok {
			payload[f] = "***"
		}
	}
	out, err := json.Marshal(payload)
	if err != nil {
		return "null"
	}
	return string(out)
}
