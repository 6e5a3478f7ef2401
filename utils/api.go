package utils

import (
	fiber "github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/database"
	"github.com/mindbridge/counsel-api/utils/response"
)

// MakeHTTPHandleFunc binds a store-aware handler to a fiber route. Errors
// the handler returns without writing a response become a 500 envelope.
func MakeHTTPHandleFunc(handler func(c *fiber.Ctx, store database.Storage) error, store database.Storage) func(c *fiber.Ctx) error {
	return func(c *fiber.Ctx) error {
		if err := handler(c, store); err != nil {
			return response.InternalServerError(c, "Internal server error")
		}
		return nil
	}
}
