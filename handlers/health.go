package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/database"
)

// HandleCheckHealth pings the primary store and answers /ping
func HandleCheckHealth(c *fiber.Ctx, store database.Storage) error {
	if err := store.HealthCheck(); err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"status": "unavailable", "database": "down"})
	}
	return c.JSON(fiber.Map{"status": "ok", "database": "up"})
}
