package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/mindbridge/counsel-api/utils/response"
	"go.uber.org/zap"
)

// BodyLimit leaves room for a 20MB upload plus form fields
const BodyLimit = 25 << 20

type APIServer struct {
	app           *fiber.App
	listenAddress string
	logger        *zap.Logger
}

func NewAPIServer(listenAddress string, logger *zap.Logger) *APIServer {
	app := fiber.New(fiber.Config{
		AppName:      "counsel-api",
		BodyLimit:    BodyLimit,
		ErrorHandler: errorHandler(logger),
	})
	return &APIServer{
		app:           app,
		listenAddress: listenAddress,
		logger:        logger,
	}
}

// errorHandler renders errors that escaped the handlers in the response envelope
func errorHandler(logger *zap.Logger) fiber.ErrorHandler {
	return func(c *fiber.Ctx, err error) error {
		var fe *fiber.Error
		if errors.As(err, &fe) {
			switch fe.Code {
			case fiber.StatusNotFound:
				return response.NotFound(c, fe.Message)
			case fiber.StatusRequestEntityTooLarge:
				return response.BadRequest(c, "Request body too large")
			case fiber.StatusTooManyRequests:
				return response.TooManyRequests(c, fe.Message)
			}
			if fe.Code < fiber.StatusInternalServerError {
				return response.BadRequest(c, fe.Message)
			}
		}
		logger.Error("unhandled request error", zap.String("path", c.Path()), zap.Error(err))
		return response.InternalServerError(c, "Internal server error")
	}
}

func (s *APIServer) GetEngine() *fiber.App {
	return s.app
}

func (s *APIServer) Run() error {
	s.logger.Info("starting API server", zap.String("address", s.listenAddress))
	return s.app.Listen(s.listenAddress)
}

// Shutdown stops accepting connections and waits for in-flight requests
func (s *APIServer) Shutdown() error {
	return s.app.Shutdown()
}
