package detectionHandler

import (
	detectionService "DebrisDetector/internal/api/detection/service"
	"DebrisDetector/internal/middleware"
	"DebrisDetector/pkg/utils"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"github.com/sirupsen/logrus"
)

type DetectionHandler struct {
	log              *logrus.Logger
	middleware       middleware.Middleware
	detectionService detectionService.IDetectionService
	utils            utils.IUtils
}

func New(
	log *logrus.Logger,
	middleware middleware.Middleware,
	ds detectionService.IDetectionService,
	utils utils.IUtils,
) *DetectionHandler {
	return &DetectionHandler{
		detectionService: ds,
		log:              log,
		middleware:       middleware,
		utils:            utils,
	}
}

func (h *DetectionHandler) Start(srv fiber.Router) {
	wsMiddleware := func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	}

	detection := srv.Group("/detection")
	detection.Post("/file", h.middleware.NewRateLimiter, h.SelectFile)
	detection.Post("/submit", h.middleware.NewRateLimiter, h.Submit)
	detection.Post("/reset", h.Reset)
	detection.Get("/state", h.GetState)
	detection.Get("/annotated", h.GetAnnotatedImage)

	detection.Use("/ws", wsMiddleware)
	detection.Get("/ws", websocket.New(h.handleStateWebSocket))
}
