package config

import (
	detectionHandler "DebrisDetector/internal/api/detection/handler"
	detectionService "DebrisDetector/internal/api/detection/service"
	"DebrisDetector/internal/middleware"
	"DebrisDetector/pkg/detector"
	"DebrisDetector/pkg/utils"
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

type ServerOption func(*Server) error

type Server struct {
	engine           *fiber.App
	config           *AppConfig
	log              *logrus.Logger
	middleware       middleware.Middleware
	validator        *validator.Validate
	utils            utils.IUtils
	detector         detector.IDetector
	detectionService detectionService.IDetectionService
	handlers         []handler
}

type handler interface {
	Start(srv fiber.Router)
}

func NewServer(options ...ServerOption) (*Server, error) {
	server := &Server{}

	for _, option := range options {
		if err := option(server); err != nil {
			return nil, fmt.Errorf("failed to apply option: %w", err)
		}
	}

	if server.engine == nil {
		return nil, fmt.Errorf("fiber app is required")
	}
	if server.log == nil {
		return nil, fmt.Errorf("logger is required")
	}
	if server.config == nil {
		return nil, fmt.Errorf("app config is required")
	}
	if server.utils == nil {
		server.utils = utils.NewWithLimits(server.config.MaxUploadSize, server.config.PreviewMaxDimension)
	}
	if server.detector == nil {
		return nil, fmt.Errorf("detector is required")
	}

	return server, nil
}

func WithFiber(fiberApp *fiber.App) ServerOption {
	return func(s *Server) error {
		s.engine = fiberApp
		return nil
	}
}

func WithAppConfig(cfg *AppConfig) ServerOption {
	return func(s *Server) error {
		s.config = cfg
		return nil
	}
}

func WithLogger(logger *logrus.Logger) ServerOption {
	return func(s *Server) error {
		s.log = logger
		return nil
	}
}

func WithValidator(validator *validator.Validate) ServerOption {
	return func(s *Server) error {
		s.validator = validator
		return nil
	}
}

func WithUtils() ServerOption {
	return func(s *Server) error {
		if s.config == nil {
			return fmt.Errorf("app config must be set before utils")
		}
		s.utils = utils.NewWithLimits(s.config.MaxUploadSize, s.config.PreviewMaxDimension)
		return nil
	}
}

// WithDetector uses d as the detection service client; nil builds the HTTP client
// from the app config.
func WithDetector(d detector.IDetector) ServerOption {
	return func(s *Server) error {
		if d != nil {
			s.detector = d
			return nil
		}
		if s.config == nil || s.log == nil {
			return fmt.Errorf("app config and logger must be set before the detector")
		}
		s.detector = detector.New(detector.Config{Endpoint: s.config.DetectionServiceURL}, s.log, s.validator)
		return nil
	}
}

func WithMiddleware() ServerOption {
	return func(s *Server) error {
		if s.log == nil {
			return fmt.Errorf("logger must be initialized before middleware")
		}
		if s.config == nil {
			return fmt.Errorf("app config must be set before middleware")
		}
		if s.utils == nil {
			s.utils = utils.NewWithLimits(s.config.MaxUploadSize, s.config.PreviewMaxDimension)
		}
		s.middleware = middleware.New(s.log, s.utils, middleware.Config{
			RateLimit: rate.Limit(s.config.RateLimitRPS),
			Burst:     s.config.RateLimitBurst,
		})
		return nil
	}
}

func (s *Server) RegisterHandler() {
	// Detection workflow
	s.detectionService = detectionService.NewDetectionService(s.log, s.detector, s.utils, s.config.DetectionTimeout)
	detectionHandlers := detectionHandler.New(s.log, s.middleware, s.detectionService, s.utils)

	s.setupHealthCheck()
	s.handlers = append(s.handlers, detectionHandlers)
}

func (s *Server) Run() error {
	s.engine.Use(s.middleware.NewRequestIDMiddleware())
	s.engine.Use(s.middleware.NewLoggingMiddleware)
	router := s.engine.Group("/api/v1")

	for _, h := range s.handlers {
		h.Start(router)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := s.detector.HealthCheck(ctx); err != nil {
		s.log.Warnf("Detection service not available at %s: %v", s.config.DetectionServiceURL, err)
	}

	return s.engine.Listen(fmt.Sprintf(":%s", s.config.Port))
}

// Shutdown stops accepting requests and waits for in-flight submissions to settle.
func (s *Server) Shutdown(timeout time.Duration) error {
	err := s.engine.ShutdownWithTimeout(timeout)

	if s.detectionService != nil {
		done := make(chan struct{})
		go func() {
			s.detectionService.Wait()
			close(done)
		}()

		select {
		case <-done:
		case <-time.After(timeout):
			s.log.Warn("Timed out waiting for in-flight detection submissions")
		}
	}

	return err
}

func (s *Server) setupHealthCheck() {
	s.engine.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.JSON(fiber.Map{
			"message": "Debris detector client is healthy!",
		})
	})
}
