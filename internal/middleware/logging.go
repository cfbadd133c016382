package middleware

import (
	"DebrisDetector/pkg/log"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// NewLoggingMiddleware writes one access log line per request. Request bodies
// are never logged since they carry image bytes.
func (m *middleware) NewLoggingMiddleware(c *fiber.Ctx) error {
	start := time.Now()

	err := c.Next()

	status := c.Response().StatusCode()
	if err != nil {
		status = fiber.StatusInternalServerError
		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			status = fiberErr.Code
		}
	}

	fields := log.Fields{
		"request_id":    m.GetRequestID(c),
		"method":        c.Method(),
		"path":          c.Path(),
		"status":        status,
		"latency_ms":    time.Since(start).Milliseconds(),
		"ip":            c.IP(),
		"user_agent":    c.Get("User-Agent"),
		"response_size": len(c.Response().Body()),
	}

	if contentType := c.Get(fiber.HeaderContentType); contentType != "" {
		fields["content_type"] = strings.SplitN(contentType, ";", 2)[0]
	}

	entry := m.log.WithFields(fields)
	switch {
	case status >= 500:
		entry.Error("Server error")
	case status >= 400:
		entry.Warn("Client error")
	default:
		entry.Info("Success")
	}

	return err
}
