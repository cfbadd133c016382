package handlerUtil

import (
	"DebrisDetector/internal/api/detection"
	"DebrisDetector/internal/entity"
	"DebrisDetector/pkg/log"
	"DebrisDetector/pkg/response"
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details string `json:"details,omitempty"`
	TraceID string `json:"trace_id,omitempty"`
}

type ErrorHandler struct {
	logger *logrus.Logger
}

func New(logger *logrus.Logger) *ErrorHandler {
	return &ErrorHandler{
		logger: logger,
	}
}

func (h *ErrorHandler) Handle(c *fiber.Ctx, requestID string, err error, path string, operation string) error {
	fields := log.Fields{
		"request_id": requestID,
		"error":      err.Error(),
		"path":       path,
		"operation":  operation,
	}

	var info *entity.ErrorInfo
	if errors.As(err, &info) && info.Kind == entity.ErrorKindValidation {
		h.logger.WithFields(fields).Warn("Validation failed")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: info.Message,
			Code:  string(entity.ErrorKindValidation),
		})
	}

	if errors.Is(err, detection.ErrSubmissionInFlight) {
		h.logger.WithFields(fields).Warn("Submission already in flight")
		return c.Status(fiber.StatusConflict).JSON(ErrorResponse{
			Error: "A submission is already in progress",
			Code:  "SUBMISSION_IN_FLIGHT",
		})
	}

	if errors.Is(err, detection.ErrInvalidFileType) {
		h.logger.WithFields(fields).Warn("Invalid file type")
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{
			Error: "Invalid file type. Only images are allowed.",
			Code:  "INVALID_FILE_TYPE",
		})
	}

	if errors.Is(err, detection.ErrFileTooLarge) {
		h.logger.WithFields(fields).Warn("File too large")
		return c.Status(fiber.StatusRequestEntityTooLarge).JSON(ErrorResponse{
			Error: "File too large.",
			Code:  "FILE_TOO_LARGE",
		})
	}

	if errors.Is(err, detection.ErrNoAnnotatedImage) {
		h.logger.WithFields(fields).Debug("No annotated image")
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{
			Error: "No annotated image available",
			Code:  "NO_ANNOTATED_IMAGE",
		})
	}

	var respErr *response.Error
	if errors.As(err, &respErr) {
		h.logger.WithFields(fields).Warn("Operation failed with error response")
		return c.Status(respErr.Code).JSON(ErrorResponse{Error: err.Error()})
	}

	var fiberErr *fiber.Error
	if errors.As(err, &fiberErr) {
		h.logger.WithFields(fields).Warn("Request rejected")
		return c.Status(fiberErr.Code).JSON(ErrorResponse{Error: fiberErr.Message})
	}

	traceID := log.ErrorWithTraceID(fields, "Unexpected error")

	return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{
		Error:   "An unexpected error occurred",
		TraceID: traceID,
	})
}

func (h *ErrorHandler) HandleSuccess(c *fiber.Ctx, statusCode int, data interface{}) error {
	if data == nil {
		return c.SendStatus(statusCode)
	}
	return c.Status(statusCode).JSON(data)
}
