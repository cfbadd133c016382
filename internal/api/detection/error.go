package detection

import (
	"DebrisDetector/internal/entity"
	"DebrisDetector/pkg/response"
	"net/http"
)

var (
	ErrNoFileSelected = &entity.ErrorInfo{Kind: entity.ErrorKindValidation, Message: "no file selected"}

	ErrSubmissionInFlight = response.NewError(http.StatusConflict, "submission already in flight")
	ErrNoAnnotatedImage   = response.NewError(http.StatusNotFound, "no annotated image available")
	ErrInvalidFileType    = response.NewError(http.StatusBadRequest, "invalid file type")
	ErrFileTooLarge       = response.NewError(http.StatusRequestEntityTooLarge, "file too large")
	ErrEmptyFile          = response.NewError(http.StatusBadRequest, "empty file")
)
