package detector

import (
	"DebrisDetector/internal/entity"
	"DebrisDetector/pkg/log"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/go-playground/validator/v10"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

// FileField is the multipart field the detection service reads the image from.
const FileField = "file"

const DefaultEndpoint = "http://localhost:8000/predict"

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type IDetector interface {
	Predict(ctx context.Context, image entity.SelectedImage) (*entity.DetectionResult, error)
	HealthCheck(ctx context.Context) error
}

type Config struct {
	Endpoint   string
	HTTPClient *http.Client
}

type detectorClient struct {
	endpoint   string
	httpClient *http.Client
	validator  *validator.Validate
	log        *logrus.Logger
}

func New(cfg Config, logger *logrus.Logger, validate *validator.Validate) IDetector {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = os.Getenv("DETECTION_SERVICE_URL")
	}
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}

	if validate == nil {
		validate = validator.New()
	}

	return &detectorClient{
		endpoint:   endpoint,
		httpClient: httpClient,
		validator:  validate,
		log:        logger,
	}
}

type predictResponse struct {
	AnnotatedImage string             `json:"annotated_image" validate:"required"`
	Detections     []detectionPayload `json:"detections" validate:"dive"`
}

type detectionPayload struct {
	Class      string    `json:"class" validate:"required"`
	Confidence float64   `json:"confidence" validate:"gte=0,lte=1"`
	Box        []float64 `json:"box" validate:"len=4"`
}

type errorPayload struct {
	Detail  jsoniter.RawMessage `json:"detail"`
	Error   string              `json:"error"`
	Message string              `json:"message"`
}

// StatusError is returned when the service answered with a non-2xx status.
type StatusError struct {
	StatusCode int
	Status     string
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("detection service returned HTTP %d: %s", e.StatusCode, e.Detail)
	}
	return fmt.Sprintf("detection service returned HTTP %d", e.StatusCode)
}

// DecodeError is returned when a 2xx response does not match the expected schema.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return "invalid detection service response: " + e.Err.Error()
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

func (c *detectorClient) Predict(ctx context.Context, image entity.SelectedImage) (*entity.DetectionResult, error) {
	body, contentType, err := buildMultipart(image)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create detection request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")

	c.log.WithFields(log.Fields{
		"request_id": log.RequestIDFrom(ctx),
		"endpoint":   c.endpoint,
		"file_name":  image.Name,
		"file_size":  len(image.Data),
	}).Debug("Sending image to detection service")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("detection request failed after %v: %w", time.Since(start), err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read detection response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     parseErrorDetail(respBody),
		}
	}

	result, err := c.decodeResult(respBody)
	if err != nil {
		return nil, err
	}

	c.log.WithFields(log.Fields{
		"request_id":  log.RequestIDFrom(ctx),
		"detections":  len(result.Detections),
		"duration_ms": time.Since(start).Milliseconds(),
	}).Info("Detection service responded")

	return result, nil
}

func (c *detectorClient) decodeResult(body []byte) (*entity.DetectionResult, error) {
	var payload predictResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, &DecodeError{Err: err}
	}

	if err := c.validator.Struct(payload); err != nil {
		return nil, &DecodeError{Err: err}
	}

	annotated, err := decodeImage(payload.AnnotatedImage)
	if err != nil {
		return nil, &DecodeError{Err: err}
	}

	detections := make([]entity.Detection, 0, len(payload.Detections))
	for _, d := range payload.Detections {
		detections = append(detections, entity.Detection{
			Label:      d.Class,
			Confidence: d.Confidence,
			Box:        entity.Box{d.Box[0], d.Box[1], d.Box[2], d.Box[3]},
		})
	}

	return &entity.DetectionResult{
		AnnotatedImage: annotated,
		AnnotatedType:  mimetype.Detect(annotated).String(),
		Detections:     detections,
	}, nil
}

func (c *detectorClient) HealthCheck(ctx context.Context) error {
	root, err := url.Parse(c.endpoint)
	if err != nil {
		return fmt.Errorf("invalid detection service url: %w", err)
	}
	root.Path = "/"
	root.RawQuery = ""

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, root.String(), nil)
	if err != nil {
		return fmt.Errorf("failed to create health check request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("detection service health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return &StatusError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Detail:     parseErrorDetail(body),
		}
	}

	return nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func buildMultipart(image entity.SelectedImage) (*bytes.Buffer, string, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	name := image.Name
	if name == "" {
		name = "image"
	}
	partType := image.ContentType
	if partType == "" {
		partType = "application/octet-stream"
	}

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="%s"; filename="%s"`, FileField, quoteEscaper.Replace(name)))
	header.Set("Content-Type", partType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, "", fmt.Errorf("failed to create form file part: %w", err)
	}
	if _, err := part.Write(image.Data); err != nil {
		return nil, "", fmt.Errorf("failed to write image data to form: %w", err)
	}
	if err := writer.Close(); err != nil {
		return nil, "", fmt.Errorf("failed to close multipart writer: %w", err)
	}

	return &body, writer.FormDataContentType(), nil
}

func decodeImage(encoded string) ([]byte, error) {
	encoded = strings.TrimSpace(encoded)
	if strings.HasPrefix(encoded, "data:") {
		idx := strings.Index(encoded, ";base64,")
		if idx == -1 {
			return nil, errors.New("annotated_image data URI is not base64")
		}
		encoded = encoded[idx+len(";base64,"):]
	}

	data, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("annotated_image is not valid base64: %w", err)
	}
	if len(data) == 0 {
		return nil, errors.New("annotated_image is empty")
	}

	return data, nil
}

func parseErrorDetail(body []byte) string {
	var payload errorPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}

	if raw := bytes.TrimSpace(payload.Detail); len(raw) > 0 && string(raw) != "null" {
		var detail string
		if err := json.Unmarshal(raw, &detail); err == nil {
			return detail
		}
		return string(raw)
	}

	if payload.Error != "" {
		return payload.Error
	}

	return payload.Message
}
