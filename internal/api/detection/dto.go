package detection

import (
	"DebrisDetector/internal/entity"
	"encoding/base64"
)

type StateResponse struct {
	Phase        entity.Phase    `json:"phase"`
	FileName     string          `json:"file_name,omitempty"`
	Preview      string          `json:"preview,omitempty"`
	SubmissionID string          `json:"submission_id,omitempty"`
	Result       *ResultResponse `json:"result,omitempty"`
	Error        *ErrorResponse  `json:"error,omitempty"`
}

type ResultResponse struct {
	AnnotatedImage string              `json:"annotated_image"`
	DetectionCount int                 `json:"detection_count"`
	Detections     []DetectionResponse `json:"detections"`
}

type DetectionResponse struct {
	Label      string         `json:"label"`
	Confidence float64        `json:"confidence"`
	Percent    string         `json:"percent"`
	Tier       ConfidenceTier `json:"tier"`
	Box        entity.Box     `json:"box"`
}

type ErrorResponse struct {
	Kind    entity.ErrorKind `json:"kind"`
	Message string           `json:"message"`
	Status  int              `json:"status,omitempty"`
}

func dataURI(contentType string, data []byte) string {
	if len(data) == 0 {
		return ""
	}
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
