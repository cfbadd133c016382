package detection

import (
	"DebrisDetector/internal/entity"
	"fmt"
)

type ConfidenceTier string

const (
	TierHigh   ConfidenceTier = "high"
	TierMedium ConfidenceTier = "medium"
	TierLow    ConfidenceTier = "low"
)

func TierOf(confidence float64) ConfidenceTier {
	switch {
	case confidence > 0.7:
		return TierHigh
	case confidence > 0.4:
		return TierMedium
	default:
		return TierLow
	}
}

// FormatConfidence renders a probability as a percentage with one decimal, e.g. "82.0%".
func FormatConfidence(confidence float64) string {
	return fmt.Sprintf("%.1f%%", confidence*100)
}

func NewDetectionResponse(d entity.Detection) DetectionResponse {
	return DetectionResponse{
		Label:      d.Label,
		Confidence: d.Confidence,
		Percent:    FormatConfidence(d.Confidence),
		Tier:       TierOf(d.Confidence),
		Box:        d.Box,
	}
}

func NewResultResponse(r entity.DetectionResult) *ResultResponse {
	detections := make([]DetectionResponse, 0, len(r.Detections))
	for _, d := range r.Detections {
		detections = append(detections, NewDetectionResponse(d))
	}

	return &ResultResponse{
		AnnotatedImage: dataURI(r.AnnotatedType, r.AnnotatedImage),
		DetectionCount: r.Count(),
		Detections:     detections,
	}
}

// NewStateResponse shapes the workflow state for the presentation layer.
func NewStateResponse(s entity.State) StateResponse {
	if s == nil {
		s = entity.Idle{}
	}

	resp := StateResponse{Phase: s.Phase()}
	if img, ok := entity.ImageOf(s); ok {
		resp.FileName = img.Name
		resp.Preview = img.Preview
	}

	switch st := s.(type) {
	case entity.Submitting:
		resp.SubmissionID = st.SubmissionID
	case entity.Succeeded:
		resp.SubmissionID = st.SubmissionID
		resp.Result = NewResultResponse(st.Result)
	case entity.Failed:
		resp.SubmissionID = st.SubmissionID
		resp.Error = &ErrorResponse{
			Kind:    st.Error.Kind,
			Message: st.Error.Message,
			Status:  st.Error.Status,
		}
	}

	return resp
}
