package detection

import (
	"DebrisDetector/internal/entity"
	"fmt"
	"strings"
)

// Failure is a transport-independent description of why a submission failed.
type Failure struct {
	TimedOut    bool
	Responded   bool
	StatusCode  int
	Status      string
	Detail      string
	Unreachable bool
	Cause       string
}

// Classify maps a failure to the error shown to the user. It depends only on f.
func Classify(f Failure) entity.ErrorInfo {
	switch {
	case f.TimedOut:
		return entity.ErrorInfo{
			Kind:    entity.ErrorKindTimeout,
			Message: "request timed out, the detection service may be overloaded",
		}
	case f.Responded:
		reason := strings.TrimSpace(f.Detail)
		if reason == "" {
			reason = statusText(f)
		}
		return entity.ErrorInfo{
			Kind:    entity.ErrorKindService,
			Message: "detection failed: " + reason,
			Status:  f.StatusCode,
		}
	case f.Unreachable:
		return entity.ErrorInfo{
			Kind:    entity.ErrorKindNetwork,
			Message: "cannot reach the detection service, make sure it is running",
		}
	default:
		cause := f.Cause
		if cause == "" {
			cause = "unknown failure"
		}
		return entity.ErrorInfo{
			Kind:    entity.ErrorKindUnknown,
			Message: "unexpected error: " + cause,
		}
	}
}

func statusText(f Failure) string {
	if f.Status != "" {
		return f.Status
	}
	return fmt.Sprintf("HTTP %d", f.StatusCode)
}
