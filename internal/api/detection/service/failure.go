package detectionService

import (
	"DebrisDetector/internal/api/detection"
	"DebrisDetector/pkg/detector"
	"context"
	"errors"
	"net"
	"syscall"
)

// describeFailure normalizes an error returned by the detector for detection.Classify.
func describeFailure(err error) detection.Failure {
	if err == nil {
		return detection.Failure{}
	}

	var statusErr *detector.StatusError
	if errors.As(err, &statusErr) {
		return detection.Failure{
			Responded:  true,
			StatusCode: statusErr.StatusCode,
			Status:     statusErr.Status,
			Detail:     statusErr.Detail,
		}
	}

	var decodeErr *detector.DecodeError
	if errors.As(err, &decodeErr) {
		return detection.Failure{Cause: decodeErr.Error()}
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return detection.Failure{TimedOut: true}
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return detection.Failure{TimedOut: true}
	}

	var opErr *net.OpError
	var dnsErr *net.DNSError
	if errors.As(err, &opErr) ||
		errors.As(err, &dnsErr) ||
		errors.Is(err, syscall.ECONNREFUSED) ||
		errors.Is(err, syscall.ECONNRESET) {
		return detection.Failure{Unreachable: true, Cause: err.Error()}
	}

	return detection.Failure{Cause: err.Error()}
}
