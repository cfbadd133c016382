package detectionService

import (
	"DebrisDetector/internal/api/detection"
	"DebrisDetector/pkg/detector"
	"context"
	"errors"
	"fmt"
	"net"
	"net/url"
	"os"
	"syscall"
	"testing"
)

func TestDescribeFailure(t *testing.T) {
	refused := &url.Error{
		Op:  "Post",
		URL: "http://localhost:8000/predict",
		Err: &net.OpError{Op: "dial", Net: "tcp", Err: os.NewSyscallError("connect", syscall.ECONNREFUSED)},
	}

	tests := []struct {
		name string
		err  error
		want detection.Failure
	}{
		{
			name: "nil",
			err:  nil,
			want: detection.Failure{},
		},
		{
			name: "status error",
			err:  fmt.Errorf("predict: %w", &detector.StatusError{StatusCode: 503, Status: "503 Service Unavailable", Detail: "busy"}),
			want: detection.Failure{Responded: true, StatusCode: 503, Status: "503 Service Unavailable", Detail: "busy"},
		},
		{
			name: "deadline",
			err:  fmt.Errorf("detection request failed: %w", context.DeadlineExceeded),
			want: detection.Failure{TimedOut: true},
		},
		{
			name: "dns timeout",
			err:  &net.DNSError{Err: "i/o timeout", Name: "detector", IsTimeout: true},
			want: detection.Failure{TimedOut: true},
		},
		{
			name: "connection refused",
			err:  refused,
			want: detection.Failure{Unreachable: true, Cause: refused.Error()},
		},
		{
			name: "bare syscall error",
			err:  syscall.ECONNRESET,
			want: detection.Failure{Unreachable: true, Cause: syscall.ECONNRESET.Error()},
		},
		{
			name: "anything else",
			err:  errors.New("boom"),
			want: detection.Failure{Cause: "boom"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := describeFailure(tt.err); got != tt.want {
				t.Fatalf("describeFailure() = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestDescribeFailureDecodeError(t *testing.T) {
	err := &detector.DecodeError{Err: errors.New("annotated_image is not valid base64")}

	got := describeFailure(err)
	if got.Unreachable || got.TimedOut || got.Responded {
		t.Fatalf("decode error classified as transport failure: %+v", got)
	}

	info := detection.Classify(got)
	if info.Message != "unexpected error: invalid detection service response: annotated_image is not valid base64" {
		t.Fatalf("unexpected message %q", info.Message)
	}
}
