package detection

import (
	"DebrisDetector/internal/entity"
	"strings"
	"testing"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name        string
		failure     Failure
		wantKind    entity.ErrorKind
		wantMessage string
		wantStatus  int
	}{
		{
			name:        "timeout",
			failure:     Failure{TimedOut: true},
			wantKind:    entity.ErrorKindTimeout,
			wantMessage: "request timed out, the detection service may be overloaded",
		},
		{
			name:        "timeout wins over a response",
			failure:     Failure{TimedOut: true, Responded: true, StatusCode: 500},
			wantKind:    entity.ErrorKindTimeout,
			wantMessage: "request timed out, the detection service may be overloaded",
		},
		{
			name:        "service error with detail",
			failure:     Failure{Responded: true, StatusCode: 500, Status: "500 Internal Server Error", Detail: "model error"},
			wantKind:    entity.ErrorKindService,
			wantMessage: "detection failed: model error",
			wantStatus:  500,
		},
		{
			name:        "service error falls back to status text",
			failure:     Failure{Responded: true, StatusCode: 502, Status: "502 Bad Gateway"},
			wantKind:    entity.ErrorKindService,
			wantMessage: "detection failed: 502 Bad Gateway",
			wantStatus:  502,
		},
		{
			name:        "service error with blank detail and no status text",
			failure:     Failure{Responded: true, StatusCode: 418, Detail: "   "},
			wantKind:    entity.ErrorKindService,
			wantMessage: "detection failed: HTTP 418",
			wantStatus:  418,
		},
		{
			name:        "unreachable",
			failure:     Failure{Unreachable: true, Cause: "connection refused"},
			wantKind:    entity.ErrorKindNetwork,
			wantMessage: "cannot reach the detection service, make sure it is running",
		},
		{
			name:        "unknown with cause",
			failure:     Failure{Cause: "boom"},
			wantKind:    entity.ErrorKindUnknown,
			wantMessage: "unexpected error: boom",
		},
		{
			name:        "unknown without cause",
			failure:     Failure{},
			wantKind:    entity.ErrorKindUnknown,
			wantMessage: "unexpected error: unknown failure",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Classify(tt.failure)
			if got.Kind != tt.wantKind {
				t.Errorf("Kind = %q, want %q", got.Kind, tt.wantKind)
			}
			if got.Message != tt.wantMessage {
				t.Errorf("Message = %q, want %q", got.Message, tt.wantMessage)
			}
			if got.Status != tt.wantStatus {
				t.Errorf("Status = %d, want %d", got.Status, tt.wantStatus)
			}
			if strings.TrimSpace(got.Message) == "" {
				t.Error("Message is empty")
			}
		})
	}
}

func TestClassifyIsDeterministic(t *testing.T) {
	f := Failure{Responded: true, StatusCode: 503, Detail: "warming up"}

	first := Classify(f)
	for i := 0; i < 10; i++ {
		if got := Classify(f); got != first {
			t.Fatalf("Classify returned %+v, then %+v", first, got)
		}
	}
}
