package detector

import (
	"DebrisDetector/internal/entity"
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func pngBytes(t *testing.T) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, 8, 8))
	img.Set(1, 1, color.RGBA{R: 255, A: 255})

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func newClient(t *testing.T, handler http.HandlerFunc) IDetector {
	t.Helper()

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return New(Config{Endpoint: srv.URL + "/predict"}, testLogger(), nil)
}

func TestPredictSendsMultipartAndDecodesResult(t *testing.T) {
	annotated := pngBytes(t)
	upload := []byte("raw image bytes")

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/predict" {
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}

		file, header, err := r.FormFile(FileField)
		if err != nil {
			t.Errorf("missing %q field: %v", FileField, err)
			http.Error(w, "bad request", http.StatusBadRequest)
			return
		}
		defer file.Close()

		got, _ := io.ReadAll(file)
		if !bytes.Equal(got, upload) {
			t.Errorf("uploaded bytes = %q, want %q", got, upload)
		}
		if header.Filename != `orbit "1".png` {
			t.Errorf("filename = %q", header.Filename)
		}

		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `{
			"annotated_image": "`+base64.StdEncoding.EncodeToString(annotated)+`",
			"detections": [
				{"class": "satellite", "confidence": 0.82, "box": [10, 20, 110, 220]},
				{"class": "debris", "confidence": 0.31, "box": [1, 2, 3, 4]}
			]
		}`)
	})

	result, err := client.Predict(context.Background(), entity.SelectedImage{
		Name:        `orbit "1".png`,
		ContentType: "image/png",
		Data:        upload,
	})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}

	if !bytes.Equal(result.AnnotatedImage, annotated) {
		t.Fatal("annotated image was not decoded")
	}
	if result.AnnotatedType != "image/png" {
		t.Errorf("AnnotatedType = %q, want image/png", result.AnnotatedType)
	}
	if result.Count() != 2 {
		t.Fatalf("Count = %d, want 2", result.Count())
	}

	first := result.Detections[0]
	if first.Label != "satellite" || first.Confidence != 0.82 || first.Box != (entity.Box{10, 20, 110, 220}) {
		t.Errorf("unexpected first detection %+v", first)
	}
	if result.Detections[1].Label != "debris" {
		t.Errorf("detections were reordered: %+v", result.Detections)
	}
}

func TestPredictAcceptsDataURIAndMissingDetections(t *testing.T) {
	annotated := pngBytes(t)

	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"annotated_image": "data:image/png;base64,`+base64.StdEncoding.EncodeToString(annotated)+`"}`)
	})

	result, err := client.Predict(context.Background(), entity.SelectedImage{Name: "a.png", Data: []byte("x")})
	if err != nil {
		t.Fatalf("Predict: %v", err)
	}
	if !bytes.Equal(result.AnnotatedImage, annotated) {
		t.Fatal("data URI payload was not decoded")
	}
	if result.Detections == nil || result.Count() != 0 {
		t.Fatalf("want an empty detection list, got %#v", result.Detections)
	}
}

func TestPredictStatusError(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantDetail string
	}{
		{"detail string", http.StatusInternalServerError, `{"detail":"model error"}`, "model error"},
		{"detail object", http.StatusUnprocessableEntity, `{"detail":[{"msg":"field required"}]}`, `[{"msg":"field required"}]`},
		{"error field", http.StatusBadGateway, `{"error":"upstream down"}`, "upstream down"},
		{"message field", http.StatusServiceUnavailable, `{"message":"warming up"}`, "warming up"},
		{"not json", http.StatusInternalServerError, `oops`, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				io.WriteString(w, tt.body)
			})

			_, err := client.Predict(context.Background(), entity.SelectedImage{Name: "a.png", Data: []byte("x")})

			var statusErr *StatusError
			if !errors.As(err, &statusErr) {
				t.Fatalf("want *StatusError, got %v", err)
			}
			if statusErr.StatusCode != tt.status {
				t.Errorf("StatusCode = %d, want %d", statusErr.StatusCode, tt.status)
			}
			if statusErr.Detail != tt.wantDetail {
				t.Errorf("Detail = %q, want %q", statusErr.Detail, tt.wantDetail)
			}
		})
	}
}

func TestPredictDecodeError(t *testing.T) {
	valid := base64.StdEncoding.EncodeToString([]byte("img"))

	tests := map[string]string{
		"not json":          `<html>`,
		"missing image":     `{"detections": []}`,
		"invalid base64":    `{"annotated_image": "***"}`,
		"short box":         `{"annotated_image": "` + valid + `", "detections": [{"class": "a", "confidence": 0.5, "box": [1, 2, 3]}]}`,
		"confidence over 1": `{"annotated_image": "` + valid + `", "detections": [{"class": "a", "confidence": 1.5, "box": [1, 2, 3, 4]}]}`,
		"missing class":     `{"annotated_image": "` + valid + `", "detections": [{"confidence": 0.5, "box": [1, 2, 3, 4]}]}`,
	}

	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
				io.WriteString(w, body)
			})

			_, err := client.Predict(context.Background(), entity.SelectedImage{Name: "a.png", Data: []byte("x")})

			var decodeErr *DecodeError
			if !errors.As(err, &decodeErr) {
				t.Fatalf("want *DecodeError, got %v", err)
			}
		})
	}
}

func TestPredictHonoursContextDeadline(t *testing.T) {
	release := make(chan struct{})
	client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	})
	t.Cleanup(func() { close(release) })

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.Predict(ctx, entity.SelectedImage{Name: "a.png", Data: []byte("x")})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("want context.DeadlineExceeded, got %v", err)
	}
}

func TestHealthCheck(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodGet || r.URL.Path != "/" {
				t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
			}
			io.WriteString(w, `{"message":"ok"}`)
		})

		if err := client.HealthCheck(context.Background()); err != nil {
			t.Fatalf("HealthCheck: %v", err)
		}
	})

	t.Run("unhealthy", func(t *testing.T) {
		client := newClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			io.WriteString(w, `{"detail":"loading model"}`)
		})

		err := client.HealthCheck(context.Background())

		var statusErr *StatusError
		if !errors.As(err, &statusErr) || statusErr.Detail != "loading model" {
			t.Fatalf("want StatusError with detail, got %v", err)
		}
	})
}

func TestNewFallsBackToEnvironment(t *testing.T) {
	t.Setenv("DETECTION_SERVICE_URL", "http://detector.internal:9000/predict")

	client := New(Config{}, testLogger(), nil).(*detectorClient)
	if client.endpoint != "http://detector.internal:9000/predict" {
		t.Fatalf("endpoint = %q", client.endpoint)
	}
}
