package detectionService

import (
	"DebrisDetector/internal/api/detection"
	"DebrisDetector/internal/entity"
	"DebrisDetector/pkg/log"
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"
)

func (s *detectionService) SelectFile(name string, data []byte) {
	data = bytes.Clone(data)
	image := entity.SelectedImage{
		Name:        name,
		ContentType: s.utils.DetectContentType(data),
		Data:        data,
		Preview:     s.utils.MakePreview(data),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state.Phase()
	s.seq++
	s.setState(entity.Previewing{Image: image})

	s.log.WithFields(log.Fields{
		"file_name":      name,
		"file_size":      len(data),
		"content_type":   image.ContentType,
		"previous_phase": previous,
	}).Debug("File selected")
}

func (s *detectionService) Submit(ctx context.Context) error {
	if ctx == nil {
		ctx = context.Background()
	}

	s.mu.Lock()

	if current, busy := s.state.(entity.Submitting); busy {
		s.mu.Unlock()
		s.log.WithFields(log.Fields{
			"request_id":    log.RequestIDFrom(ctx),
			"submission_id": current.SubmissionID,
		}).Warn("Submit ignored, a submission is already in flight")
		return detection.ErrSubmissionInFlight
	}

	image, ok := entity.ImageOf(s.state)
	if !ok {
		s.mu.Unlock()
		s.log.WithFields(log.Fields{
			"request_id": log.RequestIDFrom(ctx),
		}).Debug("Submit rejected, no file selected")
		return detection.ErrNoFileSelected
	}

	submissionID, err := s.utils.NewULIDFromTimestamp(time.Now())
	if err != nil {
		submissionID = fmt.Sprintf("submission-%d-%d", s.seq, time.Now().UnixNano())
	}

	seq := s.seq
	s.setState(entity.Submitting{Image: image, SubmissionID: submissionID})
	s.inFlight.Add(1)
	s.mu.Unlock()

	s.log.WithFields(log.Fields{
		"request_id":    log.RequestIDFrom(ctx),
		"submission_id": submissionID,
		"file_name":     image.Name,
		"file_size":     len(image.Data),
	}).Info("Submitting image for detection")

	go s.run(context.WithoutCancel(ctx), seq, submissionID, image)

	return nil
}

func (s *detectionService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	previous := s.state.Phase()
	s.seq++
	s.setState(entity.Idle{})

	s.log.WithFields(log.Fields{
		"previous_phase": previous,
	}).Debug("Workflow reset")
}

func (s *detectionService) State() entity.State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

func (s *detectionService) Wait() {
	s.inFlight.Wait()
}

func (s *detectionService) run(ctx context.Context, seq uint64, submissionID string, image entity.SelectedImage) {
	defer s.inFlight.Done()

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	result, err := s.predict(ctx, image)
	if err == nil && result == nil {
		err = errors.New("detection service returned no result")
	}

	s.complete(ctx, seq, submissionID, image, result, err, time.Since(start))
}

func (s *detectionService) predict(ctx context.Context, image entity.SelectedImage) (result *entity.DetectionResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = nil
			err = fmt.Errorf("detector panicked: %v", r)
		}
	}()

	return s.detector.Predict(ctx, image)
}

func (s *detectionService) complete(
	ctx context.Context,
	seq uint64,
	submissionID string,
	image entity.SelectedImage,
	result *entity.DetectionResult,
	err error,
	elapsed time.Duration,
) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields := log.Fields{
		"request_id":    log.RequestIDFrom(ctx),
		"submission_id": submissionID,
		"duration_ms":   elapsed.Milliseconds(),
	}

	current, submitting := s.state.(entity.Submitting)
	if seq != s.seq || !submitting || current.SubmissionID != submissionID {
		fields["current_phase"] = s.state.Phase()
		s.log.WithFields(fields).Info("Discarding outcome of a superseded submission")
		return
	}

	if err != nil {
		info := detection.Classify(describeFailure(err))
		s.setState(entity.Failed{Image: image, SubmissionID: submissionID, Error: info})

		fields["error"] = err.Error()
		fields["kind"] = info.Kind
		s.log.WithFields(fields).Warn("Detection submission failed")
		return
	}

	s.setState(entity.Succeeded{Image: image, SubmissionID: submissionID, Result: *result})

	fields["detections"] = result.Count()
	s.log.WithFields(fields).Info("Detection submission succeeded")
}
